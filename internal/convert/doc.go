// Package convert performs a single AVI → MP4 conversion by invoking two
// external tools as subprocesses: the extractor dumps the raw video stream
// into a temp file, the muxer wraps that stream into an MP4 container next to
// the source. No media logic lives in-process; only exit status and output
// file presence are inspected.
package convert
