package convert

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// commandContext is a seam for tests to intercept subprocess creation.
var commandContext = exec.CommandContext

// Stage identifies which external tool a failure came from.
type Stage string

const (
	StageExtract Stage = "extract"
	StageMux     Stage = "mux"
)

// StageError reports a failed subprocess stage. Err may wrap the process exit
// error or context.DeadlineExceeded; Stderr holds whatever the tool printed.
type StageError struct {
	Stage  Stage
	Source string
	Err    error
	Stderr string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s stage failed for %s: %v", e.Stage, filepath.Base(e.Source), e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Option configures a Converter.
type Option func(*Converter)

// WithExtractor overrides the default extractor binary.
func WithExtractor(binary string) Option {
	return func(c *Converter) {
		if binary != "" {
			c.extractor = binary
		}
	}
}

// WithMuxer overrides the default muxer binary.
func WithMuxer(binary string) Option {
	return func(c *Converter) {
		if binary != "" {
			c.muxer = binary
		}
	}
}

// WithTimeout bounds each subprocess stage. Zero disables the deadline.
func WithTimeout(d time.Duration) Option {
	return func(c *Converter) { c.timeout = d }
}

// Converter wraps the external extractor and muxer tools.
type Converter struct {
	extractor string
	muxer     string
	timeout   time.Duration
}

// New constructs a Converter using mplayer/ffmpeg defaults.
func New(opts ...Option) *Converter {
	c := &Converter{
		extractor: "mplayer",
		muxer:     "ffmpeg",
		timeout:   30 * time.Minute,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Convert runs both stages for one task and returns the output size in bytes.
// The temp file is removed before returning, success or failure.
func (c *Converter) Convert(ctx context.Context, task Task) (int64, error) {
	defer os.Remove(task.Temp)

	// Stage 1: dump the raw video stream.
	if err := c.runStage(ctx, StageExtract, task.Source, c.extractor,
		"-really-quiet",
		"-dumpvideo",
		"-dumpfile", task.Temp,
		task.Source,
	); err != nil {
		return 0, err
	}
	if err := outputReady(task.Temp); err != nil {
		return 0, &StageError{Stage: StageExtract, Source: task.Source, Err: err}
	}

	// Stage 2: wrap the stream into the container, copying the codec.
	if err := c.runStage(ctx, StageMux, task.Source, c.muxer,
		"-hide_banner",
		"-nostdin",
		"-loglevel", "error",
		"-y",
		"-i", task.Temp,
		"-c:v", "copy",
		task.Output,
	); err != nil {
		return 0, err
	}
	if err := outputReady(task.Output); err != nil {
		return 0, &StageError{Stage: StageMux, Source: task.Source, Err: err}
	}

	fi, err := os.Stat(task.Output)
	if err != nil {
		return 0, &StageError{Stage: StageMux, Source: task.Source, Err: err}
	}
	return fi.Size(), nil
}

// runStage executes one tool invocation with the stage deadline applied and
// stderr captured for reporting.
func (c *Converter) runStage(ctx context.Context, stage Stage, source, binary string, args ...string) error {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	var stderr bytes.Buffer
	cmd := commandContext(ctx, binary, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			err = fmt.Errorf("tool exceeded stage timeout of %s: %w", c.timeout, context.DeadlineExceeded)
		}
		return &StageError{Stage: stage, Source: source, Err: err, Stderr: stderr.String()}
	}
	return nil
}

// outputReady verifies a stage actually produced a non-empty file. Tools can
// exit zero and still leave nothing usable behind.
func outputReady(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("tool exited cleanly but produced no output at %s: %w", path, err)
	}
	if fi.Size() == 0 {
		return fmt.Errorf("tool produced an empty output at %s", path)
	}
	return nil
}
