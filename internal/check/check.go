// Package check validates that the external media tools (stream extractor and
// container muxer) are available before the batch starts, and implements the
// --check diagnostics mode.
package check

import (
	"errors"
	"os/exec"
	"strings"

	"github.com/backmassage/avi2mp4/internal/config"
)

// Sentinel errors returned by CheckDeps when a required tool is missing.
var (
	ErrExtractorNotFound = errors.New("stream extractor not found on PATH")
	ErrMuxerNotFound     = errors.New("container muxer not found on PATH")
)

// Logger is the minimal logging interface needed by RunCheck.
// Defined here (rather than importing the logging package) so that check
// remains dependency-light and testable with a mock logger.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// Requirement defines an external tool the converter relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
}

// Status reports the availability of a requirement.
type Status struct {
	Requirement
	Available bool
	Resolved  string // Absolute path from PATH lookup when available.
	Detail    string
}

// Requirements returns the tool set for the configured binaries.
func Requirements(cfg *config.Config) []Requirement {
	return []Requirement{
		{Name: "extractor", Command: cfg.Extractor, Description: "dumps the raw video stream from AVI sources"},
		{Name: "muxer", Command: cfg.Muxer, Description: "wraps the stream into an MP4 container"},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		status := Status{Requirement: req}
		cmd := strings.TrimSpace(req.Command)
		if cmd == "" {
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		path, err := exec.LookPath(cmd)
		if err != nil {
			status.Detail = "binary " + cmd + " not found"
			results = append(results, status)
			continue
		}
		status.Available = true
		status.Resolved = path
		results = append(results, status)
	}
	return results
}

// CheckDeps is the pre-batch validation: both tools must resolve on PATH.
// Returns a sentinel error for the first missing tool.
func CheckDeps(cfg *config.Config) error {
	if _, err := exec.LookPath(cfg.Extractor); err != nil {
		return ErrExtractorNotFound
	}
	if _, err := exec.LookPath(cfg.Muxer); err != nil {
		return ErrMuxerNotFound
	}
	return nil
}

// Missing returns the commands from statuses that did not resolve.
func Missing(statuses []Status) []string {
	var out []string
	for _, s := range statuses {
		if !s.Available {
			out = append(out, s.Command)
		}
	}
	return out
}

// InstallHint returns guidance lines for installing the missing tools with
// common package managers, matching the legacy script's help text.
func InstallHint(missing []string) []string {
	if len(missing) == 0 {
		return nil
	}
	joined := strings.Join(missing, " ")
	return []string{
		"Install the missing tools with your system's package manager:",
		"  Windows (Chocolatey):  choco install " + joined,
		"  macOS (Homebrew):      brew install " + joined,
		"  Ubuntu/Debian:         sudo apt-get install " + joined,
		"Downloads:",
		"  MPlayer: http://www.mplayerhq.hu/design7/dload.html",
		"  FFmpeg:  https://ffmpeg.org/download.html",
	}
}

// RunCheck runs the --check flow: prints availability and version info for
// both tools. Informational only; returns false if anything is missing.
func RunCheck(cfg *config.Config, log Logger) bool {
	log.Info("=== System Check ===")

	statuses := CheckBinaries(Requirements(cfg))
	ok := true
	for _, s := range statuses {
		if !s.Available {
			log.Error("%s (%s): %s", s.Name, s.Command, s.Detail)
			ok = false
			continue
		}
		log.Success("%s: %s", s.Name, s.Resolved)
		if v := toolVersion(s.Command); v != "" {
			log.Info("  %s", v)
		}
	}

	if !ok {
		for _, line := range InstallHint(Missing(statuses)) {
			log.Warn("%s", line)
		}
	}
	return ok
}

// toolVersion returns the first line a tool prints for -version. mplayer
// exits non-zero without a file argument but still prints its banner, so the
// exit status is ignored when output exists.
func toolVersion(command string) string {
	out, err := exec.Command(command, "-version").CombinedOutput()
	if len(out) == 0 && err != nil {
		return ""
	}
	first := strings.TrimSpace(string(out))
	if idx := strings.Index(first, "\n"); idx > 0 {
		first = first[:idx]
	}
	return first
}
