// Package config holds runtime configuration: defaults, optional TOML file
// loading, and validation. Flag binding lives in cmd/avi2mp4; this package
// only defines the struct and the rules for filling it.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ColorMode controls ANSI color output.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"   // Enable colors when stdout is a TTY (default).
	ColorAlways ColorMode = "always" // Force colors on.
	ColorNever  ColorMode = "never"  // Disable colors entirely.
)

// Config holds all runtime settings. It is populated by [DefaultConfig],
// optionally overlaid with a TOML file via [LoadFile], and finally mutated by
// CLI flags before being passed (by pointer) to packages that need it.
type Config struct {
	// Target directory (positional arg; defaults to the working directory).
	TargetDir string

	// External tools.
	Extractor string // Default: "mplayer". Invoked with -dumpvideo to pull the raw stream.
	Muxer     string // Default: "ffmpeg". Wraps the stream into an MP4 container.

	// Per-stage subprocess timeout. Zero disables the deadline entirely;
	// a hung tool then blocks the batch, which is the legacy behavior.
	StageTimeout time.Duration // Default: 30m.

	// Behavior flags.
	RemoveOriginal bool   // Delete the source AVI after a verified conversion.
	TempDir        string // Base for the scoped temp directory; empty means os.TempDir.

	// Display and logging.
	ColorMode ColorMode // Default: "auto".
	LogFile   string    // Optional plain-text log sink.
	Verbose   bool
	CheckOnly bool // Run --check diagnostics and exit.
}

// DefaultConfig returns a Config matching the legacy converter script's
// behavior: mplayer + ffmpeg on PATH, originals kept, colors auto-detected.
func DefaultConfig() Config {
	return Config{
		Extractor:    "mplayer",
		Muxer:        "ffmpeg",
		StageTimeout: 30 * time.Minute,
		ColorMode:    ColorAuto,
	}
}

// NormalizeDirArg strips trailing slashes from a directory path.
// The filesystem root "/" is returned unchanged so we don't produce an empty string.
func NormalizeDirArg(path string) string {
	if path == "/" {
		return "/"
	}
	return strings.TrimRight(path, "/")
}

// Validate checks enum fields and tool names. TargetDir existence is not
// checked here; discovery reports that with a proper error.
func (c *Config) Validate() error {
	switch c.ColorMode {
	case ColorAuto, ColorAlways, ColorNever:
		// valid
	default:
		return fmt.Errorf("invalid color mode %q (use 'auto', 'always' or 'never')", c.ColorMode)
	}
	if strings.TrimSpace(c.Extractor) == "" {
		return errors.New("extractor command must not be empty")
	}
	if strings.TrimSpace(c.Muxer) == "" {
		return errors.New("muxer command must not be empty")
	}
	if c.StageTimeout < 0 {
		return errors.New("stage timeout must not be negative")
	}
	return nil
}
