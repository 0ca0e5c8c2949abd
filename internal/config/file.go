package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// fileConfig mirrors the TOML schema. Only fields present in the file are
// applied, so file values layer cleanly over defaults and under flags.
type fileConfig struct {
	Extractor           string `toml:"extractor"`
	Muxer               string `toml:"muxer"`
	StageTimeoutSeconds int    `toml:"stage_timeout"`
	RemoveOriginal      *bool  `toml:"remove_original"`
	TempDir             string `toml:"temp_dir"`
	Color               string `toml:"color"`
	LogFile             string `toml:"log_file"`
}

// LocateDefault returns the conventional config file path
// (<user config dir>/avi2mp4/config.toml) if it exists, otherwise "".
func LocateDefault() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	path := filepath.Join(base, "avi2mp4", "config.toml")
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return path
}

// LoadFile overlays settings from a TOML file onto cfg. A missing explicit
// path is an error; pass the result of [LocateDefault] for optional loading.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config file %s not found", path)
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	if strings.TrimSpace(fc.Extractor) != "" {
		cfg.Extractor = strings.TrimSpace(fc.Extractor)
	}
	if strings.TrimSpace(fc.Muxer) != "" {
		cfg.Muxer = strings.TrimSpace(fc.Muxer)
	}
	if fc.StageTimeoutSeconds > 0 {
		cfg.StageTimeout = time.Duration(fc.StageTimeoutSeconds) * time.Second
	}
	if fc.RemoveOriginal != nil {
		cfg.RemoveOriginal = *fc.RemoveOriginal
	}
	if fc.TempDir != "" {
		cfg.TempDir = fc.TempDir
	}
	if fc.Color != "" {
		cfg.ColorMode = ColorMode(fc.Color)
	}
	if fc.LogFile != "" {
		cfg.LogFile = fc.LogFile
	}
	return nil
}
