// Command avi2mp4 recursively finds AVI files under a directory and remuxes
// each into an MP4 container by driving two external tools: a stream
// extractor (mplayer) and a container muxer (ffmpeg).
//
// Per-file failures never abort the batch; the exit code is non-zero only
// when the directory is invalid, the tools are missing, or another run
// already holds the directory lock.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/backmassage/avi2mp4/internal/check"
	"github.com/backmassage/avi2mp4/internal/config"
	"github.com/backmassage/avi2mp4/internal/convert"
	"github.com/backmassage/avi2mp4/internal/display"
	"github.com/backmassage/avi2mp4/internal/logging"
	"github.com/backmassage/avi2mp4/internal/pipeline"
)

// version and commit are injected at build time via -ldflags.
var (
	version = "1.0.0-dev"
	commit  = "unknown"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "avi2mp4: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "avi2mp4 [directory]",
		Short:         "Batch-convert AVI files to MP4 via mplayer and ffmpeg",
		Args:          cobra.MaximumNArgs(1),
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveConfig(cmd, args)
			if err != nil {
				return err
			}
			return run(&cfg)
		},
	}

	cmd.Flags().StringP("config", "c", "", "Configuration file path (TOML)")
	cmd.Flags().String("extractor", "", "Stream extractor binary (default mplayer)")
	cmd.Flags().String("muxer", "", "Container muxer binary (default ffmpeg)")
	cmd.Flags().Int("timeout", 0, "Per-stage tool timeout in seconds (0 disables)")
	cmd.Flags().Bool("remove-original", false, "Delete the source AVI after a verified conversion")
	cmd.Flags().String("temp-dir", "", "Base directory for intermediate streams")
	cmd.Flags().String("color", "auto", "Color output: auto | always | never")
	cmd.Flags().StringP("log", "l", "", "Append logs to file")
	cmd.Flags().BoolP("verbose", "v", false, "Verbose output")
	cmd.Flags().Bool("check", false, "Run tool diagnostics and exit")

	return cmd
}

// resolveConfig layers defaults, the optional TOML file, and explicitly set
// flags (flags win), then resolves the target directory to a canonical
// absolute path and validates the result.
func resolveConfig(cmd *cobra.Command, args []string) (config.Config, error) {
	cfg := config.DefaultConfig()
	flags := cmd.Flags()

	path, _ := flags.GetString("config")
	if path == "" {
		path = config.LocateDefault()
	}
	if path != "" {
		if err := config.LoadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}

	if flags.Changed("extractor") {
		cfg.Extractor, _ = flags.GetString("extractor")
	}
	if flags.Changed("muxer") {
		cfg.Muxer, _ = flags.GetString("muxer")
	}
	if flags.Changed("timeout") {
		sec, _ := flags.GetInt("timeout")
		cfg.StageTimeout = time.Duration(sec) * time.Second
	}
	if flags.Changed("remove-original") {
		cfg.RemoveOriginal, _ = flags.GetBool("remove-original")
	}
	if flags.Changed("temp-dir") {
		cfg.TempDir, _ = flags.GetString("temp-dir")
	}
	if flags.Changed("color") {
		mode, _ := flags.GetString("color")
		cfg.ColorMode = config.ColorMode(mode)
	}
	if flags.Changed("log") {
		cfg.LogFile, _ = flags.GetString("log")
	}
	cfg.Verbose, _ = flags.GetBool("verbose")
	cfg.CheckOnly, _ = flags.GetBool("check")

	if len(args) == 1 {
		cfg.TargetDir = config.NormalizeDirArg(args[0])
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			return cfg, fmt.Errorf("resolve working directory: %w", err)
		}
		cfg.TargetDir = cwd
	}

	// Canonicalize so discovery results, logs, and the run lock all refer to
	// one absolute directory. Skipped in check mode, which never touches it.
	if !cfg.CheckOnly {
		abs, err := absPath(cfg.TargetDir)
		if err != nil {
			return cfg, fmt.Errorf("%q: %w", cfg.TargetDir, pipeline.ErrNotDirectory)
		}
		cfg.TargetDir = abs
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func run(cfg *config.Config) error {
	log, err := logging.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer log.Close()

	display.PrintBanner()

	// Phase 1: Diagnostics-only mode.
	if cfg.CheckOnly {
		if !check.RunCheck(cfg, log) {
			return errors.New("system check failed")
		}
		return nil
	}

	log.Info("=== avi2mp4 v%s ===", version)
	log.Info("Searching for AVI files in: %s", cfg.TargetDir)

	// Phase 2: Fatal preconditions: valid directory, tools on PATH, run lock.
	files, err := pipeline.Discover(cfg.TargetDir)
	if err != nil {
		return err
	}

	if err := check.CheckDeps(cfg); err != nil {
		statuses := check.CheckBinaries(check.Requirements(cfg))
		for _, line := range check.InstallHint(check.Missing(statuses)) {
			log.Warn("%s", line)
		}
		return err
	}

	if len(files) == 0 {
		log.Warn("No AVI files found in %s", cfg.TargetDir)
		return nil
	}
	log.Info("Found %d AVI files to convert", len(files))
	fmt.Println()

	lock, err := pipeline.AcquireRunLock(cfg.TargetDir)
	if err != nil {
		return err
	}
	defer lock.Unlock()

	tempDir, err := os.MkdirTemp(cfg.TempDir, "avi2mp4-")
	if err != nil {
		return fmt.Errorf("create temp directory: %w", err)
	}
	defer os.RemoveAll(tempDir)
	log.Debug(cfg.Verbose, "Temp directory: %s", tempDir)

	// Phase 3: Signal handling: cancel between files on SIGINT/SIGTERM.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Warn("Received interrupt, finishing current file…")
		cancel()
	}()

	// Phase 4: Run the batch and report. Per-file failures are already
	// counted; they do not affect the exit code.
	conv := convert.New(
		convert.WithExtractor(cfg.Extractor),
		convert.WithMuxer(cfg.Muxer),
		convert.WithTimeout(cfg.StageTimeout),
	)
	stats, results := pipeline.Run(ctx, cfg, log, conv, files, tempDir)

	fmt.Println(display.RenderSummary(stats))
	if failures := display.RenderFailures(results); failures != "" {
		fmt.Println(failures)
	}

	if stats.Converted > 0 {
		log.Success("Conversion complete. MP4 files are beside the original AVI files.")
	} else {
		log.Warn("No files were successfully converted.")
	}
	return nil
}

// absPath returns the absolute, symlink-resolved path for the target
// directory so all downstream output refers to one canonical location.
func absPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	return filepath.EvalSymlinks(abs)
}
