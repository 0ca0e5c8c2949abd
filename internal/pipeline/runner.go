package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/backmassage/avi2mp4/internal/config"
	"github.com/backmassage/avi2mp4/internal/convert"
	"github.com/backmassage/avi2mp4/internal/logging"
)

// Converter is the per-file conversion boundary. Implemented by
// [convert.Converter]; narrowed to an interface so the batch loop is testable
// without external tools.
type Converter interface {
	Convert(ctx context.Context, task convert.Task) (int64, error)
}

// Run processes the discovered files sequentially: one file is fully
// converted (both subprocess stages) before the next begins. Conversion
// failures are recorded and the batch continues; only context cancellation
// stops the loop early. tempDir is the scoped location for intermediate
// streams.
func Run(ctx context.Context, cfg *config.Config, log *logging.Logger, conv Converter, files []string, tempDir string) (RunStats, []Result) {
	stats := RunStats{Total: len(files)}
	results := make([]Result, 0, len(files))

	start := time.Now()
	for i, path := range files {
		stats.Current = i + 1

		if ctx.Err() != nil {
			log.Warn("Interrupted, %d of %d files left unprocessed", stats.Total-i, stats.Total)
			break
		}

		results = append(results, processFile(ctx, cfg, log, conv, path, tempDir, &stats))
		fmt.Println()
	}
	stats.Elapsed = time.Since(start)

	logSummary(log, &stats)
	return stats, results
}

// processFile converts one source file and updates the counters.
func processFile(ctx context.Context, cfg *config.Config, log *logging.Logger, conv Converter, path, tempDir string, stats *RunStats) Result {
	log.Info("[%d/%d] %s", stats.Current, stats.Total, filepath.Base(path))

	task := convert.NewTask(path, tempDir)
	log.Debug(cfg.Verbose, "  temp stream: %s", task.Temp)

	start := time.Now()
	n, err := conv.Convert(ctx, task)
	elapsed := time.Since(start)

	if err != nil {
		stats.Failed++
		log.Error("  %v", err)
		logStderr(log, err)
		return Result{Source: path, Err: err, Elapsed: elapsed}
	}

	stats.Converted++
	stats.OutputBytes += n
	log.Success("  Created %s (%s) in %s",
		filepath.Base(task.Output), humanize.IBytes(uint64(n)), elapsed.Round(time.Millisecond))

	if cfg.RemoveOriginal {
		if rmErr := os.Remove(path); rmErr != nil {
			log.Warn("  Could not remove original: %v", rmErr)
		} else {
			log.Debug(cfg.Verbose, "  Removed original %s", filepath.Base(path))
		}
	}

	return Result{Source: path, Output: task.Output, OutputBytes: n, Elapsed: elapsed}
}

// logStderr prints the last lines the failing tool wrote, if any were captured.
func logStderr(log *logging.Logger, err error) {
	var se *convert.StageError
	if !errors.As(err, &se) || strings.TrimSpace(se.Stderr) == "" {
		return
	}
	lines := strings.Split(strings.TrimSpace(se.Stderr), "\n")
	start := 0
	if len(lines) > 10 {
		start = len(lines) - 10
	}
	log.Error("  Last tool output:")
	for _, l := range lines[start:] {
		log.Error("    %s", l)
	}
}

func logSummary(log *logging.Logger, stats *RunStats) {
	log.Info("==============================")
	log.Info("Done: %d converted, %d failed (of %d found) in %s",
		stats.Converted, stats.Failed, stats.Total, stats.Elapsed.Round(time.Second))
}
