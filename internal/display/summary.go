package display

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/backmassage/avi2mp4/internal/convert"
	"github.com/backmassage/avi2mp4/internal/pipeline"
)

// RenderSummary renders the end-of-run tally as a rounded table.
func RenderSummary(stats pipeline.RunStats) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("Conversion Summary")

	tw.AppendRow(table.Row{"AVI files found", stats.Total})
	tw.AppendRow(table.Row{"Converted", stats.Converted})
	tw.AppendRow(table.Row{"Failed", stats.Failed})
	tw.AppendRow(table.Row{"Output written", humanize.IBytes(uint64(stats.OutputBytes))})
	tw.AppendRow(table.Row{"Elapsed", stats.Elapsed.Round(time.Second).String()})

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight},
	})
	return tw.Render()
}

// RenderFailures lists each failed file with the stage and reason.
// Returns "" when nothing failed.
func RenderFailures(results []pipeline.Result) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetTitle("Failed Files")
	tw.AppendHeader(table.Row{"File", "Stage", "Reason"})

	rows := 0
	for _, r := range results {
		if !r.Failed() {
			continue
		}
		rows++
		tw.AppendRow(table.Row{filepath.Base(r.Source), failureStage(r.Err), failureReason(r.Err)})
	}
	if rows == 0 {
		return ""
	}
	return tw.Render()
}

func failureStage(err error) string {
	var se *convert.StageError
	if errors.As(err, &se) {
		return string(se.Stage)
	}
	return "convert"
}

// failureReason keeps the reason to a single table-friendly line: the wrapped
// cause plus the first captured stderr line when there is one.
func failureReason(err error) string {
	var se *convert.StageError
	if !errors.As(err, &se) {
		return err.Error()
	}
	reason := se.Err.Error()
	if lines := strings.Split(strings.TrimSpace(se.Stderr), "\n"); len(lines) > 0 && lines[0] != "" {
		reason = fmt.Sprintf("%s: %s", reason, lines[0])
	}
	return reason
}
