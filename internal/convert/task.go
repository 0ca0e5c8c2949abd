package convert

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Task describes one conversion: where the source lives, where the MP4 goes,
// and where the intermediate stream is dumped. The output sits beside the
// source with the extension swapped; the temp file carries a uuid suffix so
// equal basenames in different subdirectories cannot collide in the shared
// temp directory.
type Task struct {
	Source string
	Output string
	Temp   string
}

// NewTask derives the output and temp paths for a source file. tempDir is the
// run's scoped temp directory.
func NewTask(source, tempDir string) Task {
	base := filepath.Base(source)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return Task{
		Source: source,
		Output: strings.TrimSuffix(source, filepath.Ext(source)) + ".mp4",
		Temp:   filepath.Join(tempDir, stem+"-"+uuid.NewString()+".h264"),
	}
}
