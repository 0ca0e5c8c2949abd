package convert

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// TestHelperProcess simulates the external tools. It is only executed as a
// subprocess of the tests below.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	var args []string
	for i, a := range os.Args {
		if a == "--" {
			args = os.Args[i+1:]
			break
		}
	}

	// The extractor names its output after -dumpfile; the muxer takes it as
	// the final argument.
	target := ""
	for i, a := range args {
		if a == "-dumpfile" && i+1 < len(args) {
			target = args[i+1]
		}
	}
	if target == "" && len(args) > 0 {
		target = args[len(args)-1]
	}

	switch os.Getenv("AVI2MP4_HELPER_MODE") {
	case "fail":
		fmt.Fprintln(os.Stderr, "simulated tool failure")
		os.Exit(1)
	case "silent":
		// Exit zero without producing anything.
	case "hang":
		time.Sleep(10 * time.Second)
	case "empty":
		_ = os.WriteFile(target, nil, 0o644)
	default:
		_ = os.WriteFile(target, []byte("stream-bytes"), 0o644)
	}
}

// stubTools replaces commandContext so each stage re-executes the test binary
// in helper mode, and records every invocation's argv.
func stubTools(t *testing.T, extractMode, muxMode string) *[][]string {
	t.Helper()
	var calls [][]string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		calls = append(calls, append([]string{name}, args...))
		mode := muxMode
		if name == "mplayer" {
			mode = extractMode
		}
		helperArgs := append([]string{"-test.run=TestHelperProcess", "--"}, args...)
		cmd := exec.CommandContext(ctx, os.Args[0], helperArgs...)
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", "AVI2MP4_HELPER_MODE="+mode)
		return cmd
	}
	t.Cleanup(func() { commandContext = original })
	return &calls
}

func sourceFile(t *testing.T) (string, Task) {
	t.Helper()
	dir := t.TempDir()
	src := filepath.Join(dir, "clip.avi")
	if err := os.WriteFile(src, []byte("riff-avi-bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	return src, NewTask(src, t.TempDir())
}

func TestConvert_Success(t *testing.T) {
	calls := stubTools(t, "ok", "ok")
	src, task := sourceFile(t)

	conv := New(WithTimeout(time.Minute))
	n, err := conv.Convert(context.Background(), task)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if n != int64(len("stream-bytes")) {
		t.Errorf("output size = %d, want %d", n, len("stream-bytes"))
	}

	if task.Output != strings.TrimSuffix(src, ".avi")+".mp4" {
		t.Errorf("output path = %q, not beside source", task.Output)
	}
	if _, err := os.Stat(task.Output); err != nil {
		t.Errorf("output missing: %v", err)
	}
	if _, err := os.Stat(task.Temp); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temp file should be removed, stat err = %v", err)
	}

	if len(*calls) != 2 {
		t.Fatalf("got %d tool invocations, want 2", len(*calls))
	}
	extract := strings.Join((*calls)[0], " ")
	if !strings.Contains(extract, "mplayer") ||
		!strings.Contains(extract, "-dumpvideo") ||
		!strings.Contains(extract, "-dumpfile "+task.Temp) ||
		!strings.HasSuffix(extract, task.Source) {
		t.Errorf("extract argv = %q", extract)
	}
	mux := strings.Join((*calls)[1], " ")
	if !strings.Contains(mux, "ffmpeg") ||
		!strings.Contains(mux, "-i "+task.Temp) ||
		!strings.Contains(mux, "-c:v copy") ||
		!strings.HasSuffix(mux, task.Output) {
		t.Errorf("mux argv = %q", mux)
	}
}

func TestConvert_ExtractFailure(t *testing.T) {
	calls := stubTools(t, "fail", "ok")
	_, task := sourceFile(t)

	_, err := New().Convert(context.Background(), task)
	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("got %T, want *StageError", err)
	}
	if se.Stage != StageExtract {
		t.Errorf("stage = %q, want extract", se.Stage)
	}
	if !strings.Contains(se.Stderr, "simulated tool failure") {
		t.Errorf("stderr not captured: %q", se.Stderr)
	}
	if len(*calls) != 1 {
		t.Errorf("muxer should not run after extraction failure, got %d calls", len(*calls))
	}
	if _, statErr := os.Stat(task.Output); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("no MP4 should exist after extraction failure")
	}
	if _, statErr := os.Stat(task.Temp); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("temp file should be removed after failure")
	}
}

func TestConvert_ExtractProducesNothing(t *testing.T) {
	stubTools(t, "silent", "ok")
	_, task := sourceFile(t)

	_, err := New().Convert(context.Background(), task)
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageExtract {
		t.Fatalf("got %v, want extract StageError", err)
	}
	if !strings.Contains(err.Error(), "extract stage failed") {
		t.Errorf("err = %v", err)
	}
	// The missing-file cause stays inspectable through the wrap chain.
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("err should wrap the stat failure: %v", err)
	}
}

func TestConvert_StageTimeout(t *testing.T) {
	stubTools(t, "hang", "ok")
	_, task := sourceFile(t)

	conv := New(WithTimeout(100 * time.Millisecond))
	_, err := conv.Convert(context.Background(), task)

	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("got %T, want *StageError", err)
	}
	if se.Stage != StageExtract {
		t.Errorf("stage = %q, want extract", se.Stage)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err should unwrap to DeadlineExceeded: %v", err)
	}
	if !strings.Contains(err.Error(), "stage timeout") {
		t.Errorf("err should name the stage timeout: %v", err)
	}
	if _, statErr := os.Stat(task.Temp); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("temp file should be removed after a timeout")
	}
}

func TestConvert_ExtractProducesEmptyFile(t *testing.T) {
	stubTools(t, "empty", "ok")
	_, task := sourceFile(t)

	_, err := New().Convert(context.Background(), task)
	var se *StageError
	if !errors.As(err, &se) || se.Stage != StageExtract {
		t.Fatalf("got %v, want extract StageError", err)
	}
	if !strings.Contains(se.Err.Error(), "empty") {
		t.Errorf("err should mention empty output: %v", se.Err)
	}
}

func TestConvert_MuxFailure(t *testing.T) {
	stubTools(t, "ok", "fail")
	_, task := sourceFile(t)

	_, err := New().Convert(context.Background(), task)
	var se *StageError
	if !errors.As(err, &se) {
		t.Fatalf("got %T, want *StageError", err)
	}
	if se.Stage != StageMux {
		t.Errorf("stage = %q, want mux", se.Stage)
	}
	if _, statErr := os.Stat(task.Temp); !errors.Is(statErr, os.ErrNotExist) {
		t.Error("temp file should be removed after mux failure")
	}
}

func TestNewTask(t *testing.T) {
	tempDir := "/tmp/run"
	a := NewTask("/videos/holiday/clip.avi", tempDir)
	if a.Output != "/videos/holiday/clip.mp4" {
		t.Errorf("Output = %q", a.Output)
	}
	if filepath.Dir(a.Temp) != tempDir || !strings.HasSuffix(a.Temp, ".h264") {
		t.Errorf("Temp = %q", a.Temp)
	}
	if !strings.HasPrefix(filepath.Base(a.Temp), "clip-") {
		t.Errorf("Temp should carry the source stem: %q", a.Temp)
	}

	upper := NewTask("/videos/CLIP.AVI", tempDir)
	if upper.Output != "/videos/CLIP.mp4" {
		t.Errorf("uppercase extension: Output = %q", upper.Output)
	}

	// Same basename in different directories must not share a temp path.
	b := NewTask("/videos/other/clip.avi", tempDir)
	if a.Temp == b.Temp {
		t.Error("temp paths collide for equal basenames")
	}
}

func TestOptions(t *testing.T) {
	c := New(WithExtractor("mplayer2"), WithMuxer("avconv"), WithTimeout(0))
	if c.extractor != "mplayer2" || c.muxer != "avconv" {
		t.Errorf("overrides not applied: %+v", c)
	}
	if c.timeout != 0 {
		t.Errorf("timeout = %v, want disabled", c.timeout)
	}
	// Empty overrides keep the defaults.
	d := New(WithExtractor(""), WithMuxer(""))
	if d.extractor != "mplayer" || d.muxer != "ffmpeg" {
		t.Errorf("empty overrides should keep defaults: %+v", d)
	}
}
