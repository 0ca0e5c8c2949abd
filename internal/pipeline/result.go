package pipeline

import "time"

// Result records the outcome of one conversion. Immutable once appended;
// every discovered file yields exactly one Result.
type Result struct {
	Source      string
	Output      string
	Err         error
	OutputBytes int64
	Elapsed     time.Duration
}

// Failed reports whether the conversion did not produce an output.
func (r Result) Failed() bool { return r.Err != nil }

// RunStats tracks aggregate counters and byte totals across a batch run.
type RunStats struct {
	Total       int
	Current     int
	Converted   int
	Failed      int
	OutputBytes int64
	Elapsed     time.Duration
}
