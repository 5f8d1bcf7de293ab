package runner

// Result holds the output of a single process execution.
type Result struct {
	RunID     string // unique identifier for this run
	ExitCode  int    // process exit code; -1 when terminated by a signal
	Signal    string // name of the terminating signal, if any
	Stdout    []byte // captured stdout (may be truncated)
	Stderr    []byte // captured stderr (may be truncated)
	Truncated bool   // true if output exceeded the size cap
	TimedOut  bool   // true if the process was killed at the deadline
}

// Signaled reports whether the process was terminated by a signal.
func (r *Result) Signaled() bool {
	return r.Signal != ""
}
