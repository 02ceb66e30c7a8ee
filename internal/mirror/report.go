package mirror

// SkippedEntry records a child that was deliberately not mirrored.
type SkippedEntry struct {
	Path   string
	Reason string
}

// FailedEntry records a file whose copy failed without aborting the walk.
type FailedEntry struct {
	Path string
	Err  error
}

// Report collects per-entry diagnostics from one Mirror call. Structural
// failures abort the call and are returned as errors instead; everything
// here is informational and the call is still considered successful.
type Report struct {
	Copied  int
	Skipped []SkippedEntry
	Failed  []FailedEntry
}

func (r *Report) skip(path, reason string) {
	r.Skipped = append(r.Skipped, SkippedEntry{Path: path, Reason: reason})
}

func (r *Report) fail(path string, err error) {
	r.Failed = append(r.Failed, FailedEntry{Path: path, Err: err})
}

// Clean reports whether the walk completed without skips or copy failures.
func (r *Report) Clean() bool {
	return len(r.Skipped) == 0 && len(r.Failed) == 0
}
