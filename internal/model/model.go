// Package model defines the result types shared by the slicer, the batch
// orchestrator and the report encoder.
package model

import "time"

// Outcome is how processing of one file ended. Every processed file gets
// exactly one.
type Outcome string

const (
	Written  Outcome = "written"
	Empty    Outcome = "empty"
	Failed   Outcome = "error"
	TimedOut Outcome = "timeout"
)

// Outcomes lists every outcome in report order.
var Outcomes = []Outcome{Written, Empty, Failed, TimedOut}

// DiagnosticKind classifies a non-fatal problem found while slicing a file.
type DiagnosticKind string

const (
	// NamespaceNotFound means a keyword appears in code whose symbols could
	// not be bound, usually because a reference assembly is missing.
	NamespaceNotFound DiagnosticKind = "namespace-not-found"
	Unresolved        DiagnosticKind = "unresolved"
	UnexpectedSymbol  DiagnosticKind = "unexpected-symbol"
	CollectFailed     DiagnosticKind = "collect-failed"
	ReconstructFailed DiagnosticKind = "reconstruct-failed"
	SliceTooLarge     DiagnosticKind = "slice-too-large"
)

// Diagnostic is one recorded problem. Line is 1-based, 0 when unknown.
type Diagnostic struct {
	Kind    DiagnosticKind
	Message string
	Line    int
}

// Slice is one reconstructed program fragment.
type Slice struct {
	Text string
	// UsedFallback is set when some construct could not be pruned and was
	// kept whole, or a placeholder was substituted.
	UsedFallback bool
	Nodes        int
}

// FileResult is everything slicing one file produced.
type FileResult struct {
	Slices      []Slice
	Diagnostics []Diagnostic
}

// Has reports whether a diagnostic of kind was recorded.
func (r *FileResult) Has(kind DiagnosticKind) bool {
	for _, d := range r.Diagnostics {
		if d.Kind == kind {
			return true
		}
	}
	return false
}

// Fallbacks counts the slices that needed a fallback.
func (r *FileResult) Fallbacks() int {
	n := 0
	for _, s := range r.Slices {
		if s.UsedFallback {
			n++
		}
	}
	return n
}

// FileReport summarizes one file for the end-of-run report.
type FileReport struct {
	Identity    string
	Outcome     Outcome
	Slices      int
	Fallbacks   int
	Diagnostics int
	Reason      string
	Artifacts   []string
	Duration    time.Duration
}

// RunReport is the summary of one batch run.
type RunReport struct {
	RunID   string
	Input   string
	Started time.Time
	Elapsed time.Duration
	// Skipped counts files already in the checkpoint from an earlier run.
	Skipped int
	Files   []FileReport
}

// Count returns how many files ended with outcome o.
func (r *RunReport) Count(o Outcome) int {
	n := 0
	for _, f := range r.Files {
		if f.Outcome == o {
			n++
		}
	}
	return n
}
