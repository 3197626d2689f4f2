// Package extraction orchestrates one closed-procurement extraction run.
//
// The Runner composes the page fetcher, eligibility classifier, flattener,
// and CSV writer into a single sequential loop: Idle -> Running ->
// {Completed, Cancelled, Failed}. Progress events stream to a Sink, runs are
// recorded in the journal, and cancellation is cooperative at page
// boundaries so an in-flight request always finishes or fails before the
// final flush. All mutable run bookkeeping lives in a per-run state value
// that is never shared across runs or goroutines.
package extraction
