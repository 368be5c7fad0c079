// Package detector runs external forensic tools and normalizes their output
// into model.DetectorResult values.
//
// Every tool is described by a Spec: a command template, an optional stdin
// answer, and the name of the parser that turns its output into a payload.
// New tools are added as catalog entries, not code.
//
// A CommandDetector never returns an error. A missing binary becomes
// StatusNotInstalled, an exceeded per-call deadline becomes StatusTimeout,
// a completed non-zero exit becomes StatusWarning with its output parsed,
// and anything else (including parser panics and cancellation of the whole
// analysis) becomes StatusError.
//
// RunAll fans a detector list out over a bounded errgroup. Goroutines never
// return errors, so one failing or hanging detector cannot cancel the
// others, and the returned mapping always holds one result per detector in
// list order.
package detector
