// Package pipeline executes the analysis of an image file as a sequence of
// steps.
//
// Each Step receives the shared model.Analysis and fills in its part of it.
// The default pipeline is:
//
//	load -> evidence (lsb | ai_score | bitplanes | detectors) -> indicators -> verdict
//
// The evidence step is a ConcurrentStep: its children run in parallel and
// the step returns only after all of them finish, so the verdict always sees
// the complete evidence set. Evidence children express failures as data, so
// the only error that stops a default pipeline is a failed load.
//
// Pipeline.Execute times every step it starts and records the timings in
// the analysis, so reports can show where the time of a scan went (usually
// the external detectors).
//
// BatchProcessor runs one fresh pipeline per file with bounded concurrency
// using errgroup and reports progress through an optional callback.
package pipeline
