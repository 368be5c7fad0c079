// Package verdict turns an EvidenceSet into a Verdict with a weighted rule
// table.
//
// Each Rule names a trigger kind and, for detector rules, the detector it
// inspects. When a rule triggers, its weight is added to the score and its
// reason is appended to the reasons list, both in table order. The score is
// clamped to [0,100] and classified against configurable thresholds; when
// nothing triggers the reasons list holds model.NoAnomaliesReason.
//
// A detector that did not run (Not Installed, Timeout, Error) never
// triggers a rule. Adding a detector means adding a rule; the engine itself
// only knows trigger kinds, and new kinds can be registered with
// WithTrigger.
package verdict
