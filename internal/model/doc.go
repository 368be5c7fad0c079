// Package model defines the core data structures used throughout stegscan.
//
// This package contains the following main types:
//   - ImageSample: A decoded, normalized RGB pixel grid with format metadata
//   - DetectorResult: The canonical shape every detector produces
//   - EvidenceSet: All signals collected for one analysis
//   - Verdict: The score, classification and reasons derived from evidence
//   - Analysis: The per-file working state threaded through the pipeline
//   - Report: The serializable result of one analysis
//
// Models live in their own package so that the analysis packages (lsb,
// bitplane, detector, verdict, report) can share them without import cycles.
package model
