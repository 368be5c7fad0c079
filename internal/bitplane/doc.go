// Package bitplane splits sample channels into single-bit planes and writes
// each plane to the artifact directory as a black and white PNG.
//
// Artifact names are derived from the sample name, channel and bit, so
// repeated runs on the same file overwrite earlier artifacts. Each plane is
// written to a temporary file and renamed into place. A decomposition is
// all-or-nothing: if any plane fails, every plane written during that run
// is removed and the set is reported with StatusError.
package bitplane
