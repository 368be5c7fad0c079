// Package main provides the entry point for the stegscan CLI.
//
// stegscan triages image files for hidden data. It combines an LSB
// statistic, an anomaly score, bit-plane renderings and a catalog of
// external steganalysis tools into one weighted verdict per file.
//
// Usage:
//
//	stegscan scan <image>...
//	stegscan history
//	stegscan detectors
//
// See --help for all available options.
package main

func main() {
	Execute()
}
