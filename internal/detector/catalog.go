package detector

import (
	"fmt"
	"slices"
)

// StringsPreviewLines bounds the preview of the strings detector.
const StringsPreviewLines = 50

// DefaultSpecs returns the built-in tool catalog in invocation order.
func DefaultSpecs() []Spec {
	return []Spec{
		{Name: "strings", Command: []string{"strings", "-n", "4", PlaceholderFile}, Parser: ParserStrings, MaxLines: StringsPreviewLines},
		{Name: "exiftool", Command: []string{"exiftool", "-G", PlaceholderFile}, Parser: ParserFields},
		{Name: "binwalk", Command: []string{"binwalk", PlaceholderFile}, Parser: ParserBinwalk},
		{Name: "steghide", Command: []string{"steghide", "info", PlaceholderFile}, Stdin: "n\n", Parser: ParserFields},
		{Name: "zsteg", Command: []string{"zsteg", "-a", PlaceholderFile}, Parser: ParserZsteg},
		{Name: "outguess", Command: []string{"outguess", "-k", "pass", "-r", PlaceholderFile, "/dev/null"}},
		{Name: "f5", Command: []string{"f5-steganography", "extract", "-p", "", "-e", "/dev/null", PlaceholderFile}},
		{Name: "stegcracker", Command: []string{"stegcracker", "--help"}},
		{Name: "stegsolve", Command: []string{"java", "-jar", "stegsolve.jar", "check", PlaceholderFile}},
		{Name: "pngcheck", Command: []string{"pngcheck", "-v", PlaceholderFile}},
		{Name: "jpegdump", Command: []string{"jpegdump", PlaceholderFile}},
		{Name: "stegdetect", Command: []string{"stegdetect", PlaceholderFile}, Parser: ParserStegdetect},
		{Name: "stegoveritas", Command: []string{"stegoveritas", "-v", PlaceholderFile}},
		{Name: "foremost", Command: []string{"foremost", "-v", "-o", PlaceholderOutDir, PlaceholderFile}, OutputDir: true},
		{Name: "bulk_extractor", Command: []string{"bulk_extractor", "-o", PlaceholderOutDir, PlaceholderFile}, OutputDir: true},
		{Name: "aperisolve", Command: []string{"aperisolve", PlaceholderFile}},
		{Name: "lsb_tools", Command: []string{"lsb-tools", "analyze", PlaceholderFile}},
		{Name: "lsb_extract", Command: []string{"lsbextract", "-i", PlaceholderFile}},
		{Name: "stegano", Command: []string{"stegano-lsb", "reveal", "-i", PlaceholderFile}, Parser: ParserStegano},
		{Name: "openstego", Command: []string{"openstego", "info", PlaceholderFile}},
		{Name: "camo", Command: []string{"camo", "-v", PlaceholderFile}},
	}
}

// Merge overlays custom specs on base. A custom spec with the name of a
// base spec replaces it in place; other custom specs are appended in order.
func Merge(base, custom []Spec) []Spec {
	merged := slices.Clone(base)
	for _, c := range custom {
		i := slices.IndexFunc(merged, func(s Spec) bool { return s.Name == c.Name })
		if i >= 0 {
			merged[i] = c
			continue
		}
		merged = append(merged, c)
	}
	return merged
}

// Without drops the specs whose names are listed in disabled.
func Without(specs []Spec, disabled []string) []Spec {
	if len(disabled) == 0 {
		return slices.Clone(specs)
	}
	kept := make([]Spec, 0, len(specs))
	for _, s := range specs {
		if !slices.Contains(disabled, s.Name) {
			kept = append(kept, s)
		}
	}
	return kept
}

// Build creates a CommandDetector for every spec, applying opts to each.
// Spec names must be unique.
func Build(specs []Spec, opts ...Option) ([]*CommandDetector, error) {
	seen := make(map[string]bool, len(specs))
	detectors := make([]*CommandDetector, 0, len(specs))
	for _, s := range specs {
		if seen[s.Name] {
			return nil, fmt.Errorf("duplicate detector name %q", s.Name)
		}
		seen[s.Name] = true

		d, err := NewCommandDetector(s, opts...)
		if err != nil {
			return nil, err
		}
		detectors = append(detectors, d)
	}
	return detectors, nil
}
