package detector

import (
	"testing"

	"github.com/nao1215/stegscan/internal/model"
	"github.com/nao1215/stegscan/internal/verdict"
)

// TestDefaultCatalogOnCleanOutput tests that "nothing found" output of the
// catalog tools does not score under the default rules.
func TestDefaultCatalogOnCleanOutput(t *testing.T) {
	t.Parallel()

	output := map[string][]string{
		"binwalk": {
			"DECIMAL       HEXADECIMAL     DESCRIPTION",
			"--------------------------------------------------------------------------------",
			"0             0x0             PNG image, 2 x 2, 8-bit/color RGB, non-interlaced",
		},
		"zsteg":      {"b1,rgb,lsb,xy       .. [=] nothing :("},
		"stegano":    {"Impossible to detect message."},
		"stegdetect": {"cat.png : negative"},
	}

	evidence := model.NewEvidenceSet()
	for _, s := range DefaultSpecs() {
		lines, ok := output[s.Name]
		if !ok {
			continue
		}
		parse, err := ParserFor(s.Parser)
		if err != nil {
			t.Fatalf("%s: %v", s.Name, err)
		}
		evidence.Detectors.Set(s.Name, model.DetectorResult{
			Status:  model.StatusSuccess,
			Payload: parse(lines, DefaultMaxLines),
		})
	}

	engine, err := verdict.NewEngine(verdict.DefaultRules())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := engine.Evaluate(evidence)
	if v.Score != 0 || v.Classification != model.ClassificationSafe {
		t.Errorf("expected a safe verdict, got %d %s: %v", v.Score, v.Classification, v.Reasons)
	}
}
