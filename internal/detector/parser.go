package detector

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/nao1215/stegscan/internal/model"
)

// Parser turns the output lines of a tool into a payload.
// maxLines bounds Lines and Findings; the full counts are always kept.
type Parser func(lines []string, maxLines int) model.Payload

// Parser names usable in a Spec.
const (
	ParserLines   = "lines"
	ParserStrings = "strings"
	ParserBinwalk = "binwalk"
	ParserFields  = "fields"
	ParserZsteg   = "zsteg"

	ParserStegano    = "stegano"
	ParserStegdetect = "stegdetect"
)

// parsers holds the registered output parsers.
var parsers = map[string]Parser{
	ParserLines:   parseLines,
	ParserStrings: parseStrings,
	ParserBinwalk: parseBinwalk,
	ParserFields:  parseFields,
	ParserZsteg:   parseZsteg,

	ParserStegano:    parseStegano,
	ParserStegdetect: parseStegdetect,
}

// ParserFor returns the parser registered under name.
// An empty name selects ParserLines.
func ParserFor(name string) (Parser, error) {
	if name == "" {
		name = ParserLines
	}
	p, ok := parsers[name]
	if !ok {
		return nil, fmt.Errorf("unknown output parser %q", name)
	}
	return p, nil
}

// ParserNames returns the registered parser names, sorted.
func ParserNames() []string {
	names := make([]string, 0, len(parsers))
	for name := range parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SplitOutput joins stdout and stderr, trims surrounding whitespace and
// splits the result into lines. Empty output yields no lines.
func SplitOutput(stdout, stderr string) []string {
	combined := strings.TrimSpace(stdout + "\n" + stderr)
	if combined == "" {
		return []string{}
	}
	lines := strings.Split(combined, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, "\r")
	}
	return lines
}

// preview returns at most limit leading entries and whether it cut any.
// A limit <= 0 keeps everything.
func preview(entries []string, limit int) ([]string, bool) {
	if limit <= 0 || len(entries) <= limit {
		return entries, false
	}
	return entries[:limit], true
}

// newPayload fills the line fields of a payload.
func newPayload(lines []string, maxLines int) model.Payload {
	shown, cut := preview(lines, maxLines)
	return model.Payload{
		Lines:     shown,
		LineCount: len(lines),
		Truncated: cut,
	}
}

// withFindings sets the finding fields of a payload.
func withFindings(p model.Payload, findings []string, maxLines int) model.Payload {
	shown, cut := preview(findings, maxLines)
	p.Findings = shown
	p.FindingCount = len(findings)
	p.Truncated = p.Truncated || cut
	return p
}

// parseLines treats every non-blank output line as a finding.
func parseLines(lines []string, maxLines int) model.Payload {
	findings := make([]string, 0, len(lines))
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			findings = append(findings, line)
		}
	}
	return withFindings(newPayload(lines, maxLines), findings, maxLines)
}

// parseStrings reports the number of extracted strings with a preview.
func parseStrings(lines []string, maxLines int) model.Payload {
	p := newPayload(lines, maxLines)
	p.Fields = map[string]string{"count": strconv.Itoa(len(lines))}
	return p
}

// binwalkSignature matches a binwalk result row: "<decimal> 0x<hex> <description>".
var binwalkSignature = regexp.MustCompile(`^\s*\d+\s+0x[0-9A-Fa-f]+\s+\S`)

// parseBinwalk reports each signature row as a finding. The row at offset
// 0 describes the file itself and is not an embedded signature.
func parseBinwalk(lines []string, maxLines int) model.Payload {
	findings := make([]string, 0)
	for _, line := range lines {
		if !binwalkSignature.MatchString(line) {
			continue
		}
		trimmed := strings.TrimSpace(line)
		offset, _, _ := strings.Cut(trimmed, " ")
		if n, err := strconv.ParseInt(offset, 10, 64); err == nil && n == 0 {
			continue
		}
		findings = append(findings, trimmed)
	}
	return withFindings(newPayload(lines, maxLines), findings, maxLines)
}

// zstegNothing marks a zsteg probe that found nothing.
const zstegNothing = "nothing :("

// parseZsteg reports every probe line that found something.
func parseZsteg(lines []string, maxLines int) model.Payload {
	findings := make([]string, 0)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasSuffix(trimmed, zstegNothing) {
			continue
		}
		findings = append(findings, trimmed)
	}
	return withFindings(newPayload(lines, maxLines), findings, maxLines)
}

// steganoNoMessage is printed by stegano-lsb when no payload was found.
const steganoNoMessage = "Impossible to detect message"

// parseStegano reports the revealed message lines as findings.
func parseStegano(lines []string, maxLines int) model.Payload {
	findings := make([]string, 0)
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || strings.HasPrefix(trimmed, steganoNoMessage) {
			continue
		}
		findings = append(findings, line)
	}
	return withFindings(newPayload(lines, maxLines), findings, maxLines)
}

// stegdetectMethod matches one detected method with its confidence, such as
// "jphide(***)" or "outguess(old)(*)".
var stegdetectMethod = regexp.MustCompile(`([A-Za-z0-9]+(?:\([a-z]+\))?)\((\*{1,3})\)`)

// parseStegdetect reports each detected method as a finding and sets Score
// to the highest confidence in percent, 100 for three stars.
// A "negative" verdict sets Score to 0.
func parseStegdetect(lines []string, maxLines int) model.Payload {
	findings := make([]string, 0)
	judged := false
	stars := 0
	for _, line := range lines {
		i := strings.LastIndex(line, " : ")
		if i < 0 {
			continue
		}
		verdict := strings.TrimSpace(line[i+3:])
		if verdict == "negative" {
			judged = true
			continue
		}
		for _, m := range stegdetectMethod.FindAllStringSubmatch(verdict, -1) {
			judged = true
			findings = append(findings, m[0])
			stars = max(stars, len(m[2]))
		}
	}

	p := withFindings(newPayload(lines, maxLines), findings, maxLines)
	if judged {
		score := float64(stars) * 100 / 3
		p.Score = &score
	}
	return p
}

// parseFields splits "key : value" lines into structured fields.
// Lines without a separator are kept in Lines only.
func parseFields(lines []string, maxLines int) model.Payload {
	p := newPayload(lines, maxLines)
	p.Fields = make(map[string]string)
	for _, line := range lines {
		key, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		key = strings.Join(strings.Fields(key), " ")
		if key == "" {
			continue
		}
		if _, exists := p.Fields[key]; !exists {
			p.Fields[key] = strings.TrimSpace(value)
		}
	}
	return p
}
