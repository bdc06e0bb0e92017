package nzbn

import (
	"strings"
)

const (
	companySuffix     = "limited"
	annotationMarker  = "Limited"
	directorLabel     = " - Director: "
	directorsNotFound = "Not found"
)

// Extractor turns a raw spreadsheet value into the text that is written back
// out. lookup resolves a company name to a formatted director string and may be
// nil for extractors that do not annotate.
type Extractor interface {
	Extract(raw string, lookup func(name string) string) string
}

// ExtractSimple yields the last comma-separated part ending in "Limited".
type ExtractSimple struct{}

func (ExtractSimple) Extract(raw string, _ func(string) string) string {
	return ExtractCompanyName(raw)
}

// ExtractAnnotate keeps every part and tags company parts with their directors.
type ExtractAnnotate struct{}

func (ExtractAnnotate) Extract(raw string, lookup func(string) string) string {
	return AnnotateDirectors(raw, lookup)
}

// ExtractCompanyName scans the comma-separated parts of raw from the end and
// returns the first trimmed part ending in "Limited", ignoring case. When no
// part qualifies the trimmed input is returned.
func ExtractCompanyName(raw string) string {
	parts := strings.Split(raw, ",")

	for i := len(parts) - 1; i >= 0; i-- {
		part := strings.TrimSpace(parts[i])
		if strings.HasSuffix(strings.ToLower(part), companySuffix) {
			return part
		}
	}

	return strings.TrimSpace(raw)
}

// AnnotateDirectors appends " - Director: <names>" to every comma-separated
// part containing "Limited". Part order, separators and surrounding whitespace
// are preserved.
func AnnotateDirectors(raw string, lookup func(name string) string) string {
	parts := strings.Split(raw, ",")

	for i, part := range parts {
		if !strings.Contains(part, annotationMarker) {
			continue
		}

		name := strings.TrimSpace(part)

		directors := ""
		if lookup != nil {
			directors = lookup(name)
		}

		if directors == "" {
			directors = directorsNotFound
		}

		start := strings.Index(part, name)
		lead, trail := part[:start], part[start+len(name):]

		parts[i] = lead + name + directorLabel + directors + trail
	}

	return strings.Join(parts, ",")
}
