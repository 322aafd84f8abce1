package catalog

import (
	"strings"

	"golang.org/x/text/cases"
)

// NormalizeTag canonicalizes a tag: Unicode case folding, surrounding
// whitespace trimmed and inner whitespace runs joined with "_".
// "  Sore  Throat " becomes "sore_throat".
func NormalizeTag(tag string) string {
	folded := cases.Fold().String(tag)
	return strings.Join(strings.Fields(folded), "_")
}

// NormalizeTags normalizes every tag, dropping blanks and repeats while
// keeping first-seen order.
func NormalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		normalized := NormalizeTag(tag)
		if normalized == "" || seen[normalized] {
			continue
		}
		seen[normalized] = true
		out = append(out, normalized)
	}
	return out
}

// ParseTags splits free text on commas, semicolons and pipes and normalizes
// the pieces. A Python-style list literal such as "['fever', 'cough']" is
// accepted as well.
func ParseTags(text string) []string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "[")
	text = strings.TrimSuffix(text, "]")

	parts := strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	})
	for i, part := range parts {
		parts[i] = strings.Trim(strings.TrimSpace(part), `'"`)
	}
	return NormalizeTags(parts)
}
