package template

import (
	"regexp"
	"strings"
)

// placeholderRegex matches {{field}} placeholders non-greedily, so
// "{{a}} and {{b}}" yields two matches instead of one spanning both.
var placeholderRegex = regexp.MustCompile(`{{(.*?)}}`)

// Render substitutes every {{field}} placeholder in tpl with the value
// stored under that field name in vars. A field missing from vars renders
// as an empty string, never as the raw placeholder. Literal text outside
// placeholders passes through unchanged, and an empty template renders
// as "". Render is pure: it has no failure modes and no hidden state.
func Render(tpl string, vars map[string]string) string {
	if tpl == "" {
		return ""
	}
	return placeholderRegex.ReplaceAllStringFunc(tpl, func(m string) string {
		name := strings.TrimSuffix(strings.TrimPrefix(m, "{{"), "}}")
		return vars[name]
	})
}

// HasPlaceholders reports whether tpl references at least one field.
// A template without placeholders renders to itself for every row.
func HasPlaceholders(tpl string) bool {
	return placeholderRegex.MatchString(tpl)
}
