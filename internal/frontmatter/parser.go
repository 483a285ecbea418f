// Package frontmatter parses the minimal YAML-like dialect used in note
// headers into typed properties. It is not a general YAML parser: it
// recognizes exactly the scalar and list shapes the indexer stores, and
// skips anything else, in the teacher's forgiving-parser style (malformed
// input degrades rather than errors).
package frontmatter

import (
	"regexp"
	"strconv"
	"strings"
)

// Kind is the tag of a parsed property value.
type Kind string

const (
	Text   Kind = "text"
	List   Kind = "list"
	Number Kind = "number"
	Bool   Kind = "bool"
	Date   Kind = "date"
)

// Property is one parsed frontmatter row. Exactly one of the value fields
// is meaningful, selected by Kind; for List, one Property is produced per
// element, all sharing Key.
type Property struct {
	Key       string
	Kind      Kind
	ValueText string
	ValueNum  float64
	ValueBool bool
	ValueDate string
}

var (
	keyLinePattern = regexp.MustCompile(`^([^:\s][^:]*):(.*)$`)
	listItemLine   = regexp.MustCompile(`^-\s*(.*)$`)
	numberPattern  = regexp.MustCompile(`^-?\d+(\.\d+)?$`)
	datePattern    = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Parse parses raw frontmatter text (the content between the "---"
// markers, without the markers themselves) into properties.
func Parse(raw string) []Property {
	lines := strings.Split(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")

	var props []Property
	i := 0
	for i < len(lines) {
		line := lines[i]
		if isIndented(line) || strings.TrimSpace(line) == "" {
			i++
			continue
		}

		match := keyLinePattern.FindStringSubmatch(line)
		if match == nil {
			i++
			continue
		}

		key := strings.ToLower(strings.TrimSpace(match[1]))
		value := strings.TrimSpace(match[2])
		i++

		switch {
		case value == "|":
			var blockLines []string
			for i < len(lines) && (isIndented(lines[i]) || strings.TrimSpace(lines[i]) == "") {
				blockLines = append(blockLines, strings.TrimSpace(lines[i]))
				i++
			}
			text := strings.ToLower(strings.TrimSpace(strings.Join(blockLines, "\n")))
			props = append(props, Property{Key: key, Kind: Text, ValueText: text})

		case value == "":
			var items []string
			for i < len(lines) && isIndented(lines[i]) {
				trimmed := strings.TrimSpace(lines[i])
				if m := listItemLine.FindStringSubmatch(trimmed); m != nil {
					items = append(items, normalizeScalar(m[1]))
					i++
					continue
				}
				break
			}
			for _, item := range items {
				props = append(props, Property{Key: key, Kind: List, ValueText: item})
			}

		case strings.HasPrefix(value, "[") && strings.HasSuffix(value, "]"):
			inner := strings.TrimSuffix(strings.TrimPrefix(value, "["), "]")
			for _, part := range splitInlineList(inner) {
				part = strings.TrimSpace(part)
				if part == "" {
					continue
				}
				props = append(props, Property{Key: key, Kind: List, ValueText: normalizeScalar(part)})
			}

		case strings.EqualFold(value, "true"):
			props = append(props, Property{Key: key, Kind: Bool, ValueBool: true})

		case strings.EqualFold(value, "false"):
			props = append(props, Property{Key: key, Kind: Bool, ValueBool: false})

		case numberPattern.MatchString(value):
			num, err := strconv.ParseFloat(value, 64)
			if err == nil {
				props = append(props, Property{Key: key, Kind: Number, ValueNum: num})
			}

		case datePattern.MatchString(value):
			props = append(props, Property{Key: key, Kind: Date, ValueDate: value})

		default:
			props = append(props, Property{Key: key, Kind: Text, ValueText: normalizeScalar(value)})
		}
	}

	return props
}

func isIndented(line string) bool {
	if line == "" {
		return false
	}
	return line[0] == ' ' || line[0] == '\t'
}

// normalizeScalar strips surrounding quotes, trims, and lowercases a scalar
// value.
func normalizeScalar(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			s = s[1 : len(s)-1]
		}
	}
	return strings.ToLower(strings.TrimSpace(s))
}

// splitInlineList splits an inline "[a, b, "c"]" list body on top-level
// commas, respecting quoted elements that may themselves contain commas.
func splitInlineList(inner string) []string {
	var parts []string
	var current strings.Builder
	var quote byte
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		switch {
		case quote != 0:
			current.WriteByte(c)
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
			current.WriteByte(c)
		case c == ',':
			parts = append(parts, current.String())
			current.Reset()
		default:
			current.WriteByte(c)
		}
	}
	parts = append(parts, current.String())
	return parts
}
