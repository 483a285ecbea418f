package markdown

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var wikiLinkPattern = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)

// dateToken matches a bare YYYY-MM-DD token; month/day range is checked
// separately since the regex only bounds digit counts.
var dateToken = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)

var tokenBoundary = regexp.MustCompile(`[\s,.;:()\[\]{}<>!?"'` + "`" + `]+`)

// ExtractTargets returns the de-duplicated set of link targets referenced
// from body (frontmatter already stripped), excluding sourceKey (the
// source note's own normalized key, so self-loops never appear). Targets
// come from wiki-style [[target|alias#heading]] references and from bare
// ISO-date tokens, which map to "journal/YYYY-MM-DD".
func ExtractTargets(body string, sourceKey string) []string {
	seen := make(map[string]bool)
	var targets []string

	add := func(key string) {
		if key == "" || key == sourceKey || seen[key] {
			return
		}
		seen[key] = true
		targets = append(targets, key)
	}

	for _, match := range wikiLinkPattern.FindAllStringSubmatch(body, -1) {
		inner := match[1]
		raw := splitFirst(inner)
		if key, ok := normalizeWikiTarget(raw); ok {
			add(key)
		}
	}

	for _, token := range tokenBoundary.Split(body, -1) {
		if key, ok := journalKeyFromToken(token); ok {
			add(key)
		}
	}

	return targets
}

// splitFirst returns the substring of s before the first "|" or "#",
// whichever occurs first.
func splitFirst(s string) string {
	pipeIdx := strings.IndexByte(s, '|')
	hashIdx := strings.IndexByte(s, '#')
	switch {
	case pipeIdx == -1 && hashIdx == -1:
		return s
	case pipeIdx == -1:
		return s[:hashIdx]
	case hashIdx == -1:
		return s[:pipeIdx]
	case pipeIdx < hashIdx:
		return s[:pipeIdx]
	default:
		return s[:hashIdx]
	}
}

// normalizeWikiTarget applies the §4.1/§4.2 target normalization: lowercase,
// NFC, trim, strip a leading "/" or "./", strip a markdown extension, and
// reject targets with an empty, ".", or ".." path segment.
func normalizeWikiTarget(raw string) (string, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", false
	}
	s = norm.NFC.String(s)
	s = strings.ToLower(s)
	s = strings.TrimPrefix(s, "./")
	s = strings.TrimPrefix(s, "/")

	lower := s
	for _, ext := range markdownExts {
		if strings.HasSuffix(lower, ext) {
			s = s[:len(s)-len(ext)]
			break
		}
	}

	if s == "" {
		return "", false
	}

	for _, seg := range strings.Split(s, "/") {
		if seg == "" || seg == "." || seg == ".." {
			return "", false
		}
	}

	return s, true
}

var markdownExts = []string{".markdown", ".md"}

// journalKeyFromToken reports whether token is a valid YYYY-MM-DD date and,
// if so, returns its journal key.
func journalKeyFromToken(token string) (string, bool) {
	match := dateToken.FindStringSubmatch(token)
	if match == nil || match[0] != token {
		return "", false
	}

	year, _ := strconv.Atoi(match[1])
	month, _ := strconv.Atoi(match[2])
	day, _ := strconv.Atoi(match[3])

	// §4.2 only requires 1<=month<=12, 1<=day<=31, year>0 for journal date
	// targets; stricter per-month/leap-year calendar validation is spec'd
	// for §4.9 query filter values, not for link extraction.
	if year <= 0 || month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}

	return "journal/" + match[0], true
}
