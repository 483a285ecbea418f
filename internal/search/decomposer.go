package search

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/jbl2024/tomosona/internal/store"
)

// keyPattern matches the key portion of a property-filter token, per
// §4.9: `[A-Za-z0-9_-]+`.
var keyPattern = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)

var datePattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)

// opsLongestFirst lists the recognized filter operators, longest prefix
// first so ">=" and "<=" aren't mis-split as ">" / "<".
var opsLongestFirst = []struct {
	token string
	op    store.FilterOp
}{
	{">=", store.OpGreaterEq},
	{"<=", store.OpLessEq},
	{":", store.OpEquals},
	{"=", store.OpEquals},
	{">", store.OpGreater},
	{"<", store.OpLess},
}

// Decompose splits a raw query into its free-text portion and its
// structured property filters, per §4.9. Tokens are whitespace-separated;
// a token matches a filter if it has the shape key:value, key=value,
// key>value, key>=value, key<value, key<=value, or has:key. All other
// tokens are rejoined with single spaces into the free-text query.
func Decompose(query string) (freeText string, filters []store.PropertyFilter) {
	var textTokens []string

	for _, tok := range strings.Fields(query) {
		if strings.HasPrefix(tok, "has:") {
			key := tok[len("has:"):]
			if keyPattern.MatchString(key) {
				filters = append(filters, store.PropertyFilter{Key: strings.ToLower(key), Op: store.OpHas})
				continue
			}
			textTokens = append(textTokens, tok)
			continue
		}

		if f, ok := parseFilterToken(tok); ok {
			filters = append(filters, f)
			continue
		}

		textTokens = append(textTokens, tok)
	}

	return strings.Join(textTokens, " "), filters
}

func parseFilterToken(tok string) (store.PropertyFilter, bool) {
	for _, candidate := range opsLongestFirst {
		idx := strings.Index(tok, candidate.token)
		if idx <= 0 {
			continue
		}
		key := tok[:idx]
		value := tok[idx+len(candidate.token):]
		if !keyPattern.MatchString(key) {
			continue
		}
		return typeFilterValue(strings.ToLower(key), candidate.op, value)
	}
	return store.PropertyFilter{}, false
}

// typeFilterValue infers the value's kind per §4.9's typing rules, and
// rejects inequality operators applied to anything but numbers or dates.
func typeFilterValue(key string, op store.FilterOp, value string) (store.PropertyFilter, bool) {
	lower := strings.ToLower(value)

	if op == store.OpEquals {
		switch lower {
		case "true":
			return store.PropertyFilter{Key: key, Op: op, Kind: store.PropertyBool, ValueBool: true}, true
		case "false":
			return store.PropertyFilter{Key: key, Op: op, Kind: store.PropertyBool, ValueBool: false}, true
		}
		if n, err := strconv.ParseFloat(value, 64); err == nil && !isNaNOrInf(n) {
			return store.PropertyFilter{Key: key, Op: op, Kind: store.PropertyNumber, ValueNum: n}, true
		}
		if isValidISODate(value) {
			return store.PropertyFilter{Key: key, Op: op, Kind: store.PropertyDate, ValueDate: value}, true
		}
		return store.PropertyFilter{Key: key, Op: op, Kind: store.PropertyText, ValueText: lower}, true
	}

	// Inequality operators apply to numbers or dates only.
	if n, err := strconv.ParseFloat(value, 64); err == nil && !isNaNOrInf(n) {
		return store.PropertyFilter{Key: key, Op: op, Kind: store.PropertyNumber, ValueNum: n}, true
	}
	if isValidISODate(value) {
		return store.PropertyFilter{Key: key, Op: op, Kind: store.PropertyDate, ValueDate: value}, true
	}
	return store.PropertyFilter{}, false
}

func isNaNOrInf(f float64) bool {
	return f != f || f > 1e308 || f < -1e308
}

func isValidISODate(s string) bool {
	m := datePattern.FindStringSubmatch(s)
	if m == nil {
		return false
	}
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	year, _ := strconv.Atoi(m[1])
	return year > 0 && month >= 1 && month <= 12 && day >= 1 && day <= 31
}
