package frontmatter

import "testing"

func findOne(t *testing.T, props []Property, key string) Property {
	t.Helper()
	for _, p := range props {
		if p.Key == key {
			return p
		}
	}
	t.Fatalf("key %q not found in %+v", key, props)
	return Property{}
}

func TestParseBool(t *testing.T) {
	props := Parse("archive: TRUE")
	p := findOne(t, props, "archive")
	if p.Kind != Bool || !p.ValueBool {
		t.Errorf("got %+v", p)
	}
}

func TestParseNumber(t *testing.T) {
	props := Parse("priority: 3.5")
	p := findOne(t, props, "priority")
	if p.Kind != Number || p.ValueNum != 3.5 {
		t.Errorf("got %+v", p)
	}
}

func TestParseDate(t *testing.T) {
	props := Parse("deadline: 2026-03-01")
	p := findOne(t, props, "deadline")
	if p.Kind != Date || p.ValueDate != "2026-03-01" {
		t.Errorf("got %+v", p)
	}
}

func TestParseInlineList(t *testing.T) {
	props := Parse(`tags: [Dev, "Ops", backend]`)
	var got []string
	for _, p := range props {
		if p.Key == "tags" {
			got = append(got, p.ValueText)
		}
	}
	want := []string{"dev", "ops", "backend"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d]=%q want %q", i, got[i], want[i])
		}
	}
}

func TestParseIndentedList(t *testing.T) {
	content := "tags:\n  - dev\n  - Ops\nnext: value"
	props := Parse(content)
	var got []string
	for _, p := range props {
		if p.Key == "tags" {
			got = append(got, p.ValueText)
		}
	}
	if len(got) != 2 || got[0] != "dev" || got[1] != "ops" {
		t.Errorf("got %v", got)
	}
	next := findOne(t, props, "next")
	if next.Kind != Text || next.ValueText != "value" {
		t.Errorf("got %+v", next)
	}
}

func TestParseBlockScalar(t *testing.T) {
	content := "summary: |\n  Line One\n  Line Two"
	props := Parse(content)
	p := findOne(t, props, "summary")
	if p.Kind != Text || p.ValueText != "line one\nline two" {
		t.Errorf("got %+v", p)
	}
}

func TestParseQuotedScalarStripsQuotesAndLowercases(t *testing.T) {
	props := Parse(`assignee: "[[Alice]]"`)
	p := findOne(t, props, "assignee")
	if p.Kind != Text || p.ValueText != "[[alice]]" {
		t.Errorf("got %+v", p)
	}
}

func TestParseSkipsUnrecognizedLines(t *testing.T) {
	content := "  stray indented line with no key\nkey: value"
	props := Parse(content)
	if len(props) != 1 || props[0].Key != "key" {
		t.Errorf("got %+v", props)
	}
}
