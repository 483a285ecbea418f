package markdown

import (
	"reflect"
	"sort"
	"testing"
)

func extractSorted(body, sourceKey string) []string {
	targets := ExtractTargets(body, sourceKey)
	sort.Strings(targets)
	return targets
}

func TestExtractTargetsWikiAliasHeadingAndDate(t *testing.T) {
	body := "See [[Folder/Note|Label#Intro]] on 2026-03-01"
	got := extractSorted(body, "")
	want := []string{"folder/note", "journal/2026-03-01"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractTargets() = %v, want %v", got, want)
	}
}

func TestExtractTargetsFrontmatterIsolated(t *testing.T) {
	content := "---\nassignee: \"[[Alice]]\"\n---\n[[BodyNote]]"
	_, body := SplitFrontmatter(content)
	got := extractSorted(body, "")
	want := []string{"bodynote"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractTargets() = %v, want %v", got, want)
	}
}

func TestExtractTargetsExcludesSelf(t *testing.T) {
	body := "[[self]] and [[other]]"
	got := extractSorted(body, "self")
	want := []string{"other"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractTargets() = %v, want %v", got, want)
	}
}

func TestExtractTargetsDedupes(t *testing.T) {
	body := "[[a]] [[a]] [[A]]"
	got := extractSorted(body, "")
	want := []string{"a"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractTargets() = %v, want %v", got, want)
	}
}

func TestExtractTargetsRejectsInvalidSegments(t *testing.T) {
	body := "[[../escape]] [[./]] [[valid/note]]"
	got := extractSorted(body, "")
	want := []string{"valid/note"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractTargets() = %v, want %v", got, want)
	}
}

func TestExtractTargetsRejectsOutOfRangeMonthOrDay(t *testing.T) {
	// §4.2 only requires 1<=month<=12 and 1<=day<=31 for journal date
	// targets; finer calendar validity (days-per-month, leap years) is not
	// part of the rule, so 2026-02-29 is a valid target even though 2026
	// isn't a leap year.
	body := "2026-13-40 is not a date but 2026-02-29 is"
	got := extractSorted(body, "")
	want := []string{"journal/2026-02-29"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractTargets() = %v, want %v", got, want)
	}
}

func TestSplitFirstPrefersEarliestMarker(t *testing.T) {
	cases := map[string]string{
		"target|alias#heading": "target",
		"target#heading|alias": "target",
		"target":               "target",
	}
	for input, want := range cases {
		if got := splitFirst(input); got != want {
			t.Errorf("splitFirst(%q) = %q, want %q", input, got, want)
		}
	}
}
