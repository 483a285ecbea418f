package pathutil

import (
	"os"
	"path/filepath"
	"testing"

	tomoerrors "github.com/jbl2024/tomosona/internal/errors"
)

func TestCanonicalizeRootRejectsFile(t *testing.T) {
	tmpDir := t.TempDir()
	filePath := filepath.Join(tmpDir, "note.md")
	if err := os.WriteFile(filePath, []byte("# hi"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := CanonicalizeRoot(filePath)
	if kind, ok := tomoerrors.KindOf(err); !ok || kind != tomoerrors.InvalidPath {
		t.Fatalf("expected InvalidPath, got %v", err)
	}
}

func TestCanonicalizeRootRejectsHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}
	_, err = CanonicalizeRoot(home)
	if kind, ok := tomoerrors.KindOf(err); !ok || kind != tomoerrors.ReservedRoot {
		t.Fatalf("expected ReservedRoot, got %v", err)
	}
}

func TestCanonicalizeRootAcceptsOrdinaryDir(t *testing.T) {
	tmpDir := t.TempDir()
	workspace := filepath.Join(tmpDir, "notes")
	if err := os.Mkdir(workspace, 0o755); err != nil {
		t.Fatal(err)
	}

	resolved, err := CanonicalizeRoot(workspace)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !filepath.IsAbs(resolved) {
		t.Errorf("expected absolute path, got %s", resolved)
	}
}

func TestRelpathOutsideRootFails(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(t.TempDir(), "other.md")

	_, err := Relpath(root, outside)
	if kind, ok := tomoerrors.KindOf(err); !ok || kind != tomoerrors.InvalidPath {
		t.Fatalf("expected InvalidPath, got %v", err)
	}
}

func TestNoteKeyNormalizesCaseAndUnicode(t *testing.T) {
	root := t.TempDir()
	abs := filepath.Join(root, "Inbox", "Café.MD")

	key, err := NoteKey(root, abs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := NormalizeKey("Inbox/Café")
	if key != want {
		t.Errorf("NoteKey() = %q, want %q", key, want)
	}
}

func TestNoteKeyRoundTripsWithRelpath(t *testing.T) {
	root := t.TempDir()
	rel := "Projects/Alpha/Notes.md"
	abs := filepath.Join(root, rel)

	key, err := NoteKey(root, abs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := NormalizeKey(rel[:len(rel)-len(".md")])
	if key != want {
		t.Errorf("round trip mismatch: got %q, want %q", key, want)
	}
}

func TestNoteLinkTargetPreservesCase(t *testing.T) {
	root := t.TempDir()
	abs := filepath.Join(root, "Journal", "2026-07-29.markdown")

	target, err := NoteLinkTarget(root, abs)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if target != filepath.ToSlash(filepath.Join("Journal", "2026-07-29")) {
		t.Errorf("NoteLinkTarget() = %q", target)
	}
}

func TestIsMarkdownFile(t *testing.T) {
	cases := map[string]bool{
		"note.md":       true,
		"note.MARKDOWN": true,
		"note.txt":      false,
		"note":          false,
	}
	for name, want := range cases {
		if got := IsMarkdownFile(name); got != want {
			t.Errorf("IsMarkdownFile(%q) = %v, want %v", name, got, want)
		}
	}
}
