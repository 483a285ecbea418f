// Package pathutil canonicalizes workspace roots and derives the
// workspace-relative keys used throughout tomosona to identify notes and
// resolve wiki-link targets. All comparisons that cross note boundaries
// (link resolution, backlinks, the graph) go through the normalized forms
// produced here, never through raw filesystem paths.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/text/unicode/norm"

	tomoerrors "github.com/jbl2024/tomosona/internal/errors"
)

// reservedDirNames are standard per-user directories a workspace root must
// not equal, in addition to the home directory itself.
var reservedDirNames = []string{"Desktop", "Documents", "Downloads", "Pictures", "Music", "Videos", "Public"}

// markdownExts are the extensions stripped when deriving a note key or link
// target. Checked longest-first so ".markdown" isn't left partially intact.
var markdownExts = []string{".markdown", ".md"}

// CanonicalizeRoot resolves input to an absolute, symlink-evaluated
// directory path. It fails with InvalidPath if input does not exist or is
// not a directory, and with ReservedRoot if the resolved path is the
// user's home directory, one of its standard subdirectories, or has no
// parent (e.g. the filesystem root).
func CanonicalizeRoot(input string) (string, error) {
	abs, err := filepath.Abs(input)
	if err != nil {
		return "", tomoerrors.InvalidPathErr("cannot resolve absolute path", input)
	}

	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", tomoerrors.InvalidPathErr("path does not exist", input)
	}

	info, err := os.Stat(resolved)
	if err != nil {
		return "", tomoerrors.InvalidPathErr("path does not exist", input)
	}
	if !info.IsDir() {
		return "", tomoerrors.InvalidPathErr("path is not a directory", input)
	}

	resolved = filepath.Clean(resolved)

	if parent := filepath.Dir(resolved); parent == resolved {
		return "", tomoerrors.ReservedRootErr(resolved)
	}

	if home, err := os.UserHomeDir(); err == nil {
		home = filepath.Clean(home)
		if resolved == home {
			return "", tomoerrors.ReservedRootErr(resolved)
		}
		for _, name := range reservedDirNames {
			if resolved == filepath.Join(home, name) {
				return "", tomoerrors.ReservedRootErr(resolved)
			}
		}
	}

	return resolved, nil
}

// Relpath returns the forward-slash path of absolute relative to root. It
// fails with InvalidPath if absolute does not lie within root.
func Relpath(root, absolute string) (string, error) {
	rel, err := filepath.Rel(root, absolute)
	if err != nil {
		return "", tomoerrors.InvalidPathErr("not within workspace root", absolute)
	}
	if rel == "." || strings.HasPrefix(rel, "..") {
		return "", tomoerrors.InvalidPathErr("not within workspace root", absolute)
	}
	return filepath.ToSlash(rel), nil
}

// stripMarkdownExt removes a trailing .md or .markdown extension, if present.
func stripMarkdownExt(p string) string {
	lower := strings.ToLower(p)
	for _, ext := range markdownExts {
		if strings.HasSuffix(lower, ext) {
			return p[:len(p)-len(ext)]
		}
	}
	return p
}

// NoteKey derives the normalized, case-insensitive identifier for the note
// at absolute within root: the relative path with its markdown extension
// stripped, NFC-normalized, and lowercased. Returns an InvalidPath failure
// if the result would be empty.
func NoteKey(root, absolute string) (string, error) {
	rel, err := Relpath(root, absolute)
	if err != nil {
		return "", err
	}
	key := NormalizeKey(stripMarkdownExt(rel))
	if key == "" {
		return "", tomoerrors.InvalidPathErr("empty note key", absolute)
	}
	return key, nil
}

// KeyFromRelPath derives the normalized note key from an already
// workspace-relative path (as stored in note_path), without needing the
// workspace root. Equivalent to NoteKey but for callers that only have
// the relative form, e.g. the Semantic Edge Refresher comparing vector
// neighbors (paths) against explicit links (keys).
func KeyFromRelPath(rel string) string {
	return NormalizeKey(stripMarkdownExt(rel))
}

// TargetFromRelPath strips a trailing markdown extension from an
// already workspace-relative path, preserving case — the literal form a
// wiki-link rewrite substitutes in place of a stale target (see
// internal/rename), as opposed to KeyFromRelPath's normalized lookup key.
func TargetFromRelPath(rel string) string {
	return stripMarkdownExt(rel)
}

// NormalizeKey applies the key-comparison normalization used across
// tomosona: NFC normalization, Unicode lowercasing, trimming, and stripping
// a leading "./" or "/". It does not strip a markdown extension; callers
// that need that do it separately (see NoteKey and KeyFromRelPath).
func NormalizeKey(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "./")
	s = strings.TrimPrefix(s, "/")
	s = norm.NFC.String(s)
	return strings.ToLower(s)
}

// NoteLinkTarget derives the relative, extension-stripped path of absolute
// within root with case preserved — the form stored as a link's canonical
// target when a note's own path is recorded (as opposed to a key used for
// lookup, see NoteKey).
func NoteLinkTarget(root, absolute string) (string, error) {
	rel, err := Relpath(root, absolute)
	if err != nil {
		return "", err
	}
	return stripMarkdownExt(rel), nil
}

// IsMarkdownFile reports whether path has a .md or .markdown extension
// (case-insensitive).
func IsMarkdownFile(path string) bool {
	lower := strings.ToLower(path)
	for _, ext := range markdownExts {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}
