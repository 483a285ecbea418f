package markdown

// RewriteWikiLinks rewrites every [[target|alias#heading]] reference in
// content whose normalized target (per the same rule ExtractTargets uses)
// equals oldKey, replacing only the target portion with newTarget and
// preserving whatever alias/heading suffix followed it. It reports
// whether anything changed. Used by the rename-update path (§6's
// update_wikilinks_for_rename) to keep referring notes pointed at a
// renamed note without touching anything else in the file, frontmatter
// included — wiki syntax is rewritten wherever it literally appears.
func RewriteWikiLinks(content, oldKey, newTarget string) (string, bool) {
	changed := false

	result := wikiLinkPattern.ReplaceAllStringFunc(content, func(match string) string {
		inner := match[2 : len(match)-2]
		raw := splitFirst(inner)
		key, ok := normalizeWikiTarget(raw)
		if !ok || key != oldKey {
			return match
		}
		suffix := inner[len(raw):]
		changed = true
		return "[[" + newTarget + suffix + "]]"
	})

	return result, changed
}
