package migrator

import (
	"log/slog"
	"regexp"
	"strings"

	"github.com/noswind/logseq-to-obsidian/internal/domain/logseq"
)

var wrappedLinkPattern = regexp.MustCompile(`^\[\[[^\[\]]+\]\]$`)

// transformPage computes the complete replacement text for one file. Stage
// order is load-bearing: frontmatter conversion, then reference substitution,
// then self-block wrapping, then metadata stripping. The database is
// read-only here.
func transformPage(raw string, db IdentifierDB, path string, logger *slog.Logger) (string, error) {
	page, err := logseq.ParsePage(raw)
	if err != nil {
		return "", err
	}

	var head string
	if page.Properties != nil {
		head, err = renderFrontmatter(page.Properties)
		if err != nil {
			return "", err
		}
	}

	lines := make([]string, len(page.Lines))
	copy(lines, page.Lines)

	// Every ((id)) becomes [[display text]]. Unresolved references stay
	// literal; deleting or guessing them would lose information.
	for i, line := range lines {
		lines[i] = logseq.BlockRefPattern.ReplaceAllStringFunc(line, func(ref string) string {
			id := ref[2 : len(ref)-2]
			text, ok := db[id]
			if !ok {
				logger.Warn("unresolved block reference",
					slog.String("id", id), slog.String("file", path))
				return ref
			}
			return "[[" + text + "]]"
		})
	}

	drop := make(map[int]struct{})
	for _, b := range page.Blocks {
		for _, p := range b.Properties {
			if logseq.IsObsoleteKey(p.Key) {
				drop[p.Line] = struct{}{}
			}
		}

		// A block that carries a resolvable identifier becomes a page link
		// to its own canonical text, keeping the bullet prefix.
		id, ok := b.Identifier()
		if !ok || b.ContentLine < 0 {
			continue
		}
		text, found := db[id]
		if !found {
			continue
		}
		if isWrappedLink(strings.TrimPrefix(lines[b.ContentLine], b.Prefix)) {
			continue
		}
		lines[b.ContentLine] = b.Prefix + "[[" + text + "]]"
	}

	kept := make([]string, 0, len(lines))
	for i, line := range lines {
		if _, gone := drop[i]; gone {
			continue
		}
		kept = append(kept, line)
	}
	return head + strings.Join(kept, "\n"), nil
}

// isWrappedLink reports whether a block's rendered text is already a single
// [[...]] link, which means the migration already ran over it.
func isWrappedLink(s string) bool {
	return wrappedLinkPattern.MatchString(strings.TrimSpace(s))
}
