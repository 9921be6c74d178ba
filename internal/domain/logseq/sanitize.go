package logseq

import "strings"

// linkTextReplacer maps characters that are illegal in Obsidian page names to
// visually similar full-width or safe glyphs. None of the replacement glyphs
// appear on the left side, so sanitizing is idempotent.
var linkTextReplacer = strings.NewReplacer(
	"**", "★",
	"*", "★",
	":", "：",
	"?", "？",
	"<", "〈",
	">", "〉",
	`"`, "“",
	"|", "｜",
	`\`, "、",
	"/", "-",
)

// SanitizeLinkText returns text safe to use inside a [[wiki-link]] or as a
// file name. All other characters pass through unchanged.
func SanitizeLinkText(text string) string {
	return linkTextReplacer.Replace(text)
}
