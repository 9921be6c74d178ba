// Package logseq models the pieces of a Logseq page that the migration cares
// about: the page property header, outline blocks, and the block properties
// (id::, ls-type::, hl-page::, ...) attached to them.
package logseq

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

const (
	KeyID        = "id"
	KeyLsType    = "ls-type"
	KeyHlPage    = "hl-page"
	KeyHlColor   = "hl-color"
	KeyCollapsed = "collapsed"
)

const annotationType = "annotation"

// obsoleteBlockKeys are Logseq-only metadata with no Obsidian equivalent.
// The transformer drops lines carrying them; everything else stays verbatim.
var obsoleteBlockKeys = map[string]struct{}{
	KeyID:        {},
	KeyLsType:    {},
	KeyHlPage:    {},
	KeyHlColor:   {},
	KeyCollapsed: {},
}

// BlockRefPattern matches ((uuid)) block references inside block text.
var BlockRefPattern = regexp.MustCompile(`\(\(([a-f0-9-]{36})\)\)`)

var blockRefOnlyPattern = regexp.MustCompile(`^\(\([a-f0-9-]{36}\)\)$`)

var bulletPrefixPattern = regexp.MustCompile(`^\s*-\s+`)

// PropertyLine is one "key:: value" line attached to a block.
type PropertyLine struct {
	Line  int // index into Page.Lines
	Key   string
	Value string
	Raw   string
}

// Block is one outline node: a content line plus the run of property lines
// that follows it. A block made of nothing but property lines (no content
// line above them) has ContentLine == -1.
type Block struct {
	ContentLine int
	Content     string // content text without the bullet prefix
	Prefix      string // leading indentation plus bullet, exactly as written
	Properties  []PropertyLine
}

// PageProperties is the "key:: value, value" header at the top of a page,
// with key order preserved.
type PageProperties struct {
	Keys   []string
	Values map[string][]string
}

// Page is one parsed file. Lines holds the body exactly as read (header
// excluded) so the transformer can rewrite and rejoin without losing layout.
type Page struct {
	Properties *PageProperties
	Lines      []string
	Blocks     []Block
}

// ParsePage decomposes raw file content into the page property header and the
// ordered sequence of blocks. A leading byte-order mark and Windows line
// endings are normalized up front; the migration writes plain LF output.
func ParsePage(raw string) (Page, error) {
	raw = strings.TrimPrefix(raw, "\uFEFF")
	raw = strings.ReplaceAll(raw, "\r\n", "\n")
	lines := strings.Split(raw, "\n")
	props, headerEnd, err := parsePageProperties(lines)
	if err != nil {
		return Page{}, err
	}
	body := lines[headerEnd:]
	return Page{
		Properties: props,
		Lines:      body,
		Blocks:     parseBlocks(body),
	}, nil
}

// parsePageProperties consumes the leading run of "key:: value" lines. The
// header must start on the very first line; blank lines inside or trailing
// the run are consumed with it, so the body starts at the first block. A file
// that already starts with "---" frontmatter has no header. Returns the
// properties (nil if absent) and the index of the first body line.
func parsePageProperties(lines []string) (*PageProperties, int, error) {
	if len(lines) == 0 || !isHeaderPropertyLine(lines[0]) {
		return nil, 0, nil
	}

	props := &PageProperties{Values: map[string][]string{}}
	end := 0
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			end = i + 1
			continue
		}
		if !isHeaderPropertyLine(line) {
			break
		}
		key, rest, _ := strings.Cut(trimmed, "::")
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, 0, fmt.Errorf("page property with empty key at line %d", i+1)
		}
		values := splitPropertyValues(rest)
		if _, seen := props.Values[key]; !seen {
			props.Keys = append(props.Keys, key)
		}
		props.Values[key] = values
		end = i + 1
	}
	return props, end, nil
}

func isHeaderPropertyLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "-") {
		return false
	}
	return strings.Contains(trimmed, "::")
}

func splitPropertyValues(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if v := strings.TrimSpace(part); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func parseBlocks(lines []string) []Block {
	var blocks []Block
	open := false // a block accepts property lines until a blank line
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			open = false
			continue
		}
		if key, value, ok := splitBlockProperty(line); ok {
			if !open {
				blocks = append(blocks, Block{ContentLine: -1})
				open = true
			}
			last := &blocks[len(blocks)-1]
			last.Properties = append(last.Properties, PropertyLine{Line: i, Key: key, Value: value, Raw: line})
			continue
		}
		prefix := bulletPrefixPattern.FindString(line)
		if prefix == "" {
			prefix = line[:len(line)-len(strings.TrimLeft(line, " \t"))]
		}
		blocks = append(blocks, Block{
			ContentLine: i,
			Content:     strings.TrimSpace(line[len(prefix):]),
			Prefix:      prefix,
		})
		open = true
	}
	return blocks
}

// splitBlockProperty recognizes a non-bulleted "key:: value" continuation
// line. Keys never contain whitespace, which keeps prose with a literal "::"
// out.
func splitBlockProperty(line string) (string, string, bool) {
	trimmed := strings.TrimSpace(line)
	if strings.HasPrefix(trimmed, "- ") {
		return "", "", false
	}
	key, rest, found := strings.Cut(trimmed, "::")
	if !found || key == "" || strings.ContainsAny(key, " \t") {
		return "", "", false
	}
	return key, strings.TrimSpace(rest), true
}

func (b Block) property(key string) (string, bool) {
	for _, p := range b.Properties {
		if p.Key == key {
			return p.Value, true
		}
	}
	return "", false
}

// Identifier returns the block's id:: value when present and UUID-valid.
// Malformed identifiers are treated as absent rather than rejected, so a
// stray id:: line never blocks migration of its file.
func (b Block) Identifier() (string, bool) {
	v, ok := b.property(KeyID)
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	if uuid.Validate(v) != nil {
		return "", false
	}
	return v, true
}

// PageNumber returns the hl-page:: value of a PDF highlight block.
func (b Block) PageNumber() (string, bool) {
	v, ok := b.property(KeyHlPage)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return strings.TrimSpace(v), true
}

// IsAnnotation reports whether the block is a PDF annotation. Both markers
// are required: an ls-type:: annotation block without a page number is a
// normal block on purpose, since the synthesized link text needs the page.
func (b Block) IsAnnotation() bool {
	t, ok := b.property(KeyLsType)
	if !ok || strings.TrimSpace(t) != annotationType {
		return false
	}
	_, hasPage := b.PageNumber()
	return hasPage
}

// DisplayText is the sanitized text an identifier pointing at this block
// resolves to. Annotation blocks get a " page-N" suffix. A block whose
// content is nothing but a ((ref)) yields no display text: linking to a link
// would chain resolution through another block.
func (b Block) DisplayText() string {
	content := strings.TrimSpace(b.Content)
	if content == "" || blockRefOnlyPattern.MatchString(content) {
		return ""
	}
	if b.IsAnnotation() {
		page, _ := b.PageNumber()
		content = content + " page-" + page
	}
	return SanitizeLinkText(content)
}

// IsObsoleteKey reports whether a property key is Logseq-only metadata to
// discard during migration.
func IsObsoleteKey(key string) bool {
	_, ok := obsoleteBlockKeys[key]
	return ok
}
