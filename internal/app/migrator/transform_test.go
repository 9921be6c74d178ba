package migrator

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noswind/logseq-to-obsidian/internal/domain/logseq"
)

const (
	annotationID = "11111111-2222-3333-4444-555555555555"
	plainID      = "aaaaaaaa-bbbb-cccc-dddd-eeeeeeeeeeee"
	missingID    = "99999999-8888-7777-6666-555555555555"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTransformPage_FrontmatterRoundTrip(t *testing.T) {
	raw := strings.Join([]string{
		"alias:: 别名1, 别名2",
		"tags:: 标签A, 标签B",
		"",
		"- body block",
		"",
	}, "\n")

	out, err := transformPage(raw, IdentifierDB{}, "note.md", discardLogger())
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(out, "---\n"))
	require.Contains(t, out, "aliases:")
	require.Contains(t, out, `- "别名1"`)
	require.Contains(t, out, `- "别名2"`)
	require.Contains(t, out, "tags:")
	require.Contains(t, out, `- "标签A"`)
	require.Contains(t, out, `- "标签B"`)
	require.NotContains(t, out, "alias::")
	require.NotContains(t, out, "tags::")
	require.Contains(t, out, "- body block")
}

func TestTransformPage_OtherHeaderKeys(t *testing.T) {
	raw := "title:: 我的页面\nrelated:: 甲, 乙\n\n- body\n"
	out, err := transformPage(raw, IdentifierDB{}, "note.md", discardLogger())
	require.NoError(t, err)

	// Single value renders as a scalar, comma-separated values as a list.
	require.Contains(t, out, `title: "我的页面"`)
	require.Contains(t, out, "related:")
	require.Contains(t, out, `- "甲"`)
	require.Contains(t, out, `- "乙"`)
}

func TestTransformPage_SingleAliasStillRendersAsList(t *testing.T) {
	out, err := transformPage("alias:: 只有一个\n- body\n", IdentifierDB{}, "note.md", discardLogger())
	require.NoError(t, err)
	require.Contains(t, out, "aliases:")
	require.Contains(t, out, `- "只有一个"`)
}

func TestTransformPage_CRLFInputComesOutLF(t *testing.T) {
	db := IdentifierDB{plainID: "normal block"}
	raw := "alias:: 别名1\r\n\r\n- normal block\r\n  id:: " + plainID + "\r\n"

	out, err := transformPage(raw, db, "note.md", discardLogger())
	require.NoError(t, err)
	require.NotContains(t, out, "\r")
	require.Contains(t, out, "aliases:")
	require.Contains(t, out, "- [[normal block]]")
}

func TestTransformPage_HeaderBehindByteOrderMarkStillRenames(t *testing.T) {
	out, err := transformPage("\uFEFFalias:: 别名1\n- body\n", IdentifierDB{}, "note.md", discardLogger())
	require.NoError(t, err)
	require.Contains(t, out, "aliases:")
	require.Contains(t, out, `- "别名1"`)
	require.NotContains(t, out, "\uFEFF")
}

func TestTransformPage_ReferenceSubstitution(t *testing.T) {
	db := IdentifierDB{annotationID: "这是PDF第17页的一句标注。 page-17"}
	raw := "- see ((" + annotationID + ")) for details\n"

	out, err := transformPage(raw, db, "note.md", discardLogger())
	require.NoError(t, err)
	require.Equal(t, "- see [[这是PDF第17页的一句标注。 page-17]] for details\n", out)
}

func TestTransformPage_UnresolvedReferenceStaysLiteral(t *testing.T) {
	var buf strings.Builder
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	raw := "- see ((" + missingID + "))\n"
	out, err := transformPage(raw, IdentifierDB{}, "note.md", logger)
	require.NoError(t, err)
	require.Equal(t, raw, out)

	logged := buf.String()
	require.Equal(t, 1, strings.Count(logged, "unresolved block reference"))
	require.Contains(t, logged, missingID)
	require.Contains(t, logged, "note.md")
}

func TestTransformPage_SelfBlockWrapping(t *testing.T) {
	db := IdentifierDB{plainID: "normal block"}
	raw := strings.Join([]string{
		"- normal block",
		"  id:: " + plainID,
		"- untouched sibling",
		"",
	}, "\n")

	out, err := transformPage(raw, db, "note.md", discardLogger())
	require.NoError(t, err)
	require.Equal(t, "- [[normal block]]\n- untouched sibling\n", out)
}

func TestTransformPage_WrappingKeepsIndentation(t *testing.T) {
	db := IdentifierDB{plainID: "child"}
	raw := "- parent\n\t- child\n\t  id:: " + plainID + "\n"

	out, err := transformPage(raw, db, "note.md", discardLogger())
	require.NoError(t, err)
	require.Equal(t, "- parent\n\t- [[child]]\n", out)
}

func TestTransformPage_AnnotationBlock(t *testing.T) {
	db := IdentifierDB{annotationID: "这是PDF第17页的一句标注。 page-17"}
	raw := strings.Join([]string{
		"- 这是PDF第17页的一句标注。",
		"  ls-type:: annotation",
		"  hl-page:: 17",
		"  hl-color:: yellow",
		"  id:: " + annotationID,
		"",
	}, "\n")

	out, err := transformPage(raw, db, "note.md", discardLogger())
	require.NoError(t, err)
	require.Equal(t, "- [[这是PDF第17页的一句标注。 page-17]]\n", out)
}

func TestTransformPage_StripsObsoleteMetadataEvenWithoutDBEntry(t *testing.T) {
	// The block's content is a pure reference, so pass 1 never registered
	// its identifier. The metadata still goes away.
	raw := strings.Join([]string{
		"- ((" + plainID + "))",
		"  id:: " + annotationID,
		"  collapsed:: true",
		"",
	}, "\n")
	db := IdentifierDB{plainID: "target text"}

	out, err := transformPage(raw, db, "note.md", discardLogger())
	require.NoError(t, err)
	require.Equal(t, "- [[target text]]\n", out)
}

func TestTransformPage_UnrecognizedPropertyLinesSurvive(t *testing.T) {
	raw := "- block\n  deadline:: 2024-06-01\n"
	out, err := transformPage(raw, IdentifierDB{}, "note.md", discardLogger())
	require.NoError(t, err)
	require.Equal(t, raw, out)
}

func TestTransformPage_AlreadyWrappedBlockIsNotRewrapped(t *testing.T) {
	db := IdentifierDB{plainID: "canonical text"}
	raw := "- [[canonical text]]\n  id:: " + plainID + "\n"

	out, err := transformPage(raw, db, "note.md", discardLogger())
	require.NoError(t, err)
	require.Equal(t, "- [[canonical text]]\n", out)
}

func TestTransformPage_Idempotent(t *testing.T) {
	db := IdentifierDB{
		annotationID: "这是PDF第17页的一句标注。 page-17",
		plainID:      "normal block",
	}
	raw := strings.Join([]string{
		"alias:: 别名1, 别名2",
		"",
		"- normal block",
		"  id:: " + plainID,
		"- see ((" + annotationID + "))",
		"",
	}, "\n")

	once, err := transformPage(raw, db, "note.md", discardLogger())
	require.NoError(t, err)
	twice, err := transformPage(once, db, "note.md", discardLogger())
	require.NoError(t, err)
	require.Equal(t, once, twice)
}

func TestTransformPage_MalformedHeaderIsAnError(t *testing.T) {
	_, err := transformPage(":: no key here\n- block\n", IdentifierDB{}, "bad.md", discardLogger())
	require.Error(t, err)
}

func TestRenderFrontmatter_QuotedSequences(t *testing.T) {
	props := &logseq.PageProperties{
		Keys: []string{"alias", "tags"},
		Values: map[string][]string{
			"alias": {"别名1", "别名2"},
			"tags":  {"标签A", "标签B"},
		},
	}
	out, err := renderFrontmatter(props)
	require.NoError(t, err)
	require.Equal(t, strings.Join([]string{
		"---",
		"aliases:",
		`  - "别名1"`,
		`  - "别名2"`,
		"tags:",
		`  - "标签A"`,
		`  - "标签B"`,
		"---",
		"",
	}, "\n"), out)
}
