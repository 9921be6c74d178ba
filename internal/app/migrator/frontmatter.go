package migrator

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/noswind/logseq-to-obsidian/internal/domain/logseq"
)

// Keys that always render as a YAML sequence, even with a single value.
// Obsidian expects aliases and tags to be lists.
var sequenceKeys = map[string]struct{}{
	"aliases": {},
	"tags":    {},
}

// renderFrontmatter converts a page property header into a YAML frontmatter
// block bounded by --- lines. The node tree is built by hand so every value
// renders as a double-quoted string regardless of content, and key order
// follows the original header.
func renderFrontmatter(props *logseq.PageProperties) (string, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range props.Keys {
		outKey := key
		if outKey == "alias" {
			outKey = "aliases"
		}
		root.Content = append(root.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: outKey},
			propertyValueNode(outKey, props.Values[key]),
		)
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		_ = enc.Close()
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return "", fmt.Errorf("encode frontmatter: %w", err)
	}
	return "---\n" + buf.String() + "---\n", nil
}

func propertyValueNode(key string, values []string) *yaml.Node {
	if _, alwaysList := sequenceKeys[key]; !alwaysList && len(values) <= 1 {
		if len(values) == 0 {
			return quotedScalar("")
		}
		return quotedScalar(values[0])
	}
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, v := range values {
		seq.Content = append(seq.Content, quotedScalar(v))
	}
	return seq
}

func quotedScalar(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Style: yaml.DoubleQuotedStyle, Tag: "!!str", Value: v}
}
