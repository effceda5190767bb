// Package blog publishes markdown documents with YAML frontmatter to a
// key-value store and maintains a date-ordered list index over them.
package blog

import (
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrNoFrontmatter is returned when a document does not start with a
// well-formed frontmatter block.
var ErrNoFrontmatter = errors.New("blog: missing frontmatter block")

// Document is a parsed markdown file: the frontmatter mapping and the body
// with surrounding whitespace trimmed.
type Document struct {
	Meta    *Metadata
	Content string
}

// Parse splits src into frontmatter and body. The document must begin with
// a line of exactly "---", followed by YAML, a closing "---" line, and the
// body.
func Parse(src []byte) (*Document, error) {
	text := string(src)

	rest, ok := strings.CutPrefix(text, "---\n")
	if !ok {
		return nil, ErrNoFrontmatter
	}
	idx := strings.Index(rest, "\n---\n")
	if idx < 0 {
		return nil, ErrNoFrontmatter
	}
	head, body := rest[:idx], rest[idx+len("\n---\n"):]

	meta, err := decodeMetadata([]byte(head))
	if err != nil {
		return nil, err
	}
	return &Document{Meta: meta, Content: strings.TrimSpace(body)}, nil
}

// Post assembles a validated Post from the document.
func (d *Document) Post() (*Post, error) {
	if err := d.Meta.Validate(); err != nil {
		return nil, err
	}

	slug, err := d.Meta.GetString("slug")
	if err != nil {
		return nil, err
	}
	title, err := d.Meta.GetString("title")
	if err != nil {
		return nil, err
	}
	description, err := d.Meta.GetString("description")
	if err != nil {
		return nil, err
	}
	author, err := d.Meta.GetString("author")
	if err != nil {
		return nil, err
	}
	date, err := d.Meta.GetString("date")
	if err != nil {
		return nil, err
	}

	var cover *string
	if s, ok := d.Meta.GetOptionalString("cover_image"); ok {
		cover = &s
	}
	tags, err := d.Meta.GetStringList("tags")
	if err != nil {
		return nil, err
	}

	return &Post{
		Slug:        slug,
		Title:       title,
		Description: description,
		Author:      author,
		Date:        date,
		CoverImage:  cover,
		Tags:        tags,
		Content:     d.Content,
	}, nil
}

func decodeMetadata(src []byte) (*Metadata, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(src, &root); err != nil {
		return nil, fmt.Errorf("blog: parse frontmatter: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, errors.New("blog: frontmatter must be a mapping")
	}
	mapping := root.Content[0]
	if mapping.Kind != yaml.MappingNode {
		return nil, errors.New("blog: frontmatter must be a mapping")
	}

	meta := NewMetadata()
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		meta.set(mapping.Content[i].Value, nodeValue(mapping.Content[i+1]))
	}
	return meta, nil
}

// nodeValue maps a YAML node onto the tagged Value variant. Unquoted dates
// resolve with a timestamp tag; their literal text is kept as a string.
func nodeValue(n *yaml.Node) Value {
	switch n.Kind {
	case yaml.ScalarNode:
		if scalarString(n) {
			return Value{Kind: KindString, Str: n.Value}
		}
		return Value{Kind: KindOther}
	case yaml.SequenceNode:
		list := make([]string, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.ScalarNode || !scalarString(item) {
				return Value{Kind: KindOther}
			}
			list = append(list, item.Value)
		}
		return Value{Kind: KindStringList, List: list}
	default:
		return Value{Kind: KindOther}
	}
}

func scalarString(n *yaml.Node) bool {
	return n.Tag == "!!str" || n.Tag == "!!timestamp"
}
