package blog

import (
	"errors"
	"strings"
	"testing"
)

const sampleMarkdown = `---
slug: my-post
title: My Blog Post
description: A test post
author: Test Author
date: 2025-01-15
cover_image: blog/image.jpg
tags:
  - go
  - webdev
---

# Hello World

This is the content of my blog post.`

const minimalMarkdown = `---
slug: minimal
title: Minimal Post
description: Minimal description
author: Author
date: 2025-01-15
---

Content only.`

func TestParseCompleteDocument(t *testing.T) {
	doc, err := Parse([]byte(sampleMarkdown))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	slug, err := doc.Meta.GetString("slug")
	if err != nil || slug != "my-post" {
		t.Errorf("slug = %q, err = %v", slug, err)
	}
	title, err := doc.Meta.GetString("title")
	if err != nil || title != "My Blog Post" {
		t.Errorf("title = %q, err = %v", title, err)
	}
	if !strings.Contains(doc.Content, "# Hello World") {
		t.Errorf("content = %q, want heading retained", doc.Content)
	}
	if strings.HasPrefix(doc.Content, "\n") || strings.HasSuffix(doc.Content, "\n") {
		t.Errorf("content = %q, want surrounding whitespace trimmed", doc.Content)
	}
}

func TestParseMinimalDocument(t *testing.T) {
	doc, err := Parse([]byte(minimalMarkdown))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Content != "Content only." {
		t.Errorf("content = %q", doc.Content)
	}
}

func TestParseMissingFrontmatter(t *testing.T) {
	cases := map[string]string{
		"no block":       "This is not valid markdown",
		"leading space":  " ---\nslug: x\n---\nbody",
		"unterminated":   "---\nslug: x\n",
		"empty document": "",
		"delimiter only": "---\n",
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(input)); !errors.Is(err, ErrNoFrontmatter) {
				t.Errorf("Parse(%q) error = %v, want ErrNoFrontmatter", input, err)
			}
		})
	}
}

func TestParseEmptyBody(t *testing.T) {
	doc, err := Parse([]byte("---\nslug: x\n---\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if doc.Content != "" {
		t.Errorf("content = %q, want empty", doc.Content)
	}
}

func TestParseUnquotedDateIsString(t *testing.T) {
	// YAML resolves bare ISO dates as timestamps; the metadata layer must
	// still hand back the literal text.
	doc, err := Parse([]byte("---\ndate: 2025-01-15\n---\nbody"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	date, err := doc.Meta.GetString("date")
	if err != nil {
		t.Fatalf("GetString(date): %v", err)
	}
	if date != "2025-01-15" {
		t.Errorf("date = %q, want literal text", date)
	}
}

func TestParseDuplicateKeysKeepLast(t *testing.T) {
	doc, err := Parse([]byte("---\ntitle: First\ntitle: Second\n---\nbody"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	title, err := doc.Meta.GetString("title")
	if err != nil || title != "Second" {
		t.Errorf("title = %q, err = %v, want last value", title, err)
	}
	if got := doc.Meta.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1", got)
	}
}

func TestParseKeysKeepDocumentOrder(t *testing.T) {
	doc, err := Parse([]byte("---\nzebra: z\nalpha: a\nmike: m\n---\nbody"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	keys := doc.Meta.Keys()
	want := []string{"zebra", "alpha", "mike"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys = %v, want %v", keys, want)
		}
	}
}

func TestParseNonMappingFrontmatter(t *testing.T) {
	if _, err := Parse([]byte("---\n- a\n- b\n---\nbody")); err == nil {
		t.Error("expected error for sequence frontmatter")
	}
}

func TestParseMalformedYAML(t *testing.T) {
	if _, err := Parse([]byte("---\ntitle: [unclosed\n---\nbody")); err == nil {
		t.Error("expected error for malformed yaml")
	}
}

func TestDocumentPost(t *testing.T) {
	doc, err := Parse([]byte(sampleMarkdown))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	post, err := doc.Post()
	if err != nil {
		t.Fatalf("Post: %v", err)
	}

	if post.Slug != "my-post" || post.Author != "Test Author" || post.Date != "2025-01-15" {
		t.Errorf("post = %+v", post)
	}
	if post.CoverImage == nil || *post.CoverImage != "blog/image.jpg" {
		t.Errorf("cover_image = %v", post.CoverImage)
	}
	if len(post.Tags) != 2 || post.Tags[0] != "go" {
		t.Errorf("tags = %v", post.Tags)
	}
	if !strings.Contains(post.Content, "# Hello World") {
		t.Errorf("content = %q", post.Content)
	}
}

func TestDocumentPostNoOptionalFields(t *testing.T) {
	doc, err := Parse([]byte(minimalMarkdown))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	post, err := doc.Post()
	if err != nil {
		t.Fatalf("Post: %v", err)
	}
	if post.CoverImage != nil {
		t.Errorf("cover_image = %v, want nil", post.CoverImage)
	}
	if post.Tags == nil || len(post.Tags) != 0 {
		t.Errorf("tags = %v, want empty non-nil", post.Tags)
	}
}

func TestDocumentPostNonStringTitle(t *testing.T) {
	doc, err := Parse([]byte("---\nslug: ok\ntitle: 42\ndescription: d\nauthor: a\ndate: 2025-01-15\n---\nbody"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	_, err = doc.Post()
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
	if vErr.Field != "title" {
		t.Errorf("field = %q, want title", vErr.Field)
	}
}
