// Package format sanitizes and renders user-supplied comment text.
package format

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
)

// Policy is an explicit allow-list of HTML tags and attributes.
type Policy struct {
	Tags       []string
	Attributes []string
}

// DefaultCommentPolicy is the allow-list applied to comments.
var DefaultCommentPolicy = Policy{
	Tags:       []string{"a", "b", "i", "em", "strong", "strike", "del", "code"},
	Attributes: []string{"href", "title"},
}

// Formatter sanitizes and renders text against a fixed Policy. It holds no
// per-call state and is safe for concurrent use.
type Formatter struct {
	policy   *bluemonday.Policy
	markdown goldmark.Markdown
}

// New builds a Formatter for p.
func New(p Policy) *Formatter {
	bm := bluemonday.NewPolicy()
	bm.AllowElements(p.Tags...)
	if len(p.Attributes) > 0 {
		bm.AllowAttrs(p.Attributes...).OnElements(p.Tags...)
	}
	bm.AllowStandardURLs()
	bm.RequireNoFollowOnLinks(false)

	return &Formatter{
		policy:   bm,
		markdown: goldmark.New(),
	}
}

// Sanitize strips every tag and attribute not on the allow-list.
func (f *Formatter) Sanitize(html string) string {
	return f.policy.Sanitize(html)
}

// Render converts Markdown to HTML and sanitizes the result.
func (f *Formatter) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := f.markdown.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return f.Sanitize(buf.String()), nil
}
