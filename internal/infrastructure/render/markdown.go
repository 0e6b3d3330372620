package render

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/agridynamic/admin-console/internal/core/ports"
)

// Markdown renders article sections with GitHub-flavoured markdown and
// strips anything bluemonday's UGC policy does not allow.
type Markdown struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

var _ ports.ContentRenderer = (*Markdown)(nil)

func NewMarkdown() *Markdown {
	return &Markdown{
		md:     goldmark.New(goldmark.WithExtensions(extension.GFM)),
		policy: bluemonday.UGCPolicy(),
	}
}

func (m *Markdown) Render(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return m.policy.Sanitize(buf.String()), nil
}
