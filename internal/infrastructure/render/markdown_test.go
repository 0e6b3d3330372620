package render

import (
	"strings"
	"testing"
)

func TestMarkdown_Render(t *testing.T) {
	html, err := NewMarkdown().Render("**Yield** rose by 12%\n\n- plot A\n- plot B")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"<strong>Yield</strong>", "<li>plot A</li>"} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in %q", want, html)
		}
	}
}

func TestMarkdown_StripsScripts(t *testing.T) {
	html, err := NewMarkdown().Render("hello <script>alert(1)</script> <a href=\"javascript:x()\" onclick=\"y()\">link</a>")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, bad := range []string{"<script", "onclick", "javascript:"} {
		if strings.Contains(html, bad) {
			t.Fatalf("unsafe markup %q survived: %q", bad, html)
		}
	}
}
