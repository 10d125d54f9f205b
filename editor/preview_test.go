package editor

import (
	"strings"
	"testing"
)

func TestRenderPreview(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"heading 1", "# Title", "<h1>Title</h1>"},
		{"heading 2", "## Sub", "<h2>Sub</h2>"},
		{"heading 3", "### Minor", "<h3>Minor</h3>"},
		{"bold", "**b**", "<strong>b</strong>"},
		{"italic", "*i*", "<em>i</em>"},
		{"underline", "__u__", "<u>u</u>"},
		{"code", "`x := 1`", "<code>x := 1</code>"},
		{"quote", "> said", "<blockquote>said</blockquote>"},
		{"bullet", "* item", "<li>item</li>"},
		{"numbered", "12. item", "<li>item</li>"},
		{"bullet with italic", "* one *two*", "<li>one <em>two</em></li>"},
		{"link", "[site](https://example.com)", `<a href="https://example.com">site</a>`},
		{"newlines", "a\nb", "a<br>b"},
		{"list is not wrapped", "* a\n* b", "<li>a</li><br><li>b</li>"},
		{"heading then body", "# T\n**x**", "<h1>T</h1><br><strong>x</strong>"},
		{"html is escaped", "<script>", "&lt;script&gt;"},
		{"heading marker mid-line", "a # b", "a # b"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := RenderPreview(tc.in); got != tc.want {
				t.Errorf("RenderPreview(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestRenderPreviewOrderOfEmphasis(t *testing.T) {
	out := RenderPreview("**bold** and *italic*")

	b := strings.Index(out, "<strong>bold</strong>")
	i := strings.Index(out, "<em>italic</em>")
	if b < 0 || i < 0 {
		t.Fatalf("missing emphasis in %q", out)
	}
	if b > i {
		t.Errorf("bold rendered after italic in %q", out)
	}
}

func TestRenderPreviewIsPure(t *testing.T) {
	inputs := []string{
		"",
		"# Title\n> quote\n* a\n1. b\n**x** *y* __z__ `c` [l](u)",
		"نوشته **پررنگ**",
	}
	for _, in := range inputs {
		if a, b := RenderPreview(in), RenderPreview(in); a != b {
			t.Errorf("RenderPreview(%q) not deterministic: %q vs %q", in, a, b)
		}
	}

	e := New("**x**", WithClock(&manualClock{}))
	_ = e.RenderPreview()
	if got := e.Value(); got != "**x**" {
		t.Errorf("RenderPreview mutated buffer: %q", got)
	}
}
