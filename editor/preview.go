package editor

import (
	"html"
	"regexp"
)

type rule struct {
	re   *regexp.Regexp
	repl string
}

// Rules run in order. Line-level markers go first so that a "* " bullet is
// not taken for an italic opener.
var previewRules = []rule{
	{regexp.MustCompile(`(?m)^### (.*)$`), "<h3>$1</h3>"},
	{regexp.MustCompile(`(?m)^## (.*)$`), "<h2>$1</h2>"},
	{regexp.MustCompile(`(?m)^# (.*)$`), "<h1>$1</h1>"},
	{regexp.MustCompile(`(?m)^&gt; (.*)$`), "<blockquote>$1</blockquote>"},
	{regexp.MustCompile(`(?m)^\* (.*)$`), "<li>$1</li>"},
	{regexp.MustCompile(`(?m)^\d+\. (.*)$`), "<li>$1</li>"},
	{regexp.MustCompile(`\*\*(.*?)\*\*`), "<strong>$1</strong>"},
	{regexp.MustCompile(`\*(.*?)\*`), "<em>$1</em>"},
	{regexp.MustCompile(`__(.*?)__`), "<u>$1</u>"},
	{regexp.MustCompile("`(.*?)`"), "<code>$1</code>"},
	{regexp.MustCompile(`\[([^\]]+)\]\(([^)]+)\)`), `<a href="$2">$1</a>`},
	{regexp.MustCompile(`\n`), "<br>"},
}

// RenderPreview converts the supported markdown subset to HTML. The input
// is escaped before any rule runs. Lists are emitted as bare <li> elements.
func RenderPreview(src string) string {
	out := html.EscapeString(src)
	for _, r := range previewRules {
		out = r.re.ReplaceAllString(out, r.repl)
	}
	return out
}
