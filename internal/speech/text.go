package speech

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var (
	md    = goldmark.New()
	urlRe = regexp.MustCompile(`https?://\S+`)
)

// SpeakableText reduces markdown to the prose a listener should hear.
// Headings, paragraphs, list items and quotes are kept, one block per
// paragraph. Code blocks, HTML, images, link targets, bare URLs and emphasis
// markers are dropped.
func SpeakableText(markdown string) string {
	src := []byte(markdown)
	doc := md.Parser().Parse(text.NewReader(src))

	var blocks []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock, *ast.ThematicBreak:
			return ast.WalkSkipChildren, nil
		case *ast.Heading:
			if s := inlineText(n, src); s != "" {
				blocks = append(blocks, endSentence(s))
			}
			return ast.WalkSkipChildren, nil
		case *ast.Paragraph, *ast.TextBlock:
			if s := inlineText(n, src); s != "" {
				if _, inList := n.Parent().(*ast.ListItem); inList {
					s = endSentence(s)
				}
				blocks = append(blocks, s)
			}
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.Join(blocks, "\n\n")
}

func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	writeInline(&b, n, src)
	s := urlRe.ReplaceAllString(b.String(), "")
	return strings.Join(strings.Fields(s), " ")
}

func writeInline(b *strings.Builder, n ast.Node, src []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(src))
			if c.SoftLineBreak() || c.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(c.Value)
		case *ast.AutoLink, *ast.Image, *ast.RawHTML:
			continue
		default:
			writeInline(b, c, src)
		}
	}
}

// endSentence adds a period so the voice pauses after headings and items.
func endSentence(s string) string {
	r := []rune(s)
	if isTerminal(r[len(r)-1]) || r[len(r)-1] == ':' {
		return s
	}
	return s + "."
}

func isTerminal(r rune) bool {
	switch r {
	case '.', '!', '?', '…', '؟', '۔', '。':
		return true
	}
	return false
}

func isClosing(r rune) bool {
	return strings.ContainsRune(`"')]»”’`, r)
}

// sentences splits s after terminal punctuation followed by whitespace and
// at newlines. The pieces keep their trailing whitespace, so joining them
// restores s.
func sentences(s string) []string {
	rs := []rune(s)
	var out []string
	start := 0
	for i := 0; i < len(rs); i++ {
		j := i + 1
		switch {
		case rs[i] == '\n':
		case isTerminal(rs[i]):
			for j < len(rs) && isTerminal(rs[j]) {
				j++
			}
			for j < len(rs) && isClosing(rs[j]) {
				j++
			}
			if j < len(rs) && !unicode.IsSpace(rs[j]) {
				// 3.14, e.g.x
				i = j - 1
				continue
			}
		default:
			continue
		}
		for j < len(rs) && unicode.IsSpace(rs[j]) {
			j++
		}
		out = append(out, string(rs[start:j]))
		start = j
		i = j - 1
	}
	if start < len(rs) {
		out = append(out, string(rs[start:]))
	}
	return out
}

// Chunk packs text into pieces of at most limit runes, breaking between
// sentences. A sentence longer than limit is broken between words, and a
// word longer than limit is cut on rune boundaries. A non-positive limit
// means MaxInputRunes.
func Chunk(text string, limit int) []string {
	if limit <= 0 {
		limit = MaxInputRunes
	}

	var (
		chunks []string
		b      strings.Builder
		n      int
	)
	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			chunks = append(chunks, s)
		}
		b.Reset()
		n = 0
	}
	add := func(piece string) {
		if n == 0 {
			piece = strings.TrimLeftFunc(piece, unicode.IsSpace)
		}
		if n > 0 && n+runeLen(strings.TrimRightFunc(piece, unicode.IsSpace)) > limit {
			flush()
			piece = strings.TrimLeftFunc(piece, unicode.IsSpace)
		}
		b.WriteString(piece)
		n += runeLen(piece)
	}

	for _, s := range sentences(text) {
		if runeLen(strings.TrimSpace(s)) <= limit {
			add(s)
			continue
		}
		for _, w := range words(s) {
			if runeLen(strings.TrimSpace(w)) <= limit {
				add(w)
				continue
			}
			for _, part := range cut(strings.TrimSpace(w), limit) {
				add(part)
			}
		}
	}
	flush()
	return chunks
}

// words splits s after each run of whitespace.
func words(s string) []string {
	var out []string
	start := 0
	inSpace := false
	for i, r := range s {
		sp := unicode.IsSpace(r)
		if inSpace && !sp {
			out = append(out, s[start:i])
			start = i
		}
		inSpace = sp
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func cut(s string, limit int) []string {
	rs := []rune(s)
	var out []string
	for len(rs) > limit {
		out = append(out, string(rs[:limit]))
		rs = rs[limit:]
	}
	if len(rs) > 0 {
		out = append(out, string(rs))
	}
	return out
}

func runeLen(s string) int {
	return len([]rune(s))
}
