package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/dgnsrekt/autocast/editor"
	runewidth "github.com/mattn/go-runewidth"
)

type cellKind int

const (
	cellPlain cellKind = iota
	cellSelected
	cellCursor
)

type bufferView struct {
	b      strings.Builder
	run    strings.Builder
	kind   cellKind
	col    int
	row    int
	width  int
	cursor int
}

// renderBuffer draws v for edit mode. Lines are soft wrapped at width cells
// and the cursor is a reversed cell. It returns the rendered text and the
// visual row holding the cursor.
func renderBuffer(v string, sel editor.Selection, cursor, width int) (string, int) {
	bv := bufferView{width: width}
	for i, r := range []rune(v) {
		kind := cellPlain
		switch {
		case i == cursor:
			kind = cellCursor
		case i >= sel.Start && i < sel.End:
			kind = cellSelected
		}

		if r == '\n' {
			if kind != cellPlain {
				bv.put(' ', kind)
			}
			bv.newline()
			continue
		}
		if r == '\t' {
			r = ' '
		}
		bv.put(r, kind)
	}
	if cursor >= len([]rune(v)) {
		bv.put(' ', cellCursor)
	}
	bv.flush()
	return bv.b.String(), bv.cursor
}

func (bv *bufferView) put(r rune, kind cellKind) {
	w := runewidth.RuneWidth(r)
	if bv.width > 0 && bv.col > 0 && bv.col+w > bv.width {
		bv.newline()
	}
	if kind == cellCursor {
		bv.cursor = bv.row
	}
	if kind != bv.kind {
		bv.flush()
		bv.kind = kind
	}
	bv.run.WriteRune(r)
	bv.col += w
}

func (bv *bufferView) newline() {
	bv.flush()
	bv.b.WriteByte('\n')
	bv.col = 0
	bv.row++
}

func (bv *bufferView) flush() {
	if bv.run.Len() == 0 {
		return
	}
	s := bv.run.String()
	switch bv.kind {
	case cellCursor:
		s = cursorStyle.Render(s)
	case cellSelected:
		s = selectionStyle.Render(s)
	}
	bv.b.WriteString(s)
	bv.run.Reset()
}

// glamourRender renders markdown for preview mode.
func glamourRender(cfg Config, width int, markdown string) (string, error) {
	if !cfg.GlamourEnabled {
		return markdown, nil
	}

	width = max(0, width)
	if cfg.GlamourMaxWidth > 0 {
		width = min(int(cfg.GlamourMaxWidth), width) //nolint:gosec
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath(cfg.GlamourStyle),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("error creating glamour renderer: %w", err)
	}

	out, err := r.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("error rendering markdown: %w", err)
	}
	return out, nil
}
