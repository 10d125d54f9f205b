package editor

import "strings"

// Insert replaces the selection with text and leaves the cursor after it.
// Like SetValue, the change is committed to history after the debounce
// window.
func (e *Editor) Insert(text string) {
	e.edit(func(r []rune, sel Selection) ([]rune, int, bool) {
		ins := []rune(text)
		out := make([]rune, 0, len(r)-(sel.End-sel.Start)+len(ins))
		out = append(out, r[:sel.Start]...)
		out = append(out, ins...)
		out = append(out, r[sel.End:]...)
		return out, sel.Start + len(ins), true
	})
}

// InsertNewline breaks the line at the cursor.
func (e *Editor) InsertNewline() { e.Insert("\n") }

// DeleteBackward removes the selection, or the rune before the cursor.
func (e *Editor) DeleteBackward() {
	e.edit(func(r []rune, sel Selection) ([]rune, int, bool) {
		if sel.Empty() {
			if sel.Start == 0 {
				return nil, 0, false
			}
			sel.Start--
		}
		return cut(r, sel), sel.Start, true
	})
}

// DeleteForward removes the selection, or the rune after the cursor.
func (e *Editor) DeleteForward() {
	e.edit(func(r []rune, sel Selection) ([]rune, int, bool) {
		if sel.Empty() {
			if sel.End == len(r) {
				return nil, 0, false
			}
			sel.End++
		}
		return cut(r, sel), sel.Start, true
	})
}

// edit applies fn to the buffer under the lock and routes the result
// through the debounced commit path.
func (e *Editor) edit(fn func(r []rune, sel Selection) ([]rune, int, bool)) {
	e.mu.Lock()
	if e.mode == ModePreview {
		e.mu.Unlock()
		return
	}
	out, cursor, ok := fn([]rune(e.value), e.selectionLocked())
	if !ok {
		e.mu.Unlock()
		return
	}
	v := string(out)
	e.value = v
	e.anchor, e.head = cursor, cursor
	e.mu.Unlock()

	e.commit.Arm()
	e.notify(v)
}

func cut(r []rune, sel Selection) []rune {
	out := make([]rune, 0, len(r)-(sel.End-sel.Start))
	out = append(out, r[:sel.Start]...)
	return append(out, r[sel.End:]...)
}

// MoveLeft moves the cursor one rune left. Without extend, a non-empty
// selection collapses to its start.
func (e *Editor) MoveLeft(extend bool) {
	e.move(extend, func(_ []rune, sel Selection, head int) int {
		if !extend && !sel.Empty() {
			return sel.Start
		}
		return head - 1
	})
}

// MoveRight moves the cursor one rune right. Without extend, a non-empty
// selection collapses to its end.
func (e *Editor) MoveRight(extend bool) {
	e.move(extend, func(_ []rune, sel Selection, head int) int {
		if !extend && !sel.Empty() {
			return sel.End
		}
		return head + 1
	})
}

// MoveUp moves the cursor to the same column on the previous line.
func (e *Editor) MoveUp(extend bool) {
	e.move(extend, func(r []rune, _ Selection, head int) int {
		return verticalOffset(string(r), head, -1)
	})
}

// MoveDown moves the cursor to the same column on the next line.
func (e *Editor) MoveDown(extend bool) {
	e.move(extend, func(r []rune, _ Selection, head int) int {
		return verticalOffset(string(r), head, 1)
	})
}

// MoveLineStart moves the cursor to the start of its line.
func (e *Editor) MoveLineStart(extend bool) {
	e.move(extend, func(r []rune, _ Selection, head int) int {
		for head > 0 && r[head-1] != '\n' {
			head--
		}
		return head
	})
}

// MoveLineEnd moves the cursor to the end of its line.
func (e *Editor) MoveLineEnd(extend bool) {
	e.move(extend, func(r []rune, _ Selection, head int) int {
		for head < len(r) && r[head] != '\n' {
			head++
		}
		return head
	})
}

// SelectAll selects the whole buffer.
func (e *Editor) SelectAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.anchor, e.head = 0, runeLen(e.value)
}

func (e *Editor) move(extend bool, fn func(r []rune, sel Selection, head int) int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	r := []rune(e.value)
	head := clamp(fn(r, e.selectionLocked(), e.head), 0, len(r))
	e.head = head
	if !extend {
		e.anchor = head
	}
}

// Position returns the zero-based line and column of a rune offset.
func Position(v string, offset int) (line, col int) {
	lines := strings.Split(v, "\n")
	start := 0
	for i, l := range lines {
		n := runeLen(l)
		if offset <= start+n || i == len(lines)-1 {
			return i, clamp(offset-start, 0, n)
		}
		start += n + 1
	}
	return 0, 0
}

// Offset returns the rune offset of a line and column, clamped into the
// buffer.
func Offset(v string, line, col int) int {
	lines := strings.Split(v, "\n")
	line = clamp(line, 0, len(lines)-1)
	start := 0
	for i := 0; i < line; i++ {
		start += runeLen(lines[i]) + 1
	}
	return start + clamp(col, 0, runeLen(lines[line]))
}

func verticalOffset(v string, head, dir int) int {
	line, col := Position(v, head)
	target := line + dir
	if target < 0 {
		return 0
	}
	if target >= strings.Count(v, "\n")+1 {
		return runeLen(v)
	}
	return Offset(v, target, col)
}
