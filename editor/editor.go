// Package editor implements a markdown-subset text editor core with a
// bounded undo history, debounced history commits, selection-aware
// formatting helpers and an HTML preview renderer.
//
// Offsets are counted in runes so that cursor positions line up with
// characters in non-Latin scripts.
package editor

import (
	"strings"
	"sync"
	"time"
	"unicode/utf8"
)

// DefaultDebounce is the quiet period after typing before a snapshot is
// committed to history.
const DefaultDebounce = time.Second

// Mode is the editor display mode.
type Mode int

const (
	// ModeEdit shows the raw buffer and accepts edits.
	ModeEdit Mode = iota
	// ModePreview shows rendered output and rejects edits.
	ModePreview
)

func (m Mode) String() string {
	switch m {
	case ModeEdit:
		return "edit"
	case ModePreview:
		return "preview"
	default:
		return "unknown"
	}
}

// Selection is an ordered pair of rune offsets into the buffer.
type Selection struct {
	Start int
	End   int
}

// Empty reports whether the selection is a bare cursor.
func (s Selection) Empty() bool { return s.Start == s.End }

// Option configures an Editor.
type Option func(*Editor)

// WithMode sets the initial mode.
func WithMode(m Mode) Option {
	return func(e *Editor) { e.mode = m }
}

// WithDebounce sets the history commit quiet period.
func WithDebounce(d time.Duration) Option {
	return func(e *Editor) { e.delay = d }
}

// WithHistoryLimit bounds the number of history snapshots.
func WithHistoryLimit(n int) Option {
	return func(e *Editor) { e.limit = n }
}

// WithClock replaces the clock driving the debounce timer.
func WithClock(c Clock) Option {
	return func(e *Editor) { e.clock = c }
}

// WithOnChange registers a callback fired synchronously after every buffer
// mutation.
func WithOnChange(fn func(string)) Option {
	return func(e *Editor) { e.onChange = fn }
}

// Editor owns a text buffer, the current selection and the edit history.
// It is safe for use by one host goroutine plus the debounce timer.
type Editor struct {
	mu     sync.Mutex
	value  string
	anchor int
	head   int
	mode   Mode

	history  *History
	commit   *Debouncer
	onChange func(string)

	delay time.Duration
	clock Clock
	limit int
}

// New returns an editor holding initial, with the cursor at the end of the
// buffer and history seeded with initial.
func New(initial string, opts ...Option) *Editor {
	e := &Editor{
		value: initial,
		delay: DefaultDebounce,
		limit: DefaultHistoryLimit,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.history = NewHistory(initial, e.limit)
	e.commit = NewDebouncer(e.delay, e.clock, e.commitPending)

	n := utf8.RuneCountInString(initial)
	e.anchor, e.head = n, n
	return e
}

// Value returns the current buffer.
func (e *Editor) Value() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

// Mode returns the current mode.
func (e *Editor) Mode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.mode
}

// ReadOnly reports whether edits are currently rejected.
func (e *Editor) ReadOnly() bool {
	return e.Mode() == ModePreview
}

// SetMode switches between edit and preview. The buffer is untouched.
func (e *Editor) SetMode(m Mode) {
	e.mu.Lock()
	e.mode = m
	e.mu.Unlock()
}

// ToggleMode flips between edit and preview and returns the new mode.
func (e *Editor) ToggleMode() Mode {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.mode == ModeEdit {
		e.mode = ModePreview
	} else {
		e.mode = ModeEdit
	}
	return e.mode
}

// Selection returns the ordered selection.
func (e *Editor) Selection() Selection {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.selectionLocked()
}

// Cursor returns the moving end of the selection.
func (e *Editor) Cursor() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.head
}

// SetSelection sets the selection, clamping both offsets into the buffer.
func (e *Editor) SetSelection(start, end int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := utf8.RuneCountInString(e.value)
	start, end = clamp(start, 0, n), clamp(end, 0, n)
	if start > end {
		start, end = end, start
	}
	e.anchor, e.head = start, end
}

// SetValue replaces the buffer and schedules a debounced history commit.
func (e *Editor) SetValue(v string) {
	e.mu.Lock()
	if e.mode == ModePreview {
		e.mu.Unlock()
		return
	}
	e.value = v
	e.clampLocked()
	e.mu.Unlock()

	e.commit.Arm()
	e.notify(v)
}

// InsertWrap surrounds the selection with before and after. An empty
// selection is replaced by placeholder. The cursor ends up just past after.
func (e *Editor) InsertWrap(before, after, placeholder string) {
	e.commit.Flush()

	e.mu.Lock()
	if e.mode == ModePreview {
		e.mu.Unlock()
		return
	}
	r := []rune(e.value)
	sel := e.selectionLocked()

	text := string(r[sel.Start:sel.End])
	if text == "" {
		text = placeholder
	}
	v := string(r[:sel.Start]) + before + text + after + string(r[sel.End:])
	cursor := sel.Start + runeLen(before) + runeLen(text) + runeLen(after)

	e.value = v
	e.anchor, e.head = cursor, cursor
	e.history.Commit(v)
	e.mu.Unlock()

	e.notify(v)
}

// ToggleLinePrefix adds prefix to the line holding the selection start, or
// strips it when the line already begins with it. The cursor keeps its
// position relative to the line text.
func (e *Editor) ToggleLinePrefix(prefix string) {
	e.commit.Flush()

	e.mu.Lock()
	if e.mode == ModePreview {
		e.mu.Unlock()
		return
	}
	start := e.selectionLocked().Start
	lines := strings.Split(e.value, "\n")

	target, lineStart := lineAt(lines, start)
	line := lines[target]
	plen := runeLen(prefix)

	var cursor int
	if strings.HasPrefix(line, prefix) {
		lines[target] = line[len(prefix):]
		cursor = max(lineStart, start-plen)
	} else {
		lines[target] = prefix + line
		cursor = start + plen
	}
	v := strings.Join(lines, "\n")

	e.value = v
	e.anchor, e.head = cursor, cursor
	e.history.Commit(v)
	e.mu.Unlock()

	e.notify(v)
}

// Undo restores the previous committed snapshot. Pending typing is committed
// first so it can be redone.
func (e *Editor) Undo() bool {
	return e.step((*History).Undo)
}

// Redo restores the next committed snapshot.
func (e *Editor) Redo() bool {
	return e.step((*History).Redo)
}

func (e *Editor) step(move func(*History) (string, bool)) bool {
	if e.ReadOnly() {
		return false
	}
	e.commit.Flush()

	e.mu.Lock()
	v, ok := move(e.history)
	if !ok {
		e.mu.Unlock()
		return false
	}
	e.value = v
	e.clampLocked()
	e.mu.Unlock()

	e.notify(v)
	return true
}

// CanUndo reports whether Undo would change the buffer, counting pending
// typing as a commit.
func (e *Editor) CanUndo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanUndo() || e.value != e.history.Current()
}

// CanRedo reports whether Redo would change the buffer.
func (e *Editor) CanRedo() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.history.CanRedo() && e.value == e.history.Current()
}

// History returns a copy of the committed snapshots and the current index.
func (e *Editor) History() ([]string, int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	entries := make([]string, e.history.Len())
	for i := range entries {
		entries[i] = e.history.At(i)
	}
	return entries, e.history.Index()
}

// Flush commits pending typing immediately.
func (e *Editor) Flush() bool {
	return e.commit.Flush()
}

// RenderPreview renders the current buffer as HTML.
func (e *Editor) RenderPreview() string {
	return RenderPreview(e.Value())
}

func (e *Editor) commitPending() {
	e.mu.Lock()
	e.history.Commit(e.value)
	e.mu.Unlock()
}

func (e *Editor) notify(v string) {
	if e.onChange != nil {
		e.onChange(v)
	}
}

func (e *Editor) selectionLocked() Selection {
	if e.anchor <= e.head {
		return Selection{Start: e.anchor, End: e.head}
	}
	return Selection{Start: e.head, End: e.anchor}
}

func (e *Editor) clampLocked() {
	n := utf8.RuneCountInString(e.value)
	e.anchor = clamp(e.anchor, 0, n)
	e.head = clamp(e.head, 0, n)
}

// lineAt returns the index of the line containing offset and the offset at
// which that line starts. A line contains offset when its start plus its
// length reaches offset.
func lineAt(lines []string, offset int) (int, int) {
	lineStart := 0
	for i, line := range lines {
		n := runeLen(line)
		if lineStart+n >= offset || i == len(lines)-1 {
			return i, lineStart
		}
		lineStart += n + 1
	}
	return 0, 0
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
