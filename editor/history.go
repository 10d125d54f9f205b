package editor

// DefaultHistoryLimit bounds the number of snapshots kept for undo.
const DefaultHistoryLimit = 1000

// History is a linear list of committed buffer snapshots with a cursor.
// Committing after an undo discards every entry past the cursor.
type History struct {
	entries []string
	index   int
	limit   int
}

// NewHistory returns a history seeded with initial at index 0. A limit
// below 1 falls back to DefaultHistoryLimit.
func NewHistory(initial string, limit int) *History {
	if limit < 1 {
		limit = DefaultHistoryLimit
	}
	return &History{
		entries: []string{initial},
		limit:   limit,
	}
}

// Commit appends v after the cursor unless it equals the current entry.
// It reports whether a snapshot was added.
func (h *History) Commit(v string) bool {
	if h.entries[h.index] == v {
		return false
	}
	h.entries = append(h.entries[:h.index+1], v)
	h.index++

	if over := len(h.entries) - h.limit; over > 0 {
		h.entries = append([]string(nil), h.entries[over:]...)
		h.index -= over
	}
	return true
}

// Undo steps back one entry.
func (h *History) Undo() (string, bool) {
	if h.index == 0 {
		return h.entries[0], false
	}
	h.index--
	return h.entries[h.index], true
}

// Redo steps forward one entry.
func (h *History) Redo() (string, bool) {
	if h.index >= len(h.entries)-1 {
		return h.entries[h.index], false
	}
	h.index++
	return h.entries[h.index], true
}

// Current returns the entry at the cursor.
func (h *History) Current() string { return h.entries[h.index] }

// Index returns the cursor position.
func (h *History) Index() int { return h.index }

// Len returns the number of snapshots.
func (h *History) Len() int { return len(h.entries) }

// At returns the snapshot at i.
func (h *History) At(i int) string { return h.entries[i] }

// CanUndo reports whether Undo would move.
func (h *History) CanUndo() bool { return h.index > 0 }

// CanRedo reports whether Redo would move.
func (h *History) CanRedo() bool { return h.index < len(h.entries)-1 }
