package editor

// Action is a named formatting or history command a host can bind to a
// toolbar button or key.
type Action int

const (
	ActionNone Action = iota
	ActionBold
	ActionItalic
	ActionUnderline
	ActionCode
	ActionHeading1
	ActionHeading2
	ActionHeading3
	ActionBulletList
	ActionNumberedList
	ActionQuote
	ActionLink
	ActionUndo
	ActionRedo
	ActionTogglePreview
)

var actionNames = map[Action]string{
	ActionBold:          "bold",
	ActionItalic:        "italic",
	ActionUnderline:     "underline",
	ActionCode:          "code",
	ActionHeading1:      "heading1",
	ActionHeading2:      "heading2",
	ActionHeading3:      "heading3",
	ActionBulletList:    "bulletList",
	ActionNumberedList:  "numberedList",
	ActionQuote:         "quote",
	ActionLink:          "link",
	ActionUndo:          "undo",
	ActionRedo:          "redo",
	ActionTogglePreview: "preview",
}

// String returns the action's name, which doubles as its dictionary key.
func (a Action) String() string {
	if s, ok := actionNames[a]; ok {
		return s
	}
	return "none"
}

// Wrap is an inline formatting preset applied with InsertWrap.
type Wrap struct {
	Before      string
	After       string
	Placeholder string
}

// Inline presets.
var wraps = map[Action]Wrap{
	ActionBold:      {"**", "**", "bold text"},
	ActionItalic:    {"*", "*", "italic text"},
	ActionUnderline: {"__", "__", "underlined text"},
	ActionCode:      {"`", "`", "code"},
	ActionLink:      {"[", "](url)", "link text"},
}

// Line prefix presets applied with ToggleLinePrefix.
var prefixes = map[Action]string{
	ActionHeading1:     "# ",
	ActionHeading2:     "## ",
	ActionHeading3:     "### ",
	ActionBulletList:   "* ",
	ActionNumberedList: "1. ",
	ActionQuote:        "> ",
}

// Key bindings shared by every host. Keys use Bubble Tea's naming.
var shortcuts = map[string]Action{
	"ctrl+b":       ActionBold,
	"ctrl+i":       ActionItalic,
	"ctrl+u":       ActionUnderline,
	"ctrl+`":       ActionCode,
	"ctrl+@":       ActionCode, // most terminals send NUL for ctrl+`
	"ctrl+z":       ActionUndo,
	"ctrl+shift+z": ActionRedo,
	"ctrl+y":       ActionRedo,
}

// WrapFor returns the inline preset for a.
func WrapFor(a Action) (Wrap, bool) {
	w, ok := wraps[a]
	return w, ok
}

// PrefixFor returns the line prefix preset for a.
func PrefixFor(a Action) (string, bool) {
	p, ok := prefixes[a]
	return p, ok
}

// Shortcut looks up the action bound to a key.
func Shortcut(key string) (Action, bool) {
	a, ok := shortcuts[key]
	return a, ok
}

// Apply runs a on the editor. It reports whether the action is one the
// editor knows how to perform.
func (e *Editor) Apply(a Action) bool {
	if w, ok := wraps[a]; ok {
		e.InsertWrap(w.Before, w.After, w.Placeholder)
		return true
	}
	if p, ok := prefixes[a]; ok {
		e.ToggleLinePrefix(p)
		return true
	}
	switch a {
	case ActionUndo:
		e.Undo()
	case ActionRedo:
		e.Redo()
	case ActionTogglePreview:
		e.ToggleMode()
	default:
		return false
	}
	return true
}
