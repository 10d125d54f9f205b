package ui

import "github.com/dgnsrekt/autocast/editor"

const (
	keyEsc     = "esc"
	keyQuit    = "ctrl+c"
	keySave    = "ctrl+s"
	keyPreview = "ctrl+p"
	keyRefine  = "ctrl+r"
	keyCopy    = "ctrl+o"
)

// Toolbar bindings that only make sense in a terminal. Terminals deliver
// ctrl+i as tab, so italic also lives on alt+i.
var toolbarKeys = map[string]editor.Action{
	"alt+1": editor.ActionHeading1,
	"alt+2": editor.ActionHeading2,
	"alt+3": editor.ActionHeading3,
	"alt+l": editor.ActionBulletList,
	"alt+o": editor.ActionNumberedList,
	"alt+q": editor.ActionQuote,
	"alt+k": editor.ActionLink,
	"alt+i": editor.ActionItalic,
}

// actionForKey resolves a key to an editor action, checking the shared
// editor shortcuts first.
func actionForKey(key string) (editor.Action, bool) {
	if a, ok := editor.Shortcut(key); ok {
		return a, true
	}
	a, ok := toolbarKeys[key]
	return a, ok
}

// mutates reports whether a can change the buffer, history steps included.
func mutates(a editor.Action) bool {
	return a != editor.ActionNone && a != editor.ActionTogglePreview
}
