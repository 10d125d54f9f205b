// Package ui provides the terminal script editor for autocast.
package ui

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/autocast/editor"
	"github.com/dgnsrekt/autocast/internal/i18n"
	"github.com/fsnotify/fsnotify"
	te "github.com/muesli/termenv"
)

const (
	statusMessageTimeout = time.Second * 3 // how long to show status messages like "saved"
	ellipsis             = "…"
)

// Refiner rewrites a script according to feedback.
type Refiner interface {
	Refine(ctx context.Context, script, feedback string) (string, error)
}

// RefineFunc adapts a function to the Refiner interface.
type RefineFunc func(ctx context.Context, script, feedback string) (string, error)

// Refine calls f.
func (f RefineFunc) Refine(ctx context.Context, script, feedback string) (string, error) {
	return f(ctx, script, feedback)
}

// NewProgram returns a new Tea program editing cfg.Path. A nil refiner
// disables ctrl+r.
func NewProgram(cfg Config, tr i18n.Translator, refiner Refiner) *tea.Program {
	log.Debug(
		"Starting autocast editor",
		"path", cfg.Path,
		"glamour", cfg.GlamourEnabled,
		"locale", tr.Locale(),
	)

	if cfg.GlamourStyle == "" || cfg.GlamourStyle == styles.AutoStyle {
		if te.HasDarkBackground() {
			cfg.GlamourStyle = styles.DarkStyle
		} else {
			cfg.GlamourStyle = styles.LightStyle
		}
	}

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if cfg.EnableMouse {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	m := newModel(cfg, tr, refiner)
	return tea.NewProgram(m, opts...)
}

type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

type (
	fileLoadedMsg struct {
		content string
		exists  bool
	}
	fileSavedMsg            struct{ content string }
	reloadMsg               struct{ content string }
	previewRenderedMsg      string
	refinedMsg              struct{ script string }
	refineFailedMsg         struct{ err error }
	statusMessageTimeoutMsg struct{}
)

// state is the top-level application state.
type state int

const (
	stateLoading state = iota
	stateEditing
	statePrompting // refine feedback prompt is open
	stateRefining  // waiting for the model
)

func (s state) String() string {
	return map[state]string{
		stateLoading:   "loading",
		stateEditing:   "editing",
		statePrompting: "prompting",
		stateRefining:  "refining",
	}[s]
}

type model struct {
	cfg      Config
	tr       i18n.Translator
	refiner  Refiner
	state    state
	fatalErr error

	width  int
	height int

	ed       *editor.Editor
	note     string // file name shown in the status bar
	saved    string // content last read from or written to disk
	viewport viewport.Model
	preview  string

	input        textinput.Model
	spinner      spinner.Model
	cancelRefine context.CancelFunc

	statusMessage      string
	statusIsError      bool
	statusMessageTimer *time.Timer

	quitArmed     bool
	pendingReload string
	watcher       *fsnotify.Watcher
}

func newModel(cfg Config, tr i18n.Translator, refiner Refiner) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(tr.T("editor.refinePrompt"))
	ti.Placeholder = tr.T("editor.refinePlaceholder")
	ti.CharLimit = 1000

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	m := model{
		cfg:      cfg,
		tr:       tr,
		refiner:  refiner,
		state:    stateLoading,
		ed:       editor.New(""),
		note:     filepath.Base(cfg.Path),
		viewport: viewport.New(0, 0),
		input:    ti,
		spinner:  sp,
	}
	m.initWatcher()
	return m
}

func (m model) Init() tea.Cmd {
	log.Debug("Init() called", "path", m.cfg.Path)
	return loadFile(m.cfg.Path)
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// If there's been an error, any key exits
	if m.fatalErr != nil {
		if _, ok := msg.(tea.KeyMsg); ok {
			return m, tea.Quit
		}
	}

	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch m.state {
		case stateLoading:
			if msg.String() == keyQuit {
				return m, tea.Quit
			}
			return m, nil
		case statePrompting:
			return m.updatePrompt(msg)
		case stateRefining:
			if msg.String() == keyEsc || msg.String() == keyQuit {
				if m.cancelRefine != nil {
					m.cancelRefine()
				}
			}
			return m, nil
		}
		return m.handleKey(msg)

	// Window size is received when starting up and on every resize
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.setSize()
		if m.ed.Mode() == editor.ModePreview {
			cmds = append(cmds, m.renderPreview())
		}

	case fileLoadedMsg:
		m.ed = editor.New(msg.content)
		m.saved = msg.content
		m.state = stateEditing
		if msg.exists {
			log.Info("file loaded", "file", m.cfg.Path, "bytes", len(msg.content))
		}
		cmds = append(cmds, m.watchFile)

	case fileSavedMsg:
		m.saved = msg.content
		cmds = append(cmds, m.showStatusMessage(m.tr.T("editor.saved", "path", m.note), false))

	// The file was changed on disk by someone else
	case reloadMsg:
		cmds = append(cmds, m.reload(msg.content), m.watchFile)

	case previewRenderedMsg:
		m.preview = string(msg)

	case refinedMsg:
		m.finishRefine()
		m.ed.Flush()
		m.ed.SetValue(msg.script)
		m.ed.Flush()
		cmds = append(cmds, m.showStatusMessage(m.tr.T("editor.refined"), false))

	case refineFailedMsg:
		m.finishRefine()
		log.Error("refine failed", "error", msg.err)
		text := msg.err.Error()
		if errors.Is(msg.err, context.Canceled) {
			text = m.tr.T("common.cancel")
		}
		cmds = append(cmds, m.showStatusMessage(text, true))

	case spinner.TickMsg:
		if m.state == stateRefining {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}

	case statusMessageTimeoutMsg:
		m.statusMessage = ""
		m.statusIsError = false

	case errMsg:
		if m.state == stateLoading {
			m.fatalErr = msg.err
			return m, nil
		}
		cmds = append(cmds, m.showStatusMessage(msg.Error(), true))
	}

	m.syncViewport()
	if m.ed.Mode() == editor.ModePreview {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// handleKey processes keys while editing or previewing.
func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key != keyQuit && key != keyEsc {
		m.quitArmed = false
	}

	var cmds []tea.Cmd
	switch key {
	case keyQuit, keyEsc:
		m.ed.Flush()
		if m.ed.Value() != m.saved && !m.quitArmed {
			m.quitArmed = true
			cmd := m.showStatusMessage(m.tr.T("editor.unsaved"), true)
			return m, cmd
		}
		m.cleanup()
		return m, tea.Quit

	case keySave:
		m.ed.Flush()
		return m, saveFile(m.cfg.Path, m.ed.Value())

	case keyCopy:
		// Copy using OSC 52
		te.Copy(m.ed.Value())
		// Copy using native system clipboard
		_ = clipboard.WriteAll(m.ed.Value())
		cmd := m.showStatusMessage(m.tr.T("editor.copied"), false)
		return m, cmd

	case keyRefine:
		if m.refiner == nil || m.ed.ReadOnly() {
			return m, nil
		}
		m.state = statePrompting
		m.input.Reset()
		m.setSize()
		cmd := m.input.Focus()
		return m, cmd

	case keyPreview:
		cmd := m.togglePreview()
		m.syncViewport()
		return m, cmd
	}

	if a, ok := actionForKey(key); ok {
		if m.ed.ReadOnly() && mutates(a) {
			cmd := m.showStatusMessage(m.tr.T("editor.readOnly"), false)
			return m, cmd
		}
		switch a {
		case editor.ActionUndo:
			if !m.ed.Undo() {
				cmds = append(cmds, m.showStatusMessage(m.tr.T("editor.nothingToUndo"), false))
			}
		case editor.ActionRedo:
			if !m.ed.Redo() {
				cmds = append(cmds, m.showStatusMessage(m.tr.T("editor.nothingToRedo"), false))
			}
		default:
			m.ed.Apply(a)
		}
		m.syncViewport()
		return m, tea.Batch(cmds...)
	}

	if m.ed.ReadOnly() {
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	m.editKey(msg)
	m.syncViewport()
	return m, nil
}

// editKey applies a typing or cursor key to the buffer.
func (m model) editKey(msg tea.KeyMsg) {
	ed := m.ed
	switch msg.String() {
	case "enter":
		ed.InsertNewline()
	case "tab":
		ed.Insert("\t")
	case "backspace":
		ed.DeleteBackward()
	case "delete":
		ed.DeleteForward()
	case "left":
		ed.MoveLeft(false)
	case "right":
		ed.MoveRight(false)
	case "up":
		ed.MoveUp(false)
	case "down":
		ed.MoveDown(false)
	case "home":
		ed.MoveLineStart(false)
	case "end":
		ed.MoveLineEnd(false)
	case "shift+left":
		ed.MoveLeft(true)
	case "shift+right":
		ed.MoveRight(true)
	case "shift+up":
		ed.MoveUp(true)
	case "shift+down":
		ed.MoveDown(true)
	case "shift+home":
		ed.MoveLineStart(true)
	case "shift+end":
		ed.MoveLineEnd(true)
	case "ctrl+a":
		ed.SelectAll()
	case "pgup":
		for range max(1, m.viewport.Height) {
			ed.MoveUp(false)
		}
	case "pgdown":
		for range max(1, m.viewport.Height) {
			ed.MoveDown(false)
		}
	default:
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			if msg.Alt {
				return
			}
			ed.Insert(string(msg.Runes))
		}
	}
}

// updatePrompt handles keys while the refine prompt is open.
func (m model) updatePrompt(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case keyEsc, keyQuit:
		m.state = stateEditing
		m.input.Blur()
		m.setSize()
		return m, nil
	case "enter":
		feedback := strings.TrimSpace(m.input.Value())
		if feedback == "" {
			return m, nil
		}
		m.input.Blur()
		m.ed.Flush()

		ctx, cancel := context.WithCancel(context.Background())
		m.cancelRefine = cancel
		m.state = stateRefining
		m.setSize()
		log.Info("refining script", "feedback", feedback)
		return m, tea.Batch(m.spinner.Tick, refine(ctx, m.refiner, m.ed.Value(), feedback))
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) finishRefine() {
	m.state = stateEditing
	if m.cancelRefine != nil {
		m.cancelRefine()
		m.cancelRefine = nil
	}
	m.setSize()
}

func (m *model) togglePreview() tea.Cmd {
	if m.ed.ToggleMode() == editor.ModePreview {
		m.ed.Flush()
		m.viewport.GotoTop()
		return m.renderPreview()
	}
	m.preview = ""
	if m.pendingReload != "" {
		content := m.pendingReload
		m.pendingReload = ""
		return m.reload(content)
	}
	return nil
}

func (m model) renderPreview() tea.Cmd {
	cfg, width, body := m.cfg, m.viewport.Width, m.ed.Value()
	return func() tea.Msg {
		s, err := glamourRender(cfg, width, body)
		if err != nil {
			log.Error("error rendering with Glamour", "error", err)
			return errMsg{err}
		}
		return previewRenderedMsg(s)
	}
}

// reload takes in content written to the file by another program. In
// preview mode the buffer is read-only, so the reload waits until the user
// returns to edit mode.
func (m *model) reload(content string) tea.Cmd {
	if content == m.saved || content == m.ed.Value() {
		m.saved = content
		return nil
	}
	if m.ed.ReadOnly() {
		m.pendingReload = content
		return m.showStatusMessage(m.tr.T("editor.changedOnDisk", "path", m.note), false)
	}
	m.ed.Flush()
	m.ed.SetValue(content)
	m.ed.Flush()
	m.saved = content
	log.Info("reloaded file", "file", m.cfg.Path)
	return m.showStatusMessage(m.tr.T("editor.reloaded", "path", m.note), false)
}

func (m *model) cleanup() {
	if m.statusMessageTimer != nil {
		m.statusMessageTimer.Stop()
	}
	if m.cancelRefine != nil {
		m.cancelRefine()
	}
	m.unwatchFile()
}

func (m model) View() string {
	if m.fatalErr != nil {
		return errorView(m.fatalErr, true)
	}
	if m.state == stateLoading {
		return ""
	}

	var b strings.Builder
	fmt.Fprint(&b, m.viewport.View()+"\n")
	switch m.state { //nolint:exhaustive
	case statePrompting:
		fmt.Fprint(&b, m.input.View()+"\n")
	case stateRefining:
		fmt.Fprint(&b, m.spinner.View()+" "+subtleStyle.Render(m.tr.T("common.refining"))+"\n")
	}
	m.statusBarView(&b)
	return b.String()
}

func errorView(err error, fatal bool) string {
	exitMsg := "press any key to "
	if fatal {
		exitMsg += "exit"
	} else {
		exitMsg += "return"
	}
	s := fmt.Sprintf("%s\n\n%v\n\n%s",
		errorTitleStyle.Render("ERROR"),
		err,
		subtleStyle.Render(exitMsg),
	)
	return "\n" + indent(s, 3)
}

// COMMANDS

func loadFile(path string) tea.Cmd {
	return func() tea.Msg {
		b, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			return fileLoadedMsg{}
		}
		if err != nil {
			log.Error("unable to read file", "file", path, "error", err)
			return errMsg{err}
		}
		return fileLoadedMsg{content: string(b), exists: true}
	}
}

func saveFile(path, content string) tea.Cmd {
	return func() tea.Msg {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil { //nolint:gosec
			return errMsg{fmt.Errorf("unable to create directory: %w", err)}
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil { //nolint:gosec
			log.Error("unable to save file", "file", path, "error", err)
			return errMsg{fmt.Errorf("unable to save file: %w", err)}
		}
		log.Info("saved file", "file", path, "bytes", len(content))
		return fileSavedMsg{content: content}
	}
}

func refine(ctx context.Context, r Refiner, script, feedback string) tea.Cmd {
	return func() tea.Msg {
		out, err := r.Refine(ctx, script, feedback)
		if err != nil {
			return refineFailedMsg{err}
		}
		return refinedMsg{out}
	}
}
