package ui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/dgnsrekt/autocast/editor"
	"github.com/fsnotify/fsnotify"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"
)

const statusBarHeight = 1

var (
	mintGreen = lipgloss.AdaptiveColor{Light: "#89F0CB", Dark: "#89F0CB"}
	darkGreen = lipgloss.AdaptiveColor{Light: "#1C8760", Dark: "#1C8760"}

	statusBarNoteFg = lipgloss.AdaptiveColor{Light: "#656565", Dark: "#7D7D7D"}
	statusBarBg     = lipgloss.AdaptiveColor{Light: "#E6E6E6", Dark: "#242424"}

	statusBarModeStyle = lipgloss.NewStyle().
				Foreground(lipgloss.AdaptiveColor{Light: "#949494", Dark: "#5A5A5A"}).
				Background(statusBarBg).
				Render

	statusBarNoteStyle = lipgloss.NewStyle().
				Foreground(statusBarNoteFg).
				Background(statusBarBg).
				Render

	statusBarMessageStyle = lipgloss.NewStyle().
				Foreground(mintGreen).
				Background(darkGreen).
				Render

	statusBarMessageModeStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("#B6FFE4")).
					Background(green).
					Render
)

func (m *model) setSize() {
	m.viewport.Width = m.width
	m.viewport.Height = m.height - statusBarHeight
	if m.state == statePrompting || m.state == stateRefining {
		m.viewport.Height--
	}
	m.viewport.Height = max(0, m.viewport.Height)
	m.input.Width = max(0, m.width-lipgloss.Width(m.input.Prompt)-1)
}

// syncViewport puts the buffer, or its rendered preview, into the viewport
// and keeps the cursor row visible while editing.
func (m *model) syncViewport() {
	if m.ed.Mode() == editor.ModePreview {
		m.viewport.SetContent(m.preview)
		return
	}

	content, row := renderBuffer(m.ed.Value(), m.ed.Selection(), m.ed.Cursor(), m.viewport.Width)
	m.viewport.SetContent(content)

	switch {
	case m.viewport.Height <= 0:
	case row < m.viewport.YOffset:
		m.viewport.SetYOffset(row)
	case row >= m.viewport.YOffset+m.viewport.Height:
		m.viewport.SetYOffset(row - m.viewport.Height + 1)
	}
}

// showStatusMessage shows msg in the status bar until it times out. Note
// that the returned command should be sent back through Update.
func (m *model) showStatusMessage(msg string, isError bool) tea.Cmd {
	m.statusMessage = msg
	m.statusIsError = isError
	if m.statusMessageTimer != nil {
		m.statusMessageTimer.Stop()
	}
	m.statusMessageTimer = time.NewTimer(statusMessageTimeout)

	return waitForStatusMessageTimeout(m.statusMessageTimer)
}

func waitForStatusMessageTimeout(t *time.Timer) tea.Cmd {
	return func() tea.Msg {
		<-t.C
		return statusMessageTimeoutMsg{}
	}
}

// statusNote is the file name, dirty marker and buffer statistics.
func (m model) statusNote() string {
	name := m.note
	if m.ed.Value() != m.saved {
		name += "*"
	}
	st := m.ed.Stats()
	stats := m.tr.T("editor.stats",
		"chars", fmt.Sprint(st.Chars),
		"lines", fmt.Sprint(st.Lines),
		"minutes", fmt.Sprint(st.ReadMinutes),
	)
	return name + " · " + stats
}

// historyView shows undo and redo availability.
func (m model) historyView() string {
	undo, redo := historyOffStyle(" ↶"), historyOffStyle(" ↷ ")
	if m.ed.CanUndo() {
		undo = historyOnStyle(" ↶")
	}
	if m.ed.CanRedo() {
		redo = historyOnStyle(" ↷ ")
	}
	return undo + redo
}

func (m model) statusBarView(b *strings.Builder) {
	showStatusMessage := m.statusMessage != ""

	logo := logoView()

	mode := m.tr.T("editor.mode.edit")
	if m.ed.Mode() == editor.ModePreview {
		mode = m.tr.T("editor.mode.preview")
	}
	mode = " " + mode + " "
	if showStatusMessage {
		mode = statusBarMessageModeStyle(mode)
	} else {
		mode = statusBarModeStyle(mode)
	}

	history := m.historyView()

	note := m.statusNote()
	if showStatusMessage {
		note = m.statusMessage
	}
	note = truncate.StringWithTail(" "+note+" ", uint(max(0, //nolint:gosec
		m.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(history)-
			ansi.PrintableRuneWidth(mode),
	)), ellipsis)

	style := statusBarNoteStyle
	switch {
	case showStatusMessage && m.statusIsError:
		style = statusBarErrorStyle
	case showStatusMessage:
		style = statusBarMessageStyle
	}
	note = style(note)

	// Empty space
	padding := max(0,
		m.width-
			ansi.PrintableRuneWidth(logo)-
			ansi.PrintableRuneWidth(note)-
			ansi.PrintableRuneWidth(history)-
			ansi.PrintableRuneWidth(mode),
	)
	emptySpace := style(strings.Repeat(" ", padding))

	fmt.Fprintf(b, "%s%s%s%s%s",
		logo,
		note,
		emptySpace,
		history,
		mode,
	)
}

func (m *model) initWatcher() {
	var err error
	m.watcher, err = fsnotify.NewWatcher()
	if err != nil {
		log.Error("error creating fsnotify watcher", "error", err)
	}
}

// watchFile blocks until the edited file is written by another program and
// returns its new content.
func (m model) watchFile() tea.Msg {
	if m.watcher == nil {
		return nil
	}
	path, dir := m.localPath(), m.localDir()

	// The file may be replaced with a rename, so the directory is watched.
	if err := m.watcher.Add(dir); err != nil {
		log.Error("error adding dir to fsnotify watcher", "error", err)
		return nil
	}

	log.Info("fsnotify watching dir", "dir", dir)

	for {
		select {
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if event.Name != path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}

			log.Debug("fsnotify event", "file", event.Name, "event", event.Op)
			b, err := os.ReadFile(path)
			if err != nil {
				log.Debug("unable to read changed file", "file", path, "error", err)
				continue
			}
			return reloadMsg{content: string(b)}
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			log.Debug("fsnotify error", "dir", dir, "error", err)
		}
	}
}

func (m *model) unwatchFile() {
	if m.watcher == nil {
		return
	}
	if err := m.watcher.Close(); err != nil {
		log.Error("fsnotify fail to close watcher", "error", err)
		return
	}
	log.Debug("fsnotify watcher closed", "dir", m.localDir())
}

func (m model) localPath() string {
	if p, err := filepath.Abs(m.cfg.Path); err == nil {
		return p
	}
	return m.cfg.Path
}

func (m model) localDir() string {
	return filepath.Dir(m.localPath())
}
