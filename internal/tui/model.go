package tui

import (
	"cage/internal/config"
	"cage/internal/history"
	"cage/internal/session"
)

// View represents different views in the TUI
type View int

const (
	ViewSessions View = iota
	ViewHistory
	ViewHelp
)

// Tab represents a navigable tab
type Tab struct {
	Name string
	View View
}

// DefaultTabs returns the default tab configuration
func DefaultTabs() []Tab {
	return []Tab{
		{Name: "Sessions", View: ViewSessions},
		{Name: "History", View: ViewHistory},
	}
}

// Model holds the application state
type Model struct {
	quitting bool

	// Dimensions
	width  int
	height int

	// Navigation
	tabs       []Tab
	activeTab  int
	activeView View
	prevView   View

	// Data
	manager        *session.Manager
	config         *config.Config
	historyStore   *history.Store
	sessions       []session.Status
	historyEntries []history.Entry

	// UI state
	loading    bool
	errorMsg   string
	successMsg string

	// Cursor positions for each view
	cursors map[View]int

	// Styles and keys
	styles *Styles
	keys   KeyMap
}

// NewModel creates a new TUI model
func NewModel(mgr *session.Manager, cfg *config.Config, historyStore *history.Store) *Model {
	return &Model{
		tabs:         DefaultTabs(),
		activeTab:    0,
		activeView:   ViewSessions,
		manager:      mgr,
		config:       cfg,
		historyStore: historyStore,
		cursors:      make(map[View]int),
		styles:       DefaultStyles(),
		keys:         DefaultKeyMap(),
	}
}

// SetSize sets the terminal size
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SelectedSession returns the session under the cursor, or nil.
func (m *Model) SelectedSession() *session.Status {
	i := m.cursors[ViewSessions]
	if i < 0 || i >= len(m.sessions) {
		return nil
	}
	return &m.sessions[i]
}

// SwitchTab activates the given tab index.
func (m *Model) SwitchTab(i int) {
	if i < 0 || i >= len(m.tabs) {
		return
	}
	m.activeTab = i
	m.activeView = m.tabs[i].View
	m.errorMsg = ""
	m.successMsg = ""
}

// MoveCursor moves the cursor in the active view by delta, clamped.
func (m *Model) MoveCursor(delta int) {
	max := 0
	switch m.activeView {
	case ViewSessions:
		max = len(m.sessions) - 1
	case ViewHistory:
		max = len(m.historyEntries) - 1
	}
	c := m.cursors[m.activeView] + delta
	if c < 0 {
		c = 0
	}
	if c > max {
		c = max
	}
	if max < 0 {
		c = 0
	}
	m.cursors[m.activeView] = c
}
