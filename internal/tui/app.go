package tui

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"cage/internal/config"
	"cage/internal/history"
	"cage/internal/session"
)

// Messages for async operations
type (
	sessionsLoadedMsg struct {
		sessions []session.Status
		err      error
	}

	historyLoadedMsg struct {
		entries []history.Entry
		err     error
	}

	sessionStoppedMsg struct {
		profile string
		err     error
	}

	sessionDetachedMsg struct {
		profile string
		err     error
	}
)

// App wraps the Model with bubbletea components
type App struct {
	*Model
	spinner spinner.Model
}

// NewApp creates a new TUI application
func NewApp(mgr *session.Manager, cfg *config.Config, historyStore *history.Store) *App {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	return &App{
		Model:   NewModel(mgr, cfg, historyStore),
		spinner: sp,
	}
}

// Run starts the TUI and blocks until the user quits.
func Run(mgr *session.Manager, cfg *config.Config, historyStore *history.Store) error {
	app := NewApp(mgr, cfg, historyStore)
	p := tea.NewProgram(app, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	a.loading = true
	return tea.Batch(
		a.spinner.Tick,
		a.loadSessions(),
		a.loadHistory(),
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.SetSize(msg.Width, msg.Height)
		return a, nil

	case spinner.TickMsg:
		if !a.loading {
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case sessionsLoadedMsg:
		a.loading = false
		if msg.err != nil {
			a.errorMsg = msg.err.Error()
		} else {
			a.sessions = msg.sessions
			a.MoveCursor(0)
		}
		return a, nil

	case historyLoadedMsg:
		if msg.err != nil {
			a.errorMsg = msg.err.Error()
		} else {
			a.historyEntries = msg.entries
		}
		return a, nil

	case sessionDetachedMsg:
		a.loading = true
		if msg.err != nil {
			a.errorMsg = fmt.Sprintf("attach %s: %v", msg.profile, msg.err)
		}
		return a, tea.Batch(a.spinner.Tick, a.loadSessions(), a.loadHistory())

	case sessionStoppedMsg:
		a.loading = true
		if msg.err != nil {
			a.errorMsg = fmt.Sprintf("stop %s: %v", msg.profile, msg.err)
		} else {
			a.successMsg = fmt.Sprintf("Stopped session %q", msg.profile)
		}
		return a, tea.Batch(a.spinner.Tick, a.loadSessions(), a.loadHistory())

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	keys := a.keys

	switch {
	case key.Matches(msg, keys.Quit):
		a.quitting = true
		return a, tea.Quit

	case key.Matches(msg, keys.Help):
		if a.activeView == ViewHelp {
			a.activeView = a.prevView
		} else {
			a.prevView = a.activeView
			a.activeView = ViewHelp
		}
		return a, nil

	case key.Matches(msg, keys.Cancel):
		if a.activeView == ViewHelp {
			a.activeView = a.prevView
		}
		a.errorMsg = ""
		a.successMsg = ""
		return a, nil

	case key.Matches(msg, keys.Up), key.Matches(msg, keys.VimUp):
		a.MoveCursor(-1)
		return a, nil

	case key.Matches(msg, keys.Down), key.Matches(msg, keys.VimDown):
		a.MoveCursor(1)
		return a, nil

	case key.Matches(msg, keys.Left):
		a.SwitchTab(a.activeTab - 1)
		return a, nil

	case key.Matches(msg, keys.Right):
		a.SwitchTab(a.activeTab + 1)
		return a, nil

	case key.Matches(msg, keys.Tab1):
		a.SwitchTab(0)
		return a, nil

	case key.Matches(msg, keys.Tab2):
		a.SwitchTab(1)
		return a, nil

	case key.Matches(msg, keys.Refresh):
		a.loading = true
		return a, tea.Batch(a.spinner.Tick, a.loadSessions(), a.loadHistory())

	case key.Matches(msg, keys.Attach):
		if a.activeView != ViewSessions {
			return a, nil
		}
		sel := a.SelectedSession()
		if sel == nil || !sel.Running {
			a.errorMsg = "no running session selected"
			return a, nil
		}
		return a, a.attachSession(sel.Profile, sel.Container)

	case key.Matches(msg, keys.Stop):
		if a.activeView != ViewSessions {
			return a, nil
		}
		sel := a.SelectedSession()
		if sel == nil || !sel.Running {
			a.errorMsg = "no running session selected"
			return a, nil
		}
		return a, a.stopSession(sel.Profile)
	}

	return a, nil
}

// View implements tea.Model
func (a *App) View() string {
	if a.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(a.styles.Header.Render("cage"))
	b.WriteString("  ")
	for i, tab := range a.tabs {
		style := a.styles.TabInactive
		if i == a.activeTab && a.activeView != ViewHelp {
			style = a.styles.TabActive
		}
		b.WriteString(style.Render(tab.Name))
	}
	b.WriteString("\n\n")

	switch a.activeView {
	case ViewSessions:
		b.WriteString(a.viewSessions())
	case ViewHistory:
		b.WriteString(a.viewHistory())
	case ViewHelp:
		b.WriteString(a.viewHelp())
	}

	b.WriteString("\n")
	if a.errorMsg != "" {
		b.WriteString(a.styles.Error.Render(a.errorMsg))
		b.WriteString("\n")
	} else if a.successMsg != "" {
		b.WriteString(a.styles.Success.Render(a.successMsg))
		b.WriteString("\n")
	}

	b.WriteString(a.footer())
	return b.String()
}

func (a *App) viewSessions() string {
	if a.loading {
		return a.styles.StatusBar.Render(a.spinner.View() + " Loading sessions...")
	}
	if len(a.sessions) == 0 {
		return a.styles.Footer.Render("No profiles found. Start one with: cage run")
	}

	var b strings.Builder
	cursor := a.cursors[ViewSessions]
	for i, s := range a.sessions {
		status := a.styles.StatusStopped.Render("○ stopped")
		if s.Running {
			status = a.styles.StatusRunning.Render("● running")
		}

		vols := make([]string, 0, 2)
		if s.HasHome {
			vols = append(vols, "home")
		}
		if s.HasWork {
			vols = append(vols, "workspace")
		}
		volInfo := a.styles.Footer.Render("volumes: " + strings.Join(vols, ", "))
		if len(vols) == 0 {
			volInfo = a.styles.Footer.Render("no volumes")
		}

		line := fmt.Sprintf("%s  %s  %s", a.styles.ProfileName.Render(s.Profile), status, volInfo)
		if i == cursor {
			b.WriteString(a.styles.ListItemSelected.Render() + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) viewHistory() string {
	if a.historyStore == nil {
		return a.styles.Footer.Render("History unavailable")
	}
	if len(a.historyEntries) == 0 {
		return a.styles.Footer.Render("No history entries")
	}

	var b strings.Builder
	cursor := a.cursors[ViewHistory]
	for i, e := range a.historyEntries {
		status := a.styles.Success.Render("success")
		if !e.Success {
			status = a.styles.Error.Render("failed")
		}
		line := fmt.Sprintf("%s  %-6s  %-12s  %s",
			a.styles.Footer.Render(e.FormatTime()),
			e.Operation,
			a.styles.ProfileName.Render(e.Profile),
			status,
		)
		if i == cursor {
			b.WriteString(a.styles.ListItemSelected.Render() + line)
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) viewHelp() string {
	var b strings.Builder
	b.WriteString(a.styles.Title.Render("Keybindings"))
	b.WriteString("\n\n")
	for _, group := range a.keys.FullHelp() {
		for _, binding := range group {
			h := binding.Help()
			b.WriteString(fmt.Sprintf("  %s  %s\n",
				a.styles.HelpKey.Render(fmt.Sprintf("%-8s", h.Key)),
				a.styles.HelpDesc.Render(h.Desc),
			))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (a *App) footer() string {
	var parts []string
	for _, binding := range a.keys.ShortHelp() {
		h := binding.Help()
		parts = append(parts, a.styles.HelpKey.Render(h.Key)+" "+a.styles.HelpDesc.Render(h.Desc))
	}
	return a.styles.Footer.Render(strings.Join(parts, "  "))
}

func (a *App) loadSessions() tea.Cmd {
	return func() tea.Msg {
		sessions, err := a.manager.List(context.Background())
		return sessionsLoadedMsg{sessions: sessions, err: err}
	}
}

func (a *App) loadHistory() tea.Cmd {
	return func() tea.Msg {
		if a.historyStore == nil {
			return historyLoadedMsg{}
		}
		entries, err := a.historyStore.List(50)
		return historyLoadedMsg{entries: entries, err: err}
	}
}

func (a *App) stopSession(profile string) tea.Cmd {
	return func() tea.Msg {
		err := a.manager.Stop(context.Background(), profile)
		return sessionStoppedMsg{profile: profile, err: err}
	}
}

// attachSession suspends the TUI and execs a shell in the session, the same
// way `cage shell` does.
func (a *App) attachSession(profile, container string) tea.Cmd {
	c := exec.Command("docker", "exec", "-it", "-u", a.config.Sandbox.User, container, "/bin/bash")
	return tea.ExecProcess(c, func(err error) tea.Msg {
		// The shell's own exit status is not an attach failure.
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			err = nil
		}
		return sessionDetachedMsg{profile: profile, err: err}
	})
}
