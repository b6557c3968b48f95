package tui

import (
	"context"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/teamdeck/teamdeck/internal/directory"
	"github.com/teamdeck/teamdeck/internal/guard"
	"github.com/teamdeck/teamdeck/internal/identity"
	"github.com/teamdeck/teamdeck/internal/session"
)

// guardStatusMsg delivers a session guard transition to the program.
type guardStatusMsg struct {
	status guard.Status
}

// StatusRelay bridges guard notifications into the bubbletea event
// loop. Delivery is latest-wins: if the program has not consumed the
// previous status yet, a newer one replaces it.
type StatusRelay struct {
	ch chan guard.Status
}

// NewStatusRelay creates a relay. Pass Notify to the guard and give
// the relay itself to the dashboard.
func NewStatusRelay() *StatusRelay {
	return &StatusRelay{ch: make(chan guard.Status, 1)}
}

// Notify accepts a guard status without blocking the guard.
func (r *StatusRelay) Notify(status guard.Status) {
	for {
		select {
		case r.ch <- status:
			return
		default:
			select {
			case <-r.ch:
			default:
			}
		}
	}
}

// wait blocks until the next status arrives. The dashboard re-issues
// it after every delivery.
func (r *StatusRelay) wait() tea.Cmd {
	return func() tea.Msg {
		return guardStatusMsg{status: <-r.ch}
	}
}

// dashboardPane selects the visible pane while the session is
// verified.
type dashboardPane int

const (
	paneDirectory dashboardPane = iota
	paneProfile
)

// Dashboard is the top-level model for the signed-in experience. It
// stays behind the session guard: nothing protected renders until the
// guard admits, and a failed or logged-out session tears the program
// down.
type Dashboard struct {
	ctx        context.Context
	sessions   *session.Store
	identity   *identity.Client
	controller *directory.Controller
	relay      *StatusRelay
	styles     Styles

	status       guard.Status
	bootstrapped bool
	pane         dashboardPane
	spinner      spinner.Model
	notice       Notice
	dir          DirectoryView
	profile      ProfileView
	quitting     bool
}

// NewDashboard wires the dashboard model. The guard must be started
// separately with the relay's Notify hook.
func NewDashboard(ctx context.Context, sessions *session.Store, identityClient *identity.Client, controller *directory.Controller, relay *StatusRelay) Dashboard {
	styles := DefaultStyles()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Title

	return Dashboard{
		ctx:        ctx,
		sessions:   sessions,
		identity:   identityClient,
		controller: controller,
		relay:      relay,
		styles:     styles,
		spinner:    sp,
		notice:     NewNotice(),
		dir:        NewDirectoryView(ctx, controller, styles),
		profile:    NewProfileView(styles),
	}
}

// Init starts the spinner and the guard status watch.
func (m Dashboard) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.relay.wait())
}

// Update routes messages to the guard handling, the notice, and the
// active pane.
func (m Dashboard) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case guardStatusMsg:
		return m.handleGuardStatus(msg.status)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.dirModalOpen() && msg.String() == "q" {
				break
			}
			m.quitting = true
			return m, tea.Quit
		case "p":
			if m.status.Admitted() && !m.dirModalOpen() {
				m.pane = paneProfile
				return m, nil
			}
		case "d":
			if m.status.Admitted() && !m.dirModalOpen() {
				m.pane = paneDirectory
				return m, nil
			}
		}
		if m.status.Admitted() && m.pane == paneDirectory {
			var cmd tea.Cmd
			m.dir, cmd = m.dir.Update(msg)
			return m, cmd
		}
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case noticeExpiredMsg:
		m.notice.Update(msg)
		return m, nil

	case refreshDoneMsg:
		var cmds []tea.Cmd
		if msg.err != nil {
			cmds = append(cmds, m.notice.Show("Refresh failed: "+msg.err.Error(), NoticeError))
		}
		var cmd tea.Cmd
		m.dir, cmd = m.dir.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)

	case commitDoneMsg:
		var cmds []tea.Cmd
		if msg.err != nil {
			cmds = append(cmds, m.notice.Show("Role update failed: "+msg.err.Error(), NoticeError))
		} else {
			cmds = append(cmds, m.notice.Show("Role updated", NoticeSuccess))
		}
		var cmd tea.Cmd
		m.dir, cmd = m.dir.Update(msg)
		cmds = append(cmds, cmd)
		return m, tea.Batch(cmds...)

	case profileLoadedMsg:
		m.profile = m.profile.Update(msg)
		return m, nil
	}

	return m, nil
}

// handleGuardStatus reacts to a session guard transition. The first
// admission bootstraps the directory and profile; a logout quits.
func (m Dashboard) handleGuardStatus(status guard.Status) (tea.Model, tea.Cmd) {
	m.status = status
	cmds := []tea.Cmd{m.relay.wait()}

	switch status.State {
	case guard.StateVerified:
		if !m.bootstrapped {
			m.bootstrapped = true
			snap := m.sessions.Snapshot()
			cmds = append(cmds,
				refreshCmd(m.ctx, m.controller),
				loadProfileCmd(m.ctx, m.identity, snap.Token),
			)
		}
	case guard.StateLoggedOut:
		m.quitting = true
		cmds = append(cmds, tea.Quit)
	}

	return m, tea.Batch(cmds...)
}

func (m Dashboard) dirModalOpen() bool {
	return m.pane == paneDirectory && m.dir.modal != nil
}

// View renders per guard state. Protected content only appears once
// the guard has admitted the session.
func (m Dashboard) View() string {
	if m.quitting {
		return m.styles.Muted.Render("Signed out.") + "\n"
	}

	switch m.status.State {
	case guard.StateVerified:
		return m.viewAdmitted()
	case guard.StateFailed:
		body := m.styles.Error.Render("Session check failed: "+m.status.Reason) + "\n" +
			m.styles.Muted.Render("Returning to sign-in…")
		return m.styles.Border.Render(body) + "\n"
	case guard.StateLoggedOut:
		return m.styles.Muted.Render("Signed out.") + "\n"
	default:
		return m.spinner.View() + " Checking session…\n"
	}
}

func (m Dashboard) viewAdmitted() string {
	out := m.styles.Title.Render("Teamdeck") + "\n"
	if m.notice.Visible() {
		out += m.notice.View(m.styles) + "\n"
	}
	if m.pane == paneProfile {
		out += m.profile.View() + "\n"
		out += m.styles.Help.Render("d directory • q quit")
	} else {
		out += m.dir.View()
	}
	return out + "\n"
}
