package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/teamdeck/teamdeck/internal/directory"
)

// directoryTab selects which bucket (or workflow) the view shows.
type directoryTab int

const (
	tabAllUsers directoryTab = iota
	tabAdmins
	tabManagers
	tabAssociates
	tabAssign
)

var tabLabels = []string{"All Users", "Administrators", "Managers", "Associates", "Assign Roles"}

// refreshDoneMsg reports the outcome of a directory refresh.
type refreshDoneMsg struct {
	err error
}

// commitDoneMsg reports the outcome of one row's role commit.
type commitDoneMsg struct {
	userID string
	err    error
}

// refreshCmd runs a directory refresh off the update loop.
func refreshCmd(ctx context.Context, c *directory.Controller) tea.Cmd {
	return func() tea.Msg {
		return refreshDoneMsg{err: c.Refresh(ctx)}
	}
}

// commitCmd commits one row's pending role change.
func commitCmd(ctx context.Context, c *directory.Controller, userID string) tea.Cmd {
	return func() tea.Msg {
		return commitDoneMsg{userID: userID, err: c.CommitEdit(ctx, userID)}
	}
}

// roleModal is the single-user edit dialog opened from the user grids.
type roleModal struct {
	user   directory.User
	choice int
}

// DirectoryView renders the role-segmented member directory and
// drives the role assignment workflow against the controller.
type DirectoryView struct {
	ctx        context.Context
	controller *directory.Controller
	styles     Styles

	tab    directoryTab
	cursor int
	modal  *roleModal
}

// NewDirectoryView creates the directory view. The controller is
// injected; the view owns no directory state of its own.
func NewDirectoryView(ctx context.Context, controller *directory.Controller, styles Styles) DirectoryView {
	return DirectoryView{
		ctx:        ctx,
		controller: controller,
		styles:     styles,
		tab:        tabManagers,
	}
}

// rows returns the user list behind the active tab.
func (v DirectoryView) rows() []directory.User {
	snap, ok := v.controller.Snapshot()
	if !ok {
		return nil
	}
	switch v.tab {
	case tabAdmins:
		return snap.Admins
	case tabManagers:
		return snap.Managers
	case tabAssociates:
		return snap.Associates
	case tabAssign:
		return snap.AllUsers
	default:
		return snap.Flatten()
	}
}

// Update handles key input and async outcomes for the directory view.
func (v DirectoryView) Update(msg tea.Msg) (DirectoryView, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)
	case refreshDoneMsg:
		v.clampCursor()
		return v, nil
	case commitDoneMsg:
		if msg.err == nil && v.modal != nil && v.modal.user.UserID == msg.userID {
			v.modal = nil
		}
		return v, nil
	}
	return v, nil
}

func (v DirectoryView) handleKey(msg tea.KeyMsg) (DirectoryView, tea.Cmd) {
	if v.modal != nil {
		return v.handleModalKey(msg)
	}

	rows := v.rows()
	switch msg.String() {
	case "tab", "right":
		v.tab = (v.tab + 1) % directoryTab(len(tabLabels))
		v.cursor = 0
	case "shift+tab", "left":
		v.tab = (v.tab + directoryTab(len(tabLabels)) - 1) % directoryTab(len(tabLabels))
		v.cursor = 0
	case "up", "k":
		if v.cursor > 0 {
			v.cursor--
		}
	case "down", "j":
		if v.cursor < len(rows)-1 {
			v.cursor++
		}
	case "r":
		return v, refreshCmd(v.ctx, v.controller)
	case "e":
		// Open the modal edit for the selected user.
		if v.cursor < len(rows) {
			user := rows[v.cursor]
			if err := v.controller.BeginEdit(user.UserID); err == nil {
				v.modal = &roleModal{user: user, choice: roleIndex(user.NormalizedRole())}
			}
		}
	case "h":
		if v.tab == tabAssign {
			return v.cycleRole(rows, -1)
		}
	case "l":
		if v.tab == tabAssign {
			return v.cycleRole(rows, +1)
		}
	case "enter":
		if v.tab == tabAssign && v.cursor < len(rows) {
			userID := rows[v.cursor].UserID
			if _, ok := v.controller.Edit(userID); ok {
				return v, commitCmd(v.ctx, v.controller, userID)
			}
		}
	case "esc":
		if v.tab == tabAssign && v.cursor < len(rows) {
			v.controller.CancelEdit(rows[v.cursor].UserID)
		}
	}
	return v, nil
}

// cycleRole steps the selected row's proposed role through the closed
// set, opening a pending edit on first touch.
func (v DirectoryView) cycleRole(rows []directory.User, dir int) (DirectoryView, tea.Cmd) {
	if v.cursor >= len(rows) {
		return v, nil
	}
	user := rows[v.cursor]

	edit, ok := v.controller.Edit(user.UserID)
	if !ok {
		if err := v.controller.BeginEdit(user.UserID); err != nil {
			return v, nil
		}
		edit, _ = v.controller.Edit(user.UserID)
	}
	if edit.Busy {
		return v, nil
	}

	roles := directory.Roles()
	idx := (roleIndex(edit.Proposed) + dir + len(roles)) % len(roles)
	_ = v.controller.ProposeRole(user.UserID, roles[idx])
	return v, nil
}

func (v DirectoryView) handleModalKey(msg tea.KeyMsg) (DirectoryView, tea.Cmd) {
	roles := directory.Roles()
	userID := v.modal.user.UserID

	edit, live := v.controller.Edit(userID)
	busy := live && edit.Busy

	switch msg.String() {
	case "up", "k":
		if !busy && v.modal.choice > 0 {
			v.modal.choice--
			_ = v.controller.ProposeRole(userID, roles[v.modal.choice])
		}
	case "down", "j":
		if !busy && v.modal.choice < len(roles)-1 {
			v.modal.choice++
			_ = v.controller.ProposeRole(userID, roles[v.modal.choice])
		}
	case "enter":
		if !busy {
			return v, commitCmd(v.ctx, v.controller, userID)
		}
	case "esc":
		if !busy {
			v.controller.CancelEdit(userID)
			v.modal = nil
		}
	}
	return v, nil
}

func (v *DirectoryView) clampCursor() {
	if n := len(v.rows()); v.cursor >= n && n > 0 {
		v.cursor = n - 1
	} else if n == 0 {
		v.cursor = 0
	}
}

// View renders the tab bar and the active grid or workflow.
func (v DirectoryView) View() string {
	var b strings.Builder

	var tabs []string
	for i, label := range tabLabels {
		if directoryTab(i) == v.tab {
			tabs = append(tabs, v.styles.TabActive.Render(label))
		} else {
			tabs = append(tabs, v.styles.Tab.Render(label))
		}
	}
	b.WriteString(strings.Join(tabs, " "))
	b.WriteString("\n\n")

	if v.modal != nil {
		b.WriteString(v.renderModal())
		return b.String()
	}

	rows := v.rows()
	if len(rows) == 0 {
		b.WriteString(v.styles.Muted.Render("No users found."))
		b.WriteString("\n")
		b.WriteString(v.styles.Help.Render("r refresh • tab switch view • q quit"))
		return b.String()
	}

	if v.tab == tabAssign {
		b.WriteString(v.renderAssignTable(rows))
		b.WriteString(v.styles.Help.Render("h/l choose role • enter update • esc discard • r refresh • q quit"))
	} else {
		b.WriteString(v.renderGrid(rows))
		b.WriteString(v.styles.Help.Render("e edit role • r refresh • tab switch view • q quit"))
	}
	return b.String()
}

func (v DirectoryView) renderGrid(rows []directory.User) string {
	var b strings.Builder
	for i, u := range rows {
		line := fmt.Sprintf("%-20s %-28s %s", u.Name, u.Email, u.NormalizedRole())
		if i == v.cursor {
			b.WriteString(v.styles.Highlighted.Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (v DirectoryView) renderAssignTable(rows []directory.User) string {
	var b strings.Builder
	for i, u := range rows {
		proposed := u.NormalizedRole()
		status := ""
		if edit, ok := v.controller.Edit(u.UserID); ok {
			proposed = edit.Proposed
			switch {
			case edit.Busy:
				status = v.styles.Muted.Render("Updating…")
			case edit.FailureReason != "":
				status = v.styles.Error.Render(edit.FailureReason)
			default:
				status = v.styles.Muted.Render("pending")
			}
		}
		line := fmt.Sprintf("%-20s %-28s %-10s %s", u.Name, u.Email, proposed, status)
		if i == v.cursor {
			b.WriteString(v.styles.Highlighted.Render(line))
		} else {
			b.WriteString(line)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (v DirectoryView) renderModal() string {
	roles := directory.Roles()
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Edit role for %s\n\n", v.modal.user.Name))
	for i, r := range roles {
		marker := "  "
		if i == v.modal.choice {
			marker = "> "
		}
		b.WriteString(marker + r.String() + "\n")
	}

	if edit, ok := v.controller.Edit(v.modal.user.UserID); ok {
		switch {
		case edit.Busy:
			b.WriteString("\n" + v.styles.Muted.Render("Updating…"))
		case edit.FailureReason != "":
			b.WriteString("\n" + v.styles.Error.Render(edit.FailureReason))
		}
	}

	b.WriteString("\n\n" + v.styles.Help.Render("↑/↓ select • enter update • esc cancel"))
	return v.styles.Border.Render(b.String())
}

func roleIndex(role directory.Role) int {
	for i, r := range directory.Roles() {
		if r == role {
			return i
		}
	}
	return len(directory.Roles()) - 1
}
