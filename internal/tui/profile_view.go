package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/teamdeck/teamdeck/internal/directory"
	"github.com/teamdeck/teamdeck/internal/identity"
)

// profileLoadedMsg carries the async profile fetch outcome.
type profileLoadedMsg struct {
	profile identity.Profile
	err     error
}

// loadProfileCmd fetches the signed-in user's profile.
func loadProfileCmd(ctx context.Context, client *identity.Client, token string) tea.Cmd {
	return func() tea.Msg {
		profile, err := client.GetProfile(ctx, token)
		return profileLoadedMsg{profile: profile, err: err}
	}
}

// ProfileView shows the signed-in user's account details.
type ProfileView struct {
	styles  Styles
	profile identity.Profile
	loaded  bool
	errText string
}

// NewProfileView creates an empty profile view. The dashboard fills
// it once the profile fetch completes.
func NewProfileView(styles Styles) ProfileView {
	return ProfileView{styles: styles}
}

// Update absorbs the profile fetch outcome.
func (v ProfileView) Update(msg tea.Msg) ProfileView {
	if loaded, ok := msg.(profileLoadedMsg); ok {
		if loaded.err != nil {
			v.errText = loaded.err.Error()
			return v
		}
		v.profile = loaded.profile
		v.loaded = true
		v.errText = ""
	}
	return v
}

// View renders the profile card.
func (v ProfileView) View() string {
	if v.errText != "" {
		return v.styles.Error.Render("Could not load profile: " + v.errText)
	}
	if !v.loaded {
		return v.styles.Muted.Render("Loading profile…")
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%-12s %s\n", "Name", v.profile.Name))
	b.WriteString(fmt.Sprintf("%-12s %s\n", "Email", v.profile.Email))
	b.WriteString(fmt.Sprintf("%-12s %s\n", "Role", string(directory.NormalizeRole(v.profile.Role))))
	b.WriteString(fmt.Sprintf("%-12s %s\n", "User ID", v.profile.UserID))
	if v.profile.CreatedAt != "" {
		b.WriteString(fmt.Sprintf("%-12s %s\n", "Joined", v.profile.CreatedAt))
	}
	return v.styles.Border.Render(b.String())
}
