package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// NoticeKind distinguishes success from failure banners.
type NoticeKind int

const (
	// NoticeSuccess renders in the success style.
	NoticeSuccess NoticeKind = iota
	// NoticeError renders in the error style.
	NoticeError
)

// DefaultNoticeTTL is how long a banner stays visible.
const DefaultNoticeTTL = 3 * time.Second

// noticeExpiredMsg dismisses the banner shown with the matching
// sequence number. A stale expiry (an earlier banner's timer) is
// ignored so a new notice replaces rather than truncates.
type noticeExpiredMsg struct {
	seq int
}

// Notice is a transient one-line banner. Showing a new notice replaces
// the visible one; banners never stack.
type Notice struct {
	text    string
	kind    NoticeKind
	seq     int
	visible bool
	ttl     time.Duration
}

// NewNotice creates a notice with the default auto-dismiss interval.
func NewNotice() Notice {
	return Notice{ttl: DefaultNoticeTTL}
}

// Show makes the notice visible and returns the command that will
// dismiss it after the TTL.
func (n *Notice) Show(text string, kind NoticeKind) tea.Cmd {
	n.seq++
	n.text = text
	n.kind = kind
	n.visible = true

	seq := n.seq
	return tea.Tick(n.ttl, func(time.Time) tea.Msg {
		return noticeExpiredMsg{seq: seq}
	})
}

// Update handles expiry messages. Other messages pass through
// untouched.
func (n *Notice) Update(msg tea.Msg) {
	if expired, ok := msg.(noticeExpiredMsg); ok && expired.seq == n.seq {
		n.visible = false
	}
}

// Visible reports whether the banner is currently shown.
func (n Notice) Visible() bool {
	return n.visible
}

// View renders the banner, or an empty string while hidden.
func (n Notice) View(styles Styles) string {
	if !n.visible {
		return ""
	}
	if n.kind == NoticeError {
		return styles.BannerErr.Render(n.text)
	}
	return styles.BannerOK.Render(n.text)
}
