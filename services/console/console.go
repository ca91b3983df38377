package consolesvc

import (
	"io"
	"os"
	"sync"

	"github.com/pterm/pterm"

	"github.com/givehub/console/core"
)

// SessionExpiredText is printed when the API rejects the stored session.
const SessionExpiredText = "Your session has expired. Run `givehub login` to sign in again."

type (
	// SessionStore is the persisted session the navigator drops on a redirect to the login screen.
	SessionStore interface {
		Clear() error
	}

	// Navigator tracks the screen the console is showing.
	Navigator struct {
		mu       sync.Mutex
		location string
		store    SessionStore
		out      io.Writer
	}

	Notifier struct {
		out           io.Writer
		disableOutput bool
	}
)

var (
	_ core.Navigator = (*Navigator)(nil)
	_ core.Notifier  = (*Notifier)(nil)
)

// NewNavigator starts at location. store may be nil; out defaults to stderr.
func NewNavigator(location string, store SessionStore, out io.Writer) *Navigator {
	if out == nil {
		out = os.Stderr
	}
	return &Navigator{location: location, store: store, out: out}
}

func (n *Navigator) Location() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.location
}

func (n *Navigator) Redirect(path string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.location = path
	if path != core.LoginPath {
		return
	}
	pterm.Warning.WithWriter(n.out).Println(SessionExpiredText)
	if n.store != nil {
		if err := n.store.Clear(); err != nil {
			pterm.Error.WithWriter(n.out).Println(err.Error())
		}
	}
}

// NewNotifier prints notices to out (stderr when nil). disableOutput silences it (JSON output).
func NewNotifier(out io.Writer, disableOutput bool) *Notifier {
	if out == nil {
		out = os.Stderr
	}
	return &Notifier{out: out, disableOutput: disableOutput}
}

func (n *Notifier) Notify(level core.NoticeLevel, msg string) {
	if n.disableOutput {
		return
	}
	printer := pterm.Info
	switch level {
	case core.NoticeSuccess:
		printer = pterm.Success
	case core.NoticeWarning:
		printer = pterm.Warning
	case core.NoticeError:
		printer = pterm.Error
	}
	printer.WithWriter(n.out).Println(msg)
}
