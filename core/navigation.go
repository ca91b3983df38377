package core

// LoginPath is where the session interceptor sends unauthenticated callers.
const LoginPath = "/login"

type NoticeLevel int

const (
	NoticeInfo NoticeLevel = iota
	NoticeSuccess
	NoticeWarning
	NoticeError
)

type (
	// Navigator owns the current location of the UI.
	Navigator interface {
		Location() string
		Redirect(path string)
	}

	// Notifier surfaces user-facing messages (toasts, banners, console lines...).
	Notifier interface {
		Notify(level NoticeLevel, msg string)
	}
)
