package ports

// Visibility reports whether the browser tab driving a session is visible.
type Visibility interface {
	Visible() bool
}

// Navigator moves the browser to another route.
type Navigator interface {
	Navigate(route string)
}

type NotificationLevel string

const (
	NotifyInfo  NotificationLevel = "info"
	NotifyError NotificationLevel = "error"
)

// Notifier surfaces a transient message to the user.
type Notifier interface {
	Notify(level NotificationLevel, message string)
}
