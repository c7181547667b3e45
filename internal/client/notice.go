package client

// Level is the severity of a user facing notice.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notice is a message shown to the user (a toast in the web form).
type Notice struct {
	Level   Level
	Title   string
	Message string
}

// Notifier displays notices.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// Navigator moves the user to another view.
type Navigator interface {
	Navigate(path string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

// ConfirmationPath is where a successful submission lands.
const ConfirmationPath = "/confirmation"

type discard struct{}

func (discard) Notify(Notice)   {}
func (discard) Navigate(string) {}
