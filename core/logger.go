package core

// Logger is any leveled logger the app can report to.
// Error and Fatal accept extra args (wrapped errors, the acting user) for the backend to attach.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
