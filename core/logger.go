package core

// Logger is any leveled logger that can report to an error tracker.
// Implementations may inspect args for well-known types (e.g. the
// authenticated user) and attach them to reports.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})

	// Enable turns reporting to the external tracker on or off;
	// the standard output stream is always written.
	Enable(enabled bool)
}
