package core

// Logger is any leveled logging service.
//
// args may carry anything worth reporting alongside the message; backends
// may give special treatment to some types (eg. an identity.Identity is
// attached as the acting person by the Rollbar backend).
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
