package testutil

import (
	"time"

	"github.com/schoolier/backend/core"
)

// NopLogger discards everything; handed to components under test.
type NopLogger struct{}

var _ core.Logger = (*NopLogger)(nil)

func (NopLogger) Enable(bool)                  {}
func (NopLogger) Debug(string, ...interface{}) {}
func (NopLogger) Info(string, ...interface{})  {}
func (NopLogger) Warn(string, ...interface{})  {}
func (NopLogger) Error(string, ...interface{}) {}
func (NopLogger) Fatal(string, ...interface{}) {}

// NewConfig installs a deterministic test configuration with tight bounds
// so timeout paths run in milliseconds.
func NewConfig() *core.Config {
	core.Conf = &core.Config{
		AppName:         "Schoolier",
		Debug:           true,
		TestMode:        true,
		Env:             "TEST",
		Build:           "test",
		WorkDir:         core.Getwd(),
		SecretKey:       []byte("secret"),
		FrontendBaseURL: "http://localhost:3000",
		Server: core.ServerConfig{
			Host:                      "localhost:8000",
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
		Auth: core.AuthConfig{
			SignInTimeout:  200 * time.Millisecond,
			SignOutTimeout: 100 * time.Millisecond,
			ProfileTimeout: 50 * time.Millisecond,
			TeardownDelay:  20 * time.Millisecond,
			DemoDomain:     "schoolier.com",
		},
		PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
	}
	return core.Conf
}
