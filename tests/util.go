package testutil

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/menamiji/info-class/core"
	"github.com/menamiji/info-class/core/auth"
)

// NewConfig returns a self-contained configuration for tests; it never reads
// the environment.
func NewConfig() *core.Config {
	return &core.Config{
		Debug:              false,
		TestMode:           true,
		Env:                "TEST",
		Build:              "test",
		AppName:            "Info Class",
		SecretKey:          "secret",
		FrontendBaseURL:    "http://localhost:3000",
		CORSAllowedOrigins: []string{"*"},
		Server: core.ServerConfig{
			Host:            "localhost",
			APIHost:         ":8000",
			DebugHost:       ":4000",
			ShutdownTimeout: time.Second,
		},
		Auth: core.AuthConfig{
			TokenIssuer:          "info-class-api",
			TokenExpirationDelta: 24 * time.Hour,
			AllowedEmailDomain:   "@school.edu",
			AdminEmails:          []string{"admin@school.edu"},
		},
		Firebase: core.FirebaseConfig{ProjectID: "test-project"},
	}
}

type logger struct{}

// NewLogger returns a logger that discards everything. API tests assert on
// response bodies, not on log output.
func NewLogger() core.Logger { return logger{} }

func (logger) Debug(string, ...interface{}) {}
func (logger) Info(string, ...interface{})  {}
func (logger) Warn(string, ...interface{})  {}
func (logger) Error(string, ...interface{}) {}
func (logger) Fatal(string, ...interface{}) {}
func (logger) Enable(bool)                  {}

// Verifier resolves assertions from a fixed table, keyed by the raw
// assertion string.
type Verifier struct {
	Identities map[string]auth.Identity
	Err        error
}

var _ auth.IdentityVerifier = (*Verifier)(nil)

func (v *Verifier) VerifyIDToken(_ context.Context, rawToken string) (auth.Identity, error) {
	if v.Err != nil {
		return auth.Identity{}, v.Err
	}
	ident, ok := v.Identities[rawToken]
	if !ok {
		return auth.Identity{}, errors.Errorf("unknown assertion %q", rawToken)
	}
	return ident, nil
}

func (v *Verifier) Provider() string { return "stub" }

// Identity returns a verified identity fixture.
func Identity(uid, email, name string) auth.Identity {
	return auth.Identity{
		UID:           uid,
		Email:         email,
		Name:          name,
		EmailVerified: true,
	}
}
