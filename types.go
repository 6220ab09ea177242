package session

import (
	"context"
	"fmt"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// LoggerProvider hands out named loggers so hosts can route our output
// through their own logging setup.
type LoggerProvider interface {
	GetLogger(name string) Logger
}

// ResolveLogger picks the effective logger for a component: an explicit
// logger wins, then the provider, then the stdout default.
func ResolveLogger(name string, provider LoggerProvider, logger Logger) (LoggerProvider, Logger) {
	if logger != nil {
		return provider, logger
	}
	if provider != nil {
		if l := provider.GetLogger(name); l != nil {
			return provider, l
		}
	}
	return provider, defLogger{}
}

// IdentityProvider is the contract an external identity SDK adapter must
// satisfy. Every call returns either the resulting user record or a failure;
// failures should carry a provider code (see ProviderError) so the container
// can translate them into display copy.
type IdentityProvider interface {
	// InitialState reports the user the provider already considers signed
	// in, or (nil, nil) when there is none. Containers call it once on
	// Start to leave the uninitialized phase.
	InitialState(ctx context.Context) (*User, error)

	SignInWithGoogle(ctx context.Context) (*User, error)
	SignInWithApple(ctx context.Context) (*User, error)
	SignInWithEmailPassword(ctx context.Context, email, password string) (*User, error)
	CreateAccount(ctx context.Context, email, password, displayName string) (*User, error)
	SendPasswordReset(ctx context.Context, email string) error
	SignOut(ctx context.Context) error
	SignInAnonymously(ctx context.Context) (*User, error)
}

// SignOutFunc is invoked exactly once after a confirmed sign-out.
type SignOutFunc func()

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] SESSION "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] SESSION "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] SESSION "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] SESSION "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
