package session_test

import (
	"context"

	session "github.com/goliatone/go-session"
	"github.com/stretchr/testify/mock"
)

// MockIdentityProvider implements session.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func userReturn(args mock.Arguments) (*session.User, error) {
	user, _ := args.Get(0).(*session.User)
	return user, args.Error(1)
}

func (m *MockIdentityProvider) InitialState(ctx context.Context) (*session.User, error) {
	return userReturn(m.Called(ctx))
}

func (m *MockIdentityProvider) SignInWithGoogle(ctx context.Context) (*session.User, error) {
	return userReturn(m.Called(ctx))
}

func (m *MockIdentityProvider) SignInWithApple(ctx context.Context) (*session.User, error) {
	return userReturn(m.Called(ctx))
}

func (m *MockIdentityProvider) SignInWithEmailPassword(ctx context.Context, email, password string) (*session.User, error) {
	return userReturn(m.Called(ctx, email, password))
}

func (m *MockIdentityProvider) CreateAccount(ctx context.Context, email, password, displayName string) (*session.User, error) {
	return userReturn(m.Called(ctx, email, password, displayName))
}

func (m *MockIdentityProvider) SendPasswordReset(ctx context.Context, email string) error {
	return m.Called(ctx, email).Error(0)
}

func (m *MockIdentityProvider) SignOut(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockIdentityProvider) SignInAnonymously(ctx context.Context) (*session.User, error) {
	return userReturn(m.Called(ctx))
}

// stubProvider is a function-backed provider for tests that need blocking or
// other behavior awkward to express with testify mocks. Unset fields fail
// with ErrProviderNotConfigured.
type stubProvider struct {
	initialState  func(ctx context.Context) (*session.User, error)
	emailPassword func(ctx context.Context, email, password string) (*session.User, error)
	createAccount func(ctx context.Context, email, password, displayName string) (*session.User, error)
	passwordReset func(ctx context.Context, email string) error
	signOut       func(ctx context.Context) error
	anonymous     func(ctx context.Context) (*session.User, error)
}

func (s *stubProvider) InitialState(ctx context.Context) (*session.User, error) {
	if s.initialState == nil {
		return nil, nil
	}
	return s.initialState(ctx)
}

func (s *stubProvider) SignInWithGoogle(ctx context.Context) (*session.User, error) {
	return nil, session.ErrProviderNotConfigured
}

func (s *stubProvider) SignInWithApple(ctx context.Context) (*session.User, error) {
	return nil, session.ErrProviderNotConfigured
}

func (s *stubProvider) SignInWithEmailPassword(ctx context.Context, email, password string) (*session.User, error) {
	if s.emailPassword == nil {
		return nil, session.ErrProviderNotConfigured
	}
	return s.emailPassword(ctx, email, password)
}

func (s *stubProvider) CreateAccount(ctx context.Context, email, password, displayName string) (*session.User, error) {
	if s.createAccount == nil {
		return nil, session.ErrProviderNotConfigured
	}
	return s.createAccount(ctx, email, password, displayName)
}

func (s *stubProvider) SendPasswordReset(ctx context.Context, email string) error {
	if s.passwordReset == nil {
		return session.ErrProviderNotConfigured
	}
	return s.passwordReset(ctx, email)
}

func (s *stubProvider) SignOut(ctx context.Context) error {
	if s.signOut == nil {
		return nil
	}
	return s.signOut(ctx)
}

func (s *stubProvider) SignInAnonymously(ctx context.Context) (*session.User, error) {
	if s.anonymous == nil {
		return nil, session.ErrProviderNotConfigured
	}
	return s.anonymous(ctx)
}

func newTestTranslator() *session.Translator {
	t, err := session.NewTranslator(map[string]string{
		session.DefaultMessageKey:   "Something went wrong.",
		"auth/wrong-password":       "Incorrect password.",
		"auth/email-already-in-use": "That email is already registered.",
		"auth/weak-password":        "Please pick a stronger password.",
	})
	if err != nil {
		panic(err)
	}
	return t
}
