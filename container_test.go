package session_test

import (
	"context"
	"sync"
	"testing"

	session "github.com/goliatone/go-session"
	"github.com/goliatone/go-session/trackingmap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresTranslator(t *testing.T) {
	container, err := session.New(nil, nil)
	assert.Nil(t, container)
	assert.ErrorIs(t, err, session.ErrNotInitialized)
}

func TestNoProviderStartsSignedOut(t *testing.T) {
	container, err := session.New(nil, newTestTranslator())
	require.NoError(t, err)

	snap := container.Snapshot()
	assert.Equal(t, session.PhaseSignedOut, snap.Phase)
	assert.False(t, snap.IsLoading)
	assert.Nil(t, snap.CurrentUser)

	err = container.SignInWithEmail(context.Background(), "a@b.com", "secret1")
	assert.ErrorIs(t, err, session.ErrProviderNotConfigured)
	assert.Equal(t, "Something went wrong.", container.LastError())
	assert.Nil(t, container.CurrentUser())
}

func TestStartResolvesInitialState(t *testing.T) {
	provider := new(MockIdentityProvider)
	provider.On("InitialState", mock.Anything).
		Return(&session.User{ID: "u-1", Email: "a@b.com"}, nil)

	container, err := session.New(provider, newTestTranslator())
	require.NoError(t, err)
	assert.Equal(t, session.PhaseUninitialized, container.Phase())
	assert.True(t, container.IsLoading())

	container.Start(context.Background())

	assert.Equal(t, session.PhaseSignedIn, container.Phase())
	assert.False(t, container.IsLoading())
	assert.True(t, container.IsAuthenticated())
	provider.AssertExpectations(t)
}

func TestStartWithNoSignedInUser(t *testing.T) {
	provider := new(MockIdentityProvider)
	provider.On("InitialState", mock.Anything).Return(nil, nil)

	container, err := session.New(provider, newTestTranslator())
	require.NoError(t, err)

	container.Start(context.Background())

	assert.Equal(t, session.PhaseSignedOut, container.Phase())
	assert.False(t, container.IsAuthenticated())
}

func TestSignInWithEmailSuccess(t *testing.T) {
	provider := new(MockIdentityProvider)
	provider.On("InitialState", mock.Anything).Return(nil, nil)
	provider.On("SignInWithEmailPassword", mock.Anything, "a@b.com", "secret1").
		Return(&session.User{ID: "u-1", Email: "a@b.com"}, nil)

	container, err := session.New(provider, newTestTranslator())
	require.NoError(t, err)
	container.Start(context.Background())

	err = container.SignInWithEmail(context.Background(), "a@b.com", "secret1")
	require.NoError(t, err)

	user := container.CurrentUser()
	require.NotNil(t, user)
	assert.Equal(t, "a@b.com", user.Email)
	assert.True(t, container.IsAuthenticated())
	assert.Empty(t, container.LastError())
	assert.Equal(t, session.PhaseSignedIn, container.Phase())
	provider.AssertExpectations(t)
}

func TestSignInWithEmailWrongPassword(t *testing.T) {
	provider := new(MockIdentityProvider)
	provider.On("InitialState", mock.Anything).Return(nil, nil)
	provider.On("SignInWithEmailPassword", mock.Anything, "a@b.com", "nope").
		Return(nil, &session.ProviderError{
			Provider:  "email",
			Operation: "sign_in",
			Code:      "auth/wrong-password",
			Message:   "wrong password",
		})

	container, err := session.New(provider, newTestTranslator())
	require.NoError(t, err)
	container.Start(context.Background())

	err = container.SignInWithEmail(context.Background(), "a@b.com", "nope")
	require.Error(t, err)

	assert.Equal(t, "Incorrect password.", container.LastError())
	assert.Nil(t, container.CurrentUser())
	assert.False(t, container.IsAuthenticated())
	// failed operation falls back to the phase it interrupted
	assert.Equal(t, session.PhaseSignedOut, container.Phase())
}

func TestSignUpWithEmailSuccess(t *testing.T) {
	provider := new(MockIdentityProvider)
	provider.On("InitialState", mock.Anything).Return(nil, nil)
	provider.On("CreateAccount", mock.Anything, "new@b.com", "secret1", "Ada").
		Return(&session.User{ID: "u-2", Email: "new@b.com", DisplayName: "Ada"}, nil)

	container, err := session.New(provider, newTestTranslator())
	require.NoError(t, err)
	container.Start(context.Background())

	require.NoError(t, container.SignUpWithEmail(context.Background(), "new@b.com", "secret1", "Ada"))

	snap := container.Snapshot()
	assert.Equal(t, session.PhaseSignedIn, snap.Phase)
	assert.Equal(t, "new@b.com", snap.CurrentUser.Email)
	assert.Empty(t, snap.LastError)
}

func TestSignUpWithEmailInUse(t *testing.T) {
	provider := new(MockIdentityProvider)
	provider.On("InitialState", mock.Anything).Return(nil, nil)
	provider.On("CreateAccount", mock.Anything, "a@b.com", "secret1", "").
		Return(nil, &session.ProviderError{
			Provider:  "test",
			Operation: "create_account",
			Code:      "auth/email-already-in-use",
		})

	container, err := session.New(provider, newTestTranslator())
	require.NoError(t, err)
	container.Start(context.Background())

	err = container.SignUpWithEmail(context.Background(), "a@b.com", "secret1", "")
	require.Error(t, err)

	snap := container.Snapshot()
	assert.Nil(t, snap.CurrentUser)
	assert.Equal(t, "That email is already registered.", snap.LastError)
	assert.Equal(t, session.PhaseSignedOut, snap.Phase)
}

func TestClearErrorIdempotent(t *testing.T) {
	container, err := session.New(nil, newTestTranslator())
	require.NoError(t, err)

	_ = container.SignInWithEmail(context.Background(), "a@b.com", "secret1")
	require.NotEmpty(t, container.LastError())

	container.ClearError()
	assert.Empty(t, container.LastError())

	container.ClearError()
	assert.Empty(t, container.LastError())
}

func TestSignOutClearsIdentity(t *testing.T) {
	provider := new(MockIdentityProvider)
	provider.On("InitialState", mock.Anything).
		Return(&session.User{ID: "u-1", Email: "a@b.com"}, nil)
	provider.On("SignOut", mock.Anything).Return(nil)

	signOuts := 0
	container, err := session.New(provider, newTestTranslator(),
		session.WithSignOutCallback(func() { signOuts++ }),
	)
	require.NoError(t, err)
	container.Start(context.Background())
	require.NotNil(t, container.CurrentUser())

	err = container.SignOut(context.Background())
	require.NoError(t, err)

	assert.Nil(t, container.CurrentUser())
	assert.Equal(t, session.PhaseSignedOut, container.Phase())
	assert.Equal(t, 1, signOuts)
}

func TestSignOutConfirmThenClear(t *testing.T) {
	provider := new(MockIdentityProvider)
	provider.On("InitialState", mock.Anything).
		Return(&session.User{ID: "u-1", Email: "a@b.com"}, nil)
	provider.On("SignOut", mock.Anything).
		Return(&session.ProviderError{Operation: "sign_out", Code: "auth/network-request-failed"})

	signOuts := 0
	container, err := session.New(provider, newTestTranslator(),
		session.WithSignOutCallback(func() { signOuts++ }),
	)
	require.NoError(t, err)
	container.Start(context.Background())

	err = container.SignOut(context.Background())
	require.Error(t, err)

	// provider did not confirm: identity stays, the failure is visible
	assert.NotNil(t, container.CurrentUser())
	assert.Equal(t, "Something went wrong.", container.LastError())
	assert.Equal(t, session.PhaseSignedIn, container.Phase())
	assert.Zero(t, signOuts)
}

func TestAuthenticatedInvariant(t *testing.T) {
	provider := new(MockIdentityProvider)
	provider.On("InitialState", mock.Anything).Return(nil, nil)
	provider.On("SignInAnonymously", mock.Anything).
		Return(&session.User{ID: "anon-1"}, nil)
	provider.On("SignInWithEmailPassword", mock.Anything, "a@b.com", "secret1").
		Return(&session.User{ID: "u-1", Email: "a@b.com"}, nil)

	container, err := session.New(provider, newTestTranslator())
	require.NoError(t, err)
	container.Start(context.Background())

	assert.False(t, container.IsAuthenticated())

	require.NoError(t, container.SignInAnonymously(context.Background()))
	user := container.CurrentUser()
	require.NotNil(t, user)
	assert.True(t, user.IsAnonymous)
	assert.False(t, container.IsAuthenticated())
	assert.Equal(t, session.PhaseAnonymous, container.Phase())

	require.NoError(t, container.SignInWithEmail(context.Background(), "a@b.com", "secret1"))
	assert.True(t, container.IsAuthenticated())
}

func TestSignInWithUnknownProvider(t *testing.T) {
	provider := new(MockIdentityProvider)
	provider.On("InitialState", mock.Anything).Return(nil, nil)

	container, err := session.New(provider, newTestTranslator())
	require.NoError(t, err)
	container.Start(context.Background())

	err = container.SignInWithProvider(context.Background(), session.Provider("facebook"))
	assert.ErrorIs(t, err, session.ErrUnknownProvider)
	assert.Equal(t, "Something went wrong.", container.LastError())
	provider.AssertNotCalled(t, "SignInWithGoogle", mock.Anything)
	provider.AssertNotCalled(t, "SignInWithApple", mock.Anything)
}

func TestSignInWithProviderDispatch(t *testing.T) {
	provider := new(MockIdentityProvider)
	provider.On("InitialState", mock.Anything).Return(nil, nil)
	provider.On("SignInWithGoogle", mock.Anything).
		Return(&session.User{ID: "g-1", Email: "g@b.com", ProviderID: "google.com"}, nil)

	container, err := session.New(provider, newTestTranslator())
	require.NoError(t, err)
	container.Start(context.Background())

	require.NoError(t, container.SignInWithProvider(context.Background(), session.ProviderGoogle))
	user := container.CurrentUser()
	require.NotNil(t, user)
	assert.Equal(t, "google.com", user.ProviderID)
	provider.AssertExpectations(t)
}

func TestResetPasswordKeepsUser(t *testing.T) {
	provider := new(MockIdentityProvider)
	provider.On("InitialState", mock.Anything).
		Return(&session.User{ID: "u-1", Email: "a@b.com"}, nil)
	provider.On("SendPasswordReset", mock.Anything, "a@b.com").Return(nil)

	container, err := session.New(provider, newTestTranslator())
	require.NoError(t, err)
	container.Start(context.Background())

	require.NoError(t, container.ResetPassword(context.Background(), "a@b.com"))

	assert.NotNil(t, container.CurrentUser())
	assert.Equal(t, session.PhaseSignedIn, container.Phase())
	assert.Empty(t, container.LastError())
}

func TestSingleFlightRejectsOverlap(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})

	provider := &stubProvider{
		emailPassword: func(ctx context.Context, email, password string) (*session.User, error) {
			close(started)
			<-release
			return &session.User{ID: "u-1", Email: email}, nil
		},
	}

	container, err := session.New(provider, newTestTranslator(), session.WithSingleFlight())
	require.NoError(t, err)
	container.Start(context.Background())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = container.SignInWithEmail(context.Background(), "a@b.com", "secret1")
	}()

	<-started
	err = container.SignInWithEmail(context.Background(), "a@b.com", "secret1")
	assert.ErrorIs(t, err, session.ErrOperationInFlight)
	// a rejected call leaves LastError alone
	assert.Empty(t, container.LastError())

	close(release)
	wg.Wait()

	assert.True(t, container.IsAuthenticated())
}

func TestSubscribeDeliversSnapshots(t *testing.T) {
	provider := new(MockIdentityProvider)
	provider.On("InitialState", mock.Anything).Return(nil, nil)
	provider.On("SignInWithEmailPassword", mock.Anything, "a@b.com", "secret1").
		Return(&session.User{ID: "u-1", Email: "a@b.com"}, nil)

	container, err := session.New(provider, newTestTranslator())
	require.NoError(t, err)
	container.Start(context.Background())

	var phases []session.Phase
	unsubscribe := container.Subscribe(func(snap session.Snapshot) {
		phases = append(phases, snap.Phase)
	})

	require.NoError(t, container.SignInWithEmail(context.Background(), "a@b.com", "secret1"))

	require.NotEmpty(t, phases)
	assert.Equal(t, session.PhaseSignedOut, phases[0])
	assert.Contains(t, phases, session.PhaseAuthInProgress)
	assert.Equal(t, session.PhaseSignedIn, phases[len(phases)-1])

	seen := len(phases)
	unsubscribe()
	container.ClearError()
	assert.Len(t, phases, seen)
}

func TestApplyExternalState(t *testing.T) {
	provider := new(MockIdentityProvider)
	provider.On("InitialState", mock.Anything).Return(nil, nil)

	container, err := session.New(provider, newTestTranslator())
	require.NoError(t, err)
	container.Start(context.Background())

	container.ApplyExternalState(&session.User{ID: "u-1", Email: "a@b.com"})
	assert.True(t, container.IsAuthenticated())
	assert.Equal(t, session.PhaseSignedIn, container.Phase())

	container.ApplyExternalState(nil)
	assert.False(t, container.IsAuthenticated())
	assert.Equal(t, session.PhaseSignedOut, container.Phase())
}

func TestActivitySinkReceivesEvents(t *testing.T) {
	provider := new(MockIdentityProvider)
	provider.On("InitialState", mock.Anything).Return(nil, nil)
	provider.On("SignInWithEmailPassword", mock.Anything, "a@b.com", "secret1").
		Return(&session.User{ID: "u-1", Email: "a@b.com"}, nil)

	var events []session.ActivityEvent
	sink := session.ActivitySinkFunc(func(ctx context.Context, event session.ActivityEvent) error {
		events = append(events, event)
		return nil
	})

	container, err := session.New(provider, newTestTranslator(), session.WithActivitySink(sink))
	require.NoError(t, err)
	container.Start(context.Background())

	require.NoError(t, container.SignInWithEmail(context.Background(), "a@b.com", "secret1"))

	var signIn *session.ActivityEvent
	for i := range events {
		if events[i].EventType == session.ActivityEventSignInSuccess {
			signIn = &events[i]
		}
	}
	require.NotNil(t, signIn)
	assert.Equal(t, "u-1", signIn.UserID)
	assert.Equal(t, "sign_in_with_email", signIn.Action)
	assert.False(t, signIn.OccurredAt.IsZero())
}

func TestActivitySinkFeedsTrackingNormalizer(t *testing.T) {
	provider := new(MockIdentityProvider)
	provider.On("InitialState", mock.Anything).Return(nil, nil)
	provider.On("SignInWithEmailPassword", mock.Anything, "a@b.com", "secret1").
		Return(&session.User{ID: "u-1", Email: "a@b.com"}, nil)

	var records []trackingmap.Normalized
	sink := session.ActivitySinkFunc(func(ctx context.Context, event session.ActivityEvent) error {
		records = append(records, trackingmap.Normalize(event))
		return nil
	})

	container, err := session.New(provider, newTestTranslator(), session.WithActivitySink(sink))
	require.NoError(t, err)
	container.Start(context.Background())

	require.NoError(t, container.SignInWithEmail(context.Background(), "a@b.com", "secret1"))

	var signIn *trackingmap.Normalized
	for i := range records {
		if records[i].Verb == string(session.ActivityEventSignInSuccess) {
			signIn = &records[i]
		}
	}
	require.NotNil(t, signIn)
	assert.Equal(t, "u-1", signIn.ActorID)
	assert.Equal(t, "session", signIn.Channel)
	assert.Equal(t, "sign_in_with_email", signIn.Metadata[trackingmap.MetadataKeyAction])
}
