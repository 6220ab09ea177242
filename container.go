package session

import (
	"context"
	"sync"
	"time"
)

// Snapshot is the read-only view of container state delivered to observers.
type Snapshot struct {
	Phase       Phase
	CurrentUser *User
	IsLoading   bool
	LastError   string
}

// IsAuthenticated reports whether a named, non-anonymous user is signed in.
func (s Snapshot) IsAuthenticated() bool {
	return s.CurrentUser.Authenticated()
}

// Observer receives a snapshot every time container state changes.
type Observer func(Snapshot)

// Container is the single source of truth for "who is signed in" plus the
// in-flight/error status of auth operations. State is owned exclusively by
// the container: views observe snapshots and invoke operations, never
// mutating fields directly.
//
// Overlapping operations are last-writer-wins by default, matching the UI
// event-loop model this container was designed for. WithSingleFlight opts
// into rejecting a new operation while one is awaiting its provider call.
type Container struct {
	provider       IdentityProvider
	translator     *Translator
	logger         Logger
	loggerProvider LoggerProvider
	sink           ActivitySink
	now            func() time.Time
	singleFlight   bool
	onSignOut      SignOutFunc
	phaseHooks     []PhaseHook

	mu        sync.Mutex
	phase     Phase
	current   *User
	loading   bool
	lastErr   string
	inFlight  bool
	observers map[int]Observer
	nextID    int
}

// Option customizes container construction.
type Option func(*Container)

// WithLogger overrides the container logger.
func WithLogger(logger Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithLoggerProvider routes container logging through a host logger factory.
func WithLoggerProvider(provider LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithActivitySink configures an ActivitySink for tracking events.
func WithActivitySink(sink ActivitySink) Option {
	return func(c *Container) {
		c.sink = NormalizeActivitySink(sink)
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) Option {
	return func(c *Container) {
		if clock != nil {
			c.now = clock
		}
	}
}

// WithSingleFlight rejects a new operation while one is in flight instead
// of letting the latest result win.
func WithSingleFlight() Option {
	return func(c *Container) {
		c.singleFlight = true
	}
}

// WithSignOutCallback registers a callback fired once per confirmed sign-out.
func WithSignOutCallback(fn SignOutFunc) Option {
	return func(c *Container) {
		c.onSignOut = fn
	}
}

// WithPhaseHook observes phase changes after they are applied.
func WithPhaseHook(hook PhaseHook) Option {
	return func(c *Container) {
		if hook != nil {
			c.phaseHooks = append(c.phaseHooks, hook)
		}
	}
}

// New builds a Container around its injected dependencies. The translator is
// mandatory; a missing one is surfaced here as ErrNotInitialized rather than
// at first use. The provider may be nil, in which case the container starts
// signed out and every delegating operation fails with
// ErrProviderNotConfigured.
func New(provider IdentityProvider, translator *Translator, opts ...Option) (*Container, error) {
	if translator == nil {
		return nil, ErrNotInitialized.Clone().WithMetadata(map[string]any{
			"dependency": "translator",
		})
	}

	c := &Container{
		provider:   provider,
		translator: translator,
		sink:       noopActivitySink{},
		now:        time.Now,
		phase:      PhaseUninitialized,
		loading:    true,
		observers:  map[int]Observer{},
	}

	if provider == nil {
		c.phase = PhaseSignedOut
		c.loading = false
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	c.loggerProvider, c.logger = ResolveLogger("session.container", c.loggerProvider, c.logger)

	return c, nil
}

// Start resolves the provider's initial auth state, moving the container out
// of the uninitialized phase. Call it once after construction; with no
// provider configured it is a no-op.
func (c *Container) Start(ctx context.Context) {
	if c.provider == nil {
		return
	}

	user, err := c.provider.InitialState(ctx)

	c.mu.Lock()
	if err != nil {
		c.lastErr = c.translator.TranslateError(err)
		c.logger.Error("initial auth state failed: %v", err)
		user = nil
	}
	c.current = user.Clone()
	c.loading = false
	from := c.setPhaseLocked(restingPhaseFor(user))
	obs, snap := c.pendingLocked()
	c.mu.Unlock()

	c.afterPhaseChange(ctx, from, snap.Phase, snap)
	c.deliver(obs, snap)
}

// ApplyExternalState ingests a state change pushed by the provider's own
// auth-state subscription (token refresh, out-of-band revocation, ...).
func (c *Container) ApplyExternalState(user *User) {
	c.mu.Lock()
	c.current = user.Clone()
	c.loading = false
	from := c.setPhaseLocked(restingPhaseFor(user))
	obs, snap := c.pendingLocked()
	c.mu.Unlock()

	c.afterPhaseChange(context.Background(), from, snap.Phase, snap)
	c.deliver(obs, snap)
}

// Subscribe registers an observer and immediately delivers the current
// snapshot. The returned function unsubscribes.
func (c *Container) Subscribe(obs Observer) func() {
	if obs == nil {
		return func() {}
	}

	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.observers[id] = obs
	snap := c.snapshotLocked()
	c.mu.Unlock()

	obs(snap)

	return func() {
		c.mu.Lock()
		delete(c.observers, id)
		c.mu.Unlock()
	}
}

// Snapshot returns a copy of the current state.
func (c *Container) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// CurrentUser returns a copy of the signed-in user record, or nil.
func (c *Container) CurrentUser() *User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.Clone()
}

// IsAuthenticated reports whether a named, non-anonymous user is signed in.
func (c *Container) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current.Authenticated()
}

// IsLoading reports whether an operation (or initial state resolution) is in
// flight.
func (c *Container) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// LastError returns the current user-facing error message, or "".
func (c *Container) LastError() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Phase returns the container's current lifecycle phase.
func (c *Container) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// ClearError resets LastError. Idempotent, no side effects.
func (c *Container) ClearError() {
	c.mu.Lock()
	c.lastErr = ""
	obs, snap := c.pendingLocked()
	c.mu.Unlock()

	c.deliver(obs, snap)
}

// SignInWithProvider runs the federated flow for p. An unwired provider
// fails with ErrProviderNotConfigured.
func (c *Container) SignInWithProvider(ctx context.Context, p Provider) error {
	flow, ok := providerFlows[p]
	if !ok {
		err := ErrUnknownProvider.Clone().WithMetadata(map[string]any{
			"provider": p.String(),
		})
		c.recordFailure(ctx, "sign_in_with_provider", ActivityEventSignInFailure, err)
		return err
	}

	return c.runAuth(ctx, "sign_in_with_"+p.String(), ActivityEventSignInSuccess, ActivityEventSignInFailure,
		func(ctx context.Context) (*User, error) {
			return flow(ctx, c.provider)
		})
}

// SignInWithEmail delegates email/password sign-in to the provider. Input is
// passed through unvalidated; forms validate pre-submit (see forms.go).
func (c *Container) SignInWithEmail(ctx context.Context, email, password string) error {
	return c.runAuth(ctx, "sign_in_with_email", ActivityEventSignInSuccess, ActivityEventSignInFailure,
		func(ctx context.Context) (*User, error) {
			return c.provider.SignInWithEmailPassword(ctx, email, password)
		})
}

// SignUpWithEmail creates an account and signs the new user in. Provider
// codes such as weak-password or email-in-use surface through LastError.
func (c *Container) SignUpWithEmail(ctx context.Context, email, password, displayName string) error {
	return c.runAuth(ctx, "sign_up_with_email", ActivityEventSignUpSuccess, ActivityEventSignUpFailure,
		func(ctx context.Context) (*User, error) {
			return c.provider.CreateAccount(ctx, email, password, displayName)
		})
}

// SignInAnonymously asks the provider for an anonymous session.
func (c *Container) SignInAnonymously(ctx context.Context) error {
	return c.runAuth(ctx, "sign_in_anonymously", ActivityEventSignInSuccess, ActivityEventSignInFailure,
		func(ctx context.Context) (*User, error) {
			user, err := c.provider.SignInAnonymously(ctx)
			if user != nil {
				user.IsAnonymous = true
			}
			return user, err
		})
}

// ResetPassword triggers an out-of-band reset email. Success never changes
// CurrentUser.
func (c *Container) ResetPassword(ctx context.Context, email string) error {
	if c.provider == nil {
		err := c.notConfigured("reset_password")
		c.recordFailure(ctx, "reset_password", ActivityEventPasswordResetFailure, err)
		return err
	}

	prior, err := c.begin()
	if err != nil {
		return err
	}

	if err := c.provider.SendPasswordReset(ctx, email); err != nil {
		c.finishFailure(ctx, prior, "reset_password", ActivityEventPasswordResetFailure, err)
		return err
	}

	c.mu.Lock()
	c.loading = false
	c.inFlight = false
	c.lastErr = ""
	from := c.setPhaseLocked(prior)
	obs, snap := c.pendingLocked()
	c.mu.Unlock()

	c.afterPhaseChange(ctx, from, snap.Phase, snap)
	c.emit(ctx, ActivityEvent{
		EventType: ActivityEventPasswordResetSent,
		Action:    "reset_password",
		UserID:    userID(snap.CurrentUser),
	})
	c.deliver(obs, snap)
	return nil
}

// SignOut clears CurrentUser only after the provider confirms. On success
// the registered sign-out callback fires exactly once; on failure the
// translated error lands in LastError and the user stays signed in.
func (c *Container) SignOut(ctx context.Context) error {
	if c.provider == nil {
		err := c.notConfigured("sign_out")
		c.recordFailure(ctx, "sign_out", ActivityEventSignOutFailure, err)
		return err
	}

	prior, err := c.begin()
	if err != nil {
		return err
	}

	if err := c.provider.SignOut(ctx); err != nil {
		c.finishFailure(ctx, prior, "sign_out", ActivityEventSignOutFailure, err)
		return err
	}

	c.mu.Lock()
	signedOutID := userID(c.current)
	c.current = nil
	c.loading = false
	c.inFlight = false
	c.lastErr = ""
	from := c.setPhaseLocked(PhaseSignedOut)
	obs, snap := c.pendingLocked()
	c.mu.Unlock()

	c.afterPhaseChange(ctx, from, snap.Phase, snap)
	c.emit(ctx, ActivityEvent{
		EventType: ActivityEventSignOut,
		Action:    "sign_out",
		UserID:    signedOutID,
	})
	c.deliver(obs, snap)

	if c.onSignOut != nil {
		c.onSignOut()
	}
	return nil
}

// runAuth is the shared operation template: flag in-progress, suspend at the
// single provider call, then either install the user or fold the failure
// into LastError. The container never re-raises provider errors to
// observers; the returned error is for callers that want it.
func (c *Container) runAuth(ctx context.Context, op string, success, failure ActivityEventType, call func(ctx context.Context) (*User, error)) error {
	if c.provider == nil {
		err := c.notConfigured(op)
		c.recordFailure(ctx, op, failure, err)
		return err
	}

	prior, err := c.begin()
	if err != nil {
		return err
	}

	user, err := call(ctx)
	if err != nil {
		c.finishFailure(ctx, prior, op, failure, err)
		return err
	}

	c.mu.Lock()
	c.current = user.Clone()
	c.loading = false
	c.inFlight = false
	c.lastErr = ""
	from := c.setPhaseLocked(restingPhaseFor(user))
	obs, snap := c.pendingLocked()
	c.mu.Unlock()

	c.afterPhaseChange(ctx, from, snap.Phase, snap)
	c.emit(ctx, ActivityEvent{
		EventType: success,
		Action:    op,
		UserID:    userID(user),
	})
	c.deliver(obs, snap)
	return nil
}

// begin flags the operation in flight and remembers the phase to restore on
// failure. A single-flight rejection leaves all state, LastError included,
// untouched.
func (c *Container) begin() (Phase, error) {
	c.mu.Lock()
	if c.singleFlight && c.inFlight {
		c.mu.Unlock()
		return "", ErrOperationInFlight.Clone()
	}

	prior := c.phase
	c.inFlight = true
	c.loading = true
	from := c.setPhaseLocked(PhaseAuthInProgress)
	obs, snap := c.pendingLocked()
	c.mu.Unlock()

	c.afterPhaseChange(context.Background(), from, snap.Phase, snap)
	c.deliver(obs, snap)
	return prior, nil
}

func (c *Container) finishFailure(ctx context.Context, prior Phase, op string, event ActivityEventType, err error) {
	c.mu.Lock()
	c.lastErr = c.translator.TranslateError(err)
	c.loading = false
	c.inFlight = false
	from := c.setPhaseLocked(prior)
	obs, snap := c.pendingLocked()
	c.mu.Unlock()

	c.logger.Error("%s failed: %v", op, err)
	c.afterPhaseChange(ctx, from, snap.Phase, snap)
	c.emitFailure(ctx, op, event, err)
	c.deliver(obs, snap)
}

// recordFailure handles failures that never contact the provider: the only
// state mutation is LastError.
func (c *Container) recordFailure(ctx context.Context, op string, event ActivityEventType, err error) {
	c.mu.Lock()
	c.lastErr = c.translator.TranslateError(err)
	obs, snap := c.pendingLocked()
	c.mu.Unlock()

	c.logger.Error("%s failed: %v", op, err)
	c.emitFailure(ctx, op, event, err)
	c.deliver(obs, snap)
}

func (c *Container) emitFailure(ctx context.Context, op string, event ActivityEventType, err error) {
	meta := map[string]any{"error": err.Error()}
	if code := ProviderCode(err); code != "" {
		meta["code"] = code
	}
	c.emit(ctx, ActivityEvent{
		EventType: event,
		Action:    op,
		Metadata:  meta,
	})
}

func (c *Container) emit(ctx context.Context, event ActivityEvent) {
	event.OccurredAt = c.now()
	if err := c.sink.Record(ctx, event); err != nil {
		c.logger.Error("activity sink record failed for %s: %v", event.EventType, err)
	}
}

func (c *Container) afterPhaseChange(ctx context.Context, from, to Phase, snap Snapshot) {
	if from == to {
		return
	}
	for _, hook := range c.phaseHooks {
		hook(from, to)
	}
	c.emit(ctx, ActivityEvent{
		EventType: ActivityEventPhaseChanged,
		FromPhase: from,
		ToPhase:   to,
		UserID:    userID(snap.CurrentUser),
	})
}

func (c *Container) notConfigured(op string) error {
	return ErrProviderNotConfigured.Clone().WithMetadata(map[string]any{
		"operation": op,
	})
}

// setPhaseLocked applies the transition and returns the previous phase. An
// off-table transition is a container bug: it is logged and skipped so state
// never turns inconsistent mid-operation.
func (c *Container) setPhaseLocked(to Phase) Phase {
	from := c.phase
	if !CanTransition(from, to) {
		c.logger.Error("invalid phase transition %s -> %s", from, to)
		return from
	}
	c.phase = to
	return from
}

func (c *Container) snapshotLocked() Snapshot {
	return Snapshot{
		Phase:       c.phase,
		CurrentUser: c.current.Clone(),
		IsLoading:   c.loading,
		LastError:   c.lastErr,
	}
}

func (c *Container) pendingLocked() ([]Observer, Snapshot) {
	obs := make([]Observer, 0, len(c.observers))
	for _, o := range c.observers {
		obs = append(obs, o)
	}
	return obs, c.snapshotLocked()
}

func (c *Container) deliver(obs []Observer, snap Snapshot) {
	for _, o := range obs {
		o(snap)
	}
}

func userID(u *User) string {
	if u == nil {
		return ""
	}
	return u.ID
}
