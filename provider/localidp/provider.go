// Package localidp is a reference IdentityProvider backed by bun. It exists
// so the session container is usable end to end without a native auth SDK:
// email/password accounts, anonymous sessions, and reset-request bookkeeping
// live in two tables. Federated flows (google, apple) are intentionally not
// wired and fail with ErrProviderNotConfigured.
package localidp

import (
	"context"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	session "github.com/goliatone/go-session"
	"github.com/goliatone/hashid/pkg/hashid"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Provider error codes, matching the vocabulary mobile auth SDKs report so
// one translator mapping covers both.
const (
	CodeUserNotFound    = "auth/user-not-found"
	CodeWrongPassword   = "auth/wrong-password"
	CodeEmailInUse      = "auth/email-already-in-use"
	CodeWeakPassword    = "auth/weak-password"
	CodeTooManyRequests = "auth/too-many-requests"
	CodeInternal        = "auth/internal-error"
)

// MinPasswordLength is the weakest password CreateAccount accepts.
const MinPasswordLength = 6

// MaxLoginAttempts is the number of failed attempts before the cool down
// period applies.
var MaxLoginAttempts = 5

// CoolDownPeriod is how long an account stays locked after too many
// failed attempts.
var CoolDownPeriod = 24 * time.Hour

// Provider implements session.IdentityProvider on top of a bun database.
type Provider struct {
	db        *bun.DB
	accounts  Accounts
	resets    repository.Repository[*PasswordReset]
	logger    session.Logger
	lprovider session.LoggerProvider
	useHashID bool
	resetTTL  time.Duration
	hashCost  int
	now       func() time.Time
}

var _ session.IdentityProvider = (*Provider)(nil)

// Option customizes provider construction.
type Option func(*Provider)

// WithLogger overrides the provider logger.
func WithLogger(logger session.Logger) Option {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithLoggerProvider routes provider logging through a host logger factory.
func WithLoggerProvider(provider session.LoggerProvider) Option {
	return func(p *Provider) {
		p.lprovider = provider
	}
}

// WithHashIDs derives account ids deterministically from the email instead
// of generating random UUIDs.
func WithHashIDs() Option {
	return func(p *Provider) {
		p.useHashID = true
	}
}

// WithResetTTL sets how long password reset tokens stay valid.
func WithResetTTL(ttl time.Duration) Option {
	return func(p *Provider) {
		if ttl > 0 {
			p.resetTTL = ttl
		}
	}
}

// WithHashCost overrides the bcrypt cost (tests use the minimum).
func WithHashCost(cost int) Option {
	return func(p *Provider) {
		if cost > 0 {
			p.hashCost = cost
		}
	}
}

// WithClock injects a custom clock (useful for tests).
func WithClock(clock func() time.Time) Option {
	return func(p *Provider) {
		if clock != nil {
			p.now = clock
		}
	}
}

// New builds a Provider on top of db.
func New(db *bun.DB, opts ...Option) *Provider {
	p := &Provider{
		db:       db,
		accounts: NewAccountsRepository(db),
		resets:   NewPasswordResetsRepository(db),
		resetTTL: 24 * time.Hour,
		hashCost: DefaultHashCost,
		now:      time.Now,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(p)
		}
	}

	p.lprovider, p.logger = session.ResolveLogger("localidp.provider", p.lprovider, p.logger)

	return p
}

// Accounts exposes the underlying repository for host bookkeeping.
func (p *Provider) Accounts() Accounts {
	return p.accounts
}

// InitialState always reports signed out: device-session persistence is the
// host's concern, not this provider's.
func (p *Provider) InitialState(ctx context.Context) (*session.User, error) {
	return nil, nil
}

func (p *Provider) SignInWithGoogle(ctx context.Context) (*session.User, error) {
	return nil, session.ErrProviderNotConfigured.Clone().WithMetadata(map[string]any{
		"provider": "google",
	})
}

func (p *Provider) SignInWithApple(ctx context.Context) (*session.User, error) {
	return nil, session.ErrProviderNotConfigured.Clone().WithMetadata(map[string]any{
		"provider": "apple",
	})
}

func (p *Provider) SignInWithEmailPassword(ctx context.Context, email, password string) (*session.User, error) {
	account, err := p.accounts.GetByIdentifier(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, p.failure("sign_in", CodeUserNotFound, err)
		}
		return nil, p.failure("sign_in", CodeInternal, err)
	}

	if p.coolingDown(account) {
		return nil, p.failure("sign_in", CodeTooManyRequests, nil)
	}

	if err := ComparePasswordAndHash(password, account.PasswordHash); err != nil {
		if trackErr := p.accounts.TrackAttemptedLogin(ctx, account); trackErr != nil {
			p.logger.Error("failed to track login attempt: %v", trackErr)
		}
		return nil, p.failure("sign_in", CodeWrongPassword, err)
	}

	if err := p.accounts.TrackSuccessfulLogin(ctx, account); err != nil {
		p.logger.Error("failed to track successful login: %v", err)
	}

	return account.User(), nil
}

func (p *Provider) CreateAccount(ctx context.Context, email, password, displayName string) (*session.User, error) {
	if len(password) < MinPasswordLength {
		return nil, p.failure("create_account", CodeWeakPassword, nil)
	}

	if existing, err := p.accounts.GetByIdentifier(ctx, email); err == nil && existing != nil {
		return nil, p.failure("create_account", CodeEmailInUse, nil)
	}

	hash, err := HashPasswordCost(password, p.hashCost)
	if err != nil {
		return nil, p.failure("create_account", CodeInternal, err)
	}

	account := &Account{
		ID:           p.newAccountID(email),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: hash,
		ProviderID:   "password",
	}

	created, err := p.accounts.Create(ctx, account)
	if err != nil {
		return nil, p.failure("create_account", CodeInternal, err)
	}

	return created.User(), nil
}

func (p *Provider) SendPasswordReset(ctx context.Context, email string) error {
	if _, err := p.accounts.GetByIdentifier(ctx, email); err != nil {
		if repository.IsRecordNotFound(err) {
			return p.failure("password_reset", CodeUserNotFound, err)
		}
		return p.failure("password_reset", CodeInternal, err)
	}

	expiresAt := p.now().Add(p.resetTTL)
	reset := &PasswordReset{
		Email:     email,
		Token:     uuid.New().String(),
		Status:    ResetRequestedStatus,
		ExpiresAt: &expiresAt,
	}

	if _, err := p.resets.Create(ctx, reset); err != nil {
		return p.failure("password_reset", CodeInternal, err)
	}

	// actual mail delivery is the host's concern; we only mint the token
	p.logger.Debug("password reset requested for %s", email)
	return nil
}

func (p *Provider) SignOut(ctx context.Context) error {
	return nil
}

func (p *Provider) SignInAnonymously(ctx context.Context) (*session.User, error) {
	account := &Account{
		ID:          uuid.New(),
		IsAnonymous: true,
		ProviderID:  "anonymous",
	}

	created, err := p.accounts.Create(ctx, account)
	if err != nil {
		return nil, p.failure("sign_in_anonymously", CodeInternal, err)
	}

	return created.User(), nil
}

func (p *Provider) newAccountID(email string) uuid.UUID {
	if p.useHashID {
		if id, err := hashid.NewUUID(email); err == nil {
			return id
		}
	}
	return uuid.New()
}

func (p *Provider) coolingDown(account *Account) bool {
	if account.LoginAttempts < MaxLoginAttempts || account.LoginAttemptAt == nil {
		return false
	}
	return p.now().Sub(*account.LoginAttemptAt) < CoolDownPeriod
}

func (p *Provider) failure(operation, code string, err error) error {
	return &session.ProviderError{
		Provider:  "localidp",
		Operation: operation,
		Code:      code,
		Err:       err,
	}
}
