package localidp

import (
	"time"

	session "github.com/goliatone/go-session"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Account is the stored identity record.
type Account struct {
	bun.BaseModel `bun:"table:accounts,alias:acc"`

	ID             uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email          string     `bun:"email,unique,nullzero" json:"email,omitempty"`
	DisplayName    string     `bun:"display_name" json:"display_name,omitempty"`
	PhotoURL       string     `bun:"photo_url" json:"photo_url,omitempty"`
	PasswordHash   string     `bun:"password_hash" json:"password_hash,omitempty"`
	ProviderID     string     `bun:"provider_id" json:"provider_id,omitempty"`
	IsAnonymous    bool       `bun:"is_anonymous" json:"is_anonymous,omitempty"`
	EmailVerified  bool       `bun:"is_email_verified" json:"is_email_verified,omitempty"`
	LoginAttempts  int        `bun:"login_attempts" json:"login_attempts,omitempty"`
	LoginAttemptAt *time.Time `bun:"login_attempt_at,nullzero" json:"login_attempt_at,omitempty"`
	LoggedInAt     *time.Time `bun:"loggedin_at,nullzero" json:"loggedin_at,omitempty"`
	CreatedAt      *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt      *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
	DeletedAt      *time.Time `bun:"deleted_at,soft_delete,nullzero" json:"deleted_at,omitempty"`
}

// User maps the stored record to the session contract's shape.
func (a *Account) User() *session.User {
	if a == nil {
		return nil
	}
	return &session.User{
		ID:            a.ID.String(),
		Email:         a.Email,
		DisplayName:   a.DisplayName,
		PhotoURL:      a.PhotoURL,
		IsAnonymous:   a.IsAnonymous,
		EmailVerified: a.EmailVerified,
		ProviderID:    a.ProviderID,
	}
}

// PasswordResetStatus tracks a reset request's lifecycle.
type PasswordResetStatus = string

const (
	// ResetRequestedStatus is the initial status
	ResetRequestedStatus PasswordResetStatus = "requested"
	// ResetExpiredStatus is the expired status
	ResetExpiredStatus PasswordResetStatus = "expired"
	// ResetUsedStatus marks a consumed token
	ResetUsedStatus PasswordResetStatus = "used"
)

// PasswordReset is an out-of-band reset request record.
type PasswordReset struct {
	bun.BaseModel `bun:"table:password_resets,alias:pwr"`

	ID        uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Email     string     `bun:"email,notnull" json:"email,omitempty"`
	Token     string     `bun:"token,notnull,unique" json:"token,omitempty"`
	Status    string     `bun:"status,notnull" json:"status,omitempty"`
	ExpiresAt *time.Time `bun:"expires_at,nullzero" json:"expires_at,omitempty"`
	CreatedAt *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
}
