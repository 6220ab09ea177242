package entitlement

import (
	"context"
	"strings"
	"time"
)

// Period is a product's billing cadence.
type Period string

const (
	PeriodWeekly    Period = "weekly"
	PeriodMonthly   Period = "monthly"
	PeriodQuarterly Period = "quarterly"
	PeriodYearly    Period = "yearly"
	PeriodLifetime  Period = "lifetime"
)

func (p Period) String() string {
	return string(p)
}

// Valid reports whether p is a member of the closed period set.
func (p Period) Valid() bool {
	switch p {
	case PeriodWeekly, PeriodMonthly, PeriodQuarterly, PeriodYearly, PeriodLifetime:
		return true
	}
	return false
}

// ParsePeriod normalizes a raw string into a Period.
func ParsePeriod(raw string) (Period, error) {
	p := Period(strings.ToLower(strings.TrimSpace(raw)))
	if !p.Valid() {
		return "", ErrUnknownPeriod.Clone().WithMetadata(map[string]any{
			"period": raw,
		})
	}
	return p, nil
}

// Product is a purchasable offering as reported by the store.
type Product struct {
	ID            string   `json:"id"`
	Period        Period   `json:"period"`
	PriceString   string   `json:"price_string"`
	PriceCents    int64    `json:"price_cents"`
	CurrencyCode  string   `json:"currency_code"`
	Features      []string `json:"features,omitempty"`
	IsRecommended bool     `json:"is_recommended,omitempty"`
	IsCurrent     bool     `json:"is_current,omitempty"`
}

// Status is the user's current entitlement as reported by the store.
type Status struct {
	IsSubscribed   bool       `json:"is_subscribed"`
	IsInTrial      bool       `json:"is_in_trial"`
	CurrentTierID  string     `json:"current_tier_id,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
	WillRenew      bool       `json:"will_renew"`
	Platform       string     `json:"platform,omitempty"`
}

// Provider is the contract an external purchase SDK adapter must satisfy.
type Provider interface {
	Products(ctx context.Context) ([]Product, error)
	Status(ctx context.Context) (Status, error)
	// Purchase completes the store flow for productID and returns the
	// resulting entitlement status.
	Purchase(ctx context.Context, productID string) (Status, error)
	// RestorePurchases replays prior transactions; the provider pushes any
	// resulting status change through its own refresh channel.
	RestorePurchases(ctx context.Context) (bool, error)
}

// PurchaseResult is what a custom purchase handler reports on success.
// Status, when non-nil, is applied wholesale; otherwise the container only
// marks the selected product as owned and callers should follow up with
// Refresh.
type PurchaseResult struct {
	Status *Status
}

// PurchaseHandler lets the host take over the purchase flow entirely,
// bypassing the provider.
type PurchaseHandler func(ctx context.Context, product Product) (PurchaseResult, error)

// RestoreHandler lets the host take over restore.
type RestoreHandler func(ctx context.Context) (bool, error)
