package idtoken

import (
	"context"
	"fmt"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/golang-jwt/jwt/v5"
	session "github.com/goliatone/go-session"
)

// SigningKey holds a single verification key plus the JWT algorithm it is
// valid for.
type SigningKey struct {
	// JWTAlg is the algorithm the key verifies, e.g. "RS256".
	JWTAlg string
	// Key is the public key material, e.g. an *rsa.PublicKey.
	Key any
}

// ClaimsMapper turns verified token claims into a session User.
type ClaimsMapper func(ctx context.Context, claims jwt.MapClaims) (*session.User, error)

// Config describes where verification keys come from and which token
// constraints to enforce. At least one of KeyFunc, JWKSetURLs, or
// SigningKeys is required.
type Config struct {
	// KeyFunc resolves the verification key per token. When set it takes
	// precedence over JWKSetURLs and SigningKeys.
	KeyFunc jwt.Keyfunc

	// JWKSetURLs are remote JWK Set endpoints, refreshed in the background.
	JWKSetURLs []string

	// SigningKeys are static keys indexed by kid, mostly for tests and
	// air-gapped deployments.
	SigningKeys map[string]SigningKey

	// Issuer, when non empty, must match the token's iss claim.
	Issuer string

	// Audience, when non empty, must appear in the token's aud claim.
	Audience string

	// ValidMethods restricts accepted signing algorithms. Defaults to RS256.
	ValidMethods []string

	// RefreshInterval is how often remote JWK Sets refresh. Defaults to an
	// hour.
	RefreshInterval time.Duration

	// ClaimsMapper overrides the default claim mapping.
	ClaimsMapper ClaimsMapper

	Logger         session.Logger
	LoggerProvider session.LoggerProvider
}

func (cfg *Config) keyfunc(logger session.Logger) (jwt.Keyfunc, error) {
	if cfg.KeyFunc != nil {
		return cfg.KeyFunc, nil
	}

	var givenKeys map[string]keyfunc.GivenKey
	if len(cfg.SigningKeys) > 0 {
		givenKeys = make(map[string]keyfunc.GivenKey, len(cfg.SigningKeys))
		for kid, key := range cfg.SigningKeys {
			givenKeys[kid] = keyfunc.NewGivenCustom(key.Key, keyfunc.GivenKeyOptions{
				Algorithm: key.JWTAlg,
			})
		}
	}

	if len(cfg.JWKSetURLs) == 0 {
		if givenKeys == nil {
			return nil, fmt.Errorf("idtoken: at least one of KeyFunc, JWKSetURLs, or SigningKeys is required")
		}
		return keyfunc.NewGiven(givenKeys).Keyfunc, nil
	}

	opts := cfg.keyfuncOptions(givenKeys, logger)
	m := make(map[string]keyfunc.Options, len(cfg.JWKSetURLs))
	for _, url := range cfg.JWKSetURLs {
		m[url] = opts
	}

	multi, err := keyfunc.GetMultiple(m, keyfunc.MultipleOptions{
		KeySelector: keyfunc.KeySelectorFirst,
	})
	if err != nil {
		return nil, fmt.Errorf("idtoken: failed to get JWK Set URLs: %w", err)
	}

	return multi.Keyfunc, nil
}

func (cfg *Config) keyfuncOptions(givenKeys map[string]keyfunc.GivenKey, logger session.Logger) keyfunc.Options {
	interval := cfg.RefreshInterval
	if interval <= 0 {
		interval = time.Hour
	}

	return keyfunc.Options{
		GivenKeys: givenKeys,
		RefreshErrorHandler: func(err error) {
			logger.Warn("background refresh of JWK Set failed: %v", err)
		},
		RefreshInterval:   interval,
		RefreshRateLimit:  time.Minute * 5,
		RefreshTimeout:    time.Second * 10,
		RefreshUnknownKID: true,
	}
}
