// Package idtoken resolves signed ID tokens, as minted by mobile auth SDKs,
// into session Users. Keys come from remote JWK Sets or static signing keys;
// verification failures surface as ProviderErrors so one translator mapping
// covers native SDK errors and token errors alike.
package idtoken

import (
	"context"
	stderrors "errors"

	"github.com/golang-jwt/jwt/v5"
	session "github.com/goliatone/go-session"
)

// Provider error codes for token verification failures.
const (
	CodeTokenExpired = "auth/id-token-expired"
	CodeInvalidToken = "auth/invalid-id-token"
)

// Resolver verifies ID tokens and maps their claims into session Users.
type Resolver struct {
	config  Config
	parser  *jwt.Parser
	keyFunc jwt.Keyfunc
	mapper  ClaimsMapper
	logger  session.Logger
}

// NewResolver builds a Resolver from cfg. It fetches remote JWK Sets
// eagerly, so construction fails fast on unreachable endpoints.
func NewResolver(cfg Config) (*Resolver, error) {
	_, logger := session.ResolveLogger("idtoken.resolver", cfg.LoggerProvider, cfg.Logger)

	keyFunc, err := cfg.keyfunc(logger)
	if err != nil {
		return nil, err
	}

	methods := cfg.ValidMethods
	if len(methods) == 0 {
		methods = []string{jwt.SigningMethodRS256.Alg()}
	}

	opts := []jwt.ParserOption{jwt.WithValidMethods(methods)}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}

	mapper := cfg.ClaimsMapper
	if mapper == nil {
		mapper = defaultClaimsMapper
	}

	return &Resolver{
		config:  cfg,
		parser:  jwt.NewParser(opts...),
		keyFunc: keyFunc,
		mapper:  mapper,
		logger:  logger,
	}, nil
}

// Resolve verifies raw and maps its claims into a User.
func (r *Resolver) Resolve(ctx context.Context, raw string) (*session.User, error) {
	claims := jwt.MapClaims{}
	token, err := r.parser.ParseWithClaims(raw, claims, r.keyFunc)
	if err != nil {
		return nil, r.failure(err)
	}
	if !token.Valid {
		return nil, r.failure(nil)
	}

	return r.mapper(ctx, claims)
}

func (r *Resolver) failure(err error) error {
	code := CodeInvalidToken
	if stderrors.Is(err, jwt.ErrTokenExpired) {
		code = CodeTokenExpired
	}

	return &session.ProviderError{
		Provider:  "idtoken",
		Operation: "resolve",
		Code:      code,
		Err:       err,
	}
}

func defaultClaimsMapper(ctx context.Context, claims jwt.MapClaims) (*session.User, error) {
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return nil, &session.ProviderError{
			Provider:  "idtoken",
			Operation: "resolve",
			Code:      CodeInvalidToken,
			Message:   "token has no subject",
		}
	}

	user := &session.User{ID: sub}
	user.Email, _ = claims["email"].(string)
	user.DisplayName, _ = claims["name"].(string)
	user.PhotoURL, _ = claims["picture"].(string)
	user.EmailVerified, _ = claims["email_verified"].(bool)

	if provider, ok := claims["provider_id"].(string); ok {
		user.ProviderID = provider
	} else if iss, ok := claims["iss"].(string); ok {
		user.ProviderID = iss
	}

	return user, nil
}
