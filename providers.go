package session

import (
	"context"
	"strings"
)

// Provider identifies a federated sign-in flow. The set is closed: dispatch
// runs through providerFlows so adding a provider is a compile-checked
// change, not a string comparison sprinkled through call sites.
type Provider string

const (
	ProviderGoogle Provider = "google"
	ProviderApple  Provider = "apple"
)

func (p Provider) String() string {
	return string(p)
}

// Valid reports whether p names a known federated flow.
func (p Provider) Valid() bool {
	_, ok := providerFlows[p]
	return ok
}

// ParseProvider normalizes a raw string into a Provider.
func ParseProvider(raw string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(raw)))
	if !p.Valid() {
		return "", ErrUnknownProvider.Clone().WithMetadata(map[string]any{
			"provider": raw,
		})
	}
	return p, nil
}

type providerFlow func(ctx context.Context, idp IdentityProvider) (*User, error)

var providerFlows = map[Provider]providerFlow{
	ProviderGoogle: func(ctx context.Context, idp IdentityProvider) (*User, error) {
		return idp.SignInWithGoogle(ctx)
	},
	ProviderApple: func(ctx context.Context, idp IdentityProvider) (*User, error) {
		return idp.SignInWithApple(ctx)
	},
}
