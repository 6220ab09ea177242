package entitlement

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeNoProductSelected     = "entitlement_no_product_selected"
	TextCodeProviderNotConfigured = "entitlement_provider_not_configured"
	TextCodeUnknownPeriod         = "entitlement_unknown_period"
	TextCodeNotInitialized        = "entitlement_not_initialized"
	TextCodeOperationInFlight     = "entitlement_operation_in_flight"
)

// ErrNoProductSelected is the synchronous precondition failure for Purchase:
// no provider is contacted.
var ErrNoProductSelected = goerrors.New("no product selected", goerrors.CategoryValidation).
	WithTextCode(TextCodeNoProductSelected).
	WithCode(goerrors.CodeBadRequest)

// ErrProviderNotConfigured is returned when an operation needs the external
// entitlement provider and none was wired.
var ErrProviderNotConfigured = goerrors.New("entitlement provider not configured", goerrors.CategoryNotFound).
	WithTextCode(TextCodeProviderNotConfigured).
	WithCode(goerrors.CodeNotFound)

// ErrUnknownPeriod is returned for a Period value outside the closed set.
var ErrUnknownPeriod = goerrors.New("unknown billing period", goerrors.CategoryBadInput).
	WithTextCode(TextCodeUnknownPeriod).
	WithCode(goerrors.CodeBadRequest)

// ErrNotInitialized is returned at construction when the container is
// missing a required dependency.
var ErrNotInitialized = goerrors.New("entitlement container not initialized", goerrors.CategoryOperation).
	WithTextCode(TextCodeNotInitialized).
	WithCode(goerrors.CodeInternal)

// ErrOperationInFlight is returned by single-flight containers when an
// operation is already awaiting the store.
var ErrOperationInFlight = goerrors.New("purchase operation already in flight", goerrors.CategoryConflict).
	WithTextCode(TextCodeOperationInFlight).
	WithCode(goerrors.CodeConflict)
