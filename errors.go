package session

import (
	stderrors "errors"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeProviderNotConfigured = "session_provider_not_configured"
	TextCodeOperationInFlight     = "session_operation_in_flight"
	TextCodeNotInitialized        = "session_not_initialized"
	TextCodeUnknownProvider       = "session_unknown_provider"
	TextCodeTranslatorNoDefault   = "session_translator_no_default"
	TextCodeInvalidTransition     = "session_invalid_phase_transition"
)

// ErrProviderNotConfigured is returned when an operation needs an external
// identity flow that was never wired. Treat it as "not yet implemented",
// not a transient failure.
var ErrProviderNotConfigured = goerrors.New("identity provider not configured", goerrors.CategoryNotFound).
	WithTextCode(TextCodeProviderNotConfigured).
	WithCode(goerrors.CodeNotFound)

// ErrOperationInFlight is returned by single-flight containers when an
// operation is already awaiting its provider call.
var ErrOperationInFlight = goerrors.New("auth operation already in flight", goerrors.CategoryConflict).
	WithTextCode(TextCodeOperationInFlight).
	WithCode(goerrors.CodeConflict)

// ErrNotInitialized is returned at construction when a container is missing
// a required dependency, rather than failing loudly at first use.
var ErrNotInitialized = goerrors.New("session container not initialized", goerrors.CategoryOperation).
	WithTextCode(TextCodeNotInitialized).
	WithCode(goerrors.CodeInternal)

// ErrUnknownProvider is returned for a Provider value outside the closed set.
var ErrUnknownProvider = goerrors.New("unknown sign-in provider", goerrors.CategoryBadInput).
	WithTextCode(TextCodeUnknownProvider).
	WithCode(goerrors.CodeBadRequest)

// ErrTranslatorNoDefault is returned when the error text configuration is
// missing its mandatory default entry.
var ErrTranslatorNoDefault = goerrors.New("translator mapping requires a default entry", goerrors.CategoryValidation).
	WithTextCode(TextCodeTranslatorNoDefault).
	WithCode(goerrors.CodeBadRequest)

// ErrInvalidTransition is returned when a requested phase change is not in
// the transition table.
var ErrInvalidTransition = goerrors.New("invalid session phase transition", goerrors.CategoryConflict).
	WithTextCode(TextCodeInvalidTransition).
	WithCode(goerrors.CodeConflict)

// ProviderError captures a normalized {code, message} failure reported by an
// external identity or entitlement provider.
type ProviderError struct {
	Provider  string
	Operation string
	Code      string
	Message   string
	Err       error
}

func (e *ProviderError) Error() string {
	if e == nil {
		return "provider error"
	}

	scope := "provider"
	if e.Provider != "" && e.Operation != "" {
		scope = fmt.Sprintf("%s %s", e.Provider, e.Operation)
	} else if e.Provider != "" {
		scope = e.Provider
	} else if e.Operation != "" {
		scope = e.Operation
	}

	if e.Message != "" {
		return fmt.Sprintf("%s failed: %s", scope, e.Message)
	}
	if e.Code != "" {
		return fmt.Sprintf("%s failed: %s", scope, e.Code)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s failed: %v", scope, e.Err)
	}

	return fmt.Sprintf("%s failed", scope)
}

func (e *ProviderError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Metadata flattens the failure for logging and activity sinks.
func (e *ProviderError) Metadata() map[string]any {
	if e == nil {
		return nil
	}

	meta := map[string]any{}
	if e.Provider != "" {
		meta["provider"] = e.Provider
	}
	if e.Operation != "" {
		meta["operation"] = e.Operation
	}
	if e.Code != "" {
		meta["code"] = e.Code
	}
	if e.Message != "" {
		meta["message"] = e.Message
	}

	return meta
}

// ProviderCode extracts the provider error code from err, walking wrapped
// errors. Rich errors contribute their text code; anything else yields "".
func ProviderCode(err error) string {
	if err == nil {
		return ""
	}

	var perr *ProviderError
	if stderrors.As(err, &perr) && perr != nil {
		return perr.Code
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) && richErr != nil {
		return richErr.TextCode
	}

	return ""
}

// WrapProviderError attaches provider metadata to a cloned sentinel so
// callers keep errors.Is checks while sinks get the raw detail.
func WrapProviderError(base *goerrors.Error, provider, operation string, err error) error {
	if base == nil {
		return err
	}

	meta := map[string]any{}
	if provider != "" {
		meta["provider"] = provider
	}
	if operation != "" {
		meta["operation"] = operation
	}

	var perr *ProviderError
	if stderrors.As(err, &perr) && perr != nil {
		for k, v := range perr.Metadata() {
			meta[k] = v
		}
	} else if err != nil {
		meta["error"] = err.Error()
	}

	clone := base.Clone()
	if clone == nil {
		clone = base
	}
	if err != nil {
		clone.Source = err
	}
	if len(meta) > 0 {
		clone.WithMetadata(meta)
	}

	return clone
}
