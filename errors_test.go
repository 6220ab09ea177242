package session_test

import (
	"errors"
	"fmt"
	"testing"

	session "github.com/goliatone/go-session"
	"github.com/stretchr/testify/assert"
)

func TestSentinelTextCodes(t *testing.T) {
	assert.Equal(t, session.TextCodeProviderNotConfigured, session.ErrProviderNotConfigured.TextCode)
	assert.Equal(t, session.TextCodeOperationInFlight, session.ErrOperationInFlight.TextCode)
	assert.Equal(t, session.TextCodeNotInitialized, session.ErrNotInitialized.TextCode)
	assert.Equal(t, session.TextCodeTranslatorNoDefault, session.ErrTranslatorNoDefault.TextCode)
	assert.Equal(t, session.TextCodeUnknownProvider, session.ErrUnknownProvider.TextCode)
}

func TestProviderErrorMessage(t *testing.T) {
	perr := &session.ProviderError{
		Provider:  "email",
		Operation: "sign_in",
		Code:      "auth/wrong-password",
		Message:   "wrong password",
	}
	assert.Equal(t, "email sign_in failed: wrong password", perr.Error())

	codeOnly := &session.ProviderError{Provider: "google", Code: "auth/popup-closed"}
	assert.Equal(t, "google failed: auth/popup-closed", codeOnly.Error())

	wrapped := &session.ProviderError{Operation: "purchase", Err: errors.New("timeout")}
	assert.Equal(t, "purchase failed: timeout", wrapped.Error())

	var empty *session.ProviderError
	assert.Equal(t, "provider error", empty.Error())
}

func TestProviderCode(t *testing.T) {
	assert.Empty(t, session.ProviderCode(nil))
	assert.Empty(t, session.ProviderCode(errors.New("plain")))

	perr := &session.ProviderError{Code: "auth/wrong-password"}
	assert.Equal(t, "auth/wrong-password", session.ProviderCode(perr))

	// wrapped provider errors still yield their code
	wrapped := fmt.Errorf("operation failed: %w", perr)
	assert.Equal(t, "auth/wrong-password", session.ProviderCode(wrapped))

	// rich sentinels contribute their text code
	assert.Equal(t, session.TextCodeProviderNotConfigured, session.ProviderCode(session.ErrProviderNotConfigured))
}

func TestWrapProviderError(t *testing.T) {
	source := &session.ProviderError{
		Provider: "apple",
		Code:     "auth/invalid-credential",
	}

	err := session.WrapProviderError(session.ErrProviderNotConfigured, "apple", "sign_in", source)
	assert.ErrorIs(t, err, session.ErrProviderNotConfigured)
	assert.Equal(t, "auth/invalid-credential", session.ProviderCode(source))
}
