package session_test

import (
	"errors"
	"testing"

	session "github.com/goliatone/go-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTranslatorRequiresDefault(t *testing.T) {
	translator, err := session.NewTranslator(map[string]string{
		"auth/wrong-password": "Incorrect password.",
	})
	assert.Nil(t, translator)
	assert.ErrorIs(t, err, session.ErrTranslatorNoDefault)

	translator, err = session.NewTranslator(nil)
	assert.Nil(t, translator)
	assert.Error(t, err)
}

func TestTranslateIsTotal(t *testing.T) {
	translator, err := session.NewTranslator(map[string]string{
		session.DefaultMessageKey: "Something went wrong.",
		"auth/wrong-password":     "Incorrect password.",
	})
	require.NoError(t, err)

	assert.Equal(t, "Incorrect password.", translator.Translate("auth/wrong-password"))

	// any input yields a non-empty string
	for _, code := range []string{"", "auth/unknown", "garbage", "default"} {
		assert.NotEmpty(t, translator.Translate(code), "code %q", code)
	}
	assert.Equal(t, "Something went wrong.", translator.Translate("auth/unknown"))
}

func TestTranslateOverridePrecedence(t *testing.T) {
	translator, err := session.NewTranslator(map[string]string{
		session.DefaultMessageKey: "Something went wrong.",
		"auth/wrong-password":     "Incorrect password.",
	}, session.WithOverride(func(code string) string {
		if code == "auth/wrong-password" {
			return "Check your password."
		}
		return ""
	}))
	require.NoError(t, err)

	// override wins over the mapping
	assert.Equal(t, "Check your password.", translator.Translate("auth/wrong-password"))
	// empty override result falls back to the mapping
	assert.Equal(t, "Something went wrong.", translator.Translate("auth/unknown"))
}

func TestTranslateError(t *testing.T) {
	translator, err := session.NewTranslator(map[string]string{
		session.DefaultMessageKey: "Something went wrong.",
		"auth/wrong-password":     "Incorrect password.",
	})
	require.NoError(t, err)

	assert.Empty(t, translator.TranslateError(nil))

	perr := &session.ProviderError{Code: "auth/wrong-password"}
	assert.Equal(t, "Incorrect password.", translator.TranslateError(perr))

	assert.Equal(t, "Something went wrong.", translator.TranslateError(errors.New("boom")))
}
