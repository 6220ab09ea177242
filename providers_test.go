package session_test

import (
	"testing"

	session "github.com/goliatone/go-session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseProvider(t *testing.T) {
	p, err := session.ParseProvider("google")
	require.NoError(t, err)
	assert.Equal(t, session.ProviderGoogle, p)

	p, err = session.ParseProvider("  Apple ")
	require.NoError(t, err)
	assert.Equal(t, session.ProviderApple, p)

	_, err = session.ParseProvider("facebook")
	assert.ErrorIs(t, err, session.ErrUnknownProvider)

	_, err = session.ParseProvider("")
	assert.Error(t, err)
}

func TestProviderValid(t *testing.T) {
	assert.True(t, session.ProviderGoogle.Valid())
	assert.True(t, session.ProviderApple.Valid())
	assert.False(t, session.Provider("github").Valid())
}
