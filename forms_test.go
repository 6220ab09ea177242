package session_test

import (
	"testing"

	session "github.com/goliatone/go-session"
	"github.com/stretchr/testify/assert"
)

func TestSignInPayloadValidate(t *testing.T) {
	assert.NoError(t, session.SignInPayload{
		Email:    "a@b.com",
		Password: "secret1",
	}.Validate())

	assert.Error(t, session.SignInPayload{Password: "secret1"}.Validate())
	assert.Error(t, session.SignInPayload{Email: "not-an-email", Password: "x"}.Validate())
	assert.Error(t, session.SignInPayload{Email: "a@b.com"}.Validate())
}

func TestSignUpPayloadValidate(t *testing.T) {
	valid := session.SignUpPayload{
		Email:           "a@b.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
		DisplayName:     "Ada",
	}
	assert.NoError(t, valid.Validate())

	mismatch := valid
	mismatch.ConfirmPassword = "secret2"
	assert.Error(t, mismatch.Validate())

	short := valid
	short.Password = "abc"
	short.ConfirmPassword = "abc"
	assert.Error(t, short.Validate())
}

func TestResetPasswordPayloadValidate(t *testing.T) {
	assert.NoError(t, session.ResetPasswordPayload{Email: "a@b.com"}.Validate())
	assert.Error(t, session.ResetPasswordPayload{}.Validate())
	assert.Error(t, session.ResetPasswordPayload{Email: "nope"}.Validate())
}
