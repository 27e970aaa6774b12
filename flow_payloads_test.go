package auth_test

import (
	"testing"

	auth "github.com/goliatone/go-users"
	"github.com/stretchr/testify/assert"
)

func TestSignupMessageValidate(t *testing.T) {
	tests := []struct {
		name    string
		msg     auth.SignupMessage
		wantErr bool
	}{
		{
			name: "valid payload",
			msg: auth.SignupMessage{
				Email:    "ada@example.com",
				Password: "long enough password",
			},
		},
		{
			name: "valid payload with phone",
			msg: auth.SignupMessage{
				Email:    "ada@example.com",
				Password: "long enough password",
				Phone:    "+1 650-253-0000",
			},
		},
		{
			name:    "missing email",
			msg:     auth.SignupMessage{Password: "long enough password"},
			wantErr: true,
		},
		{
			name: "malformed email",
			msg: auth.SignupMessage{
				Email:    "not-an-email",
				Password: "long enough password",
			},
			wantErr: true,
		},
		{
			name: "short password",
			msg: auth.SignupMessage{
				Email:    "ada@example.com",
				Password: "short",
			},
			wantErr: true,
		},
		{
			name: "bogus phone number",
			msg: auth.SignupMessage{
				Email:    "ada@example.com",
				Password: "long enough password",
				Phone:    "555",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.msg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSigninMessageValidate(t *testing.T) {
	assert.NoError(t, auth.SigninMessage{Email: "ada@example.com", Password: "pw"}.Validate())
	assert.Error(t, auth.SigninMessage{Email: "ada@example.com"}.Validate())
	assert.Error(t, auth.SigninMessage{Password: "pw"}.Validate())
}

func TestUpdateMessageValidate(t *testing.T) {
	// all fields optional, empty patch is fine
	assert.NoError(t, auth.UpdateMessage{}.Validate())
	assert.NoError(t, auth.UpdateMessage{FirstName: "Grace", Password: "long enough"}.Validate())
	assert.Error(t, auth.UpdateMessage{Password: "short"}.Validate())
	assert.Error(t, auth.UpdateMessage{Phone: "555"}.Validate())
}

func TestFormatValidationErrorToMap(t *testing.T) {
	t.Run("nil error", func(t *testing.T) {
		assert.Empty(t, auth.FormatValidationErrorToMap(nil))
	})

	t.Run("field errors keyed by field", func(t *testing.T) {
		err := auth.SignupMessage{Email: "nope", Password: "short"}.Validate()
		out := auth.FormatValidationErrorToMap(err)

		assert.Contains(t, out, "email")
		assert.Contains(t, out, "password")
	})
}
