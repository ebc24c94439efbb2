package types

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRedaction(t *testing.T) {
	token := AccessToken("deadbeef")

	assert.Equal(t, "deadbeef", token.Value())
	assert.Equal(t, "[redacted]", token.String())
	assert.Equal(t, "[redacted]", fmt.Sprintf("%v", token))
	assert.Equal(t, "[redacted]", fmt.Sprintf("%#v", token))
	assert.NotContains(t, fmt.Sprintf("%+v", User{Username: "amy", AccessToken: token}), "deadbeef")

	encoded, err := json.Marshal(map[string]any{"token": token})
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), "deadbeef")
}

func TestAccessTokenZero(t *testing.T) {
	var token AccessToken
	assert.True(t, token.IsZero())
	assert.Equal(t, "", token.String())
	assert.False(t, AccessToken("x").IsZero())
}

func TestUserJSONOmitsCredentials(t *testing.T) {
	user := User{
		ID:           "id-1",
		Username:     "amy",
		Email:        "amy@x.com",
		PasswordHash: "hash",
		AccessToken:  "deadbeef",
	}
	encoded, err := json.Marshal(user)
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), "hash")
	assert.NotContains(t, string(encoded), "deadbeef")
	assert.Contains(t, string(encoded), `"userId":"id-1"`)
}
