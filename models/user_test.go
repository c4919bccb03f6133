package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizedStripsSecrets(t *testing.T) {
	u := &User{ID: "1", Username: "alice", PasswordHash: "hash", RefreshToken: "rt"}

	s := u.Sanitized()

	assert.Empty(t, s.PasswordHash)
	assert.Empty(t, s.RefreshToken)
	assert.Equal(t, "alice", s.Username)
	assert.Equal(t, "hash", u.PasswordHash, "original must not be mutated")
	assert.Nil(t, (*User)(nil).Sanitized())
}

func TestUserJSONNeverContainsSecrets(t *testing.T) {
	u := User{ID: "1", Username: "alice", PasswordHash: "hash", RefreshToken: "rt"}

	b, err := json.Marshal(u)
	require.NoError(t, err)

	assert.NotContains(t, string(b), "hash")
	assert.NotContains(t, string(b), `"rt"`)
	assert.Contains(t, string(b), `"username":"alice"`)
}
