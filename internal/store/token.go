package store

import (
	"crypto/rand"
	"encoding/hex"

	"github.com/authgate/apiserver/types"
)

// tokenBytes is the entropy of an access token; hex encoding doubles it.
const tokenBytes = 128

// NewAccessToken returns a fresh hex-encoded token with 128 random bytes.
func NewAccessToken() (types.AccessToken, error) {
	var buf [tokenBytes]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return "", err
	}
	return types.AccessToken(hex.EncodeToString(buf[:])), nil
}
