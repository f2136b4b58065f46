package hashing

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

const (
	iterations = 10000
	keyLen     = 32
	saltBytes  = 32
	codeBytes  = 24
)

// Hash is the one-way salted hash used for both user passwords and app
// secret hashes. It is deterministic for a given (salt, value) pair, which
// the app lookup by (name, secret) combo depends on.
func Hash(salt, value string) string {
	return hex.EncodeToString(pbkdf2.Key([]byte(value), []byte(salt), iterations, keyLen, sha256.New))
}

// RandomSalt draws a per-user salt. crypto/rand.Read always fills the
// buffer and never returns an error.
func RandomSalt() string {
	b := make([]byte, saltBytes)
	rand.Read(b)
	return hex.EncodeToString(b)
}

// RandomCode draws a one-time authorization code.
func RandomCode() string {
	b := make([]byte, codeBytes)
	rand.Read(b)
	return hex.EncodeToString(b)
}
