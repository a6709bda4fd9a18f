package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// secretPrefix marks taskhive bearer secrets so malformed credentials are
// rejected before any storage lookup.
const secretPrefix = "thv_"

const secretBytes = 32

// newSecret generates a cryptographically random opaque bearer secret.
// The raw value exists only in the issue response; storage keeps its digest.
func newSecret() (string, error) {
	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token secret: %w", err)
	}
	return secretPrefix + hex.EncodeToString(b), nil
}

// HashSecret returns the SHA-256 hex digest under which a secret is stored
// and looked up.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

func wellFormedSecret(secret string) bool {
	if !strings.HasPrefix(secret, secretPrefix) {
		return false
	}
	rest := strings.TrimPrefix(secret, secretPrefix)
	if len(rest) != secretBytes*2 {
		return false
	}
	_, err := hex.DecodeString(rest)
	return err == nil
}
