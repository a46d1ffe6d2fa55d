package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

const (
	// pkceVerifierBytes is the number of random bytes behind the code
	// verifier. 32 bytes encode to 43 base64url characters, the minimum
	// length RFC 7636 allows (43-128).
	pkceVerifierBytes = 32

	// stateLength is the number of characters in a generated anti-forgery
	// state value.
	stateLength = 16

	// alphanumerics is the alphabet for generated state values.
	alphanumerics = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789"
)

// PKCEChallenge is a verifier/challenge pair for Proof Key for Code
// Exchange (RFC 7636). The verifier stays with the client until the token
// exchange; only the challenge travels in the authorize URL.
type PKCEChallenge struct {
	// Verifier is the random secret, base64url-encoded without padding.
	// Never sent in the authorize step.
	Verifier string

	// Challenge is base64url(SHA-256(Verifier)), sent in the authorize
	// URL.
	Challenge string

	// Method is always "S256". The plain method defeats the point of
	// PKCE and is not offered.
	Method string
}

// GeneratePKCE creates a fresh verifier/challenge pair.
func GeneratePKCE() (*PKCEChallenge, error) {
	raw := make([]byte, pkceVerifierBytes)
	if _, err := rand.Read(raw); err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}
	verifier := base64.RawURLEncoding.EncodeToString(raw)
	return &PKCEChallenge{
		Verifier:  verifier,
		Challenge: ChallengeFromVerifier(verifier),
		Method:    "S256",
	}, nil
}

// ChallengeFromVerifier derives the S256 challenge for a verifier:
// base64url(SHA-256(verifier)), no padding.
func ChallengeFromVerifier(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}

// GenerateState returns a random 16-character alphanumeric anti-forgery
// state value.
func GenerateState() (string, error) {
	out := make([]byte, stateLength)
	buf := make([]byte, 1)
	for i := 0; i < len(out); {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate state: %w", err)
		}
		// Bytes at or above the largest multiple of the alphabet size
		// would skew the modulo; skip them.
		if int(buf[0]) >= 256-256%len(alphanumerics) {
			continue
		}
		out[i] = alphanumerics[int(buf[0])%len(alphanumerics)]
		i++
	}
	return string(out), nil
}
