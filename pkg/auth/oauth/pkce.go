package oauth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

const (
	// verifierLength is the RFC 7636 maximum, chosen to maximize
	// brute-force resistance.
	verifierLength = 128

	// stateLength is sufficient for CSRF protection.
	stateLength = 32

	// ChallengeMethodS256 is the only challenge method this client uses.
	ChallengeMethodS256 = "S256"
)

// PKCEChallenge holds the verifier/challenge pair for one login attempt.
// It is generated fresh per attempt and never persisted.
type PKCEChallenge struct {
	Verifier  string
	Challenge string
	Method    string
}

// GeneratePKCEChallenge generates a PKCE verifier and its S256 challenge
// from a cryptographically secure random source.
func GeneratePKCEChallenge() (*PKCEChallenge, error) {
	verifier, err := randomURLSafeString(verifierLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate code verifier: %w", err)
	}

	return &PKCEChallenge{
		Verifier:  verifier,
		Challenge: ComputeChallenge(verifier),
		Method:    ChallengeMethodS256,
	}, nil
}

// ComputeChallenge derives the S256 challenge for a verifier:
// base64url without padding of SHA-256(verifier).
func ComputeChallenge(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:])
}

// GenerateState generates the random state parameter used for CSRF
// protection on the authorization redirect.
func GenerateState() (string, error) {
	state, err := randomURLSafeString(stateLength)
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}
	return state, nil
}

// randomURLSafeString returns a base64url string of exactly length
// characters backed by crypto/rand. Base64 encodes 3 bytes into 4
// characters, so the byte count is sized to come out at or past the target
// length before truncating.
func randomURLSafeString(length int) (string, error) {
	buf := make([]byte, (length*3+3)/4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}

	s := base64.RawURLEncoding.EncodeToString(buf)
	return s[:length], nil
}
