package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
)

// API keys look like nb_{env}_{prefix}_{secret}, e.g.
// nb_live_7a9x3k_4f8d2e1b9c7a5f3d2e1b9c7a5f3d2e1b.
const (
	KeyPrefixLen = 6  // hex chars of the public lookup prefix
	KeySecretLen = 32 // hex chars of the secret part

	// VerificationKeyLen is the length of emailed verification keys.
	VerificationKeyLen = 16
)

const (
	EnvLive = "live"
	EnvTest = "test"
)

var (
	// ErrInvalidKeyFormat indicates the key does not match nb_{env}_{prefix}_{secret}.
	ErrInvalidKeyFormat = errors.New("invalid API key format")

	keyFormatRegex = regexp.MustCompile(`^nb_(live|test)_([a-f0-9]{6})_([a-f0-9]{32})$`)
)

// GeneratedKey is a freshly minted API key. Plaintext is shown to the user once.
type GeneratedKey struct {
	Plaintext string
	Hash      string
	Prefix    string
}

// GenerateAPIKey mints a key for env (anything but "test" is treated as live).
func GenerateAPIKey(env string) (*GeneratedKey, error) {
	return generateAPIKey(env, DefaultHashParams)
}

func generateAPIKey(env string, params HashParams) (*GeneratedKey, error) {
	if env != EnvTest {
		env = EnvLive
	}

	prefix, err := randomHex(KeyPrefixLen / 2)
	if err != nil {
		return nil, fmt.Errorf("generate prefix: %w", err)
	}
	secret, err := randomHex(KeySecretLen / 2)
	if err != nil {
		return nil, fmt.Errorf("generate secret: %w", err)
	}

	plaintext := fmt.Sprintf("nb_%s_%s_%s", env, prefix, secret)
	hash, err := HashSecretWith(params, plaintext)
	if err != nil {
		return nil, fmt.Errorf("hash key: %w", err)
	}

	return &GeneratedKey{Plaintext: plaintext, Hash: hash, Prefix: prefix}, nil
}

// ParsedKey holds the parts of a plaintext API key.
type ParsedKey struct {
	Env    string
	Prefix string
	Secret string
}

// ParseAPIKey splits a plaintext key into its parts.
func ParseAPIKey(key string) (*ParsedKey, error) {
	m := keyFormatRegex.FindStringSubmatch(key)
	if m == nil {
		return nil, ErrInvalidKeyFormat
	}
	return &ParsedKey{Env: m[1], Prefix: m[2], Secret: m[3]}, nil
}

// GenerateVerificationKey returns a random lowercase hex key for email links.
func GenerateVerificationKey() (string, error) {
	key, err := randomHex(VerificationKeyLen / 2)
	if err != nil {
		return "", fmt.Errorf("generate verification key: %w", err)
	}
	return key, nil
}

func randomHex(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
