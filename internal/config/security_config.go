package config

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

const (
	accessSecretVar  = "JWT_ACCESS_SECRET"
	refreshSecretVar = "JWT_REFRESH_SECRET"
	accessExpiryVar  = "JWT_ACCESS_EXPIRY"
	refreshExpiryVar = "JWT_REFRESH_EXPIRY"
	encryptionKeyVar = "ENCRYPTION_KEY"
)

// encryptionKeyLength is fixed by the credential cipher (AES-256).
const encryptionKeyLength = 32

// defaultExpiry is the fallback when an expiry string does not parse.
const defaultExpiry = 900 * time.Second

type SecurityConfig interface {
	GetAccessTokenSecret() string
	GetRefreshTokenSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetEncryptionKey() ([]byte, error)
}

type Security struct{}

var _ SecurityConfig = Security{}

func (Security) GetAccessTokenSecret() string {
	return GetEnv(accessSecretVar, "")
}

func (Security) GetRefreshTokenSecret() string {
	return GetEnv(refreshSecretVar, "")
}

func (Security) GetAccessTokenExpiry() time.Duration {
	return ParseExpiry(GetEnv(accessExpiryVar, "15m"))
}

func (Security) GetRefreshTokenExpiry() time.Duration {
	return ParseExpiry(GetEnv(refreshExpiryVar, "7d"))
}

// GetEncryptionKey returns the credential encryption key. The key must be
// exactly 32 bytes; the process refuses to start otherwise.
func (Security) GetEncryptionKey() ([]byte, error) {
	key := GetEnv(encryptionKeyVar, "")
	if len(key) != encryptionKeyLength {
		return nil, fmt.Errorf("%s must be set and exactly %d bytes long, got %d", encryptionKeyVar, encryptionKeyLength, len(key))
	}
	return []byte(key), nil
}

var expiryPattern = regexp.MustCompile(`^(\d+)([smhd])$`)

// ParseExpiry parses duration strings of the form "15m", "1h", "7d".
// Unparseable values fall back to 900 seconds.
func ParseExpiry(s string) time.Duration {
	match := expiryPattern.FindStringSubmatch(s)
	if match == nil {
		return defaultExpiry
	}

	value, err := strconv.Atoi(match[1])
	if err != nil {
		return defaultExpiry
	}

	switch match[2] {
	case "s":
		return time.Duration(value) * time.Second
	case "m":
		return time.Duration(value) * time.Minute
	case "h":
		return time.Duration(value) * time.Hour
	case "d":
		return time.Duration(value) * 24 * time.Hour
	default:
		return defaultExpiry
	}
}
