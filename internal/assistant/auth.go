package assistant

import (
	"golang.org/x/crypto/bcrypt"

	"retailsync/pkg/errors"
)

// Authenticator checks the shared access password against its bcrypt hash.
// The hash comes from configuration; the plaintext is never stored.
type Authenticator struct {
	hash []byte
}

// NewAuthenticator creates an authenticator from a bcrypt hash string.
func NewAuthenticator(hash string) (*Authenticator, error) {
	if hash == "" {
		return nil, errors.ConfigError("APP_PASSWORD_HASH is not set", "APP_PASSWORD_HASH")
	}
	if _, err := bcrypt.Cost([]byte(hash)); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeConfigInvalid,
			"APP_PASSWORD_HASH is not a valid bcrypt hash")
	}
	return &Authenticator{hash: []byte(hash)}, nil
}

// Check returns nil when the password matches the stored hash.
func (a *Authenticator) Check(password string) error {
	if password == "" {
		return errors.New(errors.ErrCodeUserInput, "Password must not be empty")
	}
	if err := bcrypt.CompareHashAndPassword(a.hash, []byte(password)); err != nil {
		return errors.Wrap(err, errors.ErrCodeAuthenticationFailed, "Incorrect password")
	}
	return nil
}

// HashPassword produces a bcrypt hash suitable for APP_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New(errors.ErrCodeUserInput, "Password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeInternal, "Failed to hash password")
	}
	return string(hash), nil
}
