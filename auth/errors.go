package auth

import (
	"github.com/pkg/errors"
)

var (
	// ErrHashTooLong is returned when a password hash does not fit the
	// credentials table
	ErrHashTooLong = errors.New("password hash exceeds the maximum stored length")
	// ErrEncryptedTooLong is returned when an encrypted password does not fit
	// the credentials table
	ErrEncryptedTooLong = errors.New("encrypted password exceeds the maximum stored length")
	// ErrInvalidToken is returned when a stored ciphertext cannot be decrypted
	// with the configured key, e.g. after a key rotation. Callers should treat
	// it as recoverable.
	ErrInvalidToken = errors.New("invalid token")
	// ErrUnsupportedHash is returned for hashes in an unknown format
	ErrUnsupportedHash = errors.New("unsupported password hash format")
	// ErrUnsatisfiableAlphabet is returned by GeneratePassword if the alphabet
	// can never produce a password with all required character classes
	ErrUnsatisfiableAlphabet = errors.New("alphabet cannot satisfy the password requirements")
	// ErrPasswordTooShort is returned by GeneratePassword if the length is
	// smaller than the number of required character classes
	ErrPasswordTooShort = errors.New("password length too short for the password requirements")
	// ErrGuestUserDisabled is returned by operations on the guest user if
	// basic auth or the guest user feature is disabled
	ErrGuestUserDisabled = errors.New("guest user is not enabled")
	// ErrNotPrivileged is returned if an operation requires a privileged user
	ErrNotPrivileged = errors.New("user is not privileged")
)
