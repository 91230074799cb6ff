package auth

import (
	"crypto/rand"
	"math/big"
	"strings"
	"unicode"

	"github.com/pkg/errors"
)

const (
	asciiLetters = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	digits       = "0123456789"
)

// GeneratePassword returns a random password of the given length that
// contains at least one lowercase letter, one uppercase letter, one digit
// and, if specialChars is not empty, one of specialChars.
// If alphabet is empty, ASCII letters, digits and specialChars are used.
// Passwords are drawn until one satisfies the requirements; alphabets that
// can never satisfy them are rejected upfront.
func GeneratePassword(alphabet, specialChars string, length int) (string, error) {
	if alphabet == "" {
		alphabet = asciiLetters + digits + specialChars
	}
	if err := checkPasswordPolicy(alphabet, specialChars, length); err != nil {
		return "", err
	}
	runes := []rune(alphabet)
	size := big.NewInt(int64(len(runes)))
	password := make([]rune, length)
	for {
		for i := range password {
			n, err := rand.Int(rand.Reader, size)
			if err != nil {
				return "", errors.WithStack(err)
			}
			password[i] = runes[n.Int64()]
		}
		if satisfiesPasswordPolicy(password, specialChars) {
			return string(password), nil
		}
	}
}

// checkPasswordPolicy checks that passwords of the given length drawn from
// alphabet can satisfy the requirements. An empty alphabet means the
// default one.
func checkPasswordPolicy(alphabet, specialChars string, length int) error {
	if alphabet == "" {
		alphabet = asciiLetters + digits + specialChars
	}
	required := 3
	if specialChars != "" {
		required++
	}
	if length < required {
		return errors.Wrapf(ErrPasswordTooShort, "length %d, at least %d required", length, required)
	}
	var lower, upper, digit, special bool
	for _, c := range alphabet {
		lower = lower || unicode.IsLower(c)
		upper = upper || unicode.IsUpper(c)
		digit = digit || unicode.IsDigit(c)
		special = special || strings.ContainsRune(specialChars, c)
	}
	if !lower || !upper || !digit || (specialChars != "" && !special) {
		return errors.WithStack(ErrUnsatisfiableAlphabet)
	}
	return nil
}

func satisfiesPasswordPolicy(password []rune, specialChars string) bool {
	var lower, upper, digit bool
	special := specialChars == ""
	for _, c := range password {
		lower = lower || unicode.IsLower(c)
		upper = upper || unicode.IsUpper(c)
		digit = digit || unicode.IsDigit(c)
		special = special || strings.ContainsRune(specialChars, c)
	}
	return lower && upper && digit && special
}
