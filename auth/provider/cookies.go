package provider

import (
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"

	"github.com/data-lunch/dlunch/auth"
)

// Cookie names
const (
	UserCookie    = "user"
	IDTokenCookie = "id_token"
)

var errInvalidCookie = errors.New("invalid session cookie")

// idTokenClaims carries the identity token. Token is the base64url encoded
// JSON identity, encrypted if an encryption key is configured.
type idTokenClaims struct {
	Token string `json:"token"`
	jwt.RegisteredClaims
}

type identity struct {
	User string `json:"user"`
}

type cookieSigner struct {
	secret    []byte
	encrypter *auth.Encrypter
	expiry    time.Duration
}

func (s cookieSigner) sign(claims jwt.Claims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s cookieSigner) keyFunc(t *jwt.Token) (any, error) {
	if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, errInvalidCookie
	}
	return s.secret, nil
}

func (s cookieSigner) registeredClaims(subject string) jwt.RegisteredClaims {
	now := time.Now().UTC()
	return jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.expiry)),
	}
}

// userCookie returns the signed value of the user cookie
func (s cookieSigner) userCookie(user string) (string, error) {
	return s.sign(s.registeredClaims(user))
}

// idTokenCookie returns the signed value of the id_token cookie
func (s cookieSigner) idTokenCookie(user string) (string, error) {
	data, err := json.Marshal(identity{User: user})
	if err != nil {
		return "", errors.WithStack(err)
	}
	token, err := s.encrypter.Encrypt(base64.RawURLEncoding.EncodeToString(data))
	if err != nil {
		return "", err
	}
	return s.sign(
		idTokenClaims{
			Token:            token,
			RegisteredClaims: s.registeredClaims(""),
		},
	)
}

// parseUserCookie verifies the user cookie and returns the username
func (s cookieSigner) parseUserCookie(value string) (string, error) {
	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(
		value, &claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return "", errors.Wrap(errInvalidCookie, "user")
	}
	return claims.Subject, nil
}

// parseIDTokenCookie verifies and decodes the id_token cookie and returns
// the username
func (s cookieSigner) parseIDTokenCookie(value string) (string, error) {
	var claims idTokenClaims
	token, err := jwt.ParseWithClaims(
		value, &claims, s.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return "", errors.Wrap(errInvalidCookie, "id_token")
	}
	encoded, err := s.encrypter.Decrypt(claims.Token)
	if err != nil {
		return "", err
	}
	data, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", errors.Wrap(errInvalidCookie, "id_token")
	}
	var id identity
	if err = json.Unmarshal(data, &id); err != nil {
		return "", errors.Wrap(errInvalidCookie, "id_token")
	}
	return id.User, nil
}
