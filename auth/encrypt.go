package auth

import (
	"github.com/fernet/fernet-go"
	"github.com/pkg/errors"

	"github.com/data-lunch/dlunch/storage/model"
)

// Encrypter encrypts and decrypts strings with a Fernet key.
// Without a key it passes values through unchanged.
type Encrypter struct {
	keys []*fernet.Key
}

// NewEncrypter creates an Encrypter from a base64 encoded Fernet key. An
// empty key returns a pass-through Encrypter.
func NewEncrypter(key string) (*Encrypter, error) {
	if key == "" {
		return &Encrypter{}, nil
	}
	k, err := fernet.DecodeKey(key)
	if err != nil {
		return nil, errors.Wrap(err, "invalid encryption key")
	}
	return &Encrypter{keys: []*fernet.Key{k}}, nil
}

// Active returns true if a key is configured
func (e *Encrypter) Active() bool {
	return len(e.keys) > 0
}

// Encrypt encrypts plain
func (e *Encrypter) Encrypt(plain string) (string, error) {
	if !e.Active() {
		return plain, nil
	}
	tok, err := fernet.EncryptAndSign([]byte(plain), e.keys[0])
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(tok), nil
}

// Decrypt decrypts a token created by Encrypt. It returns ErrInvalidToken if
// the token cannot be decrypted with the configured key.
func (e *Encrypter) Decrypt(cipher string) (string, error) {
	if !e.Active() {
		return cipher, nil
	}
	msg := fernet.VerifyAndDecrypt([]byte(cipher), -1, e.keys)
	if msg == nil {
		return "", errors.WithStack(ErrInvalidToken)
	}
	return string(msg), nil
}

// Wrap wraps an already encrypted value
func (e *Encrypter) Wrap(cipher string) (*PasswordEncrypt, error) {
	if len(cipher) > model.MaxSecretLength {
		return nil, errors.WithStack(ErrEncryptedTooLong)
	}
	return &PasswordEncrypt{
		encrypted: cipher,
		enc:       e,
	}, nil
}

// FromString encrypts password and wraps the result
func (e *Encrypter) FromString(password string) (*PasswordEncrypt, error) {
	cipher, err := e.Encrypt(password)
	if err != nil {
		return nil, err
	}
	return e.Wrap(cipher)
}

// PasswordEncrypt is a reversibly encrypted password
type PasswordEncrypt struct {
	encrypted string
	enc       *Encrypter
}

// String returns the stored ciphertext
func (p *PasswordEncrypt) String() string {
	return p.encrypted
}

// Decrypt returns the plain password
func (p *PasswordEncrypt) Decrypt() (string, error) {
	return p.enc.Decrypt(p.encrypted)
}

// Equal checks if candidate is a string equal to the decrypted password
func (p *PasswordEncrypt) Equal(candidate any) bool {
	s, ok := candidate.(string)
	if !ok {
		return false
	}
	plain, err := p.Decrypt()
	if err != nil {
		return false
	}
	return plain == s
}
