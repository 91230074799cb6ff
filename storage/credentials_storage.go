package storage

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/data-lunch/dlunch/storage/model"
)

// CredentialsStorage implements model.CredentialsStore using GORM
type CredentialsStorage struct {
	db *gorm.DB
}

// Get returns the credential of a user. If not found, returns nil, nil.
func (s *CredentialsStorage) Get(user string) (*model.Credential, error) {
	var c model.Credential
	if err := s.db.Where(byUser(user)).First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get credentials")
	}
	return &c, nil
}

// List returns the usernames of all stored credentials, sorted
func (s *CredentialsStorage) List() ([]string, error) {
	var credentials []model.Credential
	if err := s.db.Order(orderByUser).Find(&credentials).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list credentials")
	}
	users := make([]string, len(credentials))
	for i, c := range credentials {
		users[i] = c.User
	}
	return users, nil
}

// Upsert creates or replaces the credential of a user.
// A nil PasswordEncrypted clears a previously stored encrypted password.
func (s *CredentialsStorage) Upsert(credential model.Credential) error {
	if credential.User == "" {
		return errors.New("username is required")
	}
	if l := len(credential.PasswordHash); l > model.MaxSecretLength {
		return model.TooLongError{Field: "password_hash", Max: model.MaxSecretLength, Len: l}
	}
	if credential.PasswordEncrypted != nil {
		if l := len(*credential.PasswordEncrypted); l > model.MaxSecretLength {
			return model.TooLongError{Field: "password_encrypted", Max: model.MaxSecretLength, Len: l}
		}
	}
	return errors.Wrap(
		upsertByKey(
			s.db, &credential, []string{"user"}, []string{
				"password_hash",
				"password_encrypted",
			},
		), "failed to store credentials",
	)
}

// Delete removes the credential of a user and returns the number of deleted rows
func (s *CredentialsStorage) Delete(user string) (int64, error) {
	res := s.db.Where(byUser(user)).Delete(&model.Credential{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "failed to delete credentials")
	}
	return res.RowsAffected, nil
}
