package storage

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/data-lunch/dlunch/storage/model"
)

// PrivilegedUsersStorage implements model.PrivilegedUsersStore using GORM
type PrivilegedUsersStorage struct {
	db *gorm.DB
}

var orderByUser = clause.OrderByColumn{Column: clause.Column{Name: "user"}}

// Get returns the privileged user. If not found, returns nil, nil.
func (s *PrivilegedUsersStorage) Get(user string) (*model.PrivilegedUser, error) {
	var u model.PrivilegedUser
	if err := s.db.Where(byUser(user)).First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "failed to get privileged user")
	}
	return &u, nil
}

// List returns all privileged users sorted by username
func (s *PrivilegedUsersStorage) List() ([]model.PrivilegedUser, error) {
	var users []model.PrivilegedUser
	if err := s.db.Order(orderByUser).Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list privileged users")
	}
	return users, nil
}

// Admins returns the usernames of all admins, sorted
func (s *PrivilegedUsersStorage) Admins() ([]string, error) {
	var users []model.PrivilegedUser
	if err := s.db.Where(&model.PrivilegedUser{Admin: true}).
		Order(orderByUser).
		Find(&users).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list admins")
	}
	admins := make([]string, len(users))
	for i, u := range users {
		admins[i] = u.User
	}
	return admins, nil
}

// Upsert creates or replaces a privileged user
func (s *PrivilegedUsersStorage) Upsert(user model.PrivilegedUser) error {
	if user.User == "" {
		return errors.New("username is required")
	}
	return errors.Wrap(
		upsertByKey(s.db, &user, []string{"user"}, []string{"admin"}),
		"failed to store privileged user",
	)
}

// Delete removes a privileged user and returns the number of deleted rows
func (s *PrivilegedUsersStorage) Delete(user string) (int64, error) {
	res := s.db.Where(byUser(user)).Delete(&model.PrivilegedUser{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "failed to delete privileged user")
	}
	return res.RowsAffected, nil
}
