package storage

import (
	"strings"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/data-lunch/dlunch/storage/model"
)

// FlagsStorage implements model.FlagsStore using GORM.
type FlagsStorage struct {
	db *gorm.DB
}

// Get returns the value of a flag. If not found, returns nil, nil.
func (s *FlagsStorage) Get(id string) (*bool, error) {
	var f model.Flag
	if err := s.db.Where("id = ?", id).First(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, errors.Wrapf(err, "failed to get flag '%s'", id)
	}
	return &f.Value, nil
}

// GetOr returns the value of a flag or valueIfMissing if the flag does not
// exist
func (s *FlagsStorage) GetOr(id string, valueIfMissing bool) (bool, error) {
	v, err := s.Get(id)
	if err != nil {
		return false, err
	}
	if v == nil {
		return valueIfMissing, nil
	}
	return *v, nil
}

// Set upserts the value of a flag.
func (s *FlagsStorage) Set(id string, value bool) error {
	if id == "" {
		return errors.New("flag id is required")
	}
	f := model.Flag{
		ID:    id,
		Value: value,
	}
	return errors.Wrapf(
		upsertByKey(s.db, &f, []string{"id"}, []string{"value"}),
		"failed to set flag '%s'", id,
	)
}

// Delete removes a flag. No error if it's missing.
func (s *FlagsStorage) Delete(id string) error {
	return errors.Wrapf(
		s.db.Where("id = ?", id).Delete(&model.Flag{}).Error,
		"failed to delete flag '%s'", id,
	)
}

// List returns all flags sorted by id
func (s *FlagsStorage) List() ([]model.Flag, error) {
	var flags []model.Flag
	if err := s.db.Order("id").Find(&flags).Error; err != nil {
		return nil, errors.Wrap(err, "failed to list flags")
	}
	return flags, nil
}

// DeleteBySuffix removes all flags whose id ends with suffix.
// The match is done in go since '_' is a LIKE wildcard and escaping differs
// between engines.
func (s *FlagsStorage) DeleteBySuffix(suffix string) (deleted int64, err error) {
	err = s.db.Transaction(
		func(tx *gorm.DB) error {
			var ids []string
			if err := tx.Model(&model.Flag{}).Pluck("id", &ids).Error; err != nil {
				return err
			}
			var matching []string
			for _, id := range ids {
				if strings.HasSuffix(id, suffix) {
					matching = append(matching, id)
				}
			}
			if len(matching) == 0 {
				return nil
			}
			res := tx.Where("id IN ?", matching).Delete(&model.Flag{})
			deleted = res.RowsAffected
			return res.Error
		},
	)
	err = errors.Wrap(err, "failed to delete flags")
	return
}

// Clear removes all flags
func (s *FlagsStorage) Clear() (int64, error) {
	res := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&model.Flag{})
	if res.Error != nil {
		return 0, errors.Wrap(res.Error, "failed to clear flags")
	}
	return res.RowsAffected, nil
}
