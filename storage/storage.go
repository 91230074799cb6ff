package storage

import (
	"fmt"

	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/data-lunch/dlunch/storage/model"
)

// Storage is a GORM-based storage implementation
type Storage struct {
	db *gorm.DB
}

var models = []any{
	&model.Credential{},
	&model.PrivilegedUser{},
	&model.Flag{},
}

// NewStorage creates a new GORM-based storage
func NewStorage(config Config) (*Storage, error) {
	db, err := Connect(config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return NewStorageFromDB(db)
}

// NewStorageFromDB creates a storage on top of an already opened connection
// and migrates the schemas
func NewStorageFromDB(db *gorm.DB) (*Storage, error) {
	if err := db.AutoMigrate(models...); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Storage{db: db}, nil
}

// Backends returns all stores grouped in a model.Backends
func (s *Storage) Backends() model.Backends {
	return model.Backends{
		Credentials:     s.CredentialsStorage(),
		PrivilegedUsers: s.PrivilegedUsersStorage(),
		Flags:           s.FlagsStorage(),
	}
}

// CredentialsStorage returns a CredentialsStorage
func (s *Storage) CredentialsStorage() *CredentialsStorage {
	return &CredentialsStorage{db: s.db}
}

// PrivilegedUsersStorage returns a PrivilegedUsersStorage
func (s *Storage) PrivilegedUsersStorage() *PrivilegedUsersStorage {
	return &PrivilegedUsersStorage{db: s.db}
}

// FlagsStorage returns a FlagsStorage
func (s *Storage) FlagsStorage() *FlagsStorage {
	return &FlagsStorage{db: s.db}
}

// Clean removes all rows from the flags table. Users and credentials are kept.
func (s *Storage) Clean() (int64, error) {
	return s.FlagsStorage().Clear()
}

// Drop drops all tables managed by this storage
func (s *Storage) Drop() error {
	return errors.Wrap(s.db.Migrator().DropTable(models...), "failed to drop tables")
}

// Close closes the underlying database connection
func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// upsertByKey inserts record; if a row with the same key columns already
// exists the update columns are replaced instead. This is a single native
// INSERT ... ON CONFLICT statement on every supported driver.
func upsertByKey(db *gorm.DB, record any, keys []string, updates []string) error {
	columns := make([]clause.Column, len(keys))
	for i, k := range keys {
		columns[i] = clause.Column{Name: k}
	}
	return db.Clauses(
		clause.OnConflict{
			Columns:   columns,
			DoUpdates: clause.AssignmentColumns(updates),
		},
	).Create(record).Error
}

// byUser returns a quoted equality condition on the user column ("user" is a
// reserved word on some engines)
func byUser(user string) clause.Expression {
	return clause.Eq{
		Column: clause.Column{Name: "user"},
		Value:  user,
	}
}
