package storage

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	dsn := fmt.Sprintf("file:storage_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), gormConfig(false))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	s, err := NewStorageFromDB(db)
	if err != nil {
		t.Fatalf("NewStorageFromDB: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}
