package auth

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/zachmann/go-utils/duration"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/data-lunch/dlunch/storage"
	"github.com/data-lunch/dlunch/storage/model"
)

var testDBCounter atomic.Int64

func newTestBackends(t *testing.T) model.Backends {
	t.Helper()
	dsn := fmt.Sprintf("file:auth_%d?mode=memory&cache=shared", testDBCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	s, err := storage.NewStorageFromDB(db)
	if err != nil {
		t.Fatalf("NewStorageFromDB: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s.Backends()
}

func basicAuthConfig() Config {
	ba := DefaultBasicAuthConf()
	return Config{
		Auth: Conf{
			OAuthExpiry: duration.DurationOption(time.Hour),
		},
		BasicAuth: &ba,
	}
}

func newTestContext(t *testing.T, conf Config) (*AuthContext, model.Backends) {
	t.Helper()
	backends := newTestBackends(t)
	ac, err := NewAuthContext(conf, backends)
	if err != nil {
		t.Fatalf("NewAuthContext: %v", err)
	}
	return ac, backends
}

func mustAddPrivileged(t *testing.T, ac *AuthContext, user string, admin bool) {
	t.Helper()
	if err := NewAuthUser(ac, user).AddPrivilegedUser(admin); err != nil {
		t.Fatalf("AddPrivilegedUser(%s): %v", user, err)
	}
}

func mustAddPassword(t *testing.T, ac *AuthContext, user, password string) {
	t.Helper()
	if err := NewAuthUser(ac, user).AddUserHashedPassword(password); err != nil {
		t.Fatalf("AddUserHashedPassword(%s): %v", user, err)
	}
}
