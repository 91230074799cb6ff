package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/data-lunch/dlunch/storage/model"
)

func guestConfig(t *testing.T) Config {
	conf := basicAuthConfig()
	conf.Auth.OAuthEncryptionKey = generateKey(t)
	return conf
}

func TestSetGuestUserPasswordNotApplicable(t *testing.T) {
	ba := DefaultBasicAuthConf()
	ba.GuestUser = false
	for name, conf := range map[string]Config{
		"no auth":        {},
		"oauth":          {OAuthProvider: "github"},
		"guest disabled": {BasicAuth: &ba},
	} {
		t.Run(
			name, func(t *testing.T) {
				ac, backends := newTestContext(t, conf)
				p, err := ac.SetGuestUserPassword(nil)
				if err != nil {
					t.Fatalf("SetGuestUserPassword: %v", err)
				}
				if p != "" {
					t.Fatalf("expected empty password, got %q", p)
				}
				if c, _ := backends.Credentials.Get(GuestUsername); c != nil {
					t.Fatal("expected no guest credentials")
				}
			},
		)
	}
}

func TestSetGuestUserPasswordFirstCall(t *testing.T) {
	ac, backends := newTestContext(t, guestConfig(t))
	p, err := ac.SetGuestUserPassword(nil)
	if err != nil {
		t.Fatalf("SetGuestUserPassword: %v", err)
	}
	if len(p) != DefaultGeneratedPswLength {
		t.Fatalf("expected generated password of length %d, got %q", DefaultGeneratedPswLength, p)
	}
	c, err := backends.Credentials.Get(GuestUsername)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c == nil || c.PasswordHash == "" || c.PasswordEncrypted == nil || *c.PasswordEncrypted == "" {
		t.Fatalf("expected hash and encrypted password, got %+v", c)
	}
	flag, err := backends.Flags.Get(model.FlagResetGuestUserPassword)
	if err != nil || flag == nil || *flag {
		t.Fatalf("expected reset flag to be false, got %v (%v)", flag, err)
	}

	// Second call loads the stored password
	again, err := ac.SetGuestUserPassword(nil)
	if err != nil {
		t.Fatalf("SetGuestUserPassword: %v", err)
	}
	if again != p {
		t.Fatalf("expected stored password %q, got %q", p, again)
	}
	hash, err := NewAuthUser(ac, GuestUsername).PasswordHash()
	if err != nil || hash == nil || !hash.Verify(p) {
		t.Fatalf("expected stored hash to verify the guest password (%v)", err)
	}
}

func TestSetGuestUserPasswordDefaultFlagFalse(t *testing.T) {
	conf := guestConfig(t)
	conf.BasicAuth.DefaultResetGuestUserPasswordFlag = false
	ac, backends := newTestContext(t, conf)
	p, err := ac.SetGuestUserPassword(nil)
	if err != nil {
		t.Fatalf("SetGuestUserPassword: %v", err)
	}
	if p != "" {
		t.Fatalf("expected empty password without stored credentials, got %q", p)
	}
	flag, err := backends.Flags.Get(model.FlagResetGuestUserPassword)
	if err != nil || flag == nil || *flag {
		t.Fatalf("expected seeded flag false, got %v (%v)", flag, err)
	}
}

func TestResetGuestUserPassword(t *testing.T) {
	ac, _ := newTestContext(t, guestConfig(t))
	first, err := ac.SetGuestUserPassword(nil)
	if err != nil {
		t.Fatalf("SetGuestUserPassword: %v", err)
	}
	sess := &Notifications{}
	second, err := ac.ResetGuestUserPassword(sess)
	if err != nil {
		t.Fatalf("ResetGuestUserPassword: %v", err)
	}
	if second == "" || second == first {
		t.Fatalf("expected a new password, got %q (old %q)", second, first)
	}
	if len(sess.Messages) != 1 || sess.Messages[0].Level != LevelInfo {
		t.Fatalf("expected an info notification, got %+v", sess.Messages)
	}
	hash, err := NewAuthUser(ac, GuestUsername).PasswordHash()
	if err != nil || hash == nil || !hash.Verify(second) || hash.Verify(first) {
		t.Fatalf("expected stored hash to match the new password (%v)", err)
	}

	ac, _ = newTestContext(t, Config{})
	if _, err = ac.ResetGuestUserPassword(nil); !errors.Is(err, ErrGuestUserDisabled) {
		t.Fatalf("expected ErrGuestUserDisabled, got %v", err)
	}
}

func TestSetGuestUserPasswordInvalidToken(t *testing.T) {
	conf := guestConfig(t)
	backends := newTestBackends(t)
	ac, err := NewAuthContext(conf, backends)
	if err != nil {
		t.Fatalf("NewAuthContext: %v", err)
	}
	if _, err = ac.SetGuestUserPassword(nil); err != nil {
		t.Fatalf("SetGuestUserPassword: %v", err)
	}

	// rotate the key
	conf.Auth.OAuthEncryptionKey = generateKey(t)
	rotated, err := NewAuthContext(conf, backends)
	if err != nil {
		t.Fatalf("NewAuthContext: %v", err)
	}
	sess := &Notifications{}
	p, err := rotated.SetGuestUserPassword(sess)
	if err != nil {
		t.Fatalf("expected invalid token to be recovered, got %v", err)
	}
	if p != "" {
		t.Fatalf("expected empty password, got %q", p)
	}
	if len(sess.Messages) != 1 || sess.Messages[0].Level != LevelWarning ||
		sess.Messages[0].Reason != ReasonInvalidToken {
		t.Fatalf("expected an invalid token warning, got %+v", sess.Messages)
	}
}

type busyLocker struct {
	calls int
}

func (l *busyLocker) TryLock(context.Context, string, time.Duration) (func(), bool, error) {
	l.calls++
	return nil, false, nil
}

func TestSetGuestUserPasswordLockHeldElsewhere(t *testing.T) {
	conf := guestConfig(t)
	backends := newTestBackends(t)
	locker := &busyLocker{}
	ac, err := NewAuthContext(conf, backends, WithLocker(locker))
	if err != nil {
		t.Fatalf("NewAuthContext: %v", err)
	}
	p, err := ac.SetGuestUserPassword(nil)
	if err != nil {
		t.Fatalf("SetGuestUserPassword: %v", err)
	}
	if locker.calls != 1 {
		t.Fatalf("expected one lock attempt, got %d", locker.calls)
	}
	if p != "" {
		t.Fatalf("expected the loser to load the (missing) stored password, got %q", p)
	}
	reset, err := backends.Flags.GetOr(model.FlagResetGuestUserPassword, false)
	if err != nil || !reset {
		t.Fatalf("expected the reset flag to be left for the lock holder, got %v (%v)", reset, err)
	}
}

type hookLocker struct {
	beforeAcquire func()
}

func (l *hookLocker) TryLock(context.Context, string, time.Duration) (func(), bool, error) {
	l.beforeAcquire()
	return func() {}, true, nil
}

func TestSetGuestUserPasswordRegeneratedWhileWaiting(t *testing.T) {
	conf := guestConfig(t)
	backends := newTestBackends(t)
	other, err := NewAuthContext(conf, backends)
	if err != nil {
		t.Fatalf("NewAuthContext: %v", err)
	}
	var otherPassword string
	locker := &hookLocker{
		beforeAcquire: func() {
			// another process regenerates the password while we wait for the lock
			otherPassword, err = other.SetGuestUserPassword(nil)
			if err != nil {
				t.Errorf("SetGuestUserPassword: %v", err)
			}
		},
	}
	ac, err := NewAuthContext(conf, backends, WithLocker(locker))
	if err != nil {
		t.Fatalf("NewAuthContext: %v", err)
	}
	p, err := ac.SetGuestUserPassword(nil)
	if err != nil {
		t.Fatalf("SetGuestUserPassword: %v", err)
	}
	if otherPassword == "" || p != otherPassword {
		t.Fatalf("expected the password generated by the other process %q, got %q", otherPassword, p)
	}
}
