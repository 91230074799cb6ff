package auth

import (
	"reflect"
	"testing"
	"time"

	"gopkg.in/yaml.v3"
)

func TestAuthModes(t *testing.T) {
	ba := DefaultBasicAuthConf()
	tests := []struct {
		name       string
		conf       Config
		basic      bool
		active     bool
		expectType string
	}{
		{
			name:       "no auth",
			conf:       Config{},
			expectType: "",
		},
		{
			name:       "basic",
			conf:       Config{BasicAuth: &ba},
			basic:      true,
			active:     true,
			expectType: AuthTypeBasic,
		},
		{
			name:       "oauth",
			conf:       Config{OAuthProvider: "github"},
			active:     true,
			expectType: "github",
		},
		{
			name: "basic wins over oauth",
			conf: Config{
				BasicAuth:     &ba,
				OAuthProvider: "github",
			},
			basic:      true,
			active:     true,
			expectType: AuthTypeBasic,
		},
	}
	for _, test := range tests {
		t.Run(
			test.name, func(t *testing.T) {
				ac, _ := newTestContext(t, test.conf)
				if ac.IsBasicAuthActive() != test.basic {
					t.Errorf("IsBasicAuthActive: expected %v", test.basic)
				}
				if ac.IsAuthActive() != test.active {
					t.Errorf("IsAuthActive: expected %v", test.active)
				}
				if ac.AuthType() != test.expectType {
					t.Errorf("AuthType: expected %q, got %q", test.expectType, ac.AuthType())
				}
			},
		)
	}
}

func TestSetAppAuthAndEncryptionDefaults(t *testing.T) {
	ac, _ := newTestContext(t, Config{Auth: Conf{OAuthEncryptionKey: "invalid"}})
	if ac.Encrypter().Active() {
		t.Error("expected encryption to be disabled for an invalid key")
	}
	if ac.CookieExpiry() != DefaultCookieExpiry {
		t.Errorf("expected default cookie expiry, got %s", ac.CookieExpiry())
	}

	conf := basicAuthConfig()
	conf.Auth.OAuthEncryptionKey = generateKey(t)
	ac, _ = newTestContext(t, conf)
	if !ac.Encrypter().Active() {
		t.Error("expected encryption to be enabled")
	}
	if ac.CookieExpiry() != time.Hour {
		t.Errorf("expected cookie expiry of 1h, got %s", ac.CookieExpiry())
	}
}

func TestNewAuthContextInvalidRegex(t *testing.T) {
	conf := basicAuthConfig()
	conf.BasicAuth.PswRegex = "(unclosed"
	if _, err := NewAuthContext(conf, newTestBackends(t)); err == nil {
		t.Fatal("expected error for invalid password regex")
	}
}

func TestPasswordMatchesPolicy(t *testing.T) {
	ac, _ := newTestContext(t, basicAuthConfig())
	tests := map[string]bool{
		"NewPass1!":      true,
		"newpass1!":      false,
		"NEWPASS1!":      false,
		"NewPass!!":      false,
		"NewPass11":      false,
		"Np1!":           false,
		"Long-Passw0rd=": true,
	}
	for password, expected := range tests {
		if got := ac.PasswordMatchesPolicy(password); got != expected {
			t.Errorf("%q: expected %v, got %v", password, expected, got)
		}
	}
}

func TestPasswordPolicyIsFullMatch(t *testing.T) {
	conf := basicAuthConfig()
	conf.BasicAuth.PswRegex = `[a-z]+`
	ac, _ := newTestContext(t, conf)
	if !ac.PasswordMatchesPolicy("abc") {
		t.Error("expected abc to match")
	}
	if ac.PasswordMatchesPolicy("abc1") {
		t.Error("expected partial matches to be rejected")
	}
}

func TestListPrivilegedUsers(t *testing.T) {
	ac, _ := newTestContext(t, basicAuthConfig())
	mustAddPrivileged(t, ac, "carol", false)
	mustAddPrivileged(t, ac, "alice", true)
	mustAddPrivileged(t, ac, "bob", false)
	users, err := ac.ListPrivilegedUsers()
	if err != nil {
		t.Fatalf("ListPrivilegedUsers: %v", err)
	}
	if !reflect.DeepEqual(users, []string{"alice", "bob", "carol"}) {
		t.Fatalf("unexpected users: %v", users)
	}
}

func TestListUsersGuestsAndPrivileges(t *testing.T) {
	setup := func(ac *AuthContext) {
		mustAddPrivileged(t, ac, "alice", true)
		mustAddPrivileged(t, ac, "bob", false)
		mustAddPassword(t, ac, "bob", "pw")
		mustAddPassword(t, ac, "guest", "pw")
		mustAddPassword(t, ac, "dave", "pw")
	}

	ac, _ := newTestContext(t, basicAuthConfig())
	setup(ac)
	users, err := ac.ListUsersGuestsAndPrivileges()
	if err != nil {
		t.Fatalf("ListUsersGuestsAndPrivileges: %v", err)
	}
	expected := []UserPrivilege{
		{User: "alice", Group: GroupAdmin},
		{User: "bob", Group: GroupUser},
		{User: "dave", Group: GroupGuest},
		{User: "guest", Group: GroupGuest},
	}
	if !reflect.DeepEqual(users, expected) {
		t.Fatalf("unexpected users: %+v", users)
	}

	ac, _ = newTestContext(t, Config{OAuthProvider: "github"})
	setup(ac)
	users, err = ac.ListUsersGuestsAndPrivileges()
	if err != nil {
		t.Fatalf("ListUsersGuestsAndPrivileges: %v", err)
	}
	expected = []UserPrivilege{
		{User: "alice", Group: GroupAdmin},
		{User: "bob", Group: GroupUser},
	}
	if !reflect.DeepEqual(users, expected) {
		t.Fatalf("credentials must be ignored without basic auth, got %+v", users)
	}
}

func TestBasicAuthConfUnmarshalYAML(t *testing.T) {
	var conf struct {
		BasicAuth *BasicAuthConf `yaml:"basic_auth"`
	}
	if err := yaml.Unmarshal([]byte("basic_auth:\n  guest_user: false\n"), &conf); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if conf.BasicAuth == nil {
		t.Fatal("expected basic auth to be enabled")
	}
	if conf.BasicAuth.GuestUser {
		t.Fatal("expected guest user to be disabled")
	}
	if !conf.BasicAuth.AuthorizeGuestUsers || conf.BasicAuth.PswRegex != DefaultPswRegex {
		t.Fatalf("expected defaults to be kept: %+v", conf.BasicAuth)
	}

	conf.BasicAuth = nil
	if err := yaml.Unmarshal([]byte("other: 1\n"), &conf); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if conf.BasicAuth != nil {
		t.Fatal("expected basic auth to be disabled")
	}
}
