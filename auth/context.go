package auth

import (
	"slices"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/data-lunch/dlunch/storage/model"
)

// AuthTypeBasic is the auth type reported when basic auth is active
const AuthTypeBasic = "basic"

// Group classifies a user
type Group string

// User groups
const (
	GroupAdmin Group = "admin"
	GroupUser  Group = "user"
	GroupGuest Group = "guest"
)

// UserPrivilege is a user together with its group
type UserPrivilege struct {
	User  string `json:"user"`
	Group Group  `json:"group"`
}

// AuthContext holds everything needed for authentication and authorization
// decisions. It does not hold any per-user state; all user state is read
// from the stores on every call.
type AuthContext struct {
	conf         Config
	stores       model.Backends
	hasher       *Hasher
	encrypter    *Encrypter
	pswPolicy    *regexp2.Regexp
	locker       Locker
	cookieExpiry time.Duration
}

// Option configures an AuthContext
type Option func(*AuthContext)

// WithLocker sets the Locker used to guard the guest password regeneration
func WithLocker(l Locker) Option {
	return func(ac *AuthContext) {
		if l != nil {
			ac.locker = l
		}
	}
}

// NewAuthContext creates a new AuthContext
func NewAuthContext(conf Config, stores model.Backends, opts ...Option) (*AuthContext, error) {
	pswRegex := DefaultPswRegex
	if conf.BasicAuth != nil && conf.BasicAuth.PswRegex != "" {
		pswRegex = conf.BasicAuth.PswRegex
	}
	policy, err := compilePasswordPolicy(pswRegex)
	if err != nil {
		return nil, errors.Wrap(err, "invalid password regex")
	}
	if err = conf.Auth.PasswordHashing.Validate(); err != nil {
		return nil, err
	}
	ac := &AuthContext{
		conf:      conf,
		stores:    stores,
		hasher:    NewHasher(conf.Auth.PasswordHashing),
		encrypter: &Encrypter{},
		pswPolicy: policy,
		locker:    noopLocker{},
	}
	for _, opt := range opts {
		opt(ac)
	}
	ac.SetAppAuthAndEncryption()
	return ac, nil
}

// IsBasicAuthActive returns true if basic authentication is configured
func (ac *AuthContext) IsBasicAuthActive() bool {
	return ac.conf.BasicAuth != nil
}

// IsAuthActive returns true if basic authentication or an OAuth provider is
// configured
func (ac *AuthContext) IsAuthActive() bool {
	return ac.IsBasicAuthActive() || ac.conf.OAuthProvider != ""
}

// AuthType returns "basic", the name of the OAuth provider, or "" if
// authentication is not active
func (ac *AuthContext) AuthType() string {
	if ac.IsBasicAuthActive() {
		return AuthTypeBasic
	}
	return ac.conf.OAuthProvider
}

// SetAppAuthAndEncryption sets up the encryption key and the cookie expiry.
// Missing or invalid values only produce warnings; the defaults are no
// encryption and a cookie expiry of one day.
func (ac *AuthContext) SetAppAuthAndEncryption() {
	ac.encrypter = &Encrypter{}
	if key := ac.conf.Auth.OAuthEncryptionKey; key == "" {
		log.Warn(
			"missing authentication encryption key, generate a key with `dlcli secret` " +
				"and provide it with the DATA_LUNCH_OAUTH_ENC_KEY environment variable",
		)
	} else if enc, err := NewEncrypter(key); err != nil {
		log.WithError(err).Warn("invalid authentication encryption key, encryption disabled")
	} else {
		ac.encrypter = enc
	}

	ac.cookieExpiry = ac.conf.Auth.OAuthExpiry.Duration()
	if ac.cookieExpiry <= 0 {
		log.Warn("missing explicit authentication expiry date for cookies, defaults to 1 day")
		ac.cookieExpiry = DefaultCookieExpiry
	}
}

// Config returns the static configuration
func (ac *AuthContext) Config() Config {
	return ac.conf
}

// Hasher returns the password Hasher
func (ac *AuthContext) Hasher() *Hasher {
	return ac.hasher
}

// Encrypter returns the Encrypter
func (ac *AuthContext) Encrypter() *Encrypter {
	return ac.encrypter
}

// CookieExpiry returns the lifetime of session cookies
func (ac *AuthContext) CookieExpiry() time.Duration {
	return ac.cookieExpiry
}

// PasswordMatchesPolicy checks password against the complexity regex
func (ac *AuthContext) PasswordMatchesPolicy(password string) bool {
	ok, err := ac.pswPolicy.MatchString(password)
	if err != nil {
		log.WithError(err).Warn("error while checking password policy")
		return false
	}
	return ok
}

// ListPrivilegedUsers returns the sorted names of all privileged users
func (ac *AuthContext) ListPrivilegedUsers() ([]string, error) {
	privileged, err := ac.stores.PrivilegedUsers.List()
	if err != nil {
		return nil, err
	}
	users := make([]string, len(privileged))
	for i, u := range privileged {
		users[i] = u.User
	}
	slices.Sort(users)
	return users, nil
}

// ListUsersGuestsAndPrivileges lists all known users with their group.
// Users with credentials but without privileges are guests. Credentials are
// ignored if basic auth is not active.
func (ac *AuthContext) ListUsersGuestsAndPrivileges() ([]UserPrivilege, error) {
	privileged, err := ac.stores.PrivilegedUsers.List()
	if err != nil {
		return nil, err
	}
	groups := make(map[string]Group, len(privileged))
	for _, u := range privileged {
		if u.Admin {
			groups[u.User] = GroupAdmin
		} else {
			groups[u.User] = GroupUser
		}
	}
	if ac.IsBasicAuthActive() {
		withCredentials, err := ac.stores.Credentials.List()
		if err != nil {
			return nil, err
		}
		for _, u := range withCredentials {
			if _, ok := groups[u]; !ok {
				groups[u] = GroupGuest
			}
		}
	}
	users := make([]UserPrivilege, 0, len(groups))
	for u, g := range groups {
		users = append(
			users, UserPrivilege{
				User:  u,
				Group: g,
			},
		)
	}
	slices.SortFunc(
		users, func(a, b UserPrivilege) int {
			return strings.Compare(a.User, b.User)
		},
	)
	return users, nil
}
