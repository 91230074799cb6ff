package auth

import (
	"regexp"
	"slices"
	"strings"

	"github.com/data-lunch/dlunch/storage/model"
)

var emailRegex = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)

// ResolveUsername normalizes a username as provided by the login form or an
// OAuth provider. If remove_email_domain is set, the domain is stripped from
// email addresses.
func (ac *AuthContext) ResolveUsername(raw string) string {
	if ac.conf.Auth.RemoveEmailDomain && emailRegex.MatchString(raw) {
		user, _, _ := strings.Cut(raw, "@")
		return user
	}
	return raw
}

// AuthUser is the identity of a single request
type AuthUser struct {
	name string
	ac   *AuthContext
}

// NewAuthUser creates a new AuthUser; name may be empty for anonymous users
func NewAuthUser(ac *AuthContext, name string) *AuthUser {
	return &AuthUser{
		name: name,
		ac:   ac,
	}
}

// Name returns the username
func (u *AuthUser) Name() string {
	return u.name
}

// IsGuest returns true if the user is not a privileged user. If
// allowOverride is true, privileged users that set their guest override flag
// are also guests. Nobody is a guest if authentication is not active.
func (u *AuthUser) IsGuest(allowOverride bool) (bool, error) {
	if !u.ac.IsAuthActive() {
		return false, nil
	}
	if allowOverride {
		override, err := u.GuestOverride()
		if err != nil {
			return false, err
		}
		if override {
			return true, nil
		}
	}
	privileged, err := u.ac.stores.PrivilegedUsers.Get(u.name)
	if err != nil {
		return false, err
	}
	return privileged == nil, nil
}

// IsAdmin returns true if the user is a privileged user with admin rights.
// Nobody is admin if authentication is not active.
func (u *AuthUser) IsAdmin() (bool, error) {
	if !u.ac.IsAuthActive() {
		return false, nil
	}
	admins, err := u.ac.stores.PrivilegedUsers.Admins()
	if err != nil {
		return false, err
	}
	return slices.Contains(admins, u.name), nil
}

// PasswordHash returns the stored password hash of the user or nil if the
// user has no credentials
func (u *AuthUser) PasswordHash() (*PasswordHash, error) {
	credential, err := u.ac.stores.Credentials.Get(u.name)
	if err != nil || credential == nil {
		return nil, err
	}
	return u.ac.hasher.Wrap(credential.PasswordHash)
}

// AddPrivilegedUser adds the user to the privileged users or updates its
// admin flag
func (u *AuthUser) AddPrivilegedUser(isAdmin bool) error {
	return u.ac.stores.PrivilegedUsers.Upsert(
		model.PrivilegedUser{
			User:  u.name,
			Admin: isAdmin,
		},
	)
}

// AddUserHashedPassword hashes password and stores it as the user's
// credentials. For the guest user the encrypted password is stored as well,
// so it can be shown to privileged users.
func (u *AuthUser) AddUserHashedPassword(password string) error {
	hash, err := u.ac.hasher.FromString(password)
	if err != nil {
		return err
	}
	credential := model.Credential{
		User:         u.name,
		PasswordHash: hash.String(),
	}
	if u.name == GuestUsername {
		encrypted, err := u.ac.encrypter.FromString(password)
		if err != nil {
			return err
		}
		e := encrypted.String()
		credential.PasswordEncrypted = &e
	}
	return u.ac.stores.Credentials.Upsert(credential)
}

// RemovedRows holds the number of rows deleted by RemoveUser
type RemovedRows struct {
	PrivilegedDeleted  int64 `json:"privileged_users_deleted"`
	CredentialsDeleted int64 `json:"credentials_deleted"`
}

// RemoveUser deletes the user from the privileged users and the credentials
// and drops the user's guest override flag
func (u *AuthUser) RemoveUser() (RemovedRows, error) {
	var removed RemovedRows
	var err error
	removed.PrivilegedDeleted, err = u.ac.stores.PrivilegedUsers.Delete(u.name)
	if err != nil {
		return removed, err
	}
	removed.CredentialsDeleted, err = u.ac.stores.Credentials.Delete(u.name)
	if err != nil {
		return removed, err
	}
	return removed, u.ac.stores.Flags.Delete(model.GuestOverrideFlag(u.name))
}

// RemoveCredentials deletes the user's stored password only and returns the
// number of deleted rows
func (u *AuthUser) RemoveCredentials() (int64, error) {
	return u.ac.stores.Credentials.Delete(u.name)
}

// GuestOverride returns the value of the user's guest override flag; false
// if it is not set
func (u *AuthUser) GuestOverride() (bool, error) {
	return u.ac.stores.Flags.GetOr(model.GuestOverrideFlag(u.name), false)
}

// SetGuestOverride sets the user's guest override flag. Only privileged users
// can act as guests.
func (u *AuthUser) SetGuestOverride(value bool) error {
	privileged, err := u.ac.stores.PrivilegedUsers.Get(u.name)
	if err != nil {
		return err
	}
	if privileged == nil {
		return ErrNotPrivileged
	}
	return u.ac.stores.Flags.Set(model.GuestOverrideFlag(u.name), value)
}

// EnsureGuestOverrideFlag creates the guest override flag for privileged
// users if it does not exist yet. Guests never get the flag.
func (u *AuthUser) EnsureGuestOverrideFlag() error {
	if u.name == "" {
		return nil
	}
	isGuest, err := u.IsGuest(false)
	if err != nil || isGuest {
		return err
	}
	id := model.GuestOverrideFlag(u.name)
	v, err := u.ac.stores.Flags.Get(id)
	if err != nil || v != nil {
		return err
	}
	return u.ac.stores.Flags.Set(id, false)
}
