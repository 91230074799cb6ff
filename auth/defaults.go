package auth

import (
	log "github.com/sirupsen/logrus"
)

// Default basic auth accounts created by AddDefaultUsers
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin"
	DefaultGuestPassword = "guest"
)

// AddDefaultUsers creates the default basic auth accounts: an admin and, if
// the guest user is active, the guest. Accounts that already have a password
// are not touched. It returns the names of the created accounts.
func (ac *AuthContext) AddDefaultUsers() ([]string, error) {
	if !ac.IsBasicAuthActive() {
		return nil, nil
	}
	type account struct {
		name, password string
		privileged     bool
	}
	accounts := []account{
		{DefaultAdminUsername, DefaultAdminPassword, true},
	}
	if ac.IsGuestUserActive() {
		accounts = append(accounts, account{GuestUsername, DefaultGuestPassword, false})
	}
	var created []string
	for _, a := range accounts {
		user := NewAuthUser(ac, a.name)
		hash, err := user.PasswordHash()
		if err != nil {
			return created, err
		}
		if hash != nil {
			log.WithField("user", a.name).Debug("default user already exists")
			continue
		}
		if a.privileged {
			if err = user.AddPrivilegedUser(true); err != nil {
				return created, err
			}
		}
		if err = user.AddUserHashedPassword(a.password); err != nil {
			return created, err
		}
		log.WithField("user", a.name).Warn("created default user with a default password, change it")
		created = append(created, a.name)
	}
	return created, nil
}
