package auth

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/data-lunch/dlunch/storage/model"
)

// GuestUsername is the name of the shared guest account
const GuestUsername = "guest"

// IsGuestUserActive returns true if basic auth and the guest user are enabled
func (ac *AuthContext) IsGuestUserActive() bool {
	return ac.IsBasicAuthActive() && ac.conf.BasicAuth.GuestUser
}

// SetGuestUserPassword returns the guest user password. It returns an empty
// string if basic auth or the guest user are disabled.
//
// If the reset_guest_user_password flag is set, a new password is generated
// and stored; otherwise the stored one is decrypted. The flag is turned off
// before the new password is written, so concurrent callers load the stored
// password instead of generating another one. If a Locker is configured the
// regeneration is additionally guarded by it.
// A password that cannot be decrypted is not an error; an empty string is
// returned and a warning is sent to sess.
func (ac *AuthContext) SetGuestUserPassword(sess Session) (string, error) {
	if !ac.IsGuestUserActive() {
		log.Debug("guest user not applicable")
		return "", nil
	}
	flags := ac.stores.Flags
	reset, err := flags.Get(model.FlagResetGuestUserPassword)
	if err != nil {
		return "", err
	}
	if reset == nil {
		v := ac.conf.BasicAuth.DefaultResetGuestUserPasswordFlag
		if err = flags.Set(model.FlagResetGuestUserPassword, v); err != nil {
			return "", err
		}
		reset = &v
	}
	if *reset {
		password, regenerated, err := ac.regenerateGuestPassword()
		if err != nil {
			return "", err
		}
		if regenerated {
			notify(sess, LevelInfo, "", "New guest password generated")
			return password, nil
		}
	}
	return ac.loadGuestPassword(sess)
}

// ResetGuestUserPassword forces a new guest password and returns it
func (ac *AuthContext) ResetGuestUserPassword(sess Session) (string, error) {
	if !ac.IsGuestUserActive() {
		return "", errors.WithStack(ErrGuestUserDisabled)
	}
	if err := ac.stores.Flags.Set(model.FlagResetGuestUserPassword, true); err != nil {
		return "", err
	}
	return ac.SetGuestUserPassword(sess)
}

func (ac *AuthContext) regenerateGuestPassword() (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), lockTimeout)
	release, acquired, err := ac.locker.TryLock(ctx, guestPasswordLockKey, guestPasswordLockTTL)
	cancel()
	if err != nil {
		return "", false, err
	}
	if !acquired {
		log.Debug("guest password is being regenerated elsewhere, loading stored password")
		return "", false, nil
	}
	defer release()

	// The flag might have been turned off while waiting for the lock
	reset, err := ac.stores.Flags.GetOr(model.FlagResetGuestUserPassword, false)
	if err != nil || !reset {
		return "", false, err
	}
	// Turning off the flag is the first write
	if err = ac.stores.Flags.Set(model.FlagResetGuestUserPassword, false); err != nil {
		return "", false, err
	}
	password, err := GeneratePassword("", ac.conf.BasicAuth.PswSpecialChars, ac.conf.BasicAuth.GeneratedPswLength)
	if err != nil {
		return "", false, err
	}
	if err = NewAuthUser(ac, GuestUsername).AddUserHashedPassword(password); err != nil {
		return "", false, err
	}
	log.Info("generated new guest user password")
	return password, true, nil
}

func (ac *AuthContext) loadGuestPassword(sess Session) (string, error) {
	credential, err := ac.stores.Credentials.Get(GuestUsername)
	if err != nil {
		return "", err
	}
	if credential == nil || credential.PasswordEncrypted == nil {
		log.Warn("no stored password for the 'guest' user: reset password from backend")
		return "", nil
	}
	encrypted, err := ac.encrypter.Wrap(*credential.PasswordEncrypted)
	if err != nil {
		return "", err
	}
	password, err := encrypted.Decrypt()
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			log.Warn(
				"Unable to decrypt 'guest' user password because an invalid token has been detected: " +
					"reset password from backend",
			)
			notify(
				sess, LevelWarning, ReasonInvalidToken,
				"Unable to decrypt 'guest' user password, invalid token detected: reset password from backend",
			)
			return "", nil
		}
		return "", err
	}
	return password, nil
}
