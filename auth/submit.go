package auth

import (
	"fmt"

	log "github.com/sirupsen/logrus"
)

// PasswordForm holds the inputs of a password change
type PasswordForm struct {
	User              string `json:"user" form:"user"`
	OldPassword       string `json:"old_password" form:"old_password"`
	NewPassword       string `json:"new_password" form:"new_password"`
	RepeatNewPassword string `json:"repeat_new_password" form:"repeat_new_password"`
}

// SubmitOptions controls BackendSubmitPassword
type SubmitOptions struct {
	// IsGuest overrides the guest status; if nil the current one is kept
	IsGuest *bool
	// IsAdmin overrides the admin status; if nil the current one is kept.
	// IsAdmin true with IsGuest nil makes the user privileged.
	IsAdmin *bool
	// LogoutOnSuccess forces a logout of sess after LogoutDelay
	LogoutOnSuccess bool
}

// SubmitPassword changes the password of user. The old password must be
// correct; if its hash is outdated it is upgraded. On success the session
// is logged out.
func (ac *AuthContext) SubmitPassword(sess Session, user *AuthUser, form PasswordForm) (bool, error) {
	hash, err := user.PasswordHash()
	if err != nil {
		return false, err
	}
	if hash == nil {
		notify(sess, LevelError, ReasonIncorrectOldPassword, "Incorrect old password!")
		return false, nil
	}
	valid, newHash := hash.VerifyAndUpdate(form.OldPassword)
	if !valid {
		notify(sess, LevelError, ReasonIncorrectOldPassword, "Incorrect old password!")
		return false, nil
	}
	if newHash != "" {
		if err = user.AddUserHashedPassword(form.OldPassword); err != nil {
			return false, err
		}
	}
	form.User = user.Name()
	return ac.BackendSubmitPassword(sess, form, SubmitOptions{LogoutOnSuccess: true})
}

// BackendSubmitPassword sets the password of form.User, creating the user if
// needed. The new password must match its repetition and the password
// policy. Validation failures are reported to sess and result in false
// without an error.
func (ac *AuthContext) BackendSubmitPassword(sess Session, form PasswordForm, opts SubmitOptions) (bool, error) {
	if form.User == "" {
		notify(sess, LevelError, ReasonMissingUser, "Missing user!")
		return false, nil
	}
	if form.NewPassword != form.RepeatNewPassword {
		notify(sess, LevelError, ReasonPasswordMismatch, "Passwords are different!")
		return false, nil
	}
	if !ac.PasswordMatchesPolicy(form.NewPassword) {
		notify(sess, LevelError, ReasonWeakPassword, "Password requirements not satisfied, check again!")
		return false, nil
	}

	user := NewAuthUser(ac, form.User)
	var isGuest, isAdmin bool
	var err error
	switch {
	case opts.IsGuest != nil:
		isGuest = *opts.IsGuest
	case opts.IsAdmin != nil && *opts.IsAdmin:
		// admins are always privileged
		isGuest = false
	default:
		if isGuest, err = user.IsGuest(false); err != nil {
			return false, err
		}
	}
	if opts.IsAdmin != nil {
		isAdmin = *opts.IsAdmin
	} else if isAdmin, err = user.IsAdmin(); err != nil {
		return false, err
	}

	privileged, err := ac.stores.PrivilegedUsers.Get(form.User)
	if err != nil {
		return false, err
	}
	credential, err := ac.stores.Credentials.Get(form.User)
	if err != nil {
		return false, err
	}
	if privileged != nil || credential != nil {
		notify(
			sess, LevelSuccess, "",
			fmt.Sprintf("User '%s' already exists, data will be overwritten", form.User),
		)
	} else {
		notify(
			sess, LevelWarning, "",
			fmt.Sprintf("Creating new user, '%s' does not exist", form.User),
		)
	}

	if !isGuest {
		if err = user.AddPrivilegedUser(isAdmin); err != nil {
			return false, err
		}
	}
	if err = user.AddUserHashedPassword(form.NewPassword); err != nil {
		return false, err
	}
	log.WithField("user", form.User).Info("password updated")

	if opts.LogoutOnSuccess {
		notify(sess, LevelSuccess, "", "Password updated, logging out")
		if sess != nil {
			sess.ForceLogout(LogoutDelay)
		}
	} else {
		notify(sess, LevelSuccess, "", "Password updated")
	}
	return true, nil
}
