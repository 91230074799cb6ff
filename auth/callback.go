package auth

import (
	log "github.com/sirupsen/logrus"
)

// MainPath is the main ordering page, the only page guests can access
const MainPath = "/"

// AuthCallback decides which users can access which paths
type AuthCallback struct {
	ac                  *AuthContext
	authorizeGuestUsers bool
}

// NewAuthCallback creates a new AuthCallback. If authorizeGuestUsers is
// false, only privileged users are authorized.
func NewAuthCallback(ac *AuthContext, authorizeGuestUsers bool) *AuthCallback {
	return &AuthCallback{
		ac:                  ac,
		authorizeGuestUsers: authorizeGuestUsers,
	}
}

// Authorize returns true if user can access path. Privileged users can
// access everything, guests only the main page.
func (cb *AuthCallback) Authorize(user, path string) bool {
	if !cb.ac.IsAuthActive() {
		return true
	}
	logger := log.WithFields(
		log.Fields{
			"user": user,
			"path": path,
		},
	)
	if user == "" {
		logger.Debug("user not authenticated")
		return false
	}
	privileged, err := cb.ac.stores.PrivilegedUsers.Get(user)
	if err != nil {
		logger.WithError(err).Error("failed to load privileged user")
		return false
	}
	if privileged != nil {
		return true
	}
	if cb.authorizeGuestUsers && path == MainPath {
		return true
	}
	logger.Debug("not authorized")
	return false
}
