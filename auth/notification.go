package auth

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// LogoutDelay is the time between a successful password change and the
// forced logout, so the notification can still be shown
const LogoutDelay = 4 * time.Second

// Level is the severity of a Notification
type Level string

// Notification levels
const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Reason identifies why an operation failed
type Reason string

// Failure reasons
const (
	ReasonMissingUser          Reason = "missing_user"
	ReasonPasswordMismatch     Reason = "password_mismatch"
	ReasonWeakPassword         Reason = "weak_password"
	ReasonIncorrectOldPassword Reason = "incorrect_old_password"
	ReasonInvalidToken         Reason = "invalid_token"
)

// Notification is a user facing message
type Notification struct {
	Level   Level  `json:"level"`
	Reason  Reason `json:"reason,omitempty"`
	Message string `json:"message"`
}

// Session is the interactive session an operation was started from
type Session interface {
	// Notify shows a notification to the user
	Notify(n Notification)
	// ForceLogout ends the session after the given delay
	ForceLogout(after time.Duration)
}

// Notifications records notifications and logout requests; it can be used as
// a Session by request/response transports
type Notifications struct {
	Messages    []Notification `json:"notifications"`
	LogoutAfter *time.Duration `json:"-"`
}

// Notify implements the Session interface
func (n *Notifications) Notify(notification Notification) {
	n.Messages = append(n.Messages, notification)
}

// ForceLogout implements the Session interface
func (n *Notifications) ForceLogout(after time.Duration) {
	n.LogoutAfter = &after
}

// Reason returns the reason of the last error notification, or "" if there is none
func (n *Notifications) Reason() Reason {
	for i := len(n.Messages) - 1; i >= 0; i-- {
		if n.Messages[i].Level == LevelError {
			return n.Messages[i].Reason
		}
	}
	return ""
}

func notify(sess Session, level Level, reason Reason, msg string) {
	log.WithFields(
		log.Fields{
			"notification": level,
			"reason":       reason,
		},
	).Debug(msg)
	if sess == nil {
		return
	}
	sess.Notify(
		Notification{
			Level:   level,
			Reason:  reason,
			Message: msg,
		},
	)
}
