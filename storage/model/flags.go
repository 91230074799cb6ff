package model

const (
	// FlagNoMoreOrders is the global switch that stops order placement
	FlagNoMoreOrders = "no_more_orders"
	// FlagResetGuestUserPassword is a one-shot trigger for regenerating the
	// guest password
	FlagResetGuestUserPassword = "reset_guest_user_password"
	// FlagGuestOverrideSuffix is appended to a username to build the per-user
	// guest override flag
	FlagGuestOverrideSuffix = "_guest_override"
)

// GuestOverrideFlag returns the id of the guest override flag of a user
func GuestOverrideFlag(user string) string {
	return user + FlagGuestOverrideSuffix
}

// Flag is a persisted boolean used as a cross-session signal.
type Flag struct {
	ID    string `gorm:"primaryKey;size:150" json:"id"`
	Value bool   `gorm:"not null" json:"value"`
}

// TableName implements the gorm tabler interface
func (Flag) TableName() string {
	return "flags"
}

// FlagsStore is a key value store for boolean flags.
// Writes replace existing values (last writer wins).
type FlagsStore interface {
	// Get returns the flag value, nil if the flag is missing
	Get(id string) (*bool, error)
	// GetOr returns the flag value or valueIfMissing if the flag is missing
	GetOr(id string, valueIfMissing bool) (bool, error)
	// Set upserts a flag
	Set(id string, value bool) error
	// Delete removes a flag. No error if it's missing.
	Delete(id string) error
	// List returns all flags sorted by id
	List() ([]Flag, error)
	// DeleteBySuffix removes all flags whose id ends with suffix and returns
	// the number of deleted rows
	DeleteBySuffix(suffix string) (int64, error)
	// Clear removes all flags and returns the number of deleted rows
	Clear() (int64, error)
}
