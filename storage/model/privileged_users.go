package model

// PrivilegedUser marks a user as non-guest.
// Users absent from this table are treated as guests.
type PrivilegedUser struct {
	User  string `gorm:"column:user;primaryKey;size:100" json:"user"`
	Admin bool   `gorm:"not null;default:false" json:"admin"`
}

// TableName implements the gorm tabler interface
func (PrivilegedUser) TableName() string {
	return "privileged_users"
}

// PrivilegedUsersStore abstracts access to the privileged users table.
type PrivilegedUsersStore interface {
	// Get returns the privileged user, (nil, nil) if absent
	Get(user string) (*PrivilegedUser, error)
	// List returns all privileged users sorted by username
	List() ([]PrivilegedUser, error)
	// Admins returns the usernames of all admins, sorted
	Admins() ([]string, error)
	// Upsert creates or replaces a privileged user
	Upsert(user PrivilegedUser) error
	// Delete removes a privileged user and returns the number of deleted rows
	Delete(user string) (int64, error)
}
