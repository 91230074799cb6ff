package model

// MaxSecretLength is the maximum width of the stored password hash and of the
// stored encrypted password.
const MaxSecretLength = 150

// Credential holds the locally stored password of a user.
// Only used when basic authentication is active.
type Credential struct {
	// User is the username and primary key
	User string `gorm:"column:user;primaryKey;size:100" json:"user"`
	// PasswordHash stores a one-way hash of the password (never the plaintext)
	PasswordHash string `gorm:"size:150;not null" json:"-"`
	// PasswordEncrypted stores a reversible copy of the password.
	// It is only populated for the distinguished guest user.
	PasswordEncrypted *string `gorm:"size:150" json:"-"`
}

// TableName implements the gorm tabler interface
func (Credential) TableName() string {
	return "credentials"
}

// CredentialsStore abstracts access to the credentials table.
type CredentialsStore interface {
	// Get returns the credential for a user, (nil, nil) if absent
	Get(user string) (*Credential, error)
	// List returns all usernames with stored credentials, sorted
	List() ([]string, error)
	// Upsert creates or replaces the credential of a user
	Upsert(credential Credential) error
	// Delete removes the credential of a user and returns the number of
	// deleted rows
	Delete(user string) (int64, error)
}
