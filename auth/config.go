package auth

import (
	"time"

	"github.com/dlclark/regexp2"
	"github.com/pkg/errors"
	"github.com/zachmann/go-utils/duration"
	"gopkg.in/yaml.v3"
)

const (
	// DefaultCookieExpiry is used if no auth.oauth_expiry is configured
	DefaultCookieExpiry = 24 * time.Hour
	// DefaultPswRegex requires at least 8 characters with a lowercase letter,
	// an uppercase letter, a digit and a special character
	DefaultPswRegex = `(?=.*[a-z])(?=.*[A-Z])(?=.*\d)(?=.*[!@#$%^&*?\-_+=]).{8,}`
	// DefaultPswSpecialChars are the special characters used for generated
	// passwords
	DefaultPswSpecialChars = "!@#$%^&*?-_+="
	// DefaultGeneratedPswLength is the length of generated passwords
	DefaultGeneratedPswLength = 12
	// DefaultIdentityHeader is the header set by the OAuth proxy in front of
	// the application
	DefaultIdentityHeader = "X-Forwarded-User"
)

// Conf holds the options under the `auth` config key.
//
// YAML example:
//
//	auth:
//	  oauth_encryption_key: <fernet key>
//	  oauth_expiry: 1d
//	  remove_email_domain: true
//	  cookie_kwargs:
//	    secure: true
//	    http_only: true
//	    same_site: Lax
type Conf struct {
	// OAuthEncryptionKey is a Fernet key used to encrypt the guest password
	// and the id_token cookie. Empty disables encryption.
	OAuthEncryptionKey string `yaml:"oauth_encryption_key"`
	// OAuthExpiry is the lifetime of the session cookies
	OAuthExpiry duration.DurationOption `yaml:"oauth_expiry"`
	// CookieKwargs are additional cookie attributes
	CookieKwargs CookieConf `yaml:"cookie_kwargs"`
	// CookieSecret is the HMAC secret used to sign the session cookies
	CookieSecret string `yaml:"cookie_secret"`
	// RemoveEmailDomain strips the domain from usernames that are emails
	RemoveEmailDomain bool `yaml:"remove_email_domain"`
	// IdentityHeader is the trusted header carrying the username when an
	// OAuth provider is used
	IdentityHeader  string      `yaml:"identity_header"`
	PasswordHashing HashingConf `yaml:"password_hashing"`
}

// CookieConf holds additional attributes set on the session cookies
type CookieConf struct {
	Path     string `yaml:"path"`
	Domain   string `yaml:"domain"`
	Secure   bool   `yaml:"secure"`
	HTTPOnly bool   `yaml:"http_only"`
	SameSite string `yaml:"same_site"`
}

// BasicAuthConf holds the options under the `basic_auth` config key. The
// presence of this block enables basic (local) authentication.
type BasicAuthConf struct {
	// GuestUser enables the shared "guest" account
	GuestUser bool `yaml:"guest_user"`
	// AuthorizeGuestUsers allows non-privileged users on the main page
	AuthorizeGuestUsers bool `yaml:"authorize_guest_users"`
	// PswSpecialChars are the special characters used in generated passwords
	PswSpecialChars string `yaml:"psw_special_chars"`
	// PswRegex is the complexity policy new passwords must fully match.
	// Look-ahead assertions are supported.
	PswRegex string `yaml:"psw_regex"`
	// GeneratedPswLength is the length of generated guest passwords
	GeneratedPswLength int `yaml:"generated_psw_length"`
	// DefaultResetGuestUserPasswordFlag seeds the reset_guest_user_password
	// flag when it is missing
	DefaultResetGuestUserPasswordFlag bool `yaml:"default_reset_guest_user_password_flag"`
}

// DefaultBasicAuthConf returns the default basic auth configuration
func DefaultBasicAuthConf() BasicAuthConf {
	return BasicAuthConf{
		GuestUser:                         true,
		AuthorizeGuestUsers:               true,
		PswSpecialChars:                   DefaultPswSpecialChars,
		PswRegex:                          DefaultPswRegex,
		GeneratedPswLength:                DefaultGeneratedPswLength,
		DefaultResetGuestUserPasswordFlag: true,
	}
}

// UnmarshalYAML implements the yaml.Unmarshaler interface. Options that are
// not set keep their default values.
func (c *BasicAuthConf) UnmarshalYAML(value *yaml.Node) error {
	type basicAuthConf BasicAuthConf
	conf := basicAuthConf(DefaultBasicAuthConf())
	if err := value.Decode(&conf); err != nil {
		return err
	}
	*c = BasicAuthConf(conf)
	return nil
}

// Validate checks the password policy and that generated passwords can
// satisfy it
func (c *BasicAuthConf) Validate() error {
	if c.PswRegex == "" {
		c.PswRegex = DefaultPswRegex
	}
	if c.GeneratedPswLength == 0 {
		c.GeneratedPswLength = DefaultGeneratedPswLength
	}
	if _, err := compilePasswordPolicy(c.PswRegex); err != nil {
		return errors.Wrap(err, "error in basic_auth conf: invalid psw_regex")
	}
	if err := checkPasswordPolicy("", c.PswSpecialChars, c.GeneratedPswLength); err != nil {
		return errors.Wrap(err, "error in basic_auth conf")
	}
	return nil
}

// Config is the static configuration of an AuthContext
type Config struct {
	Auth Conf
	// BasicAuth is nil if basic authentication is disabled
	BasicAuth *BasicAuthConf
	// OAuthProvider is the name of the external OAuth provider (server.oauth_provider)
	OAuthProvider string
}

func compilePasswordPolicy(expr string) (*regexp2.Regexp, error) {
	re, err := regexp2.Compile(`\A(?:`+expr+`)\z`, regexp2.None)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = time.Second
	return re, nil
}
