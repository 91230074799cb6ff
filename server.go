package dlunch

import (
	"github.com/pkg/errors"
	"github.com/zachmann/go-utils/fileutils"
)

// ServerConf holds the options under the `server` config key
type ServerConf struct {
	IPListen          string   `yaml:"ip_listen"`
	Port              int      `yaml:"port"`
	ExternalURL       string   `yaml:"external_url"`
	TLS               tlsConf  `yaml:"tls"`
	TrustedProxies    []string `yaml:"trusted_proxies"`
	ForwardedIPHeader string   `yaml:"forwarded_ip_header"`
	// OAuthProvider is the name of the OAuth provider in front of the
	// application. If set and basic_auth is not configured, the username is
	// taken from auth.identity_header of requests coming from
	// trusted_proxies.
	OAuthProvider string `yaml:"oauth_provider"`
}

type tlsConf struct {
	Enabled      bool   `yaml:"enabled"`
	RedirectHTTP bool   `yaml:"redirect_http"`
	Cert         string `yaml:"cert"`
	Key          string `yaml:"key"`
}

// Validate checks the server configuration
func (c *ServerConf) Validate() error {
	if c.Port == 0 {
		c.Port = 8080
	}
	if !c.TLS.Enabled {
		return nil
	}
	if c.TLS.Cert == "" || c.TLS.Key == "" {
		return errors.New("error in server conf: tls.cert and tls.key must be set if tls is enabled")
	}
	for _, f := range []string{c.TLS.Cert, c.TLS.Key} {
		if !fileutils.FileExists(f) {
			return errors.Errorf("error in server conf: file '%s' does not exist", f)
		}
	}
	return nil
}
