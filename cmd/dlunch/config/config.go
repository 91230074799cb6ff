// Package config loads the configuration of dlunch and dlcli
package config

import (
	"os"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/zachmann/go-utils/fileutils"
	"gopkg.in/yaml.v3"

	"github.com/data-lunch/dlunch"
	"github.com/data-lunch/dlunch/auth"
)

// Environment variables overriding secrets from the config file
const (
	EnvOAuthEncryptionKey = "DATA_LUNCH_OAUTH_ENC_KEY"
	EnvCookieSecret       = "DATA_LUNCH_COOKIE_SECRET"
)

// possibleConfigLocations are searched if no config file is passed
var possibleConfigLocations = []string{
	"config.yaml",
	"/etc/dlunch/config.yaml",
}

// Config holds the full configuration
type Config struct {
	Server dlunch.ServerConf `yaml:"server"`
	Auth   auth.Conf         `yaml:"auth"`
	// BasicAuth enables basic authentication if present
	BasicAuth *auth.BasicAuthConf `yaml:"basic_auth"`
	Logging   loggingConf         `yaml:"logging"`
	Storage   storageConf         `yaml:"storage"`
	Caching   cachingConf         `yaml:"caching"`
}

// AuthConfig returns the auth.Config for this Config
func (c Config) AuthConfig() auth.Config {
	return auth.Config{
		Auth:          c.Auth,
		BasicAuth:     c.BasicAuth,
		OAuthProvider: c.Server.OAuthProvider,
	}
}

var c Config

// Get returns the Config
func Get() Config {
	return c
}

func defaultConfig() Config {
	return Config{
		Server: dlunch.ServerConf{
			Port: 8080,
		},
		Logging: defaultLoggingConf,
		Storage: defaultStorageConf,
	}
}

func (c *Config) validate() error {
	if err := c.Server.Validate(); err != nil {
		return err
	}
	if c.Server.OAuthProvider != "" && c.BasicAuth == nil && len(c.Server.TrustedProxies) == 0 {
		return errors.New("error in server conf: trusted_proxies must be set when oauth_provider is used")
	}
	if err := c.Auth.PasswordHashing.Validate(); err != nil {
		return errors.Wrap(err, "error in auth conf")
	}
	if c.BasicAuth != nil {
		if err := c.BasicAuth.Validate(); err != nil {
			return err
		}
	}
	if err := c.Logging.validate(); err != nil {
		return err
	}
	return c.Storage.validate()
}

func (c *Config) applyEnv() {
	if key := os.Getenv(EnvOAuthEncryptionKey); key != "" {
		c.Auth.OAuthEncryptionKey = key
	}
	if secret := os.Getenv(EnvCookieSecret); secret != "" {
		c.Auth.CookieSecret = secret
	}
}

// Parse parses and validates the passed yaml config
func Parse(data []byte) (Config, error) {
	conf := defaultConfig()
	if err := yaml.Unmarshal(data, &conf); err != nil {
		return conf, errors.Wrap(err, "could not parse config")
	}
	conf.applyEnv()
	if err := conf.validate(); err != nil {
		return conf, err
	}
	return conf, nil
}

// findConfigFile returns file if set, otherwise the first existing possible
// config location
func findConfigFile(file string) (string, error) {
	if file != "" {
		if !fileutils.FileExists(file) {
			return "", errors.Errorf("config file '%s' does not exist", file)
		}
		return file, nil
	}
	for _, f := range possibleConfigLocations {
		if fileutils.FileExists(f) {
			return f, nil
		}
	}
	return "", errors.New("could not find config file in any of the possible locations")
}

// Load loads the config from file (or the default locations if file is
// empty) and makes it available through Get
func Load(file string) error {
	var err error
	if file, err = findConfigFile(file); err != nil {
		return err
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return errors.WithStack(err)
	}
	if c, err = Parse(data); err != nil {
		return err
	}
	log.WithField("file", file).Debug("loaded config")
	return nil
}
