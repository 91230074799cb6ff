package config

import (
	"slices"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/data-lunch/dlunch/storage"
)

type storageConf struct {
	storage.DSNConf `yaml:",inline"`

	Driver  storage.DriverType `yaml:"driver"`
	DataDir string             `yaml:"data_dir"`
	DSN     string             `yaml:"dsn"`
	Debug   bool               `yaml:"debug"`
}

func (c *storageConf) validate() error {
	if !slices.Contains(storage.SupportedDrivers, c.Driver) {
		return errors.Errorf("error in storage conf: unsupported driver '%s'", c.Driver)
	}
	if c.Driver == storage.DriverSQLite {
		if c.DataDir == "" && c.DSN == "" {
			return errors.New("error in storage conf: data_dir must be specified")
		}
		return nil
	}
	var err error
	if c.DSN == "" {
		c.DSN, err = storage.DSN(c.Driver, c.DSNConf)
	}
	return err
}

var defaultStorageConf = storageConf{
	Driver: storage.DriverSQLite,
	DSNConf: storage.DSNConf{
		User: "dlunch",
		Host: "localhost",
		DB:   "dlunch",
	},
	Debug: false,
}

// LoadStorage opens the storage for the passed config
func LoadStorage(c storageConf) (*storage.Storage, error) {
	s, err := storage.NewStorage(
		storage.Config{
			Driver:  c.Driver,
			DSN:     c.DSN,
			DataDir: c.DataDir,
			Debug:   c.Debug,
		},
	)
	if err != nil {
		return nil, err
	}
	log.WithField("driver", c.Driver).Info("Loaded storage backend")
	return s, nil
}
