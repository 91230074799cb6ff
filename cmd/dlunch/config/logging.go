package config

import (
	"github.com/pkg/errors"
	"github.com/zachmann/go-utils/fileutils"
)

// loggingConf holds all logging-related configuration under the `logging` key.
//
// YAML example:
//
//	logging:
//	  access:
//	    dir: /var/log/dlunch
//	    stderr: false
//	  internal:
//	    dir: /var/log/dlunch
//	    stderr: false
//	    level: INFO
//	    max_size_mb: 50
//	    max_backups: 5
type loggingConf struct {
	Access   LoggerConf         `yaml:"access"`
	Internal InternalLoggerConf `yaml:"internal"`
}

// InternalLoggerConf configures application-internal logging.
// Level accepts standard log levels (e.g. DEBUG, INFO, WARN, ERROR).
type InternalLoggerConf struct {
	LoggerConf `yaml:",inline"`
	Level      string `yaml:"level"`
}

// LoggerConf holds configuration related to logging. If Dir is set, logs are
// written to a rotated file in Dir; StdErr additionally writes them to stderr.
type LoggerConf struct {
	Dir        string `yaml:"dir"`
	StdErr     bool   `yaml:"stderr"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

func checkLoggingDirExists(dir string) error {
	if dir != "" && !fileutils.FileExists(dir) {
		return errors.Errorf("logging directory '%s' does not exist", dir)
	}
	return nil
}

func (log *loggingConf) validate() error {
	if err := checkLoggingDirExists(log.Access.Dir); err != nil {
		return err
	}
	return checkLoggingDirExists(log.Internal.Dir)
}

var defaultLoggingConf = loggingConf{
	Access: LoggerConf{
		StdErr: true,
	},
	Internal: InternalLoggerConf{
		LoggerConf: LoggerConf{
			StdErr: true,
		},
		Level: "INFO",
	},
}
