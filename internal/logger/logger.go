// Package logger sets up the internal and the access logger
package logger

import (
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/data-lunch/dlunch/cmd/dlunch/config"
)

const (
	internalLogFile = "dlunch.log"
	accessLogFile   = "access.log"
)

// Init initializes the internal logger from the loaded config
func Init() {
	conf := config.Get().Logging.Internal
	log.SetFormatter(
		&log.TextFormatter{
			FullTimestamp: true,
		},
	)
	log.SetOutput(writer(conf.LoggerConf, internalLogFile))
	level, err := log.ParseLevel(conf.Level)
	if err != nil {
		log.WithError(err).WithField("level", conf.Level).Error("unknown log level, using info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// AccessLogWriter returns the io.Writer the http access log is written to;
// nil if access logging is disabled
func AccessLogWriter() io.Writer {
	conf := config.Get().Logging.Access
	if conf.Dir == "" && !conf.StdErr {
		return nil
	}
	return writer(conf, accessLogFile)
}

func writer(conf config.LoggerConf, filename string) io.Writer {
	var writers []io.Writer
	if conf.Dir != "" {
		writers = append(
			writers, &lumberjack.Logger{
				Filename:   filepath.Join(conf.Dir, filename),
				MaxSize:    conf.MaxSizeMB,
				MaxBackups: conf.MaxBackups,
				MaxAge:     conf.MaxAgeDays,
				Compress:   true,
			},
		)
	}
	if conf.StdErr || len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}
	return io.MultiWriter(writers...)
}
