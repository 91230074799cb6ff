package main

import (
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/data-lunch/dlunch"
	"github.com/data-lunch/dlunch/auth"
	"github.com/data-lunch/dlunch/auth/provider"
	"github.com/data-lunch/dlunch/cmd/dlunch/config"
	"github.com/data-lunch/dlunch/internal/logger"
	"github.com/data-lunch/dlunch/internal/version"
)

func main() {
	var configFile string
	if len(os.Args) > 1 {
		configFile = os.Args[1]
	}
	if err := config.Load(configFile); err != nil {
		log.WithError(err).Fatal("could not load config")
	}
	logger.Init()
	log.Info(version.Banner("dlunch"))
	log.Info("Loaded Config")
	c := config.Get()

	store, err := config.LoadStorage(c.Storage)
	if err != nil {
		log.Fatal(err)
	}
	defer store.Close()

	var opts []auth.Option
	if client := c.Caching.RedisClient(); client != nil {
		opts = append(opts, auth.WithLocker(auth.NewRedisLocker(client)))
		log.WithField("addr", c.Caching.RedisAddr).Info("Using redis lock for guest password")
	}
	ac, err := auth.NewAuthContext(c.AuthConfig(), store.Backends(), opts...)
	if err != nil {
		log.Fatal(err)
	}
	if err = ac.InitializeFlags(); err != nil {
		log.Fatal(err)
	}
	p, err := provider.New(ac)
	if err != nil {
		log.Fatal(err)
	}
	log.WithField("auth_type", ac.AuthType()).Info("Initialized authentication")

	server, err := dlunch.NewServer(c.Server, p, logger.AccessLogWriter())
	if err != nil {
		log.Fatal(err)
	}
	server.Start()
}
