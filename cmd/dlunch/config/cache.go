package config

import (
	"github.com/redis/go-redis/v9"
)

// cachingConf configures the optional redis instance used to coordinate
// multiple dlunch processes
type cachingConf struct {
	RedisAddr string `yaml:"redis_addr"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	RedisDB   int    `yaml:"redis_db"`
	Disabled  bool   `yaml:"disabled"`
}

// RedisClient returns a redis client for the configured instance; nil if no
// redis is configured
func (c cachingConf) RedisClient() redis.UniversalClient {
	if c.Disabled || c.RedisAddr == "" {
		return nil
	}
	return redis.NewClient(
		&redis.Options{
			Addr:     c.RedisAddr,
			Username: c.Username,
			Password: c.Password,
			DB:       c.RedisDB,
		},
	)
}
