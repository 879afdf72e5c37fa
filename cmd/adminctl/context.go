package main

import (
	"context"
	"strings"
	"sync"

	"admin-rpc/client"
	"admin-rpc/config"
	"admin-rpc/logging"
	"admin-rpc/middleware"
	"admin-rpc/registry"
	"admin-rpc/transport"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag, logLevelFlag *string) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
	}
}

// ensureConfig loads the configuration once and initialises logging from it.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.LoadConfig(path)
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && strings.TrimSpace(*c.logLevelFlag) != "" {
			cfg.LogLevel = strings.TrimSpace(*c.logLevelFlag)
		}
		if err := logging.Init(cfg.LogLevel); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// withRegistry opens the configured registry for the duration of fn.
func (c *commandContext) withRegistry(ctx context.Context, fn func(*config.Config, registry.Registry) error) error {
	cfg, err := c.ensureConfig()
	if err != nil {
		return err
	}
	reg, err := cfg.OpenRegistry(ctx)
	if err != nil {
		return err
	}
	defer reg.Close()
	return fn(cfg, reg)
}

// newClient wires the admin client the way every subcommand uses it.
func newClient(cfg *config.Config, reg registry.Registry) *client.Client {
	mws := []middleware.Middleware{middleware.LoggingMiddleware(logging.For("client"))}
	if cfg.RateLimit.PerSecond > 0 {
		mws = append(mws, middleware.RateLimitMiddleware(cfg.RateLimit.PerSecond, cfg.RateLimit.Burst))
	}
	bridge := transport.NewBridge(nil, logging.For("transport"))
	return client.NewClient(cfg.Conductor.Host, bridge, reg, logging.For("client"), mws...)
}
