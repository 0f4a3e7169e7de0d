package main

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"dubforge/internal/config"
)

type commandContext struct {
	addressFlag *string
	configFlag  *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	httpOnce sync.Once
	http     *http.Client
}

func newCommandContext(addressFlag, configFlag *string) *commandContext {
	return &commandContext{
		addressFlag: addressFlag,
		configFlag:  configFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// apiBaseURL resolves the daemon address: the --address flag wins, then the
// configured bind address.
func (c *commandContext) apiBaseURL() string {
	if c.addressFlag != nil {
		if addr := strings.TrimSpace(*c.addressFlag); addr != "" {
			return normalizeBaseURL(addr)
		}
	}
	if cfg, err := c.ensureConfig(); err == nil && cfg != nil {
		if bind := strings.TrimSpace(cfg.Paths.APIBind); bind != "" {
			return normalizeBaseURL(bind)
		}
	}
	return "http://127.0.0.1:8750"
}

func (c *commandContext) httpClient() *http.Client {
	c.httpOnce.Do(func() {
		c.http = &http.Client{Timeout: 5 * time.Minute}
	})
	return c.http
}

func normalizeBaseURL(addr string) string {
	if strings.HasPrefix(addr, "http://") || strings.HasPrefix(addr, "https://") {
		return strings.TrimRight(addr, "/")
	}
	return "http://" + strings.TrimRight(addr, "/")
}
