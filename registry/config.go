package registry

import (
	"fmt"
	"net/url"
	"time"
)

type Config struct {
	// URL is the base address of the schema registry, e.g. http://localhost:8081
	URL      string        `koanf:"url"`
	Username string        `koanf:"username"`
	Password string        `koanf:"password"`
	Timeout  time.Duration `koanf:"timeout"`

	// UserAgent is sent with every request. Some registry proxies route or throttle by agent.
	UserAgent string `koanf:"userAgent"`
}

func (c *Config) SetDefaults() {
	c.URL = "http://localhost:8081"
	c.Timeout = 10 * time.Second
	c.UserAgent = "schema-registry-cli"
}

func (c *Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("url must be set")
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return fmt.Errorf("failed to parse url '%v': %w", c.URL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, given: '%v'", u.Scheme)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Password != "" && c.Username == "" {
		return fmt.Errorf("a password is configured but no username")
	}

	return nil
}
