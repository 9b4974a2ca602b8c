package prometheus

import (
	"fmt"
	"net/url"
)

type Config struct {
	Namespace string `koanf:"namespace"`

	// TextfilePath is written in the node exporter textfile format after every run.
	TextfilePath string            `koanf:"textfilePath"`
	Pushgateway  PushgatewayConfig `koanf:"pushgateway"`
}

type PushgatewayConfig struct {
	URL      string `koanf:"url"`
	Job      string `koanf:"job"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
}

func (c *Config) SetDefaults() {
	c.Namespace = "kdeploy"
	c.Pushgateway.Job = "kdeploy"
}

func (c *Config) Validate() error {
	if c.Namespace == "" {
		return fmt.Errorf("namespace must be set")
	}
	if c.Pushgateway.URL != "" {
		if _, err := url.ParseRequestURI(c.Pushgateway.URL); err != nil {
			return fmt.Errorf("failed to parse pushgateway url: %w", err)
		}
		if c.Pushgateway.Job == "" {
			return fmt.Errorf("pushgateway job must be set if a pushgateway url is configured")
		}
	}

	return nil
}
