package pipeline

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	// TopicsDir is the root of the declarative topics tree.
	TopicsDir           string `koanf:"topicsDir"`
	ConfigFileSuffix    string `koanf:"configFileSuffix"`
	SchemaFileExtension string `koanf:"schemaFileExtension"`

	// Concurrency is the number of topics that are processed in parallel within a phase.
	Concurrency    int           `koanf:"concurrency"`
	RequestTimeout time.Duration `koanf:"requestTimeout"`

	// FailOnDeployError controls whether failed topic creations fail the run.
	FailOnDeployError bool `koanf:"failOnDeployError"`

	// CacheDiscovery reuses the schema file listing of a topic across phases. Files are still
	// read again in every phase.
	CacheDiscovery    bool          `koanf:"cacheDiscovery"`
	DiscoveryCacheTTL time.Duration `koanf:"discoveryCacheTtl"`
}

func (c *Config) SetDefaults() {
	c.TopicsDir = "./topics"
	c.ConfigFileSuffix = "config.yaml"
	c.SchemaFileExtension = "avsc"
	c.Concurrency = 1
	c.RequestTimeout = 30 * time.Second
	c.FailOnDeployError = true
	c.CacheDiscovery = false
	c.DiscoveryCacheTTL = 10 * time.Minute
}

func (c *Config) Validate() error {
	if c.TopicsDir == "" {
		return fmt.Errorf("topicsDir must be set")
	}
	if c.ConfigFileSuffix == "" {
		return fmt.Errorf("configFileSuffix must be set")
	}
	if c.SchemaFileExtension == "" || strings.ContainsAny(c.SchemaFileExtension, "./\\*?[]{}") {
		return fmt.Errorf("schemaFileExtension must be a plain extension without dots, separators or glob characters, given: '%v'", c.SchemaFileExtension)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be at least 1, given: %v", c.Concurrency)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("requestTimeout must be positive")
	}
	if c.CacheDiscovery && c.DiscoveryCacheTTL <= 0 {
		return fmt.Errorf("discoveryCacheTtl must be positive when the discovery cache is enabled")
	}

	return nil
}
