package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/cloudhut/kdeploy/kafka"
	"github.com/cloudhut/kdeploy/logging"
	"github.com/cloudhut/kdeploy/pipeline"
	"github.com/cloudhut/kdeploy/prometheus"
	"github.com/cloudhut/kdeploy/registry"
)

// envAliases maps the environment variables of earlier deployment scripts onto config keys. Keys
// are lower case so an alias and its generic variable land on the same key.
var envAliases = map[string]string{
	"SCHEMA_REGISTRY_URL": "registry.url",
	"BOOTSTRAP_SERVERS":   "kafka.brokers",
	"TOPICS_DIR":          "pipeline.topicsdir",
}

type Config struct {
	Kafka    kafka.Config      `koanf:"kafka"`
	Registry registry.Config   `koanf:"registry"`
	Pipeline pipeline.Config   `koanf:"pipeline"`
	Exporter prometheus.Config `koanf:"exporter"`
	Logger   logging.Config    `koanf:"logger"`
}

func (c *Config) SetDefaults() {
	c.Kafka.SetDefaults()
	c.Registry.SetDefaults()
	c.Pipeline.SetDefaults()
	c.Exporter.SetDefaults()
	c.Logger.SetDefaults()
}

func (c *Config) Validate() error {
	err := c.Kafka.Validate()
	if err != nil {
		return fmt.Errorf("failed to validate kafka config: %w", err)
	}

	err = c.Registry.Validate()
	if err != nil {
		return fmt.Errorf("failed to validate registry config: %w", err)
	}

	err = c.Pipeline.Validate()
	if err != nil {
		return fmt.Errorf("failed to validate pipeline config: %w", err)
	}

	err = c.Exporter.Validate()
	if err != nil {
		return fmt.Errorf("failed to validate exporter config: %w", err)
	}

	err = c.Logger.Validate()
	if err != nil {
		return fmt.Errorf("failed to validate logger config: %w", err)
	}

	return nil
}

func newConfig(logger *zap.Logger) (Config, error) {
	k := koanf.New(".")
	var cfg Config
	cfg.SetDefaults()

	// 1. Check if a config filepath is set via env. If there is one we'll try to load the file using a YAML Parser
	envKey := "CONFIG_FILEPATH"
	configFilepath := os.Getenv(envKey)
	if configFilepath == "" {
		logger.Info("the env variable '" + envKey + "' is not set, therefore no YAML config will be loaded")
	} else {
		err := k.Load(file.Provider(configFilepath), yaml.Parser())
		if err != nil {
			return Config{}, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	}

	// The YAML config is unmarshalled with `ErrorUnused` so that typos surface, environment variables are not,
	// because CI runners inject plenty of unrelated variables.
	err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag:       "",
		FlatPaths: false,
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc()),
			Metadata:         nil,
			Result:           &cfg,
			WeaklyTypedInput: true,
			ErrorUnused:      true,
		},
	})
	if err != nil {
		return Config{}, err
	}

	err = k.Load(env.ProviderWithValue("", ".", envKeyValue), nil)
	if err != nil {
		return Config{}, err
	}

	err = k.Unmarshal("", &cfg)
	if err != nil {
		return Config{}, err
	}

	err = cfg.Validate()
	if err != nil {
		return Config{}, fmt.Errorf("failed to validate config: %w", err)
	}

	return cfg, nil
}

// envKeyValue maps FOO_BAR to foo.bar. Values containing a comma are split into a slice.
func envKeyValue(s string, v string) (string, interface{}) {
	key, ok := envAliases[s]
	if !ok {
		key = strings.ReplaceAll(strings.ToLower(s), "_", ".")
	}

	if strings.Contains(v, ",") {
		return key, strings.Split(v, ",")
	}

	return key, v
}
