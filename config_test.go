package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewConfig_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILEPATH", "")

	cfg, err := newConfig(zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8081", cfg.Registry.URL)
	assert.Equal(t, []string{"localhost:39092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "./topics", cfg.Pipeline.TopicsDir)
	assert.True(t, cfg.Pipeline.FailOnDeployError)
}

func TestNewConfig_EnvAliases(t *testing.T) {
	t.Setenv("CONFIG_FILEPATH", "")
	t.Setenv("SCHEMA_REGISTRY_URL", "http://registry:8081")
	t.Setenv("BOOTSTRAP_SERVERS", "kafka-0:9092,kafka-1:9092")
	t.Setenv("TOPICS_DIR", "/srv/topics")
	t.Setenv("PIPELINE_CONCURRENCY", "4")

	cfg, err := newConfig(zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "http://registry:8081", cfg.Registry.URL)
	assert.Equal(t, []string{"kafka-0:9092", "kafka-1:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "/srv/topics", cfg.Pipeline.TopicsDir)
	assert.Equal(t, 4, cfg.Pipeline.Concurrency)
}

func TestNewConfig_YAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kdeploy.yaml")
	content := `
kafka:
  brokers: ["redpanda:9092"]
registry:
  url: https://registry.example.com
  timeout: 3s
pipeline:
  topicsDir: ./infra/topics
  failOnDeployError: false
logger:
  level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	t.Setenv("CONFIG_FILEPATH", path)

	cfg, err := newConfig(zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, []string{"redpanda:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "https://registry.example.com", cfg.Registry.URL)
	assert.Equal(t, 3*time.Second, cfg.Registry.Timeout)
	assert.Equal(t, "./infra/topics", cfg.Pipeline.TopicsDir)
	assert.False(t, cfg.Pipeline.FailOnDeployError)
	assert.Equal(t, "debug", cfg.Logger.Level)
}

func TestNewConfig_YAMLUnknownKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kdeploy.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pipeline:\n  topicDir: ./typo\n"), 0o644))
	t.Setenv("CONFIG_FILEPATH", path)

	_, err := newConfig(zap.NewNop())
	assert.Error(t, err)
}

func TestNewConfig_Invalid(t *testing.T) {
	t.Setenv("CONFIG_FILEPATH", "")
	t.Setenv("SCHEMA_REGISTRY_URL", "registry:8081")

	_, err := newConfig(zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to validate registry config")
}

func TestEnvKeyValue(t *testing.T) {
	key, value := envKeyValue("KAFKA_SASL_USERNAME", "deployer")
	assert.Equal(t, "kafka.sasl.username", key)
	assert.Equal(t, "deployer", value)

	key, value = envKeyValue("BOOTSTRAP_SERVERS", "a:9092,b:9092")
	assert.Equal(t, "kafka.brokers", key)
	assert.Equal(t, []string{"a:9092", "b:9092"}, value)

	aliasKey, _ := envKeyValue("TOPICS_DIR", "/srv/topics")
	genericKey, _ := envKeyValue("PIPELINE_TOPICSDIR", "/srv/topics")
	assert.Equal(t, "pipeline.topicsdir", aliasKey)
	assert.Equal(t, genericKey, aliasKey)
}
