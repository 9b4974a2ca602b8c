package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cloudhut/kdeploy/kafka"
)

const (
	ordersConfig = `replication_factor: 1
partitions: 3
config:
  retention_ms: 86400000
`
	orderValueSchema = `{
  "type": "record",
  "name": "Order",
  "namespace": "com.example",
  "fields": [{"name": "id", "type": "string"}]
}`
	orderValueCanonical = `{"name":"com.example.Order","type":"record","fields":[{"name":"id","type":"string"}]}`
)

type fakeBroker struct {
	mu       sync.Mutex
	created  []kafka.TopicSpec
	errs     map[string]error
	connErr  error
	onCreate func(spec kafka.TopicSpec)

	connDeadline bool
}

func (b *fakeBroker) TestConnection(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, b.connDeadline = ctx.Deadline()
	return b.connErr
}

func (b *fakeBroker) CreateTopic(_ context.Context, spec kafka.TopicSpec) error {
	if b.onCreate != nil {
		b.onCreate(spec)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err, ok := b.errs[spec.Name]; ok {
		return err
	}
	b.created = append(b.created, spec)
	return nil
}

func (b *fakeBroker) createdTopics() []kafka.TopicSpec {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]kafka.TopicSpec(nil), b.created...)
}

// fakeRegistry treats every subject as unknown unless listed in incompatible.
type fakeRegistry struct {
	mu           sync.Mutex
	incompatible map[string]bool
	checkErr     error
	registerErr  error
	checked      []string
	registered   map[string]string
}

func newFakeRegistry() *fakeRegistry {
	return &fakeRegistry{incompatible: make(map[string]bool), registered: make(map[string]string)}
}

func (r *fakeRegistry) CheckCompatibility(_ context.Context, subject string, _ string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.checked = append(r.checked, subject)
	if r.checkErr != nil {
		return false, r.checkErr
	}
	return !r.incompatible[subject], nil
}

func (r *fakeRegistry) RegisterSchema(_ context.Context, subject string, schema string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.registerErr != nil {
		return 0, r.registerErr
	}
	r.registered[subject] = schema
	return len(r.registered), nil
}

func (r *fakeRegistry) checkedSubjects() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.checked...)
}

func (r *fakeRegistry) registeredSubjects() map[string]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.registered))
	for k, v := range r.registered {
		out[k] = v
	}
	return out
}

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

func newTestService(t *testing.T, root string, broker Broker, registry Registry, mutate func(cfg *Config)) *Service {
	t.Helper()

	var cfg Config
	cfg.SetDefaults()
	cfg.TopicsDir = root
	if mutate != nil {
		mutate(&cfg)
	}
	require.NoError(t, cfg.Validate())

	svc, err := NewService(cfg, zap.NewNop(), broker, registry, prometheus.NewRegistry(), "kdeploy")
	require.NoError(t, err)
	t.Cleanup(svc.Close)

	return svc
}

func executedPhases(summary Summary) []Phase {
	phases := make([]Phase, 0, len(summary.Phases))
	for _, p := range summary.Phases {
		phases = append(phases, p.Phase)
	}
	return phases
}
