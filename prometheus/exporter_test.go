package prometheus

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cloudhut/kdeploy/kafka"
	"github.com/cloudhut/kdeploy/pipeline"
)

type nopBroker struct{}

func (nopBroker) TestConnection(context.Context) error              { return nil }
func (nopBroker) CreateTopic(context.Context, kafka.TopicSpec) error { return nil }

type nopRegistry struct{}

func (nopRegistry) CheckCompatibility(context.Context, string, string) (bool, error) {
	return true, nil
}
func (nopRegistry) RegisterSchema(context.Context, string, string) (int, error) { return 1, nil }

func newTestExporter(t *testing.T, cfg Config, run bool) (*Exporter, *prometheus.Registry) {
	t.Helper()

	var pipelineCfg pipeline.Config
	pipelineCfg.SetDefaults()
	pipelineCfg.TopicsDir = t.TempDir()

	reg := prometheus.NewRegistry()
	svc, err := pipeline.NewService(pipelineCfg, zap.NewNop(), nopBroker{}, nopRegistry{}, reg, cfg.Namespace)
	require.NoError(t, err)
	if run {
		svc.Run(context.Background())
	}

	exporter := NewExporter(cfg, zap.NewNop(), svc, "3f1c")
	reg.MustRegister(exporter)

	return exporter, reg
}

func TestExporter_Collect(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()

	exporter, _ := newTestExporter(t, cfg, true)

	expected := `
# HELP kdeploy_run_exit_code Exit code of the deployment run
# TYPE kdeploy_run_exit_code gauge
kdeploy_run_exit_code 0
# HELP kdeploy_run_phase_failed 1 if the phase recorded at least one error, 0 otherwise. Phases that were skipped are not reported.
# TYPE kdeploy_run_phase_failed gauge
kdeploy_run_phase_failed{phase="deploy"} 0
kdeploy_run_phase_failed{phase="migrate"} 0
kdeploy_run_phase_failed{phase="validate"} 0
`
	err := testutil.CollectAndCompare(exporter, strings.NewReader(expected), "kdeploy_run_exit_code", "kdeploy_run_phase_failed")
	require.NoError(t, err)
}

func TestExporter_CollectBeforeRun(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()

	exporter, _ := newTestExporter(t, cfg, false)
	assert.Equal(t, 1, testutil.CollectAndCount(exporter))
}

func TestExporter_ExportTextfile(t *testing.T) {
	var cfg Config
	cfg.SetDefaults()
	cfg.TextfilePath = filepath.Join(t.TempDir(), "kdeploy.prom")

	exporter, reg := newTestExporter(t, cfg, true)
	require.NoError(t, exporter.Export(context.Background(), reg))

	content, err := os.ReadFile(cfg.TextfilePath)
	require.NoError(t, err)
	assert.Contains(t, string(content), `kdeploy_run_info{run_id="3f1c"`)
	assert.Contains(t, string(content), "kdeploy_pipeline_run_success 1")
}

func TestExporter_ExportPushgateway(t *testing.T) {
	var gotPath, gotBody string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var cfg Config
	cfg.SetDefaults()
	cfg.Pushgateway.URL = srv.URL

	exporter, reg := newTestExporter(t, cfg, true)
	require.NoError(t, exporter.Export(context.Background(), reg))

	assert.Equal(t, "/metrics/job/kdeploy", gotPath)
	assert.NotEmpty(t, gotBody)
}

func TestExporter_ExportPushgatewayFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	var cfg Config
	cfg.SetDefaults()
	cfg.Pushgateway.URL = srv.URL

	exporter, reg := newTestExporter(t, cfg, true)
	assert.Error(t, exporter.Export(context.Background(), reg))
}
