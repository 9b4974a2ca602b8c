package prometheus

import (
	"context"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"go.uber.org/zap"

	"github.com/cloudhut/kdeploy/pipeline"
)

// Exporter implements the prometheus.Collector interface and exposes the summary of the last
// deployment run. Export hands the whole registry to a textfile or a Pushgateway, since a run is
// too short lived to be scraped.
type Exporter struct {
	cfg         Config
	logger      *zap.Logger
	pipelineSvc *pipeline.Service
	runID       string

	runInfo     *prometheus.Desc
	runDuration *prometheus.Desc
	runExitCode *prometheus.Desc
	phaseFailed *prometheus.Desc
}

func NewExporter(cfg Config, logger *zap.Logger, pipelineSvc *pipeline.Service, runID string) *Exporter {
	e := &Exporter{cfg: cfg, logger: logger.Named("exporter"), pipelineSvc: pipelineSvc, runID: runID}
	e.initializeMetrics()

	return e
}

func (e *Exporter) initializeMetrics() {
	e.runInfo = prometheus.NewDesc(
		prometheus.BuildFQName(e.cfg.Namespace, "run", "info"),
		"Info about the deployment run. Gauge value is always 1.",
		[]string{"run_id"},
		map[string]string{"version": os.Getenv("KDEPLOY_VERSION")},
	)
	e.runDuration = prometheus.NewDesc(
		prometheus.BuildFQName(e.cfg.Namespace, "run", "duration_seconds"),
		"Wall clock duration of the deployment run",
		nil,
		nil,
	)
	e.runExitCode = prometheus.NewDesc(
		prometheus.BuildFQName(e.cfg.Namespace, "run", "exit_code"),
		"Exit code of the deployment run",
		nil,
		nil,
	)
	e.phaseFailed = prometheus.NewDesc(
		prometheus.BuildFQName(e.cfg.Namespace, "run", "phase_failed"),
		"1 if the phase recorded at least one error, 0 otherwise. Phases that were skipped are not reported.",
		[]string{"phase"},
		nil,
	)
}

// Describe implements the prometheus.Collector interface.
func (e *Exporter) Describe(ch chan<- *prometheus.Desc) {
	ch <- e.runInfo
	ch <- e.runDuration
	ch <- e.runExitCode
	ch <- e.phaseFailed
}

func (e *Exporter) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(e.runInfo, prometheus.GaugeValue, 1, e.runID)

	summary := e.pipelineSvc.LastSummary()
	if summary == nil {
		return
	}

	ch <- prometheus.MustNewConstMetric(e.runDuration, prometheus.GaugeValue, summary.Duration.Seconds())
	ch <- prometheus.MustNewConstMetric(e.runExitCode, prometheus.GaugeValue, float64(summary.ExitCode))
	for _, phase := range summary.Phases {
		failed := 0.0
		if phase.Failed {
			failed = 1
		}
		ch <- prometheus.MustNewConstMetric(e.phaseFailed, prometheus.GaugeValue, failed, string(phase.Phase))
	}
}

// Export writes all metrics of gatherer to the configured destinations. Every destination is
// tried even if a previous one failed.
func (e *Exporter) Export(ctx context.Context, gatherer prometheus.Gatherer) error {
	var lastErr error

	if e.cfg.TextfilePath != "" {
		if err := prometheus.WriteToTextfile(e.cfg.TextfilePath, gatherer); err != nil {
			e.logger.Error("failed to write metrics textfile", zap.String("path", e.cfg.TextfilePath), zap.Error(err))
			lastErr = fmt.Errorf("failed to write metrics textfile: %w", err)
		} else {
			e.logger.Debug("wrote metrics textfile", zap.String("path", e.cfg.TextfilePath))
		}
	}

	if e.cfg.Pushgateway.URL != "" {
		pusher := push.New(e.cfg.Pushgateway.URL, e.cfg.Pushgateway.Job).Gatherer(gatherer)
		if e.cfg.Pushgateway.Username != "" {
			pusher = pusher.BasicAuth(e.cfg.Pushgateway.Username, e.cfg.Pushgateway.Password)
		}
		if err := pusher.PushContext(ctx); err != nil {
			e.logger.Error("failed to push metrics", zap.String("url", e.cfg.Pushgateway.URL), zap.Error(err))
			lastErr = fmt.Errorf("failed to push metrics to pushgateway: %w", err)
		} else {
			e.logger.Debug("pushed metrics", zap.String("url", e.cfg.Pushgateway.URL))
		}
	}

	return lastErr
}
