package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/cloudhut/kdeploy/kafka"
	"github.com/cloudhut/kdeploy/topic"
)

// Broker creates topics on the target cluster.
type Broker interface {
	TestConnection(ctx context.Context) error
	CreateTopic(ctx context.Context, spec kafka.TopicSpec) error
}

// Registry validates and registers schemas.
type Registry interface {
	CheckCompatibility(ctx context.Context, subject string, schema string) (bool, error)
	RegisterSchema(ctx context.Context, subject string, schema string) (int, error)
}

type discoverer interface {
	Discover(dir topic.Dir) ([]topic.SchemaFile, error)
}

type PhaseSummary struct {
	Phase  Phase
	Failed bool
	Counts map[Outcome]int
}

// Summary describes a finished run.
type Summary struct {
	// Phases contains every phase that was executed, in order.
	Phases   []PhaseSummary
	Failed   bool
	ExitCode int
	Duration time.Duration
}

// Service runs the validate, deploy and migrate phases against a topics tree.
type Service struct {
	cfg    Config
	logger *zap.Logger

	broker   Broker
	registry Registry

	layout         topic.Layout
	discoverer     discoverer
	discoveryCache *topic.DiscoveryCache

	report  *Report
	metrics *metrics

	summaryLock sync.RWMutex
	summary     *Summary
}

func NewService(cfg Config, logger *zap.Logger, broker Broker, registry Registry, registerer prometheus.Registerer, metricsNamespace string) (*Service, error) {
	layout := topic.Layout{
		Root:            cfg.TopicsDir,
		ConfigSuffix:    cfg.ConfigFileSuffix,
		SchemaExtension: cfg.SchemaFileExtension,
	}

	svc := &Service{
		cfg:        cfg,
		logger:     logger.Named("pipeline"),
		broker:     broker,
		registry:   registry,
		layout:     layout,
		discoverer: layout,
		report:     newReport(),
		metrics:    newMetrics(registerer, metricsNamespace),
	}

	if cfg.CacheDiscovery {
		cache, err := topic.NewDiscoveryCache(layout, cfg.DiscoveryCacheTTL)
		if err != nil {
			return nil, fmt.Errorf("failed to create discovery cache: %w", err)
		}
		svc.discoveryCache = cache
		svc.discoverer = cache
	}

	return svc, nil
}

// Run executes a single deployment run. Deploy and migrate are skipped if validation failed.
func (s *Service) Run(ctx context.Context) Summary {
	start := time.Now()
	run := newResult()
	var summary Summary

	validation := s.runPhase(ctx, PhaseValidate, s.validateTopic)
	run.Merge(validation)
	summary.Phases = append(summary.Phases, s.phaseSummary(PhaseValidate, validation))
	if validation.Failed() {
		s.logger.Error("one or more schemas or topic configs failed validation, skipping deploy and migrate phases")
		return s.finish(summary, run, start)
	}

	connCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	if err := s.broker.TestConnection(connCtx); err != nil {
		s.logger.Warn("failed to test connectivity to the kafka cluster, topic creations will likely fail", zap.Error(err))
	}
	cancel()

	deployment := s.runPhase(ctx, PhaseDeploy, s.deployTopic)
	run.Merge(deployment)
	summary.Phases = append(summary.Phases, s.phaseSummary(PhaseDeploy, deployment))

	migration := s.runPhase(ctx, PhaseMigrate, s.migrateTopic)
	run.Merge(migration)
	summary.Phases = append(summary.Phases, s.phaseSummary(PhaseMigrate, migration))

	return s.finish(summary, run, start)
}

// Report returns the per item outcomes recorded so far.
func (s *Service) Report() *Report {
	return s.report
}

// LastSummary returns the summary of the most recent run or nil if no run has finished yet.
func (s *Service) LastSummary() *Summary {
	s.summaryLock.RLock()
	defer s.summaryLock.RUnlock()

	return s.summary
}

func (s *Service) Close() {
	if s.discoveryCache != nil {
		_ = s.discoveryCache.Close()
	}
}

type topicFunc func(ctx context.Context, dir topic.Dir, res *Result)

// runPhase walks the topics tree once and calls fn for every topic. It returns after every topic
// of the phase has been processed.
func (s *Service) runPhase(ctx context.Context, phase Phase, fn topicFunc) *Result {
	res := newResult()
	s.logger.Info("starting phase", zap.String("phase", string(phase)))

	dirs, err := s.layout.Scan()
	if err != nil {
		s.recordProblems(res, phase, "", s.cfg.TopicsDir, err)
	}

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for _, dir := range dirs {
		dir := dir
		g.Go(func() error {
			fn(ctx, dir, res)
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("phase completed",
		zap.String("phase", string(phase)),
		zap.Int("topic_count", len(dirs)),
		zap.Bool("failed", res.Failed()),
		zap.Any("outcomes", s.report.Counts(phase)))

	return res
}

// record stores the item, updates metrics and logs it. Failures during the deploy phase only
// fail the run if FailOnDeployError is set.
func (s *Service) record(res *Result, item Item) {
	item.CountsAsError = item.Outcome.IsFailure() && (item.Phase != PhaseDeploy || s.cfg.FailOnDeployError)
	if item.CountsAsError {
		res.Fail()
	}
	s.report.add(item)
	s.metrics.itemsTotal.WithLabelValues(string(item.Phase), string(item.Outcome)).Inc()

	fields := []zap.Field{
		zap.String("phase", string(item.Phase)),
		zap.String("topic", item.Topic),
		zap.String("outcome", string(item.Outcome)),
		zap.String("path", item.Path),
		zap.Duration("duration", item.Duration),
	}
	if item.Role != "" {
		fields = append(fields, zap.String("role", item.Role), zap.String("subject", item.Subject))
	}
	if item.Err != nil {
		fields = append(fields, zap.Error(item.Err))
	}

	switch {
	case item.CountsAsError:
		s.logger.Error("failed to process item", fields...)
	case item.Outcome.IsFailure():
		s.logger.Warn("failed to process item, ignoring it", fields...)
	default:
		s.logger.Info("processed item", fields...)
	}
}

// recordProblems records every error joined into err as a separate item.
func (s *Service) recordProblems(res *Result, phase Phase, topicName string, path string, err error) {
	for i, problem := range splitErrors(err) {
		s.record(res, Item{
			Phase:   phase,
			Topic:   topicName,
			Path:    fmt.Sprintf("%v#%d", path, i),
			Outcome: problemOutcome(problem),
			Err:     problem,
		})
	}
}

func splitErrors(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

// problemOutcome classifies tree walking problems. Filesystem errors are read errors, violations
// of the directory convention are format errors.
func problemOutcome(err error) Outcome {
	var pathErr *fs.PathError
	if errors.As(err, &pathErr) {
		return OutcomeReadError
	}
	return OutcomeFormatError
}

func loadOutcome(err error) Outcome {
	var loadErr *topic.LoadError
	if errors.As(err, &loadErr) && loadErr.Kind == topic.FileReadError {
		return OutcomeReadError
	}
	return OutcomeFormatError
}

func (s *Service) phaseSummary(phase Phase, res *Result) PhaseSummary {
	return PhaseSummary{Phase: phase, Failed: res.Failed(), Counts: s.report.Counts(phase)}
}

func (s *Service) finish(summary Summary, run *Result, start time.Time) Summary {
	summary.Failed = run.Failed()
	summary.Duration = time.Since(start)
	if summary.Failed {
		summary.ExitCode = 1
		s.metrics.runSuccess.Set(0)
	} else {
		s.metrics.runSuccess.Set(1)
	}

	executed := make([]string, 0, len(summary.Phases))
	for _, p := range summary.Phases {
		executed = append(executed, string(p.Phase))
	}
	s.logger.Info("deployment run finished",
		zap.Strings("executed_phases", executed),
		zap.Bool("failed", summary.Failed),
		zap.Int("exit_code", summary.ExitCode),
		zap.Duration("duration", summary.Duration))

	s.summaryLock.Lock()
	s.summary = &summary
	s.summaryLock.Unlock()

	return summary
}
