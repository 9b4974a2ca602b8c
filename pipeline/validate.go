package pipeline

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cloudhut/kdeploy/topic"
)

func (s *Service) validateTopic(ctx context.Context, dir topic.Dir, res *Result) {
	start := time.Now()
	_, err := topic.Load(dir.ConfigPath, dir.Name)
	item := Item{Phase: PhaseValidate, Topic: dir.Name, Path: dir.ConfigPath, Outcome: OutcomeTopicConfigValid, Err: err}
	if err != nil {
		item.Outcome = loadOutcome(err)
	}
	item.Duration = time.Since(start)
	s.record(res, item)

	files, err := s.discoverer.Discover(dir)
	if err != nil {
		s.recordProblems(res, PhaseValidate, dir.Name, dir.Path, err)
	}
	for _, f := range files {
		s.record(res, s.validateSchema(ctx, f))
	}
}

func (s *Service) validateSchema(ctx context.Context, f topic.SchemaFile) (item Item) {
	start := time.Now()
	item = schemaItem(PhaseValidate, f)
	defer func() { item.Duration = time.Since(start) }()

	parsed, outcome, err := loadSchema(f)
	if err != nil {
		item.Outcome, item.Err = outcome, err
		return item
	}
	if !parsed.IsRecord() {
		s.logger.Debug("schema is not a record type, skipping compatibility check",
			zap.String("subject", item.Subject), zap.String("type", parsed.Type()))
		item.Outcome = OutcomeNonRecordSkipped
		return item
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()
	reqStart := time.Now()
	compatible, err := s.registry.CheckCompatibility(reqCtx, item.Subject, parsed.CanonicalForm())
	s.metrics.requestDuration.WithLabelValues(operationCheckCompatibility).Observe(time.Since(reqStart).Seconds())

	switch {
	case err != nil:
		item.Outcome, item.Err = OutcomeRegistryError, err
	case !compatible:
		item.Outcome = OutcomeIncompatibleRecord
		item.Err = fmt.Errorf("schema is not compatible with the latest registered version of subject '%v'", item.Subject)
	default:
		item.Outcome = OutcomeCompatibleRecord
	}

	return item
}
