package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cloudhut/kdeploy/topic"
)

func (s *Service) migrateTopic(ctx context.Context, dir topic.Dir, res *Result) {
	files, err := s.discoverer.Discover(dir)
	if err != nil {
		s.recordProblems(res, PhaseMigrate, dir.Name, dir.Path, err)
	}
	for _, f := range files {
		s.record(res, s.migrateSchema(ctx, f))
	}
}

func (s *Service) migrateSchema(ctx context.Context, f topic.SchemaFile) (item Item) {
	start := time.Now()
	item = schemaItem(PhaseMigrate, f)
	defer func() { item.Duration = time.Since(start) }()

	parsed, outcome, err := loadSchema(f)
	if err != nil {
		item.Outcome, item.Err = outcome, err
		return item
	}
	if !parsed.IsRecord() {
		item.Outcome = OutcomeNonRecordSkipped
		return item
	}

	reqCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()
	reqStart := time.Now()
	id, err := s.registry.RegisterSchema(reqCtx, item.Subject, parsed.CanonicalForm())
	s.metrics.requestDuration.WithLabelValues(operationRegisterSchema).Observe(time.Since(reqStart).Seconds())
	if err != nil {
		item.Outcome, item.Err = OutcomeRegistryError, err
		return item
	}

	s.logger.Debug("registered schema", zap.String("subject", item.Subject), zap.Int("schema_id", id))
	item.Outcome = OutcomeMigrated
	return item
}
