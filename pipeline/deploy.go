package pipeline

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/twmb/franz-go/pkg/kerr"
	"go.uber.org/zap"

	"github.com/cloudhut/kdeploy/kafka"
	"github.com/cloudhut/kdeploy/topic"
)

func (s *Service) deployTopic(ctx context.Context, dir topic.Dir, res *Result) {
	start := time.Now()
	item := Item{Phase: PhaseDeploy, Topic: dir.Name, Path: dir.ConfigPath}

	d, err := topic.Load(dir.ConfigPath, dir.Name)
	if err != nil {
		item.Outcome, item.Err = loadOutcome(err), err
		item.Duration = time.Since(start)
		s.record(res, item)
		return
	}

	spec := kafka.TopicSpec{
		Name:              d.Name,
		Partitions:        d.Partitions,
		ReplicationFactor: d.ReplicationFactor,
		Configs: map[string]string{
			"retention.ms": strconv.FormatInt(d.RetentionMs, 10),
		},
	}
	s.logger.Debug("creating topic",
		zap.String("topic", d.Name),
		zap.Int32("partitions", d.Partitions),
		zap.Int16("replication_factor", d.ReplicationFactor),
		zap.Int64("retention_ms", d.RetentionMs))

	reqCtx, cancel := context.WithTimeout(ctx, s.cfg.RequestTimeout)
	defer cancel()
	reqStart := time.Now()
	err = s.broker.CreateTopic(reqCtx, spec)
	s.metrics.requestDuration.WithLabelValues(operationCreateTopic).Observe(time.Since(reqStart).Seconds())

	item.Outcome = createOutcome(err)
	if item.Outcome != OutcomeAlreadyExists {
		item.Err = err
	}
	item.Duration = time.Since(start)
	s.record(res, item)
}

// createOutcome maps the result of a topic creation. An existing topic is a success so that runs
// can be repeated.
func createOutcome(err error) Outcome {
	if err == nil {
		return OutcomeCreated
	}
	if errors.Is(err, kerr.TopicAlreadyExists) {
		return OutcomeAlreadyExists
	}

	var brokerErr *kafka.BrokerError
	if errors.As(err, &brokerErr) {
		return OutcomeBrokerError
	}
	return OutcomeAdminProtocolError
}
