package kafka

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kmsg"
)

// TopicSpec is everything that is sent to the cluster when a topic is created.
type TopicSpec struct {
	Name              string
	Partitions        int32
	ReplicationFactor int16
	Configs           map[string]string
}

// BrokerError is returned when the cluster answered the create request but rejected the topic.
// It unwraps to the kerr error so that callers can match on specific codes such as
// kerr.TopicAlreadyExists.
type BrokerError struct {
	Topic   string
	Err     error
	Message string
}

func (e *BrokerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("broker rejected topic %q: %v: %s", e.Topic, e.Err, e.Message)
	}
	return fmt.Sprintf("broker rejected topic %q: %v", e.Topic, e.Err)
}

func (e *BrokerError) Unwrap() error {
	return e.Err
}

// CreateTopic issues a CreateTopics request for a single topic. Transport failures are returned
// as plain wrapped errors, broker-side rejections as *BrokerError.
func (s *Service) CreateTopic(ctx context.Context, spec TopicSpec) error {
	topic := kmsg.NewCreateTopicsRequestTopic()
	topic.Topic = spec.Name
	topic.NumPartitions = spec.Partitions
	topic.ReplicationFactor = spec.ReplicationFactor
	topic.Configs = createTopicConfigs(spec.Configs)

	req := kmsg.NewCreateTopicsRequest()
	req.Topics = []kmsg.CreateTopicsRequestTopic{topic}
	if deadline, ok := ctx.Deadline(); ok {
		req.TimeoutMillis = int32(time.Until(deadline).Milliseconds())
	}

	res, err := req.RequestWith(ctx, s.Client)
	if err != nil {
		return fmt.Errorf("failed to request topic creation: %w", err)
	}

	return topicCreationError(spec.Name, res)
}

func createTopicConfigs(configs map[string]string) []kmsg.CreateTopicsRequestTopicConfig {
	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	props := make([]kmsg.CreateTopicsRequestTopicConfig, 0, len(names))
	for _, name := range names {
		prop := kmsg.NewCreateTopicsRequestTopicConfig()
		prop.Name = name
		value := configs[name]
		prop.Value = &value
		props = append(props, prop)
	}

	return props
}

func topicCreationError(name string, res *kmsg.CreateTopicsResponse) error {
	for _, topic := range res.Topics {
		if topic.Topic != name {
			continue
		}
		err := kerr.ErrorForCode(topic.ErrorCode)
		if err == nil {
			return nil
		}
		brokerErr := &BrokerError{Topic: name, Err: err}
		if topic.ErrorMessage != nil {
			brokerErr.Message = *topic.ErrorMessage
		}
		return brokerErr
	}

	return fmt.Errorf("create topics response did not contain topic %q", name)
}
