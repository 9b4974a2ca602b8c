package kafka

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kmsg"
)

func TestCreateTopicConfigs(t *testing.T) {
	props := createTopicConfigs(map[string]string{
		"retention.ms":   "86400000",
		"cleanup.policy": "delete",
	})

	require.Len(t, props, 2)
	assert.Equal(t, "cleanup.policy", props[0].Name)
	assert.Equal(t, "delete", *props[0].Value)
	assert.Equal(t, "retention.ms", props[1].Name)
	assert.Equal(t, "86400000", *props[1].Value)
}

func createTopicsResponse(topic string, code int16, msg *string) *kmsg.CreateTopicsResponse {
	resTopic := kmsg.NewCreateTopicsResponseTopic()
	resTopic.Topic = topic
	resTopic.ErrorCode = code
	resTopic.ErrorMessage = msg

	res := kmsg.NewPtrCreateTopicsResponse()
	res.Topics = []kmsg.CreateTopicsResponseTopic{resTopic}
	return res
}

func TestTopicCreationError(t *testing.T) {
	t.Run("created", func(t *testing.T) {
		err := topicCreationError("orders", createTopicsResponse("orders", 0, nil))
		assert.NoError(t, err)
	})

	t.Run("already exists", func(t *testing.T) {
		msg := "Topic 'orders' already exists."
		err := topicCreationError("orders", createTopicsResponse("orders", kerr.TopicAlreadyExists.Code, &msg))
		require.Error(t, err)
		assert.True(t, errors.Is(err, kerr.TopicAlreadyExists))

		var brokerErr *BrokerError
		require.True(t, errors.As(err, &brokerErr))
		assert.Equal(t, "orders", brokerErr.Topic)
		assert.Equal(t, msg, brokerErr.Message)
	})

	t.Run("authorization failure", func(t *testing.T) {
		err := topicCreationError("orders", createTopicsResponse("orders", kerr.TopicAuthorizationFailed.Code, nil))
		require.Error(t, err)
		assert.True(t, errors.Is(err, kerr.TopicAuthorizationFailed))
		assert.False(t, errors.Is(err, kerr.TopicAlreadyExists))
	})

	t.Run("topic missing in response", func(t *testing.T) {
		err := topicCreationError("orders", createTopicsResponse("payments", 0, nil))
		require.Error(t, err)

		var brokerErr *BrokerError
		assert.False(t, errors.As(err, &brokerErr))
	})
}
