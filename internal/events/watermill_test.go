package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achievers-lc/learning-center/internal/config"
)

func TestPublisher_InProcessFeed(t *testing.T) {
	pub, err := NewPublisher(config.KafkaConfig{Topic: "test.events"}, nil)
	require.NoError(t, err)
	defer pub.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pub.Subscribe(ctx)
	require.NoError(t, err)

	pub.Publish(ctx, New(EnrollmentCreated, EnrollmentCreatedPayload{EnrollmentID: 7, StudentID: 3, CourseID: 2}))

	select {
	case msg := <-messages:
		defer msg.Ack()
		assert.Equal(t, EnrollmentCreated, msg.Metadata.Get(metadataEventType))

		var decoded struct {
			Type    string                   `json:"type"`
			Payload EnrollmentCreatedPayload `json:"payload"`
		}
		require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
		assert.Equal(t, EnrollmentCreated, decoded.Type)
		assert.Equal(t, uint(7), decoded.Payload.EnrollmentID)
	case <-ctx.Done():
		t.Fatal("event was not delivered")
	}
}

func TestPublisher_DefaultTopic(t *testing.T) {
	pub, err := NewPublisher(config.KafkaConfig{}, nil)
	require.NoError(t, err)
	defer pub.Close()

	assert.Equal(t, "learning-center.events", pub.topic)
}

func TestNop(t *testing.T) {
	p := Nop()
	p.Publish(context.Background(), New(AccountCreated, nil))
	assert.NoError(t, p.Close())
}
