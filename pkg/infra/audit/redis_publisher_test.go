package audit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/civiclink/guardrails/pkg/domain/guardrail"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEvent() guardrail.AuditEvent {
	return guardrail.AuditEvent{
		RequestID:   "req-1",
		Stage:       guardrail.StageInput,
		Blocked:     true,
		Flags:       []string{guardrail.FlagPromptInjection},
		InputLength: 58,
		OccurredAt:  time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestRedisPublisher_Publish(t *testing.T) {
	client, mock := redismock.NewClientMock()
	publisher := NewRedisPublisher(client, "audit-test")

	payload, err := Encode(testEvent())
	require.NoError(t, err)
	mock.ExpectPublish("audit-test", payload).SetVal(1)

	err = publisher.Publish(context.Background(), testEvent())

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRedisPublisher_PublishError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	publisher := NewRedisPublisher(client, "")

	payload, err := Encode(testEvent())
	require.NoError(t, err)
	mock.ExpectPublish(DefaultChannel, payload).SetErr(errors.New("connection refused"))

	err = publisher.Publish(context.Background(), testEvent())

	require.Error(t, err)
	assert.Contains(t, err.Error(), DefaultChannel)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestEncode_EnvelopeCarriesNoContent(t *testing.T) {
	data, err := Encode(testEvent())
	require.NoError(t, err)

	var msg Message
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, EventType, msg.Type)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(msg.Event, &fields))
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "input", fields["stage"])
	assert.NotContains(t, fields, "message")
	assert.NotContains(t, fields, "response")
}

func TestNopPublisher(t *testing.T) {
	assert.NoError(t, NewNopPublisher().Publish(context.Background(), testEvent()))
}
