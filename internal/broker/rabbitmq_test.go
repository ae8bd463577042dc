package broker

import (
	"context"
	"encoding/json"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToPublishing(t *testing.T) {
	evt := NewEvent(EventTaxCalculationCreated, map[string]string{"report_id": "r-1"})

	msg, err := toPublishing(evt)
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, EventTaxCalculationCreated, msg.Type)
	assert.Equal(t, EventTaxCalculationCreated, msg.Headers["event_type"])

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, EventTaxCalculationCreated, decoded["type"])
	assert.Equal(t, "r-1", decoded["payload"].(map[string]interface{})["report_id"])
}

func TestToPublishingRejectsUnencodablePayload(t *testing.T) {
	_, err := toPublishing(NewEvent("bad", make(chan int)))
	assert.Error(t, err)
}

func TestNoop(t *testing.T) {
	var p Publisher = Noop{}
	assert.NoError(t, p.Publish(context.Background(), NewEvent("x", nil)))
	assert.NoError(t, p.Close())
}
