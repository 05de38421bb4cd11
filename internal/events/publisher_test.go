package events

import (
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeEvent(t *testing.T) {
	vehicle := "9b2f3c1e-0000-4000-8000-000000000001"
	at := time.Date(2025, 12, 15, 8, 30, 0, 0, time.UTC)

	msg, err := encodeEvent(ReservationEvent{
		Type:           ReservationCreated,
		ReservationID:  "r-1",
		Status:         "pending",
		ServiceDay:     "2025-12-15",
		VehicleID:      &vehicle,
		PassengerCount: 3,
		OccurredAt:     at,
	})
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, ReservationCreated, msg.Type)
	assert.Equal(t, at, msg.Timestamp)
	assert.NotEmpty(t, msg.MessageId)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "r-1", decoded["reservation_id"])
	assert.Equal(t, vehicle, decoded["vehicle_id"])
	assert.Equal(t, float64(3), decoded["passenger_count"])
	assert.NotContains(t, decoded, "driver_id")
}

func TestEncodeEventStampsOccurredAt(t *testing.T) {
	msg, err := encodeEvent(ReservationEvent{Type: ReservationDeleted, ReservationID: "r-2"})
	require.NoError(t, err)
	assert.False(t, msg.Timestamp.IsZero())
}
