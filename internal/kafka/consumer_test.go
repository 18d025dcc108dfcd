package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventHandler_Decodes(t *testing.T) {
	event := ReservationEvent{
		Type:              EventReservationValidated,
		ReservationID:     "a1",
		ReservationNumber: "17",
		Model:             "294TL",
		CustomerName:      "ANA GARCÍA",
		Phone:             "600111222",
		TotalAmount:       750,
		DepositAmount:     230,
		OccurredAt:        time.Date(2024, time.May, 20, 18, 0, 0, 0, time.UTC),
	}
	data, err := json.Marshal(event)
	require.NoError(t, err)

	var got ReservationEvent
	handler := EventHandler(func(_ context.Context, e ReservationEvent) error {
		got = e
		return nil
	})

	require.NoError(t, handler(context.Background(), kafka.Message{Value: data}))
	assert.Equal(t, event, got)
}

func TestEventHandler_SkipsGarbage(t *testing.T) {
	called := false
	handler := EventHandler(func(context.Context, ReservationEvent) error {
		called = true
		return nil
	})

	assert.NoError(t, handler(context.Background(), kafka.Message{Value: []byte("not json")}))
	assert.False(t, called)
}

func TestEventHandler_PropagatesHandlerError(t *testing.T) {
	boom := errors.New("boom")
	handler := EventHandler(func(context.Context, ReservationEvent) error { return boom })

	err := handler(context.Background(), kafka.Message{Value: []byte(`{"type":"reservation_saved"}`)})
	assert.ErrorIs(t, err, boom)
}

func TestNilConsumerClose(t *testing.T) {
	var c *Consumer
	assert.NoError(t, c.Close())
}

func TestProducer_CheckConnectionWithoutBrokers(t *testing.T) {
	p := NewProducer(nil)
	defer p.Close()
	assert.Error(t, p.CheckConnection(context.Background()))
}
