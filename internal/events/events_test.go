package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pothikbondhu/internal/domain/models"
)

func TestEncodeUsesStringIDs(t *testing.T) {
	e := BookingEvent{
		Type: "accept", BookingID: 4, UserID: 1, GuideID: 2,
		Status: models.StatusActive, OccurredAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
	assert.Equal(t, "booking.accept", e.RoutingKey())

	b, err := Encode(e)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "4", got["bookingId"])
	assert.Equal(t, "active", got["status"])
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.Publish(context.Background(), BookingEvent{Type: "create"}))
}
