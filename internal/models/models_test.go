package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "2025-01-04", want: "2025-01-04"},
		{in: " 2025-01-04 ", want: "2025-01-04"},
		{in: "2025-01-04T00:00:00Z", want: "2025-01-04"},
		{in: "2025-01-04T10:30:00.000Z", want: "2025-01-04"},
		{in: "04/01/2025", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestBookingJSON(t *testing.T) {
	var b Booking
	require.NoError(t, json.Unmarshal([]byte(`{
		"id": 4,
		"car": {"id": 1, "make": "Toyota", "model": "Corolla", "imageUrl": "https://img/1.png"},
		"startDate": "2025-01-01T00:00:00.000Z",
		"endDate": "2025-01-04",
		"totalPrice": 150,
		"status": "ACTIVE"
	}`), &b))

	assert.Equal(t, "2025-01-01", b.StartDate.String())
	assert.Equal(t, "https://img/1.png", b.Car.ImageURL)
	assert.True(t, b.Cancellable())

	out, err := json.Marshal(BookingRequest{CarID: 1, StartDate: b.StartDate, EndDate: b.EndDate})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"startDate":"2025-01-01"`)
	assert.Contains(t, string(out), `"endDate":"2025-01-04"`)
}

func TestCarImageKeys(t *testing.T) {
	var c Car
	require.NoError(t, json.Unmarshal([]byte(`{"id":2,"make":"Tesla","model":"Model 3","image_url":"a","imageUrl":"b"}`), &c))
	assert.Equal(t, "a", c.ImageURL)
	assert.Equal(t, "Tesla Model 3", c.Title())
}

func TestBookingStatusNormalize(t *testing.T) {
	assert.Equal(t, BookingStatusCancelled, BookingStatus("Cancelled").Normalize())
	assert.Equal(t, BookingStatusCompleted, BookingStatus("completed").Normalize())
	assert.Equal(t, BookingStatusActive, BookingStatus("pending").Normalize())
	assert.False(t, Booking{Status: "pending"}.Cancellable())
}
