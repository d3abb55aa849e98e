// Package pricing computes the client-side booking preview. The backend's
// total is authoritative; this only shows the user what to expect.
package pricing

import (
	"errors"
	"math"
	"time"

	"car-rental/internal/api"
	"car-rental/internal/models"
)

// InvalidRangeMessage is shown when the end date is not after the start date.
const InvalidRangeMessage = "End date must be after start date."

// ErrInvalidRange is returned for end <= start. It is an api validation
// error so callers surface it like any other client-side check; errors.Is
// matches it only for this check.
var ErrInvalidRange = &api.Error{
	Kind:    api.KindValidation,
	Message: InvalidRangeMessage,
	Err:     errors.New("end date not after start date"),
}

// Quote is a previewed booking price.
type Quote struct {
	Days  int
	Price float64 // per day
	Total float64
}

// Days returns the number of rental days between start and end, rounding
// partial days up. It is zero or negative when end is not after start.
func Days(start, end time.Time) int {
	return int(math.Ceil(end.Sub(start).Hours() / 24))
}

// Preview returns the expected total for renting at pricePerDay from start to end.
func Preview(pricePerDay float64, start, end models.Date) (Quote, error) {
	if start.IsZero() || end.IsZero() || !end.After(start.Time) {
		return Quote{}, ErrInvalidRange
	}
	days := Days(start.Time, end.Time)
	return Quote{Days: days, Price: pricePerDay, Total: float64(days) * pricePerDay}, nil
}

// Validate checks a booking request before it is sent.
func Validate(req models.BookingRequest) error {
	if req.StartDate.IsZero() || req.EndDate.IsZero() || !req.EndDate.After(req.StartDate.Time) {
		return ErrInvalidRange
	}
	return nil
}
