package handlers

import (
	"context"
	"strings"
	"sync"

	"car-rental/internal/models"

	"github.com/rs/zerolog"
)

const bookingsPlaceholder = "https://via.placeholder.com/200x120?text=Car+Image"

// BookingRow is one booking card.
type BookingRow struct {
	Booking     models.Booking
	Title       string
	ImageURL    string
	StartDate   string
	EndDate     string
	TotalPrice  float64
	Status      string
	StatusClass string
	Cancellable bool
}

// BookingsView is the render model of "My Bookings".
type BookingsView struct {
	Loading bool
	Rows    []BookingRow
	Empty   bool
}

// BookingsController drives the bookings page.
type BookingsController struct {
	deps Deps
	log  zerolog.Logger
	gen  generation

	mu       sync.Mutex
	loading  bool
	bookings []models.Booking
}

func NewBookingsController(d Deps) *BookingsController {
	d = d.withDefaults()
	return &BookingsController{deps: d, log: d.Logger.With().Str("page", "bookings").Logger()}
}

// Open checks the session and loads bookings.
func (c *BookingsController) Open(ctx context.Context) (bool, error) {
	if !RequireAuth(ctx, c.deps.Session, c.deps.Nav) {
		return false, nil
	}
	return true, c.Load(ctx)
}

// Load fetches the bookings list and replaces the current one.
func (c *BookingsController) Load(ctx context.Context) error {
	gen := c.gen.next()
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()

	bookings, err := c.deps.API.Bookings(ctx)
	if !c.gen.isCurrent(gen) {
		c.log.Debug().Uint64("generation", gen).Msg("discarding stale bookings response")
		return nil
	}

	c.mu.Lock()
	c.loading = false
	if err == nil {
		c.bookings = bookings
	}
	c.mu.Unlock()

	if err != nil {
		c.deps.Notify.Error(loadMessage(err, "Failed to load bookings. Please try again."))
		return err
	}
	return nil
}

// Cancel cancels a booking and re-fetches the list on success.
func (c *BookingsController) Cancel(ctx context.Context, id int64) error {
	if err := c.deps.API.CancelBooking(ctx, id); err != nil {
		c.deps.Notify.Error(actionMessage(err, "Failed to cancel booking. Please try again."))
		return err
	}
	c.deps.Notify.Success("Booking cancelled successfully.")
	return c.Load(ctx)
}

// View returns the page render model.
func (c *BookingsController) View() BookingsView {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := BookingsView{Loading: c.loading, Rows: make([]BookingRow, 0, len(c.bookings))}
	for _, b := range c.bookings {
		car := models.Car{}
		if b.Car != nil {
			car = *b.Car
		}
		title := strings.TrimSpace(car.Make + " " + car.Model)
		if car.Make == "" {
			title = strings.TrimSpace("N/A " + car.Model)
		}
		status := b.Status.Normalize()
		v.Rows = append(v.Rows, BookingRow{
			Booking:     b,
			Title:       title,
			ImageURL:    imageOr(car.ImageURL, bookingsPlaceholder),
			StartDate:   FormatDate(b.StartDate),
			EndDate:     FormatDate(b.EndDate),
			TotalPrice:  b.TotalPrice,
			Status:      capitalize(string(b.Status)),
			StatusClass: "status-" + string(status),
			Cancellable: b.Cancellable(),
		})
	}
	v.Empty = !c.loading && len(v.Rows) == 0
	return v
}

// FormatDate renders a date as "January 2, 2006".
func FormatDate(d models.Date) string {
	if d.IsZero() {
		return "N/A"
	}
	return d.Format("January 2, 2006")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
