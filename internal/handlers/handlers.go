// Package handlers holds the page controllers of the rental client. Each
// controller owns its state, talks to the backend through the API client
// and exposes a view model for rendering.
package handlers

import (
	"context"
	"errors"
	"sync"
	"time"

	"car-rental/internal/api"
	"car-rental/internal/models"

	"github.com/rs/zerolog"
)

const (
	// RedirectDelay is how long a success message stays visible before navigating.
	RedirectDelay = time.Second
	// NotificationTTL is how long a notification is shown.
	NotificationTTL = 5 * time.Second

	// ActionNetworkMessage is shown when a mutating action cannot reach the server.
	ActionNetworkMessage = "Network error. Please try again."
)

// Backend is the subset of the API client the controllers use.
type Backend interface {
	Login(ctx context.Context, email, password string) (*models.AuthResponse, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error)
	Cars(ctx context.Context) ([]models.Car, error)
	Favorites(ctx context.Context) ([]models.Car, error)
	AddFavorite(ctx context.Context, carID int64) error
	RemoveFavorite(ctx context.Context, carID int64) error
	CreateBooking(ctx context.Context, req models.BookingRequest) (*models.Booking, error)
	Bookings(ctx context.Context) ([]models.Booking, error)
	CancelBooking(ctx context.Context, id int64) error
	Profile(ctx context.Context) (*models.Profile, error)
	UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.Profile, error)
}

// Session is the subset of the session store the controllers use.
type Session interface {
	IsAuthenticated(ctx context.Context) bool
	Clear(ctx context.Context) error
}

// Deps are shared by every controller.
type Deps struct {
	API           Backend
	Session       Session
	Nav           Navigator
	Notify        *Notifier
	Scheduler     Scheduler
	RedirectDelay time.Duration
	Logger        zerolog.Logger
}

var (
	// ErrSubmitInProgress is returned when a form is submitted twice.
	ErrSubmitInProgress = errors.New("submission already in progress")
	// ErrUnknownCar is returned when a car id is not in the loaded list.
	ErrUnknownCar = errors.New("car not found in the current list")
	// ErrNoSelection is returned when booking without an open car.
	ErrNoSelection = errors.New("no car selected")

	errStale = errors.New("superseded by a newer request")
)

// loadMessage is the notification for a failed fetch. Server messages are
// not shown for loads.
func loadMessage(err error, fallback string) string {
	if api.IsKind(err, api.KindNetwork) {
		return api.NetworkMessage
	}
	return fallback
}

// actionMessage is the notification for a failed mutation.
func actionMessage(err error, fallback string) string {
	if api.IsKind(err, api.KindNetwork) {
		return ActionNetworkMessage
	}
	return api.Describe(err, fallback)
}

// fixedActionMessage is used where the pages show a fixed failure text
// even when the server sent a message.
func fixedActionMessage(err error, fallback string) string {
	if api.IsKind(err, api.KindNetwork) {
		return ActionNetworkMessage
	}
	return fallback
}

// generation tags fetches so that only the latest response is applied.
type generation struct {
	mu sync.Mutex
	n  uint64
}

func (g *generation) next() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return g.n
}

func (g *generation) isCurrent(n uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.n == n
}

func (d Deps) withDefaults() Deps {
	if d.Scheduler == nil {
		d.Scheduler = RealScheduler()
	}
	if d.Notify == nil {
		d.Notify = NewNotifier(NotificationTTL, d.Scheduler, nil)
	}
	if d.Nav == nil {
		d.Nav = NavigatorFunc(func(Page) {})
	}
	if d.RedirectDelay <= 0 {
		d.RedirectDelay = RedirectDelay
	}
	return d
}
