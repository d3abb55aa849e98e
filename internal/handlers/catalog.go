package handlers

import (
	"context"
	"sync"

	"car-rental/internal/models"
	"car-rental/internal/pricing"

	"github.com/rs/zerolog"
)

const (
	catalogPlaceholder = "https://via.placeholder.com/400x200?text=Car+Image"

	bookingConfirmedMessage = `Booking confirmed! Check "My Bookings" to view details.`
)

// CarCard is one car in a grid.
type CarCard struct {
	Car      models.Car
	Title    string
	ImageURL string
	Favorite bool
}

// BookingForm is the open booking dialog.
type BookingForm struct {
	Car        models.Car
	Start      models.Date
	End        models.Date
	Quote      pricing.Quote
	Submitting bool
}

// CatalogView is the render model of the car listing.
type CatalogView struct {
	Loading bool
	Cars    []CarCard
	Empty   bool
	Booking *BookingForm
}

// CatalogController drives the car listing, favorites toggling and booking.
type CatalogController struct {
	deps Deps
	log  zerolog.Logger
	gen  generation // cars fetches
	fav  generation // favorites fetches

	mu        sync.Mutex
	loading   bool
	cars      []models.Car
	favorites []models.Car
	selected  *BookingForm
}

func NewCatalogController(d Deps) *CatalogController {
	d = d.withDefaults()
	return &CatalogController{deps: d, log: d.Logger.With().Str("page", "catalog").Logger()}
}

// Open checks the session and loads the listing.
func (c *CatalogController) Open(ctx context.Context) (bool, error) {
	if !RequireAuth(ctx, c.deps.Session, c.deps.Nav) {
		return false, nil
	}
	return true, c.Load(ctx)
}

// Load fetches cars and then favorites. A favorites failure is only logged.
func (c *CatalogController) Load(ctx context.Context) error {
	gen := c.gen.next()
	c.setLoading(true)
	defer func() {
		if c.gen.isCurrent(gen) {
			c.setLoading(false)
		}
	}()

	cars, err := c.deps.API.Cars(ctx)
	if !c.gen.isCurrent(gen) {
		c.log.Debug().Uint64("generation", gen).Msg("discarding stale cars response")
		return nil
	}
	if err != nil {
		c.deps.Notify.Error(loadMessage(err, "Failed to load cars. Please try again."))
		return err
	}

	favGen := c.fav.next()
	favorites, favErr := c.deps.API.Favorites(ctx)
	if !c.gen.isCurrent(gen) {
		return nil
	}
	if !c.fav.isCurrent(favGen) {
		favErr = errStale
	}
	if favErr != nil && favErr != errStale {
		c.log.Warn().Err(favErr).Msg("load favorites failed")
	}

	c.mu.Lock()
	c.cars = cars
	if favErr == nil {
		c.favorites = favorites
	}
	c.mu.Unlock()
	return nil
}

func (c *CatalogController) reloadFavorites(ctx context.Context) {
	gen := c.fav.next()
	favorites, err := c.deps.API.Favorites(ctx)
	if !c.fav.isCurrent(gen) {
		return
	}
	if err != nil {
		c.log.Warn().Err(err).Msg("load favorites failed")
		return
	}
	c.mu.Lock()
	c.favorites = favorites
	c.mu.Unlock()
}

func (c *CatalogController) setLoading(v bool) {
	c.mu.Lock()
	c.loading = v
	c.mu.Unlock()
}

// IsFavorite reports whether carID is in the loaded favorites.
func (c *CatalogController) IsFavorite(carID int64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.isFavoriteLocked(carID)
}

func (c *CatalogController) isFavoriteLocked(carID int64) bool {
	for _, f := range c.favorites {
		if f.ID == carID {
			return true
		}
	}
	return false
}

// ToggleFavorite adds or removes carID from favorites, then re-fetches them.
func (c *CatalogController) ToggleFavorite(ctx context.Context, carID int64) error {
	wasFavorite := c.IsFavorite(carID)

	var err error
	if wasFavorite {
		err = c.deps.API.RemoveFavorite(ctx, carID)
	} else {
		err = c.deps.API.AddFavorite(ctx, carID)
	}
	if err != nil {
		c.deps.Notify.Error(fixedActionMessage(err, "Failed to update favorites. Please try again."))
		return err
	}

	c.reloadFavorites(ctx)
	if wasFavorite {
		c.deps.Notify.Success("Removed from favorites")
	} else {
		c.deps.Notify.Success("Added to favorites")
	}
	return nil
}

// OpenBooking selects a car from the loaded list for booking.
func (c *CatalogController) OpenBooking(carID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, car := range c.cars {
		if car.ID == carID {
			c.selected = &BookingForm{Car: car}
			return nil
		}
	}
	return ErrUnknownCar
}

// CloseBooking drops the selection.
func (c *CatalogController) CloseBooking() {
	c.mu.Lock()
	c.selected = nil
	c.mu.Unlock()
}

// Preview updates the dialog dates and returns the expected total. An
// invalid range previews as zero.
func (c *CatalogController) Preview(start, end models.Date) (pricing.Quote, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.selected == nil {
		return pricing.Quote{}, ErrNoSelection
	}
	c.selected.Start, c.selected.End = start, end
	q, err := pricing.Preview(c.selected.Car.Price, start, end)
	if err != nil {
		c.selected.Quote = pricing.Quote{Price: c.selected.Car.Price}
		return c.selected.Quote, err
	}
	c.selected.Quote = q
	return q, nil
}

// Book submits the open booking dialog. An invalid range is rejected
// before any request is sent.
func (c *CatalogController) Book(ctx context.Context, start, end models.Date) (*models.Booking, error) {
	c.mu.Lock()
	if c.selected == nil {
		c.mu.Unlock()
		return nil, ErrNoSelection
	}
	if c.selected.Submitting {
		c.mu.Unlock()
		return nil, ErrSubmitInProgress
	}
	req := models.BookingRequest{CarID: c.selected.Car.ID, StartDate: start, EndDate: end}
	if err := pricing.Validate(req); err != nil {
		c.mu.Unlock()
		c.deps.Notify.Error(pricing.InvalidRangeMessage)
		return nil, err
	}
	form := c.selected
	form.Submitting = true
	c.mu.Unlock()

	booking, err := c.deps.API.CreateBooking(ctx, req)

	c.mu.Lock()
	form.Submitting = false
	if err == nil && c.selected == form {
		c.selected = nil
	}
	c.mu.Unlock()

	if err != nil {
		c.deps.Notify.Error(actionMessage(err, "Booking failed. Please try again."))
		return nil, err
	}
	c.deps.Notify.Success(bookingConfirmedMessage)
	return booking, nil
}

// View returns the page render model.
func (c *CatalogController) View() CatalogView {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := CatalogView{Loading: c.loading, Cars: make([]CarCard, 0, len(c.cars))}
	for _, car := range c.cars {
		v.Cars = append(v.Cars, CarCard{
			Car:      car,
			Title:    car.Title(),
			ImageURL: imageOr(car.ImageURL, catalogPlaceholder),
			Favorite: c.isFavoriteLocked(car.ID),
		})
	}
	v.Empty = !c.loading && len(v.Cars) == 0
	if c.selected != nil {
		form := *c.selected
		v.Booking = &form
	}
	return v
}

func imageOr(url, placeholder string) string {
	if url == "" {
		return placeholder
	}
	return url
}
