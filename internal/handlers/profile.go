package handlers

import (
	"context"
	"sync"

	"car-rental/internal/models"

	"github.com/rs/zerolog"
)

const favoritesPlaceholder = "https://via.placeholder.com/250x150?text=Car+Image"

// ProfileField is one label/value row of the profile card.
type ProfileField struct {
	Label string
	Value string
}

// ProfileView is the render model of the profile page.
type ProfileView struct {
	Loading          bool
	Fields           []ProfileField
	Form             models.Profile
	Updating         bool
	LoadingFavorites bool
	Favorites        []CarCard
	FavoritesEmpty   bool
}

// ProfileController drives the profile page and its favorites list.
type ProfileController struct {
	deps   Deps
	log    zerolog.Logger
	gen    generation // profile results, from loads and updates
	loads  generation // owner of the loading flag
	favGen generation // favorites fetches

	mu               sync.Mutex
	loading          bool
	loadingFavorites bool
	updating         bool
	profile          *models.Profile
	favorites        []models.Car
}

func NewProfileController(d Deps) *ProfileController {
	d = d.withDefaults()
	return &ProfileController{deps: d, log: d.Logger.With().Str("page", "profile").Logger()}
}

// Open checks the session, then loads the profile and the favorites.
// Both loads run even if the first fails; the first error is returned.
func (c *ProfileController) Open(ctx context.Context) (bool, error) {
	if !RequireAuth(ctx, c.deps.Session, c.deps.Nav) {
		return false, nil
	}
	errProfile := c.Load(ctx)
	errFavorites := c.LoadFavorites(ctx)
	if errProfile != nil {
		return true, errProfile
	}
	return true, errFavorites
}

// Load fetches the profile.
func (c *ProfileController) Load(ctx context.Context) error {
	gen := c.gen.next()
	load := c.loads.next()
	c.mu.Lock()
	c.loading = true
	c.mu.Unlock()

	p, err := c.deps.API.Profile(ctx)

	c.mu.Lock()
	if c.loads.isCurrent(load) {
		c.loading = false
	}
	if !c.gen.isCurrent(gen) {
		c.mu.Unlock()
		c.log.Debug().Uint64("generation", gen).Msg("discarding stale profile response")
		return nil
	}
	if err == nil {
		c.profile = p
	}
	c.mu.Unlock()

	if err != nil {
		c.deps.Notify.Error(loadMessage(err, "Failed to load profile. Please try again."))
		return err
	}
	return nil
}

// Update saves name and phone. The server's response replaces the profile.
func (c *ProfileController) Update(ctx context.Context, name, phone string) error {
	c.mu.Lock()
	if c.updating {
		c.mu.Unlock()
		return ErrSubmitInProgress
	}
	c.updating = true
	c.mu.Unlock()

	p, err := c.deps.API.UpdateProfile(ctx, models.ProfileUpdate{Name: name, Phone: phone})

	c.mu.Lock()
	c.updating = false
	if err == nil {
		// A saved profile supersedes any load still in flight.
		c.gen.next()
		c.profile = p
	}
	c.mu.Unlock()

	if err != nil {
		c.deps.Notify.Error(actionMessage(err, "Failed to update profile. Please try again."))
		return err
	}
	c.deps.Notify.Success("Profile updated successfully!")
	return nil
}

// LoadFavorites fetches the favorites list.
func (c *ProfileController) LoadFavorites(ctx context.Context) error {
	gen := c.favGen.next()
	c.mu.Lock()
	c.loadingFavorites = true
	c.mu.Unlock()

	favorites, err := c.deps.API.Favorites(ctx)
	if !c.favGen.isCurrent(gen) {
		return nil
	}

	c.mu.Lock()
	c.loadingFavorites = false
	if err == nil {
		c.favorites = favorites
	}
	c.mu.Unlock()

	if err != nil {
		c.deps.Notify.Error(loadMessage(err, "Failed to load favorites. Please try again."))
		return err
	}
	return nil
}

// RemoveFavorite removes a car from favorites and re-fetches the list.
func (c *ProfileController) RemoveFavorite(ctx context.Context, carID int64) error {
	if err := c.deps.API.RemoveFavorite(ctx, carID); err != nil {
		c.deps.Notify.Error(fixedActionMessage(err, "Failed to remove favorite. Please try again."))
		return err
	}
	c.deps.Notify.Success("Car removed from favorites.")
	return c.LoadFavorites(ctx)
}

// View returns the page render model.
func (c *ProfileController) View() ProfileView {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := ProfileView{
		Loading:          c.loading,
		Updating:         c.updating,
		LoadingFavorites: c.loadingFavorites,
		Favorites:        make([]CarCard, 0, len(c.favorites)),
	}
	if c.profile != nil {
		v.Form = *c.profile
		v.Fields = []ProfileField{
			{Label: "Name", Value: orNA(c.profile.Name)},
			{Label: "Email", Value: orNA(c.profile.Email)},
			{Label: "Phone", Value: orNA(c.profile.Phone)},
		}
	}
	for _, car := range c.favorites {
		v.Favorites = append(v.Favorites, CarCard{
			Car:      car,
			Title:    car.Title(),
			ImageURL: imageOr(car.ImageURL, favoritesPlaceholder),
			Favorite: true,
		})
	}
	v.FavoritesEmpty = !c.loadingFavorites && len(v.Favorites) == 0
	return v
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
