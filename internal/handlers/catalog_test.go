package handlers

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"car-rental/internal/api"
	"car-rental/internal/models"
	"car-rental/internal/pricing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type CatalogTestSuite struct {
	suite.Suite
	f *fixture
	c *CatalogController
}

func (suite *CatalogTestSuite) SetupTest() {
	suite.f = newFixture(suite.T())
	suite.f.signIn(suite.T())
	suite.c = NewCatalogController(suite.f.deps)

	ok, err := suite.c.Open(suite.f.ctx)
	suite.Require().NoError(err)
	suite.Require().True(ok)
}

func (suite *CatalogTestSuite) date(s string) models.Date {
	d, err := models.ParseDate(s)
	suite.Require().NoError(err)
	return d
}

func (suite *CatalogTestSuite) TestLoadListsCars() {
	v := suite.c.View()
	suite.False(v.Loading)
	suite.False(v.Empty)
	suite.Require().Len(v.Cars, 3)
	suite.Equal("Toyota Corolla", v.Cars[0].Title)
	suite.Equal(catalogPlaceholder, v.Cars[0].ImageURL)
	suite.NotEqual(catalogPlaceholder, v.Cars[1].ImageURL)
	for _, card := range v.Cars {
		suite.False(card.Favorite)
	}
}

func (suite *CatalogTestSuite) TestToggleFavoriteTwiceRestores() {
	ctx := suite.f.ctx

	suite.Require().NoError(suite.c.ToggleFavorite(ctx, 2))
	suite.True(suite.c.IsFavorite(2))
	suite.Equal("Added to favorites", suite.f.notification(suite.T()).Message)

	suite.Require().NoError(suite.c.ToggleFavorite(ctx, 2))
	suite.False(suite.c.IsFavorite(2))
	suite.Equal("Removed from favorites", suite.f.notification(suite.T()).Message)

	// Each mutation re-fetches favorites.
	suite.Equal(3, suite.f.countRequests(http.MethodGet, "/api/users/favorites"))
}

func (suite *CatalogTestSuite) TestToggleFavoriteFailureUsesFixedText() {
	err := suite.c.ToggleFavorite(suite.f.ctx, 99)
	suite.Require().ErrorIs(err, api.ErrRejected)
	suite.Equal("Failed to update favorites. Please try again.", suite.f.notification(suite.T()).Message)
}

func (suite *CatalogTestSuite) TestPreview() {
	suite.Require().NoError(suite.c.OpenBooking(1))

	q, err := suite.c.Preview(suite.date("2025-01-01"), suite.date("2025-01-04"))
	suite.Require().NoError(err)
	suite.Equal(3, q.Days)
	suite.InDelta(150.0, q.Total, 1e-9)
	suite.InDelta(150.0, suite.c.View().Booking.Quote.Total, 1e-9)

	q, err = suite.c.Preview(suite.date("2025-01-04"), suite.date("2025-01-01"))
	suite.ErrorIs(err, pricing.ErrInvalidRange)
	suite.Zero(q.Total)
}

func (suite *CatalogTestSuite) TestBookInvalidRangeSendsNothing() {
	suite.Require().NoError(suite.c.OpenBooking(1))
	before := suite.f.countRequests(http.MethodPost, "/api/bookings")

	_, err := suite.c.Book(suite.f.ctx, suite.date("2025-01-05"), suite.date("2025-01-05"))
	suite.Require().Error(err)
	suite.True(api.IsKind(err, api.KindValidation))
	suite.Equal(before, suite.f.countRequests(http.MethodPost, "/api/bookings"))

	n := suite.f.notification(suite.T())
	suite.Equal(LevelError, n.Level)
	suite.Equal(pricing.InvalidRangeMessage, n.Message)
	suite.NotNil(suite.c.View().Booking)
}

func (suite *CatalogTestSuite) TestBook() {
	suite.Require().NoError(suite.c.OpenBooking(1))

	b, err := suite.c.Book(suite.f.ctx, suite.date("2025-01-01"), suite.date("2025-01-04"))
	suite.Require().NoError(err)
	suite.InDelta(150.0, b.TotalPrice, 1e-9)
	suite.Nil(suite.c.View().Booking)
	suite.Equal(bookingConfirmedMessage, suite.f.notification(suite.T()).Message)

	// Overlapping dates are refused by the server and the dialog stays open.
	suite.Require().NoError(suite.c.OpenBooking(1))
	_, err = suite.c.Book(suite.f.ctx, suite.date("2025-01-02"), suite.date("2025-01-03"))
	suite.Require().ErrorIs(err, api.ErrRejected)
	suite.Equal("Car is not available for the selected dates", suite.f.notification(suite.T()).Message)
	suite.NotNil(suite.c.View().Booking)
}

func (suite *CatalogTestSuite) TestBookingSelection() {
	suite.ErrorIs(suite.c.OpenBooking(42), ErrUnknownCar)

	suite.c.CloseBooking()
	_, err := suite.c.Preview(suite.date("2025-01-01"), suite.date("2025-01-02"))
	suite.ErrorIs(err, ErrNoSelection)
	_, err = suite.c.Book(suite.f.ctx, suite.date("2025-01-01"), suite.date("2025-01-02"))
	suite.ErrorIs(err, ErrNoSelection)
}

func TestCatalogSuite(t *testing.T) {
	suite.Run(t, new(CatalogTestSuite))
}

// gatedBackend hands each Cars call its own reply channel, so responses
// can be delivered out of order.
type gatedBackend struct {
	Backend
	calls chan chan []models.Car
}

func (g *gatedBackend) Cars(ctx context.Context) ([]models.Car, error) {
	reply := make(chan []models.Car)
	g.calls <- reply
	return <-reply, nil
}

func (g *gatedBackend) Favorites(ctx context.Context) ([]models.Car, error) {
	return nil, nil
}

func TestCatalogDiscardsStaleResponse(t *testing.T) {
	f := newFixture(t)
	gb := &gatedBackend{calls: make(chan chan []models.Car)}
	d := f.deps
	d.API = gb
	c := NewCatalogController(d)
	ctx := context.Background()

	first := make(chan error, 1)
	go func() { first <- c.Load(ctx) }()
	older := <-gb.calls

	second := make(chan error, 1)
	go func() { second <- c.Load(ctx) }()
	newer := <-gb.calls

	newer <- []models.Car{{ID: 9, Make: "Newer", Model: "One"}}
	require.NoError(t, <-second)
	older <- []models.Car{{ID: 8, Make: "Older", Model: "One"}}
	require.NoError(t, <-first)

	v := c.View()
	require.Len(t, v.Cars, 1)
	assert.Equal(t, int64(9), v.Cars[0].Car.ID)
	assert.False(t, v.Loading)
}

// gatedProfileBackend holds each Profile call until the test replies,
// while UpdateProfile answers at once.
type gatedProfileBackend struct {
	Backend
	calls     chan chan *models.Profile
	updateErr error
}

func (g *gatedProfileBackend) Profile(ctx context.Context) (*models.Profile, error) {
	reply := make(chan *models.Profile)
	g.calls <- reply
	return <-reply, nil
}

func (g *gatedProfileBackend) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.Profile, error) {
	if g.updateErr != nil {
		return nil, g.updateErr
	}
	return &models.Profile{Name: upd.Name, Email: "a@b.com", Phone: upd.Phone}, nil
}

func TestProfileUpdateDuringLoad(t *testing.T) {
	tests := []struct {
		name      string
		updateErr error
		wantName  string
	}{
		{name: "saved update wins over the older load", wantName: "Updated"},
		{name: "failed update leaves the load result", updateErr: &api.Error{Kind: api.KindRejected, Status: http.StatusBadRequest, Message: "Name is required"}, wantName: "Loaded"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			gb := &gatedProfileBackend{calls: make(chan chan *models.Profile), updateErr: tt.updateErr}
			d := f.deps
			d.API = gb
			c := NewProfileController(d)
			ctx := context.Background()

			loaded := make(chan error, 1)
			go func() { loaded <- c.Load(ctx) }()
			reply := <-gb.calls
			assert.True(t, c.View().Loading)

			err := c.Update(ctx, "Updated", "1")
			if tt.updateErr != nil {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}

			reply <- &models.Profile{Name: "Loaded", Email: "a@b.com"}
			require.NoError(t, <-loaded)

			v := c.View()
			assert.False(t, v.Loading)
			assert.Equal(t, tt.wantName, v.Form.Name)
		})
	}
}

func TestCatalogLoadFailure(t *testing.T) {
	f := newFixture(t)
	c := NewCatalogController(f.deps)

	// Not signed in: the server rejects and a fixed message is shown.
	err := c.Load(f.ctx)
	require.ErrorIs(t, err, api.ErrRejected)
	assert.Equal(t, "Failed to load cars. Please try again.", f.notification(t).Message)
	assert.True(t, errors.Is(err, &api.Error{Kind: api.KindRejected, Status: http.StatusUnauthorized}))
}
