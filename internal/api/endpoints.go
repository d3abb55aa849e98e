package api

import (
	"context"
	"fmt"
	"net/http"

	"car-rental/internal/models"
)

// Login authenticates and stores the returned session.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	return c.authenticate(ctx, "/auth/login", models.LoginRequest{Email: email, Password: password})
}

// Register creates an account and stores the returned session.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	return c.authenticate(ctx, "/auth/register", req)
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*models.AuthResponse, error) {
	var out models.AuthResponse
	if err := c.Do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	if err := c.session.SetSession(ctx, out.Token, *out.User); err != nil {
		return nil, err
	}
	return &out, nil
}

// Cars lists every car.
func (c *Client) Cars(ctx context.Context) ([]models.Car, error) {
	var out []models.Car
	if err := c.Do(ctx, http.MethodGet, "/cars", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Bookings lists the current user's bookings.
func (c *Client) Bookings(ctx context.Context) ([]models.Booking, error) {
	var out []models.Booking
	if err := c.Do(ctx, http.MethodGet, "/bookings", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateBooking books a car. The server computes the authoritative total.
func (c *Client) CreateBooking(ctx context.Context, req models.BookingRequest) (*models.Booking, error) {
	var out models.Booking
	if err := c.Do(ctx, http.MethodPost, "/bookings", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CancelBooking cancels a booking. The response body is ignored.
func (c *Client) CancelBooking(ctx context.Context, id int64) error {
	return c.Do(ctx, http.MethodDelete, fmt.Sprintf("/bookings/%d", id), nil, nil)
}

// Profile fetches the current user's profile.
func (c *Client) Profile(ctx context.Context) (*models.Profile, error) {
	var out models.Profile
	if err := c.Do(ctx, http.MethodGet, "/users/profile", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile changes name and phone and returns the stored profile.
func (c *Client) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.Profile, error) {
	var out models.Profile
	if err := c.Do(ctx, http.MethodPut, "/users/profile", upd, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Favorites lists the current user's favorite cars.
func (c *Client) Favorites(ctx context.Context) ([]models.Car, error) {
	var out []models.Car
	if err := c.Do(ctx, http.MethodGet, "/users/favorites", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// AddFavorite marks a car as favorite.
func (c *Client) AddFavorite(ctx context.Context, carID int64) error {
	return c.Do(ctx, http.MethodPost, fmt.Sprintf("/users/favorites/%d", carID), nil, nil)
}

// RemoveFavorite unmarks a favorite car.
func (c *Client) RemoveFavorite(ctx context.Context, carID int64) error {
	return c.Do(ctx, http.MethodDelete, fmt.Sprintf("/users/favorites/%d", carID), nil, nil)
}
