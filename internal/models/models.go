package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for booking dates.
const DateLayout = "2006-01-02"

// Date is a calendar day. It marshals as YYYY-MM-DD and also accepts
// RFC 3339 timestamps, which some backends return for stored bookings.
type Date struct {
	time.Time
}

// ParseDate parses a YYYY-MM-DD or RFC 3339 string.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DateLayout, time.RFC3339Nano, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Time: t}, nil
		}
	}
	return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
}

// String returns the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Car is a rentable vehicle as listed by the backend.
type Car struct {
	ID          int64   `json:"id" validate:"required"`
	Make        string  `json:"make" validate:"required"`
	Model       string  `json:"model" validate:"required"`
	Year        int     `json:"year" validate:"gte=0"`
	Price       float64 `json:"price" validate:"gte=0"`
	Description string  `json:"description,omitempty"`
	ImageURL    string  `json:"image_url,omitempty"`
}

// UnmarshalJSON accepts both image_url and imageUrl for the picture.
func (c *Car) UnmarshalJSON(data []byte) error {
	type plain Car
	var aux struct {
		plain
		ImageURLCamel string `json:"imageUrl"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*c = Car(aux.plain)
	if c.ImageURL == "" {
		c.ImageURL = aux.ImageURLCamel
	}
	return nil
}

// Title is "Make Model".
func (c Car) Title() string {
	return strings.TrimSpace(c.Make + " " + c.Model)
}

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusActive    BookingStatus = "active"
	BookingStatusCompleted BookingStatus = "completed"
	BookingStatusCancelled BookingStatus = "cancelled"
)

// Normalize lower-cases the status and maps unknown values to active.
func (s BookingStatus) Normalize() BookingStatus {
	switch v := BookingStatus(strings.ToLower(string(s))); v {
	case BookingStatusActive, BookingStatusCompleted, BookingStatusCancelled:
		return v
	default:
		return BookingStatusActive
	}
}

// Booking is a reservation of a car for a date range.
type Booking struct {
	ID         int64         `json:"id" validate:"required"`
	Car        *Car          `json:"car,omitempty"`
	StartDate  Date          `json:"startDate"`
	EndDate    Date          `json:"endDate"`
	TotalPrice float64       `json:"totalPrice" validate:"gte=0"`
	Status     BookingStatus `json:"status"`
}

// Cancellable reports whether the booking can still be cancelled.
func (b Booking) Cancellable() bool {
	return strings.EqualFold(string(b.Status), string(BookingStatusActive))
}

// User is the account record returned on login and registration.
type User struct {
	ID    int64  `json:"id" validate:"required"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Profile is the current user's editable profile.
type Profile struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
	Phone string `json:"phone"`
}

// AuthResponse is the body of a successful login or registration.
type AuthResponse struct {
	Token string `json:"token" validate:"required"`
	User  *User  `json:"user" validate:"required"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
}

// BookingRequest is the body of POST /bookings.
type BookingRequest struct {
	CarID     int64 `json:"carId"`
	StartDate Date  `json:"startDate"`
	EndDate   Date  `json:"endDate"`
}

// ProfileUpdate is the body of PUT /users/profile.
type ProfileUpdate struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}
