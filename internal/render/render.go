// Package render turns controller view models into terminal text.
package render

import (
	"embed"
	"fmt"
	"io"
	"text/template"

	"car-rental/internal/handlers"
	"car-rental/internal/models"
)

//go:embed templates/*.tmpl
var files embed.FS

var funcs = template.FuncMap{
	"money": func(v float64) string { return fmt.Sprintf("$%.2f", v) },
	"date":  func(d models.Date) string { return handlers.FormatDate(d) },
}

var tmpl = template.Must(template.New("render").Funcs(funcs).ParseFS(files, "templates/*.tmpl"))

func render(w io.Writer, name string, data any) error {
	if err := tmpl.ExecuteTemplate(w, name, data); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	return nil
}

// Catalog writes the car listing.
func Catalog(w io.Writer, v handlers.CatalogView) error {
	return render(w, "catalog", v)
}

// Quote writes a booking preview.
func Quote(w io.Writer, f handlers.BookingForm) error {
	return render(w, "quote", f)
}

// Bookings writes the bookings list.
func Bookings(w io.Writer, v handlers.BookingsView) error {
	return render(w, "bookings", v)
}

// Profile writes the profile card.
func Profile(w io.Writer, v handlers.ProfileView) error {
	return render(w, "profile", v)
}

// Favorites writes the favorites list of the profile page.
func Favorites(w io.Writer, v handlers.ProfileView) error {
	return render(w, "favorites", v)
}

// Notification writes a notification line. Nothing is written for nil.
func Notification(w io.Writer, n *handlers.Notification) error {
	if n == nil {
		return nil
	}
	return render(w, "notification", n)
}
