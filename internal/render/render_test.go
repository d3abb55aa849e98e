package render

import (
	"bytes"
	"testing"

	"car-rental/internal/handlers"
	"car-rental/internal/models"
	"car-rental/internal/pricing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalog(t *testing.T) {
	tests := []struct {
		name string
		view handlers.CatalogView
		want []string
	}{
		{
			name: "loading",
			view: handlers.CatalogView{Loading: true},
			want: []string{"Loading cars..."},
		},
		{
			name: "empty",
			view: handlers.CatalogView{Empty: true},
			want: []string{"No cars available right now."},
		},
		{
			name: "cars",
			view: handlers.CatalogView{Cars: []handlers.CarCard{
				{
					Car:      models.Car{ID: 1, Make: "Toyota", Model: "Corolla", Year: 2022, Price: 50, Description: "Reliable"},
					Title:    "Toyota Corolla",
					ImageURL: "https://img/1.png",
				},
				{
					Car:      models.Car{ID: 2, Make: "Tesla", Model: "Model 3", Year: 2023, Price: 120},
					Title:    "Tesla Model 3",
					Favorite: true,
				},
			}},
			want: []string{
				"#1  Toyota Corolla (2022)  $50.00/day\n    Reliable\n    image: https://img/1.png\n",
				"#2  Tesla Model 3 (2023)  $120.00/day  [favorite]\n",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, Catalog(&buf, tt.view))
			for _, w := range tt.want {
				assert.Contains(t, buf.String(), w)
			}
		})
	}
}

func TestQuote(t *testing.T) {
	start, err := models.ParseDate("2025-01-01")
	require.NoError(t, err)
	end, err := models.ParseDate("2025-01-04")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Quote(&buf, handlers.BookingForm{
		Car:   models.Car{ID: 1, Make: "Toyota", Model: "Corolla", Price: 50},
		Start: start,
		End:   end,
		Quote: pricing.Quote{Days: 3, Price: 50, Total: 150},
	}))
	assert.Equal(t, "Toyota Corolla from January 1, 2025 to January 4, 2025\n3 day(s) x $50.00 = $150.00\n", buf.String())
}

func TestBookings(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Bookings(&buf, handlers.BookingsView{Rows: []handlers.BookingRow{
		{
			Booking:     models.Booking{ID: 7},
			Title:       "Ford Mustang",
			StartDate:   "March 1, 2025",
			EndDate:     "March 3, 2025",
			TotalPrice:  190,
			Status:      "Active",
			Cancellable: true,
		},
		{
			Booking:    models.Booking{ID: 8},
			Title:      "Tesla Model 3",
			TotalPrice: 120,
			Status:     "Cancelled",
		},
	}}))

	out := buf.String()
	assert.Contains(t, out, "#7  Ford Mustang  [Active]\n    March 1, 2025 - March 3, 2025  total $190.00\n    cancel with: rentctl bookings cancel 7\n")
	assert.Contains(t, out, "#8  Tesla Model 3  [Cancelled]")
	assert.NotContains(t, out, "bookings cancel 8")

	buf.Reset()
	require.NoError(t, Bookings(&buf, handlers.BookingsView{Empty: true}))
	assert.Equal(t, "You have no bookings yet.\n", buf.String())
}

func TestProfileAndFavorites(t *testing.T) {
	v := handlers.ProfileView{
		Fields: []handlers.ProfileField{
			{Label: "Name", Value: "A"},
			{Label: "Email", Value: "a@b.com"},
			{Label: "Phone", Value: "N/A"},
		},
		FavoritesEmpty: true,
	}

	var buf bytes.Buffer
	require.NoError(t, Profile(&buf, v))
	assert.Equal(t, "Name   A\nEmail  a@b.com\nPhone  N/A\n", buf.String())

	buf.Reset()
	require.NoError(t, Favorites(&buf, v))
	assert.Equal(t, "No favorite cars yet.\n", buf.String())
}

func TestNotification(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Notification(&buf, nil))
	assert.Empty(t, buf.String())

	require.NoError(t, Notification(&buf, &handlers.Notification{Level: handlers.LevelError, Message: "Failed"}))
	assert.Equal(t, "Error: Failed\n", buf.String())

	buf.Reset()
	require.NoError(t, Notification(&buf, &handlers.Notification{Level: handlers.LevelSuccess, Message: "Saved"}))
	assert.Equal(t, "Saved\n", buf.String())
}
