package handlers

import (
	"net/http"
	"testing"

	"car-rental/internal/api"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileOpen(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	require.NoError(t, f.client.AddFavorite(f.ctx, 3))
	c := NewProfileController(f.deps)

	ok, err := c.Open(f.ctx)
	require.NoError(t, err)
	require.True(t, ok)

	v := c.View()
	assert.Equal(t, []ProfileField{
		{Label: "Name", Value: "A"},
		{Label: "Email", Value: "a@b.com"},
		{Label: "Phone", Value: "555-0100"},
	}, v.Fields)
	require.Len(t, v.Favorites, 1)
	assert.Equal(t, "Ford Mustang", v.Favorites[0].Title)
	assert.Equal(t, favoritesPlaceholder, v.Favorites[0].ImageURL)
	assert.False(t, v.FavoritesEmpty)
}

func TestProfileUpdate(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	c := NewProfileController(f.deps)
	require.NoError(t, c.Load(f.ctx))

	require.NoError(t, c.Update(f.ctx, "B", ""))
	assert.Equal(t, "Profile updated successfully!", f.notification(t).Message)

	v := c.View()
	assert.Equal(t, "B", v.Form.Name)
	assert.Equal(t, "N/A", v.Fields[2].Value)
	assert.False(t, v.Updating)

	// The server requires a name.
	err := c.Update(f.ctx, "", "1")
	require.ErrorIs(t, err, api.ErrRejected)
	assert.Equal(t, LevelError, f.notification(t).Level)
	assert.Equal(t, "B", c.View().Form.Name)
}

func TestProfileRemoveFavorite(t *testing.T) {
	f := newFixture(t)
	f.signIn(t)
	require.NoError(t, f.client.AddFavorite(f.ctx, 1))
	c := NewProfileController(f.deps)
	require.NoError(t, c.LoadFavorites(f.ctx))
	require.Len(t, c.View().Favorites, 1)

	require.NoError(t, c.RemoveFavorite(f.ctx, 1))
	assert.Equal(t, "Car removed from favorites.", f.notification(t).Message)
	assert.True(t, c.View().FavoritesEmpty)
	assert.Equal(t, 2, f.countRequests(http.MethodGet, "/api/users/favorites"))

	require.Error(t, c.RemoveFavorite(f.ctx, 1))
	assert.Equal(t, "Failed to remove favorite. Please try again.", f.notification(t).Message)
}

func TestProfileLoadRedirectsWithoutSession(t *testing.T) {
	f := newFixture(t)
	c := NewProfileController(f.deps)

	ok, err := c.Open(f.ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, []Page{PageLogin}, f.nav.visited())
	assert.Empty(t, f.backend.Requests())
}
