package handlers

import (
	"context"
	"time"
)

// Page is a navigation target.
type Page string

const (
	PageLogin    Page = "login"
	PageCatalog  Page = "catalog"
	PageBookings Page = "bookings"
	PageProfile  Page = "profile"
)

// Navigator performs a full page change.
type Navigator interface {
	Navigate(p Page)
}

// NavigatorFunc adapts a function to a Navigator.
type NavigatorFunc func(p Page)

func (f NavigatorFunc) Navigate(p Page) { f(p) }

// Scheduler runs f once after d. The returned stop cancels it if it has
// not fired yet.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func() bool)
}

type timeScheduler struct{}

func (timeScheduler) AfterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

// RealScheduler is backed by time.AfterFunc.
func RealScheduler() Scheduler { return timeScheduler{} }

// RequireAuth redirects to the login page when there is no session.
// It reports whether the page may load.
func RequireAuth(ctx context.Context, sess Session, nav Navigator) bool {
	if sess.IsAuthenticated(ctx) {
		return true
	}
	nav.Navigate(PageLogin)
	return false
}

// RedirectIfAuthenticated sends an already signed-in user from the login
// page to the catalog. It reports whether a redirect happened.
func RedirectIfAuthenticated(ctx context.Context, sess Session, nav Navigator) bool {
	if !sess.IsAuthenticated(ctx) {
		return false
	}
	nav.Navigate(PageCatalog)
	return true
}

// Logout clears the session and returns to the login page.
func Logout(ctx context.Context, sess Session, nav Navigator) error {
	if err := sess.Clear(ctx); err != nil {
		return err
	}
	nav.Navigate(PageLogin)
	return nil
}
