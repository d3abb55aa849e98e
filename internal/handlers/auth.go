package handlers

import (
	"context"
	"strings"
	"sync"

	"car-rental/internal/api"
	"car-rental/internal/models"

	"github.com/rs/zerolog"
)

// AuthState is the state of a login or registration submission.
type AuthState int

const (
	StateIdle AuthState = iota
	StateSubmitting
	StateSucceeded
	StateFailed
)

func (s AuthState) String() string {
	switch s {
	case StateSubmitting:
		return "submitting"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "idle"
	}
}

// AuthMode selects which form is shown.
type AuthMode int

const (
	ModeLogin AuthMode = iota
	ModeRegister
)

const (
	loginSuccessMessage    = "Login successful! Redirecting..."
	registerSuccessMessage = "Registration successful! Redirecting..."
	loginFailedMessage     = "Login failed. Please check your credentials."
	registerFailedMessage  = "Registration failed. Please try again."
)

// AuthView is the render model of the login/registration page.
type AuthView struct {
	Mode             AuthMode
	State            AuthState
	Subtitle         string
	ToggleText       string
	ToggleLink       string
	ControlsDisabled bool
	SubmitLabel      string
	Notification     *Notification
}

// AuthController drives the login/registration page.
type AuthController struct {
	deps Deps
	log  zerolog.Logger

	mu           sync.Mutex
	mode         AuthMode
	state        AuthState
	onTransition func(from, to AuthState)
}

func NewAuthController(d Deps) *AuthController {
	d = d.withDefaults()
	return &AuthController{deps: d, log: d.Logger.With().Str("page", "auth").Logger()}
}

// OnTransition registers a hook called on every state change.
func (c *AuthController) OnTransition(fn func(from, to AuthState)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onTransition = fn
}

// Open runs the page-load check. It reports false when an existing
// session redirected away from the page.
func (c *AuthController) Open(ctx context.Context) bool {
	return !RedirectIfAuthenticated(ctx, c.deps.Session, c.deps.Nav)
}

// Toggle switches between login and registration and clears notifications.
func (c *AuthController) Toggle() AuthMode {
	c.mu.Lock()
	if c.mode == ModeLogin {
		c.mode = ModeRegister
	} else {
		c.mode = ModeLogin
	}
	mode := c.mode
	c.mu.Unlock()

	c.deps.Notify.Dismiss()
	return mode
}

// State returns the current submission state.
func (c *AuthController) State() AuthState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Login submits the login form.
func (c *AuthController) Login(ctx context.Context, email, password string) error {
	return c.submit(ctx, loginSuccessMessage, loginFailedMessage, func() error {
		_, err := c.deps.API.Login(ctx, strings.TrimSpace(email), password)
		return err
	})
}

// Register submits the registration form.
func (c *AuthController) Register(ctx context.Context, req models.RegisterRequest) error {
	req.Email = strings.TrimSpace(req.Email)
	return c.submit(ctx, registerSuccessMessage, registerFailedMessage, func() error {
		_, err := c.deps.API.Register(ctx, req)
		return err
	})
}

func (c *AuthController) submit(ctx context.Context, okMsg, failMsg string, call func() error) error {
	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return ErrSubmitInProgress
	}
	from := c.state
	c.state = StateSubmitting
	hook := c.onTransition
	c.mu.Unlock()
	if hook != nil {
		hook(from, StateSubmitting)
	}

	if err := call(); err != nil {
		c.setState(StateFailed)
		if api.IsKind(err, api.KindNetwork) {
			c.log.Warn().Err(err).Msg("auth request failed")
		}
		c.deps.Notify.Error(api.Describe(err, failMsg))
		c.setState(StateIdle)
		return err
	}

	c.setState(StateSucceeded)
	c.deps.Notify.Success(okMsg)
	nav := c.deps.Nav
	c.deps.Scheduler.AfterFunc(c.deps.RedirectDelay, func() { nav.Navigate(PageCatalog) })
	c.setState(StateIdle)
	return nil
}

// setState records a transition and calls the hook outside the lock.
func (c *AuthController) setState(to AuthState) {
	c.mu.Lock()
	from := c.state
	c.state = to
	hook := c.onTransition
	c.mu.Unlock()

	if hook != nil {
		hook(from, to)
	}
}

// View returns the page render model.
func (c *AuthController) View() AuthView {
	c.mu.Lock()
	mode, state := c.mode, c.state
	c.mu.Unlock()

	v := AuthView{Mode: mode, State: state, ControlsDisabled: state == StateSubmitting}
	if mode == ModeLogin {
		v.Subtitle = "Welcome back! Please login to continue."
		v.ToggleText = "Don't have an account?"
		v.ToggleLink = "Register here"
		v.SubmitLabel = "Login"
		if v.ControlsDisabled {
			v.SubmitLabel = "Logging in..."
		}
	} else {
		v.Subtitle = "Create your account to get started."
		v.ToggleText = "Already have an account?"
		v.ToggleLink = "Login here"
		v.SubmitLabel = "Register"
		if v.ControlsDisabled {
			v.SubmitLabel = "Registering..."
		}
	}
	if n, ok := c.deps.Notify.Current(); ok {
		v.Notification = &n
	}
	return v
}
