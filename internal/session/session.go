// Package session owns who is signed in and which agency is active. It is the
// only writer of that state; every scoped data operation reads the selected
// agency from here.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/agencyctl/internal/client"
	"github.com/wolfeidau/agencyctl/internal/models"
)

// Navigation targets.
const (
	PathSignIn = "/sign-in"
	PathHome   = "/"
)

// Sentinel errors
var (
	// ErrMissingDependency is returned by New when a collaborator is nil.
	ErrMissingDependency = errors.New("session: missing dependency")

	// ErrInvalidCredentials is returned by Login on a 401.
	ErrInvalidCredentials = errors.New("Invalid username or password")

	// ErrNoAgency is returned when a scoped operation runs with no agency selected.
	ErrNoAgency = errors.New("no agency selected")

	// ErrUnknownAgency is returned when selecting an agency that is not in the fetched list.
	ErrUnknownAgency = errors.New("agency not found")
)

// API is the subset of *client.Client the session needs.
type API interface {
	Do(ctx context.Context, method, path string, opts ...client.RequestOption) (*client.Response, error)
	InvalidateCSRF()
	ClearCookies() error
	OnUnauthenticated(fn func())
}

// Store persists the selected agency id across runs. SelectedAgency returns
// an error when nothing is stored.
type Store interface {
	SelectedAgency() (int64, error)
	SetSelectedAgency(id *int64) error
}

// Navigator moves between views. Current returns the active path.
type Navigator interface {
	Current() string
	Navigate(path string)
}

// Level is the severity of a notification.
type Level int

const (
	LevelSuccess Level = iota
	LevelInfo
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// Notifier shows transient notifications.
type Notifier interface {
	Notify(level Level, msg string)
}

// Context is the session and tenant state.
type Context struct {
	api    API
	store  Store
	nav    Navigator
	notify Notifier

	mu        sync.RWMutex
	principal *models.Principal
	agencies  []models.Agency
	selected  *models.Agency
	fetched   bool
	redirect  string
	err       error
	gen       uint64
	subs      []func(*models.Agency)
}

// New creates a session context. Every dependency is required.
func New(api API, store Store, nav Navigator, notify Notifier) (*Context, error) {
	switch {
	case api == nil:
		return nil, fmt.Errorf("%w: api", ErrMissingDependency)
	case store == nil:
		return nil, fmt.Errorf("%w: store", ErrMissingDependency)
	case nav == nil:
		return nil, fmt.Errorf("%w: navigator", ErrMissingDependency)
	case notify == nil:
		return nil, fmt.Errorf("%w: notifier", ErrMissingDependency)
	}

	c := &Context{api: api, store: store, nav: nav, notify: notify}
	api.OnUnauthenticated(c.handleUnauthenticated)

	return c, nil
}

// Initialize loads the current principal. A missing session is not an error:
// the view moves to sign-in and remembers where it was.
func (c *Context) Initialize(ctx context.Context) error {
	p, err := c.loadPrincipal(ctx)
	if err != nil {
		if client.IsUnauthenticated(err) {
			c.toSignIn()
			return nil
		}

		c.setErr(err)
		c.notify.Notify(LevelError, err.Error())
		return err
	}

	log.Debug().Str("username", p.Username).Msg("session initialized")

	if c.nav.Current() == PathSignIn {
		c.nav.Navigate(PathHome)
	}
	return nil
}

// Login signs in and moves to the remembered view, or home.
func (c *Context) Login(ctx context.Context, username, password string) error {
	c.setErr(nil)

	err := c.login(ctx, username, password)
	if err == nil {
		// The backend rotates the CSRF token and session on login.
		c.api.InvalidateCSRF()
		c.InvalidatePrincipal()
		_, err = c.loadPrincipal(ctx)
	}
	if err != nil {
		c.setErr(err)
		c.notify.Notify(LevelError, err.Error())
		return err
	}

	c.notify.Notify(LevelSuccess, "You have been logged in successfully.")

	c.mu.Lock()
	target := c.redirect
	c.redirect = ""
	c.mu.Unlock()

	if target == "" {
		target = PathHome
	}
	c.nav.Navigate(target)

	return nil
}

func (c *Context) login(ctx context.Context, username, password string) error {
	resp, err := c.api.Do(ctx, http.MethodPost, "/api/auth/login/",
		client.WithJSON(map[string]string{"username": username, "password": password}),
		client.SkipAuth(),
	)
	if err != nil {
		if client.IsConnectivity(err) {
			return client.Reword(err, "Unable to connect to the server. Please ensure the server is running and try again.")
		}
		return err
	}

	if resp.Status == http.StatusUnauthorized {
		return &client.Error{
			Kind:    client.KindValidation,
			Status:  resp.Status,
			Message: ErrInvalidCredentials.Error(),
			Err:     ErrInvalidCredentials,
		}
	}

	return resp.Err("Login failed")
}

// Logout ends the session. Local state is cleared whether or not the backend
// call succeeds; the returned error is informational.
func (c *Context) Logout(ctx context.Context) error {
	err := c.logout(ctx)

	c.clear()
	c.api.InvalidateCSRF()
	if cerr := c.api.ClearCookies(); cerr != nil {
		log.Warn().Err(cerr).Msg("failed to clear session cookies")
	}

	if err != nil {
		log.Warn().Err(err).Msg("logout request failed")
		c.notify.Notify(LevelWarning, "Session ended. Please sign in again.")
	} else {
		c.notify.Notify(LevelSuccess, "You have been logged out successfully.")
	}

	c.nav.Navigate(PathSignIn)

	return err
}

func (c *Context) logout(ctx context.Context) error {
	resp, err := c.api.Do(ctx, http.MethodPost, "/api/auth/logout/", client.SkipAuth())
	if err != nil {
		if client.IsConnectivity(err) {
			return client.Reword(err, "Unable to connect to the server. Please try logging out again.")
		}
		return err
	}
	return resp.Err("Logout failed")
}

// Principal returns the signed in user, nil when signed out.
func (c *Context) Principal() *models.Principal {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.principal
}

// Authenticated reports whether a principal is loaded.
func (c *Context) Authenticated() bool {
	return c.Principal() != nil
}

// InvalidatePrincipal drops the cached principal; the next read re-fetches it.
func (c *Context) InvalidatePrincipal() {
	c.mu.Lock()
	c.principal = nil
	c.mu.Unlock()
}

// LoadPrincipal returns the cached principal or fetches it.
func (c *Context) LoadPrincipal(ctx context.Context) (*models.Principal, error) {
	return c.loadPrincipal(ctx)
}

func (c *Context) loadPrincipal(ctx context.Context) (*models.Principal, error) {
	if p := c.Principal(); p != nil {
		return p, nil
	}

	resp, err := c.api.Do(ctx, http.MethodGet, "/api/auth/user/")
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, resp.Err("Failed to get current user")
	}

	p, err := models.DecodeOne[models.Principal](resp.Body)
	if err != nil {
		return nil, &client.Error{Kind: client.KindShape, Status: resp.Status, Message: "Failed to get current user", Err: err}
	}

	c.mu.Lock()
	c.principal = p
	c.mu.Unlock()

	return p, nil
}

// Err returns the last recorded failure.
func (c *Context) Err() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// RedirectTarget returns the path remembered when the session was lost.
func (c *Context) RedirectTarget() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.redirect
}

func (c *Context) setErr(err error) {
	c.mu.Lock()
	c.err = err
	c.mu.Unlock()
}

// handleUnauthenticated runs when any scoped request gets a 401.
func (c *Context) handleUnauthenticated() {
	log.Debug().Msg("session expired")
	c.clear()
	c.toSignIn()
}

func (c *Context) toSignIn() {
	current := c.nav.Current()
	if current == PathSignIn {
		return
	}

	c.mu.Lock()
	c.redirect = current
	c.mu.Unlock()

	c.nav.Navigate(PathSignIn)
}

// clear drops the principal and agencies. The persisted agency id stays so
// the next sign in restores it.
func (c *Context) clear() {
	c.mu.Lock()
	c.principal = nil
	c.agencies = nil
	changed := c.selected != nil
	c.selected = nil
	c.fetched = false
	if changed {
		c.gen++
	}
	subs := slices.Clone(c.subs)
	c.mu.Unlock()

	if changed {
		for _, fn := range subs {
			fn(nil)
		}
	}
}
