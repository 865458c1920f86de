package client

import (
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/publicsuffix"
)

// CookieStore persists the session cookies between process runs.
type CookieStore interface {
	LoadCookies() ([]*http.Cookie, error)
	SaveCookies(cookies []*http.Cookie) error
}

// Jar is a cookie jar for a single API origin. When a CookieStore is set,
// every change is written through so the next run reuses the backend session.
type Jar struct {
	base  *url.URL
	store CookieStore

	mu    sync.RWMutex
	inner *cookiejar.Jar
}

// NewJar creates a jar for base, restoring cookies from store when given.
func NewJar(base *url.URL, store CookieStore) (*Jar, error) {
	inner, err := newInnerJar()
	if err != nil {
		return nil, err
	}

	j := &Jar{base: base, store: store, inner: inner}

	if store != nil {
		cookies, err := store.LoadCookies()
		if err != nil {
			return nil, fmt.Errorf("failed to load cookies: %w", err)
		}
		if len(cookies) > 0 {
			inner.SetCookies(base, cookies)
			log.Debug().Int("count", len(cookies)).Msg("restored session cookies")
		}
	}

	return j, nil
}

// SetCookies implements http.CookieJar.
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.RLock()
	j.inner.SetCookies(u, cookies)
	j.mu.RUnlock()

	j.persist()
}

// Cookies implements http.CookieJar.
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.inner.Cookies(u)
}

// Cookie returns the value of the named cookie for the API origin.
func (j *Jar) Cookie(name string) (string, bool) {
	for _, c := range j.Cookies(j.base) {
		if c.Name == name {
			return c.Value, true
		}
	}
	return "", false
}

// Clear expires every cookie, in memory and in the store.
func (j *Jar) Clear() error {
	inner, err := newInnerJar()
	if err != nil {
		return err
	}

	j.mu.Lock()
	j.inner = inner
	j.mu.Unlock()

	if j.store != nil {
		if err := j.store.SaveCookies(nil); err != nil {
			return fmt.Errorf("failed to clear cookies: %w", err)
		}
	}
	return nil
}

func (j *Jar) persist() {
	if j.store == nil {
		return
	}

	cookies := j.Cookies(j.base)
	stored := make([]*http.Cookie, 0, len(cookies))
	for _, c := range cookies {
		stored = append(stored, &http.Cookie{Name: c.Name, Value: c.Value, Path: "/"})
	}

	if err := j.store.SaveCookies(stored); err != nil {
		log.Warn().Err(err).Msg("failed to persist session cookies")
	}
}

func newInnerJar() (*cookiejar.Jar, error) {
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}
	return jar, nil
}
