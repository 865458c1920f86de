package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
)

const (
	csrfPath       = "/api/csrf/"
	csrfHeader     = "X-CSRFToken"
	csrfCookieName = "csrftoken"
)

// ErrNoCSRFToken is returned when the token endpoint answered without a token.
var ErrNoCSRFToken = errors.New("CSRF token not found in response")

// csrfCache holds the process wide CSRF token. It is fetched lazily on the
// first write and kept until Invalidate.
type csrfCache struct {
	client *Client

	mu    sync.RWMutex
	token string
}

// Token returns the cached token or fetches a new one.
func (c *csrfCache) Token(ctx context.Context) (string, error) {
	c.mu.RLock()
	if c.token != "" {
		token := c.token
		c.mu.RUnlock()
		return token, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check after acquiring write lock
	if c.token != "" {
		return c.token, nil
	}

	token, err := backoff.Retry(ctx, func() (string, error) {
		token, err := c.fetch(ctx)
		if err != nil && !IsConnectivity(err) {
			return "", backoff.Permanent(err)
		}
		return token, err
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(3),
		backoff.WithMaxElapsedTime(5*time.Second),
	)
	if err != nil {
		return "", err
	}

	c.token = token
	log.Debug().Msg("cached new CSRF token")

	return token, nil
}

// Invalidate drops the cached token; the next write fetches a fresh one.
func (c *csrfCache) Invalidate() {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()
}

// fetch reads the token from the response header, then the csrftoken cookie,
// then the JSON body.
func (c *csrfCache) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.client.url(csrfPath, nil), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create CSRF request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.http.Do(req)
	if err != nil {
		return "", connectivityError(c.client.server(), err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read CSRF response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", &Error{
			Kind:    KindValidation,
			Status:  resp.StatusCode,
			Message: fmt.Sprintf("Failed to get CSRF token: %s", http.StatusText(resp.StatusCode)),
		}
	}

	if token := resp.Header.Get(csrfHeader); token != "" {
		return token, nil
	}

	if token, ok := c.client.jar.Cookie(csrfCookieName); ok && token != "" {
		return token, nil
	}

	var payload struct {
		CSRFToken string `json:"csrfToken"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.CSRFToken != "" {
		return payload.CSRFToken, nil
	}

	return "", &Error{Kind: KindValidation, Status: resp.StatusCode, Message: ErrNoCSRFToken.Error(), Err: ErrNoCSRFToken}
}
