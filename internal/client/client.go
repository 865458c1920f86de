package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gregjones/httpcache"
	"github.com/gregjones/httpcache/diskcache"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog/log"
	"github.com/wolfeidau/agencyctl/internal/logger"
	"github.com/wolfeidau/agencyctl/internal/telemetry"
)

// Config holds common client configuration
type Config struct {
	ServerURL string
	Timeout   time.Duration
	Debug     bool

	// Cookies persists the session cookies; nil keeps them in memory.
	Cookies CookieStore

	// HTTPCache enables RFC 7234 caching of GET responses. CacheDir selects a
	// disk cache, otherwise responses are cached in memory.
	HTTPCache bool
	CacheDir  string

	// Telemetry wraps the transport with OpenTelemetry instrumentation.
	Telemetry bool

	// Transport overrides the base round tripper, used by tests.
	Transport http.RoundTripper
}

// DefaultConfig returns a default client configuration
func DefaultConfig() Config {
	return Config{
		ServerURL: "http://localhost:8000",
	}
}

// Client performs requests against the agency REST API. It owns the cookie
// session and the CSRF token.
type Client struct {
	base *url.URL
	http *http.Client
	jar  *Jar
	csrf *csrfCache

	onUnauthenticated func()
}

// New creates a Client for cfg.ServerURL.
func New(cfg Config) (*Client, error) {
	if cfg.ServerURL == "" {
		cfg.ServerURL = DefaultConfig().ServerURL
	}

	base, err := url.Parse(strings.TrimRight(cfg.ServerURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid server URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid server URL %q: scheme and host are required", cfg.ServerURL)
	}

	jar, err := NewJar(base, cfg.Cookies)
	if err != nil {
		return nil, err
	}

	c := &Client{
		base: base,
		jar:  jar,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Jar:       jar,
			Transport: buildTransport(cfg),
		},
	}
	c.csrf = &csrfCache{client: c}

	log.Debug().Str("server", c.server()).Msg("api client initialized")

	return c, nil
}

func buildTransport(cfg Config) http.RoundTripper {
	rt := cfg.Transport
	if rt == nil {
		rt = http.DefaultTransport.(*http.Transport).Clone()
	}

	rt = gzhttp.Transport(rt)

	if cfg.HTTPCache {
		var cache httpcache.Cache = httpcache.NewMemoryCache()
		if cfg.CacheDir != "" {
			cache = diskcache.New(cfg.CacheDir)
		}
		cached := httpcache.NewTransport(cache)
		cached.Transport = rt
		rt = cached
	}

	rt = logger.NewRoundTripper(rt)

	if cfg.Telemetry {
		rt = telemetry.Transport(rt)
	}

	return rt
}

// OnUnauthenticated registers the hook run when a non-auth request gets a
// 401. The session layer uses it to clear its state and navigate to sign-in.
func (c *Client) OnUnauthenticated(fn func()) {
	c.onUnauthenticated = fn
}

// InvalidateCSRF drops the cached CSRF token.
func (c *Client) InvalidateCSRF() {
	c.csrf.Invalidate()
}

// ClearCookies expires every session cookie.
func (c *Client) ClearCookies() error {
	return c.jar.Clear()
}

// server returns the API origin.
func (c *Client) server() string {
	return c.base.String()
}

func (c *Client) url(path string, query url.Values) string {
	u := *c.base
	u.Path = strings.TrimRight(c.base.Path, "/") + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

// FilePart is a file field of a multipart request.
type FilePart struct {
	Field       string
	FileName    string
	ContentType string
	Data        []byte
}

type request struct {
	query       url.Values
	body        []byte
	contentType string
	skipAuth    bool
	err         error
}

// RequestOption customises a single request.
type RequestOption func(*request)

// WithQuery adds query parameters.
func WithQuery(q url.Values) RequestOption {
	return func(r *request) {
		r.query = q
	}
}

// WithJSON sends v as the JSON request body.
func WithJSON(v any) RequestOption {
	return func(r *request) {
		data, err := json.Marshal(v)
		if err != nil {
			r.err = fmt.Errorf("failed to marshal request: %w", err)
			return
		}
		r.body = data
		r.contentType = "application/json"
	}
}

// WithMultipart sends fields and file as multipart/form-data.
func WithMultipart(fields map[string]string, file FilePart) RequestOption {
	return func(r *request) {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)

		for k, v := range fields {
			if err := w.WriteField(k, v); err != nil {
				r.err = fmt.Errorf("failed to write form field: %w", err)
				return
			}
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, file.Field, file.FileName))
		h.Set("Content-Type", file.ContentType)
		part, err := w.CreatePart(h)
		if err != nil {
			r.err = fmt.Errorf("failed to create file part: %w", err)
			return
		}
		if _, err := part.Write(file.Data); err != nil {
			r.err = fmt.Errorf("failed to write file part: %w", err)
			return
		}
		if err := w.Close(); err != nil {
			r.err = fmt.Errorf("failed to close multipart body: %w", err)
			return
		}

		r.body = buf.Bytes()
		r.contentType = w.FormDataContentType()
	}
}

// SkipAuth marks an auth endpoint: a 401 is returned to the caller as a
// normal response instead of ending the session.
func SkipAuth() RequestOption {
	return func(r *request) {
		r.skipAuth = true
	}
}

// Response is a completed HTTP exchange with its body read.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// OK reports a 2xx status.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Err converts a non-2xx response into an *Error. The server message is used
// verbatim when present, fallback otherwise.
func (r *Response) Err(fallback string) error {
	if r.OK() {
		return nil
	}

	kind := KindValidation
	switch r.Status {
	case http.StatusNotFound:
		kind = KindNotFound
	case http.StatusUnauthorized:
		kind = KindUnauthenticated
	}

	msg := ServerMessage(r.Body)
	if msg == "" {
		msg = fallback
	}

	return &Error{Kind: kind, Status: r.Status, Message: msg}
}

// Do sends a request. Non-GET requests carry the CSRF token. A 401 on a
// request without SkipAuth ends the session and returns an
// ErrUnauthenticated error; other statuses are returned in the Response.
func (c *Client) Do(ctx context.Context, method, path string, opts ...RequestOption) (*Response, error) {
	r := &request{}
	for _, opt := range opts {
		opt(r)
	}
	if r.err != nil {
		return nil, r.err
	}

	resp, err := c.send(ctx, method, path, r)
	if err != nil {
		return nil, err
	}

	// A rotated or missing token shows up as a 403 mentioning CSRF; fetch a
	// fresh token and try once more.
	if method != http.MethodGet && resp.Status == http.StatusForbidden &&
		strings.Contains(strings.ToLower(ServerMessage(resp.Body)), "csrf") {
		log.Debug().Str("path", path).Msg("CSRF token rejected, refreshing")
		c.csrf.Invalidate()
		resp, err = c.send(ctx, method, path, r)
		if err != nil {
			return nil, err
		}
	}

	if resp.Status == http.StatusUnauthorized && !r.skipAuth {
		c.csrf.Invalidate()
		if c.onUnauthenticated != nil {
			c.onUnauthenticated()
		}
		return nil, unauthenticatedError()
	}

	return resp, nil
}

func (c *Client) send(ctx context.Context, method, path string, r *request) (*Response, error) {
	var body io.Reader
	if r.body != nil {
		body = bytes.NewReader(r.body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path, r.query), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}

	if method != http.MethodGet {
		token, err := c.csrf.Token(ctx)
		if err != nil {
			return nil, err
		}
		req.Header.Set(csrfHeader, token)
		req.Header.Set("Referer", c.server()+"/")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, connectivityError(c.server(), err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	return &Response{Status: resp.StatusCode, Header: resp.Header, Body: data}, nil
}
