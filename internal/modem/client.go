package modem

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"time"
)

const (
	loginPath  = "/cgi-bin/login_cgi"
	statusPath = "/cgi-bin/status_cgi"
	eventsPath = "/cgi-bin/event_cgi"

	userAgent = "arris-scraper/1.0"

	// The modem is a constrained embedded HTTP server that can hang,
	// so requests always carry a bounded timeout.
	DefaultTimeout = 10 * time.Second
)

// ErrNoCSRF means the login response did not carry the CSRF token
// snippet that signals a successful authentication.
var ErrNoCSRF = errors.New("modem: csrf token not found in login response")

// A successful login embeds the token in a JavaScript snippet. The
// token itself is not needed afterwards, only its presence.
var csrfRE = regexp.MustCompile(`sessionStorage\.setItem\("csrf_token",\s*(\d+)\);`)

// Layout maps logical table names to their position on the modem's
// pages. Positions are a fixed contract per firmware version, so they
// are configuration rather than discovery.
type Layout struct {
	Downstream int
	Upstream   int
	OFDM       int
	EventLog   int
}

// DefaultLayout matches the CM3500B firmware.
var DefaultLayout = Layout{Downstream: 0, Upstream: 4, OFDM: 2, EventLog: 1}

// ClientConfig configures a Client. Username and Password are optional;
// when both are set every fetch performs a form login first.
type ClientConfig struct {
	BaseURL  string
	Username string
	Password string

	// Location is the timezone the modem stamps event-log entries in.
	// Nil means UTC.
	Location *time.Location

	// Layout overrides DefaultLayout when non-zero.
	Layout Layout

	// HTTPClient overrides the default client, which skips TLS
	// verification (the device serves a self-signed certificate) and
	// carries DefaultTimeout.
	HTTPClient *http.Client
}

type Client struct {
	baseURL  string
	username string
	password string
	loc      *time.Location
	layout   Layout
	client   *http.Client
}

func NewClient(cfg ClientConfig) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		username: cfg.Username,
		password: cfg.Password,
		loc:      cfg.Location,
		layout:   cfg.Layout,
		client:   cfg.HTTPClient,
	}
	if c.loc == nil {
		c.loc = time.UTC
	}
	if c.layout == (Layout{}) {
		c.layout = DefaultLayout
	}
	if c.client == nil {
		c.client = DefaultHTTPClient(DefaultTimeout)
	}
	if c.client.Jar == nil {
		// The login session is cookie-based.
		c.client.Jar, _ = cookiejar.New(nil)
	}
	return c
}

// DefaultHTTPClient returns the client NewClient uses when none is
// supplied: bounded timeout, no TLS verification.
func DefaultHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	}
}

func (c *Client) login(ctx context.Context) error {
	form := url.Values{
		"username": {c.username},
		"password": {c.password},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("modem: login failed: %w", err)
	}
	defer resp.Body.Close()
	if !(resp.StatusCode >= 200 && resp.StatusCode < 300) {
		return fmt.Errorf("modem: login failed: HTTP status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("modem: login failed: %w", err)
	}
	if !csrfRE.Match(body) {
		return ErrNoCSRF
	}
	return nil
}

func (c *Client) fetchPage(ctx context.Context, path string) ([]byte, error) {
	if c.username != "" && c.password != "" {
		if err := c.login(ctx); err != nil {
			return nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("modem: fetching %s failed: %w", path, err)
	}
	defer resp.Body.Close()
	if !(resp.StatusCode >= 200 && resp.StatusCode < 300) {
		return nil, fmt.Errorf("modem: fetching %s failed: HTTP status %d", path, resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
