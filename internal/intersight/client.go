// Package intersight reads server profile vNICs from the Cisco Intersight
// API using HTTP message signatures.
package intersight

import (
	"context"
	"crypto"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go-vnicmap/internal/config"
)

var (
	ErrAuthentication   = errors.New("intersight authentication failed")
	ErrProfileNotFound  = errors.New("server profile not found")
	ErrUnexpectedStatus = errors.New("unexpected status code")
	ErrUnsupportedKey   = errors.New("unsupported secret key type")
	ErrBaseURLMissing   = errors.New("intersight base url not configured")
)

const (
	defaultSignatureLife = 5 * time.Minute
	userAgent            = "go-vnicmap"
)

// Client calls the Intersight REST API.
type Client struct {
	baseURL    string
	signer     *signer
	httpClient *http.Client
	now        func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithSignatureValidity bounds how long a request signature stays valid.
func WithSignatureValidity(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.signer.validity = d
		}
	}
}

// WithClock overrides the signing clock.
func WithClock(now func() time.Time) Option {
	return func(c *Client) {
		c.now = now
	}
}

// NewClient builds a client from an already parsed EC or RSA key.
func NewClient(baseURL, keyID string, key crypto.PrivateKey, opts ...Option) (*Client, error) {
	base := sanitizeBaseURL(baseURL)
	if base == "" {
		return nil, ErrBaseURLMissing
	}
	c := &Client{
		baseURL:    base,
		signer:     &signer{keyID: keyID, key: key, validity: defaultSignatureLife},
		httpClient: &http.Client{Timeout: 60 * time.Second},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// New builds a client from configuration, loading the secret key file.
func New(cfg config.IntersightConfig) (*Client, error) {
	key, err := LoadPrivateKey(cfg.SecretKeyPath)
	if err != nil {
		return nil, err
	}
	//nolint:gosec // Intersight appliances commonly run with self-signed certificates.
	hc := &http.Client{
		Timeout: 60 * time.Second,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: cfg.Insecure},
		},
	}
	return NewClient(cfg.URL, cfg.KeyID, key, WithHTTPClient(hc), WithSignatureValidity(cfg.SignatureValidity))
}

// get issues a signed GET for path with query and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if err := c.signer.sign(req, nil, c.now()); err != nil {
		return err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s: %s", ErrAuthentication, resp.Status, strings.TrimSpace(string(body)))
	case resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %s %s: %s", ErrUnexpectedStatus, path, resp.Status, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

func sanitizeBaseURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	return strings.TrimRight(trimmed, "/")
}
