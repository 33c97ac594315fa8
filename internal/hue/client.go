package hue

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

// Client talks to a bridge over the v1 HTTP API.
// A Client is immutable and safe for concurrent use.
type Client struct {
	domain     string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a client for the bridge at domain (host or host:port)
// using apiKey as the v1 username. A nil httpClient means http.DefaultClient.
// Timeouts are the transport's responsibility.
func NewClient(domain, apiKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		domain:     domain,
		apiKey:     apiKey,
		httpClient: httpClient,
	}
}

// WithLimiter returns a copy of the client that waits on limiter before each
// request. A nil limiter disables pacing.
func (c *Client) WithLimiter(limiter *rate.Limiter) *Client {
	cp := *c
	cp.limiter = limiter
	return &cp
}

// Domain returns the bridge address.
func (c *Client) Domain() string {
	return c.domain
}

// URL formats a bridge URL. With no segments it returns the API root:
//
//	c.URL()                       // http://ip/api/key
//	c.URL("lights", "10", "state") // http://ip/api/key/lights/10/state
//	c.URL(path...)                // from a slice
func (c *Client) URL(segments ...string) string {
	parts := make([]string, 0, len(segments)+3)
	parts = append(parts, c.domain, "api", c.apiKey)
	parts = append(parts, segments...)
	return "http://" + strings.Join(parts, "/")
}

// Get issues a GET for the given path and returns the raw response body.
func (c *Client) Get(ctx context.Context, segments ...string) ([]byte, error) {
	return c.request(ctx, http.MethodGet, segments, nil)
}

// Lights fetches every light from the bridge as a preset. Read-only state
// fields are stripped on import, so the result can be applied back as-is.
func (c *Client) Lights(ctx context.Context) (*Preset, error) {
	body, err := c.Get(ctx, "lights")
	if err != nil {
		return nil, err
	}

	var raw map[string]map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode lights response: %w", err)
	}
	return PresetFromRaw(raw), nil
}

// Light fetches a single light.
func (c *Client) Light(ctx context.Context, id string) (*Light, error) {
	body, err := c.Get(ctx, "lights", id)
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode light %s: %w", id, err)
	}
	return NewLight(raw), nil
}

// SetState sends one state update to a light.
func (c *Client) SetState(ctx context.Context, id string, state *State) error {
	return c.putState(ctx, id, state.Export())
}

// Apply sends every light's pending state in p, one request per light, all at
// once. It returns after every request has finished, with the first error
// encountered. Lights that were already updated are not rolled back.
func (c *Client) Apply(ctx context.Context, p *Preset) error {
	var g errgroup.Group
	p.Each(func(light *Light, id string, _ *Preset) {
		update := light.State().Export()
		g.Go(func() error {
			return c.putState(ctx, id, update)
		})
	})
	return g.Wait()
}

func (c *Client) putState(ctx context.Context, id string, update map[string]any) error {
	body, err := json.Marshal(update)
	if err != nil {
		return fmt.Errorf("failed to encode state for light %s: %w", id, err)
	}

	if _, err := c.request(ctx, http.MethodPut, []string{"lights", id, "state"}, body); err != nil {
		return fmt.Errorf("failed to set state of light %s: %w", id, err)
	}
	return nil
}

// RedactKey masks key in the URL of a *url.Error found in err's chain. The
// wrapper itself is kept so callers can still match it and ask Timeout().
func RedactKey(err error, key string) error {
	var uerr *url.Error
	if key == "" || !errors.As(err, &uerr) {
		return err
	}
	uerr.URL = strings.ReplaceAll(uerr.URL, "/"+key, "/"+redactedKey)
	return err
}

const redactedKey = "<redacted>"

// request performs a request against the v1 API. Errors never include the
// API key; they refer to the path below it.
func (c *Client) request(ctx context.Context, method string, segments []string, body []byte) (data []byte, err error) {
	path := "/" + strings.Join(segments, "/")

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.URL(segments...), reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, RedactKey(err, c.apiKey))
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close response body: %w", cerr)
		}
	}()

	data, err = io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	if errs := parseBridgeErrors(data); len(errs) > 0 {
		return nil, &APIError{Method: method, Path: path, Errors: errs}
	}

	log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("Bridge request")

	return data, nil
}
