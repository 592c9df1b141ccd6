// Package predict implements the HTTP client for the prediction endpoint.
// A call is a single POST with a JSON body; there are no retries and no
// timeout beyond what the configured *http.Client enforces.
package predict

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"

	"github.com/goliatone/go-predictform/pkg/model"
)

// DefaultEndpoint is the relative path of the prediction endpoint.
const DefaultEndpoint = "/predict"

const maxBodyBytes = 1 << 20

// Predictor returns predictions for a form submission.
type Predictor interface {
	Predict(ctx context.Context, input model.FormInput) (model.PredictionResult, error)
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the origin the endpoint path is resolved against.
func WithBaseURL(raw string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimSpace(raw)
	}
}

// WithEndpoint overrides the endpoint path (default "/predict").
func WithEndpoint(path string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			c.endpoint = trimmed
		}
	}
}

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// Client posts form input to the prediction endpoint.
type Client struct {
	baseURL  string
	endpoint string
	http     *http.Client
	logger   zerolog.Logger
}

var _ Predictor = (*Client)(nil)

// NewClient constructs a Client. The base URL must be absolute.
func NewClient(options ...Option) (*Client, error) {
	c := &Client{
		endpoint: DefaultEndpoint,
		http:     http.DefaultClient,
		logger:   zerolog.Nop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	if _, err := c.url(); err != nil {
		return nil, err
	}
	return c, nil
}

// URL returns the resolved endpoint URL.
func (c *Client) URL() string {
	u, err := c.url()
	if err != nil {
		return ""
	}
	return u.String()
}

func (c *Client) url() (*url.URL, error) {
	base, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("predict: parse base url: %w", err)
	}
	if !base.IsAbs() {
		return nil, fmt.Errorf("predict: base url %q must be absolute", c.baseURL)
	}
	ref, err := url.Parse(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("predict: parse endpoint: %w", err)
	}
	return base.ResolveReference(ref), nil
}

// Predict sends input as a JSON object and decodes the response. A 2xx
// response yields a PredictionResult. Other responses yield a *ServerError, a
// body that is not JSON yields a *DecodeError and a failed exchange yields a
// *TransportError.
func (c *Client) Predict(ctx context.Context, input model.FormInput) (model.PredictionResult, error) {
	endpoint, err := c.url()
	if err != nil {
		return nil, err
	}

	body, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("predict: encode input: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("predict: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	c.logger.Debug().Str("url", endpoint.String()).RawJSON("body", body).Msg("posting form input")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &TransportError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload model.ErrorPayload
		if err := json.Unmarshal(raw, &payload); err != nil {
			return nil, &DecodeError{StatusCode: resp.StatusCode, Err: err}
		}
		c.logger.Debug().Int("status", resp.StatusCode).Msg("prediction rejected")
		return nil, &ServerError{StatusCode: resp.StatusCode, Payload: payload}
	}

	var result model.PredictionResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, &DecodeError{StatusCode: resp.StatusCode, Err: err}
	}
	if result == nil {
		result = model.PredictionResult{}
	}
	return result, nil
}
