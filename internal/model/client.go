// Package model talks to the Generative Language API: one generateContent
// attempt per call, and model discovery per API version.
package model

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	APIVersionV1     = "v1"
	APIVersionV1Beta = "v1beta"

	methodGenerateContent = "generateContent"

	// maxErrorBodySize bounds how much of a failed response is read.
	maxErrorBodySize = 1 << 20
)

type Candidate struct {
	Name               string
	APIVersion         string
	SupportsGeneration bool
}

// ID is the bare model id; discovery returns names as "models/<id>".
func (c Candidate) ID() string {
	return strings.TrimPrefix(c.Name, "models/")
}

func (c Candidate) String() string {
	return c.APIVersion + "/" + c.ID()
}

// GenerationConfig is sent only when at least one field is set.
type GenerationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
	Temperature     float64 `json:"temperature,omitempty"`
	TopP            float64 `json:"topP,omitempty"`
}

func (g GenerationConfig) empty() bool {
	return g == GenerationConfig{}
}

type Options struct {
	BaseURL          string
	APIKey           string
	DiscoveryTimeout time.Duration
	Generation       GenerationConfig
	HTTPClient       *http.Client
	Logger           zerolog.Logger
}

type Client struct {
	httpClient       *http.Client
	baseURL          string
	apiKey           string
	discoveryTimeout time.Duration
	generation       GenerationConfig
	log              zerolog.Logger
}

func NewClient(opts Options) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		// no client-wide timeout: every call carries its own deadline
		hc = &http.Client{}
	}
	dt := opts.DiscoveryTimeout
	if dt <= 0 {
		dt = 8 * time.Second
	}
	return &Client{
		httpClient:       hc,
		baseURL:          strings.TrimRight(opts.BaseURL, "/"),
		apiKey:           opts.APIKey,
		discoveryTimeout: dt,
		generation:       opts.Generation,
		log:              opts.Logger.With().Str("component", "model").Logger(),
	}
}

// endpoint returns the request URL and the same URL without the key,
// which is the only form that may appear in errors and logs.
func (c *Client) endpoint(path string, q url.Values) (string, string) {
	display := c.baseURL + "/" + path
	if q == nil {
		q = url.Values{}
	}
	if enc := q.Encode(); enc != "" {
		display += "?" + enc
	}
	q.Set("key", c.apiKey)
	return c.baseURL + "/" + path + "?" + q.Encode(), display
}

// transportError classifies a failed Do/read. The url.Error wrapper is
// dropped because its message carries the keyed URL.
func transportError(ctx context.Context, endpoint string, budget time.Duration, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &TimeoutError{Endpoint: endpoint, Budget: budget}
	}
	var uerr *url.Error
	if errors.As(err, &uerr) {
		err = uerr.Err
	}
	return &TransportError{Endpoint: endpoint, Err: err}
}

func readLimitedBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, maxErrorBodySize))
	return string(b)
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
