// Package assets implements pairing.AssetProvider against an OpenSea style
// asset listing API.
package assets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bhandras/wcpair/internal/pairing"
	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public asset API endpoint.
	DefaultBaseURL = "https://api.opensea.io/api/"

	assetsPath       = "v1/assets"
	apiKeyHeader     = "X-API-KEY"
	maxErrorBodySize = 4 << 10
)

// ErrUnexpectedStatus is returned for non-2xx responses.
var ErrUnexpectedStatus = errors.New("unexpected status")

// Client fetches owned assets over HTTP.
type Client struct {
	baseURL *url.URL
	apiKey  string
	http    *http.Client
	limiter *rate.Limiter
}

// Option configures a Client.
type Option func(*Client)

// WithAPIKey sets the API key sent with every request.
func WithAPIKey(key string) Option {
	return func(c *Client) { c.apiKey = key }
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithRateLimit bounds outgoing requests to perSecond with the given burst.
// A non-positive perSecond disables limiting.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

var _ pairing.AssetProvider = (*Client)(nil)

// New returns a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid asset api url %q: %w", baseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid asset api url %q: unsupported scheme", baseURL)
	}

	c := &Client{
		baseURL: u,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type assetsResponse struct {
	Assets []assetRecord `json:"assets"`
}

type assetRecord struct {
	TokenID         string         `json:"token_id"`
	Name            *string        `json:"name"`
	Description     *string        `json:"description"`
	ExternalLink    *string        `json:"external_link"`
	Contract        contractRecord `json:"asset_contract"`
	ImageURL        *string        `json:"image_url"`
	ImagePreviewURL *string        `json:"image_preview_url"`
}

type contractRecord struct {
	Address      string  `json:"address"`
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	ExternalLink *string `json:"external_link"`
	ImageURL     *string `json:"image_url"`
}

// LoadAssets implements pairing.AssetProvider.
func (c *Client) LoadAssets(ctx context.Context, owner common.Address) ([]pairing.OwnedAsset, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	endpoint := c.baseURL.JoinPath(assetsPath)
	q := endpoint.Query()
	q.Set("owner", owner.Hex())
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch assets: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return nil, fmt.Errorf("%w: %s - %s", ErrUnexpectedStatus, resp.Status, strings.TrimSpace(string(body)))
	}

	var parsed assetsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("failed to parse assets response: %w", err)
	}
	return toOwnedAssets(parsed.Assets), nil
}

// toOwnedAssets drops records whose contract address or token id cannot be
// parsed.
func toOwnedAssets(records []assetRecord) []pairing.OwnedAsset {
	out := make([]pairing.OwnedAsset, 0, len(records))
	for _, r := range records {
		if !common.IsHexAddress(r.Contract.Address) {
			continue
		}
		id, ok := parseTokenID(r.TokenID)
		if !ok {
			continue
		}
		image := deref(r.ImagePreviewURL)
		if image == "" {
			image = deref(r.ImageURL)
		}
		out = append(out, pairing.OwnedAsset{
			Contract:     common.HexToAddress(r.Contract.Address),
			ContractName: deref(r.Contract.Name),
			ID:           id,
			Name:         deref(r.Name),
			Image:        image,
		})
	}
	return out
}

// parseTokenID accepts decimal ids and 0x-prefixed hex ids.
func parseTokenID(raw string) (*big.Int, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, false
	}
	base := 10
	if strings.HasPrefix(raw, "0x") || strings.HasPrefix(raw, "0X") {
		raw = raw[2:]
		base = 16
	}
	id, ok := new(big.Int).SetString(raw, base)
	if !ok || id.Sign() < 0 {
		return nil, false
	}
	return id, true
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
