package marketcheck

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/joelkehle/vehicle-advisor/internal/upstream"
	"github.com/joelkehle/vehicle-advisor/internal/vehicle"
)

const serviceName = "marketcheck"

type Config struct {
	BaseURL      string
	TokenURL     string
	APIKey       string
	ClientID     string
	ClientSecret string
	Timeout      time.Duration
	RPS          float64
	CacheSize    int
	CacheTTL     time.Duration
}

type CacheObserver interface {
	IncCache(cache string, hit bool)
}

type Option func(*Client)

// WithHTTPClient replaces the transport used for API and token calls.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

func WithObserver(o upstream.Observer) Option {
	return func(c *Client) { c.observer = o }
}

func WithCacheObserver(o CacheObserver) Option {
	return func(c *Client) { c.cacheObserver = o }
}

type Client struct {
	http          *resty.Client
	tokens        *TokenCache
	apiKey        string
	guard         *upstream.Guard
	decoded       *expirable.LRU[string, vehicle.DecodedVehicle]
	hc            *http.Client
	observer      upstream.Observer
	cacheObserver CacheObserver
}

func New(cfg Config, opts ...Option) *Client {
	c := &Client{apiKey: cfg.APIKey}
	for _, opt := range opts {
		opt(c)
	}
	c.http = upstream.NewRestyClient(cfg.BaseURL, cfg.Timeout, c.hc)
	if cfg.ClientID != "" && cfg.ClientSecret != "" {
		c.tokens = NewTokenCache(c.http, cfg.TokenURL, cfg.ClientID, cfg.ClientSecret)
	}
	c.guard = upstream.NewGuard(serviceName, cfg.RPS, c.observer)
	if cfg.CacheSize > 0 {
		c.decoded = expirable.NewLRU[string, vehicle.DecodedVehicle](cfg.CacheSize, nil, cfg.CacheTTL)
	}
	return c
}

// authorize attaches OAuth2 credentials when configured, otherwise the
// legacy api_key query parameter.
func (c *Client) authorize(ctx context.Context, req *resty.Request) error {
	if c.tokens != nil {
		tok, err := c.tokens.ValidToken(ctx)
		if err != nil {
			return fmt.Errorf("marketcheck token: %w", err)
		}
		req.SetHeader("Authorization", tok.Header())
		return nil
	}
	if c.apiKey != "" {
		req.SetQueryParam("api_key", c.apiKey)
		return nil
	}
	return upstream.ErrNotConfigured
}

func (c *Client) get(ctx context.Context, op, path string, query map[string]string) ([]byte, error) {
	req := c.http.R().SetContext(ctx).SetQueryParams(query)
	if err := c.authorize(ctx, req); err != nil {
		return nil, err
	}
	resp, err := req.Get(path)
	if err := upstream.Check(serviceName, op, resp, err); err != nil {
		var se *upstream.StatusError
		if c.tokens != nil && errors.As(err, &se) && se.Code == http.StatusUnauthorized {
			c.tokens.Invalidate()
		}
		return nil, err
	}
	return resp.Body(), nil
}

// DecodeVIN fetches the build specs for vin. Live results are cached.
func (c *Client) DecodeVIN(ctx context.Context, vin string) (vehicle.DecodedVehicle, error) {
	vin = vehicle.NormalizeVIN(vin)
	if c.decoded != nil {
		if d, ok := c.decoded.Get(vin); ok {
			c.observeCache(true)
			return d, nil
		}
		c.observeCache(false)
	}

	var out vehicle.DecodedVehicle
	err := c.guard.Do(ctx, "decode", func(ctx context.Context) error {
		body, err := c.get(ctx, "decode", "/decode/car/"+vin+"/specs", nil)
		if err != nil {
			return err
		}
		r, err := upstream.DecodeRecord(body)
		if err != nil {
			return upstream.MalformedError("marketcheck decode", err)
		}
		out = decodedFromRecord(r)
		return nil
	})
	if err != nil {
		return vehicle.DecodedVehicle{}, err
	}
	if c.decoded != nil {
		c.decoded.Add(vin, out)
	}
	return out, nil
}

// ComparableListings fetches listings similar to vin around zip.
func (c *Client) ComparableListings(ctx context.Context, vin, zip string, mileage, radius int) ([]vehicle.ComparableVehicle, error) {
	var out []vehicle.ComparableVehicle
	err := c.guard.Do(ctx, "comparables", func(ctx context.Context) error {
		body, err := c.get(ctx, "comparables", "/predict/car/us/marketcheck_price/comparables/decode", map[string]string{
			"vin":    vin,
			"zip":    zip,
			"miles":  strconv.Itoa(mileage),
			"radius": strconv.Itoa(radius),
		})
		if err != nil {
			return err
		}
		r, err := upstream.DecodeRecord(body)
		if err != nil {
			return upstream.MalformedError("marketcheck comparables", err)
		}
		raw, ok := r.Lookup("comparables.listings")
		listings, isList := raw.([]any)
		if !ok || !isList {
			return upstream.MalformedError("marketcheck comparables", errors.New("missing comparables.listings array"))
		}
		out = make([]vehicle.ComparableVehicle, 0, len(listings))
		for i, item := range listings {
			m, ok := item.(map[string]any)
			if !ok {
				return upstream.MalformedError("marketcheck comparables", fmt.Errorf("listing %d is not an object", i))
			}
			out = append(out, comparableFromRecord(upstream.Record(m)))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) observeCache(hit bool) {
	if c.cacheObserver != nil {
		c.cacheObserver.IncCache("vin_decode", hit)
	}
}
