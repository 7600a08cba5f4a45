// Package nhtsa reads recalls, owner complaints and crash-test ratings from
// the NHTSA public API.
package nhtsa

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/joelkehle/vehicle-advisor/internal/upstream"
	"github.com/joelkehle/vehicle-advisor/internal/vehicle"
)

const (
	serviceName = "nhtsa"
	maxRating   = 5
)

type Config struct {
	BaseURL string
	Timeout time.Duration
	RPS     float64
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.hc = hc }
}

func WithObserver(o upstream.Observer) Option {
	return func(c *Client) { c.observer = o }
}

type Client struct {
	http     *resty.Client
	guard    *upstream.Guard
	hc       *http.Client
	observer upstream.Observer
}

func New(cfg Config, opts ...Option) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}
	c.http = upstream.NewRestyClient(cfg.BaseURL, cfg.Timeout, c.hc)
	c.http.SetQueryParam("format", "json")
	c.guard = upstream.NewGuard(serviceName, cfg.RPS, c.observer)
	return c
}

func (c *Client) results(ctx context.Context, op, path string, params map[string]string) ([]upstream.Record, error) {
	var items []upstream.Record
	err := c.guard.Do(ctx, op, func(ctx context.Context) error {
		resp, err := c.http.R().SetContext(ctx).SetPathParams(params).Get(path)
		if err := upstream.Check(serviceName, op, resp, err); err != nil {
			return err
		}
		r, err := upstream.DecodeRecord(resp.Body())
		if err != nil {
			return upstream.MalformedError("nhtsa "+op, err)
		}
		list, ok := r.List("results", "Results")
		if !ok {
			// An absent results array means nothing is on file.
			list = []upstream.Record{}
		}
		items = list
		return nil
	})
	return items, err
}

// Recalls lists the recall campaigns filed against vin.
func (c *Client) Recalls(ctx context.Context, vin string) ([]vehicle.Recall, error) {
	items, err := c.results(ctx, "recalls", "/recalls/vehicle/{vin}", map[string]string{
		"vin": vehicle.NormalizeVIN(vin),
	})
	if err != nil {
		return nil, err
	}
	out := make([]vehicle.Recall, 0, len(items))
	for _, r := range items {
		out = append(out, vehicle.Recall{
			CampaignNumber: r.String("campaignNumber", "NHTSACampaignNumber"),
			Component:      r.String("component", "Component"),
			Summary:        r.String("summary", "Summary"),
			Consequence:    r.String("consequence", "Consequence"),
			Remedy:         r.String("remedy", "Remedy"),
			Notes:          r.String("notes", "Notes"),
			ReportDate:     r.String("reportDate", "ReportReceivedDate"),
		})
	}
	return out, nil
}

// Complaints lists owner complaints for a make, model and model year.
func (c *Client) Complaints(ctx context.Context, makeName, model string, year int) ([]vehicle.Complaint, error) {
	items, err := c.results(ctx, "complaints", "/complaints/vehicle/{make}/{model}/{year}", modelParams(makeName, model, year))
	if err != nil {
		return nil, err
	}
	out := make([]vehicle.Complaint, 0, len(items))
	for _, r := range items {
		out = append(out, vehicle.Complaint{
			ID:               int64(r.Float("id", "odiNumber", "ODINumber")),
			Component:        r.String("component", "components", "Component"),
			Summary:          r.String("summary", "Summary"),
			Date:             r.String("incidentDate", "dateOfIncident", "DateofIncident"),
			Mileage:          r.Int("mileage", "Mileage"),
			CrashInvolved:    r.Bool("crashInvolved", "crash", "Crash"),
			InjuriesReported: r.Int("numberOfInjuries", "NumberOfInjured"),
		})
	}
	return out, nil
}

type ratingCategory struct {
	name        string
	keys        []string
	description string
}

var ratingCategories = []ratingCategory{
	{OverallCategory, []string{"OverallRating"}, "Overall vehicle safety rating"},
	{"Front Crash", []string{"FrontCrashRating", "OverallFrontCrashRating"}, "Protection in a frontal crash"},
	{"Side Crash", []string{"SideCrashRating", "OverallSideCrashRating"}, "Protection in a side impact crash"},
	{"Rollover", []string{"RolloverRating"}, "Resistance to rollover"},
}

// OverallCategory names the rating that feeds SafetyData.OverallRating.
const OverallCategory = "Overall"

// Ratings returns the star ratings of the first rated variant. Categories
// marked "Not Rated" are omitted.
func (c *Client) Ratings(ctx context.Context, makeName, model string, year int) ([]vehicle.SafetyRating, error) {
	items, err := c.results(ctx, "ratings", "/SafetyRatings/vehicle/{make}/{model}/{year}", modelParams(makeName, model, year))
	if err != nil {
		return nil, err
	}
	out := []vehicle.SafetyRating{}
	if len(items) == 0 {
		return out, nil
	}
	first := items[0]
	for _, cat := range ratingCategories {
		stars := first.Int(cat.keys...)
		if stars <= 0 || stars > maxRating {
			continue
		}
		out = append(out, vehicle.SafetyRating{
			Category:    cat.name,
			Rating:      stars,
			MaxRating:   maxRating,
			Description: cat.description,
		})
	}
	return out, nil
}

func modelParams(makeName, model string, year int) map[string]string {
	return map[string]string{
		"make":  strings.TrimSpace(makeName),
		"model": strings.TrimSpace(model),
		"year":  strconv.Itoa(year),
	}
}
