package upstream

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/joelkehle/vehicle-advisor/internal/logger"
)

// Observer receives one callback per finished upstream call.
type Observer interface {
	ObserveUpstream(service, op string, d time.Duration, err error)
}

// Guard throttles, traces and records every call a client makes to one
// upstream service.
type Guard struct {
	Service  string
	Limiter  *rate.Limiter
	Observer Observer
	tracer   trace.Tracer
}

func NewGuard(service string, rps float64, observer Observer) *Guard {
	g := &Guard{Service: service, Observer: observer, tracer: otel.Tracer("vehicle-advisor/" + service)}
	if rps > 0 {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		g.Limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return g
}

func (g *Guard) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if g.Limiter != nil {
		if err := g.Limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s %s: rate limiter: %w", g.Service, op, err)
		}
	}
	tracer := g.tracer
	if tracer == nil {
		tracer = otel.Tracer("vehicle-advisor/" + g.Service)
	}
	ctx, span := tracer.Start(ctx, g.Service+"."+op, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)
	if g.Observer != nil {
		g.Observer.ObserveUpstream(g.Service, op, elapsed, err)
	}
	span.SetAttributes(attribute.String("upstream.outcome", Label(err)))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, Label(err))
		logger.Log.WithFields(logrus.Fields{
			"service":  g.Service,
			"op":       op,
			"outcome":  Label(err),
			"duration": elapsed.String(),
		}).Warnf("upstream call failed: %v", err)
	}
	return err
}

// NewRestyClient builds a JSON client. A non-nil hc replaces the default
// transport, which is how tests inject httpmock.
func NewRestyClient(baseURL string, timeout time.Duration, hc *http.Client) *resty.Client {
	var c *resty.Client
	if hc != nil {
		c = resty.NewWithClient(hc)
	} else {
		c = resty.New()
	}
	c.SetBaseURL(baseURL)
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	c.SetHeader("Accept", "application/json")
	return c
}

// Check converts a resty outcome into a transport or status error.
func Check(service, op string, resp *resty.Response, err error) error {
	if err != nil {
		return fmt.Errorf("%s %s: %w", service, op, err)
	}
	if resp.IsError() {
		return &StatusError{Service: service, Op: op, Code: resp.StatusCode(), Status: http.StatusText(resp.StatusCode())}
	}
	return nil
}
