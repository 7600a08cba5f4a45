// Package negotiation turns a price analysis and safety record into a
// negotiation plan, generated by a language model when one is configured
// and rule-based otherwise.
package negotiation

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/joelkehle/vehicle-advisor/internal/logger"
	"github.com/joelkehle/vehicle-advisor/internal/vehicle"
)

type Outcome string

const (
	OutcomeGenerated      Outcome = "generated"
	OutcomeParseFailure   Outcome = "parse_failure"
	OutcomeServiceFailure Outcome = "service_failure"
	OutcomeDisabled       Outcome = "disabled"
)

var ErrDisabled = errors.New("generative strategy disabled")

// Result is the typed outcome of one generation attempt. Strategy is set
// only when Outcome is OutcomeGenerated.
type Result struct {
	Outcome  Outcome
	Strategy vehicle.NegotiationStrategy
	Err      error
}

type OutcomeObserver interface {
	IncStrategyOutcome(outcome string)
}

type Strategist struct {
	caller   LLMCaller
	timeout  time.Duration
	observer OutcomeObserver
}

// NewStrategist builds a strategist. A nil caller always yields the
// rule-based plan.
func NewStrategist(caller LLMCaller, timeout time.Duration, observer OutcomeObserver) *Strategist {
	return &Strategist{caller: caller, timeout: timeout, observer: observer}
}

// Attempt makes a single generation call. There are no retries.
func (s *Strategist) Attempt(ctx context.Context, in Input) Result {
	if s == nil || s.caller == nil {
		return Result{Outcome: OutcomeDisabled, Err: ErrDisabled}
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	raw, err := s.caller.Generate(ctx, BuildPrompt(in))
	if err != nil {
		return Result{Outcome: OutcomeServiceFailure, Err: err}
	}
	if strings.TrimSpace(raw) == "" {
		return Result{Outcome: OutcomeParseFailure, Err: errors.New("empty response")}
	}
	strategy, err := ParseStrategy(raw)
	if err != nil {
		return Result{Outcome: OutcomeParseFailure, Err: err}
	}
	return Result{Outcome: OutcomeGenerated, Strategy: strategy}
}

// Strategy returns the generated plan, or the rule-based plan on any other
// outcome.
func (s *Strategist) Strategy(ctx context.Context, in Input) vehicle.NegotiationStrategy {
	res := s.Attempt(ctx, in)
	if s != nil && s.observer != nil {
		s.observer.IncStrategyOutcome(string(res.Outcome))
	}
	entry := logger.Log.WithFields(logrus.Fields{
		"outcome": res.Outcome,
		"vehicle": in.Vehicle.Description(),
	})
	switch res.Outcome {
	case OutcomeGenerated:
		entry.Info("negotiation strategy generated")
		return res.Strategy
	case OutcomeServiceFailure:
		entry.WithField("class", classifyTransportError(res.Err)).Warnf("strategy service failed, using rule-based plan: %v", res.Err)
	case OutcomeParseFailure:
		entry.Warnf("strategy response unusable, using rule-based plan: %v", res.Err)
	default:
		entry.Debug("generative strategy disabled, using rule-based plan")
	}
	return Generate(in.Vehicle, in.Safety, in.Analysis, in.Mileage)
}
