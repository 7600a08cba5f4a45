// Package advisor composes the vehicle data clients and the pure pricing and
// negotiation logic into the operations the HTTP API and CLI expose.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/joelkehle/vehicle-advisor/internal/logger"
	"github.com/joelkehle/vehicle-advisor/internal/marketcheck"
	"github.com/joelkehle/vehicle-advisor/internal/negotiation"
	"github.com/joelkehle/vehicle-advisor/internal/nhtsa"
	"github.com/joelkehle/vehicle-advisor/internal/pricing"
	"github.com/joelkehle/vehicle-advisor/internal/vehicle"
)

const DefaultRadius = 100

var ErrInvalidVIN = errors.New("invalid VIN")

type VINDecoder interface {
	DecodeVIN(ctx context.Context, vin string) (vehicle.DecodedVehicle, error)
}

type ComparablesSource interface {
	ComparableListings(ctx context.Context, vin, zip string, mileage, radius int) ([]vehicle.ComparableVehicle, error)
}

type SafetySource interface {
	CompleteSafetyData(ctx context.Context, vin, makeName, model string, year int) vehicle.SafetyData
}

type StrategySource interface {
	Strategy(ctx context.Context, in negotiation.Input) vehicle.NegotiationStrategy
}

type FallbackObserver interface {
	IncFallback(component string)
}

// Deps are the collaborators of a Service. Radius defaults to DefaultRadius.
type Deps struct {
	Decoder     VINDecoder
	Comparables ComparablesSource
	Safety      SafetySource
	Strategist  StrategySource
	Observer    FallbackObserver
	Radius      int
}

type Service struct {
	decoder     VINDecoder
	comparables ComparablesSource
	safety      SafetySource
	strategist  StrategySource
	observer    FallbackObserver
	radius      int
}

func New(d Deps) *Service {
	if d.Radius <= 0 {
		d.Radius = DefaultRadius
	}
	return &Service{
		decoder:     d.Decoder,
		comparables: d.Comparables,
		safety:      d.Safety,
		strategist:  d.Strategist,
		observer:    d.Observer,
		radius:      d.Radius,
	}
}

func checkVIN(vin string) (string, error) {
	vin = vehicle.NormalizeVIN(vin)
	if !vehicle.ValidVIN(vin) {
		return "", fmt.Errorf("%w: %q", ErrInvalidVIN, vin)
	}
	return vin, nil
}

func (s *Service) degraded(component string, fields logrus.Fields, err error) {
	if s.observer != nil {
		s.observer.IncFallback(component)
	}
	logger.Log.WithFields(fields).WithField("component", component).Warnf("serving fallback data: %v", err)
}

// LookupVIN decodes vin. Upstream failures yield the labeled demo vehicle;
// only an invalid VIN or a canceled request is an error.
func (s *Service) LookupVIN(ctx context.Context, vin string) (vehicle.DecodedVehicle, error) {
	vin, err := checkVIN(vin)
	if err != nil {
		return vehicle.DecodedVehicle{}, err
	}
	var decoded vehicle.DecodedVehicle
	if s.decoder == nil {
		err = errors.New("no VIN decoder configured")
	} else {
		decoded, err = s.decoder.DecodeVIN(ctx, vin)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return vehicle.DecodedVehicle{}, ctxErr
		}
		s.degraded("vin_decode", logrus.Fields{"vin": vin}, err)
		return marketcheck.FallbackVehicle(), nil
	}
	return decoded, nil
}

// MarketData prices the vehicle against comparable listings near zip. When
// listings cannot be fetched the analysis is built from a reproducible demo
// market and labeled fallback.
func (s *Service) MarketData(ctx context.Context, vin, zip string, mileage int) (vehicle.PriceAnalysis, error) {
	vin, err := checkVIN(vin)
	if err != nil {
		return vehicle.PriceAnalysis{}, err
	}
	zip = strings.TrimSpace(zip)

	var comps []vehicle.ComparableVehicle
	if s.comparables == nil {
		err = errors.New("no comparables source configured")
	} else {
		comps, err = s.comparables.ComparableListings(ctx, vin, zip, mileage, s.radius)
	}
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return vehicle.PriceAnalysis{}, ctxErr
		}
		s.degraded("comparables", logrus.Fields{"vin": vin, "zip": zip}, err)
		return pricing.FallbackAnalysis(vin, zip, mileage), nil
	}

	in := pricing.Input{VIN: vin, ZIP: zip, Mileage: mileage, Comparables: comps, Source: vehicle.SourceLive}
	if _, ok := pricing.FindSubject(vin, comps); !ok {
		identity, err := s.LookupVIN(ctx, vin)
		if err != nil {
			return vehicle.PriceAnalysis{}, err
		}
		in.Identity = identity
	}
	analysis := pricing.Analyze(in)
	logger.Log.WithFields(logrus.Fields{
		"vin":         vin,
		"comparables": len(comps),
		"synthesized": analysis.SubjectSynthesized,
	}).Info("market analysis complete")
	return analysis, nil
}

// Safety gathers recalls, complaints and ratings. Partial upstream failure
// is reported inside the result rather than as an error.
func (s *Service) Safety(ctx context.Context, vin, makeName, model string, year int) (vehicle.SafetyData, error) {
	vin, err := checkVIN(vin)
	if err != nil {
		return vehicle.SafetyData{}, err
	}
	if s.safety == nil {
		s.degraded("safety", logrus.Fields{"vin": vin}, errors.New("no safety source configured"))
		return emptySafety(), nil
	}
	data := s.safety.CompleteSafetyData(ctx, vin, makeName, model, year)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return vehicle.SafetyData{}, ctxErr
	}
	if data.Source == vehicle.SourceFallback {
		s.degraded("safety", logrus.Fields{"vin": vin}, errors.New("all safety queries failed"))
	}
	return data, nil
}

// Negotiate never fails; without a strategist it returns the rule-based plan.
func (s *Service) Negotiate(ctx context.Context, in negotiation.Input) vehicle.NegotiationStrategy {
	if s.strategist == nil {
		return negotiation.Generate(in.Vehicle, in.Safety, in.Analysis, in.Mileage)
	}
	return s.strategist.Strategy(ctx, in)
}

func emptySafety() vehicle.SafetyData {
	return vehicle.SafetyData{
		CategoryRatings: []vehicle.SafetyRating{},
		Recalls:         []vehicle.Recall{},
		Complaints:      []vehicle.Complaint{},
		Unavailable:     []string{nhtsa.SliceRecalls, nhtsa.SliceComplaints, nhtsa.SliceRatings},
		Source:          vehicle.SourceFallback,
	}
}
