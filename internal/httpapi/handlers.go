package httpapi

import (
	"errors"
	"net/http"

	"github.com/joelkehle/vehicle-advisor/internal/advisor"
	"github.com/joelkehle/vehicle-advisor/internal/negotiation"
	"github.com/joelkehle/vehicle-advisor/internal/report"
	"github.com/joelkehle/vehicle-advisor/internal/vehicle"
)

const allFieldsRequired = "All fields are required"

type marketDataRequest struct {
	VIN     string `json:"vin" validate:"required"`
	ZipCode string `json:"zipCode" validate:"required"`
	Mileage int    `json:"mileage" validate:"required"`
}

type negotiationRequest struct {
	DecodedVin    *vehicle.DecodedVehicle `json:"decodedVin" validate:"required"`
	SafetyData    *vehicle.SafetyData     `json:"safetyData" validate:"required"`
	PriceAnalysis *vehicle.PriceAnalysis  `json:"priceAnalysis" validate:"required"`
	Mileage       int                     `json:"mileage" validate:"required"`
}

type recallsRequest struct {
	VIN   string `json:"vin" validate:"required"`
	Make  string `json:"make" validate:"required"`
	Model string `json:"model" validate:"required"`
	Year  int    `json:"year" validate:"required"`
}

type vinLookupRequest struct {
	VIN string `json:"vin" validate:"required"`
}

type reportRequest struct {
	DecodedVin    *vehicle.DecodedVehicle      `json:"decodedVin" validate:"required"`
	PriceAnalysis *vehicle.PriceAnalysis       `json:"priceAnalysis" validate:"required"`
	SafetyData    *vehicle.SafetyData          `json:"safetyData"`
	Negotiation   *vehicle.NegotiationStrategy `json:"negotiation"`
}

// upstreamError maps an advisor failure: invalid VINs are the caller's
// fault, everything else is reported under message.
func upstreamError(message string, err error) error {
	if errors.Is(err, advisor.ErrInvalidVIN) {
		return badRequest("Invalid VIN", err.Error())
	}
	return internalError(message, err)
}

func (s *Server) handleMarketData(w http.ResponseWriter, r *http.Request) error {
	var req marketDataRequest
	if err := s.decodeRequest(r, &req, allFieldsRequired); err != nil {
		return err
	}
	if req.Mileage < 0 {
		return badRequest("Invalid mileage", "mileage must not be negative")
	}
	analysis, err := s.advisor.MarketData(r.Context(), req.VIN, req.ZipCode, req.Mileage)
	if err != nil {
		return upstreamError("Failed to get market data", err)
	}
	writeJSON(w, http.StatusOK, analysis)
	return nil
}

func (s *Server) handleNegotiation(w http.ResponseWriter, r *http.Request) error {
	var req negotiationRequest
	if err := s.decodeRequest(r, &req, allFieldsRequired); err != nil {
		return err
	}
	strategy := s.advisor.Negotiate(r.Context(), negotiation.Input{
		Vehicle:  *req.DecodedVin,
		Safety:   *req.SafetyData,
		Analysis: *req.PriceAnalysis,
		Mileage:  req.Mileage,
	})
	writeJSON(w, http.StatusOK, strategy)
	return nil
}

func (s *Server) handleRecalls(w http.ResponseWriter, r *http.Request) error {
	var req recallsRequest
	if err := s.decodeRequest(r, &req, allFieldsRequired); err != nil {
		return err
	}
	data, err := s.advisor.Safety(r.Context(), req.VIN, req.Make, req.Model, req.Year)
	if err != nil {
		return upstreamError("Failed to get safety data", err)
	}
	writeJSON(w, http.StatusOK, data)
	return nil
}

func (s *Server) handleVINLookup(w http.ResponseWriter, r *http.Request) error {
	var req vinLookupRequest
	if err := s.decodeRequest(r, &req, "VIN is required"); err != nil {
		return err
	}
	decoded, err := s.advisor.LookupVIN(r.Context(), req.VIN)
	if err != nil {
		return upstreamError("Failed to decode VIN", err)
	}
	writeJSON(w, http.StatusOK, decoded)
	return nil
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) error {
	var req reportRequest
	if err := s.decodeRequest(r, &req, allFieldsRequired); err != nil {
		return err
	}
	out, err := report.Build(report.Input{
		Vehicle:   *req.DecodedVin,
		Analysis:  *req.PriceAnalysis,
		Safety:    req.SafetyData,
		Strategy:  req.Negotiation,
		Generated: s.now().UTC(),
	})
	if err != nil {
		return internalError("Failed to build report", err)
	}
	writeJSON(w, http.StatusOK, out)
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) error {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "status": "ok"})
	return nil
}
