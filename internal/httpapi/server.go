// Package httpapi exposes the advisor over JSON HTTP endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/joelkehle/vehicle-advisor/internal/logger"
	"github.com/joelkehle/vehicle-advisor/internal/metrics"
	"github.com/joelkehle/vehicle-advisor/internal/negotiation"
	"github.com/joelkehle/vehicle-advisor/internal/vehicle"
)

const (
	maxBodyBytes    = 1 << 20
	requestIDHeader = "X-Request-ID"
)

// Advisor is the set of operations the API serves.
type Advisor interface {
	LookupVIN(ctx context.Context, vin string) (vehicle.DecodedVehicle, error)
	MarketData(ctx context.Context, vin, zip string, mileage int) (vehicle.PriceAnalysis, error)
	Safety(ctx context.Context, vin, makeName, model string, year int) (vehicle.SafetyData, error)
	Negotiate(ctx context.Context, in negotiation.Input) vehicle.NegotiationStrategy
}

// Error is the JSON error envelope. Status is not serialized.
type Error struct {
	Status  int    `json:"-"`
	Message string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (e *Error) Error() string {
	if e.Details == "" {
		return e.Message
	}
	return e.Message + ": " + e.Details
}

func badRequest(message, details string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: message, Details: details}
}

func internalError(message string, err error) *Error {
	e := &Error{Status: http.StatusInternalServerError, Message: message}
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

type Server struct {
	advisor  Advisor
	metrics  *metrics.Metrics
	validate *validator.Validate
	now      func() time.Time
}

func NewServer(adv Advisor, m *metrics.Metrics) http.Handler {
	s := &Server{advisor: adv, metrics: m, validate: newValidator(), now: time.Now}
	mux := http.NewServeMux()
	mux.Handle("/market-data", s.route("/market-data", http.MethodPost, s.handleMarketData))
	mux.Handle("/negotiation", s.route("/negotiation", http.MethodPost, s.handleNegotiation))
	mux.Handle("/recalls", s.route("/recalls", http.MethodPost, s.handleRecalls))
	mux.Handle("/vin-lookup", s.route("/vin-lookup", http.MethodPost, s.handleVINLookup))
	mux.Handle("/report", s.route("/report", http.MethodPost, s.handleReport))
	mux.Handle("/health", s.route("/health", http.MethodGet, s.handleHealth))
	mux.Handle("/metrics", m.Handler())
	return mux
}

// newValidator reports field names as they appear in JSON.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		writeJSON(w, apiErr.Status, apiErr)
		return
	}
	writeJSON(w, http.StatusInternalServerError, &Error{Message: "Internal server error", Details: err.Error()})
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return []byte("{}"), nil
	}
	blob, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, err
	}
	if len(blob) == 0 {
		blob = []byte("{}")
	}
	return blob, nil
}

// decodeRequest reads a JSON body into dst and checks its validate tags.
// Any failure is a 400 carrying missingMessage.
func (s *Server) decodeRequest(r *http.Request, dst any, missingMessage string) error {
	blob, err := readBody(r)
	if err != nil {
		return badRequest("Invalid request body", err.Error())
	}
	if err := json.Unmarshal(blob, dst); err != nil {
		return badRequest("Invalid request body", err.Error())
	}
	if err := s.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fe.Field())
			}
			return badRequest(missingMessage, "missing: "+strings.Join(fields, ", "))
		}
		return badRequest(missingMessage, err.Error())
	}
	return nil
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	return r.ResponseWriter.Write(b)
}

func methodOnly(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.Header().Set("Allow", method)
		writeJSON(w, http.StatusMethodNotAllowed, &Error{Message: "Method not allowed"})
		return false
	}
	return true
}

// route wraps a handler with request ids, panic recovery, method checks,
// access logging and metrics.
func (s *Server) route(name, method string, h func(http.ResponseWriter, *http.Request) error) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.now()
		reqID := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, reqID)
		rec := &statusRecorder{ResponseWriter: w}
		entry := logger.Log.WithFields(logrus.Fields{"request_id": reqID, "route": name})

		defer func() {
			if p := recover(); p != nil {
				entry.Errorf("handler panic: %v", p)
				if rec.status == 0 {
					writeJSON(rec, http.StatusInternalServerError, &Error{Message: "Internal server error"})
				}
			}
			elapsed := s.now().Sub(start)
			s.metrics.ObserveHTTP(name, rec.status, elapsed)
			entry.WithFields(logrus.Fields{"status": rec.status, "duration": elapsed.String()}).Info("request handled")
		}()

		if !methodOnly(rec, r, method) {
			return
		}
		if r.Body != nil {
			r.Body = http.MaxBytesReader(rec, r.Body, maxBodyBytes)
		}
		if err := h(rec, r); err != nil {
			if rec.status == 0 {
				writeError(rec, err)
			}
			entry.Warnf("request failed: %v", err)
		}
	})
}
