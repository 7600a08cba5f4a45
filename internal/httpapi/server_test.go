package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joelkehle/vehicle-advisor/internal/advisor"
	"github.com/joelkehle/vehicle-advisor/internal/metrics"
	"github.com/joelkehle/vehicle-advisor/internal/negotiation"
	"github.com/joelkehle/vehicle-advisor/internal/vehicle"
)

const testVIN = "1HGCM82633A004352"

type fakeAdvisor struct {
	marketErr error
	panicOn   string
	gotInput  negotiation.Input
	gotSafety []any
}

func (f *fakeAdvisor) LookupVIN(_ context.Context, vin string) (vehicle.DecodedVehicle, error) {
	if f.panicOn == "vin" {
		panic("decoder exploded")
	}
	if vin != testVIN {
		return vehicle.DecodedVehicle{}, fmt.Errorf("%w: %q", advisor.ErrInvalidVIN, vin)
	}
	return vehicle.DecodedVehicle{Year: 2019, Make: "Honda", Model: "Accord", Source: vehicle.SourceLive}, nil
}

func (f *fakeAdvisor) MarketData(_ context.Context, vin, zip string, mileage int) (vehicle.PriceAnalysis, error) {
	if f.marketErr != nil {
		return vehicle.PriceAnalysis{}, f.marketErr
	}
	return vehicle.PriceAnalysis{
		AvgMarketPrice:      20000,
		SubjectVehiclePrice: 21000,
		SimilarVehicles:     []vehicle.ComparableVehicle{{VIN: vin, Mileage: mileage, Location: vehicle.Location{Zip: zip}}},
		Source:              vehicle.SourceLive,
	}, nil
}

func (f *fakeAdvisor) Safety(_ context.Context, vin, makeName, model string, year int) (vehicle.SafetyData, error) {
	f.gotSafety = []any{vin, makeName, model, year}
	return vehicle.SafetyData{OverallRating: 5, Recalls: []vehicle.Recall{}, Source: vehicle.SourceLive}, nil
}

func (f *fakeAdvisor) Negotiate(_ context.Context, in negotiation.Input) vehicle.NegotiationStrategy {
	f.gotInput = in
	return negotiation.Generate(in.Vehicle, in.Safety, in.Analysis, in.Mileage)
}

func newServerForTest() (http.Handler, *fakeAdvisor) {
	adv := &fakeAdvisor{}
	return NewServer(adv, metrics.New()), adv
}

func postJSON(t *testing.T, h http.Handler, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	blob, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(blob))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) Error {
	t.Helper()
	var e Error
	if err := json.Unmarshal(rr.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode error body %q: %v", rr.Body.String(), err)
	}
	return e
}

func TestMarketData(t *testing.T) {
	h, _ := newServerForTest()
	rr := postJSON(t, h, "/market-data", map[string]any{"vin": testVIN, "zipCode": "94105", "mileage": 42000}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var got vehicle.PriceAnalysis
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.AvgMarketPrice != 20000 || got.SimilarVehicles[0].Mileage != 42000 || got.SimilarVehicles[0].Location.Zip != "94105" {
		t.Fatalf("unexpected analysis: %+v", got)
	}
	if rr.Header().Get(requestIDHeader) == "" {
		t.Fatal("missing request id header")
	}
}

func TestMarketDataMissingFields(t *testing.T) {
	h, _ := newServerForTest()
	for _, body := range []map[string]any{
		{"zipCode": "94105", "mileage": 42000},
		{"vin": testVIN, "mileage": 42000},
		{"vin": testVIN, "zipCode": "94105"},
		{"vin": testVIN, "zipCode": "94105", "mileage": 0},
	} {
		rr := postJSON(t, h, "/market-data", body, nil)
		if rr.Code != http.StatusBadRequest {
			t.Fatalf("body=%v status=%d", body, rr.Code)
		}
		if e := decodeError(t, rr); e.Message != allFieldsRequired || !strings.HasPrefix(e.Details, "missing: ") {
			t.Fatalf("unexpected error: %+v", e)
		}
	}
}

func TestMarketDataInvalidVIN(t *testing.T) {
	h, adv := newServerForTest()
	adv.marketErr = fmt.Errorf("%w: %q", advisor.ErrInvalidVIN, "SHORT")
	rr := postJSON(t, h, "/market-data", map[string]any{"vin": "SHORT", "zipCode": "94105", "mileage": 1}, nil)
	if rr.Code != http.StatusBadRequest || decodeError(t, rr).Message != "Invalid VIN" {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestMarketDataInternalFailure(t *testing.T) {
	h, adv := newServerForTest()
	adv.marketErr = errors.New("context canceled")
	rr := postJSON(t, h, "/market-data", map[string]any{"vin": testVIN, "zipCode": "94105", "mileage": 1}, nil)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", rr.Code)
	}
	if e := decodeError(t, rr); e.Message != "Failed to get market data" || e.Details != "context canceled" {
		t.Fatalf("unexpected error: %+v", e)
	}
}

func TestMalformedBody(t *testing.T) {
	h, _ := newServerForTest()
	req := httptest.NewRequest(http.MethodPost, "/vin-lookup", strings.NewReader("{not json"))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusBadRequest || decodeError(t, rr).Message != "Invalid request body" {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestVINLookup(t *testing.T) {
	h, _ := newServerForTest()
	rr := postJSON(t, h, "/vin-lookup", map[string]any{"vin": testVIN}, map[string]string{requestIDHeader: "req-123"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("request id not propagated: %q", rr.Header().Get(requestIDHeader))
	}
	if !strings.Contains(rr.Body.String(), `"make":"Honda"`) {
		t.Fatalf("body=%s", rr.Body.String())
	}

	rr = postJSON(t, h, "/vin-lookup", map[string]any{}, nil)
	if rr.Code != http.StatusBadRequest || decodeError(t, rr).Message != "VIN is required" {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestRecalls(t *testing.T) {
	h, adv := newServerForTest()
	rr := postJSON(t, h, "/recalls", map[string]any{"vin": testVIN, "make": "Honda", "model": "Accord", "year": 2019}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	if fmt.Sprint(adv.gotSafety) != fmt.Sprint([]any{testVIN, "Honda", "Accord", 2019}) {
		t.Fatalf("safety args=%v", adv.gotSafety)
	}
	rr = postJSON(t, h, "/recalls", map[string]any{"vin": testVIN, "make": "Honda", "model": "Accord"}, nil)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing year status=%d", rr.Code)
	}
}

func TestNegotiation(t *testing.T) {
	h, adv := newServerForTest()
	body := map[string]any{
		"decodedVin":    map[string]any{"year": 2019, "make": "Honda", "model": "Civic", "trim": "EX"},
		"safetyData":    map[string]any{"overallRating": 4, "recalls": []any{}},
		"priceAnalysis": map[string]any{"avgMarketPrice": 20000, "subjectVehiclePrice": 22000, "priceDifference": 2000, "percentageDifference": 10, "isPriceGood": false},
		"mileage":       60000,
	}
	rr := postJSON(t, h, "/negotiation", body, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var got vehicle.NegotiationStrategy
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.TargetPrice != 18000 || got.StartingOffer != 16200 || adv.gotInput.Mileage != 60000 {
		t.Fatalf("unexpected strategy: %+v", got)
	}

	delete(body, "safetyData")
	rr = postJSON(t, h, "/negotiation", body, nil)
	if rr.Code != http.StatusBadRequest || !strings.Contains(decodeError(t, rr).Details, "safetyData") {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestReport(t *testing.T) {
	h, _ := newServerForTest()
	rr := postJSON(t, h, "/report", map[string]any{
		"decodedVin":    map[string]any{"year": 2019, "make": "Honda", "model": "Civic"},
		"priceAnalysis": map[string]any{"avgMarketPrice": 20000, "subjectVehiclePrice": 19000},
	}, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
	var got struct {
		Markdown string `json:"markdown"`
		HTML     string `json:"html"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(got.Markdown, "2019 Honda Civic") || !strings.Contains(got.HTML, "<table>") {
		t.Fatalf("unexpected report: %+v", got)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	h, _ := newServerForTest()
	req := httptest.NewRequest(http.MethodGet, "/market-data", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusMethodNotAllowed || rr.Header().Get("Allow") != http.MethodPost {
		t.Fatalf("status=%d allow=%q", rr.Code, rr.Header().Get("Allow"))
	}
}

func TestPanicRecovery(t *testing.T) {
	h, adv := newServerForTest()
	adv.panicOn = "vin"
	rr := postJSON(t, h, "/vin-lookup", map[string]any{"vin": testVIN}, nil)
	if rr.Code != http.StatusInternalServerError || decodeError(t, rr).Message != "Internal server error" {
		t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestHealthAndMetrics(t *testing.T) {
	h, _ := newServerForTest()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"status":"ok"`) {
		t.Fatalf("health status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `route="/health"`) {
		t.Fatalf("metrics status=%d body=%s", rr.Code, rr.Body.String())
	}
}
