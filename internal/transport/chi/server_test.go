package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/chatmaps/internal/domain"
	"github.com/kailas-cloud/chatmaps/internal/domain/place"
	gen "github.com/kailas-cloud/chatmaps/internal/transport/generated"
	healthuc "github.com/kailas-cloud/chatmaps/internal/usecase/health"
	"github.com/kailas-cloud/chatmaps/internal/usecase/retrieval"
)

// --- Mocks ---

type mockRetriever struct {
	queryFn func(ctx context.Context, text string, k int) ([]retrieval.Hit, error)
	gotText string
	gotK    int
}

func (m *mockRetriever) Query(ctx context.Context, text string, k int) ([]retrieval.Hit, error) {
	m.gotText, m.gotK = text, k
	if m.queryFn != nil {
		return m.queryFn(ctx, text, k)
	}
	return nil, nil
}

type mockHealth struct {
	report healthuc.Report
}

func (m *mockHealth) Check(_ context.Context) healthuc.Report { return m.report }

func newTestHandler(r Retriever, h HealthChecker) http.Handler {
	return NewRouter(NewServer(r, h, zap.NewNop()), RouterConfig{}, zap.NewNop())
}

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/recommendations", strings.NewReader(body))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func blueDoor() place.Metadata {
	rating := 4.5
	takeout := true
	rec := place.Record{
		PlaceID:          "blue",
		Name:             "Blue Door Cafe",
		FormattedAddress: "12 Evergreen Terrace",
		Types:            []string{"cafe", "food"},
		Rating:           &rating,
		EditorialSummary: &place.EditorialSummary{Overview: "Cozy cafe with wifi"},
		Takeout:          &takeout,
	}
	doc, err := place.Build(rec)
	if err != nil {
		panic(err)
	}
	return doc.Metadata
}

// --- Tests ---

func TestRecommendations_Success(t *testing.T) {
	ret := &mockRetriever{queryFn: func(context.Context, string, int) ([]retrieval.Hit, error) {
		return []retrieval.Hit{{ID: "blue", Score: 0.9, Metadata: blueDoor()}}, nil
	}}
	rr := post(t, newTestHandler(ret, &mockHealth{}), `{"query":"cozy cafe","num_results":5}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}
	if ret.gotText != "cozy cafe" || ret.gotK != 5 {
		t.Errorf("retriever got (%q, %d)", ret.gotText, ret.gotK)
	}

	var out []string
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := "Blue Door Cafe at 12 Evergreen Terrace | About Summary: Cozy cafe with wifi | " +
		"Types: cafe, food | Rating: 4.5 | Total User Ratings: N/A | Price Level: N/A | " +
		"Opening Hours: N/A | Reviews: N/A | Dine-in: N/A | Delivery: N/A | Takeout: true"
	if len(out) != 1 || out[0] != want {
		t.Fatalf("got %q\nwant %q", out, want)
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestRecommendations_DefaultNumResults(t *testing.T) {
	ret := &mockRetriever{}
	rr := post(t, newTestHandler(ret, &mockHealth{}), `{"query":"tacos"}`)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ret.gotK != DefaultNumResults {
		t.Errorf("k = %d, want %d", ret.gotK, DefaultNumResults)
	}
	if body := strings.TrimSpace(rr.Body.String()); body != "[]" {
		t.Errorf("empty result must be [], got %s", body)
	}
}

func TestRecommendations_Errors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		err    error
		status int
		code   gen.ErrorResponseCode
	}{
		{name: "malformed json", body: `{"query":`, status: http.StatusBadRequest, code: gen.ErrorResponseCodeBadRequest},
		{
			name: "missing query", body: `{"num_results":3}`,
			status: http.StatusBadRequest, code: gen.ErrorResponseCodeValidationFailed,
		},
		{
			name: "invalid k", body: `{"query":"x","num_results":0}`,
			err:    fmt.Errorf("k must be >= 1: %w", domain.ErrInvalidArgument),
			status: http.StatusBadRequest, code: gen.ErrorResponseCodeValidationFailed,
		},
		{
			name: "provider rejected", body: `{"query":"x"}`,
			err:    fmt.Errorf("embed: %w: 400", domain.ErrEmbeddingRequest),
			status: http.StatusBadGateway, code: gen.ErrorResponseCodeEmbeddingRequestFailed,
		},
		{
			name: "provider exhausted", body: `{"query":"x"}`,
			err:    fmt.Errorf("embed: %w", domain.ErrEmbeddingUnavailable),
			status: http.StatusServiceUnavailable, code: gen.ErrorResponseCodeEmbeddingUnavailable,
		},
		{
			name: "store down", body: `{"query":"x"}`,
			err:    fmt.Errorf("nearest: %w: dial tcp 10.0.0.1:6379", domain.ErrStoreUnavailable),
			status: http.StatusServiceUnavailable, code: gen.ErrorResponseCodeStoreUnavailable,
		},
		{
			name: "unknown", body: `{"query":"x"}`,
			err:    errors.New("boom"),
			status: http.StatusInternalServerError, code: gen.ErrorResponseCodeInternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ret := &mockRetriever{queryFn: func(context.Context, string, int) ([]retrieval.Hit, error) {
				return nil, tt.err
			}}
			rr := post(t, newTestHandler(ret, &mockHealth{}), tt.body)

			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tt.status, rr.Body)
			}
			var resp gen.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Code, tt.code)
			}
			if strings.Contains(resp.Message, "10.0.0.1") {
				t.Errorf("internal details leaked: %q", resp.Message)
			}
		})
	}
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, http.NoBody))
	return rr
}

func TestListRecommendations_Success(t *testing.T) {
	ret := &mockRetriever{queryFn: func(context.Context, string, int) ([]retrieval.Hit, error) {
		return []retrieval.Hit{{ID: "blue", Score: 0.9, Metadata: blueDoor()}}, nil
	}}
	rr := get(t, newTestHandler(ret, &mockHealth{}), "/recommendations?query=cozy+cafe&num_results=2")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
	}
	if ret.gotText != "cozy cafe" || ret.gotK != 2 {
		t.Errorf("retriever got (%q, %d)", ret.gotText, ret.gotK)
	}
	var out gen.RecommendationList
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out) != 1 || !strings.HasPrefix(out[0], "Blue Door Cafe at 12 Evergreen Terrace | ") {
		t.Errorf("unexpected body %q", out)
	}
}

func TestListRecommendations_DefaultNumResults(t *testing.T) {
	ret := &mockRetriever{}
	rr := get(t, newTestHandler(ret, &mockHealth{}), "/recommendations?query=tacos")

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ret.gotK != DefaultNumResults {
		t.Errorf("k = %d, want %d", ret.gotK, DefaultNumResults)
	}
}

func TestListRecommendations_BadParams(t *testing.T) {
	tests := []struct {
		name   string
		target string
		code   gen.ErrorResponseCode
	}{
		{name: "missing query", target: "/recommendations?num_results=2", code: gen.ErrorResponseCodeBadRequest},
		{name: "non-numeric k", target: "/recommendations?query=x&num_results=many", code: gen.ErrorResponseCodeBadRequest},
		{name: "blank query", target: "/recommendations?query=+++", code: gen.ErrorResponseCodeValidationFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ret := &mockRetriever{}
			rr := get(t, newTestHandler(ret, &mockHealth{}), tt.target)

			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body = %s", rr.Code, rr.Body)
			}
			var resp gen.ErrorResponse
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Code != tt.code {
				t.Errorf("code = %q, want %q", resp.Code, tt.code)
			}
			if ret.gotText != "" {
				t.Errorf("retriever must not be called, got %q", ret.gotText)
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	n := 7
	tests := []struct {
		name   string
		report healthuc.Report
		status int
	}{
		{
			name:   "healthy",
			report: healthuc.Report{Status: healthuc.Healthy, Checks: map[string]healthuc.CheckResult{"vector_store": "ok"}, Places: &n},
			status: http.StatusOK,
		},
		{
			name:   "degraded still serves",
			report: healthuc.Report{Status: healthuc.Degraded, Checks: map[string]healthuc.CheckResult{"embedding": "error"}},
			status: http.StatusOK,
		},
		{
			name:   "unhealthy",
			report: healthuc.Report{Status: healthuc.Unhealthy, Checks: map[string]healthuc.CheckResult{"vector_store": "error"}},
			status: http.StatusServiceUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newTestHandler(&mockRetriever{}, &mockHealth{report: tt.report})
			rr := httptest.NewRecorder()
			h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", http.NoBody))

			if rr.Code != tt.status {
				t.Fatalf("status = %d, want %d", rr.Code, tt.status)
			}
			var body gen.HealthResponse
			if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if string(body.Status) != string(tt.report.Status) {
				t.Errorf("status field = %q", body.Status)
			}
		})
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestHandler(&mockRetriever{}, &mockHealth{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "go_goroutines") {
		t.Error("expected Prometheus exposition output")
	}
}

func TestRouter_NotFoundIsJSON(t *testing.T) {
	h := newTestHandler(&mockRetriever{}, &mockHealth{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/nope", http.NoBody))

	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
}

func TestJSONRecoverer(t *testing.T) {
	ret := &mockRetriever{queryFn: func(context.Context, string, int) ([]retrieval.Hit, error) {
		panic("nil map")
	}}
	rr := post(t, newTestHandler(ret, &mockHealth{}), `{"query":"x"}`)

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp gen.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != gen.ErrorResponseCodeInternalError {
		t.Errorf("code = %q", resp.Code)
	}
}
