package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/chatmaps/internal/domain"
	"github.com/kailas-cloud/chatmaps/internal/domain/place"
	"github.com/kailas-cloud/chatmaps/internal/logger"
	gen "github.com/kailas-cloud/chatmaps/internal/transport/generated"
	healthuc "github.com/kailas-cloud/chatmaps/internal/usecase/health"
	"github.com/kailas-cloud/chatmaps/internal/usecase/retrieval"
)

// DefaultNumResults is used when a request omits num_results.
const DefaultNumResults = 3

// maxBodyBytes bounds the request body of POST /recommendations.
const maxBodyBytes = 64 << 10

// Retriever answers semantic queries.
type Retriever interface {
	Query(ctx context.Context, text string, k int) ([]retrieval.Hit, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server implements generated.ServerInterface for the oapi-codegen chi router.
type Server struct {
	gen.Unimplemented

	retriever     Retriever
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

var _ gen.ServerInterface = (*Server)(nil)

// NewServer creates an HTTP API server.
func NewServer(retriever Retriever, health HealthChecker, logger *zap.Logger) *Server {
	s := &Server{
		retriever: retriever,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidArgument, http.StatusBadRequest, gen.ErrorResponseCodeValidationFailed),
		sentinelHandler(domain.ErrEmbeddingRequest, http.StatusBadGateway, gen.ErrorResponseCodeEmbeddingRequestFailed),
		sentinelHandler(domain.ErrEmbeddingUnavailable,
			http.StatusServiceUnavailable, gen.ErrorResponseCodeEmbeddingUnavailable),
		sentinelHandler(domain.ErrStoreUnavailable, http.StatusServiceUnavailable, gen.ErrorResponseCodeStoreUnavailable),
	}
	return s
}

// PostRecommendations handles POST /recommendations.
func (s *Server) PostRecommendations(w http.ResponseWriter, r *http.Request) {
	var req gen.PostRecommendationsJSONRequestBody
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, gen.ErrorResponseCodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	s.recommend(w, r, req.Query, req.NumResults)
}

// ListRecommendations handles GET /recommendations?query=...&num_results=...
func (s *Server) ListRecommendations(w http.ResponseWriter, r *http.Request, params gen.ListRecommendationsParams) {
	s.recommend(w, r, params.Query, params.NumResults)
}

func (s *Server) recommend(w http.ResponseWriter, r *http.Request, query string, numResults *int) {
	if strings.TrimSpace(query) == "" {
		writeError(w, http.StatusBadRequest, gen.ErrorResponseCodeValidationFailed, "query is required")
		return
	}
	k := DefaultNumResults
	if numResults != nil {
		k = *numResults
	}

	ctx := logger.With(r.Context(), zap.String("query", query), zap.Int("k", k))
	hits, err := s.retriever.Query(ctx, query, k)
	if err != nil {
		s.handleDomainError(ctx, w, err)
		return
	}

	out := make(gen.RecommendationList, len(hits))
	for i, h := range hits {
		out[i] = FormatRecommendation(h.Metadata)
	}
	logger.FromContext(ctx).Debug("Recommendations served", zap.Int("results", len(out)))
	writeJSON(w, http.StatusOK, out)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]gen.CheckResult, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = gen.CheckResult(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, gen.HealthResponse{
		Status: gen.HealthResponseStatus(report.Status),
		Checks: checks,
		Places: report.Places,
	})
}

// FormatRecommendation renders one hit as a single "key: value | key: value" line.
func FormatRecommendation(md place.Metadata) string {
	return fmt.Sprintf("%s at %s | About Summary: %s | Types: %s | Rating: %s | "+
		"Total User Ratings: %s | Price Level: %s | Opening Hours: %s | Reviews: %s | "+
		"Dine-in: %s | Delivery: %s | Takeout: %s",
		md.Name, md.Address, md.EditorialSummary, md.Types, md.Rating,
		md.UserRatingsTotal, md.PriceLevel, md.OpeningHours, md.Reviews,
		md.DineIn, md.Delivery, md.Takeout)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code gen.ErrorResponseCode, message string) {
	writeJSON(w, status, gen.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
// The client sees the sentinel text only, never the wrapped details.
func sentinelHandler(sentinel error, status int, code gen.ErrorResponseCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, sentinel.Error())
		return true
	}
}

func (s *Server) handleDomainError(ctx context.Context, w http.ResponseWriter, err error) {
	log := logger.FromContext(ctx)
	if errors.Is(err, context.Canceled) {
		log.Info("request canceled", zap.Error(err))
		return
	}
	for _, h := range s.errorHandlers {
		if h(w, err) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, gen.ErrorResponseCodeInternalError, "internal error")
}
