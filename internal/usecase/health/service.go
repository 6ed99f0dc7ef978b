package health

import "context"

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the store works but a provider does not (ingestion and queries fail).
	Degraded Status = "degraded"
	// Unhealthy indicates the vector store is down.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names used as keys in Report.Checks.
const (
	ComponentStore     = "vector_store"
	ComponentEmbedding = "embedding"
)

// Report aggregates health check results.
type Report struct {
	Status Status                 `json:"status"`
	Checks map[string]CheckResult `json:"checks"`
	// Places is the indexed place count; nil when unknown.
	Places *int `json:"places,omitempty"`
}

// Service coordinates health checks.
type Service struct {
	store     StorePinger
	embedding EmbeddingChecker
	places    PlaceCounter
}

// New creates a Service. embedding can be nil.
func New(store StorePinger, embedding EmbeddingChecker) *Service {
	return &Service{store: store, embedding: embedding}
}

// WithPlaceCounter adds the indexed place count to reports.
func (s *Service) WithPlaceCounter(c PlaceCounter) *Service {
	s.places = c
	return s
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)
	status := Healthy

	if err := s.store.Ping(ctx); err != nil {
		checks[ComponentStore] = CheckError
		status = Unhealthy
	} else {
		checks[ComponentStore] = CheckOK
	}

	if s.embedding != nil {
		if err := s.embedding.HealthCheck(ctx); err != nil {
			checks[ComponentEmbedding] = CheckError
			if status == Healthy {
				status = Degraded
			}
		} else {
			checks[ComponentEmbedding] = CheckOK
		}
	}

	r := Report{Status: status, Checks: checks}
	if s.places != nil && status != Unhealthy {
		if n, err := s.places.Count(ctx); err == nil {
			r.Places = &n
		}
	}
	return r
}
