package ingest

// Failure is one place that could not be ingested.
type Failure struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Report summarizes one ingestion run.
type Report struct {
	Location        string    `json:"location"`
	Found           int       `json:"found"`
	Added           int       `json:"added"`
	SkippedExisting int       `json:"skipped_existing"`
	Failed          int       `json:"failed"`
	Failures        []Failure `json:"failures,omitempty"`
}

func (r *Report) fail(id string, err error) {
	r.Failed++
	r.Failures = append(r.Failures, Failure{ID: id, Reason: err.Error()})
}
