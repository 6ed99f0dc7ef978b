package place

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/kailas-cloud/chatmaps/internal/domain"
)

// Document is the embedding input derived from a Record.
type Document struct {
	ID       string
	Text     string
	Metadata Metadata
}

// Entry is a Document with its vector, ready for the index.
type Entry struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata Metadata
}

// Match is a raw nearest-neighbor row returned by an index.
type Match struct {
	ID     string
	Score  float64
	Fields map[string]string
}

// Entry attaches a vector to the document.
func (d Document) Entry(vector []float32) Entry {
	return Entry{ID: d.ID, Vector: vector, Text: d.Text, Metadata: d.Metadata}
}

// Build derives the document text, metadata and id from a record.
// Text renders missing fields as empty strings; metadata renders them as "N/A".
func Build(rec Record) (Document, error) {
	if strings.TrimSpace(rec.PlaceID) == "" {
		return Document{}, fmt.Errorf("build %q: %w", rec.Name, domain.ErrMissingIdentifier)
	}

	types := strings.Join(rec.Types, ", ")
	hours := renderHours(rec.OpeningHours)
	reviews := renderReviews(rec.Reviews)

	var b strings.Builder
	line := func(label, value string) {
		b.WriteString(label)
		b.WriteString(": ")
		b.WriteString(value)
		b.WriteByte('\n')
	}
	line("Name", rec.Name)
	line("Address", rec.FormattedAddress)
	line("Types", types)
	line("Number of ratings", optInt(rec.UserRatingsTotal))
	line("Opening hours", hours)
	line("Reviews", reviews)
	line("Price Level", optInt(rec.PriceLevel))

	meta := Metadata{
		Name:             orNA(rec.Name),
		Address:          orNA(rec.FormattedAddress),
		Types:            orNA(types),
		Rating:           numOrNA(rec.Rating),
		UserRatingsTotal: intOrNA(rec.UserRatingsTotal),
		PriceLevel:       intOrNA(rec.PriceLevel),
		OpeningHours:     orNA(hours),
		Reviews:          orNA(reviews),
		EditorialSummary: NA(),
		DineIn:           boolOrNA(rec.DineIn),
		Delivery:         boolOrNA(rec.Delivery),
		Takeout:          boolOrNA(rec.Takeout),
	}
	if rec.EditorialSummary != nil {
		meta.EditorialSummary = orNA(rec.EditorialSummary.Overview)
	}

	return Document{
		ID:       rec.PlaceID,
		Text:     strings.TrimSuffix(b.String(), "\n"),
		Metadata: meta,
	}, nil
}

func renderHours(h *OpeningHours) string {
	if h == nil {
		return ""
	}
	return strings.Join(h.WeekdayText, ", ")
}

var newlines = strings.NewReplacer("\n", " ", "\r", " ")

func renderReviews(reviews []Review) string {
	if len(reviews) == 0 {
		return ""
	}
	parts := make([]string, len(reviews))
	for i, r := range reviews {
		parts[i] = "(" + strconv.FormatFloat(r.Rating, 'f', -1, 64) + " stars): " + r.Text
	}
	return newlines.Replace(strings.Join(parts, "; "))
}

func optInt(p *int) string {
	if p == nil {
		return ""
	}
	return strconv.Itoa(*p)
}

func orNA(s string) Value {
	if s == "" {
		return NA()
	}
	return StringValue(s)
}

func numOrNA(p *float64) Value {
	if p == nil {
		return NA()
	}
	return NumberValue(*p)
}

func intOrNA(p *int) Value {
	if p == nil {
		return NA()
	}
	return NumberValue(float64(*p))
}

func boolOrNA(p *bool) Value {
	if p == nil {
		return NA()
	}
	return StringValue(strconv.FormatBool(*p))
}
