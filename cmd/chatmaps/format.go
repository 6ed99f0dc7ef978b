package main

import (
	"fmt"
	"io"

	"github.com/kailas-cloud/chatmaps/internal/usecase/ingest"
	"github.com/kailas-cloud/chatmaps/internal/usecase/retrieval"
)

const reviewPreviewLen = 100

func printRecommendations(w io.Writer, query string, hits []retrieval.Hit) {
	fmt.Fprintf(w, "Top recommendations for the query: %s\n", query)
	for i, h := range hits {
		md := h.Metadata
		fmt.Fprintf(w, "%d. %s at %s\n", i+1, md.Name, md.Address)
		fmt.Fprintf(w, "   About Summary: %s\n", md.EditorialSummary)
		fmt.Fprintf(w, "   Types: %s\n", md.Types)
		fmt.Fprintf(w, "   Rating: %s (Total User Ratings: %s)\n", md.Rating, md.UserRatingsTotal)
		fmt.Fprintf(w, "   Price Level: %s\n", md.PriceLevel)
		fmt.Fprintf(w, "   Opening Hours: %s\n", md.OpeningHours)
		fmt.Fprintf(w, "   Dine-in: %s\n", md.DineIn)
		fmt.Fprintf(w, "   Delivery: %s\n", md.Delivery)
		fmt.Fprintf(w, "   Takeout: %s\n", md.Takeout)
		fmt.Fprintf(w, "   Reviews: %s\n\n", preview(md.Reviews.String(), reviewPreviewLen))
	}
}

// preview cuts s to n runes and marks the cut with "...".
func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func printReport(w io.Writer, r ingest.Report) {
	fmt.Fprintf(w, "%s: found %d, added %d, skipped %d, failed %d\n",
		r.Location, r.Found, r.Added, r.SkippedExisting, r.Failed)
	for _, f := range r.Failures {
		fmt.Fprintf(w, "  failed %s: %s\n", f.ID, f.Reason)
	}
}
