package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/chatmaps/internal/domain"
	"github.com/kailas-cloud/chatmaps/internal/domain/place"
	"github.com/kailas-cloud/chatmaps/internal/metrics"
)

// DefaultKeywords are the search terms combined with a location.
var DefaultKeywords = []string{
	"restaurant", "eatery", "cafe", "diner", "fast food", "bakery", "deli", "taqueria",
	"barbecue", "joint", "tea house", "bubble tea", "greek", "indian", "asian", "mexican",
	"pizza", "fine dining", "health food",
}

// DefaultConcurrency bounds parallel detail+embed work per run.
const DefaultConcurrency = 4

// Service runs search → dedup → details → build → embed → upsert.
type Service struct {
	source      PlaceSource
	index       Index
	embed       Embedder
	keywords    []string
	concurrency int
	force       bool
	logger      *zap.Logger
}

// New creates an ingestion service.
func New(source PlaceSource, index Index, embed Embedder, logger *zap.Logger) *Service {
	return &Service{
		source:      source,
		index:       index,
		embed:       embed,
		keywords:    DefaultKeywords,
		concurrency: DefaultConcurrency,
		logger:      logger,
	}
}

// WithKeywords replaces the search keywords. An empty list keeps the defaults.
func (s *Service) WithKeywords(keywords []string) *Service {
	if len(keywords) > 0 {
		s.keywords = keywords
	}
	return s
}

// WithConcurrency configures how many places are processed in parallel.
func (s *Service) WithConcurrency(n int) *Service {
	if n > 0 {
		s.concurrency = n
	}
	return s
}

// WithForce re-embeds places that are already stored.
func (s *Service) WithForce(force bool) *Service {
	s.force = force
	return s
}

// slot holds the outcome for one new place; each goroutine owns exactly one.
type slot struct {
	entry place.Entry
	// stored: details resolved the ref to a canonical id that is already indexed.
	stored bool
	err    error
}

// Ingest adds every place found for location that is not stored yet.
// Per-place failures are reported, not returned. The returned error covers failures
// that abort the run: search, listing stored ids, cancellation and the final upsert.
// On an upsert error the report is still returned.
func (s *Service) Ingest(ctx context.Context, location string) (Report, error) {
	start := time.Now()
	report, err := s.ingest(ctx, location)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.IngestRunsTotal.WithLabelValues(status).Inc()
	metrics.IngestRunDuration.Observe(time.Since(start).Seconds())
	metrics.IngestPlacesTotal.WithLabelValues("added").Add(float64(report.Added))
	metrics.IngestPlacesTotal.WithLabelValues("skipped").Add(float64(report.SkippedExisting))
	metrics.IngestPlacesTotal.WithLabelValues("failed").Add(float64(report.Failed))

	fields := []zap.Field{
		zap.String("location", location),
		zap.Int("found", report.Found),
		zap.Int("added", report.Added),
		zap.Int("skipped_existing", report.SkippedExisting),
		zap.Int("failed", report.Failed),
		zap.Duration("duration", time.Since(start)),
	}
	if err != nil {
		s.logger.Error("Ingestion failed", append(fields, zap.Error(err))...)
	} else {
		s.logger.Info("Ingestion completed", fields...)
	}

	return report, err
}

func (s *Service) ingest(ctx context.Context, location string) (Report, error) {
	report := Report{Location: location}

	refs, err := s.source.SearchPlaces(ctx, location, s.keywords)
	if err != nil {
		return report, fmt.Errorf("search places in %q: %w", location, err)
	}
	refs = uniqueRefs(refs)
	report.Found = len(refs)

	existing := map[string]struct{}{}
	if !s.force {
		existing, err = s.index.ListIDs(ctx)
		if err != nil {
			return report, fmt.Errorf("list stored ids: %w", storeErr(err))
		}
	}

	var fresh []place.Ref
	for _, ref := range refs {
		if ref.ID == "" {
			report.fail("", fmt.Errorf("%q: %w", ref.Name, domain.ErrMissingIdentifier))
			continue
		}
		if _, ok := existing[ref.ID]; ok {
			report.SkippedExisting++
			s.logger.Debug("Place already stored", zap.String("place_id", ref.ID))
			continue
		}
		fresh = append(fresh, ref)
	}

	slots := make([]slot, len(fresh))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, ref := range fresh {
		g.Go(func() error {
			slots[i] = s.process(ctx, ref.ID, existing)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return report, fmt.Errorf("ingest %q: %w", location, err)
	}

	entries := make([]place.Entry, 0, len(slots))
	batched := make(map[string]struct{}, len(slots))
	for i, sl := range slots {
		if sl.err != nil {
			report.fail(fresh[i].ID, sl.err)
			s.logger.Warn("Place not ingested", zap.String("place_id", fresh[i].ID), zap.Error(sl.err))
			continue
		}
		if _, dup := batched[sl.entry.ID]; sl.stored || dup {
			report.SkippedExisting++
			s.logger.Debug("Place already stored under its canonical id",
				zap.String("place_id", fresh[i].ID),
				zap.String("canonical_id", sl.entry.ID),
			)
			continue
		}
		batched[sl.entry.ID] = struct{}{}
		entries = append(entries, sl.entry)
	}

	if len(entries) == 0 {
		s.logger.Info("Nothing to upsert", zap.String("location", location))
		return report, nil
	}

	if err := s.index.Upsert(ctx, entries); err != nil {
		return report, fmt.Errorf("upsert %d places: %w", len(entries), storeErr(err))
	}
	report.Added = len(entries)

	return report, nil
}

// process fetches, builds and embeds one place. The entry is keyed by the id the details
// record carries, which may differ from the search ref id; a canonical id that is
// already stored is not embedded again. existing is only read here.
func (s *Service) process(ctx context.Context, id string, existing map[string]struct{}) slot {
	rec, err := s.source.GetPlaceDetails(ctx, id)
	if err != nil {
		return slot{err: fmt.Errorf("details: %w", err)}
	}
	doc, err := place.Build(rec)
	if err != nil {
		return slot{err: fmt.Errorf("build document: %w", err)}
	}
	if doc.ID != id {
		if _, ok := existing[doc.ID]; ok {
			return slot{entry: place.Entry{ID: doc.ID}, stored: true}
		}
	}
	res, err := s.embed.Embed(ctx, doc.Text)
	if err != nil {
		return slot{err: fmt.Errorf("embed: %w", err)}
	}
	return slot{entry: doc.Entry(res.Embedding)}
}

// IngestMany ingests locations one after another. A failed location does not stop the
// loop (only cancellation does); its error is joined into the returned error.
func (s *Service) IngestMany(ctx context.Context, locations []string) ([]Report, error) {
	reports := make([]Report, 0, len(locations))
	var errs []error
	for _, loc := range locations {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		report, err := s.Ingest(ctx, loc)
		reports = append(reports, report)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", loc, err))
		}
	}
	return reports, errors.Join(errs...)
}

func uniqueRefs(refs []place.Ref) []place.Ref {
	seen := make(map[string]struct{}, len(refs))
	out := refs[:0:0]
	for _, r := range refs {
		if r.ID != "" {
			if _, dup := seen[r.ID]; dup {
				continue
			}
			seen[r.ID] = struct{}{}
		}
		out = append(out, r)
	}
	return out
}

// storeErr marks index failures as ErrStoreUnavailable, except for dimension mismatches
// which are a configuration problem.
func storeErr(err error) error {
	if errors.Is(err, domain.ErrVectorDimMismatch) || errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrStoreUnavailable, err)
}
