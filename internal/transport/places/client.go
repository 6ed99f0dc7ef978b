// Package places is a Google Places (legacy web service) client: text search and details.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kailas-cloud/chatmaps/internal/domain"
	"github.com/kailas-cloud/chatmaps/internal/domain/place"
	"github.com/kailas-cloud/chatmaps/internal/metrics"
)

// DefaultBaseURL is the Places web service root.
const DefaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// detailFields is the field mask requested from the details endpoint.
var detailFields = []string{
	"place_id", "name", "formatted_address", "types", "rating", "user_ratings_total",
	"price_level", "opening_hours", "reviews", "editorial_summary",
	"dine_in", "delivery", "takeout",
}

const (
	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

// Config holds the places client settings.
type Config struct {
	APIKey  string
	BaseURL string
	// PerKeywordLimit caps the results kept per keyword; 0 = no cap.
	PerKeywordLimit int
	// RequestsPerSecond paces outbound calls; 0 = unlimited.
	RequestsPerSecond float64
	// PageTokenDelay is waited before following next_page_token (the token is not valid immediately).
	PageTokenDelay time.Duration
	HTTPClient     *http.Client
	Logger         *zap.Logger
}

// Client talks to the Places API.
type Client struct {
	apiKey          string
	baseURL         string
	perKeywordLimit int
	pageTokenDelay  time.Duration
	http            *http.Client
	limiter         *rate.Limiter
	logger          *zap.Logger
}

// NewClient creates a places client.
func NewClient(cfg *Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		apiKey:          cfg.APIKey,
		baseURL:         baseURL,
		perKeywordLimit: cfg.PerKeywordLimit,
		pageTokenDelay:  cfg.PageTokenDelay,
		http:            httpClient,
		limiter:         rate.NewLimiter(limit, 1),
		logger:          logger,
	}
}

type searchResponse struct {
	Status        string `json:"status"`
	ErrorMessage  string `json:"error_message"`
	NextPageToken string `json:"next_page_token"`
	Results       []struct {
		PlaceID string `json:"place_id"`
		Name    string `json:"name"`
	} `json:"results"`
}

type detailsResponse struct {
	Status       string       `json:"status"`
	ErrorMessage string       `json:"error_message"`
	Result       place.Record `json:"result"`
}

// SearchPlaces runs "<keyword> in <location>" for every keyword, follows pagination and
// returns refs deduplicated by place id in first-seen order.
func (c *Client) SearchPlaces(ctx context.Context, location string, keywords []string) ([]place.Ref, error) {
	seen := make(map[string]struct{})
	var refs []place.Ref

	for _, kw := range keywords {
		added, err := c.searchKeyword(ctx, kw+" in "+location, seen, &refs)
		if err != nil {
			return nil, fmt.Errorf("search %q: %w", kw, err)
		}
		c.logger.Debug("Keyword searched",
			zap.String("location", location),
			zap.String("keyword", kw),
			zap.Int("new_places", added),
		)
	}

	return refs, nil
}

func (c *Client) searchKeyword(
	ctx context.Context, query string, seen map[string]struct{}, refs *[]place.Ref,
) (int, error) {
	params := url.Values{}
	params.Set("query", query)

	added, kept := 0, 0
	for {
		var resp searchResponse
		if err := c.get(ctx, "textsearch", params, &resp); err != nil {
			return added, err
		}
		if resp.Status == statusZeroResults {
			return added, nil
		}
		if resp.Status != statusOK {
			return added, statusError(resp.Status, resp.ErrorMessage)
		}

		for _, r := range resp.Results {
			if c.perKeywordLimit > 0 && kept >= c.perKeywordLimit {
				return added, nil
			}
			kept++
			if r.PlaceID == "" {
				continue
			}
			if _, dup := seen[r.PlaceID]; dup {
				continue
			}
			seen[r.PlaceID] = struct{}{}
			*refs = append(*refs, place.Ref{ID: r.PlaceID, Name: r.Name})
			added++
		}

		if resp.NextPageToken == "" {
			return added, nil
		}
		if err := sleep(ctx, c.pageTokenDelay); err != nil {
			return added, fmt.Errorf("wait for page token: %w", err)
		}
		params = url.Values{}
		params.Set("pagetoken", resp.NextPageToken)
	}
}

// GetPlaceDetails fetches the full record for one place id.
func (c *Client) GetPlaceDetails(ctx context.Context, id string) (place.Record, error) {
	params := url.Values{}
	params.Set("place_id", id)
	params.Set("fields", strings.Join(detailFields, ","))

	var resp detailsResponse
	if err := c.get(ctx, "details", params, &resp); err != nil {
		return place.Record{}, fmt.Errorf("details %s: %w", id, err)
	}
	if resp.Status != statusOK {
		return place.Record{}, fmt.Errorf("details %s: %w", id, statusError(resp.Status, resp.ErrorMessage))
	}
	return resp.Result, nil
}

// get performs one paced GET against <base>/<endpoint>/json and decodes the body into out.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	params.Set("key", c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.baseURL+"/"+endpoint+"/json?"+params.Encode(), http.NoBody)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.PlacesRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		// url.Error embeds the full URL, including the key.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("%s request: %w: %w", endpoint, err, domain.ErrPlaceSource)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		metrics.PlacesRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("%s: HTTP %d: %w", endpoint, resp.StatusCode, domain.ErrPlaceSource)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		metrics.PlacesRequestsTotal.WithLabelValues(endpoint, "error").Inc()
		return fmt.Errorf("%s decode: %v: %w", endpoint, err, domain.ErrPlaceSource)
	}
	metrics.PlacesRequestsTotal.WithLabelValues(endpoint, "ok").Inc()
	return nil
}

func statusError(status, msg string) error {
	if msg != "" {
		return fmt.Errorf("API status %s: %s: %w", status, msg, domain.ErrPlaceSource)
	}
	return fmt.Errorf("API status %s: %w", status, domain.ErrPlaceSource)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
