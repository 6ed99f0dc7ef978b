package place

// Record is a place as returned by the details endpoint of the place source.
// Optional scalars are pointers so that an absent field is distinguishable from zero.
type Record struct {
	PlaceID          string            `json:"place_id"`
	Name             string            `json:"name"`
	FormattedAddress string            `json:"formatted_address"`
	Types            []string          `json:"types,omitempty"`
	OpeningHours     *OpeningHours     `json:"opening_hours,omitempty"`
	PriceLevel       *int              `json:"price_level,omitempty"`
	Rating           *float64          `json:"rating,omitempty"`
	UserRatingsTotal *int              `json:"user_ratings_total,omitempty"`
	Reviews          []Review          `json:"reviews,omitempty"`
	EditorialSummary *EditorialSummary `json:"editorial_summary,omitempty"`
	DineIn           *bool             `json:"dine_in,omitempty"`
	Delivery         *bool             `json:"delivery,omitempty"`
	Takeout          *bool             `json:"takeout,omitempty"`
}

// OpeningHours holds the human-readable weekly schedule.
type OpeningHours struct {
	WeekdayText []string `json:"weekday_text,omitempty"`
}

// Review is a single user review.
type Review struct {
	AuthorName string  `json:"author_name,omitempty"`
	Rating     float64 `json:"rating"`
	Text       string  `json:"text"`
}

// EditorialSummary is the provider-written description of a place.
type EditorialSummary struct {
	Overview string `json:"overview,omitempty"`
}

// Ref is a search hit: enough to decide whether details need fetching.
type Ref struct {
	ID   string
	Name string
}
