package place

import (
	"encoding/json"
	"math"
	"strconv"
)

// Metadata field keys. The order of Keys is the output order of the reshaped record.
const (
	KeyName             = "name"
	KeyAddress          = "address"
	KeyTypes            = "types"
	KeyRating           = "rating"
	KeyUserRatingsTotal = "user_ratings_total"
	KeyPriceLevel       = "price_level"
	KeyOpeningHours     = "opening_hours"
	KeyReviews          = "reviews"
	KeyEditorialSummary = "editorial_summary"
	KeyDineIn           = "dine_in"
	KeyDelivery         = "delivery"
	KeyTakeout          = "takeout"
)

// Keys lists every metadata field in output order.
var Keys = []string{
	KeyName, KeyAddress, KeyTypes, KeyRating, KeyUserRatingsTotal, KeyPriceLevel,
	KeyOpeningHours, KeyReviews, KeyEditorialSummary, KeyDineIn, KeyDelivery, KeyTakeout,
}

var numericKeys = map[string]bool{
	KeyRating:           true,
	KeyUserRatingsTotal: true,
	KeyPriceLevel:       true,
}

// Metadata is the flat, fixed-shape description of a place stored next to its vector.
type Metadata struct {
	Name             Value
	Address          Value
	Types            Value
	Rating           Value
	UserRatingsTotal Value
	PriceLevel       Value
	OpeningHours     Value
	Reviews          Value
	EditorialSummary Value
	DineIn           Value
	Delivery         Value
	Takeout          Value
}

// Get returns the value for key and false for keys outside the schema.
func (m Metadata) Get(key string) (Value, bool) {
	switch key {
	case KeyName:
		return m.Name, true
	case KeyAddress:
		return m.Address, true
	case KeyTypes:
		return m.Types, true
	case KeyRating:
		return m.Rating, true
	case KeyUserRatingsTotal:
		return m.UserRatingsTotal, true
	case KeyPriceLevel:
		return m.PriceLevel, true
	case KeyOpeningHours:
		return m.OpeningHours, true
	case KeyReviews:
		return m.Reviews, true
	case KeyEditorialSummary:
		return m.EditorialSummary, true
	case KeyDineIn:
		return m.DineIn, true
	case KeyDelivery:
		return m.Delivery, true
	case KeyTakeout:
		return m.Takeout, true
	}
	return Value{}, false
}

func (m *Metadata) set(key string, v Value) {
	switch key {
	case KeyName:
		m.Name = v
	case KeyAddress:
		m.Address = v
	case KeyTypes:
		m.Types = v
	case KeyRating:
		m.Rating = v
	case KeyUserRatingsTotal:
		m.UserRatingsTotal = v
	case KeyPriceLevel:
		m.PriceLevel = v
	case KeyOpeningHours:
		m.OpeningHours = v
	case KeyReviews:
		m.Reviews = v
	case KeyEditorialSummary:
		m.EditorialSummary = v
	case KeyDineIn:
		m.DineIn = v
	case KeyDelivery:
		m.Delivery = v
	case KeyTakeout:
		m.Takeout = v
	}
}

// Fields flattens the metadata into string fields for storage.
func (m Metadata) Fields() map[string]string {
	out := make(map[string]string, len(Keys))
	for _, k := range Keys {
		v, _ := m.Get(k)
		out[k] = v.String()
	}
	return out
}

// MarshalJSON encodes the metadata as a flat object of primitives.
func (m Metadata) MarshalJSON() ([]byte, error) {
	out := make(map[string]Value, len(Keys))
	for _, k := range Keys {
		out[k], _ = m.Get(k)
	}
	return json.Marshal(out)
}

// MetadataFromFields reshapes stored fields into Metadata. Keys outside the schema are
// dropped; missing keys become "N/A"; numeric fields are parsed back into numbers.
func MetadataFromFields(fields map[string]string) Metadata {
	var m Metadata
	for _, k := range Keys {
		raw, ok := fields[k]
		if !ok {
			m.set(k, NA())
			continue
		}
		m.set(k, parseValue(k, raw))
	}
	return m
}

func parseValue(key, raw string) Value {
	if !numericKeys[key] {
		return StringValue(raw)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return StringValue(raw)
	}
	return NumberValue(f)
}
