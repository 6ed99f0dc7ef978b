package place

import (
	"encoding/json"
	"testing"
)

func TestMetadata_JSONIsFlatPrimitives(t *testing.T) {
	doc, err := Build(fullRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	raw, err := json.Marshal(doc.Metadata)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(decoded) != len(Keys) {
		t.Fatalf("expected %d keys, got %d: %v", len(Keys), len(decoded), decoded)
	}
	for k, v := range decoded {
		switch v.(type) {
		case string, float64:
		default:
			t.Errorf("%s has non-primitive value %T", k, v)
		}
	}
	if decoded[KeyRating] != 4.5 {
		t.Errorf("rating = %v, want number 4.5", decoded[KeyRating])
	}
}

func TestMetadataFromFields_Reshape(t *testing.T) {
	fields := map[string]string{
		KeyName:       "Blue Door Cafe",
		KeyRating:     "4.5",
		KeyPriceLevel: "N/A",
		"__content":   "Name: Blue Door Cafe",
		"internal":    "x",
	}

	m := MetadataFromFields(fields)

	if m.Name.String() != "Blue Door Cafe" {
		t.Errorf("name = %q", m.Name.String())
	}
	if f, ok := m.Rating.Float(); !ok || f != 4.5 {
		t.Errorf("rating = %v, want 4.5", m.Rating)
	}
	if !m.PriceLevel.IsNA() {
		t.Errorf("price_level = %v, want N/A", m.PriceLevel)
	}
	if !m.Takeout.IsNA() {
		t.Errorf("missing takeout should be N/A, got %v", m.Takeout)
	}

	out := m.Fields()
	if _, ok := out["__content"]; ok {
		t.Error("unknown keys must be dropped")
	}
	if len(out) != len(Keys) {
		t.Errorf("expected %d fields, got %d", len(Keys), len(out))
	}
}

func TestMetadataFromFields_StoredRoundTrip(t *testing.T) {
	doc, err := Build(fullRecord())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	back := MetadataFromFields(doc.Metadata.Fields())
	if back != doc.Metadata {
		t.Errorf("metadata drifted through storage:\n got %+v\nwant %+v", back, doc.Metadata)
	}
}

func TestMetadata_GetUnknown(t *testing.T) {
	var m Metadata
	if _, ok := m.Get("website"); ok {
		t.Error("expected unknown key to be rejected")
	}
}

func TestValue_String(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{NumberValue(4), "4"},
		{NumberValue(4.25), "4.25"},
		{StringValue("cafe"), "cafe"},
		{NA(), "N/A"},
	}
	for _, tt := range tests {
		if got := tt.v.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}
