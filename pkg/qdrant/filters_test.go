package qdrant

import (
	"errors"
	"testing"
	"time"

	qdrant "github.com/qdrant/go-client/qdrant"
)

func TestBuildFilter_NilFilterSet(t *testing.T) {
	result := buildFilter(nil)
	if result != nil {
		t.Errorf("expected nil, got %v", result)
	}
}

func TestBuildFilter_EmptyFilterSet(t *testing.T) {
	filters := &FilterSet{}
	result := buildFilter(filters)
	if result != nil {
		t.Errorf("expected nil, got %v", result)
	}
}

func TestBuildFilter_EmptyConditionSet(t *testing.T) {
	filters := &FilterSet{
		Must: &ConditionSet{
			Conditions: []FilterCondition{},
		},
	}
	result := buildFilter(filters)
	if result != nil {
		t.Errorf("expected nil, got %v", result)
	}
}

func TestBuildFilter_MustWithTextCondition(t *testing.T) {
	filters := &FilterSet{
		Must: &ConditionSet{
			Conditions: []FilterCondition{
				TextCondition{Key: "category", Value: "Electronics"},
			},
		},
	}
	result := buildFilter(filters)

	if result == nil {
		t.Fatal("expected filter, got nil")
	}
	if len(result.Must) != 1 {
		t.Errorf("expected 1 Must condition, got %d", len(result.Must))
	}
	if len(result.Should) != 0 {
		t.Errorf("expected 0 Should conditions, got %d", len(result.Should))
	}
	if len(result.MustNot) != 0 {
		t.Errorf("expected 0 MustNot conditions, got %d", len(result.MustNot))
	}
}

func TestBuildFilter_MixedConditionTypes(t *testing.T) {
	// category = "Home" AND in_stock = true AND priority = 1
	filters := &FilterSet{
		Must: &ConditionSet{
			Conditions: []FilterCondition{
				TextCondition{Key: "category", Value: "Home"},
				BoolCondition{Key: "in_stock", Value: true},
				IntCondition{Key: "priority", Value: 1},
			},
		},
	}
	result := buildFilter(filters)

	if result == nil {
		t.Fatal("expected filter, got nil")
	}
	if len(result.Must) != 3 {
		t.Errorf("expected 3 Must conditions, got %d", len(result.Must))
	}
}

func TestBuildFilter_TimeRangeCondition(t *testing.T) {
	since := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	filters := &FilterSet{
		Must: &ConditionSet{
			Conditions: []FilterCondition{
				TimeRangeCondition{Key: "ingested_at", Value: TimeRange{Gte: &since}},
			},
		},
	}
	result := buildFilter(filters)

	if result == nil {
		t.Fatal("expected filter, got nil")
	}
	if len(result.Must) != 1 {
		t.Errorf("expected 1 Must condition, got %d", len(result.Must))
	}
}

func TestBuildFilter_EmptyTimeRangeDropped(t *testing.T) {
	filters := &FilterSet{
		Must: &ConditionSet{
			Conditions: []FilterCondition{
				TimeRangeCondition{Key: "ingested_at", Value: TimeRange{}},
			},
		},
	}
	result := buildFilter(filters)
	if result != nil {
		t.Errorf("expected nil for empty time range, got %v", result)
	}
}

func TestCategoryFilter_Empty(t *testing.T) {
	if categoryFilter("") != nil {
		t.Error("expected nil filter for empty category")
	}
}

func TestCategoryFilter_ExactMatch(t *testing.T) {
	result := buildFilter(categoryFilter("Electronics"))

	if result == nil {
		t.Fatal("expected filter, got nil")
	}
	if len(result.Must) != 1 {
		t.Fatalf("expected 1 Must condition, got %d", len(result.Must))
	}
}

func TestRecoverID_PrefersOriginalID(t *testing.T) {
	payload := map[string]any{"original_id": "product_007"}
	id, err := recoverID(qdrant.NewIDNum(7), payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "product_007" {
		t.Errorf("expected product_007, got %q", id)
	}
}

func TestRecoverID_FallsBackToNumericID(t *testing.T) {
	id, err := recoverID(qdrant.NewIDNum(42), map[string]any{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "42" {
		t.Errorf("expected raw numeric id \"42\", got %q", id)
	}
}

func TestRecoverID_EmptyOriginalIDIgnored(t *testing.T) {
	payload := map[string]any{"original_id": ""}
	id, err := recoverID(qdrant.NewIDNum(9), payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "9" {
		t.Errorf("expected fallback to \"9\", got %q", id)
	}
}

func TestConvertPayload_RoundTrip(t *testing.T) {
	payload := map[string]any{
		"name":     "Red Mug",
		"price":    9.99,
		"rating":   int64(4),
		"in_stock": true,
	}

	converted := convertPayload(qdrant.NewValueMap(payload))

	if converted["name"] != "Red Mug" {
		t.Errorf("name: got %v", converted["name"])
	}
	if converted["price"] != 9.99 {
		t.Errorf("price: got %v", converted["price"])
	}
	if converted["rating"] != int64(4) {
		t.Errorf("rating: got %v", converted["rating"])
	}
	if converted["in_stock"] != true {
		t.Errorf("in_stock: got %v", converted["in_stock"])
	}
}

func TestIsAlreadyExists(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{errors.New("collection `product_images` already exists"), true},
		{errors.New("ALREADY EXISTS"), true},
		{errors.New("File exists (os error 17)"), true},
		{errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		if got := isAlreadyExists(tt.err); got != tt.want {
			t.Errorf("isAlreadyExists(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestValidateSearchInput(t *testing.T) {
	vec := []float32{0.1, 0.2}

	if err := validateSearchInput("", vec, 5); err == nil {
		t.Error("expected error for empty collection")
	}
	if err := validateSearchInput("products", nil, 5); err == nil {
		t.Error("expected error for empty vector")
	}
	if err := validateSearchInput("products", vec, 0); err == nil {
		t.Error("expected error for topK = 0")
	}
	if err := validateSearchInput("products", vec, 5); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
