package qdrant

import (
	"time"

	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// FilterCondition is the interface for all filter conditions.
type FilterCondition interface {
	ToQdrantCondition() []*qdrant.Condition
}

// MatchCondition matches a payload field against an exact value.
type MatchCondition[T comparable] struct {
	Key   string
	Value T
}

func (c MatchCondition[T]) ToQdrantCondition() []*qdrant.Condition {
	switch v := any(c.Value).(type) {
	case string:
		return []*qdrant.Condition{qdrant.NewMatch(c.Key, v)}
	case bool:
		return []*qdrant.Condition{qdrant.NewMatchBool(c.Key, v)}
	case int64:
		return []*qdrant.Condition{qdrant.NewMatchInt(c.Key, v)}
	default:
		// Unsupported type
		return nil
	}
}

type TextCondition = MatchCondition[string]
type BoolCondition = MatchCondition[bool]
type IntCondition = MatchCondition[int64]

// TimeRange represents a time-based filter condition.
type TimeRange struct {
	Gt  *time.Time // Greater than this time
	Gte *time.Time // Greater than or equal to this time
	Lt  *time.Time // Less than this time
	Lte *time.Time // Less than or equal to this time
}

// TimeRangeCondition filters a datetime payload field to a range.
type TimeRangeCondition struct {
	Key   string
	Value TimeRange
}

func (c TimeRangeCondition) ToQdrantCondition() []*qdrant.Condition {
	dateRange := &qdrant.DatetimeRange{
		Gt:  toTimestamp(c.Value.Gt),
		Gte: toTimestamp(c.Value.Gte),
		Lt:  toTimestamp(c.Value.Lt),
		Lte: toTimestamp(c.Value.Lte),
	}

	if dateRange.Gt == nil && dateRange.Gte == nil && dateRange.Lt == nil && dateRange.Lte == nil {
		return nil
	}

	return []*qdrant.Condition{qdrant.NewDatetimeRange(c.Key, dateRange)}
}

// ConditionSet holds conditions for a single clause.
type ConditionSet struct {
	Conditions []FilterCondition
}

// FilterSet supports Must (AND), Should (OR), and MustNot (NOT) clauses.
//
// Example:
//
//	filters := &FilterSet{
//	    Must: &ConditionSet{
//	        Conditions: []FilterCondition{
//	            TextCondition{Key: "category", Value: "Electronics"},
//	        },
//	    },
//	}
type FilterSet struct {
	Must    *ConditionSet // AND - all conditions must match
	Should  *ConditionSet // OR - at least one condition must match
	MustNot *ConditionSet // NOT - none of the conditions should match
}

// categoryFilter builds the exact-match category restriction used by product
// search. Returns nil for the empty category (no restriction).
func categoryFilter(category string) *FilterSet {
	if category == "" {
		return nil
	}
	return &FilterSet{
		Must: &ConditionSet{
			Conditions: []FilterCondition{
				TextCondition{Key: "category", Value: category},
			},
		},
	}
}

// buildFilter constructs a Qdrant filter from a FilterSet.
func buildFilter(filters *FilterSet) *qdrant.Filter {
	if filters == nil {
		return nil
	}

	filter := &qdrant.Filter{}

	if filters.Must != nil {
		filter.Must = buildConditions(filters.Must)
	}

	if filters.Should != nil {
		filter.Should = buildConditions(filters.Should)
	}

	if filters.MustNot != nil {
		filter.MustNot = buildConditions(filters.MustNot)
	}

	// Return nil if no conditions were added
	if len(filter.Must) == 0 && len(filter.Should) == 0 && len(filter.MustNot) == 0 {
		return nil
	}

	return filter
}

// buildConditions converts a ConditionSet to Qdrant conditions.
func buildConditions(cs *ConditionSet) []*qdrant.Condition {
	if cs == nil {
		return nil
	}

	var conditions []*qdrant.Condition
	for _, c := range cs.Conditions {
		conditions = append(conditions, c.ToQdrantCondition()...)
	}
	return conditions
}

// toTimestamp converts a *time.Time to *timestamppb.Timestamp (nil-safe).
func toTimestamp(t *time.Time) *timestamppb.Timestamp {
	if t == nil {
		return nil
	}
	return timestamppb.New(*t)
}
