package attribute

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/graphia/graphia/internal/graphid"
)

// values backing a small categorical attribute used by both tests below.
var groupValues = map[int32]string{1: "alpha", 2: "common", 3: "common", 4: "common"}

func groupAttribute(t *testing.T) *Attribute {
	t.Helper()
	a := NewBuilder("Group", graphid.NodeKind, String).
		StringValueFn(func(id int32) string { return groupValues[id] }).
		SetFlag(FindShared).
		Build()
	a.RecomputeSharedValues([]int32{1, 2, 3, 4}, nil)
	return a
}

// TestAttribute_SharedValues_NaturalOrder asserts the exact sorted
// (value, count) histogram shape (spec §3, §4.2): cmp.Diff over the whole
// slice catches an off-by-one in either the value or the count that a
// single require.Equal on one field would miss.
func TestAttribute_SharedValues_NaturalOrder(t *testing.T) {
	a := groupAttribute(t)

	want := []SharedValue{
		{Value: "alpha", Count: 1},
		{Value: "common", Count: 3},
	}
	if diff := cmp.Diff(want, a.SharedValues()); diff != "" {
		t.Errorf("SharedValues() natural order mismatch (-want +got):\n%s", diff)
	}
}

// TestAttribute_SharedValues_ByDescendingFrequency asserts the
// assignByQuantity ordering (spec §4.3) reorders by count, descending,
// without altering the underlying (value, count) pairs themselves.
func TestAttribute_SharedValues_ByDescendingFrequency(t *testing.T) {
	a := groupAttribute(t)

	want := []SharedValue{
		{Value: "common", Count: 3},
		{Value: "alpha", Count: 1},
	}
	got := ByDescendingFrequency(a.SharedValues())
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ByDescendingFrequency() mismatch (-want +got):\n%s", diff)
	}

	// The natural-order slice backing the attribute itself is untouched.
	require.Equal(t, "alpha", a.SharedValues()[0].Value)
}
