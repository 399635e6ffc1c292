package store

import (
	"context"
	"testing"

	"clubledger/internal/core"
)

func TestMemoryAbsentKey(t *testing.T) {
	m := NewMemory()
	doc, err := m.Get(context.Background(), ColMembers)
	if err != nil {
		t.Fatalf("Get on absent key: %v", err)
	}
	if doc != nil {
		t.Fatalf("absent key returned %q, want nil", doc)
	}
}

func TestMemoryRoundTrip(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if err := m.Set(ctx, ColVenues, []byte(`[{"id":"1","name":"市民体育館"}]`)); err != nil {
		t.Fatalf("Set: %v", err)
	}
	doc, err := m.Get(ctx, ColVenues)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(doc) != `[{"id":"1","name":"市民体育館"}]` {
		t.Errorf("Get returned %s", doc)
	}

	// The returned slice is a copy; mutating it must not leak back.
	doc[0] = 'X'
	again, _ := m.Get(ctx, ColVenues)
	if again[0] != '[' {
		t.Error("stored document was mutated through the returned copy")
	}
}

func TestCollectionHelpers(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	// Absent collection decodes to nil, not an error.
	members, err := GetCollection[core.Member](ctx, m, ColMembers)
	if err != nil {
		t.Fatalf("GetCollection on absent: %v", err)
	}
	if members != nil {
		t.Fatalf("absent collection = %v, want nil", members)
	}

	in := []core.Member{
		{ID: "m1", FiscalYearID: "y1", Name: "山田", Grade: "3年", Fee: 5000},
		{ID: "m2", FiscalYearID: "y1", Name: "佐藤", Fee: 4000},
	}
	if err := SetCollection(ctx, m, ColMembers, in); err != nil {
		t.Fatalf("SetCollection: %v", err)
	}
	out, err := GetCollection[core.Member](ctx, m, ColMembers)
	if err != nil {
		t.Fatalf("GetCollection: %v", err)
	}
	if len(out) != 2 || out[0] != in[0] || out[1] != in[1] {
		t.Errorf("round trip mismatch: %+v", out)
	}

	// A nil slice persists as an empty array.
	if err := SetCollection[core.Member](ctx, m, ColMembers, nil); err != nil {
		t.Fatalf("SetCollection(nil): %v", err)
	}
	doc, _ := m.Get(ctx, ColMembers)
	if string(doc) != "[]" {
		t.Errorf("nil slice stored as %s, want []", doc)
	}
}
