// Package store is the persistence boundary: a named-collection store
// holding each record collection as one JSON array document. There are
// no partial updates; every mutation reads, modifies and rewrites a
// whole collection by name.
package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Recognized collection names. They mirror the storage keys of the
// original bookkeeping data, so an existing data set loads as-is.
const (
	ColFiscalYears = "fiscalYears"
	ColMembers     = "members"
	ColStaff       = "coaches"
	ColVenues      = "venues"
	ColCategories  = "categories"
	ColIncomes     = "incomes"
	ColExpenses    = "expenses"
	ColPayments    = "membershipPayments"
	ColActivities  = "activities"
	ColUsers       = "users"
)

// CollectionNames lists every collection the service initializes on
// first start.
var CollectionNames = []string{
	ColFiscalYears, ColMembers, ColStaff, ColVenues, ColCategories,
	ColIncomes, ColExpenses, ColPayments, ColActivities, ColUsers,
}

// Store is the outbound port. Get returns the raw JSON array for a
// collection, or nil when the key was never written — callers treat
// absent identically to empty.
type Store interface {
	Get(ctx context.Context, name string) ([]byte, error)
	Set(ctx context.Context, name string, doc []byte) error
	Close() error
}

// GetCollection loads and decodes a whole collection. An absent or
// empty document yields a nil slice, never an error.
func GetCollection[T any](ctx context.Context, s Store, name string) ([]T, error) {
	doc, err := s.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("get collection %s: %w", name, err)
	}
	if len(doc) == 0 {
		return nil, nil
	}
	var records []T
	if err := json.Unmarshal(doc, &records); err != nil {
		return nil, fmt.Errorf("decode collection %s: %w", name, err)
	}
	return records, nil
}

// SetCollection encodes and rewrites a whole collection. A nil slice is
// stored as an empty array so a later Get round-trips cleanly.
func SetCollection[T any](ctx context.Context, s Store, name string, records []T) error {
	if records == nil {
		records = []T{}
	}
	doc, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode collection %s: %w", name, err)
	}
	if err := s.Set(ctx, name, doc); err != nil {
		return fmt.Errorf("set collection %s: %w", name, err)
	}
	return nil
}
