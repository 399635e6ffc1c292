// Package ledger owns the membership payment ledger: the paid/unpaid
// state of every (fiscal year, member, month) cell, mutated in memory
// immediately and persisted as one whole collection after a quiet
// period, so a burst of rapid toggles costs a single store write.
package ledger

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"

	"clubledger/internal/core"
	"clubledger/internal/store"
)

// DefaultDebounce is the quiet period before a toggled ledger is
// written out.
const DefaultDebounce = 500 * time.Millisecond

// Key identifies one ledger cell. A structured key, not a concatenated
// string, so ids containing separators cannot collide.
type Key struct {
	FiscalYearID string
	MemberID     string
	Month        core.Month
}

// Ledger is safe for concurrent use. Persistence failures never roll
// back the in-memory state; the next successful flush reconverges the
// store.
type Ledger struct {
	store    store.Store
	debounce time.Duration

	mu    sync.Mutex
	cells map[Key]bool
	timer *time.Timer
}

// New creates a ledger flushing to st. A non-positive debounce falls
// back to DefaultDebounce.
func New(st store.Store, debounce time.Duration) *Ledger {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Ledger{
		store:    st,
		debounce: debounce,
		cells:    make(map[Key]bool),
	}
}

// Load replaces the in-memory ledger with the persisted collection.
// An absent collection loads as empty.
func (l *Ledger) Load(ctx context.Context) error {
	payments, err := store.GetCollection[core.MembershipPayment](ctx, l.store, store.ColPayments)
	if err != nil {
		return err
	}
	cells := make(map[Key]bool, len(payments))
	for _, p := range payments {
		cells[Key{p.FiscalYearID, p.MemberID, p.Month}] = p.Paid
	}
	l.mu.Lock()
	l.cells = cells
	l.mu.Unlock()
	return nil
}

// Toggle flips the cell's paid state and returns the new state. A cell
// with no record yet becomes paid: the first toggle records that dues
// were received. The write is debounced; memory changes immediately.
func (l *Ledger) Toggle(fiscalYearID, memberID string, month core.Month) bool {
	key := Key{fiscalYearID, memberID, month}

	l.mu.Lock()
	defer l.mu.Unlock()

	state, exists := l.cells[key]
	if exists {
		state = !state
	} else {
		state = true
	}
	l.cells[key] = state
	l.scheduleFlushLocked()
	return state
}

// IsPaid reports the cell's state; absence of a record means unpaid.
func (l *Ledger) IsPaid(fiscalYearID, memberID string, month core.Month) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.cells[Key{fiscalYearID, memberID, month}]
}

// PaidMonthCount counts the paid months of the member within the year's
// range.
func (l *Ledger) PaidMonthCount(year core.FiscalYear, memberID string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	count := 0
	for _, m := range year.Months() {
		if l.cells[Key{year.ID, memberID, m}] {
			count++
		}
	}
	return count
}

// UnpaidCountThroughMonth counts members with at least one unpaid month
// at or before ref within the year's range.
func (l *Ledger) UnpaidCountThroughMonth(year core.FiscalYear, members []core.Member, ref core.Month) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	count := 0
	for _, member := range members {
		if member.FiscalYearID != year.ID {
			continue
		}
		for _, m := range year.Months() {
			if ref.Before(m) {
				break
			}
			if !l.cells[Key{year.ID, member.ID, m}] {
				count++
				break
			}
		}
	}
	return count
}

// Snapshot returns the ledger as a sorted payment collection. This is
// both the persisted form and the input the report aggregations take.
func (l *Ledger) Snapshot() []core.MembershipPayment {
	l.mu.Lock()
	payments := make([]core.MembershipPayment, 0, len(l.cells))
	for k, paid := range l.cells {
		payments = append(payments, core.MembershipPayment{
			FiscalYearID: k.FiscalYearID,
			MemberID:     k.MemberID,
			Month:        k.Month,
			Paid:         paid,
		})
	}
	l.mu.Unlock()

	sort.Slice(payments, func(i, j int) bool {
		a, b := payments[i], payments[j]
		if a.FiscalYearID != b.FiscalYearID {
			return a.FiscalYearID < b.FiscalYearID
		}
		if a.MemberID != b.MemberID {
			return a.MemberID < b.MemberID
		}
		return a.Month < b.Month
	})
	return payments
}

// scheduleFlushLocked resets the debounce timer; each toggle pushes the
// write out by another quiet period. Callers hold l.mu.
func (l *Ledger) scheduleFlushLocked() {
	if l.timer != nil {
		l.timer.Stop()
	}
	l.timer = time.AfterFunc(l.debounce, func() {
		if err := l.Flush(context.Background()); err != nil {
			slog.Error("Debounced ledger flush failed; in-memory state retained",
				"error", err)
		}
	})
}

// Flush writes the current ledger to the store immediately, cancelling
// any pending debounced write. A toggle arriving while the write is in
// flight schedules a new flush, so the store always converges to the
// latest in-memory state.
func (l *Ledger) Flush(ctx context.Context) error {
	l.mu.Lock()
	if l.timer != nil {
		l.timer.Stop()
		l.timer = nil
	}
	l.mu.Unlock()

	return store.SetCollection(ctx, l.store, store.ColPayments, l.Snapshot())
}

// Close flushes any pending state; used on shutdown.
func (l *Ledger) Close(ctx context.Context) error {
	return l.Flush(ctx)
}
