// Package services orchestrates the record collections: every mutation
// loads a whole collection from the store, modifies it in memory and
// rewrites it by name.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync/atomic"
	"time"

	"clubledger/internal/core"
	"clubledger/internal/report"
	"clubledger/internal/store"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrHasDependents blocks deletion of a record other records still
	// reference. Financial history never disappears as a side effect.
	ErrHasDependents = errors.New("record has dependent records")
)

// Publisher sends export events to the worker queue. Implementations
// are optional; a nil publisher turns exports into logged no-ops.
type Publisher interface {
	PublishYearExport(ctx context.Context, fiscalYearID string) error
}

// PaymentSource reports the live payment cells, including toggles the
// debounced ledger has not flushed yet.
type PaymentSource interface {
	Snapshot() []core.MembershipPayment
}

type ClubService struct {
	store    store.Store
	pub      Publisher
	payments PaymentSource
	seq      atomic.Int64
}

func NewClubService(st store.Store, pub Publisher) *ClubService {
	return &ClubService{store: st, pub: pub}
}

// UsePaymentSource routes payment dependency checks through src instead
// of the persisted collection. The server wires the payment ledger in
// here; without it a toggle still inside the debounce window would be
// invisible to the checks, and a delete could slip through before the
// flush lands.
func (s *ClubService) UsePaymentSource(src PaymentSource) {
	s.payments = src
}

// hasPaymentWhere reports whether any payment cell matches, preferring
// the live source over the persisted collection.
func (s *ClubService) hasPaymentWhere(ctx context.Context, match func(core.MembershipPayment) bool) (bool, error) {
	if s.payments != nil {
		for _, p := range s.payments.Snapshot() {
			if match(p) {
				return true, nil
			}
		}
		return false, nil
	}
	return hasAny[core.MembershipPayment](ctx, s.store, store.ColPayments, match)
}

// nextID issues millisecond-timestamp ids like the data set's existing
// records, with a sequence suffix so ids minted in the same millisecond
// stay unique.
func (s *ClubService) nextID() string {
	return strconv.FormatInt(time.Now().UnixMilli(), 10) + "-" + strconv.FormatInt(s.seq.Add(1), 10)
}

// Seed initializes every recognized collection to an empty array if
// absent and creates the default user accounts on an empty install.
func (s *ClubService) Seed(ctx context.Context) error {
	for _, name := range store.CollectionNames {
		doc, err := s.store.Get(ctx, name)
		if err != nil {
			return fmt.Errorf("seed %s: %w", name, err)
		}
		if doc == nil {
			if err := s.store.Set(ctx, name, []byte("[]")); err != nil {
				return fmt.Errorf("seed %s: %w", name, err)
			}
			slog.InfoContext(ctx, "Initialized empty collection", "collection", name)
		}
	}

	users, err := store.GetCollection[core.UserAccount](ctx, s.store, store.ColUsers)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return nil
	}
	defaults := []core.UserAccount{
		{ID: "1", Name: "会計太郎", Role: core.RoleAccountant},
		{ID: "2", Name: "指導花子", Role: core.RoleCoach, PracticeFee: 3000, MatchFee: 5000, TransportRatePerKm: 20},
		{ID: "3", Name: "練習次郎", Role: core.RoleTrainer, PracticeFee: 3000, MatchFee: 5000, TransportRatePerKm: 20},
	}
	if err := store.SetCollection(ctx, s.store, store.ColUsers, defaults); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Created default user accounts", "count", len(defaults))
	return nil
}

// ---- fiscal years ----

func (s *ClubService) ListFiscalYears(ctx context.Context) ([]core.FiscalYear, error) {
	return store.GetCollection[core.FiscalYear](ctx, s.store, store.ColFiscalYears)
}

func (s *ClubService) GetFiscalYear(ctx context.Context, id string) (core.FiscalYear, error) {
	years, err := s.ListFiscalYears(ctx)
	if err != nil {
		return core.FiscalYear{}, err
	}
	for _, y := range years {
		if y.ID == id {
			return y, nil
		}
	}
	return core.FiscalYear{}, fmt.Errorf("fiscal year %s: %w", id, ErrNotFound)
}

func (s *ClubService) AddFiscalYear(ctx context.Context, y core.FiscalYear) (core.FiscalYear, error) {
	if err := y.Validate(); err != nil {
		return core.FiscalYear{}, err
	}
	years, err := s.ListFiscalYears(ctx)
	if err != nil {
		return core.FiscalYear{}, err
	}
	y.ID = s.nextID()
	years = append(years, y)
	if err := store.SetCollection(ctx, s.store, store.ColFiscalYears, years); err != nil {
		return core.FiscalYear{}, err
	}
	return y, nil
}

func (s *ClubService) UpdateFiscalYear(ctx context.Context, y core.FiscalYear) (core.FiscalYear, error) {
	if err := y.Validate(); err != nil {
		return core.FiscalYear{}, err
	}
	years, err := s.ListFiscalYears(ctx)
	if err != nil {
		return core.FiscalYear{}, err
	}
	if !replaceByID(years, y.ID, y) {
		return core.FiscalYear{}, fmt.Errorf("fiscal year %s: %w", y.ID, ErrNotFound)
	}
	if err := store.SetCollection(ctx, s.store, store.ColFiscalYears, years); err != nil {
		return core.FiscalYear{}, err
	}
	return y, nil
}

// DeleteFiscalYear refuses while any year-scoped record still points at
// the year.
func (s *ClubService) DeleteFiscalYear(ctx context.Context, id string) error {
	for _, dep := range []struct {
		name string
		has  func(context.Context) (bool, error)
	}{
		{store.ColMembers, func(ctx context.Context) (bool, error) {
			return hasAny[core.Member](ctx, s.store, store.ColMembers, func(m core.Member) bool { return m.FiscalYearID == id })
		}},
		{store.ColStaff, func(ctx context.Context) (bool, error) {
			return hasAny[core.StaffAssignment](ctx, s.store, store.ColStaff, func(c core.StaffAssignment) bool { return c.FiscalYearID == id })
		}},
		{store.ColActivities, func(ctx context.Context) (bool, error) {
			return hasAny[core.Activity](ctx, s.store, store.ColActivities, func(a core.Activity) bool { return a.FiscalYearID == id })
		}},
		{store.ColIncomes, func(ctx context.Context) (bool, error) {
			return hasAny[core.FinanceRecord](ctx, s.store, store.ColIncomes, func(r core.FinanceRecord) bool { return r.FiscalYearID == id })
		}},
		{store.ColExpenses, func(ctx context.Context) (bool, error) {
			return hasAny[core.FinanceRecord](ctx, s.store, store.ColExpenses, func(r core.FinanceRecord) bool { return r.FiscalYearID == id })
		}},
		{store.ColPayments, func(ctx context.Context) (bool, error) {
			return s.hasPaymentWhere(ctx, func(p core.MembershipPayment) bool { return p.FiscalYearID == id })
		}},
	} {
		found, err := dep.has(ctx)
		if err != nil {
			return err
		}
		if found {
			return fmt.Errorf("fiscal year %s still referenced by %s: %w", id, dep.name, ErrHasDependents)
		}
	}
	return deleteByID[core.FiscalYear](ctx, s.store, store.ColFiscalYears, id)
}

// ---- members ----

// ListMembers returns the year's members, or every member when yearID
// is empty.
func (s *ClubService) ListMembers(ctx context.Context, yearID string) ([]core.Member, error) {
	members, err := store.GetCollection[core.Member](ctx, s.store, store.ColMembers)
	if err != nil {
		return nil, err
	}
	return filterByYear(members, yearID, func(m core.Member) string { return m.FiscalYearID }), nil
}

func (s *ClubService) AddMember(ctx context.Context, m core.Member) (core.Member, error) {
	if err := m.Validate(); err != nil {
		return core.Member{}, err
	}
	if _, err := s.GetFiscalYear(ctx, m.FiscalYearID); err != nil {
		return core.Member{}, err
	}
	members, err := store.GetCollection[core.Member](ctx, s.store, store.ColMembers)
	if err != nil {
		return core.Member{}, err
	}
	m.ID = s.nextID()
	members = append(members, m)
	if err := store.SetCollection(ctx, s.store, store.ColMembers, members); err != nil {
		return core.Member{}, err
	}
	return m, nil
}

func (s *ClubService) UpdateMember(ctx context.Context, m core.Member) (core.Member, error) {
	if err := m.Validate(); err != nil {
		return core.Member{}, err
	}
	members, err := store.GetCollection[core.Member](ctx, s.store, store.ColMembers)
	if err != nil {
		return core.Member{}, err
	}
	if !replaceByID(members, m.ID, m) {
		return core.Member{}, fmt.Errorf("member %s: %w", m.ID, ErrNotFound)
	}
	if err := store.SetCollection(ctx, s.store, store.ColMembers, members); err != nil {
		return core.Member{}, err
	}
	return m, nil
}

func (s *ClubService) DeleteMember(ctx context.Context, id string) error {
	found, err := s.hasPaymentWhere(ctx, func(p core.MembershipPayment) bool { return p.MemberID == id })
	if err != nil {
		return err
	}
	if found {
		return fmt.Errorf("member %s has payment records: %w", id, ErrHasDependents)
	}
	return deleteByID[core.Member](ctx, s.store, store.ColMembers, id)
}

// ---- staff assignments ----

func (s *ClubService) ListStaff(ctx context.Context, yearID string) ([]core.StaffAssignment, error) {
	staff, err := store.GetCollection[core.StaffAssignment](ctx, s.store, store.ColStaff)
	if err != nil {
		return nil, err
	}
	return filterByYear(staff, yearID, func(c core.StaffAssignment) string { return c.FiscalYearID }), nil
}

func (s *ClubService) AddStaff(ctx context.Context, c core.StaffAssignment) (core.StaffAssignment, error) {
	if err := c.Validate(); err != nil {
		return core.StaffAssignment{}, err
	}
	if _, err := s.GetFiscalYear(ctx, c.FiscalYearID); err != nil {
		return core.StaffAssignment{}, err
	}
	staff, err := store.GetCollection[core.StaffAssignment](ctx, s.store, store.ColStaff)
	if err != nil {
		return core.StaffAssignment{}, err
	}
	c.ID = s.nextID()
	staff = append(staff, c)
	if err := store.SetCollection(ctx, s.store, store.ColStaff, staff); err != nil {
		return core.StaffAssignment{}, err
	}
	return c, nil
}

func (s *ClubService) UpdateStaff(ctx context.Context, c core.StaffAssignment) (core.StaffAssignment, error) {
	if err := c.Validate(); err != nil {
		return core.StaffAssignment{}, err
	}
	staff, err := store.GetCollection[core.StaffAssignment](ctx, s.store, store.ColStaff)
	if err != nil {
		return core.StaffAssignment{}, err
	}
	if !replaceByID(staff, c.ID, c) {
		return core.StaffAssignment{}, fmt.Errorf("staff %s: %w", c.ID, ErrNotFound)
	}
	if err := store.SetCollection(ctx, s.store, store.ColStaff, staff); err != nil {
		return core.StaffAssignment{}, err
	}
	return c, nil
}

func (s *ClubService) DeleteStaff(ctx context.Context, id string) error {
	found, err := hasAny[core.Activity](ctx, s.store, store.ColActivities, func(a core.Activity) bool { return a.StaffID == id })
	if err != nil {
		return err
	}
	if found {
		return fmt.Errorf("staff %s has logged activities: %w", id, ErrHasDependents)
	}
	return deleteByID[core.StaffAssignment](ctx, s.store, store.ColStaff, id)
}

// ---- venues ----

func (s *ClubService) ListVenues(ctx context.Context) ([]core.Venue, error) {
	return store.GetCollection[core.Venue](ctx, s.store, store.ColVenues)
}

func (s *ClubService) AddVenue(ctx context.Context, v core.Venue) (core.Venue, error) {
	if err := v.Validate(); err != nil {
		return core.Venue{}, err
	}
	venues, err := s.ListVenues(ctx)
	if err != nil {
		return core.Venue{}, err
	}
	v.ID = s.nextID()
	venues = append(venues, v)
	if err := store.SetCollection(ctx, s.store, store.ColVenues, venues); err != nil {
		return core.Venue{}, err
	}
	return v, nil
}

func (s *ClubService) UpdateVenue(ctx context.Context, v core.Venue) (core.Venue, error) {
	if err := v.Validate(); err != nil {
		return core.Venue{}, err
	}
	venues, err := s.ListVenues(ctx)
	if err != nil {
		return core.Venue{}, err
	}
	if !replaceByID(venues, v.ID, v) {
		return core.Venue{}, fmt.Errorf("venue %s: %w", v.ID, ErrNotFound)
	}
	if err := store.SetCollection(ctx, s.store, store.ColVenues, venues); err != nil {
		return core.Venue{}, err
	}
	return v, nil
}

func (s *ClubService) DeleteVenue(ctx context.Context, id string) error {
	inActivities, err := hasAny[core.Activity](ctx, s.store, store.ColActivities, func(a core.Activity) bool { return a.VenueID == id })
	if err != nil {
		return err
	}
	inDistances, err := hasAny[core.StaffAssignment](ctx, s.store, store.ColStaff, func(c core.StaffAssignment) bool {
		_, ok := c.VenueDistances[id]
		return ok
	})
	if err != nil {
		return err
	}
	if inActivities || inDistances {
		return fmt.Errorf("venue %s is referenced: %w", id, ErrHasDependents)
	}
	return deleteByID[core.Venue](ctx, s.store, store.ColVenues, id)
}

// ---- categories ----

// ListCategories returns categories, optionally filtered to one entry
// type.
func (s *ClubService) ListCategories(ctx context.Context, typ core.EntryType) ([]core.Category, error) {
	categories, err := store.GetCollection[core.Category](ctx, s.store, store.ColCategories)
	if err != nil {
		return nil, err
	}
	if typ == "" {
		return categories, nil
	}
	var out []core.Category
	for _, c := range categories {
		if c.Type == typ {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *ClubService) AddCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	categories, err := s.ListCategories(ctx, "")
	if err != nil {
		return core.Category{}, err
	}
	c.ID = s.nextID()
	categories = append(categories, c)
	if err := store.SetCollection(ctx, s.store, store.ColCategories, categories); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

func (s *ClubService) UpdateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	if err := c.Validate(); err != nil {
		return core.Category{}, err
	}
	categories, err := s.ListCategories(ctx, "")
	if err != nil {
		return core.Category{}, err
	}
	if !replaceByID(categories, c.ID, c) {
		return core.Category{}, fmt.Errorf("category %s: %w", c.ID, ErrNotFound)
	}
	if err := store.SetCollection(ctx, s.store, store.ColCategories, categories); err != nil {
		return core.Category{}, err
	}
	return c, nil
}

// DeleteCategory always succeeds for existing categories: records that
// used it degrade to the uncategorized bucket in reports. Categories
// are labels, not money.
func (s *ClubService) DeleteCategory(ctx context.Context, id string) error {
	return deleteByID[core.Category](ctx, s.store, store.ColCategories, id)
}

// ---- incomes and expenses ----

func financeCollection(typ core.EntryType) string {
	if typ == core.Expense {
		return store.ColExpenses
	}
	return store.ColIncomes
}

// ListFinance returns the year's income or expense records, optionally
// month-filtered by date prefix.
func (s *ClubService) ListFinance(ctx context.Context, typ core.EntryType, yearID string, month core.Month) ([]core.FinanceRecord, error) {
	records, err := store.GetCollection[core.FinanceRecord](ctx, s.store, financeCollection(typ))
	if err != nil {
		return nil, err
	}
	var out []core.FinanceRecord
	for _, r := range records {
		if yearID != "" && r.FiscalYearID != yearID {
			continue
		}
		if !month.MatchesDate(r.Date) {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *ClubService) AddFinance(ctx context.Context, typ core.EntryType, r core.FinanceRecord) (core.FinanceRecord, error) {
	if err := r.Validate(); err != nil {
		return core.FinanceRecord{}, err
	}
	if _, err := s.GetFiscalYear(ctx, r.FiscalYearID); err != nil {
		return core.FinanceRecord{}, err
	}
	col := financeCollection(typ)
	records, err := store.GetCollection[core.FinanceRecord](ctx, s.store, col)
	if err != nil {
		return core.FinanceRecord{}, err
	}
	r.ID = s.nextID()
	records = append(records, r)
	if err := store.SetCollection(ctx, s.store, col, records); err != nil {
		return core.FinanceRecord{}, err
	}
	return r, nil
}

func (s *ClubService) UpdateFinance(ctx context.Context, typ core.EntryType, r core.FinanceRecord) (core.FinanceRecord, error) {
	if err := r.Validate(); err != nil {
		return core.FinanceRecord{}, err
	}
	col := financeCollection(typ)
	records, err := store.GetCollection[core.FinanceRecord](ctx, s.store, col)
	if err != nil {
		return core.FinanceRecord{}, err
	}
	if !replaceByID(records, r.ID, r) {
		return core.FinanceRecord{}, fmt.Errorf("%s record %s: %w", typ, r.ID, ErrNotFound)
	}
	if err := store.SetCollection(ctx, s.store, col, records); err != nil {
		return core.FinanceRecord{}, err
	}
	return r, nil
}

func (s *ClubService) DeleteFinance(ctx context.Context, typ core.EntryType, id string) error {
	return deleteByID[core.FinanceRecord](ctx, s.store, financeCollection(typ), id)
}

// ---- users ----

func (s *ClubService) ListUsers(ctx context.Context) ([]core.UserAccount, error) {
	return store.GetCollection[core.UserAccount](ctx, s.store, store.ColUsers)
}

func (s *ClubService) AddUser(ctx context.Context, u core.UserAccount) (core.UserAccount, error) {
	if err := u.Validate(); err != nil {
		return core.UserAccount{}, err
	}
	users, err := s.ListUsers(ctx)
	if err != nil {
		return core.UserAccount{}, err
	}
	u.ID = s.nextID()
	users = append(users, u)
	if err := store.SetCollection(ctx, s.store, store.ColUsers, users); err != nil {
		return core.UserAccount{}, err
	}
	return u, nil
}

func (s *ClubService) UpdateUser(ctx context.Context, u core.UserAccount) (core.UserAccount, error) {
	if err := u.Validate(); err != nil {
		return core.UserAccount{}, err
	}
	users, err := s.ListUsers(ctx)
	if err != nil {
		return core.UserAccount{}, err
	}
	if !replaceByID(users, u.ID, u) {
		return core.UserAccount{}, fmt.Errorf("user %s: %w", u.ID, ErrNotFound)
	}
	if err := store.SetCollection(ctx, s.store, store.ColUsers, users); err != nil {
		return core.UserAccount{}, err
	}
	return u, nil
}

// DeleteUser is allowed even when staff assignments link the account:
// summaries render "-" for the missing user. The rates are copied into
// activities at save time, so past compensation is unaffected.
func (s *ClubService) DeleteUser(ctx context.Context, id string) error {
	return deleteByID[core.UserAccount](ctx, s.store, store.ColUsers, id)
}

// ---- reports and export ----

// YearReport assembles the year-end settlement for the given fiscal
// year.
func (s *ClubService) YearReport(ctx context.Context, yearID string) (report.YearReport, error) {
	year, err := s.GetFiscalYear(ctx, yearID)
	if err != nil {
		return report.YearReport{}, err
	}
	incomes, err := s.ListFinance(ctx, core.Income, yearID, "")
	if err != nil {
		return report.YearReport{}, err
	}
	expenses, err := s.ListFinance(ctx, core.Expense, yearID, "")
	if err != nil {
		return report.YearReport{}, err
	}
	categories, err := s.ListCategories(ctx, "")
	if err != nil {
		return report.YearReport{}, err
	}
	return report.BuildYearReport(year, incomes, expenses, categories), nil
}

// RequestYearExport queues an asynchronous export of the year-end
// report. Publishing failures are logged, not returned: the editor is
// never blocked by the export pipeline.
func (s *ClubService) RequestYearExport(ctx context.Context, yearID string) error {
	if _, err := s.GetFiscalYear(ctx, yearID); err != nil {
		return err
	}
	if s.pub == nil {
		slog.WarnContext(ctx, "No publisher configured, skipping year export", "fiscal_year_id", yearID)
		return nil
	}
	if err := s.pub.PublishYearExport(ctx, yearID); err != nil {
		slog.ErrorContext(ctx, "Failed to publish year export", "fiscal_year_id", yearID, "error", err)
	}
	return nil
}

// ---- collection helpers ----

type identifiable interface {
	core.FiscalYear | core.Member | core.StaffAssignment | core.Venue |
		core.Category | core.FinanceRecord | core.UserAccount | core.Activity
}

func idOf[T identifiable](v T) string {
	switch r := any(v).(type) {
	case core.FiscalYear:
		return r.ID
	case core.Member:
		return r.ID
	case core.StaffAssignment:
		return r.ID
	case core.Venue:
		return r.ID
	case core.Category:
		return r.ID
	case core.FinanceRecord:
		return r.ID
	case core.UserAccount:
		return r.ID
	case core.Activity:
		return r.ID
	}
	return ""
}

func replaceByID[T identifiable](records []T, id string, v T) bool {
	for i := range records {
		if idOf(records[i]) == id {
			records[i] = v
			return true
		}
	}
	return false
}

func deleteByID[T identifiable](ctx context.Context, st store.Store, col, id string) error {
	records, err := store.GetCollection[T](ctx, st, col)
	if err != nil {
		return err
	}
	kept := records[:0]
	found := false
	for _, r := range records {
		if idOf(r) == id {
			found = true
			continue
		}
		kept = append(kept, r)
	}
	if !found {
		return fmt.Errorf("%s %s: %w", col, id, ErrNotFound)
	}
	return store.SetCollection(ctx, st, col, kept)
}

func hasAny[T any](ctx context.Context, st store.Store, col string, pred func(T) bool) (bool, error) {
	records, err := store.GetCollection[T](ctx, st, col)
	if err != nil {
		return false, err
	}
	for _, r := range records {
		if pred(r) {
			return true, nil
		}
	}
	return false, nil
}

func filterByYear[T any](records []T, yearID string, key func(T) string) []T {
	if yearID == "" {
		return records
	}
	var out []T
	for _, r := range records {
		if key(r) == yearID {
			out = append(out, r)
		}
	}
	return out
}
