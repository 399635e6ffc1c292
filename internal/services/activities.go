package services

import (
	"context"
	"fmt"

	"clubledger/internal/core"
	"clubledger/internal/store"
)

// ListActivities returns the year's activities, optionally filtered by
// month (date prefix) and staff id.
func (s *ClubService) ListActivities(ctx context.Context, yearID string, month core.Month, staffID string) ([]core.Activity, error) {
	activities, err := store.GetCollection[core.Activity](ctx, s.store, store.ColActivities)
	if err != nil {
		return nil, err
	}
	var out []core.Activity
	for _, a := range activities {
		if yearID != "" && a.FiscalYearID != yearID {
			continue
		}
		if staffID != "" && a.StaffID != staffID {
			continue
		}
		if !month.MatchesDate(a.Date) {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

// deriveActivityFees fills in the derived fields of an activity before
// it is stored. Zero is the "unset" sentinel: a zero distance takes the
// staff member's venue distance, a zero coach fee takes the linked
// user's rate for the activity type (see core.Activity). Transport cost
// and total are always recomputed so a stored activity never violates
// totalFee = coachFee + transportCost + etcFee. On update, prev carries
// the stored record so a type change re-derives the coach fee only when
// it was never edited.
func (s *ClubService) deriveActivityFees(ctx context.Context, a *core.Activity, prev *core.Activity) error {
	staff, err := store.GetCollection[core.StaffAssignment](ctx, s.store, store.ColStaff)
	if err != nil {
		return err
	}
	var assignment *core.StaffAssignment
	for i := range staff {
		if staff[i].ID == a.StaffID {
			assignment = &staff[i]
			break
		}
	}
	if assignment == nil {
		return fmt.Errorf("staff %s: %w", a.StaffID, ErrNotFound)
	}

	var user *core.UserAccount
	if assignment.UserID != "" {
		users, err := s.ListUsers(ctx)
		if err != nil {
			return err
		}
		for i := range users {
			if users[i].ID == assignment.UserID {
				user = &users[i]
				break
			}
		}
	}

	if a.DistanceKm == 0 {
		a.DistanceKm = core.DefaultDistance(assignment, a.VenueID)
	}
	if prev != nil && prev.Type != a.Type {
		a.CoachFee = core.ResolveCoachFee(user, prev.Type, a.Type, a.CoachFee)
	}
	if a.CoachFee == 0 {
		a.CoachFee = core.DefaultCoachFee(user, a.Type)
	}
	var rate core.Money
	if user != nil {
		rate = user.TransportRatePerKm
	}
	fees := core.ComputeActivityFees(a.DistanceKm, rate, a.CoachFee, a.EtcFee)
	a.TransportCost = fees.TransportCost
	a.TotalFee = fees.TotalFee
	return nil
}

func (s *ClubService) AddActivity(ctx context.Context, a core.Activity) (core.Activity, error) {
	if _, err := s.GetFiscalYear(ctx, a.FiscalYearID); err != nil {
		return core.Activity{}, err
	}
	if err := s.deriveActivityFees(ctx, &a, nil); err != nil {
		return core.Activity{}, err
	}
	if err := a.Validate(); err != nil {
		return core.Activity{}, err
	}
	activities, err := store.GetCollection[core.Activity](ctx, s.store, store.ColActivities)
	if err != nil {
		return core.Activity{}, err
	}
	a.ID = s.nextID()
	activities = append(activities, a)
	if err := store.SetCollection(ctx, s.store, store.ColActivities, activities); err != nil {
		return core.Activity{}, err
	}
	return a, nil
}

func (s *ClubService) UpdateActivity(ctx context.Context, a core.Activity) (core.Activity, error) {
	activities, err := store.GetCollection[core.Activity](ctx, s.store, store.ColActivities)
	if err != nil {
		return core.Activity{}, err
	}
	var prev *core.Activity
	for i := range activities {
		if activities[i].ID == a.ID {
			prev = &activities[i]
			break
		}
	}
	if prev == nil {
		return core.Activity{}, fmt.Errorf("activity %s: %w", a.ID, ErrNotFound)
	}
	if err := s.deriveActivityFees(ctx, &a, prev); err != nil {
		return core.Activity{}, err
	}
	if err := a.Validate(); err != nil {
		return core.Activity{}, err
	}
	if !replaceByID(activities, a.ID, a) {
		return core.Activity{}, fmt.Errorf("activity %s: %w", a.ID, ErrNotFound)
	}
	if err := store.SetCollection(ctx, s.store, store.ColActivities, activities); err != nil {
		return core.Activity{}, err
	}
	return a, nil
}

func (s *ClubService) DeleteActivity(ctx context.Context, id string) error {
	return deleteByID[core.Activity](ctx, s.store, store.ColActivities, id)
}
