package core

import "math"

// ActivityFees is the derived part of an activity's compensation.
type ActivityFees struct {
	TransportCost Money
	TotalFee      Money
}

// ComputeActivityFees derives transport cost and total fee from the raw
// inputs. Every term defaults to zero when unset, so the function is
// total: no combination of inputs errors. It is called both for the live
// preview and at save time; identical inputs always yield identical
// results.
func ComputeActivityFees(distanceKm float64, transportRatePerKm, coachFee, etcFee Money) ActivityFees {
	var transport Money
	if distanceKm > 0 && transportRatePerKm > 0 {
		transport = Money(math.Round(distanceKm * float64(transportRatePerKm)))
	}
	return ActivityFees{
		TransportCost: transport,
		TotalFee:      coachFee + transport + etcFee,
	}
}

// DefaultCoachFee returns the user's configured rate for the activity
// type: practice fee for practices, match fee for matches. A nil user
// defaults to zero.
func DefaultCoachFee(u *UserAccount, t ActivityType) Money {
	if u == nil {
		return 0
	}
	if t == Match {
		return u.MatchFee
	}
	return u.PracticeFee
}

// ResolveCoachFee picks the coach fee after the activity type changed
// from prev to next. The default for the new type is applied only when
// the current fee still equals the old type's default, so a manually
// edited fee survives the toggle.
func ResolveCoachFee(u *UserAccount, prev, next ActivityType, current Money) Money {
	if current == DefaultCoachFee(u, prev) {
		return DefaultCoachFee(u, next)
	}
	return current
}

// DefaultDistance returns the staff member's configured distance for the
// venue, or zero when the venue is custom or unmapped (manual entry).
func DefaultDistance(s *StaffAssignment, venueID string) float64 {
	if s == nil || venueID == "" {
		return 0
	}
	return s.VenueDistances[venueID]
}
