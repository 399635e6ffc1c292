package core

import "testing"

func TestComputeActivityFees(t *testing.T) {
	tests := []struct {
		name          string
		distanceKm    float64
		rate          Money
		coachFee      Money
		etcFee        Money
		wantTransport Money
		wantTotal     Money
	}{
		{
			name:       "practice with transport",
			distanceKm: 15, rate: 20, coachFee: 3000, etcFee: 500,
			wantTransport: 300, wantTotal: 3800,
		},
		{
			name:       "no distance",
			distanceKm: 0, rate: 20, coachFee: 3000, etcFee: 0,
			wantTransport: 0, wantTotal: 3000,
		},
		{
			name:       "no rate configured",
			distanceKm: 15, rate: 0, coachFee: 3000, etcFee: 0,
			wantTransport: 0, wantTotal: 3000,
		},
		{
			name:       "everything unset",
			distanceKm: 0, rate: 0, coachFee: 0, etcFee: 0,
			wantTransport: 0, wantTotal: 0,
		},
		{
			name:       "fractional distance rounds to whole yen",
			distanceKm: 7.5, rate: 21, coachFee: 0, etcFee: 0,
			wantTransport: 158, wantTotal: 158,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeActivityFees(tt.distanceKm, tt.rate, tt.coachFee, tt.etcFee)
			if got.TransportCost != tt.wantTransport {
				t.Errorf("TransportCost = %d, want %d", got.TransportCost, tt.wantTransport)
			}
			if got.TotalFee != tt.wantTotal {
				t.Errorf("TotalFee = %d, want %d", got.TotalFee, tt.wantTotal)
			}
		})
	}
}

func TestComputeActivityFeesIdempotent(t *testing.T) {
	// Preview and save share this function; same inputs, same outputs.
	a := ComputeActivityFees(12.3, 25, 5000, 800)
	b := ComputeActivityFees(12.3, 25, 5000, 800)
	if a != b {
		t.Fatalf("two identical computations differ: %+v vs %+v", a, b)
	}
}

func TestDefaultCoachFee(t *testing.T) {
	user := &UserAccount{PracticeFee: 3000, MatchFee: 5000}
	if got := DefaultCoachFee(user, Practice); got != 3000 {
		t.Errorf("practice default = %d, want 3000", got)
	}
	if got := DefaultCoachFee(user, Match); got != 5000 {
		t.Errorf("match default = %d, want 5000", got)
	}
	if got := DefaultCoachFee(nil, Match); got != 0 {
		t.Errorf("nil user default = %d, want 0", got)
	}
}

func TestResolveCoachFee(t *testing.T) {
	user := &UserAccount{PracticeFee: 3000, MatchFee: 5000}

	tests := []struct {
		name    string
		prev    ActivityType
		next    ActivityType
		current Money
		want    Money
	}{
		{"untouched default follows type", Practice, Match, 3000, 5000},
		{"edited fee survives toggle", Practice, Match, 3500, 3500},
		{"untouched default back to practice", Match, Practice, 5000, 3000},
		{"same type keeps value", Practice, Practice, 3000, 3000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveCoachFee(user, tt.prev, tt.next, tt.current); got != tt.want {
				t.Errorf("ResolveCoachFee() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestDefaultDistance(t *testing.T) {
	staff := &StaffAssignment{VenueDistances: map[string]float64{"v1": 12.5}}
	if got := DefaultDistance(staff, "v1"); got != 12.5 {
		t.Errorf("mapped venue = %v, want 12.5", got)
	}
	if got := DefaultDistance(staff, "v2"); got != 0 {
		t.Errorf("unmapped venue = %v, want 0", got)
	}
	if got := DefaultDistance(staff, ""); got != 0 {
		t.Errorf("custom venue = %v, want 0", got)
	}
	if got := DefaultDistance(nil, "v1"); got != 0 {
		t.Errorf("nil staff = %v, want 0", got)
	}
}
