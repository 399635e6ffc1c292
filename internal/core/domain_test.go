package core

import (
	"errors"
	"testing"
)

func TestFiscalYearValidate(t *testing.T) {
	tests := []struct {
		name    string
		year    FiscalYear
		wantErr error
	}{
		{"valid", FiscalYear{Name: "2024年度", StartMonth: "2024-04", EndMonth: "2025-03"}, nil},
		{"single month year", FiscalYear{Name: "stub", StartMonth: "2024-04", EndMonth: "2024-04"}, nil},
		{"empty name", FiscalYear{StartMonth: "2024-04", EndMonth: "2025-03"}, ErrEmptyName},
		{"bad start month", FiscalYear{Name: "x", StartMonth: "2024-4", EndMonth: "2025-03"}, ErrInvalidMonth},
		{"reversed months", FiscalYear{Name: "x", StartMonth: "2025-03", EndMonth: "2024-04"}, ErrMonthOrder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.year.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestMemberValidate(t *testing.T) {
	if err := (Member{Name: "山田", Fee: 5000}).Validate(); err != nil {
		t.Errorf("valid member: %v", err)
	}
	if err := (Member{Name: "山田", Fee: -1}).Validate(); !errors.Is(err, ErrNegativeAmount) {
		t.Errorf("negative fee: got %v", err)
	}
	if err := (Member{Fee: 0}).Validate(); !errors.Is(err, ErrEmptyName) {
		t.Errorf("empty name: got %v", err)
	}
}

func TestStaffAssignmentValidate(t *testing.T) {
	ok := StaffAssignment{Name: "コーチ", VenueDistances: map[string]float64{"v1": 10}}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid staff: %v", err)
	}
	bad := StaffAssignment{Name: "コーチ", VenueDistances: map[string]float64{"v1": -2}}
	if err := bad.Validate(); !errors.Is(err, ErrNegativeDistance) {
		t.Errorf("negative distance: got %v", err)
	}
}

func TestActivityValidate(t *testing.T) {
	ok := Activity{Type: Practice, DistanceKm: 15, CoachFee: 3000, TransportCost: 300, EtcFee: 500, TotalFee: 3800}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid activity: %v", err)
	}
	if err := (Activity{Type: "scrimmage"}).Validate(); !errors.Is(err, ErrInvalidType) {
		t.Errorf("bad type: got %v", err)
	}
	if err := (Activity{Type: Match, DistanceKm: -1}).Validate(); !errors.Is(err, ErrNegativeDistance) {
		t.Errorf("negative distance: got %v", err)
	}
}

func TestCategoryValidate(t *testing.T) {
	if err := (Category{Name: "会費", Type: Income}).Validate(); err != nil {
		t.Errorf("valid category: %v", err)
	}
	if err := (Category{Name: "x", Type: "transfer"}).Validate(); !errors.Is(err, ErrInvalidType) {
		t.Errorf("bad type: got %v", err)
	}
}

func TestFinanceRecordValidate(t *testing.T) {
	if err := (FinanceRecord{Amount: 0}).Validate(); err != nil {
		t.Errorf("zero amount should be allowed: %v", err)
	}
	if err := (FinanceRecord{Amount: -100}).Validate(); !errors.Is(err, ErrNegativeAmount) {
		t.Errorf("negative amount: got %v", err)
	}
}

func TestUserAccountValidate(t *testing.T) {
	ok := UserAccount{Name: "指導花子", Role: RoleCoach, PracticeFee: 3000, MatchFee: 5000, TransportRatePerKm: 20}
	if err := ok.Validate(); err != nil {
		t.Errorf("valid user: %v", err)
	}
	if err := (UserAccount{Name: "x", Role: "admin"}).Validate(); !errors.Is(err, ErrInvalidType) {
		t.Errorf("bad role: got %v", err)
	}
}

func TestMoneyString(t *testing.T) {
	if got := Money(3800).String(); got != "¥3800" {
		t.Errorf("Money(3800) = %q", got)
	}
	if got := Money(-250).String(); got != "-¥250" {
		t.Errorf("Money(-250) = %q", got)
	}
}
