package core

import (
	"errors"
	"strings"
)

const (
	Practice ActivityType = "practice"
	Match    ActivityType = "match"

	Income  EntryType = "income"
	Expense EntryType = "expense"

	RoleAccountant Role = "accountant"
	RoleCoach      Role = "coach"
	RoleTrainer    Role = "trainer"
)

type (
	ActivityType string
	EntryType    string
	Role         string

	// FiscalYear is the accounting period scoping members, staff,
	// activities and financial records.
	FiscalYear struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		StartMonth Month  `json:"startMonth"`
		EndMonth   Month  `json:"endMonth"`
	}

	// Member belongs to exactly one fiscal year. Fee is the monthly
	// dues amount.
	Member struct {
		ID           string `json:"id"`
		FiscalYearID string `json:"fiscalYearId"`
		Name         string `json:"name"`
		Grade        string `json:"grade"`
		Fee          Money  `json:"fee"`
	}

	// StaffAssignment registers a coach or trainer for one fiscal year.
	// UserID links the assignment to a UserAccount whose rates apply to
	// logged activities; it may be empty for staff without a login.
	// VenueDistances maps venue id to one-way distance in km, used as
	// the default distance when logging an activity at that venue.
	StaffAssignment struct {
		ID             string             `json:"id"`
		FiscalYearID   string             `json:"fiscalYearId"`
		UserID         string             `json:"userId,omitempty"`
		Name           string             `json:"name"`
		VenueDistances map[string]float64 `json:"venueDistances,omitempty"`
	}

	// Venue is year-independent reference data.
	Venue struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	// MembershipPayment is one ledger cell: the paid state of one member
	// for one month of one fiscal year. Absence of a record means unpaid.
	MembershipPayment struct {
		FiscalYearID string `json:"fiscalYearId"`
		MemberID     string `json:"memberId"`
		Month        Month  `json:"month"`
		Paid         bool   `json:"paid"`
	}

	// Activity is a logged practice or match session generating a
	// compensation claim. TransportCost and TotalFee are derived:
	// TotalFee = CoachFee + TransportCost + EtcFee at all times.
	// A zero DistanceKm or CoachFee on input means "use the default"
	// (the staff member's venue distance, the linked user's rate for
	// the activity type); a genuinely free session is one whose user
	// has a zero rate configured.
	Activity struct {
		ID            string       `json:"id"`
		FiscalYearID  string       `json:"fiscalYearId"`
		StaffID       string       `json:"staffId"`
		Date          string       `json:"date"` // YYYY-MM-DD
		Type          ActivityType `json:"type"`
		VenueID       string       `json:"venueId,omitempty"`
		VenueName     string       `json:"venueName,omitempty"` // custom venue
		DistanceKm    float64      `json:"distanceKm"`
		CoachFee      Money        `json:"coachFee"`
		TransportCost Money        `json:"transportCost"`
		EtcFee        Money        `json:"etcFee"`
		TotalFee      Money        `json:"totalFee"`
	}

	// Category labels income or expense records. Deleting a category
	// leaves its records reporting as uncategorized.
	Category struct {
		ID   string    `json:"id"`
		Type EntryType `json:"type"`
		Name string    `json:"name"`
	}

	// FinanceRecord is one income or expense row. Which of the two it is
	// follows from the collection it lives in.
	FinanceRecord struct {
		ID           string `json:"id"`
		FiscalYearID string `json:"fiscalYearId"`
		Date         string `json:"date"` // YYYY-MM-DD
		CategoryID   string `json:"categoryId,omitempty"`
		Amount       Money  `json:"amount"`
		Description  string `json:"description"`
	}

	// UserAccount holds the compensation rates applied to activities
	// logged by that user.
	UserAccount struct {
		ID                 string `json:"id"`
		Name               string `json:"name"`
		Role               Role   `json:"role"`
		PracticeFee        Money  `json:"practiceFee"`
		MatchFee           Money  `json:"matchFee"`
		TransportRatePerKm Money  `json:"transportRatePerKm"`
	}
)

var (
	ErrInvalidMonth     = errors.New("invalid month")
	ErrMonthOrder       = errors.New("start month after end month")
	ErrNegativeAmount   = errors.New("negative amount")
	ErrNegativeDistance = errors.New("negative distance")
	ErrEmptyName        = errors.New("empty name")
	ErrInvalidType      = errors.New("invalid type")
)

func (y FiscalYear) Validate() error {
	if strings.TrimSpace(y.Name) == "" {
		return ErrEmptyName
	}
	if !y.StartMonth.Valid() || !y.EndMonth.Valid() {
		return ErrInvalidMonth
	}
	if y.EndMonth.Before(y.StartMonth) {
		return ErrMonthOrder
	}
	return nil
}

// Months returns the year's month axis.
func (y FiscalYear) Months() []Month {
	return MonthsInRange(y.StartMonth, y.EndMonth)
}

func (m Member) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	return m.Fee.Validate()
}

func (s StaffAssignment) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return ErrEmptyName
	}
	for _, d := range s.VenueDistances {
		if d < 0 {
			return ErrNegativeDistance
		}
	}
	return nil
}

func (v Venue) Validate() error {
	if strings.TrimSpace(v.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

func (t ActivityType) Validate() error {
	switch t {
	case Practice, Match:
		return nil
	}
	return ErrInvalidType
}

func (a Activity) Validate() error {
	if err := a.Type.Validate(); err != nil {
		return err
	}
	if a.DistanceKm < 0 {
		return ErrNegativeDistance
	}
	for _, m := range []Money{a.CoachFee, a.TransportCost, a.EtcFee, a.TotalFee} {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Name) == "" {
		return ErrEmptyName
	}
	switch c.Type {
	case Income, Expense:
		return nil
	}
	return ErrInvalidType
}

func (r FinanceRecord) Validate() error {
	return r.Amount.Validate()
}

func (u UserAccount) Validate() error {
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	switch u.Role {
	case RoleAccountant, RoleCoach, RoleTrainer:
	default:
		return ErrInvalidType
	}
	for _, m := range []Money{u.PracticeFee, u.MatchFee, u.TransportRatePerKm} {
		if err := m.Validate(); err != nil {
			return err
		}
	}
	return nil
}
