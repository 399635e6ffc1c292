package report

import (
	"testing"

	"clubledger/internal/core"
)

var testYear = core.FiscalYear{
	ID:         "y1",
	Name:       "2024年度",
	StartMonth: "2024-04",
	EndMonth:   "2025-03",
}

func paid(memberID string, months ...core.Month) []core.MembershipPayment {
	var out []core.MembershipPayment
	for _, m := range months {
		out = append(out, core.MembershipPayment{
			FiscalYearID: "y1", MemberID: memberID, Month: m, Paid: true,
		})
	}
	return out
}

func TestTotalPaidFees(t *testing.T) {
	members := []core.Member{{ID: "m1", FiscalYearID: "y1", Name: "山田", Fee: 5000}}
	payments := paid("m1", "2024-04", "2024-05", "2024-06")

	if got := TotalPaidFees(testYear, members, payments); got != 15000 {
		t.Errorf("TotalPaidFees = %d, want 15000", got)
	}
	if got := PaidMonthCount(testYear, payments, "m1"); got != 3 {
		t.Errorf("PaidMonthCount = %d, want 3", got)
	}
}

func TestTotalPaidFeesIgnoresOtherYearsAndUnpaidCells(t *testing.T) {
	members := []core.Member{{ID: "m1", FiscalYearID: "y1", Fee: 5000}}
	payments := []core.MembershipPayment{
		{FiscalYearID: "y1", MemberID: "m1", Month: "2024-04", Paid: true},
		{FiscalYearID: "y1", MemberID: "m1", Month: "2024-05", Paid: false}, // toggled back
		{FiscalYearID: "y2", MemberID: "m1", Month: "2024-06", Paid: true},  // other year
		{FiscalYearID: "y1", MemberID: "m1", Month: "2023-04", Paid: true},  // outside range
	}
	if got := TotalPaidFees(testYear, members, payments); got != 5000 {
		t.Errorf("TotalPaidFees = %d, want 5000", got)
	}
}

func TestUnpaidCountThroughMonth(t *testing.T) {
	members := []core.Member{
		{ID: "m1", FiscalYearID: "y1", Fee: 5000},
		{ID: "m2", FiscalYearID: "y1", Fee: 5000},
	}
	// m1 paid months 1-3 of the year, m2 paid through month 5.
	payments := append(
		paid("m1", "2024-04", "2024-05", "2024-06"),
		paid("m2", "2024-04", "2024-05", "2024-06", "2024-07", "2024-08")...,
	)

	// Reference = 5th month of the year: m1 owes months 4-5, m2 is clear.
	if got := UnpaidCountThroughMonth(testYear, members, payments, "2024-08"); got != 1 {
		t.Errorf("UnpaidCountThroughMonth(2024-08) = %d, want 1", got)
	}
	// Reference before the range start: nothing is due yet.
	if got := UnpaidCountThroughMonth(testYear, members, payments, "2024-03"); got != 0 {
		t.Errorf("UnpaidCountThroughMonth(2024-03) = %d, want 0", got)
	}
	// End of year: both owe something.
	if got := UnpaidCountThroughMonth(testYear, members, payments, "2025-03"); got != 2 {
		t.Errorf("UnpaidCountThroughMonth(2025-03) = %d, want 2", got)
	}
}

func TestMembership(t *testing.T) {
	members := []core.Member{
		{ID: "m1", FiscalYearID: "y1", Name: "山田", Fee: 5000},
		{ID: "m2", FiscalYearID: "y2", Name: "別年度", Fee: 9999},
	}
	payments := paid("m1", "2024-04", "2024-05", "2024-06")

	sum := Membership(testYear, members, payments, "2024-08")
	if len(sum.Members) != 1 {
		t.Fatalf("members in summary = %d, want 1", len(sum.Members))
	}
	st := sum.Members[0]
	if st.PaidMonths != 3 || st.TotalMonths != 12 || st.PaidFees != 15000 {
		t.Errorf("standing = %+v", st)
	}
	if sum.TotalPaidFees != 15000 {
		t.Errorf("TotalPaidFees = %d, want 15000", sum.TotalPaidFees)
	}
	if sum.UnpaidMembers != 1 {
		t.Errorf("UnpaidMembers = %d, want 1", sum.UnpaidMembers)
	}
}

func TestStaffPayments(t *testing.T) {
	staff := []core.StaffAssignment{
		{ID: "c1", FiscalYearID: "y1", UserID: "u1", Name: "指導花子"},
		{ID: "c2", FiscalYearID: "y1", Name: "無アカウント"},
	}
	users := []core.UserAccount{{ID: "u1", Name: "指導花子", Role: core.RoleCoach}}
	activities := []core.Activity{
		{ID: "a1", FiscalYearID: "y1", StaffID: "c1", Date: "2024-04-10", TotalFee: 3800},
		{ID: "a2", FiscalYearID: "y1", StaffID: "c1", Date: "2024-05-12", TotalFee: 5300},
		{ID: "a3", FiscalYearID: "y1", StaffID: "c2", Date: "2024-04-20", TotalFee: 3000},
		{ID: "a4", FiscalYearID: "y2", StaffID: "c1", Date: "2024-04-11", TotalFee: 9999},
	}

	t.Run("all months all staff", func(t *testing.T) {
		got := StaffPayments("y1", staff, users, activities, "", "")
		if len(got) != 2 {
			t.Fatalf("summaries = %d, want 2", len(got))
		}
		if got[0].ActivityCount != 2 || got[0].TotalFee != 9100 {
			t.Errorf("c1 summary = %+v", got[0])
		}
		if got[1].UserName != "-" {
			t.Errorf("unlinked staff user name = %q, want -", got[1].UserName)
		}
	})

	t.Run("month filter", func(t *testing.T) {
		got := StaffPayments("y1", staff, users, activities, "2024-04", "")
		if got[0].ActivityCount != 1 || got[0].TotalFee != 3800 {
			t.Errorf("filtered c1 summary = %+v", got[0])
		}
	})

	t.Run("staff filter", func(t *testing.T) {
		got := StaffPayments("y1", staff, users, activities, "", "c2")
		if len(got) != 1 || got[0].StaffID != "c2" {
			t.Fatalf("staff filter result = %+v", got)
		}
	})
}

func TestCategoryBreakdownAndBalance(t *testing.T) {
	categories := []core.Category{
		{ID: "cat1", Type: core.Income, Name: "会費"},
		{ID: "cat2", Type: core.Expense, Name: "交通費"},
	}
	incomes := []core.FinanceRecord{
		{ID: "i1", FiscalYearID: "y1", CategoryID: "cat1", Amount: 60000},
		{ID: "i2", FiscalYearID: "y1", CategoryID: "cat1", Amount: 15000},
		{ID: "i3", FiscalYearID: "y1", CategoryID: "gone", Amount: 2000},
	}
	expenses := []core.FinanceRecord{
		{ID: "e1", FiscalYearID: "y1", CategoryID: "cat2", Amount: 12000},
		{ID: "e2", FiscalYearID: "y2", CategoryID: "cat2", Amount: 7777},
	}

	breakdown := CategoryBreakdown("y1", incomes, categories)
	if breakdown["会費"] != 75000 {
		t.Errorf("会費 = %d, want 75000", breakdown["会費"])
	}
	if breakdown[Uncategorized] != 2000 {
		t.Errorf("uncategorized = %d, want 2000", breakdown[Uncategorized])
	}

	// Breakdown values sum to the year totals.
	var sum core.Money
	for _, v := range breakdown {
		sum += v
	}
	if sum != Total("y1", incomes) {
		t.Errorf("breakdown sum %d != total income %d", sum, Total("y1", incomes))
	}

	if got := YearBalance("y1", incomes, expenses); got != 65000 {
		t.Errorf("YearBalance = %d, want 65000", got)
	}

	rep := BuildYearReport(testYear, incomes, expenses, categories)
	if rep.TotalIncome != 77000 || rep.TotalExpense != 12000 || rep.Balance != 65000 {
		t.Errorf("report totals = %+v", rep)
	}
	if rep.Balance != rep.TotalIncome-rep.TotalExpense {
		t.Error("balance does not equal income minus expense")
	}
}

func TestAggregationsOverAbsentCollections(t *testing.T) {
	// A fiscal year nobody wrote anything for: everything is zero,
	// nothing errors.
	year := core.FiscalYear{ID: "ghost", StartMonth: "2024-04", EndMonth: "2025-03"}
	if got := TotalPaidFees(year, nil, nil); got != 0 {
		t.Errorf("TotalPaidFees = %d", got)
	}
	if got := UnpaidCountThroughMonth(year, nil, nil, "2024-08"); got != 0 {
		t.Errorf("UnpaidCountThroughMonth = %d", got)
	}
	if got := StaffPayments("ghost", nil, nil, nil, "", ""); len(got) != 0 {
		t.Errorf("StaffPayments = %+v", got)
	}
	if got := CategoryBreakdown("ghost", nil, nil); len(got) != 0 {
		t.Errorf("CategoryBreakdown = %+v", got)
	}
	if got := YearBalance("ghost", nil, nil); got != 0 {
		t.Errorf("YearBalance = %d", got)
	}
	rep := BuildYearReport(year, nil, nil, nil)
	if rep.TotalIncome != 0 || rep.TotalExpense != 0 || rep.Balance != 0 {
		t.Errorf("empty report = %+v", rep)
	}
}
