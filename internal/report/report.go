// Package report holds the read-only aggregations over the record
// collections. Every function takes the collections it reads as
// explicit arguments and returns plain values; there is no hidden
// state, and empty or absent inputs contribute zero rather than error.
package report

import (
	"clubledger/internal/core"
)

// Uncategorized is the bucket for income/expense records whose category
// was deleted after use.
const Uncategorized = "uncategorized"

// paidSet indexes the paid ledger cells of one fiscal year by member
// and month.
func paidSet(yearID string, payments []core.MembershipPayment) map[string]map[core.Month]bool {
	set := make(map[string]map[core.Month]bool)
	for _, p := range payments {
		if p.FiscalYearID != yearID || !p.Paid {
			continue
		}
		months := set[p.MemberID]
		if months == nil {
			months = make(map[core.Month]bool)
			set[p.MemberID] = months
		}
		months[p.Month] = true
	}
	return set
}

// PaidMonthCount counts the months in the year's range the member has
// paid.
func PaidMonthCount(year core.FiscalYear, payments []core.MembershipPayment, memberID string) int {
	paid := paidSet(year.ID, payments)[memberID]
	count := 0
	for _, m := range year.Months() {
		if paid[m] {
			count++
		}
	}
	return count
}

// TotalPaidFees sums member.Fee × paid-month count over the year's
// members.
func TotalPaidFees(year core.FiscalYear, members []core.Member, payments []core.MembershipPayment) core.Money {
	paid := paidSet(year.ID, payments)
	var total core.Money
	for _, m := range members {
		if m.FiscalYearID != year.ID {
			continue
		}
		count := 0
		for _, month := range year.Months() {
			if paid[m.ID][month] {
				count++
			}
		}
		total += m.Fee * core.Money(count)
	}
	return total
}

// UnpaidCountThroughMonth counts the year's members with at least one
// unpaid month at or before ref within the year's range.
func UnpaidCountThroughMonth(year core.FiscalYear, members []core.Member, payments []core.MembershipPayment, ref core.Month) int {
	paid := paidSet(year.ID, payments)
	count := 0
	for _, m := range members {
		if m.FiscalYearID != year.ID {
			continue
		}
		for _, month := range year.Months() {
			if ref.Before(month) {
				break
			}
			if !paid[m.ID][month] {
				count++
				break
			}
		}
	}
	return count
}

// MemberStanding is one member's row in the membership summary.
type MemberStanding struct {
	MemberID    string     `json:"memberId"`
	Name        string     `json:"name"`
	Grade       string     `json:"grade,omitempty"`
	Fee         core.Money `json:"fee"`
	PaidMonths  int        `json:"paidMonths"`
	TotalMonths int        `json:"totalMonths"`
	PaidFees    core.Money `json:"paidFees"`
}

// MembershipSummary is the dues dashboard for one fiscal year.
type MembershipSummary struct {
	TotalPaidFees core.Money       `json:"totalPaidFees"`
	UnpaidMembers int              `json:"unpaidMembers"`
	Members       []MemberStanding `json:"members"`
}

// Membership rolls up the ledger for one fiscal year. ref is the month
// the unpaid count runs through, normally the current month.
func Membership(year core.FiscalYear, members []core.Member, payments []core.MembershipPayment, ref core.Month) MembershipSummary {
	months := year.Months()
	paid := paidSet(year.ID, payments)

	var summary MembershipSummary
	for _, m := range members {
		if m.FiscalYearID != year.ID {
			continue
		}
		standing := MemberStanding{
			MemberID:    m.ID,
			Name:        m.Name,
			Grade:       m.Grade,
			Fee:         m.Fee,
			TotalMonths: len(months),
		}
		unpaidThroughRef := false
		for _, month := range months {
			if paid[m.ID][month] {
				standing.PaidMonths++
			} else if !ref.Before(month) {
				unpaidThroughRef = true
			}
		}
		standing.PaidFees = m.Fee * core.Money(standing.PaidMonths)
		summary.TotalPaidFees += standing.PaidFees
		if unpaidThroughRef {
			summary.UnpaidMembers++
		}
		summary.Members = append(summary.Members, standing)
	}
	return summary
}

// StaffSummary is one staff member's compensation rollup.
type StaffSummary struct {
	StaffID       string     `json:"staffId"`
	StaffName     string     `json:"staffName"`
	UserName      string     `json:"userName"` // "-" when no linked account
	ActivityCount int        `json:"activityCount"`
	TotalFee      core.Money `json:"totalFee"`
}

// StaffPayments summarizes activity counts and fee totals per staff
// member of the year. monthFilter ("" = all) prefix-matches activity
// dates; staffFilter ("" = all) is an exact id match.
func StaffPayments(yearID string, staff []core.StaffAssignment, users []core.UserAccount, activities []core.Activity, monthFilter core.Month, staffFilter string) []StaffSummary {
	byUser := make(map[string]core.UserAccount, len(users))
	for _, u := range users {
		byUser[u.ID] = u
	}

	var summaries []StaffSummary
	for _, s := range staff {
		if s.FiscalYearID != yearID {
			continue
		}
		if staffFilter != "" && s.ID != staffFilter {
			continue
		}
		summary := StaffSummary{StaffID: s.ID, StaffName: s.Name, UserName: "-"}
		if u, ok := byUser[s.UserID]; ok {
			summary.UserName = u.Name
		}
		for _, a := range activities {
			if a.FiscalYearID != yearID || a.StaffID != s.ID {
				continue
			}
			if !monthFilter.MatchesDate(a.Date) {
				continue
			}
			summary.ActivityCount++
			summary.TotalFee += a.TotalFee
		}
		summaries = append(summaries, summary)
	}
	return summaries
}

// CategoryBreakdown maps category name to summed amount for the year's
// records. Records whose category no longer exists land in the
// Uncategorized bucket.
func CategoryBreakdown(yearID string, records []core.FinanceRecord, categories []core.Category) map[string]core.Money {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	breakdown := make(map[string]core.Money)
	for _, r := range records {
		if r.FiscalYearID != yearID {
			continue
		}
		name, ok := names[r.CategoryID]
		if !ok {
			name = Uncategorized
		}
		breakdown[name] += r.Amount
	}
	return breakdown
}

// Total sums the year's records.
func Total(yearID string, records []core.FinanceRecord) core.Money {
	var total core.Money
	for _, r := range records {
		if r.FiscalYearID == yearID {
			total += r.Amount
		}
	}
	return total
}

// YearBalance is total income minus total expense for the year.
func YearBalance(yearID string, incomes, expenses []core.FinanceRecord) core.Money {
	return Total(yearID, incomes) - Total(yearID, expenses)
}

// YearReport is the year-end settlement: totals, balance and the
// per-category breakdowns.
type YearReport struct {
	Year              core.FiscalYear       `json:"year"`
	TotalIncome       core.Money            `json:"totalIncome"`
	TotalExpense      core.Money            `json:"totalExpense"`
	Balance           core.Money            `json:"balance"`
	IncomeByCategory  map[string]core.Money `json:"incomeByCategory"`
	ExpenseByCategory map[string]core.Money `json:"expenseByCategory"`
}

// BuildYearReport assembles the full year-end report.
func BuildYearReport(year core.FiscalYear, incomes, expenses []core.FinanceRecord, categories []core.Category) YearReport {
	return YearReport{
		Year:              year,
		TotalIncome:       Total(year.ID, incomes),
		TotalExpense:      Total(year.ID, expenses),
		Balance:           YearBalance(year.ID, incomes, expenses),
		IncomeByCategory:  CategoryBreakdown(year.ID, incomes, categories),
		ExpenseByCategory: CategoryBreakdown(year.ID, expenses, categories),
	}
}
