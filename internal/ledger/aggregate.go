package ledger

import (
	"sort"

	"github.com/davigor/finance-tracker-go/internal/domain"
)

const (
	monthlyWindow = 6
	recentLimit   = 10
)

// AggregateInput is the full unfiltered data set owned by one user.
// The aggregator assumes everything fits in memory; that is a scale
// boundary, not a correctness one.
type AggregateInput struct {
	Transactions    []domain.Transaction
	LegacyLoans     []domain.Loan
	LoanActivities  []domain.LoanActivity
	ContactBalances []float64 // latest balance_after per contact, canonical order
}

// Aggregate computes the dashboard summary. Pure function: same inputs
// always produce the same summary.
func Aggregate(in AggregateInput) domain.DashboardSummary {
	var totalIncome, totalExpenses float64
	for i := range in.Transactions {
		switch in.Transactions[i].Type {
		case domain.TransactionIncome:
			totalIncome += in.Transactions[i].Amount
		case domain.TransactionExpense:
			totalExpenses += in.Transactions[i].Amount
		}
	}

	legacy := LegacyLoanSource(in.LegacyLoans)
	legacyGiven := legacy.OutstandingGiven()
	legacyBorrowed := legacy.OutstandingBorrowed()

	// Lifetime activity totals, settled amounts included.
	var activityGiven, activityBorrowed, paymentReceived, paymentMade float64
	for i := range in.LoanActivities {
		a := &in.LoanActivities[i]
		switch a.ActivityType {
		case domain.ActivityGiven:
			activityGiven += a.Amount
		case domain.ActivityBorrowed:
			activityBorrowed += a.Amount
		case domain.ActivityPaymentReceived:
			paymentReceived += a.Amount
		case domain.ActivityPaymentMade:
			paymentMade += a.Amount
		}
	}

	totalBalance := totalIncome - totalExpenses -
		activityGiven + activityBorrowed + paymentReceived - paymentMade -
		legacyGiven + legacyBorrowed

	contacts := ActivityLedgerSource(in.ContactBalances)
	outstandingGiven := contacts.OutstandingGiven() + legacyGiven
	outstandingBorrowed := contacts.OutstandingBorrowed() + legacyBorrowed

	return domain.DashboardSummary{
		TotalBalance:       totalBalance,
		TotalIncome:        totalIncome,
		TotalExpenses:      totalExpenses,
		LoanGiven:          outstandingGiven,
		LoanBorrowed:       outstandingBorrowed,
		MonthlyData:        monthlySeries(in.Transactions),
		RecentTransactions: recentTransactions(in.Transactions),
	}
}

// SpendableBalance is the figure the insufficient-balance guard checks
// before accepting an expense or a new loan given: cash position from
// transactions adjusted by outstanding legacy loans.
func SpendableBalance(transactions []domain.Transaction, loans []domain.Loan) float64 {
	var income, expenses float64
	for i := range transactions {
		switch transactions[i].Type {
		case domain.TransactionIncome:
			income += transactions[i].Amount
		case domain.TransactionExpense:
			expenses += transactions[i].Amount
		}
	}
	legacy := LegacyLoanSource(loans)
	return income - expenses + legacy.OutstandingBorrowed() - legacy.OutstandingGiven()
}

// monthlySeries groups transactions into YYYY-MM buckets and returns
// the most recent months that actually have data, ascending, capped at
// the window size.
func monthlySeries(transactions []domain.Transaction) []domain.MonthlyPoint {
	buckets := make(map[string]*domain.MonthlyPoint)
	for i := range transactions {
		t := &transactions[i]
		if len(t.Date) < 7 {
			continue
		}
		month := t.Date[:7]
		p, ok := buckets[month]
		if !ok {
			p = &domain.MonthlyPoint{Month: month}
			buckets[month] = p
		}
		switch t.Type {
		case domain.TransactionIncome:
			p.Income += t.Amount
		case domain.TransactionExpense:
			p.Expense += t.Amount
		}
	}

	months := make([]string, 0, len(buckets))
	for m := range buckets {
		months = append(months, m)
	}
	sort.Strings(months)
	if len(months) > monthlyWindow {
		months = months[len(months)-monthlyWindow:]
	}

	series := make([]domain.MonthlyPoint, 0, len(months))
	for _, m := range months {
		series = append(series, *buckets[m])
	}
	return series
}

// recentTransactions returns the newest transactions by date, capped.
// Same-day ties keep their input order.
func recentTransactions(transactions []domain.Transaction) []domain.Transaction {
	recent := make([]domain.Transaction, len(transactions))
	copy(recent, transactions)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Date > recent[j].Date
	})
	if len(recent) > recentLimit {
		recent = recent[:recentLimit]
	}
	return recent
}
