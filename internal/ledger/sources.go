package ledger

import "github.com/davigor/finance-tracker-go/internal/domain"

// Source is the common "outstanding contribution" view over the two
// loan models. The legacy loans table and the contact activity ledger
// compute outstanding balances differently; unifying them behind one
// interface keeps the dashboard from duplicating sum logic per call
// site.
type Source interface {
	// OutstandingGiven is the net unsettled amount owed TO the user.
	OutstandingGiven() float64
	// OutstandingBorrowed is the net unsettled amount owed BY the user.
	OutstandingBorrowed() float64
}

// LegacyLoanSource derives outstanding figures from flat loan records:
// unpaid loans contribute amount minus cumulative repayment.
type LegacyLoanSource []domain.Loan

func (s LegacyLoanSource) OutstandingGiven() float64 {
	total := 0.0
	for i := range s {
		if s[i].Type == domain.LoanGiven && !s[i].IsPaid {
			total += s[i].Outstanding()
		}
	}
	return total
}

func (s LegacyLoanSource) OutstandingBorrowed() float64 {
	total := 0.0
	for i := range s {
		if s[i].Type == domain.LoanBorrowed && !s[i].IsPaid {
			total += s[i].Outstanding()
		}
	}
	return total
}

// ActivityLedgerSource derives outstanding figures from each contact's
// latest running balance: positive balances are receivables, negative
// balances are debts. Settled history nets out to zero here, unlike
// the lifetime activity totals.
type ActivityLedgerSource []float64

func (s ActivityLedgerSource) OutstandingGiven() float64 {
	total := 0.0
	for _, b := range s {
		if b > 0 {
			total += b
		}
	}
	return total
}

func (s ActivityLedgerSource) OutstandingBorrowed() float64 {
	total := 0.0
	for _, b := range s {
		if b < 0 {
			total += -b
		}
	}
	return total
}
