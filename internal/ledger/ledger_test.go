package ledger_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/davigor/finance-tracker-go/internal/domain"
	"github.com/davigor/finance-tracker-go/internal/ledger"
)

func activity(id, date string, seq int, activityType string, amount, balanceAfter float64) domain.LoanActivity {
	return domain.LoanActivity{
		ID:           id,
		ContactID:    "contact-1",
		ActivityType: activityType,
		Amount:       amount,
		BalanceAfter: balanceAfter,
		ActivityDate: date,
		CreatedAt:    time.Date(2024, 1, 1, 12, 0, seq, 0, time.UTC),
	}
}

func TestEffect_SignTable(t *testing.T) {
	cases := []struct {
		activityType string
		want         float64
	}{
		{domain.ActivityGiven, +1},
		{domain.ActivityBorrowed, -1},
		{domain.ActivityPaymentReceived, -1},
		{domain.ActivityPaymentMade, +1},
	}
	for _, c := range cases {
		sign, ok := ledger.Effect(c.activityType)
		if !ok {
			t.Fatalf("Effect(%q) reported unknown type", c.activityType)
		}
		if sign != c.want {
			t.Errorf("Effect(%q) = %v, want %v", c.activityType, sign, c.want)
		}
	}

	if _, ok := ledger.Effect("gifted"); ok {
		t.Error("expected unknown activity type to be rejected")
	}
}

func TestApply_RunningBalance(t *testing.T) {
	balance := ledger.Apply(0, domain.ActivityGiven, 50)
	if balance != 50 {
		t.Fatalf("after given 50: got %v, want 50", balance)
	}
	balance = ledger.Apply(balance, domain.ActivityPaymentReceived, 20)
	if balance != 30 {
		t.Fatalf("after payment_received 20: got %v, want 30", balance)
	}
}

func TestActivityKey_CompositeOrdering(t *testing.T) {
	early := activity("a", "2024-03-01", 1, domain.ActivityGiven, 10, 10)
	sameDayLater := activity("b", "2024-03-01", 2, domain.ActivityGiven, 10, 20)
	nextDay := activity("c", "2024-03-02", 0, domain.ActivityGiven, 10, 30)

	if ledger.KeyOf(&early).Compare(ledger.KeyOf(&sameDayLater)) >= 0 {
		t.Error("created_at must break same-day ties")
	}
	if ledger.KeyOf(&sameDayLater).Compare(ledger.KeyOf(&nextDay)) >= 0 {
		t.Error("activity_date must dominate created_at")
	}
	if ledger.KeyOf(&early).Compare(ledger.KeyOf(&early)) != 0 {
		t.Error("key must compare equal to itself")
	}
}

func TestLatestBalance(t *testing.T) {
	if got := ledger.LatestBalance(nil); got != 0 {
		t.Fatalf("empty ledger: got %v, want 0", got)
	}

	activities := []domain.LoanActivity{
		activity("a2", "2024-03-05", 2, domain.ActivityBorrowed, 40, 60),
		activity("a1", "2024-03-01", 1, domain.ActivityGiven, 100, 100),
		activity("a3", "2024-03-09", 3, domain.ActivityGiven, 20, 80),
	}
	if got := ledger.LatestBalance(activities); got != 80 {
		t.Fatalf("got %v, want 80", got)
	}
}

func TestAggregate_TotalBalance(t *testing.T) {
	summary := ledger.Aggregate(ledger.AggregateInput{
		Transactions: []domain.Transaction{
			{Type: domain.TransactionIncome, Amount: 100, Date: "2024-05-01"},
			{Type: domain.TransactionExpense, Amount: 30, Date: "2024-05-02"},
		},
	})

	if summary.TotalBalance != 70 {
		t.Errorf("total_balance = %v, want 70", summary.TotalBalance)
	}
	if summary.TotalIncome != 100 || summary.TotalExpenses != 30 {
		t.Errorf("income/expenses = %v/%v, want 100/30", summary.TotalIncome, summary.TotalExpenses)
	}
}

func TestAggregate_ActivityAndLegacyTerms(t *testing.T) {
	paid := 25.0
	summary := ledger.Aggregate(ledger.AggregateInput{
		Transactions: []domain.Transaction{
			{Type: domain.TransactionIncome, Amount: 500, Date: "2024-05-01"},
		},
		LegacyLoans: []domain.Loan{
			{Type: domain.LoanGiven, Amount: 100, PaidAmount: &paid},         // outstanding 75
			{Type: domain.LoanBorrowed, Amount: 50},                          // outstanding 50
			{Type: domain.LoanGiven, Amount: 999, IsPaid: true},              // settled, ignored
		},
		LoanActivities: []domain.LoanActivity{
			{ActivityType: domain.ActivityGiven, Amount: 200},
			{ActivityType: domain.ActivityPaymentReceived, Amount: 80},
		},
		ContactBalances: []float64{120},
	})

	// 500 - 200(given) + 80(payment_received) - 75(legacy given) + 50(legacy borrowed)
	want := 500.0 - 200 + 80 - 75 + 50
	if summary.TotalBalance != want {
		t.Errorf("total_balance = %v, want %v", summary.TotalBalance, want)
	}
	// outstanding: contact 120 + legacy 75
	if summary.LoanGiven != 195 {
		t.Errorf("loan_given = %v, want 195", summary.LoanGiven)
	}
	if summary.LoanBorrowed != 50 {
		t.Errorf("loan_borrowed = %v, want 50", summary.LoanBorrowed)
	}
}

func TestAggregate_OutstandingVsLifetime(t *testing.T) {
	// A contact whose ledger is fully settled: lifetime given is 100,
	// but the outstanding figure must be 0, not 100.
	summary := ledger.Aggregate(ledger.AggregateInput{
		LoanActivities: []domain.LoanActivity{
			{ActivityType: domain.ActivityGiven, Amount: 100},
			{ActivityType: domain.ActivityPaymentReceived, Amount: 100},
		},
		ContactBalances: []float64{0},
	})

	if summary.LoanGiven != 0 {
		t.Errorf("outstanding loan_given = %v, want 0", summary.LoanGiven)
	}
	// Lifetime terms cancel in the total: -100 + 100.
	if summary.TotalBalance != 0 {
		t.Errorf("total_balance = %v, want 0", summary.TotalBalance)
	}
}

func TestAggregate_MonthlyTruncation(t *testing.T) {
	var transactions []domain.Transaction
	for m := 1; m <= 8; m++ {
		transactions = append(transactions, domain.Transaction{
			Type:   domain.TransactionIncome,
			Amount: float64(m),
			Date:   fmt.Sprintf("2024-%02d-15", m),
		})
	}

	summary := ledger.Aggregate(ledger.AggregateInput{Transactions: transactions})

	if len(summary.MonthlyData) != 6 {
		t.Fatalf("monthly series length = %d, want 6", len(summary.MonthlyData))
	}
	if summary.MonthlyData[0].Month != "2024-03" {
		t.Errorf("first month = %s, want 2024-03", summary.MonthlyData[0].Month)
	}
	if summary.MonthlyData[5].Month != "2024-08" {
		t.Errorf("last month = %s, want 2024-08", summary.MonthlyData[5].Month)
	}
	for i := 1; i < len(summary.MonthlyData); i++ {
		if summary.MonthlyData[i-1].Month >= summary.MonthlyData[i].Month {
			t.Fatal("monthly series must be ascending")
		}
	}
}

func TestAggregate_MonthlyOnlyMonthsWithData(t *testing.T) {
	// Two sparse months: the window counts months with data, not
	// calendar months.
	summary := ledger.Aggregate(ledger.AggregateInput{
		Transactions: []domain.Transaction{
			{Type: domain.TransactionIncome, Amount: 10, Date: "2023-01-10"},
			{Type: domain.TransactionExpense, Amount: 5, Date: "2024-08-20"},
		},
	})

	if len(summary.MonthlyData) != 2 {
		t.Fatalf("monthly series length = %d, want 2", len(summary.MonthlyData))
	}
	if summary.MonthlyData[0].Month != "2023-01" || summary.MonthlyData[1].Month != "2024-08" {
		t.Errorf("unexpected months: %+v", summary.MonthlyData)
	}
}

func TestAggregate_RecentTransactions(t *testing.T) {
	var transactions []domain.Transaction
	for d := 1; d <= 12; d++ {
		transactions = append(transactions, domain.Transaction{
			ID:     fmt.Sprintf("tx-%d", d),
			Type:   domain.TransactionExpense,
			Amount: 1,
			Date:   fmt.Sprintf("2024-06-%02d", d),
		})
	}

	summary := ledger.Aggregate(ledger.AggregateInput{Transactions: transactions})

	if len(summary.RecentTransactions) != 10 {
		t.Fatalf("recent length = %d, want 10", len(summary.RecentTransactions))
	}
	if summary.RecentTransactions[0].ID != "tx-12" {
		t.Errorf("newest first: got %s, want tx-12", summary.RecentTransactions[0].ID)
	}
	if summary.RecentTransactions[9].ID != "tx-3" {
		t.Errorf("cutoff: got %s, want tx-3", summary.RecentTransactions[9].ID)
	}
}

func TestSpendableBalance(t *testing.T) {
	paid := 10.0
	got := ledger.SpendableBalance(
		[]domain.Transaction{
			{Type: domain.TransactionIncome, Amount: 200},
			{Type: domain.TransactionExpense, Amount: 50},
		},
		[]domain.Loan{
			{Type: domain.LoanGiven, Amount: 40, PaidAmount: &paid}, // -30
			{Type: domain.LoanBorrowed, Amount: 20},                 // +20
		},
	)
	if got != 140 {
		t.Errorf("spendable = %v, want 140", got)
	}
}

func TestRebalance_MiddleDeletion(t *testing.T) {
	// Ledger: given 100 -> 100, borrowed 40 -> 60, given 20 -> 80.
	// Deleting the middle entry must yield given 100 -> 100, given 20 -> 120.
	deleted := activity("a2", "2024-03-05", 2, domain.ActivityBorrowed, 40, 60)
	remaining := []domain.LoanActivity{
		activity("a1", "2024-03-01", 1, domain.ActivityGiven, 100, 100),
		activity("a3", "2024-03-09", 3, domain.ActivityGiven, 20, 80),
	}

	updates, tail := ledger.Rebalance(remaining, ledger.KeyOf(&deleted))

	if len(updates) != 1 {
		t.Fatalf("updates = %d, want 1", len(updates))
	}
	if updates[0].ActivityID != "a3" || updates[0].BalanceAfter != 120 {
		t.Errorf("update = %+v, want a3 -> 120", updates[0])
	}
	if tail != 120 {
		t.Errorf("tail = %v, want 120", tail)
	}
}

func TestRebalance_FirstDeletion(t *testing.T) {
	// Deleting the first entry rewrites the entire remaining chain
	// from a zero anchor.
	deleted := activity("a1", "2024-03-01", 1, domain.ActivityGiven, 100, 100)
	remaining := []domain.LoanActivity{
		activity("a3", "2024-03-09", 3, domain.ActivityGiven, 20, 80),
		activity("a2", "2024-03-05", 2, domain.ActivityBorrowed, 40, 60),
	}

	updates, tail := ledger.Rebalance(remaining, ledger.KeyOf(&deleted))

	if len(updates) != 2 {
		t.Fatalf("updates = %d, want 2", len(updates))
	}
	if updates[0].ActivityID != "a2" || updates[0].BalanceAfter != -40 {
		t.Errorf("first update = %+v, want a2 -> -40", updates[0])
	}
	if updates[1].ActivityID != "a3" || updates[1].BalanceAfter != -20 {
		t.Errorf("second update = %+v, want a3 -> -20", updates[1])
	}
	if tail != -20 {
		t.Errorf("tail = %v, want -20", tail)
	}
}

func TestRebalance_LastDeletion(t *testing.T) {
	// Deleting the tail entry touches nothing; the tail balance falls
	// back to the previous entry.
	deleted := activity("a3", "2024-03-09", 3, domain.ActivityGiven, 20, 80)
	remaining := []domain.LoanActivity{
		activity("a1", "2024-03-01", 1, domain.ActivityGiven, 100, 100),
		activity("a2", "2024-03-05", 2, domain.ActivityBorrowed, 40, 60),
	}

	updates, tail := ledger.Rebalance(remaining, ledger.KeyOf(&deleted))

	if len(updates) != 0 {
		t.Fatalf("updates = %d, want 0", len(updates))
	}
	if tail != 60 {
		t.Errorf("tail = %v, want 60", tail)
	}
}

func TestRebalance_EmptyRemainder(t *testing.T) {
	deleted := activity("a1", "2024-03-01", 1, domain.ActivityGiven, 100, 100)

	updates, tail := ledger.Rebalance(nil, ledger.KeyOf(&deleted))

	if len(updates) != 0 || tail != 0 {
		t.Errorf("empty ledger: updates=%d tail=%v, want 0/0", len(updates), tail)
	}
}

func TestRebalance_ChainInvariantHolds(t *testing.T) {
	// After any deletion, refolding the remaining chain from zero must
	// reproduce the recomputed balance_after values.
	entries := []domain.LoanActivity{
		activity("a1", "2024-01-01", 1, domain.ActivityGiven, 100, 100),
		activity("a2", "2024-01-02", 2, domain.ActivityPaymentReceived, 30, 70),
		activity("a3", "2024-01-03", 3, domain.ActivityBorrowed, 50, 20),
		activity("a4", "2024-01-04", 4, domain.ActivityPaymentMade, 10, 30),
	}

	for drop := 0; drop < len(entries); drop++ {
		deleted := entries[drop]
		var remaining []domain.LoanActivity
		for i := range entries {
			if i != drop {
				remaining = append(remaining, entries[i])
			}
		}

		updates, tail := ledger.Rebalance(remaining, ledger.KeyOf(&deleted))

		updated := map[string]float64{}
		for _, u := range updates {
			updated[u.ActivityID] = u.BalanceAfter
		}

		ordered := make([]domain.LoanActivity, len(remaining))
		copy(ordered, remaining)
		ledger.SortCanonical(ordered)

		balance := 0.0
		for i := range ordered {
			balance = ledger.Apply(balance, ordered[i].ActivityType, ordered[i].Amount)
			stored := ordered[i].BalanceAfter
			if v, ok := updated[ordered[i].ID]; ok {
				stored = v
			}
			if stored != balance {
				t.Fatalf("drop %s: %s stored %v, refold %v", deleted.ID, ordered[i].ID, stored, balance)
			}
		}
		if len(ordered) > 0 && tail != balance {
			t.Fatalf("drop %s: tail %v, refold %v", deleted.ID, tail, balance)
		}
	}
}

func TestRebalance_AddThenDeleteRoundTrip(t *testing.T) {
	// Appending an activity and deleting it again must restore the
	// prior tail balance.
	existing := []domain.LoanActivity{
		activity("a1", "2024-02-01", 1, domain.ActivityGiven, 100, 100),
		activity("a2", "2024-02-10", 2, domain.ActivityPaymentReceived, 40, 60),
	}
	before := ledger.LatestBalance(existing)

	appended := activity("a3", "2024-02-20", 3, domain.ActivityBorrowed, 25, ledger.Apply(before, domain.ActivityBorrowed, 25))
	if appended.BalanceAfter != 35 {
		t.Fatalf("append balance = %v, want 35", appended.BalanceAfter)
	}

	_, tail := ledger.Rebalance(existing, ledger.KeyOf(&appended))
	if tail != before {
		t.Errorf("round-trip tail = %v, want %v", tail, before)
	}
}
