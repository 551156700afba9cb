// Package ledger implements the balance computation core: the signed
// effect of loan activities on a contact's running balance, the
// canonical ordering of ledger entries, the dashboard aggregator and
// the deletion rebalancer. Everything here is pure computation over
// data already fetched into memory; persistence and transport live
// elsewhere.
package ledger

import (
	"sort"

	"github.com/davigor/finance-tracker-go/internal/domain"
)

// Effect returns the signed contribution of an activity type to the
// running balance. Positive running balance means the contact owes the
// user. The second return is false for unknown activity types.
func Effect(activityType string) (float64, bool) {
	switch activityType {
	case domain.ActivityGiven, domain.ActivityPaymentMade:
		return +1, true
	case domain.ActivityBorrowed, domain.ActivityPaymentReceived:
		return -1, true
	}
	return 0, false
}

// Apply folds one activity into a balance. Unknown activity types
// leave the balance untouched; callers validate the type before any
// entry reaches the ledger.
func Apply(balance float64, activityType string, amount float64) float64 {
	sign, ok := Effect(activityType)
	if !ok {
		return balance
	}
	return balance + sign*amount
}

// ActivityKey is the composite canonical sort key of a ledger entry:
// activity date first, creation time as the same-day tie-break. One
// definition shared by the append, delete and read paths.
type ActivityKey struct {
	Date      string // YYYY-MM-DD, compares lexicographically
	CreatedAt int64  // unix nanos
}

// KeyOf extracts the canonical key of an activity.
func KeyOf(a *domain.LoanActivity) ActivityKey {
	return ActivityKey{Date: a.ActivityDate, CreatedAt: a.CreatedAt.UnixNano()}
}

// Compare returns -1, 0 or +1 ordering k against other.
func (k ActivityKey) Compare(other ActivityKey) int {
	switch {
	case k.Date < other.Date:
		return -1
	case k.Date > other.Date:
		return 1
	case k.CreatedAt < other.CreatedAt:
		return -1
	case k.CreatedAt > other.CreatedAt:
		return 1
	}
	return 0
}

// SortCanonical orders activities ascending by canonical key in place.
func SortCanonical(activities []domain.LoanActivity) {
	sort.SliceStable(activities, func(i, j int) bool {
		return KeyOf(&activities[i]).Compare(KeyOf(&activities[j])) < 0
	})
}

// LatestBalance returns the balance_after of the last entry in
// canonical order, or zero for an empty ledger.
func LatestBalance(activities []domain.LoanActivity) float64 {
	if len(activities) == 0 {
		return 0
	}
	latest := 0
	for i := 1; i < len(activities); i++ {
		if KeyOf(&activities[i]).Compare(KeyOf(&activities[latest])) >= 0 {
			latest = i
		}
	}
	return activities[latest].BalanceAfter
}
