package ledger

import "github.com/davigor/finance-tracker-go/internal/domain"

// BalanceUpdate is one recomputed balance_after value the caller must
// persist.
type BalanceUpdate struct {
	ActivityID   string
	BalanceAfter float64
}

// Rebalance recomputes the running balance chain after a mid-sequence
// deletion. remaining is the contact's ledger with the deleted entry
// already removed; deletedKey is the canonical key of the removed
// entry.
//
// The anchor balance is the balance_after of the latest remaining entry
// whose key is <= deletedKey (zero when the deleted entry was first).
// Every entry strictly after the deletion point is refolded from that
// anchor, so afterwards balance_after[i] = balance_after[i-1] plus the
// entry's signed effect over the whole chain, with no gaps.
//
// Returns the updates to persist and the new tail balance. Deleting the
// last entry yields no updates; the tail is then the anchor itself.
func Rebalance(remaining []domain.LoanActivity, deletedKey ActivityKey) ([]BalanceUpdate, float64) {
	ordered := make([]domain.LoanActivity, len(remaining))
	copy(ordered, remaining)
	SortCanonical(ordered)

	previous := 0.0
	walkFrom := 0
	for i := range ordered {
		if KeyOf(&ordered[i]).Compare(deletedKey) <= 0 {
			previous = ordered[i].BalanceAfter
			walkFrom = i + 1
		} else {
			break
		}
	}

	updates := make([]BalanceUpdate, 0, len(ordered)-walkFrom)
	for i := walkFrom; i < len(ordered); i++ {
		previous = Apply(previous, ordered[i].ActivityType, ordered[i].Amount)
		updates = append(updates, BalanceUpdate{
			ActivityID:   ordered[i].ID,
			BalanceAfter: previous,
		})
	}

	return updates, previous
}
