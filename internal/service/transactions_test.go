package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/davigor/finance-tracker-go/internal/domain"
	"github.com/davigor/finance-tracker-go/internal/infra/cache"
	"github.com/davigor/finance-tracker-go/internal/infra/observability"
	"github.com/davigor/finance-tracker-go/internal/service"

	"go.uber.org/zap"
)

func newTransactionService(store *memStore) *service.TransactionService {
	return service.NewTransactionService(
		store,
		cache.New[*domain.DashboardSummary](time.Minute),
		observability.NewMetrics(),
		zap.NewNop(),
	)
}

func TestAddTransaction_Income(t *testing.T) {
	store := &memStore{}
	svc := newTransactionService(store)

	created, err := svc.Add(context.Background(), "u1", &domain.TransactionRequest{
		Type:   domain.TransactionIncome,
		Amount: 1000,
		Date:   "2026-03-01",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if created.ID == "" {
		t.Error("expected generated id")
	}
	if created.UserID != "u1" {
		t.Errorf("expected user u1, got %s", created.UserID)
	}
}

func TestAddTransaction_ExpenseExceedsBalance(t *testing.T) {
	store := &memStore{
		transactions: []domain.Transaction{
			{ID: "t1", UserID: "u1", Type: domain.TransactionIncome, Amount: 100, Date: "2026-03-01"},
		},
	}
	svc := newTransactionService(store)

	_, err := svc.Add(context.Background(), "u1", &domain.TransactionRequest{
		Type:   domain.TransactionExpense,
		Amount: 150,
		Date:   "2026-03-02",
	})

	var insufficient *domain.ErrInsufficientFunds
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
	if insufficient.Available != 100 {
		t.Errorf("expected available 100, got %.2f", insufficient.Available)
	}
	if len(store.transactions) != 1 {
		t.Errorf("expected rejected expense not persisted")
	}
}

func TestAddTransaction_BorrowedLoanRaisesSpendable(t *testing.T) {
	store := &memStore{
		transactions: []domain.Transaction{
			{ID: "t1", UserID: "u1", Type: domain.TransactionIncome, Amount: 100, Date: "2026-03-01"},
		},
		loans: []domain.Loan{
			{ID: "l1", UserID: "u1", Type: domain.LoanBorrowed, Amount: 80, Date: "2026-03-01"},
		},
	}
	svc := newTransactionService(store)

	// 100 income + 80 borrowed outstanding = 180 spendable.
	if _, err := svc.Add(context.Background(), "u1", &domain.TransactionRequest{
		Type:   domain.TransactionExpense,
		Amount: 150,
		Date:   "2026-03-02",
	}); err != nil {
		t.Fatalf("expected expense within spendable balance, got %v", err)
	}
}

func TestBalance(t *testing.T) {
	store := &memStore{
		transactions: []domain.Transaction{
			{ID: "t1", UserID: "u1", Type: domain.TransactionIncome, Amount: 500, Date: "2026-03-01"},
			{ID: "t2", UserID: "u1", Type: domain.TransactionExpense, Amount: 200, Date: "2026-03-02"},
		},
		loans: []domain.Loan{
			{ID: "l1", UserID: "u1", Type: domain.LoanGiven, Amount: 100, Date: "2026-03-01"},
		},
	}
	svc := newTransactionService(store)

	balance, err := svc.Balance(context.Background(), "u1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if balance.Balance != 200 {
		t.Errorf("expected balance 200, got %.2f", balance.Balance)
	}
}

func TestListTransactions_Filter(t *testing.T) {
	store := &memStore{
		transactions: []domain.Transaction{
			{ID: "t1", UserID: "u1", Type: domain.TransactionExpense, Amount: 10, Category: "food", Date: "2026-03-01"},
			{ID: "t2", UserID: "u1", Type: domain.TransactionExpense, Amount: 20, Category: "rent", Date: "2026-03-05"},
			{ID: "t3", UserID: "u2", Type: domain.TransactionExpense, Amount: 30, Category: "food", Date: "2026-03-01"},
		},
	}
	svc := newTransactionService(store)

	txs, err := svc.List(context.Background(), "u1", domain.TransactionFilter{Category: "food"})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(txs) != 1 || txs[0].ID != "t1" {
		t.Fatalf("unexpected filter result: %+v", txs)
	}
}

func newLoanService(store *memStore) *service.LoanService {
	return service.NewLoanService(
		store,
		cache.New[*domain.DashboardSummary](time.Minute),
		observability.NewMetrics(),
		zap.NewNop(),
	)
}

func TestAddLoan_GivenExceedsBalance(t *testing.T) {
	store := &memStore{
		transactions: []domain.Transaction{
			{ID: "t1", UserID: "u1", Type: domain.TransactionIncome, Amount: 50, Date: "2026-03-01"},
		},
	}
	svc := newLoanService(store)

	_, err := svc.Add(context.Background(), "u1", &domain.LoanRequest{
		Type:       domain.LoanGiven,
		PersonName: "Bruno",
		Amount:     80,
		Date:       "2026-03-02",
	})

	var insufficient *domain.ErrInsufficientFunds
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected insufficient funds, got %v", err)
	}
}

func TestAddLoan_BorrowedSkipsGuard(t *testing.T) {
	store := &memStore{}
	svc := newLoanService(store)

	created, err := svc.Add(context.Background(), "u1", &domain.LoanRequest{
		Type:       domain.LoanBorrowed,
		PersonName: "Bruno",
		Amount:     500,
		Date:       "2026-03-02",
	})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if created.Amount != 500 {
		t.Errorf("expected amount 500, got %.2f", created.Amount)
	}
}

func TestUpdateLoan_MarkPaid(t *testing.T) {
	store := &memStore{
		loans: []domain.Loan{
			{ID: "l1", UserID: "u1", Type: domain.LoanGiven, Amount: 100, Date: "2026-03-01"},
		},
	}
	svc := newLoanService(store)

	updated, err := svc.Update(context.Background(), "u1", "l1", map[string]any{"is_paid": true})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !updated.IsPaid {
		t.Error("expected loan marked paid")
	}
}
