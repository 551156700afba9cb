package service

import (
	"context"
	"time"

	"github.com/davigor/finance-tracker-go/internal/domain"
	"github.com/davigor/finance-tracker-go/internal/infra/observability"
	"github.com/davigor/finance-tracker-go/internal/ledger"
	"github.com/davigor/finance-tracker-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var txTracer = otel.Tracer("service/transactions")

// TransactionService handles income and expense records. Expense
// creation is guarded by the spendable balance so the ledger never
// goes negative.
type TransactionService struct {
	store   port.FinanceStore
	cache   port.Cache[*domain.DashboardSummary]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewTransactionService creates a new transaction service.
func NewTransactionService(store port.FinanceStore, cache port.Cache[*domain.DashboardSummary], metrics *observability.Metrics, logger *zap.Logger) *TransactionService {
	return &TransactionService{store: store, cache: cache, metrics: metrics, logger: logger}
}

// ============================================================
// List — GET /api/transactions
// ============================================================

func (s *TransactionService) List(ctx context.Context, userID string, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionService.List")
	defer span.End()

	txs, err := s.store.ListTransactions(ctx, userID, filter)
	if err != nil {
		s.metrics.IncrStoreError("transactions")
		return nil, err
	}
	return txs, nil
}

// ============================================================
// Add — POST /api/transactions
// ============================================================

func (s *TransactionService) Add(ctx context.Context, userID string, req *domain.TransactionRequest) (*domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionService.Add")
	defer span.End()

	if req.Type == domain.TransactionExpense {
		available, err := s.spendable(ctx, userID)
		if err != nil {
			return nil, err
		}
		if req.Amount > available {
			return nil, &domain.ErrInsufficientFunds{Available: available, Required: req.Amount}
		}
	}

	tx := &domain.Transaction{
		ID:          uuid.New().String(),
		UserID:      userID,
		Type:        req.Type,
		Amount:      req.Amount,
		Category:    req.Category,
		Description: req.Description,
		Date:        req.Date,
	}

	created, err := s.store.CreateTransaction(ctx, tx)
	if err != nil {
		s.metrics.IncrStoreError("transactions")
		return nil, err
	}

	s.cache.Delete(userID)
	s.logger.Info("transaction created",
		zap.String("user_id", userID),
		zap.String("transaction_id", created.ID),
		zap.String("type", created.Type),
		zap.Float64("amount", created.Amount),
	)
	return created, nil
}

// ============================================================
// Update — PUT /api/transactions/{id}
// ============================================================

func (s *TransactionService) Update(ctx context.Context, userID, transactionID string, req *domain.TransactionRequest) (*domain.Transaction, error) {
	ctx, span := txTracer.Start(ctx, "TransactionService.Update")
	defer span.End()

	updates := map[string]any{
		"type":        req.Type,
		"amount":      req.Amount,
		"category":    req.Category,
		"description": req.Description,
		"date":        req.Date,
	}

	updated, err := s.store.UpdateTransaction(ctx, userID, transactionID, updates)
	if err != nil {
		return nil, err
	}

	s.cache.Delete(userID)
	s.logger.Info("transaction updated",
		zap.String("user_id", userID),
		zap.String("transaction_id", transactionID),
	)
	return updated, nil
}

// ============================================================
// Delete — DELETE /api/transactions/{id}
// ============================================================

func (s *TransactionService) Delete(ctx context.Context, userID, transactionID string) error {
	ctx, span := txTracer.Start(ctx, "TransactionService.Delete")
	defer span.End()

	if err := s.store.DeleteTransaction(ctx, userID, transactionID); err != nil {
		s.metrics.IncrStoreError("transactions")
		return err
	}

	s.cache.Delete(userID)
	s.logger.Info("transaction deleted",
		zap.String("user_id", userID),
		zap.String("transaction_id", transactionID),
	)
	return nil
}

// Balance returns the spendable balance for the user.
func (s *TransactionService) Balance(ctx context.Context, userID string) (*domain.BalanceResponse, error) {
	ctx, span := txTracer.Start(ctx, "TransactionService.Balance")
	defer span.End()

	balance, err := s.spendable(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &domain.BalanceResponse{Balance: balance}, nil
}

func (s *TransactionService) spendable(ctx context.Context, userID string) (float64, error) {
	start := time.Now()
	defer s.metrics.RecordRequestDuration("spendable_balance", time.Since(start))

	txs, err := s.store.ListTransactions(ctx, userID, domain.TransactionFilter{})
	if err != nil {
		s.metrics.IncrStoreError("transactions")
		return 0, err
	}
	loans, err := s.store.ListUnpaidLoans(ctx, userID)
	if err != nil {
		s.metrics.IncrStoreError("loans")
		return 0, err
	}
	return ledger.SpendableBalance(txs, loans), nil
}
