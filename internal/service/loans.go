package service

import (
	"context"

	"github.com/davigor/finance-tracker-go/internal/domain"
	"github.com/davigor/finance-tracker-go/internal/infra/observability"
	"github.com/davigor/finance-tracker-go/internal/ledger"
	"github.com/davigor/finance-tracker-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var loanTracer = otel.Tracer("service/loans")

// LoanService handles the flat legacy loan records. Lending money out
// is treated as spending, so loans given are guarded by the spendable
// balance like expenses are.
type LoanService struct {
	store   port.FinanceStore
	cache   port.Cache[*domain.DashboardSummary]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewLoanService creates a new loan service.
func NewLoanService(store port.FinanceStore, cache port.Cache[*domain.DashboardSummary], metrics *observability.Metrics, logger *zap.Logger) *LoanService {
	return &LoanService{store: store, cache: cache, metrics: metrics, logger: logger}
}

func (s *LoanService) List(ctx context.Context, userID string) ([]domain.Loan, error) {
	ctx, span := loanTracer.Start(ctx, "LoanService.List")
	defer span.End()

	loans, err := s.store.ListLoans(ctx, userID)
	if err != nil {
		s.metrics.IncrStoreError("loans")
		return nil, err
	}
	return loans, nil
}

func (s *LoanService) Add(ctx context.Context, userID string, req *domain.LoanRequest) (*domain.Loan, error) {
	ctx, span := loanTracer.Start(ctx, "LoanService.Add")
	defer span.End()

	if req.Type == domain.LoanGiven {
		available, err := s.spendable(ctx, userID)
		if err != nil {
			return nil, err
		}
		if req.Amount > available {
			return nil, &domain.ErrInsufficientFunds{Available: available, Required: req.Amount}
		}
	}

	loan := &domain.Loan{
		ID:          uuid.New().String(),
		UserID:      userID,
		Type:        req.Type,
		PersonName:  req.PersonName,
		PhoneNumber: req.PhoneNumber,
		Amount:      req.Amount,
		PaidAmount:  req.PaidAmount,
		IsPaid:      req.IsPaid,
		Description: req.Description,
		Date:        req.Date,
	}

	created, err := s.store.CreateLoan(ctx, loan)
	if err != nil {
		s.metrics.IncrStoreError("loans")
		return nil, err
	}

	s.cache.Delete(userID)
	s.logger.Info("loan created",
		zap.String("user_id", userID),
		zap.String("loan_id", created.ID),
		zap.String("type", created.Type),
		zap.Float64("amount", created.Amount),
	)
	return created, nil
}

func (s *LoanService) Update(ctx context.Context, userID, loanID string, updates map[string]any) (*domain.Loan, error) {
	ctx, span := loanTracer.Start(ctx, "LoanService.Update")
	defer span.End()

	if len(updates) == 0 {
		return nil, &domain.ErrValidation{Field: "body", Message: "no fields to update"}
	}

	updated, err := s.store.UpdateLoan(ctx, userID, loanID, updates)
	if err != nil {
		return nil, err
	}

	s.cache.Delete(userID)
	s.logger.Info("loan updated",
		zap.String("user_id", userID),
		zap.String("loan_id", loanID),
	)
	return updated, nil
}

func (s *LoanService) Delete(ctx context.Context, userID, loanID string) error {
	ctx, span := loanTracer.Start(ctx, "LoanService.Delete")
	defer span.End()

	if err := s.store.DeleteLoan(ctx, userID, loanID); err != nil {
		s.metrics.IncrStoreError("loans")
		return err
	}

	s.cache.Delete(userID)
	s.logger.Info("loan deleted",
		zap.String("user_id", userID),
		zap.String("loan_id", loanID),
	)
	return nil
}

func (s *LoanService) spendable(ctx context.Context, userID string) (float64, error) {
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
