package service

import (
	"context"
	"fmt"

	"github.com/davigor/finance-tracker-go/internal/domain"
	"github.com/davigor/finance-tracker-go/internal/infra/observability"
	"github.com/davigor/finance-tracker-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var advisorTracer = otel.Tracer("service/advisor")

// AdvisorService produces rule-based spending advice from the user's
// transaction history.
type AdvisorService struct {
	store   port.FinanceStore
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewAdvisorService creates a new advisor service.
func NewAdvisorService(store port.FinanceStore, metrics *observability.Metrics, logger *zap.Logger) *AdvisorService {
	return &AdvisorService{store: store, metrics: metrics, logger: logger}
}

// Advice analyzes the user's spending and returns a short text
// recommendation.
func (s *AdvisorService) Advice(ctx context.Context, userID string) (*domain.AdviceResponse, error) {
	ctx, span := advisorTracer.Start(ctx, "AdvisorService.Advice")
	defer span.End()

	transactions, err := s.store.ListTransactions(ctx, userID, domain.TransactionFilter{})
	if err != nil {
		s.metrics.IncrStoreError("transactions")
		return nil, err
	}

	analysis := analyzeSpending(transactions)
	return &domain.AdviceResponse{Advice: adviceFor(analysis)}, nil
}

func analyzeSpending(transactions []domain.Transaction) *domain.SpendingAnalysis {
	analysis := &domain.SpendingAnalysis{
		CategorySpending: make(map[string]float64),
	}
	for i := range transactions {
		t := &transactions[i]
		switch t.Type {
		case domain.TransactionIncome:
			analysis.TotalIncome += t.Amount
		case domain.TransactionExpense:
			analysis.TotalExpenses += t.Amount
			category := t.Category
			if category == "" {
				category = "uncategorized"
			}
			analysis.CategorySpending[category] += t.Amount
		}
	}

	top, topAmount := "", 0.0
	for category, amount := range analysis.CategorySpending {
		if amount > topAmount || (amount == topAmount && category < top) {
			top, topAmount = category, amount
		}
	}
	analysis.TopExpenseCategory = top
	return analysis
}

func adviceFor(a *domain.SpendingAnalysis) string {
	if a.TotalIncome == 0 && a.TotalExpenses == 0 {
		return "No transactions yet. Start by recording your income and expenses to get personalized advice."
	}
	if a.TotalExpenses > a.TotalIncome {
		return fmt.Sprintf(
			"You are spending more than you earn: expenses %.2f against income %.2f. Your biggest expense category is %s; cutting back there would have the largest impact.",
			a.TotalExpenses, a.TotalIncome, a.TopExpenseCategory)
	}

	savingsRate := 0.0
	if a.TotalIncome > 0 {
		savingsRate = (a.TotalIncome - a.TotalExpenses) / a.TotalIncome * 100
	}
	switch {
	case savingsRate >= 20:
		return fmt.Sprintf("You are saving %.0f%% of your income, which is a healthy rate. Keep it up.", savingsRate)
	case savingsRate >= 10:
		return fmt.Sprintf(
			"You are saving %.0f%% of your income. Aim for 20%%; your biggest expense category is %s.",
			savingsRate, a.TopExpenseCategory)
	default:
		return fmt.Sprintf(
			"Your savings rate is %.0f%%, which leaves little buffer. Review your spending on %s first.",
			savingsRate, a.TopExpenseCategory)
	}
}
