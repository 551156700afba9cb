package service

import (
	"context"
	"time"

	"github.com/davigor/finance-tracker-go/internal/domain"
	"github.com/davigor/finance-tracker-go/internal/infra/observability"
	"github.com/davigor/finance-tracker-go/internal/ledger"
	"github.com/davigor/finance-tracker-go/internal/port"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var dashboardTracer = otel.Tracer("service/dashboard")

// DashboardService builds the aggregate view over one user's data.
// The four source fetches are independent and run concurrently; the
// fold itself is pure and lives in the ledger package.
type DashboardService struct {
	store   port.FinanceStore
	cache   port.Cache[*domain.DashboardSummary]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewDashboardService creates a new dashboard service.
func NewDashboardService(store port.FinanceStore, cache port.Cache[*domain.DashboardSummary], metrics *observability.Metrics, logger *zap.Logger) *DashboardService {
	return &DashboardService{store: store, cache: cache, metrics: metrics, logger: logger}
}

// Summary returns the dashboard for one user, cached per user between
// mutations.
func (s *DashboardService) Summary(ctx context.Context, userID string) (*domain.DashboardSummary, error) {
	ctx, span := dashboardTracer.Start(ctx, "DashboardService.Summary")
	defer span.End()

	if cached, ok := s.cache.Get(userID); ok {
		s.metrics.IncrCacheHit("dashboard")
		return cached, nil
	}
	s.metrics.IncrCacheMiss("dashboard")

	start := time.Now()
	defer s.metrics.RecordRequestDuration("dashboard_summary", time.Since(start))

	var (
		transactions []domain.Transaction
		loans        []domain.Loan
		activities   []domain.LoanActivity
		contacts     []domain.LoanContact
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		transactions, err = s.store.ListTransactions(gctx, userID, domain.TransactionFilter{})
		return err
	})
	g.Go(func() error {
		var err error
		loans, err = s.store.ListLoans(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		activities, err = s.store.ListActivitiesByUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		contacts, err = s.store.ListContacts(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.metrics.IncrStoreError("dashboard")
		return nil, err
	}

	summary := ledger.Aggregate(ledger.AggregateInput{
		Transactions:    transactions,
		LegacyLoans:     loans,
		LoanActivities:  activities,
		ContactBalances: contactBalances(contacts, activities),
	})

	s.cache.Set(userID, &summary)
	s.logger.Debug("dashboard computed",
		zap.String("user_id", userID),
		zap.Int("transactions", len(transactions)),
		zap.Int("loans", len(loans)),
		zap.Int("activities", len(activities)),
	)
	return &summary, nil
}

// contactBalances derives the latest running balance per contact from
// the user's full activity set, grouped in memory rather than queried
// per contact.
func contactBalances(contacts []domain.LoanContact, activities []domain.LoanActivity) []float64 {
	byContact := make(map[string][]domain.LoanActivity)
	for _, a := range activities {
		byContact[a.ContactID] = append(byContact[a.ContactID], a)
	}

	balances := make([]float64, 0, len(contacts))
	for _, c := range contacts {
		group := byContact[c.ID]
		if len(group) == 0 {
			continue
		}
		ledger.SortCanonical(group)
		balances = append(balances, ledger.LatestBalance(group))
	}
	return balances
}
