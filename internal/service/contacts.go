package service

import (
	"context"
	"sync"
	"time"

	"github.com/davigor/finance-tracker-go/internal/domain"
	"github.com/davigor/finance-tracker-go/internal/infra/observability"
	"github.com/davigor/finance-tracker-go/internal/ledger"
	"github.com/davigor/finance-tracker-go/internal/port"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var contactTracer = otel.Tracer("service/contacts")

// ContactService manages loan contacts and their activity ledgers.
// All ledger mutations for one contact are serialized through a
// per-contact mutex: appending computes balance_after from the latest
// entry, and deleting rewrites the chain, so interleaving two of them
// would corrupt the running balances.
type ContactService struct {
	store   port.FinanceStore
	cache   port.Cache[*domain.DashboardSummary]
	metrics *observability.Metrics
	logger  *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewContactService creates a new contact service.
func NewContactService(store port.FinanceStore, cache port.Cache[*domain.DashboardSummary], metrics *observability.Metrics, logger *zap.Logger) *ContactService {
	return &ContactService{
		store:   store,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		locks:   make(map[string]*sync.Mutex),
	}
}

// contactLock returns the mutex guarding one contact's ledger. Locks
// are never removed; the map grows with the number of distinct
// contacts mutated since startup, which is small.
func (s *ContactService) contactLock(contactID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.locks[contactID]; ok {
		return l
	}
	l := &sync.Mutex{}
	s.locks[contactID] = l
	return l
}

// ============================================================
// Contacts CRUD
// ============================================================

// List returns all contacts with their derived ledger state.
func (s *ContactService) List(ctx context.Context, userID string) ([]domain.ContactSummary, error) {
	ctx, span := contactTracer.Start(ctx, "ContactService.List")
	defer span.End()

	contacts, err := s.store.ListContacts(ctx, userID)
	if err != nil {
		s.metrics.IncrStoreError("loan_contacts")
		return nil, err
	}

	summaries := make([]domain.ContactSummary, 0, len(contacts))
	for _, contact := range contacts {
		activities, err := s.store.ListActivities(ctx, contact.ID)
		if err != nil {
			s.metrics.IncrStoreError("loan_activities")
			return nil, err
		}
		summaries = append(summaries, domain.ContactSummary{
			LoanContact:    contact,
			CurrentBalance: ledger.LatestBalance(activities),
			ActivityCount:  len(activities),
		})
	}
	return summaries, nil
}

// Get returns one contact with lifetime totals and its activities.
func (s *ContactService) Get(ctx context.Context, userID, contactID string) (*domain.ContactDetail, []domain.LoanActivity, error) {
	ctx, span := contactTracer.Start(ctx, "ContactService.Get")
	defer span.End()

	contact, err := s.store.GetContact(ctx, userID, contactID)
	if err != nil {
		return nil, nil, err
	}

	activities, err := s.store.ListActivities(ctx, contactID)
	if err != nil {
		s.metrics.IncrStoreError("loan_activities")
		return nil, nil, err
	}

	detail := &domain.ContactDetail{
		LoanContact:    *contact,
		CurrentBalance: ledger.LatestBalance(activities),
		ActivityCount:  len(activities),
	}
	for _, a := range activities {
		switch a.ActivityType {
		case domain.ActivityGiven:
			detail.TotalGiven += a.Amount
		case domain.ActivityBorrowed:
			detail.TotalBorrowed += a.Amount
		case domain.ActivityPaymentReceived:
			detail.TotalPaidToYou += a.Amount
		case domain.ActivityPaymentMade:
			detail.TotalYouPaid += a.Amount
		}
	}
	return detail, activities, nil
}

// Create adds a contact. Names are unique per user, compared
// case-insensitively.
func (s *ContactService) Create(ctx context.Context, userID string, req *domain.ContactRequest) (*domain.LoanContact, error) {
	ctx, span := contactTracer.Start(ctx, "ContactService.Create")
	defer span.End()

	existing, err := s.store.FindContactByName(ctx, userID, req.Name)
	if err != nil {
		s.metrics.IncrStoreError("loan_contacts")
		return nil, err
	}
	if existing != nil {
		return nil, &domain.ErrConflict{Message: "a contact with this name already exists"}
	}

	contact := &domain.LoanContact{
		ID:             uuid.New().String(),
		UserID:         userID,
		Name:           req.Name,
		PhoneNumber:    req.PhoneNumber,
		Email:          req.Email,
		Notes:          req.Notes,
		InitialBalance: req.InitialBalance,
	}

	created, err := s.store.CreateContact(ctx, contact)
	if err != nil {
		s.metrics.IncrStoreError("loan_contacts")
		return nil, err
	}

	s.logger.Info("contact created",
		zap.String("user_id", userID),
		zap.String("contact_id", created.ID),
	)
	return created, nil
}

// Update edits contact fields. A rename checks uniqueness against the
// other contacts of the same user.
func (s *ContactService) Update(ctx context.Context, userID, contactID string, updates map[string]any) (*domain.LoanContact, error) {
	ctx, span := contactTracer.Start(ctx, "ContactService.Update")
	defer span.End()

	if len(updates) == 0 {
		return nil, &domain.ErrValidation{Field: "body", Message: "no fields to update"}
	}

	if name, ok := updates["name"].(string); ok && name != "" {
		existing, err := s.store.FindContactByName(ctx, userID, name)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != contactID {
			return nil, &domain.ErrConflict{Message: "a contact with this name already exists"}
		}
	}

	updated, err := s.store.UpdateContact(ctx, userID, contactID, updates)
	if err != nil {
		return nil, err
	}

	s.logger.Info("contact updated",
		zap.String("user_id", userID),
		zap.String("contact_id", contactID),
	)
	return updated, nil
}

// Delete removes a contact and its whole activity ledger.
func (s *ContactService) Delete(ctx context.Context, userID, contactID string) error {
	ctx, span := contactTracer.Start(ctx, "ContactService.Delete")
	defer span.End()

	lock := s.contactLock(contactID)
	lock.Lock()
	defer lock.Unlock()

	// Ownership check before the cascade.
	if _, err := s.store.GetContact(ctx, userID, contactID); err != nil {
		return err
	}

	cascaded, err := s.store.CountActivities(ctx, contactID)
	if err != nil {
		s.logger.Warn("count activities failed",
			zap.String("contact_id", contactID),
			zap.Error(err),
		)
	}

	if err := s.store.DeleteActivitiesByContact(ctx, contactID); err != nil {
		s.metrics.IncrStoreError("loan_activities")
		return err
	}
	if err := s.store.DeleteContact(ctx, userID, contactID); err != nil {
		s.metrics.IncrStoreError("loan_contacts")
		return err
	}

	s.cache.Delete(userID)
	s.logger.Info("contact deleted",
		zap.String("user_id", userID),
		zap.String("contact_id", contactID),
		zap.Int("cascaded_activities", cascaded),
	)
	return nil
}

// ============================================================
// Activity ledger
// ============================================================

// Activities returns one contact's ledger entries, newest first.
func (s *ContactService) Activities(ctx context.Context, userID, contactID string) ([]domain.LoanActivity, error) {
	ctx, span := contactTracer.Start(ctx, "ContactService.Activities")
	defer span.End()

	if _, err := s.store.GetContact(ctx, userID, contactID); err != nil {
		return nil, err
	}

	activities, err := s.store.ListActivities(ctx, contactID)
	if err != nil {
		s.metrics.IncrStoreError("loan_activities")
		return nil, err
	}

	// The store returns chain order; the API serves newest first.
	for i, j := 0, len(activities)-1; i < j; i, j = i+1, j-1 {
		activities[i], activities[j] = activities[j], activities[i]
	}
	return activities, nil
}

// AddActivity appends one ledger entry. The new balance_after is the
// latest remaining balance plus the entry's signed effect; the
// per-contact lock keeps concurrent appends from reading the same
// predecessor.
func (s *ContactService) AddActivity(ctx context.Context, userID, contactID string, req *domain.ActivityRequest) (*domain.LoanActivity, error) {
	ctx, span := contactTracer.Start(ctx, "ContactService.AddActivity")
	defer span.End()
	span.SetAttributes(attribute.String("activity_type", req.ActivityType))

	if _, ok := ledger.Effect(req.ActivityType); !ok {
		return nil, &domain.ErrValidation{Field: "activity_type", Message: "unknown activity type"}
	}

	lock := s.contactLock(contactID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.store.GetContact(ctx, userID, contactID); err != nil {
		return nil, err
	}

	activities, err := s.store.ListActivities(ctx, contactID)
	if err != nil {
		s.metrics.IncrStoreError("loan_activities")
		return nil, err
	}

	activityDate := req.ActivityDate
	if activityDate == "" {
		activityDate = time.Now().Format("2006-01-02")
	}

	activity := &domain.LoanActivity{
		ID:           uuid.New().String(),
		UserID:       userID,
		ContactID:    contactID,
		ActivityType: req.ActivityType,
		Amount:       req.Amount,
		BalanceAfter: ledger.Apply(ledger.LatestBalance(activities), req.ActivityType, req.Amount),
		Description:  req.Description,
		ActivityDate: activityDate,
	}

	created, err := s.store.CreateActivity(ctx, activity)
	if err != nil {
		s.metrics.IncrStoreError("loan_activities")
		return nil, err
	}

	if err := s.store.TouchContact(ctx, contactID); err != nil {
		s.logger.Warn("touch contact failed",
			zap.String("contact_id", contactID),
			zap.Error(err),
		)
	}

	s.cache.Delete(userID)
	s.logger.Info("activity added",
		zap.String("user_id", userID),
		zap.String("contact_id", contactID),
		zap.String("activity_id", created.ID),
		zap.String("activity_type", created.ActivityType),
		zap.Float64("balance_after", created.BalanceAfter),
	)
	return created, nil
}

// DeleteActivity removes one ledger entry and rewrites the running
// balances of every entry after it. Returns the contact's balance
// after the rewrite.
func (s *ContactService) DeleteActivity(ctx context.Context, userID, contactID, activityID string) (float64, error) {
	ctx, span := contactTracer.Start(ctx, "ContactService.DeleteActivity")
	defer span.End()

	lock := s.contactLock(contactID)
	lock.Lock()
	defer lock.Unlock()

	if _, err := s.store.GetContact(ctx, userID, contactID); err != nil {
		return 0, err
	}

	deleted, err := s.store.GetActivity(ctx, contactID, activityID)
	if err != nil {
		return 0, err
	}
	deletedKey := ledger.KeyOf(deleted)

	if err := s.store.DeleteActivity(ctx, contactID, activityID); err != nil {
		s.metrics.IncrStoreError("loan_activities")
		return 0, err
	}

	remaining, err := s.store.ListActivities(ctx, contactID)
	if err != nil {
		s.metrics.IncrStoreError("loan_activities")
		return 0, err
	}

	updates, newBalance := ledger.Rebalance(remaining, deletedKey)
	s.metrics.RecordRebalanceWalk(len(updates))

	if len(updates) > 0 {
		// The store upserts whole rows, so hand it the full entries
		// with their recomputed balances applied.
		rebalanced := make(map[string]float64, len(updates))
		for _, u := range updates {
			rebalanced[u.ActivityID] = u.BalanceAfter
		}
		rows := make([]domain.LoanActivity, 0, len(updates))
		for _, a := range remaining {
			if balance, ok := rebalanced[a.ID]; ok {
				a.BalanceAfter = balance
				rows = append(rows, a)
			}
		}
		if err := s.store.ApplyRebalance(ctx, contactID, rows); err != nil {
			s.metrics.IncrStoreError("loan_activities")
			return 0, err
		}
	}

	if err := s.store.TouchContact(ctx, contactID); err != nil {
		s.logger.Warn("touch contact failed",
			zap.String("contact_id", contactID),
			zap.Error(err),
		)
	}

	s.cache.Delete(userID)
	s.logger.Info("activity deleted",
		zap.String("user_id", userID),
		zap.String("contact_id", contactID),
		zap.String("activity_id", activityID),
		zap.Int("rebalanced_entries", len(updates)),
		zap.Float64("new_balance", newBalance),
	)
	return newBalance, nil
}
