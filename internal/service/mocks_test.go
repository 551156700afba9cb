package service_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/davigor/finance-tracker-go/internal/domain"
)

// --- Mocks ---

// memStore is an in-memory FinanceStore used across the service tests.
type memStore struct {
	mu            sync.Mutex
	transactions  []domain.Transaction
	loans         []domain.Loan
	contacts      []domain.LoanContact
	activities    []domain.LoanActivity
	failWith      error
	rebalances    int
	rebalanceRows []domain.LoanActivity
	countCalls    int
}

func (m *memStore) ListTransactions(_ context.Context, userID string, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := []domain.Transaction{}
	for _, t := range m.transactions {
		if t.UserID != userID {
			continue
		}
		if filter.Category != "" && t.Category != filter.Category {
			continue
		}
		if filter.StartDate != "" && t.Date < filter.StartDate {
			continue
		}
		if filter.EndDate != "" && t.Date > filter.EndDate {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *memStore) CreateTransaction(_ context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	tx.CreatedAt = time.Now()
	m.transactions = append(m.transactions, *tx)
	return tx, nil
}

func (m *memStore) UpdateTransaction(_ context.Context, userID, transactionID string, updates map[string]any) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.transactions {
		t := &m.transactions[i]
		if t.ID != transactionID || t.UserID != userID {
			continue
		}
		if v, ok := updates["amount"].(float64); ok {
			t.Amount = v
		}
		if v, ok := updates["type"].(string); ok {
			t.Type = v
		}
		return t, nil
	}
	return nil, &domain.ErrNotFound{Resource: "transaction", ID: transactionID}
}

func (m *memStore) DeleteTransaction(_ context.Context, userID, transactionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.transactions {
		if m.transactions[i].ID == transactionID && m.transactions[i].UserID == userID {
			m.transactions = append(m.transactions[:i], m.transactions[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memStore) ListLoans(_ context.Context, userID string) ([]domain.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := []domain.Loan{}
	for _, l := range m.loans {
		if l.UserID == userID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) ListUnpaidLoans(_ context.Context, userID string) ([]domain.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := []domain.Loan{}
	for _, l := range m.loans {
		if l.UserID == userID && !l.IsPaid {
			out = append(out, l)
		}
	}
	return out, nil
}

func (m *memStore) CreateLoan(_ context.Context, loan *domain.Loan) (*domain.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	loan.CreatedAt = time.Now()
	m.loans = append(m.loans, *loan)
	return loan, nil
}

func (m *memStore) UpdateLoan(_ context.Context, userID, loanID string, updates map[string]any) (*domain.Loan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.loans {
		l := &m.loans[i]
		if l.ID != loanID || l.UserID != userID {
			continue
		}
		if v, ok := updates["is_paid"].(bool); ok {
			l.IsPaid = v
		}
		if v, ok := updates["paid_amount"].(float64); ok {
			l.PaidAmount = &v
		}
		return l, nil
	}
	return nil, &domain.ErrNotFound{Resource: "loan", ID: loanID}
}

func (m *memStore) DeleteLoan(_ context.Context, userID, loanID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.loans {
		if m.loans[i].ID == loanID && m.loans[i].UserID == userID {
			m.loans = append(m.loans[:i], m.loans[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memStore) ListContacts(_ context.Context, userID string) ([]domain.LoanContact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := []domain.LoanContact{}
	for _, c := range m.contacts {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memStore) GetContact(_ context.Context, userID, contactID string) (*domain.LoanContact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.contacts {
		if m.contacts[i].ID == contactID && m.contacts[i].UserID == userID {
			c := m.contacts[i]
			return &c, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "contact", ID: contactID}
}

func (m *memStore) FindContactByName(_ context.Context, userID, name string) (*domain.LoanContact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.contacts {
		if m.contacts[i].UserID == userID && strings.EqualFold(m.contacts[i].Name, name) {
			c := m.contacts[i]
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memStore) CreateContact(_ context.Context, contact *domain.LoanContact) (*domain.LoanContact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	contact.CreatedAt = time.Now()
	contact.UpdatedAt = contact.CreatedAt
	m.contacts = append(m.contacts, *contact)
	return contact, nil
}

func (m *memStore) UpdateContact(_ context.Context, userID, contactID string, updates map[string]any) (*domain.LoanContact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.contacts {
		c := &m.contacts[i]
		if c.ID != contactID || c.UserID != userID {
			continue
		}
		if v, ok := updates["name"].(string); ok {
			c.Name = v
		}
		if v, ok := updates["notes"].(string); ok {
			c.Notes = v
		}
		return c, nil
	}
	return nil, &domain.ErrNotFound{Resource: "contact", ID: contactID}
}

func (m *memStore) DeleteContact(_ context.Context, userID, contactID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.contacts {
		if m.contacts[i].ID == contactID && m.contacts[i].UserID == userID {
			m.contacts = append(m.contacts[:i], m.contacts[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memStore) TouchContact(_ context.Context, contactID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.contacts {
		if m.contacts[i].ID == contactID {
			m.contacts[i].UpdatedAt = time.Now()
		}
	}
	return nil
}

func (m *memStore) ListActivities(_ context.Context, contactID string) ([]domain.LoanActivity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	out := []domain.LoanActivity{}
	for _, a := range m.activities {
		if a.ContactID == contactID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) ListActivitiesByUser(_ context.Context, userID string) ([]domain.LoanActivity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.LoanActivity{}
	for _, a := range m.activities {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) GetActivity(_ context.Context, contactID, activityID string) (*domain.LoanActivity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.activities {
		if m.activities[i].ID == activityID && m.activities[i].ContactID == contactID {
			a := m.activities[i]
			return &a, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "activity", ID: activityID}
}

func (m *memStore) CreateActivity(_ context.Context, activity *domain.LoanActivity) (*domain.LoanActivity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = time.Now()
	}
	m.activities = append(m.activities, *activity)
	return activity, nil
}

func (m *memStore) DeleteActivity(_ context.Context, contactID, activityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.activities {
		if m.activities[i].ID == activityID && m.activities[i].ContactID == contactID {
			m.activities = append(m.activities[:i], m.activities[i+1:]...)
			return nil
		}
	}
	return nil
}

func (m *memStore) DeleteActivitiesByContact(_ context.Context, contactID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.activities[:0]
	for _, a := range m.activities {
		if a.ContactID != contactID {
			kept = append(kept, a)
		}
	}
	m.activities = kept
	return nil
}

func (m *memStore) CountActivities(_ context.Context, contactID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countCalls++
	n := 0
	for _, a := range m.activities {
		if a.ContactID == contactID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) ApplyRebalance(_ context.Context, contactID string, rows []domain.LoanActivity) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rebalances++
	m.rebalanceRows = append([]domain.LoanActivity{}, rows...)
	for _, row := range rows {
		// A real schema rejects the upsert tuple when required columns
		// are missing, before the conflict path runs.
		if row.ID == "" || row.UserID == "" || row.ActivityType == "" || row.Amount == 0 || row.ActivityDate == "" {
			return fmt.Errorf("loan_activities upsert row %q violates not-null constraint", row.ID)
		}
	}
	byID := make(map[string]float64, len(rows))
	for _, row := range rows {
		byID[row.ID] = row.BalanceAfter
	}
	for i := range m.activities {
		if m.activities[i].ContactID != contactID {
			continue
		}
		if b, ok := byID[m.activities[i].ID]; ok {
			m.activities[i].BalanceAfter = b
		}
	}
	return nil
}

// mockIdentity satisfies port.IdentityProvider.
type mockIdentity struct {
	users map[string]string // email -> userID
	err   error
}

func (m *mockIdentity) SignUp(_ context.Context, email, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	if _, ok := m.users[email]; ok {
		return "", &domain.ErrConflict{Message: "email already registered"}
	}
	id := fmt.Sprintf("user-%d", len(m.users)+1)
	m.users[email] = id
	return id, nil
}

func (m *mockIdentity) SignIn(_ context.Context, email, password string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	id, ok := m.users[email]
	if !ok || password == "wrong" {
		return "", &domain.ErrUnauthorized{Message: "invalid email or password"}
	}
	return id, nil
}

// mockProfiles satisfies port.ProfileStore.
type mockProfiles struct {
	profiles map[string]string // userID -> name
}

func (m *mockProfiles) GetProfile(_ context.Context, userID string) (*domain.Profile, error) {
	name, ok := m.profiles[userID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "profile", ID: userID}
	}
	return &domain.Profile{ID: userID, Name: name}, nil
}

func (m *mockProfiles) CreateProfile(_ context.Context, profile *domain.Profile) error {
	m.profiles[profile.ID] = profile.Name
	return nil
}

func (m *mockProfiles) UpdateProfileName(_ context.Context, userID, name string) error {
	m.profiles[userID] = name
	return nil
}
