// Package port defines the interfaces (ports) for external
// dependencies. Following hexagonal architecture, these ports decouple
// the domain/service layer from concrete implementations.
package port

import (
	"context"

	"github.com/davigor/finance-tracker-go/internal/domain"
)

// FinanceStore defines all persistence operations for the tracker.
// Implemented by the Supabase adapter (or any other persistence layer).
// Every query is scoped by user_id; the store treats rows owned by
// other users as nonexistent.
type FinanceStore interface {
	// Transactions
	ListTransactions(ctx context.Context, userID string, filter domain.TransactionFilter) ([]domain.Transaction, error)
	CreateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, transactionID string, updates map[string]any) (*domain.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, transactionID string) error

	// Legacy loans
	ListLoans(ctx context.Context, userID string) ([]domain.Loan, error)
	ListUnpaidLoans(ctx context.Context, userID string) ([]domain.Loan, error)
	CreateLoan(ctx context.Context, loan *domain.Loan) (*domain.Loan, error)
	UpdateLoan(ctx context.Context, userID, loanID string, updates map[string]any) (*domain.Loan, error)
	DeleteLoan(ctx context.Context, userID, loanID string) error

	// Loan contacts
	ListContacts(ctx context.Context, userID string) ([]domain.LoanContact, error)
	GetContact(ctx context.Context, userID, contactID string) (*domain.LoanContact, error)
	FindContactByName(ctx context.Context, userID, name string) (*domain.LoanContact, error)
	CreateContact(ctx context.Context, contact *domain.LoanContact) (*domain.LoanContact, error)
	UpdateContact(ctx context.Context, userID, contactID string, updates map[string]any) (*domain.LoanContact, error)
	DeleteContact(ctx context.Context, userID, contactID string) error
	TouchContact(ctx context.Context, contactID string) error

	// Loan activities
	ListActivities(ctx context.Context, contactID string) ([]domain.LoanActivity, error)
	ListActivitiesByUser(ctx context.Context, userID string) ([]domain.LoanActivity, error)
	GetActivity(ctx context.Context, contactID, activityID string) (*domain.LoanActivity, error)
	CreateActivity(ctx context.Context, activity *domain.LoanActivity) (*domain.LoanActivity, error)
	DeleteActivity(ctx context.Context, contactID, activityID string) error
	DeleteActivitiesByContact(ctx context.Context, contactID string) error
	CountActivities(ctx context.Context, contactID string) (int, error)
	// ApplyRebalance persists a whole recompute pass as one request so
	// readers never observe a partially-rebalanced chain. Rows carry the
	// complete activity, not just the recomputed balance: an upsert
	// validates the insert tuple against column constraints before
	// conflict resolution hands it to the update arm.
	ApplyRebalance(ctx context.Context, contactID string, rows []domain.LoanActivity) error
}

// ProfileStore reads and writes the profiles table kept in sync with
// the identity provider.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID string) (*domain.Profile, error)
	CreateProfile(ctx context.Context, profile *domain.Profile) error
	UpdateProfileName(ctx context.Context, userID, name string) error
}

// IdentityProvider delegates credential verification to the external
// identity collaborator. The core trusts the returned user id as the
// tenant boundary.
type IdentityProvider interface {
	SignUp(ctx context.Context, email, password string) (userID string, err error)
	SignIn(ctx context.Context, email, password string) (userID string, err error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}
