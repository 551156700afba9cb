// Package domain defines the core business entities for the finance
// tracker. These models are independent of external services and
// represent the canonical data structures used throughout the backend.
package domain

import "time"

// ============================================================
// Transactions
// ============================================================

// Transaction types.
const (
	TransactionIncome  = "income"
	TransactionExpense = "expense"
)

// Transaction represents a single income or expense event.
// Amount is always non-negative; the sign of its effect on the
// balance is derived from Type.
type Transaction struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Type        string    `json:"type"` // income, expense
	Amount      float64   `json:"amount"`
	Category    string    `json:"category,omitempty"`
	Description string    `json:"description,omitempty"`
	Date        string    `json:"date"` // YYYY-MM-DD
	CreatedAt   time.Time `json:"created_at"`
}

// TransactionRequest is the payload to create a transaction.
type TransactionRequest struct {
	Type        string  `json:"type" validate:"required,oneof=income expense"`
	Amount      float64 `json:"amount" validate:"gte=0"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
	Date        string  `json:"date" validate:"required,datetime=2006-01-02"`
}

// TransactionFilter narrows transaction listings.
type TransactionFilter struct {
	Category  string
	StartDate string // YYYY-MM-DD inclusive
	EndDate   string // YYYY-MM-DD inclusive
}

// ============================================================
// Loans (legacy flat records)
// ============================================================

// Loan types.
const (
	LoanGiven    = "given"
	LoanBorrowed = "borrowed"
)

// Loan is a backward-compatible flat loan record with running partial
// repayment. Outstanding = Amount - PaidAmount; fully repaid loans are
// flagged with IsPaid and stop contributing to the balance.
type Loan struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Type        string    `json:"type"` // given, borrowed
	PersonName  string    `json:"person_name"`
	PhoneNumber string    `json:"phone_number,omitempty"`
	Amount      float64   `json:"amount"`
	PaidAmount  *float64  `json:"paid_amount,omitempty"` // nil means 0
	IsPaid      bool      `json:"is_paid"`
	Description string    `json:"description,omitempty"`
	Date        string    `json:"date"` // YYYY-MM-DD
	CreatedAt   time.Time `json:"created_at"`
}

// Outstanding returns the unpaid remainder of the loan.
func (l *Loan) Outstanding() float64 {
	paid := 0.0
	if l.PaidAmount != nil {
		paid = *l.PaidAmount
	}
	return l.Amount - paid
}

// LoanRequest is the payload to create a legacy loan.
type LoanRequest struct {
	Type        string   `json:"type" validate:"required,oneof=given borrowed"`
	PersonName  string   `json:"person_name" validate:"required"`
	PhoneNumber string   `json:"phone_number,omitempty"`
	Amount      float64  `json:"amount" validate:"gt=0"`
	PaidAmount  *float64 `json:"paid_amount,omitempty"`
	IsPaid      bool     `json:"is_paid"`
	Description string   `json:"description,omitempty"`
	Date        string   `json:"date" validate:"required,datetime=2006-01-02"`
}

// ============================================================
// Loan contacts + activity ledger
// ============================================================

// LoanContact is a named counterparty with a running ledger of
// activities. Name is unique per user (case-insensitive).
type LoanContact struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Name           string    `json:"name"`
	PhoneNumber    string    `json:"phone_number,omitempty"`
	Email          string    `json:"email,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	InitialBalance float64   `json:"initial_balance"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ContactRequest is the payload to create or update a contact.
type ContactRequest struct {
	Name           string  `json:"name" validate:"required"`
	PhoneNumber    string  `json:"phone_number,omitempty"`
	Email          string  `json:"email,omitempty" validate:"omitempty,email"`
	Notes          string  `json:"notes,omitempty"`
	InitialBalance float64 `json:"initial_balance"`
}

// ContactSummary is a contact enriched with its derived ledger state.
type ContactSummary struct {
	LoanContact
	CurrentBalance float64 `json:"current_balance"`
	ActivityCount  int     `json:"activity_count"`
}

// ContactDetail is the full view of one contact: lifetime totals per
// activity type plus the current outstanding balance.
type ContactDetail struct {
	LoanContact
	CurrentBalance  float64 `json:"current_balance"`
	TotalGiven      float64 `json:"total_given"`
	TotalBorrowed   float64 `json:"total_borrowed"`
	TotalPaidToYou  float64 `json:"total_paid_to_you"`
	TotalYouPaid    float64 `json:"total_you_paid"`
	ActivityCount   int     `json:"activity_count"`
}

// Activity types. The four values are the only legal entries in the
// ledger; anything else is rejected before persistence.
const (
	ActivityGiven           = "given"
	ActivityBorrowed        = "borrowed"
	ActivityPaymentReceived = "payment_received"
	ActivityPaymentMade     = "payment_made"
)

// LoanActivity is one signed ledger entry against a contact.
// BalanceAfter is a derived field: the running total after this entry
// in (ActivityDate, CreatedAt) ascending order.
type LoanActivity struct {
	ID           string    `json:"id"`
	UserID       string    `json:"user_id"`
	ContactID    string    `json:"contact_id"`
	ActivityType string    `json:"activity_type"`
	Amount       float64   `json:"amount"`
	BalanceAfter float64   `json:"balance_after"`
	Description  string    `json:"description,omitempty"`
	ActivityDate string    `json:"activity_date"` // YYYY-MM-DD
	CreatedAt    time.Time `json:"created_at"`
}

// ActivityRequest is the payload to append a ledger entry.
type ActivityRequest struct {
	ActivityType string  `json:"activity_type" validate:"required,oneof=given borrowed payment_received payment_made"`
	Amount       float64 `json:"amount" validate:"gt=0"`
	Description  string  `json:"description,omitempty"`
	ActivityDate string  `json:"activity_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// ============================================================
// Dashboard
// ============================================================

// MonthlyPoint is one month's aggregated income and expense.
type MonthlyPoint struct {
	Month   string  `json:"month"` // YYYY-MM
	Income  float64 `json:"income"`
	Expense float64 `json:"expense"`
}

// DashboardSummary is the aggregate view over one user's whole ledger.
// LoanGiven/LoanBorrowed are outstanding figures (latest balance per
// contact plus unpaid legacy loans), not lifetime activity totals.
type DashboardSummary struct {
	TotalBalance       float64        `json:"total_balance"`
	TotalIncome        float64        `json:"total_income"`
	TotalExpenses      float64        `json:"total_expenses"`
	LoanGiven          float64        `json:"loan_given"`
	LoanBorrowed       float64        `json:"loan_borrowed"`
	MonthlyData        []MonthlyPoint `json:"monthly_data"`
	RecentTransactions []Transaction  `json:"recent_transactions"`
}

// BalanceResponse is the current spendable balance, the figure the
// insufficient-balance guard checks against.
type BalanceResponse struct {
	Balance float64 `json:"balance"`
}

// ============================================================
// Auth / profiles
// ============================================================

// Profile mirrors the profiles table row created alongside a Supabase
// Auth user.
type Profile struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// SignupRequest is the payload to create an account.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Name     string `json:"name" validate:"required"`
}

// LoginRequest is the payload to authenticate.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries the app token after signup or login.
type AuthResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	UserID  string `json:"user_id"`
	Name    string `json:"name,omitempty"`
}

// TokenInfo is the result of validating a bearer token.
type TokenInfo struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"user_id,omitempty"`
	Name   string `json:"name,omitempty"`
}

// ============================================================
// Advisor
// ============================================================

// SpendingAnalysis summarizes spending patterns for the advisor.
type SpendingAnalysis struct {
	TotalIncome        float64            `json:"total_income"`
	TotalExpenses      float64            `json:"total_expenses"`
	TopExpenseCategory string             `json:"top_expense_category,omitempty"`
	CategorySpending   map[string]float64 `json:"category_spending,omitempty"`
}

// AdviceResponse is the advisor's output.
type AdviceResponse struct {
	Advice string `json:"advice"`
}

// ============================================================
// Health
// ============================================================

// ServiceHealth is one dependency's health snapshot.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latency_ms"`
	LastChecked string `json:"last_checked"`
}

// HealthStatus is the aggregate health report.
type HealthStatus struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
}
