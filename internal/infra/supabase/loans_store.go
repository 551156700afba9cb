package supabase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/davigor/finance-tracker-go/internal/domain"
)

// ============================================================
// Legacy loans — CRUD via PostgREST
// ============================================================

func (c *Client) ListLoans(ctx context.Context, userID string) ([]domain.Loan, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListLoans")
	defer span.End()

	path := fmt.Sprintf("loans?user_id=eq.%s&order=date.desc", userID)
	body, err := c.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}

	rows := []domain.Loan{}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode loans: %w", err)
	}
	return rows, nil
}

func (c *Client) ListUnpaidLoans(ctx context.Context, userID string) ([]domain.Loan, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListUnpaidLoans")
	defer span.End()

	path := fmt.Sprintf("loans?user_id=eq.%s&is_paid=eq.false", userID)
	body, err := c.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}

	rows := []domain.Loan{}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode loans: %w", err)
	}
	return rows, nil
}

func (c *Client) CreateLoan(ctx context.Context, loan *domain.Loan) (*domain.Loan, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateLoan")
	defer span.End()

	row := map[string]any{
		"id":           loan.ID,
		"user_id":      loan.UserID,
		"type":         loan.Type,
		"person_name":  loan.PersonName,
		"phone_number": loan.PhoneNumber,
		"amount":       loan.Amount,
		"description":  loan.Description,
		"date":         loan.Date,
		"is_paid":      loan.IsPaid,
	}
	if loan.PaidAmount != nil {
		row["paid_amount"] = *loan.PaidAmount
	}

	body, err := c.doPost(ctx, "loans", row)
	if err != nil {
		return nil, err
	}

	var results []domain.Loan
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode loan: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no result returned from loans insert")
	}
	return &results[0], nil
}

func (c *Client) UpdateLoan(ctx context.Context, userID, loanID string, updates map[string]any) (*domain.Loan, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateLoan")
	defer span.End()

	path := fmt.Sprintf("loans?id=eq.%s&user_id=eq.%s", loanID, userID)
	body, err := c.doPatch(ctx, path, updates)
	if err != nil {
		return nil, err
	}

	var results []domain.Loan
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode loan: %w", err)
	}
	if len(results) == 0 {
		return nil, &domain.ErrNotFound{Resource: "loan", ID: loanID}
	}
	return &results[0], nil
}

func (c *Client) DeleteLoan(ctx context.Context, userID, loanID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteLoan")
	defer span.End()

	path := fmt.Sprintf("loans?id=eq.%s&user_id=eq.%s", loanID, userID)
	return c.doDelete(ctx, path)
}
