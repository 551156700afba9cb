package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/davigor/finance-tracker-go/internal/domain"
)

// ============================================================
// Transactions — CRUD via PostgREST
// ============================================================

func (c *Client) ListTransactions(ctx context.Context, userID string, filter domain.TransactionFilter) ([]domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListTransactions")
	defer span.End()

	path := fmt.Sprintf("transactions?user_id=eq.%s", userID)
	if filter.Category != "" {
		path += "&category=eq." + url.QueryEscape(filter.Category)
	}
	if filter.StartDate != "" {
		path += "&date=gte." + filter.StartDate
	}
	if filter.EndDate != "" {
		path += "&date=lte." + filter.EndDate
	}
	path += "&order=date.desc,created_at.desc"

	body, err := c.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}

	rows := []domain.Transaction{}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode transactions: %w", err)
	}
	return rows, nil
}

func (c *Client) CreateTransaction(ctx context.Context, tx *domain.Transaction) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateTransaction")
	defer span.End()

	row := map[string]any{
		"id":          tx.ID,
		"user_id":     tx.UserID,
		"type":        tx.Type,
		"amount":      tx.Amount,
		"category":    tx.Category,
		"description": tx.Description,
		"date":        tx.Date,
	}

	body, err := c.doPost(ctx, "transactions", row)
	if err != nil {
		return nil, err
	}

	var results []domain.Transaction
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no result returned from transactions insert")
	}
	return &results[0], nil
}

func (c *Client) UpdateTransaction(ctx context.Context, userID, transactionID string, updates map[string]any) (*domain.Transaction, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateTransaction")
	defer span.End()

	path := fmt.Sprintf("transactions?id=eq.%s&user_id=eq.%s", transactionID, userID)
	body, err := c.doPatch(ctx, path, updates)
	if err != nil {
		return nil, err
	}

	var results []domain.Transaction
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode transaction: %w", err)
	}
	if len(results) == 0 {
		return nil, &domain.ErrNotFound{Resource: "transaction", ID: transactionID}
	}
	return &results[0], nil
}

func (c *Client) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteTransaction")
	defer span.End()

	path := fmt.Sprintf("transactions?id=eq.%s&user_id=eq.%s", transactionID, userID)
	return c.doDelete(ctx, path)
}
