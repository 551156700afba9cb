package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/davigor/finance-tracker-go/internal/domain"
)

// ============================================================
// Loan contacts — CRUD via PostgREST
// ============================================================

func (c *Client) ListContacts(ctx context.Context, userID string) ([]domain.LoanContact, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListContacts")
	defer span.End()

	path := fmt.Sprintf("loan_contacts?user_id=eq.%s&order=updated_at.desc", userID)
	body, err := c.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}

	rows := []domain.LoanContact{}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode loan_contacts: %w", err)
	}
	return rows, nil
}

func (c *Client) GetContact(ctx context.Context, userID, contactID string) (*domain.LoanContact, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetContact")
	defer span.End()

	path := fmt.Sprintf("loan_contacts?id=eq.%s&user_id=eq.%s&limit=1", contactID, userID)
	body, err := c.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}

	var rows []domain.LoanContact
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode loan_contact: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "contact", ID: contactID}
	}
	return &rows[0], nil
}

// FindContactByName matches case-insensitively. Returns nil, nil when
// no contact has the name.
func (c *Client) FindContactByName(ctx context.Context, userID, name string) (*domain.LoanContact, error) {
	ctx, span := tracer.Start(ctx, "Supabase.FindContactByName")
	defer span.End()

	path := fmt.Sprintf("loan_contacts?user_id=eq.%s&name=ilike.%s&limit=1", userID, url.QueryEscape(name))
	body, err := c.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}

	var rows []domain.LoanContact
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode loan_contact: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (c *Client) CreateContact(ctx context.Context, contact *domain.LoanContact) (*domain.LoanContact, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateContact")
	defer span.End()

	row := map[string]any{
		"id":              contact.ID,
		"user_id":         contact.UserID,
		"name":            contact.Name,
		"phone_number":    contact.PhoneNumber,
		"email":           contact.Email,
		"notes":           contact.Notes,
		"initial_balance": contact.InitialBalance,
	}

	body, err := c.doPost(ctx, "loan_contacts", row)
	if err != nil {
		return nil, err
	}

	var results []domain.LoanContact
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode loan_contact: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no result returned from loan_contacts insert")
	}
	return &results[0], nil
}

func (c *Client) UpdateContact(ctx context.Context, userID, contactID string, updates map[string]any) (*domain.LoanContact, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateContact")
	defer span.End()

	payload := make(map[string]any, len(updates)+1)
	for k, v := range updates {
		payload[k] = v
	}
	payload["updated_at"] = time.Now().UTC().Format(time.RFC3339)

	path := fmt.Sprintf("loan_contacts?id=eq.%s&user_id=eq.%s", contactID, userID)
	body, err := c.doPatch(ctx, path, payload)
	if err != nil {
		return nil, err
	}

	var results []domain.LoanContact
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode loan_contact: %w", err)
	}
	if len(results) == 0 {
		return nil, &domain.ErrNotFound{Resource: "contact", ID: contactID}
	}
	return &results[0], nil
}

func (c *Client) DeleteContact(ctx context.Context, userID, contactID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteContact")
	defer span.End()

	path := fmt.Sprintf("loan_contacts?id=eq.%s&user_id=eq.%s", contactID, userID)
	return c.doDelete(ctx, path)
}

// TouchContact bumps updated_at; called on every activity mutation.
func (c *Client) TouchContact(ctx context.Context, contactID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.TouchContact")
	defer span.End()

	path := fmt.Sprintf("loan_contacts?id=eq.%s", contactID)
	_, err := c.doPatch(ctx, path, map[string]any{"updated_at": time.Now().UTC().Format(time.RFC3339)})
	return err
}
