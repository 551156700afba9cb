package supabase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/davigor/finance-tracker-go/internal/domain"
)

// ============================================================
// Loan activities — ledger entries via PostgREST
// ============================================================

func (c *Client) ListActivities(ctx context.Context, contactID string) ([]domain.LoanActivity, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListActivities")
	defer span.End()

	path := fmt.Sprintf("loan_activities?contact_id=eq.%s&order=activity_date.asc,created_at.asc", contactID)
	body, err := c.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}

	rows := []domain.LoanActivity{}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode loan_activities: %w", err)
	}
	return rows, nil
}

func (c *Client) ListActivitiesByUser(ctx context.Context, userID string) ([]domain.LoanActivity, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListActivitiesByUser")
	defer span.End()

	path := fmt.Sprintf("loan_activities?user_id=eq.%s&order=activity_date.asc,created_at.asc", userID)
	body, err := c.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}

	rows := []domain.LoanActivity{}
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode loan_activities: %w", err)
	}
	return rows, nil
}

func (c *Client) GetActivity(ctx context.Context, contactID, activityID string) (*domain.LoanActivity, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetActivity")
	defer span.End()

	path := fmt.Sprintf("loan_activities?id=eq.%s&contact_id=eq.%s&limit=1", activityID, contactID)
	body, err := c.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}

	var rows []domain.LoanActivity
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode loan_activity: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "activity", ID: activityID}
	}
	return &rows[0], nil
}

func (c *Client) CreateActivity(ctx context.Context, activity *domain.LoanActivity) (*domain.LoanActivity, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateActivity")
	defer span.End()

	row := map[string]any{
		"id":            activity.ID,
		"user_id":       activity.UserID,
		"contact_id":    activity.ContactID,
		"activity_type": activity.ActivityType,
		"amount":        activity.Amount,
		"balance_after": activity.BalanceAfter,
		"description":   activity.Description,
		"activity_date": activity.ActivityDate,
	}

	body, err := c.doPost(ctx, "loan_activities", row)
	if err != nil {
		return nil, err
	}

	var results []domain.LoanActivity
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("decode loan_activity: %w", err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no result returned from loan_activities insert")
	}
	return &results[0], nil
}

func (c *Client) DeleteActivity(ctx context.Context, contactID, activityID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteActivity")
	defer span.End()

	path := fmt.Sprintf("loan_activities?id=eq.%s&contact_id=eq.%s", activityID, contactID)
	return c.doDelete(ctx, path)
}

func (c *Client) DeleteActivitiesByContact(ctx context.Context, contactID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteActivitiesByContact")
	defer span.End()

	path := fmt.Sprintf("loan_activities?contact_id=eq.%s", contactID)
	return c.doDelete(ctx, path)
}

func (c *Client) CountActivities(ctx context.Context, contactID string) (int, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CountActivities")
	defer span.End()

	path := fmt.Sprintf("loan_activities?contact_id=eq.%s&select=id", contactID)
	body, err := c.doRequest(ctx, path)
	if err != nil {
		return 0, err
	}

	var rows []struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &rows); err != nil {
		return 0, fmt.Errorf("decode loan_activities count: %w", err)
	}
	return len(rows), nil
}

// ApplyRebalance writes every rewritten entry back as a single upsert
// statement. All ids already exist, so each row takes the update arm of
// ON CONFLICT and the request commits or fails as one request — readers
// never see a partially-rebalanced chain. The payload carries every
// column: Postgres checks NOT NULL constraints on the proposed insert
// tuple before conflict resolution, so a balance-only row would be
// rejected even though it only ever updates.
func (c *Client) ApplyRebalance(ctx context.Context, contactID string, activities []domain.LoanActivity) error {
	ctx, span := tracer.Start(ctx, "Supabase.ApplyRebalance")
	defer span.End()

	if len(activities) == 0 {
		return nil
	}

	rows := make([]map[string]any, 0, len(activities))
	for _, a := range activities {
		rows = append(rows, map[string]any{
			"id":            a.ID,
			"user_id":       a.UserID,
			"contact_id":    contactID,
			"activity_type": a.ActivityType,
			"amount":        a.Amount,
			"balance_after": a.BalanceAfter,
			"description":   a.Description,
			"activity_date": a.ActivityDate,
			"created_at":    a.CreatedAt,
		})
	}
	return c.doUpsert(ctx, "loan_activities", rows)
}
