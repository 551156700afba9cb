package supabase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/davigor/finance-tracker-go/internal/domain"
)

// ============================================================
// Profiles — display names kept alongside the identity provider
// ============================================================

func (c *Client) GetProfile(ctx context.Context, userID string) (*domain.Profile, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetProfile")
	defer span.End()

	path := fmt.Sprintf("profiles?id=eq.%s&limit=1", userID)
	body, err := c.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}

	var rows []domain.Profile
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}
	if len(rows) == 0 {
		return nil, &domain.ErrNotFound{Resource: "profile", ID: userID}
	}
	return &rows[0], nil
}

func (c *Client) CreateProfile(ctx context.Context, profile *domain.Profile) error {
	ctx, span := tracer.Start(ctx, "Supabase.CreateProfile")
	defer span.End()

	row := map[string]any{
		"id":   profile.ID,
		"name": profile.Name,
	}
	_, err := c.doPost(ctx, "profiles", row)
	return err
}

func (c *Client) UpdateProfileName(ctx context.Context, userID, name string) error {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateProfileName")
	defer span.End()

	path := fmt.Sprintf("profiles?id=eq.%s", userID)
	_, err := c.doPatch(ctx, path, map[string]any{"name": name})
	return err
}
