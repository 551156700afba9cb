package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/davigor/finance-tracker-go/internal/domain"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// LocalIdentity verifies credentials against the local_credentials
// table instead of GoTrue. Used in dev environments where the auth
// service is not provisioned; user ids are minted locally so the rest
// of the backend behaves identically.
type LocalIdentity struct {
	client *Client
}

// NewLocalIdentity creates the dev-mode identity provider.
func NewLocalIdentity(client *Client) *LocalIdentity {
	return &LocalIdentity{client: client}
}

type localCredential struct {
	ID           string `json:"id"`
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	PasswordHash string `json:"password_hash"`
}

func (l *LocalIdentity) findByEmail(ctx context.Context, email string) (*localCredential, error) {
	path := fmt.Sprintf("local_credentials?email=eq.%s&limit=1", url.QueryEscape(email))
	body, err := l.client.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}

	var rows []localCredential
	if err := json.Unmarshal(body, &rows); err != nil {
		return nil, fmt.Errorf("decode local_credentials: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

func (l *LocalIdentity) SignUp(ctx context.Context, email, password string) (string, error) {
	ctx, span := tracer.Start(ctx, "LocalIdentity.SignUp")
	defer span.End()

	existing, err := l.findByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if existing != nil {
		return "", &domain.ErrConflict{Message: "email already registered"}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	userID := uuid.New().String()
	row := map[string]any{
		"id":            uuid.New().String(),
		"user_id":       userID,
		"email":         email,
		"password_hash": string(hash),
	}
	if _, err := l.client.doPost(ctx, "local_credentials", row); err != nil {
		return "", err
	}
	return userID, nil
}

func (l *LocalIdentity) SignIn(ctx context.Context, email, password string) (string, error) {
	ctx, span := tracer.Start(ctx, "LocalIdentity.SignIn")
	defer span.End()

	cred, err := l.findByEmail(ctx, email)
	if err != nil {
		return "", err
	}
	if cred == nil {
		return "", &domain.ErrUnauthorized{Message: "invalid email or password"}
	}
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(password)); err != nil {
		return "", &domain.ErrUnauthorized{Message: "invalid email or password"}
	}
	return cred.UserID, nil
}
