package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/davigor/finance-tracker-go/internal/domain"
	"go.uber.org/zap"
)

// ============================================================
// Identity — credential verification via the GoTrue API
// ============================================================

type gotrueUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type gotrueResponse struct {
	// signup with autoconfirm returns the user at the top level;
	// password grant nests it under "user".
	ID          string      `json:"id"`
	User        *gotrueUser `json:"user"`
	AccessToken string      `json:"access_token"`

	Msg              string `json:"msg"`
	ErrorCode        string `json:"error_code"`
	ErrorDescription string `json:"error_description"`
}

func (r *gotrueResponse) userID() string {
	if r.User != nil && r.User.ID != "" {
		return r.User.ID
	}
	return r.ID
}

func (r *gotrueResponse) message() string {
	if r.ErrorDescription != "" {
		return r.ErrorDescription
	}
	return r.Msg
}

// SignUp registers a new account with the identity provider and
// returns its user id.
func (c *Client) SignUp(ctx context.Context, email, password string) (string, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SignUp")
	defer span.End()

	status, parsed, err := c.doAuth(ctx, "auth/v1/signup", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", &domain.ErrExternalService{Service: "supabase-auth", Err: err}
	}

	switch {
	case status >= 200 && status < 300:
		if parsed.userID() == "" {
			return "", &domain.ErrExternalService{
				Service: "supabase-auth",
				Err:     fmt.Errorf("signup returned no user id"),
			}
		}
		return parsed.userID(), nil
	case status == http.StatusUnprocessableEntity || status == http.StatusBadRequest:
		msg := parsed.message()
		if strings.Contains(strings.ToLower(msg), "already") {
			return "", &domain.ErrConflict{Message: "email already registered"}
		}
		return "", &domain.ErrValidation{Field: "email", Message: msg}
	default:
		return "", &domain.ErrExternalService{
			Service: "supabase-auth",
			Err:     fmt.Errorf("signup returned %d: %s", status, parsed.message()),
		}
	}
}

// SignIn verifies credentials via the password grant and returns the
// user id. It never mints tokens here; the caller issues its own.
func (c *Client) SignIn(ctx context.Context, email, password string) (string, error) {
	ctx, span := tracer.Start(ctx, "Supabase.SignIn")
	defer span.End()

	status, parsed, err := c.doAuth(ctx, "auth/v1/token?grant_type=password", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return "", &domain.ErrExternalService{Service: "supabase-auth", Err: err}
	}

	switch {
	case status >= 200 && status < 300:
		if parsed.userID() == "" {
			return "", &domain.ErrExternalService{
				Service: "supabase-auth",
				Err:     fmt.Errorf("password grant returned no user id"),
			}
		}
		return parsed.userID(), nil
	case status == http.StatusBadRequest || status == http.StatusUnauthorized ||
		status == http.StatusForbidden:
		msg := parsed.message()
		if strings.Contains(strings.ToLower(msg), "not confirmed") {
			return "", &domain.ErrUnauthorized{Message: "email not confirmed"}
		}
		return "", &domain.ErrUnauthorized{Message: "invalid email or password"}
	default:
		return "", &domain.ErrExternalService{
			Service: "supabase-auth",
			Err:     fmt.Errorf("password grant returned %d: %s", status, parsed.message()),
		}
	}
}

// doAuth posts to a GoTrue endpoint. Auth calls carry the anon key,
// not the service role key, and are never retried: a credential check
// is not idempotent from the provider's rate-limiting point of view.
func (c *Client) doAuth(ctx context.Context, path string, payload map[string]string) (int, *gotrueResponse, error) {
	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.roundTrip(ctx, req)
	if err != nil {
		c.logger.Error("supabase: auth call failed",
			zap.String("path", path),
			zap.Error(err),
		)
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, err
	}

	parsed := &gotrueResponse{}
	if len(body) > 0 {
		// Tolerate non-JSON error bodies; status code still drives the
		// outcome.
		_ = json.Unmarshal(body, parsed)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.logger.Warn("supabase: auth non-2xx",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
		)
	}
	return resp.StatusCode, parsed, nil
}
