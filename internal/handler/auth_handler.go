package handler

import (
	"net/http"
	"strings"

	"github.com/davigor/finance-tracker-go/internal/domain"
	"github.com/davigor/finance-tracker-go/internal/service"

	"go.uber.org/zap"
)

// ============================================================
// Auth — POST /api/auth/signup, /api/auth/login, /api/auth/validate
// ============================================================

func signupHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/auth/signup")
		defer span.End()

		var req domain.SignupRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		resp, err := authSvc.Signup(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

func loginHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/auth/login")
		defer span.End()

		var req domain.LoginRequest
		if !decodeAndValidate(w, r, &req) {
			return
		}

		resp, err := authSvc.Login(ctx, &req)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func validateTokenHandler(authSvc *service.AuthService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /api/auth/validate")
		defer span.End()

		authHeader := r.Header.Get("Authorization")
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			writeJSON(w, http.StatusUnauthorized, domain.TokenInfo{Valid: false})
			return
		}

		info, err := authSvc.Validate(ctx, parts[1])
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}
		if !info.Valid {
			writeJSON(w, http.StatusUnauthorized, info)
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}
