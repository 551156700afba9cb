// Package service implements the business logic of the tracker.
// Services orchestrate stores and collaborators; handlers stay thin.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/davigor/finance-tracker-go/internal/domain"
	"github.com/davigor/finance-tracker-go/internal/port"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

var authTracer = otel.Tracer("service/auth")

// AuthService delegates credential verification to the identity
// provider and mints the backend's own bearer tokens.
type AuthService struct {
	identity  port.IdentityProvider
	profiles  port.ProfileStore
	jwtSecret []byte
	tokenTTL  time.Duration
	logger    *zap.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(identity port.IdentityProvider, profiles port.ProfileStore, jwtSecret string, tokenTTL time.Duration, logger *zap.Logger) *AuthService {
	return &AuthService{
		identity:  identity,
		profiles:  profiles,
		jwtSecret: []byte(jwtSecret),
		tokenTTL:  tokenTTL,
		logger:    logger,
	}
}

// ============================================================
// Signup — POST /api/auth/signup
// ============================================================

func (s *AuthService) Signup(ctx context.Context, req *domain.SignupRequest) (*domain.AuthResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Signup")
	defer span.End()

	userID, err := s.identity.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	// The display name lives in profiles, not with the identity
	// provider. Signup still succeeds if this write fails; the name can
	// be set again later.
	if err := s.profiles.CreateProfile(ctx, &domain.Profile{ID: userID, Name: req.Name}); err != nil {
		s.logger.Warn("signup: profile creation failed",
			zap.String("user_id", userID),
			zap.Error(err),
		)
	}

	token, err := s.mintToken(userID, req.Email)
	if err != nil {
		return nil, fmt.Errorf("mint token: %w", err)
	}

	s.logger.Info("user signed up", zap.String("user_id", userID))

	return &domain.AuthResponse{
		Message: "account created",
		Token:   token,
		UserID:  userID,
		Name:    req.Name,
	}, nil
}

// ============================================================
// Login — POST /api/auth/login
// ============================================================

func (s *AuthService) Login(ctx context.Context, req *domain.LoginRequest) (*domain.AuthResponse, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Login")
	defer span.End()

	userID, err := s.identity.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}

	token, err := s.mintToken(userID, req.Email)
	if err != nil {
		return nil, fmt.Errorf("mint token: %w", err)
	}

	name := ""
	if profile, err := s.profiles.GetProfile(ctx, userID); err == nil {
		name = profile.Name
	} else {
		var notFound *domain.ErrNotFound
		if !errors.As(err, &notFound) {
			s.logger.Warn("login: profile lookup failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}
	}

	s.logger.Info("user logged in", zap.String("user_id", userID))

	return &domain.AuthResponse{
		Message: "login successful",
		Token:   token,
		UserID:  userID,
		Name:    name,
	}, nil
}

// ============================================================
// Validate — POST /api/auth/validate
// ============================================================

func (s *AuthService) Validate(ctx context.Context, tokenString string) (*domain.TokenInfo, error) {
	ctx, span := authTracer.Start(ctx, "AuthService.Validate")
	defer span.End()

	userID, err := s.VerifyToken(tokenString)
	if err != nil {
		return &domain.TokenInfo{Valid: false}, nil
	}

	name := ""
	if profile, err := s.profiles.GetProfile(ctx, userID); err == nil {
		name = profile.Name
	}

	return &domain.TokenInfo{Valid: true, UserID: userID, Name: name}, nil
}

// VerifyToken parses and verifies a bearer token, returning the user
// id claim. Used by the auth middleware on every /api request.
func (s *AuthService) VerifyToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return "", &domain.ErrUnauthorized{Message: "invalid or expired token"}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", &domain.ErrUnauthorized{Message: "invalid token claims"}
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return "", &domain.ErrUnauthorized{Message: "invalid token claims"}
	}
	return userID, nil
}

func (s *AuthService) mintToken(userID, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"iat":     now.Unix(),
		"exp":     now.Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}
