package services

import (
	"context"
	"errors"
	"fmt"
	"gcoin-shop/internal/domain/models"
	"gcoin-shop/internal/lib/jwt"
	"gcoin-shop/internal/middlewares"
	"gcoin-shop/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"log/slog"
)

type AuthService struct {
	log            *slog.Logger
	accounts       AccountProvider
	tokens         RefreshTokenStore
	jwtGen         *jwt.Generator
	gatewayKeyHash []byte
	admins         map[string]struct{}
}

type AccountProvider interface {
	GetOrCreate(ctx context.Context, userID string) (models.Account, error)
}

type RefreshTokenStore interface {
	StoreRefreshToken(ctx context.Context, userID, refreshToken string) error
	ConsumeRefreshToken(ctx context.Context, refreshToken string) (string, error)
}

var (
	ErrInvalidCredentials        = errors.New("invalid credentials")
	ErrInvalidRefreshToken       = errors.New("invalid refresh token")
	ErrFailedToGenerateTokens    = errors.New("failed to generate tokens")
	ErrFailedToStoreRefreshToken = errors.New("failed to store refresh token")
)

func NewAuthService(log *slog.Logger, accounts AccountProvider, tokens RefreshTokenStore,
	jwtGen *jwt.Generator, gatewayKeyHash string, adminIDs []string) *AuthService {
	admins := make(map[string]struct{}, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = struct{}{}
	}

	return &AuthService{
		log:            log,
		accounts:       accounts,
		tokens:         tokens,
		jwtGen:         jwtGen,
		gatewayKeyHash: []byte(gatewayKeyHash),
		admins:         admins,
	}
}

// Login is called by the chat gateway on behalf of userID. The account is
// created on first login.
func (s *AuthService) Login(ctx context.Context, userID, gatewayKey string) (accessToken string, refreshToken string,
	err error) {
	const op = "services.AuthService.Login"

	log := s.log.With(
		slog.String("op", op),
		slog.String("user_id", userID),
	)

	if err := middlewares.CheckInput(userID, gatewayKey); err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(s.gatewayKeyHash, []byte(gatewayKey)); err != nil {
		log.Info("invalid gateway key", slog.String("error", err.Error()))
		return "", "", fmt.Errorf("%s: %w", op, ErrInvalidCredentials)
	}

	if _, err := s.accounts.GetOrCreate(ctx, userID); err != nil {
		log.Error("failed to load account", slog.String("error", err.Error()))
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	return s.issue(ctx, log, op, userID)
}

// Refresh exchanges a refresh token for a new pair. Each refresh token is
// accepted once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (accessToken string, newRefreshToken string,
	err error) {
	const op = "services.AuthService.Refresh"

	log := s.log.With(slog.String("op", op))

	claims, err := s.jwtGen.Parse(refreshToken)
	if err != nil || claims.TokenType != jwt.TokenTypeRefresh {
		log.Info("rejected refresh token")
		return "", "", fmt.Errorf("%s: %w", op, ErrInvalidRefreshToken)
	}

	log = log.With(slog.String("user_id", claims.UserID))

	owner, err := s.tokens.ConsumeRefreshToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			log.Info("refresh token is unknown or already used")
			return "", "", fmt.Errorf("%s: %w", op, ErrInvalidRefreshToken)
		}
		log.Error("failed to consume refresh token", slog.String("error", err.Error()))
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	if owner != claims.UserID {
		log.Warn("refresh token owner mismatch", slog.String("owner", owner))
		return "", "", fmt.Errorf("%s: %w", op, ErrInvalidRefreshToken)
	}

	return s.issue(ctx, log, op, owner)
}

func (s *AuthService) issue(ctx context.Context, log *slog.Logger, op, userID string) (string, string, error) {
	accessToken, refreshToken, err := s.jwtGen.GeneratePair(userID, s.roleOf(userID))
	if err != nil {
		log.Error("failed to generate tokens", slog.String("error", err.Error()))
		return "", "", fmt.Errorf("%s: %w", op, ErrFailedToGenerateTokens)
	}

	if err := s.tokens.StoreRefreshToken(ctx, userID, refreshToken); err != nil {
		log.Error("failed to store refresh token", slog.String("error", err.Error()))
		return "", "", fmt.Errorf("%s: %w", op, ErrFailedToStoreRefreshToken)
	}

	log.Info("tokens issued")

	return accessToken, refreshToken, nil
}

func (s *AuthService) roleOf(userID string) string {
	if _, ok := s.admins[userID]; ok {
		return jwt.RoleAdmin
	}
	return jwt.RoleUser
}
