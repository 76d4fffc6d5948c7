package unit

import (
	"context"
	"errors"
	"gcoin-shop/internal/domain/models"
	"gcoin-shop/internal/lib/jwt"
	"gcoin-shop/internal/middlewares"
	"gcoin-shop/internal/repository"
	"gcoin-shop/internal/services"
	"gcoin-shop/internal/tests/mocks"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const gatewayKey = "gateway-key"

func gatewayKeyHash(t *testing.T) string {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(gatewayKey), bcrypt.MinCost)
	require.NoError(t, err)
	return string(hash)
}

func newAuthService(t *testing.T, accounts *mocks.AccountProviderMock, tokens *mocks.RefreshTokenStoreMock,
	admins ...string) (*services.AuthService, *jwt.Generator) {
	t.Helper()
	jwtGen := jwt.NewGenerator("secret", time.Minute, time.Hour)
	return services.NewAuthService(slog.Default(), accounts, tokens, jwtGen, gatewayKeyHash(t), admins), jwtGen
}

func TestAuthService_Login_CreatesAccountAndStoresTokens(t *testing.T) {
	// Arrange
	ctx := context.Background()
	accounts := new(mocks.AccountProviderMock)
	tokens := new(mocks.RefreshTokenStoreMock)
	service, jwtGen := newAuthService(t, accounts, tokens)

	accounts.On("GetOrCreate", ctx, "1001").
		Return(models.Account{UserID: "1001"}, nil).Once()
	tokens.On("StoreRefreshToken", ctx, "1001", mock.Anything).
		Return(nil).Once()

	// Act
	access, refresh, err := service.Login(ctx, "1001", gatewayKey)

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, refresh)
	claims, err := jwtGen.Parse(access)
	require.NoError(t, err)
	assert.Equal(t, "1001", claims.UserID)
	assert.Equal(t, jwt.RoleUser, claims.Role)
	accounts.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

func TestAuthService_Login_GrantsAdminRole(t *testing.T) {
	// Arrange
	ctx := context.Background()
	accounts := new(mocks.AccountProviderMock)
	tokens := new(mocks.RefreshTokenStoreMock)
	service, jwtGen := newAuthService(t, accounts, tokens, "42")

	accounts.On("GetOrCreate", ctx, "42").Return(models.Account{UserID: "42"}, nil).Once()
	tokens.On("StoreRefreshToken", ctx, "42", mock.Anything).Return(nil).Once()

	// Act
	access, _, err := service.Login(ctx, "42", gatewayKey)

	// Assert
	require.NoError(t, err)
	claims, err := jwtGen.Parse(access)
	require.NoError(t, err)
	assert.Equal(t, jwt.RoleAdmin, claims.Role)
}

func TestAuthService_Login_ReturnsInvalidCredentialsForWrongKey(t *testing.T) {
	// Arrange
	ctx := context.Background()
	accounts := new(mocks.AccountProviderMock)
	tokens := new(mocks.RefreshTokenStoreMock)
	service, _ := newAuthService(t, accounts, tokens)

	// Act
	access, refresh, err := service.Login(ctx, "1001", "wrong-key")

	// Assert
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	assert.Empty(t, access)
	assert.Empty(t, refresh)
	accounts.AssertNotCalled(t, "GetOrCreate", mock.Anything, mock.Anything)
	tokens.AssertNotCalled(t, "StoreRefreshToken", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_Login_RejectsEmptyUserID(t *testing.T) {
	// Arrange
	service, _ := newAuthService(t, new(mocks.AccountProviderMock), new(mocks.RefreshTokenStoreMock))

	// Act
	_, _, err := service.Login(context.Background(), "", gatewayKey)

	// Assert
	assert.ErrorIs(t, err, middlewares.ErrEmptyField)
}

func TestAuthService_Login_PropagatesStorageErrors(t *testing.T) {
	// Arrange
	ctx := context.Background()
	accounts := new(mocks.AccountProviderMock)
	tokens := new(mocks.RefreshTokenStoreMock)
	service, _ := newAuthService(t, accounts, tokens)

	accounts.On("GetOrCreate", ctx, "1001").
		Return(models.Account{}, errors.New("db failure")).Once()

	// Act
	access, refresh, err := service.Login(ctx, "1001", gatewayKey)

	// Assert
	assert.ErrorContains(t, err, "db failure")
	assert.Empty(t, access)
	assert.Empty(t, refresh)
	accounts.AssertExpectations(t)
	tokens.AssertExpectations(t)
}

func TestAuthService_Login_ReturnsErrorWhenRefreshTokenStorageFails(t *testing.T) {
	// Arrange
	ctx := context.Background()
	accounts := new(mocks.AccountProviderMock)
	tokens := new(mocks.RefreshTokenStoreMock)
	service, _ := newAuthService(t, accounts, tokens)

	accounts.On("GetOrCreate", ctx, "1001").Return(models.Account{UserID: "1001"}, nil).Once()
	tokens.On("StoreRefreshToken", ctx, "1001", mock.Anything).
		Return(errors.New("redis down")).Once()

	// Act
	access, refresh, err := service.Login(ctx, "1001", gatewayKey)

	// Assert
	assert.ErrorIs(t, err, services.ErrFailedToStoreRefreshToken)
	assert.Empty(t, access)
	assert.Empty(t, refresh)
	tokens.AssertExpectations(t)
}

func TestAuthService_Refresh_RotatesPair(t *testing.T) {
	// Arrange
	ctx := context.Background()
	accounts := new(mocks.AccountProviderMock)
	tokens := new(mocks.RefreshTokenStoreMock)
	service, jwtGen := newAuthService(t, accounts, tokens)

	_, oldRefresh, err := jwtGen.GeneratePair("1001", jwt.RoleUser)
	require.NoError(t, err)

	tokens.On("ConsumeRefreshToken", ctx, oldRefresh).Return("1001", nil).Once()
	tokens.On("StoreRefreshToken", ctx, "1001", mock.MatchedBy(func(tok string) bool {
		return tok != oldRefresh
	})).Return(nil).Once()

	// Act
	access, refresh, err := service.Refresh(ctx, oldRefresh)

	// Assert
	require.NoError(t, err)
	assert.NotEmpty(t, access)
	assert.NotEqual(t, oldRefresh, refresh)
	tokens.AssertExpectations(t)
}

func TestAuthService_Refresh_RejectsReusedToken(t *testing.T) {
	// Arrange
	ctx := context.Background()
	tokens := new(mocks.RefreshTokenStoreMock)
	service, jwtGen := newAuthService(t, new(mocks.AccountProviderMock), tokens)

	_, refresh, err := jwtGen.GeneratePair("1001", jwt.RoleUser)
	require.NoError(t, err)

	tokens.On("ConsumeRefreshToken", ctx, refresh).
		Return("", repository.ErrTokenNotFound).Once()

	// Act
	_, _, err = service.Refresh(ctx, refresh)

	// Assert
	assert.ErrorIs(t, err, services.ErrInvalidRefreshToken)
	tokens.AssertExpectations(t)
}

func TestAuthService_Refresh_RejectsAccessToken(t *testing.T) {
	// Arrange
	ctx := context.Background()
	tokens := new(mocks.RefreshTokenStoreMock)
	service, jwtGen := newAuthService(t, new(mocks.AccountProviderMock), tokens)

	access, _, err := jwtGen.GeneratePair("1001", jwt.RoleUser)
	require.NoError(t, err)

	// Act
	_, _, err = service.Refresh(ctx, access)

	// Assert
	assert.ErrorIs(t, err, services.ErrInvalidRefreshToken)
	tokens.AssertNotCalled(t, "ConsumeRefreshToken", mock.Anything, mock.Anything)
}
