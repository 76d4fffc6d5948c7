package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"gcoin-shop/internal/domain/dto"
	"gcoin-shop/internal/domain/models"
	"gcoin-shop/internal/handlers"
	"gcoin-shop/internal/lib/jwt"
	"gcoin-shop/internal/middlewares"
	"gcoin-shop/internal/notify"
	"gcoin-shop/internal/repository/memory"
	"gcoin-shop/internal/routes"
	"gcoin-shop/internal/services"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const gatewayKey = "gateway-key"

type testServer struct {
	server *httptest.Server
	store  *memory.Storage
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	gin.SetMode(gin.TestMode)

	log := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))

	hash, err := bcrypt.GenerateFromPassword([]byte(gatewayKey), bcrypt.MinCost)
	require.NoError(t, err)

	store := memory.New()
	tokens := memory.NewTokenStorage(24 * time.Hour)
	jwtGen := jwt.NewGenerator("secret", time.Minute, 24*time.Hour)

	authService := services.NewAuthService(log, store, tokens, jwtGen, string(hash), []string{"admin"})
	shopService := services.NewShopService(log, store, notify.NewLogNotifier(log), services.ShopConfig{
		ClaimReward: 100,
		LinkPolicy:  models.LinkPolicyBoth,
		OwnerID:     "admin",
	})

	router := routes.InitRoutes(routes.Handlers{
		Auth:  handlers.NewAuthHandler(log, authService),
		Shop:  handlers.NewShopHandler(log, shopService),
		Admin: handlers.NewAdminHandler(log, shopService),
	}, middlewares.NewAuthMiddleware(jwtGen), nil)

	return &testServer{server: httptest.NewServer(router), store: store}
}

func (s *testServer) close() {
	s.server.Close()
}

func (s *testServer) url(path string) string {
	return s.server.URL + path
}

func (s *testServer) login(t *testing.T, userID string) (token string, refresh string) {
	t.Helper()

	resp := s.do(t, http.MethodPost, "/api/auth", "", dto.AuthRequest{UserID: userID, GatewayKey: gatewayKey})
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed dto.AuthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))

	return parsed.Token, parsed.RefreshToken
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, s.url(path), reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	return resp
}

// expect checks the status and decodes the body into out when it is not nil.
func (s *testServer) expect(t *testing.T, resp *http.Response, status int, out any) {
	t.Helper()
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, status, resp.StatusCode, string(raw))

	if out != nil {
		require.NoError(t, json.Unmarshal(raw, out))
	}
}

func (s *testServer) expectError(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()

	var body dto.ErrorResponse
	s.expect(t, resp, status, &body)
	require.Equal(t, code, body.Error)
}

func TestPing(t *testing.T) {
	srv := newTestServer(t)
	defer srv.close()

	srv.expect(t, srv.do(t, http.MethodGet, "/api/ping", "", nil), http.StatusOK, nil)
}

func TestAuthAndInfoFlow(t *testing.T) {
	srv := newTestServer(t)
	defer srv.close()

	token, refresh := srv.login(t, "alice")
	require.NotEmpty(t, token)
	require.NotEmpty(t, refresh)

	var info dto.InfoResponse
	srv.expect(t, srv.do(t, http.MethodGet, "/api/info", token, nil), http.StatusOK, &info)
	require.Equal(t, "alice", info.UserID)
	require.Zero(t, info.Coins)
	require.Empty(t, info.Inventory)

	srv.expectError(t, srv.do(t, http.MethodGet, "/api/info", "", nil), http.StatusUnauthorized, "unauthorized")

	resp := srv.do(t, http.MethodPost, "/api/auth", "", dto.AuthRequest{UserID: "alice", GatewayKey: "nope"})
	srv.expectError(t, resp, http.StatusUnauthorized, "unauthorized")

	resp = srv.do(t, http.MethodPost, "/api/auth", "", map[string]string{"user_id": "alice"})
	srv.expectError(t, resp, http.StatusBadRequest, "invalid_request")
}

func TestRefreshFlow(t *testing.T) {
	srv := newTestServer(t)
	defer srv.close()

	_, refresh := srv.login(t, "alice")

	var rotated dto.AuthResponse
	resp := srv.do(t, http.MethodPost, "/api/refresh", "", dto.RefreshRequest{RefreshToken: refresh})
	srv.expect(t, resp, http.StatusOK, &rotated)
	require.NotEmpty(t, rotated.Token)

	srv.expect(t, srv.do(t, http.MethodGet, "/api/balance", rotated.Token, nil), http.StatusOK, nil)

	resp = srv.do(t, http.MethodPost, "/api/refresh", "", dto.RefreshRequest{RefreshToken: refresh})
	srv.expectError(t, resp, http.StatusUnauthorized, "unauthorized")
}

func TestShopFlow(t *testing.T) {
	srv := newTestServer(t)
	defer srv.close()

	adminToken, _ := srv.login(t, "admin")
	aliceToken, _ := srv.login(t, "alice")

	var crown models.MarketItem
	resp := srv.do(t, http.MethodPost, "/api/market", adminToken, dto.AddItemRequest{Name: "Crown", Price: 100, Stock: 1})
	srv.expect(t, resp, http.StatusCreated, &crown)
	require.Equal(t, "Crown", crown.Name)

	var items []models.MarketItem
	srv.expect(t, srv.do(t, http.MethodGet, "/api/market", aliceToken, nil), http.StatusOK, &items)
	require.Len(t, items, 1)
	require.Equal(t, crown.ID, items[0].ID)

	buyPath := "/api/buy/" + crown.ID.String()

	srv.expectError(t, srv.do(t, http.MethodPost, buyPath, aliceToken, nil), http.StatusForbidden, "account_not_linked")

	var link dto.LinkResponse
	resp = srv.do(t, http.MethodPost, "/api/link", aliceToken, dto.LinkRequest{Handle: "https://instagram.com/alice.ig"})
	srv.expect(t, resp, http.StatusOK, &link)
	require.Equal(t, "alice.ig", link.Handle)

	resp = srv.do(t, http.MethodPost, "/api/link", aliceToken, dto.LinkRequest{Handle: "no spaces allowed"})
	srv.expectError(t, resp, http.StatusBadRequest, "invalid_handle")

	srv.expectError(t, srv.do(t, http.MethodPost, buyPath, aliceToken, nil), http.StatusPaymentRequired, "insufficient_funds")

	var claim dto.ClaimResponse
	srv.expect(t, srv.do(t, http.MethodPost, "/api/claim", aliceToken, nil), http.StatusOK, &claim)
	require.Equal(t, 100, claim.Coins)
	require.Equal(t, 100, claim.Reward)

	srv.expectError(t, srv.do(t, http.MethodPost, "/api/claim", aliceToken, nil), http.StatusTooManyRequests, "claim_cooldown_active")

	var receipt dto.Receipt
	srv.expect(t, srv.do(t, http.MethodPost, buyPath, aliceToken, nil), http.StatusOK, &receipt)
	require.Equal(t, "Crown", receipt.ItemName)
	require.Equal(t, 100, receipt.PricePaid)
	require.Zero(t, receipt.RemainingBalance)

	_, err := srv.store.AdjustBalance(context.Background(), "alice", 500)
	require.NoError(t, err)
	srv.expectError(t, srv.do(t, http.MethodPost, buyPath, aliceToken, nil), http.StatusConflict, "out_of_stock")

	srv.expect(t, srv.do(t, http.MethodGet, "/api/market", aliceToken, nil), http.StatusOK, &items)
	require.Empty(t, items)

	var info dto.InfoResponse
	srv.expect(t, srv.do(t, http.MethodGet, "/api/info", aliceToken, nil), http.StatusOK, &info)
	require.Equal(t, 500, info.Coins)
	require.Len(t, info.Inventory, 1)
	require.Equal(t, "Crown", info.Inventory[0].Item)
	require.Equal(t, 1, info.Inventory[0].Quantity)

	srv.expectError(t, srv.do(t, http.MethodPost, "/api/buy/not-a-uuid", aliceToken, nil), http.StatusBadRequest, "invalid_request")
}

func TestAdminRoutes(t *testing.T) {
	srv := newTestServer(t)
	defer srv.close()

	adminToken, _ := srv.login(t, "admin")
	aliceToken, _ := srv.login(t, "alice")

	resp := srv.do(t, http.MethodPost, "/api/market", aliceToken, dto.AddItemRequest{Name: "Sword", Price: 100, Stock: 3})
	srv.expectError(t, resp, http.StatusForbidden, "forbidden")

	resp = srv.do(t, http.MethodPost, "/api/market", adminToken, dto.AddItemRequest{Name: "Sword", Price: 0, Stock: 3})
	srv.expectError(t, resp, http.StatusBadRequest, "invalid_item")

	resp = srv.do(t, http.MethodPost, "/api/market", adminToken, dto.AddItemRequest{Name: "Sword", Price: 100})
	srv.expectError(t, resp, http.StatusBadRequest, "invalid_item")

	resp = srv.do(t, http.MethodPost, "/api/market", adminToken, dto.AddItemRequest{Name: "Sword", Price: models.MaxAmount + 1, Stock: 3})
	srv.expectError(t, resp, http.StatusBadRequest, "invalid_item")

	var sword models.MarketItem
	resp = srv.do(t, http.MethodPost, "/api/market", adminToken, dto.AddItemRequest{Name: "Sword", Price: 100, Stock: 3})
	srv.expect(t, resp, http.StatusCreated, &sword)

	srv.expectError(t, srv.do(t, http.MethodDelete, "/api/market/Axe", adminToken, nil), http.StatusNotFound, "item_not_found")
	srv.expect(t, srv.do(t, http.MethodDelete, "/api/market/Sword", adminToken, nil), http.StatusNoContent, nil)
	srv.expectError(t, srv.do(t, http.MethodDelete, "/api/items/"+sword.ID.String(), adminToken, nil), http.StatusNotFound, "item_not_found")

	var balance dto.BalanceResponse
	resp = srv.do(t, http.MethodPost, "/api/accounts/alice/adjust", adminToken, dto.AdjustBalanceRequest{Delta: 50})
	srv.expect(t, resp, http.StatusOK, &balance)
	require.Equal(t, 50, balance.Coins)

	resp = srv.do(t, http.MethodPost, "/api/accounts/alice/adjust", adminToken, dto.AdjustBalanceRequest{Delta: -60})
	srv.expectError(t, resp, http.StatusPaymentRequired, "insufficient_funds")

	resp = srv.do(t, http.MethodPost, "/api/accounts/alice/adjust", adminToken, dto.AdjustBalanceRequest{Delta: models.MaxAmount})
	srv.expectError(t, resp, http.StatusUnprocessableEntity, "balance_limit_exceeded")

	resp = srv.do(t, http.MethodPost, "/api/accounts/alice/adjust", adminToken, dto.AdjustBalanceRequest{Delta: models.MaxAmount + 1})
	srv.expectError(t, resp, http.StatusBadRequest, "invalid_request")

	longID := strings.Repeat("9", 65)
	resp = srv.do(t, http.MethodPost, "/api/accounts/"+longID+"/adjust", adminToken, dto.AdjustBalanceRequest{Delta: 10})
	srv.expectError(t, resp, http.StatusBadRequest, "invalid_request")

	srv.expect(t, srv.do(t, http.MethodGet, "/api/balance", aliceToken, nil), http.StatusOK, &balance)
	require.Equal(t, 50, balance.Coins)
}
