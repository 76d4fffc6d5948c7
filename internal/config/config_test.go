package config

import (
	"gcoin-shop/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func setBaseEnv(t *testing.T) {
	t.Setenv("ENV", "local")
	t.Setenv("ADDRESS", ":8080")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("GATEWAY_KEY_HASH", "$2a$10$abcdefghijklmnopqrstuv")
	t.Setenv("STORAGE_DRIVER", "memory")
}

func TestFromEnv_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := FromEnv()

	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.Server.Timeout)
	assert.Equal(t, StorageMemory, cfg.Storage.Driver)
	assert.Equal(t, 15, cfg.JWT.AccessExpirationMinutes)
	assert.Equal(t, 7, cfg.JWT.RefreshExpirationDays)
	assert.Equal(t, 100, cfg.Shop.ClaimReward)
	assert.Equal(t, models.LinkPolicyBoth, cfg.Shop.LinkPolicy)
	assert.Equal(t, "log", cfg.Notify.Provider)
	assert.Equal(t, 3*time.Second, cfg.Notify.Timeout)
	assert.Equal(t, "gcoin:notifications", cfg.Notify.RedisKey)
	assert.Empty(t, cfg.Auth.AdminIDs)
}

func TestFromEnv_Overrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("ADMIN_IDS", " 1, 2 ,,3")
	t.Setenv("LINK_POLICY", "Purchase")
	t.Setenv("CLAIM_REWARD", "250")
	t.Setenv("NOTIFY_PROVIDER", "AMQP")
	t.Setenv("TIMEOUT", "10s")

	cfg, err := FromEnv()

	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2", "3"}, cfg.Auth.AdminIDs)
	assert.Equal(t, models.LinkPolicyPurchase, cfg.Shop.LinkPolicy)
	assert.Equal(t, 250, cfg.Shop.ClaimReward)
	assert.Equal(t, "amqp", cfg.Notify.Provider)
	assert.Equal(t, 10*time.Second, cfg.Server.Timeout)
}

func TestFromEnv_CollectsErrors(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_SECRET", "")
	t.Setenv("TIMEOUT", "soon")
	t.Setenv("LINK_POLICY", "sometimes")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("POSTGRES_CONN", "")

	_, err := FromEnv()

	require.Error(t, err)
	assert.ErrorContains(t, err, "JWT_SECRET is required")
	assert.ErrorContains(t, err, "invalid TIMEOUT format")
	assert.ErrorContains(t, err, "LINK_POLICY")
	assert.ErrorContains(t, err, "POSTGRES_CONN is required")
}

func TestLoad_ReadsDotenvFile(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("SHOP_OWNER_ID", "")
	os.Unsetenv("SHOP_OWNER_ID")

	path := filepath.Join(t.TempDir(), ".env.test")
	require.NoError(t, os.WriteFile(path, []byte("SHOP_OWNER_ID=777\n"), 0o600))
	t.Setenv("CONFIG_PATH", path)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "777", cfg.Shop.OwnerID)
}

func TestLoad_MissingFileIsIgnored(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.env"))

	_, err := Load()

	assert.NoError(t, err)
}
