package config

import (
	"errors"
	"fmt"
	"gcoin-shop/internal/domain/models"
	"github.com/joho/godotenv"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
	StorageMySQL    = "mysql"
)

type ServerConfig struct {
	Env          string        `env:"ENV,required"` // local, dev, prod
	Address      string        `env:"ADDRESS,required"`
	Timeout      time.Duration `env:"TIMEOUT" envDefault:"5s"`
	AllowOrigins []string      `env:"CORS_ORIGINS"`
}

type StorageConfig struct {
	Driver       string `env:"STORAGE_DRIVER" envDefault:"postgres"`
	PostgresConn string `env:"POSTGRES_CONN"`
	MySQLDSN     string `env:"MYSQL_DSN"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
}

type JWTConfig struct {
	Secret                  string `env:"JWT_SECRET,required"`
	AccessExpirationMinutes int    `env:"ACCESS_EXPIRATION_MINUTES" envDefault:"15"`
	RefreshExpirationDays   int    `env:"REFRESH_EXPIRATION_DAYS" envDefault:"7"`
}

type AuthConfig struct {
	GatewayKeyHash string   `env:"GATEWAY_KEY_HASH,required"`
	AdminIDs       []string `env:"ADMIN_IDS"`
}

type ShopConfig struct {
	ClaimReward int               `env:"CLAIM_REWARD" envDefault:"100"`
	LinkPolicy  models.LinkPolicy `env:"LINK_POLICY" envDefault:"both"`
	OwnerID     string            `env:"SHOP_OWNER_ID"`
}

type NotifyConfig struct {
	Provider  string        `env:"NOTIFY_PROVIDER" envDefault:"log"` // log, redis, amqp
	Timeout   time.Duration `env:"NOTIFY_TIMEOUT" envDefault:"3s"`
	RedisKey  string        `env:"NOTIFY_REDIS_KEY" envDefault:"gcoin:notifications"`
	AMQPURL   string        `env:"AMQP_URL"`
	AMQPQueue string        `env:"NOTIFY_AMQP_QUEUE" envDefault:"gcoin.notifications"`
}

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Redis   RedisConfig
	JWT     JWTConfig
	Auth    AuthConfig
	Shop    ShopConfig
	Notify  NotifyConfig
}

const local = ".env.local"

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads the dotenv file named by CONFIG_PATH (default .env.local) if it
// exists, then parses the environment.
func Load() (*Config, error) {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = local
	}

	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}

	return FromEnv()
}

func FromEnv() (*Config, error) {
	p := &parser{}

	cfg := &Config{
		Server: ServerConfig{
			Env:          p.required("ENV"),
			Address:      p.required("ADDRESS"),
			Timeout:      p.duration("TIMEOUT", 5*time.Second),
			AllowOrigins: list(os.Getenv("CORS_ORIGINS")),
		},
		Storage: StorageConfig{
			Driver:       strings.ToLower(p.str("STORAGE_DRIVER", StoragePostgres)),
			PostgresConn: os.Getenv("POSTGRES_CONN"),
			MySQLDSN:     os.Getenv("MYSQL_DSN"),
		},
		Redis: RedisConfig{
			Addr:     os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       p.integer("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret:                  p.required("JWT_SECRET"),
			AccessExpirationMinutes: p.integer("ACCESS_EXPIRATION_MINUTES", 15),
			RefreshExpirationDays:   p.integer("REFRESH_EXPIRATION_DAYS", 7),
		},
		Auth: AuthConfig{
			GatewayKeyHash: p.required("GATEWAY_KEY_HASH"),
			AdminIDs:       list(os.Getenv("ADMIN_IDS")),
		},
		Shop: ShopConfig{
			ClaimReward: p.integer("CLAIM_REWARD", 100),
			OwnerID:     os.Getenv("SHOP_OWNER_ID"),
		},
		Notify: NotifyConfig{
			Provider:  strings.ToLower(p.str("NOTIFY_PROVIDER", "log")),
			Timeout:   p.duration("NOTIFY_TIMEOUT", 3*time.Second),
			RedisKey:  p.str("NOTIFY_REDIS_KEY", "gcoin:notifications"),
			AMQPURL:   os.Getenv("AMQP_URL"),
			AMQPQueue: p.str("NOTIFY_AMQP_QUEUE", "gcoin.notifications"),
		},
	}

	policy, err := models.ParseLinkPolicy(os.Getenv("LINK_POLICY"))
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("LINK_POLICY: %w", err))
	}
	cfg.Shop.LinkPolicy = policy

	switch cfg.Storage.Driver {
	case StorageMemory:
	case StoragePostgres:
		if cfg.Storage.PostgresConn == "" {
			p.errs = append(p.errs, errors.New("POSTGRES_CONN is required for the postgres storage"))
		}
	case StorageMySQL:
		if cfg.Storage.MySQLDSN == "" {
			p.errs = append(p.errs, errors.New("MYSQL_DSN is required for the mysql storage"))
		}
	default:
		p.errs = append(p.errs, fmt.Errorf("STORAGE_DRIVER: unknown driver %q", cfg.Storage.Driver))
	}

	if cfg.Shop.ClaimReward <= 0 {
		p.errs = append(p.errs, errors.New("CLAIM_REWARD must be positive"))
	}

	if err := errors.Join(p.errs...); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	return cfg, nil
}

type parser struct {
	errs []error
}

func (p *parser) required(key string) string {
	v := os.Getenv(key)
	if v == "" {
		p.errs = append(p.errs, fmt.Errorf("%s is required", key))
	}
	return v
}

func (p *parser) str(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func (p *parser) integer(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s format: %w", key, err))
		return def
	}
	return n
}

func (p *parser) duration(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.errs = append(p.errs, fmt.Errorf("invalid %s format: %w", key, err))
		return def
	}
	return d
}

func list(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
