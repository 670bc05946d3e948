// Package config предоставляет структуры и функции для загрузки конфига
// веб-оболочки, терминального клиента и локального стенда бэкенда.
package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env             string `yaml:"env" env:"ENV" env-default:"local"`
	API             `yaml:"api"`
	Routes          `yaml:"routes"`
	Subscription    `yaml:"subscription"`
	TokenStore      `yaml:"token_store"`
	RedisConnection `yaml:"redis_connection"`
	HTTPServer      `yaml:"http_server"`
	RabbitMQ        `yaml:"rabbitmq"`
	DevBackend      `yaml:"dev_backend"`
}

// API настройки клиента бэкенда
type API struct {
	BaseURL       string        `yaml:"base_url" env:"API_BASE_URL" env-default:"http://localhost:8090"`
	Timeout       time.Duration `yaml:"timeout" env:"API_TIMEOUT" env-default:"10s"`
	LogoutTimeout time.Duration `yaml:"logout_timeout" env:"API_LOGOUT_TIMEOUT" env-default:"2s"`
}

// Routes пути страниц, которые используют route guard и мутаторы сессии
type Routes struct {
	Login             string   `yaml:"login" env:"ROUTE_LOGIN" env-default:"/login"`
	SelectProfile     string   `yaml:"select_profile" env:"ROUTE_SELECT_PROFILE" env-default:"/select-profile"`
	DashboardHome     string   `yaml:"dashboard_home" env:"ROUTE_DASHBOARD_HOME" env-default:"/dashboard"`
	Subscribe         string   `yaml:"subscribe" env:"ROUTE_SUBSCRIBE" env-default:"/subscribe"`
	ProtectedPrefixes []string `yaml:"protected_prefixes" env:"ROUTE_PROTECTED_PREFIXES" env-default:"/dashboard,/select-profile"`
}

// Subscription настройки проверки подписки
type Subscription struct {
	AdminEmail string `yaml:"admin_email" env:"SUBSCRIPTION_ADMIN_EMAIL"`
}

// TokenStore настройки хранилища токена и выбранного профиля
type TokenStore struct {
	Driver         string        `yaml:"driver" env:"TOKEN_STORE_DRIVER" env-default:"file"`
	FilePath       string        `yaml:"file_path" env:"TOKEN_STORE_FILE"`
	TokenCookie    string        `yaml:"token_cookie" env:"TOKEN_STORE_TOKEN_COOKIE" env-default:"token"`
	ProfileCookie  string        `yaml:"profile_cookie" env:"TOKEN_STORE_PROFILE_COOKIE" env-default:"profile_id"`
	SessionCookie  string        `yaml:"session_cookie" env:"TOKEN_STORE_SESSION_COOKIE" env-default:"sid"`
	CookieSecure   bool          `yaml:"cookie_secure" env:"TOKEN_STORE_COOKIE_SECURE"`
	CookieMaxAge   time.Duration `yaml:"cookie_max_age" env:"TOKEN_STORE_COOKIE_MAX_AGE" env-default:"720h"`
	RedisKeyPrefix string        `yaml:"redis_key_prefix" env:"TOKEN_STORE_REDIS_PREFIX" env-default:"session"`
	SessionTTL     time.Duration `yaml:"session_ttl" env:"TOKEN_STORE_SESSION_TTL" env-default:"720h"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password     string        `yaml:"password" env:"REDIS_PASSWORD"`
	User         string        `yaml:"user" env:"REDIS_USER"`
	DB           int           `yaml:"db" env:"REDIS_DB"`
	MaxRetries   int           `yaml:"max_retries" env:"REDIS_MAX_RETRIES" env-default:"3"`
	DialTimeout  time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"5s"`
	TimeoutRedis time.Duration `yaml:"timeoutredis" env:"REDIS_TIMEOUT" env-default:"3s"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP    string        `yaml:"addresshttp" env:"HTTP_ADDRESS" env-default:":8080"`
	TimeoutHTTP    time.Duration `yaml:"timeouthttp" env:"HTTP_TIMEOUT" env-default:"15s"`
	IdleTimeout    time.Duration `yaml:"idle_timeout" env:"HTTP_IDLE_TIMEOUT" env-default:"60s"`
	LoginRateLimit float64       `yaml:"login_rate_limit" env:"HTTP_LOGIN_RATE_LIMIT" env-default:"1"`
	LoginBurst     int           `yaml:"login_burst" env:"HTTP_LOGIN_BURST" env-default:"5"`
}

// RabbitMQ настройки публикации событий сессии. Пустой URL отключает публикацию.
type RabbitMQ struct {
	URL      string        `yaml:"url" env:"RABBITMQ_URL"`
	Exchange string        `yaml:"exchange" env:"RABBITMQ_EXCHANGE" env-default:"session-events"`
	Retries  int           `yaml:"retries" env:"RABBITMQ_RETRIES" env-default:"3"`
	Delay    time.Duration `yaml:"delay" env:"RABBITMQ_DELAY" env-default:"2s"`
}

// DevBackend настройки локального стенда бэкенда
type DevBackend struct {
	Address      string        `yaml:"address" env:"DEV_BACKEND_ADDRESS" env-default:":8090"`
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"DEV_BACKEND_JWT_SECRET" env-default:"dev-secret"`
	TokenTTL     time.Duration `yaml:"token_ttl" env:"DEV_BACKEND_TOKEN_TTL" env-default:"24h"`
	SeedPath     string        `yaml:"seed_path" env:"DEV_BACKEND_SEED"`
}

// MustLoad функция для загрузки конфига по пути из CONFIG_PATH, завершает процесс при ошибке
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return cfg
}

// Load читает конфиг из YAML-файла. При пустом пути конфиг собирается
// только из переменных окружения и значений по умолчанию.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	var cfg Config

	if path == "" {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	} else if err := cleanenv.ReadConfig(path, &cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cfg.ProtectedPrefixes = normalizePrefixes(cfg.ProtectedPrefixes)
	return &cfg, nil
}

func normalizePrefixes(prefixes []string) []string {
	out := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"API:\n"+
			"  BaseURL: %s\n"+
			"  Timeout: %s\n"+
			"Routes:\n"+
			"  Login: %s\n"+
			"  SelectProfile: %s\n"+
			"  DashboardHome: %s\n"+
			"  Subscribe: %s\n"+
			"  Protected: %s\n"+
			"TokenStore:\n"+
			"  Driver: %s\n"+
			"  FilePath: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  Password: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"RabbitMQ:\n"+
			"  URL: %s\n"+
			"  Exchange: %s\n",
		c.Env,
		c.BaseURL,
		c.API.Timeout,
		c.Login,
		c.SelectProfile,
		c.DashboardHome,
		c.Subscribe,
		strings.Join(c.ProtectedPrefixes, ","),
		c.Driver,
		c.FilePath,
		c.AddressRedis,
		mask(c.Password),
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		mask(c.URL),
		c.Exchange,
	)
}

func mask(s string) string {
	if s == "" {
		return ""
	}
	return "***"
}
