package config

import (
	"flag"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config содержит настройки приложения
type Config struct {
	RunAddr         string
	GRPCAddr        string
	BaseURL         string
	FileStoragePath string
	DatabaseDSN     string
	RedisAddr       string
	RedisPassword   string
	RedisDB         int
	JWTSecret       string
	CookieTTL       time.Duration
	TrustedSubnet   string
	LogLevel        string
	LogFile         string
}

// Значения по умолчанию
const (
	defaultRunAddr   = ":8080"
	defaultBaseURL   = "http://localhost:8080"
	defaultJWTSecret = "default_jwt_secret"
	defaultCookieTTL = 24 * time.Hour
	defaultLogLevel  = "info"
)

// NewConfig создает и возвращает новый объект Config с настройками по умолчанию,
// парсит флаги командной строки и применяет переменные окружения
func NewConfig() (*Config, error) {
	return load(os.Args[1:], os.Getenv)
}

// load собирает конфигурацию из аргументов и окружения. Переменные окружения
// имеют приоритет над флагами.
func load(args []string, getenv func(string) string) (*Config, error) {
	cfg := &Config{}

	fs := flag.NewFlagSet("shortify", flag.ContinueOnError)
	fs.StringVar(&cfg.RunAddr, "a", defaultRunAddr, "address and port to run HTTP server")
	fs.StringVar(&cfg.GRPCAddr, "g", "", "address and port to run gRPC server")
	fs.StringVar(&cfg.BaseURL, "b", defaultBaseURL, "base URL for shortened links")
	fs.StringVar(&cfg.FileStoragePath, "f", "", "path to file for storing links")
	fs.StringVar(&cfg.DatabaseDSN, "d", "", "database DSN for PostgreSQL")
	fs.StringVar(&cfg.RedisAddr, "r", "", "Redis address for storing links")
	fs.StringVar(&cfg.JWTSecret, "j", defaultJWTSecret, "JWT secret key")
	fs.DurationVar(&cfg.CookieTTL, "c", defaultCookieTTL, "session cookie TTL")
	fs.StringVar(&cfg.TrustedSubnet, "t", "", "trusted subnet in CIDR notation")
	fs.StringVar(&cfg.LogLevel, "l", defaultLogLevel, "log level")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	stringEnv(getenv, "SERVER_ADDRESS", &cfg.RunAddr)
	stringEnv(getenv, "GRPC_ADDRESS", &cfg.GRPCAddr)
	stringEnv(getenv, "BASE_URL", &cfg.BaseURL)
	stringEnv(getenv, "FILE_STORAGE_PATH", &cfg.FileStoragePath)
	stringEnv(getenv, "DATABASE_DSN", &cfg.DatabaseDSN)
	stringEnv(getenv, "REDIS_ADDR", &cfg.RedisAddr)
	stringEnv(getenv, "REDIS_PASSWORD", &cfg.RedisPassword)
	stringEnv(getenv, "JWT_SECRET", &cfg.JWTSecret)
	stringEnv(getenv, "TRUSTED_SUBNET", &cfg.TrustedSubnet)
	stringEnv(getenv, "LOG_LEVEL", &cfg.LogLevel)
	stringEnv(getenv, "LOG_FILE", &cfg.LogFile)

	if v := getenv("REDIS_DB"); v != "" {
		db, err := strconv.Atoi(v)
		if err != nil {
			return nil, err
		}
		cfg.RedisDB = db
	}
	if v := getenv("COOKIE_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return nil, err
		}
		cfg.CookieTTL = ttl
	}

	// Валидация значений
	cfg.RunAddr = normalizeAddr(cfg.RunAddr)
	if cfg.GRPCAddr != "" {
		cfg.GRPCAddr = normalizeAddr(cfg.GRPCAddr)
	}
	cfg.BaseURL = normalizeBaseURL(cfg.BaseURL)

	if cfg.FileStoragePath != "" {
		// Создаём директорию для файла, если она не существует
		if err := os.MkdirAll(filepath.Dir(cfg.FileStoragePath), 0755); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// stringEnv переопределяет значение, если переменная окружения задана
func stringEnv(getenv func(string) string, key string, dst *string) {
	if v := getenv(key); v != "" {
		*dst = v
	}
}

// normalizeAddr добавляет двоеточие к адресу, состоящему только из порта
func normalizeAddr(addr string) string {
	if !strings.Contains(addr, ":") {
		return ":" + addr
	}
	return addr
}

// normalizeBaseURL добавляет схему http:// и убирает завершающий слэш
func normalizeBaseURL(u string) string {
	if !strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://") {
		u = "http://" + u
	}
	return strings.TrimRight(u, "/")
}
