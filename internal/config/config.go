// config предоставляет структуру конфигурации сервиса и функции
// загрузки из файла/переменных окружения с предсказуемым приоритетом.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config — корневая конфигурация сервиса.
// Источники значений (по убыванию приоритета):
//  1. явный путь через флаг --config;
//  2. путь в переменной окружения CONFIG_PATH;
//  3. файл local.yaml из рабочей директории;
//  4. переменные окружения (cleanenv).
type Config struct {
	Env       string          `yaml:"env" env:"ENV" env-default:"local"`
	HTTP      HTTPConfig      `yaml:"http"`
	Auth      AuthConfig      `yaml:"auth"`
	DB        DBConfig        `yaml:"db"`
	Redis     RedisConfig     `yaml:"redis"`
	Cache     CacheConfig     `yaml:"cache"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	S3        S3Config        `yaml:"s3"`
	Avatar    AvatarConfig    `yaml:"avatar"`
	OTel      OTelConfig      `yaml:"otel"`
	Timeouts  TimeoutConfig   `yaml:"timeouts"`
}

// HTTPConfig — сетевые настройки HTTP-сервера.
// BaseURL используется для построения ссылок в письмах подтверждения.
// CORSOrigins — фронтенды, которым разрешены запросы с credentials.
type HTTPConfig struct {
	Host        string   `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port        string   `yaml:"port" env:"HTTP_PORT" env-default:"8000"`
	BaseURL     string   `yaml:"base_url" env:"HTTP_BASE_URL" env-default:"http://localhost:8000"`
	CORSOrigins []string `yaml:"cors_origins" env:"HTTP_CORS_ORIGINS" env-default:"http://localhost:3000"`
}

// Addr возвращает адрес в формате host:port.
func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

// AuthConfig содержит параметры выпуска и валидации токенов.
type AuthConfig struct {
	JWTSecret       string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	Algorithm       string        `yaml:"algorithm" env:"JWT_ALGORITHM" env-default:"HS256"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl" env:"ACCESS_TOKEN_TTL" env-default:"15m"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl" env:"REFRESH_TOKEN_TTL" env-default:"168h"`
	EmailTokenTTL   time.Duration `yaml:"email_token_ttl" env:"EMAIL_TOKEN_TTL" env-default:"168h"`
	BcryptCost      int           `yaml:"bcrypt_cost" env:"BCRYPT_COST" env-default:"0"`
}

// DBConfig — настройки подключения к базе данных.
type DBConfig struct {
	DatabaseURL    string `yaml:"db_url" env:"DATABASE_URL" env-required:"true"`
	MigrateOnStart bool   `yaml:"migrate_on_start" env:"DB_MIGRATE_ON_START" env-default:"true"`
}

type RedisConfig struct {
	RedisURL string `yaml:"redis_url" env:"REDIS_URL" env-required:"true"`
}

// CacheConfig — параметры кэша пользователей.
// EvictOnMutation=false оставляет снимок в кэше до истечения UserTTL
// даже после изменения профиля.
type CacheConfig struct {
	UserTTL         time.Duration `yaml:"user_ttl" env:"CACHE_USER_TTL" env-default:"300s"`
	EvictOnMutation bool          `yaml:"evict_on_mutation" env:"CACHE_EVICT_ON_MUTATION" env-default:"false"`
}

// RateLimitConfig — бюджет запросов на маршрут в фиксированном окне.
type RateLimitConfig struct {
	Requests int           `yaml:"requests" env:"RATE_LIMIT_REQUESTS" env-default:"10"`
	Window   time.Duration `yaml:"window" env:"RATE_LIMIT_WINDOW" env-default:"60s"`
}

// SMTPConfig — параметры отправки писем.
type SMTPConfig struct {
	Addr     string        `yaml:"addr" env:"SMTP_ADDR" env-default:"localhost:1025"`
	User     string        `yaml:"user" env:"SMTP_USER"`
	Password string        `yaml:"password" env:"SMTP_PASSWORD"`
	From     string        `yaml:"from" env:"SMTP_FROM" env-default:"contacts-api@localhost"`
	UseTLS   bool          `yaml:"use_tls" env:"SMTP_USE_TLS" env-default:"false"`
	Timeout  time.Duration `yaml:"timeout" env:"SMTP_TIMEOUT" env-default:"10s"`
}

// S3Config — доступ к объектному хранилищу аватаров.
type S3Config struct {
	Endpoint      string `yaml:"endpoint" env:"S3_ENDPOINT" env-required:"true"`
	RootUser      string `yaml:"root_user" env:"S3_ROOT_USER" env-required:"true"`
	RootPassword  string `yaml:"root_password" env:"S3_ROOT_PASSWORD" env-required:"true"`
	Bucket        string `yaml:"bucket" env:"S3_BUCKET" env-default:"avatars"`
	PublicBaseURL string `yaml:"public_base_url" env:"S3_PUBLIC_BASE_URL"`
}

// AvatarConfig — ограничения на загружаемые аватары.
type AvatarConfig struct {
	MaxSizeBytes        int64    `yaml:"max_size_bytes" env:"AVATAR_MAX_SIZE_BYTES" env-default:"5242880"`
	AllowedContentTypes []string `yaml:"allowed_content_types" env:"AVATAR_ALLOWED_CONTENT_TYPES" env-default:"image/jpeg,image/png,image/webp"`
}

// OTelConfig — экспорт трейсов по OTLP/gRPC.
type OTelConfig struct {
	Enable      bool    `yaml:"enable" env:"OTEL_ENABLE" env-default:"false"`
	Endpoint    string  `yaml:"endpoint" env:"OTEL_ENDPOINT" env-default:"localhost:4317"`
	ServiceName string  `yaml:"service_name" env:"OTEL_SERVICE_NAME" env-default:"contacts-api"`
	SampleRatio float64 `yaml:"sample_ratio" env:"OTEL_SAMPLE_RATIO" env-default:"1.0"`
}

// TimeoutConfig — таймауты сервиса.
type TimeoutConfig struct {
	Request time.Duration `yaml:"request" env:"REQUEST_TIMEOUT" env-default:"5s"`
}

// Validate проверяет значения, которые cleanenv не умеет проверить тегами.
func (c *Config) Validate() error {
	const op = "config.Validate"

	var errs []error

	switch strings.ToUpper(c.Auth.Algorithm) {
	case "HS256", "HS384", "HS512":
	default:
		errs = append(errs, fmt.Errorf("auth.algorithm %q is not supported", c.Auth.Algorithm))
	}

	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 || c.Auth.EmailTokenTTL <= 0 {
		errs = append(errs, errors.New("auth token ttl must be positive"))
	}

	if c.Cache.UserTTL <= 0 {
		errs = append(errs, errors.New("cache.user_ttl must be positive"))
	}

	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		errs = append(errs, errors.New("rate_limit requests and window must be positive"))
	}

	for _, o := range c.HTTP.CORSOrigins {
		// "*" несовместим с allow_credentials.
		if o == "*" {
			errs = append(errs, errors.New("http.cors_origins must list explicit origins"))
			break
		}
	}

	if c.Avatar.MaxSizeBytes <= 0 {
		errs = append(errs, errors.New("avatar.max_size_bytes must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s: %w", op, errors.Join(errs...))
	}

	return nil
}

// MustLoad — обёртка над Load с panic при ошибке.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		panic(err)
	}

	return cfg
}

// Load загружает конфигурацию по приоритету:
// 1) явный путь; 2) CONFIG_PATH; 3) ./local.yaml; 4) ENV.
// После чтения файла ENV-переменные накладываются поверх значений из YAML.
func Load(path string) (*Config, error) {
	var cfg Config

	tryRead := func(p string) (*Config, error) {
		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("config file does not exist: %s", p)
			}

			return nil, fmt.Errorf("config file %q stat failed: %w", p, err)
		}

		if err := cleanenv.ReadConfig(p, &cfg); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}

		if err := cleanenv.ReadEnv(&cfg); err != nil {
			return nil, fmt.Errorf("failed to overlay env: %w", err)
		}

		return &cfg, cfg.Validate()
	}

	// 1) Явный путь.
	if path != "" {
		return tryRead(path)
	}

	// 2) CONFIG_PATH.
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return tryRead(envPath)
	}

	// 3) ./local.yaml.
	if _, err := os.Stat("local.yaml"); err == nil {
		return tryRead("local.yaml")
	}

	// 4) Только ENV.
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config not found: provide --config, CONFIG_PATH, local.yaml or env vars: %w", err)
	}

	return &cfg, cfg.Validate()
}
