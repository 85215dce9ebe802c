package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
)

// GatewayConfig описывает внешний сервис: базовый URL и таймаут одного вызова.
// Пустой BaseURL означает, что вместо HTTP-клиента поднимается симулятор.
type GatewayConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type AppConfig struct {
	Env       string
	LogFormat string // text | json
	LogLevel  string

	GRPCAddr string
	HTTPAddr string
	// Разрешённые источники CORS для REST; при пустом значении CORS не включается.
	CORSOrigins string

	Payment  GatewayConfig
	Provider GatewayConfig
	Calendar GatewayConfig
	Planner  GatewayConfig

	// Модель Gemini для генерации кандидатов. Без ключа используется
	// генератор на основе реестра мест.
	GeminiAPIKey string
	GeminiModel  string

	// Путь к YAML с таблицей правил анализа сбоев (необязательный).
	PolicyFile string
}

// LoadDotEnv подгружает .env, если он есть. Отсутствие файла ошибкой не считается.
func LoadDotEnv(paths ...string) error {
	if err := godotenv.Load(paths...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func LoadAppConfig() (*AppConfig, error) {
	defaultTimeout := getEnvDuration("GATEWAY_TIMEOUT", 5*time.Second)

	cfg := &AppConfig{
		Env:         getEnv("APP_ENV", "development"),
		LogFormat:   getEnv("LOG_FORMAT", "text"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		GRPCAddr:    getEnv("CORE_GRPC_ADDR", ":50051"),
		HTTPAddr:    getEnv("CORE_HTTP_ADDR", ":8080"),
		CORSOrigins: getEnv("CORS_ALLOW_ORIGINS", ""),
		Payment: GatewayConfig{
			BaseURL: getEnv("PAYMENT_BASE_URL", ""),
			APIKey:  getEnv("PAYMENT_API_KEY", ""),
			Timeout: getEnvDuration("GATEWAY_TIMEOUT_PAYMENT", defaultTimeout),
		},
		Provider: GatewayConfig{
			BaseURL: getEnv("PROVIDER_BASE_URL", ""),
			APIKey:  getEnv("PROVIDER_API_KEY", ""),
			Timeout: getEnvDuration("GATEWAY_TIMEOUT_PROVIDER", defaultTimeout),
		},
		Calendar: GatewayConfig{
			BaseURL: getEnv("CALENDAR_BASE_URL", ""),
			APIKey:  getEnv("CALENDAR_API_KEY", ""),
			Timeout: getEnvDuration("GATEWAY_TIMEOUT_CALENDAR", defaultTimeout),
		},
		Planner: GatewayConfig{
			Timeout: getEnvDuration("GATEWAY_TIMEOUT_PLANNER", 30*time.Second),
		},
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-2.5-flash-lite"),
		PolicyFile:   getEnv("REPLAN_POLICY_FILE", ""),
	}

	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("invalid app config: LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}
	for name, gw := range map[string]GatewayConfig{
		"payment":  cfg.Payment,
		"provider": cfg.Provider,
		"calendar": cfg.Calendar,
		"planner":  cfg.Planner,
	} {
		if gw.Timeout <= 0 {
			return nil, fmt.Errorf("invalid app config: %s timeout must be positive", name)
		}
	}

	return cfg, nil
}
