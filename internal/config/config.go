package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"waas-gateway-go/internal/models"
)

func Load() (*models.Config, error) {
	requestTimeout, err := getEnvDuration("FIREBLOCKS_REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	freshnessWindow, err := getEnvDuration("WEBHOOK_FRESHNESS_WINDOW", 300*time.Second)
	if err != nil {
		return nil, err
	}

	connMaxLifetime, err := getEnvDuration("SINK_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("SINK_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("SINK_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	shutdownTimeout, err := getEnvDuration("WEBHOOKD_SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	return &models.Config{
		Provider: models.ProviderConfig{
			Id: getEnvString("WAAS_PROVIDER", "fireblocks"),
		},
		Fireblocks: models.FireblocksConfig{
			BaseURL:        getEnvString("FIREBLOCKS_BASE_URL", "https://api.fireblocks.io/v1"),
			APIKey:         getEnvString("FIREBLOCKS_API_KEY", ""),
			RequestTimeout: requestTimeout,
		},
		Prime: models.PrimeConfig{
			AccessKey:  getEnvString("PRIME_ACCESS_KEY", ""),
			Passphrase: getEnvString("PRIME_PASSPHRASE", ""),
			SigningKey: getEnvString("PRIME_SIGNING_KEY", ""),
		},
		Webhook: models.WebhookConfig{
			V1PublicKeyPEM:  getEnvString("WEBHOOK_V1_PUBLIC_KEY", ""),
			V2SigningSecret: getEnvString("WEBHOOK_V2_SIGNING_SECRET", ""),
			FreshnessWindow: freshnessWindow,
		},
		Assets: models.AssetsConfig{
			RegistryFile:   getEnvString("ASSETS_FILE", "assets.yaml"),
			StableKeywords: getEnvStringSlice("STABLE_ASSET_KEYWORDS", []string{"usd"}),
		},
		Sink: models.SinkConfig{
			Path:            getEnvString("SINK_DATABASE_PATH", "webhook-events.db"),
			MaxOpenConns:    getEnvInt("SINK_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("SINK_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Listen: models.ListenConfig{
			Addr:            getEnvString("WEBHOOKD_LISTEN_ADDR", ":8085"),
			ShutdownTimeout: shutdownTimeout,
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
