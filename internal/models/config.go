package models

import "time"

// Config represents the application configuration
type Config struct {
	Provider   ProviderConfig
	Fireblocks FireblocksConfig
	Prime      PrimeConfig
	Webhook    WebhookConfig
	Assets     AssetsConfig
	Sink       SinkConfig
	Listen     ListenConfig
}

// ProviderConfig selects the active custodial provider.
type ProviderConfig struct {
	Id string
}

// FireblocksConfig holds the Fireblocks REST client settings.
type FireblocksConfig struct {
	BaseURL        string
	APIKey         string
	RequestTimeout time.Duration
}

// PrimeConfig holds Coinbase Prime API credentials.
type PrimeConfig struct {
	AccessKey  string
	Passphrase string
	SigningKey string
}

// WebhookConfig holds the signing material for inbound webhook verification.
// V1PublicKeyPEM is a PEM-encoded RSA public key; V2SigningSecret is the
// shared HMAC secret.
type WebhookConfig struct {
	V1PublicKeyPEM  string
	V2SigningSecret string
	FreshnessWindow time.Duration
}

// AssetsConfig holds the asset registry location and the stable-asset
// keyword set.
type AssetsConfig struct {
	RegistryFile   string
	StableKeywords []string
}

// SinkConfig holds the webhook event sink database settings.
type SinkConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// ListenConfig holds the webhook daemon HTTP settings.
type ListenConfig struct {
	Addr            string
	ShutdownTimeout time.Duration
}
