package common

import (
	"go.uber.org/zap"

	"waas-gateway-go/internal/assets"
	"waas-gateway-go/internal/config"
	_ "waas-gateway-go/internal/fireblocks"
	"waas-gateway-go/internal/models"
	_ "waas-gateway-go/internal/primeadapter"
	"waas-gateway-go/internal/provider"
)

// Services bundles everything a command-line tool needs: the resolved
// custody provider, the asset registry and the loaded configuration.
type Services struct {
	Config   *models.Config
	Provider provider.Service
	Registry []models.Asset
}

// InitializeServices loads configuration, resolves the configured custody
// provider and reads the asset registry file.
func InitializeServices() (*Services, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	svc, err := provider.Resolve(cfg)
	if err != nil {
		return nil, err
	}

	registry, err := assets.LoadRegistry(cfg.Assets.RegistryFile)
	if err != nil {
		zap.L().Warn("Asset registry unavailable, continuing without it",
			zap.String("file", cfg.Assets.RegistryFile),
			zap.Error(err))
		registry = nil
	}

	return &Services{
		Config:   cfg,
		Provider: svc,
		Registry: registry,
	}, nil
}
