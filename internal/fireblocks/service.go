package fireblocks

import (
	"context"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"time"

	"waas-gateway-go/internal/assets"
	"waas-gateway-go/internal/models"
	"waas-gateway-go/internal/provider"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProviderId is the registry identifier of this implementation.
const ProviderId = "fireblocks"

func init() {
	provider.Register(ProviderId, func(cfg *models.Config) (provider.Service, error) {
		return NewService(cfg)
	})
}

// Service implements the canonical custodial contract against the Fireblocks
// API. It holds no mutable state: webhook signing material and the stable
// keyword set are read-only after construction.
type Service struct {
	client          *Client
	webhookKey      *rsa.PublicKey
	webhookSecret   string
	freshnessWindow time.Duration
	stableKeywords  []string

	// now is swapped in tests to pin the webhook freshness clock.
	now func() time.Time
}

var _ provider.Service = (*Service)(nil)

func NewService(cfg *models.Config) (*Service, error) {
	client, err := NewClient(cfg.Fireblocks)
	if err != nil {
		return nil, err
	}

	var webhookKey *rsa.PublicKey
	if cfg.Webhook.V1PublicKeyPEM != "" {
		webhookKey, err = parseRSAPublicKey(cfg.Webhook.V1PublicKeyPEM)
		if err != nil {
			return nil, fmt.Errorf("invalid v1 webhook public key: %w", err)
		}
	}

	freshnessWindow := cfg.Webhook.FreshnessWindow
	if freshnessWindow <= 0 {
		freshnessWindow = 300 * time.Second
	}

	stableKeywords := cfg.Assets.StableKeywords
	if len(stableKeywords) == 0 {
		stableKeywords = []string{"usd"}
	}

	return &Service{
		client:          client,
		webhookKey:      webhookKey,
		webhookSecret:   cfg.Webhook.V2SigningSecret,
		freshnessWindow: freshnessWindow,
		stableKeywords:  stableKeywords,
		now:             time.Now,
	}, nil
}

func parseRSAPublicKey(pemData string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(pemData))
	if block == nil {
		return nil, fmt.Errorf("no PEM block found")
	}
	parsed, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := parsed.(*rsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("not an RSA public key")
	}
	return key, nil
}

// GetAvailableStableAssets lists supported assets whose name matches a
// stable keyword.
func (s *Service) GetAvailableStableAssets(ctx context.Context) ([]models.Asset, error) {
	var supported []supportedAsset
	if err := s.client.get(ctx, "/supported_assets", nil, &supported); err != nil {
		return nil, err
	}

	stable := make([]models.Asset, 0)
	for _, asset := range supported {
		if !assets.IsStable(asset.Name, s.stableKeywords) {
			continue
		}
		stable = append(stable, models.Asset{
			AssetId:     asset.Id,
			BaseAssetId: asset.NativeAsset,
			Name:        asset.Name,
			Decimals:    asset.Decimals,
		})
	}

	zap.L().Debug("Filtered stable assets",
		zap.Int("supported", len(supported)),
		zap.Int("stable", len(stable)))
	return stable, nil
}

func (s *Service) CreateAccount(ctx context.Context, name, ownerRef string) (*models.Account, error) {
	request := vaultAccountRequest{Name: name, CustomerRefId: ownerRef}

	var resp vaultAccountResponse
	if err := s.client.post(ctx, "/vault/accounts", nil, request, &resp); err != nil {
		return nil, err
	}

	zap.L().Info("Created vault account",
		zap.String("account_id", resp.Id),
		zap.String("name", resp.Name))

	return &models.Account{
		Id:             resp.Id,
		Name:           resp.Name,
		OwnerReference: ownerRef,
	}, nil
}

func (s *Service) GetVaultAccount(ctx context.Context, accountRef string) (*models.VaultAccount, error) {
	var resp vaultAccountResponse
	if err := s.client.get(ctx, "/vault/accounts/"+accountRef, nil, &resp); err != nil {
		return nil, err
	}
	return mapVaultAccount(resp), nil
}

func (s *Service) GetAssetBalance(ctx context.Context, accountRef, assetId string) (*models.AssetBalance, error) {
	var resp wireAssetBalance
	path := fmt.Sprintf("/vault/accounts/%s/%s", accountRef, assetId)
	if err := s.client.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}
	balance := mapAssetBalance(resp, assetId)
	return &balance, nil
}

func mapVaultAccount(resp vaultAccountResponse) *models.VaultAccount {
	account := &models.VaultAccount{
		Id:            resp.Id,
		Name:          resp.Name,
		HiddenOnUI:    resp.HiddenOnUI,
		CustomerRefId: resp.CustomerRefId,
		AutoFuel:      resp.AutoFuel,
		Assets:        make([]models.AssetBalance, 0, len(resp.Assets)),
	}
	for _, asset := range resp.Assets {
		account.Assets = append(account.Assets, mapAssetBalance(asset, asset.Id))
	}
	return account
}

func mapAssetBalance(wire wireAssetBalance, assetId string) models.AssetBalance {
	return models.AssetBalance{
		AssetId:   assetId,
		Total:     parseBalance(wire.Total),
		Available: parseBalance(wire.Available),
		Pending:   parseBalance(wire.Pending),
		Frozen:    parseBalance(wire.Frozen),
	}
}

func parseBalance(value string) decimal.Decimal {
	if value == "" {
		return decimal.Zero
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		zap.L().Warn("Unparseable balance value from provider", zap.String("value", value))
		return decimal.Zero
	}
	return parsed
}
