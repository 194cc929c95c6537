package fireblocks

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"waas-gateway-go/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// maxIdempotencyKeyLength is the provider's idempotency key length limit.
const maxIdempotencyKeyLength = 40

// deriveIdempotencyKey builds the per-asset key from the caller's base key.
// The derivation is deterministic so a retry of the same logical request
// reuses the same provider-side idempotent operation per asset. Without a
// caller-supplied base key each creation gets a fresh random key.
func deriveIdempotencyKey(baseKey, assetId string) string {
	if baseKey == "" {
		return uuid.New().String()
	}
	key := baseKey + "-" + strings.ToLower(assetId)
	if len(key) > maxIdempotencyKeyLength {
		key = key[:maxIdempotencyKeyLength]
	}
	return key
}

type walletOutcome struct {
	address models.WalletAddress
	err     error
}

// assetGroup collects the request indexes that share one base asset. The
// base wallet must resolve before any dependent in the group starts; groups
// have no ordering relation to each other.
type assetGroup struct {
	baseAssetId string
	baseIndex   int // -1 when the base asset itself was not requested
	dependents  []int
}

func dependencyGroups(requested []models.Asset) []assetGroup {
	byBase := make(map[string]*assetGroup)
	order := make([]string, 0, len(requested))

	for i, asset := range requested {
		key := asset.AssetId
		if asset.IsDependent() {
			key = asset.BaseAssetId
		}
		group, ok := byBase[key]
		if !ok {
			group = &assetGroup{baseAssetId: key, baseIndex: -1}
			byBase[key] = group
			order = append(order, key)
		}
		if asset.IsDependent() || group.baseIndex >= 0 {
			// Duplicate base entries queue behind the first one; creation is
			// idempotent so they resolve to the same wallet.
			group.dependents = append(group.dependents, i)
		} else {
			group.baseIndex = i
		}
	}

	groups := make([]assetGroup, 0, len(order))
	for _, key := range order {
		groups = append(groups, *byBase[key])
	}
	return groups
}

// CreateWallets provisions deposit addresses for every requested asset.
// Groups of assets sharing a base asset run concurrently; inside a group the
// base asset resolves first and a base failure fails all dependents without
// attempting them. Every asset ends in exactly one of Successful or Failed.
func (s *Service) CreateWallets(ctx context.Context, req models.ProvisioningRequest) (*models.ProvisioningResult, error) {
	// The only call-level failure: the vault account itself is unreachable.
	if _, err := s.GetVaultAccount(ctx, req.AccountRef); err != nil {
		return nil, fmt.Errorf("looking up vault account %s: %w", req.AccountRef, err)
	}

	outcomes := make([]walletOutcome, len(req.Assets))
	groups := dependencyGroups(req.Assets)

	var wg sync.WaitGroup
	for _, group := range groups {
		wg.Add(1)
		go func(g assetGroup) {
			defer wg.Done()
			s.provisionGroup(ctx, req, g, outcomes)
		}(group)
	}
	wg.Wait()

	result := &models.ProvisioningResult{
		Successful: make([]models.WalletAddress, 0, len(req.Assets)),
		Failed:     make([]models.WalletFailure, 0),
	}
	for i, outcome := range outcomes {
		if outcome.err != nil {
			result.Failed = append(result.Failed, models.WalletFailure{
				AssetId: req.Assets[i].AssetId,
				Message: outcome.err.Error(),
			})
			continue
		}
		result.Successful = append(result.Successful, outcome.address)
	}

	zap.L().Info("Wallet provisioning finished",
		zap.String("account", req.AccountRef),
		zap.Int("requested", len(req.Assets)),
		zap.Int("successful", len(result.Successful)),
		zap.Int("failed", len(result.Failed)))

	return result, nil
}

func (s *Service) provisionGroup(ctx context.Context, req models.ProvisioningRequest, g assetGroup, outcomes []walletOutcome) {
	var baseErr error
	if g.baseIndex >= 0 {
		address, err := s.createAssetWallet(ctx, req, req.Assets[g.baseIndex])
		outcomes[g.baseIndex] = walletOutcome{address: address, err: err}
		baseErr = err
	} else if len(g.dependents) > 0 {
		// The base asset was not requested but dependents need its wallet to
		// exist; create or confirm it without a result slot.
		_, baseErr = s.createAssetWallet(ctx, req, models.Asset{AssetId: g.baseAssetId})
	}

	for _, i := range g.dependents {
		if baseErr != nil {
			outcomes[i].err = fmt.Errorf("base asset %s wallet creation failed: %v", g.baseAssetId, baseErr)
			continue
		}
		address, err := s.createAssetWallet(ctx, req, req.Assets[i])
		outcomes[i] = walletOutcome{address: address, err: err}
	}
}

func (s *Service) createAssetWallet(ctx context.Context, req models.ProvisioningRequest, asset models.Asset) (models.WalletAddress, error) {
	idempotencyKey := deriveIdempotencyKey(req.IdempotencyKey, asset.AssetId)
	path := fmt.Sprintf("/vault/accounts/%s/%s", req.AccountRef, asset.AssetId)

	var resp createAddressResponse
	headers := map[string]string{"Idempotency-Key": idempotencyKey}
	if err := s.client.do(ctx, http.MethodPost, path, nil, headers, struct{}{}, &resp); err != nil {
		zap.L().Error("Failed to create wallet",
			zap.String("account", req.AccountRef),
			zap.String("asset", asset.AssetId),
			zap.Error(err))
		return models.WalletAddress{}, err
	}

	zap.L().Info("Created deposit address",
		zap.String("account", req.AccountRef),
		zap.String("asset", asset.AssetId),
		zap.String("address", resp.Address))

	return models.WalletAddress{
		AssetId:          asset.AssetId,
		Address:          resp.Address,
		Tag:              resp.Tag,
		AccountReference: req.AccountRef,
		OwnerReference:   req.OwnerRef,
	}, nil
}
