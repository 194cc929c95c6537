package main

import (
	"context"
	"flag"
	"fmt"
	"strings"

	"waas-gateway-go/internal/assets"
	"waas-gateway-go/internal/common"
	"waas-gateway-go/internal/models"

	"go.uber.org/zap"
)

type provisionRequest struct {
	accountRef     string
	name           string
	owner          string
	assetIds       []string
	idempotencyKey string
}

func parseAndValidateFlags() (*provisionRequest, error) {
	accountFlag := flag.String("account", "", "Existing vault account id (omit to create a new account)")
	nameFlag := flag.String("name", "", "Account name for new accounts")
	ownerFlag := flag.String("owner", "", "Owner reference for new accounts")
	assetsFlag := flag.String("assets", "", "Comma-separated asset ids to provision (required)")
	keyFlag := flag.String("idempotency-key", "", "Base idempotency key (optional)")
	flag.Parse()

	if *assetsFlag == "" {
		return nil, fmt.Errorf("--assets is required")
	}
	if *accountFlag == "" && *nameFlag == "" {
		return nil, fmt.Errorf("either --account or --name is required")
	}

	var assetIds []string
	for _, part := range strings.Split(*assetsFlag, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			assetIds = append(assetIds, trimmed)
		}
	}
	if len(assetIds) == 0 {
		return nil, fmt.Errorf("--assets must name at least one asset")
	}

	return &provisionRequest{
		accountRef:     *accountFlag,
		name:           *nameFlag,
		owner:          *ownerFlag,
		assetIds:       assetIds,
		idempotencyKey: *keyFlag,
	}, nil
}

// resolveAssets maps requested ids through the registry so dependent tokens
// carry their base asset. Ids absent from the registry pass through as native.
func resolveAssets(registry []models.Asset, assetIds []string) []models.Asset {
	resolved := make([]models.Asset, 0, len(assetIds))
	for _, id := range assetIds {
		if asset, ok := assets.Lookup(registry, id); ok {
			resolved = append(resolved, asset)
			continue
		}
		zap.L().Warn("Asset not in registry, treating as native", zap.String("asset", id))
		resolved = append(resolved, models.Asset{AssetId: id})
	}
	return resolved
}

func printResult(result *models.ProvisioningResult) {
	common.PrintHeader("PROVISIONING RESULT", common.DefaultWidth)
	fmt.Printf("Successful: %d\n", len(result.Successful))
	for i, wallet := range result.Successful {
		prefix := common.BoxPrefix(i == len(result.Successful)-1)
		fmt.Printf("%s%-12s %s\n", prefix, wallet.AssetId, wallet.Address)
		if wallet.Tag != "" {
			fmt.Printf("%s  tag: %s\n", common.BoxDetailPrefix(i == len(result.Successful)-1), wallet.Tag)
		}
	}
	fmt.Printf("Failed:     %d\n", len(result.Failed))
	for i, failure := range result.Failed {
		prefix := common.BoxPrefix(i == len(result.Failed)-1)
		fmt.Printf("%s%-12s %s\n", prefix, failure.AssetId, failure.Message)
	}
	common.PrintSeparator("=", common.DefaultWidth)
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	req, err := parseAndValidateFlags()
	if err != nil {
		zap.L().Fatal("Invalid flags", zap.Error(err))
	}

	services, err := common.InitializeServices()
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}

	accountRef := req.accountRef
	ownerRef := req.owner
	if accountRef == "" {
		account, err := services.Provider.CreateAccount(ctx, req.name, req.owner)
		if err != nil {
			zap.L().Fatal("Failed to create account", zap.Error(err))
		}
		accountRef = account.Id
		ownerRef = account.OwnerReference
		fmt.Printf("Created vault account %s (%s)\n", account.Id, account.Name)
	}

	result, err := services.Provider.CreateWallets(ctx, models.ProvisioningRequest{
		AccountRef:     accountRef,
		OwnerRef:       ownerRef,
		Assets:         resolveAssets(services.Registry, req.assetIds),
		IdempotencyKey: req.idempotencyKey,
	})
	if err != nil {
		zap.L().Fatal("Wallet provisioning failed", zap.Error(err))
	}

	printResult(result)
	if len(result.Failed) == 0 {
		common.PrintFooter("All wallets provisioned", common.DefaultWidth)
	}

	zap.L().Info("Provisioning finished",
		zap.String("account", accountRef),
		zap.Int("successful", len(result.Successful)),
		zap.Int("failed", len(result.Failed)))
}
