package fireblocks

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"testing"

	"waas-gateway-go/internal/models"
	"waas-gateway-go/internal/provider"
)

func TestDeriveIdempotencyKey(t *testing.T) {
	key := deriveIdempotencyKey("req-550e8400", "USDC")
	if key != "req-550e8400-usdc" {
		t.Errorf("Expected req-550e8400-usdc, got %q", key)
	}

	// Deterministic: same inputs, same key.
	if again := deriveIdempotencyKey("req-550e8400", "USDC"); again != key {
		t.Errorf("Expected deterministic derivation, got %q then %q", key, again)
	}

	long := deriveIdempotencyKey(strings.Repeat("a", 39), "USDT_ERC20")
	if len(long) != maxIdempotencyKeyLength {
		t.Errorf("Expected key truncated to %d chars, got %d", maxIdempotencyKeyLength, len(long))
	}

	// Without a base key each call gets a fresh random key.
	first := deriveIdempotencyKey("", "ETH")
	second := deriveIdempotencyKey("", "ETH")
	if first == second {
		t.Error("Expected distinct random keys without a base key")
	}
}

func TestDependencyGroups(t *testing.T) {
	requested := []models.Asset{
		{AssetId: "ETH"},
		{AssetId: "USDC", BaseAssetId: "ETH"},
		{AssetId: "BTC"},
		{AssetId: "USDT_ERC20", BaseAssetId: "ETH"},
		{AssetId: "USDC_SOL", BaseAssetId: "SOL"},
	}

	groups := dependencyGroups(requested)
	if len(groups) != 3 {
		t.Fatalf("Expected 3 groups, got %d", len(groups))
	}

	eth := groups[0]
	if eth.baseAssetId != "ETH" || eth.baseIndex != 0 {
		t.Errorf("Unexpected ETH group: %+v", eth)
	}
	if len(eth.dependents) != 2 || eth.dependents[0] != 1 || eth.dependents[1] != 3 {
		t.Errorf("Unexpected ETH dependents: %v", eth.dependents)
	}

	btc := groups[1]
	if btc.baseAssetId != "BTC" || btc.baseIndex != 2 || len(btc.dependents) != 0 {
		t.Errorf("Unexpected BTC group: %+v", btc)
	}

	// SOL itself was not requested, so its group has no base slot.
	sol := groups[2]
	if sol.baseAssetId != "SOL" || sol.baseIndex != -1 || len(sol.dependents) != 1 {
		t.Errorf("Unexpected SOL group: %+v", sol)
	}
}

func TestDependencyGroups_DuplicateBaseQueuesBehindFirst(t *testing.T) {
	groups := dependencyGroups([]models.Asset{
		{AssetId: "ETH"},
		{AssetId: "ETH"},
	})
	if len(groups) != 1 {
		t.Fatalf("Expected 1 group, got %d", len(groups))
	}
	if groups[0].baseIndex != 0 || len(groups[0].dependents) != 1 || groups[0].dependents[0] != 1 {
		t.Errorf("Unexpected group for duplicate base: %+v", groups[0])
	}
}

// walletServer is a fake provider that records wallet-creation calls and
// fails the configured asset paths.
type walletServer struct {
	t          *testing.T
	mu         sync.Mutex
	calls      map[string]int
	failAssets map[string]bool
	failVault  bool
}

func newWalletServer(t *testing.T) *walletServer {
	return &walletServer{t: t, calls: make(map[string]int), failAssets: make(map[string]bool)}
}

func (s *walletServer) callCount(assetId string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[assetId]
}

func (s *walletServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		if s.failVault {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		writeJSON(s.t, w, vaultAccountResponse{Id: "7", Name: "test-vault"})
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	assetId := parts[len(parts)-1]

	if r.Header.Get("Idempotency-Key") == "" {
		s.t.Errorf("Missing Idempotency-Key header for %s", assetId)
	}

	s.mu.Lock()
	s.calls[assetId]++
	fail := s.failAssets[assetId]
	s.mu.Unlock()

	if fail {
		w.WriteHeader(http.StatusInternalServerError)
		writeJSON(s.t, w, apiError{Message: "asset creation failed"})
		return
	}
	writeJSON(s.t, w, createAddressResponse{Address: "addr-" + assetId, Tag: ""})
}

func TestCreateWallets_EveryAssetInExactlyOnePartition(t *testing.T) {
	server := newWalletServer(t)
	server.failAssets["BTC"] = true
	service := newTestService(t, server)

	requested := []models.Asset{
		{AssetId: "ETH"},
		{AssetId: "USDC", BaseAssetId: "ETH"},
		{AssetId: "BTC"},
	}
	result, err := service.CreateWallets(context.Background(), models.ProvisioningRequest{
		AccountRef: "7",
		OwnerRef:   "user-3",
		Assets:     requested,
	})
	if err != nil {
		t.Fatalf("CreateWallets failed: %v", err)
	}

	if len(result.Successful)+len(result.Failed) != len(requested) {
		t.Fatalf("Partition not total: %d successful + %d failed != %d requested",
			len(result.Successful), len(result.Failed), len(requested))
	}

	seen := make(map[string]int)
	for _, wallet := range result.Successful {
		seen[wallet.AssetId]++
	}
	for _, failure := range result.Failed {
		seen[failure.AssetId]++
	}
	for _, asset := range requested {
		if seen[asset.AssetId] != 1 {
			t.Errorf("Asset %s appears %d times across partitions", asset.AssetId, seen[asset.AssetId])
		}
	}

	if len(result.Failed) != 1 || result.Failed[0].AssetId != "BTC" {
		t.Errorf("Expected only BTC to fail, got %+v", result.Failed)
	}
	for _, wallet := range result.Successful {
		if wallet.AccountReference != "7" || wallet.OwnerReference != "user-3" {
			t.Errorf("Wallet missing references: %+v", wallet)
		}
	}
}

func TestCreateWallets_BaseFailureSkipsDependents(t *testing.T) {
	server := newWalletServer(t)
	server.failAssets["ETH"] = true
	service := newTestService(t, server)

	result, err := service.CreateWallets(context.Background(), models.ProvisioningRequest{
		AccountRef: "7",
		Assets: []models.Asset{
			{AssetId: "ETH"},
			{AssetId: "USDC", BaseAssetId: "ETH"},
		},
	})
	if err != nil {
		t.Fatalf("CreateWallets failed: %v", err)
	}

	if len(result.Failed) != 2 {
		t.Fatalf("Expected both assets to fail, got %+v", result)
	}

	// The dependent was never attempted against the provider.
	if count := server.callCount("USDC"); count != 0 {
		t.Errorf("Expected zero USDC creation calls, got %d", count)
	}

	var usdcFailure *models.WalletFailure
	for i := range result.Failed {
		if result.Failed[i].AssetId == "USDC" {
			usdcFailure = &result.Failed[i]
		}
	}
	if usdcFailure == nil {
		t.Fatal("Expected a USDC failure entry")
	}
	if !strings.Contains(usdcFailure.Message, "ETH") {
		t.Errorf("Expected USDC failure to name the base asset, got %q", usdcFailure.Message)
	}
}

func TestCreateWallets_ImplicitBaseCreation(t *testing.T) {
	server := newWalletServer(t)
	service := newTestService(t, server)

	result, err := service.CreateWallets(context.Background(), models.ProvisioningRequest{
		AccountRef: "7",
		Assets:     []models.Asset{{AssetId: "USDC", BaseAssetId: "ETH"}},
	})
	if err != nil {
		t.Fatalf("CreateWallets failed: %v", err)
	}

	// ETH was created to satisfy the dependency but is not a result entry.
	if count := server.callCount("ETH"); count != 1 {
		t.Errorf("Expected 1 implicit ETH creation call, got %d", count)
	}
	if len(result.Successful) != 1 || result.Successful[0].AssetId != "USDC" {
		t.Errorf("Expected only USDC in results, got %+v", result.Successful)
	}
}

func TestCreateWallets_VaultLookupFailureIsCallLevel(t *testing.T) {
	server := newWalletServer(t)
	server.failVault = true
	service := newTestService(t, server)

	_, err := service.CreateWallets(context.Background(), models.ProvisioningRequest{
		AccountRef: "missing",
		Assets:     []models.Asset{{AssetId: "ETH"}},
	})
	if err == nil {
		t.Fatal("Expected call-level error when the vault account is unreachable")
	}
	if !errors.Is(err, provider.ErrIntegrationFailure) {
		t.Errorf("Expected ErrIntegrationFailure, got %v", err)
	}
	if count := server.callCount("ETH"); count != 0 {
		t.Errorf("Expected no creation calls after lookup failure, got %d", count)
	}
}
