package fireblocks

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"waas-gateway-go/internal/models"
	"waas-gateway-go/internal/provider"

	"github.com/shopspring/decimal"
)

func newTestService(t *testing.T, handler http.Handler) *Service {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	service, err := NewService(&models.Config{
		Fireblocks: models.FireblocksConfig{
			BaseURL:        server.URL,
			APIKey:         "test-key",
			RequestTimeout: 5 * time.Second,
		},
	})
	if err != nil {
		t.Fatalf("Failed to create service: %v", err)
	}
	return service
}

func writeJSON(t *testing.T, w http.ResponseWriter, payload any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.Errorf("Failed to encode response: %v", err)
	}
}

func TestNewService_RequiresCredentials(t *testing.T) {
	_, err := NewService(&models.Config{
		Fireblocks: models.FireblocksConfig{BaseURL: "https://api.example.com"},
	})
	if err == nil {
		t.Fatal("Expected error for missing API key")
	}

	_, err = NewService(&models.Config{
		Fireblocks: models.FireblocksConfig{APIKey: "key"},
	})
	if err == nil {
		t.Fatal("Expected error for missing base URL")
	}
}

func TestGetAvailableStableAssets_FiltersByKeyword(t *testing.T) {
	service := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/supported_assets" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("X-API-Key"); got != "test-key" {
			t.Errorf("Expected API key header, got %q", got)
		}
		writeJSON(t, w, []supportedAsset{
			{Id: "ETH", Name: "Ethereum", Decimals: 18},
			{Id: "USDC", Name: "USD Coin", NativeAsset: "ETH", Decimals: 6},
			{Id: "USDT_ERC20", Name: "Tether USD", NativeAsset: "ETH", Decimals: 6},
			{Id: "BTC", Name: "Bitcoin", Decimals: 8},
		})
	}))

	stable, err := service.GetAvailableStableAssets(context.Background())
	if err != nil {
		t.Fatalf("GetAvailableStableAssets failed: %v", err)
	}

	if len(stable) != 2 {
		t.Fatalf("Expected 2 stable assets, got %d", len(stable))
	}
	if stable[0].AssetId != "USDC" || stable[1].AssetId != "USDT_ERC20" {
		t.Errorf("Unexpected stable assets: %+v", stable)
	}
	if stable[0].BaseAssetId != "ETH" {
		t.Errorf("Expected USDC base asset ETH, got %q", stable[0].BaseAssetId)
	}
}

func TestCreateAccount(t *testing.T) {
	service := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/vault/accounts" {
			t.Errorf("Unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req vaultAccountRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.Name != "alice-vault" || req.CustomerRefId != "user-17" {
			t.Errorf("Unexpected request body: %+v", req)
		}
		writeJSON(t, w, vaultAccountResponse{Id: "42", Name: req.Name})
	}))

	account, err := service.CreateAccount(context.Background(), "alice-vault", "user-17")
	if err != nil {
		t.Fatalf("CreateAccount failed: %v", err)
	}
	if account.Id != "42" || account.Name != "alice-vault" || account.OwnerReference != "user-17" {
		t.Errorf("Unexpected account: %+v", account)
	}
}

func TestGetAssetBalance_ParsesDecimals(t *testing.T) {
	service := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/vault/accounts/42/USDC" {
			t.Errorf("Unexpected path: %s", r.URL.Path)
		}
		writeJSON(t, w, wireAssetBalance{
			Id:        "USDC",
			Total:     "125.50",
			Available: "100.25",
			Pending:   "25.25",
			Frozen:    "",
		})
	}))

	balance, err := service.GetAssetBalance(context.Background(), "42", "USDC")
	if err != nil {
		t.Fatalf("GetAssetBalance failed: %v", err)
	}

	if !balance.Total.Equal(decimal.RequireFromString("125.50")) {
		t.Errorf("Expected total 125.50, got %s", balance.Total)
	}
	if !balance.Available.Equal(decimal.RequireFromString("100.25")) {
		t.Errorf("Expected available 100.25, got %s", balance.Available)
	}
	if !balance.Frozen.Equal(decimal.Zero) {
		t.Errorf("Expected zero frozen balance for empty value, got %s", balance.Frozen)
	}
}

func TestClientError_WrapsIntegrationFailure(t *testing.T) {
	service := newTestService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		writeJSON(t, w, apiError{Message: "vault account not found", Code: 1004})
	}))

	_, err := service.GetVaultAccount(context.Background(), "missing")
	if err == nil {
		t.Fatal("Expected error for 404 response")
	}
	if !errors.Is(err, provider.ErrIntegrationFailure) {
		t.Errorf("Expected ErrIntegrationFailure, got %v", err)
	}
}

func TestParseBalance_UnparseableYieldsZero(t *testing.T) {
	if !parseBalance("not-a-number").Equal(decimal.Zero) {
		t.Error("Expected zero for unparseable balance")
	}
	if !parseBalance("").Equal(decimal.Zero) {
		t.Error("Expected zero for empty balance")
	}
}
