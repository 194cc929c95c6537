package primeadapter

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"waas-gateway-go/internal/assets"
	"waas-gateway-go/internal/models"
	"waas-gateway-go/internal/provider"

	"github.com/coinbase-samples/prime-sdk-go/client"
	"github.com/coinbase-samples/prime-sdk-go/credentials"
	"github.com/coinbase-samples/prime-sdk-go/model"
	"github.com/coinbase-samples/prime-sdk-go/portfolios"
	"github.com/coinbase-samples/prime-sdk-go/transactions"
	"github.com/coinbase-samples/prime-sdk-go/wallets"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

// ProviderId is the registry identifier of this implementation.
const ProviderId = "coinbaseprime"

func init() {
	provider.Register(ProviderId, func(cfg *models.Config) (provider.Service, error) {
		return NewService(cfg)
	})
}

// Service adapts the canonical custodial contract onto Coinbase Prime. Prime
// has no vault-account concept of its own: accounts map onto the default
// portfolio and per-asset trading wallets, and operations Prime does not
// expose under this contract fail as integration failures naming the
// provider.
type Service struct {
	portfoliosSvc   portfolios.PortfoliosService
	walletsSvc      wallets.WalletsService
	transactionsSvc transactions.TransactionsService

	registryFile   string
	stableKeywords []string
}

var _ provider.Service = (*Service)(nil)

func NewService(cfg *models.Config) (*Service, error) {
	if cfg.Prime.AccessKey == "" || cfg.Prime.Passphrase == "" || cfg.Prime.SigningKey == "" {
		return nil, fmt.Errorf("missing Prime API credentials: PRIME_ACCESS_KEY, PRIME_PASSPHRASE, PRIME_SIGNING_KEY")
	}

	httpClient, err := createCustomHttpClient()
	if err != nil {
		return nil, fmt.Errorf("unable to create custom http client: %w", err)
	}

	creds := &credentials.Credentials{
		AccessKey:  cfg.Prime.AccessKey,
		Passphrase: cfg.Prime.Passphrase,
		SigningKey: cfg.Prime.SigningKey,
	}
	restClient := client.NewRestClient(creds, httpClient)

	stableKeywords := cfg.Assets.StableKeywords
	if len(stableKeywords) == 0 {
		stableKeywords = []string{"usd"}
	}

	return &Service{
		portfoliosSvc:   portfolios.NewPortfoliosService(restClient),
		walletsSvc:      wallets.NewWalletsService(restClient),
		transactionsSvc: transactions.NewTransactionsService(restClient),
		registryFile:    cfg.Assets.RegistryFile,
		stableKeywords:  stableKeywords,
	}, nil
}

func createCustomHttpClient() (http.Client, error) {
	tr := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return http.Client{}, err
	}

	return http.Client{
		Transport: tr,
		Timeout:   60 * time.Second,
	}, nil
}

func errUnsupported(operation string) error {
	return provider.Integrationf("coinbaseprime: %s is not supported by this provider", operation)
}

// GetAvailableStableAssets filters the local asset registry; Prime exposes
// no supported-assets listing under the SDK surface used here.
func (s *Service) GetAvailableStableAssets(ctx context.Context) ([]models.Asset, error) {
	registry, err := assets.LoadRegistry(s.registryFile)
	if err != nil {
		return nil, provider.Integrationf("coinbaseprime: loading asset registry: %v", err)
	}
	return assets.FilterStable(registry, s.stableKeywords), nil
}

func (s *Service) findDefaultPortfolio(ctx context.Context) (models.Account, error) {
	response, err := s.portfoliosSvc.ListPortfolios(ctx, &portfolios.ListPortfoliosRequest{})
	if err != nil {
		return models.Account{}, provider.Integrationf("coinbaseprime: listing portfolios: %v", err)
	}
	for _, portfolio := range response.Portfolios {
		if portfolio.Name == "Default Portfolio" {
			return models.Account{Id: portfolio.Id, Name: portfolio.Name}, nil
		}
	}
	return models.Account{}, provider.Integrationf("coinbaseprime: default portfolio not found")
}

// CreateAccount resolves to the default portfolio; Prime portfolios are
// provisioned out of band, so creation confirms rather than creates.
func (s *Service) CreateAccount(ctx context.Context, name, ownerRef string) (*models.Account, error) {
	account, err := s.findDefaultPortfolio(ctx)
	if err != nil {
		return nil, err
	}
	zap.L().Info("Using existing Prime portfolio as account",
		zap.String("portfolio_id", account.Id),
		zap.String("name", account.Name))
	account.OwnerReference = ownerRef
	return &account, nil
}

func (s *Service) getOrCreateWallet(ctx context.Context, portfolioId, symbol string) (string, error) {
	listResponse, err := s.walletsSvc.ListWallets(ctx, &wallets.ListWalletsRequest{
		PortfolioId: portfolioId,
		Type:        "TRADING",
		Symbols:     []string{symbol},
	})
	if err != nil {
		return "", provider.Integrationf("coinbaseprime: listing wallets for %s: %v", symbol, err)
	}
	if len(listResponse.Wallets) > 0 {
		return listResponse.Wallets[0].Id, nil
	}

	createResponse, err := s.walletsSvc.CreateWallet(ctx, &wallets.CreateWalletRequest{
		PortfolioId:    portfolioId,
		Name:           fmt.Sprintf("%s Trading Wallet", symbol),
		Symbol:         symbol,
		Type:           "TRADING",
		IdempotencyKey: uuid.New().String(),
	})
	if err != nil {
		return "", provider.Integrationf("coinbaseprime: creating wallet for %s: %v", symbol, err)
	}
	return createResponse.ActivityId, nil
}

// CreateWallets provisions one deposit address per requested asset. Prime
// resolves base-network dependencies server-side, so assets are independent
// here; the partition semantics match the primary provider's.
func (s *Service) CreateWallets(ctx context.Context, req models.ProvisioningRequest) (*models.ProvisioningResult, error) {
	result := &models.ProvisioningResult{
		Successful: make([]models.WalletAddress, 0, len(req.Assets)),
		Failed:     make([]models.WalletFailure, 0),
	}

	for _, asset := range req.Assets {
		walletId, err := s.getOrCreateWallet(ctx, req.AccountRef, asset.AssetId)
		if err != nil {
			result.Failed = append(result.Failed, models.WalletFailure{
				AssetId: asset.AssetId,
				Message: err.Error(),
			})
			continue
		}

		addressResponse, err := s.walletsSvc.CreateWalletAddress(ctx, &wallets.CreateWalletAddressRequest{
			PortfolioId: req.AccountRef,
			WalletId:    walletId,
			NetworkId:   asset.BaseAssetId,
		})
		if err != nil {
			result.Failed = append(result.Failed, models.WalletFailure{
				AssetId: asset.AssetId,
				Message: fmt.Sprintf("creating wallet address: %v", err),
			})
			continue
		}

		result.Successful = append(result.Successful, models.WalletAddress{
			AssetId:          asset.AssetId,
			Address:          addressResponse.Address,
			AccountReference: req.AccountRef,
			OwnerReference:   req.OwnerRef,
		})
	}

	return result, nil
}

func (s *Service) GetVaultAccount(ctx context.Context, accountRef string) (*models.VaultAccount, error) {
	response, err := s.portfoliosSvc.ListPortfolios(ctx, &portfolios.ListPortfoliosRequest{})
	if err != nil {
		return nil, provider.Integrationf("coinbaseprime: listing portfolios: %v", err)
	}
	for _, portfolio := range response.Portfolios {
		if portfolio.Id == accountRef {
			return &models.VaultAccount{Id: portfolio.Id, Name: portfolio.Name}, nil
		}
	}
	return nil, provider.Integrationf("coinbaseprime: portfolio %s not found", accountRef)
}

func (s *Service) GetAssetBalance(ctx context.Context, accountRef, assetId string) (*models.AssetBalance, error) {
	return nil, errUnsupported("asset balance lookup")
}

func (s *Service) EstimateTransactionFee(ctx context.Context, req models.FeeRequest) (*models.FeeEstimates, error) {
	return nil, errUnsupported("fee estimation")
}

func (s *Service) EstimateInternalTransferFee(ctx context.Context, req models.InternalFeeRequest) (*models.FeeEstimates, error) {
	return nil, errUnsupported("fee estimation")
}

func (s *Service) EstimateExternalTransactionFee(ctx context.Context, req models.ExternalFeeRequest) (*models.FeeEstimates, error) {
	return nil, errUnsupported("fee estimation")
}

func (s *Service) CreateTransaction(ctx context.Context, req models.TransactionRequest) (*models.TransactionResult, error) {
	if req.Destination.Type != models.EndpointOneTimeAddress {
		return nil, errUnsupported("non-withdrawal transactions")
	}
	result, err := s.ExternalTransfer(ctx, models.ExternalTransferRequest{
		AssetId:            req.AssetId,
		Amount:             req.Amount,
		SourceVaultId:      req.Source.Id,
		DestinationAddress: req.Destination.Address,
		DestinationTag:     req.Destination.Tag,
		IdempotencyKey:     req.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}
	return &models.TransactionResult{
		Id:           result.TransactionId,
		Status:       result.Status,
		ExternalTxId: req.ExternalTxId,
	}, nil
}

func (s *Service) InternalTransfer(ctx context.Context, req models.InternalTransferRequest) (*models.TransferResult, error) {
	return nil, errUnsupported("internal transfers")
}

// ExternalTransfer submits a wallet withdrawal to the destination address.
func (s *Service) ExternalTransfer(ctx context.Context, req models.ExternalTransferRequest) (*models.TransferResult, error) {
	walletId, err := s.getOrCreateWallet(ctx, req.SourceVaultId, req.AssetId)
	if err != nil {
		return nil, err
	}

	idempotencyKey := req.IdempotencyKey
	if idempotencyKey == "" {
		idempotencyKey = uuid.New().String()
	}

	response, err := s.transactionsSvc.CreateWalletWithdrawal(ctx, &transactions.CreateWalletWithdrawalRequest{
		PortfolioId:     req.SourceVaultId,
		SourceWalletId:  walletId,
		Amount:          req.Amount,
		IdempotencyKey:  idempotencyKey,
		Symbol:          req.AssetId,
		DestinationType: "DESTINATION_BLOCKCHAIN",
		BlockchainAddress: &model.BlockchainAddress{
			Address: req.DestinationAddress,
		},
	})
	if err != nil {
		zap.L().Error("Failed to create withdrawal",
			zap.String("wallet_id", walletId),
			zap.String("asset", req.AssetId),
			zap.Error(err))
		return nil, provider.Integrationf("coinbaseprime: creating withdrawal: %v", err)
	}

	return &models.TransferResult{TransactionId: response.ActivityId, Status: "SUBMITTED"}, nil
}

// GetTransactionHistory lists transactions for the wallet named by the
// filter's source id. Prime pagination and filter fields beyond the time
// window are not mapped.
func (s *Service) GetTransactionHistory(ctx context.Context, filter models.TransactionHistoryFilter) (*models.TransactionPage, error) {
	if filter.SourceId == "" {
		return nil, fmt.Errorf("coinbaseprime requires a source wallet id: %w", provider.ErrInvalidArgument)
	}

	portfolio, err := s.findDefaultPortfolio(ctx)
	if err != nil {
		return nil, err
	}

	request := &transactions.ListWalletTransactionsRequest{
		PortfolioId: portfolio.Id,
		WalletId:    filter.SourceId,
		Types:       []string{"DEPOSIT", "WITHDRAWAL"},
		Pagination:  &model.PaginationParams{Limit: 500},
	}
	if millis, ok := filterAfterMillis(filter); ok {
		request.Start = time.UnixMilli(millis).UTC()
	}

	response, err := s.transactionsSvc.ListWalletTransactions(ctx, request)
	if err != nil {
		return nil, provider.Integrationf("coinbaseprime: listing wallet transactions: %v", err)
	}

	records := make([]models.TransactionRecord, 0, len(response.Transactions))
	for _, tx := range response.Transactions {
		records = append(records, models.TransactionRecord{
			Id:        tx.Id,
			Status:    tx.Status,
			Operation: tx.Type,
			AssetId:   tx.Symbol,
			Amount:    tx.Amount,
			Source: models.TransactionEndpoint{
				Type: models.EndpointVaultAccount,
				Id:   filter.SourceId,
			},
			CreatedAt:   tx.Created,
			LastUpdated: tx.Created,
		})
	}

	return &models.TransactionPage{Transactions: records}, nil
}

func filterAfterMillis(filter models.TransactionHistoryFilter) (int64, bool) {
	if filter.After != nil {
		return filter.After.UnixMilli(), true
	}
	if filter.AfterMillis > 0 {
		return filter.AfterMillis, true
	}
	return 0, false
}

func (s *Service) GetTransaction(ctx context.Context, q models.TransactionQuery) (*models.TransactionRecord, error) {
	if q.TxId == "" && q.ExternalTxId == "" {
		return nil, fmt.Errorf("one of txId or externalTxId is required: %w", provider.ErrInvalidArgument)
	}
	return nil, errUnsupported("single transaction lookup")
}

// HandleWebhook: Prime deliveries do not carry the v1/v2 dual schema this
// contract normalizes, so inbound webhooks must be routed to the primary
// provider.
func (s *Service) HandleWebhook(ctx context.Context, d models.WebhookDelivery) (*models.WebhookEvent, error) {
	return nil, errUnsupported("webhook verification")
}

func (s *Service) ResendWebhook(ctx context.Context, req *models.ResendWebhookRequest) (*models.ResendWebhookResult, error) {
	return nil, errUnsupported("webhook resend")
}
