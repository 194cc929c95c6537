package provider

import (
	"context"

	"waas-gateway-go/internal/models"
)

// Service is the provider-agnostic contract for custodial wallet operations.
// Exactly one implementation is active per deployment, selected by
// configuration through Resolve. Callers depend only on this interface.
type Service interface {
	// GetAvailableStableAssets lists the provider assets whose lowercase
	// name contains any configured stable keyword.
	GetAvailableStableAssets(ctx context.Context) ([]models.Asset, error)

	// CreateAccount creates one vault account for an end-user.
	CreateAccount(ctx context.Context, name, ownerRef string) (*models.Account, error)

	// CreateWallets provisions deposit addresses for the requested assets,
	// creating base-asset wallets before dependent token wallets. Partial
	// failure is returned in the result, never as an error; only a total
	// provider outage surfaces as a call-level error.
	CreateWallets(ctx context.Context, req models.ProvisioningRequest) (*models.ProvisioningResult, error)

	GetVaultAccount(ctx context.Context, accountRef string) (*models.VaultAccount, error)
	GetAssetBalance(ctx context.Context, accountRef, assetId string) (*models.AssetBalance, error)

	EstimateTransactionFee(ctx context.Context, req models.FeeRequest) (*models.FeeEstimates, error)
	EstimateInternalTransferFee(ctx context.Context, req models.InternalFeeRequest) (*models.FeeEstimates, error)
	EstimateExternalTransactionFee(ctx context.Context, req models.ExternalFeeRequest) (*models.FeeEstimates, error)

	CreateTransaction(ctx context.Context, req models.TransactionRequest) (*models.TransactionResult, error)
	InternalTransfer(ctx context.Context, req models.InternalTransferRequest) (*models.TransferResult, error)
	ExternalTransfer(ctx context.Context, req models.ExternalTransferRequest) (*models.TransferResult, error)

	GetTransactionHistory(ctx context.Context, filter models.TransactionHistoryFilter) (*models.TransactionPage, error)

	// GetTransaction requires exactly one of TxId/ExternalTxId; with neither
	// it fails with ErrInvalidArgument before any provider call, with both
	// TxId takes precedence.
	GetTransaction(ctx context.Context, q models.TransactionQuery) (*models.TransactionRecord, error)

	// HandleWebhook authenticates the delivery and normalizes it into one
	// canonical event, or rejects it terminally.
	HandleWebhook(ctx context.Context, d models.WebhookDelivery) (*models.WebhookEvent, error)

	// ResendWebhook requests provider-side redelivery; nil means bulk resend
	// of all failed deliveries.
	ResendWebhook(ctx context.Context, req *models.ResendWebhookRequest) (*models.ResendWebhookResult, error)
}
