package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a custodial vault account: one grouping of per-asset deposit
// addresses belonging to a single end-user.
type Account struct {
	Id             string
	Name           string
	OwnerReference string
}

// Asset identifies a provider asset. BaseAssetId carries the underlying
// network asset for tokens (e.g. USDC on ETH); it is empty or equal to
// AssetId for native assets.
type Asset struct {
	AssetId     string
	BaseAssetId string
	Name        string
	Decimals    int
}

// IsDependent reports whether the asset requires its base asset's wallet to
// exist before its own can be created.
func (a Asset) IsDependent() bool {
	return a.BaseAssetId != "" && a.BaseAssetId != a.AssetId
}

// WalletAddress is one deposit address, one per (account, asset) pair.
type WalletAddress struct {
	AssetId          string
	Address          string
	Tag              string
	AccountReference string
	OwnerReference   string
}

// EndpointType tags a transaction source or destination.
type EndpointType string

const (
	EndpointVaultAccount   EndpointType = "VAULT_ACCOUNT"
	EndpointInternalWallet EndpointType = "INTERNAL_WALLET"
	EndpointGasStation     EndpointType = "GAS_STATION"
	EndpointOneTimeAddress EndpointType = "ONE_TIME_ADDRESS"
)

// TransactionEndpoint is a tagged source/destination. Vault-managed endpoints
// carry Id; one-time addresses carry Address plus an optional Tag (memo).
type TransactionEndpoint struct {
	Type    EndpointType
	Id      string
	Address string
	Tag     string
}

// FeeLevel selects a fee speed tier.
type FeeLevel string

const (
	FeeLevelLow    FeeLevel = "LOW"
	FeeLevelMedium FeeLevel = "MEDIUM"
	FeeLevelHigh   FeeLevel = "HIGH"
)

// FeeEstimate is the estimate for a single speed tier. Gas fields are only
// populated on networks that price gas; NetworkFee is always set.
type FeeEstimate struct {
	GasPrice             string
	MaxFeePerGas         string
	MaxPriorityFeePerGas string
	NetworkFee           string
}

// FeeEstimates carries all three tiers of one estimate call.
type FeeEstimates struct {
	Low    FeeEstimate
	Medium FeeEstimate
	High   FeeEstimate
}

// AssetBalance is a provider-side balance snapshot; balances are never
// written locally, only observed.
type AssetBalance struct {
	AssetId   string
	Total     decimal.Decimal
	Available decimal.Decimal
	Pending   decimal.Decimal
	Frozen    decimal.Decimal
}

// VaultAccount is the provider's view of an account, including per-asset
// balances.
type VaultAccount struct {
	Id            string
	Name          string
	HiddenOnUI    bool
	CustomerRefId string
	AutoFuel      bool
	Assets        []AssetBalance
}

// ProvisioningRequest asks for deposit addresses for a set of assets under
// one account. IdempotencyKey, when set, is the caller's base key; a per-asset
// key is derived from it so retries reuse the same provider-side operation.
type ProvisioningRequest struct {
	AccountRef     string
	OwnerRef       string
	Assets         []Asset
	IdempotencyKey string
}

// WalletFailure records one asset that could not be provisioned.
type WalletFailure struct {
	AssetId string
	Message string
}

// ProvisioningResult partitions the requested assets: every asset lands in
// exactly one of Successful or Failed. Partial failure is a success shape,
// not an error.
type ProvisioningResult struct {
	Successful []WalletAddress
	Failed     []WalletFailure
}

// FeeRequest is the normalized fee-estimation request all entry points reduce to.
type FeeRequest struct {
	AssetId     string
	Amount      string
	Source      TransactionEndpoint
	Destination TransactionEndpoint
	Operation   string
	FeeLevel    FeeLevel
}

// InternalFeeRequest estimates a vault-to-vault transfer.
type InternalFeeRequest struct {
	AssetId            string
	Amount             string
	SourceVaultId      string
	DestinationVaultId string
}

// ExternalFeeRequest estimates a vault-to-one-time-address transfer.
type ExternalFeeRequest struct {
	AssetId            string
	Amount             string
	SourceVaultId      string
	DestinationAddress string
	DestinationTag     string
}

// OwnershipProof is an optional travel-rule proof sub-object.
type OwnershipProof struct {
	Type  string
	Proof string
}

// TravelRuleMessage is the compliance payload attached to regulated external
// transfers. Only these fields are ever forwarded to the provider.
type TravelRuleMessage struct {
	OriginatorVASPDid   string
	BeneficiaryVASPDid  string
	OriginatorVASPName  string
	BeneficiaryVASPName string
	OriginatorRef       string
	BeneficiaryRef      string
	TravelRuleBehavior  bool
	OriginatorProof     *OwnershipProof
	BeneficiaryProof    *OwnershipProof
}

// TransactionRequest is the canonical create-transaction request.
type TransactionRequest struct {
	AssetId            string
	Amount             string
	Source             TransactionEndpoint
	Destination        TransactionEndpoint
	Operation          string
	Note               string
	ExternalTxId       string
	FeeLevel           FeeLevel
	TreatAsGrossAmount *bool
	ForceSweep         *bool
	UseGasless         *bool
	FailOnLowFee       *bool
	TravelRule         *TravelRuleMessage
	IdempotencyKey     string
}

// TransactionResult is the provider acknowledgement of a created transaction.
// Id is the provider's transaction id, distinct from the caller-facing
// TransactionId on TransferResult.
type TransactionResult struct {
	Id             string
	Status         string
	ExternalTxId   string
	SystemMessages []string
}

// InternalTransferRequest moves funds between two vault accounts.
type InternalTransferRequest struct {
	AssetId            string
	Amount             string
	SourceVaultId      string
	DestinationVaultId string
	Note               string
	ExternalTxId       string
	FeeLevel           FeeLevel
	IdempotencyKey     string
}

// ExternalTransferRequest moves funds from a vault account to an address
// outside the custodial system.
type ExternalTransferRequest struct {
	AssetId            string
	Amount             string
	SourceVaultId      string
	DestinationAddress string
	DestinationTag     string
	Note               string
	ExternalTxId       string
	FeeLevel           FeeLevel
	TravelRule         *TravelRuleMessage
	IdempotencyKey     string
}

// TransferResult names the created transaction with the caller-facing field
// name. TransactionId carries what the provider returned as Id.
type TransferResult struct {
	TransactionId string
	Status        string
}

// TransactionHistoryFilter selects transactions for a list query. Before and
// After accept either an instant or a pre-resolved epoch-millisecond value;
// zero values are omitted from the provider query entirely.
type TransactionHistoryFilter struct {
	Before        *time.Time
	After         *time.Time
	BeforeMillis  int64
	AfterMillis   int64
	Status        string
	Assets        string
	SourceType    string
	SourceId      string
	DestType      string
	DestId        string
	TxHash        string
	Limit         int
	OrderBy       string
	Sort          string
	NextPageToken string
}

// TransactionQuery looks up a single transaction. Exactly one id should be
// set; when both are, TxId takes precedence by provider convention.
type TransactionQuery struct {
	TxId         string
	ExternalTxId string
}

// TransactionRecord is the canonical shape of a provider transaction. Status
// is an open provider-defined string, not a closed enum.
type TransactionRecord struct {
	Id           string
	ExternalTxId string
	Status       string
	SubStatus    string
	Operation    string
	AssetId      string
	Source       TransactionEndpoint
	Destination  *TransactionEndpoint
	Amount       string
	Fee          string
	TxHash       string
	CreatedAt    time.Time
	LastUpdated  time.Time
}

// TransactionPage is one page of history results. NextPageToken is opaque;
// pass it back unchanged to fetch the next page.
type TransactionPage struct {
	Transactions  []TransactionRecord
	NextPageToken string
}

// ResendWebhookRequest targets one transaction's redelivery flags when TxId
// is set; a nil request asks for a bulk resend of all failed deliveries.
// Unset flags default to resend.
type ResendWebhookRequest struct {
	TxId                string
	ResendCreated       *bool
	ResendStatusUpdated *bool
}

// ResendWebhookResult carries Success for single-transaction resends and
// MessagesCount for bulk resends.
type ResendWebhookResult struct {
	Success       *bool
	MessagesCount *int
	Message       string
}
