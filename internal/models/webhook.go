package models

import "time"

// WebhookVersion tags which signature scheme and payload schema a delivery
// uses. There is no default: callers must pass it explicitly.
type WebhookVersion string

const (
	WebhookV1 WebhookVersion = "v1"
	WebhookV2 WebhookVersion = "v2"
)

// WebhookDelivery is the raw inbound webhook: opaque payload bytes plus the
// signature header value and, for v2, the timestamp header value.
type WebhookDelivery struct {
	Payload   []byte
	Signature string
	Timestamp string
	Version   WebhookVersion
}

// AmountInfo groups the amount fields of a transaction event.
type AmountInfo struct {
	Amount          string
	RequestedAmount string
	NetAmount       string
	AmountUSD       string
}

// FeeInfo groups the optional fee fields of a transaction event.
type FeeInfo struct {
	NetworkFee string
	ServiceFee string
	GasPrice   string
}

// TransactionEventPayload is the normalized payload for any transaction
// lifecycle event.
type TransactionEventPayload struct {
	Id           string
	Status       string
	SubStatus    string
	ExternalTxId string
	TxHash       string
	Operation    string
	AssetId      string
	Source       TransactionEndpoint
	Destination  *TransactionEndpoint
	AmountInfo   AmountInfo
	FeeInfo      *FeeInfo
	CreatedAt    time.Time
	LastUpdated  time.Time
	CreatedBy    string
}

// VaultAccountEventPayload is the normalized payload for a vault-account
// creation event.
type VaultAccountEventPayload struct {
	Id            string
	Name          string
	HiddenOnUI    bool
	Assets        []AssetBalance
	CustomerRefId string
	AutoFuel      bool
}

// VaultAccountAssetEventPayload is the normalized payload for an
// asset-added-to-vault event.
type VaultAccountAssetEventPayload struct {
	AccountId   string
	AccountName string
	AssetId     string
}

// WebhookV1Envelope is the v1 envelope metadata, kept version-shaped.
type WebhookV1Envelope struct {
	Type      string
	TenantId  string
	Timestamp int64
}

// WebhookV2Envelope is the v2 envelope metadata, kept version-shaped.
type WebhookV2Envelope struct {
	Id           string
	EventType    string
	EventVersion int
	WorkspaceId  string
	CreatedAt    int64
}

// WebhookEvent is the normalized event: exactly one of Transaction,
// VaultAccount or VaultAccountAsset is populated, decided once from the
// provider's event-type code. EventType carries the original code unchanged;
// exactly one envelope is populated depending on Version.
type WebhookEvent struct {
	Version   WebhookVersion
	EventType string

	Transaction       *TransactionEventPayload
	VaultAccount      *VaultAccountEventPayload
	VaultAccountAsset *VaultAccountAssetEventPayload

	V1Envelope *WebhookV1Envelope
	V2Envelope *WebhookV2Envelope
}
