package fireblocks

import (
	"context"
	"crypto"
	"crypto/hmac"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"waas-gateway-go/internal/models"
	"waas-gateway-go/internal/provider"

	"go.uber.org/zap"
)

// Webhook processing is a one-way pipeline: verify the signature for the
// declared version, parse the version's schema, normalize onto the canonical
// event union. Any failure rejects the delivery terminally; unverified input
// never reaches parsing or normalization, and nothing is retried here.

// v1 event-type codes.
const (
	v1EventTransactionCreated               = "TRANSACTION_CREATED"
	v1EventTransactionStatusUpdated         = "TRANSACTION_STATUS_UPDATED"
	v1EventTransactionApprovalStatusUpdated = "TRANSACTION_APPROVAL_STATUS_UPDATED"
	v1EventVaultAccountAdded                = "VAULT_ACCOUNT_ADDED"
	v1EventVaultAccountAssetAdded           = "VAULT_ACCOUNT_ASSET_ADDED"
	v1EventExternalWalletAssetAdded         = "EXTERNAL_WALLET_ASSET_ADDED"
)

// v2 event-type codes.
const (
	v2EventTransactionCreated               = "transaction.created"
	v2EventTransactionStatusUpdated         = "transaction.status.updated"
	v2EventTransactionApprovalStatusUpdated = "transaction.approval_status.updated"
	v2EventVaultAccountCreated              = "vault_account.created"
	v2EventVaultAccountAssetAdded           = "vault_account.asset.added"
	v2EventExternalWalletAssetAdded         = "external_wallet.asset.added"
)

// Static bidirectional event-type tables. The two vocabularies are not
// guaranteed to map losslessly in either direction; unknown codes pass
// through unchanged rather than being forced onto a guessed counterpart.
var v1ToV2EventType = map[string]string{
	v1EventTransactionCreated:               v2EventTransactionCreated,
	v1EventTransactionStatusUpdated:         v2EventTransactionStatusUpdated,
	v1EventTransactionApprovalStatusUpdated: v2EventTransactionApprovalStatusUpdated,
	v1EventVaultAccountAdded:                v2EventVaultAccountCreated,
	v1EventVaultAccountAssetAdded:           v2EventVaultAccountAssetAdded,
	v1EventExternalWalletAssetAdded:         v2EventExternalWalletAssetAdded,
}

var v2ToV1EventType = map[string]string{
	v2EventTransactionCreated:               v1EventTransactionCreated,
	v2EventTransactionStatusUpdated:         v1EventTransactionStatusUpdated,
	v2EventTransactionApprovalStatusUpdated: v1EventTransactionApprovalStatusUpdated,
	v2EventVaultAccountCreated:              v1EventVaultAccountAdded,
	v2EventVaultAccountAssetAdded:           v1EventVaultAccountAssetAdded,
	v2EventExternalWalletAssetAdded:         v1EventExternalWalletAssetAdded,
}

func v1EventTypeToV2(code string) string {
	if mapped, ok := v1ToV2EventType[code]; ok {
		return mapped
	}
	return code
}

func v2EventTypeToV1(code string) string {
	if mapped, ok := v2ToV1EventType[code]; ok {
		return mapped
	}
	return code
}

// payloadKind selects which of the three output shapes an event-type code
// normalizes to. Decided once, before any data parsing.
type payloadKind int

const (
	kindTransaction payloadKind = iota
	kindVaultAccount
	kindVaultAccountAsset
)

func v1PayloadKind(code string) payloadKind {
	switch code {
	case v1EventVaultAccountAdded:
		return kindVaultAccount
	case v1EventVaultAccountAssetAdded:
		return kindVaultAccountAsset
	default:
		return kindTransaction
	}
}

func v2PayloadKind(code string) payloadKind {
	switch code {
	case v2EventVaultAccountCreated:
		return kindVaultAccount
	case v2EventVaultAccountAssetAdded:
		return kindVaultAccountAsset
	default:
		return kindTransaction
	}
}

// v1 schema.

type v1WebhookPayload struct {
	Type      string          `json:"type"`
	TenantId  string          `json:"tenantId"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

// v1TransactionData carries amounts as flat top-level fields.
type v1TransactionData struct {
	Id                 string       `json:"id"`
	Status             string       `json:"status"`
	SubStatus          string       `json:"subStatus"`
	ExternalTxId       string       `json:"externalTxId"`
	TxHash             string       `json:"txHash"`
	Operation          string       `json:"operation"`
	AssetId            string       `json:"assetId"`
	Source             wirePeer     `json:"source"`
	Destination        *wirePeer    `json:"destination"`
	SourceAddress      string       `json:"sourceAddress"`
	DestinationAddress string       `json:"destinationAddress"`
	DestinationTag     string       `json:"destinationTag"`
	Amount             string       `json:"amount"`
	RequestedAmount    string       `json:"requestedAmount"`
	NetAmount          string       `json:"netAmount"`
	AmountUSD          string       `json:"amountUSD"`
	FeeInfo            *wireFeeInfo `json:"feeInfo"`
	CreatedAt          int64        `json:"createdAt"`
	LastUpdated        int64        `json:"lastUpdated"`
	CreatedBy          string       `json:"createdBy"`
}

// v2 schema.

type v2WebhookPayload struct {
	Id           string          `json:"id"`
	EventType    string          `json:"eventType"`
	EventVersion int             `json:"eventVersion"`
	WorkspaceId  string          `json:"workspaceId"`
	CreatedAt    int64           `json:"createdAt"`
	Data         json.RawMessage `json:"data"`
}

// v2TransactionData groups amounts under a nested amountInfo object.
type v2TransactionData struct {
	Id                 string         `json:"id"`
	Status             string         `json:"status"`
	SubStatus          string         `json:"subStatus"`
	ExternalTxId       string         `json:"externalTxId"`
	TxHash             string         `json:"txHash"`
	Operation          string         `json:"operation"`
	AssetId            string         `json:"assetId"`
	Source             wirePeer       `json:"source"`
	Destination        *wirePeer      `json:"destination"`
	SourceAddress      string         `json:"sourceAddress"`
	DestinationAddress string         `json:"destinationAddress"`
	DestinationTag     string         `json:"destinationTag"`
	AmountInfo         wireAmountInfo `json:"amountInfo"`
	FeeInfo            *wireFeeInfo   `json:"feeInfo"`
	CreatedAt          int64          `json:"createdAt"`
	LastUpdated        int64          `json:"lastUpdated"`
	CreatedBy          string         `json:"createdBy"`
}

// Shared by both versions.

type webhookVaultAccountData struct {
	Id            string             `json:"id"`
	Name          string             `json:"name"`
	HiddenOnUI    bool               `json:"hiddenOnUI"`
	CustomerRefId string             `json:"customerRefId"`
	AutoFuel      bool               `json:"autoFuel"`
	Assets        []wireAssetBalance `json:"assets"`
}

type webhookVaultAssetData struct {
	AccountId   string `json:"accountId"`
	AccountName string `json:"accountName"`
	AssetId     string `json:"assetId"`
}

// HandleWebhook authenticates an inbound delivery and normalizes it into the
// canonical event shape. Rejections are terminal; redelivery is the
// provider's concern, requested separately through ResendWebhook.
func (s *Service) HandleWebhook(ctx context.Context, d models.WebhookDelivery) (*models.WebhookEvent, error) {
	switch d.Version {
	case models.WebhookV1:
		if err := s.verifyV1Signature(d); err != nil {
			zap.L().Warn("Rejected v1 webhook", zap.Error(err))
			return nil, err
		}
		return normalizeV1(d.Payload)
	case models.WebhookV2:
		if err := s.verifyV2Signature(d); err != nil {
			zap.L().Warn("Rejected v2 webhook", zap.Error(err))
			return nil, err
		}
		return normalizeV2(d.Payload)
	default:
		return nil, fmt.Errorf("webhook version %q: %w", d.Version, provider.ErrPayloadMalformed)
	}
}

// verifyV1Signature checks an RSA-SHA512 signature over the raw payload
// bytes, supplied base64-encoded.
func (s *Service) verifyV1Signature(d models.WebhookDelivery) error {
	if s.webhookKey == nil {
		return fmt.Errorf("v1 webhook public key not configured: %w", provider.ErrSignatureInvalid)
	}

	signature, err := base64.StdEncoding.DecodeString(d.Signature)
	if err != nil {
		return fmt.Errorf("v1 signature is not valid base64: %w", provider.ErrSignatureInvalid)
	}

	digest := sha512.Sum512(d.Payload)
	if err := rsa.VerifyPKCS1v15(s.webhookKey, crypto.SHA512, digest[:], signature); err != nil {
		return fmt.Errorf("v1 signature verification failed: %w", provider.ErrSignatureInvalid)
	}
	return nil
}

// verifyV2Signature checks an HMAC-SHA256 over "{timestamp}.{payload}",
// supplied hex-encoded, then enforces the freshness window. hmac.Equal
// compares the full digests in constant time.
func (s *Service) verifyV2Signature(d models.WebhookDelivery) error {
	if s.webhookSecret == "" {
		return fmt.Errorf("v2 webhook signing secret not configured: %w", provider.ErrSignatureInvalid)
	}

	provided, err := hex.DecodeString(d.Signature)
	if err != nil {
		return fmt.Errorf("v2 signature is not valid hex: %w", provider.ErrSignatureInvalid)
	}

	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write([]byte(d.Timestamp))
	mac.Write([]byte("."))
	mac.Write(d.Payload)
	if !hmac.Equal(provided, mac.Sum(nil)) {
		return fmt.Errorf("v2 signature verification failed: %w", provider.ErrSignatureInvalid)
	}

	timestamp, err := strconv.ParseInt(d.Timestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("unparseable v2 timestamp %q: %w", d.Timestamp, provider.ErrPayloadMalformed)
	}

	skew := s.now().Unix() - timestamp
	if skew < 0 {
		skew = -skew
	}
	if skew > int64(s.freshnessWindow/time.Second) {
		return fmt.Errorf("v2 payload is %ds old, freshness window is %s: %w",
			skew, s.freshnessWindow, provider.ErrPayloadStale)
	}
	return nil
}

func normalizeV1(payload []byte) (*models.WebhookEvent, error) {
	var envelope v1WebhookPayload
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("parsing v1 payload: %v: %w", err, provider.ErrPayloadMalformed)
	}
	if envelope.Type == "" {
		return nil, fmt.Errorf("v1 payload missing type: %w", provider.ErrPayloadMalformed)
	}
	if len(envelope.Data) == 0 {
		return nil, fmt.Errorf("v1 payload missing data: %w", provider.ErrPayloadMalformed)
	}

	event := &models.WebhookEvent{
		Version:   models.WebhookV1,
		EventType: envelope.Type,
		V1Envelope: &models.WebhookV1Envelope{
			Type:      envelope.Type,
			TenantId:  envelope.TenantId,
			Timestamp: envelope.Timestamp,
		},
	}

	switch v1PayloadKind(envelope.Type) {
	case kindVaultAccount:
		var data webhookVaultAccountData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, fmt.Errorf("parsing v1 vault account data: %v: %w", err, provider.ErrPayloadMalformed)
		}
		event.VaultAccount = mapVaultAccountEvent(data)
	case kindVaultAccountAsset:
		var data webhookVaultAssetData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, fmt.Errorf("parsing v1 vault asset data: %v: %w", err, provider.ErrPayloadMalformed)
		}
		event.VaultAccountAsset = mapVaultAssetEvent(data)
	default:
		var data v1TransactionData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, fmt.Errorf("parsing v1 transaction data: %v: %w", err, provider.ErrPayloadMalformed)
		}
		event.Transaction = mapV1TransactionEvent(data)
	}

	return event, nil
}

func normalizeV2(payload []byte) (*models.WebhookEvent, error) {
	var envelope v2WebhookPayload
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, fmt.Errorf("parsing v2 payload: %v: %w", err, provider.ErrPayloadMalformed)
	}
	if envelope.EventType == "" {
		return nil, fmt.Errorf("v2 payload missing eventType: %w", provider.ErrPayloadMalformed)
	}
	if len(envelope.Data) == 0 {
		return nil, fmt.Errorf("v2 payload missing data: %w", provider.ErrPayloadMalformed)
	}

	event := &models.WebhookEvent{
		Version:   models.WebhookV2,
		EventType: envelope.EventType,
		V2Envelope: &models.WebhookV2Envelope{
			Id:           envelope.Id,
			EventType:    envelope.EventType,
			EventVersion: envelope.EventVersion,
			WorkspaceId:  envelope.WorkspaceId,
			CreatedAt:    envelope.CreatedAt,
		},
	}

	switch v2PayloadKind(envelope.EventType) {
	case kindVaultAccount:
		var data webhookVaultAccountData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, fmt.Errorf("parsing v2 vault account data: %v: %w", err, provider.ErrPayloadMalformed)
		}
		event.VaultAccount = mapVaultAccountEvent(data)
	case kindVaultAccountAsset:
		var data webhookVaultAssetData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, fmt.Errorf("parsing v2 vault asset data: %v: %w", err, provider.ErrPayloadMalformed)
		}
		event.VaultAccountAsset = mapVaultAssetEvent(data)
	default:
		var data v2TransactionData
		if err := json.Unmarshal(envelope.Data, &data); err != nil {
			return nil, fmt.Errorf("parsing v2 transaction data: %v: %w", err, provider.ErrPayloadMalformed)
		}
		event.Transaction = mapV2TransactionEvent(data)
	}

	return event, nil
}

func mapVaultAccountEvent(data webhookVaultAccountData) *models.VaultAccountEventPayload {
	payload := &models.VaultAccountEventPayload{
		Id:            data.Id,
		Name:          data.Name,
		HiddenOnUI:    data.HiddenOnUI,
		CustomerRefId: data.CustomerRefId,
		AutoFuel:      data.AutoFuel,
		Assets:        make([]models.AssetBalance, 0, len(data.Assets)),
	}
	for _, asset := range data.Assets {
		payload.Assets = append(payload.Assets, mapAssetBalance(asset, asset.Id))
	}
	return payload
}

func mapVaultAssetEvent(data webhookVaultAssetData) *models.VaultAccountAssetEventPayload {
	return &models.VaultAccountAssetEventPayload{
		AccountId:   data.AccountId,
		AccountName: data.AccountName,
		AssetId:     data.AssetId,
	}
}

func mapV1TransactionEvent(data v1TransactionData) *models.TransactionEventPayload {
	payload := &models.TransactionEventPayload{
		Id:           data.Id,
		Status:       data.Status,
		SubStatus:    data.SubStatus,
		ExternalTxId: data.ExternalTxId,
		TxHash:       data.TxHash,
		Operation:    data.Operation,
		AssetId:      data.AssetId,
		Source:       mapEndpoint(data.Source, data.SourceAddress, ""),
		AmountInfo: models.AmountInfo{
			Amount:          data.Amount,
			RequestedAmount: data.RequestedAmount,
			NetAmount:       data.NetAmount,
			AmountUSD:       data.AmountUSD,
		},
		CreatedAt:   time.UnixMilli(data.CreatedAt).UTC(),
		LastUpdated: time.UnixMilli(data.LastUpdated).UTC(),
		CreatedBy:   data.CreatedBy,
	}
	if data.Destination != nil {
		destination := mapEndpoint(*data.Destination, data.DestinationAddress, data.DestinationTag)
		payload.Destination = &destination
	}
	payload.FeeInfo = mapFeeInfo(data.FeeInfo)
	return payload
}

func mapV2TransactionEvent(data v2TransactionData) *models.TransactionEventPayload {
	payload := &models.TransactionEventPayload{
		Id:           data.Id,
		Status:       data.Status,
		SubStatus:    data.SubStatus,
		ExternalTxId: data.ExternalTxId,
		TxHash:       data.TxHash,
		Operation:    data.Operation,
		AssetId:      data.AssetId,
		Source:       mapEndpoint(data.Source, data.SourceAddress, ""),
		AmountInfo: models.AmountInfo{
			Amount:          data.AmountInfo.Amount,
			RequestedAmount: data.AmountInfo.RequestedAmount,
			NetAmount:       data.AmountInfo.NetAmount,
			AmountUSD:       data.AmountInfo.AmountUSD,
		},
		CreatedAt:   time.UnixMilli(data.CreatedAt).UTC(),
		LastUpdated: time.UnixMilli(data.LastUpdated).UTC(),
		CreatedBy:   data.CreatedBy,
	}
	if data.Destination != nil {
		destination := mapEndpoint(*data.Destination, data.DestinationAddress, data.DestinationTag)
		payload.Destination = &destination
	}
	payload.FeeInfo = mapFeeInfo(data.FeeInfo)
	return payload
}

func mapFeeInfo(wire *wireFeeInfo) *models.FeeInfo {
	if wire == nil {
		return nil
	}
	return &models.FeeInfo{
		NetworkFee: wire.NetworkFee,
		ServiceFee: wire.ServiceFee,
		GasPrice:   wire.GasPrice,
	}
}

// ResendWebhook asks the provider to redeliver webhooks. With a transaction
// id it targets that transaction's created/status-updated deliveries, both
// defaulting to resend when unset; without one it requests a bulk resend of
// all failed deliveries and the provider answers with a count.
func (s *Service) ResendWebhook(ctx context.Context, req *models.ResendWebhookRequest) (*models.ResendWebhookResult, error) {
	if req == nil || req.TxId == "" {
		var resp resendWebhooksResponse
		if err := s.client.post(ctx, "/webhooks/resend", nil, struct{}{}, &resp); err != nil {
			return nil, err
		}
		return &models.ResendWebhookResult{MessagesCount: resp.MessagesCount, Message: resp.Message}, nil
	}

	body := resendWebhooksRequest{
		ResendCreated:       boolOrDefault(req.ResendCreated, true),
		ResendStatusUpdated: boolOrDefault(req.ResendStatusUpdated, true),
	}

	var resp resendWebhooksResponse
	if err := s.client.post(ctx, "/webhooks/resend/"+req.TxId, nil, body, &resp); err != nil {
		return nil, err
	}
	return &models.ResendWebhookResult{Success: resp.Success, Message: resp.Message}, nil
}

func boolOrDefault(value *bool, fallback bool) bool {
	if value == nil {
		return fallback
	}
	return *value
}
