package fireblocks

import (
	"context"
	"crypto"
	"crypto/hmac"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"crypto/x509"
	"encoding/base64"
	"encoding/hex"
	"encoding/pem"
	"fmt"
	"strconv"
	"testing"
	"time"

	"waas-gateway-go/internal/models"
	"waas-gateway-go/internal/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSigningSecret = "test-signing-secret"

func newWebhookService(t *testing.T, publicKeyPEM string) *Service {
	t.Helper()
	service, err := NewService(&models.Config{
		Fireblocks: models.FireblocksConfig{
			BaseURL: "http://127.0.0.1:1",
			APIKey:  "test-key",
		},
		Webhook: models.WebhookConfig{
			V1PublicKeyPEM:  publicKeyPEM,
			V2SigningSecret: testSigningSecret,
			FreshnessWindow: 300 * time.Second,
		},
	})
	require.NoError(t, err)
	return service
}

func generateV1Keys(t *testing.T) (*rsa.PrivateKey, string) {
	t.Helper()
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	require.NoError(t, err)

	publicKeyPEM := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}))
	return key, publicKeyPEM
}

func signV1(t *testing.T, key *rsa.PrivateKey, payload []byte) string {
	t.Helper()
	digest := sha512.Sum512(payload)
	signature, err := rsa.SignPKCS1v15(rand.Reader, key, crypto.SHA512, digest[:])
	require.NoError(t, err)
	return base64.StdEncoding.EncodeToString(signature)
}

func signV2(timestamp string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(testSigningSecret))
	mac.Write([]byte(timestamp + "."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestHandleWebhook_V1AcceptsValidSignature(t *testing.T) {
	key, publicKeyPEM := generateV1Keys(t)
	service := newWebhookService(t, publicKeyPEM)

	payload := []byte(`{
		"type": "TRANSACTION_CREATED",
		"tenantId": "tenant-1",
		"timestamp": 1709294400000,
		"data": {"id": "tx-1", "status": "SUBMITTED", "assetId": "ETH",
			"source": {"type": "VAULT_ACCOUNT", "id": "7"},
			"amount": "1.5", "createdAt": 1709294400000, "lastUpdated": 1709294400000}
	}`)

	event, err := service.HandleWebhook(context.Background(), models.WebhookDelivery{
		Payload:   payload,
		Signature: signV1(t, key, payload),
		Version:   models.WebhookV1,
	})
	require.NoError(t, err)

	assert.Equal(t, models.WebhookV1, event.Version)
	assert.Equal(t, "TRANSACTION_CREATED", event.EventType)
	require.NotNil(t, event.Transaction)
	assert.Equal(t, "tx-1", event.Transaction.Id)
	assert.Equal(t, "1.5", event.Transaction.AmountInfo.Amount)
	require.NotNil(t, event.V1Envelope)
	assert.Equal(t, "tenant-1", event.V1Envelope.TenantId)
	assert.Nil(t, event.V2Envelope)
}

func TestHandleWebhook_V1RejectsBadSignature(t *testing.T) {
	key, publicKeyPEM := generateV1Keys(t)
	service := newWebhookService(t, publicKeyPEM)

	payload := []byte(`{"type": "TRANSACTION_CREATED", "data": {"id": "tx-1"}}`)
	signature := signV1(t, key, []byte("different payload"))

	_, err := service.HandleWebhook(context.Background(), models.WebhookDelivery{
		Payload:   payload,
		Signature: signature,
		Version:   models.WebhookV1,
	})
	assert.ErrorIs(t, err, provider.ErrSignatureInvalid)
}

func TestHandleWebhook_V1RejectsWithoutConfiguredKey(t *testing.T) {
	service := newWebhookService(t, "")

	_, err := service.HandleWebhook(context.Background(), models.WebhookDelivery{
		Payload:   []byte(`{"type": "TRANSACTION_CREATED", "data": {}}`),
		Signature: base64.StdEncoding.EncodeToString([]byte("sig")),
		Version:   models.WebhookV1,
	})
	assert.ErrorIs(t, err, provider.ErrSignatureInvalid)
}

func v2Payload(eventId, eventType string) []byte {
	return []byte(fmt.Sprintf(`{
		"id": %q,
		"eventType": %q,
		"eventVersion": 2,
		"workspaceId": "ws-1",
		"createdAt": 1709294400000,
		"data": {"id": "tx-2", "status": "COMPLETED", "assetId": "USDC",
			"source": {"type": "VAULT_ACCOUNT", "id": "7"},
			"amountInfo": {"amount": "250", "netAmount": "249.5"},
			"createdAt": 1709294400000, "lastUpdated": 1709294460000}
	}`, eventId, eventType))
}

func TestHandleWebhook_V2AcceptsValidHMAC(t *testing.T) {
	service := newWebhookService(t, "")
	now := time.Unix(1709294400, 0)
	service.now = func() time.Time { return now }

	payload := v2Payload("evt-1", "transaction.status.updated")
	timestamp := strconv.FormatInt(now.Unix(), 10)

	event, err := service.HandleWebhook(context.Background(), models.WebhookDelivery{
		Payload:   payload,
		Signature: signV2(timestamp, payload),
		Timestamp: timestamp,
		Version:   models.WebhookV2,
	})
	require.NoError(t, err)

	assert.Equal(t, models.WebhookV2, event.Version)
	require.NotNil(t, event.Transaction)
	assert.Equal(t, "250", event.Transaction.AmountInfo.Amount)
	assert.Equal(t, "249.5", event.Transaction.AmountInfo.NetAmount)
	require.NotNil(t, event.V2Envelope)
	assert.Equal(t, "evt-1", event.V2Envelope.Id)
	assert.Equal(t, "ws-1", event.V2Envelope.WorkspaceId)
	assert.Nil(t, event.V1Envelope)
}

func TestHandleWebhook_V2RejectsTamperedPayload(t *testing.T) {
	service := newWebhookService(t, "")
	now := time.Unix(1709294400, 0)
	service.now = func() time.Time { return now }

	payload := v2Payload("evt-1", "transaction.created")
	timestamp := strconv.FormatInt(now.Unix(), 10)
	signature := signV2(timestamp, payload)

	tampered := append([]byte{}, payload...)
	tampered[len(tampered)-2] = ' '

	_, err := service.HandleWebhook(context.Background(), models.WebhookDelivery{
		Payload:   tampered,
		Signature: signature,
		Timestamp: timestamp,
		Version:   models.WebhookV2,
	})
	assert.ErrorIs(t, err, provider.ErrSignatureInvalid)
}

func TestHandleWebhook_V2FreshnessBoundary(t *testing.T) {
	service := newWebhookService(t, "")
	now := time.Unix(1709294400, 0)
	service.now = func() time.Time { return now }

	payload := v2Payload("evt-1", "transaction.created")

	cases := []struct {
		name    string
		age     int64
		wantErr error
	}{
		{"exactly at the window", 300, nil},
		{"one second past the window", 301, provider.ErrPayloadStale},
		{"future within window", -299, nil},
		{"future past window", -301, provider.ErrPayloadStale},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			timestamp := strconv.FormatInt(now.Unix()-tc.age, 10)
			_, err := service.HandleWebhook(context.Background(), models.WebhookDelivery{
				Payload:   payload,
				Signature: signV2(timestamp, payload),
				Timestamp: timestamp,
				Version:   models.WebhookV2,
			})
			if tc.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tc.wantErr)
			}
		})
	}
}

func TestHandleWebhook_V2MalformedTimestamp(t *testing.T) {
	service := newWebhookService(t, "")

	payload := v2Payload("evt-1", "transaction.created")
	timestamp := "not-a-number"

	// The HMAC is valid over the garbage timestamp, so the failure is the
	// timestamp itself, not the signature.
	_, err := service.HandleWebhook(context.Background(), models.WebhookDelivery{
		Payload:   payload,
		Signature: signV2(timestamp, payload),
		Timestamp: timestamp,
		Version:   models.WebhookV2,
	})
	assert.ErrorIs(t, err, provider.ErrPayloadMalformed)
}

func TestHandleWebhook_UnknownVersionRejected(t *testing.T) {
	service := newWebhookService(t, "")
	_, err := service.HandleWebhook(context.Background(), models.WebhookDelivery{
		Payload: []byte(`{}`),
		Version: "v3",
	})
	assert.ErrorIs(t, err, provider.ErrPayloadMalformed)
}

func TestNormalize_V1AndV2ProduceSameTransactionPayload(t *testing.T) {
	v1 := []byte(`{
		"type": "TRANSACTION_STATUS_UPDATED",
		"tenantId": "tenant-1",
		"timestamp": 1709294400000,
		"data": {
			"id": "tx-7", "status": "COMPLETED", "subStatus": "CONFIRMED",
			"externalTxId": "order-7", "txHash": "0xhash", "operation": "TRANSFER",
			"assetId": "ETH",
			"source": {"type": "VAULT_ACCOUNT", "id": "7"},
			"destination": {"type": "ONE_TIME_ADDRESS"},
			"destinationAddress": "0xdead", "destinationTag": "",
			"amount": "1.5", "requestedAmount": "1.5", "netAmount": "1.499", "amountUSD": "4500",
			"feeInfo": {"networkFee": "0.001", "gasPrice": "20"},
			"createdAt": 1709294400000, "lastUpdated": 1709294460000, "createdBy": "api-user"
		}
	}`)

	v2 := []byte(`{
		"id": "evt-7", "eventType": "transaction.status.updated", "eventVersion": 2,
		"workspaceId": "ws-1", "createdAt": 1709294400000,
		"data": {
			"id": "tx-7", "status": "COMPLETED", "subStatus": "CONFIRMED",
			"externalTxId": "order-7", "txHash": "0xhash", "operation": "TRANSFER",
			"assetId": "ETH",
			"source": {"type": "VAULT_ACCOUNT", "id": "7"},
			"destination": {"type": "ONE_TIME_ADDRESS"},
			"destinationAddress": "0xdead", "destinationTag": "",
			"amountInfo": {"amount": "1.5", "requestedAmount": "1.5", "netAmount": "1.499", "amountUSD": "4500"},
			"feeInfo": {"networkFee": "0.001", "gasPrice": "20"},
			"createdAt": 1709294400000, "lastUpdated": 1709294460000, "createdBy": "api-user"
		}
	}`)

	fromV1, err := normalizeV1(v1)
	require.NoError(t, err)
	fromV2, err := normalizeV2(v2)
	require.NoError(t, err)

	// Same logical event through either schema yields the same normalized
	// transaction payload; only the envelopes stay version-shaped.
	assert.Equal(t, fromV1.Transaction, fromV2.Transaction)
	assert.NotNil(t, fromV1.V1Envelope)
	assert.NotNil(t, fromV2.V2Envelope)
}

func TestNormalizeV1_VaultAccountKinds(t *testing.T) {
	event, err := normalizeV1([]byte(`{
		"type": "VAULT_ACCOUNT_ADDED",
		"data": {"id": "42", "name": "alice-vault", "hiddenOnUI": true,
			"assets": [{"id": "ETH", "total": "2.5", "available": "2.5"}]}
	}`))
	require.NoError(t, err)
	require.NotNil(t, event.VaultAccount)
	assert.Nil(t, event.Transaction)
	assert.Equal(t, "alice-vault", event.VaultAccount.Name)
	require.Len(t, event.VaultAccount.Assets, 1)
	assert.Equal(t, "ETH", event.VaultAccount.Assets[0].AssetId)

	event, err = normalizeV1([]byte(`{
		"type": "VAULT_ACCOUNT_ASSET_ADDED",
		"data": {"accountId": "42", "accountName": "alice-vault", "assetId": "USDC"}
	}`))
	require.NoError(t, err)
	require.NotNil(t, event.VaultAccountAsset)
	assert.Equal(t, "USDC", event.VaultAccountAsset.AssetId)
}

func TestNormalize_MissingFieldsRejected(t *testing.T) {
	cases := []struct {
		name    string
		version models.WebhookVersion
		payload string
	}{
		{"v1 not json", models.WebhookV1, `{]`},
		{"v1 missing type", models.WebhookV1, `{"data": {}}`},
		{"v1 missing data", models.WebhookV1, `{"type": "TRANSACTION_CREATED"}`},
		{"v2 not json", models.WebhookV2, `{]`},
		{"v2 missing eventType", models.WebhookV2, `{"id": "evt-1", "data": {}}`},
		{"v2 missing data", models.WebhookV2, `{"id": "evt-1", "eventType": "transaction.created"}`},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var err error
			if tc.version == models.WebhookV1 {
				_, err = normalizeV1([]byte(tc.payload))
			} else {
				_, err = normalizeV2([]byte(tc.payload))
			}
			assert.ErrorIs(t, err, provider.ErrPayloadMalformed)
		})
	}
}

func TestEventTypeTables_RoundTrip(t *testing.T) {
	for v1Code, v2Code := range v1ToV2EventType {
		assert.Equal(t, v1Code, v2EventTypeToV1(v2Code), "v2 %s should map back to %s", v2Code, v1Code)
	}
	for v2Code, v1Code := range v2ToV1EventType {
		assert.Equal(t, v2Code, v1EventTypeToV2(v1Code), "v1 %s should map back to %s", v1Code, v2Code)
	}
}

func TestEventTypeTables_UnknownCodesPassThrough(t *testing.T) {
	assert.Equal(t, "SOME_FUTURE_EVENT", v1EventTypeToV2("SOME_FUTURE_EVENT"))
	assert.Equal(t, "some.future.event", v2EventTypeToV1("some.future.event"))
}

func TestResendWebhook_BulkWithoutRequest(t *testing.T) {
	count := 12
	server := &captureServer{t: t, response: resendWebhooksResponse{MessagesCount: &count}}
	service := newTestService(t, server)

	result, err := service.ResendWebhook(context.Background(), nil)
	require.NoError(t, err)

	server.mu.Lock()
	path := server.paths[len(server.paths)-1]
	server.mu.Unlock()
	assert.Equal(t, "/webhooks/resend", path)

	require.NotNil(t, result.MessagesCount)
	assert.Equal(t, 12, *result.MessagesCount)
	assert.Nil(t, result.Success)
}

func TestResendWebhook_TargetedDefaultsToResendBoth(t *testing.T) {
	success := true
	server := &captureServer{t: t, response: resendWebhooksResponse{Success: &success}}
	service := newTestService(t, server)

	result, err := service.ResendWebhook(context.Background(), &models.ResendWebhookRequest{TxId: "tx-9"})
	require.NoError(t, err)

	server.mu.Lock()
	path := server.paths[len(server.paths)-1]
	server.mu.Unlock()
	assert.Equal(t, "/webhooks/resend/tx-9", path)

	body := server.lastBody()
	assert.Equal(t, true, body["resendCreated"])
	assert.Equal(t, true, body["resendStatusUpdated"])

	require.NotNil(t, result.Success)
	assert.True(t, *result.Success)
}

func TestResendWebhook_ExplicitFlagsForwarded(t *testing.T) {
	success := true
	server := &captureServer{t: t, response: resendWebhooksResponse{Success: &success}}
	service := newTestService(t, server)

	resendCreated := false
	_, err := service.ResendWebhook(context.Background(), &models.ResendWebhookRequest{
		TxId:          "tx-9",
		ResendCreated: &resendCreated,
	})
	require.NoError(t, err)

	body := server.lastBody()
	assert.Equal(t, false, body["resendCreated"])
	assert.Equal(t, true, body["resendStatusUpdated"])
}
