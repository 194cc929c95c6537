package main

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"waas-gateway-go/internal/common"
	"waas-gateway-go/internal/models"
	"waas-gateway-go/internal/provider"
	"waas-gateway-go/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const maxPayloadBytes = 1 << 20

type webhookHandler struct {
	provider provider.Service
	sink     store.EventSink
}

func (h *webhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxPayloadBytes))
	if err != nil {
		http.Error(w, "unable to read payload", http.StatusBadRequest)
		return
	}

	version := r.Header.Get("X-Webhook-Version")
	if version == "" {
		version = r.URL.Query().Get("version")
	}

	delivery := models.WebhookDelivery{
		Payload:   payload,
		Signature: r.Header.Get("X-Webhook-Signature"),
		Timestamp: r.Header.Get("X-Webhook-Timestamp"),
		Version:   models.WebhookVersion(version),
	}

	event, err := h.provider.HandleWebhook(r.Context(), delivery)
	if err != nil {
		status := http.StatusBadGateway
		switch {
		case errors.Is(err, provider.ErrSignatureInvalid):
			status = http.StatusUnauthorized
		case errors.Is(err, provider.ErrPayloadStale):
			status = http.StatusUnauthorized
		case errors.Is(err, provider.ErrPayloadMalformed):
			status = http.StatusBadRequest
		}
		zap.L().Warn("Webhook rejected",
			zap.String("version", version),
			zap.Int("status", status),
			zap.Error(err))
		http.Error(w, "rejected", status)
		return
	}

	record, err := toEventRecord(event)
	if err != nil {
		zap.L().Error("Failed to encode normalized event", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	if err := h.sink.SaveEvent(r.Context(), record); err != nil {
		if errors.Is(err, store.ErrDuplicateEvent) {
			// Redelivery of an already-stored event acknowledges cleanly so
			// the provider stops retrying.
			zap.L().Info("Duplicate webhook delivery acknowledged",
				zap.String("event_id", record.EventId))
			w.WriteHeader(http.StatusOK)
			return
		}
		zap.L().Error("Failed to persist event", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	zap.L().Info("Webhook accepted",
		zap.String("event_id", record.EventId),
		zap.String("event_type", record.EventType),
		zap.String("kind", record.Kind),
		zap.String("version", record.Version))
	w.WriteHeader(http.StatusOK)
}

// toEventRecord flattens the normalized event into a sink row. V1 deliveries
// carry no event id, so one is minted; dedup then only applies to v2, which
// is the only version the provider redelivers with stable ids.
func toEventRecord(event *models.WebhookEvent) (store.EventRecord, error) {
	record := store.EventRecord{
		Version:    string(event.Version),
		EventType:  event.EventType,
		ReceivedAt: time.Now().UTC(),
	}

	switch {
	case event.Transaction != nil:
		record.Kind = "TRANSACTION"
		record.TxId = event.Transaction.Id
		record.TxStatus = event.Transaction.Status
	case event.VaultAccount != nil:
		record.Kind = "VAULT_ACCOUNT"
	case event.VaultAccountAsset != nil:
		record.Kind = "VAULT_ACCOUNT_ASSET"
	}

	if event.V2Envelope != nil && event.V2Envelope.Id != "" {
		record.EventId = event.V2Envelope.Id
	} else {
		record.EventId = uuid.New().String()
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return store.EventRecord{}, err
	}
	record.Payload = payload

	return record, nil
}

func main() {
	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	services, err := common.InitializeServices()
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}

	sink, err := store.NewSqliteSink(ctx, services.Config.Sink)
	if err != nil {
		zap.L().Fatal("Failed to open event sink", zap.Error(err))
	}
	defer sink.Close()

	mux := http.NewServeMux()
	mux.Handle("/webhook", &webhookHandler{provider: services.Provider, sink: sink})

	server := &http.Server{
		Addr:         services.Config.Listen.Addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		zap.L().Info("Webhook daemon listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zap.L().Info("Shutdown signal received, draining connections...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(),
		services.Config.Listen.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zap.L().Warn("Forced shutdown after timeout", zap.Error(err))
	} else {
		zap.L().Info("Webhook daemon stopped gracefully")
	}
}
