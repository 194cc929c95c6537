package main

import (
	"context"
	"flag"
	"fmt"

	"waas-gateway-go/internal/common"
	"waas-gateway-go/internal/models"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	txIdFlag := flag.String("tx-id", "", "Transaction to redeliver webhooks for (omit for a bulk resend)")
	createdFlag := flag.Bool("created", true, "Resend the created notification")
	statusUpdatedFlag := flag.Bool("status-updated", true, "Resend the status-updated notification")
	flag.Parse()

	services, err := common.InitializeServices()
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}

	var req *models.ResendWebhookRequest
	if *txIdFlag != "" {
		req = &models.ResendWebhookRequest{
			TxId:                *txIdFlag,
			ResendCreated:       createdFlag,
			ResendStatusUpdated: statusUpdatedFlag,
		}
	}

	result, err := services.Provider.ResendWebhook(ctx, req)
	if err != nil {
		zap.L().Fatal("Webhook resend failed", zap.Error(err))
	}

	common.PrintHeader("WEBHOOK RESEND", common.DefaultWidth)
	switch {
	case result.MessagesCount != nil:
		fmt.Printf("Queued %d failed deliveries for resend\n", *result.MessagesCount)
	case result.Success != nil:
		fmt.Printf("Resend for %s succeeded: %t\n", *txIdFlag, *result.Success)
	default:
		fmt.Println(result.Message)
	}
	common.PrintSeparator("=", common.DefaultWidth)
}
