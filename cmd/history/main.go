package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"waas-gateway-go/internal/common"
	"waas-gateway-go/internal/models"

	"go.uber.org/zap"
)

type historyRequest struct {
	txId         string
	externalTxId string
	filter       models.TransactionHistoryFilter
}

func parseAndValidateFlags() (*historyRequest, error) {
	txIdFlag := flag.String("tx-id", "", "Look up a single transaction by provider id")
	externalTxIdFlag := flag.String("external-tx-id", "", "Look up a single transaction by caller-assigned id")
	statusFlag := flag.String("status", "", "Filter by status")
	assetsFlag := flag.String("assets", "", "Filter by asset ids (comma-separated)")
	sourceIdFlag := flag.String("source-id", "", "Filter by source id")
	destIdFlag := flag.String("dest-id", "", "Filter by destination id")
	txHashFlag := flag.String("tx-hash", "", "Filter by on-chain transaction hash")
	afterFlag := flag.String("after", "", "Only transactions after this RFC3339 instant")
	beforeFlag := flag.String("before", "", "Only transactions before this RFC3339 instant")
	limitFlag := flag.Int("limit", 50, "Page size")
	pageTokenFlag := flag.String("page-token", "", "Continue from an earlier page")
	flag.Parse()

	req := &historyRequest{
		txId:         *txIdFlag,
		externalTxId: *externalTxIdFlag,
		filter: models.TransactionHistoryFilter{
			Status:        *statusFlag,
			Assets:        *assetsFlag,
			SourceId:      *sourceIdFlag,
			DestId:        *destIdFlag,
			TxHash:        *txHashFlag,
			Limit:         *limitFlag,
			NextPageToken: *pageTokenFlag,
		},
	}

	if *afterFlag != "" {
		after, err := time.Parse(time.RFC3339, *afterFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid --after instant: %w", err)
		}
		req.filter.After = &after
	}
	if *beforeFlag != "" {
		before, err := time.Parse(time.RFC3339, *beforeFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid --before instant: %w", err)
		}
		req.filter.Before = &before
	}

	return req, nil
}

func printRecord(record models.TransactionRecord) {
	fmt.Printf("%-28s %-14s %-10s %s %s\n",
		record.Id, record.Status, record.AssetId, record.Amount,
		record.CreatedAt.Format("2006-01-02 15:04:05"))
	if record.TxHash != "" {
		fmt.Printf("   hash: %s\n", record.TxHash)
	}
	if record.Destination != nil && record.Destination.Address != "" {
		fmt.Printf("   to:   %s\n", record.Destination.Address)
	}
}

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	req, err := parseAndValidateFlags()
	if err != nil {
		zap.L().Fatal("Invalid flags", zap.Error(err))
	}

	services, err := common.InitializeServices()
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}

	if req.txId != "" || req.externalTxId != "" {
		record, err := services.Provider.GetTransaction(ctx, models.TransactionQuery{
			TxId:         req.txId,
			ExternalTxId: req.externalTxId,
		})
		if err != nil {
			zap.L().Fatal("Transaction lookup failed", zap.Error(err))
		}

		common.PrintHeader("TRANSACTION", common.DefaultWidth)
		printRecord(*record)
		fmt.Printf("   operation: %s  fee: %s  sub-status: %s\n",
			record.Operation, record.Fee, record.SubStatus)
		common.PrintSeparator("=", common.DefaultWidth)
		return
	}

	page, err := services.Provider.GetTransactionHistory(ctx, req.filter)
	if err != nil {
		zap.L().Fatal("History query failed", zap.Error(err))
	}

	common.PrintHeader("TRANSACTION HISTORY", common.DefaultWidth)
	for _, record := range page.Transactions {
		printRecord(record)
	}
	if len(page.Transactions) == 0 {
		fmt.Println("No transactions matched the filter")
	}
	if page.NextPageToken != "" {
		fmt.Printf("\nNext page: --page-token %s\n", page.NextPageToken)
	}
	common.PrintSeparator("=", common.DefaultWidth)

	zap.L().Info("History query finished",
		zap.Int("count", len(page.Transactions)),
		zap.Bool("has_next_page", page.NextPageToken != ""))
}
