package main

import (
	"context"
	"flag"
	"fmt"

	"waas-gateway-go/internal/common"
	"waas-gateway-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type transferRequest struct {
	asset          string
	amount         string
	source         string
	destVault      string
	destAddress    string
	destTag        string
	note           string
	externalTxId   string
	feeLevel       string
	idempotencyKey string
	estimateOnly   bool
}

func parseAndValidateFlags() (*transferRequest, error) {
	assetFlag := flag.String("asset", "", "Asset id (required)")
	amountFlag := flag.String("amount", "", "Amount to transfer (required)")
	sourceFlag := flag.String("source", "", "Source vault account id (required)")
	destVaultFlag := flag.String("dest-vault", "", "Destination vault account id (internal transfer)")
	destAddressFlag := flag.String("dest-address", "", "Destination address (external transfer)")
	destTagFlag := flag.String("dest-tag", "", "Destination tag or memo")
	noteFlag := flag.String("note", "", "Transaction note")
	externalTxIdFlag := flag.String("external-tx-id", "", "Caller-assigned transaction id")
	feeLevelFlag := flag.String("fee-level", "", "Fee level: LOW, MEDIUM or HIGH")
	keyFlag := flag.String("idempotency-key", "", "Idempotency key (optional)")
	estimateFlag := flag.Bool("estimate-only", false, "Estimate the fee without transferring")
	flag.Parse()

	if *assetFlag == "" || *amountFlag == "" || *sourceFlag == "" {
		return nil, fmt.Errorf("--asset, --amount and --source are required")
	}
	if (*destVaultFlag == "") == (*destAddressFlag == "") {
		return nil, fmt.Errorf("exactly one of --dest-vault or --dest-address is required")
	}

	amount, err := decimal.NewFromString(*amountFlag)
	if err != nil {
		return nil, fmt.Errorf("invalid amount format: %w", err)
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("amount must be greater than zero")
	}

	return &transferRequest{
		asset:          *assetFlag,
		amount:         amount.String(),
		source:         *sourceFlag,
		destVault:      *destVaultFlag,
		destAddress:    *destAddressFlag,
		destTag:        *destTagFlag,
		note:           *noteFlag,
		externalTxId:   *externalTxIdFlag,
		feeLevel:       *feeLevelFlag,
		idempotencyKey: *keyFlag,
		estimateOnly:   *estimateFlag,
	}, nil
}

func printEstimates(estimates *models.FeeEstimates) {
	common.PrintHeader("FEE ESTIMATE", common.DefaultWidth)
	for _, tier := range []struct {
		label    string
		estimate models.FeeEstimate
	}{
		{"Low", estimates.Low},
		{"Medium", estimates.Medium},
		{"High", estimates.High},
	} {
		fmt.Printf("%-8s networkFee=%s", tier.label, tier.estimate.NetworkFee)
		if tier.estimate.GasPrice != "" {
			fmt.Printf("  gasPrice=%s", tier.estimate.GasPrice)
		}
		if tier.estimate.MaxFeePerGas != "" {
			fmt.Printf("  maxFeePerGas=%s  maxPriorityFeePerGas=%s",
				tier.estimate.MaxFeePerGas, tier.estimate.MaxPriorityFeePerGas)
		}
		fmt.Println()
	}
	common.PrintSeparator("=", common.DefaultWidth)
}

func estimateFee(ctx context.Context, services *common.Services, req *transferRequest) (*models.FeeEstimates, error) {
	if req.destVault != "" {
		return services.Provider.EstimateInternalTransferFee(ctx, models.InternalFeeRequest{
			AssetId:            req.asset,
			Amount:             req.amount,
			SourceVaultId:      req.source,
			DestinationVaultId: req.destVault,
		})
	}
	return services.Provider.EstimateExternalTransactionFee(ctx, models.ExternalFeeRequest{
		AssetId:            req.asset,
		Amount:             req.amount,
		SourceVaultId:      req.source,
		DestinationAddress: req.destAddress,
		DestinationTag:     req.destTag,
	})
}

func executeTransfer(ctx context.Context, services *common.Services, req *transferRequest) (*models.TransferResult, error) {
	if req.destVault != "" {
		return services.Provider.InternalTransfer(ctx, models.InternalTransferRequest{
			AssetId:            req.asset,
			Amount:             req.amount,
			SourceVaultId:      req.source,
			DestinationVaultId: req.destVault,
			Note:               req.note,
			ExternalTxId:       req.externalTxId,
			FeeLevel:           models.FeeLevel(req.feeLevel),
			IdempotencyKey:     req.idempotencyKey,
		})
	}
	return services.Provider.ExternalTransfer(ctx, models.ExternalTransferRequest{
		AssetId:            req.asset,
		Amount:             req.amount,
		SourceVaultId:      req.source,
		DestinationAddress: req.destAddress,
		DestinationTag:     req.destTag,
		Note:               req.note,
		ExternalTxId:       req.externalTxId,
		FeeLevel:           models.FeeLevel(req.feeLevel),
		IdempotencyKey:     req.idempotencyKey,
	})
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

	estimates, err := estimateFee(ctx, services, req)
	if err != nil {
		zap.L().Fatal("Fee estimation failed", zap.Error(err))
	}
	printEstimates(estimates)

	if req.estimateOnly {
		return
	}

	result, err := executeTransfer(ctx, services, req)
	if err != nil {
		zap.L().Fatal("Transfer failed", zap.Error(err))
	}

	common.PrintHeader("TRANSFER SUBMITTED", common.DefaultWidth)
	fmt.Printf("Transaction Id: %s\n", result.TransactionId)
	fmt.Printf("Status:         %s\n", result.Status)
	common.PrintSeparator("=", common.DefaultWidth)

	zap.L().Info("Transfer submitted",
		zap.String("transaction_id", result.TransactionId),
		zap.String("status", result.Status),
		zap.String("asset", req.asset),
		zap.String("amount", req.amount))
}
