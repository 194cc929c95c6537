package fireblocks

import (
	"context"

	"waas-gateway-go/internal/models"

	"go.uber.org/zap"
)

const defaultOperation = "TRANSFER"

// EstimateTransactionFee estimates fees for a generic transfer shape.
func (s *Service) EstimateTransactionFee(ctx context.Context, req models.FeeRequest) (*models.FeeEstimates, error) {
	return s.estimateFee(ctx, req)
}

// EstimateInternalTransferFee pins both endpoints to vault accounts.
func (s *Service) EstimateInternalTransferFee(ctx context.Context, req models.InternalFeeRequest) (*models.FeeEstimates, error) {
	return s.estimateFee(ctx, models.FeeRequest{
		AssetId: req.AssetId,
		Amount:  req.Amount,
		Source:  models.TransactionEndpoint{Type: models.EndpointVaultAccount, Id: req.SourceVaultId},
		Destination: models.TransactionEndpoint{
			Type: models.EndpointVaultAccount,
			Id:   req.DestinationVaultId,
		},
	})
}

// EstimateExternalTransactionFee pins the destination to a one-time address.
func (s *Service) EstimateExternalTransactionFee(ctx context.Context, req models.ExternalFeeRequest) (*models.FeeEstimates, error) {
	return s.estimateFee(ctx, models.FeeRequest{
		AssetId: req.AssetId,
		Amount:  req.Amount,
		Source:  models.TransactionEndpoint{Type: models.EndpointVaultAccount, Id: req.SourceVaultId},
		Destination: models.TransactionEndpoint{
			Type:    models.EndpointOneTimeAddress,
			Id:      req.DestinationAddress,
			Tag:     req.DestinationTag,
			Address: req.DestinationAddress,
		},
	})
}

func (s *Service) estimateFee(ctx context.Context, req models.FeeRequest) (*models.FeeEstimates, error) {
	if req.Operation == "" {
		req.Operation = defaultOperation
	}

	wire := estimateFeeRequest{
		AssetId:     req.AssetId,
		Amount:      req.Amount,
		Source:      buildEstimatePeer(req.Source),
		Destination: buildEstimatePeer(req.Destination),
		Operation:   req.Operation,
	}

	var resp feeEstimateResponse
	if err := s.client.post(ctx, "/transactions/estimate_fee", nil, wire, &resp); err != nil {
		return nil, err
	}

	return &models.FeeEstimates{
		Low:    mapFeeEstimate(resp.Low),
		Medium: mapFeeEstimate(resp.Medium),
		High:   mapFeeEstimate(resp.High),
	}, nil
}

func buildEstimatePeer(e models.TransactionEndpoint) estimateFeePeer {
	id := e.Id
	if id == "" {
		id = e.Address
	}
	return estimateFeePeer{Type: string(e.Type), Id: id}
}

func mapFeeEstimate(wire wireFeeEstimate) models.FeeEstimate {
	return models.FeeEstimate{
		GasPrice:             wire.GasPrice,
		MaxFeePerGas:         wire.MaxFeePerGas,
		MaxPriorityFeePerGas: wire.MaxPriorityFeePerGas,
		NetworkFee:           wire.NetworkFee,
	}
}

// buildWireEndpoint folds a one-time destination's address and tag into the
// nested oneTimeAddress object; every other endpoint type carries its id.
func buildWireEndpoint(e models.TransactionEndpoint) txEndpoint {
	wire := txEndpoint{Type: string(e.Type)}
	if e.Type == models.EndpointOneTimeAddress {
		address := e.Address
		if address == "" {
			address = e.Id
		}
		wire.OneTimeAddress = &oneTimeAddress{Address: address, Tag: e.Tag}
		return wire
	}
	wire.Id = e.Id
	return wire
}

// buildTravelRule copies the defined compliance fields and nothing else, so
// no unexpected fields leak to the provider.
func buildTravelRule(m *models.TravelRuleMessage) *travelRuleMessage {
	if m == nil {
		return nil
	}
	wire := &travelRuleMessage{
		OriginatorVASPDid:   m.OriginatorVASPDid,
		BeneficiaryVASPDid:  m.BeneficiaryVASPDid,
		OriginatorVASPName:  m.OriginatorVASPName,
		BeneficiaryVASPName: m.BeneficiaryVASPName,
		OriginatorRef:       m.OriginatorRef,
		BeneficiaryRef:      m.BeneficiaryRef,
		TravelRuleBehavior:  m.TravelRuleBehavior,
	}
	if m.OriginatorProof != nil {
		wire.OriginatorProof = &ownershipProof{Type: m.OriginatorProof.Type, Proof: m.OriginatorProof.Proof}
	}
	if m.BeneficiaryProof != nil {
		wire.BeneficiaryProof = &ownershipProof{Type: m.BeneficiaryProof.Type, Proof: m.BeneficiaryProof.Proof}
	}
	return wire
}

func (s *Service) CreateTransaction(ctx context.Context, req models.TransactionRequest) (*models.TransactionResult, error) {
	if req.Operation == "" {
		req.Operation = defaultOperation
	}

	wire := createTransactionRequest{
		AssetId:            req.AssetId,
		Amount:             req.Amount,
		Source:             buildWireEndpoint(req.Source),
		Destination:        buildWireEndpoint(req.Destination),
		Operation:          req.Operation,
		Note:               req.Note,
		ExternalTxId:       req.ExternalTxId,
		FeeLevel:           string(req.FeeLevel),
		TreatAsGrossAmount: req.TreatAsGrossAmount,
		ForceSweep:         req.ForceSweep,
		UseGasless:         req.UseGasless,
		FailOnLowFee:       req.FailOnLowFee,
		TravelRuleMessage:  buildTravelRule(req.TravelRule),
	}

	var headers map[string]string
	if req.IdempotencyKey != "" {
		headers = map[string]string{"Idempotency-Key": req.IdempotencyKey}
	}

	var resp createTransactionResponse
	if err := s.client.post(ctx, "/transactions", headers, wire, &resp); err != nil {
		zap.L().Error("Failed to create transaction",
			zap.String("asset", req.AssetId),
			zap.String("amount", req.Amount),
			zap.String("operation", req.Operation),
			zap.Error(err))
		return nil, err
	}

	messages := make([]string, 0, len(resp.SystemMessages))
	for _, m := range resp.SystemMessages {
		messages = append(messages, m.Message)
	}

	zap.L().Info("Transaction created",
		zap.String("tx_id", resp.Id),
		zap.String("status", resp.Status),
		zap.String("asset", req.AssetId))

	return &models.TransactionResult{
		Id:             resp.Id,
		Status:         resp.Status,
		ExternalTxId:   req.ExternalTxId,
		SystemMessages: messages,
	}, nil
}

// InternalTransfer is a vault-to-vault composition of CreateTransaction with
// gross-amount treatment, forced sweep, gasless mode and low-fee hard failure
// all disabled. The result is keyed by TransactionId, the caller-facing name
// for the provider's Id.
func (s *Service) InternalTransfer(ctx context.Context, req models.InternalTransferRequest) (*models.TransferResult, error) {
	disabled := false
	result, err := s.CreateTransaction(ctx, models.TransactionRequest{
		AssetId: req.AssetId,
		Amount:  req.Amount,
		Source:  models.TransactionEndpoint{Type: models.EndpointVaultAccount, Id: req.SourceVaultId},
		Destination: models.TransactionEndpoint{
			Type: models.EndpointVaultAccount,
			Id:   req.DestinationVaultId,
		},
		Operation:          defaultOperation,
		Note:               req.Note,
		ExternalTxId:       req.ExternalTxId,
		FeeLevel:           req.FeeLevel,
		TreatAsGrossAmount: &disabled,
		ForceSweep:         &disabled,
		UseGasless:         &disabled,
		FailOnLowFee:       &disabled,
		IdempotencyKey:     req.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}
	return &models.TransferResult{TransactionId: result.Id, Status: result.Status}, nil
}

// ExternalTransfer is a vault-to-one-time-address composition of
// CreateTransaction with the same defaults as InternalTransfer, plus an
// optional travel-rule message.
func (s *Service) ExternalTransfer(ctx context.Context, req models.ExternalTransferRequest) (*models.TransferResult, error) {
	disabled := false
	result, err := s.CreateTransaction(ctx, models.TransactionRequest{
		AssetId: req.AssetId,
		Amount:  req.Amount,
		Source:  models.TransactionEndpoint{Type: models.EndpointVaultAccount, Id: req.SourceVaultId},
		Destination: models.TransactionEndpoint{
			Type:    models.EndpointOneTimeAddress,
			Address: req.DestinationAddress,
			Tag:     req.DestinationTag,
		},
		Operation:          defaultOperation,
		Note:               req.Note,
		ExternalTxId:       req.ExternalTxId,
		FeeLevel:           req.FeeLevel,
		TreatAsGrossAmount: &disabled,
		ForceSweep:         &disabled,
		UseGasless:         &disabled,
		FailOnLowFee:       &disabled,
		TravelRule:         req.TravelRule,
		IdempotencyKey:     req.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}
	return &models.TransferResult{TransactionId: result.Id, Status: result.Status}, nil
}
