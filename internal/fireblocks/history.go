package fireblocks

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"waas-gateway-go/internal/models"
	"waas-gateway-go/internal/provider"

	"go.uber.org/zap"
)

// buildHistoryQuery maps the canonical filter onto provider query
// parameters. Unset fields are omitted entirely; no parameter is ever sent
// with an empty value. The page token is opaque and passed through undecoded.
func buildHistoryQuery(filter models.TransactionHistoryFilter) url.Values {
	query := url.Values{}

	if millis, ok := epochMillis(filter.Before, filter.BeforeMillis); ok {
		query.Set("before", strconv.FormatInt(millis, 10))
	}
	if millis, ok := epochMillis(filter.After, filter.AfterMillis); ok {
		query.Set("after", strconv.FormatInt(millis, 10))
	}

	setNonEmpty(query, "status", filter.Status)
	setNonEmpty(query, "assets", filter.Assets)
	setNonEmpty(query, "sourceType", filter.SourceType)
	setNonEmpty(query, "sourceId", filter.SourceId)
	setNonEmpty(query, "destType", filter.DestType)
	setNonEmpty(query, "destId", filter.DestId)
	setNonEmpty(query, "txHash", filter.TxHash)
	setNonEmpty(query, "orderBy", filter.OrderBy)
	setNonEmpty(query, "sort", filter.Sort)
	setNonEmpty(query, "pageCursor", filter.NextPageToken)

	if filter.Limit > 0 {
		query.Set("limit", strconv.Itoa(filter.Limit))
	}

	return query
}

// epochMillis normalizes an instant or a pre-resolved epoch-millisecond
// value; the instant wins when both are set.
func epochMillis(instant *time.Time, millis int64) (int64, bool) {
	if instant != nil {
		return instant.UnixMilli(), true
	}
	if millis > 0 {
		return millis, true
	}
	return 0, false
}

func setNonEmpty(query url.Values, key, value string) {
	if value != "" {
		query.Set(key, value)
	}
}

func (s *Service) GetTransactionHistory(ctx context.Context, filter models.TransactionHistoryFilter) (*models.TransactionPage, error) {
	var resp transactionsPageResponse
	if err := s.client.get(ctx, "/transactions", buildHistoryQuery(filter), &resp); err != nil {
		return nil, err
	}

	records := make([]models.TransactionRecord, len(resp.Transactions))
	for i, tx := range resp.Transactions {
		records[i] = mapTransactionRecord(tx)
	}

	zap.L().Debug("Fetched transaction history",
		zap.Int("count", len(records)),
		zap.Bool("has_next_page", resp.NextPageCursor != ""))

	return &models.TransactionPage{
		Transactions:  records,
		NextPageToken: resp.NextPageCursor,
	}, nil
}

// GetTransaction looks up one transaction by internal or external id. With
// neither id it fails before any provider call; with both, the internal id
// takes precedence by provider convention.
func (s *Service) GetTransaction(ctx context.Context, q models.TransactionQuery) (*models.TransactionRecord, error) {
	var path string
	switch {
	case q.TxId != "":
		path = "/transactions/" + q.TxId
	case q.ExternalTxId != "":
		path = "/transactions/external_tx_id/" + q.ExternalTxId
	default:
		return nil, fmt.Errorf("one of txId or externalTxId is required: %w", provider.ErrInvalidArgument)
	}

	var resp wireTransaction
	if err := s.client.get(ctx, path, nil, &resp); err != nil {
		return nil, err
	}

	record := mapTransactionRecord(resp)
	return &record, nil
}

// mapTransactionRecord is shared by list and single-item lookup. The flat
// provider address/tag fields collapse into the canonical endpoint shape,
// and epoch-millisecond timestamps become instants.
func mapTransactionRecord(tx wireTransaction) models.TransactionRecord {
	record := models.TransactionRecord{
		Id:           tx.Id,
		ExternalTxId: tx.ExternalTxId,
		Status:       tx.Status,
		SubStatus:    tx.SubStatus,
		Operation:    tx.Operation,
		AssetId:      tx.AssetId,
		Source:       mapEndpoint(tx.Source, tx.SourceAddress, ""),
		Amount:       tx.AmountInfo.Amount,
		TxHash:       tx.TxHash,
		CreatedAt:    time.UnixMilli(tx.CreatedAt).UTC(),
		LastUpdated:  time.UnixMilli(tx.LastUpdated).UTC(),
	}

	if tx.Destination != nil {
		destination := mapEndpoint(*tx.Destination, tx.DestinationAddress, tx.DestinationTag)
		record.Destination = &destination
	}

	if tx.FeeInfo != nil {
		record.Fee = tx.FeeInfo.NetworkFee
	}

	return record
}

func mapEndpoint(peer wirePeer, address, tag string) models.TransactionEndpoint {
	endpoint := models.TransactionEndpoint{
		Type: models.EndpointType(peer.Type),
		Id:   peer.Id,
	}
	if endpoint.Type == models.EndpointOneTimeAddress {
		endpoint.Address = address
		endpoint.Tag = tag
	}
	return endpoint
}
