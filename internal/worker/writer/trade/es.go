package trade

import (
	"context"
	"web3-copytrade/internal/worker/model"
	"web3-copytrade/internal/worker/writer"
	"web3-copytrade/pkg/elasticsearch"

	"go.uber.org/zap"
)

// TradeIndexMapping 跟单记录索引 mapping
var TradeIndexMapping = map[string]interface{}{
	"mappings": map[string]interface{}{
		"properties": map[string]interface{}{
			"id":            map[string]interface{}{"type": "keyword"},
			"timestamp":     map[string]interface{}{"type": "date"},
			"source_wallet": map[string]interface{}{"type": "keyword"},
			"source_tx_id":  map[string]interface{}{"type": "keyword"},
			"input_mint":    map[string]interface{}{"type": "keyword"},
			"output_mint":   map[string]interface{}{"type": "keyword"},
			"amount":        map[string]interface{}{"type": "double"},
			"slippage_bps":  map[string]interface{}{"type": "integer"},
			"status":        map[string]interface{}{"type": "keyword"},
			"reject_reason": map[string]interface{}{"type": "keyword"},
			"result_tx_id":  map[string]interface{}{"type": "keyword"},
			"error":         map[string]interface{}{"type": "text"},
		},
	},
}

type BulkIndexer interface {
	BulkWrite(ctx context.Context, operations []elasticsearch.BulkOperation) error
}

type ESTradeWriter struct {
	esClient BulkIndexer
	logger   *zap.Logger
	index    string
}

func NewESTradeWriter(esClient BulkIndexer, logger *zap.Logger, index string) writer.BatchWriter[model.TradeRecord] {
	return &ESTradeWriter{
		esClient: esClient,
		logger:   logger,
		index:    index,
	}
}

func (w *ESTradeWriter) BWrite(ctx context.Context, records []model.TradeRecord) error {
	if len(records) == 0 {
		return nil
	}

	operations := make([]elasticsearch.BulkOperation, 0, len(records))
	for i := range records {
		operations = append(operations, elasticsearch.BulkOperation{
			Action:   "index",
			Index:    w.index,
			ID:       records[i].ID,
			Document: convertToESDoc(&records[i]),
		})
	}
	return w.esClient.BulkWrite(ctx, operations)
}

func (w *ESTradeWriter) Close() error {
	return nil
}

// convertToESDoc 数量以浮点写入便于聚合统计
func convertToESDoc(rec *model.TradeRecord) map[string]interface{} {
	amount, _ := rec.Amount.Float64()
	doc := map[string]interface{}{
		"id":            rec.ID,
		"timestamp":     rec.Timestamp,
		"source_wallet": rec.SourceWallet,
		"source_tx_id":  rec.SourceTxID,
		"input_mint":    rec.InputMint,
		"output_mint":   rec.OutputMint,
		"amount":        amount,
		"slippage_bps":  rec.SlippageBps,
		"status":        string(rec.Status),
	}
	if rec.RejectReason != "" {
		doc["reject_reason"] = string(rec.RejectReason)
	}
	if rec.ResultTxID != "" {
		doc["result_tx_id"] = rec.ResultTxID
	}
	if rec.Error != "" {
		doc["error"] = rec.Error
	}
	return doc
}
