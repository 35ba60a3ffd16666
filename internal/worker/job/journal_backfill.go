package job

import (
	"context"
	"web3-copytrade/internal/worker/model"
	"web3-copytrade/internal/worker/writer"
	"web3-copytrade/internal/worker/writer/trade"

	"go.uber.org/zap"
)

const backfillBatchSize = 500

// JournalBackfill 把本地 trade_history.jsonl 导入数据库，重复 id 由写入端忽略
type JournalBackfill struct {
	path string
	dst  writer.BatchWriter[model.TradeRecord]
	tl   *zap.Logger
}

func NewJournalBackfill(path string, dst writer.BatchWriter[model.TradeRecord], logger *zap.Logger) *JournalBackfill {
	return &JournalBackfill{
		path: path,
		dst:  dst,
		tl:   logger,
	}
}

func (j *JournalBackfill) Run(ctx context.Context) error {
	records, err := trade.ReadJournal(j.path, 0, j.tl)
	if err != nil {
		return err
	}

	written := 0
	for start := 0; start < len(records); start += backfillBatchSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(start+backfillBatchSize, len(records))
		if err := j.dst.BWrite(ctx, records[start:end]); err != nil {
			return err
		}
		written = end
		j.tl.Info("Backfill progress", zap.Int("written", written), zap.Int("total", len(records)))
	}

	j.tl.Info("Journal backfill completed", zap.String("path", j.path), zap.Int("records", written))
	return nil
}
