package trade

import (
	"bufio"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"web3-copytrade/internal/worker/model"
	"web3-copytrade/internal/worker/writer"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
	"gopkg.in/natefinch/lumberjack.v2"
)

// FileTradeWriter trade_history.jsonl 追加写，每条记录一行 JSON
type FileTradeWriter struct {
	mu  sync.Mutex
	out *lumberjack.Logger
	tl  *zap.Logger
}

func NewFileTradeWriter(path string, maxSizeMB, retentionDays int, tl *zap.Logger) (writer.BatchWriter[model.TradeRecord], error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	return &FileTradeWriter{
		out: &lumberjack.Logger{
			Filename: path,
			MaxSize:  maxSizeMB,
			MaxAge:   retentionDays,
		},
		tl: tl,
	}, nil
}

func (w *FileTradeWriter) BWrite(_ context.Context, records []model.TradeRecord) error {
	if len(records) == 0 {
		return nil
	}

	buf := make([]byte, 0, 256*len(records))
	for _, rec := range records {
		line, err := sonic.Marshal(rec)
		if err != nil {
			return err
		}
		buf = append(buf, line...)
		buf = append(buf, '\n')
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := w.out.Write(buf)
	return err
}

func (w *FileTradeWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.out.Close()
}

// ReadJournal 读取日志中最近 limit 条记录，limit<=0 读全部；无法解析的行跳过
func ReadJournal(path string, limit int, tl *zap.Logger) ([]model.TradeRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var records []model.TradeRecord
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec model.TradeRecord
		if err := sonic.Unmarshal(line, &rec); err != nil {
			tl.Warn("Skip malformed trade journal line", zap.String("path", path), zap.Int("line", lineNo), zap.Error(err))
			continue
		}
		records = append(records, rec)
		if limit > 0 && len(records) > 2*limit {
			records = append(records[:0:0], records[len(records)-limit:]...)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if limit > 0 && len(records) > limit {
		records = records[len(records)-limit:]
	}
	return records, nil
}
