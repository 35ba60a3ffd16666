package trade

import (
	"context"
	"time"
	"web3-copytrade/internal/worker/model"
	"web3-copytrade/internal/worker/writer"

	"github.com/bytedance/sonic"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

type KafkaTradeWriter struct {
	mq *kafka.Writer
	tl *zap.Logger

	topic string
}

func NewKafkaTradeWriter(mq *kafka.Writer, tl *zap.Logger, topic string) writer.BatchWriter[model.TradeRecord] {
	return &KafkaTradeWriter{mq: mq, tl: tl, topic: topic}
}

func (w *KafkaTradeWriter) BWrite(ctx context.Context, records []model.TradeRecord) error {
	if len(records) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(records))
	for _, rec := range records {
		msg, err := w.marshalToMsg(rec)
		if err != nil {
			w.tl.Warn("Marshal trade record failed", zap.String("id", rec.ID), zap.Error(err))
			continue
		}
		msgs = append(msgs, msg)
	}

	newCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	// 重试机制
	var err error
	for attempt := 0; attempt < RETRY_COUNT; attempt++ {
		err = w.mq.WriteMessages(newCtx, msgs...)
		if err == nil {
			break
		}
	}
	if err != nil {
		w.tl.Warn("❌ MQ write failed, exceeded the maximum number of retries", zap.Error(err))
		return err
	}
	return nil
}

func (w *KafkaTradeWriter) Close() error {
	return nil
}

// marshalToMsg 以源钱包为 key，同一钱包的记录落在同一分区保持顺序
func (w *KafkaTradeWriter) marshalToMsg(rec model.TradeRecord) (kafka.Message, error) {
	jsonData, err := sonic.Marshal(rec)
	if err != nil {
		return kafka.Message{}, err
	}
	return kafka.Message{
		Topic: w.topic,
		Key:   []byte(rec.SourceWallet),
		Value: jsonData,
	}, nil
}
