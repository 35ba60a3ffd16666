package writer

import (
	"context"
	"sync"
	"time"
	"web3-copytrade/internal/worker/monitor"

	"go.uber.org/zap"
)

const defaultQueueSize = 10000

type AsyncBatchWriter[T any] struct {
	id            string
	workers       int
	tl            *zap.Logger
	writer        BatchWriter[T]
	inputChan     chan T
	wg            sync.WaitGroup
	batchSize     int
	flushInterval time.Duration
	closeOnce     sync.Once
}

func NewAsyncBatchWriter[T any](tl *zap.Logger, writer BatchWriter[T], batchSize int, flushInterval time.Duration, id string, workers int) *AsyncBatchWriter[T] {
	if batchSize <= 0 {
		batchSize = 1
	}
	if workers <= 0 {
		workers = 1
	}
	if flushInterval <= 0 {
		flushInterval = time.Second
	}
	return &AsyncBatchWriter[T]{
		id:            id,
		workers:       workers,
		tl:            tl,
		writer:        writer,
		inputChan:     make(chan T, defaultQueueSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
	}
}

func (b *AsyncBatchWriter[T]) ID() string {
	return b.id
}

func (b *AsyncBatchWriter[T]) Start(ctx context.Context) {
	for i := 0; i < b.workers; i++ {
		b.wg.Add(1)
		go b.processItems(ctx)
	}
}

func (b *AsyncBatchWriter[T]) processItems(ctx context.Context) {
	defer b.wg.Done()
	ticker := time.NewTicker(b.flushInterval)
	defer ticker.Stop()

	var batch = make([]T, 0, b.batchSize)
	for {
		select {
		case <-ctx.Done():
			b.drain(batch)
			return
		case item, ok := <-b.inputChan:
			if !ok {
				// Close 后剩余数据用独立上下文写完
				if len(batch) > 0 {
					b.writeAndRecord(context.Background(), batch)
				}
				return
			}
			batch = append(batch, item)
			if len(batch) >= b.batchSize {
				b.writeAndRecord(ctx, batch)
				batch = make([]T, 0, b.batchSize)
			}
		case <-ticker.C:
			if len(batch) > 0 {
				b.writeAndRecord(ctx, batch)
				batch = make([]T, 0, b.batchSize)
			}
		}
	}
}

// drain 上下文取消后把队列中已有数据一并写出
func (b *AsyncBatchWriter[T]) drain(batch []T) {
	for {
		select {
		case item, ok := <-b.inputChan:
			if !ok {
				if len(batch) > 0 {
					b.writeAndRecord(context.Background(), batch)
				}
				return
			}
			batch = append(batch, item)
		default:
			if len(batch) > 0 {
				b.writeAndRecord(context.Background(), batch)
			}
			return
		}
	}
}

// 封装写入操作并记录指标
func (b *AsyncBatchWriter[T]) writeAndRecord(ctx context.Context, batch []T) {
	startTime := time.Now()
	size := len(batch)

	monitor.AsyncWriterBatchSize.WithLabelValues(b.id).Observe(float64(size))

	if err := b.writer.BWrite(ctx, batch); err != nil {
		monitor.TradeSinkErrors.WithLabelValues(b.id).Inc()
		b.tl.Warn("Batch write failed", zap.String("id", b.id), zap.Int("size", size), zap.Error(err))
	} else {
		monitor.AsyncWriterItemsWritten.WithLabelValues(b.id).Add(float64(size))
	}

	monitor.AsyncWriterFlushDuration.WithLabelValues(b.id).Observe(time.Since(startTime).Seconds())
}

// Submit 非阻塞提交，队列满时丢弃并返回 false
func (b *AsyncBatchWriter[T]) Submit(item T) (submitted bool) {
	defer func() {
		// Close 之后提交
		if recover() != nil {
			submitted = false
		}
	}()
	select {
	case b.inputChan <- item:
		monitor.AsyncWriterMessagesQueued.WithLabelValues(b.id).Inc()
		return true
	default:
		monitor.AsyncWriterMessagesDropped.WithLabelValues(b.id).Inc()
		b.tl.Warn("Batch input channel full, dropping item", zap.String("id", b.id))
		return false
	}
}

// Close 关闭输入并等待剩余数据写完
func (b *AsyncBatchWriter[T]) Close() {
	b.closeOnce.Do(func() {
		close(b.inputChan)
		b.wg.Wait()
		if err := b.writer.Close(); err != nil {
			b.tl.Warn("Batch writer close failed", zap.String("id", b.id), zap.Error(err))
		}
	})
}
