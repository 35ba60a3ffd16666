package tradelog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"
	"web3-copytrade/internal/worker/model"
	"web3-copytrade/internal/worker/writer/trade"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingJournal struct{ calls int }

func (j *failingJournal) BWrite(ctx context.Context, batch []model.TradeRecord) error {
	j.calls++
	return errors.New("disk full")
}

func (j *failingJournal) Close() error { return nil }

type memMirror struct {
	mu      sync.Mutex
	records []model.TradeRecord
	full    bool
	closed  bool
}

func (m *memMirror) ID() string { return "mem" }

func (m *memMirror) Submit(rec model.TradeRecord) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.full {
		return false
	}
	m.records = append(m.records, rec)
	return true
}

func (m *memMirror) Close() { m.closed = true }

func rec(src string, status model.TradeStatus) model.TradeRecord {
	return model.TradeRecord{
		SourceWallet: "W1",
		SourceTxID:   src,
		InputMint:    "So11111111111111111111111111111111111111112",
		OutputMint:   "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
		Amount:       decimal.NewFromInt(1),
		SlippageBps:  50,
		Status:       status,
	}
}

func TestRecordAssignsIDAndOrder(t *testing.T) {
	l := New(nil, 0, zap.NewNop())
	assert.Nil(t, l.Last())

	a := l.Record(rec("a", model.TradeSuccess))
	b := l.Record(rec("b", model.TradeRejected))

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.Timestamp.IsZero())

	h := l.History(0)
	require.Len(t, h, 2)
	assert.Equal(t, "a", h[0].SourceTxID)
	assert.Equal(t, "b", l.Last().SourceTxID)
	assert.Equal(t, []model.TradeRecord{b}, l.History(1))
}

func TestRecordBoundedHistory(t *testing.T) {
	l := New(nil, 3, zap.NewNop())
	for i := 0; i < 10; i++ {
		l.Record(rec(fmt.Sprintf("tx-%d", i), model.TradeFailed))
	}
	h := l.History(0)
	require.Len(t, h, 3)
	assert.Equal(t, "tx-7", h[0].SourceTxID)
	assert.Equal(t, 3, l.Len())
}

func TestRecordSinkFailuresDoNotPropagate(t *testing.T) {
	j := &failingJournal{}
	m := &memMirror{full: true}
	l := New(j, 10, zap.NewNop(), m)

	assert.NotPanics(t, func() { l.Record(rec("a", model.TradeSuccess)) })
	assert.Equal(t, 1, j.calls)
	assert.Equal(t, 1, l.Len())
}

func TestRecordMirrors(t *testing.T) {
	m := &memMirror{}
	l := New(nil, 10, zap.NewNop(), m)
	l.Record(rec("a", model.TradeSuccess))
	l.Close()

	require.Len(t, m.records, 1)
	assert.Equal(t, "a", m.records[0].SourceTxID)
	assert.True(t, m.closed)
}

func TestRestoreFromJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trade_history.jsonl")
	journal, err := trade.NewFileTradeWriter(path, 10, 0, zap.NewNop())
	require.NoError(t, err)

	first := New(journal, 100, zap.NewNop())
	for i := 0; i < 5; i++ {
		first.Record(rec(fmt.Sprintf("tx-%d", i), model.TradeSuccess))
	}
	first.Close()

	records, err := trade.ReadJournal(path, 3, zap.NewNop())
	require.NoError(t, err)

	second := New(nil, 4, zap.NewNop())
	second.Record(rec("new", model.TradeRejected))
	second.Restore(records)

	h := second.History(0)
	require.Len(t, h, 4)
	assert.Equal(t, "tx-2", h[0].SourceTxID)
	assert.Equal(t, "tx-4", h[2].SourceTxID)
	assert.Equal(t, "new", h[3].SourceTxID)
}

func TestRestoreSkipsKnownRecords(t *testing.T) {
	l := New(nil, 0, zap.NewNop())
	kept := l.Record(rec("live", model.TradeSuccess))

	l.Restore([]model.TradeRecord{rec("old", model.TradeFailed), kept})

	h := l.History(0)
	require.Len(t, h, 2)
	assert.Equal(t, "old", h[0].SourceTxID)
	assert.Equal(t, "live", h[1].SourceTxID)
}

func TestRecordConcurrent(t *testing.T) {
	l := New(nil, 0, zap.NewNop())
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			l.Record(rec(fmt.Sprintf("tx-%d", i), model.TradeSuccess))
		}(i)
	}
	wg.Wait()
	assert.Equal(t, 50, l.Len())
}

type blockingJournal struct {
	entered chan struct{}
	release chan struct{}

	mu  sync.Mutex
	ids []string
}

func (j *blockingJournal) BWrite(ctx context.Context, batch []model.TradeRecord) error {
	j.entered <- struct{}{}
	<-j.release
	j.mu.Lock()
	defer j.mu.Unlock()
	for _, r := range batch {
		j.ids = append(j.ids, r.ID)
	}
	return nil
}

func (j *blockingJournal) Close() error { return nil }

func TestSlowJournalDoesNotBlockReaders(t *testing.T) {
	j := &blockingJournal{entered: make(chan struct{}, 2), release: make(chan struct{})}
	l := New(j, 0, zap.NewNop())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		l.Record(rec("tx-1", model.TradeSuccess))
	}()
	<-j.entered

	read := make(chan *model.TradeRecord, 1)
	go func() {
		_ = l.History(10)
		_ = l.Len()
		read <- l.Last()
	}()
	select {
	case last := <-read:
		require.NotNil(t, last)
		assert.Equal(t, "tx-1", last.SourceTxID)
	case <-time.After(time.Second):
		t.Fatal("readers blocked by journal write")
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		l.Record(rec("tx-2", model.TradeFailed))
	}()
	close(j.release)
	wg.Wait()

	history := l.History(0)
	require.Len(t, history, 2)
	assert.Equal(t, []string{history[0].ID, history[1].ID}, j.ids)
}
