package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TradeStatus string

const (
	TradeSuccess  TradeStatus = "success"
	TradeFailed   TradeStatus = "failed"
	TradeRejected TradeStatus = "rejected"
)

// TradeRecord 跟单结果审计记录，写入后不再修改
// JSON 形式即 trade_history.jsonl 的一行
type TradeRecord struct {
	ID           string          `gorm:"primaryKey;column:id;type:varchar(36)" json:"id"`
	Timestamp    time.Time       `gorm:"column:timestamp;not null;index" json:"timestamp"`
	SourceWallet string          `gorm:"column:source_wallet;type:varchar(64);not null;index" json:"sourceWallet"`
	SourceTxID   string          `gorm:"column:source_tx_id;type:varchar(100);not null" json:"sourceTxId"`
	InputMint    string          `gorm:"column:input_mint;type:varchar(64);not null" json:"inputMint"`
	OutputMint   string          `gorm:"column:output_mint;type:varchar(64);not null" json:"outputMint"`
	Amount       decimal.Decimal `gorm:"column:amount;type:decimal(50,20);not null;default:0" json:"amount"`
	SlippageBps  int             `gorm:"column:slippage_bps;not null" json:"slippageBps"`
	Status       TradeStatus     `gorm:"column:status;type:varchar(10);not null" json:"status"`
	RejectReason RejectReason    `gorm:"column:reject_reason;type:varchar(32)" json:"rejectReason,omitempty"`
	ResultTxID   string          `gorm:"column:result_tx_id;type:varchar(100)" json:"resultTxId,omitempty"`
	Error        string          `gorm:"column:error;type:text" json:"error,omitempty"`
}

func (r *TradeRecord) TableName() string {
	return "copytrade.t_trade_record"
}

// NewTradeRecord 以候选交易和当时的设置快照生成记录骨架
func NewTradeRecord(c SwapCandidate, settings BotSettings, status TradeStatus) TradeRecord {
	return TradeRecord{
		Timestamp:    time.Now(),
		SourceWallet: c.SourceWallet,
		SourceTxID:   c.SourceTxID,
		InputMint:    c.InputMint,
		OutputMint:   c.OutputMint,
		Amount:       c.Amount,
		SlippageBps:  settings.SlippageBps,
		Status:       status,
	}
}

// NewRejectedRecord 风控拒绝的审计记录
func NewRejectedRecord(d TradeDecision, settings BotSettings) TradeRecord {
	rec := NewTradeRecord(d.Candidate, settings, TradeRejected)
	rec.RejectReason = d.RejectReason
	return rec
}
