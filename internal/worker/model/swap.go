package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SwapCandidate 从源钱包交易中识别出的 swap 参数，只由 detector 生成
type SwapCandidate struct {
	SourceWallet string          `json:"sourceWallet"`
	InputMint    string          `json:"inputMint"`
	OutputMint   string          `json:"outputMint"`
	Amount       decimal.Decimal `json:"amount"` // 输入代币数量（UI 单位）
	ObservedAt   time.Time       `json:"observedAt"`
	SourceTxID   string          `json:"sourceTxId"`

	// 数据源给出的输入代币精度，nil 表示未知，需要链上查询
	InputDecimals *uint8 `json:"inputDecimals,omitempty"`
}

type RejectReason string

const (
	RejectBlacklisted     RejectReason = "Blacklisted"
	RejectAmountExceeded  RejectReason = "AmountExceeded"
	RejectSlippageTooHigh RejectReason = "SlippageTooHigh"
)

// TradeDecision 风控结果
type TradeDecision struct {
	Candidate    SwapCandidate `json:"candidate"`
	Approved     bool          `json:"approved"`
	RejectReason RejectReason  `json:"rejectReason,omitempty"`
}

func Approve(c SwapCandidate) TradeDecision {
	return TradeDecision{Candidate: c, Approved: true}
}

func Reject(c SwapCandidate, reason RejectReason) TradeDecision {
	return TradeDecision{Candidate: c, RejectReason: reason}
}
