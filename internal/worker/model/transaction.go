package model

import (
	"encoding/json"
	"strconv"
	"time"
	"web3-copytrade/pkg/utils"
)

// RawTransaction 数据源返回的原始交易文档，不做结构约束
// 数字字段以 json.Number 保存，避免大额 lamports 精度丢失
type RawTransaction map[string]any

// Signature 交易唯一标识，用于去重
func (tx RawTransaction) Signature() string {
	for _, key := range []string{"signature", "id", "txId"} {
		if s, ok := tx[key].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Timestamp 交易区块时间（秒级），缺失时返回 false
func (tx RawTransaction) Timestamp() (time.Time, bool) {
	var sec int64
	switch v := tx["timestamp"].(type) {
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return time.Time{}, false
		}
		sec = n
	case float64:
		sec = int64(v)
	case int64:
		sec = v
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return time.Time{}, false
		}
		sec = n
	default:
		return time.Time{}, false
	}
	// 毫秒级时间戳换算为秒
	if !utils.IsUnixSeconds(sec) && utils.IsUnixSeconds(sec/1000) {
		sec /= 1000
	}
	if sec <= 0 || !utils.IsUnixSeconds(sec) {
		return time.Time{}, false
	}
	return time.Unix(sec, 0), true
}

// String 取字符串字段
func (tx RawTransaction) String(key string) (string, bool) {
	s, ok := tx[key].(string)
	return s, ok && s != ""
}
