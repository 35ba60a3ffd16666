package detector

import (
	"encoding/json"
	"math/big"
	"strconv"
	"strings"
	"time"
	"web3-copytrade/internal/worker/config"
	"web3-copytrade/internal/worker/model"
	"web3-copytrade/pkg/solana_client"
	"web3-copytrade/pkg/utils"

	"github.com/shopspring/decimal"
)

// Detector 根据程序白名单识别 swap 交易并提取参数
// 只读取交易文档，不做任何 IO
type Detector struct {
	programs map[string]struct{}
}

// New 程序白名单为空时使用默认 DEX 程序
func New(programIDs []string) *Detector {
	ids := utils.NormalizeAddresses(programIDs)
	if len(ids) == 0 {
		ids = config.DefaultProgramIDs
	}
	programs := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		programs[id] = struct{}{}
	}
	return &Detector{programs: programs}
}

// Detect 识别并提取，两步都通过才返回候选
func (d *Detector) Detect(tx model.RawTransaction, wallet string) (*model.SwapCandidate, bool) {
	if !d.IsSwap(tx, wallet) {
		return nil, false
	}
	return Extract(tx, wallet)
}

// IsSwap 交易涉及白名单程序、执行成功，且（若有 feePayer）由源钱包发起
func (d *Detector) IsSwap(tx model.RawTransaction, wallet string) bool {
	if tx == nil {
		return false
	}
	if v, ok := tx["transactionError"]; ok && v != nil {
		return false
	}
	if payer, ok := tx["feePayer"].(string); ok && payer != "" && payer != wallet {
		return false
	}
	return d.referencesProgram(tx)
}

func (d *Detector) referencesProgram(tx model.RawTransaction) bool {
	for _, ix := range asSlice(tx["instructions"]) {
		m := asMap(ix)
		if d.allowed(m["programId"]) {
			return true
		}
		for _, inner := range asSlice(m["innerInstructions"]) {
			if d.allowed(asMap(inner)["programId"]) {
				return true
			}
		}
	}
	for _, l := range asSlice(tx["logs"]) {
		if d.allowed(asMap(l)["programId"]) {
			return true
		}
	}
	for _, id := range asSlice(tx["programIds"]) {
		if d.allowed(id) {
			return true
		}
	}
	return false
}

func (d *Detector) allowed(v any) bool {
	id, ok := v.(string)
	if !ok {
		return false
	}
	_, ok = d.programs[id]
	return ok
}

// Extract 提取 swap 参数：先读扁平字段，再读 events.swap
// 任一字段缺失或不合法都不产生候选
func Extract(tx model.RawTransaction, wallet string) (*model.SwapCandidate, bool) {
	if tx == nil {
		return nil, false
	}
	c, ok := extractFlat(tx)
	if !ok {
		c, ok = extractSwapEvent(tx, wallet)
	}
	if !ok {
		return nil, false
	}

	if !utils.IsValidSolanaAddress(c.InputMint) || !utils.IsValidSolanaAddress(c.OutputMint) {
		return nil, false
	}
	if c.InputMint == c.OutputMint || !c.Amount.IsPositive() {
		return nil, false
	}

	c.SourceWallet = wallet
	c.SourceTxID = tx.Signature()
	if ts, ok := tx.Timestamp(); ok {
		c.ObservedAt = ts
	} else {
		c.ObservedAt = time.Now()
	}
	return c, true
}

func extractFlat(tx model.RawTransaction) (*model.SwapCandidate, bool) {
	in, okIn := tx.String("inputMint")
	out, okOut := tx.String("outputMint")
	amount, okAmt := toDecimal(tx["amount"])
	if !okIn || !okOut || !okAmt {
		return nil, false
	}
	c := &model.SwapCandidate{InputMint: in, OutputMint: out, Amount: amount}
	if d, ok := toUint8(tx["inputDecimals"]); ok {
		c.InputDecimals = &d
	}
	return c, true
}

func extractSwapEvent(tx model.RawTransaction, wallet string) (*model.SwapCandidate, bool) {
	swap := asMap(asMap(tx["events"])["swap"])
	if swap == nil {
		return nil, false
	}

	c := &model.SwapCandidate{}
	if lamports, ok := nativeAmount(swap["nativeInput"]); ok {
		c.InputMint = solana_client.WSOLMint
		c.Amount = utils.AdjustDecimals(lamports, solana_client.WSOLDecimals)
		d := uint8(solana_client.WSOLDecimals)
		c.InputDecimals = &d
	} else if mint, amount, decimals, ok := tokenLeg(swap["tokenInputs"], wallet); ok {
		c.InputMint = mint
		c.Amount = amount
		c.InputDecimals = &decimals
	} else {
		return nil, false
	}

	if _, ok := nativeAmount(swap["nativeOutput"]); ok {
		c.OutputMint = solana_client.WSOLMint
	} else if mint, _, _, ok := tokenLeg(swap["tokenOutputs"], wallet); ok {
		c.OutputMint = mint
	} else {
		return nil, false
	}
	return c, true
}

// nativeAmount {"account": "...", "amount": "lamports"}
func nativeAmount(v any) (*big.Int, bool) {
	m := asMap(v)
	if m == nil {
		return nil, false
	}
	n, ok := toBigInt(m["amount"])
	if !ok || n.Sign() <= 0 {
		return nil, false
	}
	return n, true
}

// tokenLeg 优先取 userAccount 为源钱包的那条
func tokenLeg(v any, wallet string) (string, decimal.Decimal, uint8, bool) {
	legs := asSlice(v)
	var picked map[string]any
	for _, leg := range legs {
		m := asMap(leg)
		if m == nil {
			continue
		}
		if owner, _ := m["userAccount"].(string); owner == wallet {
			picked = m
			break
		}
		if picked == nil {
			picked = m
		}
	}
	if picked == nil {
		return "", decimal.Zero, 0, false
	}

	mint, _ := picked["mint"].(string)
	raw := asMap(picked["rawTokenAmount"])
	if mint == "" || raw == nil {
		return "", decimal.Zero, 0, false
	}
	n, okAmt := toBigInt(raw["tokenAmount"])
	decimals, okDec := toUint8(raw["decimals"])
	if !okAmt || !okDec {
		return "", decimal.Zero, 0, false
	}
	return mint, utils.AdjustDecimals(n, decimals), decimals, true
}

func asMap(v any) map[string]any {
	switch m := v.(type) {
	case map[string]any:
		return m
	case model.RawTransaction:
		return m
	}
	return nil
}

func asSlice(v any) []any {
	s, _ := v.([]any)
	return s
}

func toDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(n))
		return d, err == nil
	case float64:
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	}
	return decimal.Zero, false
}

func toBigInt(v any) (*big.Int, bool) {
	var s string
	switch n := v.(type) {
	case json.Number:
		s = n.String()
	case string:
		s = strings.TrimSpace(n)
	case float64:
		if n != float64(int64(n)) {
			return nil, false
		}
		return big.NewInt(int64(n)), true
	case int64:
		return big.NewInt(n), true
	case int:
		return big.NewInt(int64(n)), true
	default:
		return nil, false
	}
	out, ok := new(big.Int).SetString(s, 10)
	return out, ok
}

func toUint8(v any) (uint8, bool) {
	var n int64
	switch x := v.(type) {
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return 0, false
		}
		n = i
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0, false
		}
		n = i
	case float64:
		n = int64(x)
		if float64(n) != x {
			return 0, false
		}
	case int:
		n = int64(x)
	case int64:
		n = x
	default:
		return 0, false
	}
	if n < 0 || n > 255 {
		return 0, false
	}
	return uint8(n), true
}
