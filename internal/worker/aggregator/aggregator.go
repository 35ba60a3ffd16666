package aggregator

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"time"
	"web3-copytrade/internal/worker/monitor"
	"web3-copytrade/pkg/jupiter"
	"web3-copytrade/pkg/utils"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var (
	ErrNoRouteFound = errors.New("no route found")
	ErrUpstream     = errors.New("aggregator upstream error")
	ErrSubmission   = errors.New("transaction submission failed")
	ErrSigning      = errors.New("transaction signing failed")
	ErrTimeout      = errors.New("execution timed out")
)

const (
	DefaultQuoteMaxAge    = 2 * time.Second
	DefaultExecuteTimeout = 60 * time.Second
)

// SwapAPI 聚合器 HTTP 接口
type SwapAPI interface {
	GetQuote(ctx context.Context, p jupiter.QuoteParams) (*jupiter.QuoteResponse, []byte, error)
	Swap(ctx context.Context, rawQuote []byte, userPublicKey string) (*jupiter.SwapResponse, error)
}

// DecimalsResolver 查询代币精度，用于 UI 数量换算为最小单位
type DecimalsResolver interface {
	Decimals(ctx context.Context, mint string) (uint8, error)
}

// Signer 跟单钱包
type Signer interface {
	PublicKey() string
	SignTransaction(blob []byte) ([]byte, error)
	SendTransaction(ctx context.Context, signed []byte) (string, error)
}

type QuoteRequest struct {
	InputMint   string
	OutputMint  string
	Amount      decimal.Decimal // UI 数量
	Decimals    *uint8          // 已知精度，nil 时查询链上
	SlippageBps int
}

type Quote struct {
	Request     QuoteRequest
	InAmount    string // 最小单位
	OutAmount   string
	PriceImpact string
	Routes      []string
	Raw         []byte
	ObtainedAt  time.Time
}

type ExecutionStatus string

const StatusSubmitted ExecutionStatus = "submitted"

type ExecutionResult struct {
	TxID   string
	Status ExecutionStatus
}

type Client struct {
	api            SwapAPI
	decimals       DecimalsResolver
	quoteMaxAge    time.Duration
	executeTimeout time.Duration
	tl             *zap.Logger
	now            func() time.Time
}

func New(api SwapAPI, decimals DecimalsResolver, quoteMaxAge, executeTimeout time.Duration, tl *zap.Logger) *Client {
	if quoteMaxAge <= 0 {
		quoteMaxAge = DefaultQuoteMaxAge
	}
	if executeTimeout <= 0 {
		executeTimeout = DefaultExecuteTimeout
	}
	return &Client{
		api:            api,
		decimals:       decimals,
		quoteMaxAge:    quoteMaxAge,
		executeTimeout: executeTimeout,
		tl:             tl,
		now:            time.Now,
	}
}

func (c *Client) Quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	start := time.Now()
	q, err := c.quote(ctx, req)
	monitor.ObserveAggregatorCall("quote", start, err)
	return q, err
}

func (c *Client) quote(ctx context.Context, req QuoteRequest) (*Quote, error) {
	var decimals uint8
	if req.Decimals != nil {
		decimals = *req.Decimals
	} else {
		if c.decimals == nil {
			return nil, fmt.Errorf("%w: decimals unknown for %s", ErrUpstream, req.InputMint)
		}
		d, err := c.decimals.Decimals(ctx, req.InputMint)
		if err != nil {
			return nil, fmt.Errorf("%w: resolve decimals: %w", ErrUpstream, err)
		}
		decimals = d
	}

	amount := utils.ToBaseUnits(req.Amount, decimals)
	if amount.Sign() <= 0 {
		return nil, fmt.Errorf("%w: amount %s below one base unit", ErrNoRouteFound, req.Amount)
	}

	resp, raw, err := c.api.GetQuote(ctx, jupiter.QuoteParams{
		InputMint:   req.InputMint,
		OutputMint:  req.OutputMint,
		Amount:      amount.String(),
		SlippageBps: req.SlippageBps,
	})
	if err != nil {
		var apiErr *jupiter.APIError
		if errors.As(err, &apiErr) && apiErr.NoRoute() {
			return nil, fmt.Errorf("%w: %w", ErrNoRouteFound, err)
		}
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: quote: %w", ErrTimeout, err)
		}
		return nil, fmt.Errorf("%w: quote: %w", ErrUpstream, err)
	}
	if len(resp.RoutePlan) == 0 {
		return nil, fmt.Errorf("%w: empty route plan", ErrNoRouteFound)
	}

	routes := make([]string, 0, len(resp.RoutePlan))
	for _, r := range resp.RoutePlan {
		routes = append(routes, r.SwapInfo.Label)
	}
	return &Quote{
		Request:     req,
		InAmount:    resp.InAmount,
		OutAmount:   resp.OutAmount,
		PriceImpact: resp.PriceImpactPct,
		Routes:      routes,
		Raw:         raw,
		ObtainedAt:  c.now(),
	}, nil
}

// Execute 构建、签名并提交交易；报价过期时先重新报价
func (c *Client) Execute(ctx context.Context, quote *Quote, signer Signer) (ExecutionResult, error) {
	start := time.Now()
	res, err := c.execute(ctx, quote, signer)
	monitor.ObserveAggregatorCall("execute", start, err)
	return res, err
}

func (c *Client) execute(ctx context.Context, quote *Quote, signer Signer) (ExecutionResult, error) {
	if quote == nil {
		return ExecutionResult{}, fmt.Errorf("%w: nil quote", ErrSubmission)
	}
	if signer == nil {
		return ExecutionResult{}, fmt.Errorf("%w: no signer configured", ErrSigning)
	}

	ctx, cancel := context.WithTimeout(ctx, c.executeTimeout)
	defer cancel()

	if age := c.now().Sub(quote.ObtainedAt); age > c.quoteMaxAge {
		c.tl.Debug("Quote stale, re-quoting",
			zap.String("input_mint", quote.Request.InputMint),
			zap.Duration("age", age))
		fresh, err := c.quote(ctx, quote.Request)
		if err != nil {
			return ExecutionResult{}, err
		}
		quote = fresh
	}

	swap, err := c.api.Swap(ctx, quote.Raw, signer.PublicKey())
	if err != nil {
		return ExecutionResult{}, c.submitErr(ctx, "build swap", err)
	}

	blob, err := base64.StdEncoding.DecodeString(swap.SwapTransaction)
	if err != nil {
		return ExecutionResult{}, fmt.Errorf("%w: decode swap transaction: %w", ErrSubmission, err)
	}

	signed, err := signer.SignTransaction(blob)
	if err != nil {
		return ExecutionResult{}, fmt.Errorf("%w: %w", ErrSigning, err)
	}

	txID, err := signer.SendTransaction(ctx, signed)
	if err != nil {
		return ExecutionResult{}, c.submitErr(ctx, "send transaction", err)
	}

	return ExecutionResult{TxID: txID, Status: StatusSubmitted}, nil
}

func (c *Client) submitErr(ctx context.Context, step string, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", ErrTimeout, step, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrSubmission, step, err)
}
