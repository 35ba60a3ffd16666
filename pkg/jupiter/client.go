package jupiter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"web3-copytrade/internal/worker/config"
	"web3-copytrade/pkg/httpclient"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// APIError 聚合器返回的业务错误或非 2xx 响应
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("jupiter api error %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("jupiter api error %d: %s", e.Status, e.Message)
}

// NoRoute 是否属于找不到路由
func (e *APIError) NoRoute() bool {
	switch e.Code {
	case "COULD_NOT_FIND_ANY_ROUTE", "NO_ROUTES_FOUND", "TOKEN_NOT_TRADABLE",
		"ROUTE_PLAN_DOES_NOT_CONSUME_ALL_THE_AMOUNT", "CIRCULAR_ARBITRAGE_IS_DISABLED":
		return true
	}
	return false
}

type Client struct {
	baseURL          string
	wrapAndUnwrapSol bool
	httpClient       *httpclient.HTTPClient
	tl               *zap.Logger
}

func NewClient(cfg config.JupiterConfig, tl *zap.Logger) *Client {
	httpCfg := httpclient.HTTPClientConfig{
		Timeout:    time.Duration(cfg.Timeout) * time.Second,
		RateLimit:  cfg.RateLimit,
		MaxRetries: 0,
		XApiKey:    cfg.APIKey,
	}
	return &Client{
		baseURL:          strings.TrimRight(cfg.BaseURL, "/"),
		wrapAndUnwrapSol: cfg.WrapUnwrapSol,
		httpClient:       httpclient.NewHTTPClient(httpCfg, tl),
		tl:               tl,
	}
}

// GetQuote 返回解析后的报价以及原始报文（swap 时原样回传）
func (c *Client) GetQuote(ctx context.Context, p QuoteParams) (*QuoteResponse, []byte, error) {
	query := map[string]string{
		"inputMint":   p.InputMint,
		"outputMint":  p.OutputMint,
		"amount":      p.Amount,
		"slippageBps": strconv.Itoa(p.SlippageBps),
		"swapMode":    "ExactIn",
	}
	body, err := c.httpClient.GetRaw(ctx, c.baseURL+"/quote", query, nil)
	if err != nil {
		return nil, nil, toAPIError(body, err)
	}

	var quote QuoteResponse
	if err := sonic.Unmarshal(body, &quote); err != nil {
		return nil, nil, fmt.Errorf("decode quote: %w", err)
	}
	return &quote, body, nil
}

// Swap 请求聚合器构建交易，返回待签名的 base64 交易
func (c *Client) Swap(ctx context.Context, rawQuote []byte, userPublicKey string) (*SwapResponse, error) {
	req := SwapRequest{
		QuoteResponse:           rawQuote,
		UserPublicKey:           userPublicKey,
		WrapAndUnwrapSol:        c.wrapAndUnwrapSol,
		DynamicComputeUnitLimit: true,
	}
	payload, err := sonic.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode swap request: %w", err)
	}

	body, err := c.httpClient.PostJSONRaw(ctx, c.baseURL+"/swap", payload, nil)
	if err != nil {
		return nil, toAPIError(body, err)
	}

	var resp SwapResponse
	if err := sonic.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode swap response: %w", err)
	}
	if resp.SwapTransaction == "" {
		var apiErr errorResponse
		_ = sonic.Unmarshal(body, &apiErr)
		return nil, &APIError{Status: 200, Code: apiErr.ErrorCode, Message: "empty swapTransaction " + apiErr.Error}
	}
	return &resp, nil
}

func toAPIError(body []byte, err error) error {
	var statusErr *httpclient.StatusError
	if !errors.As(err, &statusErr) {
		return err
	}
	apiErr := &APIError{Status: statusErr.Code, Message: statusErr.Body}
	var resp errorResponse
	if len(body) > 0 && sonic.Unmarshal(body, &resp) == nil {
		apiErr.Code = resp.ErrorCode
		if resp.Error != "" {
			apiErr.Message = resp.Error
		}
	}
	return apiErr
}
