package helius

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
	"web3-copytrade/internal/worker/config"
	"web3-copytrade/internal/worker/model"
	"web3-copytrade/pkg/httpclient"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"
)

// sonic 配置：数字保留为 json.Number，lamports 等大整数不丢精度
var jsonAPI = sonic.Config{UseNumber: true}.Froze()

type Client struct {
	baseURL    string
	apiKey     string
	limit      int
	httpClient *httpclient.HTTPClient
	tl         *zap.Logger
}

func NewClient(cfg config.HeliusConfig, tl *zap.Logger) *Client {
	httpCfg := httpclient.HTTPClientConfig{
		Timeout:     time.Duration(cfg.Timeout) * time.Second,
		RateLimit:   cfg.RateLimit,
		MaxRetries:  0, // 由下一轮轮询重试
		BearerToken: cfg.APIKey,
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		limit:      cfg.Limit,
		httpClient: httpclient.NewHTTPClient(httpCfg, tl),
		tl:         tl,
	}
}

// FetchRecentTransactions 拉取地址最近的交易，按数据源给出的顺序返回
func (c *Client) FetchRecentTransactions(ctx context.Context, address string) ([]model.RawTransaction, error) {
	endpoint := fmt.Sprintf("%s/addresses/%s/transactions", c.baseURL, url.PathEscape(address))

	query := map[string]string{}
	if c.apiKey != "" {
		query["api-key"] = c.apiKey
	}
	if c.limit > 0 {
		query["limit"] = strconv.Itoa(c.limit)
	}

	body, err := c.httpClient.GetRaw(ctx, endpoint, query, nil)
	if err != nil {
		return nil, classify(address, err)
	}

	var txs []model.RawTransaction
	if err := jsonAPI.Unmarshal(body, &txs); err != nil {
		return nil, &FeedError{Kind: KindUpstream, Address: address, Err: fmt.Errorf("decode transactions: %w", err)}
	}
	return txs, nil
}

func classify(address string, err error) error {
	var statusErr *httpclient.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Code == 429 {
			return &FeedError{Kind: KindRateLimited, Address: address, Status: statusErr.Code, Err: err}
		}
		return &FeedError{Kind: KindUpstream, Address: address, Status: statusErr.Code, Err: err}
	}
	return &FeedError{Kind: KindNetwork, Address: address, Err: err}
}
