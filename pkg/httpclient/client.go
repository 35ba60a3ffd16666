package httpclient

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"resty.dev/v3"
)

// HTTPClientConfig 配置参数
type HTTPClientConfig struct {
	Timeout     time.Duration // 请求超时时间
	RateLimit   int           // 每分钟请求次数，<=0 表示不限流
	MaxRetries  int           // 最大重试次数，0 表示不重试
	UserAgent   string        // 可选 User-Agent
	BearerToken string        // Authorization: Bearer <token>
	XApiKey     string
}

// HTTPClient 是一个通用的 HTTP 客户端
type HTTPClient struct {
	client  *resty.Client
	logger  *zap.Logger
	limiter *rate.Limiter
}

// StatusError 非 2xx 响应
type StatusError struct {
	Code int
	Body string
	URL  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("non-2xx status code: %d (%s)", e.Code, e.URL)
}

// TransportError 请求未拿到响应（连接失败、超时、上下文取消）
type TransportError struct {
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("request %s failed: %v", e.URL, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// NewHTTPClient 创建一个新的 HTTP 客户端
func NewHTTPClient(cfg HTTPClientConfig, logger *zap.Logger) *HTTPClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(float64(cfg.RateLimit) / 60)
	}
	limiter := rate.NewLimiter(limit, 1)

	restyClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		AddRequestMiddleware(func(c *resty.Client, r *resty.Request) error {
			// 为限流器等待创建带超时的上下文
			limiterCtx, cancel := context.WithTimeout(r.Context(), cfg.Timeout)
			defer cancel()

			if err := limiter.Wait(limiterCtx); err != nil {
				logger.Warn("Rate limiter wait failed", zap.Error(err))
				return err
			}
			if cfg.UserAgent != "" {
				r.SetHeader("User-Agent", cfg.UserAgent)
			}
			if cfg.BearerToken != "" {
				r.SetHeader("Authorization", "Bearer "+cfg.BearerToken)
			}
			if cfg.XApiKey != "" {
				r.SetHeader("X-API-Key", cfg.XApiKey)
			}
			logger.Debug("Outgoing request", zap.String("url", r.URL))
			return nil
		}).
		AddResponseMiddleware(func(c *resty.Client, resp *resty.Response) error {
			if resp.StatusCode() >= 400 {
				logger.Warn("HTTP request failed",
					zap.Int("status", resp.StatusCode()),
					zap.String("url", resp.Request.URL),
				)
			}
			return nil
		})

	return &HTTPClient{
		client:  restyClient,
		logger:  logger,
		limiter: limiter,
	}
}

// GetRaw 发起 GET 请求并返回原始响应体，由调用方自行解码
func (c *HTTPClient) GetRaw(ctx context.Context, url string, queryParams map[string]string, headers map[string]string) ([]byte, error) {
	req := c.client.R().
		SetContext(ctx).
		SetQueryParams(queryParams)
	if headers != nil {
		req.SetHeaders(headers)
	}

	resp, err := req.Get(url)
	if err != nil {
		c.logger.Debug("HTTP GET request failed", zap.String("url", url), zap.Error(err))
		return nil, &TransportError{URL: url, Err: err}
	}
	return checkStatus(url, resp)
}

// PostJSONRaw 以 JSON 发送 body 并返回原始响应体
func (c *HTTPClient) PostJSONRaw(ctx context.Context, url string, body interface{}, headers map[string]string) ([]byte, error) {
	req := c.client.R().
		SetContext(ctx).
		SetBody(body)
	if headers != nil {
		req.SetHeaders(headers)
	}
	req.SetHeader("Content-Type", "application/json")

	resp, err := req.Post(url)
	if err != nil {
		c.logger.Debug("HTTP POST JSON request failed", zap.String("url", url), zap.Error(err))
		return nil, &TransportError{URL: url, Err: err}
	}
	return checkStatus(url, resp)
}

func checkStatus(url string, resp *resty.Response) ([]byte, error) {
	body := []byte(resp.String())
	if resp.StatusCode() >= 400 {
		return body, &StatusError{Code: resp.StatusCode(), Body: string(body), URL: url}
	}
	return body, nil
}
