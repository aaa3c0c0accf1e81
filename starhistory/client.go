package starhistory

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/zhang-wangz/startHistoryAction/httpx"
)

// Client star-history 服务客户端
type Client struct {
	http             *httpx.Client
	headers          http.Header
	log              *slog.Logger
	checkContentType bool
}

// StarHistoryRequest 查询 star 历史的参数
type StarHistoryRequest struct {
	// Repo 仓库名，格式 owner/name；格式由服务端校验
	Repo string
	// Token GitHub Token，可为空
	Token string
}

// New 基于 DefaultConfig() 和 opts 构造 Client
func New(opts ...Option) (*Client, error) {
	cfg := DefaultConfig()
	for _, o := range opts {
		if o != nil {
			o.apply(&cfg)
		}
	}
	return NewWithConfig(cfg)
}

func NewWithConfig(cfg Config) (*Client, error) {
	headers := http.Header{}
	headers.Set("Accept", "application/json")
	headers.Set("Content-Type", "application/json")

	baseURL := cfg.BaseURL
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}

	hc, err := httpx.NewWithConfig(httpx.Config{
		BaseURL:           baseURL,
		Timeout:           cfg.Timeout,
		Transport:         cfg.Transport,
		DefaultHeaders:    headers,
		UserAgent:         cfg.UserAgent,
		Retry:             cfg.Retry,
		MaxErrorBodyBytes: cfg.MaxErrorBodyBytes,
		RedactQuery:       []string{tokenParam},
	})
	if err != nil {
		return nil, err
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		http:             hc,
		headers:          headers,
		log:              logger,
		checkContentType: cfg.CheckContentType,
	}
	hc.WithHooks(nil, []httpx.AfterHook{c.logAttempt})
	return c, nil
}

// BaseURL 返回规范化后的服务地址（无末尾 "/"）
func (c *Client) BaseURL() string { return c.http.BaseURL() }

// Headers 返回查询 star 历史时附带的固定请求头（副本）
func (c *Client) Headers() http.Header { return c.headers.Clone() }

// FetchStarHistory 获取仓库的 star 历史，原样返回服务端的 JSON。
func (c *Client) FetchStarHistory(ctx context.Context, r StarHistoryRequest) (StarHistory, error) {
	if strings.TrimSpace(r.Repo) == "" {
		return StarHistory{}, &Error{Kind: KindInvalid, Op: OpStar, Err: ErrEmptyRepo}
	}

	req, err := c.http.Get(ctx, StarPath,
		httpx.WithQueryParam("repo", r.Repo),
		httpx.WithQueryParam(tokenParam, r.Token),
	)
	if err != nil {
		return StarHistory{}, &Error{Kind: KindInvalid, Op: OpStar, Repo: r.Repo, Err: err}
	}

	var raw json.RawMessage
	if _, err := c.http.DoJSONInto(req, &raw); err != nil {
		return StarHistory{}, wrapError(OpStar, r.Repo, err)
	}
	return StarHistory{raw: raw}, nil
}

// GetStarHistory 获取 star 历史；失败时记录日志并返回空对象 {}。
//
// 空结果与失败无法区分，需要区分时使用 FetchStarHistory。
func (c *Client) GetStarHistory(ctx context.Context, repo, token string) StarHistory {
	h, err := c.FetchStarHistory(ctx, StarHistoryRequest{Repo: repo, Token: token})
	if err != nil {
		c.logFailure("获取数据失败", err)
		return emptyHistory()
	}
	return h
}

func (c *Client) logFailure(msg string, err error) {
	c.log.Error(msg+": "+err.Error(), "repo", errRepo(err))
	if se, ok := AsError(err); ok {
		if body, ok := se.JSONBody(); ok {
			c.log.Error("错误详情", "body", body)
		}
	}
}

func (c *Client) logAttempt(req *http.Request, resp *http.Response, err error, dur time.Duration, attempt int) {
	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	c.log.Debug("star-history request",
		"method", req.Method,
		"url", httpx.RedactURL(req.URL, tokenParam),
		"status", status,
		"error", err,
		"duration", dur,
		"attempt", attempt,
	)
}

func errRepo(err error) string {
	if se, ok := AsError(err); ok {
		return se.Repo
	}
	return ""
}
