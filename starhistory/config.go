package starhistory

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/zhang-wangz/startHistoryAction/httpx"
)

const (
	// DefaultBaseURL 本地 Next.js 服务地址
	DefaultBaseURL = "http://localhost:3000"

	DefaultUserAgent = "starhistory-go"

	StarPath  = "/api/star"
	ChartPath = "/api/chart"

	// tokenParam 在日志和错误信息里被替换为 httpx.RedactedValue
	tokenParam = "token"
)

// Config 客户端配置，构造后不可变
type Config struct {
	// BaseURL 服务根地址，末尾的 "/" 会被去掉
	BaseURL string

	// Timeout 单次调用的总超时，0 表示不设超时（仍受 ctx 约束）
	Timeout time.Duration

	// Retry 重试策略，默认只请求一次
	Retry httpx.RetryConfig

	// Transport 底层 RoundTripper，nil 时使用 httpx.DefaultTransport()
	Transport http.RoundTripper

	UserAgent string

	// MaxErrorBodyBytes 非 2xx 响应体最多保留的字节数
	MaxErrorBodyBytes int64

	// Logger 失败日志与调试日志，nil 时使用 slog.Default()
	Logger *slog.Logger

	// CheckContentType 写图表前校验响应的 Content-Type 是否与请求的格式一致
	CheckContentType bool
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		BaseURL:           DefaultBaseURL,
		Retry:             httpx.RetryConfig{MaxAttempts: 1},
		UserAgent:         DefaultUserAgent,
		MaxErrorBodyBytes: httpx.DefaultMaxErrorBodyBytes,
		CheckContentType:  true,
	}
}

type Option interface{ apply(*Config) }

type optionFunc func(*Config)

func (f optionFunc) apply(c *Config) { f(c) }

func WithBaseURL(baseURL string) Option {
	return optionFunc(func(c *Config) { c.BaseURL = baseURL })
}

func WithTimeout(d time.Duration) Option {
	return optionFunc(func(c *Config) { c.Timeout = d })
}

func WithRetry(r httpx.RetryConfig) Option {
	return optionFunc(func(c *Config) { c.Retry = r })
}

func WithTransport(rt http.RoundTripper) Option {
	return optionFunc(func(c *Config) { c.Transport = rt })
}

func WithUserAgent(ua string) Option {
	return optionFunc(func(c *Config) { c.UserAgent = ua })
}

func WithMaxErrorBodyBytes(n int64) Option {
	return optionFunc(func(c *Config) { c.MaxErrorBodyBytes = n })
}

func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *Config) { c.Logger = l })
}

// WithContentTypeCheck 开关图表 Content-Type 校验（默认开启）
func WithContentTypeCheck(on bool) Option {
	return optionFunc(func(c *Config) { c.CheckContentType = on })
}
