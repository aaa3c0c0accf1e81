package starhistory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/zhang-wangz/startHistoryAction/httpx"
)

// Kind 错误类别
type Kind int

const (
	// KindInvalid 参数错误，未发出请求
	KindInvalid Kind = iota + 1
	// KindTransport 连接失败、超时、取消或读响应体失败
	KindTransport
	// KindStatus 服务返回非 2xx
	KindStatus
	// KindDecode 2xx 响应体无法解码
	KindDecode
	// KindContentType 图表响应的 Content-Type 与请求的格式不符
	KindContentType
	// KindWrite 写图表文件失败
	KindWrite
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	case KindContentType:
		return "content-type"
	case KindWrite:
		return "write"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

const (
	OpStar    = "star"
	OpChart   = "chart"
	OpRecords = "records"
)

var (
	ErrEmptyRepo        = errors.New("repo is required")
	ErrEmptyPath        = errors.New("output path is required")
	ErrInvalidChartType = errors.New(`chart type must be "Date" or "Timeline"`)
	ErrInvalidFormat    = errors.New(`format must be "svg" or "png"`)
)

// Error 是 FetchStarHistory / FetchChart 返回的错误
type Error struct {
	Kind Kind
	Op   string
	Repo string

	// StatusCode 仅 KindStatus 时非 0
	StatusCode int

	// Message 服务端 {"error": "..."} 中的消息
	Message string

	// Body 非 2xx 响应体（截断）
	Body []byte

	// ContentType 相关响应的 Content-Type
	ContentType string

	Err error
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	var b strings.Builder
	b.WriteString("starhistory: ")
	b.WriteString(e.Op)
	if e.Repo != "" {
		b.WriteString(" ")
		b.WriteString(e.Repo)
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if e.StatusCode != 0 {
		fmt.Fprintf(&b, " http %d", e.StatusCode)
	}
	switch {
	case e.Message != "":
		b.WriteString(": ")
		b.WriteString(e.Message)
	case e.Err != nil:
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error { return e.Err }

// JSONBody 返回解码后的错误响应体（仅当其为 JSON 时）
func (e *Error) JSONBody() (any, bool) {
	if e == nil {
		return nil, false
	}
	if he, ok := httpx.AsError(e.Err); ok {
		return he.JSONBody()
	}
	return nil, false
}

func wrapError(op, repo string, err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	e := &Error{Kind: KindTransport, Op: op, Repo: repo, Err: err}

	var de *httpx.DecodeError
	if errors.As(err, &de) {
		e.Kind = KindDecode
		e.ContentType = de.ContentType
		return e
	}
	if he, ok := httpx.AsError(err); ok && !he.IsTransport() {
		e.Kind = KindStatus
		e.StatusCode = he.StatusCode
		e.ContentType = he.ContentType
		e.Body = he.RawBody
		e.Message = serviceMessage(he.RawBody)
	}
	return e
}

// serviceMessage 提取 {"error": "..."}
func serviceMessage(body []byte) string {
	var v struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &v); err != nil {
		return ""
	}
	return strings.TrimSpace(v.Error)
}

// AsError 判断错误是否为 *Error
func AsError(err error) (*Error, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se, true
	}
	return nil, false
}

// IsKind 判断错误类别
func IsKind(err error, k Kind) bool {
	se, ok := AsError(err)
	return ok && se.Kind == k
}

func isStatus(err error, codes ...int) bool {
	se, ok := AsError(err)
	if !ok || se.Kind != KindStatus {
		return false
	}
	for _, c := range codes {
		if se.StatusCode == c {
			return true
		}
	}
	return false
}

// IsNotFound 仓库不存在（404）
func IsNotFound(err error) bool { return isStatus(err, http.StatusNotFound) }

// IsRateLimited GitHub API 请求次数超限（403/429）
func IsRateLimited(err error) bool {
	return isStatus(err, http.StatusForbidden, http.StatusTooManyRequests)
}

// IsUnauthorized GitHub Token 未授权（401）
func IsUnauthorized(err error) bool { return isStatus(err, http.StatusUnauthorized) }

// IsNoHistory 仓库没有 star 历史（服务端用 501 表示）
func IsNoHistory(err error) bool { return isStatus(err, http.StatusNotImplemented) }

// IsTemporary 判断是否为临时错误（可重试）
func IsTemporary(err error) bool {
	se, ok := AsError(err)
	if !ok {
		return false
	}
	switch se.Kind {
	case KindTransport:
		return !errors.Is(err, context.Canceled)
	case KindStatus:
		switch se.StatusCode {
		case http.StatusRequestTimeout, http.StatusTooManyRequests,
			http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
	}
	return false
}
