package starhistory

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhang-wangz/startHistoryAction/httpx"
)

// newTestClient points a client at h and captures its log output.
func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) (*Client, *bytes.Buffer) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c, err := New(append([]Option{WithBaseURL(srv.URL + "/"), WithLogger(logger)}, opts...)...)
	require.NoError(t, err)
	return c, logs
}

func TestNew_Defaults(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:3000", c.BaseURL())

	h := c.Headers()
	assert.Equal(t, "application/json", h.Get("Accept"))
	assert.Equal(t, "application/json", h.Get("Content-Type"))

	h.Set("Accept", "text/plain")
	assert.Equal(t, "application/json", c.Headers().Get("Accept"), "Headers must return a copy")
}

func TestNew_StripsTrailingSlash(t *testing.T) {
	c, err := New(WithBaseURL("http://example.com:3000/"))
	require.NoError(t, err)
	assert.Equal(t, "http://example.com:3000", c.BaseURL())
}

func TestNew_RejectsRelativeBaseURL(t *testing.T) {
	_, err := New(WithBaseURL("example.com"))
	assert.Error(t, err)
}

func TestFetchStarHistory_ReturnsBodyVerbatim(t *testing.T) {
	const body = `{"stars": []}`
	var got *http.Request
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, body)
	})

	h, err := c.FetchStarHistory(context.Background(), StarHistoryRequest{Repo: "octocat/Hello-World"})
	require.NoError(t, err)
	assert.JSONEq(t, body, string(h.Raw()))
	assert.Equal(t, body, string(h.Raw()))

	require.NotNil(t, got)
	assert.Equal(t, StarPath, got.URL.Path)
	assert.Equal(t, "octocat/Hello-World", got.URL.Query().Get("repo"))
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
}

func TestFetchStarHistory_AlwaysSendsToken(t *testing.T) {
	var q url.Values
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		q = r.URL.Query()
		_, _ = io.WriteString(w, `{}`)
	})

	_, err := c.FetchStarHistory(context.Background(), StarHistoryRequest{Repo: "a/b"})
	require.NoError(t, err)
	_, present := q["token"]
	assert.True(t, present, "empty token must still be sent")
	assert.Equal(t, "", q.Get("token"))

	_, err = c.FetchStarHistory(context.Background(), StarHistoryRequest{Repo: "a/b", Token: "ghp_x"})
	require.NoError(t, err)
	assert.Equal(t, "ghp_x", q.Get("token"))
}

func TestFetchStarHistory_EmptyRepo(t *testing.T) {
	called := false
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	_, err := c.FetchStarHistory(context.Background(), StarHistoryRequest{Repo: "  "})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindInvalid))
	assert.ErrorIs(t, err, ErrEmptyRepo)
	assert.False(t, called)
}

func TestFetchStarHistory_StatusError(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		message string
		check   func(error) bool
	}{
		{"not found", http.StatusNotFound, "仓库 a/b 未找到", IsNotFound},
		{"rate limited", http.StatusForbidden, "GitHub API 请求次数超限", IsRateLimited},
		{"unauthorized", http.StatusUnauthorized, "GitHub Token 未授权", IsUnauthorized},
		{"no history", http.StatusNotImplemented, "仓库 a/b 没有star历史", IsNoHistory},
		{"server error", http.StatusInternalServerError, "获取数据失败", IsTemporary},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, `{"error":"`+tt.message+`"}`)
			})

			_, err := c.FetchStarHistory(context.Background(), StarHistoryRequest{Repo: "a/b"})
			require.Error(t, err)
			se, ok := AsError(err)
			require.True(t, ok)
			assert.Equal(t, KindStatus, se.Kind)
			assert.Equal(t, tt.status, se.StatusCode)
			assert.Equal(t, tt.message, se.Message)
			assert.Equal(t, "a/b", se.Repo)
			assert.True(t, tt.check(err))
			assert.Contains(t, err.Error(), tt.message)

			body, ok := se.JSONBody()
			require.True(t, ok)
			assert.Equal(t, map[string]any{"error": tt.message}, body)
		})
	}
}

func TestFetchStarHistory_TransportError(t *testing.T) {
	boom := errors.New("dial tcp: connection refused")
	c, err := New(WithTransport(httpx.RoundTripperFunc(func(*http.Request) (*http.Response, error) {
		return nil, boom
	})))
	require.NoError(t, err)

	_, err = c.FetchStarHistory(context.Background(), StarHistoryRequest{Repo: "a/b"})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTransport))
	assert.True(t, IsTemporary(err))
	assert.ErrorIs(t, err, boom)

	_, ok := err.(*Error).JSONBody()
	assert.False(t, ok)
}

func TestFetchStarHistory_Canceled(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.FetchStarHistory(ctx, StarHistoryRequest{Repo: "a/b"})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTransport))
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, IsTemporary(err))
}

func TestFetchStarHistory_DecodeError(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = io.WriteString(w, "<html>oops</html>")
	})

	_, err := c.FetchStarHistory(context.Background(), StarHistoryRequest{Repo: "a/b"})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindDecode))
	assert.Equal(t, "text/html", err.(*Error).ContentType)
}

func TestGetStarHistory_SuccessAndFailure(t *testing.T) {
	fail := false
	c, logs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if fail {
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `{"error":"仓库 a/b 未找到"}`)
			return
		}
		_, _ = io.WriteString(w, `{"starRecords":[{"date":"2024/01/01","count":3}]}`)
	})

	h := c.GetStarHistory(context.Background(), "a/b", "")
	assert.False(t, h.Empty())
	recs, err := h.Records()
	require.NoError(t, err)
	assert.Equal(t, []StarRecord{{Date: "2024/01/01", Count: 3}}, recs)

	fail = true
	h = c.GetStarHistory(context.Background(), "a/b", "")
	assert.True(t, h.Empty())
	assert.Equal(t, "{}", string(h.Raw()))
	assert.Contains(t, logs.String(), "获取数据失败")
	assert.Contains(t, logs.String(), "错误详情")
	assert.Contains(t, logs.String(), "未找到")
}

func TestGetStarHistory_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	logs := &bytes.Buffer{}
	c, err := New(WithBaseURL(base), WithLogger(slog.New(slog.NewTextHandler(logs, nil))))
	require.NoError(t, err)

	h := c.GetStarHistory(context.Background(), "octocat/Hello-World", "")
	assert.True(t, h.Empty())
	assert.Contains(t, logs.String(), "获取数据失败")
	assert.NotContains(t, logs.String(), "错误详情")
}

func TestLogAttempt_RedactsToken(t *testing.T) {
	c, logs := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})

	_, err := c.FetchStarHistory(context.Background(), StarHistoryRequest{Repo: "a/b", Token: "ghp_secret"})
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "star-history request")
	assert.Contains(t, logs.String(), "REDACTED")
	assert.NotContains(t, logs.String(), "ghp_secret")
}

func TestFailureLogs_RedactToken(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c, err := New(WithBaseURL(base), WithLogger(logger))
	require.NoError(t, err)

	ctx := context.Background()
	assert.True(t, c.GetStarHistory(ctx, "a/b", "ghp_SECRET").Empty())
	assert.False(t, c.GetChart(ctx, "a/b", filepath.Join(t.TempDir(), "c.png"), "ghp_SECRET", ChartDate, FormatPNG))

	out := logs.String()
	assert.Contains(t, out, "获取数据失败")
	assert.Contains(t, out, "获取图表失败")
	assert.Contains(t, out, "token=REDACTED")
	assert.NotContains(t, out, "ghp_SECRET")

	_, err = c.FetchStarHistory(ctx, StarHistoryRequest{Repo: "a/b", Token: "ghp_SECRET"})
	require.Error(t, err)
	assert.True(t, IsKind(err, KindTransport))
	assert.NotContains(t, err.Error(), "ghp_SECRET")
}

func TestStatusError_RedactsToken(t *testing.T) {
	c, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.FetchStarHistory(context.Background(), StarHistoryRequest{Repo: "a/b", Token: "ghp_SECRET"})
	require.Error(t, err)
	he, ok := httpx.AsError(err)
	require.True(t, ok)
	assert.Contains(t, he.URL, "token=REDACTED")
	assert.NotContains(t, err.Error(), "ghp_SECRET")
}
