package starhistory

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math/rand/v2"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"

	"github.com/zhang-wangz/startHistoryAction/httpx"
)

// ChartType 图表横轴类型
type ChartType string

const (
	ChartDate     ChartType = "Date"
	ChartTimeline ChartType = "Timeline"
)

// ParseChartType 不区分大小写；空串返回 ChartDate
func ParseChartType(s string) (ChartType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "date":
		return ChartDate, nil
	case "timeline":
		return ChartTimeline, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidChartType, s)
}

// Format 图表输出格式
type Format string

const (
	FormatSVG Format = "svg"
	FormatPNG Format = "png"
)

// ParseFormat 不区分大小写；空串返回 FormatSVG
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "svg":
		return FormatSVG, nil
	case "png":
		return FormatPNG, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidFormat, s)
}

// Ext 返回文件扩展名，如 ".png"
func (f Format) Ext() string { return "." + string(f) }

// Binary 报告该格式是否按二进制写入
func (f Format) Binary() bool { return f == FormatPNG }

// ChartRequest 获取图表的参数
type ChartRequest struct {
	Repo  string
	Token string
	// Type 默认 ChartDate
	Type ChartType
	// Format 默认 FormatSVG
	Format Format
}

// Chart 已写入磁盘的图表
type Chart struct {
	Path        string
	Format      Format
	ContentType string
	Size        int64
}

func (r ChartRequest) normalize() (ChartRequest, error) {
	if strings.TrimSpace(r.Repo) == "" {
		return r, ErrEmptyRepo
	}
	t, err := ParseChartType(string(r.Type))
	if err != nil {
		return r, err
	}
	f, err := ParseFormat(string(r.Format))
	if err != nil {
		return r, err
	}
	r.Type, r.Format = t, f
	return r, nil
}

// FetchChart 获取图表并写入 outputPath。
//
// png 原样写入字节，svg 按响应声明的字符集转成 UTF-8 写入。
// 只有在请求成功、内容校验通过后才会写文件；先写临时文件再改名，
// 失败时 outputPath 保持原状。
func (c *Client) FetchChart(ctx context.Context, r ChartRequest, outputPath string) (*Chart, error) {
	r, err := r.normalize()
	if err != nil {
		return nil, &Error{Kind: KindInvalid, Op: OpChart, Repo: r.Repo, Err: err}
	}
	if strings.TrimSpace(outputPath) == "" {
		return nil, &Error{Kind: KindInvalid, Op: OpChart, Repo: r.Repo, Err: ErrEmptyPath}
	}

	// The chart body is not JSON, so the fixed JSON headers are not sent.
	req, err := c.http.Get(ctx, ChartPath,
		httpx.WithoutDefaultHeaders(),
		httpx.WithQueryParam("repo", r.Repo),
		httpx.WithQueryParam(tokenParam, r.Token),
		httpx.WithQueryParam("type", string(r.Type)),
		httpx.WithQueryParam("format", string(r.Format)),
	)
	if err != nil {
		return nil, &Error{Kind: KindInvalid, Op: OpChart, Repo: r.Repo, Err: err}
	}

	body, resp, err := c.http.DoBytes(req)
	if err != nil {
		return nil, wrapError(OpChart, r.Repo, err)
	}
	ct := resp.Header.Get("Content-Type")

	if c.checkContentType && !contentTypeMatches(r.Format, ct) {
		return nil, &Error{
			Kind:        KindContentType,
			Op:          OpChart,
			Repo:        r.Repo,
			ContentType: ct,
			Err:         fmt.Errorf("requested %s but service returned %q", r.Format, ct),
		}
	}

	data := body
	if !r.Format.Binary() {
		data, err = utf8Text(body, ct)
		if err != nil {
			return nil, &Error{Kind: KindDecode, Op: OpChart, Repo: r.Repo, ContentType: ct, Err: err}
		}
	}

	if err := writeFile(outputPath, data); err != nil {
		return nil, &Error{Kind: KindWrite, Op: OpChart, Repo: r.Repo, Err: err}
	}
	return &Chart{
		Path:        outputPath,
		Format:      r.Format,
		ContentType: ct,
		Size:        int64(len(data)),
	}, nil
}

// GetChart 获取图表并保存；失败时记录日志并返回 false。
func (c *Client) GetChart(ctx context.Context, repo, outputPath, token string, chartType ChartType, format Format) bool {
	chart, err := c.FetchChart(ctx, ChartRequest{
		Repo:   repo,
		Token:  token,
		Type:   chartType,
		Format: format,
	}, outputPath)
	if err != nil {
		c.logFailure("获取图表失败", err)
		return false
	}
	c.log.Info("图表已保存到: "+chart.Path, "format", chart.Format, "bytes", chart.Size)
	return true
}

// contentTypeMatches 无 Content-Type 或 application/octet-stream 时以请求的格式为准
func contentTypeMatches(f Format, contentType string) bool {
	if strings.TrimSpace(contentType) == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	if mt == "application/octet-stream" {
		return true
	}
	switch f {
	case FormatPNG:
		return mt == "image/png"
	case FormatSVG:
		switch mt {
		case "image/svg+xml", "text/xml", "application/xml", "text/plain":
			return true
		}
	}
	return false
}

// utf8Text 把 svg 文本转成 UTF-8；已是 UTF-8 时原样返回。
func utf8Text(body []byte, contentType string) ([]byte, error) {
	label := ""
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		label = strings.TrimSpace(params["charset"])
	}
	if utf8.Valid(body) && (label == "" || isUTF8Label(label)) {
		return body, nil
	}

	var (
		r   io.Reader
		err error
	)
	if label != "" {
		r, err = charset.NewReaderLabel(label, bytes.NewReader(body))
	} else {
		r, err = charset.NewReader(bytes.NewReader(body), contentType)
	}
	if err != nil {
		return nil, err
	}
	return io.ReadAll(r)
}

func isUTF8Label(label string) bool {
	l := strings.ToLower(label)
	return l == "utf-8" || l == "utf8"
}

// writeFile 写入目标目录下的临时文件后改名覆盖。
//
// path 为符号链接时写入它指向的文件。已存在的文件保留原权限，
// 新文件按 0666 创建（受 umask 约束）。
func writeFile(path string, data []byte) (err error) {
	target, perm, exists, err := resolveTarget(path)
	if err != nil {
		return err
	}

	f, err := createTemp(filepath.Dir(target), filepath.Base(target), perm)
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	// umask 可能去掉了原文件的部分权限位
	if exists {
		if err = f.Chmod(perm); err != nil {
			_ = f.Close()
			return err
		}
	}
	if err = f.Close(); err != nil {
		return err
	}
	return os.Rename(tmp, target)
}

// resolveTarget 解析符号链接，返回实际写入的路径与权限
func resolveTarget(path string) (target string, perm fs.FileMode, exists bool, err error) {
	target = path
	if fi, lerr := os.Lstat(path); lerr == nil && fi.Mode()&fs.ModeSymlink != 0 {
		resolved, rerr := filepath.EvalSymlinks(path)
		switch {
		case rerr == nil:
			target = resolved
		case errors.Is(rerr, fs.ErrNotExist):
			// 悬空链接：创建它指向的文件
			link, err := os.Readlink(path)
			if err != nil {
				return "", 0, false, err
			}
			if !filepath.IsAbs(link) {
				link = filepath.Join(filepath.Dir(path), link)
			}
			target = link
		default:
			return "", 0, false, rerr
		}
	}

	fi, err := os.Stat(target)
	switch {
	case err == nil:
		return target, fi.Mode().Perm(), true, nil
	case errors.Is(err, fs.ErrNotExist):
		return target, 0o666, false, nil
	default:
		return "", 0, false, err
	}
}

// createTemp 与 os.CreateTemp 相同，但按 perm 创建文件
func createTemp(dir, base string, perm fs.FileMode) (*os.File, error) {
	for range 10000 {
		name := filepath.Join(dir, "."+base+"."+strconv.FormatUint(rand.Uint64(), 36)+".tmp")
		f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE|os.O_EXCL, perm)
		if errors.Is(err, fs.ErrExist) {
			continue
		}
		return f, err
	}
	return nil, &fs.PathError{Op: "createtemp", Path: filepath.Join(dir, "."+base+".*.tmp"), Err: fs.ErrExist}
}
