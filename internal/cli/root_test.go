package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0x00, 0xff}

const starJSON = `{"repo":"a/b","starRecords":[{"date":"2023/05/01","count":1},{"date":"2024/05/01","count":120}]}`

// isolateEnv keeps the user's config file and tokens out of the test.
func isolateEnv(t *testing.T) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GITHUB_TOKEN", "")
	t.Setenv("STARHISTORY_TOKEN", "")
	t.Setenv("STARHISTORY_BASE_URL", "")
}

// fakeService serves /api/star and /api/chart and records the last query of each.
type fakeService struct {
	starStatus int
	starBody   string
	chartType  string
	chartBody  []byte

	starQuery  url.Values
	chartQuery url.Values
}

func (f *fakeService) start(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/star":
			f.starQuery = r.URL.Query()
			w.Header().Set("Content-Type", "application/json")
			status := f.starStatus
			if status == 0 {
				status = http.StatusOK
			}
			w.WriteHeader(status)
			_, _ = w.Write([]byte(f.starBody))
		case "/api/chart":
			f.chartQuery = r.URL.Query()
			w.Header().Set("Content-Type", f.chartType)
			_, _ = w.Write(f.chartBody)
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--color", "never"}, args...))
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestRootCmd_Help(t *testing.T) {
	isolateEnv(t)

	out, _, err := execute(t, "--help")
	if err != nil {
		t.Fatalf("root --help failed: %v", err)
	}
	for _, name := range []string{"starhistory", "star", "chart", "version", "--base-url", "--token"} {
		if !strings.Contains(out, name) {
			t.Errorf("expected help output to contain %q, got:\n%s", name, out)
		}
	}
}

func TestRootCmd_UnknownCommand(t *testing.T) {
	isolateEnv(t)

	if _, _, err := execute(t, "nonexistent-command"); err == nil {
		t.Fatal("expected error for unknown command, got nil")
	}
}

func TestRootCmd_RunsExample(t *testing.T) {
	isolateEnv(t)
	svc := &fakeService{starBody: starJSON, chartType: "image/png", chartBody: pngBytes}
	srv := svc.start(t)

	chartPath := filepath.Join(t.TempDir(), "star_history.png")
	cfg := writeConfig(t, "base_url: "+srv.URL+"/\n"+
		"example:\n  repo: a/b\n  output: "+chartPath+"\n")
	t.Setenv("GITHUB_TOKEN", "ghp_env")

	out, stderr, err := execute(t, "--config", cfg)
	if err != nil {
		t.Fatalf("example run failed: %v", err)
	}

	if !strings.Contains(out, "Star历史数据:") || !strings.Contains(out, `"count": 120`) {
		t.Errorf("expected indented star history in stdout, got:\n%s", out)
	}
	if got := svc.starQuery.Get("token"); got != "ghp_env" {
		t.Errorf("star token = %q, want ghp_env", got)
	}
	if got := svc.chartQuery.Get("format"); got != "png" {
		t.Errorf("chart format = %q, want png", got)
	}
	if got := svc.chartQuery.Get("type"); got != "Date" {
		t.Errorf("chart type = %q, want Date", got)
	}

	data, err := os.ReadFile(chartPath)
	if err != nil {
		t.Fatalf("chart not written: %v", err)
	}
	if !bytes.Equal(data, pngBytes) {
		t.Errorf("chart bytes = %v, want %v", data, pngBytes)
	}
	if !strings.Contains(stderr, "图表已保存到: "+chartPath) {
		t.Errorf("expected save log, got:\n%s", stderr)
	}
}

func TestRootCmd_ExampleFailuresAreLoggedOnly(t *testing.T) {
	isolateEnv(t)
	svc := &fakeService{
		starStatus: http.StatusNotFound,
		starBody:   `{"error":"仓库不存在"}`,
		chartType:  "text/html",
		chartBody:  []byte("<html></html>"),
	}
	srv := svc.start(t)

	chartPath := filepath.Join(t.TempDir(), "star_history.png")
	cfg := writeConfig(t, "example:\n  output: "+chartPath+"\n")

	out, stderr, err := execute(t, "--config", cfg, "--base-url", srv.URL)
	if err != nil {
		t.Fatalf("example run must not fail, got: %v", err)
	}
	if strings.Contains(out, "Star历史数据") {
		t.Errorf("empty history must not be printed, got:\n%s", out)
	}
	for _, want := range []string{"获取数据失败", "仓库不存在", "获取图表失败"} {
		if !strings.Contains(stderr, want) {
			t.Errorf("expected %q in logs, got:\n%s", want, stderr)
		}
	}
	if got := svc.starQuery.Get("repo"); got != "zhang-wangz/LeetCodeRating" {
		t.Errorf("default example repo = %q", got)
	}
	if _, err := os.Stat(chartPath); !os.IsNotExist(err) {
		t.Errorf("chart must not be written on failure, stat err = %v", err)
	}
}

func TestRootCmd_ExplicitConfigMissing(t *testing.T) {
	isolateEnv(t)

	_, _, err := execute(t, "--config", filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "loading config") {
		t.Fatalf("expected config error, got %v", err)
	}
}

func TestRootCmd_InvalidColor(t *testing.T) {
	isolateEnv(t)

	if _, _, err := execute(t, "version", "--color", "rainbow"); err != nil {
		t.Fatalf("version must not load config, got %v", err)
	}
	if _, _, err := execute(t, "star", "a/b", "--color", "rainbow"); err == nil {
		t.Fatal("expected error for invalid color mode")
	}
}

func TestRootCmd_VerboseLogsRequests(t *testing.T) {
	isolateEnv(t)
	svc := &fakeService{starBody: starJSON}
	srv := svc.start(t)

	_, stderr, err := execute(t, "star", "a/b", "-v", "--base-url", srv.URL, "--token", "ghp_secret")
	if err != nil {
		t.Fatalf("star failed: %v", err)
	}
	if !strings.Contains(stderr, "star-history request") {
		t.Errorf("expected request debug log, got:\n%s", stderr)
	}
	if strings.Contains(stderr, "ghp_secret") {
		t.Errorf("token leaked into logs:\n%s", stderr)
	}
}
