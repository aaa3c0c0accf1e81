// Package version 记录 starhistory 二进制的来源，同时用于 User-Agent 与 version 子命令。
//
// 发布构建用 -ldflags 写入：
//
//	go build -ldflags "-X github.com/zhang-wangz/startHistoryAction/version.gitVersion=v1.2.0 \
//	  -X github.com/zhang-wangz/startHistoryAction/version.gitCommit=$(git rev-parse HEAD)" ./cmd/starhistory
//
// 没有 ldflags 时（go install、go run）退回到 Go 工具链嵌入的 vcs.* 信息。
package version

import (
	"encoding/json"
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/gosuri/uitable"
)

// AppName 二进制名称
const AppName = "starhistory"

const (
	devVersion  = "v0.0.0-dev"
	noCommit    = "unknown"
	noBuildDate = "1970-01-01T00:00:00Z"
)

// 由 -ldflags -X 覆盖
var (
	gitVersion   = devVersion
	gitCommit    = noCommit
	gitTreeState = ""
	buildDate    = noBuildDate
)

// Info 一次构建的来源
type Info struct {
	App          string `json:"app"`
	GitVersion   string `json:"gitVersion"`
	GitCommit    string `json:"gitCommit"`
	GitTreeState string `json:"gitTreeState,omitempty"`
	BuildDate    string `json:"buildDate"`
	GoVersion    string `json:"goVersion"`
	Platform     string `json:"platform"`
}

// String 带 -dirty 后缀的版本号
func (info Info) String() string {
	if info.GitTreeState == "dirty" {
		return info.GitVersion + "-dirty"
	}
	return info.GitVersion
}

// ShortString 是 version -o short 的输出
func (info Info) ShortString() string {
	return info.GitVersion
}

// UserAgent 形如 starhistory/v1.2.0，用作 HTTP User-Agent
func (info Info) UserAgent() string {
	app := info.App
	if app == "" {
		app = AppName
	}
	return app + "/" + info.String()
}

// ToJSON 单行 JSON
func (info Info) ToJSON() (string, error) {
	s, err := json.Marshal(info)
	if err != nil {
		return "", fmt.Errorf("failed to marshal version info: %w", err)
	}
	return string(s), nil
}

// ToJSONIndent 是 version -o json 的输出
func (info Info) ToJSONIndent() (string, error) {
	s, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal version info: %w", err)
	}
	return string(s), nil
}

// Text 是 version 的默认输出：键右对齐的两栏
func (info Info) Text() string {
	table := uitable.New()
	table.RightAlign(0)
	table.MaxColWidth = 80
	table.Separator = " "
	table.AddRow("app:", info.App)
	table.AddRow("gitVersion:", info.GitVersion)
	table.AddRow("gitCommit:", info.GitCommit)
	if info.GitTreeState != "" {
		table.AddRow("gitTreeState:", info.GitTreeState)
	}
	table.AddRow("buildDate:", info.BuildDate)
	table.AddRow("goVersion:", info.GoVersion)
	table.AddRow("platform:", info.Platform)
	return table.String()
}

// Get 返回当前二进制的构建信息；ldflags 没有写入的字段从 debug.ReadBuildInfo 补齐
func Get() Info {
	info := Info{
		App:          AppName,
		GitVersion:   gitVersion,
		GitCommit:    gitCommit,
		GitTreeState: gitTreeState,
		BuildDate:    buildDate,
		GoVersion:    runtime.Version(),
		Platform:     fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		applyBuildInfo(&info, bi)
	}
	return info
}

func applyBuildInfo(info *Info, bi *debug.BuildInfo) {
	if info.GitVersion == devVersion && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		info.GitVersion = bi.Main.Version
	}
	for _, kv := range bi.Settings {
		switch kv.Key {
		case "vcs.revision":
			if info.GitCommit == noCommit {
				info.GitCommit = kv.Value
			}
		case "vcs.time":
			if info.BuildDate == noBuildDate {
				info.BuildDate = kv.Value
			}
		case "vcs.modified":
			if info.GitTreeState == "" {
				info.GitTreeState = "clean"
				if kv.Value == "true" {
					info.GitTreeState = "dirty"
				}
			}
		}
	}
}
