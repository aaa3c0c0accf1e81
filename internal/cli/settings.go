package cli

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/zhang-wangz/startHistoryAction/config"
	"github.com/zhang-wangz/startHistoryAction/starhistory"
)

const (
	envPrefix  = "STARHISTORY"
	configName = ".starhistory"
)

// Settings is the complete CLI configuration
type Settings struct {
	BaseURL string          `mapstructure:"base_url"`
	Token   string          `mapstructure:"token"`
	HTTP    HTTPSettings    `mapstructure:"http"`
	Example ExampleSettings `mapstructure:"example"`
	Log     LogSettings     `mapstructure:"log"`
	Output  OutputSettings  `mapstructure:"output"`
}

// HTTPSettings controls the client transport
type HTTPSettings struct {
	Timeout          time.Duration `mapstructure:"timeout"`
	Retries          int           `mapstructure:"retries"`
	CheckContentType bool          `mapstructure:"check_content_type"`
}

// ExampleSettings drives the default (no subcommand) run
type ExampleSettings struct {
	Repo   string `mapstructure:"repo"`
	Output string `mapstructure:"output"`
	Format string `mapstructure:"format"`
}

// LogSettings controls the slog handler
type LogSettings struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// OutputSettings controls terminal output
type OutputSettings struct {
	Color string `mapstructure:"color"`
}

func defaultSettings() map[string]any {
	return map[string]any{
		"base_url":                starhistory.DefaultBaseURL,
		"token":                   "",
		"http.timeout":            "0s",
		"http.retries":            0,
		"http.check_content_type": true,
		"example.repo":            "zhang-wangz/LeetCodeRating",
		"example.output":          "star_history.png",
		"example.format":          string(starhistory.FormatPNG),
		"log.level":               "info",
		"log.format":              "text",
		"output.color":            "auto",
	}
}

// flagBindings maps config keys to persistent flag names
var flagBindings = map[string]string{
	"base_url":     "base-url",
	"token":        "token",
	"http.timeout": "timeout",
	"http.retries": "retries",
	"output.color": "color",
}

func loadSettings(cfgFile string, flags *pflag.FlagSet) (*Settings, error) {
	return config.Load(cfgFile,
		config.WithDefaults[Settings](defaultSettings()),
		config.WithSearchPaths[Settings](configName, ".", "$HOME/.config/starhistory"),
		config.WithEnv[Settings](envPrefix),
		config.WithEnvBinding[Settings]("token", envPrefix+"_TOKEN", "GITHUB_TOKEN"),
		config.WithFlags[Settings](flags, flagBindings),
	)
}

func newLogger(w io.Writer, s LogSettings, verbose bool) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(s.Level))); err != nil {
		return nil, fmt.Errorf("log.level: %w", err)
	}
	if verbose {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}

	switch strings.ToLower(s.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("log.format %q: must be text or json", s.Format)
	}
}
