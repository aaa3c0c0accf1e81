// Package cli contains the starhistory commands
package cli

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zhang-wangz/startHistoryAction/httpx"
	"github.com/zhang-wangz/startHistoryAction/internal/output"
	"github.com/zhang-wangz/startHistoryAction/starhistory"
	"github.com/zhang-wangz/startHistoryAction/version"
)

// app holds the state shared by all commands of one invocation
type app struct {
	cfgFile string
	verbose bool

	settings *Settings
	logger   *slog.Logger
	printer  *output.Printer
	client   *starhistory.Client
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	return newRootCommand(&app{})
}

func newRootCommand(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   version.AppName,
		Short: "star-history client",
		Long: `starhistory talks to a star-history service for GitHub repositories.

Without a subcommand it runs the example: fetch the star history of
example.repo, print it, then save a PNG chart to example.output.

Example usage:
  starhistory                                  # run the example
  starhistory star zhang-wangz/LeetCodeRating  # print star history JSON
  starhistory chart owner/repo -f stars.svg    # save an SVG chart
  starhistory version -o json                  # print build information`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExample(cmd.Context())
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.cfgFile, "config", "", "config file (default is .starhistory.yaml)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "verbose output")
	pf.String("base-url", starhistory.DefaultBaseURL, "star-history service base URL")
	pf.String("token", "", "GitHub token (default $GITHUB_TOKEN)")
	pf.Duration("timeout", 0, "per-call timeout, 0 disables it")
	pf.Int("retries", 0, "extra attempts for idempotent requests on transient failures")
	pf.String("color", "auto", "color output: auto, always, never")

	rootCmd.AddCommand(
		newStarCommand(a),
		newChartCommand(a),
		newVersionCommand(),
	)
	return rootCmd
}

// Execute runs the root command until it finishes or the process is interrupted
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCommand().ExecuteContext(ctx)
}

// setup loads settings and wires logger, printer and client
func (a *app) setup(cmd *cobra.Command) error {
	s, err := loadSettings(a.cfgFile, cmd.Root().PersistentFlags())
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	a.settings = s

	a.logger, err = newLogger(cmd.ErrOrStderr(), s.Log, a.verbose)
	if err != nil {
		return err
	}

	mode, err := output.ParseColorMode(s.Output.Color)
	if err != nil {
		return err
	}
	a.printer = output.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	cfg := starhistory.DefaultConfig()
	cfg.BaseURL = s.BaseURL
	cfg.Timeout = s.HTTP.Timeout
	cfg.UserAgent = version.Get().UserAgent()
	cfg.Logger = a.logger
	cfg.CheckContentType = s.HTTP.CheckContentType
	if s.HTTP.Retries > 0 {
		cfg.Retry = httpx.DefaultRetryConfig()
		cfg.Retry.MaxAttempts = s.HTTP.Retries + 1
	}

	a.client, err = starhistory.NewWithConfig(cfg)
	if err != nil {
		return fmt.Errorf("creating client: %w", err)
	}

	a.logger.Debug("configuration loaded",
		"base_url", a.client.BaseURL(),
		"timeout", s.HTTP.Timeout,
		"retries", s.HTTP.Retries,
		"token_set", s.Token != "",
	)
	return nil
}

// runExample 获取 star 历史并保存 PNG 图表，失败只记日志
func (a *app) runExample(ctx context.Context) error {
	ex := a.settings.Example
	format, err := starhistory.ParseFormat(ex.Format)
	if err != nil {
		return fmt.Errorf("example.format: %w", err)
	}

	data := a.client.GetStarHistory(ctx, ex.Repo, a.settings.Token)
	if !data.Empty() {
		a.printer.Print("\nStar历史数据:")
		if err := a.printer.JSON(data); err != nil {
			return err
		}
	}

	a.client.GetChart(ctx, ex.Repo, ex.Output, a.settings.Token, starhistory.ChartDate, format)
	return nil
}

// explain prints a hint for well-known service failures
func (a *app) explain(err error) {
	switch {
	case starhistory.IsNotFound(err):
		a.printer.Warning("仓库不存在，请检查 owner/repo 是否正确")
	case starhistory.IsRateLimited(err):
		a.printer.Warning("GitHub API 请求次数超限，请设置 GITHUB_TOKEN 或 --token")
	case starhistory.IsUnauthorized(err):
		a.printer.Warning("GitHub Token 无效或已过期")
	case starhistory.IsNoHistory(err):
		a.printer.Warning("该仓库没有 star 历史")
	case starhistory.IsKind(err, starhistory.KindTransport):
		a.printer.Warning("无法连接服务 %s", a.client.BaseURL())
	}

	if se, ok := starhistory.AsError(err); ok && len(se.Body) > 0 {
		a.printer.Error("错误详情: %s", bytes.TrimSpace(se.Body))
	}
}
