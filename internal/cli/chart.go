package cli

import (
	"github.com/spf13/cobra"

	"github.com/zhang-wangz/startHistoryAction/starhistory"
)

func newChartCommand(a *app) *cobra.Command {
	var (
		file      string
		chartType string
		format    string
	)

	cmd := &cobra.Command{
		Use:   "chart <owner/repo>",
		Short: "Save the star history chart of a repository",
		Long: `Fetch a chart from /api/chart and write it to a file.

PNG charts are written byte for byte, SVG charts as UTF-8 text. The file
is only replaced once the whole chart has been received.`,
		Example: `  starhistory chart zhang-wangz/LeetCodeRating
  starhistory chart owner/repo --format png -f stars.png
  starhistory chart owner/repo --type Timeline`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := starhistory.ParseChartType(chartType)
			if err != nil {
				return err
			}
			f, err := starhistory.ParseFormat(format)
			if err != nil {
				return err
			}
			path := file
			if path == "" {
				path = "star_history" + f.Ext()
			}

			chart, err := a.client.FetchChart(cmd.Context(), starhistory.ChartRequest{
				Repo:   args[0],
				Token:  a.settings.Token,
				Type:   t,
				Format: f,
			}, path)
			if err != nil {
				a.explain(err)
				return err
			}

			a.logger.Debug("chart saved", "path", chart.Path, "content_type", chart.ContentType, "bytes", chart.Size)
			a.printer.Success("图表已保存到: %s", chart.Path)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "output file (default star_history.<format>)")
	cmd.Flags().StringVar(&chartType, "type", string(starhistory.ChartDate), "chart type: Date, Timeline")
	cmd.Flags().StringVar(&format, "format", string(starhistory.FormatSVG), "chart format: svg, png")
	return cmd
}
