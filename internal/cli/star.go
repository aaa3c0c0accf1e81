package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhang-wangz/startHistoryAction/internal/output"
	"github.com/zhang-wangz/startHistoryAction/starhistory"
)

func newStarCommand(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "star <owner/repo>",
		Short: "Print the star history of a repository",
		Long: `Fetch the star history of a repository from /api/star.

Output formats:
  json   indented JSON (default)
  table  one row per star record
  raw    the response body as received`,
		Example: `  starhistory star zhang-wangz/LeetCodeRating
  starhistory star owner/repo -o table --token $GITHUB_TOKEN`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			switch format {
			case "json", "table", "raw":
			default:
				return fmt.Errorf("invalid output format %q: must be json, table, or raw", format)
			}

			h, err := a.client.FetchStarHistory(cmd.Context(), starhistory.StarHistoryRequest{
				Repo:  args[0],
				Token: a.settings.Token,
			})
			if err != nil {
				a.explain(err)
				return err
			}
			a.logger.Debug("star history fetched", "repo", args[0], "bytes", len(h.Raw()))

			switch format {
			case "raw":
				return a.printer.Raw(h.Raw())
			case "table":
				records, err := h.Records()
				if err != nil {
					return err
				}
				if len(records) == 0 {
					a.printer.Warning("%s 没有 star 记录", args[0])
					return nil
				}
				return output.RecordsTable(a.printer.Out(), records)
			default:
				return a.printer.JSON(h)
			}
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "json", "output format: json, table, raw")
	return cmd
}
