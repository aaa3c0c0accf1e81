package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/zhang-wangz/startHistoryAction/version"
)

func newVersionCommand() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, build information, and Go runtime version.`,
		Args:  cobra.NoArgs,
		// version 不需要配置和客户端
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			w := cmd.OutOrStdout()

			switch format {
			case "json":
				s, err := info.ToJSONIndent()
				if err != nil {
					return err
				}
				fmt.Fprintln(w, s)
			case "short":
				fmt.Fprintln(w, info.ShortString())
			case "text", "":
				fmt.Fprintln(w, info.Text())
			default:
				return fmt.Errorf("invalid output format %q: must be text, json, or short", format)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "output", "o", "text", "output format: text, json, short")
	return cmd
}
