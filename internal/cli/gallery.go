package cli

import (
	"fmt"
	"text/tabwriter"

	"glance/internal/domain"

	"github.com/spf13/cobra"
)

func galleryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gallery",
		Short: "List the widget types that can be added",
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "TYPE\tNAME\tSIZE\tDESCRIPTION")
			for _, d := range domain.AllDefinitions() {
				fmt.Fprintf(tw, "%s\t%s\t%dx%d\t%s\n", d.Type, d.Name, d.DefaultSize.Width, d.DefaultSize.Height, d.Description)
			}
			return tw.Flush()
		},
	}
}
