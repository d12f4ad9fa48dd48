package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/reoring/recjson"
	"github.com/reoring/recjson/recio"
	"github.com/reoring/recjson/source"
)

func newFormatsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "formats",
		Short: "List registered record formats and token drivers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			reg := recio.NewRegistry()
			recjson.Register(reg)
			out := cmd.OutOrStdout()
			for _, f := range reg.Formats() {
				fmt.Fprintln(out, f)
			}
			for _, d := range source.Names() {
				marker := ""
				if d == source.Default().Name() {
					marker = " (default)"
				}
				fmt.Fprintf(out, "  driver %s%s\n", d, marker)
			}
			return nil
		},
	}
}
