package main

import (
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/reoring/recjson/i18n"
)

// rootOptions holds global flags for all commands.
type rootOptions struct {
	Verbose bool
	Lang    string
}

func (o *rootOptions) logger(w io.Writer) *slog.Logger {
	level := slog.LevelInfo
	if o.Verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *rootOptions) describe(err error) string {
	return i18n.Describe(i18n.New(o.Lang), err)
}

func newRootCommand() (*cobra.Command, *rootOptions) {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "recjson",
		Short: "Convert JSON record streams",
		Long: `recjson reads JSON objects (a single object, an array of objects or a
sequence of bare objects) as generic records and writes them back as JSON,
optionally filtering and transforming them through a YAML schema.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Lang, "lang", "en", "language of error messages (en|ja)")

	cmd.AddCommand(newConvertCommand(opts))
	cmd.AddCommand(newFormatsCommand())

	return cmd, opts
}
