package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/reoring/recjson"
	eng "github.com/reoring/recjson/internal/engine"
	"github.com/reoring/recjson/internal/stream"
	"github.com/reoring/recjson/recio"
	"github.com/reoring/recjson/schema"
)

type convertOptions struct {
	In             string
	Out            string
	Schema         string
	Pretty         bool
	SingleObject   bool
	Legacy         bool
	Driver         string
	MaxDepth       int
	MaxBytes       int64
	DuplicateKeys  string
	Threshold      int
	InCompression  string
	OutCompression string
}

func newConvertCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &convertOptions{}

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Read JSON records and write them back as JSON",
		Long: `Read JSON records from --in (stdin by default) and write them to --out
(stdout by default). With --schema, records are classified into field lists,
transformed, and reduced to the declared fields.

Compressed streams are recognized by extension (.gz, .zst, .s2) unless
--in-compression / --out-compression say otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, rootOpts, opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.In, "in", "i", "-", "input file (- for stdin)")
	f.StringVarP(&opts.Out, "out", "o", "-", "output file (- for stdout)")
	f.StringVarP(&opts.Schema, "schema", "s", "", "YAML schema definition")
	f.BoolVar(&opts.Pretty, "pretty", false, "indent each written record")
	f.BoolVar(&opts.SingleObject, "single-object", false, "wrap all records in one JSON array instead of writing newline-separated objects")
	f.BoolVar(&opts.Legacy, "legacy", false, "use legacy generation defaults (array mode unless --single-object=false)")
	f.StringVar(&opts.Driver, "driver", "", "token driver (go-json|encoding/json)")
	f.IntVar(&opts.MaxDepth, "max-depth", 0, "maximum nesting depth of input (0 = unlimited)")
	f.Int64Var(&opts.MaxBytes, "max-bytes", 0, "maximum bytes of input (0 = unlimited)")
	f.StringVar(&opts.DuplicateKeys, "duplicate-keys", "ignore", "duplicate key policy (ignore|warn|error)")
	f.IntVar(&opts.Threshold, "threshold", 0, "validation failures tolerated before aborting (negative = unlimited)")
	f.StringVar(&opts.InCompression, "in-compression", "auto", "input compression (auto|none|gzip|zstd|s2)")
	f.StringVar(&opts.OutCompression, "out-compression", "auto", "output compression (auto|none|gzip|zstd|s2)")

	return cmd
}

func (o *convertOptions) recordOptions(cmd *cobra.Command) ([]recjson.Option, error) {
	var ropts []recjson.Option
	if o.Driver != "" {
		d, err := recjson.DriverByName(o.Driver)
		if err != nil {
			return nil, err
		}
		ropts = append(ropts, recjson.WithDriver(d))
	}
	if o.Legacy {
		ropts = append(ropts, recjson.WithGeneration(recjson.GenerationLegacy))
	}
	if cmd.Flags().Changed("single-object") {
		ropts = append(ropts, recjson.WithSingleObject(o.SingleObject))
	}
	dup, ok := eng.ParseDuplicateStrictness(o.DuplicateKeys)
	if !ok {
		return nil, fmt.Errorf("invalid --duplicate-keys %q: must be one of ignore, warn, error", o.DuplicateKeys)
	}
	ropts = append(ropts,
		recjson.WithPretty(o.Pretty),
		recjson.WithLimits(o.MaxDepth, o.MaxBytes),
		recjson.WithDuplicateKeys(dup),
	)
	return ropts, nil
}

func runConvert(cmd *cobra.Command, rootOpts *rootOptions, opts *convertOptions) error {
	ropts, err := opts.recordOptions(cmd)
	if err != nil {
		return err
	}
	reg := recio.NewRegistry()
	recjson.Register(reg, ropts...)
	return convert(cmd, rootOpts.logger(cmd.ErrOrStderr()), reg, opts)
}

// convert copies records between the streams named by opts using the reader
// and writer registered for JSON in reg. Streams are opened only after both
// have been constructed.
func convert(cmd *cobra.Command, log *slog.Logger, reg *recio.Registry, opts *convertOptions) error {
	var s schema.Schema
	if opts.Schema != "" {
		def, err := schema.LoadFile(opts.Schema, nil)
		if err != nil {
			return err
		}
		s = def
		log.Debug("schema loaded", "path", opts.Schema)
	}

	rd, err := reg.NewReader(recjson.Format)
	if err != nil {
		return err
	}
	wr, err := reg.NewWriter(recjson.Format)
	if err != nil {
		return err
	}

	in, err := openInput(cmd, opts.In, opts.InCompression)
	if err != nil {
		return err
	}
	out, err := openOutput(cmd, opts.Out, opts.OutCompression)
	if err != nil {
		in.Close()
		return err
	}

	if err := rd.Open(recio.IOContext{In: in, Schema: s, ValidationThreshold: opts.Threshold, Logger: log}); err != nil {
		in.Close()
		out.Close()
		return err
	}
	defer rd.Close(true)
	if err := wr.Open(recio.IOContext{Out: out, Logger: log}); err != nil {
		out.Close()
		return err
	}
	defer wr.Close(true)

	for {
		rec, err := rd.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("record %d: %w", rd.Count()+1, err)
		}
		if err := wr.Write(rec); err != nil {
			return fmt.Errorf("record %d: %w", rd.Count(), err)
		}
	}
	log.Info("converted", "records", wr.Count(), "in", opts.In, "out", opts.Out)
	return nil
}

// stdio streams are handed out without their Close method so that closing
// the record stream never closes the process's stdin or stdout.
type noCloseReader struct{ io.Reader }

type noCloseWriter struct{ io.Writer }

func openInput(cmd *cobra.Command, path, compression string) (io.ReadCloser, error) {
	c, err := stream.ParseCompression(compression)
	if err != nil {
		return nil, err
	}
	var r io.Reader
	if path == "-" || path == "" {
		r = noCloseReader{cmd.InOrStdin()}
	} else {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		r = f
	}
	rc, err := stream.NewReader(r, c.Resolve(path))
	if err != nil {
		if f, ok := r.(io.Closer); ok {
			f.Close()
		}
		return nil, err
	}
	return rc, nil
}

func openOutput(cmd *cobra.Command, path, compression string) (io.WriteCloser, error) {
	c, err := stream.ParseCompression(compression)
	if err != nil {
		return nil, err
	}
	var w io.Writer
	if path == "-" || path == "" {
		w = noCloseWriter{cmd.OutOrStdout()}
	} else {
		f, err := os.Create(path)
		if err != nil {
			return nil, err
		}
		w = f
	}
	wc, err := stream.NewWriter(w, c.Resolve(path))
	if err != nil {
		if f, ok := w.(io.Closer); ok {
			f.Close()
		}
		return nil, err
	}
	return wc, nil
}
