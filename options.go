package recjson

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	eng "github.com/reoring/recjson/internal/engine"
	rerrors "github.com/reoring/recjson/internal/errors"
	"github.com/reoring/recjson/source"
)

// Generation selects the envelope defaults of one of the two historical
// generations of the format. Only the default of SingleObject differs.
type Generation int

const (
	// GenerationCurrent writes newline-separated bare objects unless told otherwise.
	GenerationCurrent Generation = iota
	// GenerationLegacy writes an array envelope unless told otherwise.
	GenerationLegacy
)

func (g Generation) String() string {
	if g == GenerationLegacy {
		return "legacy"
	}
	return "current"
}

// DefaultSingleObject reports the envelope default for g.
func (g Generation) DefaultSingleObject() bool { return g == GenerationLegacy }

// ParseGeneration accepts "current" or "legacy".
func ParseGeneration(s string) (Generation, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "current":
		return GenerationCurrent, nil
	case "legacy":
		return GenerationLegacy, nil
	}
	return GenerationCurrent, fmt.Errorf("unknown generation %q (want current or legacy)", s)
}

// DuplicateKeyPolicy controls repeated keys inside one JSON object.
type DuplicateKeyPolicy = eng.DuplicateStrictness

const (
	DuplicateKeysIgnore = eng.DupIgnore
	DuplicateKeysWarn   = eng.DupWarn
	DuplicateKeysError  = eng.DupError
)

// Attribute names understood by OptionsFromAttributes.
const (
	AttrPretty        = "pretty"
	AttrSingleObject  = "singleObject"
	AttrGeneration    = "generation"
	AttrDriver        = "driver"
	AttrMaxDepth      = "maxDepth"
	AttrMaxBytes      = "maxBytes"
	AttrDuplicateKeys = "duplicateKeys"
)

// Options configures a Reader or Writer.
type Options struct {
	// Pretty indents each written record. Whitespace between records is unaffected.
	Pretty bool
	// SingleObject wraps all written records in one JSON array. False writes bare
	// objects separated by newlines. Unset, it follows the Generation default.
	SingleObject *bool
	Generation   Generation
	// Driver tokenizes input on read. Nil selects source.Default().
	Driver source.Driver
	// MaxDepth and MaxBytes bound read input; zero means unlimited.
	MaxDepth       int
	MaxBytes       int64
	OnDuplicateKey DuplicateKeyPolicy
	Logger         *slog.Logger
}

// Option mutates Options.
type Option func(*Options)

// WithPretty toggles indented output.
func WithPretty(pretty bool) Option { return func(o *Options) { o.Pretty = pretty } }

// WithSingleObject selects array mode (true) or line mode (false) explicitly.
func WithSingleObject(single bool) Option {
	return func(o *Options) { o.SingleObject = &single }
}

// WithGeneration selects the generation whose defaults apply.
func WithGeneration(g Generation) Option { return func(o *Options) { o.Generation = g } }

// WithDriver selects the token driver used on read.
func WithDriver(d source.Driver) Option { return func(o *Options) { o.Driver = d } }

// WithLogger sets the logger used when the IOContext carries none.
func WithLogger(l *slog.Logger) Option { return func(o *Options) { o.Logger = l } }

// WithLimits bounds nesting depth and consumed bytes on read.
func WithLimits(maxDepth int, maxBytes int64) Option {
	return func(o *Options) {
		o.MaxDepth = maxDepth
		o.MaxBytes = maxBytes
	}
}

// WithDuplicateKeys sets the duplicate key policy on read.
func WithDuplicateKeys(p DuplicateKeyPolicy) Option {
	return func(o *Options) { o.OnDuplicateKey = p }
}

func buildOptions(opts []Option) Options {
	var o Options
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

// IsSingleObject resolves SingleObject against the generation default.
func (o Options) IsSingleObject() bool {
	if o.SingleObject != nil {
		return *o.SingleObject
	}
	return o.Generation.DefaultSingleObject()
}

func (o Options) driver() source.Driver {
	if o.Driver == nil {
		return source.Default()
	}
	return o.Driver
}

func (o Options) enforcement() eng.EnforceOptions {
	return eng.EnforceOptions{OnDuplicate: o.OnDuplicateKey, MaxDepth: o.MaxDepth, MaxBytes: o.MaxBytes}
}

// DriverByName resolves a token driver: "go-json" (default) or "encoding/json".
func DriverByName(name string) (source.Driver, error) { return source.ByName(name) }

// OptionsFromAttributes overlays format attributes onto base. Unknown
// attributes, such as "type", are ignored.
func OptionsFromAttributes(attrs map[string]string, base Options) (Options, error) {
	o := base
	for name, raw := range attrs {
		v := strings.TrimSpace(raw)
		var err error
		switch name {
		case AttrPretty:
			o.Pretty, err = strconv.ParseBool(v)
		case AttrSingleObject:
			var b bool
			if b, err = strconv.ParseBool(v); err == nil {
				o.SingleObject = &b
			}
		case AttrGeneration:
			o.Generation, err = ParseGeneration(v)
		case AttrDriver:
			o.Driver, err = DriverByName(v)
		case AttrMaxDepth:
			o.MaxDepth, err = strconv.Atoi(v)
		case AttrMaxBytes:
			o.MaxBytes, err = strconv.ParseInt(v, 10, 64)
		case AttrDuplicateKeys:
			var ok bool
			if o.OnDuplicateKey, ok = eng.ParseDuplicateStrictness(v); !ok {
				err = fmt.Errorf("want ignore, warn or error")
			}
		default:
			continue
		}
		if err != nil {
			return base, rerrors.NewPreconditionError("open", fmt.Sprintf("attribute %s=%q: %v", name, raw, err))
		}
	}
	return o, nil
}

func (o Options) logger(fromCtx *slog.Logger) *slog.Logger {
	switch {
	case fromCtx != nil:
		return fromCtx
	case o.Logger != nil:
		return o.Logger
	}
	return slog.Default()
}
