package recjson

import "github.com/reoring/recjson/recio"

// Format is the discriminator this package registers under.
const Format = "JSON"

// Register adds the JSON reader and writer to reg. opts become the defaults
// of every instance the registry constructs.
func Register(reg *recio.Registry, opts ...Option) {
	reg.RegisterReader(Format, func() recio.RecordReader { return NewReader(opts...) })
	reg.RegisterWriter(Format, func() recio.RecordWriter { return NewWriter(opts...) })
}
