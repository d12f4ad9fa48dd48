// Package transform runs per-field operation pipelines against records.
//
// A Context carries the record under transformation, the key being produced
// and the running record count. Operations are applied by a Surgeon; failures
// of kind validation are tolerated up to the context's threshold.
package transform

import (
	"log/slog"

	"github.com/reoring/recjson/record"
)

// Context is the state an Operation sees. It is reused across fields and
// records of one stream.
type Context struct {
	Record      *record.Record
	Key         string
	RecordCount int64
	Logger      *slog.Logger

	threshold int
	failures  int
}

// NewContext returns a Context tolerating up to threshold validation failures.
// A negative threshold tolerates any number.
func NewContext(threshold int, logger *slog.Logger) *Context {
	if logger == nil {
		logger = slog.Default()
	}
	return &Context{threshold: threshold, Logger: logger}
}

// Threshold returns the number of validation failures tolerated.
func (c *Context) Threshold() int { return c.threshold }

// Failures returns the number of validation failures seen so far.
func (c *Context) Failures() int { return c.failures }

// At points the context at key of r.
func (c *Context) At(r *record.Record, key string) *Context {
	c.Record = r
	c.Key = key
	return c
}

func (c *Context) logger() *slog.Logger {
	if c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}
