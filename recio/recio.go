// Package recio defines the record reader/writer contracts and an explicit
// registry mapping format names to their constructors.
package recio

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/reoring/recjson/record"
	"github.com/reoring/recjson/schema"
)

// IOContext binds a reader or writer to its stream and configuration.
type IOContext struct {
	In     io.Reader
	Out    io.Writer
	Schema schema.Schema
	// ValidationThreshold is the number of validation failures tolerated;
	// negative tolerates any number.
	ValidationThreshold int
	// Attributes are format options such as "pretty" or "singleObject".
	// Schema format attributes apply first; entries here override them.
	Attributes map[string]string
	Logger     *slog.Logger
}

// Attribute returns the named attribute, consulting Attributes and then the
// schema format.
func (c IOContext) Attribute(name string) (string, bool) {
	if v, ok := c.Attributes[name]; ok {
		return v, true
	}
	if c.Schema != nil {
		v, ok := c.Schema.Format()[name]
		return v, ok
	}
	return "", false
}

// MergedAttributes returns schema format attributes overlaid with Attributes.
func (c IOContext) MergedAttributes() map[string]string {
	out := map[string]string{}
	if c.Schema != nil {
		for k, v := range c.Schema.Format() {
			out[k] = v
		}
	}
	for k, v := range c.Attributes {
		out[k] = v
	}
	return out
}

// RecordReader produces records from a stream. Read returns io.EOF once no
// further record remains.
type RecordReader interface {
	Open(ctx IOContext) error
	Read() (*record.Record, error)
	Count() int64
	Close(closeStream bool)
}

// RecordWriter serializes records to a stream.
type RecordWriter interface {
	Open(ctx IOContext) error
	Write(r *record.Record) error
	Count() int64
	Close(closeStream bool)
}

// ReaderFactory constructs an unopened reader.
type ReaderFactory func() RecordReader

// WriterFactory constructs an unopened writer.
type WriterFactory func() RecordWriter

// Registry maps format discriminators to reader and writer factories.
// Discriminators are case-insensitive.
type Registry struct {
	mu      sync.RWMutex
	readers map[string]ReaderFactory
	writers map[string]WriterFactory
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{readers: map[string]ReaderFactory{}, writers: map[string]WriterFactory{}}
}

func normalize(format string) string { return strings.ToUpper(strings.TrimSpace(format)) }

// RegisterReader associates format with f, replacing any earlier factory.
func (r *Registry) RegisterReader(format string, f ReaderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readers[normalize(format)] = f
}

// RegisterWriter associates format with f, replacing any earlier factory.
func (r *Registry) RegisterWriter(format string, f WriterFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writers[normalize(format)] = f
}

// NewReader constructs a reader for format.
func (r *Registry) NewReader(format string) (RecordReader, error) {
	r.mu.RLock()
	f, ok := r.readers[normalize(format)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no reader registered for format %q", format)
	}
	return f(), nil
}

// NewWriter constructs a writer for format.
func (r *Registry) NewWriter(format string) (RecordWriter, error) {
	r.mu.RLock()
	f, ok := r.writers[normalize(format)]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("no writer registered for format %q", format)
	}
	return f(), nil
}

// Formats lists every discriminator with a reader or writer, sorted.
func (r *Registry) Formats() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := map[string]struct{}{}
	for k := range r.readers {
		seen[k] = struct{}{}
	}
	for k := range r.writers {
		seen[k] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
