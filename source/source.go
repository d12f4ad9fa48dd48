// Package source selects the JSON tokenizer used by record readers.
//
// Drivers are picked explicitly per reader; there is no process-wide default
// that can be swapped at runtime.
package source

import (
	"fmt"
	"io"
	"sort"
	"strings"

	eng "github.com/reoring/recjson/internal/engine"
	"github.com/reoring/recjson/source/gojson"
	jsonsrc "github.com/reoring/recjson/source/json"
)

// Driver turns a byte stream into JSON tokens.
type Driver interface {
	Name() string
	NewReader(r io.Reader) eng.TokenSource
}

var drivers = map[string]Driver{
	gojson.Name:  gojson.Driver{},
	"gojson":     gojson.Driver{},
	jsonsrc.Name: jsonsrc.Driver{},
	"json":       jsonsrc.Driver{},
	"std":        jsonsrc.Driver{},
}

// Default returns the go-json driver.
func Default() Driver { return gojson.Driver{} }

// ByName resolves a driver by name or alias. Empty selects Default.
func ByName(name string) (Driver, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return Default(), nil
	}
	if d, ok := drivers[name]; ok {
		return d, nil
	}
	return nil, fmt.Errorf("unknown JSON driver %q (known: %s)", name, strings.Join(Names(), ", "))
}

// Names lists the canonical driver names.
func Names() []string {
	seen := map[string]struct{}{}
	for _, d := range drivers {
		seen[d.Name()] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}
