package transform

import (
	"time"

	rerrors "github.com/reoring/recjson/internal/errors"
	"github.com/reoring/recjson/value"
)

// newRFC3339 normalizes RFC 3339 timestamps to UTC in their shortest
// RFC3339Nano form. With "layout" set, strings are parsed with that layout
// instead. Non-string values pass through.
func newRFC3339(p Params) (Operation, error) {
	layout := p["layout"]
	return Func{OpName: "rfc3339", Fn: func(v value.Value, ctx *Context) (value.Value, error) {
		s, ok := v.(value.String)
		if !ok {
			return v, nil
		}
		t, err := parseTime(string(s), layout)
		if err != nil {
			return v, rerrors.NewValidationError(ctx.Key, "invalid RFC3339 time: "+err.Error())
		}
		return value.String(t.UTC().Format(time.RFC3339Nano)), nil
	}}, nil
}

func parseTime(s, layout string) (time.Time, error) {
	if layout != "" {
		return time.Parse(layout, s)
	}
	// RFC3339Nano also accepts inputs without fractional seconds.
	return time.Parse(time.RFC3339Nano, s)
}
