package engine

import (
	"strconv"
	"strings"

	rerrors "github.com/reoring/recjson/internal/errors"
)

// Enforcement wrapper for TokenSource to apply duplicate key handling,
// max depth checks, and max bytes truncation in a streaming fashion.

// DuplicateStrictness controls how repeated object keys are treated.
type DuplicateStrictness int

const (
	// DupIgnore keeps the last value silently.
	DupIgnore DuplicateStrictness = iota
	// DupWarn keeps the last value and reports an issue to the sink.
	DupWarn
	// DupError fails the read.
	DupError
)

// ParseDuplicateStrictness maps "ignore", "warn" and "error" to a DuplicateStrictness.
func ParseDuplicateStrictness(s string) (DuplicateStrictness, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "ignore":
		return DupIgnore, true
	case "warn":
		return DupWarn, true
	case "error":
		return DupError, true
	}
	return DupIgnore, false
}

// SimpleIssue is a lightweight, non-fatal observation about the input.
type SimpleIssue struct {
	Code    rerrors.Kind
	Path    string
	Offset  int64
	Message string
}

// EnforceOptions controls runtime enforcement behavior.
type EnforceOptions struct {
	OnDuplicate DuplicateStrictness
	MaxDepth    int
	MaxBytes    int64
	// IssueSink receives every issue, fatal or not. Optional.
	IssueSink func(SimpleIssue)
}

// Enabled reports whether any check is active.
func (o EnforceOptions) Enabled() bool {
	return o.OnDuplicate != DupIgnore || o.MaxDepth > 0 || o.MaxBytes > 0
}

type containerKind int

const (
	kindObject containerKind = iota
	kindArray
)

type frame struct {
	kind         containerKind
	keys         map[string]struct{}
	expectingKey bool
	path         string
	nextIndex    int
	pendingKey   string
}

// WrapWithEnforcement returns a TokenSource that enforces duplicate key policy,
// maximum nesting depth, and maximum consumed bytes.
func WrapWithEnforcement(inner TokenSource, opt EnforceOptions) TokenSource {
	return &enforcingTokenSource{inner: inner, opt: opt}
}

type enforcingTokenSource struct {
	inner TokenSource
	opt   EnforceOptions
	stack []frame
}

func (e *enforcingTokenSource) NextToken() (Token, error) {
	tok, err := e.inner.NextToken()
	if err != nil {
		return Token{}, err
	}

	path := normalizeIssuePath(e.pathForToken(tok))

	switch tok.Kind {
	case KindBeginObject, KindBeginArray:
		f := frame{kind: kindArray, path: path}
		if tok.Kind == KindBeginObject {
			f = frame{kind: kindObject, keys: make(map[string]struct{}), expectingKey: true, path: path}
		}
		if path == "/" {
			f.path = ""
		}
		e.stack = append(e.stack, f)
		if e.opt.MaxDepth > 0 && len(e.stack) > e.opt.MaxDepth {
			return Token{}, e.fail(rerrors.NewLimitError(path, tok.Offset, "max depth exceeded"))
		}
	case KindEndObject, KindEndArray:
		if n := len(e.stack); n > 0 {
			e.stack = e.stack[:n-1]
		}
		e.valueDone()
	case KindKey:
		if n := len(e.stack); n > 0 {
			top := &e.stack[n-1]
			if top.kind == kindObject && top.expectingKey {
				if _, dup := top.keys[tok.String]; dup && e.opt.OnDuplicate != DupIgnore {
					de := rerrors.NewDuplicateKeyError(path, tok.Offset, tok.String)
					if e.opt.OnDuplicate == DupError {
						return Token{}, e.fail(de)
					}
					e.report(de)
				}
				top.keys[tok.String] = struct{}{}
				top.expectingKey = false
				top.pendingKey = tok.String
			}
		}
	case KindString, KindNumber, KindBool, KindNull:
		e.valueDone()
	}

	if e.opt.MaxBytes > 0 {
		if off := e.Location(); off > e.opt.MaxBytes {
			return Token{}, e.fail(rerrors.NewLimitError(path, off, "max bytes exceeded"))
		}
	}

	return tok, nil
}

func (e *enforcingTokenSource) valueDone() {
	if n := len(e.stack); n > 0 {
		top := &e.stack[n-1]
		if top.kind == kindObject && !top.expectingKey {
			top.expectingKey = true
			top.pendingKey = ""
		}
	}
}

func (e *enforcingTokenSource) report(err *rerrors.Error) {
	if e.opt.IssueSink != nil {
		e.opt.IssueSink(SimpleIssue{Code: err.Kind, Path: err.Path, Offset: err.Offset, Message: err.Message})
	}
}

func (e *enforcingTokenSource) fail(err *rerrors.Error) error {
	e.report(err)
	return err
}

func (e *enforcingTokenSource) pathForToken(tok Token) string {
	if len(e.stack) == 0 {
		return ""
	}
	top := &e.stack[len(e.stack)-1]
	switch tok.Kind {
	case KindKey:
		return joinJSONPointer(top.path, tok.String)
	case KindBeginObject, KindBeginArray, KindString, KindNumber, KindBool, KindNull:
		if top.kind == kindArray {
			p := joinJSONPointer(top.path, strconv.Itoa(top.nextIndex))
			top.nextIndex++
			return p
		}
		if !top.expectingKey {
			return joinJSONPointer(top.path, top.pendingKey)
		}
	}
	return top.path
}

func normalizeIssuePath(p string) string {
	if p == "" {
		return "/"
	}
	return p
}

var jsonPointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func joinJSONPointer(base, token string) string {
	return base + "/" + jsonPointerEscaper.Replace(token)
}

func (e *enforcingTokenSource) Location() int64 { return e.inner.Location() }
