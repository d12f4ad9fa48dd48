package engine

import (
	"errors"
	"fmt"
	"io"

	rerrors "github.com/reoring/recjson/internal/errors"
	"github.com/reoring/recjson/value"
)

// Kind represents token kinds from a generic source.
type Kind int

const (
	KindBeginObject Kind = iota
	KindEndObject
	KindBeginArray
	KindEndArray
	KindKey
	KindString
	KindNumber
	KindBool
	KindNull
)

func (k Kind) String() string {
	switch k {
	case KindBeginObject:
		return "begin-object"
	case KindEndObject:
		return "end-object"
	case KindBeginArray:
		return "begin-array"
	case KindEndArray:
		return "end-array"
	case KindKey:
		return "key"
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	case KindNull:
		return "null"
	default:
		return "unknown"
	}
}

// Token represents a streaming token with approximate input offset.
type Token struct {
	Kind   Kind
	String string // key or string value
	Number string // number text, interpreted by value.FromNumberText
	Bool   bool
	Offset int64
}

// TokenSource is a minimal pull interface over a JSON token stream.
// NextToken returns io.EOF once the input is exhausted between top-level values.
type TokenSource interface {
	NextToken() (Token, error)
	Location() int64
}

// BuildValue builds a value tree whose first token has already been read.
// present is false when the value is a JSON null, so the caller omits the key or
// element instead of storing it.
func BuildValue(src TokenSource, first Token) (v value.Value, present bool, err error) {
	switch first.Kind {
	case KindBeginObject:
		m, err := buildObject(src)
		if err != nil {
			return nil, false, err
		}
		return m, true, nil
	case KindBeginArray:
		l, err := buildList(src)
		if err != nil {
			return nil, false, err
		}
		return l, true, nil
	case KindString:
		return value.String(first.String), true, nil
	case KindNumber:
		n, err := value.FromNumberText(first.Number)
		if err != nil {
			var re *rerrors.Error
			if errors.As(err, &re) {
				c := *re
				c.Offset = first.Offset
				return nil, false, &c
			}
			return nil, false, err
		}
		return n, true, nil
	case KindBool:
		return value.Bool(first.Bool), true, nil
	case KindNull:
		return nil, false, nil
	default:
		return nil, false, unexpected(first)
	}
}

// BuildObject reads the members of an object whose begin token was already consumed.
func BuildObject(src TokenSource) (*value.Map, error) { return buildObject(src) }

func buildObject(src TokenSource) (*value.Map, error) {
	m := value.NewMap()
	for {
		tok, err := next(src)
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndObject {
			return m, nil
		}
		if tok.Kind != KindKey {
			return nil, unexpected(tok)
		}
		vt, err := next(src)
		if err != nil {
			return nil, err
		}
		v, present, err := BuildValue(src, vt)
		if err != nil {
			return nil, err
		}
		if !present {
			continue
		}
		m.Put(tok.String, v)
	}
}

func buildList(src TokenSource) (value.List, error) {
	l := value.List{}
	for {
		tok, err := next(src)
		if err != nil {
			return nil, err
		}
		if tok.Kind == KindEndArray {
			return l, nil
		}
		v, present, err := BuildValue(src, tok)
		if err != nil {
			return nil, err
		}
		if !present {
			continue
		}
		l = append(l, v)
	}
}

// next reads a token inside a container, where running out of input is malformed.
func next(src TokenSource) (Token, error) {
	tok, err := src.NextToken()
	if err == nil {
		return tok, nil
	}
	if errors.Is(err, io.EOF) {
		return Token{}, rerrors.NewMalformedInputError(src.Location(), io.ErrUnexpectedEOF)
	}
	return Token{}, AsMalformed(src, err)
}

// AsMalformed classifies a token source failure. Errors that already carry a
// kind pass through unchanged; anything else is malformed input.
func AsMalformed(src TokenSource, err error) error {
	var re *rerrors.Error
	if errors.As(err, &re) {
		return err
	}
	return rerrors.NewMalformedInputError(src.Location(), err)
}

func unexpected(tok Token) error {
	return rerrors.NewMalformedInputError(tok.Offset, fmt.Errorf("unexpected %s token", tok.Kind))
}

// KeyTracker tells object keys apart from string values for decoders whose
// token streams do not distinguish them.
type KeyTracker struct {
	// one entry per open container: true for an object awaiting a key
	stack   []bool
	objects []bool
}

// Begin records an opened container.
func (k *KeyTracker) Begin(object bool) {
	k.stack = append(k.stack, object)
	k.objects = append(k.objects, object)
}

// End records a closed container, which completes a member value in the parent.
func (k *KeyTracker) End() {
	if n := len(k.stack); n > 0 {
		k.stack = k.stack[:n-1]
		k.objects = k.objects[:n-1]
	}
	k.Value()
}

// Value records a scalar, which completes a member value in an enclosing object.
func (k *KeyTracker) Value() {
	if n := len(k.stack); n > 0 && k.objects[n-1] {
		k.stack[n-1] = true
	}
}

// IsKey reports whether a string arriving now is an object key, and consumes it.
func (k *KeyTracker) IsKey() bool {
	n := len(k.stack)
	if n == 0 || !k.stack[n-1] {
		return false
	}
	k.stack[n-1] = false
	return true
}
