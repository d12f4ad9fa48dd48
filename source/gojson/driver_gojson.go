package gojson

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	j "github.com/goccy/go-json"

	eng "github.com/reoring/recjson/internal/engine"
	rerrors "github.com/reoring/recjson/internal/errors"
	"github.com/reoring/recjson/internal/stream"
)

// Name identifies this driver.
const Name = "go-json"

// Driver tokenizes JSON with its own grammar-checking scanner and decodes
// escaped string literals with goccy/go-json.
type Driver struct{}

// Name returns "go-json".
func (Driver) Name() string { return Name }

// NewReader wraps r into a token source.
func (Driver) NewReader(r io.Reader) eng.TokenSource { return NewReader(r) }

// expect is what the scanner accepts next inside one open container.
type expect int

const (
	expectFirst      expect = iota // key or '}' / value or ']'
	expectKey                      // after ',' in an object
	expectColon                    // after a key
	expectValue                    // after ':' or after ',' in an array
	expectCommaOrEnd               // after a member value
)

type frame struct {
	object bool
	state  expect
}

type source struct {
	r      *bufio.Reader
	count  *stream.CountingReader
	frames []frame
	lit    []byte
	err    error
}

// NewReader wraps an io.Reader into an engine.TokenSource for JSON.
// Commas, colons and bracket pairing are checked as tokens are produced, so
// malformed input fails at the offending byte.
func NewReader(r io.Reader) eng.TokenSource {
	cr := stream.NewCountingReader(r)
	return &source{r: bufio.NewReader(cr), count: cr}
}

// NewBytes wraps a byte slice into an engine.TokenSource for JSON.
func NewBytes(b []byte) eng.TokenSource { return NewReader(bytes.NewReader(b)) }

// Location returns the number of bytes consumed by the scanner.
func (s *source) Location() int64 { return s.count.Count() - int64(s.r.Buffered()) }

func (s *source) NextToken() (eng.Token, error) {
	if s.err != nil {
		return eng.Token{}, s.err
	}
	tok, err := s.scan()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			s.err = err
		}
		return eng.Token{}, err
	}
	tok.Offset = s.Location()
	return tok, nil
}

func (s *source) scan() (eng.Token, error) {
	for {
		c, err := s.skipSpace()
		if err != nil {
			if errors.Is(err, io.EOF) && len(s.frames) > 0 {
				return eng.Token{}, s.malformed(io.ErrUnexpectedEOF)
			}
			return eng.Token{}, err
		}
		top := s.top()
		if top == nil {
			return s.value(c)
		}

		switch top.state {
		case expectColon:
			if c != ':' {
				return eng.Token{}, s.unexpected(c, "':' after object key")
			}
			top.state = expectValue
			continue
		case expectCommaOrEnd:
			if c == ',' {
				if top.object {
					top.state = expectKey
				} else {
					top.state = expectValue
				}
				continue
			}
			if c == closer(top.object) {
				return s.pop(), nil
			}
			return eng.Token{}, s.unexpected(c, fmt.Sprintf("',' or '%c'", closer(top.object)))
		case expectFirst:
			if c == closer(top.object) {
				return s.pop(), nil
			}
		}

		if top.object && (top.state == expectFirst || top.state == expectKey) {
			if c != '"' {
				return eng.Token{}, s.unexpected(c, "object key")
			}
			str, err := s.str()
			if err != nil {
				return eng.Token{}, err
			}
			top.state = expectColon
			return eng.Token{Kind: eng.KindKey, String: str}, nil
		}
		return s.value(c)
	}
}

// value reads the value starting at c and marks the enclosing member complete.
func (s *source) value(c byte) (eng.Token, error) {
	if top := s.top(); top != nil {
		top.state = expectCommaOrEnd
	}
	switch {
	case c == '{':
		s.frames = append(s.frames, frame{object: true})
		return eng.Token{Kind: eng.KindBeginObject}, nil
	case c == '[':
		s.frames = append(s.frames, frame{})
		return eng.Token{Kind: eng.KindBeginArray}, nil
	case c == '"':
		str, err := s.str()
		if err != nil {
			return eng.Token{}, err
		}
		return eng.Token{Kind: eng.KindString, String: str}, nil
	case c == '-' || ('0' <= c && c <= '9'):
		num, err := s.number(c)
		if err != nil {
			return eng.Token{}, err
		}
		return eng.Token{Kind: eng.KindNumber, Number: num}, nil
	case 'a' <= c && c <= 'z':
		return s.literal(c)
	}
	return eng.Token{}, s.unexpected(c, "value")
}

func (s *source) top() *frame {
	if n := len(s.frames); n > 0 {
		return &s.frames[n-1]
	}
	return nil
}

func (s *source) pop() eng.Token {
	n := len(s.frames)
	object := s.frames[n-1].object
	s.frames = s.frames[:n-1]
	if object {
		return eng.Token{Kind: eng.KindEndObject}
	}
	return eng.Token{Kind: eng.KindEndArray}
}

func closer(object bool) byte {
	if object {
		return '}'
	}
	return ']'
}

func (s *source) skipSpace() (byte, error) {
	for {
		c, err := s.r.ReadByte()
		if err != nil {
			return 0, err
		}
		switch c {
		case ' ', '\t', '\n', '\r':
			continue
		}
		return c, nil
	}
}

// str reads a string literal whose opening quote was consumed.
func (s *source) str() (string, error) {
	s.lit = append(s.lit[:0], '"')
	escaped := false
	for {
		c, err := s.r.ReadByte()
		if err != nil {
			return "", s.eof(err)
		}
		s.lit = append(s.lit, c)
		switch {
		case c == '"':
			if !escaped {
				return string(s.lit[1 : len(s.lit)-1]), nil
			}
			var out string
			if err := j.Unmarshal(s.lit, &out); err != nil {
				return "", s.malformed(err)
			}
			return out, nil
		case c == '\\':
			escaped = true
			if err := s.escape(); err != nil {
				return "", err
			}
		case c < 0x20:
			return "", s.malformed(fmt.Errorf("invalid character %q in string literal", c))
		}
	}
}

func (s *source) escape() error {
	c, err := s.r.ReadByte()
	if err != nil {
		return s.eof(err)
	}
	s.lit = append(s.lit, c)
	switch c {
	case '"', '\\', '/', 'b', 'f', 'n', 'r', 't':
		return nil
	case 'u':
		for i := 0; i < 4; i++ {
			h, err := s.r.ReadByte()
			if err != nil {
				return s.eof(err)
			}
			if !isHex(h) {
				return s.malformed(fmt.Errorf("invalid character %q in \\u escape", h))
			}
			s.lit = append(s.lit, h)
		}
		return nil
	}
	return s.malformed(fmt.Errorf("invalid escape %q in string literal", c))
}

func isHex(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// number reads a number literal starting at c and checks it against the
// JSON number grammar.
func (s *source) number(c byte) (string, error) {
	s.lit = append(s.lit[:0], c)
	for {
		b, err := s.r.ReadByte()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if ('0' <= b && b <= '9') || b == '-' || b == '+' || b == '.' || b == 'e' || b == 'E' {
			s.lit = append(s.lit, b)
			continue
		}
		_ = s.r.UnreadByte()
		break
	}
	if !validNumber(s.lit) {
		return "", s.malformed(fmt.Errorf("invalid number literal %q", s.lit))
	}
	return string(s.lit), nil
}

func validNumber(b []byte) bool {
	i := 0
	if i < len(b) && b[i] == '-' {
		i++
	}
	switch {
	case i < len(b) && b[i] == '0':
		i++
	case i < len(b) && '1' <= b[i] && b[i] <= '9':
		for i < len(b) && '0' <= b[i] && b[i] <= '9' {
			i++
		}
	default:
		return false
	}
	if i < len(b) && b[i] == '.' {
		i++
		start := i
		for i < len(b) && '0' <= b[i] && b[i] <= '9' {
			i++
		}
		if i == start {
			return false
		}
	}
	if i < len(b) && (b[i] == 'e' || b[i] == 'E') {
		i++
		if i < len(b) && (b[i] == '+' || b[i] == '-') {
			i++
		}
		start := i
		for i < len(b) && '0' <= b[i] && b[i] <= '9' {
			i++
		}
		if i == start {
			return false
		}
	}
	return i == len(b)
}

func (s *source) literal(c byte) (eng.Token, error) {
	s.lit = append(s.lit[:0], c)
	for {
		b, err := s.r.ReadByte()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return eng.Token{}, err
		}
		if 'a' <= b && b <= 'z' {
			s.lit = append(s.lit, b)
			continue
		}
		_ = s.r.UnreadByte()
		break
	}
	switch string(s.lit) {
	case "true":
		return eng.Token{Kind: eng.KindBool, Bool: true}, nil
	case "false":
		return eng.Token{Kind: eng.KindBool}, nil
	case "null":
		return eng.Token{Kind: eng.KindNull}, nil
	}
	return eng.Token{}, s.malformed(fmt.Errorf("invalid literal %q", s.lit))
}

func (s *source) eof(err error) error {
	if errors.Is(err, io.EOF) {
		return s.malformed(io.ErrUnexpectedEOF)
	}
	return err
}

func (s *source) unexpected(c byte, want string) error {
	return s.malformed(fmt.Errorf("invalid character %q looking for %s", c, want))
}

func (s *source) malformed(err error) error {
	return rerrors.NewMalformedInputError(s.Location(), err)
}
