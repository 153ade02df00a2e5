// Package frame implements the OpenWebNet wire unit: parsing and
// serializing "*...##" frames byte by byte over a buffer.
package frame

import (
	"errors"
	"fmt"
	"strings"
)

// MaxFrameSize is the soft cap on a single frame's serialized length,
// guarding against stream desync (4 KiB is sufficient in practice for
// every OpenWebNet frame observed in the field).
const MaxFrameSize = 4096

// ErrMalformedFrame is the sentinel for every frame.Parse failure.
// Concrete messages are wrapped onto it with fmt.Errorf("...: %w", ...)
// so callers can match with errors.Is(err, frame.ErrMalformedFrame).
var ErrMalformedFrame = errors.New("malformed frame")

// Parameter is an ordered, decimal-string-valued qualifier attached to
// a Field. Equality is by textual content.
type Parameter string

// Field is one '*'-delimited element of a Frame: a decimal value plus
// an ordered list of '#'-delimited parameters.
type Field struct {
	Value  string
	Params []Parameter
}

// NewField builds a Field with no parameters.
func NewField(value string) Field { return Field{Value: value} }

// WithParams returns a copy of f with params appended, used by
// constructors that build extended frames one parameter group at a
// time.
func (f Field) WithParams(params ...string) Field {
	out := Field{Value: f.Value, Params: append([]Parameter{}, f.Params...)}
	for _, p := range params {
		out.Params = append(out.Params, Parameter(p))
	}
	return out
}

// Equal compares two fields by value and parameter content, in order.
func (f Field) Equal(other Field) bool {
	if f.Value != other.Value || len(f.Params) != len(other.Params) {
		return false
	}
	for i := range f.Params {
		if f.Params[i] != other.Params[i] {
			return false
		}
	}
	return true
}

// Frame is the parsed wire unit: an ordered sequence of Fields.
type Frame struct {
	Fields []Field
}

// New builds a Frame from fields, in the given order.
func New(fields ...Field) Frame {
	return Frame{Fields: fields}
}

// Equal compares two frames field by field, in order.
func (f Frame) Equal(other Frame) bool {
	if len(f.Fields) != len(other.Fields) {
		return false
	}
	for i := range f.Fields {
		if !f.Fields[i].Equal(other.Fields[i]) {
			return false
		}
	}
	return true
}

// well-known literal frames. The leading field of each is the
// '#'-prefixed shape Parse produces for a bare "#" token
// (Field{Value: "", Params: [""]}), not a literal "#" value.
var (
	Ack  = New(NewField("").WithParams(""), NewField("1"))
	Nack = New(NewField("").WithParams(""), NewField("0"))
	Busy = New(NewField("").WithParams(""), NewField("6"))
)

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Parse accepts exactly one frame starting with '*' and ending with
// '##'. Every field and parameter must be a (possibly empty) decimal
// string. Unknown characters, unbalanced separators or missing
// sentinels fail with ErrMalformedFrame.
func Parse(data []byte) (Frame, error) {
	if len(data) > MaxFrameSize {
		return Frame{}, fmt.Errorf("%w: frame exceeds %d bytes", ErrMalformedFrame, MaxFrameSize)
	}
	s := string(data)
	if !strings.HasPrefix(s, "*") {
		return Frame{}, fmt.Errorf("%w: missing leading '*'", ErrMalformedFrame)
	}
	if !strings.HasSuffix(s, "##") {
		return Frame{}, fmt.Errorf("%w: missing trailing '##'", ErrMalformedFrame)
	}
	body := s[1 : len(s)-2]

	var fields []Field
	for _, tok := range strings.Split(body, "*") {
		parts := strings.Split(tok, "#")
		if !isDigits(parts[0]) {
			return Frame{}, fmt.Errorf("%w: non-digit field %q", ErrMalformedFrame, parts[0])
		}
		field := Field{Value: parts[0]}
		for _, p := range parts[1:] {
			if !isDigits(p) {
				return Frame{}, fmt.Errorf("%w: non-digit parameter %q", ErrMalformedFrame, p)
			}
			field.Params = append(field.Params, Parameter(p))
		}
		fields = append(fields, field)
	}
	if len(fields) == 0 {
		return Frame{}, fmt.Errorf("%w: empty frame body", ErrMalformedFrame)
	}
	return Frame{Fields: fields}, nil
}

// Serialize is the inverse of Parse: it produces the canonical
// byte-string for f. parse(serialize(f)) == f for every Frame built
// through the constructors (New, Ack/Nack/Busy, WithParams).
func Serialize(f Frame) []byte {
	var b strings.Builder
	b.WriteByte('*')
	for i, field := range f.Fields {
		if i > 0 {
			b.WriteByte('*')
		}
		b.WriteString(field.Value)
		for _, p := range field.Params {
			b.WriteByte('#')
			b.WriteString(string(p))
		}
	}
	b.WriteString("##")
	return []byte(b.String())
}

// String renders the frame in its wire form, for logging.
func (f Frame) String() string {
	return string(Serialize(f))
}
