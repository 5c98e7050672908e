package payload

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

var (
	// ErrEmpty is returned when the input holds no JSON value at all.
	ErrEmpty = errors.New("payload: empty body")

	// ErrTrailingData is returned when anything but whitespace follows the value.
	ErrTrailingData = errors.New("payload: trailing data after JSON value")
)

// MaxDepth is the deepest array/object nesting Decode accepts, the same
// limit encoding/json applies when unmarshaling.
const MaxDepth = 10000

// SyntaxError reports malformed JSON and the input offset it was detected at.
type SyntaxError struct {
	Offset int64
	Err    error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("payload: invalid JSON at offset %d: %v", e.Offset, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// Parse decodes exactly one JSON value from data.
func Parse(data []byte) (Value, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads exactly one JSON value from r. Leading and trailing whitespace
// is allowed; anything else after the value is rejected.
func Decode(r io.Reader) (Value, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Value{}, ErrEmpty
		}
		return Value{}, syntaxErr(dec, err)
	}

	v, err := decodeToken(dec, tok, 0)
	if err != nil {
		return Value{}, err
	}

	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, ErrTrailingData
	}
	return v, nil
}

func decodeToken(dec *json.Decoder, tok json.Token, depth int) (Value, error) {
	switch t := tok.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case json.Number:
		// The decoder has already validated the literal.
		return Value{kind: KindNumber, num: t}, nil
	case string:
		return String(t), nil
	case json.Delim:
		if depth >= MaxDepth {
			return Value{}, syntaxErr(dec, fmt.Errorf("exceeded max depth of %d", MaxDepth))
		}
		switch t {
		case '[':
			return decodeArray(dec, depth+1)
		case '{':
			return decodeObject(dec, depth+1)
		}
	}
	return Value{}, syntaxErr(dec, fmt.Errorf("unexpected token %v", tok))
}

func decodeArray(dec *json.Decoder, depth int) (Value, error) {
	v := Value{kind: KindArray, elems: []Value{}}
	for {
		tok, err := next(dec)
		if err != nil {
			return Value{}, err
		}
		if tok == json.Delim(']') {
			return v, nil
		}
		elem, err := decodeToken(dec, tok, depth)
		if err != nil {
			return Value{}, err
		}
		v.elems = append(v.elems, elem)
	}
}

func decodeObject(dec *json.Decoder, depth int) (Value, error) {
	v := Value{kind: KindObject, members: []Member{}}
	for {
		tok, err := next(dec)
		if err != nil {
			return Value{}, err
		}
		if tok == json.Delim('}') {
			return v, nil
		}
		key, ok := tok.(string)
		if !ok {
			return Value{}, syntaxErr(dec, fmt.Errorf("object key must be a string, got %v", tok))
		}
		valTok, err := next(dec)
		if err != nil {
			return Value{}, err
		}
		val, err := decodeToken(dec, valTok, depth)
		if err != nil {
			return Value{}, err
		}
		v.members = setMember(v.members, key, val)
	}
}

// next reads the next token inside a composite value, where EOF is always premature.
func next(dec *json.Decoder) (json.Token, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}
		return nil, syntaxErr(dec, err)
	}
	return tok, nil
}

func syntaxErr(dec *json.Decoder, err error) error {
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return &SyntaxError{Offset: se.Offset, Err: err}
	}
	return &SyntaxError{Offset: dec.InputOffset(), Err: err}
}
