package bbs

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

// ContentType is the media type of every BBS request and response body.
const ContentType = "application/x-protobuf"

// Message is implemented by every type that travels over the BBS API.
type Message interface {
	encode(e *encoder)
	decodeField(num protowire.Number, typ protowire.Type, b []byte) (int, error)
}

// Marshal encodes m in protobuf wire format. Zero-valued scalar fields are
// omitted, as proto3 does.
func Marshal(m Message) ([]byte, error) {
	if m == nil {
		return nil, errors.New("bbs: marshal nil message")
	}
	e := &encoder{}
	m.encode(e)
	if e.err != nil {
		return nil, e.err
	}
	return e.b, nil
}

// Unmarshal decodes b into m. Unknown fields are skipped.
func Unmarshal(b []byte, m Message) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("bbs: %w", protowire.ParseError(n))
		}
		b = b[n:]
		n, err := m.decodeField(num, typ, b)
		if err != nil {
			return fmt.Errorf("bbs: field %d: %w", num, err)
		}
		b = b[n:]
	}
	return nil
}

type encoder struct {
	b   []byte
	err error
}

func (e *encoder) fail(num protowire.Number, format string, args ...any) {
	if e.err == nil {
		e.err = fmt.Errorf("bbs: field %d: %s", num, fmt.Sprintf(format, args...))
	}
}

func (e *encoder) string(num protowire.Number, s string) {
	if s == "" || e.err != nil {
		return
	}
	if !utf8.ValidString(s) {
		e.fail(num, "string is not valid UTF-8")
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendString(e.b, s)
}

func (e *encoder) strings(num protowire.Number, ss []string) {
	for _, s := range ss {
		if e.err != nil {
			return
		}
		if !utf8.ValidString(s) {
			e.fail(num, "string is not valid UTF-8")
			return
		}
		// Repeated strings keep empty elements.
		e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
		e.b = protowire.AppendString(e.b, s)
	}
}

func (e *encoder) uvarint(num protowire.Number, v uint64) {
	if v == 0 || e.err != nil {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, v)
}

func (e *encoder) int32(num protowire.Number, v int32) {
	e.uvarint(num, uint64(int64(v)))
}

func (e *encoder) int64(num protowire.Number, v int64) {
	e.uvarint(num, uint64(v))
}

func (e *encoder) bool(num protowire.Number, v bool) {
	e.uvarint(num, protowire.EncodeBool(v))
}

// optionalUint64 writes the field even when it is zero.
func (e *encoder) optionalUint64(num protowire.Number, v *uint64) {
	if v == nil || e.err != nil {
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.VarintType)
	e.b = protowire.AppendVarint(e.b, *v)
}

// packedUint32s writes a packed repeated uint32 field.
func (e *encoder) packedUint32s(num protowire.Number, vs []uint32) {
	if len(vs) == 0 || e.err != nil {
		return
	}
	var packed []byte
	for _, v := range vs {
		packed = protowire.AppendVarint(packed, uint64(v))
	}
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendBytes(e.b, packed)
}

// message writes m as an embedded message. Callers skip nil pointers.
func (e *encoder) message(num protowire.Number, m Message) {
	if e.err != nil {
		return
	}
	sub := &encoder{}
	m.encode(sub)
	if sub.err != nil {
		e.err = sub.err
		return
	}
	e.b = protowire.AppendTag(e.b, num, protowire.BytesType)
	e.b = protowire.AppendBytes(e.b, sub.b)
}

var errWireType = errors.New("unexpected wire type")

func skipField(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
	n := protowire.ConsumeFieldValue(num, typ, b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	return n, nil
}

func consumeString(typ protowire.Type, b []byte, dst *string) (int, error) {
	if typ != protowire.BytesType {
		return 0, errWireType
	}
	v, n := protowire.ConsumeString(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	if !utf8.ValidString(v) {
		return 0, errors.New("string is not valid UTF-8")
	}
	*dst = v
	return n, nil
}

func consumeStrings(typ protowire.Type, b []byte, dst *[]string) (int, error) {
	var s string
	n, err := consumeString(typ, b, &s)
	if err != nil {
		return 0, err
	}
	*dst = append(*dst, s)
	return n, nil
}

func consumeVarint(typ protowire.Type, b []byte) (uint64, int, error) {
	if typ != protowire.VarintType {
		return 0, 0, errWireType
	}
	v, n := protowire.ConsumeVarint(b)
	if n < 0 {
		return 0, 0, protowire.ParseError(n)
	}
	return v, n, nil
}

func consumeInt32(typ protowire.Type, b []byte, dst *int32) (int, error) {
	v, n, err := consumeVarint(typ, b)
	*dst = int32(v)
	return n, err
}

func consumeUint32(typ protowire.Type, b []byte, dst *uint32) (int, error) {
	v, n, err := consumeVarint(typ, b)
	*dst = uint32(v)
	return n, err
}

func consumeInt64(typ protowire.Type, b []byte, dst *int64) (int, error) {
	v, n, err := consumeVarint(typ, b)
	*dst = int64(v)
	return n, err
}

func consumeBool(typ protowire.Type, b []byte, dst *bool) (int, error) {
	v, n, err := consumeVarint(typ, b)
	*dst = protowire.DecodeBool(v)
	return n, err
}

func consumeOptionalUint64(typ protowire.Type, b []byte, dst **uint64) (int, error) {
	v, n, err := consumeVarint(typ, b)
	if err != nil {
		return 0, err
	}
	*dst = &v
	return n, nil
}

// consumeUint32s accepts both packed and unpacked encodings.
func consumeUint32s(typ protowire.Type, b []byte, dst *[]uint32) (int, error) {
	if typ == protowire.VarintType {
		var v uint32
		n, err := consumeUint32(typ, b, &v)
		if err != nil {
			return 0, err
		}
		*dst = append(*dst, v)
		return n, nil
	}
	if typ != protowire.BytesType {
		return 0, errWireType
	}
	packed, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	for len(packed) > 0 {
		v, m := protowire.ConsumeVarint(packed)
		if m < 0 {
			return 0, protowire.ParseError(m)
		}
		*dst = append(*dst, uint32(v))
		packed = packed[m:]
	}
	return n, nil
}

func consumeMessage(typ protowire.Type, b []byte, m Message) (int, error) {
	if typ != protowire.BytesType {
		return 0, errWireType
	}
	v, n := protowire.ConsumeBytes(b)
	if n < 0 {
		return 0, protowire.ParseError(n)
	}
	if err := Unmarshal(v, m); err != nil {
		return 0, err
	}
	return n, nil
}

// consumeRepeated decodes one element of a repeated message field.
func consumeRepeated[T any, PT interface {
	*T
	Message
}](typ protowire.Type, b []byte, dst *[]*T) (int, error) {
	var v T
	n, err := consumeMessage(typ, b, PT(&v))
	if err != nil {
		return 0, err
	}
	*dst = append(*dst, &v)
	return n, nil
}

// consumeSingle decodes an embedded message into a freshly allocated value.
func consumeSingle[T any, PT interface {
	*T
	Message
}](typ protowire.Type, b []byte, dst **T) (int, error) {
	if *dst == nil {
		*dst = new(T)
	}
	return consumeMessage(typ, b, PT(*dst))
}
