package storage

import (
	"encoding/binary"
	"fmt"
	"unicode/utf8"
)

// FieldType is the tag that identifies how a field was encoded on a page.
// It is itself encoded as a single byte.
type FieldType uint8

const (
	U8 FieldType = iota
	U16
	U32
	Bytes
	String
)

func (t FieldType) String() string {
	switch t {
	case U8:
		return "U8"
	case U16:
		return "U16"
	case U32:
		return "U32"
	case Bytes:
		return "Bytes"
	case String:
		return "String"
	default:
		return fmt.Sprintf("FieldType(%d)", uint8(t))
	}
}

const (
	SizeOfU8     = 1
	SizeOfU16    = 2
	SizeOfU32    = 4
	sizeOfVarlen = 2 // u16 length prefix shared by Bytes and String

	// MaxVarlenPayload is the largest byte string a single Bytes or String
	// field can carry: the length prefix is a u16.
	MaxVarlenPayload = 1<<16 - 1
)

func assertCapacity(buf []byte, offset, size int) {
	if offset < 0 || size < 0 || offset+size > len(buf) {
		panic(fmt.Sprintf("storage: encode out of page bounds: offset %d size %d capacity %d", offset, size, len(buf)))
	}
}

// EncodeU8 writes v at offset and returns the number of bytes written.
func EncodeU8(dst []byte, offset int, v uint8) int {
	assertCapacity(dst, offset, SizeOfU8)
	dst[offset] = v
	return SizeOfU8
}

// DecodeU8 reads a uint8 from src at offset, returning the value and the
// offset immediately past it.
func DecodeU8(src []byte, offset int) (uint8, int) {
	return src[offset], offset + SizeOfU8
}

func EncodeU16(dst []byte, offset int, v uint16) int {
	assertCapacity(dst, offset, SizeOfU16)
	binary.LittleEndian.PutUint16(dst[offset:], v)
	return SizeOfU16
}

func DecodeU16(src []byte, offset int) (uint16, int) {
	return binary.LittleEndian.Uint16(src[offset : offset+SizeOfU16]), offset + SizeOfU16
}

func EncodeU32(dst []byte, offset int, v uint32) int {
	assertCapacity(dst, offset, SizeOfU32)
	binary.LittleEndian.PutUint32(dst[offset:], v)
	return SizeOfU32
}

func DecodeU32(src []byte, offset int) (uint32, int) {
	return binary.LittleEndian.Uint32(src[offset : offset+SizeOfU32]), offset + SizeOfU32
}

// SizeNeededBytes returns the encoded size of v: a u16 length prefix plus
// the payload itself.
func SizeNeededBytes(v []byte) int {
	return sizeOfVarlen + len(v)
}

// EncodeBytes writes the u16 length prefix followed by v at offset, and
// returns the number of bytes written. Panics if len(v) exceeds
// MaxVarlenPayload or the destination cannot hold it - both are programmer
// errors, since the page layer is responsible for sizing checks.
func EncodeBytes(dst []byte, offset int, v []byte) int {
	if len(v) > MaxVarlenPayload {
		panic(fmt.Sprintf("storage: byte string of length %d exceeds max varlen payload %d", len(v), MaxVarlenPayload))
	}

	needed := SizeNeededBytes(v)
	assertCapacity(dst, offset, needed)

	binary.LittleEndian.PutUint16(dst[offset:], uint16(len(v)))
	copy(dst[offset+sizeOfVarlen:], v)
	return needed
}

// DecodeBytes returns a view into src - no copy - holding the payload
// starting at offset, along with the offset immediately past it.
func DecodeBytes(src []byte, offset int) ([]byte, int) {
	length := binary.LittleEndian.Uint16(src[offset : offset+sizeOfVarlen])
	from := offset + sizeOfVarlen
	to := from + int(length)
	return src[from:to], to
}

// SizeNeededString mirrors SizeNeededBytes for the UTF-8 encoding of v.
func SizeNeededString(v string) int {
	return sizeOfVarlen + len(v)
}

// EncodeString writes v's UTF-8 bytes with the same framing as EncodeBytes.
func EncodeString(dst []byte, offset int, v string) int {
	return EncodeBytes(dst, offset, []byte(v))
}

// DecodeString is the inverse of EncodeString. It returns an error if the
// framed payload is not valid UTF-8.
func DecodeString(src []byte, offset int) (string, int, error) {
	raw, end := DecodeBytes(src, offset)
	if !utf8.Valid(raw) {
		return "", end, fmt.Errorf("storage: invalid UTF-8 at offset %d", offset)
	}

	return string(raw), end, nil
}

// EndOffset returns the offset immediately following the field of type t
// encoded starting at offset within src. It is used to recover a page's
// write cursor from its last stored field without needing the field's
// length ahead of time.
func (t FieldType) EndOffset(src []byte, offset int) int {
	switch t {
	case U8:
		return offset + SizeOfU8
	case U16:
		return offset + SizeOfU16
	case U32:
		return offset + SizeOfU32
	case Bytes, String:
		length := binary.LittleEndian.Uint16(src[offset : offset+sizeOfVarlen])
		return offset + sizeOfVarlen + int(length)
	default:
		panic(fmt.Sprintf("storage: unknown field type %d", uint8(t)))
	}
}
