// Package datapage implements the typed, self-describing page used to
// store user data: a fixed-size buffer holding payloads packed from the
// front, with a directory of starting offsets and field types packed from
// the tail.
package datapage

import (
	"fmt"

	"github.com/luigitni/diskstore/storage"
)

// reservedForCount is the two trailing bytes that hold the number of
// fields stored on the page.
const reservedForCount = 2

// DataPage is a fixed-size block plus the in-memory directory describing
// the fields written onto it. Payloads grow forward from offset zero; the
// offset and type directory is written starting from the tail only when
// the page is finalized with Encode.
type DataPage struct {
	buf             []byte
	startingOffsets []uint32
	fields          []storage.FieldType
	writeOffset     uint32
}

// New returns an empty page backed by a fresh, zeroed buffer of blockSize
// bytes.
func New(blockSize int) *DataPage {
	return &DataPage{
		buf: make([]byte, blockSize),
	}
}

func (p *DataPage) assertIndex(index int, want storage.FieldType) {
	if index < 0 || index >= len(p.fields) {
		panic(fmt.Sprintf("datapage: index %d out of range (%d fields)", index, len(p.fields)))
	}
	if got := p.fields[index]; got != want {
		panic(fmt.Sprintf("datapage: field %d has type %s, not %s", index, got, want))
	}
}

func (p *DataPage) addField(fieldType storage.FieldType, size int, encode func(offset int)) {
	encode(int(p.writeOffset))
	p.startingOffsets = append(p.startingOffsets, p.writeOffset)
	p.fields = append(p.fields, fieldType)
	p.writeOffset += uint32(size)
}

func (p *DataPage) AddU8(v uint8) {
	p.addField(storage.U8, storage.SizeOfU8, func(offset int) {
		storage.EncodeU8(p.buf, offset, v)
	})
}

func (p *DataPage) AddU16(v uint16) {
	p.addField(storage.U16, storage.SizeOfU16, func(offset int) {
		storage.EncodeU16(p.buf, offset, v)
	})
}

func (p *DataPage) AddU32(v uint32) {
	p.addField(storage.U32, storage.SizeOfU32, func(offset int) {
		storage.EncodeU32(p.buf, offset, v)
	})
}

func (p *DataPage) AddBytes(v []byte) {
	p.addField(storage.Bytes, storage.SizeNeededBytes(v), func(offset int) {
		storage.EncodeBytes(p.buf, offset, v)
	})
}

func (p *DataPage) AddString(v string) {
	p.addField(storage.String, storage.SizeNeededString(v), func(offset int) {
		storage.EncodeString(p.buf, offset, v)
	})
}

// NumFields returns the number of fields currently stored on the page.
func (p *DataPage) NumFields() int {
	return len(p.fields)
}

// FieldType returns the type tag stored at index, without asserting what
// the caller expects it to be. Used by introspection tooling that walks a
// page's directory without prior knowledge of its schema.
func (p *DataPage) FieldType(index int) (storage.FieldType, bool) {
	if index < 0 || index >= len(p.fields) {
		return 0, false
	}
	return p.fields[index], true
}

func (p *DataPage) GetU8(index int) (uint8, bool) {
	if index >= len(p.fields) {
		return 0, false
	}
	p.assertIndex(index, storage.U8)
	v, _ := storage.DecodeU8(p.buf, int(p.startingOffsets[index]))
	return v, true
}

func (p *DataPage) GetU16(index int) (uint16, bool) {
	if index >= len(p.fields) {
		return 0, false
	}
	p.assertIndex(index, storage.U16)
	v, _ := storage.DecodeU16(p.buf, int(p.startingOffsets[index]))
	return v, true
}

func (p *DataPage) GetU32(index int) (uint32, bool) {
	if index >= len(p.fields) {
		return 0, false
	}
	p.assertIndex(index, storage.U32)
	v, _ := storage.DecodeU32(p.buf, int(p.startingOffsets[index]))
	return v, true
}

// GetBytes returns a view into the page's buffer - no copy is made, so the
// slice is only valid for as long as the page is not mutated.
func (p *DataPage) GetBytes(index int) ([]byte, bool) {
	if index >= len(p.fields) {
		return nil, false
	}
	p.assertIndex(index, storage.Bytes)
	v, _ := storage.DecodeBytes(p.buf, int(p.startingOffsets[index]))
	return v, true
}

func (p *DataPage) GetString(index int) (string, bool) {
	if index >= len(p.fields) {
		return "", false
	}
	p.assertIndex(index, storage.String)
	v, _, err := storage.DecodeString(p.buf, int(p.startingOffsets[index]))
	if err != nil {
		panic(err)
	}
	return v, true
}

// MutateU8 re-encodes value at the offset originally assigned to index,
// without changing the stored offset.
func (p *DataPage) MutateU8(index int, value uint8) {
	p.assertIndex(index, storage.U8)
	storage.EncodeU8(p.buf, int(p.startingOffsets[index]), value)
}

func (p *DataPage) MutateU16(index int, value uint16) {
	p.assertIndex(index, storage.U16)
	storage.EncodeU16(p.buf, int(p.startingOffsets[index]), value)
}

func (p *DataPage) MutateU32(index int, value uint32) {
	p.assertIndex(index, storage.U32)
	storage.EncodeU32(p.buf, int(p.startingOffsets[index]), value)
}

// MutateBytes re-encodes value at index's existing offset. The caller must
// supply a value whose encoded size equals the original: mutating to a
// different length silently overwrites whatever follows it on the page.
func (p *DataPage) MutateBytes(index int, value []byte) {
	p.assertIndex(index, storage.Bytes)
	storage.EncodeBytes(p.buf, int(p.startingOffsets[index]), value)
}

func (p *DataPage) MutateString(index int, value string) {
	p.assertIndex(index, storage.String)
	storage.EncodeString(p.buf, int(p.startingOffsets[index]), value)
}

// Encode finalizes the directory into the tail of the buffer and returns
// the whole block, ready to be handed to a file.Manager.
//
// Layout, from the tail backwards: [count:u16][types:N][offsets:4N].
func (p *DataPage) Encode() []byte {
	n := len(p.fields)

	countOffset := len(p.buf) - reservedForCount
	storage.EncodeU16(p.buf, countOffset, uint16(n))

	typesOffset := countOffset - n
	for i, ft := range p.fields {
		storage.EncodeU8(p.buf, typesOffset+i, uint8(ft))
	}

	offsetsOffset := typesOffset - n*4
	for i, off := range p.startingOffsets {
		storage.EncodeU32(p.buf, offsetsOffset+i*4, off)
	}

	return p.buf
}

// DecodeFrom parses a block previously produced by Encode. An empty buffer
// is a fatal invariant violation: every on-disk block is exactly one block
// size long.
func DecodeFrom(buf []byte) *DataPage {
	if len(buf) == 0 {
		panic("datapage: cannot decode an empty buffer")
	}

	countOffset := len(buf) - reservedForCount
	n, _ := storage.DecodeU16(buf, countOffset)

	page := &DataPage{buf: buf}

	if n == 0 {
		return page
	}

	typesOffset := countOffset - int(n)
	fields := make([]storage.FieldType, n)
	for i := range fields {
		v, _ := storage.DecodeU8(buf, typesOffset+i)
		fields[i] = storage.FieldType(v)
	}

	offsetsOffset := typesOffset - int(n)*4
	offsets := make([]uint32, n)
	for i := range offsets {
		v, _ := storage.DecodeU32(buf, offsetsOffset+i*4)
		offsets[i] = v
	}

	page.fields = fields
	page.startingOffsets = offsets
	page.writeOffset = uint32(fields[n-1].EndOffset(buf, int(offsets[n-1])))

	return page
}

// Contents returns the raw backing buffer as it stands, without writing
// the directory into its tail. Use Encode to get a block that DecodeFrom
// can read back.
func (p *DataPage) Contents() []byte {
	return p.buf
}
