// Package backingstore provides the disk that backs the simulated virtual
// address space.
package backingstore

import (
	"encoding/binary"
	"errors"
)

// WordSize is the number of bytes of a word.
const WordSize = 4

var (
	// ErrIO is wrapped by every failure of the underlying file.
	ErrIO = errors.New("backing store I/O error")

	// ErrOutOfRange is returned when an access spans past the last word or
	// is not made of whole words.
	ErrOutOfRange = errors.New("backing store access out of range")
)

// A Store is a word-addressed disk. Pages are moved in and out as raw bytes,
// WordSize bytes per word, little endian.
type Store interface {
	// PageIn fills buf with the words starting at word base.
	PageIn(base uint64, buf []byte) error

	// PageOut writes buf to the words starting at word base.
	PageOut(base uint64, buf []byte) error

	// NumWords returns the capacity of the store in words.
	NumWords() uint64
}

// EncodeWord writes v into the first WordSize bytes of buf.
func EncodeWord(buf []byte, v int32) {
	binary.LittleEndian.PutUint32(buf, uint32(v))
}

// DecodeWord reads the word in the first WordSize bytes of buf.
func DecodeWord(buf []byte) int32 {
	return int32(binary.LittleEndian.Uint32(buf))
}
