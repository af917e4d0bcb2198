package backingstore

import (
	"bufio"
	"fmt"
	"io"
	"math/rand"
	"os"
)

// DefaultSeed is the seed used to fill a fresh store.
const DefaultSeed = 1000

// A FileStore keeps word i at byte offset i*WordSize of a regular file.
type FileStore struct {
	path     string
	file     *os.File
	numWords uint64
}

// Open creates or truncates the file at path and sizes it to hold numWords
// words, all zero.
func Open(path string, numWords uint64) (*FileStore, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrIO, path, err)
	}

	if err := f.Truncate(int64(numWords * WordSize)); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: size %s: %v", ErrIO, path, err)
	}

	return &FileStore{
		path:     path,
		file:     f,
		numWords: numWords,
	}, nil
}

// Path returns the file name of the store.
func (s *FileStore) Path() string {
	return s.path
}

// NumWords returns the capacity of the store in words.
func (s *FileStore) NumWords() uint64 {
	return s.numWords
}

// Fill overwrites every word with a pseudo-random non-negative value. The
// same seed always produces the same content.
func (s *FileStore) Fill(seed int64) error {
	if _, err := s.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("%w: seek %s: %v", ErrIO, s.path, err)
	}

	rng := rand.New(rand.NewSource(seed))
	w := bufio.NewWriterSize(s.file, 64*1024)
	buf := make([]byte, WordSize)
	for i := uint64(0); i < s.numWords; i++ {
		EncodeWord(buf, rng.Int31())
		if _, err := w.Write(buf); err != nil {
			return fmt.Errorf("%w: fill %s: %v", ErrIO, s.path, err)
		}
	}

	if err := w.Flush(); err != nil {
		return fmt.Errorf("%w: fill %s: %v", ErrIO, s.path, err)
	}
	return nil
}

// PageIn fills buf with the words starting at word base.
func (s *FileStore) PageIn(base uint64, buf []byte) error {
	if err := s.checkRange(base, buf); err != nil {
		return err
	}

	_, err := s.file.ReadAt(buf, int64(base*WordSize))
	if err != nil {
		return fmt.Errorf("%w: read %d words at %d: %v",
			ErrIO, len(buf)/WordSize, base, err)
	}
	return nil
}

// PageOut writes buf to the words starting at word base.
func (s *FileStore) PageOut(base uint64, buf []byte) error {
	if err := s.checkRange(base, buf); err != nil {
		return err
	}

	_, err := s.file.WriteAt(buf, int64(base*WordSize))
	if err != nil {
		return fmt.Errorf("%w: write %d words at %d: %v",
			ErrIO, len(buf)/WordSize, base, err)
	}
	return nil
}

// ReadWord returns a single word straight from the file.
func (s *FileStore) ReadWord(i uint64) (int32, error) {
	buf := make([]byte, WordSize)
	if err := s.PageIn(i, buf); err != nil {
		return 0, err
	}
	return DecodeWord(buf), nil
}

// WriteWord overwrites a single word of the file.
func (s *FileStore) WriteWord(i uint64, v int32) error {
	buf := make([]byte, WordSize)
	EncodeWord(buf, v)
	return s.PageOut(i, buf)
}

// Close releases the file. The file itself is kept.
func (s *FileStore) Close() error {
	if err := s.file.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %v", ErrIO, s.path, err)
	}
	return nil
}

func (s *FileStore) checkRange(base uint64, buf []byte) error {
	if len(buf)%WordSize != 0 {
		return fmt.Errorf("%w: %d bytes is not a whole number of words",
			ErrOutOfRange, len(buf))
	}

	n := uint64(len(buf) / WordSize)
	if base > s.numWords || n > s.numWords-base {
		return fmt.Errorf("%w: words [%d, %d) past %d",
			ErrOutOfRange, base, base+n, s.numWords)
	}
	return nil
}
