package historical

import (
	"fmt"
	"io"
	"os"
	"sync"
	"unsafe"

	"golang.org/x/exp/mmap"

	"github.com/peter-kozarec/spotsim/pkg/datasource"
)

var ErrEof = datasource.ErrEof

// Source reads fixed size records of type T from a memory mapped file.
type Source[T any] struct {
	dataSourceName string
	reader         *mmap.ReaderAt
	bufferPool     *sync.Pool
}

func NewSource[T any](dataSourceName string) *Source[T] {
	return &Source[T]{
		dataSourceName: dataSourceName,
		bufferPool: &sync.Pool{
			New: func() any {
				buffer := make([]byte, int(unsafe.Sizeof(*new(T))))
				return &buffer
			},
		},
	}
}

func (s *Source[T]) Open() error {
	var err error
	s.reader, err = mmap.Open(s.dataSourceName)
	if err != nil {
		return fmt.Errorf("unable to open data source %q: %w", s.dataSourceName, err)
	}
	return nil
}

func (s *Source[T]) Close() {
	if s.reader != nil {
		_ = s.reader.Close()
		s.reader = nil
	}
}

func (s *Source[T]) Read(index int64, data *T) error {
	buffer := s.bufferPool.Get().(*[]byte)
	defer s.bufferPool.Put(buffer)

	offset := index * int64(len(*buffer))

	n, err := s.reader.ReadAt(*buffer, offset)
	if err != nil && err != io.EOF {
		return fmt.Errorf("unable to read: %w", err)
	}
	if n < len(*buffer) {
		return ErrEof
	}

	*data = *(*T)(unsafe.Pointer(&(*buffer)[0])) // #nosec G103
	return nil
}

func (s *Source[T]) EntryCount() (int64, error) {
	var entry T
	entrySize := int64(unsafe.Sizeof(entry))
	if entrySize == 0 {
		return 0, fmt.Errorf("size of T is zero")
	}

	var totalSize int64
	if s.reader != nil {
		totalSize = int64(s.reader.Len())
	} else {
		fileInfo, err := os.Stat(s.dataSourceName)
		if err != nil {
			return 0, fmt.Errorf("unable to get data source %q stats: %w", s.dataSourceName, err)
		}
		totalSize = fileInfo.Size()
	}
	if totalSize%entrySize != 0 {
		return 0, fmt.Errorf("size of %q is not a multiple of entry size %d", s.dataSourceName, entrySize)
	}

	return totalSize / entrySize, nil
}
