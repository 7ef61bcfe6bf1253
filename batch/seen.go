package batch

import (
	"errors"
	"fmt"
	"os"
	"sync"

	bloom "github.com/bits-and-blooms/bloom/v3"
	"github.com/edsrzf/mmap-go"
)

const (
	seenCapacity      = 100000
	seenFalsePositive = 0.001
)

// SeenSet records which pages a batch has already tested. It is a bloom
// filter backed by a memory-mapped file: with a state path the set survives
// across invocations so an interrupted batch can resume; without one it
// lives in a temp file removed on Close. False positives are possible,
// false negatives are not.
type SeenSet struct {
	mu      sync.Mutex
	filter  *bloom.BloomFilter
	file    *os.File
	mapped  mmap.MMap
	tmpPath string
	added   int
	resumed bool
}

// OpenSeenSet opens the set stored at path, creating it if needed.
// An empty path gives a throwaway set.
func OpenSeenSet(path string) (*SeenSet, error) {
	filter := bloom.NewWithEstimates(seenCapacity, seenFalsePositive)
	empty, err := filter.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal bloom filter: %w", err)
	}

	var file *os.File
	tmpPath := ""
	if path == "" {
		file, err = os.CreateTemp("", "webprobe-seen-*.bloom")
		if err == nil {
			tmpPath = file.Name()
		}
	} else {
		file, err = os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644) //nolint:gosec // user-chosen state file
	}
	if err != nil {
		return nil, fmt.Errorf("open seen set: %w", err)
	}

	s := &SeenSet{filter: filter, file: file, tmpPath: tmpPath}
	fail := func(err error) (*SeenSet, error) {
		return nil, errors.Join(err, s.release())
	}

	info, err := file.Stat()
	if err != nil {
		return fail(fmt.Errorf("stat seen set: %w", err))
	}
	fresh := info.Size() == 0
	if fresh {
		if err := file.Truncate(int64(len(empty))); err != nil {
			return fail(fmt.Errorf("size seen set: %w", err))
		}
	} else if info.Size() != int64(len(empty)) {
		return fail(fmt.Errorf("seen set %s has size %d, want %d", file.Name(), info.Size(), len(empty)))
	}

	s.mapped, err = mmap.Map(file, mmap.RDWR, 0)
	if err != nil {
		return fail(fmt.Errorf("mmap seen set: %w", err))
	}

	if fresh {
		copy(s.mapped, empty)
	} else {
		if err := s.filter.UnmarshalBinary(s.mapped); err != nil {
			return fail(fmt.Errorf("load seen set: %w", err))
		}
		s.resumed = true
	}
	return s, nil
}

// Resumed reports whether the set was loaded from an existing state file.
func (s *SeenSet) Resumed() bool { return s.resumed }

// Has reports whether key was probably added before.
func (s *SeenSet) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter.TestString(key)
}

// Add records key and writes the filter through to the mapped file.
func (s *SeenSet) Add(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.filter.AddString(key)
	s.added++
	return s.syncLocked()
}

// Added returns how many keys were added since the set was opened.
func (s *SeenSet) Added() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.added
}

func (s *SeenSet) syncLocked() error {
	data, err := s.filter.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal bloom filter: %w", err)
	}
	if len(data) > len(s.mapped) {
		return fmt.Errorf("bloom filter (%d bytes) exceeds mapped file (%d bytes)", len(data), len(s.mapped))
	}
	copy(s.mapped, data)
	if err := s.mapped.Flush(); err != nil {
		return fmt.Errorf("flush seen set: %w", err)
	}
	return nil
}

// Close flushes and releases the set. A throwaway set's file is removed.
func (s *SeenSet) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.release(); err != nil {
		return fmt.Errorf("close seen set: %w", err)
	}
	return nil
}

func (s *SeenSet) release() error {
	var errs []error
	if s.mapped != nil {
		if err := s.mapped.Flush(); err != nil {
			errs = append(errs, fmt.Errorf("flush: %w", err))
		}
		if err := s.mapped.Unmap(); err != nil {
			errs = append(errs, fmt.Errorf("unmap: %w", err))
		}
		s.mapped = nil
	}
	if s.file != nil {
		if err := s.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close file: %w", err))
		}
		s.file = nil
	}
	if s.tmpPath != "" {
		if err := os.Remove(s.tmpPath); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("remove temp file: %w", err))
		}
		s.tmpPath = ""
	}
	return errors.Join(errs...)
}
