package files

import (
	"fmt"
	"os"
	"sync"
	"sync/atomic"
)

const stagePattern = "o2t-audio-*"

var staged atomic.Int64

// StagedFile is a temporary copy of fetched audio on local disk.
type StagedFile struct {
	Path string
	Size int

	once      sync.Once
	removeErr error
}

// Stage writes data to a new, uniquely named file in dir (the OS temp dir
// when empty). A partially written file is removed before Stage returns an
// error.
func Stage(dir string, data []byte) (*StagedFile, error) {
	f, err := os.CreateTemp(dir, stagePattern)
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	staged.Add(1)
	sf := &StagedFile{Path: f.Name(), Size: len(data)}

	if _, err := f.Write(data); err != nil {
		f.Close()
		sf.Remove()
		return nil, fmt.Errorf("write temp file %s: %w", sf.Path, err)
	}
	if err := f.Close(); err != nil {
		sf.Remove()
		return nil, fmt.Errorf("close temp file %s: %w", sf.Path, err)
	}

	return sf, nil
}

// Remove deletes the file. Only the first call does any work; later calls
// return the first result.
func (f *StagedFile) Remove() error {
	f.once.Do(func() {
		f.removeErr = RemoveIfExists(f.Path)
		staged.Add(-1)
	})
	return f.removeErr
}

// StagedCount returns how many staged files are currently alive.
func StagedCount() int64 {
	return staged.Load()
}
