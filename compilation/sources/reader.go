// Package sources provides the file-resolution capability used to read Solidity sources. The compilation logic
// depends only on the Reader interface so that tests can substitute an in-memory file system for the disk.
package sources

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"
)

// Reader reads the text of a source file at a path. Paths may contain ".." segments.
type Reader interface {
	ReadSource(path string) (string, error)
}

// OSReader is a Reader backed by the local file system.
type OSReader struct{}

// NewOSReader returns a Reader backed by the local file system.
func NewOSReader() *OSReader {
	return &OSReader{}
}

// ReadSource reads the file at path from disk. Any ".." segment is resolved by the operating system, after symlinks.
func (r *OSReader) ReadSource(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", errors.WithStack(err)
	}
	return string(b), nil
}

// MemoryReader is a Reader backed by an in-memory map of cleaned paths to file contents. Having no symlinks, it
// resolves ".." segments lexically. It records every path it was
// asked to read, which allows tests to assert on resolution order.
type MemoryReader struct {
	files map[string]string

	readsLock sync.Mutex
	reads     []string
}

// NewMemoryReader creates a MemoryReader pre-populated with the provided files.
func NewMemoryReader(files map[string]string) *MemoryReader {
	r := &MemoryReader{
		files: make(map[string]string, len(files)),
		reads: make([]string, 0),
	}
	for path, content := range files {
		r.AddFile(path, content)
	}
	return r
}

// AddFile adds or replaces the file at path.
func (r *MemoryReader) AddFile(path string, content string) {
	r.files[filepath.Clean(path)] = content
}

// ReadSource returns the content stored at path, or an error wrapping fs.ErrNotExist.
func (r *MemoryReader) ReadSource(path string) (string, error) {
	cleaned := filepath.Clean(path)

	r.readsLock.Lock()
	r.reads = append(r.reads, cleaned)
	r.readsLock.Unlock()

	content, ok := r.files[cleaned]
	if !ok {
		return "", &fs.PathError{Op: "open", Path: cleaned, Err: fs.ErrNotExist}
	}
	return content, nil
}

// Reads returns every path that was requested so far, in order.
func (r *MemoryReader) Reads() []string {
	r.readsLock.Lock()
	defer r.readsLock.Unlock()
	return append([]string(nil), r.reads...)
}
