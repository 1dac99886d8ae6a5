package pipeline

import (
	"os"
	"sync"

	"github.com/spf13/afero"
	"go.uber.org/multierr"
)

// Scope tracks files that must not outlive a failed stage or run.
// Paths are removed by Cleanup unless they were released first.
type Scope struct {
	fs    afero.Fs
	mu    sync.Mutex
	paths []string
}

// NewScope creates an empty scope on fs
func NewScope(fs afero.Fs) *Scope {
	return &Scope{fs: fs}
}

// Track registers a path for removal on cleanup
func (s *Scope) Track(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.paths {
		if p == path {
			return
		}
	}
	s.paths = append(s.paths, path)
}

// Release stops tracking a path, keeping the file
func (s *Scope) Release(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.paths {
		if p == path {
			s.paths = append(s.paths[:i], s.paths[i+1:]...)
			return
		}
	}
}

// Tracked returns the paths currently owned by the scope
func (s *Scope) Tracked() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.paths...)
}

// Cleanup removes every tracked path. Missing files are not an error.
func (s *Scope) Cleanup() error {
	s.mu.Lock()
	paths := s.paths
	s.paths = nil
	s.mu.Unlock()

	var errs error
	for _, p := range paths {
		if err := s.fs.Remove(p); err != nil && !os.IsNotExist(err) {
			errs = multierr.Append(errs, err)
		}
	}
	return errs
}
