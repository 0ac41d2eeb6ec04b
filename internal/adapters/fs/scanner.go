package fs

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.trai.ch/zerr"
)

// Scanner enumerates source files under a root. Each unique
// (root, directories, extensions, kind) query is memoized for the lifetime
// of one logical run.
type Scanner struct {
	mu      sync.Mutex
	queries map[string]map[string]string
}

// NewScanner creates a Scanner for one logical run.
func NewScanner() *Scanner {
	return &Scanner{queries: make(map[string]map[string]string)}
}

// AvailableFiles returns a mapping from path-relative-to-root to absolute
// path for every file under the given directories carrying one of the
// extensions. Relative keys are lower-cased for case-insensitive matching.
func (s *Scanner) AvailableFiles(root string, directories, extensions []string, kind string) (map[string]string, error) {
	key := strings.Join([]string{root, strings.Join(directories, ";"), strings.Join(extensions, ";"), kind}, "|")

	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.queries[key]; ok {
		return cached, nil
	}

	found := make(map[string]string)
	for _, dir := range directories {
		base := filepath.Join(root, dir)
		if _, err := os.Stat(base); os.IsNotExist(err) {
			continue
		}
		err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !suffixAny(path, extensions) {
				return nil
			}
			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			abs, err := filepath.Abs(path)
			if err != nil {
				return err
			}
			found[strings.ToLower(filepath.ToSlash(rel))] = abs
			return nil
		})
		if err != nil {
			return nil, zerr.With(zerr.Wrap(err, "failed to scan directory"), "dir", base)
		}
	}

	s.queries[key] = found
	return found, nil
}

func suffixAny(path string, extensions []string) bool {
	lower := strings.ToLower(path)
	for _, ext := range extensions {
		if strings.HasSuffix(lower, strings.ToLower(ext)) {
			return true
		}
	}
	return false
}
