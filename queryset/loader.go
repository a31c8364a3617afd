package queryset

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// Loader handles loading and caching of query set files.
type Loader struct {
	// cache stores loaded sets by absolute path.
	cache map[string]*Set

	logger *zap.Logger

	// Decode is the function used to parse query set files.
	// Defaults to Decode but can be overridden for testing.
	Decode func(data []byte) ([]Definition, error)
}

// NewLoader creates a new query set loader. A nil logger discards output.
func NewLoader(logger *zap.Logger) *Loader {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Loader{
		cache:  make(map[string]*Set),
		logger: logger,
		Decode: Decode,
	}
}

// Load loads a query set from the given path.
// Relative paths are resolved from the current working directory, and a
// path without extension is tried with .yaml and .yml.
// Returns a cached set if already loaded.
func (l *Loader) Load(path string) (*Set, error) {
	absPath, err := l.resolvePath(path)
	if err != nil {
		return nil, &LoadError{Path: path, Cause: err}
	}

	if set, ok := l.cache[absPath]; ok {
		l.logger.Debug("Query set cache hit", zap.String("path", absPath))

		return set, nil
	}

	data, err := os.ReadFile(absPath) //nolint:gosec // G304: file path from user input is expected
	if err != nil {
		return nil, &LoadError{Path: absPath, Cause: err}
	}

	defs, err := l.Decode(data)
	if err != nil {
		return nil, &LoadError{Path: absPath, Cause: err}
	}

	set, err := NewSet(absPath, defs)
	if err != nil {
		l.logger.Warn("Rejected query set", zap.String("path", absPath), zap.Error(err))

		return nil, err
	}

	l.cache[absPath] = set

	l.logger.Debug("Loaded query set",
		zap.String("path", absPath),
		zap.Int("queries", len(set.Queries)))

	return set, nil
}

// LoadAll loads every path and returns the sets in the same order. Loading
// stops at the first failure.
func (l *Loader) LoadAll(paths []string) ([]*Set, error) {
	sets := make([]*Set, 0, len(paths))

	for _, p := range paths {
		set, err := l.Load(p)
		if err != nil {
			return nil, err
		}

		sets = append(sets, set)
	}

	return sets, nil
}

func (l *Loader) resolvePath(path string) (string, error) {
	if !filepath.IsAbs(path) {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("failed to get working directory: %w", err)
		}

		path = filepath.Join(wd, path)
	}

	path = filepath.Clean(path)

	_, err := os.Stat(path)
	if err == nil {
		return path, nil
	}

	if filepath.Ext(path) == "" {
		for _, ext := range []string{".yaml", ".yml"} {
			if _, err := os.Stat(path + ext); err == nil {
				return path + ext, nil
			}
		}
	}

	return "", fmt.Errorf("%w: %s", ErrQuerySetNotFound, path)
}

// Clear clears the query set cache.
func (l *Loader) Clear() {
	l.cache = make(map[string]*Set)
}

// Cached returns all cached sets.
func (l *Loader) Cached() map[string]*Set {
	result := make(map[string]*Set, len(l.cache))
	maps.Copy(result, l.cache)

	return result
}
