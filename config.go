package norikra

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the .norikra.yaml configuration file.
type Config struct {
	// Query definition files, relative to the config file's directory.
	Queries []string `yaml:"queries,omitempty"`

	// Event type renames applied by "rewrite types" when no --map is given.
	TypeNames map[string]string `yaml:"type_names,omitempty"`

	// Qualifier renames applied by "rewrite fields" when no --map is given.
	FieldNames map[string]string `yaml:"field_names,omitempty"`

	Log LogConfig `yaml:"log,omitempty"`

	// Directory containing the config file. Set by LoadConfigFile.
	Dir string `yaml:"-"`
}

// LogConfig holds logger settings.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level,omitempty"`

	// Development switches to the human-readable console encoder.
	Development bool `yaml:"development,omitempty"`
}

// DefaultConfigNames are the filenames we search for.
var DefaultConfigNames = []string{".norikra.yaml", ".norikra.yml", "norikra.yaml", "norikra.yml"}

// LoadConfig finds and loads the nearest .norikra.yaml walking up from dir.
func LoadConfig(dir string) (*Config, error) {
	path, err := FindConfig(dir)
	if err != nil {
		return nil, err
	}

	return LoadConfigFile(path)
}

// FindConfig searches for a config file starting from dir and walking up.
func FindConfig(dir string) (string, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}

	for dir := absDir; ; {
		for _, name := range DefaultConfigNames {
			path := filepath.Join(dir, name)

			_, err := os.Stat(path)
			if err == nil {
				return path, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrConfigNotFound
		}

		dir = parent
	}
}

// LoadConfigFile loads a config from a specific path.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}

	var cfg Config

	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}

	err = cfg.validate()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}

	cfg.Dir = filepath.Dir(path)

	return &cfg, nil
}

// QueryFiles returns the configured query definition files as absolute
// paths, resolved against the config file's directory.
func (c *Config) QueryFiles() []string {
	files := make([]string, 0, len(c.Queries))

	for _, q := range c.Queries {
		if filepath.IsAbs(q) || c.Dir == "" {
			files = append(files, q)
		} else {
			files = append(files, filepath.Join(c.Dir, q))
		}
	}

	return files
}

func (c *Config) validate() error {
	for from, to := range c.TypeNames {
		if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
			return fmt.Errorf("type_names: empty name in %q: %q", from, to)
		}
	}

	for from, to := range c.FieldNames {
		if strings.TrimSpace(from) == "" || strings.TrimSpace(to) == "" {
			return fmt.Errorf("field_names: empty name in %q: %q", from, to)
		}
	}

	switch strings.ToLower(c.Log.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level: unknown level %q", c.Log.Level)
	}

	return nil
}
