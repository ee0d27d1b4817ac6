package prin

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// DispatchFunc is consulted before the built-in shape dispatch when pretty
// printing a value. Returning handled=false falls through to the built-ins.
type DispatchFunc func(s *Stream, v any) (handled bool, err error)

// Options configures a printing operation. Options are threaded explicitly
// through entry points; there is no ambient global state.
type Options struct {
	// Width is the page width in columns. Zero or negative means
	// unlimited: nothing breaks on width grounds, only Mandatory
	// newlines fire.
	Width int

	// MiserWidth engages miser mode once a block starts within this many
	// columns of the right margin. Zero disables miser newlines entirely.
	MiserWidth int

	// MaxDepth limits nesting when printing values; deeper structure
	// prints as "#". Zero means unlimited.
	MaxDepth int

	// MaxLength limits how many elements of a collection are printed;
	// the remainder prints as "...". Zero means unlimited.
	MaxLength int

	// Readably quotes strings and escapes characters so output can be
	// read back.
	Readably bool

	// Radix is the base used for printing integers.
	Radix int

	// Dispatch, if set, is tried before the built-in printers.
	Dispatch DispatchFunc
}

// DefaultOptions returns the standard configuration: width 72, miser width
// 40, readable output, base 10, no depth or length limits.
func DefaultOptions() Options {
	return Options{
		Width:      72,
		MiserWidth: 40,
		Readably:   true,
		Radix:      10,
	}
}

func normalizeOptions(opts *Options) Options {
	if opts == nil {
		return DefaultOptions()
	}
	o := *opts
	if o.Radix == 0 {
		o.Radix = 10
	}
	return o
}

// FileConfig represents a prin.toml configuration file.
type FileConfig struct {
	Width      int `toml:"width,omitempty"`
	MiserWidth int `toml:"miser-width,omitempty"`
	MaxDepth   int `toml:"max-depth,omitempty"`
	MaxLength  int `toml:"max-length,omitempty"`
}

// LoadFileConfig loads a prin.toml file from the given path.
func LoadFileConfig(path string) (*FileConfig, error) {
	var config FileConfig
	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &config, nil
}

// FindFileConfig searches for a prin.toml file starting from startDir and
// walking up. It stops at a .git directory boundary. Returns the config path
// and parsed config, or "" and nil if not found.
func FindFileConfig(startDir string) (string, *FileConfig, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", nil, err
	}

	for {
		configPath := filepath.Join(dir, "prin.toml")
		if _, err := os.Stat(configPath); err == nil {
			config, err := LoadFileConfig(configPath)
			if err != nil {
				return configPath, nil, err
			}
			return configPath, config, nil
		}

		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return "", nil, nil // stop at repo boundary
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil, nil
		}
		dir = parent
	}
}

// Apply overlays the file config's explicit settings onto opts.
func (c *FileConfig) Apply(opts Options) Options {
	if c == nil {
		return opts
	}
	if c.Width != 0 {
		opts.Width = c.Width
	}
	if c.MiserWidth != 0 {
		opts.MiserWidth = c.MiserWidth
	}
	if c.MaxDepth != 0 {
		opts.MaxDepth = c.MaxDepth
	}
	if c.MaxLength != 0 {
		opts.MaxLength = c.MaxLength
	}
	return opts
}
