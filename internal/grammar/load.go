package grammar

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// File formats accepted by LoadFile and Parse.
const (
	FormatTOML = "toml"
	FormatYAML = "yaml"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported grammar file format")
	ErrNoGrammars        = errors.New("grammar file declares no grammars")
)

// File is the on-disk layout of a grammar list.
type File struct {
	Grammars []Spec `toml:"grammars" yaml:"grammars"`
}

// FormatForPath infers the grammar file format from its extension.
func FormatForPath(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, path)
	}
}

// LoadFile reads, parses and validates a grammar file.
func LoadFile(path string) ([]Spec, error) {
	format, err := FormatForPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read grammar file: %w", err)
	}
	specs, err := Parse(data, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return specs, nil
}

// Parse decodes a grammar list in the given format and validates it.
// Declaration order is preserved.
func Parse(data []byte, format string) ([]Spec, error) {
	var f File
	switch format {
	case FormatTOML:
		md, err := toml.Decode(string(data), &f)
		if err != nil {
			return nil, fmt.Errorf("decode toml grammars: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("decode toml grammars: unknown key %q", undecoded[0].String())
		}
	case FormatYAML:
		dec := yaml.NewDecoder(strings.NewReader(string(data)))
		dec.KnownFields(true)
		if err := dec.Decode(&f); err != nil {
			return nil, fmt.Errorf("decode yaml grammars: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}

	if len(f.Grammars) == 0 {
		return nil, ErrNoGrammars
	}
	if err := ValidateSet(f.Grammars); err != nil {
		return nil, err
	}
	return f.Grammars, nil
}
