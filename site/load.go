package site

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrDefinitionEmpty indicates the definition file held no content.
var ErrDefinitionEmpty = errors.New("site: definition file is empty")

// ErrDefinitionNotFound indicates no definition file could be located.
var ErrDefinitionNotFound = errors.New("site: no definition file found")

// DefaultFilenames lists the definition filenames probed, in order, when no
// explicit path is supplied.
var DefaultFilenames = []string{"docsite.yml", "docsite.yaml"}

// Parse decodes a site definition, applies defaults, and validates it.
// Unknown keys are rejected so typos surface immediately.
func Parse(r io.Reader) (*Definition, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("site: read definition: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrDefinitionEmpty
	}

	def := &Definition{}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(def); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrDefinitionEmpty
		}
		return nil, fmt.Errorf("site: decode definition: %w", err)
	}

	applyDefaults(def)
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("site: definition invalid: %w", err)
	}
	return def, nil
}

// Load resolves and parses the definition file. An explicit path wins;
// otherwise the default filenames are probed in the working directory.
func Load(path string) (*Definition, error) {
	if strings.TrimSpace(path) != "" {
		return LoadFromPath(path)
	}
	for _, candidate := range DefaultFilenames {
		if _, err := os.Stat(candidate); err == nil {
			return LoadFromPath(candidate)
		}
	}
	return nil, ErrDefinitionNotFound
}

// LoadFromPath parses the definition at an explicit filesystem path.
func LoadFromPath(path string) (*Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrDefinitionNotFound, path)
		}
		return nil, fmt.Errorf("site: open definition: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// LoadFS parses the definition from an fs.FS, easing tests and embedding.
func LoadFS(fsys fs.FS, path string) (*Definition, error) {
	f, err := fsys.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDefinitionNotFound, path)
		}
		return nil, fmt.Errorf("site: open definition: %w", err)
	}
	defer f.Close()
	return Parse(f)
}
