package catalog

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"dario.cat/mergo"
	"github.com/titanous/json5"
	"gopkg.in/yaml.v3"
)

//go:embed default_catalog.json5
var defaultDefinition []byte

// Default returns the catalog built from the embedded definition.
func Default() (*Catalog, error) {
	var def Definition
	if err := json5.Unmarshal(defaultDefinition, &def); err != nil {
		return nil, fmt.Errorf("failed to parse embedded catalog: %w", err)
	}
	return New(def)
}

// Load reads a catalog definition from path. A sibling file named
// <name>.local.<ext> is merged over it when present. An empty path returns
// the embedded default catalog.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Default()
	}

	def, err := readDefinition(path)
	if err != nil {
		return nil, err
	}

	localPath := localPath(path)
	if _, statErr := os.Stat(localPath); statErr == nil {
		override, err := readDefinition(localPath)
		if err != nil {
			return nil, err
		}
		if err := mergo.Merge(&def, override, mergo.WithOverride); err != nil {
			return nil, fmt.Errorf("failed to merge catalog overrides: %w", err)
		}
		slog.Info("Merged catalog with local overrides", "local", localPath)
	}

	cat, err := New(def)
	if err != nil {
		return nil, err
	}
	slog.Debug("Loaded field catalog", "path", path, "version", cat.Version())
	return cat, nil
}

func readDefinition(path string) (Definition, error) {
	var def Definition

	data, err := os.ReadFile(path)
	if err != nil {
		return def, fmt.Errorf("failed to read catalog file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &def)
	case ".json", ".json5":
		err = json5.Unmarshal(data, &def)
	default:
		return def, fmt.Errorf("unsupported catalog format: %s (supported: .json, .json5, .yaml, .yml)", filepath.Ext(path))
	}
	if err != nil {
		return def, fmt.Errorf("failed to parse catalog file %s: %w", path, err)
	}
	return def, nil
}

func localPath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + ".local" + ext
}
