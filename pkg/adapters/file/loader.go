package file

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/scriptor/pkg/domain"
	"gopkg.in/yaml.v3"
)

// scriptExtensions are tried in order when resolving a script name.
var scriptExtensions = []string{".yaml", ".yml", ".json"}

// Loader implements ports.ScriptLoader over a directory of YAML or JSON files.
// A script is addressed by its file name without extension; the name field of
// the document, when present, must agree with it.
type Loader struct {
	Dir string
}

// NewLoader creates a Loader reading from dir.
func NewLoader(dir string) *Loader {
	return &Loader{Dir: dir}
}

// Load reads and decodes the script called name.
func (l *Loader) Load(ctx context.Context, name string) (*domain.Script, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, fmt.Errorf("%w: invalid script name %q", domain.ErrScriptNotFound, name)
	}

	for _, ext := range scriptExtensions {
		path := filepath.Join(l.Dir, name+ext)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read script %s: %w", path, err)
		}

		script, err := Decode(data, ext)
		if err != nil {
			return nil, fmt.Errorf("failed to decode script %s: %w", path, err)
		}
		if script.Name == "" {
			script.Name = name
		}
		if script.Name != name {
			return nil, fmt.Errorf("script %s declares name %q", path, script.Name)
		}
		return script, nil
	}

	return nil, fmt.Errorf("%w: %s", domain.ErrScriptNotFound, name)
}

// List returns the names of every script file in the directory.
func (l *Loader) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(l.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to list scripts: %w", err)
	}

	seen := make(map[string]string)
	names := []string{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		if !isScriptExt(ext) {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ext)
		if prev, ok := seen[name]; ok {
			return nil, fmt.Errorf("script name collision: %s and %s both resolve to %q", prev, entry.Name(), name)
		}
		seen[name] = entry.Name()
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Decode parses a script document. ext selects JSON (".json") or YAML.
func Decode(data []byte, ext string) (*domain.Script, error) {
	var script domain.Script
	if ext == ".json" {
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&script); err != nil {
			return nil, err
		}
		return &script, nil
	}
	if err := yaml.Unmarshal(data, &script); err != nil {
		return nil, err
	}
	return &script, nil
}

func isScriptExt(ext string) bool {
	for _, e := range scriptExtensions {
		if e == ext {
			return true
		}
	}
	return false
}
