// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

// Package data implements the read-only data sources consulted by
// `data::from`/`*pattern` dereference and the per-evaluation configuration
// map consulted by `config::of` (§4.10, §6 data-source layout).
package data

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/seedwing/policy-engine/value"
)

// Source is a read-only key/value lookup consulted by Deref evaluation
// (§4.4: "perform a lookup through the attached data sources; the first
// source that yields a value provides the new input").
type Source interface {
	// Lookup returns the value addressed by path (source-specific, e.g. a
	// relative file path or a dotted key), or ok=false if this source has
	// nothing for path.
	Lookup(path string) (v *value.Value, ok bool, err error)
	// Name identifies the source for diagnostics.
	Name() string
}

// Sources is an ordered list of Source consulted in order; the first hit
// wins (§4.4).
type Sources []Source

// Lookup consults each source in order, returning the first hit.
func (s Sources) Lookup(path string) (*value.Value, bool, error) {
	for _, src := range s {
		v, ok, err := src.Lookup(path)
		if err != nil {
			return nil, false, oops.With("source", src.Name(), "path", path).Wrap(err)
		}
		if ok {
			return v, true, nil
		}
	}
	return nil, false, nil
}

// FileSource exposes a directory tree as `data::from<"relative/path">`.
// JSON and YAML files decode to their corresponding Value shape; any other
// file becomes Octets (§6: "Data-source layout").
type FileSource struct {
	root string
}

// NewFileSource roots a FileSource at dir. dir is not scanned eagerly;
// files are read lazily on Lookup so a large data directory costs nothing
// until it's dereferenced.
func NewFileSource(dir string) *FileSource {
	return &FileSource{root: filepath.Clean(dir)}
}

// NewValidatedFileSource is NewFileSource plus an eager check of dir's
// optional `_manifest.json` against the data-directory manifest schema, so
// a malformed manifest fails World construction instead of surfacing as a
// confusing lookup-time decode error.
func NewValidatedFileSource(dir string) (*FileSource, error) {
	if _, err := ValidateManifest(dir); err != nil {
		return nil, err
	}
	return NewFileSource(dir), nil
}

func (f *FileSource) Name() string { return "file:" + f.root }

// Lookup resolves path relative to the source root. Path traversal outside
// the root is rejected, since data sources are meant to expose exactly
// their configured subtree.
func (f *FileSource) Lookup(path string) (*value.Value, bool, error) {
	clean := filepath.Clean("/" + path)[1:]
	full := filepath.Join(f.root, clean)
	if !strings.HasPrefix(full, f.root) {
		return nil, false, oops.Code("INVALID_DATA_PATH").Errorf("data: path %q escapes source root", path)
	}

	raw, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, oops.Code("FILE_UNREADABLE").Wrap(err)
	}

	switch strings.ToLower(filepath.Ext(full)) {
	case ".json":
		v, err := decodeJSON(raw)
		if err != nil {
			return nil, false, oops.Code("JSON_ERROR").Wrap(err)
		}
		return v, true, nil
	case ".yaml", ".yml":
		v, err := decodeYAML(raw)
		if err != nil {
			return nil, false, oops.Code("YAML_ERROR").Wrap(err)
		}
		return v, true, nil
	default:
		return value.NewOctets(raw), true, nil
	}
}

func decodeJSON(raw []byte) (*value.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, err
	}
	return value.FromJSON(generic)
}

func decodeYAML(raw []byte) (*value.Value, error) {
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return nil, err
	}
	return value.FromJSON(normalizeYAML(generic))
}

// normalizeYAML converts yaml.v3's map[string]interface{} (and, for nested
// maps, map[string]interface{} again since v3 always decodes string-keyed
// mappings to map[string]interface{}) plus []interface{} into the shapes
// value.FromJSON understands, normalizing non-string keys to strings (§3:
// "YAML keys are normalized to strings").
func normalizeYAML(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = normalizeYAML(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[keyToString(k)] = normalizeYAML(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = normalizeYAML(val)
		}
		return out
	default:
		return v
	}
}

func keyToString(k any) string {
	if s, ok := k.(string); ok {
		return s
	}
	b, err := json.Marshal(k)
	if err != nil {
		return ""
	}
	return strings.Trim(string(b), `"`)
}
