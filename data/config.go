// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

package data

import (
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"

	"github.com/seedwing/policy-engine/value"
)

// Config is the per-evaluation configuration map consulted by
// `config::of<"key">` (§4.10: "a config map (mapping from string to
// (String|Integer|Decimal|Boolean))"). It is loaded once when a World is
// built and shared read-only across evaluations.
type Config struct {
	values map[string]*value.Value
}

// NewConfig wraps an already-decoded map of scalars as a Config, for
// callers constructing one programmatically (tests, the playground
// evaluator).
func NewConfig(values map[string]*value.Value) *Config {
	if values == nil {
		values = map[string]*value.Value{}
	}
	return &Config{values: values}
}

// LoadConfigFile loads a Seedwing.toml-equivalent YAML configuration file
// (§6: "An optional Seedwing.toml lists policy and data directories and a
// configuration table passed to config::of") via koanf, extracting the
// `config` table into a Config. The teacher's go.mod lists the full koanf
// stack without using it; this is the component that exercises it.
func LoadConfigFile(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, oops.Code("CONFIG_UNREADABLE").With("path", path).Wrap(err)
	}

	sub := k.Cut("config")
	values := make(map[string]*value.Value, len(sub.Keys()))
	for _, key := range sub.Keys() {
		v, err := value.FromJSON(sub.Get(key))
		if err != nil {
			return nil, oops.Code("CONFIG_INVALID").With("key", key).Wrap(err)
		}
		values[key] = v
	}
	return &Config{values: values}, nil
}

// Get returns the scalar configured under key, or ok=false if absent.
func (c *Config) Get(key string) (*value.Value, bool) {
	if c == nil {
		return nil, false
	}
	v, ok := c.values[key]
	return v, ok
}
