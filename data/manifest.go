// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Seedwing Policy Contributors

package data

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/samber/oops"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// manifestSchemaDoc describes the optional `_manifest.json` a data directory
// may carry (§6: "data-source layout"). It is intentionally permissive
// about the `entries` values themselves — only the envelope shape is
// validated — since entries describe whatever JSON/YAML/octet data the
// directory actually holds.
const manifestSchemaDoc = `{
	"type": "object",
	"required": ["entries"],
	"properties": {
		"version": {"type": "integer"},
		"entries": {
			"type": "object",
			"additionalProperties": {
				"type": "object",
				"required": ["description"],
				"properties": {
					"description": {"type": "string"}
				}
			}
		}
	}
}`

func compileManifestSchema() (*jsonschema.Schema, error) {
	c := jsonschema.NewCompiler()
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader([]byte(manifestSchemaDoc)))
	if err != nil {
		return nil, err
	}
	const resource = "manifest.schema.json"
	if err := c.AddResource(resource, doc); err != nil {
		return nil, err
	}
	return c.Compile(resource)
}

// ValidateManifest checks dir's optional `_manifest.json` against the
// data-directory manifest schema, returning ok=false with no error if the
// file is absent (a manifest is optional; its absence is not malformed).
func ValidateManifest(dir string) (ok bool, err error) {
	path := filepath.Join(dir, "_manifest.json")
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, oops.Code("MANIFEST_UNREADABLE").With("path", path).Wrap(err)
	}

	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return false, oops.Code("MANIFEST_INVALID_JSON").With("path", path).Wrap(err)
	}

	schema, err := compileManifestSchema()
	if err != nil {
		return false, oops.Code("MANIFEST_SCHEMA_ERROR").Wrap(err)
	}
	if err := schema.Validate(generic); err != nil {
		return false, oops.Code("MANIFEST_SCHEMA_VIOLATION").With("path", path).Wrap(err)
	}
	return true, nil
}
