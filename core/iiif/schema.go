package iiif

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/siherrmann/inscriber/helper"
	"github.com/siherrmann/inscriber/model"
)

//go:embed schema/manifest.schema.json
var manifestSchemaJSON []byte

const manifestSchemaURL = "manifest.schema.json"

var (
	manifestSchemaOnce sync.Once
	manifestSchema     *jsonschema.Schema
	manifestSchemaErr  error
)

func compiledManifestSchema() (*jsonschema.Schema, error) {
	manifestSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(manifestSchemaURL, bytes.NewReader(manifestSchemaJSON)); err != nil {
			manifestSchemaErr = helper.NewError("load manifest schema", err)
			return
		}
		manifestSchema, manifestSchemaErr = compiler.Compile(manifestSchemaURL)
		if manifestSchemaErr != nil {
			manifestSchemaErr = helper.NewError("compile manifest schema", manifestSchemaErr)
		}
	})
	return manifestSchema, manifestSchemaErr
}

// ParseManifest validates data against the manifest schema and decodes it.
// Any malformed document fails with helper.ErrManifestSchema, which also
// matches helper.ErrManifestUnavailable.
func ParseManifest(data []byte) (*model.Manifest, error) {
	schema, err := compiledManifestSchema()
	if err != nil {
		return nil, err
	}

	var doc interface{}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, helper.Kind(helper.ErrManifestSchema, "invalid json", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, helper.Kind(helper.ErrManifestSchema, "", err)
	}

	var manifest model.Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, helper.Kind(helper.ErrManifestSchema, "decode", err)
	}
	return &manifest, nil
}
