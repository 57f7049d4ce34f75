package schema

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/fulmenhq/hookkit/internal/assets"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Names of the embedded schemas.
const (
	PreCommitConfig   = "precommit-config-v1"
	PreCommitManifest = "precommit-manifest-v1"
	HookkitConfig     = "hookkit-config-v1"
)

// ValidationError represents a single validation error.
type ValidationError struct {
	Path    string `json:"path,omitempty"` // e.g. "repos.0.hooks.1"
	Message string `json:"message"`
}

// Result holds the validation result.
type Result struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// known maps schema names to their embedded asset paths.
var known = map[string]string{
	PreCommitConfig:   "precommit/config-v1.yaml",
	PreCommitManifest: "precommit/manifest-v1.yaml",
	HookkitConfig:     "config/hookkit-config-v1.yaml",
}

// registry holds pre-compiled schemas keyed by name.
var registry = make(map[string]*gojsonschema.Schema)

// An embedded schema that does not compile is a build defect.
func init() {
	for name, path := range known {
		schema, err := compile(path)
		if err != nil {
			panic(fmt.Sprintf("schema %s: %v", name, err))
		}
		registry[name] = schema
	}
}

func compile(path string) (*gojsonschema.Schema, error) {
	schemaBytes, ok := assets.GetSchema(path)
	if !ok {
		return nil, fmt.Errorf("embedded schema %s not found", path)
	}
	// Convert YAML to JSON for gojsonschema
	var schemaData interface{}
	if err := yaml.Unmarshal(schemaBytes, &schemaData); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	jsonBytes, err := json.Marshal(schemaData)
	if err != nil {
		return nil, fmt.Errorf("convert %s: %w", path, err)
	}
	schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(jsonBytes))
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", path, err)
	}
	return schema, nil
}

// Validate validates data (interface{}) against the named schema.
func Validate(data interface{}, schemaName string) (*Result, error) {
	schema, ok := registry[schemaName]
	if !ok {
		return nil, fmt.Errorf("schema %s not found in registry", schemaName)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(data))
	if err != nil {
		return nil, fmt.Errorf("validation error: %w", err)
	}

	res := &Result{Valid: result.Valid()}
	for _, verr := range result.Errors() {
		field := verr.Field()
		if field == "" || field == "(root)" {
			field = "root"
		}
		res.Errors = append(res.Errors, ValidationError{
			Path:    field,
			Message: verr.Description(),
		})
	}
	sort.SliceStable(res.Errors, func(i, j int) bool { return res.Errors[i].Path < res.Errors[j].Path })
	return res, nil
}

// ValidateYAML decodes a YAML document and validates it against the named schema.
func ValidateYAML(data []byte, schemaName string) (*Result, error) {
	var doc interface{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return &Result{Valid: false, Errors: []ValidationError{{Path: "root", Message: err.Error()}}}, nil
	}
	return Validate(doc, schemaName)
}
