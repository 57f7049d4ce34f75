package schema

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestRegistryHasEveryKnownSchema(t *testing.T) {
	for name, path := range known {
		if _, ok := registry[name]; !ok {
			t.Errorf("schema %s (%s) missing from registry", name, path)
		}
		if _, err := compile(path); err != nil {
			t.Errorf("compile(%s): %v", path, err)
		}
	}
	if len(registry) != len(known) {
		t.Errorf("registry has %d schemas, expected %d", len(registry), len(known))
	}
}

func TestCompileMissingSchema(t *testing.T) {
	_, err := compile("precommit/nope.yaml")
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestValidatePreCommitConfig(t *testing.T) {
	validYAML := `
repos:
  - repo: https://github.com/pre-commit/pre-commit-hooks
    rev: v5.0.0
    hooks:
      - id: trailing-whitespace
  - repo: local
    hooks:
      - id: taplo
        entry: taplo format
        language: system
`
	var validDoc interface{}
	if err := yaml.Unmarshal([]byte(validYAML), &validDoc); err != nil {
		t.Fatal(err)
	}
	res, err := Validate(validDoc, PreCommitConfig)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Valid {
		t.Errorf("expected valid config, got errors: %v", res.Errors)
	}

	// Remote repo without rev, plus unknown hook key
	invalidYAML := `
repos:
  - repo: https://github.com/pre-commit/pre-commit-hooks
    hooks:
      - id: check-yaml
        colour: always
`
	res, err = ValidateYAML([]byte(invalidYAML), PreCommitConfig)
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid {
		t.Fatal("expected invalid config")
	}
	var joined []string
	for _, e := range res.Errors {
		joined = append(joined, e.Path+": "+e.Message)
	}
	all := strings.Join(joined, "\n")
	if !strings.Contains(all, "rev") {
		t.Errorf("expected missing rev error, got:\n%s", all)
	}
	if !strings.Contains(all, "colour") {
		t.Errorf("expected unknown property error, got:\n%s", all)
	}
}

func TestValidateManifest(t *testing.T) {
	valid := `
- id: ruff
  name: ruff
  entry: ruff check --fix
  language: python
  types_or: [python, pyi]
`
	res, err := ValidateYAML([]byte(valid), PreCommitManifest)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Valid {
		t.Errorf("expected valid manifest, got %v", res.Errors)
	}

	invalid := `
- id: Bad ID
  name: x
  entry: x
  language: cobol
`
	res, err = ValidateYAML([]byte(invalid), PreCommitManifest)
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid || len(res.Errors) < 2 {
		t.Errorf("expected id pattern and language enum errors, got %v", res.Errors)
	}
}

func TestValidateHookkitConfig(t *testing.T) {
	res, err := ValidateYAML([]byte("fixtures: test/example_files.zip\noutput: xml\n"), HookkitConfig)
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid {
		t.Error("expected output enum violation")
	}
}

func TestValidateYAMLSyntaxError(t *testing.T) {
	res, err := ValidateYAML([]byte("repos: [unclosed"), PreCommitConfig)
	if err != nil {
		t.Fatal(err)
	}
	if res.Valid || len(res.Errors) != 1 || res.Errors[0].Path != "root" {
		t.Errorf("expected single root syntax error, got %+v", res)
	}
}

func TestValidateUnknownSchema(t *testing.T) {
	if _, err := Validate(map[string]interface{}{}, "nope"); err == nil {
		t.Error("expected error for unknown schema")
	}
}
