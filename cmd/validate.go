/*
Copyright © 2025 3 Leaps <info@3leaps.com>
*/
package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fulmenhq/hookkit/internal/ops"
	"github.com/fulmenhq/hookkit/internal/schema"
	"github.com/fulmenhq/hookkit/pkg/config"
	"github.com/fulmenhq/hookkit/pkg/exitcode"
	"github.com/fulmenhq/hookkit/pkg/hookconfig"
	"github.com/fulmenhq/hookkit/pkg/logger"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the bundle's YAML files against embedded schemas",
	Long: `Validate .pre-commit-hooks.yaml, .pre-commit-config.yaml and, when present,
.hookkit.yaml against the embedded JSON schemas, then check the hook
definitions themselves (required keys, duplicate ids).`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().String("root", ".", "Bundle root directory")
	validateCmd.Flags().String("format", "text", "Output format (text|json)")

	if err := ops.RegisterCommand("validate", ops.GroupBundle, validateCmd, "Schema-check the bundle's YAML files"); err != nil {
		panic(fmt.Sprintf("Failed to register validate command: %v", err))
	}
}

// fileResult is the validation outcome of one bundle file.
type fileResult struct {
	File   string                   `json:"file"`
	Valid  bool                     `json:"valid"`
	Errors []schema.ValidationError `json:"errors,omitempty"`
}

type bundleFile struct {
	name     string
	schema   string
	required bool
	check    func([]byte) error
}

var bundleFiles = []bundleFile{
	{hookconfig.ManifestFileName, schema.PreCommitManifest, true, func(b []byte) error {
		_, err := hookconfig.ParseManifest(b)
		return err
	}},
	{hookconfig.ConfigFileName, schema.PreCommitConfig, true, func(b []byte) error {
		_, err := hookconfig.ParseConfig(b)
		return err
	}},
	{config.FileName, schema.HookkitConfig, false, nil},
}

func runValidate(cmd *cobra.Command, _ []string) error {
	root, _ := cmd.Flags().GetString("root")
	format, _ := cmd.Flags().GetString("format")

	results, err := validateBundle(root)
	if err != nil {
		return withExitCode(exitcode.FileSystemError, err)
	}

	out := cmd.OutOrStdout()
	invalid := 0
	for _, r := range results {
		if !r.Valid {
			invalid++
		}
	}

	if format == "json" {
		data, err := json.MarshalIndent(results, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(out, string(data))
	} else {
		for _, r := range results {
			if r.Valid {
				fmt.Fprintf(out, "ok    %s\n", r.File)
				continue
			}
			fmt.Fprintf(out, "FAIL  %s\n", r.File)
			for _, e := range r.Errors {
				fmt.Fprintf(out, "      %s: %s\n", e.Path, e.Message)
			}
		}
	}

	if invalid > 0 {
		return withExitCode(exitcode.ValidationError, fmt.Errorf("%d of %d files invalid", invalid, len(results)))
	}
	return nil
}

func validateBundle(root string) ([]fileResult, error) {
	var results []fileResult
	for _, bf := range bundleFiles {
		path := filepath.Join(root, bf.name)
		data, err := os.ReadFile(path) // #nosec G304 -- fixed names under the bundle root
		if errors.Is(err, os.ErrNotExist) {
			if bf.required {
				results = append(results, fileResult{File: bf.name, Errors: []schema.ValidationError{{Path: "root", Message: "file not found"}}})
			}
			continue
		}
		if err != nil {
			return nil, err
		}

		res, err := schema.ValidateYAML(data, bf.schema)
		if err != nil {
			return nil, err
		}
		fr := fileResult{File: bf.name, Valid: res.Valid, Errors: res.Errors}
		if fr.Valid && bf.check != nil {
			if err := bf.check(data); err != nil {
				fr.Valid = false
				fr.Errors = append(fr.Errors, schema.ValidationError{Path: "root", Message: err.Error()})
			}
		}
		logger.Debug("validated bundle file", logger.String("file", bf.name), logger.Bool("valid", fr.Valid))
		results = append(results, fr)
	}
	return results, nil
}
