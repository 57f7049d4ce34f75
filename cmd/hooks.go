/*
Copyright © 2025 3 Leaps <info@3leaps.com>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/fulmenhq/hookkit/internal/ops"
	"github.com/fulmenhq/hookkit/pkg/exitcode"
	"github.com/fulmenhq/hookkit/pkg/hookconfig"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

var hooksCmd = &cobra.Command{
	Use:   "hooks",
	Short: "List the hooks published by the bundle",
	Long: `List every hook declared in .pre-commit-hooks.yaml with its language and the
files it applies to.`,
	Args: cobra.NoArgs,
	RunE: runHooks,
}

func init() {
	hooksCmd.Flags().String("manifest", hookconfig.ManifestFileName, "Path to the hook manifest")
	hooksCmd.Flags().String("format", "table", "Output format (table|json)")

	if err := ops.RegisterCommand("hooks", ops.GroupBundle, hooksCmd, "List hooks declared in .pre-commit-hooks.yaml"); err != nil {
		panic(fmt.Sprintf("Failed to register hooks command: %v", err))
	}
}

func runHooks(cmd *cobra.Command, _ []string) error {
	manifest, _ := cmd.Flags().GetString("manifest")
	format, _ := cmd.Flags().GetString("format")

	hooks, err := hookconfig.LoadManifest(filepath.Clean(manifest))
	if err != nil {
		return withExitCode(exitcode.ConfigError, err)
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		data, err := json.MarshalIndent(hooks, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	case "table":
		return writeHookTable(out, hooks)
	default:
		return withExitCode(exitcode.ConfigError, fmt.Errorf("unknown format %q (want table or json)", format))
	}
}

// fileSelector summarises which files a hook runs on.
func fileSelector(h hookconfig.Hook) string {
	switch {
	case h.Files != "":
		return h.Files
	case len(h.TypesOr) > 0:
		return "types_or: " + strings.Join(h.TypesOr, ", ")
	case len(h.Types) > 0:
		return "types: " + strings.Join(h.Types, ", ")
	default:
		return "*"
	}
}

func writeHookTable(w io.Writer, hooks []hookconfig.Hook) error {
	rows := [][]string{{"ID", "LANGUAGE", "FILES", "NAME"}}
	for _, h := range hooks {
		rows = append(rows, []string{h.ID, h.Language, fileSelector(h), h.Name})
	}
	return writeTable(w, rows)
}

// writeTable aligns columns by display width so names with wide runes line up.
func writeTable(w io.Writer, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}
	widths := make([]int, len(rows[0]))
	for _, row := range rows {
		for i, cell := range row {
			if cw := runewidth.StringWidth(cell); cw > widths[i] {
				widths[i] = cw
			}
		}
	}
	for _, row := range rows {
		var sb strings.Builder
		for i, cell := range row {
			if i == len(row)-1 {
				sb.WriteString(cell)
				break
			}
			sb.WriteString(runewidth.FillRight(cell, widths[i]))
			sb.WriteString("  ")
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(sb.String(), " ")); err != nil {
			return err
		}
	}
	return nil
}
