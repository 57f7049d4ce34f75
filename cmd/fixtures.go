/*
Copyright © 2025 3 Leaps <info@3leaps.com>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/fulmenhq/hookkit/internal/ops"
	"github.com/fulmenhq/hookkit/pkg/config"
	"github.com/fulmenhq/hookkit/pkg/exitcode"
	"github.com/fulmenhq/hookkit/pkg/fixtures"
	"github.com/fulmenhq/hookkit/pkg/logger"
	"github.com/spf13/cobra"
)

var fixturesCmd = &cobra.Command{
	Use:   "fixtures",
	Short: "Inspect and build fixture archives",
}

var fixturesListCmd = &cobra.Command{
	Use:   "list [archive]",
	Short: "List the files a fixture archive will place in the workspace",
	Long: `List the entries of a fixture archive after prefix stripping and path
validation. Without an argument the archive configured for --root is used.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runFixturesList,
}

var fixturesPackCmd = &cobra.Command{
	Use:   "pack <dir> <archive.zip>",
	Short: "Build a fixture zip from a directory",
	Args:  cobra.ExactArgs(2),
	RunE:  runFixturesPack,
}

func init() {
	fixturesListCmd.Flags().String("root", ".", "Source tree whose configuration names the archive")
	fixturesListCmd.Flags().String("strip-prefix", fixtures.DefaultStripPrefix, "Leading directory removed from entry names")

	fixturesPackCmd.Flags().String("prefix", fixtures.DefaultStripPrefix, "Directory to nest entries under")
	fixturesPackCmd.Flags().StringSlice("exclude", []string{".git/**", "**/.DS_Store"}, "Glob patterns to leave out")

	fixturesCmd.AddCommand(fixturesListCmd)
	fixturesCmd.AddCommand(fixturesPackCmd)

	if err := ops.RegisterCommand("fixtures", ops.GroupBundle, fixturesCmd, "List or build fixture archives"); err != nil {
		panic(fmt.Sprintf("Failed to register fixtures command: %v", err))
	}
}

func runFixturesList(cmd *cobra.Command, args []string) error {
	strip, _ := cmd.Flags().GetString("strip-prefix")

	var archive string
	if len(args) == 1 {
		archive = args[0]
	} else {
		root, _ := cmd.Flags().GetString("root")
		cfg, err := config.Load(root, nil)
		if err != nil {
			return withExitCode(exitcode.ConfigError, err)
		}
		archive = cfg.FixturesPath()
		if !cmd.Flags().Changed("strip-prefix") {
			strip = cfg.StripPrefix
		}
	}

	set, err := fixtures.Load(archive, fixtures.Options{StripPrefix: strip})
	if err != nil {
		return withExitCode(exitcode.ValidationError, err)
	}

	rows := [][]string{{"PATH", "MODE", "SIZE"}}
	for _, e := range set.Entries {
		rows = append(rows, []string{e.Path, e.Mode.String(), humanize.Bytes(uint64(len(e.Data)))})
	}
	out := cmd.OutOrStdout()
	if err := writeTable(out, rows); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "\n%d files, %s\n", set.Len(), humanize.Bytes(set.TotalBytes()))
	return err
}

func runFixturesPack(cmd *cobra.Command, args []string) error {
	prefix, _ := cmd.Flags().GetString("prefix")
	exclude, _ := cmd.Flags().GetStringSlice("exclude")
	dir, dest := args[0], args[1]

	if filepath.Ext(dest) != ".zip" {
		return withExitCode(exitcode.ConfigError, fmt.Errorf("%s: only .zip archives can be written", dest))
	}

	set, err := fixtures.FromDir(dir, prefix, exclude)
	if err != nil {
		return withExitCode(exitcode.FileSystemError, err)
	}

	f, err := os.Create(dest) // #nosec G304 -- operator supplied output path
	if err != nil {
		return withExitCode(exitcode.FileSystemError, err)
	}
	if err := fixtures.WriteZip(f, set); err != nil {
		_ = f.Close()
		return withExitCode(exitcode.FileSystemError, err)
	}
	if err := f.Close(); err != nil {
		return withExitCode(exitcode.FileSystemError, err)
	}

	logger.Info("fixture archive written",
		logger.String("path", dest),
		logger.Int("files", set.Len()),
		logger.String("size", humanize.Bytes(set.TotalBytes())))
	return nil
}
