/*
Copyright © 2025 3 Leaps <info@3leaps.com>
*/
package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strings"

	"github.com/fulmenhq/hookkit/internal/ops"
	"github.com/fulmenhq/hookkit/internal/stageerr"
	"github.com/fulmenhq/hookkit/pkg/buildinfo"
	"github.com/fulmenhq/hookkit/pkg/exitcode"
	"github.com/fulmenhq/hookkit/pkg/logger"
	"github.com/spf13/cobra"
)

// newRootCommand creates a fresh root command instance.
func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hookkit",
		Short: "Test harness and tooling for a shared pre-commit hook bundle",
		Long: `Hookkit runs the hooks of a pre-commit bundle against a set of deliberately
broken fixture files in a throwaway repository and reports what they changed.

Examples:
   hookkit test                 # Run every configured hook against the fixtures
   hookkit test --output json   # Same, machine-readable
   hookkit hooks                # List hooks the bundle publishes
   hookkit validate             # Schema-check the bundle's YAML files
   hookkit fixtures list        # Show what the fixture archive contains`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			initializeLogger(cmd)
		},
	}

	cmd.PersistentFlags().String("log-level", "info", "Set log level (trace|debug|info|warn|error)")
	cmd.PersistentFlags().Bool("json", false, "Output logs in JSON format")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	cmd.Version = buildinfo.BinaryVersion
	cmd.SetVersionTemplate("hookkit {{.Version}}\n")

	cmd.SetHelpFunc(func(cmd *cobra.Command, _ []string) {
		if cmd.HasParent() {
			if cmd.Long != "" {
				cmd.Println(cmd.Long)
				cmd.Println()
			}
			cmd.Print(cmd.UsageString())
			return
		}
		reg := ops.GetRegistry()
		cmd.Println(cmd.Long)
		for _, group := range ops.Groups {
			cmd.Println()
			cmd.Println(group.Title() + ":")
			for _, c := range reg.GetCommandsByGroup(group) {
				cmd.Printf("  %-12s %s\n", c.Name, c.Description)
			}
		}
		cmd.Println()
		cmd.Println("Flags:")
		cmd.Print(cmd.LocalFlags().FlagUsages())
	})

	return cmd
}

// registerSubcommands adds all subcommands to the root command.
func registerSubcommands(cmd *cobra.Command) {
	cmd.AddCommand(testCmd)
	cmd.AddCommand(hooksCmd)
	cmd.AddCommand(validateCmd)
	cmd.AddCommand(fixturesCmd)
	cmd.AddCommand(versionCmd)
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = newRootCommand()

// Execute runs the root command and exits with the code matching the failure.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		// stage failures were already reported by the harness
		if _, ok := stageerr.StageOf(err); !ok {
			logger.Error("Command execution failed", logger.Err(err))
		}
		os.Exit(exitCode(err))
	}
}

func init() {
	registerSubcommands(rootCmd)
}

// exitError carries an explicit exit code for non-stage failures.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return stageerr.ExitCode(err)
}

// initializeLogger sets up the logger based on command flags
func initializeLogger(cmd *cobra.Command) {
	logLevelStr, _ := cmd.Flags().GetString("log-level")
	jsonLogs, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")

	config := logger.Config{
		Level:     logger.ParseLevel(strings.ToLower(logLevelStr)),
		UseColor:  !noColor,
		JSON:      jsonLogs,
		Component: "hookkit",
	}

	if err := logger.Initialize(config); err != nil {
		_, _ = os.Stderr.WriteString("Failed to initialize logger: " + err.Error() + "\n")
		os.Exit(exitcode.ConfigError)
	}
}
