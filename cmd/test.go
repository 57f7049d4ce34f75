/*
Copyright © 2025 3 Leaps <info@3leaps.com>
*/
package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/fulmenhq/hookkit/internal/harness"
	"github.com/fulmenhq/hookkit/internal/ops"
	"github.com/fulmenhq/hookkit/internal/preflight"
	"github.com/fulmenhq/hookkit/internal/report"
	"github.com/fulmenhq/hookkit/internal/runner"
	"github.com/fulmenhq/hookkit/pkg/config"
	"github.com/fulmenhq/hookkit/pkg/exitcode"
	"github.com/spf13/cobra"
)

// harnessDeps overrides harness collaborators; tests replace it.
var harnessDeps struct {
	Status   preflight.StatusSource
	Executor runner.Executor
	LookPath runner.LookPathFunc
}

var testCmd = &cobra.Command{
	Use:   "test",
	Short: "Run the hook bundle against the fixture archive",
	Long: `Run every hook configured in the bundle's .pre-commit-config.yaml against the
files of the fixture archive, inside a temporary git repository, and print a
diff of what the hooks changed followed by one verdict line per hook.

Hook failures are reported, not fatal: the command exits 0 whenever a report
was produced. A dirty work tree, a broken archive, or a framework that cannot
run abort the run with a stage-specific exit code.`,
	Args: cobra.NoArgs,
	RunE: runTest,
}

func init() {
	f := testCmd.Flags()
	f.String("root", ".", "Source tree containing the hook configuration")
	f.String("fixtures", "", "Fixture archive (.zip, .tar.gz, .txtar); default test/example_files.zip")
	f.String("hook-config", "", "Hook configuration relative to --root; default .pre-commit-config.yaml")
	f.String("framework", "", `Framework command override, e.g. "uvx pre-commit"`)
	f.Bool("keep-workspace", false, "Keep the temporary workspace for inspection")
	f.String("temp-dir", "", "Directory to create the workspace in (default system temp)")
	f.String("cache-dir", "", "PRE_COMMIT_HOME for hook environments")
	f.String("output", "text", "Report format (text|json)")

	if err := ops.RegisterCommand("test", ops.GroupHarness, testCmd, "Run the hooks against the fixtures and report the diff"); err != nil {
		panic(fmt.Sprintf("failed to register test command: %v", err))
	}
}

func runTest(cmd *cobra.Command, _ []string) error {
	root, _ := cmd.Flags().GetString("root")
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return withExitCode(exitcode.FileSystemError, err)
	}

	cfg, err := config.Load(absRoot, cmd.Flags())
	if err != nil {
		return withExitCode(exitcode.ConfigError, err)
	}

	h, err := harness.New(harness.Options{
		Config:   cfg,
		Status:   harnessDeps.Status,
		Executor: harnessDeps.Executor,
		LookPath: harnessDeps.LookPath,
	})
	if err != nil {
		return err
	}

	rep, err := h.Run(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if cfg.Output == "json" {
		return report.RenderJSON(out, rep)
	}
	return report.Render(out, rep)
}
