// Package harness drives a single test run through its stages:
// preflight, workspace, hook execution and reporting.
package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/fulmenhq/hookkit/internal/gitctx"
	"github.com/fulmenhq/hookkit/internal/preflight"
	"github.com/fulmenhq/hookkit/internal/report"
	"github.com/fulmenhq/hookkit/internal/runner"
	"github.com/fulmenhq/hookkit/internal/stageerr"
	"github.com/fulmenhq/hookkit/internal/workspace"
	"github.com/fulmenhq/hookkit/pkg/config"
	"github.com/fulmenhq/hookkit/pkg/fixtures"
	"github.com/fulmenhq/hookkit/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// State is the position of a run in the pipeline.
type State int

const (
	Init State = iota
	CheckedClean
	WorkspaceReady
	HooksRun
	Reported
	Failed
)

func (s State) String() string {
	switch s {
	case Init:
		return "INIT"
	case CheckedClean:
		return "CHECKED_CLEAN"
	case WorkspaceReady:
		return "WORKSPACE_READY"
	case HooksRun:
		return "HOOKS_RUN"
	case Reported:
		return "REPORTED"
	case Failed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options carries everything a run depends on. Zero-valued collaborators
// fall back to the production implementations.
type Options struct {
	Config *config.Config

	// Status reports work tree cleanliness; defaults to git status of Config.Root.
	Status preflight.StatusSource
	// Executor runs the framework; defaults to runner.LocalExecutor.
	Executor runner.Executor
	// LookPath locates the framework; defaults to exec.LookPath.
	LookPath runner.LookPathFunc
	// RunID labels logs and the report; a random UUID when empty.
	RunID string
}

// Harness runs the pipeline once.
type Harness struct {
	opts  Options
	state State
}

// New validates opts and returns a Harness in state Init.
func New(opts Options) (*Harness, error) {
	if opts.Config == nil {
		return nil, errors.New("harness: config is required")
	}
	if opts.Status == nil {
		opts.Status = gitctx.NewRepo(opts.Config.Root)
	}
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	return &Harness{opts: opts, state: Init}, nil
}

// State returns the current pipeline state.
func (h *Harness) State() State { return h.state }

// RunID returns the identifier of this run.
func (h *Harness) RunID() string { return h.opts.RunID }

func (h *Harness) advance(to State) {
	logger.Debug("harness transition",
		logger.String("run_id", h.opts.RunID),
		logger.String("from", h.state.String()),
		logger.String("to", to.String()))
	h.state = to
}

func (h *Harness) fail(stage stageerr.Stage, err error) error {
	err = stageerr.Wrap(stage, err)
	if s, ok := stageerr.StageOf(err); ok {
		stage = s
	}
	logger.Error(StageTitle(stage)+" failed",
		logger.String("run_id", h.opts.RunID),
		logger.String("state", h.state.String()),
		logger.Err(err))
	h.advance(Failed)
	return err
}

// Run executes every stage in order. Any stage error leaves the harness in
// Failed and no report is produced; hook findings do not fail the run.
func (h *Harness) Run(ctx context.Context) (rep *report.DiffReport, err error) {
	if h.state != Init {
		return nil, fmt.Errorf("harness already ran (state %s)", h.state)
	}
	cfg := h.opts.Config
	logger.Info("harness run starting",
		logger.String("run_id", h.opts.RunID),
		logger.String("root", cfg.Root))

	guard := &preflight.Guard{
		Source:       h.opts.Status,
		CopyPatterns: append([]string{cfg.HookConfig}, cfg.Copy...),
	}
	if err := guard.CheckClean(ctx); err != nil {
		return nil, h.fail(stageerr.StagePreflight, err)
	}
	h.advance(CheckedClean)

	builder := &workspace.Builder{
		SourceRoot:   cfg.Root,
		HookConfig:   cfg.HookConfig,
		CopyPatterns: cfg.Copy,
		TempRoot:     cfg.TempDir,
		Fixtures:     fixtures.Options{StripPrefix: cfg.StripPrefix},
		Keep:         cfg.KeepWorkspace,
		RunID:        h.opts.RunID,
	}
	ws, err := builder.Build(ctx, cfg.FixturesPath())
	if err != nil {
		return nil, h.fail(stageerr.StageWorkspace, err)
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil {
			logger.Warn("failed to remove workspace", logger.String("path", ws.Root), logger.Err(cerr))
		}
	}()
	h.advance(WorkspaceReady)

	fw, err := runner.Locate(cfg.FrameworkCommand(), h.opts.LookPath)
	if err != nil {
		return nil, h.fail(stageerr.StageRun, err)
	}
	r := runner.New(fw, h.opts.Executor, cfg.CacheDir)
	if err := r.Install(ctx, ws); err != nil {
		return nil, h.fail(stageerr.StageRun, err)
	}
	outcomes, err := r.RunAll(ctx, ws)
	if err != nil {
		return nil, h.fail(stageerr.StageRun, err)
	}
	h.advance(HooksRun)

	rep, err = report.Build(ws.Fixtures, ws.Root, outcomes)
	if err != nil {
		return nil, h.fail(stageerr.StageReport, err)
	}
	rep.RunID = h.opts.RunID
	h.advance(Reported)

	logger.Info("harness run complete",
		logger.String("run_id", h.opts.RunID),
		logger.Int("changed", len(rep.Files)),
		logger.Int("failed_hooks", len(rep.Failed())))
	return rep, nil
}

// StageTitle returns the display name of a stage ("Preflight", "Workspace").
func StageTitle(s stageerr.Stage) string {
	return cases.Title(language.English).String(string(s))
}
