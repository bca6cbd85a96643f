// Package installer drives a full run: validate, resolve the state
// directory, plan, execute each install step in order and publish the
// resulting profile.
package installer

import (
	"context"
	"time"

	"github.com/alexisbeaulieu97/nixprofile/internal/augment"
	"github.com/alexisbeaulieu97/nixprofile/internal/config"
	"github.com/alexisbeaulieu97/nixprofile/internal/execx"
	"github.com/alexisbeaulieu97/nixprofile/internal/logger"
	"github.com/alexisbeaulieu97/nixprofile/internal/nix"
	"github.com/alexisbeaulieu97/nixprofile/internal/nixexpr"
	"github.com/alexisbeaulieu97/nixprofile/internal/planner"
	"github.com/alexisbeaulieu97/nixprofile/internal/profile"
	nperrors "github.com/alexisbeaulieu97/nixprofile/pkg/errors"
)

// OutputProfilePath is the step output carrying the profile directory.
const OutputProfilePath = "nix_profile_path"

// Nix is the subset of the nix CLI the installer needs.
type Nix interface {
	augment.Resolver
	ProfileInstall(ctx context.Context, opts nix.InstallOptions) (execx.Result, error)
	FlakeLockedURL(ctx context.Context, ref string) (string, error)
	RepoLockedURL(ctx context.Context, dir string) (string, error)
	System(ctx context.Context) (string, error)
}

// Publisher hands results to the rest of the job.
type Publisher interface {
	AddPath(dir string) error
	SetOutput(name, value string) error
	ExportVariable(name, value string) error
}

// grouper is implemented by publishers that can fold log output per step.
type grouper interface {
	Group(title string)
	EndGroup()
}

// Installer orchestrates one invocation.
type Installer struct {
	Nix       Nix
	State     *profile.Manager
	Publisher Publisher
	Logger    *logger.Logger
	// WorkDir is the repository checkout pinned as repoFlake.
	WorkDir string
	// Concurrency bounds parallel package lookups.
	Concurrency int
}

// Invocation is a planned step rendered into nix arguments.
type Invocation struct {
	Step    planner.Step
	Options nix.InstallOptions
}

// Prepared is everything decided before the first mutating call.
type Prepared struct {
	StateDir   string
	ProfileDir string
	BinDir     string
	// InputsFrom is the locked inputs-from URL, empty when not requested.
	InputsFrom string
	// Sources is nil when no step needs an expression.
	Sources     *nixexpr.Sources
	Plan        *planner.Plan
	Invocations []Invocation
}

// StepResult records one executed step.
type StepResult struct {
	ID       string
	Exec     execx.Result
	Duration time.Duration
	Err      error
}

// Result describes a finished run. On failure it holds the steps that ran.
type Result struct {
	StateDir   string
	ProfileDir string
	BinDir     string
	Steps      []StepResult
}

// Run prepares, executes and publishes. Nothing is published if any step
// fails, and steps already applied to the profile are left in place.
func (i *Installer) Run(ctx context.Context, req config.Request) (*Result, error) {
	prepared, err := i.Prepare(ctx, req)
	if err != nil {
		return nil, err
	}

	res, err := i.Execute(ctx, prepared)
	if err != nil {
		return res, err
	}

	if err := i.Publish(res); err != nil {
		return res, err
	}
	return res, nil
}

// Prepare validates req, resolves locked sources and the state directory,
// and renders the install invocations. It creates the state directory but
// does not touch the profile.
func (i *Installer) Prepare(ctx context.Context, req config.Request) (*Prepared, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	prepared := &Prepared{}

	if req.InputsFrom != "" {
		locked, err := i.Nix.FlakeLockedURL(ctx, req.InputsFrom)
		if err != nil {
			return nil, err
		}
		prepared.InputsFrom = locked
		i.Logger.WithFields(map[string]any{"ref": req.InputsFrom, "locked": locked}).Info("locked inputs-from")
	}

	stateDir, err := i.State.ResolveStateDir()
	if err != nil {
		return nil, err
	}
	prepared.StateDir = stateDir
	prepared.ProfileDir = profile.ProfileDir(stateDir)
	prepared.BinDir = profile.BinDir(prepared.ProfileDir)

	p := planner.New(&augment.Augmenter{
		Resolver:    i.Nix,
		InputsFrom:  prepared.InputsFrom,
		Concurrency: i.Concurrency,
		Logger:      i.Logger,
	})
	plan, err := p.Plan(ctx, req)
	if err != nil {
		return nil, err
	}
	prepared.Plan = plan

	if plan.NeedsSources() {
		sources, err := i.resolveSources(ctx, prepared.InputsFrom)
		if err != nil {
			return nil, err
		}
		prepared.Sources = sources
	}

	for _, step := range plan.Steps {
		prepared.Invocations = append(prepared.Invocations, Invocation{
			Step:    step,
			Options: invocationOptions(step, prepared),
		})
	}
	return prepared, nil
}

func (i *Installer) resolveSources(ctx context.Context, inputsFrom string) (*nixexpr.Sources, error) {
	sources := &nixexpr.Sources{InputsFrom: inputsFrom}

	repo, err := i.Nix.RepoLockedURL(ctx, i.WorkDir)
	if err != nil {
		return nil, err
	}
	sources.Repo = repo

	if inputsFrom == "" {
		nixpkgs, err := i.Nix.FlakeLockedURL(ctx, nixexpr.DefaultCollection)
		if err != nil {
			return nil, err
		}
		sources.Nixpkgs = nixpkgs
	}

	system, err := i.Nix.System(ctx)
	if err != nil {
		return nil, err
	}
	sources.System = system

	i.Logger.WithFields(map[string]any{
		"repo":    sources.Repo,
		"nixpkgs": sources.Nixpkgs,
		"system":  sources.System,
	}).Debug("resolved expression sources")
	return sources, nil
}

func invocationOptions(step planner.Step, p *Prepared) nix.InstallOptions {
	opts := nix.InstallOptions{Profile: p.ProfileDir}
	if step.Kind == planner.KindExpression {
		opts.Expr = nixexpr.Render(nixexpr.Synthesize(*p.Sources, step.Body, step.AllowUnfree))
		return opts
	}
	opts.InputsFrom = p.InputsFrom
	opts.Installables = step.Installables
	return opts
}

// Execute runs the invocations one after another. The first failure stops
// the run and is returned as an ExecutionError naming the step.
func (i *Installer) Execute(ctx context.Context, p *Prepared) (*Result, error) {
	res := &Result{StateDir: p.StateDir, ProfileDir: p.ProfileDir, BinDir: p.BinDir}
	g, _ := i.Publisher.(grouper)

	for _, inv := range p.Invocations {
		log := i.Logger.WithFields(map[string]any{"step": inv.Step.ID, "kind": string(inv.Step.Kind)})
		log.Info("installing")

		if g != nil {
			g.Group("nix profile install: " + inv.Step.ID)
		}
		start := time.Now()
		execRes, err := i.Nix.ProfileInstall(ctx, inv.Options)
		if g != nil {
			g.EndGroup()
		}

		step := StepResult{ID: inv.Step.ID, Exec: execRes, Duration: time.Since(start), Err: err}
		res.Steps = append(res.Steps, step)

		if err != nil {
			log.Error(err, "install failed")
			return res, nperrors.NewExecutionError(inv.Step.ID, err)
		}
		log.WithFields(map[string]any{"duration_ms": step.Duration.Milliseconds()}).Debug("installed")
	}
	return res, nil
}

// Publish exposes the profile's bin directory, the profile path output and
// the state directory for later invocations and the post step.
func (i *Installer) Publish(res *Result) error {
	if err := i.Publisher.AddPath(res.BinDir); err != nil {
		return err
	}
	if err := i.Publisher.SetOutput(OutputProfilePath, res.ProfileDir); err != nil {
		return err
	}
	return i.Publisher.ExportVariable(profile.StateEnvVar, res.StateDir)
}
