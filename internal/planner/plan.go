package planner

import (
	"context"
	"strings"

	"github.com/alexisbeaulieu97/nixprofile/internal/augment"
	"github.com/alexisbeaulieu97/nixprofile/internal/config"
	"github.com/alexisbeaulieu97/nixprofile/internal/nixexpr"
)

// StepKind selects how a step is handed to nix.
type StepKind string

const (
	// KindPackages installs a list of installables by name.
	KindPackages StepKind = "packages"
	// KindExpression installs the result of a synthesized expression.
	KindExpression StepKind = "expression"
)

// Step is one `nix profile install` invocation.
type Step struct {
	// ID names the step in logs and errors.
	ID   string
	Kind StepKind

	// Installables is set for KindPackages.
	Installables []string

	// Body and AllowUnfree are set for KindExpression. Body is evaluated
	// inside the pinned let block built by nixexpr.Synthesize.
	Body        nixexpr.Expr
	AllowUnfree bool
}

// Plan is the ordered list of steps for one request.
type Plan struct {
	Steps []Step
}

// NeedsSources reports whether any step requires locked sources and the
// system to be resolved.
func (p *Plan) NeedsSources() bool {
	for _, step := range p.Steps {
		if step.Kind == KindExpression {
			return true
		}
	}
	return false
}

// Augmenter qualifies package specifiers.
type Augmenter interface {
	Augment(ctx context.Context, specs []string) ([]string, error)
}

// Planner builds plans.
type Planner struct {
	Augmenter Augmenter
}

// New returns a Planner that augments package lists with a.
func New(a Augmenter) *Planner {
	return &Planner{Augmenter: a}
}

// Plan builds the steps for req. The only external calls it makes are the
// package lookups done by the augmenter.
func (p *Planner) Plan(ctx context.Context, req config.Request) (*Plan, error) {
	plan := &Plan{}

	if specs := config.SplitList(req.Packages); len(specs) > 0 {
		augmented, err := p.Augmenter.Augment(ctx, specs)
		if err != nil {
			return nil, err
		}
		plan.Steps = append(plan.Steps, packageSteps(augmented, req.AllowUnfree)...)
	}

	if req.Expr != "" {
		plan.Steps = append(plan.Steps, Step{
			ID:          "expr",
			Kind:        KindExpression,
			Body:        nixexpr.Raw(req.Expr),
			AllowUnfree: req.AllowUnfree,
		})
	}

	for _, bin := range config.SplitList(req.DummyBins) {
		plan.Steps = append(plan.Steps, Step{
			ID:          "dummy-bin:" + bin,
			Kind:        KindExpression,
			Body:        nixexpr.StubBody(bin),
			AllowUnfree: false,
		})
	}

	return plan, nil
}

func packageSteps(augmented []string, allowUnfree bool) []Step {
	if !allowUnfree {
		return []Step{batchStep(augmented)}
	}

	var steps []Step
	var rest []string
	for _, spec := range augmented {
		attr, ok := augment.DefaultAttr(spec)
		if !ok {
			rest = append(rest, spec)
			continue
		}
		steps = append(steps, Step{
			ID:          "package:" + attr,
			Kind:        KindExpression,
			Body:        nixexpr.PackageBody(attr),
			AllowUnfree: true,
		})
	}

	if len(rest) > 0 {
		steps = append(steps, batchStep(rest))
	}
	return steps
}

func batchStep(specs []string) Step {
	return Step{
		ID:           "packages:" + strings.Join(specs, ","),
		Kind:         KindPackages,
		Installables: specs,
	}
}
