// Package augment qualifies bare package names against nixpkgs.
package augment

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/alexisbeaulieu97/nixprofile/internal/logger"
	"github.com/alexisbeaulieu97/nixprofile/internal/nixexpr"
)

// DefaultConcurrency bounds the number of parallel nix lookups.
const DefaultConcurrency = 8

// Resolver answers whether a bare name exists in the default collection.
type Resolver interface {
	Resolves(ctx context.Context, name, inputsFrom string) (bool, error)
}

// Augmenter rewrites bare names that nixpkgs provides to `nixpkgs#name`.
type Augmenter struct {
	Resolver Resolver
	// InputsFrom is the locked inputs-from URL, forwarded to every lookup.
	InputsFrom  string
	Concurrency int
	Logger      *logger.Logger
}

// IsQualified reports whether spec names its flake explicitly.
func IsQualified(spec string) bool {
	return strings.Contains(spec, "#")
}

// Qualify returns name qualified against the default collection.
func Qualify(name string) string {
	return nixexpr.DefaultCollection + "#" + name
}

// DefaultAttr returns the attribute path of a spec qualified against the
// default collection, and false for anything else.
func DefaultAttr(spec string) (string, bool) {
	return strings.CutPrefix(spec, nixexpr.DefaultCollection+"#")
}

// Augment resolves every element of specs concurrently. The result has the
// same length and order as specs. Unknown bare names are kept as they are,
// for nix to interpret on its own.
func (a *Augmenter) Augment(ctx context.Context, specs []string) ([]string, error) {
	out := make([]string, len(specs))

	limit := a.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, spec := range specs {
		out[i] = spec
		if IsQualified(spec) {
			continue
		}

		g.Go(func() error {
			ok, err := a.Resolver.Resolves(gctx, spec, a.InputsFrom)
			if err != nil {
				return err
			}
			if ok {
				out[i] = Qualify(spec)
			}
			a.Logger.WithFields(map[string]any{"package": spec, "resolved": out[i]}).Debug("augmented package")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
