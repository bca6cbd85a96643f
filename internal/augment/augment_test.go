package augment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeResolver struct {
	known map[string]bool
	err   error

	mu    sync.Mutex
	calls []string

	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeResolver) Resolves(_ context.Context, name, inputsFrom string) (bool, error) {
	current := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		peak := f.peak.Load()
		if current <= peak || f.peak.CompareAndSwap(peak, current) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, name+"@"+inputsFrom)
	f.mu.Unlock()

	if f.err != nil {
		return false, f.err
	}
	return f.known[name], nil
}

func TestAugmentQualifiesKnownBareNames(t *testing.T) {
	t.Parallel()

	resolver := &fakeResolver{known: map[string]bool{"hello": true}}
	a := &Augmenter{Resolver: resolver}

	got, err := a.Augment(context.Background(), []string{"hello", "nixpkgs#ripgrep"})
	require.NoError(t, err)
	require.Equal(t, []string{"nixpkgs#hello", "nixpkgs#ripgrep"}, got)
	require.Equal(t, []string{"hello@"}, resolver.calls)
}

func TestAugmentKeepsUnknownNames(t *testing.T) {
	t.Parallel()

	a := &Augmenter{Resolver: &fakeResolver{}, InputsFrom: "github:o/r/abc"}

	got, err := a.Augment(context.Background(), []string{"localPkg", "github:o/r#tool"})
	require.NoError(t, err)
	require.Equal(t, []string{"localPkg", "github:o/r#tool"}, got)
}

func TestAugmentPreservesCountAndOrder(t *testing.T) {
	t.Parallel()

	known := map[string]bool{}
	specs := make([]string, 0, 50)
	for i := 0; i < 50; i++ {
		name := fmt.Sprintf("pkg%d", i)
		if i%3 == 0 {
			known[name] = true
		}
		if i%7 == 0 {
			name = "other#" + name
		}
		specs = append(specs, name)
	}

	resolver := &fakeResolver{known: known}
	got, err := (&Augmenter{Resolver: resolver, Concurrency: 4}).Augment(context.Background(), specs)
	require.NoError(t, err)
	require.Len(t, got, len(specs))
	require.LessOrEqual(t, resolver.peak.Load(), int32(4))

	for i, spec := range specs {
		if IsQualified(spec) || !known[spec] {
			require.Equal(t, spec, got[i])
			continue
		}
		require.Equal(t, Qualify(spec), got[i])
	}
}

func TestAugmentPropagatesResolverFailure(t *testing.T) {
	t.Parallel()

	boom := errors.New("nix not found")
	_, err := (&Augmenter{Resolver: &fakeResolver{err: boom}}).Augment(context.Background(), []string{"hello"})
	require.ErrorIs(t, err, boom)
}

func TestDefaultAttr(t *testing.T) {
	t.Parallel()

	attr, ok := DefaultAttr("nixpkgs#python3Packages.requests")
	require.True(t, ok)
	require.Equal(t, "python3Packages.requests", attr)

	_, ok = DefaultAttr("github:o/r#nixpkgs")
	require.False(t, ok)
	_, ok = DefaultAttr("localPkg")
	require.False(t, ok)
}
