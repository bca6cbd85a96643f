package nixexpr

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"mvdan.cc/sh/v3/syntax"
)

func TestStrEscapesInterpolationAndQuotes(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		input string
		want  string
	}{
		"plain":         {input: "hello", want: `"hello"`},
		"double quote":  {input: `a"b`, want: `"a\"b"`},
		"backslash":     {input: `a\b`, want: `"a\\b"`},
		"interpolation": {input: "${builtins.exec}", want: `"\${builtins.exec}"`},
		"lone dollar":   {input: "$HOME", want: `"$HOME"`},
		"newline":       {input: "a\nb", want: `"a\nb"`},
	}

	for name, tc := range tests {
		tc := tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, Render(Str(tc.input)))
		})
	}
}

func TestAttrPathQuotesNonIdentifiers(t *testing.T) {
	t.Parallel()

	require.Equal(t, "pkgs.hello", Render(AttrPath("pkgs", "hello")))
	require.Equal(t, "pkgs.python3Packages.requests", Render(AttrPath("pkgs", "python3Packages", "requests")))
	require.Equal(t, `pkgs."foo bar"`, Render(AttrPath("pkgs", "foo bar")))
	require.Equal(t, `pkgs."let"`, Render(AttrPath("pkgs", "let")))
	require.Equal(t, `pkgs."x;y"`, Render(AttrPath("pkgs", "x;y")))
	require.Equal(t, "pkgs.gcc-unwrapped", Render(AttrPath("pkgs", "gcc-unwrapped")))
}

func TestCallParenthesizesCompoundArguments(t *testing.T) {
	t.Parallel()

	inner := Call(AttrPath("builtins", "getFlake"), Str("nixpkgs"))
	outer := Call(Ident("import"), inner, Set(Bind("system", Str("x86_64-linux"))))

	require.Equal(t, `import (builtins.getFlake "nixpkgs") { system = "x86_64-linux"; }`, Render(outer))
}

func TestSynthesizeWithoutInputsFrom(t *testing.T) {
	t.Parallel()

	src := Sources{
		Repo:    "git+file:///work/repo?rev=abc123",
		Nixpkgs: "github:NixOS/nixpkgs/0123456789abcdef",
		System:  "x86_64-linux",
	}

	got := Render(Synthesize(src, PackageBody("hello"), true))
	want := strings.Join([]string{
		"let",
		`  repoFlake = builtins.getFlake "git+file:///work/repo?rev=abc123";`,
		`  nixpkgs = builtins.getFlake "github:NixOS/nixpkgs/0123456789abcdef";`,
		`  pkgs = import nixpkgs { system = "x86_64-linux"; config = { allowUnfree = true; }; };`,
		"in pkgs.hello",
	}, "\n")
	require.Equal(t, want, got)
}

func TestSynthesizeDerivesNixpkgsFromInputsFrom(t *testing.T) {
	t.Parallel()

	src := Sources{
		Repo:       "git+file:///work/repo?rev=abc123",
		InputsFrom: "github:owner/project/feedface",
		System:     "aarch64-darwin",
	}

	got := Render(Synthesize(src, Raw("[ pkgs.jq pkgs.yq ]"), false))
	require.Contains(t, got, `  inputsFromFlake = builtins.getFlake "github:owner/project/feedface";`)
	require.Contains(t, got, "  nixpkgs = inputsFromFlake.inputs.nixpkgs;")
	require.Contains(t, got, `config = { allowUnfree = false; }`)
	require.True(t, strings.HasSuffix(got, "in [ pkgs.jq pkgs.yq ]"), got)
}

func TestSynthesizeQuotesLockedURLs(t *testing.T) {
	t.Parallel()

	src := Sources{Repo: `evil"; x = "`, Nixpkgs: "n", System: "s"}
	got := Render(Synthesize(src, PackageBody("hello"), false))
	require.Contains(t, got, `builtins.getFlake "evil\"; x = \""`)
}

func TestStubBodyRunsPlaceholderScript(t *testing.T) {
	t.Parallel()

	require.Equal(t, `pkgs.writeShellScriptBin "foo" "echo noop"`, Render(StubBody("foo")))
	require.Equal(t, `pkgs.writeShellScriptBin "a\"b" "echo noop"`, Render(StubBody(`a"b`)))

	_, err := syntax.NewParser().Parse(strings.NewReader(stubScript), "stub")
	require.NoError(t, err)
}

func TestIsIdentifier(t *testing.T) {
	t.Parallel()

	require.True(t, IsIdentifier("hello"))
	require.True(t, IsIdentifier("_private"))
	require.True(t, IsIdentifier("nodejs_20"))
	require.False(t, IsIdentifier("3d"))
	require.False(t, IsIdentifier(""))
	require.False(t, IsIdentifier("inherit"))
}
