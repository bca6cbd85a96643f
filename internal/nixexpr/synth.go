package nixexpr

import (
	"strings"

	"mvdan.cc/sh/v3/syntax"
)

// DefaultCollection is the flake name bare package names are qualified against.
const DefaultCollection = "nixpkgs"

// StubMessage is what every stub binary prints when run.
const StubMessage = "noop"

// Sources are the locked inputs shared by every expression of one run.
type Sources struct {
	// Repo is the locked URL of the repository being built.
	Repo string
	// InputsFrom is the locked URL of the inputs-from flake, if any. When set,
	// nixpkgs is taken from its inputs.
	InputsFrom string
	// Nixpkgs is the locked URL of the registry nixpkgs, used when InputsFrom
	// is empty.
	Nixpkgs string
	// System is the platform double, e.g. x86_64-linux.
	System string
}

// Synthesize wraps body in a let block that pins nixpkgs to the locked
// sources and exposes `repoFlake`, `inputsFromFlake` and `pkgs` to it.
func Synthesize(src Sources, body Expr, allowUnfree bool) Expr {
	getFlake := AttrPath("builtins", "getFlake")

	bindings := []Binding{
		Bind("repoFlake", Call(getFlake, Str(src.Repo))),
	}

	var nixpkgs Expr
	if src.InputsFrom != "" {
		bindings = append(bindings, Bind("inputsFromFlake", Call(getFlake, Str(src.InputsFrom))))
		nixpkgs = AttrPath("inputsFromFlake", "inputs", DefaultCollection)
	} else {
		nixpkgs = Call(getFlake, Str(src.Nixpkgs))
	}

	bindings = append(bindings,
		Bind("nixpkgs", nixpkgs),
		Bind("pkgs", Call(Ident("import"), Ident("nixpkgs"), Set(
			Bind("system", Str(src.System)),
			Bind("config", Set(Bind("allowUnfree", Bool(allowUnfree)))),
		))),
	)

	return Let(bindings, body)
}

// PackageBody selects a (possibly dotted) attribute path from pkgs, e.g.
// "python3Packages.requests" becomes pkgs.python3Packages.requests.
func PackageBody(attr string) Expr {
	return AttrPath("pkgs", strings.Split(attr, ".")...)
}

// StubBody builds a package providing a single executable named bin that
// prints StubMessage and exits zero.
func StubBody(bin string) Expr {
	return Call(AttrPath("pkgs", "writeShellScriptBin"), Str(bin), Str(stubScript))
}

var stubScript = mustStubScript()

func mustStubScript() string {
	word, err := syntax.Quote(StubMessage, syntax.LangBash)
	if err != nil {
		panic(err)
	}
	return "echo " + word
}
