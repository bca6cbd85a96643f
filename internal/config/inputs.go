// Package config reads the action inputs and turns them into a validated
// install request.
package config

import "strings"

// Input names as they appear in the workflow's `with:` block.
const (
	InputPackages    = "packages"
	InputExpr        = "expr"
	InputDummyBins   = "dummy-bins"
	InputAllowUnfree = "allow-unfree"
	InputInputsFrom  = "inputs-from"
)

var inputNames = []string{InputPackages, InputExpr, InputDummyBins, InputAllowUnfree, InputInputsFrom}

// Inputs holds the raw, trimmed input strings.
type Inputs struct {
	Packages    string `yaml:"packages" validate:"required_without_all=Expr DummyBins"`
	Expr        string `yaml:"expr"`
	DummyBins   string `yaml:"dummy-bins"`
	AllowUnfree string `yaml:"allow-unfree" validate:"omitempty,oneof=true false"`
	InputsFrom  string `yaml:"inputs-from"`
}

// Request is the typed form of Inputs consumed by the installer.
type Request struct {
	// Packages is a comma separated list of installables.
	Packages string
	// Expr is a Nix expression evaluated with `pkgs`, `nixpkgs`,
	// `repoFlake` and `inputsFromFlake` in scope.
	Expr string
	// DummyBins is a comma separated list of stub executable names.
	DummyBins   string
	AllowUnfree bool
	// InputsFrom is an unlocked flake reference whose nixpkgs input is used.
	InputsFrom string
}

// Request validates the inputs and converts them.
func (in Inputs) Request() (Request, error) {
	if err := Validate(in); err != nil {
		return Request{}, err
	}
	req := Request{
		Packages:    in.Packages,
		Expr:        in.Expr,
		DummyBins:   in.DummyBins,
		AllowUnfree: in.AllowUnfree == "true",
		InputsFrom:  in.InputsFrom,
	}
	if err := req.Validate(); err != nil {
		return Request{}, err
	}
	return req, nil
}

// Validate checks that the request asks for something to install. Lists that
// hold only separators and blanks count as empty.
func (r Request) Validate() error {
	if len(SplitList(r.Packages)) == 0 && r.Expr == "" && len(SplitList(r.DummyBins)) == 0 {
		return errNothingToInstall()
	}
	return nil
}

// SplitList splits a comma separated input, trimming whitespace around each
// element and dropping empty ones.
func SplitList(list string) []string {
	parts := strings.Split(list, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func (in Inputs) values() map[string]string {
	return map[string]string{
		InputPackages:    in.Packages,
		InputExpr:        in.Expr,
		InputDummyBins:   in.DummyBins,
		InputAllowUnfree: in.AllowUnfree,
		InputInputsFrom:  in.InputsFrom,
	}
}
