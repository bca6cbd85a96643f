// Package planner decides which `nix profile install` calls satisfy a request.
//
// Packages are installed by name in one batch, except when unfree packages
// are allowed: then every package that nixpkgs provides gets its own
// expression install, so the allowUnfree setting only applies to that single
// package. The free-form expression and the stub binaries are always
// installed through expressions.
//
// Steps are ordered: packages, expression, stubs.
package planner
