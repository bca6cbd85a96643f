package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	nperrors "github.com/alexisbeaulieu97/nixprofile/pkg/errors"
)

var yamlLineRegex = regexp.MustCompile(`line (\d+)`)

// LoadOptions controls where inputs are read from.
type LoadOptions struct {
	// File optionally points at a YAML document with the same keys as the
	// action inputs. Environment inputs take precedence over it.
	File string
}

// EnvName returns the variable the runner uses to pass an input, e.g.
// INPUT_DUMMY-BINS for dummy-bins.
func EnvName(input string) string {
	return "INPUT_" + strings.ToUpper(strings.ReplaceAll(input, " ", "_"))
}

// Load collects the inputs from the environment and the optional inputs file.
// It does not validate them; see Inputs.Request.
func Load(opts LoadOptions) (Inputs, error) {
	v := viper.New()

	if opts.File != "" {
		fileInputs, err := ParseInputsFile(opts.File)
		if err != nil {
			return Inputs{}, err
		}
		for name, value := range fileInputs.values() {
			v.SetDefault(name, value)
		}
	}

	for _, name := range inputNames {
		if err := v.BindEnv(name, EnvName(name)); err != nil {
			return Inputs{}, fmt.Errorf("bind input %s: %w", name, err)
		}
	}

	get := func(name string) string {
		return strings.TrimSpace(v.GetString(name))
	}

	return Inputs{
		Packages:    get(InputPackages),
		Expr:        get(InputExpr),
		DummyBins:   get(InputDummyBins),
		AllowUnfree: get(InputAllowUnfree),
		InputsFrom:  get(InputInputsFrom),
	}, nil
}

// ParseInputsFile reads inputs from a YAML file.
func ParseInputsFile(path string) (Inputs, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Inputs{}, nperrors.NewParseError(path, 0, err)
	}

	var in Inputs
	if err := yaml.Unmarshal(data, &in); err != nil {
		return Inputs{}, nperrors.NewParseError(path, extractLine(err), err)
	}
	return in, nil
}

func extractLine(err error) int {
	if err == nil {
		return 0
	}

	matches := yamlLineRegex.FindStringSubmatch(err.Error())
	if len(matches) != 2 {
		return 0
	}

	var line int
	_, scanErr := fmt.Sscanf(matches[1], "%d", &line)
	if scanErr != nil {
		return 0
	}

	return line
}
