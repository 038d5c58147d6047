// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"os"

	"devshell-cli/internal/config"
	"devshell-cli/internal/issue"
	"devshell-cli/internal/registry"
	"devshell-cli/pkg/envfile"
	"devshell-cli/pkg/types"
)

// envfileCandidates are the default envfile names probed in the working
// directory, in priority order.
var envfileCandidates = []string{envfile.DefaultFileName, envfile.DefaultTOMLFileName}

// loadRegistry builds the environment registry for this invocation: the
// explicit --envfile path (or the working directory's envfile) first, then
// every configured include. A missing default envfile is fine as long as
// includes provide environments; an explicit --envfile that cannot be
// loaded is always an error.
func loadRegistry(ctx context.Context) (*registry.Registry, *config.Config, error) {
	cfg, err := config.NewProvider().Load(ctx, config.LoadOptions{ConfigFilePath: cfgFile})
	if err != nil {
		return nil, nil, err
	}

	var files []*envfile.Envfile

	if envfilePath != "" {
		f, err := parseEnvfile(envfilePath)
		if err != nil {
			return nil, nil, err
		}
		files = append(files, f)
	} else {
		for _, candidate := range envfileCandidates {
			if _, statErr := os.Stat(candidate); statErr != nil {
				continue
			}
			f, err := parseEnvfile(candidate)
			if err != nil {
				return nil, nil, err
			}
			files = append(files, f)
			break
		}
	}

	for _, include := range cfg.Includes {
		f, err := parseEnvfile(include.String())
		if err != nil {
			return nil, nil, err
		}
		files = append(files, f)
	}

	reg, err := registry.New(files...)
	if err != nil {
		return nil, nil, issue.NewErrorContext().
			WithOperation("build environment registry").
			WithSuggestion("Rename one of the colliding environments").
			Wrap(err).
			BuildError()
	}

	return reg, cfg, nil
}

func parseEnvfile(path string) (*envfile.Envfile, error) {
	f, err := envfile.Parse(types.FilesystemPath(path))
	if err != nil {
		return nil, issue.NewErrorContext().
			WithOperation("load envfile").
			WithResource(path).
			WithSuggestion("Check the file for syntax errors or schema violations").
			WithSuggestion("Run 'devshell init' to scaffold a fresh envfile").
			Wrap(err).
			BuildError()
	}
	return f, nil
}
