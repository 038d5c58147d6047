// SPDX-License-Identifier: EPL-2.0

package issue

import (
	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

type Id int

const (
	EnvfileNotFoundId Id = iota + 1
	EnvfileParseErrorId
	EnvironmentNotFoundId
	ProvisionCommandNotFoundId
	ContainerEngineNotFoundId
	ConfigLoadFailedId
	ActivationFailedId
)

type MarkdownMsg string

type HttpLink string

type Issue struct {
	id       Id          // ID used to lookup the issue
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink  // must never be empty, because we need to have docs about all issue types
	extLinks []HttpLink  // external links that might be useful for the user
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) MarkdownMsg() MarkdownMsg {
	return i.mdMsg
}

func (i *Issue) DocLinks() []HttpLink {
	return slices.Clone(i.docLinks)
}

func (i *Issue) ExtLinks() []HttpLink {
	return slices.Clone(i.extLinks)
}

func (i *Issue) Render(stylePath string) (string, error) {
	extraMd := ""
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		extraMd += "\n\n"
		extraMd += "## See also: "
		for _, link := range i.docLinks {
			extraMd += "- [" + string(link) + "]"
		}
		for _, link := range i.extLinks {
			extraMd += "- [" + string(link) + "]"
		}
	}
	return render(string(i.mdMsg)+extraMd, stylePath)
}

var (
	render = glamour.Render

	issues = map[Id]*Issue{
		EnvfileNotFoundId: {
			id: EnvfileNotFoundId,
			mdMsg: "# No envfile found\n\n" +
				"No `devshell.cue` (or `devshell.toml`) was found in the current " +
				"directory or any configured include path.\n\n" +
				"Run `devshell init` to scaffold one.",
			docLinks: []HttpLink{"https://github.com/devshell/devshell#envfiles"},
		},
		EnvfileParseErrorId: {
			id: EnvfileParseErrorId,
			mdMsg: "# Envfile could not be parsed\n\n" +
				"The envfile exists but its contents are not valid. Check the " +
				"reported line for CUE/TOML syntax errors or schema violations.",
			docLinks: []HttpLink{"https://github.com/devshell/devshell#envfile-schema"},
		},
		EnvironmentNotFoundId: {
			id: EnvironmentNotFoundId,
			mdMsg: "# Unknown environment\n\n" +
				"The requested name is not registered. Names are matched exactly " +
				"and case-sensitively.\n\n" +
				"Run `devshell list` to see the registered environments.",
			docLinks: []HttpLink{"https://github.com/devshell/devshell#environments"},
		},
		ProvisionCommandNotFoundId: {
			id: ProvisionCommandNotFoundId,
			mdMsg: "# Provision command not found\n\n" +
				"The configured external provisioning tool is not on PATH. " +
				"Install it, or set `provision_command` in the devshell config.",
			docLinks: []HttpLink{"https://github.com/devshell/devshell#provisioners"},
		},
		ContainerEngineNotFoundId: {
			id: ContainerEngineNotFoundId,
			mdMsg: "# Container engine not found\n\n" +
				"Neither the configured container engine nor a fallback was " +
				"found on PATH. Install Docker or Podman, or switch the " +
				"environment to a different provisioner.",
			docLinks: []HttpLink{"https://github.com/devshell/devshell#container-provisioner"},
			extLinks: []HttpLink{"https://docs.docker.com/engine/install/", "https://podman.io/docs/installation"},
		},
		ConfigLoadFailedId: {
			id: ConfigLoadFailedId,
			mdMsg: "# Configuration could not be loaded\n\n" +
				"The devshell config file exists but could not be read or " +
				"validated. Run `devshell config path` to locate it.",
			docLinks: []HttpLink{"https://github.com/devshell/devshell#configuration"},
		},
		ActivationFailedId: {
			id: ActivationFailedId,
			mdMsg: "# Environment activation failed\n\n" +
				"The provisioner reported a failure before handing over the " +
				"session. Its exit status is forwarded unchanged; re-run with " +
				"`--verbose` for the provisioner's own diagnostics.",
			docLinks: []HttpLink{"https://github.com/devshell/devshell#troubleshooting"},
		},
	}
)

// Lookup returns the known issue for the given id, or nil if no issue is
// catalogued under it.
func Lookup(id Id) *Issue {
	return issues[id]
}

// All returns every catalogued issue, in unspecified order.
func All() []*Issue {
	return maps.Values(issues)
}
