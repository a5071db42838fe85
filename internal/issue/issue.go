// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"golang.org/x/exp/slices"
)

// Id identifies a catalog page.
type Id int

const (
	ConfigLoadFailedId Id = iota + 1
	OrderFileInvalidId
	CatalogInvalidId
	MissingDependencyId
	FailedToConfigureId
	CannotInitializeId
	DependencyCycleId
	ModificationRejectedId
	UniverseFrozenId
	LateInitializationDeniedId
)

type MarkdownMsg string

type HttpLink string

type Renderer interface {
	Render(in string, stylePath string) (string, error)
}

type Issue struct {
	id       Id          // ID used to lookup the issue
	slug     string      // name accepted by `loom explain`
	mdMsg    MarkdownMsg // Markdown text that will be rendered
	docLinks []HttpLink
	extLinks []HttpLink
}

func (i *Issue) Id() Id {
	return i.id
}

func (i *Issue) Slug() string {
	return i.slug
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

// Markdown returns the page source including the "See also" section.
func (i *Issue) Markdown() string {
	var b strings.Builder
	b.WriteString(string(i.mdMsg))
	if len(i.docLinks) > 0 || len(i.extLinks) > 0 {
		b.WriteString("\n\n## See also\n")
		for _, link := range append(i.DocLinks(), i.extLinks...) {
			b.WriteString("\n- <" + string(link) + ">")
		}
	}
	return b.String()
}

func (i *Issue) Render(stylePath string) (string, error) {
	return render(i.Markdown(), stylePath)
}

var (
	render = glamour.Render

	configLoadFailedIssue = &Issue{
		id:   ConfigLoadFailedId,
		slug: "config-load-failed",
		mdMsg: `
# The loom configuration could not be loaded

The config file exists but failed to parse or validate against the schema.

## Things you can try
- Print the effective configuration and the path loom reads:
~~~
$ loom config path
$ loom config show
~~~
- Regenerate a default file and copy your settings back:
~~~
$ loom config init --force
~~~

## Example
~~~cue
loader: {
	initialization_attempts: 10
	finalization_attempts:   5
}
modules: {
	priorities: [{module: "core", priority: 0}]
}
~~~`,
	}

	orderFileInvalidIssue = &Issue{
		id:   OrderFileInvalidId,
		slug: "order-file-invalid",
		mdMsg: `
# The module order file is invalid

An order file maps module names to non-negative integer priorities.
Lower priorities load first; modules not listed load last in discovery order.

## Accepted formats
~~~cue
// loadorder.cue
core:  0
arms:  10
~~~
~~~toml
# loadorder.toml
core = 0
arms = 10
~~~

Priorities set under ` + "`modules.priorities`" + ` in the config override the file.`,
	}

	catalogInvalidIssue = &Issue{
		id:   CatalogInvalidId,
		slug: "catalog-invalid",
		mdMsg: `
# The module declarations are inconsistent

Loading stops before any type is constructed when:
- two modules declare the same type,
- one module declares more than one modification,
- two modules share a name,
- an enumeration set is declared without its value struct.

## Things you can try
~~~
$ loom plan
~~~
shows the catalog of every module and points at the offending declaration.`,
	}

	missingDependencyIssue = &Issue{
		id:   MissingDependencyId,
		slug: "missing-dependency",
		mdMsg: `
# A declared dependency never initialized

A type stays pending until every type it depends on has initialized in an
earlier pass. When the retry budget runs out it is reported as missing.

## Things you can try
- Check that the dependency is declared by a loaded module and not excluded.
- Look for the dependency's own failure further up in the report.
- Raise ` + "`loader.initialization_attempts`" + ` if the chain is simply long.`,
	}

	failedToConfigureIssue = &Issue{
		id:   FailedToConfigureId,
		slug: "failed-to-configure",
		mdMsg: `
# A type kept failing with a transient error

Construction returned an error that asks for a retry (a missing lookup or
` + "`universe.ErrNotReady`" + `) on every pass until the budget ran out.

## Things you can try
- Declare the dependency explicitly with ` + "`loommod.After[T]()`" + ` so ordering is visible.
- Run with ` + "`--log-level debug`" + ` to see every attempt.`,
	}

	cannotInitializeIssue = &Issue{
		id:   CannotInitializeId,
		slug: "cannot-initialize",
		mdMsg: `
# A type cannot be initialized

Construction failed with a non-retryable error: a validation failure, a
constructor with the wrong shape, a panic, or a failing enumeration. The type
is dropped without further attempts.

## Things you can try
- Read the error chain with ` + "`loom load --verbose`" + `.
- Archetype constructors must be ` + "`func() A`" + ` or ` + "`func(*universe.Identity) A`" + `.`,
	}

	dependencyCycleIssue = &Issue{
		id:   DependencyCycleId,
		slug: "dependency-cycle",
		mdMsg: `
# Types depend on each other in a cycle

The listed types each wait for another member of the cycle, so none can
initialize. They are still reported as missing dependencies.

## Things you can try
~~~
$ loom plan
~~~
prints the dependency levels and the cycles among declared dependencies.`,
	}

	modificationRejectedIssue = &Issue{
		id:   ModificationRejectedId,
		slug: "modification-rejected",
		mdMsg: `
# A modification touched an archetype it may not change

Modifications may only add, remove or replace components on initialized
archetypes that allow external configuration, and only before the universe is frozen.

## Things you can try
- Implement ` + "`AllowsExternalConfiguration() bool`" + ` on the archetype.
- Make sure the archetype initialized; check the report for its failure.`,
	}

	universeFrozenIssue = &Issue{
		id:   UniverseFrozenId,
		slug: "universe-frozen",
		mdMsg: `
# The universe is frozen

Once loading finishes the universe is sealed and rejects registrations, except
for types declared with ` + "`loommod.AllowLateInit()`" + `.`,
	}

	lateInitializationDeniedIssue = &Issue{
		id:   LateInitializationDeniedId,
		slug: "late-initialization-denied",
		mdMsg: `
# Late initialization was refused

Only types declared with ` + "`loommod.AllowLateInit()`" + ` that did not initialize
during the load can be initialized afterwards, and their declared dependencies
must already be initialized.`,
	}

	issues = map[Id]*Issue{
		configLoadFailedIssue.Id():         configLoadFailedIssue,
		orderFileInvalidIssue.Id():         orderFileInvalidIssue,
		catalogInvalidIssue.Id():           catalogInvalidIssue,
		missingDependencyIssue.Id():        missingDependencyIssue,
		failedToConfigureIssue.Id():        failedToConfigureIssue,
		cannotInitializeIssue.Id():         cannotInitializeIssue,
		dependencyCycleIssue.Id():          dependencyCycleIssue,
		modificationRejectedIssue.Id():     modificationRejectedIssue,
		universeFrozenIssue.Id():           universeFrozenIssue,
		lateInitializationDeniedIssue.Id(): lateInitializationDeniedIssue,
	}
)

// Values returns every issue ordered by id.
func Values() []*Issue {
	values := make([]*Issue, 0, len(issues))
	for _, iss := range issues {
		values = append(values, iss)
	}
	slices.SortFunc(values, func(a, b *Issue) int { return int(a.id) - int(b.id) })
	return values
}

func Get(id Id) *Issue {
	return issues[id]
}

// Lookup finds an issue by slug.
func Lookup(slug string) (*Issue, bool) {
	for _, iss := range issues {
		if iss.slug == slug {
			return iss, true
		}
	}
	return nil, false
}
