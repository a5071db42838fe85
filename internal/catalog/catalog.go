// SPDX-License-Identifier: MPL-2.0

package catalog

import (
	"fmt"
	"reflect"

	"github.com/loomkit/loom/pkg/loommod"
	"github.com/loomkit/loom/pkg/universe"
)

type (
	// Descriptor is one loadable candidate.
	Descriptor struct {
		ID       universe.TypeID
		Category Category
		Module   string
		// Index is the candidate's position in overall discovery order.
		Index        int
		Dependencies []universe.TypeID
		Declaration  *loommod.Declaration
		// Lazy is set for enumeration members only.
		Lazy universe.LazyEnumeration
	}

	// ModuleEntry holds one module's candidates in declaration order.
	ModuleEntry struct {
		Name         string
		Enumerations []*Descriptor
		Components   []*Descriptor
		Archetypes   []*Descriptor
		Models       []*Descriptor
		Modification *Descriptor
	}

	// Catalog is the categorized view of every loaded module.
	Catalog struct {
		modules     []*ModuleEntry
		declared    map[reflect.Type]*declared
		descriptors map[universe.TypeID]*Descriptor
		edges       map[Category]map[universe.TypeID][]universe.TypeID
		late        []reflect.Type
		diagnostics []Diagnostic
		count       int
	}

	declared struct {
		decl   *loommod.Declaration
		module string
	}
)

// Build declares every module and categorizes the concrete, non-excluded types.
// mods must already be in load order. Fatal problems (duplicate module names,
// duplicate declarations, a second modification in one module, malformed
// enumeration sets) return a *universe.ConfigurationError.
func Build(mods []loommod.Module) (*Catalog, error) {
	c := &Catalog{
		declared:    make(map[reflect.Type]*declared),
		descriptors: make(map[universe.TypeID]*Descriptor),
		edges:       make(map[Category]map[universe.TypeID][]universe.TypeID),
	}

	perModule := make([][]loommod.Declaration, len(mods))
	seenModules := make(map[string]bool, len(mods))
	for i, mod := range mods {
		name := mod.Name()
		if name == "" {
			return nil, &universe.ConfigurationError{Subject: fmt.Sprintf("module #%d", i), Reason: "module name is empty"}
		}
		if seenModules[name] {
			return nil, &universe.ConfigurationError{Subject: "module " + name, Reason: "declared more than once"}
		}
		seenModules[name] = true

		perModule[i] = loommod.Collect(mod)
		for j := range perModule[i] {
			d := &perModule[i][j]
			if d.Type == nil {
				return nil, &universe.ConfigurationError{Subject: "module " + name, Reason: fmt.Sprintf("declaration #%d has no type", j)}
			}
			if prev, dup := c.declared[d.Type]; dup {
				return nil, &universe.ConfigurationError{
					Subject: "type " + d.Type.String(),
					Reason:  fmt.Sprintf("declared by module %s and again by module %s", prev.module, name),
				}
			}
			c.declared[d.Type] = &declared{decl: d, module: name}
		}
	}

	for i, mod := range mods {
		entry := &ModuleEntry{Name: mod.Name()}
		for j := range perModule[i] {
			if err := c.add(entry, &perModule[i][j]); err != nil {
				return nil, err
			}
		}
		c.modules = append(c.modules, entry)
	}

	c.checkDependencies()
	return c, nil
}

func (c *Catalog) add(entry *ModuleEntry, d *loommod.Declaration) error {
	if d.Abstract {
		return nil
	}
	if by, excluded := c.exclusion(d.Type); excluded {
		c.diagnostics = append(c.diagnostics, Diagnostic{
			Severity: SeverityInfo,
			Code:     "declaration_excluded",
			Message:  fmt.Sprintf("%s excluded by %s", d.Type, by),
			Module:   entry.Name,
		})
		return nil
	}

	category, ok := Categorize(d.Type)
	if !ok {
		c.diagnostics = append(c.diagnostics, Diagnostic{
			Severity: SeverityWarning,
			Code:     "declaration_uncategorized",
			Message:  fmt.Sprintf("%s matches no loadable category and is skipped", d.Type),
			Module:   entry.Name,
		})
		return nil
	}

	switch category {
	case CategoryEnumeration:
		members, err := c.enumerationMembers(entry.Name, d)
		if err != nil {
			return err
		}
		entry.Enumerations = append(entry.Enumerations, members...)
		return nil
	case CategoryModification:
		if entry.Modification != nil {
			return &universe.ConfigurationError{
				Subject: "module " + entry.Name,
				Reason:  fmt.Sprintf("declares a second modification %s (already has %s)", d.Type, entry.Modification.ID),
			}
		}
		entry.Modification = c.describe(entry.Name, d, universe.ID(d.Type), category)
	case CategoryComponent:
		entry.Components = append(entry.Components, c.describe(entry.Name, d, universe.ID(d.Type), category))
	case CategoryArchetype:
		entry.Archetypes = append(entry.Archetypes, c.describe(entry.Name, d, universe.ID(d.Type), category))
	case CategoryModel:
		entry.Models = append(entry.Models, c.describe(entry.Name, d, universe.ID(d.Type), category))
	}
	if d.AllowLateInit {
		c.late = append(c.late, d.Type)
	}
	return nil
}

func (c *Catalog) enumerationMembers(module string, d *loommod.Declaration) ([]*Descriptor, error) {
	subject := "enumeration set " + d.Type.String()
	v := reflect.ValueOf(d.Values)
	if d.Values == nil || v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Type() != d.Type {
		return nil, &universe.ConfigurationError{Subject: subject, Reason: "must be declared with DeclareValues and a non-nil set pointer"}
	}
	var members []*Descriptor
	for _, f := range EnumerationFields(d.Type) {
		fv := v.Elem().FieldByIndex(f.Index)
		if (fv.Kind() == reflect.Pointer || fv.Kind() == reflect.Interface) && fv.IsNil() {
			return nil, &universe.ConfigurationError{Subject: subject, Reason: fmt.Sprintf("member %s is nil", f.Name)}
		}
		lazy, _ := fv.Interface().(universe.LazyEnumeration)
		desc := c.describe(module, d, universe.TypeID{Type: d.Type, Member: f.Name}, CategoryEnumeration)
		desc.Lazy = lazy
		members = append(members, desc)
	}
	return members, nil
}

func (c *Catalog) describe(module string, d *loommod.Declaration, id universe.TypeID, category Category) *Descriptor {
	desc := &Descriptor{
		ID:          id,
		Category:    category,
		Module:      module,
		Index:       c.count,
		Declaration: d,
	}
	c.count++
	if category != CategoryEnumeration {
		for _, dep := range d.DependsOn {
			desc.Dependencies = append(desc.Dependencies, universe.ID(dep))
		}
		if len(desc.Dependencies) > 0 {
			if c.edges[category] == nil {
				c.edges[category] = make(map[universe.TypeID][]universe.TypeID)
			}
			c.edges[category][id] = desc.Dependencies
		}
	}
	c.descriptors[id] = desc
	return desc
}

// exclusion reports whether t is excluded, and by which type.
func (c *Catalog) exclusion(t reflect.Type) (reflect.Type, bool) {
	if d, ok := c.declared[t]; ok && d.decl.Exclusion != loommod.ExcludeNone {
		return t, true
	}
	lineage := universe.Lineage(t)
	for _, anc := range lineage[:len(lineage)-1] {
		if d, ok := c.declared[anc]; ok && d.decl.Exclusion == loommod.ExcludeSelfAndDescendants {
			return anc, true
		}
	}
	return nil, false
}

func (c *Catalog) checkDependencies() {
	for _, entry := range c.modules {
		for _, desc := range entry.Candidates() {
			for _, dep := range desc.Dependencies {
				if _, ok := c.declared[dep.Type]; !ok {
					c.diagnostics = append(c.diagnostics, Diagnostic{
						Severity: SeverityWarning,
						Code:     "dependency_undeclared",
						Message:  fmt.Sprintf("%s depends on %s, which no module declares", desc.ID, dep),
						Module:   entry.Name,
					})
					continue
				}
				if _, excluded := c.exclusion(dep.Type); excluded {
					c.diagnostics = append(c.diagnostics, Diagnostic{
						Severity: SeverityWarning,
						Code:     "dependency_excluded",
						Message:  fmt.Sprintf("%s depends on excluded type %s", desc.ID, dep),
						Module:   entry.Name,
					})
				}
			}
		}
	}
}

// Candidates returns the module's candidates: enumerations, components,
// archetypes, models, then the modification if any.
func (e *ModuleEntry) Candidates() []*Descriptor {
	out := make([]*Descriptor, 0, len(e.Enumerations)+len(e.Components)+len(e.Archetypes)+len(e.Models)+1)
	out = append(out, e.Enumerations...)
	out = append(out, e.Components...)
	out = append(out, e.Archetypes...)
	out = append(out, e.Models...)
	if e.Modification != nil {
		out = append(out, e.Modification)
	}
	return out
}

// Of returns the module's candidates of one category.
func (e *ModuleEntry) Of(category Category) []*Descriptor {
	switch category {
	case CategoryEnumeration:
		return e.Enumerations
	case CategoryComponent:
		return e.Components
	case CategoryArchetype:
		return e.Archetypes
	case CategoryModel:
		return e.Models
	case CategoryModification:
		if e.Modification != nil {
			return []*Descriptor{e.Modification}
		}
	}
	return nil
}

// Modules returns the module entries in load order.
func (c *Catalog) Modules() []*ModuleEntry { return c.modules }

// All returns every candidate of a category in module order.
func (c *Catalog) All(category Category) []*Descriptor {
	var out []*Descriptor
	for _, m := range c.modules {
		out = append(out, m.Of(category)...)
	}
	return out
}

// Len returns the total number of candidates.
func (c *Catalog) Len() int { return c.count }

// Declaration returns the declaration of t, including abstract and excluded ones.
func (c *Catalog) Declaration(t reflect.Type) (*loommod.Declaration, bool) {
	d, ok := c.declared[universe.Deref(t)]
	if !ok {
		return nil, false
	}
	return d.decl, true
}

// Descriptor returns the candidate with the given id.
func (c *Catalog) Descriptor(id universe.TypeID) (*Descriptor, bool) {
	d, ok := c.descriptors[id]
	return d, ok
}

// Edges returns the declared dependencies of every candidate in a category.
func (c *Catalog) Edges(category Category) map[universe.TypeID][]universe.TypeID {
	return c.edges[category]
}

// LateAllowed returns the candidate types that may initialize after freeze.
func (c *Catalog) LateAllowed() []reflect.Type { return c.late }

// Diagnostics returns non-fatal findings in discovery order.
func (c *Catalog) Diagnostics() []Diagnostic { return c.diagnostics }
