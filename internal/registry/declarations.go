package registry

import (
	"context"

	"github.com/specialistvlad/procgrid/internal/config"
	"github.com/specialistvlad/procgrid/internal/ctxlog"
	"github.com/specialistvlad/procgrid/internal/errs"
)

// AddFragment registers a fragment together with the eras, event contents,
// conditions aliases and composite customisations it declares. Each of these
// names must be unique across all fragments.
func (r *Registry) AddFragment(f *config.Fragment) error {
	if _, exists := r.fragments[f.Name]; exists {
		return errs.Duplicate("fragment", f.Name).WithDetail("file", f.SourceFile)
	}

	// Check everything first so a failed fragment leaves no partial state.
	seen := map[string]map[string]bool{}
	check := func(kind, name string, exists bool) error {
		if seen[kind] == nil {
			seen[kind] = map[string]bool{}
		}
		if exists || seen[kind][name] {
			return errs.Duplicate(kind, name).WithDetail("fragment", f.Name)
		}
		seen[kind][name] = true
		return nil
	}
	for _, e := range f.Eras {
		if err := check("era", e.Name, r.eras[e.Name] != nil); err != nil {
			return err
		}
	}
	for _, ec := range f.EventContents {
		if err := check("event_content", ec.Name, r.eventContents[ec.Name] != nil); err != nil {
			return err
		}
	}
	for _, a := range f.ConditionsAliases {
		if err := check("conditions_alias", a.Alias, r.aliases[a.Alias] != nil); err != nil {
			return err
		}
	}
	for _, c := range f.Customisations {
		exists := r.customisations[c.Name] != nil || r.primitives[c.Name] != nil
		if err := check("customisation", c.Name, exists); err != nil {
			return err
		}
	}

	r.fragments[f.Name] = f
	for _, e := range f.Eras {
		r.eras[e.Name] = e
	}
	for _, ec := range f.EventContents {
		r.eventContents[ec.Name] = ec
	}
	for _, a := range f.ConditionsAliases {
		r.aliases[a.Alias] = a
	}
	for _, c := range f.Customisations {
		r.customisations[c.Name] = c
	}
	return nil
}

// PopulateFromModel adds every fragment of a loaded model.
func (r *Registry) PopulateFromModel(ctx context.Context, model *config.Model) error {
	logger := ctxlog.FromContext(ctx)
	for _, f := range model.Fragments {
		if err := r.AddFragment(f); err != nil {
			return err
		}
		logger.Debug("Registered fragment.", "fragment", f.Name, "file", f.SourceFile, "stages", len(f.Stages))
	}
	logger.Debug("Registry populated.", "fragments", len(r.fragments), "customisations", len(r.customisations))
	return nil
}

// Fragment returns the fragment with the given name.
func (r *Registry) Fragment(name string) (*config.Fragment, error) {
	f, ok := r.fragments[name]
	if !ok {
		return nil, errs.Unresolved("fragment", name, "")
	}
	return f, nil
}

// Era returns the era with the given name.
func (r *Registry) Era(name string) (*config.EraDecl, error) {
	e, ok := r.eras[name]
	if !ok {
		return nil, errs.Unresolved("era", name, "")
	}
	return e, nil
}

// EventContent returns the event content with the given name.
func (r *Registry) EventContent(name string) (*config.EventContentDecl, error) {
	ec, ok := r.eventContents[name]
	if !ok {
		return nil, errs.Unresolved("event_content", name, "")
	}
	return ec, nil
}

// Customisation returns the composite customisation with the given name.
func (r *Registry) Customisation(name string) (*config.CustomisationDecl, error) {
	c, ok := r.customisations[name]
	if !ok {
		return nil, errs.Unresolved("customisation", name, "")
	}
	return c, nil
}

// EventContentCommands flattens an event content into its output commands.
// The commands of every extended content come first, in the listed order,
// followed by the content's own commands.
func (r *Registry) EventContentCommands(name string) ([]string, error) {
	return r.flattenEventContent(name, "", map[string]bool{})
}

func (r *Registry) flattenEventContent(name, referrer string, visiting map[string]bool) ([]string, error) {
	ec, ok := r.eventContents[name]
	if !ok {
		return nil, errs.Unresolved("event_content", name, referrer)
	}
	if visiting[name] {
		return nil, errs.Invalid("event_content %q extends itself", name)
	}
	visiting[name] = true
	defer delete(visiting, name)

	var commands []string
	for _, parent := range ec.Extends {
		cmds, err := r.flattenEventContent(parent, "event_content "+quote(name), visiting)
		if err != nil {
			return nil, err
		}
		commands = append(commands, cmds...)
	}
	return append(commands, ec.OutputCommands...), nil
}

func quote(s string) string { return `"` + s + `"` }
