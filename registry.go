package lumen

import (
	"fmt"
)

// NoneEffect is the placeholder listed first by EffectsList. It is not a
// registered effect.
const NoneEffect = "none"

// EffectDefinition is the immutable record behind one effect name.
type EffectDefinition struct {
	Name     string
	Stacking Stacking
	// Params builds the typed parameter record pre-filled with defaults.
	// Nil means the effect takes no parameters.
	Params  func() Params
	Handler Handler
}

// EffectAlias rewrites a name to another effect with fixed overrides.
// Caller overrides are merged over Overrides, so the caller always wins.
type EffectAlias struct {
	Name      string
	Target    string
	Overrides map[string]any
	// Retired aliases still dispatch but are left out of EffectsList.
	Retired bool
}

// EffectTable maps effect names to definitions. Built once, then read-only.
type EffectTable struct {
	order   []string
	defs    map[string]*EffectDefinition
	aliases map[string]*EffectAlias
}

// NewEffectTable builds a table from defs and aliases, in that order.
// Duplicate names, handler-less definitions and aliases pointing at an
// unknown definition are errors.
func NewEffectTable(defs []EffectDefinition, aliases []EffectAlias) (*EffectTable, error) {
	t := &EffectTable{
		defs:    make(map[string]*EffectDefinition, len(defs)),
		aliases: make(map[string]*EffectAlias, len(aliases)),
	}
	for i := range defs {
		d := defs[i]
		if d.Name == "" || d.Name == NoneEffect {
			return nil, fmt.Errorf("%w: reserved name %q", ErrDuplicateEffect, d.Name)
		}
		if t.has(d.Name) {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateEffect, d.Name)
		}
		if d.Handler == nil {
			return nil, fmt.Errorf("lumen: effect %q has no handler", d.Name)
		}
		t.defs[d.Name] = &d
		t.order = append(t.order, d.Name)
	}
	for i := range aliases {
		a := aliases[i]
		if a.Name == "" || a.Name == NoneEffect || t.has(a.Name) {
			return nil, fmt.Errorf("%w: alias %q", ErrDuplicateEffect, a.Name)
		}
		if _, ok := t.defs[a.Target]; !ok {
			return nil, fmt.Errorf("%w: alias %q targets %q", ErrUnknownEffect, a.Name, a.Target)
		}
		a.Overrides = MergeParams(a.Overrides)
		t.aliases[a.Name] = &a
		t.order = append(t.order, a.Name)
	}
	return t, nil
}

// MustEffectTable is NewEffectTable that panics on error. For built-in
// tables whose contents are fixed at compile time.
func MustEffectTable(defs []EffectDefinition, aliases []EffectAlias) *EffectTable {
	t, err := NewEffectTable(defs, aliases)
	if err != nil {
		panic(err)
	}
	return t
}

func (t *EffectTable) has(name string) bool {
	_, d := t.defs[name]
	_, a := t.aliases[name]
	return d || a
}

// Has reports whether name is a definition or an alias.
func (t *EffectTable) Has(name string) bool {
	return t.has(name)
}

// Lookup returns the definition registered directly under name.
func (t *EffectTable) Lookup(name string) (*EffectDefinition, bool) {
	d, ok := t.defs[name]
	return d, ok
}

// Alias returns the alias registered under name.
func (t *EffectTable) Alias(name string) (*EffectAlias, bool) {
	a, ok := t.aliases[name]
	return a, ok
}

// Resolve follows an alias (if any) to its definition and returns the
// overrides to apply: alias overrides with the caller's merged on top.
func (t *EffectTable) Resolve(name string, overrides map[string]any) (*EffectDefinition, map[string]any, bool) {
	if d, ok := t.defs[name]; ok {
		return d, overrides, true
	}
	a, ok := t.aliases[name]
	if !ok {
		return nil, nil, false
	}
	return t.defs[a.Target], MergeParams(a.Overrides, overrides), true
}

// Names returns every registered name except retired aliases, in
// registration order.
func (t *EffectTable) Names() []string {
	out := make([]string, 0, len(t.order))
	for _, n := range t.order {
		if a, ok := t.aliases[n]; ok && a.Retired {
			continue
		}
		out = append(out, n)
	}
	return out
}
