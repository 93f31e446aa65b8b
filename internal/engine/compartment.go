package engine

import "strings"

// Facets are the resolved configuration values of a state.
type Facets struct {
	// Editable reports whether the content surface accepts focus and input.
	Editable bool
	// ReadOnly blocks user edits. Programmatic transactions still apply.
	ReadOnly bool
	// IndentUnit is the text inserted for one level of indentation.
	IndentUnit string
}

// DefaultFacets returns the facets of a state without compartments.
func DefaultFacets() Facets {
	return Facets{Editable: true, IndentUnit: "  "}
}

// Extension modifies facets. A nil Extension leaves them unchanged.
type Extension func(*Facets)

// ReadOnly returns an extension that makes the state non-editable and
// read-only, or leaves it untouched when enabled is false.
func ReadOnly(enabled bool) Extension {
	if !enabled {
		return nil
	}
	return func(f *Facets) {
		f.Editable = false
		f.ReadOnly = true
	}
}

// IndentUnit returns an extension setting the indent unit.
func IndentUnit(unit string) Extension {
	return func(f *Facets) {
		f.IndentUnit = unit
	}
}

// Compartment is a named slot of configuration that can be replaced by a
// transaction effect.
type Compartment struct {
	name string
}

// NewCompartment creates a compartment.
func NewCompartment(name string) *Compartment {
	return &Compartment{name: name}
}

// Name returns the compartment name.
func (c *Compartment) Name() string {
	return c.name
}

// Reconfigure returns an effect replacing the compartment's extension.
func (c *Compartment) Reconfigure(ext Extension) Effect {
	return reconfigureEffect{compartment: c, ext: ext}
}

// Effect is an additional instruction carried by a transaction.
type Effect interface {
	String() string
}

type reconfigureEffect struct {
	compartment *Compartment
	ext         Extension
}

func (e reconfigureEffect) String() string {
	return "reconfigure(" + e.compartment.name + ")"
}

type compartmentSlot struct {
	compartment *Compartment
	ext         Extension
}

func resolveFacets(slots []compartmentSlot) Facets {
	f := DefaultFacets()
	for _, s := range slots {
		if s.ext != nil {
			s.ext(&f)
		}
	}
	return f
}

// EffectNames returns the string form of each effect, for logging.
func EffectNames(effects []Effect) string {
	names := make([]string, len(effects))
	for i, e := range effects {
		names[i] = e.String()
	}
	return strings.Join(names, ",")
}
