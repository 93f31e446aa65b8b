package bridge

import (
	"fmt"
	"strings"
)

// Capability is an optional host feature.
type Capability uint32

// Capabilities.
const (
	CapInlineCompletion Capability = 1 << iota
	CapCancelCorrection
	CapDeveloperExtras
	CapTransparentBackground
)

var capabilityNames = []struct {
	cap  Capability
	name string
}{
	{CapInlineCompletion, "inlineCompletion"},
	{CapCancelCorrection, "cancelCorrection"},
	{CapDeveloperExtras, "developerExtras"},
	{CapTransparentBackground, "transparentBackground"},
}

// String returns the capability name.
func (c Capability) String() string {
	for _, n := range capabilityNames {
		if n.cap == c {
			return n.name
		}
	}
	return fmt.Sprintf("Capability(%d)", uint32(c))
}

// Capabilities is a set of host features.
type Capabilities Capability

// NewCapabilities returns a set holding caps.
func NewCapabilities(caps ...Capability) Capabilities {
	var set Capabilities
	for _, c := range caps {
		set |= Capabilities(c)
	}
	return set
}

// Has reports whether c is in the set.
func (s Capabilities) Has(c Capability) bool {
	return s&Capabilities(c) != 0
}

// With returns the set plus c.
func (s Capabilities) With(c Capability) Capabilities {
	return s | Capabilities(c)
}

// Names returns the names of the capabilities in the set.
func (s Capabilities) Names() []string {
	var names []string
	for _, n := range capabilityNames {
		if s.Has(n.cap) {
			names = append(names, n.name)
		}
	}
	return names
}

// String returns the set as a comma-separated list.
func (s Capabilities) String() string {
	return strings.Join(s.Names(), ",")
}

// ParseCapabilities parses capability names. Unknown names are an error.
func ParseCapabilities(names []string) (Capabilities, error) {
	var set Capabilities
outer:
	for _, raw := range names {
		name := strings.TrimSpace(raw)
		if name == "" {
			continue
		}
		for _, n := range capabilityNames {
			if strings.EqualFold(n.name, name) {
				set = set.With(n.cap)
				continue outer
			}
		}
		return 0, fmt.Errorf("%w: %q", ErrUnknownCapability, name)
	}
	return set, nil
}
