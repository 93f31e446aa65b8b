package engine

import (
	"fmt"

	"github.com/dshills/marksync/internal/engine/buffer"
	"github.com/dshills/marksync/internal/engine/cursor"
)

// Re-export commonly used types for convenience.
type (
	// ByteOffset is a byte position in the document.
	ByteOffset = buffer.ByteOffset

	// Point represents a line/column position.
	Point = buffer.Point

	// Range represents a byte range in the document.
	Range = buffer.Range

	// Edit represents a single replacement.
	Edit = buffer.Edit

	// Selection represents an anchor/head selection.
	Selection = cursor.Selection
)

// State is an immutable editor state.
type State struct {
	doc       *buffer.Buffer
	selection cursor.Set
	slots     []compartmentSlot
	facets    Facets
}

// Option configures a State during creation.
type Option func(*State)

// WithDoc sets the initial document text.
func WithDoc(text string) Option {
	return func(s *State) {
		s.doc = buffer.New(text)
	}
}

// WithSelection sets the initial selection.
func WithSelection(sel cursor.Set) Option {
	return func(s *State) {
		s.selection = sel
	}
}

// WithCompartment registers a compartment with its initial extension.
func WithCompartment(c *Compartment, ext Extension) Option {
	return func(s *State) {
		s.slots = append(s.slots, compartmentSlot{compartment: c, ext: ext})
	}
}

// NewState creates a state. Without options it holds an empty document with
// a caret at 0.
func NewState(opts ...Option) *State {
	s := &State{
		doc:       buffer.New(""),
		selection: cursor.Caret(0),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.selection = s.selection.Clamp(s.doc.Len())
	s.facets = resolveFacets(s.slots)
	return s
}

// Doc returns the document snapshot.
func (s *State) Doc() *buffer.Buffer {
	return s.doc
}

// Selection returns the selection set.
func (s *State) Selection() cursor.Set {
	return s.selection
}

// Facets returns the resolved configuration.
func (s *State) Facets() Facets {
	return s.facets
}

// SliceDoc returns the text in [from, to).
func (s *State) SliceDoc(from, to ByteOffset) string {
	return s.doc.TextRange(from, to)
}

// HasCompartment reports whether c is registered in the state.
func (s *State) HasCompartment(c *Compartment) bool {
	for _, slot := range s.slots {
		if slot.compartment == c {
			return true
		}
	}
	return false
}

// Update creates a transaction from spec. The receiver is not modified.
func (s *State) Update(spec TransactionSpec) (*Transaction, error) {
	changes, err := buffer.NewChangeSet(s.doc.Len(), spec.Changes...)
	if err != nil {
		return nil, fmt.Errorf("update: %w", err)
	}
	doc, err := changes.Apply(s.doc)
	if err != nil {
		return nil, fmt.Errorf("update: %w", err)
	}

	next := &State{
		doc:       doc,
		selection: s.selection.Map(changes),
		slots:     s.slots,
	}
	if spec.Selection != nil {
		next.selection = *spec.Selection
	}
	next.selection = next.selection.Clamp(doc.Len())

	if len(spec.Effects) > 0 {
		next.slots = make([]compartmentSlot, len(s.slots))
		copy(next.slots, s.slots)
		for _, e := range spec.Effects {
			re, ok := e.(reconfigureEffect)
			if !ok {
				continue
			}
			next.reconfigure(re)
		}
	}
	next.facets = resolveFacets(next.slots)

	return &Transaction{
		StartState:   s,
		State:        next,
		Changes:      changes,
		Effects:      spec.Effects,
		UserEvent:    spec.UserEvent,
		selectionSet: spec.Selection != nil,
	}, nil
}

func (s *State) reconfigure(re reconfigureEffect) {
	for i, slot := range s.slots {
		if slot.compartment == re.compartment {
			s.slots[i].ext = re.ext
			return
		}
	}
	// Unknown compartments are appended so late registration still works.
	s.slots = append(s.slots, compartmentSlot{compartment: re.compartment, ext: re.ext})
}

// ReplaceSelection returns a spec replacing every selection range with text
// and collapsing each to a caret after the inserted text.
func (s *State) ReplaceSelection(text string) TransactionSpec {
	ranges := s.selection.Ranges()
	edits := make([]buffer.Edit, len(ranges))
	for i, r := range ranges {
		edits[i] = buffer.NewEdit(r.Range(), text)
	}
	return TransactionSpec{Changes: edits, UserEvent: UserEventInput}
}
