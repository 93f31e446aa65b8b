package engine

import (
	"github.com/dshills/marksync/internal/engine/buffer"
	"github.com/dshills/marksync/internal/engine/cursor"
)

// User event names attached to transactions.
const (
	UserEventInput       = "input.type"
	UserEventCompose     = "input.type.compose"
	UserEventWrap        = "input.wrap"
	UserEventDelete      = "delete"
	UserEventCut         = "delete.cut"
	UserEventPaste       = "input.paste"
	UserEventSelect      = "select"
	UserEventPointer     = "select.pointer"
	UserEventUndo        = "undo"
	UserEventReconfigure = "reconfigure"
)

// TransactionSpec describes a transaction to create.
type TransactionSpec struct {
	// Changes are edits in the coordinates of the current document.
	Changes []buffer.Edit
	// Selection, when non-nil, replaces the mapped selection.
	Selection *cursor.Set
	// Effects are extra instructions such as compartment reconfiguration.
	Effects []Effect
	// UserEvent names the user action that caused the transaction.
	UserEvent string
}

// SelectionSpec returns a pointer to sel for use in TransactionSpec.
func SelectionSpec(sel cursor.Set) *cursor.Set {
	return &sel
}

// Transaction is one atomic document/selection update.
type Transaction struct {
	StartState *State
	State      *State
	Changes    buffer.ChangeSet
	Effects    []Effect
	UserEvent  string

	selectionSet bool
}

// DocChanged reports whether the document changed.
func (tr *Transaction) DocChanged() bool {
	return !tr.Changes.IsEmpty()
}

// SelectionSet reports whether the transaction explicitly set the
// selection. Selections moved as a side effect of an edit do not count.
func (tr *Transaction) SelectionSet() bool {
	return tr.selectionSet
}

// Reconfigured reports whether the transaction carries a compartment
// reconfiguration.
func (tr *Transaction) Reconfigured() bool {
	for _, e := range tr.Effects {
		if _, ok := e.(reconfigureEffect); ok {
			return true
		}
	}
	return false
}

// IsUserEvent reports whether the transaction's user event is event or a
// sub-event of it ("input" matches "input.type").
func (tr *Transaction) IsUserEvent(event string) bool {
	ue := tr.UserEvent
	return ue == event || (len(ue) > len(event) && ue[:len(event)] == event && ue[len(event)] == '.')
}
