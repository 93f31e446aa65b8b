// Package engine provides the editor state model for the editing core.
//
// # Architecture
//
// The engine is built on two sub-packages:
//
//   - buffer: immutable document snapshots and change sets
//   - cursor: anchor/head selections and selection sets
//
// On top of these, engine defines:
//
//   - State: a document snapshot, a selection set and the current
//     configuration of every Compartment
//   - Transaction: one atomic document/selection update, created by
//     State.Update from a TransactionSpec
//   - View: the owner of the current state, input focus, and the single
//     update listener invoked after every dispatched transaction
//
// # Compartments
//
// Options such as read-only mode and the indent unit live in compartments.
// Reconfiguring a compartment is a transaction effect, so the new value takes
// effect on the next dispatch without rebuilding the view:
//
//	readOnly := engine.NewCompartment("readOnly")
//	state := engine.NewState(engine.WithDoc("text"), engine.WithCompartment(readOnly, nil))
//	view := engine.NewView(state)
//	view.Dispatch(engine.TransactionSpec{
//	    Effects: []engine.Effect{readOnly.Reconfigure(engine.ReadOnly(true))},
//	})
//	view.State().Facets().ReadOnly // true
//
// # Selection Signals
//
// Transaction.SelectionSet reports only explicit selection changes. An edit
// that moves or collapses the selection as a side effect (typing over a
// selection, cut) reports DocChanged but not SelectionSet; observers that care
// about the selection must check both.
//
// # Thread Safety
//
// State and Transaction are immutable. View is owned by a single event loop
// goroutine and is not safe for concurrent use.
package engine
