package engine

import "github.com/dshills/marksync/internal/engine/cursor"

// UpdateListener is invoked once per dispatched transaction, after the view
// state has been replaced.
type UpdateListener func(tr *Transaction)

// View owns the current state and input focus.
// It is not safe for concurrent use.
type View struct {
	state     *State
	focused   bool
	editFocus bool
	listener  UpdateListener
}

// NewView creates a view over state.
func NewView(state *State) *View {
	if state == nil {
		state = NewState()
	}
	return &View{state: state}
}

// State returns the current state.
func (v *View) State() *State {
	return v.state
}

// SetUpdateListener sets the listener invoked after each transaction.
func (v *View) SetUpdateListener(fn UpdateListener) {
	v.listener = fn
}

// Dispatch applies spec to the current state and notifies the listener.
func (v *View) Dispatch(spec TransactionSpec) (*Transaction, error) {
	tr, err := v.state.Update(spec)
	if err != nil {
		return nil, err
	}
	v.state = tr.State
	if !tr.State.Facets().Editable {
		v.focused = false
	}
	v.RefreshEditFocus()
	if v.listener != nil {
		v.listener(tr)
	}
	return tr, nil
}

// Input applies a user edit. It fails with ErrReadOnly when the state is
// read-only.
func (v *View) Input(spec TransactionSpec) (*Transaction, error) {
	if v.state.Facets().ReadOnly && len(spec.Changes) > 0 {
		return nil, ErrReadOnly
	}
	return v.Dispatch(spec)
}

// Select dispatches an explicit selection change.
func (v *View) Select(sel cursor.Set, userEvent string) (*Transaction, error) {
	return v.Dispatch(TransactionSpec{Selection: &sel, UserEvent: userEvent})
}

// Focus gives input focus to the content surface. A non-editable surface
// does not take focus.
func (v *View) Focus() {
	v.focused = v.state.Facets().Editable
	v.RefreshEditFocus()
}

// Blur removes input focus from the content surface.
func (v *View) Blur() {
	v.focused = false
	v.RefreshEditFocus()
}

// HasFocus reports whether the content surface has input focus.
func (v *View) HasFocus() bool {
	return v.focused
}

// RefreshEditFocus recomputes whether the caret should render as editable.
func (v *View) RefreshEditFocus() {
	v.editFocus = v.focused && !v.state.Facets().ReadOnly
}

// EditFocus reports whether the view is focused and accepts edits.
func (v *View) EditFocus() bool {
	return v.editFocus
}
