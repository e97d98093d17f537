package highlight

// State is an opaque parser state carried from the end of one line to the
// start of the next. The concrete value belongs to the highlighter that
// produced it; the clone/equal/release functions are captured when the
// state is constructed so holders never need to know the concrete type.
//
// The zero State is "no state" and is never equivalent to anything,
// including another zero State.
type State struct {
	value   any
	clone   func(any) any
	equal   func(a, b any) bool
	release func(any)
}

// StateOps are the operations a highlighter provides for its state type.
type StateOps struct {
	Clone   func(any) any
	Equal   func(a, b any) bool
	Release func(any)
}

// NewState wraps v with the given operations.
func NewState(v any, ops StateOps) State {
	if ops.Clone == nil {
		ops.Clone = func(v any) any { return v }
	}
	if ops.Equal == nil {
		ops.Equal = func(a, b any) bool { return a == b }
	}
	return State{value: v, clone: ops.Clone, equal: ops.Equal, release: ops.Release}
}

// IsZero reports whether s holds no state.
func (s State) IsZero() bool {
	return s.clone == nil
}

// Value returns the wrapped value.
func (s State) Value() any {
	return s.value
}

// Clone returns an independent copy of s.
func (s State) Clone() State {
	if s.IsZero() {
		return State{}
	}
	return State{value: s.clone(s.value), clone: s.clone, equal: s.equal, release: s.release}
}

// Equivalent reports whether lexing can continue identically from s and o.
func (s State) Equivalent(o State) bool {
	if s.IsZero() || o.IsZero() {
		return false
	}
	return s.equal(s.value, o.value)
}

// Release hands the value back to its highlighter. s must not be used afterwards.
func (s State) Release() {
	if s.release != nil && !s.IsZero() {
		s.release(s.value)
	}
}
