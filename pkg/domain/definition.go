package domain

// Definition is the validated, immutable state hierarchy.
type Definition[O any] struct {
	root   *State[O]
	states map[StateID]*State[O]
	order  []*State[O]
}

// NewDefinition validates the tree below root and indexes it.
//
// It checks that ids are unique, that at most one state per sibling group is initial
// and that every transition targets a state of this tree.
func NewDefinition[O any](root *State[O]) (*Definition[O], error) {
	if root == nil {
		return nil, &DefinitionError{Op: "define", Err: ErrNoRoot}
	}
	d := &Definition[O]{
		root:   root,
		states: make(map[StateID]*State[O]),
	}
	if err := d.index(root); err != nil {
		return nil, err
	}
	for _, s := range d.order {
		if err := d.validate(s); err != nil {
			return nil, err
		}
	}
	return d, nil
}

func (d *Definition[O]) index(s *State[O]) error {
	if _, exists := d.states[s.ID]; exists {
		return &DefinitionError{Op: "define", State: s.ID, Err: ErrDuplicateState}
	}
	d.states[s.ID] = s
	d.order = append(d.order, s)
	for _, c := range s.Children {
		c.Parent = s
		if err := d.index(c); err != nil {
			return err
		}
	}
	return nil
}

func (d *Definition[O]) validate(s *State[O]) error {
	initial := 0
	for _, c := range s.Children {
		if c.Initial {
			initial++
		}
	}
	if initial > 1 {
		return &DefinitionError{Op: "define", State: s.ID, Err: ErrMultipleInitial}
	}
	for _, group := range [][]*Transition[O]{s.Transitions, s.Locals} {
		for _, t := range group {
			if t.Event == "" {
				return &DefinitionError{Op: "define", State: s.ID, Err: ErrMissingEvent}
			}
			if t.Target == nil || d.states[t.Target.ID] != t.Target {
				return &DefinitionError{Op: "define", State: s.ID, Event: t.Event, Err: ErrUnknownState}
			}
		}
	}
	return nil
}

// Root returns the root state.
func (d *Definition[O]) Root() *State[O] {
	return d.root
}

// State looks a state up by id.
func (d *Definition[O]) State(id StateID) (*State[O], bool) {
	s, ok := d.states[id]
	return s, ok
}

// States returns every state in depth-first declaration order.
func (d *Definition[O]) States() []*State[O] {
	out := make([]*State[O], len(d.order))
	copy(out, d.order)
	return out
}

// Len returns the number of states.
func (d *Definition[O]) Len() int {
	return len(d.order)
}

// PathTo returns the root-to-target path, found by depth-first search from the root.
func (d *Definition[O]) PathTo(id StateID) ([]*State[O], bool) {
	return findPath(d.root, id, nil)
}

func findPath[O any](s *State[O], id StateID, prefix []*State[O]) ([]*State[O], bool) {
	path := append(prefix, s)
	if s.ID == id {
		out := make([]*State[O], len(path))
		copy(out, path)
		return out, true
	}
	for _, c := range s.Children {
		if found, ok := findPath(c, id, path); ok {
			return found, true
		}
	}
	return nil, false
}

// DefaultPath returns the chain of default children strictly below from, down to a leaf.
func (d *Definition[O]) DefaultPath(from *State[O]) []*State[O] {
	var path []*State[O]
	for c := from.DefaultChild(); c != nil; c = c.DefaultChild() {
		path = append(path, c)
	}
	return path
}
