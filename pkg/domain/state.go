package domain

// State is a node of the hierarchy.
//
// States are assembled by the dsl package and frozen by NewDefinition; they must not be
// mutated afterwards since a Definition is shared by every machine built from it.
type State[O any] struct {
	ID          StateID
	Description string

	// Parent is nil for the root.
	Parent *State[O]

	// Children in declaration order. A state is composite iff it has children.
	Children []*State[O]

	// Initial marks the default child of the parent. At most one per sibling group.
	Initial bool

	// History makes the state remember its last active child when it is exited,
	// so that re-entering it without naming a child resumes that child.
	History bool

	// Final marks a terminal state. A machine with an active final state is not alive.
	Final bool

	OnEntry            Callback[O]
	OnEntryDescription string
	OnExit             Callback[O]
	OnExitDescription  string

	// Transitions and Locals are kept in declaration order, which is also
	// their selection order when several of them match the same event.
	Transitions []*Transition[O]
	Locals      []*Transition[O]
}

// IsComposite reports whether the state has children.
func (s *State[O]) IsComposite() bool {
	return len(s.Children) > 0
}

// IsRoot reports whether the state has no parent.
func (s *State[O]) IsRoot() bool {
	return s.Parent == nil
}

// DefaultChild returns the child flagged as initial, or the first declared child
// when none is flagged. It returns nil for leaves.
func (s *State[O]) DefaultChild() *State[O] {
	if len(s.Children) == 0 {
		return nil
	}
	for _, c := range s.Children {
		if c.Initial {
			return c
		}
	}
	return s.Children[0]
}

// IsDescendantOf reports whether s is a strict descendant of ancestor.
func (s *State[O]) IsDescendantOf(ancestor *State[O]) bool {
	for p := s.Parent; p != nil; p = p.Parent {
		if p == ancestor {
			return true
		}
	}
	return false
}

// Depth is the number of ancestors of the state (zero for the root).
func (s *State[O]) Depth() int {
	depth := 0
	for p := s.Parent; p != nil; p = p.Parent {
		depth++
	}
	return depth
}

func (s *State[O]) String() string {
	return string(s.ID)
}
