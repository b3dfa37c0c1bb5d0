/*
Package fsm implements the runtime of a hierarchical state machine.

A Machine binds an immutable domain.Definition to an owner value and keeps the active
state path (root to leaf) together with the history of composite states flagged with
History. Machines are not safe for concurrent use: each one is meant to be owned by a
single actor (see package actor), which is the only goroutine that ever fires events on it.

# Firing

Fire scans the active states from the innermost to the outermost. Local transitions are
tried first and only run their action. Regular transitions exit the active states up to
the nearest common ancestor of the active leaf and the target, run their action, enter the
states down to the target and then keep descending through history or default children
until a leaf is active. Within one state, transitions are tried in declaration order.

Fire never panics on behalf of user code: failing guards, actions, entry and exit callables
are reported to the attached domain.LifecycleHooks and the sequence continues. Completed
exit/entry steps are not rolled back.
*/
package fsm
