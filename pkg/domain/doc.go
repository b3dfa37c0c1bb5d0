/*
Package domain contains the core models of the arbor state-machine engine.

It defines the immutable state hierarchy, the transitions between states, the events
that drive them and the error taxonomy shared by the builder, the runtime and the actor
layer. This package is kept pure: it performs no I/O, starts no goroutines and holds no
mutable runtime state.

# Key Entities

  - State: A node in the hierarchy. Composite when it has children, leaf otherwise.
  - Transition: A rule mapping (source, event, optional guard) to (target, optional action).
  - Definition: The validated, immutable tree rooted at a single state. One Definition can
    back any number of runtime machines.
  - Event: A discriminator plus an opaque payload.
  - LifecycleHooks: Diagnostic callbacks notified of every structural step of a machine.
*/
package domain
