// Package actor provides single-goroutine execution units with an unbounded FIFO mailbox.
//
// An Actor owns its state exclusively: only its own loop touches it, so no locking is needed
// for anything reachable from the processing function. Other goroutines communicate with it
// by telling it messages.
//
// MachineActor binds a state machine to an actor so that events are fired one at a time,
// in arrival order.
package actor
