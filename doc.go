/*
Package arbor is a hierarchical state machine runtime paired with a lightweight actor system.

Machines are described once, with a fluent builder, and instantiated many times: every
instance keeps its own active path and history and fires events deterministically,
innermost state first, in declaration order. Actors give machines a mailbox and a
goroutine of their own, and the timer manager delivers events to them at given times.

# Concept

A definition is an immutable tree of states. Composite states have a default child and
may remember their last active child (shallow history). Transitions are either regular,
exiting and entering states up to the common ancestor, or local, running an action without
leaving the state. Guards, actions, entry and exit callables receive the owner of the
machine and the event being fired. Their failures are reported to observers and never
interrupt firing.

# Usage

	package main

	import (
		"context"
		"log"

		"github.com/aretw0/arbor"
		"github.com/aretw0/arbor/pkg/domain"
		"github.com/aretw0/arbor/pkg/dsl"
	)

	type Door struct{ Opened int }

	func main() {
		b := dsl.New[*Door]("door", "a door")
		b.Add("closed", "").IsInitial()
		b.Root().Add("open", "").OnEntry(func(d *Door, _ domain.Event) error {
			d.Opened++
			return nil
		}, "count openings")
		b.In("closed").On("OPEN").To("open", "").Build()
		b.In("open").On("CLOSE").To("closed", "").Build()

		def, err := b.Definition()
		if err != nil {
			log.Fatal(err)
		}

		sys, err := arbor.New()
		if err != nil {
			log.Fatal(err)
		}
		door, err := arbor.SpawnMachine(sys, "front", def, &Door{})
		if err != nil {
			log.Fatal(err)
		}
		_ = door.Fire("OPEN", nil)

		_ = sys.Shutdown(context.Background())
	}

# Packages

  - pkg/domain: states, transitions, events, definitions and errors.
  - pkg/dsl: the definition builder.
  - pkg/fsm: the runtime firing algorithm.
  - pkg/actor, pkg/registry, pkg/channel, pkg/timer: the actor system.
  - pkg/observability: log hooks, Prometheus metrics and the event feed.
*/
package arbor
