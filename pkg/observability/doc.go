/*
Package observability provides tools for monitoring state machines and actors.

LogHooks turns machine lifecycle events into structured log records. Metrics exports
Prometheus collectors and implements the instrumentation interfaces of the actor,
registry and timer packages, so a single value can be handed to all of them.
*/
package observability
