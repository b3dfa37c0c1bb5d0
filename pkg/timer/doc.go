// Package timer provides an actor that delivers messages to other actors at given times,
// once or periodically.
//
// The Manager shares its mailbox between timer commands and application messages. An
// Extractor tells them apart, which lets an application embed commands in its own
// message types.
package timer
