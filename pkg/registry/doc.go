// Package registry tracks running actors and the channels they share.
//
// A Registry is an explicit object: create as many as needed, there is no global instance.
// Every registered actor runs on its own goroutine until its loop ends or the registry
// shuts down, after which it is removed from the lookup tables.
package registry
