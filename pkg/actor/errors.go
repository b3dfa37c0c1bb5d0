package actor

import "errors"

var (
	// ErrStopped is returned when telling an actor whose loop already ended.
	ErrStopped = errors.New("actor stopped")
	// ErrInterrupted is returned by Run when the context ends before the actor finished.
	ErrInterrupted = errors.New("actor interrupted")
	// ErrUnexpectedMessage is returned by Tell when the message type is not accepted.
	ErrUnexpectedMessage = errors.New("unexpected message type")
	// ErrRunning is returned by Run when the loop was already started.
	ErrRunning = errors.New("actor already running")
)
