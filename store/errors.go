package store

import "errors"

var (
	// ErrSessionClosed is returned when a command or read reaches a session
	// whose loop has stopped.
	ErrSessionClosed = errors.New("session closed")

	// ErrSessionBusy is returned when the session loop doesn't pick up a
	// request within the queue timeout.
	ErrSessionBusy = errors.New("session queue is busy")

	// ErrInvalidCommand is returned for nil or unknown commands.
	ErrInvalidCommand = errors.New("invalid command")

	ErrInvalidRestaurant = errors.New("invalid restaurant id")
)
