package world

import "errors"

var (
	// ErrRoomNotFound covers both a missing room file and an unparsable
	// one; callers cannot distinguish the two cases.
	ErrRoomNotFound = errors.New("room not found")
	ErrRoomExists   = errors.New("room already exists")
	ErrRoomDown     = errors.New("room is not running")

	ErrObjectNotFound = errors.New("object not found")
	ErrObjectFixed    = errors.New("object cannot be picked up")
)
