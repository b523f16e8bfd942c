package world

import (
	"fmt"

	"github.com/pixil98/go-errors"
)

// ObjectSpec describes an object as written in a room file: either part of
// the room's fixed furniture or a reset that respawns over time.
type ObjectSpec struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (o *ObjectSpec) Validate() error {
	if o.Name == "" {
		return fmt.Errorf("object name is required")
	}
	return nil
}

// Object is a live object instance held by a room or a living. Attached
// objects are room-owned and never change hands.
type Object struct {
	InstanceId  string
	Name        string
	Description string
	Attached    bool
}

// Record is the durable definition of a room. It is read once per room
// actor lifetime; the mutable state a running room accumulates (occupants,
// dropped items) is never written back.
type Record struct {
	Title   string            `json:"title"`
	Brief   string            `json:"desc"`
	Long    string            `json:"long,omitempty"`
	Exits   map[string]string `json:"exits"` // direction -> room id
	Objects []ObjectSpec      `json:"objects,omitempty"`
	Resets  []ObjectSpec      `json:"resets,omitempty"`
}

// Validate satisfies storage.ValidatingSpec. A record missing any required
// field fails closed: the loader reports the room as absent.
func (r *Record) Validate() error {
	el := errors.NewErrorList()

	if r.Title == "" {
		el.Add(fmt.Errorf("title is required"))
	}
	if r.Brief == "" {
		el.Add(fmt.Errorf("desc is required"))
	}
	if r.Exits == nil {
		el.Add(fmt.Errorf("exits are required"))
	}
	for dir, dest := range r.Exits {
		if dir == "" {
			el.Add(fmt.Errorf("exit direction must not be empty"))
		}
		if dest == "" {
			el.Add(fmt.Errorf("exit %s: destination room id is required", dir))
		}
	}

	for i, o := range r.Objects {
		if err := o.Validate(); err != nil {
			el.Add(fmt.Errorf("object %d: %w", i, err))
		}
	}
	for i, o := range r.Resets {
		if err := o.Validate(); err != nil {
			el.Add(fmt.Errorf("reset %d: %w", i, err))
		}
	}

	return el.Err()
}
