package command

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pixil98/go-errors"

	"github.com/DavidAlphaFox/erlymud/internal/world"
)

// WorldConfig points at the data directory holding world content. Room
// files live under its rooms/ subdirectory and are loaded lazily, one per
// first reference.
type WorldConfig struct {
	Path string `json:"path"`
}

func (c *WorldConfig) validate() error {
	el := errors.NewErrorList()

	if c.Path == "" {
		el.Add(fmt.Errorf("path is required"))
		return el.Err()
	}

	if _, err := os.Stat(filepath.Join(c.Path, "rooms")); err != nil {
		el.Add(fmt.Errorf("invalid world path %q: %w", c.Path, err))
	}

	return el.Err()
}

func (c *WorldConfig) BuildRoomManager() *world.Manager {
	return world.NewManager(world.NewSource(c.Path))
}
