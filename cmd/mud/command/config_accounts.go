package command

import (
	"fmt"
	"os"

	"github.com/pixil98/go-errors"

	"github.com/DavidAlphaFox/erlymud/internal/game"
	"github.com/DavidAlphaFox/erlymud/internal/storage"
)

type AccountsConfig struct {
	Path string `json:"path"`
}

func (c *AccountsConfig) validate() error {
	el := errors.NewErrorList()

	if c.Path == "" {
		el.Add(fmt.Errorf("path is required"))
		return el.Err()
	}

	if _, err := os.Stat(c.Path); err != nil {
		el.Add(fmt.Errorf("invalid accounts path %q: %w", c.Path, err))
	}

	return el.Err()
}

func (c *AccountsConfig) BuildStore() (*storage.FileStore[*game.Account], error) {
	return storage.NewFileStore[*game.Account](c.Path)
}
