package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-errors"
)

type Config struct {
	TickInterval   string           `json:"tick_interval,omitempty"`
	RequestTimeout string           `json:"request_timeout,omitempty"`
	Listeners      []ListenerConfig `json:"listeners"`
	World          WorldConfig      `json:"world"`
	Accounts       AccountsConfig   `json:"accounts"`
	Nats           NatsConfig       `json:"nats"`
	Game           GameConfig       `json:"game"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if c.TickInterval != "" {
		d, err := time.ParseDuration(c.TickInterval)
		if err != nil {
			el.Add(fmt.Errorf("parsing tick_interval: %w", err))
		} else if d < time.Second {
			el.Add(fmt.Errorf("tick_interval must be at least 1 second"))
		}
	}

	if c.RequestTimeout != "" {
		_, err := time.ParseDuration(c.RequestTimeout)
		if err != nil {
			el.Add(fmt.Errorf("parsing request_timeout: %w", err))
		}
	}

	if len(c.Listeners) == 0 {
		el.Add(fmt.Errorf("at least one listener is required"))
	}
	for i, l := range c.Listeners {
		if err := l.validate(); err != nil {
			el.Add(fmt.Errorf("listener %d: %w", i, err))
		}
	}

	el.Add(c.World.validate())
	el.Add(c.Accounts.validate())
	el.Add(c.Nats.validate())
	el.Add(c.Game.validate())

	return el.Err()
}

type GameConfig struct {
	StartRoom string `json:"start_room"`
}

func (c *GameConfig) validate() error {
	el := errors.NewErrorList()

	if c.StartRoom == "" {
		el.Add(fmt.Errorf("start_room is required"))
	}

	return el.Err()
}
