package command

import (
	"fmt"
	"time"

	"github.com/pixil98/go-service"

	"github.com/DavidAlphaFox/erlymud/internal/driver"
	"github.com/DavidAlphaFox/erlymud/internal/game"
	"github.com/DavidAlphaFox/erlymud/internal/listener"
	"github.com/DavidAlphaFox/erlymud/internal/player"
	"github.com/DavidAlphaFox/erlymud/internal/session"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}

	// Messaging backbone
	natsServer, err := cfg.Nats.buildNatsServer()
	if err != nil {
		return nil, fmt.Errorf("creating nats server: %w", err)
	}

	// The game registry is an owned singleton: built here once, handed to
	// everything that needs it.
	registry := game.NewRegistry(natsServer)

	accounts, err := cfg.Accounts.BuildStore()
	if err != nil {
		return nil, fmt.Errorf("creating account store: %w", err)
	}

	roomManager := cfg.World.BuildRoomManager()

	deps := player.Deps{
		Accounts:  accounts,
		Registry:  registry,
		Rooms:     roomManager,
		Broker:    natsServer,
		StartRoom: cfg.Game.StartRoom,
	}

	var sessionOpts []session.Opt
	if cfg.RequestTimeout != "" {
		d, err := time.ParseDuration(cfg.RequestTimeout)
		if err != nil {
			return nil, fmt.Errorf("parsing request_timeout: %w", err)
		}
		sessionOpts = append(sessionOpts, session.WithRequestTimeout(d))
	}
	cm := listener.NewConnectionManager(deps, sessionOpts...)

	// Create Listeners
	listeners := make(service.WorkerList, len(cfg.Listeners))
	for i, l := range cfg.Listeners {
		lst, err := l.BuildListener(cm)
		if err != nil {
			return nil, fmt.Errorf("creating listener %d: %w", i, err)
		}
		listeners[fmt.Sprintf("listener-%d", i)] = lst
	}

	// Periodic room resets
	var driverOpts []driver.MudDriverOpt
	if cfg.TickInterval != "" {
		d, err := time.ParseDuration(cfg.TickInterval)
		if err != nil {
			return nil, fmt.Errorf("parsing tick_interval: %w", err)
		}
		driverOpts = append(driverOpts, driver.WithTickLength(d))
	}
	drv := driver.NewMudDriver([]driver.Manager{roomManager}, driverOpts...)

	return service.WorkerList{
		"nats":      natsServer,
		"rooms":     roomManager,
		"driver":    drv,
		"listeners": &listeners,
	}, nil
}
