package driver

import (
	"context"
	"log/slog"
	"time"
)

const (
	DefaultTickLength = time.Second * 2
)

// Manager is a component that wants periodic ticks, such as the room
// manager's reset pass.
type Manager interface {
	Tick(context.Context) error
}

// MudDriver fans a timer out to its managers. A manager's tick error is
// logged and the loop continues; one bad room must not stop the world's
// resets.
type MudDriver struct {
	tickLength time.Duration
	managers   []Manager
}

func NewMudDriver(managers []Manager, opts ...MudDriverOpt) *MudDriver {
	d := &MudDriver{
		tickLength: DefaultTickLength,
		managers:   managers,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Start runs the tick loop until ctx is canceled. Satisfies service.Worker.
func (d *MudDriver) Start(ctx context.Context) error {
	ticker := time.NewTicker(d.tickLength)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			d.Tick(ctx)
		}
	}
}

func (d *MudDriver) Tick(ctx context.Context) {
	for _, m := range d.managers {
		if err := m.Tick(ctx); err != nil {
			slog.WarnContext(ctx, "tick failed", "error", err)
		}
	}
}
