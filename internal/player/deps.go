package player

import (
	"github.com/DavidAlphaFox/erlymud/internal/game"
	"github.com/DavidAlphaFox/erlymud/internal/storage"
	"github.com/DavidAlphaFox/erlymud/internal/world"
)

// Deps bundles the long-lived services a player's handlers work against.
// One value is built at startup and shared by every session.
type Deps struct {
	Accounts  storage.Storer[*game.Account]
	Registry  *game.Registry
	Rooms     *world.Manager
	Broker    game.Broker
	StartRoom string
}
