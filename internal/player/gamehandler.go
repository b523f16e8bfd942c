package player

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/DavidAlphaFox/erlymud/internal/display"
	"github.com/DavidAlphaFox/erlymud/internal/game"
	"github.com/DavidAlphaFox/erlymud/internal/session"
	"github.com/DavidAlphaFox/erlymud/internal/world"
)

var directionAliases = map[string]string{
	"north": "north", "n": "north",
	"south": "south", "s": "south",
	"east": "east", "e": "east",
	"west": "west", "w": "west",
	"up": "up", "u": "up",
	"down": "down", "d": "down",
}

const helpText = `Commands:
  look                 look around
  north/south/east/west/up/down (or n/s/e/w/u/d), go <dir>
  say <text>           speak to the room
  emote <text>         act out something
  tell <who> <text>    private message
  shout <text>         world-wide message
  who                  list who is online
  take <item>          pick something up
  drop <item>          put something down
  inventory (i)        list what you carry
  quit                 leave the world
Builder commands:
  @dig <id>            create a new empty room
  @addexit <dir> <id>  add an exit from this room
  @setlong <text>      set this room's long description
  @addobject <name> [description]
  @addreset <name> [description]`

// GameHandler is the in-game command interpreter, pushed onto the session's
// stack once login succeeds.
type GameHandler struct {
	deps Deps
	user *game.User
}

func NewGameHandler(deps Deps, user *game.User) *GameHandler {
	return &GameHandler{
		deps: deps,
		user: user,
	}
}

func (h *GameHandler) Prompt() string {
	return "> "
}

func (h *GameHandler) HandleLine(ctx context.Context, peer session.Peer, line string) (session.Result, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return session.Result{}, nil
	}

	verb := strings.ToLower(fields[0])
	args := fields[1:]
	living := h.user.Living()

	if dir, ok := directionAliases[verb]; ok {
		return h.move(ctx, dir)
	}

	switch verb {
	case "go":
		if len(args) != 1 {
			return session.Result{}, game.NewUserError("Go where?")
		}
		dir, ok := directionAliases[strings.ToLower(args[0])]
		if !ok {
			return session.Result{}, game.NewUserError("You can't go that way.")
		}
		return h.move(ctx, dir)

	case "look", "l":
		out, err := living.Look(ctx)
		return session.Result{Output: out}, err

	case "say":
		if len(args) == 0 {
			return session.Result{}, game.NewUserError("Say what?")
		}
		out, err := living.Say(ctx, strings.Join(args, " "))
		return session.Result{Output: out}, err

	case "emote":
		if len(args) == 0 {
			return session.Result{}, game.NewUserError("Emote what?")
		}
		out, err := living.Emote(ctx, strings.Join(args, " "))
		return session.Result{Output: out}, err

	case "tell":
		return h.tell(args)

	case "shout":
		if len(args) == 0 {
			return session.Result{}, game.NewUserError("Shout what?")
		}
		h.deps.Registry.Announce(display.Message("shout", h.user.Name(), strings.Join(args, " ")))
		return session.Result{}, nil

	case "who":
		names := h.deps.Registry.Who()
		return session.Result{
			Output: fmt.Sprintf("Online: %s.", strings.Join(names, ", ")),
		}, nil

	case "take", "get":
		if len(args) == 0 {
			return session.Result{}, game.NewUserError("Take what?")
		}
		out, err := living.Take(ctx, strings.Join(args, " "))
		return session.Result{Output: out}, err

	case "drop":
		if len(args) == 0 {
			return session.Result{}, game.NewUserError("Drop what?")
		}
		out, err := living.Drop(ctx, strings.Join(args, " "))
		return session.Result{Output: out}, err

	case "inventory", "i":
		names := living.InventoryNames()
		if len(names) == 0 {
			return session.Result{Output: "You are not carrying anything."}, nil
		}
		return session.Result{
			Output: fmt.Sprintf("You are carrying: %s.", strings.Join(names, ", ")),
		}, nil

	case "help":
		return session.Result{Output: helpText}, nil

	case "quit":
		if err := h.user.Quit(ctx); err != nil {
			return session.Result{}, err
		}
		return session.Result{Output: "Goodbye!", Pop: true, Quit: true}, nil

	case "@dig":
		return h.dig(ctx, args)

	case "@addexit":
		return h.addExit(ctx, args)

	case "@setlong":
		if len(args) == 0 {
			return session.Result{}, game.NewUserError("Set the long description to what?")
		}
		if err := h.room().SetLong(ctx, strings.Join(args, " ")); err != nil {
			return session.Result{}, err
		}
		return session.Result{Output: "Long description set."}, nil

	case "@addobject":
		return h.addObject(ctx, args)

	case "@addreset":
		return h.addReset(ctx, args)

	default:
		return session.Result{}, game.NewUserError(fmt.Sprintf("Unknown command: %s", verb))
	}
}

func (h *GameHandler) room() *world.Room {
	return h.user.Living().Room()
}

func (h *GameHandler) move(ctx context.Context, dir string) (session.Result, error) {
	out, err := h.user.Living().MoveTo(ctx, dir)
	return session.Result{Output: out}, err
}

func (h *GameHandler) tell(args []string) (session.Result, error) {
	if len(args) < 2 {
		return session.Result{}, game.NewUserError("Tell whom what?")
	}

	target, ok := h.deps.Registry.Lookup(args[0])
	if !ok {
		return session.Result{}, game.NewUserError(fmt.Sprintf("%s is not online.", display.Capitalize(args[0])))
	}

	text := strings.Join(args[1:], " ")
	err := h.deps.Broker.Publish(game.PlayerSubject(target.Name()),
		[]byte(display.Message("tell", h.user.Name(), text)))
	if err != nil {
		return session.Result{}, fmt.Errorf("sending tell: %w", err)
	}

	return session.Result{
		Output: fmt.Sprintf("You tell %s, %q", target.Name(), text),
	}, nil
}

func (h *GameHandler) dig(ctx context.Context, args []string) (session.Result, error) {
	if len(args) != 1 {
		return session.Result{}, game.NewUserError("Usage: @dig <room-id>")
	}

	r, err := h.deps.Rooms.NewRoom(ctx, args[0])
	if errors.Is(err, world.ErrRoomExists) {
		return session.Result{}, game.NewUserError(fmt.Sprintf("Room %q already exists.", args[0]))
	}
	if err != nil {
		return session.Result{}, err
	}

	return session.Result{Output: fmt.Sprintf("Room %q created.", r.Id())}, nil
}

func (h *GameHandler) addExit(ctx context.Context, args []string) (session.Result, error) {
	if len(args) != 2 {
		return session.Result{}, game.NewUserError("Usage: @addexit <direction> <room-id>")
	}

	dir, ok := directionAliases[strings.ToLower(args[0])]
	if !ok {
		return session.Result{}, game.NewUserError(fmt.Sprintf("Unknown direction: %s", args[0]))
	}

	if err := h.room().AddExit(ctx, dir, args[1]); err != nil {
		return session.Result{}, err
	}
	return session.Result{Output: fmt.Sprintf("Exit %s -> %s added.", dir, args[1])}, nil
}

func (h *GameHandler) addObject(ctx context.Context, args []string) (session.Result, error) {
	if len(args) == 0 {
		return session.Result{}, game.NewUserError("Usage: @addobject <name> [description]")
	}

	obj := world.NewObject(args[0], strings.Join(args[1:], " "))
	if err := h.room().AddObject(ctx, obj); err != nil {
		return session.Result{}, err
	}
	return session.Result{Output: fmt.Sprintf("Object %q added.", obj.Name)}, nil
}

func (h *GameHandler) addReset(ctx context.Context, args []string) (session.Result, error) {
	if len(args) == 0 {
		return session.Result{}, game.NewUserError("Usage: @addreset <name> [description]")
	}

	spec := world.ObjectSpec{
		Name:        args[0],
		Description: strings.Join(args[1:], " "),
	}
	if err := h.room().AddReset(ctx, spec); err != nil {
		return session.Result{}, err
	}
	return session.Result{Output: fmt.Sprintf("Reset %q added.", spec.Name)}, nil
}
