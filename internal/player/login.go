package player

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/DavidAlphaFox/erlymud/internal/actor"
	"github.com/DavidAlphaFox/erlymud/internal/display"
	"github.com/DavidAlphaFox/erlymud/internal/game"
	"github.com/DavidAlphaFox/erlymud/internal/session"
)

const maxPasswordTries = 3

type loginState int

const (
	stateName loginState = iota
	stateConfirmNew
	stateNewPassword
	stateRetypePassword
	statePassword
)

// LoginHandler is the handler a fresh session starts with. Input arrives
// one line per request, so the flow is a state machine rather than a
// blocking prompt loop: name, then either password for a known account or
// the new-account questions.
type LoginHandler struct {
	deps Deps

	state   loginState
	name    string
	newPass string
	tries   int
}

func NewLoginHandler(deps Deps) *LoginHandler {
	return &LoginHandler{deps: deps}
}

func (h *LoginHandler) Prompt() string {
	switch h.state {
	case stateConfirmNew:
		return fmt.Sprintf("Did I get that right, %s (Y/N)? ", h.name)
	case stateNewPassword:
		return fmt.Sprintf("Give me a password for %s: ", h.name)
	case stateRetypePassword:
		return "Please retype password: "
	case statePassword:
		return "Password: "
	default:
		return "By what name do you wish to be known? "
	}
}

func (h *LoginHandler) HandleLine(ctx context.Context, peer session.Peer, line string) (session.Result, error) {
	line = strings.TrimSpace(line)

	switch h.state {
	case stateName:
		return h.handleName(line)
	case stateConfirmNew:
		return h.handleConfirmNew(line)
	case stateNewPassword:
		return h.handleNewPassword(line)
	case stateRetypePassword:
		return h.handleRetypePassword(ctx, peer, line)
	case statePassword:
		return h.handlePassword(ctx, peer, line)
	default:
		return session.Result{}, fmt.Errorf("login flow in unknown state %d", h.state)
	}
}

func (h *LoginHandler) handleName(line string) (session.Result, error) {
	if !validName(line) {
		return session.Result{Output: "Invalid name, please try another."}, nil
	}

	h.name = display.Capitalize(strings.ToLower(line))
	if h.deps.Accounts.Get(h.accountKey()) == nil {
		h.state = stateConfirmNew
		return session.Result{}, nil
	}

	h.state = statePassword
	h.tries = 0
	return session.Result{}, nil
}

func (h *LoginHandler) handleConfirmNew(line string) (session.Result, error) {
	switch strings.ToLower(line) {
	case "y", "yes":
		h.state = stateNewPassword
		return session.Result{}, nil
	case "n", "no":
		h.state = stateName
		return session.Result{Output: "Ok, let's try again."}, nil
	default:
		return session.Result{Output: "Enter 'yes' or 'no'."}, nil
	}
}

func (h *LoginHandler) handleNewPassword(line string) (session.Result, error) {
	if len(line) < 4 || strings.EqualFold(line, h.name) {
		return session.Result{Output: "Illegal password."}, nil
	}
	h.newPass = line
	h.state = stateRetypePassword
	return session.Result{}, nil
}

func (h *LoginHandler) handleRetypePassword(ctx context.Context, peer session.Peer, line string) (session.Result, error) {
	if line != h.newPass {
		h.newPass = ""
		h.state = stateNewPassword
		return session.Result{Output: "Passwords don't match... start over."}, nil
	}

	hash, err := game.HashPassword(h.newPass)
	h.newPass = ""
	if err != nil {
		return session.Result{}, err
	}

	acct := &game.Account{Name: h.name, Password: hash}
	if err := h.deps.Accounts.Save(h.accountKey(), acct); err != nil {
		return session.Result{}, fmt.Errorf("saving account %q: %w", h.name, err)
	}

	return h.enterWorld(ctx, peer, acct)
}

func (h *LoginHandler) handlePassword(ctx context.Context, peer session.Peer, line string) (session.Result, error) {
	acct := h.deps.Accounts.Get(h.accountKey())
	if acct == nil {
		// Account vanished between prompts; start over.
		h.state = stateName
		return session.Result{Output: "Invalid name, please try another."}, nil
	}

	if !acct.CheckPassword(line) {
		h.tries++
		if h.tries >= maxPasswordTries {
			return session.Result{Output: "Too many failed attempts.", Quit: true}, nil
		}
		return session.Result{Output: "Wrong password."}, nil
	}

	return h.enterWorld(ctx, peer, acct)
}

// enterWorld brings the authenticated account online: User and Living
// actors, registry entry, fate-sharing link to the session, and the
// in-game handler replacing this one on the stack.
func (h *LoginHandler) enterWorld(ctx context.Context, peer session.Peer, acct *game.Account) (session.Result, error) {
	if _, online := h.deps.Registry.Lookup(acct.Name); online {
		h.state = stateName
		return session.Result{Output: "That user is already logged in."}, nil
	}

	user, err := game.NewUser(ctx, acct, h.deps.Rooms, h.deps.Broker, peer.Notify, h.deps.StartRoom)
	if err != nil {
		return session.Result{}, fmt.Errorf("bringing %q into the world: %w", acct.Name, err)
	}

	if err := h.deps.Registry.Register(user); err != nil {
		user.Handle().Kill(err)
		if errors.Is(err, game.ErrUserExists) {
			h.state = stateName
			return session.Result{Output: "That user is already logged in."}, nil
		}
		return session.Result{}, err
	}

	actor.Link(peer.Handle(), user.Handle())

	look, err := user.Living().Look(ctx)
	if err != nil {
		look = ""
	}

	return session.Result{
		Output: fmt.Sprintf("Welcome, %s!\n\n%s", acct.Name, look),
		Pop:    true,
		Push:   NewGameHandler(h.deps, user),
	}, nil
}

func (h *LoginHandler) accountKey() string {
	return strings.ToLower(h.name)
}

func validName(name string) bool {
	if len(name) < 2 || len(name) > 20 {
		return false
	}
	for _, r := range name {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}
