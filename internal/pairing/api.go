package pairing

import (
	"fmt"

	framework "github.com/bhandras/wcpair/internal/actor"
)

// Action is a command that callers submit to the controller. Actions carry
// no payload; only their order matters.
type Action string

const (
	// LoadSession looks up the active session. It is ignored while a load or
	// create is in progress.
	LoadSession Action = "load-session"
	// StartSession creates a new pairing. It is ignored while loading or when
	// a session is already active.
	StartSession Action = "start-session"
	// DisconnectSession tears the active session down.
	DisconnectSession Action = "disconnect-session"
)

// Actions lists every supported action.
func Actions() []Action {
	return []Action{LoadSession, StartSession, DisconnectSession}
}

// ParseAction maps an action name to an Action.
func ParseAction(name string) (Action, error) {
	for _, a := range Actions() {
		if string(a) == name {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, name)
}

// input returns the actor command for a.
func (a Action) input() (framework.Input, bool) {
	switch a {
	case LoadSession:
		return cmdLoadSession{}, true
	case StartSession:
		return cmdStartSession{}, true
	case DisconnectSession:
		return cmdDisconnectSession{}, true
	default:
		return nil, false
	}
}

// actionOf returns the Action for a command input.
func actionOf(in framework.Input) (Action, bool) {
	switch in.(type) {
	case cmdLoadSession:
		return LoadSession, true
	case cmdStartSession:
		return StartSession, true
	case cmdDisconnectSession:
		return DisconnectSession, true
	default:
		return "", false
	}
}
