package auth

import "github.com/jrsteele09/productms-console/users"

// State is the phase of the session state machine.
type State int

const (
	// StateInitializing: persisted credentials have not been checked yet.
	// Nothing may be granted or denied until this resolves.
	StateInitializing State = iota
	StateAnonymous
	StateAuthenticated
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticated:
		return "authenticated"
	default:
		return "unknown"
	}
}

// Session is an immutable snapshot of the controller state. User is set
// only when State is StateAuthenticated.
type Session struct {
	State State
	User  *users.Profile
}

func (s Session) Authenticated() bool {
	return s.State == StateAuthenticated && s.User != nil
}
