package guard

import (
	"fmt"

	"github.com/jrsteele09/productms-console/auth"
	"github.com/jrsteele09/productms-console/users"
)

// Requirement is the set of roles allowed to open a view.
// An empty requirement admits any authenticated session.
type Requirement []users.RoleType

// SatisfiedBy reports whether user meets the requirement. Without a user
// only the empty requirement is met.
func (r Requirement) SatisfiedBy(user *users.Profile) bool {
	if len(r) == 0 {
		return true
	}
	return user != nil && user.HasAnyRole(r...)
}

func (r Requirement) String() string {
	if len(r) == 0 {
		return "any"
	}
	return users.JoinRoles(r)
}

// Kind is the outcome of a navigation check.
type Kind int

const (
	// Suspend: the session is still initializing; show a loading indicator and re-check later.
	Suspend Kind = iota
	// RedirectToLogin: no session; go to login and come back to Decision.Next afterwards.
	RedirectToLogin
	// Deny: signed in but without a required role; show access denied, no redirect.
	Deny
	// Render: show the requested view.
	Render
)

func (k Kind) String() string {
	switch k {
	case Suspend:
		return "suspend"
	case RedirectToLogin:
		return "redirect"
	case Deny:
		return "deny"
	case Render:
		return "render"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type Decision struct {
	Kind     Kind
	Next     string      // set for RedirectToLogin
	Required Requirement // set for Deny
}

// SessionReader is the part of the session controller the guard consults.
type SessionReader interface {
	Session() auth.Session
}

var _ SessionReader = (*auth.Controller)(nil)

type row struct {
	state     auth.State
	satisfied bool
}

// decisions lists every (state, requirement satisfied) combination.
var decisions = map[row]Kind{
	{auth.StateInitializing, false}:  Suspend,
	{auth.StateInitializing, true}:   Suspend,
	{auth.StateAnonymous, false}:     RedirectToLogin,
	{auth.StateAnonymous, true}:      RedirectToLogin,
	{auth.StateAuthenticated, false}: Deny,
	{auth.StateAuthenticated, true}:  Render,
}

// Check evaluates a navigation to target against one snapshot of the
// session, so state and role always come from the same moment.
func Check(sr SessionReader, req Requirement, target string) Decision {
	s := sr.Session()
	return Evaluate(s.State, req.SatisfiedBy(s.User), req, target)
}

// Evaluate is the pure decision function. satisfied is the HasRole answer
// for req; it only matters once the session is authenticated.
func Evaluate(state auth.State, satisfied bool, req Requirement, target string) Decision {
	kind, ok := decisions[row{state, satisfied}]
	if !ok {
		// Unknown state: never render.
		kind = Deny
	}

	d := Decision{Kind: kind}
	switch kind {
	case RedirectToLogin:
		d.Next = SafeNext(target)
	case Deny:
		d.Required = req
	}
	return d
}
