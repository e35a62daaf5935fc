package internal

import "context"

// Decision is the outcome of a guard check
type Decision int

const (
	// Wait means the session is still hydrating
	Wait Decision = iota
	// Allow means the protected view may run
	Allow
	// RedirectLogin means the caller must sign in first
	RedirectLogin
)

func (d Decision) String() string {
	switch d {
	case Wait:
		return "wait"
	case Allow:
		return "allow"
	default:
		return "redirect-login"
	}
}

// SessionSource exposes the auth session to the guard
type SessionSource interface {
	Session() AuthSession
}

// Guard gates protected operations on auth readiness
type Guard struct {
	auth SessionSource
}

// NewGuard creates a guard reading from auth
func NewGuard(auth SessionSource) *Guard {
	return &Guard{auth: auth}
}

// Check decides what to do with a session
func Check(s AuthSession) Decision {
	if !s.Ready {
		return Wait
	}
	if !s.Authenticated() {
		return RedirectLogin
	}
	return Allow
}

// Decide checks the current session
func (g *Guard) Decide() Decision {
	return Check(g.auth.Session())
}

// Require returns nil when protected work may proceed. A session that is still
// hydrating is treated as not authenticated since there is nothing to wait on.
func (g *Guard) Require(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if g.Decide() != Allow {
		return ErrNotAuthenticated
	}
	return nil
}
