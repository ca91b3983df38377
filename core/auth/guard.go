package auth

import (
	"context"

	"github.com/givehub/console/core"
)

// SessionRepository reads the principal bound to the current session from the remote API.
type SessionRepository interface {
	CurrentUser(ctx context.Context) (Principal, error)
}

// Accessor resolves "who is calling". Every call is a fresh round trip so a revoked
// session is noticed on the next call.
type Accessor struct {
	repo   SessionRepository
	logger core.Logger
}

func NewAccessor(repo SessionRepository, logger core.Logger) *Accessor {
	if logger == nil {
		logger = core.NopLogger{}
	}
	return &Accessor{repo: repo, logger: logger}
}

// CurrentPrincipal returns nil on any failure (network error, 401, malformed body...);
// callers must treat nil as unauthenticated.
func (a *Accessor) CurrentPrincipal(ctx context.Context) *Principal {
	p, err := a.repo.CurrentUser(ctx)
	if err != nil {
		a.logger.Debug("resolving current principal", err)
		return nil
	}
	if !p.Role.Valid() {
		a.logger.Debug("resolving current principal: invalid role")
		return nil
	}
	return &p
}

// RequireRole permits p only if it is present and holds exactly the expected role.
func RequireRole(p *Principal, want Role) (*Principal, error) {
	if p == nil {
		return nil, core.NewAuthorizationError("not authenticated")
	}
	if p.Role != want {
		return nil, core.NewAuthorizationError(want.Label() + " role required")
	}
	return p, nil
}

// Guard runs the role check against a freshly resolved principal.
// It must be the first step of every privileged operation.
type Guard struct {
	accessor *Accessor
}

func NewGuard(accessor *Accessor) *Guard {
	return &Guard{accessor: accessor}
}

func (g *Guard) Require(ctx context.Context, want Role) (*Principal, error) {
	return RequireRole(g.accessor.CurrentPrincipal(ctx), want)
}

// Accessor exposes the principal accessor the guard resolves with.
func (g *Guard) Accessor() *Accessor {
	return g.accessor
}
