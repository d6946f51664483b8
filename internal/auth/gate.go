// Package auth guards entry into the reservation flow.
package auth

import (
	"context"
	"sync"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/metrics"
	"busbooking/internal/notify"
	"busbooking/internal/utils"

	"go.uber.org/zap"
)

// IdentityProvider is the external identity/session provider.
type IdentityProvider interface {
	// CurrentIdentity reports the signed-in user, if any.
	CurrentIdentity(ctx context.Context) (models.Identity, bool, error)
	// BeginAuth hands control to the sign-in entry point; after sign-in the
	// client must come back to returnTo exactly once.
	BeginAuth(ctx context.Context, returnTo string) error
}

type State int

const (
	Unchecked State = iota
	Checking
	Authenticated
	Redirecting
)

func (s State) String() string {
	switch s {
	case Checking:
		return "checking"
	case Authenticated:
		return "authenticated"
	case Redirecting:
		return "redirecting"
	default:
		return "unchecked"
	}
}

// Gate is a one-shot check per flow entry: once Authenticated, later stages
// read State instead of asking the provider again.
type Gate struct {
	Provider IdentityProvider
	Notifier notify.Sink

	mu       sync.Mutex
	state    State
	identity models.Identity
	returnTo string
}

func NewGate(p IdentityProvider, n notify.Sink) *Gate {
	return &Gate{Provider: p, Notifier: n}
}

// Enter runs the check for a flow entry aimed at destination. Without an
// identity, or when the provider fails, the destination is recorded, the
// provider's sign-in is started and ErrAuthRequired is returned.
func (g *Gate) Enter(ctx context.Context, destination string) (models.Identity, error) {
	g.mu.Lock()
	g.state = Checking
	g.identity = models.Identity{}
	g.mu.Unlock()

	var (
		id  models.Identity
		ok  bool
		err error
	)
	if g.Provider != nil {
		id, ok, err = g.Provider.CurrentIdentity(ctx)
	}
	if err != nil {
		utils.Logger().Warn("identity lookup failed, redirecting to sign-in", zap.Error(err))
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil && ok {
		g.state = Authenticated
		g.identity = id
		g.returnTo = ""
		return id, nil
	}

	g.state = Redirecting
	g.returnTo = destination
	metrics.AuthRedirects.Inc()
	if g.Provider != nil {
		if berr := g.Provider.BeginAuth(ctx, destination); berr != nil {
			utils.Logger().Warn("begin auth failed", zap.String("return_to", destination), zap.Error(berr))
		}
	}
	if g.Notifier != nil {
		g.Notifier.Notify(domain.NotifyWarning, "Please log in to continue with your booking.")
	}
	return models.Identity{}, domain.ErrAuthRequired
}

func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

func (g *Gate) Authenticated() bool {
	return g.State() == Authenticated
}

func (g *Gate) Identity() (models.Identity, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.identity, g.state == Authenticated
}

// ReturnTo is the destination recorded by the last redirect.
func (g *Gate) ReturnTo() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.returnTo
}

// Reset puts the gate back to Unchecked for a fresh entry.
func (g *Gate) Reset() {
	g.mu.Lock()
	g.state = Unchecked
	g.identity = models.Identity{}
	g.returnTo = ""
	g.mu.Unlock()
}
