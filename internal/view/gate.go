package view

import (
	"alcyxob/fitlog/internal/domain"
	"alcyxob/fitlog/internal/session"
	"sync"
)

// Gate keeps a mounted view on a route that matches the session state: a
// signed-out instance is sent to RouteAuth from a protected route, and a
// signed-in instance is sent from RouteAuth to RouteTracker. A Gate navigates
// at most once.
type Gate struct {
	route string
	nav   Navigator

	mu        sync.Mutex
	navigated bool
	cancel    func()
}

// AttachGate subscribes to src. onChange, if not nil, also receives every
// state; it runs inside the session delivery and must not release the gate.
func AttachGate(src SessionSource, route string, nav Navigator, onChange func(*domain.Session)) *Gate {
	g := &Gate{route: route, nav: nav}
	cancel := src.Subscribe(func(s *domain.Session) {
		if onChange != nil {
			onChange(s)
		}
		g.check(s)
	})
	g.mu.Lock()
	g.cancel = cancel
	g.mu.Unlock()
	return g
}

func (g *Gate) check(s *domain.Session) {
	target := ""
	switch {
	case s == nil && IsProtected(g.route):
		target = RouteAuth
	case s != nil && g.route == RouteAuth:
		target = RouteTracker
	}
	if target == "" {
		return
	}

	g.mu.Lock()
	if g.navigated {
		g.mu.Unlock()
		return
	}
	g.navigated = true
	g.mu.Unlock()

	g.nav.Navigate(target)
}

// Release cancels the subscription. No state is delivered after it returns.
func (g *Gate) Release() {
	g.mu.Lock()
	cancel := g.cancel
	g.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// IsProtected reports whether route requires a session.
func IsProtected(route string) bool {
	return route == RouteTracker || route == RouteDashboard
}

// tokenScope passes on only the session issued with one token. A session
// under any other token is delivered as absent, except that an open scope
// takes over a session that is set after it subscribed (a sign-in made from
// the view itself).
type tokenScope struct {
	src     SessionSource
	tokenID string
	open    bool
}

// ScopeToToken restricts src to the session whose token id is tokenID. An
// empty tokenID matches nothing. When adoptSignIn is set, a session that
// becomes current after subscribing is accepted as well.
func ScopeToToken(src SessionSource, tokenID string, adoptSignIn bool) SessionSource {
	return &tokenScope{src: src, tokenID: tokenID, open: adoptSignIn}
}

func (t *tokenScope) Subscribe(fn session.Listener) func() {
	// Deliveries are serialized, so the closure state needs no lock.
	accepted := t.tokenID
	initial := true
	return t.src.Subscribe(func(s *domain.Session) {
		first := initial
		initial = false
		switch {
		case s == nil:
			fn(nil)
		case accepted != "" && s.TokenID == accepted:
			fn(s)
		case t.open && !first:
			accepted = s.TokenID
			fn(s)
		default:
			fn(nil)
		}
	})
}
