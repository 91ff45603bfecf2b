// Package view holds the server-side view models behind the websocket view
// channel. A view is mounted once per connection, handles client messages
// one at a time and renders its state back through its Client.
package view

import (
	"alcyxob/fitlog/internal/domain"
	"alcyxob/fitlog/internal/metrics"
	"alcyxob/fitlog/internal/notify"
	"alcyxob/fitlog/internal/session"
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// Routes a client can be sent to.
const (
	RouteAuth      = "/"
	RouteTracker   = "/fitness"
	RouteDashboard = "/dashboard"
)

// Message types sent by the client.
const (
	MsgInput       = "input"
	MsgSubmit      = "submit"
	MsgToggleTheme = "toggleTheme"
	MsgToggleMode  = "toggleMode"
	MsgLogout      = "logout"
)

// opTimeout bounds store and auth calls made on behalf of a view. They are not
// cancelled when the view unmounts.
const opTimeout = 15 * time.Second

var (
	ErrSubmissionInFlight = errors.New("a submission is already in progress")
	ErrNoSession          = errors.New("no signed-in session")
	ErrUnknownField       = errors.New("unknown input field")
	ErrUnknownMessage     = errors.New("unknown message type")
	ErrNotMounted         = errors.New("view is not mounted")
)

// Message is one client-to-view message.
type Message struct {
	Type  string `json:"type"`
	Field string `json:"field,omitempty"`
	Value string `json:"value,omitempty"`
}

// Navigator moves the client to another route.
type Navigator interface {
	Navigate(route string)
}

// Client is the connection a view renders to. Implementations must not call
// back into the view.
type Client interface {
	Navigator
	notify.LocalSink
	Render(state any)
}

// SessionSource yields the session state of one app instance.
// *session.Instance implements it.
type SessionSource interface {
	Subscribe(fn session.Listener) (cancel func())
}

// Authenticator is the part of the auth service the views call.
type Authenticator interface {
	SignUp(ctx context.Context, instanceID, email, password string) (string, *domain.User, error)
	SignIn(ctx context.Context, instanceID, email, password string) (string, *domain.User, error)
	SignOut(ctx context.Context, s domain.Session) error
}

// EntryRecorder writes entries and reads the recent list.
type EntryRecorder interface {
	Record(ctx context.Context, owner domain.Session, input domain.EntryInput) (*domain.Entry, error)
	Recent(ctx context.Context, owner domain.Session, limit int) ([]domain.Entry, error)
}

type SummaryReader interface {
	Summary(ctx context.Context) ([]domain.AggregateRow, error)
}

// Preferences stores the dark mode flag of an app instance.
type Preferences interface {
	Get(ctx context.Context, instanceID string) (*domain.Preference, error)
	SetDarkMode(ctx context.Context, instanceID string, darkMode bool) (*domain.Preference, error)
}

type Notifier interface {
	Fire(userID string, local notify.LocalSink)
}

// Deps are the collaborators shared by every view.
type Deps struct {
	Auth     Authenticator
	Entries  EntryRecorder
	Summary  SummaryReader
	Prefs    Preferences
	Notifier Notifier
	Metrics  *metrics.Metrics
}

// View is a mounted view model.
type View interface {
	// Mount subscribes to the session, then reads the view's data.
	Mount(ctx context.Context, src SessionSource)
	// Handle applies one client message.
	Handle(ctx context.Context, msg Message) error
	// Unmount releases the session subscription. Results of calls still in
	// flight are dropped.
	Unmount()
	// Wait blocks until background calls started by the view have returned.
	Wait()
}

// New creates the view registered under name.
func New(name string, deps Deps, instanceID string, client Client) (View, bool) {
	switch name {
	case "auth":
		return NewAuthView(deps, instanceID, client), true
	case "tracker":
		return NewTrackerView(deps, instanceID, client), true
	case "dashboard":
		return NewDashboardView(deps, instanceID, client), true
	}
	return nil, false
}

// RouteOf returns the route the view registered under name is shown on.
func RouteOf(name string) (string, bool) {
	switch name {
	case "auth":
		return RouteAuth, true
	case "tracker":
		return RouteTracker, true
	case "dashboard":
		return RouteDashboard, true
	}
	return "", false
}

// base is the state every view shares.
type base struct {
	name       string
	route      string
	deps       Deps
	instanceID string
	client     Client
	nav        Navigator // client unless the view intercepts navigation

	mu       sync.Mutex
	mounted  bool
	session  *domain.Session
	darkMode bool

	gate      *Gate
	unmounted func()
	wg        sync.WaitGroup
}

// mountBase subscribes the gate and reads the stored theme. render is called
// with b.mu held whenever the session changes.
func (b *base) mountBase(ctx context.Context, src SessionSource, render func()) {
	b.mu.Lock()
	b.mounted = true
	b.mu.Unlock()
	b.unmounted = b.deps.Metrics.ViewMounted(b.name)

	nav := b.nav
	if nav == nil {
		nav = b.client
	}
	b.gate = AttachGate(src, b.route, nav, func(s *domain.Session) {
		b.mu.Lock()
		defer b.mu.Unlock()
		if !b.mounted {
			return
		}
		b.session = s
		render()
	})

	dark := false
	if pref, err := b.deps.Prefs.Get(ctx, b.instanceID); err != nil {
		log.Printf("WARN: failed to read preferences for instance %s: %v", b.instanceID, err)
	} else {
		dark = pref.DarkMode
	}
	b.mu.Lock()
	b.darkMode = dark
	b.mu.Unlock()
}

func (b *base) unmountBase() {
	b.mu.Lock()
	if !b.mounted {
		b.mu.Unlock()
		return
	}
	b.mounted = false
	b.mu.Unlock()

	// Released outside b.mu: a delivery in progress may be waiting for it.
	b.gate.Release()
	b.unmounted()
}

// currentSession returns the session seen by the gate, if any.
func (b *base) currentSession() (domain.Session, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session == nil {
		return domain.Session{}, false
	}
	return *b.session, true
}

// toggleTheme flips dark mode and persists it for the instance.
func (b *base) toggleTheme(ctx context.Context, render func()) {
	b.mu.Lock()
	b.darkMode = !b.darkMode
	dark := b.darkMode
	render()
	b.mu.Unlock()

	if _, err := b.deps.Prefs.SetDarkMode(ctx, b.instanceID, dark); err != nil {
		log.Printf("WARN: failed to save dark mode for instance %s: %v", b.instanceID, err)
	}
}

// async runs fn in the background, tracked by Wait.
func (b *base) async(fn func(ctx context.Context)) {
	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
		defer cancel()
		fn(ctx)
	}()
}

func (b *base) Wait() {
	b.wg.Wait()
}
