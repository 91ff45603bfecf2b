// Package session tracks which app instances currently hold a signed-in
// session and pushes every change to the views mounted on that instance.
package session

import (
	"alcyxob/fitlog/internal/domain"
	"slices"
	"sync"
)

// Listener receives the session state. A nil session means signed out.
type Listener func(s *domain.Session)

// Manager owns one Instance per app instance id.
type Manager struct {
	mu        sync.Mutex
	instances map[string]*Instance
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{instances: make(map[string]*Instance)}
}

// Instance returns the state holder for id, creating it on first use.
func (m *Manager) Instance(id string) *Instance {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, ok := m.instances[id]
	if !ok {
		inst = &Instance{id: id, manager: m, subs: make(map[uint64]*subscription)}
		m.instances[id] = inst
	}
	return inst
}

// Len reports how many instances are tracked.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.instances)
}

// attach returns the instance registered for inst.id, putting inst back when
// the id has been evicted in the meantime. Callers hold inst.publish.
func (m *Manager) attach(inst *Instance) *Instance {
	m.mu.Lock()
	defer m.mu.Unlock()

	live, ok := m.instances[inst.id]
	if !ok {
		m.instances[inst.id] = inst
		return inst
	}
	return live
}

// evict drops an instance that has neither a session nor listeners.
func (m *Manager) evict(inst *Instance) {
	inst.publish.Lock()
	defer inst.publish.Unlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	inst.mu.Lock()
	idle := inst.current == nil && len(inst.subs) == 0
	inst.mu.Unlock()

	if idle && m.instances[inst.id] == inst {
		delete(m.instances, inst.id)
	}
}

// Instance holds the current session of one app instance.
//
// Deliveries are serialized per instance: listeners observe changes in the
// order they were made. Listeners must not call Set, Clear or their own cancel
// func synchronously, since delivery holds the instance's publish lock.
//
// An Instance may outlive its slot in the Manager (it is evicted once idle).
// Subscribe, Set and Restore on such a held value act on the instance the
// Manager currently tracks for the same id.
type Instance struct {
	id      string
	manager *Manager

	publish sync.Mutex // serializes state changes and their delivery; taken before Manager.mu

	mu      sync.Mutex
	current *domain.Session
	subs    map[uint64]*subscription
	nextID  uint64
}

type subscription struct {
	mu     sync.Mutex
	closed bool
	fn     Listener
}

func (s *subscription) deliver(state *domain.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.fn(state)
}

// ID returns the app instance id.
func (i *Instance) ID() string { return i.id }

// Current returns a copy of the current session, if any.
func (i *Instance) Current() (domain.Session, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.current == nil {
		return domain.Session{}, false
	}
	return *i.current, true
}

// Subscribe registers fn, delivers the current state to it once, and then
// delivers every change. After the returned cancel func returns, fn is never
// called again.
func (i *Instance) Subscribe(fn Listener) (cancel func()) {
	inst := i
	for {
		cancel, live := inst.subscribe(fn)
		if live == inst {
			return cancel
		}
		inst = live
	}
}

// subscribe registers fn on i unless another instance now holds i's id, in
// which case that instance is returned and nothing is registered.
func (i *Instance) subscribe(fn Listener) (func(), *Instance) {
	i.publish.Lock()
	defer i.publish.Unlock()

	if live := i.manager.attach(i); live != i {
		return nil, live
	}

	sub := &subscription{fn: fn}

	i.mu.Lock()
	id := i.nextID
	i.nextID++
	i.subs[id] = sub
	state := copySession(i.current)
	i.mu.Unlock()

	sub.deliver(state)

	var once sync.Once
	return func() {
		once.Do(func() {
			// Taking sub.mu waits out a delivery that is already running.
			sub.mu.Lock()
			sub.closed = true
			sub.mu.Unlock()

			i.mu.Lock()
			delete(i.subs, id)
			i.mu.Unlock()

			i.manager.evict(i)
		})
	}, i
}

// Set makes s the current session. Setting the session that is already current
// (same token id) is not a change and is not delivered.
func (i *Instance) Set(s domain.Session) {
	i.set(s, false)
}

// Restore sets s only when the instance has no session, e.g. after a restart
// when a client reconnects with a still-valid token. It reports whether s was
// applied.
func (i *Instance) Restore(s domain.Session) bool {
	return i.set(s, true)
}

func (i *Instance) set(s domain.Session, onlyIfAbsent bool) bool {
	i.publish.Lock()
	if live := i.manager.attach(i); live != i {
		i.publish.Unlock()
		return live.set(s, onlyIfAbsent)
	}
	defer i.publish.Unlock()

	i.mu.Lock()
	if i.current != nil && (onlyIfAbsent || i.current.TokenID == s.TokenID) {
		i.mu.Unlock()
		return false
	}
	s.InstanceID = i.id
	i.current = &s
	subs := i.snapshot()
	i.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(copySession(&s))
	}
	return true
}

// Clear signs the instance out. Clearing an absent session is a no-op.
func (i *Instance) Clear() {
	i.publish.Lock()

	i.mu.Lock()
	if i.current == nil {
		i.mu.Unlock()
		i.publish.Unlock()
		return
	}
	i.current = nil
	subs := i.snapshot()
	i.mu.Unlock()

	for _, sub := range subs {
		sub.deliver(nil)
	}
	i.publish.Unlock()

	i.manager.evict(i)
}

// snapshot must be called with i.mu held.
func (i *Instance) snapshot() []*subscription {
	ids := make([]uint64, 0, len(i.subs))
	for id := range i.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids) // registration order
	subs := make([]*subscription, 0, len(ids))
	for _, id := range ids {
		subs = append(subs, i.subs[id])
	}
	return subs
}

func copySession(s *domain.Session) *domain.Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}
