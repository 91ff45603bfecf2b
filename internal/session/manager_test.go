package session

import (
	"os"
	"sync"
	"testing"
	"time"

	"alcyxob/fitlog/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// go-cache janitor of revocation lists created by tests
		goleak.IgnoreAnyFunction("github.com/patrickmn/go-cache.(*janitor).Run"),
	)
	os.Exit(m.Run())
}

type recorder struct {
	mu     sync.Mutex
	states []*domain.Session
}

func (r *recorder) listen(s *domain.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func (r *recorder) snapshot() []*domain.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*domain.Session(nil), r.states...)
}

func TestSubscribeDeliversCurrentStateFirst(t *testing.T) {
	t.Parallel()

	m := NewManager()
	inst := m.Instance("tab-1")

	absent := &recorder{}
	cancel := inst.Subscribe(absent.listen)
	defer cancel()
	require.Len(t, absent.snapshot(), 1)
	assert.Nil(t, absent.snapshot()[0])

	inst.Set(domain.Session{UserID: "u1", Email: "alice@example.com", TokenID: "t1"})

	present := &recorder{}
	cancel2 := inst.Subscribe(present.listen)
	defer cancel2()
	require.Len(t, present.snapshot(), 1)
	require.NotNil(t, present.snapshot()[0])
	assert.Equal(t, "alice@example.com", present.snapshot()[0].Email)
	assert.Equal(t, "tab-1", present.snapshot()[0].InstanceID)
}

func TestChangesAreDeliveredOnlyOnTransition(t *testing.T) {
	t.Parallel()

	inst := NewManager().Instance("tab-1")
	rec := &recorder{}
	cancel := inst.Subscribe(rec.listen)
	defer cancel()

	s := domain.Session{UserID: "u1", Email: "alice@example.com", TokenID: "t1"}
	inst.Set(s)
	inst.Set(s) // same token, not a change
	inst.Clear()
	inst.Clear() // already absent

	states := rec.snapshot()
	require.Len(t, states, 3)
	assert.Nil(t, states[0])
	assert.NotNil(t, states[1])
	assert.Nil(t, states[2])
}

func TestNoDeliveryAfterCancel(t *testing.T) {
	t.Parallel()

	m := NewManager()
	inst := m.Instance("tab-1")
	rec := &recorder{}
	cancel := inst.Subscribe(rec.listen)

	cancel()
	cancel() // idempotent

	inst.Set(domain.Session{UserID: "u1", TokenID: "t1"})
	inst.Clear()

	assert.Len(t, rec.snapshot(), 1, "only the initial state is delivered")
}

func TestCancelWaitsForRunningDelivery(t *testing.T) {
	t.Parallel()

	inst := NewManager().Instance("tab-1")

	entered := make(chan struct{})
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex
	cancel := inst.Subscribe(func(s *domain.Session) {
		mu.Lock()
		calls++
		n := calls
		mu.Unlock()
		if n == 2 {
			close(entered)
			<-release
		}
	})

	setDone := make(chan struct{})
	go func() {
		inst.Set(domain.Session{UserID: "u1", TokenID: "t1"})
		close(setDone)
	}()
	<-entered

	cancelled := make(chan struct{})
	go func() {
		cancel()
		close(cancelled)
	}()

	select {
	case <-cancelled:
		t.Fatal("cancel returned while a delivery was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-setDone
	<-cancelled

	inst.Clear()
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 2, calls)
}

func TestIdleInstancesAreEvicted(t *testing.T) {
	t.Parallel()

	m := NewManager()
	inst := m.Instance("tab-1")
	cancel := inst.Subscribe(func(*domain.Session) {})
	inst.Set(domain.Session{UserID: "u1", TokenID: "t1"})
	require.Equal(t, 1, m.Len())

	cancel()
	assert.Equal(t, 1, m.Len(), "a signed-in instance is kept")

	inst.Clear()
	assert.Equal(t, 0, m.Len())
}

func TestRestoreDoesNotReplaceCurrentSession(t *testing.T) {
	t.Parallel()

	inst := NewManager().Instance("tab-1")
	assert.True(t, inst.Restore(domain.Session{UserID: "u1", TokenID: "t1"}))
	assert.False(t, inst.Restore(domain.Session{UserID: "u2", TokenID: "t2"}))

	current, ok := inst.Current()
	require.True(t, ok)
	assert.Equal(t, "t1", current.TokenID)
}

func TestRestoreNeverOverwritesConcurrentSignIn(t *testing.T) {
	t.Parallel()

	for n := 0; n < 200; n++ {
		inst := NewManager().Instance("tab-1")

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			inst.Restore(domain.Session{UserID: "u1", TokenID: "old"})
		}()
		go func() {
			defer wg.Done()
			inst.Set(domain.Session{UserID: "u1", TokenID: "new"})
		}()
		wg.Wait()

		current, ok := inst.Current()
		require.True(t, ok)
		require.Equal(t, "new", current.TokenID, "iteration %d", n)
	}
}

func TestHeldInstanceFollowsEviction(t *testing.T) {
	t.Parallel()

	m := NewManager()
	held := m.Instance("tab-1")

	// Another view on the same id comes and goes, evicting the idle instance.
	other := held.Subscribe(func(*domain.Session) {})
	other()
	require.Equal(t, 0, m.Len())

	rec := &recorder{}
	cancel := held.Subscribe(rec.listen)
	defer cancel()

	m.Instance("tab-1").Set(domain.Session{UserID: "u1", Email: "alice@example.com", TokenID: "t1"})

	states := rec.snapshot()
	require.Len(t, states, 2)
	assert.Nil(t, states[0])
	require.NotNil(t, states[1])
	assert.Equal(t, "alice@example.com", states[1].Email)
	assert.Same(t, held, m.Instance("tab-1"))
}

func TestHeldInstanceJoinsReplacement(t *testing.T) {
	t.Parallel()

	m := NewManager()
	held := m.Instance("tab-1")
	other := held.Subscribe(func(*domain.Session) {})
	other()

	replacement := m.Instance("tab-1")
	require.NotSame(t, held, replacement)
	replacement.Set(domain.Session{UserID: "u1", TokenID: "t1"})

	rec := &recorder{}
	cancel := held.Subscribe(rec.listen)
	defer cancel()
	require.Len(t, rec.snapshot(), 1)
	require.NotNil(t, rec.snapshot()[0], "current session of the tracked instance")

	held.Set(domain.Session{UserID: "u2", TokenID: "t2"})
	current, ok := replacement.Current()
	require.True(t, ok)
	assert.Equal(t, "t2", current.TokenID)
	assert.Len(t, rec.snapshot(), 2)
}
