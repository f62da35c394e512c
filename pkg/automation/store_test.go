package automation

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mmerrors "github.com/otherjamesbrown/minuteme-cli/pkg/errors"
)

// fakeTimer is fired by hand.
type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	wasActive := !t.stopped
	t.stopped = true
	return wasActive
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (c *fakeClock) last() *fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.timers) == 0 {
		return nil
	}
	return c.timers[len(c.timers)-1]
}

func newFakeStore() (*Store, *fakeClock) {
	clock := &fakeClock{}
	return NewStore(WithAfterFunc(clock.AfterFunc)), clock
}

func TestStore_StartsIdle(t *testing.T) {
	s, _ := newFakeStore()
	assert.Equal(t, StatusIdle, s.Snapshot().Status)
}

func TestStore_Lifecycle(t *testing.T) {
	s, clock := newFakeStore()

	require.NoError(t, s.Start("m1", "🚀 Automation process has started..."))
	st := s.Snapshot()
	assert.Equal(t, StatusRunning, st.Status)
	assert.Equal(t, "m1", st.JobID)

	s.Update("Step 1: Transcribing video...")
	assert.Equal(t, "Step 1: Transcribing video...", s.Snapshot().Message)

	require.NoError(t, s.End(StatusSuccess, "Minutes ready"))
	st = s.Snapshot()
	assert.Equal(t, StatusSuccess, st.Status)
	assert.Equal(t, "Minutes ready", st.Message)
	assert.Equal(t, "m1", st.JobID)

	timer := clock.last()
	require.NotNil(t, timer)
	assert.Equal(t, 5000*time.Millisecond, timer.d)

	timer.f()
	assert.Equal(t, State{Status: StatusIdle, UpdatedAt: s.Snapshot().UpdatedAt}, s.Snapshot())
}

func TestStore_StartWhileRunning(t *testing.T) {
	s, _ := newFakeStore()
	require.NoError(t, s.Start("m1", "first"))

	err := s.Start("m2", "second")
	require.Error(t, err)
	assert.True(t, mmerrors.IsInvalidState(err))
	assert.Equal(t, "m1", s.Snapshot().JobID)
}

func TestStore_UpdateIgnoredUnlessRunning(t *testing.T) {
	s, _ := newFakeStore()
	s.Update("nobody is listening")
	assert.Equal(t, StatusIdle, s.Snapshot().Status)
	assert.Empty(t, s.Snapshot().Message)

	require.NoError(t, s.Start("m1", "go"))
	require.NoError(t, s.End(StatusError, "❌ Automation failed. Reason: bad link"))
	s.Update("late progress")
	assert.Equal(t, "❌ Automation failed. Reason: bad link", s.Snapshot().Message)
}

func TestStore_EndRejectsNonTerminal(t *testing.T) {
	s, _ := newFakeStore()
	err := s.End(StatusRunning, "x")
	assert.True(t, mmerrors.IsInvalidState(err))
	err = s.End(StatusIdle, "x")
	assert.True(t, mmerrors.IsInvalidState(err))
}

func TestStore_OnlyLatestEndResets(t *testing.T) {
	s, clock := newFakeStore()
	require.NoError(t, s.End(StatusSuccess, "one"))
	first := clock.last()
	require.NoError(t, s.End(StatusError, "two"))
	second := clock.last()

	assert.True(t, first.stopped)
	first.f()
	assert.Equal(t, StatusError, s.Snapshot().Status, "stale timer must not reset")

	second.f()
	assert.Equal(t, StatusIdle, s.Snapshot().Status)
}

func TestStore_StartCancelsPendingReset(t *testing.T) {
	s, clock := newFakeStore()
	require.NoError(t, s.Start("m1", "go"))
	require.NoError(t, s.End(StatusSuccess, "done"))
	pending := clock.last()

	require.NoError(t, s.Start("m2", "again"))
	assert.True(t, pending.stopped)

	pending.f()
	st := s.Snapshot()
	assert.Equal(t, StatusRunning, st.Status)
	assert.Equal(t, "m2", st.JobID)
}

func TestStore_Subscribe(t *testing.T) {
	s, clock := newFakeStore()

	var got []Status
	unsubscribe := s.Subscribe(func(st State) { got = append(got, st.Status) })

	require.NoError(t, s.Start("m1", "go"))
	s.Update("step")
	s.Update("step")
	require.NoError(t, s.End(StatusSuccess, "done"))
	clock.last().f()

	assert.Equal(t, []Status{StatusRunning, StatusRunning, StatusSuccess, StatusIdle}, got)

	unsubscribe()
	require.NoError(t, s.Start("m2", "go"))
	assert.Len(t, got, 4)
}

func TestStore_ObserversInRegistrationOrder(t *testing.T) {
	s, _ := newFakeStore()
	var order []int
	for i := 0; i < 5; i++ {
		i := i
		s.Subscribe(func(State) { order = append(order, i) })
	}
	require.NoError(t, s.Start("m1", "go"))
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestStore_RealTimerResets(t *testing.T) {
	if testing.Short() {
		t.Skip("waits for the real reset delay")
	}
	s := NewStore()
	defer s.Close()

	done := make(chan struct{})
	s.Subscribe(func(st State) {
		if st.Status == StatusIdle {
			close(done)
		}
	})
	require.NoError(t, s.End(StatusSuccess, "ok"))

	select {
	case <-done:
	case <-time.After(ResetDelay + 2*time.Second):
		t.Fatal("store did not reset to idle")
	}
}

func TestStore_ConcurrentUse(t *testing.T) {
	s, _ := newFakeStore()
	require.NoError(t, s.Start("m1", "go"))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Update("tick")
			_ = s.Snapshot()
		}()
	}
	wg.Wait()
	assert.Equal(t, StatusRunning, s.Snapshot().Status)
}
