package uniqueness

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	waitFor = time.Second
	tick    = 5 * time.Millisecond
)

type fakeChecker struct {
	mu     sync.Mutex
	calls  []string
	taken  map[string]bool
	fail   error
	blocks map[string]chan struct{}
}

func newFakeChecker(taken ...string) *fakeChecker {
	f := &fakeChecker{taken: map[string]bool{}, blocks: map[string]chan struct{}{}}
	for _, id := range taken {
		f.taken[id] = true
	}
	return f
}

func (f *fakeChecker) Exists(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	f.calls = append(f.calls, id)
	block := f.blocks[id]
	fail := f.fail
	taken := f.taken[id]
	f.mu.Unlock()

	if block != nil {
		<-block
	}
	if fail != nil {
		return false, fail
	}
	return taken, nil
}

func (f *fakeChecker) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type recorder struct {
	mu  sync.Mutex
	got []Status
}

func (r *recorder) record(s Status) {
	r.mu.Lock()
	r.got = append(r.got, s)
	r.mu.Unlock()
}

func (r *recorder) All() []Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Status(nil), r.got...)
}

func (r *recorder) Last() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.got) == 0 {
		return Status{}
	}
	return r.got[len(r.got)-1]
}

func newCoordinator(checker Checker, rec *recorder, opts ...Option) (*Coordinator, *clockwork.FakeClock) {
	clock := clockwork.NewFakeClock()
	base := []Option{
		WithClock(clock),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}
	return New(checker, rec.record, append(base, opts...)...), clock
}

func TestCoordinator_ShortIDNeverChecked(t *testing.T) {
	checker := newFakeChecker()
	rec := &recorder{}
	c, clock := newCoordinator(checker, rec)

	for _, id := range []string{"", "a", "ab", "abc", "abcd"} {
		c.Submit(id)
		assert.Equal(t, Status{State: Idle}, c.Status(), "id %q", id)
	}
	clock.Advance(5 * DefaultDelay)

	assert.Never(t, func() bool { return len(checker.Calls()) > 0 }, 50*time.Millisecond, tick)
}

func TestCoordinator_DebounceCollapsesToLastValue(t *testing.T) {
	checker := newFakeChecker()
	rec := &recorder{}
	c, clock := newCoordinator(checker, rec)

	c.Submit("abc12")
	clock.Advance(300 * time.Millisecond)
	c.Submit("abc123")
	assert.Equal(t, Status{State: Pending, ID: "abc123"}, c.Status())

	clock.Advance(300 * time.Millisecond)
	assert.Never(t, func() bool { return len(checker.Calls()) > 0 }, 30*time.Millisecond, tick)

	clock.Advance(200 * time.Millisecond)
	require.Eventually(t, func() bool { return len(checker.Calls()) == 1 }, waitFor, tick)
	assert.Equal(t, []string{"abc123"}, checker.Calls())

	require.Eventually(t, func() bool { return c.Status().State == Resolved }, waitFor, tick)
	assert.Equal(t, Status{State: Resolved, ID: "abc123"}, c.Status())

	clock.Advance(5 * DefaultDelay)
	assert.Never(t, func() bool { return len(checker.Calls()) > 1 }, 30*time.Millisecond, tick)
}

func TestCoordinator_ResolvesDuplicate(t *testing.T) {
	checker := newFakeChecker("trj-crd")
	rec := &recorder{}
	c, clock := newCoordinator(checker, rec)

	c.Submit("trj-crd")
	clock.Advance(DefaultDelay)

	want := Status{State: Resolved, ID: "trj-crd", Duplicate: true}
	require.Eventually(t, func() bool { return rec.Last() == want }, waitFor, tick)
	assert.Equal(t, []Status{{State: Pending, ID: "trj-crd"}, want}, rec.All())
}

func TestCoordinator_EditModeSkipsRepository(t *testing.T) {
	checker := newFakeChecker("trj-crd")
	rec := &recorder{}
	c, clock := newCoordinator(checker, rec, WithEditMode(true))

	c.Submit("trj-crd")
	assert.Equal(t, Status{State: Resolved, ID: "trj-crd"}, c.Status())
	clock.Advance(5 * DefaultDelay)

	assert.Never(t, func() bool { return len(checker.Calls()) > 0 }, 50*time.Millisecond, tick)
	assert.Equal(t, []Status{{State: Resolved, ID: "trj-crd"}}, rec.All())
}

func TestCoordinator_StaleResultDiscarded(t *testing.T) {
	checker := newFakeChecker("abc12")
	release := make(chan struct{})
	checker.blocks["abc12"] = release
	rec := &recorder{}
	c, clock := newCoordinator(checker, rec)

	c.Submit("abc12")
	clock.Advance(DefaultDelay)
	require.Eventually(t, func() bool { return len(checker.Calls()) == 1 }, waitFor, tick)

	c.Submit("abc123")
	clock.Advance(DefaultDelay)
	want := Status{State: Resolved, ID: "abc123"}
	require.Eventually(t, func() bool { return rec.Last() == want }, waitFor, tick)

	close(release)
	assert.Never(t, func() bool { return rec.Last() != want }, 50*time.Millisecond, tick)
	for _, s := range rec.All() {
		assert.False(t, s.Duplicate, "late answer for abc12 leaked: %+v", s)
	}
	assert.Equal(t, want, c.Status())
}

func TestCoordinator_ShortIDAbandonsInFlightCheck(t *testing.T) {
	checker := newFakeChecker("abc12")
	release := make(chan struct{})
	checker.blocks["abc12"] = release
	rec := &recorder{}
	c, clock := newCoordinator(checker, rec)

	c.Submit("abc12")
	clock.Advance(DefaultDelay)
	require.Eventually(t, func() bool { return len(checker.Calls()) == 1 }, waitFor, tick)

	c.Submit("abc")
	close(release)

	assert.Never(t, func() bool { return rec.Last().Duplicate }, 50*time.Millisecond, tick)
	assert.Equal(t, Status{State: Idle}, c.Status())
}

func TestCoordinator_CheckFailureReturnsToIdle(t *testing.T) {
	checker := newFakeChecker()
	checker.fail = errors.New("connection refused")
	rec := &recorder{}
	c, clock := newCoordinator(checker, rec)

	c.Submit("abc123")
	clock.Advance(DefaultDelay)

	want := Status{State: Idle, ID: "abc123", Failed: true}
	require.Eventually(t, func() bool { return rec.Last() == want }, waitFor, tick)
	assert.Equal(t, want, c.Status())
}

func TestCoordinator_CancelDropsPendingCheck(t *testing.T) {
	checker := newFakeChecker()
	rec := &recorder{}
	c, clock := newCoordinator(checker, rec)

	c.Submit("abc123")
	c.Cancel()
	clock.Advance(DefaultDelay)

	assert.Never(t, func() bool { return len(checker.Calls()) > 0 }, 50*time.Millisecond, tick)
	assert.Equal(t, Status{State: Idle}, c.Status())
	assert.Equal(t, []Status{{State: Pending, ID: "abc123"}}, rec.All())
}

func TestCoordinator_SetEditMode(t *testing.T) {
	checker := newFakeChecker()
	rec := &recorder{}
	c, clock := newCoordinator(checker, rec)

	c.Submit("abc123")
	c.SetEditMode(true)
	clock.Advance(DefaultDelay)
	assert.Never(t, func() bool { return len(checker.Calls()) > 0 }, 50*time.Millisecond, tick)

	c.SetEditMode(false)
	c.Submit("abc123")
	clock.Advance(DefaultDelay)
	require.Eventually(t, func() bool { return len(checker.Calls()) == 1 }, waitFor, tick)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "pending", Pending.String())
	assert.Equal(t, "resolved", Resolved.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestCoordinator_CancelWaitsForDeliveryInProgress(t *testing.T) {
	checker := newFakeChecker("abc123")
	entered := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	var delivered []Status
	onChange := func(s Status) {
		if s.State == Resolved {
			close(entered)
			<-release
		}
		mu.Lock()
		delivered = append(delivered, s)
		mu.Unlock()
	}
	clock := clockwork.NewFakeClock()
	c := New(checker, onChange, WithClock(clock), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	c.Submit("abc123")
	clock.Advance(DefaultDelay)
	<-entered

	cancelled := make(chan struct{})
	go func() {
		c.Cancel()
		close(cancelled)
	}()
	assert.Never(t, func() bool {
		select {
		case <-cancelled:
			return true
		default:
			return false
		}
	}, 30*time.Millisecond, tick, "Cancel returned while a delivery was running")

	close(release)
	require.Eventually(t, func() bool {
		select {
		case <-cancelled:
			return true
		default:
			return false
		}
	}, waitFor, tick)

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, delivered, 2)
	assert.Equal(t, Status{State: Idle}, c.Status())
}
