// Package uniqueness drives the identifier-duplication indicator of the
// product form: it debounces candidate identifiers, asks the repository
// whether the last one exists and discards answers for superseded input.
package uniqueness

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
)

const (
	// DefaultDelay is how long the identifier must be stable before a check.
	DefaultDelay = 500 * time.Millisecond
	// MinLength is the shortest identifier that is checked at all.
	MinLength = 5
)

// State is the coordinator state.
type State int

const (
	Idle State = iota
	Pending
	Resolved
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Status is a snapshot of the coordinator. ID and Duplicate are meaningful
// only in the Pending and Resolved states. Failed marks the Idle state
// entered when the repository could not answer.
type Status struct {
	State     State
	ID        string
	Duplicate bool
	Failed    bool
}

// Checker answers whether an identifier is taken. domain.ProductStore
// satisfies it.
type Checker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

// Option customizes a Coordinator.
type Option func(*Coordinator)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c clockwork.Clock) Option {
	return func(co *Coordinator) { co.clock = c }
}

// WithDelay overrides DefaultDelay.
func WithDelay(d time.Duration) Option {
	return func(co *Coordinator) { co.delay = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(co *Coordinator) { co.logger = l }
}

// WithEditMode starts the coordinator in edit mode.
func WithEditMode(edit bool) Option {
	return func(co *Coordinator) { co.editMode = edit }
}

// Coordinator is safe for concurrent use. Every Submit bumps a generation
// counter; a debounced check or a repository answer only takes effect while
// its generation is still the latest one.
type Coordinator struct {
	checker  Checker
	onChange func(Status)
	clock    clockwork.Clock
	delay    time.Duration
	logger   *slog.Logger

	mu       sync.Mutex
	gen      uint64
	editMode bool
	status   Status
	timer    clockwork.Timer
	cancel   context.CancelFunc

	// serializes onChange so that deliveries keep generation order
	deliverMu sync.Mutex
}

// New returns an idle coordinator. onChange, if not nil, receives every
// status that becomes current.
func New(checker Checker, onChange func(Status), opts ...Option) *Coordinator {
	c := &Coordinator{
		checker:  checker,
		onChange: onChange,
		clock:    clockwork.NewRealClock(),
		delay:    DefaultDelay,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// SetEditMode switches edit mode. Switching invalidates any pending check.
func (c *Coordinator) SetEditMode(edit bool) {
	c.mu.Lock()
	c.editMode = edit
	c.invalidateLocked()
	c.status = Status{State: Idle}
	c.mu.Unlock()
}

// Status returns the current status.
func (c *Coordinator) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Submit feeds the latest raw identifier. In edit mode it resolves at once
// as not duplicate. Identifiers shorter than MinLength return the
// coordinator to Idle. Anything else is checked once it has been stable for
// the debounce delay.
func (c *Coordinator) Submit(id string) {
	c.mu.Lock()
	c.invalidateLocked()
	g := c.gen

	switch {
	case c.editMode:
		c.status = Status{State: Resolved, ID: id}
	case utf8.RuneCountInString(id) < MinLength:
		c.status = Status{State: Idle}
	default:
		c.status = Status{State: Pending, ID: id}
		c.timer = c.clock.AfterFunc(c.delay, func() { c.check(g, id) })
	}
	s := c.status
	c.mu.Unlock()

	c.publish(g, s)
}

// Cancel abandons any pending or in-flight check and returns to Idle
// without notifying. Once it returns no earlier status is delivered.
func (c *Coordinator) Cancel() {
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()
	c.mu.Lock()
	c.invalidateLocked()
	c.status = Status{State: Idle}
	c.mu.Unlock()
}

func (c *Coordinator) invalidateLocked() {
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Coordinator) check(g uint64, id string) {
	c.mu.Lock()
	if g != c.gen {
		c.mu.Unlock()
		return
	}
	c.timer = nil
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	start := c.clock.Now()
	exists, err := c.checker.Exists(ctx, id)

	c.mu.Lock()
	if g != c.gen {
		c.mu.Unlock()
		c.logger.Debug("discarding stale uniqueness result", "product_id", id)
		return
	}
	c.cancel = nil
	if err != nil {
		c.status = Status{State: Idle, ID: id, Failed: true}
		c.logger.Warn("uniqueness check failed", "product_id", id, "error", err)
	} else {
		c.status = Status{State: Resolved, ID: id, Duplicate: exists}
		c.logger.Debug("uniqueness check resolved",
			"product_id", id,
			"duplicate", exists,
			"duration_ms", c.clock.Since(start).Milliseconds(),
		)
	}
	s := c.status
	c.mu.Unlock()

	c.publish(g, s)
}

func (c *Coordinator) publish(g uint64, s Status) {
	if c.onChange == nil {
		return
	}
	c.deliverMu.Lock()
	defer c.deliverMu.Unlock()

	c.mu.Lock()
	current := g == c.gen
	c.mu.Unlock()
	if current {
		c.onChange(s)
	}
}
