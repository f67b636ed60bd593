// Package form drives the create/edit product form: the draft, its field
// errors, the live identifier check and submission to the repository.
package form

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"product_catalog/domain"
	"product_catalog/uniqueness"
)

// Mode is fixed at construction.
type Mode int

const (
	Create Mode = iota
	Edit
)

func (m Mode) String() string {
	if m == Edit {
		return "edit"
	}
	return "create"
}

// Repository is the part of the product store the form needs.
type Repository interface {
	Exists(ctx context.Context, id string) (bool, error)
	Get(ctx context.Context, id string) (domain.Product, error)
	Create(ctx context.Context, product domain.Product) (domain.Product, error)
	Update(ctx context.Context, id string, patch domain.ProductPatch) (domain.Product, error)
}

// Navigator returns to the product list.
type Navigator interface {
	ToList()
}

// Option customizes a Controller.
type Option func(*Controller)

// WithClock replaces the wall clock used for "today" and for debouncing.
func WithClock(c clockwork.Clock) Option {
	return func(fc *Controller) { fc.clock = c }
}

// WithCheckDelay overrides the identifier check debounce delay.
func WithCheckDelay(d time.Duration) Option {
	return func(fc *Controller) { fc.checkDelay = d }
}

// WithNavigator sets the navigation target.
func WithNavigator(n Navigator) Option {
	return func(fc *Controller) { fc.navigator = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(fc *Controller) { fc.logger = l }
}

// Controller is safe for concurrent use. Repository calls are made without
// holding the controller lock.
type Controller struct {
	repo       Repository
	navigator  Navigator
	clock      clockwork.Clock
	checkDelay time.Duration
	logger     *slog.Logger
	checker    *uniqueness.Coordinator

	mode      Mode
	productID string

	mu     sync.Mutex
	draft  domain.Product
	errors domain.FieldErrors
}

// New returns a controller in Edit mode when productID is not empty and in
// Create mode otherwise.
func New(repo Repository, productID string, opts ...Option) *Controller {
	c := &Controller{
		repo:       repo,
		navigator:  noopNavigator{},
		clock:      clockwork.NewRealClock(),
		checkDelay: uniqueness.DefaultDelay,
		logger:     slog.Default(),
		productID:  productID,
		errors:     domain.FieldErrors{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if productID != "" {
		c.mode = Edit
	}
	c.draft = c.emptyDraft()
	c.checker = uniqueness.New(repo, c.applyUniqueness,
		uniqueness.WithClock(c.clock),
		uniqueness.WithDelay(c.checkDelay),
		uniqueness.WithLogger(c.logger),
		uniqueness.WithEditMode(c.mode == Edit),
	)
	return c
}

// Mode reports the controller mode.
func (c *Controller) Mode() Mode { return c.mode }

// ProductID is the identifier being edited, empty in Create mode.
func (c *Controller) ProductID() string { return c.productID }

// Start loads the record being edited. When the load fails the controller
// navigates back to the list and returns the error. In Create mode it does
// nothing.
func (c *Controller) Start(ctx context.Context) error {
	if c.mode != Edit {
		return nil
	}
	p, err := c.repo.Get(ctx, c.productID)
	if err != nil {
		c.logger.Warn("failed to load product for edit", "product_id", c.productID, "error", err)
		c.navigator.ToList()
		return fmt.Errorf("load product %s: %w", c.productID, err)
	}
	c.mu.Lock()
	c.draft = p
	c.mu.Unlock()
	return nil
}

// OnIDChange stores the trimmed identifier and feeds it to the uniqueness
// check.
func (c *Controller) OnIDChange(raw string) {
	id := strings.TrimSpace(raw)
	c.mu.Lock()
	c.draft.ID = id
	c.mu.Unlock()
	c.checker.Submit(id)
}

func (c *Controller) SetName(v string) {
	c.mu.Lock()
	c.draft.Name = v
	c.mu.Unlock()
}

func (c *Controller) SetDescription(v string) {
	c.mu.Lock()
	c.draft.Description = v
	c.mu.Unlock()
}

func (c *Controller) SetLogo(v string) {
	c.mu.Lock()
	c.draft.Logo = v
	c.mu.Unlock()
}

// OnDateReleaseChange parses value and sets date_release together with
// date_revision, one year later. An unparsable value leaves the draft as
// it was.
func (c *Controller) OnDateReleaseChange(value string) error {
	d, err := domain.ParseDate(strings.TrimSpace(value))
	if err != nil {
		return err
	}
	c.SetDateRelease(d)
	return nil
}

// SetDateRelease sets date_release and date_revision in one step.
func (c *Controller) SetDateRelease(d domain.Date) {
	c.mu.Lock()
	c.draft.DateRelease = d
	c.draft.DateRevision = d.AddYears(1)
	c.mu.Unlock()
}

// Draft returns a copy of the current draft.
func (c *Controller) Draft() domain.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Errors returns a copy of the current field errors.
func (c *Controller) Errors() domain.FieldErrors {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errors.Clone()
}

// PendingCheck returns the identifier whose uniqueness check has not
// resolved yet, if any.
func (c *Controller) PendingCheck() (string, bool) {
	s := c.checker.Status()
	return s.ID, s.State == uniqueness.Pending
}

// Submit validates the draft and, when it is valid, creates or updates the
// product and navigates to the list. Validation failures return a
// *domain.ValidationError and never reach the repository. A duplicate
// identifier reported by the repository becomes the id field error; other
// failures are returned unchanged in kind and leave the errors alone.
func (c *Controller) Submit(ctx context.Context) error {
	c.checker.Cancel()

	c.mu.Lock()
	today := domain.DateOf(c.clock.Now())
	errs := domain.Validate(c.draft, today)
	c.errors = errs
	candidate := c.draft
	c.mu.Unlock()

	if !errs.Valid() {
		return domain.NewValidationError(errs.Clone())
	}

	var err error
	if c.mode == Edit {
		_, err = c.repo.Update(ctx, c.productID, domain.PatchOf(candidate))
	} else {
		_, err = c.repo.Create(ctx, candidate)
	}

	if err != nil {
		if domain.IsDuplicateProductError(err) {
			c.mu.Lock()
			c.errors[domain.FieldID] = domain.MsgDuplicateID
			c.mu.Unlock()
		}
		c.logger.Warn("product submit failed", "mode", c.mode.String(), "product_id", candidate.ID, "error", err)
		return fmt.Errorf("submit product %s: %w", candidate.ID, err)
	}

	c.logger.Info("product submitted", "mode", c.mode.String(), "product_id", candidate.ID)
	c.navigator.ToList()
	return nil
}

// Reset restores an empty draft and clears all errors.
func (c *Controller) Reset() {
	c.checker.Cancel()
	c.mu.Lock()
	c.draft = c.emptyDraft()
	c.errors = domain.FieldErrors{}
	c.mu.Unlock()
}

// BackToList abandons the form.
func (c *Controller) BackToList() {
	c.checker.Cancel()
	c.navigator.ToList()
}

// Close stops any pending identifier check.
func (c *Controller) Close() {
	c.checker.Cancel()
}

func (c *Controller) applyUniqueness(s uniqueness.Status) {
	if s.Failed {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case s.State == uniqueness.Resolved && s.Duplicate && c.mode == Create:
		c.errors[domain.FieldID] = domain.MsgDuplicateID
	case s.State == uniqueness.Resolved, s.State == uniqueness.Idle:
		if c.errors[domain.FieldID] == domain.MsgDuplicateID {
			delete(c.errors, domain.FieldID)
		}
	}
}

func (c *Controller) emptyDraft() domain.Product {
	today := domain.DateOf(c.clock.Now())
	return domain.Product{DateRelease: today, DateRevision: today.AddYears(1)}
}

type noopNavigator struct{}

func (noopNavigator) ToList() {}
