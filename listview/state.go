// Package listview holds the state behind the product list screen: the
// loaded catalog, search, pagination, context menu and the delete flow.
// Derived values are recomputed from the state on every read.
package listview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"product_catalog/domain"
)

const (
	// DefaultSearchDelay is how long the search input must be stable.
	DefaultSearchDelay = 300 * time.Millisecond
	// DefaultPageSize is the initial page size.
	DefaultPageSize = 10
)

// ErrInvalidPageSize is returned by SetPageSize for non-positive sizes.
var ErrInvalidPageSize = errors.New("page size must be positive")

// Source is the part of the repository the list needs.
type Source interface {
	List(ctx context.Context) ([]domain.Product, error)
	Delete(ctx context.Context, id string) error
}

// Notifier surfaces failures the user has to acknowledge.
type Notifier interface {
	Alert(message string)
}

// Navigator moves to the form screens.
type Navigator interface {
	ToCreate()
	ToEdit(id string)
}

// Option customizes a State.
type Option func(*State)

// WithClock replaces the wall clock, mostly for tests.
func WithClock(c clockwork.Clock) Option {
	return func(s *State) { s.clock = c }
}

// WithSearchDelay overrides DefaultSearchDelay.
func WithSearchDelay(d time.Duration) Option {
	return func(s *State) { s.searchDelay = d }
}

// WithPageSize overrides DefaultPageSize. Non-positive values are ignored.
func WithPageSize(n int) Option {
	return func(s *State) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithNotifier sets where delete failures are reported.
func WithNotifier(n Notifier) Option {
	return func(s *State) { s.notifier = n }
}

// WithNavigator sets the navigation target.
func WithNavigator(n Navigator) Option {
	return func(s *State) { s.navigator = n }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *State) { s.logger = l }
}

// Snapshot is a consistent read of the state and everything derived from
// it.
type Snapshot struct {
	SearchTerm      string
	PageSize        int
	CurrentPage     int
	Loading         bool
	Err             error
	OpenMenu        string
	DeleteCandidate string

	Filtered     []domain.Product
	Page         []domain.Product
	TotalResults int
	TotalPages   int
	PageNumbers  []int
}

// State is safe for concurrent use.
type State struct {
	source      Source
	clock       clockwork.Clock
	searchDelay time.Duration
	notifier    Notifier
	navigator   Navigator
	logger      *slog.Logger

	mu              sync.Mutex
	products        []domain.Product
	searchTerm      string
	pageSize        int
	currentPage     int
	loading         bool
	err             error
	openMenu        string
	deleteCandidate string

	loadGen     uint64
	searchGen   uint64
	searchTimer clockwork.Timer
}

// New returns an empty list state backed by source.
func New(source Source, opts ...Option) *State {
	s := &State{
		source:      source,
		clock:       clockwork.NewRealClock(),
		searchDelay: DefaultSearchDelay,
		pageSize:    DefaultPageSize,
		currentPage: 1,
		notifier:    noopNotifier{},
		navigator:   noopNavigator{},
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load fetches the catalog. While the call is outstanding the state reports
// Loading; on failure the previous products are kept and Err is set. Only
// the most recently started load, and only if no local change happened
// since it started, may replace the products.
func (s *State) Load(ctx context.Context) error {
	s.mu.Lock()
	s.loadGen++
	g := s.loadGen
	s.loading = true
	s.err = nil
	s.mu.Unlock()

	products, err := s.source.List(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if g != s.loadGen {
		s.logger.Debug("discarding stale product list", "error", err)
		if err != nil {
			return fmt.Errorf("load products: %w", err)
		}
		return nil
	}
	s.loading = false
	if err != nil {
		s.err = err
		s.logger.Error("failed to load products", "error", err)
		return fmt.Errorf("load products: %w", err)
	}
	s.products = products
	s.logger.Debug("products loaded", "count", len(products))
	return nil
}

// SearchChanged feeds raw search input. The term is applied once the input
// has been stable for the search delay.
func (s *State) SearchChanged(raw string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchGen++
	g := s.searchGen
	if s.searchTimer != nil {
		s.searchTimer.Stop()
	}
	s.searchTimer = s.clock.AfterFunc(s.searchDelay, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if g != s.searchGen {
			return
		}
		s.searchTimer = nil
		s.applySearchLocked(raw)
	})
}

// ApplySearch sets the search term immediately. Applying the current term
// again changes nothing, so the page is kept.
func (s *State) ApplySearch(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applySearchLocked(term)
}

func (s *State) applySearchLocked(term string) {
	if term == s.searchTerm {
		return
	}
	s.searchTerm = term
	s.currentPage = 1
}

// SetPageSize changes the page size and returns to the first page.
func (s *State) SetPageSize(n int) error {
	if n <= 0 {
		return ErrInvalidPageSize
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageSize = n
	s.currentPage = 1
	return nil
}

// GoToPage moves to page n if 1 <= n <= TotalPages and reports whether it
// did.
func (s *State) GoToPage(n int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := TotalPages(len(Filter(s.products, s.searchTerm)), s.pageSize)
	if n < 1 || n > total {
		return false
	}
	s.currentPage = n
	return true
}

// ToggleMenu opens the context menu of id, or closes it if it is already
// open. At most one menu is open.
func (s *State) ToggleMenu(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.openMenu == id {
		s.openMenu = ""
		return
	}
	s.openMenu = id
}

// CreateNew navigates to the empty form.
func (s *State) CreateNew() {
	s.navigator.ToCreate()
}

// Edit closes the menu and navigates to the form for id.
func (s *State) Edit(id string) {
	s.mu.Lock()
	s.openMenu = ""
	s.mu.Unlock()
	s.navigator.ToEdit(id)
}

// OpenDelete asks for confirmation of deleting id.
func (s *State) OpenDelete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCandidate = id
	s.openMenu = ""
}

// CancelDelete drops the delete candidate.
func (s *State) CancelDelete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteCandidate = ""
	s.openMenu = ""
}

// ConfirmDelete deletes the current candidate remotely. The candidate and
// menu are cleared before the call. The product is removed locally only
// once the remote delete succeeded; on failure the list is untouched and
// the notifier is alerted.
func (s *State) ConfirmDelete(ctx context.Context) error {
	s.mu.Lock()
	id := s.deleteCandidate
	s.deleteCandidate = ""
	s.openMenu = ""
	s.mu.Unlock()

	if id == "" {
		return nil
	}

	if err := s.source.Delete(ctx, id); err != nil {
		s.logger.Error("failed to delete product", "product_id", id, "error", err)
		s.notifier.Alert(fmt.Sprintf("Could not delete product %s: %v", id, err))
		return fmt.Errorf("delete product %s: %w", id, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// a list fetched before the delete still holds the removed row
	if s.loading {
		s.loadGen++
		s.loading = false
	}
	kept := make([]domain.Product, 0, len(s.products))
	for _, p := range s.products {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	s.products = kept
	if total := TotalPages(len(Filter(s.products, s.searchTerm)), s.pageSize); s.currentPage > total {
		s.currentPage = max(total, 1)
	}
	s.logger.Info("product deleted", "product_id", id)
	return nil
}

// Snapshot returns the current state with all derived values.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	filtered := Filter(s.products, s.searchTerm)
	total := TotalPages(len(filtered), s.pageSize)
	return Snapshot{
		SearchTerm:      s.searchTerm,
		PageSize:        s.pageSize,
		CurrentPage:     s.currentPage,
		Loading:         s.loading,
		Err:             s.err,
		OpenMenu:        s.openMenu,
		DeleteCandidate: s.deleteCandidate,
		Filtered:        filtered,
		Page:            Paginate(filtered, s.currentPage, s.pageSize),
		TotalResults:    len(filtered),
		TotalPages:      total,
		PageNumbers:     PageNumbers(total),
	}
}

type noopNotifier struct{}

func (noopNotifier) Alert(string) {}

type noopNavigator struct{}

func (noopNavigator) ToCreate()     {}
func (noopNavigator) ToEdit(string) {}
