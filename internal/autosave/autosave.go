// Package autosave debounces quote draft persistence: a draft is written at
// most once per debounce window, volatile-only edits schedule nothing, and a
// single save is in flight at a time with overlapping edits coalesced into
// the next cycle.
package autosave

import (
	"context"
	"reflect"
	"sync"
	"time"

	"github.com/SeraphMX/interdeco-backoffice-sub000/internal/model/entity"
	"go.uber.org/zap"
)

// DefaultInterval is the trailing-edge debounce window.
const DefaultInterval = 3 * time.Second

// SaveFunc persists a draft. Called without a deadline; cancellation happens
// only by closing the controller before the timer fires.
type SaveFunc func(ctx context.Context, draft *entity.Quote) error

// Option configures a Controller.
type Option func(*Controller)

func WithInterval(d time.Duration) Option {
	return func(c *Controller) { c.interval = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// Controller watches one quote draft. Update replaces the live draft and
// (re)schedules a save when it differs meaningfully from the last saved
// snapshot. Save failures are logged and leave the draft unsaved; no retry
// is scheduled.
type Controller struct {
	save     SaveFunc
	interval time.Duration
	logger   *zap.Logger

	mu     sync.Mutex
	timer  *time.Timer
	draft  *entity.Quote
	last   *entity.Quote
	saving bool
	saved  bool
	closed bool
}

func NewController(save SaveFunc, opts ...Option) *Controller {
	c := &Controller{
		save:     save,
		interval: DefaultInterval,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Update records the latest draft. A save is scheduled only when the draft
// differs from the last saved snapshot with volatile fields stripped; a new
// meaningful change within the window resets the timer.
func (c *Controller) Update(draft *entity.Quote) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}

	c.draft = cloneQuote(draft)

	if !meaningfulChange(c.last, c.draft) {
		return
	}

	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.interval, c.fire)
}

func (c *Controller) fire() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if c.saving {
		// Coalesce into the next cycle rather than firing concurrently.
		c.timer = time.AfterFunc(c.interval, c.fire)
		c.mu.Unlock()
		return
	}
	if !meaningfulChange(c.last, c.draft) {
		c.mu.Unlock()
		return
	}
	c.saving = true
	c.saved = false
	draft := cloneQuote(c.draft)
	c.mu.Unlock()

	err := c.save(context.Background(), draft)

	c.mu.Lock()
	c.saving = false
	if err != nil {
		c.logger.Error("autosave failed",
			zap.String("quote_id", draft.ID),
			zap.Error(err),
		)
		c.mu.Unlock()
		return
	}
	c.last = draft
	c.saved = true
	// Edits that arrived while the save was in flight get their own cycle.
	if meaningfulChange(c.last, c.draft) {
		if c.timer != nil {
			c.timer.Stop()
		}
		c.timer = time.AfterFunc(c.interval, c.fire)
	}
	c.mu.Unlock()
}

// State reports the saving/saved flags. Dirty is derived: the live draft
// differs at all (volatile fields included) from the last saved snapshot.
func (c *Controller) State() (saving, saved, dirty bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.saving, c.saved, !reflect.DeepEqual(c.draft, c.last)
}

// Close cancels any pending save. This is the only cancellation path; an
// in-flight save request is not aborted.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// meaningfulChange compares drafts with volatile fields stripped. Volatile
// fields (updated_at, access_token, status) change as a side effect of saving
// itself and must not retrigger a save.
func meaningfulChange(last, draft *entity.Quote) bool {
	if draft == nil {
		return false
	}
	if last == nil {
		return true
	}
	return !reflect.DeepEqual(stripVolatile(last), stripVolatile(draft))
}

func stripVolatile(q *entity.Quote) *entity.Quote {
	s := cloneQuote(q)
	s.UpdatedAt = time.Time{}
	s.AccessToken = ""
	s.Status = ""
	return s
}

func cloneQuote(q *entity.Quote) *entity.Quote {
	if q == nil {
		return nil
	}
	clone := *q
	clone.Customer = nil
	if q.Items != nil {
		clone.Items = make([]entity.QuoteItem, len(q.Items))
		copy(clone.Items, q.Items)
		for i := range clone.Items {
			clone.Items[i].Product = nil
		}
	}
	return &clone
}

// Manager hands out one Controller per quote so concurrent drafts do not
// share debounce state.
type Manager struct {
	save SaveFunc
	opts []Option

	mu          sync.Mutex
	controllers map[string]*Controller
	closed      bool
}

func NewManager(save SaveFunc, opts ...Option) *Manager {
	return &Manager{
		save:        save,
		opts:        opts,
		controllers: make(map[string]*Controller),
	}
}

// Get returns the controller for a quote, creating it on first use.
func (m *Manager) Get(quoteID string) *Controller {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.controllers[quoteID]; ok {
		return c
	}
	c := NewController(m.save, m.opts...)
	if !m.closed {
		m.controllers[quoteID] = c
	}
	return c
}

// Release closes and forgets the controller for a quote.
func (m *Manager) Release(quoteID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.controllers[quoteID]; ok {
		c.Close()
		delete(m.controllers, quoteID)
	}
}

// Shutdown cancels all pending saves.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	for id, c := range m.controllers {
		c.Close()
		delete(m.controllers, id)
	}
}
