// ABOUTME: Notification synchronizer: polls the unread count and caches notification lists
// ABOUTME: Deduplicates fetches, applies optimistic mark-as-read, and stops cleanly on Unmount

package notify

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/markalston/placement-cli/internal/access"
	"github.com/markalston/placement-cli/internal/model"
)

// DefaultInterval is how often the unread count is re-fetched while mounted.
const DefaultInterval = 30 * time.Second

// API is the backend surface the synchronizer needs.
type API interface {
	UnreadCount(ctx context.Context) (int, error)
	ListNotifications(ctx context.Context, isRead *bool) ([]model.Notification, error)
	MarkRead(ctx context.Context, id int) error
	MarkAllRead(ctx context.Context) error
}

// Filter selects which notifications a list shows.
type Filter int

const (
	FilterUnread Filter = iota
	FilterRead
	FilterAll
)

func (f Filter) String() string {
	switch f {
	case FilterUnread:
		return "unread"
	case FilterRead:
		return "read"
	default:
		return "all"
	}
}

// ParseFilter accepts unread, read or all.
func ParseFilter(s string) (Filter, error) {
	switch s {
	case "unread", "":
		return FilterUnread, nil
	case "read":
		return FilterRead, nil
	case "all":
		return FilterAll, nil
	default:
		return FilterAll, fmt.Errorf("unknown filter %q (want unread, read or all)", s)
	}
}

func (f Filter) isRead() *bool {
	switch f {
	case FilterUnread:
		v := false
		return &v
	case FilterRead:
		v := true
		return &v
	default:
		return nil
	}
}

// ListState tracks the cached list.
type ListState int

const (
	ListIdle ListState = iota
	ListLoading
	ListLoaded
	ListError
)

func (s ListState) String() string {
	switch s {
	case ListLoading:
		return "loading"
	case ListLoaded:
		return "loaded"
	case ListError:
		return "error"
	default:
		return "idle"
	}
}

// Snapshot is a copy of the synchronizer state for display.
type Snapshot struct {
	Unread  int
	Items   []model.Notification
	Filter  Filter
	State   ListState
	Stale   bool
	Mounted bool
	// Counted is set once a count fetch has finished since the last Mount.
	Counted bool
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithInterval sets the count polling interval.
func WithInterval(d time.Duration) Option {
	return func(s *Synchronizer) {
		if d > 0 {
			s.interval = d
		}
	}
}

// Synchronizer keeps one consumer's view of notifications current. Each
// bell, page or watcher owns its own instance.
type Synchronizer struct {
	api      API
	interval time.Duration
	group    singleflight.Group

	mu      sync.Mutex
	mounted bool
	gen     uint64
	listSeq uint64
	unread  int
	items   []model.Notification
	filter  Filter
	state   ListState
	stale   bool
	counted bool

	cancel  context.CancelFunc
	poller  sync.WaitGroup
	writes  sync.WaitGroup
	updates chan Snapshot
}

// New creates an idle synchronizer.
func New(api API, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		api:      api,
		interval: DefaultInterval,
		filter:   FilterUnread,
		updates:  make(chan Snapshot, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Mount fetches the unread count immediately and then every interval until
// Unmount or ctx is done. Mounting twice is a no-op.
func (s *Synchronizer) Mount(ctx context.Context) {
	s.mu.Lock()
	if s.mounted {
		s.mu.Unlock()
		return
	}
	s.mounted = true
	s.counted = false
	s.gen++
	gen := s.gen
	pollCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	s.poller.Add(1)
	go s.poll(pollCtx, gen)
	s.publish()
}

// Unmount stops polling and waits for the poller to exit. Results of requests
// still in flight are discarded.
func (s *Synchronizer) Unmount() {
	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		return
	}
	s.mounted = false
	s.gen++
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	cancel()
	s.poller.Wait()
	s.publish()
}

// Wait blocks until background mark-as-read calls have finished.
func (s *Synchronizer) Wait() {
	s.writes.Wait()
}

func (s *Synchronizer) poll(ctx context.Context, gen uint64) {
	defer s.poller.Done()

	s.refreshCount(ctx, gen)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refreshCount(ctx, gen)
		}
	}
}

// RefreshCount fetches the unread count now and returns it. A failed fetch
// counts as zero.
func (s *Synchronizer) RefreshCount(ctx context.Context) int {
	s.mu.Lock()
	gen := s.gen
	s.mu.Unlock()
	return s.refreshCount(ctx, gen)
}

func (s *Synchronizer) refreshCount(ctx context.Context, gen uint64) int {
	v, err, _ := s.group.Do("count", func() (any, error) {
		return s.api.UnreadCount(ctx)
	})
	n := 0
	if err != nil {
		if ctx.Err() == nil {
			slog.Warn("Failed to fetch unread count", "error", err)
		}
	} else {
		n = v.(int)
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return n
	}
	s.unread = n
	s.stale = true
	s.counted = true
	s.mu.Unlock()

	s.publish()
	return n
}

// Open loads the list for filter and returns it. Failures yield an empty list
// and the Error state.
func (s *Synchronizer) Open(ctx context.Context, filter Filter) []model.Notification {
	s.mu.Lock()
	s.listSeq++
	seq, gen := s.listSeq, s.gen
	s.filter = filter
	s.state = ListLoading
	s.mu.Unlock()
	s.publish()

	items, err := s.fetchList(ctx, filter)

	s.mu.Lock()
	if gen != s.gen || seq != s.listSeq {
		s.mu.Unlock()
		return items
	}
	s.items = items
	s.stale = false
	if err != nil {
		s.state = ListError
	} else {
		s.state = ListLoaded
	}
	s.mu.Unlock()

	s.publish()
	return slices.Clone(items)
}

func (s *Synchronizer) fetchList(ctx context.Context, filter Filter) ([]model.Notification, error) {
	v, err, _ := s.group.Do("list:"+filter.String(), func() (any, error) {
		return s.api.ListNotifications(ctx, filter.isRead())
	})
	if err != nil {
		slog.Warn("Failed to fetch notifications", "filter", filter, "error", err)
		return []model.Notification{}, err
	}
	return slices.Clone(v.([]model.Notification)), nil
}

// MarkRead flips the cached item to read and decrements the unread count
// before returning, then tells the backend in the background. A failed call
// is logged and not rolled back; the next count poll reconciles. An id that
// is not in the cached list leaves the count alone.
func (s *Synchronizer) MarkRead(ctx context.Context, id int) {
	s.mu.Lock()
	i := slices.IndexFunc(s.items, func(n model.Notification) bool { return n.ID == id })
	if i >= 0 && s.items[i].IsRead {
		s.mu.Unlock()
		return
	}
	if i >= 0 {
		items := slices.Clone(s.items)
		items[i].IsRead = true
		s.items = items
		s.unread = max(0, s.unread-1)
	}
	s.mu.Unlock()
	s.publish()

	s.writes.Add(1)
	go func() {
		defer s.writes.Done()
		if err := s.api.MarkRead(context.WithoutCancel(ctx), id); err != nil {
			slog.Warn("Failed to mark notification as read", "id", id, "error", err)
		}
	}()
}

// MarkAllRead asks the backend to mark everything read, then re-fetches the
// count and, if a list was opened, the current list.
func (s *Synchronizer) MarkAllRead(ctx context.Context) error {
	if err := s.api.MarkAllRead(ctx); err != nil {
		return fmt.Errorf("marking all notifications as read: %w", err)
	}

	s.mu.Lock()
	filter, opened := s.filter, s.state != ListIdle
	s.mu.Unlock()

	s.RefreshCount(ctx)
	if opened {
		s.Open(ctx, filter)
	}
	return nil
}

// Activate marks n read if needed and returns where to navigate. Callers
// close any overlay first and navigate afterwards. ok is false when the
// notification has nowhere to go.
func (s *Synchronizer) Activate(ctx context.Context, n model.Notification) (route string, ok bool) {
	if !n.IsRead {
		s.MarkRead(ctx, n.ID)
	}
	return TargetRoute(n)
}

// TargetRoute maps a notification to the page about its related offer.
func TargetRoute(n model.Notification) (string, bool) {
	if n.RelatedObjectID == nil {
		return "", false
	}
	id := *n.RelatedObjectID
	switch n.Type {
	case model.NotifNewApplication, model.NotifApplicationAccepted, model.NotifApplicationRejected:
		return access.OfferApplicationsPath(id), true
	case model.NotifOfferApproved, model.NotifOfferRejected:
		return access.OfferPath(id), true
	default:
		return "", false
	}
}

// Unread returns the last count reported by the backend, adjusted by local
// mark-as-read calls.
func (s *Synchronizer) Unread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.unread
}

// LocalUnread counts unread items in the cached list. Display only; Unread
// is the authority.
func (s *Synchronizer) LocalUnread() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, item := range s.items {
		if !item.IsRead {
			n++
		}
	}
	return n
}

// Snapshot returns a copy of the current state.
func (s *Synchronizer) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Synchronizer) snapshotLocked() Snapshot {
	return Snapshot{
		Unread:  s.unread,
		Items:   slices.Clone(s.items),
		Filter:  s.filter,
		State:   s.state,
		Stale:   s.stale,
		Mounted: s.mounted,
		Counted: s.counted,
	}
}

// Updates delivers the latest snapshot after each change. Slow readers only
// see the most recent one.
func (s *Synchronizer) Updates() <-chan Snapshot {
	return s.updates
}

func (s *Synchronizer) publish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snapshotLocked()
	for {
		select {
		case s.updates <- snap:
			return
		default:
		}
		select {
		case <-s.updates:
		default:
		}
	}
}
