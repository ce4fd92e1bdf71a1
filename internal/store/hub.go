package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/mmcdole/moviedb/internal/domain"
)

// loader reads the full favorite set ordered by ID
type loader func() ([]domain.FavoriteRecord, error)

// hub fans snapshots out to live subscribers.
//
// mu is held across a write and the publication that follows it, so every
// subscriber observes snapshots in commit order. Each subscriber channel has
// a buffer of one; an unread snapshot is replaced by the newer one.
type hub struct {
	mu     sync.Mutex
	subs   map[int]chan []domain.FavoriteRecord
	nextID int
	closed bool
	done   chan struct{}
	logger *slog.Logger
}

func newHub(logger *slog.Logger) *hub {
	return &hub{
		subs:   make(map[int]chan []domain.FavoriteRecord),
		done:   make(chan struct{}),
		logger: logger,
	}
}

// commit runs write and, when it succeeds, publishes the set returned by load
func (h *hub) commit(op string, write func() error, load loader) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return domain.StoreFailure(op, domain.ErrStoreClosed)
	}
	if err := write(); err != nil {
		return domain.StoreFailure(op, err)
	}

	snap, err := load()
	if err != nil {
		// The write landed; subscribers catch up on the next successful publish
		h.logger.Error("failed to load favorites snapshot", "op", op, "error", err)
		return nil
	}
	for _, ch := range h.subs {
		offer(ch, snap)
	}
	return nil
}

// subscribe registers a subscriber primed with the current set.
// The channel closes when ctx is done or the hub is closed.
func (h *hub) subscribe(ctx context.Context, load loader) (<-chan []domain.FavoriteRecord, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, domain.StoreFailure("observe favorites", domain.ErrStoreClosed)
	}
	snap, err := load()
	if err != nil {
		return nil, domain.StoreFailure("observe favorites", err)
	}

	id := h.nextID
	h.nextID++
	ch := make(chan []domain.FavoriteRecord, 1)
	ch <- snap
	h.subs[id] = ch

	go func() {
		select {
		case <-ctx.Done():
		case <-h.done:
			return
		}
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}()

	return ch, nil
}

// close closes every subscriber and runs release once
func (h *hub) close(release func() error) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true
	close(h.done)
	for id, ch := range h.subs {
		delete(h.subs, id)
		close(ch)
	}
	if release != nil {
		return release()
	}
	return nil
}

// offer replaces any unread snapshot with snap. Callers hold h.mu, so the
// channel has room after the drain.
func offer(ch chan []domain.FavoriteRecord, snap []domain.FavoriteRecord) {
	select {
	case <-ch:
	default:
	}
	out := make([]domain.FavoriteRecord, len(snap))
	copy(out, snap)
	select {
	case ch <- out:
	default:
	}
}
