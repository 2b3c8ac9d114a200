package email

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStorage implements QueueRepository, DueLister, Claimer and LogRepository
// in memory. It is meant for tests and local development.
type MemoryStorage struct {
	mu     sync.RWMutex
	items  map[uuid.UUID]*QueueItem
	order  []uuid.UUID
	leases map[uuid.UUID]time.Time
	logs   []*Log
	now    func() time.Time
}

// NewMemoryStorage creates an empty storage. The optional clock is used for claim leases.
func NewMemoryStorage(now ...func() time.Time) *MemoryStorage {
	clock := time.Now
	if len(now) > 0 && now[0] != nil {
		clock = now[0]
	}
	return &MemoryStorage{
		items:  make(map[uuid.UUID]*QueueItem),
		leases: make(map[uuid.UUID]time.Time),
		now:    clock,
	}
}

// CreateQueueItem stores a copy of item, assigning an ID when it has none.
func (ms *MemoryStorage) CreateQueueItem(ctx context.Context, item *QueueItem) error {
	if item == nil {
		return fmt.Errorf("%w: nil queue item", ErrInvalidInput)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	if _, exists := ms.items[item.ID]; exists {
		return fmt.Errorf("queue item with ID %s already exists", item.ID)
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = ms.now()
	}

	ms.items[item.ID] = item.Clone()
	ms.order = append(ms.order, item.ID)
	return nil
}

// MarkProcessed flags the item processed and drops its lease.
func (ms *MemoryStorage) MarkProcessed(ctx context.Context, id uuid.UUID, at time.Time) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	item, ok := ms.items[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrQueueItemNotFound, id)
	}
	item.Processed = true
	item.ProcessedAt = &at
	delete(ms.leases, id)
	return nil
}

// ListDue returns copies of pending, unleased items whose processing date has passed,
// in creation order.
func (ms *MemoryStorage) ListDue(ctx context.Context, now time.Time, limit int) ([]*QueueItem, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	var due []*QueueItem
	for _, id := range ms.order {
		item := ms.items[id]
		if !item.Due(now) || ms.leased(id, now) {
			continue
		}
		due = append(due, item.Clone())
		if limit > 0 && len(due) == limit {
			break
		}
	}
	return due, nil
}

// Claim reserves a pending item until ttl elapses.
func (ms *MemoryStorage) Claim(ctx context.Context, id uuid.UUID, ttl time.Duration) (bool, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	item, ok := ms.items[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrQueueItemNotFound, id)
	}
	now := ms.now()
	if item.Processed || ms.leased(id, now) {
		return false, nil
	}
	ms.leases[id] = now.Add(ttl)
	return true, nil
}

// Release drops the lease on an item.
func (ms *MemoryStorage) Release(ctx context.Context, id uuid.UUID) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()

	delete(ms.leases, id)
	return nil
}

func (ms *MemoryStorage) leased(id uuid.UUID, now time.Time) bool {
	until, ok := ms.leases[id]
	return ok && now.Before(until)
}

// CreateLog appends a copy of log, assigning an ID when it has none.
func (ms *MemoryStorage) CreateLog(ctx context.Context, log *Log) error {
	if log == nil {
		return fmt.Errorf("%w: nil log", ErrInvalidInput)
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	c := *log
	ms.logs = append(ms.logs, &c)
	return nil
}

// QueueItems returns copies of every stored item in creation order.
func (ms *MemoryStorage) QueueItems() []*QueueItem {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	items := make([]*QueueItem, 0, len(ms.order))
	for _, id := range ms.order {
		items = append(items, ms.items[id].Clone())
	}
	return items
}

// QueueItem returns a copy of the item with the given id.
func (ms *MemoryStorage) QueueItem(id uuid.UUID) (*QueueItem, bool) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	item, ok := ms.items[id]
	if !ok {
		return nil, false
	}
	return item.Clone(), true
}

// Logs returns copies of every stored log in insertion order.
func (ms *MemoryStorage) Logs() []Log {
	ms.mu.RLock()
	defer ms.mu.RUnlock()

	logs := make([]Log, 0, len(ms.logs))
	for _, l := range ms.logs {
		logs = append(logs, *l)
	}
	return logs
}

var (
	_ QueueRepository = (*MemoryStorage)(nil)
	_ DueLister       = (*MemoryStorage)(nil)
	_ Claimer         = (*MemoryStorage)(nil)
	_ LogRepository   = (*MemoryStorage)(nil)
)
