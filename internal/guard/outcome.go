package guard

import (
	"sync"
	"time"

	"github.com/mealdesk/mealdesk-web/internal/models"
)

// outcome is a settled resolution.
type outcome struct {
	user    *models.User
	err     error
	renewed []string
	expires time.Time
}

// outcomes remembers settled resolutions per key until they expire.
type outcomes struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]outcome
}

func newOutcomes(ttl time.Duration, now func() time.Time) *outcomes {
	return &outcomes{
		ttl:   ttl,
		now:   now,
		items: make(map[string]outcome),
	}
}

func (o *outcomes) get(key string) (outcome, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	item, exists := o.items[key]
	if !exists {
		return outcome{}, false
	}

	if !o.now().Before(item.expires) {
		delete(o.items, key)

		return outcome{}, false
	}

	return item, true
}

func (o *outcomes) put(key string, item outcome) {
	if o.ttl <= 0 {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	item.expires = o.now().Add(o.ttl)
	o.items[key] = item

	o.sweep()
}

func (o *outcomes) forget(key string) {
	o.mu.Lock()
	defer o.mu.Unlock()

	delete(o.items, key)
}

// sweep drops expired items; the caller holds the lock.
func (o *outcomes) sweep() {
	now := o.now()
	for key, item := range o.items {
		if !now.Before(item.expires) {
			delete(o.items, key)
		}
	}
}
