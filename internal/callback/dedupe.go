package callback

import (
	"sync"
	"time"

	"github.com/lashkaryadi/get-me-a-tutor/internal/domain"
)

// completedOrders remembers purchases already completed, so a checkout that
// posts the same order twice is answered without verifying it again.
// Entries expire after ttl and are dropped lazily.
type completedOrders struct {
	mu      sync.Mutex
	entries map[string]completedOrder
	ttl     time.Duration
	now     func() time.Time
}

type completedOrder struct {
	result domain.PurchaseResult
	at     time.Time
}

func newCompletedOrders(ttl time.Duration) *completedOrders {
	return &completedOrders{
		entries: make(map[string]completedOrder),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns the stored result for orderID when it has not expired.
func (c *completedOrders) Get(orderID string) (domain.PurchaseResult, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[orderID]
	if !ok {
		return domain.PurchaseResult{}, false
	}
	if c.now().Sub(e.at) > c.ttl {
		delete(c.entries, orderID)
		return domain.PurchaseResult{}, false
	}
	return e.result, true
}

// Add records a completed purchase.
func (c *completedOrders) Add(orderID string, result domain.PurchaseResult) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[orderID] = completedOrder{result: result, at: c.now()}
}

// Len reports the number of entries, expired ones included.
func (c *completedOrders) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
