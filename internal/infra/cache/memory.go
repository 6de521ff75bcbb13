package cache

import (
	"context"
	"sync"

	"orderapp/internal/domain/model"
	repo "orderapp/internal/repository"
)

type orderMemoryCache struct {
	mu     sync.RWMutex
	orders map[int64]model.Order
}

// Redisなしで動かすときとテスト用。
func NewOrderMemoryCache() repo.OrderCache {
	return &orderMemoryCache{orders: map[int64]model.Order{}}
}

func (c *orderMemoryCache) Get(ctx context.Context, orderID int64) (model.Order, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	o, ok := c.orders[orderID]
	return o, ok, nil
}

func (c *orderMemoryCache) Set(ctx context.Context, order model.Order) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.orders[order.ID] = order
	return nil
}

func (c *orderMemoryCache) Invalidate(ctx context.Context, orderID int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.orders, orderID)
	return nil
}
