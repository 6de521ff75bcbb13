package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"orderapp/internal/domain/model"
	repo "orderapp/internal/repository"

	"github.com/redis/go-redis/v9"
)

type orderRedisCache struct {
	client *redis.Client
}

// DI
// TTLはRedis側の設定に任せる。
func NewOrderRedisCache(client *redis.Client) repo.OrderCache {
	return &orderRedisCache{client: client}
}

func orderKey(orderID int64) string {
	return fmt.Sprintf("order:%d", orderID)
}

func (c *orderRedisCache) Get(ctx context.Context, orderID int64) (model.Order, bool, error) {
	raw, err := c.client.Get(ctx, orderKey(orderID)).Result()
	if err == redis.Nil {
		return model.Order{}, false, nil
	}
	if err != nil {
		return model.Order{}, false, err
	}

	var o model.Order
	if err := json.Unmarshal([]byte(raw), &o); err != nil {
		//壊れたエントリはミス扱い
		return model.Order{}, false, err
	}
	return o, true, nil
}

func (c *orderRedisCache) Set(ctx context.Context, order model.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, orderKey(order.ID), data, 0).Err()
}

func (c *orderRedisCache) Invalidate(ctx context.Context, orderID int64) error {
	return c.client.Del(ctx, orderKey(orderID)).Err()
}
