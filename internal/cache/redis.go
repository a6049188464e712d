package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ammaritto/short-stay/config"
	"github.com/ammaritto/short-stay/internal/domain"
	"github.com/ammaritto/short-stay/internal/format"
)

// AvailabilityCache keeps recent search responses keyed by the confirmed
// criteria. It is optional; every caller tolerates a nil cache.
type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewAvailabilityCache(cfg config.RedisConfig, ttl time.Duration) *AvailabilityCache {
	return &AvailabilityCache{
		client: redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		ttl:    ttl,
	}
}

func (c *AvailabilityCache) Get(ctx context.Context, cs domain.ConfirmedSearch) ([]domain.Unit, error) {
	data, err := c.client.Get(ctx, searchKey(cs)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var units []domain.Unit
	if err := json.Unmarshal(data, &units); err != nil {
		return nil, err
	}
	return units, nil
}

func (c *AvailabilityCache) Set(ctx context.Context, cs domain.ConfirmedSearch, units []domain.Unit) error {
	payload, err := json.Marshal(units)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, searchKey(cs), payload, c.ttl).Err()
}

func searchKey(cs domain.ConfirmedSearch) string {
	ids := make([]string, len(cs.Communities))
	for i, id := range cs.Communities {
		ids[i] = strconv.Itoa(id)
	}
	return fmt.Sprintf("cache:availability:%s:%s:%d:%s",
		format.ISO(cs.StartDate), format.ISO(cs.EndDate), cs.Guests, strings.Join(ids, ","))
}
