package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/bookingdesk/config"
	"github.com/Domenick1991/bookingdesk/internal/domain"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the lock only when it still carries the caller's token, so an
// expired holder cannot release a lock someone else acquired since.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisCache struct {
	client     redis.UniversalClient
	flightsTTL time.Duration
}

func NewClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
}

func NewRedisCache(client redis.UniversalClient, flightsTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, flightsTTL: flightsTTL}
}

// GetFlights returns nil without error on a cache miss.
func (c *RedisCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	data, err := c.client.Get(ctx, flightsKey()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, err
	}

	var flights []domain.Flight
	if err := json.Unmarshal(data, &flights); err != nil {
		return nil, err
	}
	return flights, nil
}

func (c *RedisCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	payload, err := json.Marshal(flights)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, flightsKey(), payload, c.flightsTTL).Err()
}

// AcquireBookingLock takes the single-writer lock of a booking. ok is false when another
// writer holds it; the returned token is needed to release.
func (c *RedisCache) AcquireBookingLock(ctx context.Context, bookingID int64, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := c.client.SetNX(ctx, bookingLockKey(bookingID), token, ttl).Result()
	if err != nil {
		return "", false, fmt.Errorf("acquire booking lock %d: %w", bookingID, err)
	}
	return token, ok, nil
}

func (c *RedisCache) ReleaseBookingLock(ctx context.Context, bookingID int64, token string) error {
	if err := releaseScript.Run(ctx, c.client, []string{bookingLockKey(bookingID)}, token).Err(); err != nil {
		return fmt.Errorf("release booking lock %d: %w", bookingID, err)
	}
	return nil
}

// MarkCommandSeen reports whether the command id is new. Consumers use it to drop
// redelivered commands.
func (c *RedisCache) MarkCommandSeen(ctx context.Context, commandID string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, commandKey(commandID), 1, ttl).Result()
}

// ForgetCommand drops the seen mark so a redelivery is handled again.
func (c *RedisCache) ForgetCommand(ctx context.Context, commandID string) error {
	return c.client.Del(ctx, commandKey(commandID)).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func flightsKey() string {
	return "cache:flights"
}

func bookingLockKey(bookingID int64) string {
	return fmt.Sprintf("lock:booking:%d", bookingID)
}

func commandKey(id string) string {
	return fmt.Sprintf("seen:command:%s", id)
}
