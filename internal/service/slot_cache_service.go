package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"doctor-appointment-api/internal/domain/entity"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

const (
	// RedisBookedSlotsKeyPrefix + "{doctorID}:{YYYY-MM-DD}" holds the JSON list of booked slot labels.
	RedisBookedSlotsKeyPrefix = "slots:booked:"
	// RedisSlotGenerationKeyPrefix + "{doctorID}:{YYYY-MM-DD}" counts invalidations of that list.
	RedisSlotGenerationKeyPrefix = "slots:gen:"

	slotCacheTimeout = 2 * time.Second
)

// setIfGenerationScript stores the list only if no invalidation happened since the loader started.
// KEYS[1] = list key, KEYS[2] = generation key
// ARGV[1] = generation seen before loading, ARGV[2] = JSON list, ARGV[3] = ttl in ms
var setIfGenerationScript = redis.NewScript(`
	local current = redis.call('GET', KEYS[2]) or '0'
	if current ~= ARGV[1] then
		return 0
	end
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
	return 1
`)

// SlotLoader reads the authoritative booked slots from the database.
type SlotLoader func(ctx context.Context) ([]string, error)

// SlotCache is a read-through cache of booked slots per (doctor, date). It is never consulted
// when booking; the unique index is the only arbiter there.
type SlotCache interface {
	BookedSlots(ctx context.Context, doctorID uuid.UUID, date time.Time, load SlotLoader) ([]string, error)
	Invalidate(ctx context.Context, doctorID uuid.UUID, date time.Time)
}

type slotCache struct {
	redisClient *redis.Client
	log         *logrus.Logger
	maxTTL      time.Duration
	group       singleflight.Group
}

func NewSlotCache(redisClient *redis.Client, log *logrus.Logger, maxTTL time.Duration) SlotCache {
	return &slotCache{
		redisClient: redisClient,
		log:         log,
		maxTTL:      maxTTL,
	}
}

// BookedSlots returns the cached list, or loads it once per key across concurrent callers
// and populates Redis. Redis failures are logged and fall back to load. A fill racing an
// Invalidate is dropped, so a list read before a booking committed is never cached.
func (c *slotCache) BookedSlots(ctx context.Context, doctorID uuid.UUID, date time.Time, load SlotLoader) ([]string, error) {
	key := bookedSlotsKey(doctorID, date)

	if slots, ok := c.get(ctx, key); ok {
		return slots, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		genKey := slotGenerationKey(doctorID, date)
		gen, genOK := c.generation(ctx, genKey)

		slots, err := load(ctx)
		if err != nil {
			return nil, err
		}
		if genOK {
			c.set(ctx, key, genKey, gen, slots, c.calculateTTL(date))
		}
		return slots, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]string), nil
}

// Invalidate bumps the generation and drops the cached list. Called after book, cancel and
// status changes commit.
func (c *slotCache) Invalidate(ctx context.Context, doctorID uuid.UUID, date time.Time) {
	key := bookedSlotsKey(doctorID, date)
	genKey := slotGenerationKey(doctorID, date)
	rctx, cancel := context.WithTimeout(ctx, slotCacheTimeout)
	defer cancel()

	pipe := c.redisClient.TxPipeline()
	pipe.Incr(rctx, genKey)
	// Outlives any list it guards.
	pipe.Expire(rctx, genKey, c.calculateTTL(date)+time.Hour)
	pipe.Del(rctx, key)
	if _, err := pipe.Exec(rctx); err != nil {
		c.log.Warnf("Failed to invalidate booked slots %s: %+v", key, err)
		return
	}
	c.log.Debugf("Invalidated booked slots %s", key)
}

// generation reads the invalidation counter; false means Redis could not be read and nothing
// should be cached.
func (c *slotCache) generation(ctx context.Context, genKey string) (string, bool) {
	rctx, cancel := context.WithTimeout(ctx, slotCacheTimeout)
	defer cancel()

	gen, err := c.redisClient.Get(rctx, genKey).Result()
	if err == redis.Nil {
		return "0", true
	}
	if err != nil {
		c.log.Warnf("Failed to read slot generation %s: %+v", genKey, err)
		return "", false
	}
	return gen, true
}

func (c *slotCache) get(ctx context.Context, key string) ([]string, bool) {
	rctx, cancel := context.WithTimeout(ctx, slotCacheTimeout)
	defer cancel()

	raw, err := c.redisClient.Get(rctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.log.Warnf("Failed to read booked slots %s from Redis: %+v", key, err)
		}
		return nil, false
	}

	var slots []string
	if err := json.Unmarshal(raw, &slots); err != nil {
		c.log.Warnf("Discarding malformed booked slots %s: %+v", key, err)
		return nil, false
	}
	return slots, true
}

func (c *slotCache) set(ctx context.Context, key, genKey, gen string, slots []string, ttl time.Duration) {
	if slots == nil {
		slots = []string{}
	}
	raw, err := json.Marshal(slots)
	if err != nil {
		return
	}

	rctx, cancel := context.WithTimeout(ctx, slotCacheTimeout)
	defer cancel()

	stored, err := setIfGenerationScript.Run(rctx, c.redisClient, []string{key, genKey}, gen, raw, ttl.Milliseconds()).Int()
	if err != nil {
		c.log.Warnf("Failed to cache booked slots %s: %+v", key, err)
		return
	}
	if stored == 0 {
		c.log.Debugf("Skipped caching booked slots %s, invalidated while loading", key)
	}
}

// calculateTTL keeps an entry until the day after the appointment date, capped at maxTTL.
func (c *slotCache) calculateTTL(date time.Time) time.Duration {
	ttl := time.Until(date.AddDate(0, 0, 1))
	if ttl <= 0 {
		// Past date - short TTL for cleanup
		return time.Minute
	}
	if c.maxTTL > 0 && ttl > c.maxTTL {
		return c.maxTTL
	}
	return ttl
}

func bookedSlotsKey(doctorID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("%s%s:%s", RedisBookedSlotsKeyPrefix, doctorID, date.Format(entity.DateLayout))
}

func slotGenerationKey(doctorID uuid.UUID, date time.Time) string {
	return fmt.Sprintf("%s%s:%s", RedisSlotGenerationKeyPrefix, doctorID, date.Format(entity.DateLayout))
}
