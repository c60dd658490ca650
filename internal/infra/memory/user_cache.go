package memory

import (
	"context"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"dailyquest-service/internal/app"
	"dailyquest-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// UserCache caches UserByID lookups with TTL to avoid a database hit per
// authenticated request. Writes go through and evict the cached entry.
type UserCache struct {
	app.UserRepository

	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group

	mu    sync.Mutex
	rnd   *rand.Rand
	cache map[int64]cachedUser
	// gen counts evictions per id; a fill that raced a write is not stored.
	gen map[int64]uint64
}

type cachedUser struct {
	user      domain.User
	expiresAt time.Time
}

func NewUserCache(users app.UserRepository, ttl time.Duration) *UserCache {
	return &UserCache{
		UserRepository: users,
		ttl:            ttl,
		clock:          time.Now,
		rnd:            rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:          make(map[int64]cachedUser),
		gen:            make(map[int64]uint64),
	}
}

func (c *UserCache) UserByID(ctx context.Context, id int64) (domain.User, error) {
	if u, ok := c.lookup(id); ok {
		return u, nil
	}
	result, err, _ := c.sf.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		if u, ok := c.lookup(id); ok {
			return u, nil
		}
		c.mu.Lock()
		gen := c.gen[id]
		c.mu.Unlock()
		u, err := c.UserRepository.UserByID(ctx, id)
		if err != nil {
			return domain.User{}, err
		}
		c.mu.Lock()
		if c.gen[id] == gen {
			c.cache[id] = cachedUser{user: u, expiresAt: c.clock().Add(c.ttlWithJitter())}
		}
		c.mu.Unlock()
		return u, nil
	})
	if err != nil {
		return domain.User{}, err
	}
	return result.(domain.User), nil
}

func (c *UserCache) lookup(id int64) (domain.User, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.cache[id]
	if !ok || !entry.expiresAt.After(c.clock()) {
		return domain.User{}, false
	}
	return entry.user, true
}

func (c *UserCache) evict(id int64) {
	c.mu.Lock()
	delete(c.cache, id)
	c.gen[id]++
	c.mu.Unlock()
	c.sf.Forget(strconv.FormatInt(id, 10))
}

func (c *UserCache) UpdatePassword(ctx context.Context, id int64, hash string) error {
	defer c.evict(id)
	return c.UserRepository.UpdatePassword(ctx, id, hash)
}

func (c *UserCache) UpdatePrivacy(ctx context.Context, id int64, friends, answers domain.Privacy) error {
	defer c.evict(id)
	return c.UserRepository.UpdatePrivacy(ctx, id, friends, answers)
}

func (c *UserCache) SetAdmin(ctx context.Context, id int64, admin bool) error {
	defer c.evict(id)
	return c.UserRepository.SetAdmin(ctx, id, admin)
}

func (c *UserCache) UpdateStreak(ctx context.Context, id int64, step app.StreakStep) (domain.UserStreak, error) {
	defer c.evict(id)
	return c.UserRepository.UpdateStreak(ctx, id, step)
}

// WrapAnswers evicts the author's cached user whenever an answer updates a streak.
func (c *UserCache) WrapAnswers(answers app.AnswerRepository) app.AnswerRepository {
	return evictingAnswers{AnswerRepository: answers, cache: c}
}

type evictingAnswers struct {
	app.AnswerRepository
	cache *UserCache
}

func (a evictingAnswers) RecordAnswer(ctx context.Context, answer domain.Answer, step app.StreakStep) (domain.Answer, domain.UserStreak, error) {
	defer a.cache.evict(answer.UserID)
	return a.AnswerRepository.RecordAnswer(ctx, answer, step)
}

func (c *UserCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
