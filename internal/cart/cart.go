package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sol1corejz/marketcore/internal/models"
)

// Store holds the server-owned cart per buyer, so checkout always prices from
// authoritative state instead of a client-reconstructed snapshot.
type Store interface {
	Get(ctx context.Context, userID uuid.UUID) (models.Cart, error)
	Replace(ctx context.Context, c models.Cart) error
	Clear(ctx context.Context, userID uuid.UUID) error
}

func validate(c models.Cart) error {
	for _, it := range c.Items {
		if it.UnitPriceCents < 0 || it.Quantity <= 0 {
			return models.ErrInvalidAmount
		}
	}
	return nil
}

func cartKey(userID uuid.UUID) string {
	return "cart:" + userID.String()
}

type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(addr string, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	ctx := context.Background()
	if _, err := client.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, ttl: ttl}, nil
}

func (s *RedisStore) Get(ctx context.Context, userID uuid.UUID) (models.Cart, error) {
	data, err := s.client.Get(ctx, cartKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Cart{UserID: userID}, nil
	}
	if err != nil {
		return models.Cart{}, err
	}

	var c models.Cart
	if err := json.Unmarshal(data, &c); err != nil {
		return models.Cart{}, err
	}
	return c, nil
}

func (s *RedisStore) Replace(ctx context.Context, c models.Cart) error {
	if err := validate(c); err != nil {
		return err
	}
	c.UpdatedAt = time.Now()

	data, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, cartKey(c.UserID), data, s.ttl).Err()
}

func (s *RedisStore) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.client.Del(ctx, cartKey(userID)).Err()
}

type MemoryStore struct {
	mu    sync.Mutex
	carts map[uuid.UUID]models.Cart
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[uuid.UUID]models.Cart)}
}

func (s *MemoryStore) Get(_ context.Context, userID uuid.UUID) (models.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[userID]
	if !ok {
		return models.Cart{UserID: userID}, nil
	}
	return c, nil
}

func (s *MemoryStore) Replace(_ context.Context, c models.Cart) error {
	if err := validate(c); err != nil {
		return err
	}
	c.UpdatedAt = time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[c.UserID] = c
	return nil
}

func (s *MemoryStore) Clear(_ context.Context, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
	return nil
}
