package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

func ConnectRedis(addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return rdb, nil
}

// Cache agrupa as primitivas de Redis usadas pela carteira: contadores de janela fixa,
// bloqueios temporários e publicação em canais
type Cache struct {
	client *redis.Client
}

func New(client *redis.Client) *Cache { return &Cache{client: client} }

// IncrWithExpire incrementa a chave e define o TTL na primeira ocorrência da janela
func (c *Cache) IncrWithExpire(ctx context.Context, key string, window time.Duration) (int64, error) {
	cnt, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}

	if cnt == 1 {
		_ = c.client.Expire(ctx, key, window).Err()
	}

	return cnt, nil
}

// Block marca a chave como bloqueada por d
func (c *Cache) Block(ctx context.Context, key string, d time.Duration) error {
	return c.client.Set(ctx, key+":blocked", "1", d).Err()
}

// BlockedFor retorna o tempo restante de bloqueio (zero se livre)
func (c *Cache) BlockedFor(ctx context.Context, key string) (time.Duration, error) {
	ttl, err := c.client.TTL(ctx, key+":blocked").Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	if ttl < 0 {
		return 0, nil
	}
	return ttl, nil
}

// PublishJSON serializa v e publica no canal
func (c *Cache) PublishJSON(ctx context.Context, channel string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, channel, b).Err()
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
