package repository

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/redis/go-redis/v9"

	"github.com/jupiterclapton/cenackle-social/services/social-service/internal/core/domain"
)

// toggleScript : test + écriture dans un seul script, exécuté atomiquement par Redis.
// Renvoie 1 si le like vient d'être posé, 0 s'il vient d'être retiré.
var toggleScript = redis.NewScript(`
if redis.call('SISMEMBER', KEYS[1], ARGV[1]) == 1 then
	redis.call('SREM', KEYS[1], ARGV[1])
	return 0
end
redis.call('SADD', KEYS[1], ARGV[1])
return 1
`)

// RedisLikeRepo : un Set par post ("likes:post:<id>") contenant les comptes qui l'aiment.
type RedisLikeRepo struct {
	client *redis.Client
}

func NewRedisLikeRepo(client *redis.Client) *RedisLikeRepo {
	return &RedisLikeRepo{client: client}
}

func likesKey(postID string) string {
	return fmt.Sprintf("likes:post:%s", postID)
}

func (r *RedisLikeRepo) Toggle(ctx context.Context, like *domain.Like) (bool, error) {
	n, err := toggleScript.Run(ctx, r.client, []string{likesKey(like.PostID)}, like.AccountID).Int()
	if err != nil {
		return false, redisError(err)
	}
	return n == 1, nil
}

func (r *RedisLikeRepo) Count(ctx context.Context, postID string) (int, error) {
	n, err := r.client.SCard(ctx, likesKey(postID)).Result()
	if err != nil {
		return 0, redisError(err)
	}
	return int(n), nil
}

func (r *RedisLikeRepo) Exists(ctx context.Context, accountID, postID string) (bool, error) {
	ok, err := r.client.SIsMember(ctx, likesKey(postID), accountID).Result()
	return ok, redisError(err)
}

func redisError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return err
	}
	var netErr net.Error
	if errors.Is(err, redis.ErrClosed) || errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return fmt.Errorf("redis: %w", err)
}
