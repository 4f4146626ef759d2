package repository

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const (
	sessionKeyPrefix = "session:"
	oauthStatePrefix = "wechat_state:"
)

// SessionRepository 基于 Redis Hash 的会话存储，每个会话一个 key
type SessionRepository struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewSessionRepository(rdb *redis.Client, ttl time.Duration) *SessionRepository {
	return &SessionRepository{Redis: rdb, TTL: ttl}
}

// Get 字段不存在时返回空字符串
func (r *SessionRepository) Get(ctx context.Context, sessionKey, field string) (string, error) {
	val, err := r.Redis.HGet(ctx, sessionKeyPrefix+sessionKey, field).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

func (r *SessionRepository) GetAll(ctx context.Context, sessionKey string) (map[string]string, error) {
	return r.Redis.HGetAll(ctx, sessionKeyPrefix+sessionKey).Result()
}

// Set 写入字段并刷新有效期
func (r *SessionRepository) Set(ctx context.Context, sessionKey string, values map[string]string) error {
	key := sessionKeyPrefix + sessionKey
	fields := make(map[string]interface{}, len(values))
	for k, v := range values {
		fields[k] = v
	}
	pipe := r.Redis.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.Expire(ctx, key, r.TTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *SessionRepository) Delete(ctx context.Context, sessionKey string, fields ...string) error {
	return r.Redis.HDel(ctx, sessionKeyPrefix+sessionKey, fields...).Err()
}

// SaveState 保存微信授权 state 对应的跳转地址
func (r *SessionRepository) SaveState(ctx context.Context, state, next string, ttl time.Duration) error {
	return r.Redis.Set(ctx, oauthStatePrefix+state, next, ttl).Err()
}

// TakeState 取出并删除 state，state 只能使用一次
func (r *SessionRepository) TakeState(ctx context.Context, state string) (string, bool, error) {
	key := oauthStatePrefix + state
	pipe := r.Redis.TxPipeline()
	get := pipe.Get(ctx, key)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil && err != redis.Nil {
		return "", false, err
	}
	next, err := get.Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return next, true, nil
}
