package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key 前缀
const mintPrefix = "progress:mint"

const defaultTTL = 72 * time.Hour

// RedisProgressStore 记录每个 mint 的发行进度，便于失败后排查与避免重复操作
type RedisProgressStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisProgressStore 创建 Redis 进度记录器，ttl<=0 时使用默认值
func NewRedisProgressStore(rdb *redis.Client, ttl time.Duration) *RedisProgressStore {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisProgressStore{rdb: rdb, ttl: ttl}
}

func getKey(mint string) string {
	return fmt.Sprintf("%s:%s", mintPrefix, mint)
}

// Ping 检查连通性，启动时调用
func (r *RedisProgressStore) Ping(ctx context.Context) error {
	if err := r.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping error: %w", err)
	}
	return nil
}

// MarkStatus 写入（合并）进度记录并刷新 TTL
func (r *RedisProgressStore) MarkStatus(ctx context.Context, rec *MintRecord) error {
	if rec.UpdatedAt == 0 {
		rec.UpdatedAt = time.Now().Unix()
	}
	key := getKey(rec.Mint)
	_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, rec.toFields())
		pipe.Expire(ctx, key, r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis mark %s status=%s error: %w", rec.Mint, rec.Status, err)
	}
	return nil
}

// GetRecord 读取进度记录，不存在时返回 MintUnknown 状态的空记录
func (r *RedisProgressStore) GetRecord(ctx context.Context, mint string) (*MintRecord, error) {
	m, err := r.rdb.HGetAll(ctx, getKey(mint)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get %s error: %w", mint, err)
	}
	if len(m) == 0 {
		return &MintRecord{Mint: mint, Status: MintUnknown}, nil
	}
	return recordFromFields(mint, m)
}

// GetStatus 仅获取状态
func (r *RedisProgressStore) GetStatus(ctx context.Context, mint string) (MintStatus, error) {
	v, err := r.rdb.HGet(ctx, getKey(mint), fieldStatus).Int()
	switch {
	case err == redis.Nil:
		return MintUnknown, nil
	case err != nil:
		return MintUnknown, fmt.Errorf("redis get %s status error: %w", mint, err)
	default:
		return MintStatus(v), nil
	}
}

func (r *RedisProgressStore) Close() error {
	return r.rdb.Close()
}
