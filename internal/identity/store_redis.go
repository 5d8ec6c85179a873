// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dripside-in/dripside-backend/internal/platform/constants"
)

// RedisSessionStore implements [SessionStore] using Redis.
//
// Each refresh jti is a string key holding the principal id, expiring with the
// token. A per-principal set indexes live jtis so RevokeAll can find them.
type RedisSessionStore struct {
	client *redis.Client
}

// NewSessionStore creates a new Redis-backed [SessionStore].
func NewSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(jti string) string {
	return constants.RedisPrefixRefresh + jti
}

func indexKey(principalID string) string {
	return constants.RedisPrefixRefreshIndex + principalID
}

/*
Store allows a refresh token id until ttl elapses.

Parameters:
  - context: context.Context
  - jti: string
  - principalID: string
  - ttl: time.Duration

Returns:
  - error: Storage failures
*/
func (repository *RedisSessionStore) Store(context context.Context, jti, principalID string, ttl time.Duration) error {
	_, err := repository.client.TxPipelined(context, func(pipe redis.Pipeliner) error {
		pipe.Set(context, sessionKey(jti), principalID, ttl)
		pipe.SAdd(context, indexKey(principalID), jti)
		pipe.Expire(context, indexKey(principalID), ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis_session_store_failed: %w", err)
	}
	return nil
}

/*
Consume atomically removes a refresh token id and returns its owner.

Description: GETDEL guarantees that two concurrent refreshes with the same
token cannot both succeed.

Returns:
  - string: Principal id
  - error: [ErrSessionNotFound] or connectivity errors
*/
func (repository *RedisSessionStore) Consume(context context.Context, jti string) (string, error) {
	principalID, err := repository.client.GetDel(context, sessionKey(jti)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrSessionNotFound
		}
		return "", fmt.Errorf("redis_session_consume_failed: %w", err)
	}

	if err := repository.client.SRem(context, indexKey(principalID), jti).Err(); err != nil {
		return "", fmt.Errorf("redis_session_index_failed: %w", err)
	}

	return principalID, nil
}

// Revoke removes a single refresh token id.
func (repository *RedisSessionStore) Revoke(context context.Context, jti string) error {
	_, err := repository.Consume(context, jti)
	if err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	return nil
}

// RevokeAll removes every refresh token id of a principal.
func (repository *RedisSessionStore) RevokeAll(context context.Context, principalID string) error {
	members, err := repository.client.SMembers(context, indexKey(principalID)).Result()
	if err != nil {
		return fmt.Errorf("redis_session_members_failed: %w", err)
	}

	keys := make([]string, 0, len(members)+1)
	for _, jti := range members {
		keys = append(keys, sessionKey(jti))
	}
	keys = append(keys, indexKey(principalID))

	if err := repository.client.Del(context, keys...).Err(); err != nil {
		return fmt.Errorf("redis_session_revoke_all_failed: %w", err)
	}
	return nil
}
