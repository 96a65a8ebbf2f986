package repository

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/TARS911/dongfeng-minitraktor-sub001/models"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "session:"

// SessionRepository keeps admin sessions in Redis as a hash per token that
// expires after the configured TTL.
type SessionRepository interface {
	CreateSession(ctx context.Context, userId int, role string) (sessionId string, expiresAt time.Time, err error)
	DeleteSession(ctx context.Context, sessionId string) (err error)
	GetUserSessionInfo(ctx context.Context, sessionId string) (userId int, role string, exists bool, err error)
}

type SessionRepo struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewSessionRepository(ctx context.Context, redisConn *redis.Client, ttl time.Duration) (SessionRepository, error) {
	if redisConn == nil {
		return nil, errors.New("conn must be non-nil")
	}
	err := redisConn.Ping(ctx).Err()
	if err != nil {
		return nil, err
	}
	return &SessionRepo{
		rdb: redisConn,
		ttl: ttl,
	}, nil
}

func (s *SessionRepo) CreateSession(ctx context.Context, userId int, role string) (sessionId string, expiresAt time.Time, err error) {
	sessionId = uuid.NewString()
	key := sessionKeyPrefix + sessionId

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "userId", userId, "role", role)
		pipe.Expire(ctx, key, s.ttl)
		return nil
	})
	if err != nil {
		slog.Error("CreateSession", "err", err)
		err = models.ErrServerError
		return
	}
	expiresAt = time.Now().Add(s.ttl)
	return
}

func (s *SessionRepo) DeleteSession(ctx context.Context, sessionId string) (err error) {
	err = s.rdb.Del(ctx, sessionKeyPrefix+sessionId).Err()
	if err != nil {
		slog.Error("DeleteSession", "err", err)
		err = models.ErrServerError
	}
	return
}

func (s *SessionRepo) GetUserSessionInfo(ctx context.Context, sessionId string) (userId int, role string, exists bool, err error) {
	val, err := s.rdb.HGetAll(ctx, sessionKeyPrefix+sessionId).Result()
	if err != nil {
		slog.Error("GetUserSessionInfo", "err", err)
		err = models.ErrServerError
		return
	}
	// HGETALL on a missing or expired key yields an empty map
	if len(val) == 0 {
		return
	}
	userId, _ = strconv.Atoi(val["userId"])
	role = val["role"]
	exists = true
	return
}
