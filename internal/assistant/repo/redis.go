package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/careerlog/server/internal/assistant/model"
	errx "github.com/careerlog/server/internal/core/error"
	logx "github.com/careerlog/server/pkg/logger"
)

// recentTurnsKept bounds the cross-date recent list.
const recentTurnsKept = 50

// RedisStore persists profiles, sessions and the turn log in Redis. Profiles
// and sessions are JSON values under typed keys; the turn log is one list per
// date plus a trimmed recent list.
type RedisStore struct {
	rdb        redis.Cmdable
	sessionTTL time.Duration
}

func NewRedisStore(rdb redis.Cmdable, sessionTTL time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, sessionTTL: sessionTTL}
}

func (r *RedisStore) profileKey(uid model.UserID) string {
	return fmt.Sprintf("profile:%s", uid)
}

func (r *RedisStore) sessionKey(uid model.UserID) string {
	return fmt.Sprintf("session:%s", uid)
}

func (r *RedisStore) turnsKey(uid model.UserID, date string) string {
	return fmt.Sprintf("turns:%s:%s", uid, date)
}

func (r *RedisStore) recentKey(uid model.UserID) string {
	return fmt.Sprintf("turns:%s:recent", uid)
}

func (r *RedisStore) GetProfile(ctx context.Context, uid model.UserID) (*model.Profile, error) {
	raw, err := r.rdb.Get(ctx, r.profileKey(uid)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		logx.Error().Err(err).Str("userID", uid.String()).Msg("failed to load profile")
		return nil, errx.WrapRedis(err)
	}

	var p model.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, fmt.Errorf("unmarshal profile: %w", err)
	}
	return &p, nil
}

func (r *RedisStore) UpsertProfile(ctx context.Context, uid model.UserID, profile *model.Profile) error {
	b, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	if err := r.rdb.Set(ctx, r.profileKey(uid), b, 0).Err(); err != nil {
		logx.Error().Err(err).Str("userID", uid.String()).Msg("failed to write profile")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisStore) GetSession(ctx context.Context, uid model.UserID) (*model.SessionState, error) {
	raw, err := r.rdb.Get(ctx, r.sessionKey(uid)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		logx.Error().Err(err).Str("userID", uid.String()).Msg("failed to load session")
		return nil, errx.WrapRedis(err)
	}

	var s model.SessionState
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &s, nil
}

func (r *RedisStore) UpsertSession(ctx context.Context, uid model.UserID, session *model.SessionState) error {
	b, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := r.rdb.Set(ctx, r.sessionKey(uid), b, r.sessionTTL).Err(); err != nil {
		logx.Error().Err(err).Str("userID", uid.String()).Msg("failed to write session")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisStore) DeleteSession(ctx context.Context, uid model.UserID) error {
	if err := r.rdb.Del(ctx, r.sessionKey(uid)).Err(); err != nil {
		logx.Error().Err(err).Str("userID", uid.String()).Msg("failed to delete session")
		return errx.WrapRedis(err)
	}
	return nil
}

func (r *RedisStore) AppendTurn(ctx context.Context, uid model.UserID, turn model.Turn) (string, error) {
	if turn.ID == "" {
		turn.ID = uuid.NewString()
	}
	b, err := json.Marshal(turn)
	if err != nil {
		return "", fmt.Errorf("marshal turn: %w", err)
	}

	date := model.DateKey(turn.Timestamp)
	pipe := r.rdb.TxPipeline()
	pipe.RPush(ctx, r.turnsKey(uid, date), b)
	pipe.RPush(ctx, r.recentKey(uid), b)
	pipe.LTrim(ctx, r.recentKey(uid), -recentTurnsKept, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		logx.Error().Err(err).Str("userID", uid.String()).Msg("failed to append turn")
		return "", errx.WrapRedis(err)
	}
	return turn.ID, nil
}

func (r *RedisStore) TurnsForDate(ctx context.Context, uid model.UserID, date string, limit int) ([]model.Turn, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	rows, err := r.rdb.LRange(ctx, r.turnsKey(uid, date), 0, stop).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		logx.Error().Err(err).Str("userID", uid.String()).Str("date", date).Msg("failed to load turns")
		return nil, errx.WrapRedis(err)
	}
	return decodeTurns(rows)
}

func (r *RedisStore) RecentTurns(ctx context.Context, uid model.UserID, limit int) ([]model.Turn, error) {
	start := int64(0)
	if limit > 0 {
		start = -int64(limit)
	}
	rows, err := r.rdb.LRange(ctx, r.recentKey(uid), start, -1).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		logx.Error().Err(err).Str("userID", uid.String()).Msg("failed to load recent turns")
		return nil, errx.WrapRedis(err)
	}
	return decodeTurns(rows)
}

func (r *RedisStore) HasTurnsOnDate(ctx context.Context, uid model.UserID, date string) (bool, error) {
	n, err := r.rdb.Exists(ctx, r.turnsKey(uid, date)).Result()
	if err != nil {
		return false, errx.WrapRedis(err)
	}
	return n > 0, nil
}

// Commit writes one message's buffered mutations in a single transaction so
// that a mid-handler failure never leaves partially applied state behind.
func (r *RedisStore) Commit(ctx context.Context, uid model.UserID, profile *model.Profile, session *model.SessionState, turn *model.Turn) error {
	pipe := r.rdb.TxPipeline()

	if profile != nil {
		b, err := json.Marshal(profile)
		if err != nil {
			return fmt.Errorf("marshal profile: %w", err)
		}
		pipe.Set(ctx, r.profileKey(uid), b, 0)
	}

	if session != nil {
		b, err := json.Marshal(session)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}
		pipe.Set(ctx, r.sessionKey(uid), b, r.sessionTTL)
	} else {
		pipe.Del(ctx, r.sessionKey(uid))
	}

	if turn != nil {
		if turn.ID == "" {
			turn.ID = uuid.NewString()
		}
		b, err := json.Marshal(turn)
		if err != nil {
			return fmt.Errorf("marshal turn: %w", err)
		}
		date := model.DateKey(turn.Timestamp)
		pipe.RPush(ctx, r.turnsKey(uid, date), b)
		pipe.RPush(ctx, r.recentKey(uid), b)
		pipe.LTrim(ctx, r.recentKey(uid), -recentTurnsKept, -1)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		logx.Error().Err(err).Str("userID", uid.String()).Msg("failed to commit message state")
		return errx.WrapRedis(err)
	}
	return nil
}

func decodeTurns(rows []string) ([]model.Turn, error) {
	turns := make([]model.Turn, 0, len(rows))
	for i, s := range rows {
		var t model.Turn
		if err := json.Unmarshal([]byte(s), &t); err != nil {
			return nil, fmt.Errorf("unmarshal turn at index %d: %w", i, err)
		}
		turns = append(turns, t)
	}
	return turns, nil
}

var _ model.Store = (*RedisStore)(nil)
