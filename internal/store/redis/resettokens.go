package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"redeemr/rewards-service/internal/store"

	goredis "github.com/go-redis/redis/v8"
)

const keyPrefix = "rewards:reset:"

// ExpiredGrace keeps expired tokens around so they can be reported as
// expired rather than unknown.
const ExpiredGrace = time.Hour

type ResetTokenStore struct {
	client *goredis.Client
}

func NewResetTokenStore(client *goredis.Client) *ResetTokenStore {
	return &ResetTokenStore{client: client}
}

func (s *ResetTokenStore) SaveResetToken(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt) + ExpiredGrace
	if ttl <= 0 {
		ttl = ExpiredGrace
	}
	value := userID + "|" + strconv.FormatInt(expiresAt.Unix(), 10)
	return s.client.Set(ctx, keyPrefix+tokenHash, value, ttl).Err()
}

func (s *ResetTokenStore) ConsumeResetToken(ctx context.Context, tokenHash string) (string, time.Time, error) {
	value, err := s.client.GetDel(ctx, keyPrefix+tokenHash).Result()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return "", time.Time{}, store.ErrNotFound
		}
		return "", time.Time{}, err
	}
	userID, rawExpiry, ok := strings.Cut(value, "|")
	if !ok {
		return "", time.Time{}, fmt.Errorf("malformed reset token record")
	}
	unix, err := strconv.ParseInt(rawExpiry, 10, 64)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("malformed reset token expiry: %w", err)
	}
	return userID, time.Unix(unix, 0).UTC(), nil
}

// PurgeExpiredResetTokens is a no-op; keys expire through their TTL.
func (s *ResetTokenStore) PurgeExpiredResetTokens(ctx context.Context, before time.Time) (int64, error) {
	return 0, nil
}
