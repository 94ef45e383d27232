package store

import (
	"context"
	"time"
)

type resetTokenOverride struct {
	Store
	tokens ResetTokenStore
}

// WithResetTokens returns base with reset token storage delegated to tokens.
func WithResetTokens(base Store, tokens ResetTokenStore) Store {
	if tokens == nil {
		return base
	}
	return resetTokenOverride{Store: base, tokens: tokens}
}

func (s resetTokenOverride) SaveResetToken(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	return s.tokens.SaveResetToken(ctx, tokenHash, userID, expiresAt)
}

func (s resetTokenOverride) ConsumeResetToken(ctx context.Context, tokenHash string) (string, time.Time, error) {
	return s.tokens.ConsumeResetToken(ctx, tokenHash)
}

func (s resetTokenOverride) PurgeExpiredResetTokens(ctx context.Context, before time.Time) (int64, error) {
	return s.tokens.PurgeExpiredResetTokens(ctx, before)
}
