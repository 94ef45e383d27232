package store

import (
	"context"
	"time"

	"redeemr/rewards-service/internal/models"
)

type CreateUserInput struct {
	Email           string
	Name            string
	PasswordHash    string
	IsSuperuser     bool
	IsBusinessOwner bool
}

type CreateRewardInput struct {
	BusinessID     string
	Name           string
	PointsRequired int
}

type UserStore interface {
	CreateUser(ctx context.Context, input CreateUserInput) (models.User, error)
	GetUserByID(ctx context.Context, userID string) (models.User, error)
	GetUserByEmail(ctx context.Context, email string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	TouchLastLogin(ctx context.Context, userID string, at time.Time) error
	SetSuperuser(ctx context.Context, userID string, value bool) (models.User, error)
}

type BusinessStore interface {
	// CreateBusiness inserts a pending business and marks the owner as a
	// business owner in the same transaction.
	CreateBusiness(ctx context.Context, ownerID, name string) (models.Business, error)
	GetBusiness(ctx context.Context, businessID string) (models.Business, error)
	GetBusinessByOwner(ctx context.Context, ownerID string) (models.Business, error)
	ListBusinesses(ctx context.Context) ([]models.Business, error)
	// ApplyTransition locks the business row and applies action. For reject
	// and delete the returned business is the state before removal.
	ApplyTransition(ctx context.Context, businessID string, action string) (models.Business, error)
}

type RewardStore interface {
	CreateReward(ctx context.Context, input CreateRewardInput) (models.Reward, error)
	GetReward(ctx context.Context, rewardID string) (models.Reward, error)
	ListRewards(ctx context.Context, businessID string) ([]models.Reward, error)
	CreateRedemption(ctx context.Context, userID, rewardID string) (models.Redemption, error)
	ListRedemptions(ctx context.Context, userID string) ([]models.Redemption, error)
}

type ResetTokenStore interface {
	SaveResetToken(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error
	// ConsumeResetToken removes the token and returns what it was bound to.
	ConsumeResetToken(ctx context.Context, tokenHash string) (string, time.Time, error)
	PurgeExpiredResetTokens(ctx context.Context, before time.Time) (int64, error)
}

type Store interface {
	UserStore
	BusinessStore
	RewardStore
	ResetTokenStore
	Ping(ctx context.Context) error
	Close() error
}
