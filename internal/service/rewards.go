package service

import (
	"context"
	"errors"
	"math"
	"strings"

	"redeemr/rewards-service/internal/models"
	"redeemr/rewards-service/internal/policy"
	"redeemr/rewards-service/internal/store"

	"github.com/sirupsen/logrus"
)

type Rewards struct {
	businesses store.BusinessStore
	rewards    store.RewardStore
	logger     logrus.FieldLogger
}

type CreateRewardInput struct {
	BusinessID     string
	Name           string
	PointsRequired int
}

// Create adds a reward to an approved business. Pending businesses refuse
// rewards for every caller, administrators included.
func (r *Rewards) Create(ctx context.Context, identity models.Identity, input CreateRewardInput) (models.Reward, error) {
	business, err := r.loadBusiness(ctx, input.BusinessID)
	if err != nil {
		return models.Reward{}, err
	}
	resource := policy.Resource{OwnerID: business.OwnerID, BusinessApproved: business.IsApproved}
	if !policy.Authorize(identity, policy.ActionCreateReward, resource).Allowed {
		return models.Reward{}, ErrForbidden
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return models.Reward{}, ErrEmptyName
	}
	if input.PointsRequired <= 0 || input.PointsRequired > math.MaxInt32 {
		return models.Reward{}, ErrInvalidPoints
	}
	if !business.IsApproved {
		return models.Reward{}, ErrBusinessNotApproved
	}

	reward, err := r.rewards.CreateReward(ctx, store.CreateRewardInput{
		BusinessID:     business.ID,
		Name:           name,
		PointsRequired: input.PointsRequired,
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrBusinessNotApproved):
			return models.Reward{}, ErrBusinessNotApproved
		case errors.Is(err, store.ErrNotFound):
			return models.Reward{}, ErrBusinessNotFound
		default:
			return models.Reward{}, err
		}
	}
	r.logger.WithFields(logrus.Fields{
		"reward_id":   reward.ID,
		"business_id": business.ID,
		"created_by":  identity.UserID,
	}).Info("reward created")
	return reward, nil
}

// List returns a business's rewards. Anyone may list an approved business;
// a pending one is visible to its owner and administrators only.
func (r *Rewards) List(ctx context.Context, identity models.Identity, businessID string) ([]models.Reward, error) {
	business, err := r.loadBusiness(ctx, businessID)
	if err != nil {
		return nil, err
	}
	resource := policy.Resource{OwnerID: business.OwnerID, BusinessApproved: business.IsApproved}
	if !policy.Authorize(identity, policy.ActionListRewards, resource).Allowed {
		return nil, ErrForbidden
	}
	return r.rewards.ListRewards(ctx, business.ID)
}

// Redeem records a redemption for the caller. The user is always the caller.
func (r *Rewards) Redeem(ctx context.Context, identity models.Identity, rewardID string) (models.Redemption, error) {
	if !policy.Authorize(identity, policy.ActionRedeemReward, policy.Resource{}).Allowed {
		return models.Redemption{}, ErrUnauthenticated
	}
	if !isValidID(rewardID) {
		return models.Redemption{}, ErrRewardNotFound
	}
	redemption, err := r.rewards.CreateRedemption(ctx, identity.UserID, rewardID)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return models.Redemption{}, ErrRewardNotFound
		case errors.Is(err, store.ErrBusinessNotApproved):
			return models.Redemption{}, ErrBusinessNotApproved
		default:
			return models.Redemption{}, err
		}
	}
	r.logger.WithFields(logrus.Fields{
		"redemption_id": redemption.ID,
		"reward_id":     rewardID,
		"user_id":       identity.UserID,
	}).Info("reward redeemed")
	return redemption, nil
}

func (r *Rewards) MyRedemptions(ctx context.Context, identity models.Identity) ([]models.Redemption, error) {
	if identity.UserID == "" {
		return nil, ErrUnauthenticated
	}
	return r.rewards.ListRedemptions(ctx, identity.UserID)
}

func (r *Rewards) loadBusiness(ctx context.Context, businessID string) (models.Business, error) {
	if !isValidID(businessID) {
		return models.Business{}, ErrBusinessNotFound
	}
	business, err := r.businesses.GetBusiness(ctx, businessID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Business{}, ErrBusinessNotFound
		}
		return models.Business{}, err
	}
	return business, nil
}
