package service

import (
	"context"
	"errors"
	"strings"

	"redeemr/rewards-service/internal/metrics"
	"redeemr/rewards-service/internal/models"
	"redeemr/rewards-service/internal/policy"
	"redeemr/rewards-service/internal/store"

	"github.com/sirupsen/logrus"
)

type Businesses struct {
	businesses store.BusinessStore
	logger     logrus.FieldLogger
}

// Register creates a pending business owned by the caller. The lookup below is
// a fast path; the storage uniqueness constraint decides races.
func (b *Businesses) Register(ctx context.Context, identity models.Identity, name string) (models.Business, error) {
	name = strings.TrimSpace(name)
	if !policy.Authorize(identity, policy.ActionRegisterBusiness, policy.Resource{OwnerID: identity.UserID}).Allowed {
		return models.Business{}, ErrUnauthenticated
	}
	if name == "" {
		return models.Business{}, ErrEmptyName
	}

	if _, err := b.businesses.GetBusinessByOwner(ctx, identity.UserID); err == nil {
		return models.Business{}, ErrAlreadyHasBusiness
	} else if !errors.Is(err, store.ErrNotFound) {
		return models.Business{}, err
	}

	business, err := b.businesses.CreateBusiness(ctx, identity.UserID, name)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrOwnerHasBusiness):
			return models.Business{}, ErrAlreadyHasBusiness
		case errors.Is(err, store.ErrNotFound):
			return models.Business{}, ErrUnauthenticated
		default:
			return models.Business{}, err
		}
	}
	b.logger.WithFields(logrus.Fields{
		"business_id": business.ID,
		"owner_id":    identity.UserID,
	}).Info("business registered")
	return business, nil
}

func (b *Businesses) Own(ctx context.Context, identity models.Identity) (models.Business, error) {
	business, err := b.businesses.GetBusinessByOwner(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Business{}, ErrBusinessNotFound
		}
		return models.Business{}, err
	}
	if !policy.Authorize(identity, policy.ActionViewOwnBusiness, policy.Resource{OwnerID: business.OwnerID}).Allowed {
		return models.Business{}, ErrForbidden
	}
	return business, nil
}

func (b *Businesses) List(ctx context.Context, identity models.Identity) ([]models.Business, error) {
	if !policy.Authorize(identity, policy.ActionListBusinesses, policy.Resource{}).Allowed {
		return nil, ErrForbidden
	}
	return b.businesses.ListBusinesses(ctx)
}

// Approve is idempotent: approving an approved business returns it unchanged.
func (b *Businesses) Approve(ctx context.Context, identity models.Identity, businessID string) (models.Business, error) {
	return b.transition(ctx, identity, businessID, store.ActionApprove, policy.ActionApproveBusiness)
}

// Reject removes a pending business.
func (b *Businesses) Reject(ctx context.Context, identity models.Identity, businessID string) error {
	_, err := b.transition(ctx, identity, businessID, store.ActionReject, policy.ActionRejectBusiness)
	return err
}

// Delete removes a business with its rewards and their redemptions.
func (b *Businesses) Delete(ctx context.Context, identity models.Identity, businessID string) error {
	_, err := b.transition(ctx, identity, businessID, store.ActionDelete, policy.ActionDeleteBusiness)
	return err
}

func (b *Businesses) transition(ctx context.Context, identity models.Identity, businessID, action string, perm policy.Action) (models.Business, error) {
	if !policy.Authorize(identity, perm, policy.Resource{}).Allowed {
		metrics.RecordBusinessTransition(action, "forbidden")
		return models.Business{}, ErrForbidden
	}
	if !isValidID(businessID) {
		metrics.RecordBusinessTransition(action, "not_found")
		return models.Business{}, ErrBusinessNotFound
	}

	business, err := b.businesses.ApplyTransition(ctx, businessID, action)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			metrics.RecordBusinessTransition(action, "not_found")
			return models.Business{}, ErrBusinessNotFound
		case errors.Is(err, store.ErrInvalidTransition):
			metrics.RecordBusinessTransition(action, "invalid_state")
			if action == store.ActionReject {
				return models.Business{}, ErrNotPending
			}
			return models.Business{}, ErrInvalidState
		default:
			return models.Business{}, err
		}
	}

	metrics.RecordBusinessTransition(action, "ok")
	b.logger.WithFields(logrus.Fields{
		"business_id": businessID,
		"action":      action,
		"admin_id":    identity.UserID,
	}).Info("business transition applied")
	return business, nil
}
