// Package policy decides whether an identity may perform an action on a
// resource. Rules are evaluated in order and the first match wins:
// administrators, then owners, then public actions, then deny.
package policy

import "redeemr/rewards-service/internal/models"

type Action string

const (
	ActionRegisterBusiness Action = "business.register"
	ActionViewOwnBusiness  Action = "business.view_own"
	ActionListBusinesses   Action = "business.list"
	ActionApproveBusiness  Action = "business.approve"
	ActionRejectBusiness   Action = "business.reject"
	ActionDeleteBusiness   Action = "business.delete"
	ActionCreateReward     Action = "reward.create"
	ActionListRewards      Action = "reward.list"
	ActionRedeemReward     Action = "reward.redeem"
	ActionListUsers        Action = "user.list"
	ActionSetSuperuser     Action = "user.set_superuser"
)

var ownerScoped = map[Action]bool{
	ActionRegisterBusiness: true,
	ActionViewOwnBusiness:  true,
	ActionCreateReward:     true,
	ActionListRewards:      true,
}

// Resource describes what the action touches. OwnerID is empty when the
// owning account is unknown, which never matches a caller.
type Resource struct {
	OwnerID          string
	BusinessApproved bool
}

type Decision struct {
	Allowed bool
	Reason  string
}

const (
	ReasonAdministrator = "administrator"
	ReasonOwner         = "owner"
	ReasonPublic        = "public"
	ReasonDenied        = "denied"
)

// Authorize evaluates the rules. An identity with an empty UserID is anonymous.
func Authorize(identity models.Identity, action Action, resource Resource) Decision {
	if identity.UserID != "" && identity.IsAdministrator() {
		return Decision{Allowed: true, Reason: ReasonAdministrator}
	}
	if ownerScoped[action] && identity.UserID != "" && resource.OwnerID != "" && resource.OwnerID == identity.UserID {
		return Decision{Allowed: true, Reason: ReasonOwner}
	}
	switch action {
	case ActionListRewards:
		if resource.BusinessApproved {
			return Decision{Allowed: true, Reason: ReasonPublic}
		}
	case ActionRedeemReward:
		if identity.UserID != "" {
			return Decision{Allowed: true, Reason: ReasonPublic}
		}
	}
	return Decision{Allowed: false, Reason: ReasonDenied}
}
