package store

import "redeemr/rewards-service/internal/models"

const (
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionDelete  = "delete"
)

var transitionMap = map[string][]string{
	ActionApprove: {models.StatusPending, models.StatusApproved},
	ActionReject:  {models.StatusPending},
	ActionDelete:  {models.StatusPending, models.StatusApproved},
}

func ValidTransition(action, fromStatus string) bool {
	allowed, ok := transitionMap[action]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == fromStatus {
			return true
		}
	}
	return false
}

// RemovesBusiness reports whether a successful action deletes the row.
func RemovesBusiness(action string) bool {
	return action == ActionReject || action == ActionDelete
}
