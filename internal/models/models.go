package models

import "time"

const (
	StatusPending  = "pending"
	StatusApproved = "approved"
)

type Role string

const (
	RoleStandard      Role = "standard"
	RoleBusinessOwner Role = "business_owner"
	RoleAdministrator Role = "administrator"
)

// RoleFor derives the role from the stored flags. The superuser flag wins.
func RoleFor(isSuperuser, isBusinessOwner bool) Role {
	switch {
	case isSuperuser:
		return RoleAdministrator
	case isBusinessOwner:
		return RoleBusinessOwner
	default:
		return RoleStandard
	}
}

type User struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	PasswordHash    string     `json:"-"`
	IsSuperuser     bool       `json:"is_superuser"`
	IsBusinessOwner bool       `json:"is_business_owner"`
	CreatedAt       time.Time  `json:"created_at"`
	LastLogin       *time.Time `json:"last_login"`
}

func (u User) Role() Role {
	return RoleFor(u.IsSuperuser, u.IsBusinessOwner)
}

// Business.OwnerID is empty when the owning account no longer exists.
type Business struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	OwnerID    string     `json:"owner_id"`
	Status     string     `json:"status"`
	IsApproved bool       `json:"is_approved"`
	CreatedAt  time.Time  `json:"created_at"`
	ApprovedAt *time.Time `json:"approved_at"`
}

type Reward struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	PointsRequired int       `json:"points_required"`
	BusinessID     string    `json:"business_id"`
	CreatedAt      time.Time `json:"created_at"`
}

type Redemption struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	RewardID  string    `json:"reward_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Identity is the resolved caller of a request.
type Identity struct {
	UserID          string
	Email           string
	Role            Role
	IsSuperuser     bool
	IsBusinessOwner bool
}

func IdentityOf(user User) Identity {
	return Identity{
		UserID:          user.ID,
		Email:           user.Email,
		Role:            user.Role(),
		IsSuperuser:     user.IsSuperuser,
		IsBusinessOwner: user.IsBusinessOwner,
	}
}

func (i Identity) IsAdministrator() bool {
	return i.Role == RoleAdministrator
}
