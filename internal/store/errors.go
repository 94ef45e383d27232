package store

import "errors"

var (
	ErrNotFound            = errors.New("not found")
	ErrDuplicateEmail      = errors.New("email already registered")
	ErrOwnerHasBusiness    = errors.New("owner already has a business")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrBusinessNotApproved = errors.New("business not approved")
)
