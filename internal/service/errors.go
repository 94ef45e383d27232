package service

import "errors"

type Kind string

const (
	KindValidation      Kind = "validation"
	KindUnauthenticated Kind = "unauthenticated"
	KindForbidden       Kind = "forbidden"
	KindNotFound        Kind = "not_found"
	KindConflict        Kind = "conflict"
)

// Error is a client-facing failure. Detail is safe to return to callers.
type Error struct {
	Kind   Kind
	Detail string
}

func (e *Error) Error() string {
	return e.Detail
}

// KindOf returns the kind of a service error anywhere in err's chain.
func KindOf(err error) (Kind, bool) {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind, true
	}
	return "", false
}

var (
	ErrInvalidEmail        = &Error{Kind: KindValidation, Detail: "invalid email address"}
	ErrWeakPassword        = &Error{Kind: KindValidation, Detail: "password must be at least 6 characters and at most 72 bytes"}
	ErrEmptyName           = &Error{Kind: KindValidation, Detail: "name is required"}
	ErrInvalidPoints       = &Error{Kind: KindValidation, Detail: "points_required must be between 1 and 2147483647"}
	ErrTokenInvalid        = &Error{Kind: KindValidation, Detail: "invalid reset token"}
	ErrTokenExpired        = &Error{Kind: KindValidation, Detail: "reset token has expired"}
	ErrBusinessNotApproved = &Error{Kind: KindValidation, Detail: "business is not approved"}

	ErrInvalidCredentials = &Error{Kind: KindUnauthenticated, Detail: "incorrect email or password"}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated, Detail: "could not validate credentials"}

	ErrForbidden     = &Error{Kind: KindForbidden, Detail: "not enough permissions"}
	ErrSelfSuperuser = &Error{Kind: KindForbidden, Detail: "cannot change your own superuser status"}

	ErrUserNotFound     = &Error{Kind: KindNotFound, Detail: "user not found"}
	ErrBusinessNotFound = &Error{Kind: KindNotFound, Detail: "business not found"}
	ErrRewardNotFound   = &Error{Kind: KindNotFound, Detail: "reward not found"}

	ErrDuplicateEmail     = &Error{Kind: KindConflict, Detail: "email already registered"}
	ErrAlreadyHasBusiness = &Error{Kind: KindConflict, Detail: "user already has a registered business"}
	ErrNotPending         = &Error{Kind: KindConflict, Detail: "only pending businesses can be rejected"}
	ErrInvalidState       = &Error{Kind: KindConflict, Detail: "business is in an invalid state for this action"}
)
