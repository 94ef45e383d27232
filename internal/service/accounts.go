package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"redeemr/rewards-service/internal/auth"
	"redeemr/rewards-service/internal/metrics"
	"redeemr/rewards-service/internal/models"
	"redeemr/rewards-service/internal/notify"
	"redeemr/rewards-service/internal/policy"
	"redeemr/rewards-service/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

type Accounts struct {
	users    store.UserStore
	tokens   store.ResetTokenStore
	hasher   *auth.Hasher
	issuer   *auth.TokenIssuer
	notifier notify.Provider
	resetTTL time.Duration
	logger   logrus.FieldLogger
	now      func() time.Time
}

type RegisterInput struct {
	Email           string `validate:"required,email"`
	Password        string
	Name            string `validate:"required"`
	IsBusinessOwner bool
	IsSuperuser     bool
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an account. IsSuperuser is only honoured for callers that
// bootstrap administrators outside the HTTP surface.
func (a *Accounts) Register(ctx context.Context, input RegisterInput) (models.User, error) {
	input.Email = normalizeEmail(input.Email)
	input.Name = strings.TrimSpace(input.Name)

	if err := validate.Struct(input); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 && fieldErrs[0].Field() == "Name" {
			return models.User{}, ErrEmptyName
		}
		return models.User{}, ErrInvalidEmail
	}
	if err := auth.ValidatePassword(input.Password); err != nil {
		return models.User{}, ErrWeakPassword
	}

	hash, err := a.hasher.Hash(input.Password)
	if err != nil {
		return models.User{}, fmt.Errorf("hash password: %w", err)
	}
	user, err := a.users.CreateUser(ctx, store.CreateUserInput{
		Email:           input.Email,
		Name:            input.Name,
		PasswordHash:    hash,
		IsSuperuser:     input.IsSuperuser,
		IsBusinessOwner: input.IsBusinessOwner,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	a.logger.WithField("user_id", user.ID).Info("user registered")
	return user, nil
}

// Authenticate verifies credentials and issues a session token. Unknown
// accounts and wrong passwords are indistinguishable to the caller.
func (a *Accounts) Authenticate(ctx context.Context, email, password string, rememberMe bool) (auth.Token, error) {
	user, err := a.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return auth.Token{}, err
		}
		a.hasher.CompareDummy(password)
		metrics.RecordLogin("invalid_credentials")
		return auth.Token{}, ErrInvalidCredentials
	}
	if !a.hasher.Compare(user.PasswordHash, password) {
		metrics.RecordLogin("invalid_credentials")
		return auth.Token{}, ErrInvalidCredentials
	}

	token, err := a.issuer.Issue(user.ID, rememberMe)
	if err != nil {
		return auth.Token{}, fmt.Errorf("issue token: %w", err)
	}
	if err := a.users.TouchLastLogin(ctx, user.ID, a.now().UTC()); err != nil {
		a.logger.WithError(err).WithField("user_id", user.ID).Warn("update last login failed")
	}
	metrics.RecordLogin("success")
	return token, nil
}

func (a *Accounts) Profile(ctx context.Context, identity models.Identity) (models.User, error) {
	user, err := a.users.GetUserByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.User{}, ErrUnauthenticated
		}
		return models.User{}, err
	}
	return user, nil
}

// IssuePasswordReset stores a single-use reset token for the account and
// hands it to the notifier. Unknown emails succeed silently.
func (a *Accounts) IssuePasswordReset(ctx context.Context, email string) error {
	user, err := a.users.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.RecordPasswordReset("request", "unknown_email")
			return nil
		}
		return err
	}

	token, digest, err := auth.NewResetToken()
	if err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	expiresAt := a.now().UTC().Add(a.resetTTL)
	if err := a.tokens.SaveResetToken(ctx, digest, user.ID, expiresAt); err != nil {
		return fmt.Errorf("save reset token: %w", err)
	}

	message := fmt.Sprintf("Use this token to reset your password: %s (valid until %s)", token, expiresAt.Format(time.RFC3339))
	if err := a.notifier.Send(ctx, message, user.Email); err != nil {
		a.logger.WithError(err).WithField("user_id", user.ID).Error("deliver reset token failed")
		metrics.RecordPasswordReset("request", "delivery_failed")
		return nil
	}
	metrics.RecordPasswordReset("request", "sent")
	return nil
}

// CompletePasswordReset consumes the token before any other check, so a token
// is unusable after one attempt whatever the outcome.
func (a *Accounts) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	token = strings.TrimSpace(token)
	if token == "" {
		metrics.RecordPasswordReset("confirm", "invalid")
		return ErrTokenInvalid
	}
	userID, expiresAt, err := a.tokens.ConsumeResetToken(ctx, auth.DigestResetToken(token))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.RecordPasswordReset("confirm", "invalid")
			return ErrTokenInvalid
		}
		return err
	}
	if !a.now().Before(expiresAt) {
		metrics.RecordPasswordReset("confirm", "expired")
		return ErrTokenExpired
	}
	if err := auth.ValidatePassword(newPassword); err != nil {
		metrics.RecordPasswordReset("confirm", "weak_password")
		return ErrWeakPassword
	}

	hash, err := a.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := a.users.UpdatePassword(ctx, userID, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrTokenInvalid
		}
		return err
	}
	metrics.RecordPasswordReset("confirm", "ok")
	a.logger.WithField("user_id", userID).Info("password reset completed")
	return nil
}

func (a *Accounts) ChangePassword(ctx context.Context, identity models.Identity, currentPassword, newPassword string) error {
	user, err := a.users.GetUserByID(ctx, identity.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUnauthenticated
		}
		return err
	}
	if !a.hasher.Compare(user.PasswordHash, currentPassword) {
		return ErrInvalidCredentials
	}
	if err := auth.ValidatePassword(newPassword); err != nil {
		return ErrWeakPassword
	}
	hash, err := a.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if err := a.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return err
	}
	a.logger.WithField("user_id", user.ID).Info("password changed")
	return nil
}

func (a *Accounts) ListUsers(ctx context.Context, identity models.Identity) ([]models.User, error) {
	if !policy.Authorize(identity, policy.ActionListUsers, policy.Resource{}).Allowed {
		return nil, ErrForbidden
	}
	return a.users.ListUsers(ctx)
}

// ToggleSuperuser flips the target's superuser flag. Business ownership is
// left untouched.
func (a *Accounts) ToggleSuperuser(ctx context.Context, identity models.Identity, userID string) (models.User, error) {
	if !policy.Authorize(identity, policy.ActionSetSuperuser, policy.Resource{}).Allowed {
		return models.User{}, ErrForbidden
	}
	if userID == identity.UserID {
		return models.User{}, ErrSelfSuperuser
	}
	if !isValidID(userID) {
		return models.User{}, ErrUserNotFound
	}
	target, err := a.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	updated, err := a.users.SetSuperuser(ctx, target.ID, !target.IsSuperuser)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	a.logger.WithFields(logrus.Fields{
		"user_id":      updated.ID,
		"is_superuser": updated.IsSuperuser,
		"changed_by":   identity.UserID,
	}).Info("superuser flag changed")
	return updated, nil
}
