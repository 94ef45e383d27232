package service

import (
	"context"
	"errors"
	"strings"

	"redeemr/rewards-service/internal/auth"
	"redeemr/rewards-service/internal/models"
	"redeemr/rewards-service/internal/store"
)

// Sessions turns bearer tokens into identities. There is no server-side
// revocation: a token stays valid until it expires, and logout only drops the
// client's copy.
type Sessions struct {
	users  store.UserStore
	issuer *auth.TokenIssuer
}

// Resolve validates the token and loads the user fresh, so role changes apply
// to tokens issued before them.
func (s *Sessions) Resolve(ctx context.Context, token string) (models.Identity, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return models.Identity{}, ErrUnauthenticated
	}
	claims, err := s.issuer.Parse(token)
	if err != nil {
		return models.Identity{}, ErrUnauthenticated
	}
	user, err := s.users.GetUserByID(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return models.Identity{}, ErrUnauthenticated
		}
		return models.Identity{}, err
	}
	return models.IdentityOf(user), nil
}
