package postgres

import (
	"context"
	"errors"
	"time"

	"redeemr/rewards-service/internal/migrations"
	"redeemr/rewards-service/internal/models"
	"redeemr/rewards-service/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

const (
	uniqueViolation      = "23505"
	invalidTextRepresent = "22P02"
)

const (
	userColumns     = `id, email, name, password_hash, is_superuser, is_business_owner, created_at, last_login`
	businessColumns = `id, name, owner_id, status, created_at, approved_at`
	rewardColumns   = `id, business_id, name, points_required, created_at`
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate applies the embedded schema through a database/sql view of the pool.
func (s *Store) Migrate(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(s.pool)
	defer db.Close()
	return migrations.Apply(ctx, db, migrations.DialectPostgres)
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func (s *Store) CreateUser(ctx context.Context, input store.CreateUserInput) (models.User, error) {
	user := models.User{
		ID:              uuid.NewString(),
		Email:           input.Email,
		Name:            input.Name,
		PasswordHash:    input.PasswordHash,
		IsSuperuser:     input.IsSuperuser,
		IsBusinessOwner: input.IsBusinessOwner,
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO users (id, email, name, password_hash, is_superuser, is_business_owner)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`, user.ID, user.Email, user.Name, user.PasswordHash, user.IsSuperuser, user.IsBusinessOwner)
	if err := row.Scan(&user.CreatedAt); err != nil {
		if isCode(err, uniqueViolation) {
			return models.User{}, store.ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *Store) GetUserByID(ctx context.Context, userID string) (models.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE lower(email) = lower($1)`, email))
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func (s *Store) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET password_hash = $1 WHERE id = $2`, passwordHash, userID)
	if err != nil {
		return notFound(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	tag, err := s.pool.Exec(ctx, `UPDATE users SET last_login = $1 WHERE id = $2`, at, userID)
	if err != nil {
		return notFound(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SetSuperuser(ctx context.Context, userID string, value bool) (models.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `
		UPDATE users SET is_superuser = $1 WHERE id = $2
		RETURNING `+userColumns, value, userID))
}

func (s *Store) CreateBusiness(ctx context.Context, ownerID, name string) (models.Business, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Business{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var tag pgconn.CommandTag
	tag, err = tx.Exec(ctx, `UPDATE users SET is_business_owner = TRUE WHERE id = $1`, ownerID)
	if err != nil {
		err = notFound(err)
		return models.Business{}, err
	}
	if tag.RowsAffected() == 0 {
		err = store.ErrNotFound
		return models.Business{}, err
	}

	business := models.Business{
		ID:      uuid.NewString(),
		Name:    name,
		OwnerID: ownerID,
		Status:  models.StatusPending,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO businesses (id, name, owner_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, business.ID, business.Name, business.OwnerID, business.Status).Scan(&business.CreatedAt)
	if err != nil {
		if isCode(err, uniqueViolation) {
			err = store.ErrOwnerHasBusiness
		}
		return models.Business{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return models.Business{}, err
	}
	return business, nil
}

func (s *Store) GetBusiness(ctx context.Context, businessID string) (models.Business, error) {
	return scanBusiness(s.pool.QueryRow(ctx, `SELECT `+businessColumns+` FROM businesses WHERE id = $1`, businessID))
}

func (s *Store) GetBusinessByOwner(ctx context.Context, ownerID string) (models.Business, error) {
	return scanBusiness(s.pool.QueryRow(ctx, `SELECT `+businessColumns+` FROM businesses WHERE owner_id = $1`, ownerID))
}

func (s *Store) ListBusinesses(ctx context.Context) ([]models.Business, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+businessColumns+` FROM businesses ORDER BY created_at, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	businesses := []models.Business{}
	for rows.Next() {
		business, err := scanBusiness(rows)
		if err != nil {
			return nil, err
		}
		businesses = append(businesses, business)
	}
	return businesses, rows.Err()
}

func (s *Store) ApplyTransition(ctx context.Context, businessID string, action string) (models.Business, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Business{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var business models.Business
	business, err = scanBusiness(tx.QueryRow(ctx, `
		SELECT `+businessColumns+` FROM businesses WHERE id = $1 FOR UPDATE
	`, businessID))
	if err != nil {
		return models.Business{}, err
	}
	if !store.ValidTransition(action, business.Status) {
		err = store.ErrInvalidTransition
		return business, err
	}

	switch {
	case action == store.ActionApprove && business.Status == models.StatusApproved:
	case action == store.ActionApprove:
		business, err = scanBusiness(tx.QueryRow(ctx, `
			UPDATE businesses SET status = $1, approved_at = NOW() WHERE id = $2
			RETURNING `+businessColumns, models.StatusApproved, businessID))
		if err != nil {
			return models.Business{}, err
		}
	case store.RemovesBusiness(action):
		if _, err = tx.Exec(ctx, `
			DELETE FROM redemptions WHERE reward_id IN (SELECT id FROM rewards WHERE business_id = $1)
		`, businessID); err != nil {
			return models.Business{}, err
		}
		if _, err = tx.Exec(ctx, `DELETE FROM rewards WHERE business_id = $1`, businessID); err != nil {
			return models.Business{}, err
		}
		if _, err = tx.Exec(ctx, `DELETE FROM businesses WHERE id = $1`, businessID); err != nil {
			return models.Business{}, err
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return models.Business{}, err
	}
	return business, nil
}

func (s *Store) CreateReward(ctx context.Context, input store.CreateRewardInput) (models.Reward, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Reward{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var status string
	if err = tx.QueryRow(ctx, `
		SELECT status FROM businesses WHERE id = $1 FOR SHARE
	`, input.BusinessID).Scan(&status); err != nil {
		err = notFound(err)
		return models.Reward{}, err
	}
	if status != models.StatusApproved {
		err = store.ErrBusinessNotApproved
		return models.Reward{}, err
	}

	reward := models.Reward{
		ID:             uuid.NewString(),
		Name:           input.Name,
		PointsRequired: input.PointsRequired,
		BusinessID:     input.BusinessID,
	}
	if err = tx.QueryRow(ctx, `
		INSERT INTO rewards (id, business_id, name, points_required)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at
	`, reward.ID, reward.BusinessID, reward.Name, reward.PointsRequired).Scan(&reward.CreatedAt); err != nil {
		return models.Reward{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return models.Reward{}, err
	}
	return reward, nil
}

func (s *Store) GetReward(ctx context.Context, rewardID string) (models.Reward, error) {
	return scanReward(s.pool.QueryRow(ctx, `SELECT `+rewardColumns+` FROM rewards WHERE id = $1`, rewardID))
}

func (s *Store) ListRewards(ctx context.Context, businessID string) ([]models.Reward, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+rewardColumns+` FROM rewards WHERE business_id = $1 ORDER BY created_at, id
	`, businessID)
	if err != nil {
		return nil, notFound(err)
	}
	defer rows.Close()

	rewards := []models.Reward{}
	for rows.Next() {
		reward, err := scanReward(rows)
		if err != nil {
			return nil, err
		}
		rewards = append(rewards, reward)
	}
	return rewards, rows.Err()
}

func (s *Store) CreateRedemption(ctx context.Context, userID, rewardID string) (models.Redemption, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Redemption{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var status string
	if err = tx.QueryRow(ctx, `
		SELECT b.status
		FROM rewards r
		JOIN businesses b ON b.id = r.business_id
		WHERE r.id = $1
		FOR SHARE OF b
	`, rewardID).Scan(&status); err != nil {
		err = notFound(err)
		return models.Redemption{}, err
	}
	if status != models.StatusApproved {
		err = store.ErrBusinessNotApproved
		return models.Redemption{}, err
	}

	redemption := models.Redemption{
		ID:       uuid.NewString(),
		UserID:   userID,
		RewardID: rewardID,
	}
	if err = tx.QueryRow(ctx, `
		INSERT INTO redemptions (id, user_id, reward_id) VALUES ($1, $2, $3)
		RETURNING created_at
	`, redemption.ID, redemption.UserID, redemption.RewardID).Scan(&redemption.CreatedAt); err != nil {
		return models.Redemption{}, err
	}
	if err = tx.Commit(ctx); err != nil {
		return models.Redemption{}, err
	}
	return redemption, nil
}

func (s *Store) ListRedemptions(ctx context.Context, userID string) ([]models.Redemption, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, reward_id, created_at
		FROM redemptions
		WHERE user_id = $1
		ORDER BY created_at, id
	`, userID)
	if err != nil {
		return nil, notFound(err)
	}
	defer rows.Close()

	redemptions := []models.Redemption{}
	for rows.Next() {
		var redemption models.Redemption
		if err := rows.Scan(&redemption.ID, &redemption.UserID, &redemption.RewardID, &redemption.CreatedAt); err != nil {
			return nil, err
		}
		redemptions = append(redemptions, redemption)
	}
	return redemptions, rows.Err()
}

func (s *Store) SaveResetToken(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO password_reset_tokens (token_hash, user_id, expires_at)
		VALUES ($1, $2, $3)
	`, tokenHash, userID, expiresAt)
	return err
}

func (s *Store) ConsumeResetToken(ctx context.Context, tokenHash string) (string, time.Time, error) {
	var userID string
	var expiresAt time.Time
	err := s.pool.QueryRow(ctx, `
		DELETE FROM password_reset_tokens
		WHERE token_hash = $1
		RETURNING user_id, expires_at
	`, tokenHash).Scan(&userID, &expiresAt)
	if err != nil {
		return "", time.Time{}, notFound(err)
	}
	return userID, expiresAt, nil
}

func (s *Store) PurgeExpiredResetTokens(ctx context.Context, before time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM password_reset_tokens WHERE expires_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanUser(row pgx.Row) (models.User, error) {
	var user models.User
	if err := row.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.IsSuperuser, &user.IsBusinessOwner, &user.CreatedAt, &user.LastLogin); err != nil {
		return models.User{}, notFound(err)
	}
	return user, nil
}

func scanBusiness(row pgx.Row) (models.Business, error) {
	var business models.Business
	var ownerID *string
	if err := row.Scan(&business.ID, &business.Name, &ownerID, &business.Status, &business.CreatedAt, &business.ApprovedAt); err != nil {
		return models.Business{}, notFound(err)
	}
	if ownerID != nil {
		business.OwnerID = *ownerID
	}
	business.IsApproved = business.Status == models.StatusApproved
	return business, nil
}

func scanReward(row pgx.Row) (models.Reward, error) {
	var reward models.Reward
	if err := row.Scan(&reward.ID, &reward.BusinessID, &reward.Name, &reward.PointsRequired, &reward.CreatedAt); err != nil {
		return models.Reward{}, notFound(err)
	}
	return reward, nil
}

// notFound maps missing rows and malformed UUID input to store.ErrNotFound.
func notFound(err error) error {
	if errors.Is(err, pgx.ErrNoRows) || isCode(err, invalidTextRepresent) {
		return store.ErrNotFound
	}
	return err
}

func isCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
