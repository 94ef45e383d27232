package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"redeemr/rewards-service/internal/migrations"
	"redeemr/rewards-service/internal/models"
	"redeemr/rewards-service/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

type Store struct {
	db *sqlx.DB
}

type userRow struct {
	ID              string       `db:"id"`
	Email           string       `db:"email"`
	Name            string       `db:"name"`
	PasswordHash    string       `db:"password_hash"`
	IsSuperuser     bool         `db:"is_superuser"`
	IsBusinessOwner bool         `db:"is_business_owner"`
	CreatedAt       time.Time    `db:"created_at"`
	LastLogin       sql.NullTime `db:"last_login"`
}

type businessRow struct {
	ID         string         `db:"id"`
	Name       string         `db:"name"`
	OwnerID    sql.NullString `db:"owner_id"`
	Status     string         `db:"status"`
	CreatedAt  time.Time      `db:"created_at"`
	ApprovedAt sql.NullTime   `db:"approved_at"`
}

type rewardRow struct {
	ID             string    `db:"id"`
	BusinessID     string    `db:"business_id"`
	Name           string    `db:"name"`
	PointsRequired int       `db:"points_required"`
	CreatedAt      time.Time `db:"created_at"`
}

type redemptionRow struct {
	ID        string    `db:"id"`
	UserID    string    `db:"user_id"`
	RewardID  string    `db:"reward_id"`
	CreatedAt time.Time `db:"created_at"`
}

const (
	userColumns     = `id, email, name, password_hash, is_superuser, is_business_owner, created_at, last_login`
	businessColumns = `id, name, owner_id, status, created_at, approved_at`
	rewardColumns   = `id, business_id, name, points_required, created_at`
)

// Open opens the database at path (":memory:" works) and applies the schema.
// A single connection is used so transactions serialize.
func Open(ctx context.Context, path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dsn(path))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := migrations.Apply(ctx, db.DB, migrations.DialectSQLite); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func dsn(path string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) CreateUser(ctx context.Context, input store.CreateUserInput) (models.User, error) {
	user := models.User{
		ID:              uuid.NewString(),
		Email:           input.Email,
		Name:            input.Name,
		PasswordHash:    input.PasswordHash,
		IsSuperuser:     input.IsSuperuser,
		IsBusinessOwner: input.IsBusinessOwner,
		CreatedAt:       now(),
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, password_hash, is_superuser, is_business_owner, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, user.ID, user.Email, user.Name, user.PasswordHash, user.IsSuperuser, user.IsBusinessOwner, user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return models.User{}, store.ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return user, nil
}

func (s *Store) GetUserByID(ctx context.Context, userID string) (models.User, error) {
	var row userRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = ?`, userID); err != nil {
		return models.User{}, notFound(err)
	}
	return row.model(), nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (models.User, error) {
	var row userRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE email = ? COLLATE NOCASE`, email); err != nil {
		return models.User{}, notFound(err)
	}
	return row.model(), nil
}

func (s *Store) ListUsers(ctx context.Context) ([]models.User, error) {
	var rows []userRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+userColumns+` FROM users ORDER BY created_at, rowid`); err != nil {
		return nil, err
	}
	users := make([]models.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.model())
	}
	return users, nil
}

func (s *Store) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, passwordHash, userID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (s *Store) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET last_login = ? WHERE id = ?`, at.UTC(), userID)
	if err != nil {
		return err
	}
	return requireAffected(result)
}

func (s *Store) SetSuperuser(ctx context.Context, userID string, value bool) (models.User, error) {
	result, err := s.db.ExecContext(ctx, `UPDATE users SET is_superuser = ? WHERE id = ?`, value, userID)
	if err != nil {
		return models.User{}, err
	}
	if err := requireAffected(result); err != nil {
		return models.User{}, err
	}
	return s.GetUserByID(ctx, userID)
}

func (s *Store) CreateBusiness(ctx context.Context, ownerID, name string) (models.Business, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Business{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var exists int
	if err = tx.GetContext(ctx, &exists, `SELECT 1 FROM users WHERE id = ?`, ownerID); err != nil {
		err = notFound(err)
		return models.Business{}, err
	}

	business := models.Business{
		ID:        uuid.NewString(),
		Name:      name,
		OwnerID:   ownerID,
		Status:    models.StatusPending,
		CreatedAt: now(),
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO businesses (id, name, owner_id, status, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, business.ID, business.Name, business.OwnerID, business.Status, business.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			err = store.ErrOwnerHasBusiness
		}
		return models.Business{}, err
	}

	if _, err = tx.ExecContext(ctx, `UPDATE users SET is_business_owner = 1 WHERE id = ?`, ownerID); err != nil {
		return models.Business{}, err
	}
	if err = tx.Commit(); err != nil {
		return models.Business{}, err
	}
	return business, nil
}

func (s *Store) GetBusiness(ctx context.Context, businessID string) (models.Business, error) {
	var row businessRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+businessColumns+` FROM businesses WHERE id = ?`, businessID); err != nil {
		return models.Business{}, notFound(err)
	}
	return row.model(), nil
}

func (s *Store) GetBusinessByOwner(ctx context.Context, ownerID string) (models.Business, error) {
	var row businessRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+businessColumns+` FROM businesses WHERE owner_id = ?`, ownerID); err != nil {
		return models.Business{}, notFound(err)
	}
	return row.model(), nil
}

func (s *Store) ListBusinesses(ctx context.Context) ([]models.Business, error) {
	var rows []businessRow
	if err := s.db.SelectContext(ctx, &rows, `SELECT `+businessColumns+` FROM businesses ORDER BY created_at, rowid`); err != nil {
		return nil, err
	}
	businesses := make([]models.Business, 0, len(rows))
	for _, row := range rows {
		businesses = append(businesses, row.model())
	}
	return businesses, nil
}

func (s *Store) ApplyTransition(ctx context.Context, businessID string, action string) (models.Business, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Business{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var row businessRow
	if err = tx.GetContext(ctx, &row, `SELECT `+businessColumns+` FROM businesses WHERE id = ?`, businessID); err != nil {
		err = notFound(err)
		return models.Business{}, err
	}
	business := row.model()
	if !store.ValidTransition(action, business.Status) {
		err = store.ErrInvalidTransition
		return business, err
	}

	switch {
	case action == store.ActionApprove && business.Status == models.StatusApproved:
	case action == store.ActionApprove:
		approvedAt := now()
		if _, err = tx.ExecContext(ctx, `
			UPDATE businesses SET status = ?, approved_at = ? WHERE id = ?
		`, models.StatusApproved, approvedAt, businessID); err != nil {
			return models.Business{}, err
		}
		business.Status = models.StatusApproved
		business.IsApproved = true
		business.ApprovedAt = &approvedAt
	case store.RemovesBusiness(action):
		if _, err = tx.ExecContext(ctx, `
			DELETE FROM redemptions WHERE reward_id IN (SELECT id FROM rewards WHERE business_id = ?)
		`, businessID); err != nil {
			return models.Business{}, err
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM rewards WHERE business_id = ?`, businessID); err != nil {
			return models.Business{}, err
		}
		if _, err = tx.ExecContext(ctx, `DELETE FROM businesses WHERE id = ?`, businessID); err != nil {
			return models.Business{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return models.Business{}, err
	}
	return business, nil
}

func (s *Store) CreateReward(ctx context.Context, input store.CreateRewardInput) (models.Reward, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Reward{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var status string
	if err = tx.GetContext(ctx, &status, `SELECT status FROM businesses WHERE id = ?`, input.BusinessID); err != nil {
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
		CreatedAt:      now(),
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO rewards (id, business_id, name, points_required, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, reward.ID, reward.BusinessID, reward.Name, reward.PointsRequired, reward.CreatedAt); err != nil {
		return models.Reward{}, err
	}
	if err = tx.Commit(); err != nil {
		return models.Reward{}, err
	}
	return reward, nil
}

func (s *Store) GetReward(ctx context.Context, rewardID string) (models.Reward, error) {
	var row rewardRow
	if err := s.db.GetContext(ctx, &row, `SELECT `+rewardColumns+` FROM rewards WHERE id = ?`, rewardID); err != nil {
		return models.Reward{}, notFound(err)
	}
	return row.model(), nil
}

func (s *Store) ListRewards(ctx context.Context, businessID string) ([]models.Reward, error) {
	var rows []rewardRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT `+rewardColumns+` FROM rewards WHERE business_id = ? ORDER BY created_at, rowid
	`, businessID); err != nil {
		return nil, err
	}
	rewards := make([]models.Reward, 0, len(rows))
	for _, row := range rows {
		rewards = append(rewards, row.model())
	}
	return rewards, nil
}

func (s *Store) CreateRedemption(ctx context.Context, userID, rewardID string) (models.Redemption, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Redemption{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var status string
	if err = tx.GetContext(ctx, &status, `
		SELECT b.status FROM rewards r JOIN businesses b ON b.id = r.business_id WHERE r.id = ?
	`, rewardID); err != nil {
		err = notFound(err)
		return models.Redemption{}, err
	}
	if status != models.StatusApproved {
		err = store.ErrBusinessNotApproved
		return models.Redemption{}, err
	}

	redemption := models.Redemption{
		ID:        uuid.NewString(),
		UserID:    userID,
		RewardID:  rewardID,
		CreatedAt: now(),
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO redemptions (id, user_id, reward_id, created_at) VALUES (?, ?, ?, ?)
	`, redemption.ID, redemption.UserID, redemption.RewardID, redemption.CreatedAt); err != nil {
		return models.Redemption{}, err
	}
	if err = tx.Commit(); err != nil {
		return models.Redemption{}, err
	}
	return redemption, nil
}

func (s *Store) ListRedemptions(ctx context.Context, userID string) ([]models.Redemption, error) {
	var rows []redemptionRow
	if err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, reward_id, created_at FROM redemptions WHERE user_id = ? ORDER BY created_at, rowid
	`, userID); err != nil {
		return nil, err
	}
	redemptions := make([]models.Redemption, 0, len(rows))
	for _, row := range rows {
		redemptions = append(redemptions, models.Redemption(row))
	}
	return redemptions, nil
}

func (s *Store) SaveResetToken(ctx context.Context, tokenHash, userID string, expiresAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO password_reset_tokens (token_hash, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)
	`, tokenHash, userID, expiresAt.Unix(), now())
	return err
}

func (s *Store) ConsumeResetToken(ctx context.Context, tokenHash string) (string, time.Time, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return "", time.Time{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var row struct {
		UserID    string `db:"user_id"`
		ExpiresAt int64  `db:"expires_at"`
	}
	if err = tx.GetContext(ctx, &row, `
		SELECT user_id, expires_at FROM password_reset_tokens WHERE token_hash = ?
	`, tokenHash); err != nil {
		err = notFound(err)
		return "", time.Time{}, err
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE token_hash = ?`, tokenHash); err != nil {
		return "", time.Time{}, err
	}
	if err = tx.Commit(); err != nil {
		return "", time.Time{}, err
	}
	return row.UserID, time.Unix(row.ExpiresAt, 0).UTC(), nil
}

func (s *Store) PurgeExpiredResetTokens(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM password_reset_tokens WHERE expires_at < ?`, before.Unix())
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

func (r userRow) model() models.User {
	user := models.User{
		ID:              r.ID,
		Email:           r.Email,
		Name:            r.Name,
		PasswordHash:    r.PasswordHash,
		IsSuperuser:     r.IsSuperuser,
		IsBusinessOwner: r.IsBusinessOwner,
		CreatedAt:       r.CreatedAt,
	}
	if r.LastLogin.Valid {
		lastLogin := r.LastLogin.Time
		user.LastLogin = &lastLogin
	}
	return user
}

func (r businessRow) model() models.Business {
	business := models.Business{
		ID:         r.ID,
		Name:       r.Name,
		OwnerID:    r.OwnerID.String,
		Status:     r.Status,
		IsApproved: r.Status == models.StatusApproved,
		CreatedAt:  r.CreatedAt,
	}
	if r.ApprovedAt.Valid {
		approvedAt := r.ApprovedAt.Time
		business.ApprovedAt = &approvedAt
	}
	return business
}

func (r rewardRow) model() models.Reward {
	return models.Reward{
		ID:             r.ID,
		Name:           r.Name,
		PointsRequired: r.PointsRequired,
		BusinessID:     r.BusinessID,
		CreatedAt:      r.CreatedAt,
	}
}

// now is truncated to whole seconds so stored timestamps sort lexically.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Second)
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3.SQLITE_CONSTRAINT_UNIQUE || code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}
