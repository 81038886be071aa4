package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pbdna/pbdna_backend/models"
)

// ErrUserNotFound is returned when no user matches the lookup.
var ErrUserNotFound = errors.New("user not found")

const userColumns = `id, email, password_hash, full_name, phone, phone_verified,
	verification_status, subscription_tier, subscription_status, is_active,
	last_activity_at, created_at, updated_at`

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user with a pending verification status.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	if user.VerificationStatus == "" {
		user.VerificationStatus = models.VerificationPending
	}
	if user.SubscriptionTier == "" {
		user.SubscriptionTier = models.TierFree
	}
	if user.SubscriptionStatus == "" {
		user.SubscriptionStatus = "active"
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, full_name, phone, phone_verified,
			verification_status, subscription_tier, subscription_status, is_active, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	`, user.ID, user.Email, user.Password, user.FullName, nullable(user.Phone), user.PhoneVerified,
		user.VerificationStatus, user.SubscriptionTier, user.SubscriptionStatus, true, user.CreatedAt, user.UpdatedAt)
	return err
}

// FindByEmail returns the user with the given email.
func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// FindByPhone returns the user with the given phone number.
func (r *UserRepository) FindByPhone(ctx context.Context, phone string) (*models.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone)
	return scanUser(row)
}

// FindByID returns the user with the given id.
func (r *UserRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// MarkPhoneVerified flips the user's verification status from pending to
// verified after a successful OTP check.
func (r *UserRepository) MarkPhoneVerified(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET phone_verified = TRUE, verification_status = $2, updated_at = NOW()
		WHERE id = $1
	`, id, models.VerificationVerified)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdateSubscription sets the user's subscription tier and status.
func (r *UserRepository) UpdateSubscription(ctx context.Context, id uuid.UUID, tier, status string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users SET subscription_tier = $2, subscription_status = $3, updated_at = NOW()
		WHERE id = $1
	`, id, tier, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrUserNotFound
	}
	return nil
}

// TouchActivity records the time of the user's last request.
func (r *UserRepository) TouchActivity(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.Exec(ctx, `UPDATE users SET last_activity_at = NOW() WHERE id = $1`, id)
	return err
}

// EmailOrPhoneExists reports which of the two identifiers is already taken.
func (r *UserRepository) EmailOrPhoneExists(ctx context.Context, email, phone string) (emailExists, phoneExists bool, err error) {
	err = r.db.QueryRow(ctx, `
		SELECT
			EXISTS (SELECT 1 FROM users WHERE email = $1),
			EXISTS (SELECT 1 FROM users WHERE phone = $2 AND $2 <> '')
	`, email, phone).Scan(&emailExists, &phoneExists)
	return emailExists, phoneExists, err
}

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	var phone *string
	err := row.Scan(&u.ID, &u.Email, &u.Password, &u.FullName, &phone, &u.PhoneVerified,
		&u.VerificationStatus, &u.SubscriptionTier, &u.SubscriptionStatus, &u.IsActive,
		&u.LastActivityAt, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if phone != nil {
		u.Phone = *phone
	}
	return &u, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
