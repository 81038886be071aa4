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

// OTP verification failure modes
var (
	ErrOTPNotFound        = errors.New("no pending OTP for this phone")
	ErrOTPExpired         = errors.New("OTP expired")
	ErrOTPInvalid         = errors.New("invalid OTP")
	ErrOTPTooManyAttempts = errors.New("too many OTP attempts")
)

type OTPRepository struct {
	db *pgxpool.Pool
}

func NewOTPRepository(db *pgxpool.Pool) *OTPRepository {
	return &OTPRepository{db: db}
}

// Create records a freshly issued code as a pending log row.
func (r *OTPRepository) Create(ctx context.Context, otp *models.PhoneOTPLog) error {
	if otp.ID == uuid.Nil {
		otp.ID = uuid.New()
	}
	now := time.Now()
	otp.CreatedAt = now
	otp.UpdatedAt = now
	if otp.Status == "" {
		otp.Status = models.OTPStatusPending
	}

	_, err := r.db.Exec(ctx, `
		INSERT INTO phone_otp_logs (id, user_id, phone, otp_code, purpose, expires_at, attempts, used, status, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	`, otp.ID, otp.UserID, otp.Phone, otp.Code, otp.Purpose, otp.ExpiresAt, otp.Attempts, otp.Used, otp.Status, otp.CreatedAt, otp.UpdatedAt)
	return err
}

// Verify atomically redeems the latest pending code for a phone number.
// A wrong code burns an attempt; once maxAttempts is reached the row is
// invalidated. On success the row is marked used and the owning user's
// verification status flips to verified in the same transaction.
func (r *OTPRepository) Verify(ctx context.Context, phone, code string, maxAttempts int) (uuid.UUID, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return uuid.Nil, err
	}
	defer tx.Rollback(ctx)

	var (
		id        uuid.UUID
		userID    uuid.UUID
		stored    string
		expiresAt time.Time
		attempts  int
	)
	err = tx.QueryRow(ctx, `
		SELECT id, user_id, otp_code, expires_at, attempts
		FROM phone_otp_logs
		WHERE phone = $1 AND status = $2 AND used = FALSE
		ORDER BY created_at DESC
		LIMIT 1
		FOR UPDATE
	`, phone, models.OTPStatusPending).Scan(&id, &userID, &stored, &expiresAt, &attempts)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrOTPNotFound
		}
		return uuid.Nil, err
	}

	if time.Now().After(expiresAt) {
		_, _ = tx.Exec(ctx, `UPDATE phone_otp_logs SET status = $2, updated_at = NOW() WHERE id = $1`,
			id, models.OTPStatusExpired)
		_ = tx.Commit(ctx)
		return uuid.Nil, ErrOTPExpired
	}

	if attempts >= maxAttempts {
		_, _ = tx.Exec(ctx, `UPDATE phone_otp_logs SET status = $2, updated_at = NOW() WHERE id = $1`,
			id, models.OTPStatusExpired)
		_ = tx.Commit(ctx)
		return uuid.Nil, ErrOTPTooManyAttempts
	}

	if stored != code {
		_, err = tx.Exec(ctx, `UPDATE phone_otp_logs SET attempts = attempts + 1, updated_at = NOW() WHERE id = $1`, id)
		if err != nil {
			return uuid.Nil, err
		}
		if err := tx.Commit(ctx); err != nil {
			return uuid.Nil, err
		}
		if attempts+1 >= maxAttempts {
			return uuid.Nil, ErrOTPTooManyAttempts
		}
		return uuid.Nil, ErrOTPInvalid
	}

	_, err = tx.Exec(ctx, `
		UPDATE phone_otp_logs
		SET used = TRUE, status = $2, verified_at = NOW(), updated_at = NOW()
		WHERE id = $1
	`, id, models.OTPStatusVerified)
	if err != nil {
		return uuid.Nil, err
	}

	_, err = tx.Exec(ctx, `
		UPDATE users SET phone_verified = TRUE, verification_status = $2, updated_at = NOW()
		WHERE id = $1
	`, userID, models.VerificationVerified)
	if err != nil {
		return uuid.Nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return uuid.Nil, err
	}
	return userID, nil
}

// InvalidatePending expires any outstanding codes for a phone number before
// a new one is issued.
func (r *OTPRepository) InvalidatePending(ctx context.Context, phone string) error {
	_, err := r.db.Exec(ctx, `
		UPDATE phone_otp_logs SET status = $2, updated_at = NOW()
		WHERE phone = $1 AND status = $3 AND used = FALSE
	`, phone, models.OTPStatusExpired, models.OTPStatusPending)
	return err
}

// PurgeExpired marks stale pending rows as expired. Run periodically.
func (r *OTPRepository) PurgeExpired(ctx context.Context) (int64, error) {
	tag, err := r.db.Exec(ctx, `
		UPDATE phone_otp_logs SET status = $1, updated_at = NOW()
		WHERE status = $2 AND expires_at < NOW()
	`, models.OTPStatusExpired, models.OTPStatusPending)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
