package utils

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/go-redis/redis/v8"
)

// OTP request rate errors
var (
	ErrOTPCooldown     = errors.New("please wait before requesting another code")
	ErrOTPRequestLimit = errors.New("too many OTP requests; try again later")
)

// GenerateSecureOTP returns a 6-digit numeric one-time code.
func GenerateSecureOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// ValidateOTPRequestRate enforces a per-phone cooldown between sends and an
// hourly cap, both tracked in Redis.
func ValidateOTPRequestRate(ctx context.Context, phone string, rdb *redis.Client) error {
	if rdb == nil {
		return nil
	}

	cooldownKey := "otp_cooldown:" + phone
	if ttl, err := rdb.TTL(ctx, cooldownKey).Result(); err == nil && ttl > 0 {
		return ErrOTPCooldown
	}

	countKey := "otp_requests:" + phone
	count, err := rdb.Incr(ctx, countKey).Result()
	if err != nil {
		return err
	}
	if count == 1 {
		rdb.Expire(ctx, countKey, 1*time.Hour)
	}

	// Limit to 5 sends per hour
	if count > 5 {
		return ErrOTPRequestLimit
	}

	rdb.Set(ctx, cooldownKey, "1", 60*time.Second)
	return nil
}

// ValidateOTPAttempts bounds verification attempts per phone to 5 per hour.
func ValidateOTPAttempts(ctx context.Context, phone string, rdb *redis.Client) error {
	if rdb == nil {
		return nil
	}

	key := "otp_attempts:" + phone
	attempts, err := rdb.Incr(ctx, key).Result()
	if err != nil {
		return err
	}

	// Set expiry if first attempt
	if attempts == 1 {
		rdb.Expire(ctx, key, 1*time.Hour)
	}

	if attempts > 5 {
		return errors.New("too many OTP attempts")
	}

	return nil
}
