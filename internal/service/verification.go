package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/nuber/nuber/internal/auth"
	"github.com/nuber/nuber/internal/cache"
	"github.com/nuber/nuber/internal/metrics"
	"github.com/nuber/nuber/internal/model"
	"github.com/nuber/nuber/internal/repository"
)

// Verification errors. The messages are shown to API clients as-is.
var (
	ErrUserNotFound           = errors.New("User not found")
	ErrNoEmail                = errors.New("Your user has no email to verify")
	ErrAlreadyVerified        = errors.New("Your email is already verified")
	ErrVerificationKeyInvalid = errors.New("Verification key not valid")
	ErrTooManyVerifications   = errors.New("Too many verification emails, try again later")
)

// UserStore loads users.
type UserStore interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
}

// VerificationStore persists verification keys.
type VerificationStore interface {
	ReplaceVerification(ctx context.Context, v *model.Verification) error
	FindVerification(ctx context.Context, target model.VerificationTarget, payload, key string) (*model.Verification, error)
	CompleteVerification(ctx context.Context, verificationID, userID string) error
}

// SendLimiter throttles verification emails per user.
type SendLimiter interface {
	CheckVerificationSendLimit(ctx context.Context, userID string, limit int, window time.Duration) (*cache.RateLimitResult, error)
}

// VerificationMailer delivers the verification email.
type VerificationMailer interface {
	SendVerificationEmail(ctx context.Context, user *model.User, key string) error
}

// VerificationConfig bounds how often a user may request an email.
type VerificationConfig struct {
	SendLimit  int
	SendWindow time.Duration
}

// VerificationService issues and consumes email verification keys.
type VerificationService struct {
	users         UserStore
	verifications VerificationStore
	limiter       SendLimiter
	mailer        VerificationMailer
	cfg           VerificationConfig
	logger        *slog.Logger
	metrics       metrics.Recorder
}

// NewVerificationService creates a new VerificationService.
// limiter may be nil to disable throttling.
func NewVerificationService(
	users UserStore,
	verifications VerificationStore,
	limiter SendLimiter,
	mailer VerificationMailer,
	cfg VerificationConfig,
	logger *slog.Logger,
	recorder metrics.Recorder,
) *VerificationService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &VerificationService{
		users:         users,
		verifications: verifications,
		limiter:       limiter,
		mailer:        mailer,
		cfg:           cfg,
		logger:        logger,
		metrics:       recorder,
	}
}

// RequestEmailVerification creates a fresh key for the user's email,
// replacing any pending one, and emails it.
func (s *VerificationService) RequestEmailVerification(ctx context.Context, userID string) error {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Email == "" {
		return ErrNoEmail
	}
	if user.VerifiedEmail {
		return ErrAlreadyVerified
	}

	if !s.allowSend(ctx, userID) {
		s.metrics.IncVerificationSent(metrics.SendRateLimited)
		return ErrTooManyVerifications
	}

	key, err := auth.GenerateVerificationKey()
	if err != nil {
		return fmt.Errorf("generate verification key: %w", err)
	}

	v := &model.Verification{
		ID:        ulid.Make().String(),
		Target:    model.VerificationTargetEmail,
		Payload:   user.Email,
		Key:       key,
		UserID:    user.ID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.verifications.ReplaceVerification(ctx, v); err != nil {
		return err
	}

	if err := s.mailer.SendVerificationEmail(ctx, user, key); err != nil {
		s.metrics.IncVerificationSent(metrics.SendFailed)
		s.logger.Error("verification_send_failed", "user_id", user.ID, "verification_id", v.ID, "error", err)
		return fmt.Errorf("send verification email: %w", err)
	}

	s.metrics.IncVerificationSent(metrics.SendSuccess)
	s.logger.Info("verification_sent", "user_id", user.ID, "verification_id", v.ID)

	return nil
}

// CompleteEmailVerification consumes key and marks the user's email verified.
func (s *VerificationService) CompleteEmailVerification(ctx context.Context, userID, key string) error {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.Email == "" {
		return ErrNoEmail
	}

	v, err := s.verifications.FindVerification(ctx, model.VerificationTargetEmail, user.Email, key)
	if err != nil {
		if errors.Is(err, repository.ErrVerificationNotFound) {
			return ErrVerificationKeyInvalid
		}
		return err
	}

	if err := s.verifications.CompleteVerification(ctx, v.ID, user.ID); err != nil {
		if errors.Is(err, repository.ErrVerificationNotFound) {
			return ErrVerificationKeyInvalid
		}
		return err
	}

	s.metrics.IncVerificationCompleted()
	s.logger.Info("verification_completed", "user_id", user.ID, "verification_id", v.ID)

	return nil
}

func (s *VerificationService) loadUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// allowSend fails open when the limiter is unavailable.
func (s *VerificationService) allowSend(ctx context.Context, userID string) bool {
	if s.limiter == nil || s.cfg.SendLimit <= 0 {
		return true
	}

	res, err := s.limiter.CheckVerificationSendLimit(ctx, userID, s.cfg.SendLimit, s.cfg.SendWindow)
	if err != nil {
		s.logger.Warn("verification_rate_limit_unavailable", "user_id", userID, "error", err)
		return true
	}
	return res.Allowed
}
