package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"yamdb/internal/models"
	"yamdb/internal/repositories"
)

// VerifiedIdentity can only be obtained from Verifier.Verify.
type VerifiedIdentity struct {
	userID    int64
	username  string
	role      models.Role
	superuser bool
}

func (v VerifiedIdentity) UserID() int64 { return v.userID }
func (v VerifiedIdentity) Username() string { return v.username }
func (v VerifiedIdentity) Role() models.Role { return v.role }
func (v VerifiedIdentity) Superuser() bool { return v.superuser }
func (v VerifiedIdentity) valid() bool { return v.userID != 0 && v.username != "" }

type Verifier struct {
	store   IdentityStore
	codes   *CodeGenerator
	limiter repositories.AttemptLimiter
	log     *zap.Logger
	now     func() time.Time
}

func NewVerifier(store IdentityStore, codes *CodeGenerator, limiter repositories.AttemptLimiter, log *zap.Logger) *Verifier {
	return &Verifier{store: store, codes: codes, limiter: limiter, log: log, now: time.Now}
}

// Verify checks code against the current state of username's account and
// activates it. A successful call changes that state, so the same code is
// rejected afterwards.
func (v *Verifier) Verify(ctx context.Context, username, code string) (VerifiedIdentity, error) {
	in := tokenInput{Username: username, ConfirmationCode: code}
	if err := check(in); err != nil {
		return VerifiedIdentity{}, err
	}

	locked, err := v.limiter.Locked(ctx, username)
	if err != nil {
		// без счётчика не пускаем
		return VerifiedIdentity{}, fmt.Errorf("attempt limiter: %w", err)
	}
	if locked {
		v.log.Warn("verification locked", zap.String("username", username))
		return VerifiedIdentity{}, ErrTooManyAttempts
	}

	user, err := v.store.FindByUsername(ctx, username)
	if errors.Is(err, repositories.ErrNotFound) {
		return VerifiedIdentity{}, ErrNotFound
	}
	if err != nil {
		return VerifiedIdentity{}, fmt.Errorf("find user: %w", err)
	}

	if !v.codes.Check(user, code) {
		return VerifiedIdentity{}, v.fail(ctx, username)
	}

	// postgres keeps microseconds; the stored value must match the fingerprint
	at := v.now().UTC().Truncate(time.Microsecond)
	activated, err := v.store.MarkActivated(ctx, user, at)
	if errors.Is(err, repositories.ErrNotFound) {
		// state moved between read and write: the code was consumed or rotated
		return VerifiedIdentity{}, v.fail(ctx, username)
	}
	if err != nil {
		return VerifiedIdentity{}, fmt.Errorf("activate user: %w", err)
	}

	if err := v.limiter.Reset(ctx, username); err != nil {
		v.log.Warn("attempt counter not reset", zap.String("username", username), zap.Error(err))
	}

	v.log.Info("confirmation code accepted", zap.String("username", activated.Username))
	return VerifiedIdentity{
		userID:    activated.ID,
		username:  activated.Username,
		role:      activated.Role,
		superuser: activated.IsSuperuser,
	}, nil
}

func (v *Verifier) fail(ctx context.Context, username string) error {
	n, err := v.limiter.RecordFailure(ctx, username)
	if err != nil {
		v.log.Error("attempt not recorded", zap.String("username", username), zap.Error(err))
	} else {
		v.log.Info("invalid confirmation code", zap.String("username", username), zap.Int("attempt", n))
	}
	return ErrInvalidCode
}
