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

// IdentityStore is the part of the user repository the confirmation flow needs.
type IdentityStore interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByUsernameAndEmail(ctx context.Context, username, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	RotateConfirmation(ctx context.Context, id int64) (*models.User, error)
	MarkActivated(ctx context.Context, user *models.User, at time.Time) (*models.User, error)
}

var _ IdentityStore = (repositories.UserRepository)(nil)

const confirmationSubject = "YaMDb confirmation code"

type SignupResult struct {
	Username string
	Email    string
}

type Registrar struct {
	store    IdentityStore
	codes    *CodeGenerator
	notifier Notifier
	log      *zap.Logger
}

func NewRegistrar(store IdentityStore, codes *CodeGenerator, notifier Notifier, log *zap.Logger) *Registrar {
	return &Registrar{store: store, codes: codes, notifier: notifier, log: log}
}

// Register creates or reuses the account for (username, email) and mails it a
// fresh confirmation code. Codes issued before this call stop working.
func (r *Registrar) Register(ctx context.Context, username, email string) (*SignupResult, error) {
	in := signupInput{Username: username, Email: normalizeEmail(email)}
	if err := check(in); err != nil {
		return nil, err
	}

	user, err := r.findOrCreate(ctx, in.Username, in.Email)
	if err != nil {
		return nil, err
	}

	user, err = r.store.RotateConfirmation(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("rotate confirmation: %w", err)
	}

	code := r.codes.Make(user)
	if err := r.notifier.Send(ctx, user.Email, confirmationSubject, confirmationBody(user.Username, code)); err != nil {
		r.log.Warn("confirmation code not delivered",
			zap.String("username", user.Username),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", ErrNotification, err)
	}

	r.log.Info("confirmation code sent", zap.String("username", user.Username))
	// эхо запроса; в базе email хранится в нижнем регистре
	return &SignupResult{Username: username, Email: email}, nil
}

func (r *Registrar) findOrCreate(ctx context.Context, username, email string) (*models.User, error) {
	user, err := r.store.FindByUsernameAndEmail(ctx, username, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("find user: %w", err)
	}

	// пара не найдена: занят ли username или email кем-то другим
	if _, err := r.store.FindByUsername(ctx, username); err == nil {
		return nil, &ConflictError{Field: "username"}
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("find user by username: %w", err)
	}
	if _, err := r.store.FindByEmail(ctx, email); err == nil {
		return nil, &ConflictError{Field: "email"}
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("find user by email: %w", err)
	}

	user = &models.User{Username: username, Email: email, Role: models.RoleUser}
	err = r.store.Create(ctx, user)
	if err == nil {
		r.log.Info("user registered", zap.String("username", username))
		return user, nil
	}

	var dup *repositories.DuplicateError
	if !errors.As(err, &dup) {
		return nil, fmt.Errorf("create user: %w", err)
	}
	// a concurrent signup won the insert; same pair means same account
	existing, ferr := r.store.FindByUsernameAndEmail(ctx, username, email)
	if ferr == nil {
		return existing, nil
	}
	if !errors.Is(ferr, repositories.ErrNotFound) {
		return nil, fmt.Errorf("find user after conflict: %w", ferr)
	}
	return nil, &ConflictError{Field: dup.Field}
}

func confirmationBody(username, code string) string {
	return fmt.Sprintf("Hello, %s!\n\nYour confirmation code: %s\n\n"+
		"Send it with your username to /api/v1/auth/token to get an access token.\n",
		username, code)
}
