package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"yamdb/internal/models"
	"yamdb/internal/repositories"
)

const maxPageSize = 100

type UserService struct {
	repo repositories.UserRepository
	log  *zap.Logger
}

func NewUserService(repo repositories.UserRepository, log *zap.Logger) *UserService {
	return &UserService{repo: repo, log: log}
}

func (s *UserService) List(ctx context.Context, filter models.UserFilter) (*models.UserListResponse, error) {
	if filter.Limit <= 0 || filter.Limit > maxPageSize {
		filter.Limit = maxPageSize
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &models.UserListResponse{Count: total, Results: users}, nil
}

func (s *UserService) Create(ctx context.Context, req models.UserCreateRequest) (*models.User, error) {
	if req.Role == "" {
		req.Role = models.RoleUser
	}
	u := &models.User{
		Username:  req.Username,
		Email:     normalizeEmail(req.Email),
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      req.Role,
	}
	if err := check(profileOf(u)); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, storeError(err)
	}
	s.log.Info("user created", zap.String("username", u.Username), zap.String("role", string(u.Role)))
	return u, nil
}

func (s *UserService) Get(ctx context.Context, username string) (*models.User, error) {
	u, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return nil, storeError(err)
	}
	return u, nil
}

func (s *UserService) GetByID(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return u, nil
}

// Patch applies the non-nil fields of req to username's account.
func (s *UserService) Patch(ctx context.Context, username string, req models.UserPatchRequest) (*models.User, error) {
	u, err := s.Get(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.update(ctx, u, req)
}

// PatchSelf is Patch for the account owner: the role is not theirs to change.
func (s *UserService) PatchSelf(ctx context.Context, id int64, req models.UserPatchRequest) (*models.User, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	req.Role = nil
	return s.update(ctx, u, req)
}

func (s *UserService) update(ctx context.Context, u *models.User, req models.UserPatchRequest) (*models.User, error) {
	if req.Username != nil && *req.Username != u.Username {
		// после подтверждения username не меняется
		if confirmed(u) {
			return nil, fieldError("username", "Username cannot be changed after confirmation.")
		}
		u.Username = *req.Username
	}
	if req.Email != nil {
		u.Email = normalizeEmail(*req.Email)
	}
	if req.FirstName != nil {
		u.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		u.LastName = *req.LastName
	}
	if req.Bio != nil {
		u.Bio = *req.Bio
	}
	if req.Role != nil {
		u.Role = *req.Role
	}
	if err := check(profileOf(u)); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, u); err != nil {
		return nil, storeError(err)
	}
	return u, nil
}

func (s *UserService) Delete(ctx context.Context, username string) error {
	if err := s.repo.DeleteByUsername(ctx, username); err != nil {
		return storeError(err)
	}
	s.log.Info("user deleted", zap.String("username", username))
	return nil
}

func confirmed(u *models.User) bool {
	return u.IsActive || u.LastLogin != nil
}

func profileOf(u *models.User) profileInput {
	return profileInput{
		Username:  u.Username,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Role:      u.Role,
	}
}

// storeError maps repository sentinels onto service errors.
func storeError(err error) error {
	var dup *repositories.DuplicateError
	switch {
	case errors.Is(err, repositories.ErrNotFound):
		return ErrNotFound
	case errors.As(err, &dup):
		return &ConflictError{Field: dup.Field}
	}
	return fmt.Errorf("user store: %w", err)
}
