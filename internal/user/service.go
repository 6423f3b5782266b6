package user

import (
	"context"
	"fmt"
	"log/slog"
)

type RepositoryAPI interface {
	FindUserByUsername(ctx context.Context, username string) (*User, error)
	FindUserByID(ctx context.Context, id string) (*User, error)
	FindUsersByOrganization(ctx context.Context, organizationID string) ([]*User, error)
	RoleExists(ctx context.Context, name string) (bool, error)
	OrganizationExists(ctx context.Context, id string) (bool, error)
}

// Service is the user directory. Lookups return (nil, nil) when nothing matches;
// callers decide whether absence is an error.
type Service struct {
	repo   RepositoryAPI
	logger *slog.Logger
}

func NewService(repo RepositoryAPI, logger *slog.Logger) *Service {
	return &Service{
		repo:   repo,
		logger: logger,
	}
}

func (s *Service) FindUserByUsername(ctx context.Context, username string) (*User, error) {
	u, err := s.repo.FindUserByUsername(ctx, username)
	if err != nil {
		s.logger.Error("failed to find user by username", "username", username, "error", err)
		return nil, fmt.Errorf("find user %q: %w", username, err)
	}
	return u, nil
}

func (s *Service) FindUserByID(ctx context.Context, id string) (*User, error) {
	u, err := s.repo.FindUserByID(ctx, id)
	if err != nil {
		s.logger.Error("failed to find user by id", "user_id", id, "error", err)
		return nil, fmt.Errorf("find user id %q: %w", id, err)
	}
	return u, nil
}

func (s *Service) FindUsersByOrganization(ctx context.Context, organizationID string) ([]*User, error) {
	users, err := s.repo.FindUsersByOrganization(ctx, organizationID)
	if err != nil {
		s.logger.Error("failed to list organization members", "organization_id", organizationID, "error", err)
		return nil, fmt.Errorf("list members of %q: %w", organizationID, err)
	}
	return users, nil
}

func (s *Service) RoleExists(ctx context.Context, name string) (bool, error) {
	ok, err := s.repo.RoleExists(ctx, name)
	if err != nil {
		return false, fmt.Errorf("check role %q: %w", name, err)
	}
	return ok, nil
}

func (s *Service) OrganizationExists(ctx context.Context, id string) (bool, error) {
	ok, err := s.repo.OrganizationExists(ctx, id)
	if err != nil {
		return false, fmt.Errorf("check organization %q: %w", id, err)
	}
	return ok, nil
}
