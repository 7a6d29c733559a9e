package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

type Service interface {
	Create(ctx context.Context, name, email string) (*User, error)
	List(ctx context.Context, skip, limit int) ([]User, error)
	GetByID(ctx context.Context, id int64) (*User, error)
	Update(ctx context.Context, id int64, fields map[string]any) (*User, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, name, email string) (*User, error) {
	u, err := s.repo.Create(ctx, name, email)
	if err != nil {
		if errors.Is(err, ErrEmailExists) {
			return nil, ErrEmailExists
		}
		log.Error().Err(err).Msg("Failed to create user in repository")
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

func (s *service) List(ctx context.Context, skip, limit int) ([]User, error) {
	users, err := s.repo.List(ctx, skip, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list users in repository")
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return users, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Msg("Failed to get user by id in repository")
		return nil, fmt.Errorf("failed to get user by id %d: %w", id, err)
	}

	return u, nil
}

func (s *service) Update(ctx context.Context, id int64, fields map[string]any) (*User, error) {
	u, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		if errors.Is(err, ErrNotFound) || errors.Is(err, ErrEmailExists) {
			return nil, err
		}
		log.Error().Err(err).Msg("Failed to update user in repository")
		return nil, fmt.Errorf("failed to update user by id %d: %w", id, err)
	}

	return u, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Msg("Failed to delete user in repository")
		return fmt.Errorf("failed to delete user by id %d: %w", id, err)
	}

	return nil
}
