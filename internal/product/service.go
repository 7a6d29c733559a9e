package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

type Service interface {
	Create(ctx context.Context, name string, price decimal.Decimal, description *string) (*Product, error)
	List(ctx context.Context, skip, limit int) ([]Product, error)
	GetByID(ctx context.Context, id int64) (*Product, error)
	Update(ctx context.Context, id int64, fields map[string]any) (*Product, error)
	Delete(ctx context.Context, id int64) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, name string, price decimal.Decimal, description *string) (*Product, error) {
	p, err := s.repo.Create(ctx, name, price, description)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create product in repository")
		return nil, fmt.Errorf("failed to create product: %w", err)
	}

	return p, nil
}

func (s *service) List(ctx context.Context, skip, limit int) ([]Product, error) {
	products, err := s.repo.List(ctx, skip, limit)
	if err != nil {
		log.Error().Err(err).Msg("Failed to list products in repository")
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return products, nil
}

func (s *service) GetByID(ctx context.Context, id int64) (*Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Msg("Failed to get product by id in repository")
		return nil, fmt.Errorf("failed to get product by id %d: %w", id, err)
	}

	return p, nil
}

func (s *service) Update(ctx context.Context, id int64, fields map[string]any) (*Product, error) {
	p, err := s.repo.Update(ctx, id, fields)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		log.Error().Err(err).Msg("Failed to update product in repository")
		return nil, fmt.Errorf("failed to update product by id %d: %w", id, err)
	}

	return p, nil
}

func (s *service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrNotFound
		}
		log.Error().Err(err).Msg("Failed to delete product in repository")
		return fmt.Errorf("failed to delete product by id %d: %w", id, err)
	}

	return nil
}
