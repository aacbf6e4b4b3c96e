package posttypes

import (
	"context"
	"errors"
	"strings"

	"github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/shared"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]PostType, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id string) (PostType, error) {
	if id == "" {
		return PostType{}, errors.New("invalid post type ID")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, pt PostType) (PostType, error) {
	pt.Code = strings.TrimSpace(pt.Code)
	pt.Name = strings.TrimSpace(pt.Name)
	if pt.Code == "" || pt.Name == "" {
		return PostType{}, errors.New("post type code and name required")
	}
	return s.repo.Create(ctx, pt)
}

func (s *Service) Update(ctx context.Context, id string, pt PostType) error {
	if id == "" {
		return errors.New("invalid post type ID")
	}
	pt.Code = strings.TrimSpace(pt.Code)
	pt.Name = strings.TrimSpace(pt.Name)
	if pt.Code == "" || pt.Name == "" {
		return errors.New("post type code and name required")
	}
	return s.repo.Update(ctx, id, pt)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("invalid post type ID")
	}
	return s.repo.Delete(ctx, id)
}
