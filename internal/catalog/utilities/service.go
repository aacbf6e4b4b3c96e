package utilities

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

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Utility, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id string) (Utility, error) {
	if id == "" {
		return Utility{}, errors.New("invalid utility ID")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, u Utility) (Utility, error) {
	u.Name = strings.TrimSpace(u.Name)
	u.Acronym = strings.ToUpper(strings.TrimSpace(u.Acronym))
	u.State = strings.ToUpper(strings.TrimSpace(u.State))
	if u.Name == "" {
		return Utility{}, errors.New("utility name required")
	}
	return s.repo.Create(ctx, u)
}

func (s *Service) Update(ctx context.Context, id string, u Utility) error {
	if id == "" {
		return errors.New("invalid utility ID")
	}
	u.Name = strings.TrimSpace(u.Name)
	u.Acronym = strings.ToUpper(strings.TrimSpace(u.Acronym))
	u.State = strings.ToUpper(strings.TrimSpace(u.State))
	if u.Name == "" {
		return errors.New("utility name required")
	}
	return s.repo.Update(ctx, id, u)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("invalid utility ID")
	}
	return s.repo.Delete(ctx, id)
}
