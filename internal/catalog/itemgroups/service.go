package itemgroups

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/shared"
)

// Service enforces composition rules for item groups. Quantities are
// whole units; fractional amounts come from the material unit itself
// (a 50m cable drum is one unit), so a zero or negative quantity is a
// data entry error and is rejected here rather than stored.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]ItemGroup, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id string) (ItemGroup, error) {
	if id == "" {
		return ItemGroup{}, errors.New("invalid item group ID")
	}
	return s.repo.Get(ctx, id)
}

// GetByIDs resolves a batch of groups. Missing IDs are silently left out
// of the returned map.
func (s *Service) GetByIDs(ctx context.Context, ids []string) (map[string]ItemGroup, error) {
	return s.repo.GetByIDs(ctx, ids)
}

// Version exposes the template fingerprint for cache keys.
func (s *Service) Version(ctx context.Context) (string, error) {
	return s.repo.Version(ctx)
}

func (s *Service) Create(ctx context.Context, req CreateItemGroupRequest) (ItemGroup, error) {
	items, err := toGroupItems(req.Items)
	if err != nil {
		return ItemGroup{}, err
	}
	group := ItemGroup{
		UtilityID:   req.UtilityID,
		Name:        strings.TrimSpace(req.Name),
		Description: strings.TrimSpace(req.Description),
		Items:       items,
	}
	if group.Name == "" {
		return ItemGroup{}, errors.New("item group name required")
	}
	return s.repo.Create(ctx, group)
}

func (s *Service) Update(ctx context.Context, id string, req UpdateItemGroupRequest) (ItemGroup, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return ItemGroup{}, err
	}
	if req.Name != nil {
		existing.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		existing.Description = strings.TrimSpace(*req.Description)
	}
	if existing.Name == "" {
		return ItemGroup{}, errors.New("item group name required")
	}
	if err := s.repo.Update(ctx, id, existing); err != nil {
		return ItemGroup{}, err
	}
	return s.repo.Get(ctx, id)
}

// ReplaceItems swaps the whole composition. Partial edits are not
// supported; callers send the desired final list.
func (s *Service) ReplaceItems(ctx context.Context, id string, req ReplaceItemsRequest) (ItemGroup, error) {
	items, err := toGroupItems(req.Items)
	if err != nil {
		return ItemGroup{}, err
	}
	if err := s.repo.ReplaceItems(ctx, id, items); err != nil {
		return ItemGroup{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("invalid item group ID")
	}
	return s.repo.Delete(ctx, id)
}

func toGroupItems(reqs []GroupItemRequest) ([]GroupItem, error) {
	seen := make(map[string]struct{}, len(reqs))
	items := make([]GroupItem, 0, len(reqs))
	for i, item := range reqs {
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("item %d: quantity must be a positive whole number", i+1)
		}
		if _, ok := seen[item.MaterialID]; ok {
			return nil, fmt.Errorf("item %d: material %s listed twice", i+1, item.MaterialID)
		}
		seen[item.MaterialID] = struct{}{}
		items = append(items, GroupItem{MaterialID: item.MaterialID, Quantity: item.Quantity})
	}
	return items, nil
}
