package consol

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Paulodev-web/OrcaRede-sub001/internal/budgets"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/itemgroups"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/materials"
)

// BudgetSource provides the budget and pole inputs.
type BudgetSource interface {
	Get(ctx context.Context, id string) (budgets.Budget, error)
	ListPoles(ctx context.Context, budgetID string) ([]budgets.Pole, error)
	RecentIDs(ctx context.Context) ([]string, error)
}

// GroupSource resolves item group templates by ID and fingerprints
// template state for cache keys.
type GroupSource interface {
	GetByIDs(ctx context.Context, ids []string) (map[string]itemgroups.ItemGroup, error)
	Version(ctx context.Context) (string, error)
}

// MaterialSource provides the priced catalog and its version fingerprint.
type MaterialSource interface {
	ListAll(ctx context.Context) ([]materials.Material, error)
	Version(ctx context.Context) (string, error)
}

// Service computes consolidated bills of materials, memoized in redis.
// The cache key carries a fingerprint of every input: a budget or pole
// edit, an item group template change or any catalog write produces a
// different fingerprint and forces a recompute. Cache failures degrade to recompute, never to an
// error.
type Service struct {
	budgets   BudgetSource
	groups    GroupSource
	materials MaterialSource
	cache     *redis.Client
	ttl       time.Duration
	logger    *slog.Logger
}

func NewService(budgetSrc BudgetSource, groupSrc GroupSource, materialSrc MaterialSource, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *Service {
	return &Service{budgets: budgetSrc, groups: groupSrc, materials: materialSrc, cache: cache, ttl: ttl, logger: logger}
}

type cachedResult struct {
	Fingerprint string `json:"fingerprint"`
	Result      Result `json:"result"`
}

// ForBudget returns the consolidated view for one budget.
func (s *Service) ForBudget(ctx context.Context, budgetID string) (Result, error) {
	budget, err := s.budgets.Get(ctx, budgetID)
	if err != nil {
		return Result{}, err
	}
	poles, err := s.budgets.ListPoles(ctx, budgetID)
	if err != nil {
		return Result{}, err
	}
	catalogVersion, err := s.materials.Version(ctx)
	if err != nil {
		return Result{}, err
	}
	groupsVersion, err := s.groups.Version(ctx)
	if err != nil {
		return Result{}, err
	}

	fingerprint := fingerprint(budget, poles, groupsVersion, catalogVersion)
	key := "consol:" + budgetID

	if s.cache != nil {
		if cached, ok := s.lookup(ctx, key, fingerprint); ok {
			return cached, nil
		}
	}

	groupIDs := collectGroupIDs(poles)
	groups, err := s.groups.GetByIDs(ctx, groupIDs)
	if err != nil {
		return Result{}, err
	}
	all, err := s.materials.ListAll(ctx)
	if err != nil {
		return Result{}, err
	}
	catalog := make(map[string]materials.Material, len(all))
	for _, m := range all {
		catalog[m.ID] = m
	}

	result := Consolidate(poles, groups, catalog)

	if s.cache != nil {
		s.store(ctx, key, fingerprint, result)
	}
	return result, nil
}

func (s *Service) lookup(ctx context.Context, key, fingerprint string) (Result, bool) {
	raw, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("consolidation cache read failed", "error", err, "key", key)
		}
		return Result{}, false
	}
	var entry cachedResult
	if err := json.Unmarshal(raw, &entry); err != nil {
		s.logger.Warn("consolidation cache decode failed", "error", err, "key", key)
		return Result{}, false
	}
	if entry.Fingerprint != fingerprint {
		return Result{}, false
	}
	return entry.Result, true
}

func (s *Service) store(ctx context.Context, key, fingerprint string, result Result) {
	raw, err := json.Marshal(cachedResult{Fingerprint: fingerprint, Result: result})
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, raw, s.ttl).Err(); err != nil {
		s.logger.Warn("consolidation cache write failed", "error", err, "key", key)
	}
}

// WarmBudget computes and caches the view without returning it.
func (s *Service) WarmBudget(ctx context.Context, budgetID string) error {
	_, err := s.ForBudget(ctx, budgetID)
	return err
}

// RecentBudgetIDs lists budgets worth warming.
func (s *Service) RecentBudgetIDs(ctx context.Context) ([]string, error) {
	return s.budgets.RecentIDs(ctx)
}

// Invalidate drops the cached view for one budget.
func (s *Service) Invalidate(ctx context.Context, budgetID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, "consol:"+budgetID).Err(); err != nil {
		s.logger.Warn("consolidation cache invalidate failed", "error", err, "budget_id", budgetID)
	}
}

func fingerprint(budget budgets.Budget, poles []budgets.Pole, groupsVersion, catalogVersion string) string {
	latest := budget.UpdatedAt
	children := 0
	for _, p := range poles {
		if p.UpdatedAt.After(latest) {
			latest = p.UpdatedAt
		}
		children += len(p.Groups) + len(p.LooseItems)
	}
	return fmt.Sprintf("%d:%d:%d:%s:%s", latest.UnixNano(), len(poles), children, groupsVersion, catalogVersion)
}

func collectGroupIDs(poles []budgets.Pole) []string {
	seen := make(map[string]struct{})
	var ids []string
	for _, p := range poles {
		for _, g := range p.Groups {
			if _, ok := seen[g.ItemGroupID]; ok {
				continue
			}
			seen[g.ItemGroupID] = struct{}{}
			ids = append(ids, g.ItemGroupID)
		}
	}
	return ids
}
