package materials

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/shared"
	internalShared "github.com/Paulodev-web/OrcaRede-sub001/internal/shared"
)

type Service struct {
	repo  Repository
	audit *internalShared.AuditLogger
}

func NewService(repo Repository, audit *internalShared.AuditLogger) *Service {
	return &Service{repo: repo, audit: audit}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Material, int, error) {
	return s.repo.List(ctx, filters)
}

// ListAll drains the whole catalog through the pagination helper. Used by the
// consolidation warmup and the import verification job.
func (s *Service) ListAll(ctx context.Context) ([]Material, error) {
	return internalShared.FetchAll(ctx, internalShared.DefaultFetchPageSize, func(ctx context.Context, offset, limit int) ([]Material, error) {
		page, _, err := s.repo.List(ctx, shared.ListFilters{Page: offset/limit + 1, Limit: limit, SortBy: "code"})
		return page, err
	})
}

// GetByCodes resolves materials by business code. Unknown codes are
// simply absent from the result.
func (s *Service) GetByCodes(ctx context.Context, codes []string) ([]Material, error) {
	return s.repo.GetByCodes(ctx, codes)
}

// ImportIgnoreDuplicates forwards one sanitized batch to the catalog and
// records its outcome in the audit trail.
func (s *Service) ImportIgnoreDuplicates(ctx context.Context, batch []ImportRecord) (ImportCounts, error) {
	counts, err := s.repo.ImportIgnoreDuplicates(ctx, batch)
	if err != nil {
		return ImportCounts{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.AuditLog{
			Action:   "catalog.materials.import_batch",
			Entity:   "materials",
			EntityID: "*",
			Meta: map[string]any{
				"size":     len(batch),
				"inserted": counts.Inserted,
				"skipped":  counts.Skipped,
			},
		})
	}
	return counts, nil
}

// Version exposes the catalog fingerprint for cache keys.
func (s *Service) Version(ctx context.Context) (string, error) {
	return s.repo.Version(ctx)
}

func (s *Service) Get(ctx context.Context, id string) (Material, error) {
	if id == "" {
		return Material{}, fmt.Errorf("material id required")
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreateMaterialRequest) (Material, error) {
	material := Material{
		Code:        strings.TrimSpace(req.Code),
		Description: strings.TrimSpace(req.Description),
		Unit:        strings.TrimSpace(req.Unit),
		Price:       req.Price,
	}
	if material.Code == "" {
		return Material{}, fmt.Errorf("material code required")
	}
	return s.repo.Create(ctx, material)
}

func (s *Service) Update(ctx context.Context, id string, req UpdateMaterialRequest) (Material, error) {
	existing, err := s.repo.Get(ctx, id)
	if err != nil {
		return Material{}, err
	}
	if req.Code != nil {
		existing.Code = strings.TrimSpace(*req.Code)
	}
	if req.Description != nil {
		existing.Description = strings.TrimSpace(*req.Description)
	}
	if req.Unit != nil {
		existing.Unit = strings.TrimSpace(*req.Unit)
	}
	if req.Price != nil {
		existing.Price = *req.Price
	}
	if err := s.repo.Update(ctx, id, existing); err != nil {
		return Material{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("material id required")
	}
	return s.repo.Delete(ctx, id)
}

// DeleteAll wipes the catalog through the server-side procedure and records
// the removal in the audit trail.
func (s *Service) DeleteAll(ctx context.Context, actorID string) (int, error) {
	removed, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalShared.AuditLog{
			ActorID:  actorID,
			Action:   "catalog.materials.delete_all",
			Entity:   "materials",
			EntityID: "*",
			Meta:     map[string]any{"removed": strconv.Itoa(removed)},
		})
	}
	return removed, nil
}
