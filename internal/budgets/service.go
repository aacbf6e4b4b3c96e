package budgets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/materials"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/catalog/shared"
	"github.com/Paulodev-web/OrcaRede-sub001/internal/platform/httpx"
	internalshared "github.com/Paulodev-web/OrcaRede-sub001/internal/shared"
)

// MaterialCatalog is the slice of the materials service the budget
// module needs for price snapshots.
type MaterialCatalog interface {
	Get(ctx context.Context, id string) (materials.Material, error)
}

// Service owns budget lifecycle rules. Edits are rejected once a budget
// is finalized and the finalize transition itself runs through the
// finalize_budget database function.
type Service struct {
	repo    Repository
	catalog MaterialCatalog
	audit   *internalshared.AuditLogger
	logger  *slog.Logger
}

func NewService(repo Repository, catalog MaterialCatalog, audit *internalshared.AuditLogger, logger *slog.Logger) *Service {
	return &Service{repo: repo, catalog: catalog, audit: audit, logger: logger}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Budget, int, error) {
	return s.repo.ListBudgets(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id string) (Budget, error) {
	if id == "" {
		return Budget{}, errors.New("invalid budget ID")
	}
	return s.repo.GetBudget(ctx, id)
}

func (s *Service) Create(ctx context.Context, req CreateBudgetRequest, actorID string) (Budget, error) {
	b := Budget{
		Name:       strings.TrimSpace(req.Name),
		ClientName: strings.TrimSpace(req.ClientName),
		City:       strings.TrimSpace(req.City),
		UtilityID:  req.UtilityID,
		FolderID:   req.FolderID,
		CreatedBy:  actorID,
	}
	if b.Name == "" {
		return Budget{}, errors.New("budget name required")
	}
	return s.repo.CreateBudget(ctx, b)
}

func (s *Service) Update(ctx context.Context, id string, req UpdateBudgetRequest) (Budget, error) {
	existing, err := s.repo.GetBudget(ctx, id)
	if err != nil {
		return Budget{}, err
	}
	if existing.Finalized() {
		return Budget{}, httpx.ErrFinalized
	}
	if req.Name != nil {
		existing.Name = strings.TrimSpace(*req.Name)
	}
	if req.ClientName != nil {
		existing.ClientName = strings.TrimSpace(*req.ClientName)
	}
	if req.City != nil {
		existing.City = strings.TrimSpace(*req.City)
	}
	if req.FolderID != nil {
		existing.FolderID = req.FolderID
	}
	if existing.Name == "" {
		return Budget{}, errors.New("budget name required")
	}
	if err := s.repo.UpdateBudget(ctx, id, existing); err != nil {
		return Budget{}, err
	}
	return s.repo.GetBudget(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	existing, err := s.repo.GetBudget(ctx, id)
	if err != nil {
		return err
	}
	if existing.Finalized() {
		return httpx.ErrFinalized
	}
	return s.repo.DeleteBudget(ctx, id)
}

// Finalize moves a budget to FINALIZED. The database function performs
// the conditional update, so two concurrent calls cannot both win.
func (s *Service) Finalize(ctx context.Context, id, actorID string) (Budget, error) {
	ok, err := s.repo.Finalize(ctx, id)
	if err != nil {
		return Budget{}, err
	}
	if !ok {
		existing, err := s.repo.GetBudget(ctx, id)
		if err != nil {
			return Budget{}, err
		}
		if existing.Finalized() {
			return Budget{}, httpx.ErrFinalized
		}
		return Budget{}, httpx.ErrNotFound
	}
	if s.audit != nil {
		if err := s.audit.Record(ctx, internalshared.AuditLog{
			ActorID:  actorID,
			Action:   "budgets.finalize",
			Entity:   "budget",
			EntityID: id,
		}); err != nil {
			s.logger.Warn("audit finalize failed", "error", err, "budget_id", id)
		}
	}
	return s.repo.GetBudget(ctx, id)
}

// RecentIDs exposes recently edited budgets for cache warmup.
func (s *Service) RecentIDs(ctx context.Context) ([]string, error) {
	return s.repo.RecentIDs(ctx)
}

func (s *Service) ListFolders(ctx context.Context) ([]Folder, error) {
	return s.repo.ListFolders(ctx)
}

func (s *Service) CreateFolder(ctx context.Context, req CreateFolderRequest) (Folder, error) {
	f := Folder{Name: strings.TrimSpace(req.Name), Description: strings.TrimSpace(req.Description)}
	if f.Name == "" {
		return Folder{}, errors.New("folder name required")
	}
	return s.repo.CreateFolder(ctx, f)
}

func (s *Service) UpdateFolder(ctx context.Context, id string, req CreateFolderRequest) error {
	f := Folder{Name: strings.TrimSpace(req.Name), Description: strings.TrimSpace(req.Description)}
	if f.Name == "" {
		return errors.New("folder name required")
	}
	return s.repo.UpdateFolder(ctx, id, f)
}

func (s *Service) DeleteFolder(ctx context.Context, id string) error {
	return s.repo.DeleteFolder(ctx, id)
}

func (s *Service) ListPoles(ctx context.Context, budgetID string) ([]Pole, error) {
	if _, err := s.repo.GetBudget(ctx, budgetID); err != nil {
		return nil, err
	}
	return s.repo.ListPoles(ctx, budgetID)
}

func (s *Service) AddPole(ctx context.Context, budgetID string, req CreatePoleRequest) (Pole, error) {
	if err := s.requireEditable(ctx, budgetID); err != nil {
		return Pole{}, err
	}
	return s.repo.CreatePole(ctx, Pole{
		BudgetID:   budgetID,
		Label:      strings.TrimSpace(req.Label),
		PostTypeID: req.PostTypeID,
	})
}

func (s *Service) UpdatePole(ctx context.Context, poleID string, req UpdatePoleRequest) (Pole, error) {
	pole, err := s.repo.GetPole(ctx, poleID)
	if err != nil {
		return Pole{}, err
	}
	if err := s.requireEditable(ctx, pole.BudgetID); err != nil {
		return Pole{}, err
	}
	if req.Label != nil {
		pole.Label = strings.TrimSpace(*req.Label)
	}
	if req.PostTypeID != nil {
		pole.PostTypeID = *req.PostTypeID
	}
	if req.Position != nil {
		pole.Position = *req.Position
	}
	if err := s.repo.UpdatePole(ctx, poleID, pole); err != nil {
		return Pole{}, err
	}
	return s.repo.GetPole(ctx, poleID)
}

func (s *Service) RemovePole(ctx context.Context, poleID string) error {
	pole, err := s.repo.GetPole(ctx, poleID)
	if err != nil {
		return err
	}
	if err := s.requireEditable(ctx, pole.BudgetID); err != nil {
		return err
	}
	return s.repo.DeletePole(ctx, poleID)
}

func (s *Service) AttachGroup(ctx context.Context, poleID string, req AttachGroupRequest) (PoleGroup, error) {
	pole, err := s.repo.GetPole(ctx, poleID)
	if err != nil {
		return PoleGroup{}, err
	}
	if err := s.requireEditable(ctx, pole.BudgetID); err != nil {
		return PoleGroup{}, err
	}
	return s.repo.AttachGroup(ctx, poleID, req.ItemGroupID)
}

func (s *Service) DetachGroup(ctx context.Context, poleID, instanceID string) error {
	pole, err := s.repo.GetPole(ctx, poleID)
	if err != nil {
		return err
	}
	if err := s.requireEditable(ctx, pole.BudgetID); err != nil {
		return err
	}
	return s.repo.DetachGroup(ctx, poleID, instanceID)
}

// AddLooseItem snapshots the current catalog price onto the line. The
// snapshot is never refreshed afterwards.
func (s *Service) AddLooseItem(ctx context.Context, poleID string, req AddLooseItemRequest) (LooseItem, error) {
	pole, err := s.repo.GetPole(ctx, poleID)
	if err != nil {
		return LooseItem{}, err
	}
	if err := s.requireEditable(ctx, pole.BudgetID); err != nil {
		return LooseItem{}, err
	}
	material, err := s.catalog.Get(ctx, req.MaterialID)
	if err != nil {
		return LooseItem{}, err
	}
	return s.repo.AddLooseItem(ctx, poleID, LooseItem{
		MaterialID:      material.ID,
		Quantity:        req.Quantity,
		PriceAtAddition: material.Price,
	})
}

func (s *Service) RemoveLooseItem(ctx context.Context, poleID, itemID string) error {
	pole, err := s.repo.GetPole(ctx, poleID)
	if err != nil {
		return err
	}
	if err := s.requireEditable(ctx, pole.BudgetID); err != nil {
		return err
	}
	return s.repo.RemoveLooseItem(ctx, poleID, itemID)
}

// Duplicate copies a budget with its poles, group instances and loose
// lines. Steps run sequentially and each completed step is written to a
// persistent log before the next starts. On failure the run stops where
// it is: completed rows stay, the report shows how far the run got, and
// the error is returned with it.
func (s *Service) Duplicate(ctx context.Context, budgetID, actorID string) (Budget, DuplicationReport, error) {
	report := DuplicationReport{RunID: uuid.NewString()}

	source, err := s.repo.GetBudget(ctx, budgetID)
	if err != nil {
		return Budget{}, report, err
	}

	copyReq := source
	copyReq.ID = ""
	copyReq.Name = source.Name + " (copy)"
	copyReq.Status = StatusInProgress
	copyReq.FinalizedAt = nil
	copyReq.CreatedBy = actorID

	created, err := s.repo.CreateBudget(ctx, copyReq)
	if err != nil {
		return Budget{}, report, fmt.Errorf("copy budget: %w", err)
	}
	report.NewBudgetID = created.ID
	s.logStep(ctx, &report, fmt.Sprintf("budget %s copied to %s", source.ID, created.ID))

	poles, err := s.repo.ListPoles(ctx, budgetID)
	if err != nil {
		return created, report, fmt.Errorf("list source poles: %w", err)
	}
	for _, pole := range poles {
		newPole, err := s.repo.CreatePole(ctx, Pole{
			BudgetID:   created.ID,
			Label:      pole.Label,
			PostTypeID: pole.PostTypeID,
		})
		if err != nil {
			return created, report, fmt.Errorf("copy pole %s: %w", pole.ID, err)
		}
		s.logStep(ctx, &report, fmt.Sprintf("pole %s copied to %s", pole.ID, newPole.ID))

		for _, g := range pole.Groups {
			if _, err := s.repo.AttachGroup(ctx, newPole.ID, g.ItemGroupID); err != nil {
				return created, report, fmt.Errorf("copy group instance %s on pole %s: %w", g.ID, pole.ID, err)
			}
		}
		if len(pole.Groups) > 0 {
			s.logStep(ctx, &report, fmt.Sprintf("%d group instances copied to pole %s", len(pole.Groups), newPole.ID))
		}

		for _, item := range pole.LooseItems {
			// Price snapshots travel with the copy, they are not re-read
			// from the catalog.
			if _, err := s.repo.AddLooseItem(ctx, newPole.ID, LooseItem{
				MaterialID:      item.MaterialID,
				Quantity:        item.Quantity,
				PriceAtAddition: item.PriceAtAddition,
			}); err != nil {
				return created, report, fmt.Errorf("copy loose item %s on pole %s: %w", item.ID, pole.ID, err)
			}
		}
		if len(pole.LooseItems) > 0 {
			s.logStep(ctx, &report, fmt.Sprintf("%d loose items copied to pole %s", len(pole.LooseItems), newPole.ID))
		}
	}

	if s.audit != nil {
		if err := s.audit.Record(ctx, internalshared.AuditLog{
			ActorID:  actorID,
			Action:   "budgets.duplicate",
			Entity:   "budget",
			EntityID: budgetID,
			Meta:     map[string]any{"run_id": report.RunID, "new_budget_id": created.ID},
		}); err != nil {
			s.logger.Warn("audit duplicate failed", "error", err, "budget_id", budgetID)
		}
	}
	return created, report, nil
}

func (s *Service) DuplicationSteps(ctx context.Context, runID string) ([]DuplicationStep, error) {
	return s.repo.ListDuplicationSteps(ctx, runID)
}

func (s *Service) logStep(ctx context.Context, report *DuplicationReport, description string) {
	report.Steps = append(report.Steps, description)
	if err := s.repo.RecordDuplicationStep(ctx, report.RunID, len(report.Steps), description); err != nil {
		// The step log is diagnostic; losing an entry must not fail the copy.
		s.logger.Warn("record duplication step failed", "error", err, "run_id", report.RunID)
	}
}

func (s *Service) requireEditable(ctx context.Context, budgetID string) error {
	b, err := s.repo.GetBudget(ctx, budgetID)
	if err != nil {
		return err
	}
	if b.Finalized() {
		return httpx.ErrFinalized
	}
	return nil
}
