package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/octobees/prospecting-crm/api/internal/auth"
	"github.com/octobees/prospecting-crm/api/internal/dto"
	"github.com/octobees/prospecting-crm/api/internal/entity"
	"github.com/octobees/prospecting-crm/api/internal/repository"
)

// ActiveTargeting is the reconciliation read of the active targeting. With no
// active targeting the caller must pick one.
type ActiveTargeting struct {
	Targeting      *entity.Targeting `json:"targeting"`
	NeedsSelection bool              `json:"needs_selection"`
}

// TargetingAudit lists users whose stored activation state needs attention.
type TargetingAudit struct {
	NeedsSelection []uuid.UUID `json:"needs_selection"`
	Conflicting    []uuid.UUID `json:"conflicting"`
}

// TargetingsService manages saved targetings and the single active one.
type TargetingsService struct {
	repo repository.TargetingsRepository
}

// NewTargetingsService builds a TargetingsService.
func NewTargetingsService(repo repository.TargetingsRepository) *TargetingsService {
	return &TargetingsService{repo: repo}
}

func (s *TargetingsService) List(ctx context.Context, actx auth.Context) ([]entity.Targeting, error) {
	userID, err := actx.Require()
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, userID)
}

// Create saves a new, inactive targeting.
func (s *TargetingsService) Create(ctx context.Context, actx auth.Context, req dto.TargetingRequest) (*entity.Targeting, error) {
	userID, err := actx.Require()
	if err != nil {
		return nil, err
	}
	t, err := targetingFromRequest(req)
	if err != nil {
		return nil, err
	}
	t.UserID = userID
	return s.repo.Create(ctx, t)
}

// Update replaces the criteria of a targeting.
func (s *TargetingsService) Update(ctx context.Context, actx auth.Context, id uuid.UUID, req dto.TargetingRequest) (*entity.Targeting, error) {
	userID, err := actx.Require()
	if err != nil {
		return nil, err
	}
	t, err := targetingFromRequest(req)
	if err != nil {
		return nil, err
	}
	t.ID = id
	t.UserID = userID
	return s.repo.Update(ctx, t)
}

func (s *TargetingsService) Delete(ctx context.Context, actx auth.Context, id uuid.UUID) error {
	userID, err := actx.Require()
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, userID, id)
}

// Activate makes id the caller's only active targeting.
func (s *TargetingsService) Activate(ctx context.Context, actx auth.Context, id uuid.UUID) (*entity.Targeting, error) {
	userID, err := actx.Require()
	if err != nil {
		return nil, err
	}
	if err := s.repo.Activate(ctx, userID, id); err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, userID, id)
}

// Deactivate leaves the caller without an active targeting.
func (s *TargetingsService) Deactivate(ctx context.Context, actx auth.Context) error {
	userID, err := actx.Require()
	if err != nil {
		return err
	}
	return s.repo.Deactivate(ctx, userID)
}

// Active returns the caller's active targeting, flagging when none is set.
func (s *TargetingsService) Active(ctx context.Context, actx auth.Context) (ActiveTargeting, error) {
	userID, err := actx.Require()
	if err != nil {
		return ActiveTargeting{}, err
	}
	t, err := s.repo.Active(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ActiveTargeting{NeedsSelection: true}, nil
		}
		return ActiveTargeting{}, err
	}
	return ActiveTargeting{Targeting: t}, nil
}

// Audit reports users with targetings but none active, and users with more
// than one active targeting.
func (s *TargetingsService) Audit(ctx context.Context) (TargetingAudit, error) {
	counts, err := s.repo.CountActiveByUser(ctx)
	if err != nil {
		return TargetingAudit{}, err
	}
	audit := TargetingAudit{NeedsSelection: []uuid.UUID{}, Conflicting: []uuid.UUID{}}
	for userID, active := range counts {
		switch {
		case active == 0:
			audit.NeedsSelection = append(audit.NeedsSelection, userID)
		case active > 1:
			audit.Conflicting = append(audit.Conflicting, userID)
		}
	}
	sortIDs(audit.NeedsSelection)
	sortIDs(audit.Conflicting)
	return audit, nil
}

// Repair deactivates every targeting of users with conflicting activations so
// they are asked to choose again.
func (s *TargetingsService) Repair(ctx context.Context, audit TargetingAudit) (int, error) {
	repaired := 0
	for _, userID := range audit.Conflicting {
		if err := s.repo.Deactivate(ctx, userID); err != nil {
			return repaired, err
		}
		repaired++
	}
	return repaired, nil
}

func sortIDs(ids []uuid.UUID) {
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
}

func targetingFromRequest(req dto.TargetingRequest) (entity.Targeting, error) {
	t := entity.Targeting{
		Name:         strings.TrimSpace(req.Name),
		Departments:  cleanList(req.Departments),
		Sectors:      cleanList(req.Sectors),
		MinHeadcount: req.MinHeadcount,
		MaxHeadcount: req.MaxHeadcount,
		MinRevenue:   req.MinRevenue,
		MaxRevenue:   req.MaxRevenue,
	}
	if t.Name == "" {
		return t, invalid("name is required")
	}
	if len([]rune(t.Name)) > maxLabelLength {
		return t, invalid("name must be at most %d characters", maxLabelLength)
	}
	if err := checkRange("headcount", t.MinHeadcount, t.MaxHeadcount); err != nil {
		return t, err
	}
	if err := checkRange("revenue", t.MinRevenue, t.MaxRevenue); err != nil {
		return t, err
	}
	return t, nil
}

func checkRange(name string, lo, hi *int64) error {
	if (lo != nil && *lo < 0) || (hi != nil && *hi < 0) {
		return invalid("%s bounds must not be negative", name)
	}
	if lo != nil && hi != nil && *lo > *hi {
		return invalid("min %s must not exceed max %s", name, name)
	}
	return nil
}

// cleanList trims entries and drops blanks and duplicates, keeping order.
func cleanList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
