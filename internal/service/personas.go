package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/octobees/prospecting-crm/api/internal/auth"
	"github.com/octobees/prospecting-crm/api/internal/dto"
	"github.com/octobees/prospecting-crm/api/internal/entity"
	"github.com/octobees/prospecting-crm/api/internal/repository"
)

const maxLabelLength = 120

// PersonasService manages contact-generation personas.
type PersonasService struct {
	repo repository.PersonasRepository
}

// NewPersonasService builds a PersonasService.
func NewPersonasService(repo repository.PersonasRepository) *PersonasService {
	return &PersonasService{repo: repo}
}

// List returns the caller's personas by ascending position.
func (s *PersonasService) List(ctx context.Context, actx auth.Context) ([]entity.Persona, error) {
	userID, err := actx.Require()
	if err != nil {
		return nil, err
	}
	return s.repo.List(ctx, userID)
}

// Create adds a persona. Without a position it is placed after the existing ones.
func (s *PersonasService) Create(ctx context.Context, actx auth.Context, req dto.PersonaRequest) (*entity.Persona, error) {
	userID, err := actx.Require()
	if err != nil {
		return nil, err
	}
	p, err := personaFromRequest(req)
	if err != nil {
		return nil, err
	}
	p.UserID = userID

	if req.Position == nil {
		existing, err := s.repo.List(ctx, userID)
		if err != nil {
			return nil, err
		}
		for _, e := range existing {
			if e.Position >= p.Position {
				p.Position = e.Position + 1
			}
		}
	}
	return s.repo.Create(ctx, p)
}

// Update replaces a persona. A nil position keeps the current one.
func (s *PersonasService) Update(ctx context.Context, actx auth.Context, id uuid.UUID, req dto.PersonaRequest) (*entity.Persona, error) {
	userID, err := actx.Require()
	if err != nil {
		return nil, err
	}
	p, err := personaFromRequest(req)
	if err != nil {
		return nil, err
	}
	p.ID = id
	p.UserID = userID

	if req.Position == nil {
		existing, err := s.repo.List(ctx, userID)
		if err != nil {
			return nil, err
		}
		found := false
		for _, e := range existing {
			if e.ID == id {
				p.Position = e.Position
				found = true
				break
			}
		}
		if !found {
			return nil, ErrNotFound
		}
	}
	return s.repo.Update(ctx, p)
}

// Delete removes a persona. Contacts it produced keep their rank.
func (s *PersonasService) Delete(ctx context.Context, actx auth.Context, id uuid.UUID) error {
	userID, err := actx.Require()
	if err != nil {
		return err
	}
	return s.repo.Delete(ctx, userID, id)
}

func personaFromRequest(req dto.PersonaRequest) (entity.Persona, error) {
	p := entity.Persona{
		Name:          strings.TrimSpace(req.Name),
		Service:       strings.TrimSpace(req.Service),
		DecisionLevel: strings.TrimSpace(req.DecisionLevel),
	}
	switch {
	case p.Name == "":
		return p, invalid("name is required")
	case p.Service == "":
		return p, invalid("service is required")
	case p.DecisionLevel == "":
		return p, invalid("decision_level is required")
	case len([]rune(p.Name)) > maxLabelLength:
		return p, invalid("name must be at most %d characters", maxLabelLength)
	}
	if req.Position != nil {
		if *req.Position < 0 {
			return p, invalid("position must not be negative")
		}
		p.Position = *req.Position
	}
	return p, nil
}
