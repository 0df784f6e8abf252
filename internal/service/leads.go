package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/octobees/prospecting-crm/api/internal/auth"
	"github.com/octobees/prospecting-crm/api/internal/entity"
	"github.com/octobees/prospecting-crm/api/internal/repository"
)

const maxSignalSummaryLength = 2000

// LeadsService reads leads and records status changes and buying signals.
type LeadsService struct {
	leads     repository.LeadsRepository
	companies repository.CompaniesRepository
}

// NewLeadsService builds a LeadsService.
func NewLeadsService(leads repository.LeadsRepository, companies repository.CompaniesRepository) *LeadsService {
	return &LeadsService{leads: leads, companies: companies}
}

func (s *LeadsService) Get(ctx context.Context, actx auth.Context, id uuid.UUID) (*entity.Lead, error) {
	userID, err := actx.Require()
	if err != nil {
		return nil, err
	}
	return s.leads.Get(ctx, userID, id)
}

// UpdateStatus sets the free-form pipeline label of a lead.
func (s *LeadsService) UpdateStatus(ctx context.Context, actx auth.Context, id uuid.UUID, label string) (*entity.Lead, error) {
	userID, err := actx.Require()
	if err != nil {
		return nil, err
	}
	label = strings.TrimSpace(label)
	if label == "" {
		return nil, invalid("status is required")
	}
	if len([]rune(label)) > maxLabelLength {
		return nil, invalid("status must be at most %d characters", maxLabelLength)
	}
	return s.leads.UpdateStatus(ctx, userID, id, label)
}

// UndiscoveredSignalCount counts hot signals on companies the caller has not discovered.
func (s *LeadsService) UndiscoveredSignalCount(ctx context.Context, actx auth.Context) (int, error) {
	userID, err := actx.Require()
	if err != nil {
		return 0, err
	}
	return s.leads.CountUndiscoveredSignals(ctx, userID)
}

// RecordSignal marks the lead of a company as a hot signal for userID,
// creating the lead when the company has none yet.
func (s *LeadsService) RecordSignal(ctx context.Context, userID, companyID uuid.UUID, summary *string) (*entity.Lead, error) {
	if userID == uuid.Nil || companyID == uuid.Nil {
		return nil, invalid("user_id and company_id are required")
	}
	if summary != nil {
		trimmed := strings.TrimSpace(*summary)
		if len([]rune(trimmed)) > maxSignalSummaryLength {
			return nil, invalid("summary must be at most %d characters", maxSignalSummaryLength)
		}
		summary = &trimmed
	}
	company, err := s.companies.Get(ctx, userID, companyID)
	if err != nil {
		return nil, err
	}
	return s.leads.MarkSignal(ctx, entity.LeadFromCompany(*company), summary)
}
