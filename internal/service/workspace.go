package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/octobees/prospecting-crm/api/internal/dto"
	"github.com/octobees/prospecting-crm/api/internal/entity"
	"github.com/octobees/prospecting-crm/api/internal/repository"
	"github.com/octobees/prospecting-crm/api/internal/service/pipeline"
	"github.com/octobees/prospecting-crm/api/internal/status"
)

// workspace is one user's companies, leads and contacts loaded together for a view.
type workspace struct {
	companies      []entity.Company
	leads          []entity.Lead
	companyByID    map[uuid.UUID]entity.Company
	leadByCompany  map[uuid.UUID]entity.Lead
	contactsByLead map[uuid.UUID][]entity.Contact
}

type workspaceRepos struct {
	companies repository.CompaniesRepository
	leads     repository.LeadsRepository
	contacts  repository.ContactsRepository
	statuses  *status.Hierarchy
}

// load fetches the three tables concurrently. Contact statuses outside the
// ranking read as its lowest stage.
func (r workspaceRepos) load(ctx context.Context, userID uuid.UUID) (*workspace, error) {
	var (
		companies []entity.Company
		leads     []entity.Lead
		contacts  []entity.Contact
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		companies, err = r.companies.ListByUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		leads, err = r.leads.ListByUser(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		contacts, err = r.contacts.ListByUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ws := &workspace{
		companies:      companies,
		leads:          leads,
		companyByID:    make(map[uuid.UUID]entity.Company, len(companies)),
		leadByCompany:  make(map[uuid.UUID]entity.Lead, len(leads)),
		contactsByLead: make(map[uuid.UUID][]entity.Contact),
	}
	for _, c := range companies {
		ws.companyByID[c.ID] = c
	}
	for _, l := range leads {
		ws.leadByCompany[l.CompanyID] = l
	}
	for _, c := range contacts {
		c.Status = r.statuses.Normalize(string(c.Status))
		ws.contactsByLead[c.LeadID] = append(ws.contactsByLead[c.LeadID], c)
	}
	return ws, nil
}

func contactFacts(f *pipeline.Facts, contacts []entity.Contact) {
	for _, c := range contacts {
		f.ContactNames = append(f.ContactNames, c.FullName)
		f.ContactStatuses = append(f.ContactStatuses, c.Status)
	}
}

func (ws *workspace) companyFacts(c entity.Company) pipeline.Facts {
	f := pipeline.Facts{
		Name:       c.Name,
		Sector:     c.Sector,
		Department: c.Department,
		Headcount:  c.Headcount,
		Revenue:    c.AnnualRevenue,
		IsHidden:   c.IsHidden,
	}
	if lead, ok := ws.leadByCompany[c.ID]; ok {
		f.IsHotSignal = lead.IsHotSignal
		contactFacts(&f, ws.contactsByLead[lead.ID])
	}
	return f
}

func (ws *workspace) leadFacts(l entity.Lead) pipeline.Facts {
	f := pipeline.Facts{
		Name:        l.Name,
		Sector:      l.Sector,
		Department:  l.Department,
		Headcount:   l.Headcount,
		Revenue:     l.AnnualRevenue,
		IsHotSignal: l.IsHotSignal,
	}
	contactFacts(&f, ws.contactsByLead[l.ID])
	return f
}

// activeCriteria returns the caller's active targeting as pipeline criteria, or nil.
func activeCriteria(ctx context.Context, repo repository.TargetingsRepository, userID uuid.UUID) (*pipeline.Criteria, error) {
	t, err := repo.Active(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return criteriaOf(*t), nil
}

func criteriaOf(t entity.Targeting) *pipeline.Criteria {
	return &pipeline.Criteria{
		Departments:  t.Departments,
		Sectors:      t.Sectors,
		MinHeadcount: t.MinHeadcount,
		MaxHeadcount: t.MaxHeadcount,
		MinRevenue:   t.MinRevenue,
		MaxRevenue:   t.MaxRevenue,
	}
}

func pipelineOptions(f dto.ListFilter) pipeline.Options {
	return pipeline.Options{
		ShowHidden: f.ShowHidden,
		Category:   pipeline.Category{Field: f.CategoryField, Value: f.Category},
		Query:      f.Q,
		Status:     f.Status,
		Sort:       pipeline.Sort{Key: pipeline.ParseSortKey(f.Sort), Desc: f.Desc},
		Page:       f.Page,
		PageSize:   f.PerPage,
	}
}

func defaultHierarchy(h *status.Hierarchy) *status.Hierarchy {
	if h == nil {
		return status.Default()
	}
	return h
}
