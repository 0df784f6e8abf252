package service

import (
	"context"
	"fmt"

	"github.com/octobees/prospecting-crm/api/internal/auth"
	"github.com/octobees/prospecting-crm/api/internal/dto"
	"github.com/octobees/prospecting-crm/api/internal/entity"
	"github.com/octobees/prospecting-crm/api/internal/repository"
	"github.com/octobees/prospecting-crm/api/internal/service/pipeline"
	"github.com/octobees/prospecting-crm/api/internal/status"
)

// Prospect is a lead with its contacts, masked where not discovered.
type Prospect struct {
	entity.Lead
	Contacts []entity.Contact `json:"contacts"`
}

// BoardColumn holds the prospects whose contacts reduce to Status.
type BoardColumn struct {
	Status status.Status            `json:"status"`
	Items  []pipeline.Row[Prospect] `json:"items"`
}

// Board is the kanban view, one column per status in rank order.
type Board struct {
	Columns []BoardColumn `json:"columns"`
	Total   int           `json:"total"`
}

// ProspectsService serves the pipeline of leads as a list or a board.
type ProspectsService struct {
	repos    workspaceRepos
	statuses *status.Hierarchy
}

// NewProspectsService wires the prospects views.
func NewProspectsService(
	companies repository.CompaniesRepository,
	leads repository.LeadsRepository,
	contacts repository.ContactsRepository,
	statuses *status.Hierarchy,
) *ProspectsService {
	statuses = defaultHierarchy(statuses)
	return &ProspectsService{
		repos:    workspaceRepos{companies: companies, leads: leads, contacts: contacts, statuses: statuses},
		statuses: statuses,
	}
}

// load returns the prospects of the caller. Leads attached to a company that
// is still undiscovered are signals awaiting discovery and are left out.
func (s *ProspectsService) load(ctx context.Context, actx auth.Context) (*workspace, []Prospect, error) {
	userID, err := actx.Require()
	if err != nil {
		return nil, nil, err
	}
	ws, err := s.repos.load(ctx, userID)
	if err != nil {
		return nil, nil, fmt.Errorf("load prospects: %w", err)
	}

	prospects := make([]Prospect, 0, len(ws.leads))
	for _, l := range ws.leads {
		if c, ok := ws.companyByID[l.CompanyID]; ok && !c.IsDiscovered {
			continue
		}
		contacts := ws.contactsByLead[l.ID]
		masked := make([]entity.Contact, 0, len(contacts))
		for _, c := range contacts {
			masked = append(masked, MaskContact(c))
		}
		prospects = append(prospects, Prospect{Lead: l, Contacts: masked})
	}
	return ws, prospects, nil
}

// List runs the list view: search, status filter, sort and pagination.
func (s *ProspectsService) List(ctx context.Context, actx auth.Context, filter dto.ListFilter) (pipeline.Result[Prospect], error) {
	ws, prospects, err := s.load(ctx, actx)
	if err != nil {
		return pipeline.Result[Prospect]{}, err
	}
	facts := func(p Prospect) pipeline.Facts { return ws.leadFacts(p.Lead) }
	return pipeline.Run(prospects, facts, pipelineOptions(filter), s.statuses), nil
}

// Board groups the filtered and sorted prospects by aggregate status.
// Pagination does not apply.
func (s *ProspectsService) Board(ctx context.Context, actx auth.Context, filter dto.ListFilter) (Board, error) {
	ws, prospects, err := s.load(ctx, actx)
	if err != nil {
		return Board{}, err
	}
	facts := func(p Prospect) pipeline.Facts { return ws.leadFacts(p.Lead) }

	opts := pipelineOptions(filter)
	opts.Status = ""
	rows := pipeline.Select(prospects, facts, opts, s.statuses)

	order := s.statuses.Statuses()
	columns := make([]BoardColumn, len(order))
	index := make(map[status.Status]int, len(order))
	for i, st := range order {
		columns[i] = BoardColumn{Status: st, Items: []pipeline.Row[Prospect]{}}
		index[st] = i
	}
	for _, row := range rows {
		i := index[row.Status]
		columns[i].Items = append(columns[i].Items, row)
	}
	return Board{Columns: columns, Total: len(rows)}, nil
}
