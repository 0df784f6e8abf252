package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/octobees/prospecting-crm/api/internal/auth"
	"github.com/octobees/prospecting-crm/api/internal/dto"
	"github.com/octobees/prospecting-crm/api/internal/entity"
	"github.com/octobees/prospecting-crm/api/internal/repository"
	"github.com/octobees/prospecting-crm/api/internal/service/pipeline"
	"github.com/octobees/prospecting-crm/api/internal/status"
)

// BlurredName replaces the name of a company the caller has not discovered.
const BlurredName = "••••••••"

const maxSummaryLength = 4000

// CompaniesService serves the companies and market views and the decisions taken on them.
type CompaniesService struct {
	repos      workspaceRepos
	targetings repository.TargetingsRepository
	ledger     *CreditLedger
	statuses   *status.Hierarchy
}

// UploadSummary reports how many rows were inserted or updated during import.
type UploadSummary struct {
	Inserted int `json:"inserted"`
	Updated  int `json:"updated"`
	Total    int `json:"total"`
}

// MarketCompany is a company as shown in the market. Undiscovered companies
// have their identifying fields masked.
type MarketCompany struct {
	entity.Company
	Blurred bool `json:"blurred"`
}

// CompanyDiscovery is the outcome of a discover action.
type CompanyDiscovery struct {
	Company entity.Company `json:"company"`
	Charged bool           `json:"charged"`
	Balance int            `json:"balance"`
}

// NewCompaniesService creates a new instance of CompaniesService.
func NewCompaniesService(
	companies repository.CompaniesRepository,
	leads repository.LeadsRepository,
	contacts repository.ContactsRepository,
	targetings repository.TargetingsRepository,
	ledger *CreditLedger,
	statuses *status.Hierarchy,
) *CompaniesService {
	statuses = defaultHierarchy(statuses)
	return &CompaniesService{
		repos:      workspaceRepos{companies: companies, leads: leads, contacts: contacts, statuses: statuses},
		targetings: targetings,
		ledger:     ledger,
		statuses:   statuses,
	}
}

// List runs the companies view over the caller's discovered companies.
// The active targeting narrows the list when one is set.
func (s *CompaniesService) List(ctx context.Context, actx auth.Context, filter dto.ListFilter) (pipeline.Result[entity.Company], error) {
	userID, err := actx.Require()
	if err != nil {
		return pipeline.Result[entity.Company]{}, err
	}
	ws, err := s.repos.load(ctx, userID)
	if err != nil {
		return pipeline.Result[entity.Company]{}, fmt.Errorf("load companies: %w", err)
	}
	criteria, err := activeCriteria(ctx, s.targetings, userID)
	if err != nil {
		return pipeline.Result[entity.Company]{}, err
	}

	discovered := make([]entity.Company, 0, len(ws.companies))
	for _, c := range ws.companies {
		if c.IsDiscovered {
			discovered = append(discovered, c)
		}
	}

	opts := pipelineOptions(filter)
	opts.Targeting = criteria
	return pipeline.Run(discovered, ws.companyFacts, opts, s.statuses), nil
}

// Market runs the market view. It needs an active targeting; without one the
// result is empty with NeedsTargeting set.
func (s *CompaniesService) Market(ctx context.Context, actx auth.Context, filter dto.ListFilter) (pipeline.Result[MarketCompany], error) {
	userID, err := actx.Require()
	if err != nil {
		return pipeline.Result[MarketCompany]{}, err
	}
	criteria, err := activeCriteria(ctx, s.targetings, userID)
	if err != nil {
		return pipeline.Result[MarketCompany]{}, err
	}

	opts := pipelineOptions(filter)
	opts.Targeting = criteria
	opts.RequireTargeting = true
	if criteria == nil {
		return pipeline.Run([]MarketCompany{}, nil, opts, s.statuses), nil
	}

	ws, err := s.repos.load(ctx, userID)
	if err != nil {
		return pipeline.Result[MarketCompany]{}, fmt.Errorf("load market: %w", err)
	}
	items := make([]MarketCompany, 0, len(ws.companies))
	for _, c := range ws.companies {
		items = append(items, blur(c))
	}
	facts := func(m MarketCompany) pipeline.Facts {
		return ws.companyFacts(m.Company)
	}
	return pipeline.Run(items, facts, opts, s.statuses), nil
}

// blur masks what identifies an undiscovered company. Targeting fields stay visible.
func blur(c entity.Company) MarketCompany {
	if c.IsDiscovered {
		return MarketCompany{Company: c}
	}
	c.Name = BlurredName
	c.Website = nil
	c.LinkedIn = nil
	c.Address = nil
	c.RegistryID = nil
	c.Summary = nil
	return MarketCompany{Company: c, Blurred: true}
}

// Discover reveals a company for the discovery cost. Discovering an already
// discovered company charges nothing.
func (s *CompaniesService) Discover(ctx context.Context, actx auth.Context, companyID uuid.UUID) (CompanyDiscovery, error) {
	userID, err := actx.Require()
	if err != nil {
		return CompanyDiscovery{}, err
	}
	company, err := s.repos.companies.Get(ctx, userID, companyID)
	if err != nil {
		return CompanyDiscovery{}, err
	}

	if company.IsDiscovered {
		balance, err := s.ledger.Balance(ctx, actx)
		if err != nil {
			return CompanyDiscovery{}, err
		}
		return CompanyDiscovery{Company: *company, Balance: balance}, nil
	}

	result, err := s.ledger.spendDiscovery(ctx, actx, repository.CompanyDiscovery(userID, companyID))
	if err != nil {
		return CompanyDiscovery{Balance: result.Balance}, err
	}

	company, err = s.repos.companies.Get(ctx, userID, companyID)
	if err != nil {
		return CompanyDiscovery{}, err
	}
	return CompanyDiscovery{Company: *company, Charged: true, Balance: result.Balance}, nil
}

// Go promotes a discovered company into the caller's pipeline. Repeating it
// refreshes the copied fields and keeps the lead's status.
func (s *CompaniesService) Go(ctx context.Context, actx auth.Context, companyID uuid.UUID) (*entity.Lead, error) {
	userID, err := actx.Require()
	if err != nil {
		return nil, err
	}
	company, err := s.repos.companies.Get(ctx, userID, companyID)
	if err != nil {
		return nil, err
	}
	if !company.IsDiscovered {
		return nil, invalid("company must be discovered before it can be added")
	}
	return s.repos.leads.UpsertFromCompany(ctx, entity.LeadFromCompany(*company))
}

// NoGo hides a company from the default views.
func (s *CompaniesService) NoGo(ctx context.Context, actx auth.Context, companyID uuid.UUID) error {
	return s.setHidden(ctx, actx, companyID, true)
}

// Restore reverts a NO GO.
func (s *CompaniesService) Restore(ctx context.Context, actx auth.Context, companyID uuid.UUID) error {
	return s.setHidden(ctx, actx, companyID, false)
}

func (s *CompaniesService) setHidden(ctx context.Context, actx auth.Context, companyID uuid.UUID, hidden bool) error {
	userID, err := actx.Require()
	if err != nil {
		return err
	}
	return s.repos.companies.SetHidden(ctx, userID, companyID, hidden)
}

// SetSummary stores the free-text summary of a company. Blank clears it.
func (s *CompaniesService) SetSummary(ctx context.Context, actx auth.Context, companyID uuid.UUID, summary *string) (*entity.Company, error) {
	userID, err := actx.Require()
	if err != nil {
		return nil, err
	}
	if summary != nil {
		trimmed := strings.TrimSpace(*summary)
		if len([]rune(trimmed)) > maxSummaryLength {
			return nil, invalid("summary must be at most %d characters", maxSummaryLength)
		}
		summary = &trimmed
	}
	if err := s.repos.companies.SetSummary(ctx, userID, companyID, summary); err != nil {
		return nil, err
	}
	return s.repos.companies.Get(ctx, userID, companyID)
}

// ImportCompaniesCSV ingests companies for userID from a CSV reader.
func (s *CompaniesService) ImportCompaniesCSV(ctx context.Context, userID uuid.UUID, r io.Reader) (UploadSummary, error) {
	if userID == uuid.Nil {
		return UploadSummary{}, invalid("user_id is required")
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return UploadSummary{}, invalid("csv file is empty")
		}
		return UploadSummary{}, fmt.Errorf("read csv header: %w", err)
	}

	indexMap, err := buildHeaderIndex(header)
	if err != nil {
		return UploadSummary{}, err
	}

	var (
		records []repository.BulkUpsertCompanyInput
		rowNum  = 1
	)

	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return UploadSummary{}, fmt.Errorf("read csv row: %w", err)
		}

		rowNum++
		field := func(name string) string {
			i, ok := indexMap[name]
			if !ok || i >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[i])
		}

		name := field("name")
		if name == "" {
			continue
		}

		headcount, err := parseCount(field("headcount"))
		if err != nil {
			return UploadSummary{}, invalid("invalid headcount value on row %d", rowNum)
		}
		revenue, err := parseCount(field("annual_revenue"))
		if err != nil {
			return UploadSummary{}, invalid("invalid annual_revenue value on row %d", rowNum)
		}

		records = append(records, repository.BulkUpsertCompanyInput{
			Name:          name,
			Sector:        field("sector"),
			Department:    field("department"),
			Headcount:     headcount,
			AnnualRevenue: revenue,
			Website:       normalizeString(field("website")),
			LinkedIn:      normalizeString(field("linkedin")),
			Address:       normalizeString(field("address")),
			RegistryID:    normalizeString(field("siret")),
			IndustryCode:  normalizeString(field("naf")),
		})
	}

	result, err := s.repos.companies.BulkUpsertCompanies(ctx, userID, records)
	if err != nil {
		return UploadSummary{}, err
	}

	return UploadSummary{
		Inserted: result.Inserted,
		Updated:  result.Updated,
		Total:    result.Total,
	}, nil
}

var requiredCSVHeaders = []string{"name", "sector", "department", "headcount", "annual_revenue"}

func buildHeaderIndex(header []string) (map[string]int, error) {
	index := make(map[string]int)
	for i, col := range header {
		index[strings.ToLower(strings.TrimSpace(col))] = i
	}

	missing := make([]string, 0)
	for _, required := range requiredCSVHeaders {
		if _, ok := index[required]; !ok {
			missing = append(missing, required)
		}
	}
	if len(missing) > 0 {
		return nil, invalid("missing required columns: %s", strings.Join(missing, ", "))
	}
	return index, nil
}

// parseCount reads a non-negative integer. Blank is zero; spaces used as
// thousands separators are ignored.
func parseCount(value string) (int64, error) {
	value = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\u00a0', '\u202f':
			return -1
		}
		return r
	}, value)
	if value == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative value %d", n)
	}
	return n, nil
}

func normalizeString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
