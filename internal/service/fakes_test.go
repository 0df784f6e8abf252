package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/octobees/prospecting-crm/api/internal/auth"
	"github.com/octobees/prospecting-crm/api/internal/dto"
	"github.com/octobees/prospecting-crm/api/internal/entity"
	"github.com/octobees/prospecting-crm/api/internal/repository"
	"github.com/octobees/prospecting-crm/api/internal/status"
)

type mockUsersRepository struct {
	findByEmail func(ctx context.Context, email string) (*entity.User, error)
	findByID    func(ctx context.Context, id uuid.UUID) (*entity.User, error)
	create      func(ctx context.Context, email, passwordHash, role string) (*entity.User, error)
	list        func(ctx context.Context) ([]entity.User, error)
	update      func(ctx context.Context, id uuid.UUID, email, passwordHash, role *string) (*entity.User, error)
	delete      func(ctx context.Context, id uuid.UUID) error
}

func (m *mockUsersRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if m.findByEmail != nil {
		return m.findByEmail(ctx, email)
	}
	return nil, errors.New("findByEmail not implemented")
}

func (m *mockUsersRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	if m.findByID != nil {
		return m.findByID(ctx, id)
	}
	return nil, errors.New("FindByID not implemented")
}

func (m *mockUsersRepository) Create(ctx context.Context, email, passwordHash, role string) (*entity.User, error) {
	if m.create != nil {
		return m.create(ctx, email, passwordHash, role)
	}
	return nil, errors.New("create not implemented")
}

func (m *mockUsersRepository) List(ctx context.Context) ([]entity.User, error) {
	if m.list != nil {
		return m.list(ctx)
	}
	return nil, errors.New("List not implemented")
}

func (m *mockUsersRepository) Update(ctx context.Context, id uuid.UUID, email, passwordHash, role *string) (*entity.User, error) {
	if m.update != nil {
		return m.update(ctx, id, email, passwordHash, role)
	}
	return nil, errors.New("Update not implemented")
}

func (m *mockUsersRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if m.delete != nil {
		return m.delete(ctx, id)
	}
	return errors.New("Delete not implemented")
}

// memDB is an in-memory stand-in for the tables the services use.
type memDB struct {
	mu         sync.Mutex
	companies  map[uuid.UUID]*entity.Company
	leads      map[uuid.UUID]*entity.Lead
	contacts   map[uuid.UUID]*entity.Contact
	personas   map[uuid.UUID]*entity.Persona
	targetings map[uuid.UUID]*entity.Targeting
	balances   map[uuid.UUID]int
	spends     int
	seq        int
}

func newMemDB() *memDB {
	return &memDB{
		companies:  map[uuid.UUID]*entity.Company{},
		leads:      map[uuid.UUID]*entity.Lead{},
		contacts:   map[uuid.UUID]*entity.Contact{},
		personas:   map[uuid.UUID]*entity.Persona{},
		targetings: map[uuid.UUID]*entity.Targeting{},
		balances:   map[uuid.UUID]int{},
	}
}

// tick returns increasing timestamps so creation order is observable.
func (db *memDB) tick() time.Time {
	db.seq++
	return time.Date(2026, 1, 1, 0, 0, db.seq, 0, time.UTC)
}

func (db *memDB) addCompany(c entity.Company) entity.Company {
	db.mu.Lock()
	defer db.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = db.tick()
	db.companies[c.ID] = &c
	return c
}

func (db *memDB) addLead(l entity.Lead) entity.Lead {
	db.mu.Lock()
	defer db.mu.Unlock()
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	if l.Status == "" {
		l.Status = "Nouveau"
	}
	l.CreatedAt = db.tick()
	db.leads[l.ID] = &l
	return l
}

func (db *memDB) addContact(c entity.Contact) entity.Contact {
	db.mu.Lock()
	defer db.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = db.tick()
	db.contacts[c.ID] = &c
	return c
}

func sortByCreated[T any](items []T, created func(T) time.Time) {
	sort.SliceStable(items, func(i, j int) bool { return created(items[i]).Before(created(items[j])) })
}

type fakeCompanies struct{ db *memDB }

func (f fakeCompanies) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Company, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []entity.Company{}
	for _, c := range f.db.companies {
		if c.UserID == userID {
			out = append(out, *c)
		}
	}
	sortByCreated(out, func(c entity.Company) time.Time { return c.CreatedAt })
	return out, nil
}

func (f fakeCompanies) Get(ctx context.Context, userID, id uuid.UUID) (*entity.Company, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	c, ok := f.db.companies[id]
	if !ok || c.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f fakeCompanies) SetHidden(ctx context.Context, userID, id uuid.UUID, hidden bool) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	c, ok := f.db.companies[id]
	if !ok || c.UserID != userID {
		return repository.ErrNotFound
	}
	c.IsHidden = hidden
	return nil
}

func (f fakeCompanies) SetSummary(ctx context.Context, userID, id uuid.UUID, summary *string) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	c, ok := f.db.companies[id]
	if !ok || c.UserID != userID {
		return repository.ErrNotFound
	}
	if summary != nil && *summary == "" {
		summary = nil
	}
	c.Summary = summary
	return nil
}

func (f fakeCompanies) BulkUpsertCompanies(ctx context.Context, userID uuid.UUID, records []repository.BulkUpsertCompanyInput) (repository.BulkUpsertResult, error) {
	var result repository.BulkUpsertResult
	for _, r := range records {
		f.db.mu.Lock()
		var existing *entity.Company
		for _, c := range f.db.companies {
			if c.UserID == userID && c.Name == r.Name && c.Department == r.Department {
				existing = c
			}
		}
		if existing != nil {
			existing.Sector = r.Sector
			existing.Headcount = r.Headcount
			existing.AnnualRevenue = r.AnnualRevenue
			result.Updated++
			f.db.mu.Unlock()
		} else {
			f.db.mu.Unlock()
			f.db.addCompany(entity.Company{
				UserID: userID, Name: r.Name, Sector: r.Sector, Department: r.Department,
				Headcount: r.Headcount, AnnualRevenue: r.AnnualRevenue, Website: r.Website,
			})
			result.Inserted++
		}
		result.Total++
	}
	return result, nil
}

type fakeLeads struct{ db *memDB }

func (f fakeLeads) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Lead, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []entity.Lead{}
	for _, l := range f.db.leads {
		if l.UserID == userID {
			out = append(out, *l)
		}
	}
	sortByCreated(out, func(l entity.Lead) time.Time { return l.CreatedAt })
	return out, nil
}

func (f fakeLeads) Get(ctx context.Context, userID, id uuid.UUID) (*entity.Lead, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	l, ok := f.db.leads[id]
	if !ok || l.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (f fakeLeads) upsert(lead entity.Lead, signal bool, summary *string) (*entity.Lead, error) {
	f.db.mu.Lock()
	for _, l := range f.db.leads {
		if l.UserID == lead.UserID && l.CompanyID == lead.CompanyID {
			status, hot, sum := l.Status, l.IsHotSignal, l.SignalSummary
			id, created := l.ID, l.CreatedAt
			*l = lead
			l.ID, l.CreatedAt, l.Status = id, created, status
			l.IsHotSignal, l.SignalSummary = hot, sum
			if signal {
				l.IsHotSignal, l.SignalSummary = true, summary
			}
			cp := *l
			f.db.mu.Unlock()
			return &cp, nil
		}
	}
	f.db.mu.Unlock()
	if signal {
		lead.IsHotSignal, lead.SignalSummary = true, summary
	}
	created := f.db.addLead(lead)
	return &created, nil
}

func (f fakeLeads) UpsertFromCompany(ctx context.Context, lead entity.Lead) (*entity.Lead, error) {
	return f.upsert(lead, false, nil)
}

func (f fakeLeads) MarkSignal(ctx context.Context, lead entity.Lead, summary *string) (*entity.Lead, error) {
	return f.upsert(lead, true, summary)
}

func (f fakeLeads) UpdateStatus(ctx context.Context, userID, id uuid.UUID, status string) (*entity.Lead, error) {
	f.db.mu.Lock()
	l, ok := f.db.leads[id]
	if !ok || l.UserID != userID {
		f.db.mu.Unlock()
		return nil, repository.ErrNotFound
	}
	l.Status = status
	f.db.mu.Unlock()
	return f.Get(ctx, userID, id)
}

func (f fakeLeads) CountUndiscoveredSignals(ctx context.Context, userID uuid.UUID) (int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	n := 0
	for _, l := range f.db.leads {
		c := f.db.companies[l.CompanyID]
		if l.UserID == userID && l.IsHotSignal && c != nil && !c.IsDiscovered {
			n++
		}
	}
	return n, nil
}

type fakeContacts struct{ db *memDB }

func (f fakeContacts) filter(pred func(*entity.Contact) bool) []entity.Contact {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []entity.Contact{}
	for _, c := range f.db.contacts {
		if pred(c) {
			out = append(out, *c)
		}
	}
	sortByCreated(out, func(c entity.Contact) time.Time { return c.CreatedAt })
	return out
}

func (f fakeContacts) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Contact, error) {
	return f.filter(func(c *entity.Contact) bool { return c.UserID == userID }), nil
}

func (f fakeContacts) ListByLead(ctx context.Context, userID, leadID uuid.UUID) ([]entity.Contact, error) {
	return f.filter(func(c *entity.Contact) bool { return c.UserID == userID && c.LeadID == leadID }), nil
}

func (f fakeContacts) ListByLeads(ctx context.Context, userID uuid.UUID, leadIDs []uuid.UUID) ([]entity.Contact, error) {
	want := map[uuid.UUID]bool{}
	for _, id := range leadIDs {
		want[id] = true
	}
	return f.filter(func(c *entity.Contact) bool { return c.UserID == userID && want[c.LeadID] }), nil
}

func (f fakeContacts) ListFollowUps(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]entity.Contact, error) {
	out := f.filter(func(c *entity.Contact) bool {
		return c.UserID == userID && c.FollowUpDate != nil && !c.FollowUpDate.Before(from) && !c.FollowUpDate.After(to)
	})
	sort.SliceStable(out, func(i, j int) bool { return out[i].FollowUpDate.Before(*out[j].FollowUpDate) })
	return out, nil
}

func (f fakeContacts) Get(ctx context.Context, userID, id uuid.UUID) (*entity.Contact, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	c, ok := f.db.contacts[id]
	if !ok || c.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f fakeContacts) InsertMany(ctx context.Context, contacts []entity.Contact) ([]entity.Contact, error) {
	out := make([]entity.Contact, 0, len(contacts))
	for _, c := range contacts {
		if c.Status == "" {
			return nil, errors.New("status is required")
		}
		out = append(out, f.db.addContact(c))
	}
	return out, nil
}

func (f fakeContacts) Update(ctx context.Context, userID, id uuid.UUID, patch repository.ContactPatch) (*entity.Contact, error) {
	f.db.mu.Lock()
	c, ok := f.db.contacts[id]
	if !ok || c.UserID != userID {
		f.db.mu.Unlock()
		return nil, repository.ErrNotFound
	}
	if patch.Status != nil {
		c.Status = *patch.Status
	}
	if patch.Note != nil {
		c.Note = patch.Note
	}
	if patch.ClearFollowUp {
		c.FollowUpDate = nil
	} else if patch.FollowUpDate != nil {
		c.FollowUpDate = patch.FollowUpDate
	}
	f.db.mu.Unlock()
	return f.Get(ctx, userID, id)
}

type fakePersonas struct{ db *memDB }

func (f fakePersonas) List(ctx context.Context, userID uuid.UUID) ([]entity.Persona, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []entity.Persona{}
	for _, p := range f.db.personas {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Position != out[j].Position {
			return out[i].Position < out[j].Position
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (f fakePersonas) Create(ctx context.Context, p entity.Persona) (*entity.Persona, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p.ID = uuid.New()
	p.CreatedAt = f.db.tick()
	f.db.personas[p.ID] = &p
	cp := p
	return &cp, nil
}

func (f fakePersonas) Update(ctx context.Context, p entity.Persona) (*entity.Persona, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	existing, ok := f.db.personas[p.ID]
	if !ok || existing.UserID != p.UserID {
		return nil, repository.ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	*existing = p
	cp := p
	return &cp, nil
}

func (f fakePersonas) Delete(ctx context.Context, userID, id uuid.UUID) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	p, ok := f.db.personas[id]
	if !ok || p.UserID != userID {
		return repository.ErrNotFound
	}
	delete(f.db.personas, id)
	return nil
}

type fakeTargetings struct{ db *memDB }

func (f fakeTargetings) List(ctx context.Context, userID uuid.UUID) ([]entity.Targeting, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	out := []entity.Targeting{}
	for _, t := range f.db.targetings {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	sortByCreated(out, func(t entity.Targeting) time.Time { return t.CreatedAt })
	return out, nil
}

func (f fakeTargetings) Get(ctx context.Context, userID, id uuid.UUID) (*entity.Targeting, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	t, ok := f.db.targetings[id]
	if !ok || t.UserID != userID {
		return nil, repository.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (f fakeTargetings) Active(ctx context.Context, userID uuid.UUID) (*entity.Targeting, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, t := range f.db.targetings {
		if t.UserID == userID && t.IsActive {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f fakeTargetings) Create(ctx context.Context, t entity.Targeting) (*entity.Targeting, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	t.ID = uuid.New()
	t.IsActive = false
	t.CreatedAt = f.db.tick()
	f.db.targetings[t.ID] = &t
	cp := t
	return &cp, nil
}

func (f fakeTargetings) Update(ctx context.Context, t entity.Targeting) (*entity.Targeting, error) {
	f.db.mu.Lock()
	existing, ok := f.db.targetings[t.ID]
	if !ok || existing.UserID != t.UserID {
		f.db.mu.Unlock()
		return nil, repository.ErrNotFound
	}
	t.IsActive, t.CreatedAt = existing.IsActive, existing.CreatedAt
	*existing = t
	f.db.mu.Unlock()
	return f.Get(ctx, t.UserID, t.ID)
}

func (f fakeTargetings) Delete(ctx context.Context, userID, id uuid.UUID) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	t, ok := f.db.targetings[id]
	if !ok || t.UserID != userID {
		return repository.ErrNotFound
	}
	delete(f.db.targetings, id)
	return nil
}

func (f fakeTargetings) Activate(ctx context.Context, userID, id uuid.UUID) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	target, ok := f.db.targetings[id]
	if !ok || target.UserID != userID {
		return repository.ErrNotFound
	}
	for _, t := range f.db.targetings {
		if t.UserID == userID {
			t.IsActive = t.ID == id
		}
	}
	return nil
}

func (f fakeTargetings) Deactivate(ctx context.Context, userID uuid.UUID) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	for _, t := range f.db.targetings {
		if t.UserID == userID {
			t.IsActive = false
		}
	}
	return nil
}

func (f fakeTargetings) CountActiveByUser(ctx context.Context) (map[uuid.UUID]int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	counts := map[uuid.UUID]int{}
	for _, t := range f.db.targetings {
		if _, ok := counts[t.UserID]; !ok {
			counts[t.UserID] = 0
		}
		if t.IsActive {
			counts[t.UserID]++
		}
	}
	return counts, nil
}

// fakeCredits applies the debit and the unlock together, or neither.
type fakeCredits struct{ db *memDB }

func (f fakeCredits) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	return f.db.balances[userID], nil
}

func (f fakeCredits) Spend(ctx context.Context, userID uuid.UUID, amount int, unlock *repository.Unlock) (int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	balance := f.db.balances[userID]
	if balance < amount {
		return balance, repository.ErrInsufficientCredits
	}
	if unlock != nil && !f.applyUnlock(*unlock) {
		return 0, repository.ErrNotFound
	}
	f.db.balances[userID] = balance - amount
	f.db.spends++
	return balance - amount, nil
}

func (f fakeCredits) applyUnlock(u repository.Unlock) bool {
	var id, owner uuid.UUID
	for _, cond := range u.Where {
		switch cond.Column {
		case "id":
			id = cond.Value.(uuid.UUID)
		case "user_id":
			owner = cond.Value.(uuid.UUID)
		}
	}
	switch u.Table {
	case "companies":
		c, ok := f.db.companies[id]
		if !ok || c.UserID != owner {
			return false
		}
		c.IsDiscovered = true
	case "lead_contacts":
		c, ok := f.db.contacts[id]
		if !ok || c.UserID != owner {
			return false
		}
		for _, set := range u.Patch {
			switch set.Column {
			case "is_email_discovered":
				c.IsEmailDiscovered = true
			case "is_phone_discovered":
				c.IsPhoneDiscovered = true
			}
		}
	default:
		return false
	}
	return true
}

func (f fakeCredits) Grant(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	f.db.balances[userID] += amount
	return f.db.balances[userID], nil
}

func (f fakeCredits) Ensure(ctx context.Context, userID uuid.UUID, starting int) error {
	f.db.mu.Lock()
	defer f.db.mu.Unlock()
	if _, ok := f.db.balances[userID]; !ok {
		f.db.balances[userID] = starting
	}
	return nil
}

type fakeGenerator struct {
	calls   []dto.ContactGenerationRequest
	results map[string][]dto.GeneratedContact
	err     error
}

func (g *fakeGenerator) GenerateContacts(ctx context.Context, req dto.ContactGenerationRequest) ([]dto.GeneratedContact, error) {
	g.calls = append(g.calls, req)
	if g.err != nil {
		return nil, g.err
	}
	return g.results[req.Persona.Service], nil
}

func stringPtr(value string) *string {
	return &value
}

func int64Ptr(value int64) *int64 {
	return &value
}

// fixture is one signed-in user over a fresh memDB.
type fixture struct {
	db     *memDB
	userID uuid.UUID
	actx   auth.Context
	ledger *CreditLedger
}

func newFixture(balance int) *fixture {
	db := newMemDB()
	userID := uuid.New()
	db.balances[userID] = balance
	return &fixture{
		db:     db,
		userID: userID,
		actx:   auth.Context{UserID: userID, Email: "owner@example.com", Role: RoleUser},
		ledger: NewCreditLedger(fakeCredits{db}, DefaultDiscoveryCost, 0),
	}
}

func (f *fixture) companiesService() *CompaniesService {
	return NewCompaniesService(fakeCompanies{f.db}, fakeLeads{f.db}, fakeContacts{f.db}, fakeTargetings{f.db}, f.ledger, nil)
}

func (f *fixture) prospectsService() *ProspectsService {
	return NewProspectsService(fakeCompanies{f.db}, fakeLeads{f.db}, fakeContacts{f.db}, nil)
}

func (f *fixture) contactsService(gen ContactGenerator) *ContactsService {
	return NewContactsService(fakeLeads{f.db}, fakeContacts{f.db}, fakePersonas{f.db}, gen, nil, f.ledger, nil)
}

func (f *fixture) company(name, sector, department string, discovered bool) entity.Company {
	return f.db.addCompany(entity.Company{
		UserID:       f.userID,
		Name:         name,
		Sector:       sector,
		Department:   department,
		Headcount:    50,
		IsDiscovered: discovered,
		Website:      stringPtr("https://" + strings.ToLower(strings.ReplaceAll(name, " ", "")) + ".fr"),
	})
}

func (f *fixture) lead(c entity.Company) entity.Lead {
	return f.db.addLead(entity.LeadFromCompany(c))
}

func (f *fixture) contact(l entity.Lead, name string, st status.Status) entity.Contact {
	return f.db.addContact(entity.Contact{
		UserID:   f.userID,
		LeadID:   l.ID,
		FullName: name,
		Email:    stringPtr(strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.fr"),
		Phone:    stringPtr("+33612345678"),
		Status:   st,
	})
}

func (f *fixture) activeTargeting(t entity.Targeting) entity.Targeting {
	t.UserID = f.userID
	t.ID = uuid.New()
	t.IsActive = true
	t.CreatedAt = time.Now()
	f.db.targetings[t.ID] = &t
	return t
}

func companyUnlock(f *fixture, id uuid.UUID) repository.Unlock {
	return repository.CompanyDiscovery(f.userID, id)
}
