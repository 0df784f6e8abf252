package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/octobees/prospecting-crm/api/internal/auth"
	"github.com/octobees/prospecting-crm/api/internal/dto"
	"github.com/octobees/prospecting-crm/api/internal/entity"
	"github.com/octobees/prospecting-crm/api/internal/repository"
	"github.com/octobees/prospecting-crm/api/internal/status"
)

const (
	MaxGenerateCount  = 25
	maxNoteLength     = 2000
	maxAgendaSpan     = 366 * 24 * time.Hour
	defaultAgendaDays = 30
	dateLayout        = "2006-01-02"
	maskRune          = "•"
)

// ContactGenerator produces raw contacts for one persona of a company.
type ContactGenerator interface {
	GenerateContacts(ctx context.Context, req dto.ContactGenerationRequest) ([]dto.GeneratedContact, error)
}

// ContactDiscovery is the outcome of revealing a contact field.
type ContactDiscovery struct {
	Contact entity.Contact `json:"contact"`
	Charged bool           `json:"charged"`
	Balance int            `json:"balance"`
}

// AgendaEntry is a contact due for follow-up.
type AgendaEntry struct {
	entity.Contact
	LeadName string `json:"lead_name"`
}

// ContactsService manages the contacts of the caller's leads.
type ContactsService struct {
	leads     repository.LeadsRepository
	contacts  repository.ContactsRepository
	personas  repository.PersonasRepository
	generator ContactGenerator
	sanitizer *ContactSanitizer
	ledger    *CreditLedger
	statuses  *status.Hierarchy
	now       func() time.Time
}

// NewContactsService wires contact management.
func NewContactsService(
	leads repository.LeadsRepository,
	contacts repository.ContactsRepository,
	personas repository.PersonasRepository,
	generator ContactGenerator,
	sanitizer *ContactSanitizer,
	ledger *CreditLedger,
	statuses *status.Hierarchy,
) *ContactsService {
	if sanitizer == nil {
		sanitizer = NewContactSanitizer(defaultPhoneRegion)
	}
	return &ContactsService{
		leads:     leads,
		contacts:  contacts,
		personas:  personas,
		generator: generator,
		sanitizer: sanitizer,
		ledger:    ledger,
		statuses:  defaultHierarchy(statuses),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// ListByLead returns the lead's contacts with undiscovered fields masked.
func (s *ContactsService) ListByLead(ctx context.Context, actx auth.Context, leadID uuid.UUID) ([]entity.Contact, error) {
	userID, err := actx.Require()
	if err != nil {
		return nil, err
	}
	if _, err := s.leads.Get(ctx, userID, leadID); err != nil {
		return nil, err
	}
	contacts, err := s.contacts.ListByLead(ctx, userID, leadID)
	if err != nil {
		return nil, err
	}
	return s.presentAll(contacts), nil
}

// Generate asks the generator for req.Count contacts, consulting the selected
// personas by ascending position until enough contacts were produced. Nothing
// is stored when any generator call fails.
func (s *ContactsService) Generate(ctx context.Context, actx auth.Context, leadID uuid.UUID, req dto.GenerateContactsRequest) ([]entity.Contact, error) {
	userID, err := actx.Require()
	if err != nil {
		return nil, err
	}
	if len(req.PersonaIDs) == 0 {
		return nil, invalid("select at least one persona")
	}
	if req.Count < 1 || req.Count > MaxGenerateCount {
		return nil, invalid("count must be between 1 and %d", MaxGenerateCount)
	}
	wanted := make(map[uuid.UUID]struct{}, len(req.PersonaIDs))
	for _, raw := range req.PersonaIDs {
		id, err := uuid.Parse(strings.TrimSpace(raw))
		if err != nil {
			return nil, invalid("invalid persona id %q", raw)
		}
		wanted[id] = struct{}{}
	}
	if s.generator == nil {
		return nil, errors.New("contact generation is not configured")
	}

	lead, err := s.leads.Get(ctx, userID, leadID)
	if err != nil {
		return nil, err
	}
	all, err := s.personas.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list personas: %w", err)
	}
	selected := make([]entity.Persona, 0, len(wanted))
	for _, p := range all {
		if _, ok := wanted[p.ID]; ok {
			selected = append(selected, p)
		}
	}
	if len(selected) != len(wanted) {
		return nil, invalid("unknown persona selected")
	}

	existing, err := s.contacts.ListByLead(ctx, userID, leadID)
	if err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(existing))
	exclude := make([]string, 0, len(existing))
	for _, c := range existing {
		seen[strings.ToLower(c.FullName)] = struct{}{}
		exclude = append(exclude, c.FullName)
	}

	remaining := req.Count
	collected := make([]entity.Contact, 0, req.Count)
	for _, persona := range selected {
		if remaining == 0 {
			break
		}
		raw, err := s.generator.GenerateContacts(ctx, dto.ContactGenerationRequest{
			Company: dto.GenerationCompany{
				Name:       lead.Name,
				Sector:     lead.Sector,
				Department: lead.Department,
				Website:    lead.Website,
				LinkedIn:   lead.LinkedIn,
				RegistryID: lead.RegistryID,
			},
			Persona: dto.GenerationPersona{
				Name:          persona.Name,
				Service:       persona.Service,
				DecisionLevel: persona.DecisionLevel,
			},
			Count:    remaining,
			Exclude:  exclude,
			Language: "fr",
		})
		if err != nil {
			return nil, fmt.Errorf("generate contacts for persona %q: %w", persona.Name, err)
		}

		position := persona.Position
		for _, r := range raw {
			if remaining == 0 {
				break
			}
			c, ok := s.sanitizer.Clean(ctx, r)
			if !ok {
				continue
			}
			key := strings.ToLower(c.FullName)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			exclude = append(exclude, c.FullName)

			c.UserID = userID
			c.LeadID = leadID
			c.Status = s.statuses.Lowest()
			c.PersonaPosition = &position
			collected = append(collected, c)
			remaining--
		}
	}

	if len(collected) == 0 {
		return []entity.Contact{}, nil
	}
	inserted, err := s.contacts.InsertMany(ctx, collected)
	if err != nil {
		return nil, err
	}
	return s.presentAll(inserted), nil
}

// Update applies the user-editable fields of req.
func (s *ContactsService) Update(ctx context.Context, actx auth.Context, id uuid.UUID, req dto.UpdateContactRequest) (*entity.Contact, error) {
	userID, err := actx.Require()
	if err != nil {
		return nil, err
	}

	var patch repository.ContactPatch
	if req.Status != nil {
		st, ok := s.statuses.Parse(*req.Status)
		if !ok {
			return nil, invalid("unknown status %q", *req.Status)
		}
		patch.Status = &st
	}
	if req.Note != nil {
		note := strings.TrimSpace(*req.Note)
		if len([]rune(note)) > maxNoteLength {
			return nil, invalid("note must be at most %d characters", maxNoteLength)
		}
		patch.Note = &note
	}
	if req.FollowUpDate != nil {
		raw := strings.TrimSpace(*req.FollowUpDate)
		if raw == "" {
			patch.ClearFollowUp = true
		} else {
			date, err := time.Parse(dateLayout, raw)
			if err != nil {
				return nil, invalid("follow_up_date must use YYYY-MM-DD")
			}
			patch.FollowUpDate = &date
		}
	}

	contact, err := s.contacts.Update(ctx, userID, id, patch)
	if err != nil {
		return nil, err
	}
	out := s.present(*contact)
	return &out, nil
}

// Discover reveals the email or phone of a contact for the discovery cost.
// A field that is already revealed is returned without charging.
func (s *ContactsService) Discover(ctx context.Context, actx auth.Context, id uuid.UUID, rawField string) (ContactDiscovery, error) {
	userID, err := actx.Require()
	if err != nil {
		return ContactDiscovery{}, err
	}
	field := entity.ContactField(strings.ToLower(strings.TrimSpace(rawField)))
	unlock, err := repository.ContactDiscovery(userID, id, field)
	if err != nil {
		return ContactDiscovery{}, invalid("field must be email or phone")
	}

	contact, err := s.contacts.Get(ctx, userID, id)
	if err != nil {
		return ContactDiscovery{}, err
	}
	if contact.Discovered(field) {
		balance, err := s.ledger.Balance(ctx, actx)
		if err != nil {
			return ContactDiscovery{}, err
		}
		return ContactDiscovery{Contact: s.present(*contact), Balance: balance}, nil
	}

	result, err := s.ledger.spendDiscovery(ctx, actx, unlock)
	if err != nil {
		return ContactDiscovery{Balance: result.Balance}, err
	}

	contact, err = s.contacts.Get(ctx, userID, id)
	if err != nil {
		return ContactDiscovery{}, err
	}
	return ContactDiscovery{Contact: s.present(*contact), Charged: true, Balance: result.Balance}, nil
}

// Agenda lists contacts with a follow-up date in [from, to], earliest first.
// Blank bounds default to today and 30 days later.
func (s *ContactsService) Agenda(ctx context.Context, actx auth.Context, from, to string) ([]AgendaEntry, error) {
	userID, err := actx.Require()
	if err != nil {
		return nil, err
	}

	today := s.now().Truncate(24 * time.Hour)
	start, err := parseDateOr(from, today)
	if err != nil {
		return nil, invalid("from must use YYYY-MM-DD")
	}
	end, err := parseDateOr(to, start.AddDate(0, 0, defaultAgendaDays))
	if err != nil {
		return nil, invalid("to must use YYYY-MM-DD")
	}
	if end.Before(start) {
		return nil, invalid("to must not be before from")
	}
	if end.Sub(start) > maxAgendaSpan {
		return nil, invalid("agenda range must not exceed one year")
	}

	var (
		contacts []entity.Contact
		leads    []entity.Lead
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		contacts, err = s.contacts.ListFollowUps(gctx, userID, start, end)
		return err
	})
	g.Go(func() error {
		var err error
		leads, err = s.leads.ListByUser(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	names := make(map[uuid.UUID]string, len(leads))
	for _, l := range leads {
		names[l.ID] = l.Name
	}
	entries := make([]AgendaEntry, 0, len(contacts))
	for _, c := range contacts {
		entries = append(entries, AgendaEntry{Contact: s.present(c), LeadName: names[c.LeadID]})
	}
	return entries, nil
}

func parseDateOr(raw string, fallback time.Time) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback, nil
	}
	return time.Parse(dateLayout, raw)
}

// MaskContact hides the email and phone of c unless they were discovered.
func MaskContact(c entity.Contact) entity.Contact {
	if !c.IsEmailDiscovered && c.Email != nil {
		masked := maskEmail(*c.Email)
		c.Email = &masked
	}
	if !c.IsPhoneDiscovered && c.Phone != nil {
		masked := maskPhone(*c.Phone)
		c.Phone = &masked
	}
	return c
}

// present masks c and reads its status against the configured ranking.
func (s *ContactsService) present(c entity.Contact) entity.Contact {
	c.Status = s.statuses.Normalize(string(c.Status))
	return MaskContact(c)
}

func (s *ContactsService) presentAll(contacts []entity.Contact) []entity.Contact {
	out := make([]entity.Contact, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, s.present(c))
	}
	return out
}

// maskEmail keeps the first letter and the domain: j•••••@exemple.fr.
func maskEmail(email string) string {
	at := strings.LastIndex(email, "@")
	if at <= 0 {
		return strings.Repeat(maskRune, 6)
	}
	local := []rune(email[:at])
	return string(local[0]) + strings.Repeat(maskRune, 5) + email[at:]
}

// maskPhone keeps the country prefix: +33••••••••••.
func maskPhone(phone string) string {
	runes := []rune(phone)
	keep := 3
	if len(runes) <= keep {
		return strings.Repeat(maskRune, len(runes))
	}
	return string(runes[:keep]) + strings.Repeat(maskRune, len(runes)-keep)
}
