package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/octobees/prospecting-crm/api/internal/dto"
	"github.com/octobees/prospecting-crm/api/internal/entity"
	"github.com/octobees/prospecting-crm/api/internal/status"
)

func addPersona(t *testing.T, f *fixture, name, service string, position int) entity.Persona {
	t.Helper()
	p, err := fakePersonas{f.db}.Create(context.Background(), entity.Persona{
		UserID:        f.userID,
		Name:          name,
		Service:       service,
		DecisionLevel: "Décideur",
		Position:      position,
	})
	require.NoError(t, err)
	return *p
}

func TestContactsService_GenerateCascadesByPosition(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()
	lead := f.lead(f.company("Acme", "Industrie", "75", true))
	f.contact(lead, "Paul Durand", status.Nouveau)

	buyer := addPersona(t, f, "Acheteur", "Achats", 2)
	director := addPersona(t, f, "Directeur", "Direction", 1)

	gen := &fakeGenerator{results: map[string][]dto.GeneratedContact{
		"Direction": {
			{FullName: "  Jeanne   Martin ", Role: "DG", Email: "Jeanne.Martin@Acme.fr", Phone: "06 12 34 56 78"},
			{FullName: "paul durand", Role: "DAF"},
			{FullName: "   "},
		},
		"Achats": {
			{FullName: "Luc Bernard", Email: "not-an-email"},
			{FullName: "Jeanne Martin"},
			{FullName: "Sophie Petit", LinkedIn: "linkedin.com/in/sophie?utm_source=x"},
			{FullName: "Extra Person"},
		},
	}}
	service := f.contactsService(gen)

	created, err := service.Generate(ctx, f.actx, lead.ID, dto.GenerateContactsRequest{
		Count:      3,
		PersonaIDs: []string{buyer.ID.String(), director.ID.String()},
	})
	require.NoError(t, err)

	require.Len(t, gen.calls, 2)
	require.Equal(t, "Direction", gen.calls[0].Persona.Service)
	require.Equal(t, 3, gen.calls[0].Count)
	require.Contains(t, gen.calls[0].Exclude, "Paul Durand")
	require.Equal(t, "Acme", gen.calls[0].Company.Name)
	require.Equal(t, "Achats", gen.calls[1].Persona.Service)
	require.Equal(t, 2, gen.calls[1].Count)
	require.Contains(t, gen.calls[1].Exclude, "Jeanne Martin")

	names := make([]string, 0, len(created))
	for _, c := range created {
		names = append(names, c.FullName)
		require.Equal(t, status.Nouveau, c.Status)
		require.Equal(t, lead.ID, c.LeadID)
	}
	require.Equal(t, []string{"Jeanne Martin", "Luc Bernard", "Sophie Petit"}, names)
	require.Equal(t, 1, *created[0].PersonaPosition)
	require.Equal(t, 2, *created[2].PersonaPosition)

	require.Equal(t, "j•••••@acme.fr", *created[0].Email)
	require.Equal(t, "+33•••••••••", *created[0].Phone)
	require.Nil(t, created[1].Email)
	require.Equal(t, "https://linkedin.com/in/sophie", *created[2].LinkedIn)

	stored := f.db.contacts[created[0].ID]
	require.Equal(t, "jeanne.martin@acme.fr", *stored.Email)
	require.Equal(t, "+33612345678", *stored.Phone)
	require.Len(t, f.db.contacts, 4)
}

func TestContactsService_UsesConfiguredRanking(t *testing.T) {
	ranking, err := status.New([]status.Status{status.Engage, status.Nouveau, status.Discussion, status.RDV, status.Exclu})
	require.NoError(t, err)

	f := newFixture(0)
	ctx := context.Background()
	lead := f.lead(f.company("Acme", "Industrie", "75", true))
	legacy := f.contact(lead, "Paul Durand", "")
	persona := addPersona(t, f, "Directeur", "Direction", 1)

	gen := &fakeGenerator{results: map[string][]dto.GeneratedContact{
		"Direction": {{FullName: "Jeanne Martin", Role: "DG"}},
	}}
	service := NewContactsService(fakeLeads{f.db}, fakeContacts{f.db}, fakePersonas{f.db}, gen, nil, f.ledger, ranking)

	created, err := service.Generate(ctx, f.actx, lead.ID, dto.GenerateContactsRequest{
		Count:      1,
		PersonaIDs: []string{persona.ID.String()},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	require.Equal(t, status.Engage, created[0].Status)
	require.Equal(t, status.Engage, f.db.contacts[created[0].ID].Status)

	listed, err := service.ListByLead(ctx, f.actx, lead.ID)
	require.NoError(t, err)
	byName := make(map[string]status.Status, len(listed))
	for _, c := range listed {
		byName[c.FullName] = c.Status
	}
	require.Equal(t, status.Engage, byName[legacy.FullName])
	require.Equal(t, status.Engage, byName["Jeanne Martin"])
}

func TestContactsService_GenerateValidation(t *testing.T) {
	f := newFixture(0)
	lead := f.lead(f.company("Acme", "Industrie", "75", true))
	persona := addPersona(t, f, "Directeur", "Direction", 0)

	tests := map[string]dto.GenerateContactsRequest{
		"no persona":      {Count: 3},
		"zero count":      {Count: 0, PersonaIDs: []string{persona.ID.String()}},
		"count too large": {Count: MaxGenerateCount + 1, PersonaIDs: []string{persona.ID.String()}},
		"malformed id":    {Count: 3, PersonaIDs: []string{"nope"}},
		"unknown persona": {Count: 3, PersonaIDs: []string{uuid.NewString()}},
	}
	for name, req := range tests {
		t.Run(name, func(t *testing.T) {
			gen := &fakeGenerator{}
			_, err := f.contactsService(gen).Generate(context.Background(), f.actx, lead.ID, req)
			require.ErrorIs(t, err, ErrValidation)
			require.Empty(t, gen.calls)
			require.Empty(t, f.db.contacts)
		})
	}
}

func TestContactsService_GenerateFailureStoresNothing(t *testing.T) {
	f := newFixture(0)
	lead := f.lead(f.company("Acme", "Industrie", "75", true))
	first := addPersona(t, f, "Directeur", "Direction", 0)
	second := addPersona(t, f, "Acheteur", "Achats", 1)
	gen := &fakeGenerator{err: errors.New("worker down"), results: map[string][]dto.GeneratedContact{}}

	_, err := f.contactsService(gen).Generate(context.Background(), f.actx, lead.ID, dto.GenerateContactsRequest{
		Count:      2,
		PersonaIDs: []string{first.ID.String(), second.ID.String()},
	})
	require.Error(t, err)
	require.Empty(t, f.db.contacts)
}

func TestContactsService_DiscoverChargesOncePerField(t *testing.T) {
	f := newFixture(16)
	ctx := context.Background()
	lead := f.lead(f.company("Acme", "Industrie", "75", true))
	contact := f.contact(lead, "Jeanne Martin", status.Nouveau)
	service := f.contactsService(nil)

	email, err := service.Discover(ctx, f.actx, contact.ID, "email")
	require.NoError(t, err)
	require.True(t, email.Charged)
	require.Equal(t, 8, email.Balance)
	require.Equal(t, "jeanne.martin@example.fr", *email.Contact.Email)
	require.NotEqual(t, "+33612345678", *email.Contact.Phone)

	again, err := service.Discover(ctx, f.actx, contact.ID, " EMAIL ")
	require.NoError(t, err)
	require.False(t, again.Charged)
	require.Equal(t, 8, again.Balance)

	phone, err := service.Discover(ctx, f.actx, contact.ID, "phone")
	require.NoError(t, err)
	require.True(t, phone.Charged)
	require.Equal(t, 0, phone.Balance)
	require.Equal(t, "+33612345678", *phone.Contact.Phone)
	require.Equal(t, 2, f.db.spends)

	_, err = service.Discover(ctx, f.actx, contact.ID, "linkedin")
	require.ErrorIs(t, err, ErrValidation)
}

func TestContactsService_DiscoverWithoutCredits(t *testing.T) {
	f := newFixture(7)
	lead := f.lead(f.company("Acme", "Industrie", "75", true))
	contact := f.contact(lead, "Jeanne Martin", status.Nouveau)

	result, err := f.contactsService(nil).Discover(context.Background(), f.actx, contact.ID, "phone")
	require.ErrorIs(t, err, ErrInsufficientCredits)
	require.Equal(t, 7, result.Balance)
	require.False(t, f.db.contacts[contact.ID].IsPhoneDiscovered)
}

func TestContactsService_Update(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()
	lead := f.lead(f.company("Acme", "Industrie", "75", true))
	contact := f.contact(lead, "Jeanne Martin", status.Nouveau)
	service := f.contactsService(nil)

	updated, err := service.Update(ctx, f.actx, contact.ID, dto.UpdateContactRequest{
		Status:       stringPtr("engagé"),
		Note:         stringPtr("  rappeler mardi "),
		FollowUpDate: stringPtr("2026-11-03"),
	})
	require.NoError(t, err)
	require.Equal(t, status.Engage, updated.Status)
	require.Equal(t, "rappeler mardi", *updated.Note)
	require.Equal(t, time.Date(2026, 11, 3, 0, 0, 0, 0, time.UTC), *updated.FollowUpDate)
	require.True(t, strings.HasPrefix(*updated.Email, "j•"))

	cleared, err := service.Update(ctx, f.actx, contact.ID, dto.UpdateContactRequest{FollowUpDate: stringPtr("")})
	require.NoError(t, err)
	require.Nil(t, cleared.FollowUpDate)
	require.Equal(t, status.Engage, cleared.Status)

	_, err = service.Update(ctx, f.actx, contact.ID, dto.UpdateContactRequest{Status: stringPtr("Gagné")})
	require.ErrorIs(t, err, ErrValidation)
	_, err = service.Update(ctx, f.actx, contact.ID, dto.UpdateContactRequest{FollowUpDate: stringPtr("03/11/2026")})
	require.ErrorIs(t, err, ErrValidation)
	_, err = service.Update(ctx, f.actx, uuid.New(), dto.UpdateContactRequest{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestContactsService_Agenda(t *testing.T) {
	f := newFixture(0)
	ctx := context.Background()
	lead := f.lead(f.company("Acme", "Industrie", "75", true))
	day := func(d int) *time.Time {
		v := time.Date(2026, 10, d, 0, 0, 0, 0, time.UTC)
		return &v
	}
	late := f.contact(lead, "Late", status.Nouveau)
	soon := f.contact(lead, "Soon", status.Nouveau)
	past := f.contact(lead, "Past", status.Nouveau)
	f.contact(lead, "Unplanned", status.Nouveau)
	f.db.contacts[late.ID].FollowUpDate = day(30)
	f.db.contacts[soon.ID].FollowUpDate = day(20)
	f.db.contacts[past.ID].FollowUpDate = day(1)

	service := f.contactsService(nil)
	service.now = func() time.Time { return time.Date(2026, 10, 19, 15, 4, 0, 0, time.UTC) }

	entries, err := service.Agenda(ctx, f.actx, "", "")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "Soon", entries[0].FullName)
	require.Equal(t, "Late", entries[1].FullName)
	require.Equal(t, "Acme", entries[0].LeadName)

	all, err := service.Agenda(ctx, f.actx, "2026-10-01", "2026-10-31")
	require.NoError(t, err)
	require.Len(t, all, 3)

	_, err = service.Agenda(ctx, f.actx, "2026-10-31", "2026-10-01")
	require.ErrorIs(t, err, ErrValidation)
	_, err = service.Agenda(ctx, f.actx, "2026-01-01", "2027-06-01")
	require.ErrorIs(t, err, ErrValidation)
	_, err = service.Agenda(ctx, f.actx, "tomorrow", "")
	require.ErrorIs(t, err, ErrValidation)
}

func TestMaskContact(t *testing.T) {
	tests := map[string]struct {
		email, phone         string
		wantEmail, wantPhone string
	}{
		"regular":    {"jeanne@acme.fr", "+33612345678", "j•••••@acme.fr", "+33•••••••••"},
		"accented":   {"élise@exemple.fr", "+3361", "é•••••@exemple.fr", "+33••"},
		"no at sign": {"jeanne", "12", "••••••", "••"},
		"leading at": {"@acme.fr", "+33", "••••••", "•••"},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			masked := MaskContact(entity.Contact{Email: stringPtr(tt.email), Phone: stringPtr(tt.phone)})
			require.Equal(t, tt.wantEmail, *masked.Email)
			require.Equal(t, tt.wantPhone, *masked.Phone)
		})
	}

	revealed := MaskContact(entity.Contact{
		Email:             stringPtr("jeanne@acme.fr"),
		IsEmailDiscovered: true,
		IsPhoneDiscovered: true,
	})
	require.Equal(t, "jeanne@acme.fr", *revealed.Email)
	require.Nil(t, revealed.Phone)
}
