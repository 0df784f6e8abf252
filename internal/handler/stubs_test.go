package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/octobees/prospecting-crm/api/internal/auth"
	"github.com/octobees/prospecting-crm/api/internal/entity"
	"github.com/octobees/prospecting-crm/api/internal/middleware"
	"github.com/octobees/prospecting-crm/api/internal/repository"
)

var errNotImplemented = errors.New("not implemented")

type stubUsersRepo struct {
	findByEmail func(ctx context.Context, email string) (*entity.User, error)
	create      func(ctx context.Context, email, passwordHash, role string) (*entity.User, error)
	list        func(ctx context.Context) ([]entity.User, error)
	update      func(ctx context.Context, id uuid.UUID, email, passwordHash, role *string) (*entity.User, error)
	delete      func(ctx context.Context, id uuid.UUID) error
}

func (s *stubUsersRepo) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	if s.findByEmail != nil {
		return s.findByEmail(ctx, email)
	}
	return nil, errNotImplemented
}

func (s *stubUsersRepo) FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return nil, errNotImplemented
}

func (s *stubUsersRepo) Create(ctx context.Context, email, passwordHash, role string) (*entity.User, error) {
	if s.create != nil {
		return s.create(ctx, email, passwordHash, role)
	}
	return nil, errNotImplemented
}

func (s *stubUsersRepo) List(ctx context.Context) ([]entity.User, error) {
	if s.list != nil {
		return s.list(ctx)
	}
	return nil, errNotImplemented
}

func (s *stubUsersRepo) Update(ctx context.Context, id uuid.UUID, email, passwordHash, role *string) (*entity.User, error) {
	if s.update != nil {
		return s.update(ctx, id, email, passwordHash, role)
	}
	return nil, errNotImplemented
}

func (s *stubUsersRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if s.delete != nil {
		return s.delete(ctx, id)
	}
	return errNotImplemented
}

type stubCompaniesRepo struct {
	companies map[uuid.UUID]entity.Company
	bulk      func(ctx context.Context, userID uuid.UUID, records []repository.BulkUpsertCompanyInput) (repository.BulkUpsertResult, error)
}

func (s *stubCompaniesRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Company, error) {
	out := []entity.Company{}
	for _, c := range s.companies {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (s *stubCompaniesRepo) Get(ctx context.Context, userID, id uuid.UUID) (*entity.Company, error) {
	c, ok := s.companies[id]
	if !ok || c.UserID != userID {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (s *stubCompaniesRepo) SetHidden(ctx context.Context, userID, id uuid.UUID, hidden bool) error {
	return errNotImplemented
}

func (s *stubCompaniesRepo) SetSummary(ctx context.Context, userID, id uuid.UUID, summary *string) error {
	return errNotImplemented
}

func (s *stubCompaniesRepo) BulkUpsertCompanies(ctx context.Context, userID uuid.UUID, records []repository.BulkUpsertCompanyInput) (repository.BulkUpsertResult, error) {
	if s.bulk != nil {
		return s.bulk(ctx, userID, records)
	}
	return repository.BulkUpsertResult{Inserted: len(records), Total: len(records)}, nil
}

type emptyLeadsRepo struct{ repository.LeadsRepository }

func (emptyLeadsRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Lead, error) {
	return []entity.Lead{}, nil
}

type emptyContactsRepo struct{ repository.ContactsRepository }

func (emptyContactsRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]entity.Contact, error) {
	return []entity.Contact{}, nil
}

// stubTargetingsRepo only answers Active. A nil active targeting means none is set.
type stubTargetingsRepo struct {
	repository.TargetingsRepository
	active *entity.Targeting
}

func (s stubTargetingsRepo) Active(ctx context.Context, userID uuid.UUID) (*entity.Targeting, error) {
	if s.active == nil {
		return nil, repository.ErrNotFound
	}
	return s.active, nil
}

type stubCreditsRepo struct {
	balance int
	spent   []repository.Unlock
}

func (s *stubCreditsRepo) Balance(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.balance, nil
}

func (s *stubCreditsRepo) Spend(ctx context.Context, userID uuid.UUID, amount int, unlock *repository.Unlock) (int, error) {
	if s.balance < amount {
		return s.balance, repository.ErrInsufficientCredits
	}
	s.balance -= amount
	if unlock != nil {
		s.spent = append(s.spent, *unlock)
	}
	return s.balance, nil
}

func (s *stubCreditsRepo) Grant(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	s.balance += amount
	return s.balance, nil
}

func (s *stubCreditsRepo) Ensure(ctx context.Context, userID uuid.UUID, starting int) error {
	return nil
}

func jsonRequest(method, target string, payload any) *http.Request {
	var body io.Reader = http.NoBody
	switch p := payload.(type) {
	case nil:
	case string:
		body = bytes.NewBufferString(p)
	default:
		raw, _ := json.Marshal(p)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

// signedIn returns a context carrying the identity the JWT middleware would store.
func signedIn(e *echo.Echo, req *http.Request, userID uuid.UUID) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set(middleware.ContextKeyAuth, auth.Context{UserID: userID, Email: "owner@example.com", Role: "user"})
	return c, rec
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) (APIResponse, map[string]any) {
	t.Helper()
	var raw struct {
		APIResponse
		Data map[string]any `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &raw); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return raw.APIResponse, raw.Data
}
