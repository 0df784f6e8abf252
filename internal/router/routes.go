package router

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/octobees/prospecting-crm/api/internal/auth"
	"github.com/octobees/prospecting-crm/api/internal/config"
	"github.com/octobees/prospecting-crm/api/internal/handler"
	middlewarepkg "github.com/octobees/prospecting-crm/api/internal/middleware"
)

// Handlers aggregates HTTP handlers used by the router.
type Handlers struct {
	Auth        *handler.AuthHandler
	Users       *handler.UserAdminHandler
	Companies   *handler.CompaniesHandler
	AdminUpload *handler.AdminUploadHandler
	Prospects   *handler.ProspectsHandler
	Contacts    *handler.ContactsHandler
	Personas    *handler.PersonasHandler
	Targetings  *handler.TargetingsHandler
	Credits     *handler.CreditsHandler
	Signals     *handler.SignalsHandler
	Realtime    *handler.RealtimeHandler
}

// Register wires all HTTP routes for the API.
func Register(e *echo.Echo, cfg *config.Config, jwtManager *auth.JWTManager, handlers Handlers) {
	e.GET("/healthz", func(c echo.Context) error {
		return handler.Success(c, http.StatusOK, "service healthy", map[string]any{"status": "ok"})
	})

	e.POST("/auth/register", handlers.Auth.Register)
	e.POST("/auth/login", handlers.Auth.Login)

	secured := e.Group("")
	secured.Use(middlewarepkg.JWT(jwtManager))

	paid := middlewarepkg.UserRateLimiter(cfg.RateLimitDiscover)

	secured.GET("/companies", handlers.Companies.List)
	secured.GET("/market", handlers.Companies.Market)
	secured.POST("/companies/:id/discover", handlers.Companies.Discover, paid)
	secured.POST("/companies/:id/go", handlers.Companies.Go)
	secured.POST("/companies/:id/no-go", handlers.Companies.NoGo)
	secured.POST("/companies/:id/restore", handlers.Companies.Restore)
	secured.PUT("/companies/:id/summary", handlers.Companies.SetSummary)

	secured.GET("/prospects", handlers.Prospects.List)
	secured.GET("/prospects/board", handlers.Prospects.Board)
	secured.GET("/leads/:id", handlers.Prospects.GetLead)
	secured.PATCH("/leads/:id/status", handlers.Prospects.UpdateLeadStatus)
	secured.GET("/signals/undiscovered-count", handlers.Prospects.UndiscoveredSignals)

	secured.GET("/leads/:id/contacts", handlers.Contacts.ListByLead)
	secured.POST("/leads/:id/contacts/generate", handlers.Contacts.Generate, paid)
	secured.PATCH("/contacts/:id", handlers.Contacts.Update)
	secured.POST("/contacts/:id/discover/:field", handlers.Contacts.Discover, paid)
	secured.GET("/agenda", handlers.Contacts.Agenda)

	secured.GET("/personas", handlers.Personas.List)
	secured.POST("/personas", handlers.Personas.Create)
	secured.PUT("/personas/:id", handlers.Personas.Update)
	secured.DELETE("/personas/:id", handlers.Personas.Delete)

	secured.GET("/targetings", handlers.Targetings.List)
	secured.POST("/targetings", handlers.Targetings.Create)
	secured.GET("/targetings/active", handlers.Targetings.Active)
	secured.DELETE("/targetings/active", handlers.Targetings.Deactivate)
	secured.PUT("/targetings/:id", handlers.Targetings.Update)
	secured.DELETE("/targetings/:id", handlers.Targetings.Delete)
	secured.POST("/targetings/:id/activate", handlers.Targetings.Activate)

	secured.GET("/credits", handlers.Credits.Balance)
	secured.GET("/realtime", handlers.Realtime.Subscribe)

	admin := secured.Group("/admin", middlewarepkg.RequireRole(auth.RoleAdmin))
	admin.POST("/upload-csv", handlers.AdminUpload.UploadCSV)
	admin.POST("/signals", handlers.Signals.Record)
	admin.GET("/users", handlers.Users.List)
	admin.POST("/users", handlers.Users.Create)
	admin.PATCH("/users/:id", handlers.Users.Update)
	admin.DELETE("/users/:id", handlers.Users.Delete)
	admin.POST("/users/:id/credits", handlers.Credits.Grant)
}
