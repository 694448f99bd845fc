package server

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/ourfood/climate-diet/internal/catalog"
	"github.com/ourfood/climate-diet/internal/config"
	"github.com/ourfood/climate-diet/internal/handlers"
	"github.com/ourfood/climate-diet/internal/middleware"
	"github.com/ourfood/climate-diet/internal/repository"
	"github.com/ourfood/climate-diet/internal/services"
)

type Server struct {
	router *chi.Mux
	config config.Config
}

func New(database *sql.DB, cfg config.Config, cat *catalog.Catalog, authService *services.AuthService) *Server {
	userRepo := repository.NewUserRepository(database)
	contactRepo := repository.NewContactRepository(database)
	budgetRepo := repository.NewBudgetRepository(database)
	logRepo := repository.NewMealLogRepository(database)
	tokenRepo := repository.NewAPITokenRepository(database)

	mealService := services.NewMealService(cat)
	budgetService := services.NewBudgetService(budgetRepo, cat)
	analyticsService := services.NewAnalyticsService(logRepo)

	authHandler := handlers.NewAuthHandler(authService)
	catalogHandler := handlers.NewCatalogHandler(cat, mealService)
	mealHandler := handlers.NewMealHandler(mealService, budgetService, logRepo)
	profileHandler := handlers.NewProfileHandler(contactRepo, budgetRepo, budgetService)
	analyticsHandler := handlers.NewAnalyticsHandler(analyticsService)
	adminHandler := handlers.NewAdminHandler(userRepo, authService)
	tokenHandler := handlers.NewTokenHandler(tokenRepo)
	icalHandler := handlers.NewICalHandler(logRepo)

	router := chi.NewRouter()

	router.Use(chimiddleware.Logger)
	router.Use(chimiddleware.Recoverer)
	router.Use(chimiddleware.Compress(5))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	router.Get("/login", authHandler.Login)
	router.Post("/login", authHandler.SubmitLogin)
	router.Post("/signup", authHandler.SubmitSignUp)
	router.Get("/auth/callback", authHandler.Callback)
	router.Get("/logout", authHandler.Logout)

	router.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(authService))

		r.Get("/api/catalog/types", catalogHandler.Types)
		r.Get("/api/catalog/dishes", catalogHandler.Dishes)
		r.Get("/api/catalog/dishes/{name}", catalogHandler.GetDish)

		r.Post("/api/meals/preview", mealHandler.Preview)
		r.Get("/api/meals/log", mealHandler.ListLog)
		r.Post("/api/meals/log", mealHandler.SaveLog)
		r.Delete("/api/meals/log", mealHandler.DeleteLog)

		r.Get("/api/profile", profileHandler.Get)
		r.Post("/api/profile", profileHandler.Update)

		r.Get("/api/analytics/summary", analyticsHandler.Summary)
		r.Get("/api/analytics/series", analyticsHandler.Series)
		r.Get("/api/analytics/carbon-trend", analyticsHandler.CarbonTrend)

		r.Get("/ical", icalHandler.Feed)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin)

			r.Get("/admin/users", adminHandler.ListUsers)
			r.Post("/admin/users/{username}/reset-password", adminHandler.ResetPassword)
			r.Delete("/admin/users/{username}", adminHandler.DeleteUser)

			r.Get("/api/tokens", tokenHandler.List)
			r.Post("/api/tokens", tokenHandler.Create)
			r.Delete("/api/tokens/{id}", tokenHandler.Delete)
		})
	})

	// Read-only integration surface for bearer-token clients.
	router.Group(func(r chi.Router) {
		r.Use(middleware.APITokenAuth(tokenRepo, userRepo))

		r.Get("/api/v1/meals/log", mealHandler.ListLog)
		r.Get("/api/v1/analytics/summary", analyticsHandler.Summary)
		r.Get("/api/v1/ical", icalHandler.Feed)
	})

	return &Server{
		router: router,
		config: cfg,
	}
}

func (server *Server) Start() error {
	address := ":" + server.config.Port
	slog.Info("starting server", "address", address)
	return http.ListenAndServe(address, server.router)
}

func (server *Server) Handler() http.Handler {
	return server.router
}
