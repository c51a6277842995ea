package routes

import (
	"net/http"

	"github.com/chessarena/tournament-system/handlers"
	"github.com/chessarena/tournament-system/middleware"
	"github.com/chessarena/tournament-system/models"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// SetupRoutes wires every handler onto the router. Write operations on
// tournaments and matches require authentication; state transitions,
// round generation and deletions are admin-only.
func SetupRoutes(
	router *chi.Mux,
	auth *middleware.Authenticator,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	tournamentHandler *handlers.TournamentHandler,
	inscriptionHandler *handlers.InscriptionHandler,
	matchHandler *handlers.MatchHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	router.Get("/swagger/*", httpSwagger.WrapHandler)

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	router.Post("/auth/register", authHandler.Register)
	router.Post("/auth/login", authHandler.Login)

	router.Route("/users", func(r chi.Router) {
		r.Get("/{id}", userHandler.GetUserByID)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Put("/{id}", userHandler.UpdateUserByID)
			r.Post("/{id}/avatar", userHandler.UploadUserAvatar)
			r.Delete("/{id}", userHandler.DeleteUserByID)
		})
	})

	router.Route("/tournaments", func(r chi.Router) {
		r.Get("/", tournamentHandler.ListTournaments)
		r.Get("/{id}", tournamentHandler.GetTournamentByID)
		r.Get("/{id}/standings", tournamentHandler.GetStandings)
		r.Get("/{id}/inscriptions", inscriptionHandler.ListByTournament)
		r.Get("/{id}/matches", matchHandler.ListByTournament)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)

			r.Post("/{id}/inscriptions", inscriptionHandler.Register)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Authorize(models.RoleAdmin))

				r.Post("/", tournamentHandler.CreateTournament)
				r.Put("/{id}", tournamentHandler.UpdateTournament)
				r.Delete("/{id}", tournamentHandler.DeleteTournament)
				r.Post("/{id}/banner", tournamentHandler.UploadTournamentBanner)

				r.Post("/{id}/start", tournamentHandler.StartTournament)
				r.Post("/{id}/finish", tournamentHandler.FinishTournament)
				r.Post("/{id}/cancel", tournamentHandler.CancelTournament)
				r.Post("/{id}/rounds", tournamentHandler.GenerateRound)
			})
		})
	})

	router.Route("/inscriptions", func(r chi.Router) {
		r.Use(auth.Authenticate)
		r.Delete("/{inscriptionID}", inscriptionHandler.Withdraw)
	})

	router.Route("/matches", func(r chi.Router) {
		r.Get("/{id}", matchHandler.GetMatchByID)

		r.Group(func(r chi.Router) {
			r.Use(auth.Authenticate)
			r.Use(middleware.Authorize(models.RoleAdmin))

			r.Post("/", matchHandler.CreateMatch)
			r.Put("/{id}/result", matchHandler.SubmitResult)
			r.Delete("/{id}", matchHandler.DeleteMatch)
		})
	})

	router.Get("/ws/tournaments/{id}", webSocketHandler.ServeWs)
}
