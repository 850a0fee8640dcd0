package api

import (
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/SenjeyB/LinkadooDemo/internal/api/middleware"
	"github.com/SenjeyB/LinkadooDemo/internal/broker"
	"github.com/SenjeyB/LinkadooDemo/internal/codec"
	"github.com/SenjeyB/LinkadooDemo/internal/handlers"
	"github.com/SenjeyB/LinkadooDemo/internal/service"
	"github.com/SenjeyB/LinkadooDemo/internal/store"
	"github.com/SenjeyB/LinkadooDemo/internal/token"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(
	logger zerolog.Logger,
	dataStore store.DataStore,
	tokens *token.Service,
	messageCodec *codec.Codec,
	dispatcher *broker.Broker,
) *chi.Mux {
	r := chi.NewRouter()

	// Metrics middleware (first to capture all requests)
	r.Use(middleware.Metrics)

	// Security middleware
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.MaxBodySize(16 * 1024)) // 16KB max body
	r.Use(middleware.ValidateRequest)

	// Standard middleware
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	// CORS - the browser client is served from a different origin
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Resolve bearer credentials into an identity on every request;
	// protected routes enforce it with RequireAuth.
	auth := middleware.NewAuth(tokens, dataStore)
	r.Use(auth.Authenticate)

	// After Authenticate so request logs carry the resolved identity.
	r.Use(middleware.Logger(logger))

	lobbies := service.NewLobbyService(dataStore, dispatcher, logger)
	messages := service.NewMessageService(dataStore, messageCodec, dispatcher, logger)
	h := handlers.NewHandler(dataStore, lobbies, messages, tokens, auth, dispatcher, logger)

	// Metrics endpoint (for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// Public routes (no auth required)
	r.Get("/health", h.Health)
	r.Get("/stats", h.Stats)
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Get("/lobby/list", h.ListLobbies)
	r.Get("/lobby/{id}/users", h.LobbyUsers)
	r.Get("/user/{id}", h.GetUser)
	r.Post("/messages/send", h.SendMessage)
	r.Get("/messages/lobby/{id}", h.LobbyMessages)

	// Streaming surface; the handshake carries the credential as a
	// query parameter and performs its own validation.
	r.Get("/ws", h.HandleWS)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth)

		r.Post("/lobby/create", h.CreateLobby)
		r.Post("/lobby/{id}/join", h.JoinLobby)
		r.Post("/lobby/leave", h.LeaveLobby)
		r.Post("/lobby/{id}/delete", h.DeleteLobby)
		r.Get("/lobby/{id}/participants", h.Participants)
		r.Put("/user/nickname", h.UpdateNickname)
	})

	return r
}
