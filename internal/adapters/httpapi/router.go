package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/senpai-bg/senpai-client/internal/app"
	"github.com/senpai-bg/senpai-client/internal/metrics"
	"github.com/senpai-bg/senpai-client/internal/ports"
)

type Server struct {
	logger  zerolog.Logger
	auth    *app.AuthState
	member  *app.MemberAPI
	catalog *app.CatalogAPI
	watch   *app.WatchManager
	bus     ports.EventBus
	metrics *metrics.Collector

	validate *validator.Validate
}

func NewServer(logger zerolog.Logger, auth *app.AuthState, member *app.MemberAPI, catalog *app.CatalogAPI, watch *app.WatchManager, bus ports.EventBus, collector *metrics.Collector) *Server {
	return &Server{
		logger:   logger,
		auth:     auth,
		member:   member,
		catalog:  catalog,
		watch:    watch,
		bus:      bus,
		metrics:  collector,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(defaultRequestTimeout))
	r.Use(hlog.NewHandler(s.logger))
	r.Use(hlog.RequestIDHandler("request_id", "Request-Id"))
	r.Use(hlog.RemoteAddrHandler("remote_ip"))
	r.Use(hlog.UserAgentHandler("user_agent"))
	r.Use(hlog.AccessHandler(accessLogFn))

	// Le lecteur vidéo tourne sur une autre origine en dev.
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/version", s.handleVersion)
		r.Get("/events", s.handleEvents)
		if s.metrics != nil {
			r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
		}

		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", s.handleLogin)
			r.Post("/register", s.handleRegister)
			r.Post("/logout", s.handleLogout)
			r.Post("/forgot-password", s.handleForgotRequest)
			r.Post("/forgot-password/verify", s.handleForgotVerify)
			r.Post("/forgot-password/confirm", s.handleForgotConfirm)
		})

		r.Get("/home", s.handleHome)
		r.Get("/search", s.handleSearch)
		r.Get("/top-airing", s.handleTopAiring)
		r.Get("/anime/{id}", s.handleAnimeDetails)

		r.Route("/watch", func(r chi.Router) {
			r.Post("/", s.handleWatchOpen)
			r.Route("/{visitId}", func(r chi.Router) {
				r.Get("/", s.handleWatchView)
				r.Delete("/", s.handleWatchClose)
				r.Post("/play", s.handleWatchPlay)
				r.Post("/episode", s.handleWatchSwitch)
				r.Post("/subtitles", s.handleWatchSubtitles)
				r.Post("/favorite", s.handleWatchFavorite)
				r.Route("/comments", func(r chi.Router) {
					r.Post("/more", s.handleCommentsMore)
					r.Post("/", s.handleCommentAdd)
					r.Patch("/{commentId}", s.handleCommentEdit)
					r.Delete("/{commentId}", s.handleCommentDelete)
				})
			})
		})

		r.Route("/profile", func(r chi.Router) {
			r.Use(s.requireLogin)
			r.Get("/", s.handleProfile)
			r.Put("/", s.handleProfileUpdate)
			r.Post("/picture", s.handleProfilePicture)
			r.Get("/favourites", s.handleProfileFavorites)
			r.Delete("/favourites/{id}", s.handleProfileFavoriteDelete)
			r.Get("/history", s.handleProfileHistory)
			r.Delete("/history/{id}", s.handleProfileHistoryDelete)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Get("/members", s.handleAdminMembers)
			r.Get("/members/filter", s.handleAdminMemberFilter)
			r.Put("/members", s.handleAdminMemberUpdate)
			r.Get("/comments", s.handleAdminComments)
			r.Get("/comments/filter", s.handleAdminCommentFilter)
			r.Put("/comments", s.handleAdminCommentUpdate)
			r.Delete("/profile-picture/{memberId}/{fileName}", s.handleAdminPictureDelete)
		})
	})

	return r
}
