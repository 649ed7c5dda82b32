package api

import (
	"net/http"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/eventforge/server/internal/api/handlers"
	"github.com/eventforge/server/internal/api/middleware"
	"github.com/eventforge/server/internal/auth"
	"github.com/eventforge/server/internal/config"
	"github.com/eventforge/server/internal/domain/events"
	"github.com/eventforge/server/internal/domain/users"
	"github.com/eventforge/server/internal/metrics"
	"github.com/eventforge/server/internal/storage"
)

// RouterOptions carries the wired dependencies for the HTTP surface.
// DB may be nil when there is no backing database to probe.
type RouterOptions struct {
	Store  storage.Repository
	Tokens *auth.TokenManager
	DB     handlers.Pinger
}

func NewRouter(cfg config.Config, logger zerolog.Logger, opts RouterOptions) http.Handler {
	usersService := users.NewService(opts.Store.Users(), opts.Tokens, logger)
	eventsService := events.NewService(opts.Store.Events())

	env := cfg.Environment
	authHandler := handlers.NewAuthHandler(usersService, env)
	usersHandler := handlers.NewUsersHandler(usersService, env)
	eventsHandler := handlers.NewEventsHandler(eventsService, env)
	healthHandler := handlers.NewHealthHandler(opts.DB, Version)

	authed := middleware.Authenticate(opts.Tokens, usersService, env)
	maybeAuthed := middleware.MaybeAuthenticate(opts.Tokens, usersService)
	adminOnly := middleware.RequireRole(auth.RoleAdmin, env)
	managerOnly := middleware.RequireRole(auth.RolePublisher, env)

	mux := http.NewServeMux()

	mux.Handle("/healthz", http.HandlerFunc(healthHandler.Healthz))
	mux.Handle("/readyz", http.HandlerFunc(healthHandler.Readyz))
	mux.Handle("/metrics", metrics.Handler())
	mux.Handle("/version", VersionHandler())

	mux.Handle("/api/v1/auth/register", methodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(authHandler.Register),
	}))
	mux.Handle("/api/v1/auth/login", methodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(authHandler.Login),
	}))
	mux.Handle("/api/v1/auth/refresh", methodMux(map[string]http.Handler{
		http.MethodPost: http.HandlerFunc(authHandler.Refresh),
	}))
	mux.Handle("/api/v1/auth/me", methodMux(map[string]http.Handler{
		http.MethodGet: authed(http.HandlerFunc(authHandler.Me)),
	}))

	mux.Handle("/api/v1/users", methodMux(map[string]http.Handler{
		http.MethodGet:  authed(adminOnly(http.HandlerFunc(usersHandler.List))),
		http.MethodPost: authed(adminOnly(http.HandlerFunc(usersHandler.CreatePublisher))),
	}))
	mux.Handle("/api/v1/users/publishers", methodMux(map[string]http.Handler{
		http.MethodGet: authed(http.HandlerFunc(usersHandler.ListPublishers)),
	}))
	mux.Handle("/api/v1/users/{id}", methodMux(map[string]http.Handler{
		http.MethodGet: authed(http.HandlerFunc(usersHandler.Get)),
	}))
	mux.Handle("/api/v1/users/{id}/role", methodMux(map[string]http.Handler{
		http.MethodPut: authed(adminOnly(http.HandlerFunc(usersHandler.ChangeRole))),
	}))

	mux.Handle("/api/v1/events", methodMux(map[string]http.Handler{
		http.MethodGet:  maybeAuthed(http.HandlerFunc(eventsHandler.List)),
		http.MethodPost: authed(managerOnly(http.HandlerFunc(eventsHandler.Create))),
	}))
	mux.Handle("/api/v1/events/mine", methodMux(map[string]http.Handler{
		http.MethodGet: authed(managerOnly(http.HandlerFunc(eventsHandler.Mine))),
	}))
	mux.Handle("/api/v1/events/registrations", methodMux(map[string]http.Handler{
		http.MethodGet: authed(http.HandlerFunc(eventsHandler.Registrations)),
	}))
	mux.Handle("/api/v1/events/{id}", methodMux(map[string]http.Handler{
		http.MethodGet:    maybeAuthed(http.HandlerFunc(eventsHandler.Get)),
		http.MethodPut:    authed(managerOnly(http.HandlerFunc(eventsHandler.Update))),
		http.MethodDelete: authed(managerOnly(http.HandlerFunc(eventsHandler.Delete))),
	}))
	mux.Handle("/api/v1/events/{id}/register", methodMux(map[string]http.Handler{
		http.MethodPost:   authed(http.HandlerFunc(eventsHandler.Register)),
		http.MethodDelete: authed(http.HandlerFunc(eventsHandler.Unregister)),
	}))
	mux.Handle("/api/v1/events/{id}/attendees", methodMux(map[string]http.Handler{
		http.MethodGet: authed(managerOnly(http.HandlerFunc(eventsHandler.Attendees))),
	}))

	var handler http.Handler = mux
	handler = metrics.HTTPMiddleware(handler)
	handler = middleware.RequestLogging(logger)(handler)
	return handler
}

func methodMux(handlers map[string]http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if handler, ok := handlers[r.Method]; ok {
			handler.ServeHTTP(w, r)
			return
		}
		w.Header().Set("Allow", allowedMethods(handlers))
		w.WriteHeader(http.StatusMethodNotAllowed)
	})
}

func allowedMethods(handlers map[string]http.Handler) string {
	methods := make([]string, 0, len(handlers))
	for method := range handlers {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return strings.Join(methods, ", ")
}
