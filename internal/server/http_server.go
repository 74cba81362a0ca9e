package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/oggyb/mawaddah/internal/app"
	"github.com/oggyb/mawaddah/internal/handlers"
	"github.com/oggyb/mawaddah/internal/logger"
	"github.com/oggyb/mawaddah/internal/service/auth"
	"github.com/oggyb/mawaddah/internal/service/profiles"
	"github.com/oggyb/mawaddah/internal/service/search"
)

const shutdownTimeout = 10 * time.Second

// NewRouter wires the REST API under cfg.HTTP.Prefix.
//
// Routes:
//
//	POST  {prefix}/auth/register
//	POST  {prefix}/auth/login
//	GET   {prefix}/profiles/me        (bearer)
//	GET   {prefix}/profiles/{id}      (bearer)
//	POST  {prefix}/profiles           (bearer)
//	PATCH {prefix}/profiles/me        (bearer)
//	GET   {prefix}/search             (bearer)
//	GET   /healthz
func NewRouter(appCtx *app.AppContext, authService *auth.Service) http.Handler {
	cfg := appCtx.Config
	log := appCtx.Logger

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(cfg.HTTP.RequestTimeout))
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   cfg.HTTP.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
	}).Handler)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	authHandler := handlers.NewAuthHandler(authService, log)
	profileHandler := handlers.NewProfileHandler(profiles.NewProfileService(appCtx), log)
	searchHandler := handlers.NewSearchHandler(search.NewSearchService(appCtx), log)

	r.Route(cfg.HTTP.Prefix, func(r chi.Router) {
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(handlers.Authenticate(authService, log))
			r.Get("/profiles/me", profileHandler.Me)
			r.Get("/profiles/{id}", profileHandler.Get)
			r.Post("/profiles", profileHandler.Create)
			r.Patch("/profiles/me", profileHandler.Update)
			r.Get("/search", searchHandler.Search)
		})
	})
	return r
}

// RunHTTP serves handler until ctx is done, then shuts down gracefully.
func RunHTTP(ctx context.Context, host, port string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", host, port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// requestLogger attaches a request-scoped logger carrying the request id
// and logs one line per request.
func requestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			reqLog := log.With("request_id", chimiddleware.GetReqID(r.Context()))
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), reqLog)))

			reqLog.Info("http_request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		})
	}
}
