package router

import (
	"net/http"
	"strings"

	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-task-go-stdlib/internal/auth"
	"github.com/ovaphlow/pitchfork/service-task-go-stdlib/internal/task"
	"github.com/ovaphlow/pitchfork/service-task-go-stdlib/internal/user"
	"github.com/ovaphlow/pitchfork/service-task-go-stdlib/pkg/utilities"
)

// Options carries the process-wide services the routes are built on.
type Options struct {
	Users       *user.UserService
	Tasks       *task.Service
	Guard       *auth.Guard
	CORSOrigins []string
}

// RegisterRoutes mounts HTTP handlers using the standard library's http.ServeMux.
func RegisterRoutes(logger *zap.SugaredLogger, opts Options) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// public auth routes
	userHandler := user.NewHandler(opts.Users, logger)
	mux.HandleFunc("POST /api/users/signup", userHandler.Signup)
	mux.HandleFunc("POST /api/users/login", userHandler.Login)

	// everything below requires a bearer access token
	protect := func(h http.HandlerFunc) http.Handler { return opts.Guard.Middleware(h) }

	mux.Handle("GET /api/protected", protect(userHandler.Protected))

	taskHandler := task.NewHandler(opts.Tasks, logger)
	mux.Handle("GET /api/tasks", protect(taskHandler.List))
	mux.Handle("POST /api/tasks", protect(taskHandler.Create))
	mux.Handle("PUT /api/tasks/{id}", protect(taskHandler.Update))
	mux.Handle("DELETE /api/tasks/{id}", protect(taskHandler.Delete))

	c := cors.New(cors.Options{
		AllowedOrigins:   opts.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	var handler http.Handler = jsonMuxErrors(mux)
	handler = c.Handler(handler)
	handler = SecurityHeadersMiddleware()(handler)
	handler = LoggingMiddleware(logger)(handler)
	handler = RecoverMiddleware(logger)(handler)
	return handler
}

// jsonMuxErrors rewrites the plain-text 404 and 405 that ServeMux produces for
// unmatched requests into the JSON error body used by every handler.
func jsonMuxErrors(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, pattern := mux.Handler(r); pattern != "" {
			mux.ServeHTTP(w, r)
			return
		}
		mux.ServeHTTP(&muxErrorWriter{ResponseWriter: w}, r)
	})
}

type muxErrorWriter struct {
	http.ResponseWriter
	swallow bool
}

func (m *muxErrorWriter) WriteHeader(code int) {
	if code != http.StatusNotFound && code != http.StatusMethodNotAllowed {
		m.ResponseWriter.WriteHeader(code)
		return
	}
	m.swallow = true
	utilities.WriteError(m.ResponseWriter, code, strings.ToLower(http.StatusText(code)))
}

func (m *muxErrorWriter) Write(b []byte) (int, error) {
	if m.swallow {
		return len(b), nil
	}
	return m.ResponseWriter.Write(b)
}
