package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"gorm.io/gorm"

	"github.com/laneboard/laneboard/internal/auth"
	"github.com/laneboard/laneboard/internal/handlers"
	"github.com/laneboard/laneboard/internal/httpx"
	"github.com/laneboard/laneboard/internal/logging"
	"github.com/laneboard/laneboard/internal/services"
)

// New constructs the root http.Handler with all routes and middlewares
// applied. The user sync endpoints and /health stay outside RequireAuth;
// everything else needs a verified bearer token.
func New(db *gorm.DB, verifier auth.TokenVerifier, corsOrigins []string) http.Handler {
	svc := services.NewTemplateService(db)
	uh := handlers.NewUserHandler(db)
	ph := handlers.NewProjectHandler(db, svc)
	sh := handlers.NewSwimLaneHandler(db)
	th := handlers.NewTaskHandler(db)
	rh := handlers.NewUserRoleHandler(db)
	tph := handlers.NewTemplateHandler(db, svc)

	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSONError(w, http.StatusNotFound, "not_found", nil)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		httpx.JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
	})

	r.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		if err := db.Exec("SELECT 1").Error; err != nil {
			httpx.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "degraded", "db": "down"})
			return
		}
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok", "db": "up"})
	}).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(auth.Middleware(verifier))

	// User sync runs before the caller has a local row, so these two
	// are not behind RequireAuth.
	api.HandleFunc("/users", uh.Upsert).Methods(http.MethodPost)
	api.HandleFunc("/users/{external_id}", uh.GetByExternalID).Methods(http.MethodGet)

	protected := api.NewRoute().Subrouter()
	protected.Use(auth.RequireAuth)

	// Literal project routes go in before the {id} matcher.
	protected.HandleFunc("/projects/from-template", ph.CloneFromSource).Methods(http.MethodPost)
	protected.HandleFunc("/projects", ph.Create).Methods(http.MethodPost)
	protected.HandleFunc("/projects", ph.List).Methods(http.MethodGet)
	protected.HandleFunc("/projects/{id}", ph.Get).Methods(http.MethodGet)
	protected.HandleFunc("/projects/{id}", ph.Update).Methods(http.MethodPut)
	protected.HandleFunc("/projects/{id}", ph.Delete).Methods(http.MethodDelete)

	protected.HandleFunc("/swim-lanes/project/{project_id}", sh.ListByProject).Methods(http.MethodGet)
	protected.HandleFunc("/swim-lanes", sh.Create).Methods(http.MethodPost)
	protected.HandleFunc("/swim-lanes/{id}", sh.Update).Methods(http.MethodPut)
	protected.HandleFunc("/swim-lanes/{id}", sh.Delete).Methods(http.MethodDelete)

	protected.HandleFunc("/tasks/project/{project_id}", th.ListByProject).Methods(http.MethodGet)
	protected.HandleFunc("/tasks", th.Create).Methods(http.MethodPost)
	protected.HandleFunc("/tasks/{id}", th.Update).Methods(http.MethodPut)

	protected.HandleFunc("/projects/{project_id}/user-roles", rh.ListByProject).Methods(http.MethodGet)
	protected.HandleFunc("/projects/{project_id}/user-roles", rh.Create).Methods(http.MethodPost)
	protected.HandleFunc("/projects/{project_id}/user-roles/{id}", rh.Update).Methods(http.MethodPut)
	protected.HandleFunc("/projects/{project_id}/user-roles/{id}", rh.Delete).Methods(http.MethodDelete)

	protected.HandleFunc("/templates/from-project", tph.CreateFromProject).Methods(http.MethodPost)
	protected.HandleFunc("/templates/create-project", tph.CreateProject).Methods(http.MethodPost)
	protected.HandleFunc("/templates", tph.List).Methods(http.MethodGet)
	protected.HandleFunc("/templates/{id}", tph.Get).Methods(http.MethodGet)
	protected.HandleFunc("/templates/{id}", tph.Delete).Methods(http.MethodDelete)

	c := cors.New(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: false,
	})
	return c.Handler(withRecover(withLogging(r)))
}

// statusRecorder captures the status code for the access log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logging.L().WithFields(map[string]any{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).String(),
		}).Info("request")
	})
}

func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logging.L().WithField("panic", rec).Error("recovered from handler panic")
				httpx.JSONError(w, http.StatusInternalServerError, "internal_error", nil)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
