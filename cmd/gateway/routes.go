package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/ericksa/reclaimdigest/internal/audit"
	"github.com/ericksa/reclaimdigest/internal/config"
	"github.com/ericksa/reclaimdigest/internal/digest"
	"github.com/ericksa/reclaimdigest/internal/middleware"
	"github.com/ericksa/reclaimdigest/pkg/mcp"
	"github.com/gorilla/mux"
)

type server struct {
	cfg    *config.Config
	digest mcp.Digester
	audit  *audit.Auditor
	mcp    http.Handler
	logger *slog.Logger
	now    func() time.Time
}

func (s *server) routes() *mux.Router {
	router := mux.NewRouter()
	middleware.Register(router, s.cfg, s.logger)
	if s.audit != nil {
		router.Use(s.audit.Middleware)
	}

	// OPTIONS is matched on every route so the CORS middleware answers
	// preflights instead of mux returning 405.
	get := []string{http.MethodGet, http.MethodOptions}

	router.HandleFunc("/", s.rootHandler).Methods(get...)
	router.HandleFunc("/health", s.healthHandler).Methods(get...)

	router.HandleFunc("/tasks", s.serve(func(ctx context.Context) (any, error) { return s.digest.Tasks(ctx) })).Methods(get...)
	router.HandleFunc("/tasks/at-risk", s.serve(func(ctx context.Context) (any, error) { return s.digest.AtRisk(ctx) })).Methods(get...)
	router.HandleFunc("/tasks/overdue", s.serve(func(ctx context.Context) (any, error) { return s.digest.Overdue(ctx) })).Methods(get...)
	router.HandleFunc("/tasks/summary", s.serve(func(ctx context.Context) (any, error) { return s.digest.EmailSummary(ctx) })).Methods(get...)
	router.HandleFunc("/tasks/daily", s.serve(func(ctx context.Context) (any, error) { return s.digest.Daily(ctx) })).Methods(get...)
	router.HandleFunc("/tasks/upcoming", s.serve(func(ctx context.Context) (any, error) { return s.digest.Upcoming(ctx) })).Methods(get...)
	router.HandleFunc("/tasks/{id}", s.taskHandler).Methods(get...)

	config.NewConfigAPI(s.cfg).Register(router)

	if s.audit != nil {
		router.HandleFunc("/audit", s.audit.Handler).Methods(get...)
	}
	if s.mcp != nil {
		router.PathPrefix("/mcp").Handler(s.mcp)
	}
	return router
}

// serve adapts a payload producer to an endpoint. Every failure is a 500
// with {"detail": ...}.
func (s *server) serve(produce func(ctx context.Context) (any, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload, err := produce(r.Context())
		if err != nil {
			s.logger.Error("request failed", "path", r.URL.Path, "error", err)
			middleware.WriteError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, payload)
	}
}

func (s *server) taskHandler(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	view, err := s.digest.Task(r.Context(), id)
	switch {
	case errors.Is(err, digest.ErrTaskNotFound):
		middleware.WriteError(w, http.StatusNotFound, fmt.Sprintf("Task with ID %s not found", id))
	case err != nil:
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
	default:
		writeJSON(w, view)
	}
}

func (s *server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"status":    "healthy",
		"timestamp": s.now().Format(time.RFC3339Nano),
	})
}

type endpointInfo struct {
	Path        string `json:"path"`
	Method      string `json:"method"`
	Description string `json:"description"`
}

func (s *server) rootHandler(w http.ResponseWriter, r *http.Request) {
	endpoints := []endpointInfo{
		{"/", "GET", "API-Informationen und Dokumentation"},
		{"/health", "GET", "Health Check für API-Status"},
		{"/tasks", "GET", "Alle Tasks aus Reclaim.ai abrufen"},
		{"/tasks/at-risk", "GET", "Tasks mit Risiko, ohne archivierte und abgebrochene"},
		{"/tasks/overdue", "GET", "Überfällige Tasks, ohne archivierte und abgebrochene"},
		{"/tasks/summary", "GET", "E-Mail-Zusammenfassung überfälliger und gefährdeter Tasks"},
		{"/tasks/daily", "GET", "Tagesübersicht nach Dringlichkeit"},
		{"/tasks/upcoming", "GET", "Demnächst fällige Tasks"},
		{"/tasks/{task_id}", "GET", "Einzelnen Task nach ID abrufen"},
		{"/configure", "GET", "Aktive Konfiguration (Token maskiert)"},
	}
	if s.audit != nil {
		endpoints = append(endpoints, endpointInfo{"/audit", "GET", "Audit-Log der Anfragen und Tool-Aufrufe"})
	}
	if s.mcp != nil {
		endpoints = append(endpoints, endpointInfo{"/mcp", "POST", "Model Context Protocol (streamable HTTP)"})
	}

	writeJSON(w, map[string]any{
		"message":     "Reclaim Tasks API",
		"version":     version,
		"description": "REST API für Reclaim.ai Aufgabenverwaltung mit erweiterten Filtermöglichkeiten",
		"endpoints":   endpoints,
		"task_properties": map[string]string{
			"id":            "Eindeutige Task-ID",
			"title":         "Titel des Tasks",
			"notes":         "Beschreibung/Notizen",
			"priority":      "Priorität (P1 höchste bis P4)",
			"status":        "Status (NEW, SCHEDULED, IN_PROGRESS, COMPLETE, CANCELLED, ARCHIVED)",
			"at_risk":       "Risiko-Flag",
			"due":           "Fälligkeitsdatum",
			"duration":      "Geplante Dauer in Stunden",
			"duration_text": "Dauer als Text, z.B. 2h 30min",
			"progress_text": "Fortschritt der Arbeitssessions",
			"due_info":      "Fälligkeit mit Verschiebung",
			"next_event":    "Nächster geplanter Termin",
		},
		"authentication": map[string]string{
			"type":        "Bearer Token",
			"env":         "RECLAIM_TOKEN",
			"description": "Token für die Reclaim.ai API als Umgebungsvariable",
		},
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}
