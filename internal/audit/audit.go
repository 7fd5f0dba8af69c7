package audit

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ericksa/reclaimdigest/internal/middleware"
	_ "github.com/mattn/go-sqlite3"
)

const (
	KindHTTP = "http"
	KindTool = "tool"
)

// Auditor records served requests and MCP tool calls in sqlite.
// A nil *Auditor is valid and records nothing.
type Auditor struct {
	db     *sql.DB
	logger *slog.Logger
}

type AuditEntry struct {
	ID         int64     `json:"id"`
	Kind       string    `json:"kind"`
	Name       string    `json:"name"`
	Status     int       `json:"status,omitempty"`
	DurationMS int64     `json:"duration_ms"`
	RequestID  string    `json:"request_id,omitempty"`
	Input      string    `json:"input,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// Open opens (creating if needed) the audit database at path.
func Open(path string, logger *slog.Logger) (*Auditor, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create audit dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		status INTEGER,
		duration_ms INTEGER,
		request_id TEXT,
		input TEXT,
		error TEXT,
		timestamp DATETIME NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create audit table: %w", err)
	}
	return &Auditor{db: db, logger: logger}, nil
}

func (a *Auditor) insert(e AuditEntry) {
	if a == nil || a.db == nil {
		return
	}
	_, err := a.db.Exec(
		"INSERT INTO audit_log (kind, name, status, duration_ms, request_id, input, error, timestamp) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		e.Kind, e.Name, e.Status, e.DurationMS, e.RequestID, e.Input, e.Error, time.Now().UTC(),
	)
	if err != nil {
		a.logger.Warn("failed to write audit log", "error", err)
	}
}

// LogTool records one MCP tool call.
func (a *Auditor) LogTool(tool string, input json.RawMessage, duration time.Duration, err error) {
	e := AuditEntry{Kind: KindTool, Name: tool, Input: string(input), DurationMS: duration.Milliseconds()}
	if err != nil {
		e.Error = err.Error()
	}
	a.insert(e)
}

// Middleware records every request passing through.
func (a *Auditor) Middleware(next http.Handler) http.Handler {
	if a == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &middleware.StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
		next.ServeHTTP(rec, r)
		a.insert(AuditEntry{
			Kind:       KindHTTP,
			Name:       r.Method + " " + r.URL.Path,
			Status:     rec.Status,
			DurationMS: time.Since(start).Milliseconds(),
			RequestID:  middleware.RequestIDFrom(r.Context()),
			Input:      r.URL.RawQuery,
		})
	})
}

// GetLogs returns the newest entries first.
func (a *Auditor) GetLogs(limit int) ([]AuditEntry, error) {
	if a == nil || a.db == nil {
		return nil, nil
	}
	rows, err := a.db.Query("SELECT id, kind, name, status, duration_ms, request_id, input, error, timestamp FROM audit_log ORDER BY id DESC LIMIT ?", limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []AuditEntry
	for rows.Next() {
		var (
			e                         AuditEntry
			status, duration          sql.NullInt64
			requestID, input, errText sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.Kind, &e.Name, &status, &duration, &requestID, &input, &errText, &e.Timestamp); err != nil {
			return nil, err
		}
		e.Status = int(status.Int64)
		e.DurationMS = duration.Int64
		e.RequestID = requestID.String
		e.Input = input.String
		e.Error = errText.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Handler serves GET /audit?limit=N.
func (a *Auditor) Handler(w http.ResponseWriter, r *http.Request) {
	limit := 100
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			middleware.WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	entries, err := a.GetLogs(limit)
	if err != nil {
		middleware.WriteError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if entries == nil {
		entries = []AuditEntry{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"count": len(entries), "entries": entries})
}

func (a *Auditor) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	return a.db.Close()
}
