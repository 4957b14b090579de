package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/mmrzaf/magicgen/internal/app"
	"github.com/mmrzaf/magicgen/internal/domain"
	"github.com/mmrzaf/magicgen/internal/exec"
	"github.com/mmrzaf/magicgen/internal/infra/repos/runs"
	"github.com/mmrzaf/magicgen/internal/logging"
	"github.com/mmrzaf/magicgen/internal/schema"
)

const (
	maxBodyBytes        = 1 << 20
	defaultPreviewLines = 10
	MaxPreviewLines     = 1000
	defaultRunsLimit    = 50
)

type Handler struct {
	runService *app.RunService
	logger     *logging.Logger
}

func NewHandler(runService *app.RunService, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Handler{runService: runService, logger: logger.WithComponent("api")}
}

// Routes registers every endpoint on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/v1/schemas/validate", h.ValidateSchema)
	mux.HandleFunc("POST /api/v1/preview", h.Preview)
	mux.HandleFunc("GET /api/v1/runs", h.ListRuns)
	mux.HandleFunc("GET /api/v1/runs/{id}", h.GetRun)
}

type fieldInfo struct {
	Name string `json:"name"`
	Type string `json:"type"`
	Spec string `json:"spec"`
	Kind string `json:"kind"`
}

type fieldError struct {
	Field   string `json:"field"`
	Spec    string `json:"spec,omitempty"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type validateResponse struct {
	Valid  bool         `json:"valid"`
	Fields []fieldInfo  `json:"fields,omitempty"`
	Errors []fieldError `json:"errors,omitempty"`
}

// Schemas

func (h *Handler) ValidateSchema(w http.ResponseWriter, r *http.Request) {
	doc, ok := h.readSchema(w, r)
	if !ok {
		return
	}

	gen, err := h.runService.Compile(doc)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(validateResponse{Valid: false, Errors: fieldErrors(err)})
		return
	}

	fields := make([]fieldInfo, 0, len(doc))
	for _, f := range gen.Fields() {
		fields = append(fields, fieldInfo{
			Name: f.Spec.Name,
			Type: string(f.Spec.Type),
			Spec: f.Spec.RawSpec,
			Kind: f.Generator.Kind().String(),
		})
	}
	writeJSON(w, validateResponse{Valid: true, Fields: fields})
}

// Preview streams generated records as NDJSON without touching disk.
func (h *Handler) Preview(w http.ResponseWriter, r *http.Request) {
	lines := defaultPreviewLines
	if q := r.URL.Query().Get("lines"); q != "" {
		n, err := strconv.Atoi(q)
		if err != nil || n <= 0 || n > MaxPreviewLines {
			http.Error(w, "lines must be between 1 and "+strconv.Itoa(MaxPreviewLines), http.StatusBadRequest)
			return
		}
		lines = n
	}

	doc, ok := h.readSchema(w, r)
	if !ok {
		return
	}
	gen, err := h.runService.Compile(doc)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(validateResponse{Valid: false, Errors: fieldErrors(err)})
		return
	}

	w.Header().Set("Content-Type", "application/x-ndjson")
	rng := exec.NewWorkerRand()
	buf := make([]byte, 0, 256)
	for i := 0; i < lines; i++ {
		buf = gen.AppendLine(buf[:0], rng)
		buf = append(buf, '\n')
		if _, err := w.Write(buf); err != nil {
			h.logger.Warnw("preview write aborted", map[string]any{"error": err.Error(), "written": i})
			return
		}
	}
}

// Runs

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	limit := defaultRunsLimit
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 1000 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	status := q.Get("status")
	switch domain.RunStatus(status) {
	case "", domain.RunStatusRunning, domain.RunStatusSuccess, domain.RunStatusFailed:
	default:
		http.Error(w, "invalid status", http.StatusBadRequest)
		return
	}

	var since time.Time
	if s := q.Get("since"); s != "" {
		t, err := runs.ParseSince(s, time.Now())
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		since = t
	}

	list, err := h.runService.ListRuns(limit, status, since)
	if err != nil {
		h.logger.Error("list runs: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, list)
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	run, err := h.runService.GetRun(id)
	if err != nil {
		if errors.Is(err, runs.ErrNotFound) {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		h.logger.Error("get run %s: %v", id, err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, run)
}

func (h *Handler) readSchema(w http.ResponseWriter, r *http.Request) (schema.Document, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return nil, false
	}
	doc, err := schema.ParseJSON(body)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(validateResponse{Valid: false, Errors: fieldErrors(err)})
		return nil, false
	}
	return doc, true
}

func fieldErrors(err error) []fieldError {
	var ce *schema.CompileError
	if errors.As(err, &ce) {
		out := make([]fieldError, 0, len(ce.Errors))
		for _, se := range ce.Errors {
			out = append(out, fieldError{Field: se.Field, Spec: se.Spec, Reason: se.Reason, Message: se.Error()})
		}
		return out
	}
	var se *domain.SchemaError
	if errors.As(err, &se) {
		return []fieldError{{Field: se.Field, Spec: se.Spec, Reason: se.Reason, Message: se.Error()}}
	}
	return []fieldError{{Reason: "invalid", Message: err.Error()}}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
