package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/uttam4027/MHJ-SKU-Checker/internal/config"
	"github.com/uttam4027/MHJ-SKU-Checker/internal/run"
	"github.com/uttam4027/MHJ-SKU-Checker/internal/workbook"
)

const (
	maxUploadBytes = 10 << 20
	previewLimit   = 10
)

type Handlers struct {
	runs         *run.Service
	store        *run.Store
	defaultDelay int
	logger       *slog.Logger
}

// NewHandlers wires the run service and store into the HTTP surface.
// defaultDelay is the per-SKU delay applied when an upload omits one.
func NewHandlers(runs *run.Service, store *run.Store, defaultDelay int, logger *slog.Logger) *Handlers {
	if defaultDelay < config.MinDelaySeconds || defaultDelay > config.MaxDelaySeconds {
		defaultDelay = config.DefaultDelaySeconds
	}
	return &Handlers{
		runs:         runs,
		store:        store,
		defaultDelay: defaultDelay,
		logger:       logger,
	}
}

// Routes mounts the API endpoints.
func (h *Handlers) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/runs", h.CreateRun)
		r.Get("/runs", h.ListRuns)
		r.Get("/runs/{runID}", h.GetRun)
		r.Get("/runs/{runID}/results.xlsx", h.DownloadResults)
		r.Get("/sample.xlsx", h.DownloadSample)
	})
}

// CreateRunResponse confirms a newly accepted run.
type CreateRunResponse struct {
	RunID        string   `json:"run_id"`
	Status       string   `json:"status"`
	SKUCount     int      `json:"sku_count"`
	DelaySeconds int      `json:"delay_seconds"`
	Preview      []string `json:"preview"`
	Message      string   `json:"message"`
}

// RunStatusResponse is the full run state plus overall progress.
type RunStatusResponse struct {
	*run.Run
	ProgressPercent float64 `json:"progress_percent"`
}

func progressPercent(r *run.Run) float64 {
	if r.SKUCount == 0 {
		return 0
	}
	return float64(r.Checked) / float64(r.SKUCount) * 100
}

// CreateRun accepts a multipart upload (field "file" holding the workbook,
// optional field "delay" in seconds) and queues a new run.
func (h *Handlers) CreateRun(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)

	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		h.respondError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	skus, err := workbook.ReadSKUs(file)
	if err != nil {
		if errors.Is(err, workbook.ErrEmptySheet) || errors.Is(err, workbook.ErrNoSKUs) {
			h.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Warn("rejected upload", "error", err)
		h.respondError(w, http.StatusBadRequest, "the uploaded file is not a valid xlsx workbook")
		return
	}

	delay := h.defaultDelay
	if v := r.FormValue("delay"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, "delay must be a whole number of seconds")
			return
		}
		delay = config.ClampDelay(n)
	}

	created, err := h.runs.Start(skus, delay)
	if err != nil {
		if errors.Is(err, run.ErrRunActive) {
			h.respondError(w, http.StatusConflict, "a run is already active")
			return
		}
		h.logger.Error("failed to start run", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to start run")
		return
	}

	preview := skus
	if len(preview) > previewLimit {
		preview = preview[:previewLimit]
	}

	h.respondJSON(w, http.StatusCreated, CreateRunResponse{
		RunID:        created.ID,
		Status:       string(created.Status),
		SKUCount:     created.SKUCount,
		DelaySeconds: created.DelaySeconds,
		Preview:      preview,
		Message:      "Run created successfully",
	})
}

// GetRun reports the live state of one run.
func (h *Handlers) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	got, err := h.store.Get(runID)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "run not found")
		return
	}

	h.respondJSON(w, http.StatusOK, RunStatusResponse{
		Run:             got,
		ProgressPercent: progressPercent(got),
	})
}

// ListRuns returns the retained run history, newest first.
func (h *Handlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.store.List())
}

// DownloadResults streams the results workbook for a completed run.
func (h *Handlers) DownloadResults(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")

	got, err := h.store.Get(runID)
	if err != nil {
		h.respondError(w, http.StatusNotFound, "run not found")
		return
	}

	if got.Status != run.StateCompleted {
		h.respondError(w, http.StatusConflict, "results are only available for completed runs")
		return
	}

	f, err := workbook.WriteResults(got.Results)
	if err != nil {
		h.logger.Error("failed to build results workbook", "run_id", runID, "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to build results workbook")
		return
	}
	defer f.Close()

	completedAt := time.Now()
	if got.CompletedAt != nil {
		completedAt = *got.CompletedAt
	}

	w.Header().Set("Content-Type", workbook.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", workbook.ResultsFilename(completedAt)))

	if err := f.Write(w); err != nil {
		h.logger.Error("failed to stream results workbook", "run_id", runID, "error", err)
	}
}

// DownloadSample streams the example input workbook.
func (h *Handlers) DownloadSample(w http.ResponseWriter, r *http.Request) {
	f, err := workbook.SampleWorkbook()
	if err != nil {
		h.logger.Error("failed to build sample workbook", "error", err)
		h.respondError(w, http.StatusInternalServerError, "failed to build sample workbook")
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", workbook.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", workbook.SampleFilename))

	if err := f.Write(w); err != nil {
		h.logger.Error("failed to stream sample workbook", "error", err)
	}
}

func (h *Handlers) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handlers) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}
