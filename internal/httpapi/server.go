// Package httpapi exposes the pipeline as a small job-queue API with a
// static frontend: submit a source URL, poll the job, browse past results.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/notsoquietly/articlestudio/internal/jobs"
	"github.com/notsoquietly/articlestudio/internal/store"
)

// Runner processes one source URL, reporting progress as it goes. The app's
// Run method satisfies this after currying the hint.
type Runner func(ctx context.Context, sourceURL string, report func(string)) (any, error)

// Server holds the API's collaborators.
type Server struct {
	Jobs  *jobs.Store
	Store *store.Store
	Run   Runner
	// FrontendDir, when set, is served at /.
	FrontendDir string
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/generate", s.handleGenerate)
	mux.HandleFunc("GET /api/jobs/{id}", s.handleJob)
	mux.HandleFunc("GET /api/videos", s.handleVideos)
	if s.FrontendDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.FrontendDir)))
	}
	return mux
}

type generateRequest struct {
	SourceURL string `json:"source_url"`
	// VideoURL is the legacy field name the first frontend used.
	VideoURL string `json:"video_url"`
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	sourceURL := strings.TrimSpace(req.SourceURL)
	if sourceURL == "" {
		sourceURL = strings.TrimSpace(req.VideoURL)
	}
	if sourceURL == "" {
		httpError(w, http.StatusBadRequest, "source_url is required")
		return
	}

	// The job outlives the HTTP request, so it gets its own context.
	job := s.Jobs.Submit(context.Background(), sourceURL, func(ctx context.Context, report func(string)) (any, error) {
		return s.Run(ctx, sourceURL, report)
	})
	log.Info().Str("job", job.ID).Str("url", sourceURL).Msg("job queued")
	writeJSON(w, http.StatusAccepted, map[string]string{
		"job_id": job.ID,
		"status": string(job.Status),
	})
}

func (s *Server) handleJob(w http.ResponseWriter, r *http.Request) {
	job, ok := s.Jobs.Get(r.PathValue("id"))
	if !ok {
		httpError(w, http.StatusNotFound, "job not found")
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (s *Server) handleVideos(w http.ResponseWriter, r *http.Request) {
	sources, err := s.Store.ListSources()
	if err != nil {
		log.Error().Err(err).Msg("list sources")
		httpError(w, http.StatusInternalServerError, "could not read article store")
		return
	}
	if sources == nil {
		sources = []store.SourceSummary{}
	}
	writeJSON(w, http.StatusOK, sources)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func httpError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
