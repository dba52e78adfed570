package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/madisonpr/mentions/internal/importer"
	"github.com/madisonpr/mentions/internal/intel"
	"github.com/madisonpr/mentions/internal/resolve"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
	maxImportBody     = 4 << 20
)

// Server exposes the dossier, topic search and roster import endpoints.
type Server struct {
	resolver *resolve.Resolver
	importer *importer.Importer
	logger   *zerolog.Logger
	port     int
}

func NewServer(resolver *resolve.Resolver, im *importer.Importer, logger *zerolog.Logger, port int) *Server {
	return &Server{resolver: resolver, importer: im, logger: logger, port: port}
}

// Handler builds the route table. Exposed separately so tests can drive it
// through httptest without binding a port.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/reporter/{name}", s.handleReporter)
	mux.HandleFunc("GET /api/topic/{topic}", s.handleTopic)
	mux.HandleFunc("POST /api/import/csv/analyze", s.handleImportAnalyze)
	mux.HandleFunc("POST /api/import/csv/confirm", s.handleImportConfirm)

	return mux
}

// Run serves until the context is cancelled, then drains.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)

	go func() {
		s.logger.Info().Int("port", s.port).Msg("api server listening")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("api server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api server shutdown: %w", err)
	}

	return nil
}

func (s *Server) handleReporter(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("name")
	refresh := isTruthy(r.URL.Query().Get("refresh"))

	d, err := s.resolver.Resolve(r.Context(), name, refresh)
	if err != nil {
		if errors.Is(err, resolve.ErrInvalidInput) {
			s.writeError(w, http.StatusBadRequest, "reporter name must be at least 2 characters")

			return
		}

		s.logger.Error().Err(err).Str("reporter", name).Msg("resolution failed")
		s.writeError(w, http.StatusInternalServerError, "resolution failed")

		return
	}

	s.writeJSON(w, http.StatusOK, d)
}

type topicResponse struct {
	Topic     string `json:"topic"`
	Reporters any    `json:"reporters"`
	Throttled bool   `json:"throttled,omitempty"`
}

func (s *Server) handleTopic(w http.ResponseWriter, r *http.Request) {
	topic := r.PathValue("topic")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "limit must be an integer")

			return
		}

		limit = n
	}

	hits, throttled, err := s.resolver.SearchTopic(r.Context(), topic, limit)
	if err != nil {
		if errors.Is(err, resolve.ErrInvalidInput) {
			s.writeError(w, http.StatusBadRequest, "topic must be at least 2 characters")

			return
		}

		s.logger.Error().Err(err).Str("topic", topic).Msg("topic search failed")
		s.writeError(w, http.StatusInternalServerError, "topic search failed")

		return
	}

	s.writeJSON(w, http.StatusOK, topicResponse{Topic: topic, Reporters: hits, Throttled: throttled})
}

func (s *Server) handleImportAnalyze(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBody)

	file, _, err := r.FormFile("file")
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "multipart upload with a 'file' part is required")

		return
	}
	defer file.Close()

	analysis, err := s.importer.Analyze(r.Context(), file)
	if err != nil {
		switch {
		case errors.Is(err, importer.ErrEmptyCSV),
			errors.Is(err, importer.ErrTooLarge),
			errors.Is(err, importer.ErrTooManyRows):
			s.writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error().Err(err).Msg("csv analysis failed")
			s.writeError(w, http.StatusInternalServerError, "csv analysis failed")
		}

		return
	}

	s.writeJSON(w, http.StatusOK, analysis)
}

type confirmRequest struct {
	SessionID string              `json:"session_id"`
	Mapping   intel.ColumnMapping `json:"mapping"`
}

func (s *Server) handleImportConfirm(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest

	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxImportBody)).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid json body")

		return
	}

	res, err := s.importer.Confirm(r.Context(), req.SessionID, req.Mapping)
	if err != nil {
		switch {
		case errors.Is(err, importer.ErrNoSession):
			s.writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, importer.ErrNoNameField):
			s.writeError(w, http.StatusBadRequest, err.Error())
		default:
			s.logger.Error().Err(err).Msg("csv import failed")
			s.writeError(w, http.StatusInternalServerError, "csv import failed")
		}

		return
	}

	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("response encode failed")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func isTruthy(v string) bool {
	return v == "1" || v == "true" || v == "yes"
}
