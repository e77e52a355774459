package api

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"pmatch/internal/cases"
	"pmatch/internal/metrics"
	"pmatch/pkg/errors"
	"pmatch/pkg/matcher"
)

type MatchRequest struct {
	Args []any `json:"args"`
}

type ExtractRequest struct {
	Pattern string `json:"pattern"`
	Args    []any  `json:"args"`
}

type ExtractResponse struct {
	Captures []any `json:"captures"`
}

type ErrorResponse struct {
	Code  errors.ErrorCode `json:"code"`
	Error string           `json:"error"`
}

type Server struct {
	srv           *http.Server
	env           *matcher.Env
	dispatcher    *matcher.AtomicDispatcher
	metrics       *metrics.Metrics
	updateChannel chan<- *cases.File
}

func NewServer(addr string, env *matcher.Env, d *matcher.AtomicDispatcher, m *metrics.Metrics, updateChannel chan<- *cases.File) *Server {
	s := &Server{
		env:           env,
		dispatcher:    d,
		metrics:       m,
		updateChannel: updateChannel,
	}
	s.srv = &http.Server{Addr: addr, Handler: s.Handler()}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/match", s.handleMatch)
	mux.HandleFunc("POST /api/extract", s.handleExtract)
	mux.HandleFunc("POST /api/cases", s.handleCasesUpdate)
	mux.HandleFunc("GET /api/stats", s.handleStats)
	return mux
}

// Start serves until Shutdown is called, which makes it return nil.
func (s *Server) Start() error {
	log.Info().Msgf("API server starting on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleMatch(w http.ResponseWriter, r *http.Request) {
	var req MatchRequest
	if !s.decode(w, r, &req) {
		return
	}

	d := s.dispatcher.Load()
	if d == nil {
		s.fail(w, http.StatusServiceUnavailable, errors.New(errors.ErrNotFound, "no case set loaded"))
		return
	}

	res, err := d.Match(req.Args...)
	switch {
	case err == nil:
		s.reply(w, http.StatusOK, res)
	case errors.IsErrorCode(err, errors.ErrPatternsExhausted):
		s.fail(w, http.StatusUnprocessableEntity, err)
	default:
		s.metrics.ErrorsTotal.WithLabelValues(metrics.ErrorTypeDispatch, "http").Inc()
		s.fail(w, http.StatusInternalServerError, err)
	}
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if !s.decode(w, r, &req) {
		return
	}

	caps, err := s.env.Extract(req.Pattern, req.Args...)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.IsErrorCode(err, errors.ErrSyntax) {
			status = http.StatusBadRequest
		}
		s.fail(w, status, err)
		return
	}
	s.reply(w, http.StatusOK, ExtractResponse{Captures: caps})
}

func (s *Server) handleCasesUpdate(w http.ResponseWriter, r *http.Request) {
	var f cases.File
	if !s.decode(w, r, &f) {
		return
	}

	// Compile before queueing so a bad pattern is reported to the caller.
	if _, err := f.Build(s.env); err != nil {
		s.fail(w, http.StatusBadRequest, err)
		return
	}

	log.Debug().Int("cases", len(f.Cases)).Msg("received case set update")
	s.updateChannel <- &f

	s.reply(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Case set updated successfully",
		"count":   len(f.Cases),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, _ *http.Request) {
	s.reply(w, http.StatusOK, s.env.Cache().Stats())
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.metrics.ErrorsTotal.WithLabelValues(metrics.ErrorTypeDecode, "http").Inc()
		s.fail(w, http.StatusBadRequest, errors.Wrap(err, errors.ErrInvalidInput, "invalid JSON"))
		return false
	}
	return true
}

func (s *Server) fail(w http.ResponseWriter, status int, err error) {
	s.reply(w, status, ErrorResponse{Code: errors.GetErrorCode(err), Error: err.Error()})
}

func (s *Server) reply(w http.ResponseWriter, status int, v any) {
	s.metrics.RequestsTotal.WithLabelValues("http", fmt.Sprint(status)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.metrics.ErrorsTotal.WithLabelValues(metrics.ErrorTypeClientWrite, "http").Inc()
		log.Err(err).Msg("failed to write response")
	}
}
