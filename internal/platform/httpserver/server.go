package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	votingledger "ballotbox/contexts/governance/voting-ledger"
	ledgererrors "ballotbox/contexts/governance/voting-ledger/domain/errors"
	ledgerhttp "ballotbox/contexts/governance/voting-ledger/transport/http"
	_ "ballotbox/internal/platform/httpserver/docs"

	httpSwagger "github.com/swaggo/http-swagger"
)

// CallerHeader carries the account address a mutating request acts as.
const CallerHeader = "X-Caller-Address"

type Server struct {
	mux     *http.ServeMux
	handler http.Handler
	logger  *slog.Logger
	addr    string
	ledger  votingledger.Module
}

// New wires the ledger routes. rateLimit is a limiter formatted rate such as
// "600-M"; "off" or "" disables limiting.
func New(
	ledger votingledger.Module,
	logger *slog.Logger,
	addr string,
	rateLimit string,
) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:    http.NewServeMux(),
		logger: logger,
		addr:   addr,
		ledger: ledger,
	}
	s.registerRoutes()

	limited, err := newRateLimit(rateLimit, logger)
	if err != nil {
		return nil, err
	}
	s.handler = limited.Middleware(s.mux)
	return s, nil
}

func (s *Server) Handler() http.Handler {
	return s.handler
}

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	s.logger.Info("http server stopping",
		"event", "http_server_stopping",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /v1/ledgers", s.handleDeployLedger)
	s.mux.HandleFunc("GET /v1/ledgers/{address}", s.handleGetLedger)
	s.mux.HandleFunc("GET /v1/ledgers/{address}/owner", s.handleGetOwner)
	s.mux.HandleFunc("GET /v1/ledgers/{address}/candidates", s.handleListCandidates)
	s.mux.HandleFunc("POST /v1/ledgers/{address}/candidates", s.handleAddCandidate)
	s.mux.HandleFunc("GET /v1/ledgers/{address}/candidates/{id}", s.handleGetCandidate)
	s.mux.HandleFunc("GET /v1/ledgers/{address}/candidates/{id}/data", s.handleGetCandidateData)
	s.mux.HandleFunc("GET /v1/ledgers/{address}/candidates-count", s.handleCandidatesCount)
	s.mux.HandleFunc("GET /v1/ledgers/{address}/session", s.handleCurrentSession)
	s.mux.HandleFunc("GET /v1/ledgers/{address}/sessions/{session}/candidates/{id}/votes", s.handleVoteCount)
	s.mux.HandleFunc("POST /v1/ledgers/{address}/votes", s.handleVote)
	s.mux.HandleFunc("POST /v1/ledgers/{address}/reset", s.handleResetVotes)
	s.mux.HandleFunc("GET /v1/ledgers/{address}/events", s.handleListEvents)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDeployLedger(w http.ResponseWriter, r *http.Request) {
	var req ledgerhttp.DeployLedgerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ledger.Handler.DeployLedgerHandler(r.Context(), req)
	if err != nil {
		s.writeLedgerDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetLedger(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.LedgerHandler(r.Context(), r.PathValue("address"))
	if err != nil {
		s.writeLedgerDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetOwner(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.OwnerHandler(r.Context(), r.PathValue("address"))
	if err != nil {
		s.writeLedgerDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListCandidates(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.CandidatesHandler(r.Context(), r.PathValue("address"))
	if err != nil {
		s.writeLedgerDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleAddCandidate(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.AddCandidateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ledger.Handler.AddCandidateHandler(r.Context(), r.PathValue("address"), caller, req)
	if err != nil {
		s.writeLedgerDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := pathUint(w, r, "id")
	if !ok {
		return
	}
	resp, err := s.ledger.Handler.CandidateHandler(r.Context(), r.PathValue("address"), candidateID)
	if err != nil {
		s.writeLedgerDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetCandidateData(w http.ResponseWriter, r *http.Request) {
	candidateID, ok := pathUint(w, r, "id")
	if !ok {
		return
	}
	resp, err := s.ledger.Handler.CandidateDataHandler(r.Context(), r.PathValue("address"), candidateID)
	if err != nil {
		s.writeLedgerDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCandidatesCount(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.CandidatesCountHandler(r.Context(), r.PathValue("address"))
	if err != nil {
		s.writeLedgerDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCurrentSession(w http.ResponseWriter, r *http.Request) {
	resp, err := s.ledger.Handler.SessionHandler(r.Context(), r.PathValue("address"))
	if err != nil {
		s.writeLedgerDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVoteCount(w http.ResponseWriter, r *http.Request) {
	session, ok := pathUint(w, r, "session")
	if !ok {
		return
	}
	candidateID, ok := pathUint(w, r, "id")
	if !ok {
		return
	}
	resp, err := s.ledger.Handler.VoteCountHandler(r.Context(), r.PathValue("address"), session, candidateID)
	if err != nil {
		s.writeLedgerDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req ledgerhttp.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.ledger.Handler.VoteHandler(r.Context(), r.PathValue("address"), caller, req)
	if err != nil {
		s.writeLedgerDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleResetVotes(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	resp, err := s.ledger.Handler.ResetVotesHandler(r.Context(), r.PathValue("address"), caller)
	if err != nil {
		s.writeLedgerDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListEvents(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	var after uint64
	if raw := query.Get("after"); raw != "" {
		value, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeLedgerError(w, http.StatusBadRequest, "invalid_request", "after must be an unsigned integer")
			return
		}
		after = value
	}
	var limit int
	if raw := query.Get("limit"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value < 0 {
			writeLedgerError(w, http.StatusBadRequest, "invalid_request", "limit must be a non-negative integer")
			return
		}
		limit = value
	}
	resp, err := s.ledger.Handler.EventsHandler(r.Context(), r.PathValue("address"), after, limit)
	if err != nil {
		s.writeLedgerDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) writeLedgerDomainError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ledgererrors.ErrUnauthorized):
		writeLedgerError(w, http.StatusForbidden, "unauthorized", err.Error())
	case errors.Is(err, ledgererrors.ErrInvalidCandidate):
		writeLedgerError(w, http.StatusBadRequest, "invalid_candidate", err.Error())
	case errors.Is(err, ledgererrors.ErrInvalidAddress):
		writeLedgerError(w, http.StatusBadRequest, "invalid_address", err.Error())
	case errors.Is(err, ledgererrors.ErrInvalidLedgerInput):
		writeLedgerError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, ledgererrors.ErrLedgerNotFound):
		writeLedgerError(w, http.StatusNotFound, "ledger_not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrCandidateNotFound):
		writeLedgerError(w, http.StatusNotFound, "candidate_not_found", err.Error())
	case errors.Is(err, ledgererrors.ErrLedgerExists),
		errors.Is(err, ledgererrors.ErrConflict):
		writeLedgerError(w, http.StatusConflict, "conflict", err.Error())
	default:
		s.logger.Error("ledger request failed",
			"event", "http_ledger_request_failed",
			"module", "internal/platform/httpserver",
			"layer", "platform",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err.Error(),
		)
		writeLedgerError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func requireCaller(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller := strings.TrimSpace(r.Header.Get(CallerHeader))
	if caller == "" {
		writeLedgerError(w, http.StatusUnauthorized, "missing_caller", CallerHeader+" header is required")
		return "", false
	}
	return caller, true
}

func pathUint(w http.ResponseWriter, r *http.Request, name string) (uint64, bool) {
	value, err := strconv.ParseUint(r.PathValue(name), 10, 64)
	if err != nil {
		writeLedgerError(w, http.StatusBadRequest, "invalid_request", name+" must be an unsigned integer")
		return 0, false
	}
	return value, true
}

func writeLedgerError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, ledgerhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
