package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	proposalengine "agora/contexts/governance-core/proposal-engine"
	proposalerrors "agora/contexts/governance-core/proposal-engine/domain/errors"
	proposalhttp "agora/contexts/governance-core/proposal-engine/transport/http"
	tokensale "agora/contexts/governance-core/token-sale"
	saleerrors "agora/contexts/governance-core/token-sale/domain/errors"
	salehttp "agora/contexts/governance-core/token-sale/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"
	_ "agora/internal/platform/httpserver/docs"
)

type Server struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	addr       string
	governance proposalengine.Module
	sale       tokensale.Module
}

func New(
	governance proposalengine.Module,
	sale tokensale.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		addr:       addr,
		governance: governance,
		sale:       sale,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the mux for in-process tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /api/governance/v1/proposals", s.handleCreateProposal)
	s.mux.HandleFunc("GET /api/governance/v1/proposals", s.handleListProposals)
	s.mux.HandleFunc("GET /api/governance/v1/proposals/{proposal_id}", s.handleGetProposal)
	s.mux.HandleFunc("POST /api/governance/v1/proposals/{proposal_id}/cancel", s.handleCancelProposal)
	s.mux.HandleFunc("POST /api/governance/v1/proposals/{proposal_id}/votes", s.handleCastVote)
	s.mux.HandleFunc("POST /api/governance/v1/proposals/{proposal_id}/execute", s.handleExecuteProposal)
	s.mux.HandleFunc("GET /api/governance/v1/proposals/{proposal_id}/state", s.handleGetState)
	s.mux.HandleFunc("GET /api/governance/v1/proposals/{proposal_id}/votes/{account}", s.handleGetUserVote)
	s.mux.HandleFunc("GET /api/governance/v1/proposals/{proposal_id}/quorum", s.handleGetQuorum)
	s.mux.HandleFunc("GET /api/governance/v1/proposals/{proposal_id}/totals", s.handleGetTotals)
	s.mux.HandleFunc("GET /api/governance/v1/proposals/{proposal_id}/active", s.handleIsVotingActive)
	s.mux.HandleFunc("GET /api/governance/v1/quorum-required", s.handleGetQuorumRequired)
	s.mux.HandleFunc("GET /api/governance/v1/params", s.handleGetParams)
	s.mux.HandleFunc("POST /api/governance/v1/params/voting-period", s.handleUpdateVotingPeriod)
	s.mux.HandleFunc("POST /api/governance/v1/params/proposal-threshold", s.handleUpdateThreshold)
	s.mux.HandleFunc("POST /api/governance/v1/params/quorum", s.handleUpdateQuorum)
	s.mux.HandleFunc("POST /api/governance/v1/pause", s.handlePause)
	s.mux.HandleFunc("POST /api/governance/v1/unpause", s.handleUnpause)

	s.mux.HandleFunc("POST /api/sale/v1/purchase", s.handlePurchase)
	s.mux.HandleFunc("POST /api/sale/v1/withdraw", s.handleWithdraw)
	s.mux.HandleFunc("GET /api/sale/v1/accounts/{account}/power", s.handlePowerBalance)
}

func (s *Server) handleCreateProposal(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req proposalhttp.CreateProposalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.governance.Handler.CreateProposalHandler(r.Context(), caller, req)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListProposals(w http.ResponseWriter, r *http.Request) {
	resp, err := s.governance.Handler.ListProposalsHandler(r.Context())
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	proposalID, ok := parseProposalID(w, r)
	if !ok {
		return
	}
	resp, err := s.governance.Handler.GetProposalHandler(r.Context(), proposalID)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCancelProposal(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	proposalID, ok := parseProposalID(w, r)
	if !ok {
		return
	}
	if err := s.governance.Handler.CancelProposalHandler(r.Context(), proposalID, caller); err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"proposal_id": proposalID, "canceled": true})
}

func (s *Server) handleCastVote(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	proposalID, ok := parseProposalID(w, r)
	if !ok {
		return
	}
	var req proposalhttp.CastVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.governance.Handler.CastVoteHandler(r.Context(), proposalID, caller, req)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleExecuteProposal(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	proposalID, ok := parseProposalID(w, r)
	if !ok {
		return
	}
	if err := s.governance.Handler.ExecuteProposalHandler(r.Context(), proposalID, caller); err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"proposal_id": proposalID, "executed": true})
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	proposalID, ok := parseProposalID(w, r)
	if !ok {
		return
	}
	resp, err := s.governance.Handler.GetStateHandler(r.Context(), proposalID)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetUserVote(w http.ResponseWriter, r *http.Request) {
	proposalID, ok := parseProposalID(w, r)
	if !ok {
		return
	}
	account := r.PathValue("account")
	resp, err := s.governance.Handler.GetUserVoteHandler(r.Context(), proposalID, account)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetQuorum(w http.ResponseWriter, r *http.Request) {
	proposalID, ok := parseProposalID(w, r)
	if !ok {
		return
	}
	resp, err := s.governance.Handler.GetQuorumHandler(r.Context(), proposalID)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetQuorumRequired(w http.ResponseWriter, r *http.Request) {
	resp, err := s.governance.Handler.GetQuorumRequiredHandler(r.Context())
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetTotals(w http.ResponseWriter, r *http.Request) {
	proposalID, ok := parseProposalID(w, r)
	if !ok {
		return
	}
	resp, err := s.governance.Handler.GetTotalsHandler(r.Context(), proposalID)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIsVotingActive(w http.ResponseWriter, r *http.Request) {
	proposalID, ok := parseProposalID(w, r)
	if !ok {
		return
	}
	resp, err := s.governance.Handler.IsVotingActiveHandler(r.Context(), proposalID)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetParams(w http.ResponseWriter, r *http.Request) {
	resp, err := s.governance.Handler.GetParamsHandler(r.Context())
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateVotingPeriod(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req proposalhttp.UpdateVotingPeriodRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.governance.Handler.UpdateVotingPeriodHandler(r.Context(), caller, req); err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": true})
}

func (s *Server) handleUpdateThreshold(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req proposalhttp.UpdateThresholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.governance.Handler.UpdateThresholdHandler(r.Context(), caller, req); err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": true})
}

func (s *Server) handleUpdateQuorum(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req proposalhttp.UpdateQuorumRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.governance.Handler.UpdateQuorumHandler(r.Context(), caller, req); err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"updated": true})
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	resp, err := s.governance.Handler.PauseHandler(r.Context(), caller)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUnpause(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	resp, err := s.governance.Handler.ResumeHandler(r.Context(), caller)
	if err != nil {
		writeGovernanceDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handlePurchase(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req salehttp.PurchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSaleError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	resp, err := s.sale.Handler.PurchaseHandler(r.Context(), caller, req)
	if err != nil {
		writeSaleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req salehttp.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeSaleError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}
	if err := s.sale.Handler.WithdrawHandler(r.Context(), caller, req); err != nil {
		writeSaleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"withdrawn": true})
}

func (s *Server) handlePowerBalance(w http.ResponseWriter, r *http.Request) {
	account := r.PathValue("account")
	resp, err := s.sale.Handler.PowerBalanceHandler(r.Context(), account)
	if err != nil {
		writeSaleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func requireCaller(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller := strings.TrimSpace(r.Header.Get("X-User-Id"))
	if caller == "" {
		writeGovernanceError(w, http.StatusUnauthorized, "missing_account", "X-User-Id header is required")
		return "", false
	}
	return caller, true
}

func parseProposalID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	raw := r.PathValue("proposal_id")
	proposalID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || proposalID == 0 {
		writeGovernanceError(w, http.StatusBadRequest, "invalid_proposal_id", "proposal_id must be a positive integer")
		return 0, false
	}
	return proposalID, true
}

func writeGovernanceDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, proposalerrors.ErrProposalNotFound):
		writeGovernanceError(w, http.StatusNotFound, "proposal_not_found", err.Error())
	case errors.Is(err, proposalerrors.ErrInvalidProposalInput),
		errors.Is(err, proposalerrors.ErrInvalidVoteInput):
		writeGovernanceError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, proposalerrors.ErrInvalidStartTime):
		writeGovernanceError(w, http.StatusUnprocessableEntity, "invalid_start_time", err.Error())
	case errors.Is(err, proposalerrors.ErrInvalidParameter):
		writeGovernanceError(w, http.StatusUnprocessableEntity, "invalid_parameter", err.Error())
	case errors.Is(err, proposalerrors.ErrNotAuthorized):
		writeGovernanceError(w, http.StatusForbidden, "not_authorized", err.Error())
	case errors.Is(err, proposalerrors.ErrInsufficientPower):
		writeGovernanceError(w, http.StatusForbidden, "insufficient_power", err.Error())
	case errors.Is(err, proposalerrors.ErrNoVotingPower):
		writeGovernanceError(w, http.StatusForbidden, "no_voting_power", err.Error())
	case errors.Is(err, proposalerrors.ErrAlreadyVoted):
		writeGovernanceError(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, proposalerrors.ErrAlreadyCanceled),
		errors.Is(err, proposalerrors.ErrAlreadyExecuted),
		errors.Is(err, proposalerrors.ErrProposalCanceled),
		errors.Is(err, proposalerrors.ErrProposalExecuted),
		errors.Is(err, proposalerrors.ErrVotingAlreadyStarted),
		errors.Is(err, proposalerrors.ErrVotingNotStarted),
		errors.Is(err, proposalerrors.ErrVotingEnded),
		errors.Is(err, proposalerrors.ErrProposalNotSucceeded):
		writeGovernanceError(w, http.StatusConflict, "state_conflict", err.Error())
	case errors.Is(err, proposalerrors.ErrSystemPaused):
		writeGovernanceError(w, http.StatusServiceUnavailable, "system_paused", err.Error())
	default:
		writeGovernanceError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeSaleDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, saleerrors.ErrInvalidAccount),
		errors.Is(err, saleerrors.ErrZeroAmount):
		writeSaleError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, saleerrors.ErrInsufficientBalance):
		writeSaleError(w, http.StatusConflict, "insufficient_balance", err.Error())
	case errors.Is(err, saleerrors.ErrNotAuthorized):
		writeSaleError(w, http.StatusForbidden, "not_authorized", err.Error())
	case errors.Is(err, saleerrors.ErrSystemPaused):
		writeSaleError(w, http.StatusServiceUnavailable, "system_paused", err.Error())
	default:
		writeSaleError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeGovernanceError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, proposalhttp.ErrorResponse{Code: code, Message: message})
}

func writeSaleError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, salehttp.ErrorResponse{Code: code, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
