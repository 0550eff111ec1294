package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	claimservice "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service"
	claimerrors "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/domain/errors"
	claimhttp "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/claim-service/transport/http"
	commitmentservice "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/commitment-service"
	commitmenterrors "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/commitment-service/domain/errors"
	commitmenthttp "github.com/Karaton-Surakarta/masa-token-lock/contexts/token-distribution/commitment-service/transport/http"

	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/Karaton-Surakarta/masa-token-lock/internal/platform/httpserver/docs"
)

type Server struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	addr       string
	claims     claimservice.Module
	commitment commitmentservice.Module
}

func New(
	claims claimservice.Module,
	commitment commitmentservice.Module,
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
		claims:     claims,
		commitment: commitment,
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

// Handler exposes the routed mux, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/distributor/claims", s.handleClaim)
	s.mux.HandleFunc("POST /v1/distributor/eligibility", s.handleCheckEligibility)
	s.mux.HandleFunc("GET /v1/distributor", s.handleGetDistributor)
	s.mux.HandleFunc("GET /v1/distributor/claims/{address}", s.handleGetClaimCount)

	s.mux.HandleFunc("PUT /v1/distributor/threshold", s.handleUpdateThreshold)
	s.mux.HandleFunc("PUT /v1/distributor/root", s.handleUpdateRoot)
	s.mux.HandleFunc("POST /v1/distributor/withdrawals", s.handleWithdraw)

	s.mux.HandleFunc("POST /v1/commitments", s.handleBuildCommitment)
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	caller, ok := resolveCaller(w, r)
	if !ok {
		return
	}

	var req claimhttp.ClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeClaimError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.claims.Handler.ClaimHandler(r.Context(), caller, req)
	if err != nil {
		writeClaimDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCheckEligibility(w http.ResponseWriter, r *http.Request) {
	var req claimhttp.EligibilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeClaimError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.claims.Handler.CheckEligibilityHandler(r.Context(), req)
	if err != nil {
		writeClaimDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetDistributor(w http.ResponseWriter, r *http.Request) {
	resp, err := s.claims.Handler.GetDistributorHandler(r.Context())
	if err != nil {
		writeClaimDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetClaimCount(w http.ResponseWriter, r *http.Request) {
	address := r.PathValue("address")
	resp, err := s.claims.Handler.GetClaimCountHandler(r.Context(), address)
	if err != nil {
		writeClaimDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateThreshold(w http.ResponseWriter, r *http.Request) {
	caller, ok := resolveCaller(w, r)
	if !ok {
		return
	}

	var req claimhttp.UpdateThresholdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeClaimError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	if err := s.claims.Handler.UpdateThresholdHandler(r.Context(), caller, req); err != nil {
		writeClaimDomainError(w, err)
		return
	}
	resp, err := s.claims.Handler.GetDistributorHandler(r.Context())
	if err != nil {
		writeClaimDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleUpdateRoot(w http.ResponseWriter, r *http.Request) {
	caller, ok := resolveCaller(w, r)
	if !ok {
		return
	}

	var req claimhttp.UpdateRootRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeClaimError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	if err := s.claims.Handler.UpdateRootHandler(r.Context(), caller, req); err != nil {
		writeClaimDomainError(w, err)
		return
	}
	resp, err := s.claims.Handler.GetDistributorHandler(r.Context())
	if err != nil {
		writeClaimDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	caller, ok := resolveCaller(w, r)
	if !ok {
		return
	}

	var req claimhttp.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeClaimError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.claims.Handler.WithdrawHandler(r.Context(), caller, req)
	if err != nil {
		writeClaimDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleBuildCommitment(w http.ResponseWriter, r *http.Request) {
	var req commitmenthttp.BuildCommitmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeCommitmentError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.commitment.Handler.BuildCommitmentHandler(r.Context(), req)
	if err != nil {
		writeCommitmentDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeClaimDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, claimerrors.ErrInvalidClaimInput):
		writeClaimError(w, http.StatusBadRequest, "invalid_claim_input", err.Error())
	case errors.Is(err, claimerrors.ErrZeroAmount):
		writeClaimError(w, http.StatusBadRequest, "zero_amount", err.Error())
	case errors.Is(err, claimerrors.ErrInvalidProof):
		writeClaimError(w, http.StatusUnprocessableEntity, "invalid_proof", err.Error())
	case errors.Is(err, claimerrors.ErrThresholdExceeded):
		writeClaimError(w, http.StatusConflict, "threshold_exceeded", err.Error())
	case errors.Is(err, claimerrors.ErrReentrantCall):
		writeClaimError(w, http.StatusConflict, "reentrant_call", err.Error())
	case errors.Is(err, claimerrors.ErrNotAdministrator):
		writeClaimError(w, http.StatusForbidden, "not_administrator", err.Error())
	case errors.Is(err, claimerrors.ErrNothingToWithdraw):
		writeClaimError(w, http.StatusConflict, "nothing_to_withdraw", err.Error())
	case errors.Is(err, claimerrors.ErrInsufficientVaultBalance):
		writeClaimError(w, http.StatusConflict, "insufficient_vault_balance", err.Error())
	case errors.Is(err, claimerrors.ErrZeroTokenAddress),
		errors.Is(err, claimerrors.ErrZeroAdministrator):
		writeClaimError(w, http.StatusBadRequest, "invalid_address", err.Error())
	default:
		writeClaimError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeCommitmentDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, commitmenterrors.ErrNoRecipients),
		errors.Is(err, commitmenterrors.ErrDuplicateRecipient),
		errors.Is(err, commitmenterrors.ErrZeroAllocation),
		errors.Is(err, commitmenterrors.ErrAllocationTooLarge),
		errors.Is(err, commitmenterrors.ErrInvalidRecipient):
		writeCommitmentError(w, http.StatusBadRequest, "invalid_allocations", err.Error())
	default:
		writeCommitmentError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeClaimError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, claimhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeCommitmentError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, commitmenthttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func resolveCaller(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller := strings.TrimSpace(r.Header.Get("X-Caller-Address"))
	if caller == "" {
		writeClaimError(w, http.StatusUnauthorized, "missing_caller", "X-Caller-Address header is required")
		return "", false
	}
	return caller, true
}
