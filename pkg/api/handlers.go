package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/Mindburn-Labs/warden/pkg/auth"
	"github.com/Mindburn-Labs/warden/pkg/consensus"
	"github.com/Mindburn-Labs/warden/pkg/contracts"
	"github.com/Mindburn-Labs/warden/pkg/emergency"
	"github.com/Mindburn-Labs/warden/pkg/limiter"
	"github.com/Mindburn-Labs/warden/pkg/registry"
	"github.com/Mindburn-Labs/warden/pkg/router"
)

// Service exposes the watchdog engines over HTTP.
type Service struct {
	registry  *registry.Registry
	consensus *consensus.Engine
	emergency *emergency.Monitor
	router    *router.Router
	logger    *slog.Logger
}

func NewService(reg *registry.Registry, eng *consensus.Engine, mon *emergency.Monitor, rt *router.Router) *Service {
	return &Service{
		registry:  reg,
		consensus: eng,
		emergency: mon,
		router:    rt,
		logger:    slog.Default().With("component", "api"),
	}
}

// Routes registers all endpoints on a fresh mux.
func (s *Service) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/consensus/parameters", s.handleGetParameters)
	mux.HandleFunc("PUT /v1/consensus/parameters", s.handleUpdateParameters)
	mux.HandleFunc("GET /v1/watchdogs", s.handleListWatchdogs)
	mux.HandleFunc("POST /v1/watchdogs", s.handleRegisterWatchdog)
	mux.HandleFunc("DELETE /v1/watchdogs/{id}", s.handleDeactivateWatchdog)
	mux.HandleFunc("GET /v1/proposals/{id}", s.handleGetProposal)
	mux.HandleFunc("GET /v1/emergency/{subject}", s.handleEmergencyState)
	mux.HandleFunc("POST /v1/emergency/{subject}/clear", s.handleClearEmergency)
	mux.HandleFunc("POST /v1/requests", s.handleRequest)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	return mux
}

// Handler assembles the public surface: the service routes behind
// bearer auth and rate limiting, with /healthz mounted outside both so
// liveness probes need no token and burn no allowance. Outer middleware
// (request IDs, access logging, telemetry) wraps everything.
func (s *Service) Handler(verifier TokenVerifier, l limiter.Limiter, outer ...func(http.Handler) http.Handler) http.Handler {
	root := http.NewServeMux()
	root.HandleFunc("GET /healthz", s.handleHealth)
	root.Handle("/", Chain(s.Routes(), BearerAuth(verifier), RateLimit(l)))
	return Chain(root, outer...)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type parametersResponse struct {
	RequiredVotes  int    `json:"required_votes"`
	TotalWatchdogs int    `json:"total_watchdogs"`
	VotingPeriod   string `json:"voting_period"`
}

func (s *Service) handleGetParameters(w http.ResponseWriter, r *http.Request) {
	p := s.consensus.Parameters()
	writeJSON(w, http.StatusOK, parametersResponse{
		RequiredVotes:  p.RequiredVotes,
		TotalWatchdogs: p.TotalWatchdogs,
		VotingPeriod:   p.VotingPeriod.String(),
	})
}

type updateParametersRequest struct {
	RequiredVotes  int    `json:"required_votes"`
	TotalWatchdogs int    `json:"total_watchdogs"`
	VotingPeriod   string `json:"voting_period"`
}

func (s *Service) handleUpdateParameters(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.GetPrincipal(r.Context())
	if !ok {
		WriteUnauthorized(w, "")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req updateParametersRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}

	period, err := time.ParseDuration(req.VotingPeriod)
	if err != nil {
		WriteBadRequest(w, "voting_period must be a duration like \"2h\"")
		return
	}

	params := contracts.ConsensusParameters{
		RequiredVotes:  req.RequiredVotes,
		TotalWatchdogs: req.TotalWatchdogs,
		VotingPeriod:   period,
	}
	if err := s.consensus.UpdateParameters(r.Context(), params, caller); err != nil {
		WriteDomainError(w, err)
		return
	}
	s.handleGetParameters(w, r)
}

func (s *Service) handleListWatchdogs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"watchdogs":    s.registry.Snapshot(),
		"active_count": s.registry.ActiveCount(),
	})
}

type registerWatchdogRequest struct {
	ID string `json:"id"`
}

func (s *Service) handleRegisterWatchdog(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.GetPrincipal(r.Context())
	if !ok {
		WriteUnauthorized(w, "")
		return
	}
	if !caller.HasRole(auth.RoleGovernance) {
		WriteForbidden(w, "governance role required")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req registerWatchdogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	if req.ID == "" {
		WriteBadRequest(w, "Missing required field: id")
		return
	}

	if err := s.registry.Register(req.ID); err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": req.ID})
}

func (s *Service) handleDeactivateWatchdog(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.GetPrincipal(r.Context())
	if !ok {
		WriteUnauthorized(w, "")
		return
	}
	if !caller.HasRole(auth.RoleGovernance) {
		WriteForbidden(w, "governance role required")
		return
	}

	if err := s.registry.Deactivate(r.PathValue("id")); err != nil {
		WriteDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleGetProposal(w http.ResponseWriter, r *http.Request) {
	state, err := s.consensus.GetProposal(r.PathValue("id"))
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Service) handleEmergencyState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.emergency.State(r.PathValue("subject")))
}

func (s *Service) handleClearEmergency(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.GetPrincipal(r.Context())
	if !ok {
		WriteUnauthorized(w, "")
		return
	}

	subject := r.PathValue("subject")
	if err := s.emergency.ClearEmergency(r.Context(), subject, caller); err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, s.emergency.State(subject))
}

// handleRequest is the single ingress for watchdog traffic. The actor is
// always the authenticated principal, never a field the client controls.
func (s *Service) handleRequest(w http.ResponseWriter, r *http.Request) {
	caller, ok := auth.GetPrincipal(r.Context())
	if !ok {
		WriteUnauthorized(w, "")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req router.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteBadRequest(w, "Invalid request body")
		return
	}
	req.Actor = caller.ID()

	result, err := s.router.Route(r.Context(), req)
	if err != nil {
		WriteDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
