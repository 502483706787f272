package httpadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PabloGalante/huddle/internal/app/history"
	"github.com/PabloGalante/huddle/internal/app/thread"
	"github.com/PabloGalante/huddle/internal/domain"
	"github.com/PabloGalante/huddle/internal/observability"
)

type Server struct {
	threads *thread.Service
	history *history.Service
}

func NewServer(threads *thread.Service, hist *history.Service) http.Handler {
	s := &Server{threads: threads, history: hist}
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// /threads → create (POST), list (GET)
	mux.HandleFunc("/threads", s.handleThreads)

	// /threads/{id}          → GET
	// /threads/{id}/plan     → POST (owner only)
	// /threads/{id}/approve  → POST
	// /threads/{id}/cancel   → POST
	// /threads/{id}/history  → GET
	mux.HandleFunc("/threads/", s.handleThreadWithID)

	// /executions → degraded execution of a client-held proposal (POST)
	mux.HandleFunc("/executions", s.handleExecutions)

	return chainMiddlewares(mux, withLogging, withRequestID, withCORS)
}

// ─────────────────────────────────────────────
// DTOs (request/response)
// ─────────────────────────────────────────────

type participantDTO struct {
	UserID      string `json:"user_id"`
	Email       string `json:"email,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
}

type createThreadRequest struct {
	UserID       string           `json:"user_id"`
	Kind         string           `json:"kind"`
	Prompt       string           `json:"prompt"`
	Participants []participantDTO `json:"participants"`
}

type userRequest struct {
	UserID string `json:"user_id"`
}

type scheduleDTO struct {
	Start          string   `json:"start"`
	End            string   `json:"end"`
	Title          string   `json:"title"`
	ParticipantIDs []string `json:"participant_ids"`
}

type emailDTO struct {
	Recipients  []string `json:"recipients"`
	Subject     string   `json:"subject"`
	BodySnippet string   `json:"body_snippet"`
}

type proposalDTO struct {
	Summary  string       `json:"summary"`
	Schedule *scheduleDTO `json:"schedule,omitempty"`
	Email    *emailDTO    `json:"email,omitempty"`
}

type threadResponse struct {
	ID           string           `json:"id"`
	OwnerID      string           `json:"owner_id"`
	Kind         string           `json:"kind"`
	Status       string           `json:"status"`
	Prompt       string           `json:"prompt"`
	Participants []participantDTO `json:"participants"`
	Proposal     *proposalDTO     `json:"proposal,omitempty"`
	ExecutedAt   *time.Time       `json:"executed_at,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

type planResponse struct {
	Thread    threadResponse `json:"thread"`
	Proposal  *proposalDTO   `json:"proposal"`
	Reasoning string         `json:"reasoning"`
}

type executeRequest struct {
	ThreadID string       `json:"thread_id"`
	UserID   string       `json:"user_id"`
	Proposal *proposalDTO `json:"proposal"`
}

type auditEntryResponse struct {
	Action  string         `json:"action"`
	UserID  string         `json:"user_id,omitempty"`
	Payload map[string]any `json:"payload,omitempty"`
	At      time.Time      `json:"at"`
}

// ─────────────────────────────────────────────
// Basic routing
// ─────────────────────────────────────────────

// /threads
func (s *Server) handleThreads(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleCreateThread(w, r)
	case http.MethodGet:
		s.handleListThreads(w, r)
	default:
		methodNotAllowed(w)
	}
}

// /threads/{id} and /threads/{id}/{action}
func (s *Server) handleThreadWithID(w http.ResponseWriter, r *http.Request) {
	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/threads/"), "/")
	parts := strings.Split(path, "/")
	if path == "" || parts[0] == "" || len(parts) > 2 {
		http.NotFound(w, r)
		return
	}

	id := domain.ThreadID(parts[0])

	if len(parts) == 1 {
		if r.Method != http.MethodGet {
			methodNotAllowed(w)
			return
		}
		s.handleGetThread(w, r, id)
		return
	}

	type route struct {
		method  string
		handler func(http.ResponseWriter, *http.Request, domain.ThreadID)
	}
	routes := map[string]route{
		"plan":    {http.MethodPost, s.handlePlan},
		"approve": {http.MethodPost, s.handleApprove},
		"cancel":  {http.MethodPost, s.handleCancel},
		"history": {http.MethodGet, s.handleHistory},
	}

	rt, ok := routes[parts[1]]
	if !ok {
		http.NotFound(w, r)
		return
	}
	if r.Method != rt.method {
		methodNotAllowed(w)
		return
	}
	rt.handler(w, r, id)
}

// /executions
func (s *Server) handleExecutions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	s.handleExecute(w, r)
}

// ─────────────────────────────────────────────
// Concrete handlers
// ─────────────────────────────────────────────

func (s *Server) handleCreateThread(w http.ResponseWriter, r *http.Request) {
	var req createThreadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	if req.UserID == "" {
		badRequest(w, "user_id is required")
		return
	}

	participants := make([]domain.Participant, 0, len(req.Participants))
	for _, p := range req.Participants {
		if p.UserID == "" {
			badRequest(w, "participants[].user_id is required")
			return
		}
		participants = append(participants, domain.Participant{
			UserID:      domain.UserID(p.UserID),
			Email:       p.Email,
			DisplayName: p.DisplayName,
		})
	}

	t, err := s.threads.CreateThread(r.Context(), thread.CreateThreadInput{
		OwnerID:      domain.UserID(req.UserID),
		Kind:         domain.ThreadKind(strings.ToLower(strings.TrimSpace(req.Kind))),
		Prompt:       req.Prompt,
		Participants: participants,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toThreadResponse(t))
}

func (s *Server) handleListThreads(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		badRequest(w, "user_id is required")
		return
	}

	threads, err := s.threads.ListThreads(r.Context(), domain.UserID(userID))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]threadResponse, 0, len(threads))
	for _, t := range threads {
		out = append(out, toThreadResponse(t))
	}
	writeJSON(w, http.StatusOK, map[string]any{"threads": out})
}

func (s *Server) handleGetThread(w http.ResponseWriter, r *http.Request, id domain.ThreadID) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		badRequest(w, "user_id is required")
		return
	}

	t, err := s.threads.GetThread(r.Context(), id, domain.UserID(userID))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toThreadResponse(t))
}

func (s *Server) handlePlan(w http.ResponseWriter, r *http.Request, id domain.ThreadID) {
	userID, ok := decodeUser(w, r)
	if !ok {
		return
	}

	out, err := s.threads.RunPlanningAs(r.Context(), id, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, planResponse{
		Thread:    toThreadResponse(out.Thread),
		Proposal:  toProposalDTO(out.Proposal),
		Reasoning: out.Reasoning,
	})
}

func (s *Server) handleApprove(w http.ResponseWriter, r *http.Request, id domain.ThreadID) {
	userID, ok := decodeUser(w, r)
	if !ok {
		return
	}

	t, err := s.threads.ApproveAction(r.Context(), id, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toThreadResponse(t))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request, id domain.ThreadID) {
	userID, ok := decodeUser(w, r)
	if !ok {
		return
	}

	t, err := s.threads.CancelThread(r.Context(), id, userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toThreadResponse(t))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request, id domain.ThreadID) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		badRequest(w, "user_id is required")
		return
	}

	entries, err := s.history.ThreadHistory(r.Context(), id, domain.UserID(userID))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditEntryResponse{
			Action:  string(e.Action),
			UserID:  string(e.UserID),
			Payload: e.Payload,
			At:      e.At,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": out})
}

func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req executeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return
	}

	proposal, err := fromProposalDTO(req.Proposal)
	if err != nil {
		writeError(w, r, err)
		return
	}

	t, err := s.threads.ExecuteProposalWithoutThread(r.Context(), thread.ExecuteProposalInput{
		ThreadID: domain.ThreadID(req.ThreadID),
		UserID:   domain.UserID(req.UserID),
		Proposal: proposal,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toThreadResponse(t))
}

func decodeUser(w http.ResponseWriter, r *http.Request) (domain.UserID, bool) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid JSON body")
		return "", false
	}
	if req.UserID == "" {
		badRequest(w, "user_id is required")
		return "", false
	}
	return domain.UserID(req.UserID), true
}

// ─────────────────────────────────────────────
// Thread Helpers
// ─────────────────────────────────────────────

func toThreadResponse(t *domain.Thread) threadResponse {
	parts := make([]participantDTO, 0, len(t.Participants))
	for _, p := range t.Participants {
		parts = append(parts, participantDTO{
			UserID:      string(p.UserID),
			Email:       p.Email,
			DisplayName: p.DisplayName,
		})
	}

	return threadResponse{
		ID:           string(t.ID),
		OwnerID:      string(t.OwnerID),
		Kind:         string(t.Kind),
		Status:       string(t.Status),
		Prompt:       t.Prompt,
		Participants: parts,
		Proposal:     toProposalDTO(t.Proposal),
		ExecutedAt:   t.ExecutedAt,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func toProposalDTO(p *domain.Proposal) *proposalDTO {
	if p == nil {
		return nil
	}

	out := &proposalDTO{Summary: p.Summary}
	if s := p.Schedule; s != nil {
		ids := make([]string, 0, len(s.ParticipantIDs))
		for _, id := range s.ParticipantIDs {
			ids = append(ids, string(id))
		}
		out.Schedule = &scheduleDTO{
			Start:          s.Start.Format(time.RFC3339),
			End:            s.End.Format(time.RFC3339),
			Title:          s.Title,
			ParticipantIDs: ids,
		}
	}
	if e := p.Email; e != nil {
		out.Email = &emailDTO{
			Recipients:  e.Recipients,
			Subject:     e.Subject,
			BodySnippet: e.BodySnippet,
		}
	}
	return out
}

// fromProposalDTO converts a client-supplied proposal. Unparseable
// timestamps are reported as domain.ErrInvalidProposal; shape checks are
// left to the service.
func fromProposalDTO(p *proposalDTO) (*domain.Proposal, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: proposal is missing", domain.ErrInvalidProposal)
	}

	out := &domain.Proposal{Summary: p.Summary}
	if s := p.Schedule; s != nil {
		start, err := time.Parse(time.RFC3339, s.Start)
		if err != nil {
			return nil, fmt.Errorf("%w: schedule.start: %v", domain.ErrInvalidProposal, err)
		}
		end, err := time.Parse(time.RFC3339, s.End)
		if err != nil {
			return nil, fmt.Errorf("%w: schedule.end: %v", domain.ErrInvalidProposal, err)
		}

		var ids []domain.UserID
		if s.ParticipantIDs != nil {
			ids = make([]domain.UserID, 0, len(s.ParticipantIDs))
			for _, id := range s.ParticipantIDs {
				ids = append(ids, domain.UserID(id))
			}
		}
		out.Schedule = &domain.ScheduleProposal{
			Start:          start,
			End:            end,
			Title:          s.Title,
			ParticipantIDs: ids,
		}
	}
	if e := p.Email; e != nil {
		out.Email = &domain.EmailProposal{
			Recipients:  e.Recipients,
			Subject:     e.Subject,
			BodySnippet: e.BodySnippet,
		}
	}
	return out, nil
}

// ─────────────────────────────────────────────
// HTTP Helpers
// ─────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps domain errors to status codes.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrUnauthorized):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrStateConflict):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrInvalidProposal), errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
	}

	if status == http.StatusInternalServerError {
		observability.LoggerFromContext(r.Context()).Error("request failed", "error", err)
		writeJSON(w, status, map[string]string{
			"error": "internal server error",
		})
		return
	}

	writeJSON(w, status, map[string]string{
		"error": err.Error(),
	})
}

func badRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": msg,
	})
}

func methodNotAllowed(w http.ResponseWriter) {
	writeJSON(w, http.StatusMethodNotAllowed, map[string]string{
		"error": "method not allowed",
	})
}
