package api

import (
	"net/http"
	"strings"

	"github.com/okian/ladder/internal/domain/challenge"
	"github.com/okian/ladder/pkg/errs"
)

// ChallengesHandler handles /api/v1/challenges.
type ChallengesHandler struct {
	deps ChallengeService
}

// NewChallengesHandler creates a new challenges handler.
func NewChallengesHandler(deps ChallengeService) *ChallengesHandler {
	return &ChallengesHandler{deps: deps}
}

// HandleCreate handles POST /api/v1/challenges.
func (h *ChallengesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_challenge"
	var req createChallengeRequest
	if err := decode(r, op, &req); err != nil {
		writeFailure(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeFailure(w, errs.WrapKind(op, ErrBadRequest, err))
		return
	}
	c, err := h.deps.Create(r.Context(), req.input())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// HandleList handles GET /api/v1/challenges with an optional idPlayer query.
func (h *ChallengesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.List(r.Context(), strings.TrimSpace(r.URL.Query().Get("idPlayer")))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleUpdate handles PUT /api/v1/challenges/{id}.
func (h *ChallengesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_challenge"
	id, err := pathParam(r, op, "id")
	if err != nil {
		writeFailure(w, err)
		return
	}
	var req updateChallengeRequest
	if err := decode(r, op, &req); err != nil {
		writeFailure(w, err)
		return
	}
	status, err := req.validate()
	if err != nil {
		writeFailure(w, errs.WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.Update(r.Context(), id, challenge.UpdateInput{
		Status:            status,
		DateHourChallenge: req.DateHourChallenge,
	}); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAssignMatch handles POST /api/v1/challenges/{id}/match.
func (h *ChallengesHandler) HandleAssignMatch(w http.ResponseWriter, r *http.Request) {
	const op = "api.assign_match"
	id, err := pathParam(r, op, "id")
	if err != nil {
		writeFailure(w, err)
		return
	}
	var req assignMatchRequest
	if err := decode(r, op, &req); err != nil {
		writeFailure(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeFailure(w, errs.WrapKind(op, ErrBadRequest, err))
		return
	}
	m, err := h.deps.AssignMatch(r.Context(), id, challenge.AssignMatchInput{Def: req.Def.id(), Result: req.Result})
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// HandleCancel handles DELETE /api/v1/challenges/{id}. The record is kept
// with status CANCELED.
func (h *ChallengesHandler) HandleCancel(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "api.cancel_challenge", "id")
	if err != nil {
		writeFailure(w, err)
		return
	}
	if err := h.deps.Cancel(r.Context(), id); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
