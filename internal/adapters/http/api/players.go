package api

import (
	"net/http"

	"github.com/okian/ladder/internal/domain/roster"
	"github.com/okian/ladder/pkg/errs"
)

// PlayersHandler handles /api/v1/players.
type PlayersHandler struct {
	deps PlayerService
}

// NewPlayersHandler creates a new players handler.
func NewPlayersHandler(deps PlayerService) *PlayersHandler {
	return &PlayersHandler{deps: deps}
}

// HandleCreate handles POST /api/v1/players.
func (h *PlayersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_player"
	var req createPlayerRequest
	if err := decode(r, op, &req); err != nil {
		writeFailure(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeFailure(w, errs.WrapKind(op, ErrBadRequest, err))
		return
	}
	p, err := h.deps.Create(r.Context(), req.input())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// HandleList handles GET /api/v1/players.
func (h *PlayersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	players, err := h.deps.ListPlayers(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, players)
}

// HandleGet handles GET /api/v1/players/{id}.
func (h *PlayersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "api.get_player", "id")
	if err != nil {
		writeFailure(w, err)
		return
	}
	p, err := h.deps.Get(r.Context(), id)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// HandleUpdate handles PUT /api/v1/players/{id}.
func (h *PlayersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_player"
	id, err := pathParam(r, op, "id")
	if err != nil {
		writeFailure(w, err)
		return
	}
	var req updatePlayerRequest
	if err := decode(r, op, &req); err != nil {
		writeFailure(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeFailure(w, errs.WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.Update(r.Context(), id, roster.PlayerUpdate{Name: req.Name, PhoneNumber: req.PhoneNumber}); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleDelete handles DELETE /api/v1/players/{id}.
func (h *PlayersHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathParam(r, "api.delete_player", "id")
	if err != nil {
		writeFailure(w, err)
		return
	}
	if err := h.deps.Delete(r.Context(), id); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
