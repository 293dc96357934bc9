package api

import (
	"net/http"

	"github.com/okian/ladder/internal/domain/roster"
	"github.com/okian/ladder/pkg/errs"
)

// CategoriesHandler handles /api/v1/categories.
type CategoriesHandler struct {
	deps CategoryService
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(deps CategoryService) *CategoriesHandler {
	return &CategoriesHandler{deps: deps}
}

// HandleCreate handles POST /api/v1/categories.
func (h *CategoriesHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	const op = "api.create_category"
	var req createCategoryRequest
	if err := decode(r, op, &req); err != nil {
		writeFailure(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeFailure(w, errs.WrapKind(op, ErrBadRequest, err))
		return
	}
	c, err := h.deps.Create(r.Context(), roster.CategoryInput{
		Name:        req.Category,
		Description: req.Description,
		Events:      toEvents(req.Events),
	})
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// HandleList handles GET /api/v1/categories.
func (h *CategoriesHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	out, err := h.deps.List(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// HandleGet handles GET /api/v1/categories/{category}.
func (h *CategoriesHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	name, err := pathParam(r, "api.get_category", "category")
	if err != nil {
		writeFailure(w, err)
		return
	}
	c, err := h.deps.Get(r.Context(), name)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// HandleUpdate handles PUT /api/v1/categories/{category}.
func (h *CategoriesHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	const op = "api.update_category"
	name, err := pathParam(r, op, "category")
	if err != nil {
		writeFailure(w, err)
		return
	}
	var req updateCategoryRequest
	if err := decode(r, op, &req); err != nil {
		writeFailure(w, err)
		return
	}
	if err := req.validate(); err != nil {
		writeFailure(w, errs.WrapKind(op, ErrBadRequest, err))
		return
	}
	if err := h.deps.Update(r.Context(), name, roster.CategoryUpdate{
		Description: req.Description,
		Events:      toEvents(req.Events),
	}); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleAssignPlayer handles POST /api/v1/categories/{category}/players/{playerID}.
func (h *CategoriesHandler) HandleAssignPlayer(w http.ResponseWriter, r *http.Request) {
	const op = "api.assign_category_player"
	name, err := pathParam(r, op, "category")
	if err != nil {
		writeFailure(w, err)
		return
	}
	playerID, err := pathParam(r, op, "playerID")
	if err != nil {
		writeFailure(w, err)
		return
	}
	if err := h.deps.AssignPlayer(r.Context(), name, playerID); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
