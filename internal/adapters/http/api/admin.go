package api

import (
	"context"
	"net/http"

	"github.com/okian/ladder/internal/domain/model"
)

// OrphanLister exposes matches left behind by failed compensations.
type OrphanLister interface {
	ListOrphanMatches(ctx context.Context) ([]model.OrphanMatch, error)
}

// AdminHandler serves reconciliation views.
type AdminHandler struct {
	orphans OrphanLister
}

// NewAdminHandler creates a new admin handler.
func NewAdminHandler(orphans OrphanLister) *AdminHandler {
	return &AdminHandler{orphans: orphans}
}

// HandleListOrphans handles GET /api/v1/admin/orphan-matches.
func (h *AdminHandler) HandleListOrphans(w http.ResponseWriter, r *http.Request) {
	out, err := h.orphans.ListOrphanMatches(r.Context())
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
