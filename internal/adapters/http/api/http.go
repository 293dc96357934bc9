// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/okian/ladder/internal/domain/challenge"
	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/internal/domain/roster"
	"github.com/okian/ladder/pkg/errs"
)

// PlayerService is what the player routes need.
type PlayerService interface {
	Create(ctx context.Context, in roster.PlayerInput) (model.Player, error)
	Update(ctx context.Context, id string, in roster.PlayerUpdate) error
	ListPlayers(ctx context.Context) ([]model.Player, error)
	Get(ctx context.Context, id string) (model.Player, error)
	Delete(ctx context.Context, id string) error
}

// CategoryService is what the category routes need.
type CategoryService interface {
	Create(ctx context.Context, in roster.CategoryInput) (model.Category, error)
	List(ctx context.Context) ([]model.Category, error)
	Get(ctx context.Context, name string) (model.Category, error)
	Update(ctx context.Context, name string, in roster.CategoryUpdate) error
	AssignPlayer(ctx context.Context, name, playerID string) error
}

// ChallengeService is what the challenge routes need.
type ChallengeService interface {
	Create(ctx context.Context, in challenge.CreateInput) (model.Challenge, error)
	List(ctx context.Context, playerID string) ([]model.ChallengeDetail, error)
	Update(ctx context.Context, id string, in challenge.UpdateInput) error
	AssignMatch(ctx context.Context, id string, in challenge.AssignMatchInput) (model.Match, error)
	Cancel(ctx context.Context, id string) error
}

// Dependencies required by HTTP handlers. Each handler only sees the narrow
// interface it uses.
type Dependencies struct {
	Players    PlayerService
	Categories CategoryService
	Challenges ChallengeService
	Orphans    OrphanLister
	Stats      StatsProvider
	Health     HealthChecker
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	playersHandler   *PlayersHandler
	categoryHandler  *CategoriesHandler
	challengeHandler *ChallengesHandler
	adminHandler     *AdminHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(deps.Health),
		statsHandler:     NewStatsHandler(deps.Stats),
		playersHandler:   NewPlayersHandler(deps.Players),
		categoryHandler:  NewCategoriesHandler(deps.Categories),
		challengeHandler: NewChallengesHandler(deps.Challenges),
		adminHandler:     NewAdminHandler(deps.Orphans),
	}
}

// Register attaches all HTTP routes to r.
func (s *Server) Register(r chi.Router) {
	r.Get("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	r.Get("/metrics", MetricsMiddleware(s.healthHandler.HandleMetrics, "metrics"))
	r.Get("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/players", func(r chi.Router) {
			r.Post("/", MetricsMiddleware(s.playersHandler.HandleCreate, "players"))
			r.Get("/", MetricsMiddleware(s.playersHandler.HandleList, "players"))
			r.Get("/{id}", MetricsMiddleware(s.playersHandler.HandleGet, "player"))
			r.Put("/{id}", MetricsMiddleware(s.playersHandler.HandleUpdate, "player"))
			r.Delete("/{id}", MetricsMiddleware(s.playersHandler.HandleDelete, "player"))
		})
		r.Route("/categories", func(r chi.Router) {
			r.Post("/", MetricsMiddleware(s.categoryHandler.HandleCreate, "categories"))
			r.Get("/", MetricsMiddleware(s.categoryHandler.HandleList, "categories"))
			r.Get("/{category}", MetricsMiddleware(s.categoryHandler.HandleGet, "category"))
			r.Put("/{category}", MetricsMiddleware(s.categoryHandler.HandleUpdate, "category"))
			r.Post("/{category}/players/{playerID}", MetricsMiddleware(s.categoryHandler.HandleAssignPlayer, "category_player"))
		})
		r.Route("/challenges", func(r chi.Router) {
			r.Post("/", MetricsMiddleware(s.challengeHandler.HandleCreate, "challenges"))
			r.Get("/", MetricsMiddleware(s.challengeHandler.HandleList, "challenges"))
			r.Put("/{id}", MetricsMiddleware(s.challengeHandler.HandleUpdate, "challenge"))
			r.Delete("/{id}", MetricsMiddleware(s.challengeHandler.HandleCancel, "challenge"))
			r.Post("/{id}/match", MetricsMiddleware(s.challengeHandler.HandleAssignMatch, "challenge_match"))
		})
		r.Get("/admin/orphan-matches", MetricsMiddleware(s.adminHandler.HandleListOrphans, "orphan_matches"))
	})
}

// Routes returns a router with every route registered.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	s.Register(r)
	return r
}

var (
	// ErrServe wraps a listener failure in cmd.
	ErrServe = errors.New("http serve failed")
	// ErrBadRequest marks malformed bodies and parameters; it maps to 400.
	ErrBadRequest = errors.New("bad request")
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}

// writeFailure maps an error's kind onto a status code.
func writeFailure(w http.ResponseWriter, err error) {
	status, code := statusFor(err)
	writeError(w, status, code, err)
}

// statusFor checks client faults first so a transient error that also wraps
// a conflict is still reported as unavailable.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, model.ErrInvalidReference):
		return http.StatusBadRequest, "invalid_reference"
	case errors.Is(err, model.ErrInvalidState):
		return http.StatusBadRequest, "invalid_state"
	case errors.Is(err, model.ErrTransient):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, model.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, "not_found"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

func decode(r *http.Request, op string, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errs.WrapKind(op, ErrBadRequest, err)
	}
	return nil
}

// pathParam returns a trimmed, non-empty URL parameter.
func pathParam(r *http.Request, op, name string) (string, error) {
	v := strings.TrimSpace(chi.URLParam(r, name))
	if v == "" {
		return "", errs.Newf(op, ErrBadRequest, "the parameter value from %s should not be empty", name)
	}
	return v, nil
}
