package challenge

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/pkg/errs"
	"github.com/okian/ladder/pkg/logger"
	"github.com/okian/ladder/pkg/metrics"
)

const (
	minPlayers = 2

	// compensationTimeout bounds the compensating delete, which runs detached
	// from the caller's context so an expired request still cleans up.
	compensationTimeout = 5 * time.Second
)

// CreateInput proposes a challenge.
type CreateInput struct {
	Players           []string
	Solicitator       string
	DateHourChallenge *time.Time
}

// UpdateInput answers or reschedules a challenge.
type UpdateInput struct {
	Status            model.ChallengeStatus
	DateHourChallenge *time.Time
}

// AssignMatchInput resolves a challenge into a match.
type AssignMatchInput struct {
	Def    string
	Result []model.Result
}

// Engine orchestrates the challenge lifecycle. It holds no per-challenge state
// and is safe for concurrent use; same-challenge races are settled by the
// store's version guard.
type Engine struct {
	players    PlayerDirectory
	categories CategoryRegistry
	challenges ChallengeStore
	matches    MatchStore
	orphans    OrphanLog

	logger logger.Logger
	now    func() time.Time
}

// NewEngine wires an Engine to its collaborators.
func NewEngine(players PlayerDirectory, categories CategoryRegistry, challenges ChallengeStore, matches MatchStore, opts ...Option) *Engine {
	e := &Engine{
		players:    players,
		categories: categories,
		challenges: challenges,
		matches:    matches,
		logger:     logger.Discard(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Create validates and stores a new PENDING challenge. Nothing is written
// unless every check passes.
func (e *Engine) Create(ctx context.Context, in CreateInput) (model.Challenge, error) {
	start := time.Now()
	c, err := e.create(ctx, in)
	e.observe(ctx, "create", start, err, logger.String("challenge_id", c.ID), logger.String("solicitator", in.Solicitator))
	return c, err
}

func (e *Engine) create(ctx context.Context, in CreateInput) (model.Challenge, error) {
	const op = "challenge.create"

	if err := checkDistinct(op, in.Players); err != nil {
		return model.Challenge{}, err
	}

	known, err := e.players.ListPlayers(ctx)
	if err != nil {
		return model.Challenge{}, classify(op, err)
	}
	ids := make(map[string]struct{}, len(known))
	for _, p := range known {
		ids[p.ID] = struct{}{}
	}
	for _, id := range in.Players {
		if _, ok := ids[id]; !ok {
			return model.Challenge{}, errs.Newf(op, model.ErrInvalidReference, "the id %s is not from a player", id)
		}
	}

	proposed := model.Challenge{Players: in.Players}
	if !proposed.HasPlayer(in.Solicitator) {
		return model.Challenge{}, errs.Newf(op, model.ErrInvalidState, "solicitator must be part of the match")
	}

	cat, err := e.categories.CategoryOfPlayer(ctx, in.Solicitator)
	switch {
	case errors.Is(err, model.ErrNotFound):
		return model.Challenge{}, errs.Newf(op, model.ErrInvalidState, "solicitator needs an assigned category")
	case err != nil:
		return model.Challenge{}, classify(op, err)
	}

	c := model.Challenge{
		DateHourChallenge: in.DateHourChallenge,
		Status:            model.StatusPending,
		DateHourRequest:   e.now().UTC(),
		Solicitator:       in.Solicitator,
		Category:          cat.Name,
		Players:           append([]string(nil), in.Players...),
	}
	stored, err := e.challenges.InsertChallenge(ctx, c)
	if err != nil {
		return model.Challenge{}, classify(op, err)
	}
	return stored, nil
}

func checkDistinct(op string, players []string) error {
	seen := make(map[string]struct{}, len(players))
	for _, id := range players {
		if _, dup := seen[id]; dup {
			return errs.Newf(op, model.ErrInvalidState, "player %s listed twice", id)
		}
		seen[id] = struct{}{}
	}
	if len(seen) < minPlayers {
		return errs.Newf(op, model.ErrInvalidState, "a challenge needs at least %d players", minPlayers)
	}
	return nil
}

// List returns every challenge, or only those playerID takes part in, with
// solicitator, players and match expanded.
func (e *Engine) List(ctx context.Context, playerID string) ([]model.ChallengeDetail, error) {
	start := time.Now()
	out, err := e.list(ctx, playerID)
	e.observe(ctx, "list", start, err, logger.String("player_id", playerID), logger.Int("count", len(out)))
	return out, err
}

func (e *Engine) list(ctx context.Context, playerID string) ([]model.ChallengeDetail, error) {
	const op = "challenge.list"

	if playerID != "" {
		if _, err := e.players.GetPlayer(ctx, playerID); err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return nil, errs.Newf(op, model.ErrInvalidReference, "the id %s is not from a player", playerID)
			}
			return nil, classify(op, err)
		}
	}

	found, err := e.challenges.FindChallenges(ctx, model.ChallengeFilter{PlayerID: playerID})
	if err != nil {
		return nil, classify(op, err)
	}
	known, err := e.players.ListPlayers(ctx)
	if err != nil {
		return nil, classify(op, err)
	}
	byID := make(map[string]model.Player, len(known))
	for _, p := range known {
		byID[p.ID] = p
	}
	resolve := func(id string) model.Player {
		if p, ok := byID[id]; ok {
			return p
		}
		return model.Player{ID: id}
	}

	out := make([]model.ChallengeDetail, 0, len(found))
	for _, c := range found {
		d := model.ChallengeDetail{
			Challenge:         c,
			SolicitatorPlayer: resolve(c.Solicitator),
			PlayerRecords:     make([]model.Player, 0, len(c.Players)),
		}
		for _, id := range c.Players {
			d.PlayerRecords = append(d.PlayerRecords, resolve(id))
		}
		if c.Match != "" {
			m, err := e.matches.GetMatch(ctx, c.Match)
			switch {
			case err == nil:
				d.MatchRecord = &m
			case !errors.Is(err, model.ErrNotFound):
				return nil, classify(op, err)
			}
		}
		out = append(out, d)
	}
	return out, nil
}

// Update overwrites status and dateHourChallenge with the supplied values.
// dateHourResponse is stamped whenever a non-empty status is supplied.
// Transitions are not validated here.
func (e *Engine) Update(ctx context.Context, id string, in UpdateInput) error {
	start := time.Now()
	err := e.update(ctx, id, in)
	e.observe(ctx, "update", start, err, logger.String("challenge_id", id), logger.String("status", string(in.Status)))
	return err
}

func (e *Engine) update(ctx context.Context, id string, in UpdateInput) error {
	const op = "challenge.update"

	c, err := e.challenges.GetChallenge(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return errs.Newf(op, model.ErrNotFound, "challenge %s not registered", id)
		}
		return classify(op, err)
	}

	if in.Status != "" {
		t := e.now().UTC()
		c.DateHourResponse = &t
	}
	c.Status = in.Status
	c.DateHourChallenge = in.DateHourChallenge

	if _, err := e.challenges.ReplaceChallenge(ctx, c); err != nil {
		return classify(op, err)
	}
	return nil
}

// AssignMatch records the match that resolves a challenge and marks the
// challenge DONE. If the challenge cannot be updated after the match was
// stored, the match is deleted again before the error is returned.
//
// A challenge is resolved at most once: a challenge that already references
// a match is rejected with model.ErrConflict, the same kind a writer that
// loses the version guard receives.
func (e *Engine) AssignMatch(ctx context.Context, id string, in AssignMatchInput) (model.Match, error) {
	start := time.Now()
	m, err := e.assignMatch(ctx, id, in)
	e.observe(ctx, "assign_match", start, err, logger.String("challenge_id", id), logger.String("match_id", m.ID))
	return m, err
}

func (e *Engine) assignMatch(ctx context.Context, id string, in AssignMatchInput) (model.Match, error) {
	const op = "challenge.assign_match"

	c, err := e.challenges.GetChallenge(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Match{}, errs.Newf(op, model.ErrInvalidReference, "challenge %s not registered", id)
		}
		return model.Match{}, classify(op, err)
	}

	if c.Match != "" || c.Status == model.StatusDone {
		return model.Match{}, errs.Newf(op, model.ErrConflict, "challenge already resolved by match %s", c.Match)
	}
	if !c.HasPlayer(in.Def) {
		return model.Match{}, errs.Newf(op, model.ErrInvalidState, "winner not part of the challenge")
	}

	m, err := e.matches.InsertMatch(ctx, model.Match{
		Category: c.Category,
		Players:  append([]string(nil), c.Players...),
		Def:      in.Def,
		Result:   append([]model.Result(nil), in.Result...),
	})
	if err != nil {
		return model.Match{}, classify(op, err)
	}

	c.Status = model.StatusDone
	c.Match = m.ID
	if _, err := e.challenges.ReplaceChallenge(ctx, c); err != nil {
		return model.Match{}, e.compensate(ctx, op, c.ID, m.ID, err)
	}
	return m, nil
}

// compensate deletes a match whose challenge update failed. When the delete
// fails too, the match is reported as an orphan and a transient error that
// carries both causes is returned.
func (e *Engine) compensate(ctx context.Context, op, challengeID, matchID string, cause error) error {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	derr := e.matches.DeleteMatch(cctx, matchID)
	if derr == nil {
		metrics.RecordCompensation("deleted")
		e.logger.Warn(ctx, "challenge update failed; match removed",
			logger.String("challenge_id", challengeID),
			logger.String("match_id", matchID),
			logger.Error(cause),
		)
		if errors.Is(cause, model.ErrConflict) {
			return errs.Wrap(op, cause)
		}
		return errs.WrapKind(op, model.ErrTransient, cause)
	}

	metrics.RecordCompensation("failed")
	metrics.RecordOrphanMatch()
	e.logger.Error(ctx, "compensating match delete failed; orphan match left for reconciliation",
		logger.String("challenge_id", challengeID),
		logger.String("match_id", matchID),
		logger.Any("update_error", cause),
		logger.Error(derr),
	)
	if e.orphans != nil {
		orphan := model.OrphanMatch{
			MatchID:     matchID,
			ChallengeID: challengeID,
			Reason:      derr.Error(),
			DetectedAt:  e.now().UTC(),
		}
		if err := e.orphans.RecordOrphanMatch(cctx, orphan); err != nil {
			e.logger.Error(ctx, "recording orphan match failed",
				logger.String("match_id", matchID),
				logger.Error(err),
			)
		}
	}
	return errs.WrapKind(op, model.ErrTransient,
		errors.Join(cause, fmt.Errorf("compensating delete of match %s: %w", matchID, derr)))
}

// Cancel marks a challenge CANCELED. Cancelling twice is a no-op in effect;
// a DONE challenge may also be cancelled and keeps its match reference.
func (e *Engine) Cancel(ctx context.Context, id string) error {
	start := time.Now()
	err := e.cancel(ctx, id)
	e.observe(ctx, "cancel", start, err, logger.String("challenge_id", id))
	return err
}

func (e *Engine) cancel(ctx context.Context, id string) error {
	const op = "challenge.cancel"

	c, err := e.challenges.GetChallenge(ctx, id)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return errs.Newf(op, model.ErrInvalidReference, "challenge %s not registered", id)
		}
		return classify(op, err)
	}

	c.Status = model.StatusCanceled
	if _, err := e.challenges.ReplaceChallenge(ctx, c); err != nil {
		return classify(op, err)
	}
	return nil
}

// CountByStatus returns the number of stored challenges per status.
func (e *Engine) CountByStatus(ctx context.Context) (map[model.ChallengeStatus]int, error) {
	found, err := e.challenges.FindChallenges(ctx, model.ChallengeFilter{})
	if err != nil {
		return nil, classify("challenge.count_by_status", err)
	}
	out := make(map[model.ChallengeStatus]int)
	for _, c := range found {
		out[c.Status]++
	}
	return out, nil
}

// classify keeps domain kinds and tags everything else as transient.
func classify(op string, err error) error {
	if errs.KindOf(err,
		model.ErrInvalidReference,
		model.ErrInvalidState,
		model.ErrNotFound,
		model.ErrConflict,
		model.ErrTransient,
	) != nil {
		return errs.Wrap(op, err)
	}
	return errs.WrapKind(op, model.ErrTransient, err)
}

func (e *Engine) observe(ctx context.Context, operation string, start time.Time, err error, fields ...logger.Field) {
	latency := time.Since(start)
	fields = append(fields, logger.String("operation", operation), logger.Duration("took", latency))

	outcome := metrics.OutcomeOK
	switch {
	case err == nil:
		e.logger.Debug(ctx, "challenge operation completed", fields...)
	case errors.Is(err, model.ErrTransient):
		outcome = metrics.OutcomeError
		e.logger.Error(ctx, "challenge operation failed", append(fields, logger.Error(err))...)
	default:
		outcome = metrics.OutcomeError
		if errors.Is(err, model.ErrConflict) {
			metrics.RecordConcurrencyConflict(operation)
		}
		e.logger.Warn(ctx, "challenge operation rejected", append(fields, logger.Error(err))...)
	}
	metrics.RecordChallengeOperation(operation, outcome, float64(latency.Microseconds())/1000)
}
