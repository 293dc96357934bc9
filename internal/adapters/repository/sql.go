package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/okian/ladder/internal/domain/model"
	"github.com/okian/ladder/pkg/errs"
)

// sqliteTimeLayout is fixed width so stored times sort lexically.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// dialect captures what differs between the SQL backends.
type dialect struct {
	name            string
	driver          string
	numbered        bool
	textTimes       bool
	migrationsRoot  string
	uniqueViolation func(error) bool
}

// rebind rewrites ? placeholders to $n for numbered dialects.
func (d dialect) rebind(query string) string {
	if !d.numbered {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (d dialect) timeArg(t time.Time) any {
	if d.textTimes {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t.UTC()
}

func (d dialect) nullTimeArg(t *time.Time) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return d.timeArg(*t)
}

// timeValue scans TIMESTAMPTZ columns as well as text-encoded times.
type timeValue struct {
	Time  time.Time
	Valid bool
}

func (v *timeValue) Scan(src any) error {
	switch t := src.(type) {
	case nil:
		v.Time, v.Valid = time.Time{}, false
		return nil
	case time.Time:
		v.Time, v.Valid = t.UTC(), true
		return nil
	case string:
		return v.parse(t)
	case []byte:
		return v.parse(string(t))
	default:
		return fmt.Errorf("unsupported time column type %T", src)
	}
}

func (v *timeValue) parse(s string) error {
	parsed, ok := parseTimeString(s)
	if !ok {
		return fmt.Errorf("unparseable time %q", s)
	}
	v.Time, v.Valid = parsed, true
	return nil
}

func (v timeValue) ptr() *time.Time {
	if !v.Valid {
		return nil
	}
	t := v.Time
	return &t
}

func parseTimeString(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05.999999999-07:00", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func toJSON(v any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(data)
}

func fromJSON(raw []byte, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

type rowScanner interface {
	Scan(dest ...any) error
}

// SQLStore is a Store on database/sql, shared by the sqlite and postgres
// backends. Slices are kept in JSON columns.
type SQLStore struct {
	db      *sql.DB
	d       dialect
	opts    options
	updater metricsUpdater
}

var _ Store = (*SQLStore)(nil)

func openSQLStore(ctx context.Context, d dialect, dsn string, opts options) (*SQLStore, error) {
	op := d.name + ".open"

	db, err := sql.Open(d.driver, dsn)
	if err != nil {
		return nil, errs.Wrap(op, fmt.Errorf("open %s: %w", d.name, err))
	}
	db.SetMaxOpenConns(opts.maxOpenConns)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errs.WrapKind(op, model.ErrTransient, fmt.Errorf("ping %s: %w", d.name, err))
	}

	fsys, root := fs.FS(bundledMigrations), d.migrationsRoot
	if opts.migrations != nil {
		fsys, root = opts.migrations, "."
	}
	if err := applyMigrations(ctx, db, d, fsys, root); err != nil {
		_ = db.Close()
		return nil, err
	}

	s := &SQLStore{db: db, d: d, opts: opts}
	s.updater.start(ctx, opts.metricsUpdateInterval, opts.logger, s.Counts)
	return s, nil
}

func (s *SQLStore) now() time.Time { return s.opts.now().UTC() }

func (s *SQLStore) observe(operation string, start time.Time, err error) {
	observe(s.d.name, operation, start, err)
}

// fail maps driver errors onto model kinds.
func (s *SQLStore) fail(op string, err error, what string) error {
	switch {
	case errors.Is(err, sql.ErrNoRows):
		return errs.Newf(op, model.ErrNotFound, "%s", what)
	case s.d.uniqueViolation != nil && s.d.uniqueViolation(err):
		return errs.WrapKind(op, model.ErrConflict, err)
	case errors.Is(err, context.DeadlineExceeded):
		return errs.WrapKind(op, model.ErrTransient, err)
	default:
		return errs.Wrap(op, err)
	}
}

func (s *SQLStore) exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return s.db.ExecContext(ctx, s.d.rebind(query), args...)
}

func (s *SQLStore) queryRow(ctx context.Context, query string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, s.d.rebind(query), args...)
}

func (s *SQLStore) query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, s.d.rebind(query), args...)
}

func affected(res sql.Result) int64 {
	n, err := res.RowsAffected()
	if err != nil {
		return 0
	}
	return n
}

// Players.

const playerColumns = `id, name, email, phone_number, created_at, updated_at`

func scanPlayer(row rowScanner) (model.Player, error) {
	var (
		p                model.Player
		created, updated timeValue
	)
	if err := row.Scan(&p.ID, &p.Name, &p.Email, &p.PhoneNumber, &created, &updated); err != nil {
		return model.Player{}, err
	}
	p.CreatedAt, p.UpdatedAt = created.Time, updated.Time
	return p, nil
}

func (s *SQLStore) InsertPlayer(ctx context.Context, p model.Player) (_ model.Player, err error) {
	const op = "sql.insert_player"
	defer func(start time.Time) { s.observe("insert_player", start, err) }(time.Now())

	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	p.CreatedAt = s.now()
	p.UpdatedAt = p.CreatedAt
	_, err = s.exec(ctx,
		`INSERT INTO players (id, name, email, email_key, phone_number, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Email, strings.ToLower(p.Email), p.PhoneNumber, s.d.timeArg(p.CreatedAt), s.d.timeArg(p.UpdatedAt),
	)
	if err != nil {
		return model.Player{}, s.fail(op, err, "player "+p.ID)
	}
	return p, nil
}

func (s *SQLStore) GetPlayer(ctx context.Context, id string) (_ model.Player, err error) {
	defer func(start time.Time) { s.observe("get_player", start, err) }(time.Now())

	p, err := scanPlayer(s.queryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE id = ?`, id))
	if err != nil {
		return model.Player{}, s.fail("sql.get_player", err, "player "+id)
	}
	return p, nil
}

func (s *SQLStore) FindPlayerByEmail(ctx context.Context, email string) (_ model.Player, err error) {
	defer func(start time.Time) { s.observe("find_player_by_email", start, err) }(time.Now())

	p, err := scanPlayer(s.queryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE email_key = ?`, strings.ToLower(email)))
	if err != nil {
		return model.Player{}, s.fail("sql.find_player_by_email", err, "email "+email)
	}
	return p, nil
}

func (s *SQLStore) ListPlayers(ctx context.Context) (_ []model.Player, err error) {
	const op = "sql.list_players"
	defer func(start time.Time) { s.observe("list_players", start, err) }(time.Now())

	rows, err := s.query(ctx, `SELECT `+playerColumns+` FROM players ORDER BY created_at, id`)
	if err != nil {
		return nil, s.fail(op, err, "players")
	}
	defer rows.Close()

	out := []model.Player{}
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, s.fail(op, err, "players")
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(op, err, "players")
	}
	return out, nil
}

func (s *SQLStore) ReplacePlayer(ctx context.Context, p model.Player) (_ model.Player, err error) {
	const op = "sql.replace_player"
	defer func(start time.Time) { s.observe("replace_player", start, err) }(time.Now())

	p.UpdatedAt = s.now()
	res, err := s.exec(ctx,
		`UPDATE players SET name = ?, email = ?, email_key = ?, phone_number = ?, updated_at = ? WHERE id = ?`,
		p.Name, p.Email, strings.ToLower(p.Email), p.PhoneNumber, s.d.timeArg(p.UpdatedAt), p.ID,
	)
	if err != nil {
		return model.Player{}, s.fail(op, err, "player "+p.ID)
	}
	if affected(res) == 0 {
		return model.Player{}, errs.Newf(op, model.ErrNotFound, "player %s", p.ID)
	}
	return s.GetPlayer(ctx, p.ID)
}

func (s *SQLStore) DeletePlayer(ctx context.Context, id string) (err error) {
	const op = "sql.delete_player"
	defer func(start time.Time) { s.observe("delete_player", start, err) }(time.Now())

	res, err := s.exec(ctx, `DELETE FROM players WHERE id = ?`, id)
	if err != nil {
		return s.fail(op, err, "player "+id)
	}
	if affected(res) == 0 {
		return errs.Newf(op, model.ErrNotFound, "player %s", id)
	}
	return nil
}

// Categories.

const categoryColumns = `name, description, events, players, created_at, updated_at`

func scanCategory(row rowScanner) (model.Category, error) {
	var (
		c                       model.Category
		eventsJSON, playersJSON []byte
		created, updated        timeValue
	)
	if err := row.Scan(&c.Name, &c.Description, &eventsJSON, &playersJSON, &created, &updated); err != nil {
		return model.Category{}, err
	}
	if err := fromJSON(eventsJSON, &c.Events); err != nil {
		return model.Category{}, fmt.Errorf("decode events of %s: %w", c.Name, err)
	}
	if err := fromJSON(playersJSON, &c.Players); err != nil {
		return model.Category{}, fmt.Errorf("decode players of %s: %w", c.Name, err)
	}
	if c.Players == nil {
		c.Players = []string{}
	}
	c.CreatedAt, c.UpdatedAt = created.Time, updated.Time
	return c, nil
}

func (s *SQLStore) InsertCategory(ctx context.Context, c model.Category) (_ model.Category, err error) {
	defer func(start time.Time) { s.observe("insert_category", start, err) }(time.Now())

	c = cloneCategory(c)
	c.CreatedAt = s.now()
	c.UpdatedAt = c.CreatedAt
	_, err = s.exec(ctx,
		`INSERT INTO categories (`+categoryColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		c.Name, c.Description, toJSON(c.Events), toJSON(c.Players), s.d.timeArg(c.CreatedAt), s.d.timeArg(c.UpdatedAt),
	)
	if err != nil {
		return model.Category{}, s.fail("sql.insert_category", err, "category "+c.Name)
	}
	return c, nil
}

func (s *SQLStore) GetCategory(ctx context.Context, name string) (_ model.Category, err error) {
	defer func(start time.Time) { s.observe("get_category", start, err) }(time.Now())

	c, err := scanCategory(s.queryRow(ctx, `SELECT `+categoryColumns+` FROM categories WHERE name = ?`, name))
	if err != nil {
		return model.Category{}, s.fail("sql.get_category", err, "category "+name)
	}
	return c, nil
}

func (s *SQLStore) ListCategories(ctx context.Context) (_ []model.Category, err error) {
	const op = "sql.list_categories"
	defer func(start time.Time) { s.observe("list_categories", start, err) }(time.Now())

	rows, err := s.query(ctx, `SELECT `+categoryColumns+` FROM categories ORDER BY name`)
	if err != nil {
		return nil, s.fail(op, err, "categories")
	}
	defer rows.Close()

	out := []model.Category{}
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, s.fail(op, err, "categories")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(op, err, "categories")
	}
	return out, nil
}

func (s *SQLStore) ReplaceCategory(ctx context.Context, c model.Category) (_ model.Category, err error) {
	const op = "sql.replace_category"
	defer func(start time.Time) { s.observe("replace_category", start, err) }(time.Now())

	res, err := s.exec(ctx,
		`UPDATE categories SET description = ?, events = ?, players = ?, updated_at = ? WHERE name = ?`,
		c.Description, toJSON(c.Events), toJSON(append([]string{}, c.Players...)), s.d.timeArg(s.now()), c.Name,
	)
	if err != nil {
		return model.Category{}, s.fail(op, err, "category "+c.Name)
	}
	if affected(res) == 0 {
		return model.Category{}, errs.Newf(op, model.ErrNotFound, "category %s", c.Name)
	}
	return s.GetCategory(ctx, c.Name)
}

// FindCategoryByPlayer scans all categories; membership lives in a JSON column.
func (s *SQLStore) FindCategoryByPlayer(ctx context.Context, playerID string) (model.Category, error) {
	all, err := s.ListCategories(ctx)
	if err != nil {
		return model.Category{}, err
	}
	for _, c := range all {
		if c.HasPlayer(playerID) {
			return c, nil
		}
	}
	return model.Category{}, errs.Newf("sql.find_category_by_player", model.ErrNotFound, "no category for player %s", playerID)
}

// Challenges.

const challengeColumns = `id, date_hour_challenge, status, date_hour_request, date_hour_response,
solicitator, category, players, match_id, version, created_at, updated_at`

func scanChallenge(row rowScanner) (model.Challenge, error) {
	var (
		c                              model.Challenge
		status                         string
		proposed, requested, responded timeValue
		created, updated               timeValue
		playersJSON                    []byte
	)
	if err := row.Scan(&c.ID, &proposed, &status, &requested, &responded,
		&c.Solicitator, &c.Category, &playersJSON, &c.Match, &c.Version, &created, &updated); err != nil {
		return model.Challenge{}, err
	}
	if err := fromJSON(playersJSON, &c.Players); err != nil {
		return model.Challenge{}, fmt.Errorf("decode players of challenge %s: %w", c.ID, err)
	}
	c.Status = model.ChallengeStatus(status)
	c.DateHourChallenge = proposed.ptr()
	c.DateHourRequest = requested.Time
	c.DateHourResponse = responded.ptr()
	c.CreatedAt, c.UpdatedAt = created.Time, updated.Time
	return c, nil
}

func (s *SQLStore) InsertChallenge(ctx context.Context, c model.Challenge) (_ model.Challenge, err error) {
	defer func(start time.Time) { s.observe("insert_challenge", start, err) }(time.Now())

	c = cloneChallenge(c)
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.Version = 1
	c.CreatedAt = s.now()
	c.UpdatedAt = c.CreatedAt
	_, err = s.exec(ctx,
		`INSERT INTO challenges (`+challengeColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, s.d.nullTimeArg(c.DateHourChallenge), string(c.Status), s.d.timeArg(c.DateHourRequest),
		s.d.nullTimeArg(c.DateHourResponse), c.Solicitator, c.Category, toJSON(c.Players), c.Match,
		c.Version, s.d.timeArg(c.CreatedAt), s.d.timeArg(c.UpdatedAt),
	)
	if err != nil {
		return model.Challenge{}, s.fail("sql.insert_challenge", err, "challenge "+c.ID)
	}
	return c, nil
}

func (s *SQLStore) GetChallenge(ctx context.Context, id string) (_ model.Challenge, err error) {
	defer func(start time.Time) { s.observe("get_challenge", start, err) }(time.Now())

	c, err := scanChallenge(s.queryRow(ctx, `SELECT `+challengeColumns+` FROM challenges WHERE id = ?`, id))
	if err != nil {
		return model.Challenge{}, s.fail("sql.get_challenge", err, "challenge "+id)
	}
	return c, nil
}

// FindChallenges filters by player membership after loading, since players
// are stored as JSON.
func (s *SQLStore) FindChallenges(ctx context.Context, filter model.ChallengeFilter) (_ []model.Challenge, err error) {
	const op = "sql.find_challenges"
	defer func(start time.Time) { s.observe("find_challenges", start, err) }(time.Now())

	rows, err := s.query(ctx, `SELECT `+challengeColumns+` FROM challenges ORDER BY date_hour_request, id`)
	if err != nil {
		return nil, s.fail(op, err, "challenges")
	}
	defer rows.Close()

	out := []model.Challenge{}
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, s.fail(op, err, "challenges")
		}
		if filter.Matches(c) {
			out = append(out, c)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(op, err, "challenges")
	}
	return out, nil
}

// ReplaceChallenge writes the mutable fields when the stored version still
// equals c.Version.
func (s *SQLStore) ReplaceChallenge(ctx context.Context, c model.Challenge) (_ model.Challenge, err error) {
	const op = "sql.replace_challenge"
	defer func(start time.Time) { s.observe("replace_challenge", start, err) }(time.Now())

	updated := s.now()
	res, err := s.exec(ctx,
		`UPDATE challenges
SET date_hour_challenge = ?, status = ?, date_hour_response = ?, match_id = ?, version = version + 1, updated_at = ?
WHERE id = ? AND version = ?`,
		s.d.nullTimeArg(c.DateHourChallenge), string(c.Status), s.d.nullTimeArg(c.DateHourResponse), c.Match,
		s.d.timeArg(updated), c.ID, c.Version,
	)
	if err != nil {
		return model.Challenge{}, s.fail(op, err, "challenge "+c.ID)
	}
	if affected(res) == 0 {
		var one int
		switch err := s.queryRow(ctx, `SELECT 1 FROM challenges WHERE id = ?`, c.ID).Scan(&one); {
		case errors.Is(err, sql.ErrNoRows):
			return model.Challenge{}, errs.Newf(op, model.ErrNotFound, "challenge %s", c.ID)
		case err != nil:
			return model.Challenge{}, s.fail(op, err, "challenge "+c.ID)
		}
		return model.Challenge{}, errs.Newf(op, model.ErrConflict, "challenge %s changed since version %d", c.ID, c.Version)
	}
	return s.GetChallenge(ctx, c.ID)
}

// Matches.

const matchColumns = `id, category, players, def, result, created_at`

func scanMatch(row rowScanner) (model.Match, error) {
	var (
		m                       model.Match
		playersJSON, resultJSON []byte
		created                 timeValue
	)
	if err := row.Scan(&m.ID, &m.Category, &playersJSON, &m.Def, &resultJSON, &created); err != nil {
		return model.Match{}, err
	}
	if err := fromJSON(playersJSON, &m.Players); err != nil {
		return model.Match{}, fmt.Errorf("decode players of match %s: %w", m.ID, err)
	}
	if err := fromJSON(resultJSON, &m.Result); err != nil {
		return model.Match{}, fmt.Errorf("decode result of match %s: %w", m.ID, err)
	}
	m.CreatedAt = created.Time
	return m, nil
}

func (s *SQLStore) InsertMatch(ctx context.Context, m model.Match) (_ model.Match, err error) {
	defer func(start time.Time) { s.observe("insert_match", start, err) }(time.Now())

	m = cloneMatch(m)
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.CreatedAt = s.now()
	_, err = s.exec(ctx,
		`INSERT INTO matches (`+matchColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		m.ID, m.Category, toJSON(m.Players), m.Def, toJSON(m.Result), s.d.timeArg(m.CreatedAt),
	)
	if err != nil {
		return model.Match{}, s.fail("sql.insert_match", err, "match "+m.ID)
	}
	return m, nil
}

func (s *SQLStore) GetMatch(ctx context.Context, id string) (_ model.Match, err error) {
	defer func(start time.Time) { s.observe("get_match", start, err) }(time.Now())

	m, err := scanMatch(s.queryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE id = ?`, id))
	if err != nil {
		return model.Match{}, s.fail("sql.get_match", err, "match "+id)
	}
	return m, nil
}

func (s *SQLStore) DeleteMatch(ctx context.Context, id string) (err error) {
	defer func(start time.Time) { s.observe("delete_match", start, err) }(time.Now())

	if _, err = s.exec(ctx, `DELETE FROM matches WHERE id = ?`, id); err != nil {
		return s.fail("sql.delete_match", err, "match "+id)
	}
	return nil
}

// Orphans.

func (s *SQLStore) RecordOrphanMatch(ctx context.Context, o model.OrphanMatch) (err error) {
	defer func(start time.Time) { s.observe("record_orphan_match", start, err) }(time.Now())

	_, err = s.exec(ctx,
		`INSERT INTO orphan_matches (match_id, challenge_id, reason, detected_at) VALUES (?, ?, ?, ?)
ON CONFLICT (match_id) DO NOTHING`,
		o.MatchID, o.ChallengeID, o.Reason, s.d.timeArg(o.DetectedAt),
	)
	if err != nil {
		return s.fail("sql.record_orphan_match", err, "orphan "+o.MatchID)
	}
	return nil
}

func (s *SQLStore) ListOrphanMatches(ctx context.Context) ([]model.OrphanMatch, error) {
	const op = "sql.list_orphan_matches"

	rows, err := s.query(ctx, `SELECT match_id, challenge_id, reason, detected_at FROM orphan_matches ORDER BY detected_at`)
	if err != nil {
		return nil, s.fail(op, err, "orphan matches")
	}
	defer rows.Close()

	out := []model.OrphanMatch{}
	for rows.Next() {
		var (
			o        model.OrphanMatch
			detected timeValue
		)
		if err := rows.Scan(&o.MatchID, &o.ChallengeID, &o.Reason, &detected); err != nil {
			return nil, s.fail(op, err, "orphan matches")
		}
		o.DetectedAt = detected.Time
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(op, err, "orphan matches")
	}
	return out, nil
}

// Housekeeping.

func (s *SQLStore) Counts(ctx context.Context) (Counts, error) {
	var c Counts
	for table, dst := range map[string]*int{
		"players":        &c.Players,
		"categories":     &c.Categories,
		"challenges":     &c.Challenges,
		"matches":        &c.Matches,
		"orphan_matches": &c.Orphans,
	} {
		if err := s.queryRow(ctx, `SELECT COUNT(*) FROM `+table).Scan(dst); err != nil {
			return Counts{}, s.fail("sql.counts", err, table)
		}
	}
	return c, nil
}

func (s *SQLStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return errs.WrapKind("sql.ping", model.ErrTransient, err)
	}
	return nil
}

// Close stops background metrics and closes the pool.
func (s *SQLStore) Close() error {
	s.updater.stop()
	return s.db.Close()
}
