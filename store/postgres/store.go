// Package postgres implements engine.Store on PostgreSQL through lib/pq.
// Stats and currency are NUMERIC columns so they keep arbitrary precision;
// battles and history records are JSONB documents in the save format.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"math/big"
	"time"

	"github.com/lib/pq"
	"github.com/samber/oops"

	"github.com/nathoo/skirmish/engine/errs"
	"github.com/nathoo/skirmish/engine/save"
	"github.com/nathoo/skirmish/types"
)

//go:embed schema.sql
var schema string

// uniqueViolation is the SQLSTATE of a unique or primary key conflict.
const uniqueViolation = "23505"

// Store keeps combat state in PostgreSQL. It is safe for concurrent use;
// every multi-row write runs in one transaction.
type Store struct {
	db *sql.DB
}

// Open connects to dsn, checks the connection and applies the schema.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, oops.Wrapf(err, "open postgres")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, oops.Wrapf(err, "ping postgres")
	}
	s := New(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an open database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return oops.Wrapf(err, "apply schema")
	}
	return nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SeedActors inserts actors that are not stored yet. Existing records are
// left untouched so progress survives a restart.
func (s *Store) SeedActors(ctx context.Context, actors ...types.ActorSnapshot) error {
	for _, a := range actors {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO actors (id, location, tier, hp, max_hp, mp, max_mp, attack, defense, speed, currency, luck)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
			ON CONFLICT (id) DO NOTHING`,
			a.ID, a.Location, a.Tier,
			save.Int(a.HP), save.Int(a.MaxHP), save.Int(a.MP), save.Int(a.MaxMP),
			save.Int(a.Attack), save.Int(a.Defense), save.Int(a.Speed), save.Int(a.Currency),
			a.Luck,
		)
		if err != nil {
			return oops.Wrapf(err, "seed actor %s", a.ID)
		}
	}
	return nil
}

func (s *Store) Actor(ctx context.Context, actorID string) (types.ActorSnapshot, error) {
	a := types.ActorSnapshot{ID: actorID}
	var hp, maxHP, mp, maxMP, attack, defense, speed, currency string
	err := s.db.QueryRowContext(ctx, `
		SELECT location, tier, hp, max_hp, mp, max_mp, attack, defense, speed, currency, luck
		FROM actors WHERE id = $1`, actorID,
	).Scan(&a.Location, &a.Tier, &hp, &maxHP, &mp, &maxMP, &attack, &defense, &speed, &currency, &a.Luck)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ActorSnapshot{}, errs.With(errs.ErrActorNotFound, "postgres: actor %q not found", actorID)
	}
	if err != nil {
		return types.ActorSnapshot{}, oops.Wrapf(err, "query actor %s", actorID)
	}

	p := numbers{}
	a.HP = p.parse(hp)
	a.MaxHP = p.parse(maxHP)
	a.MP = p.parse(mp)
	a.MaxMP = p.parse(maxMP)
	a.Attack = p.parse(attack)
	a.Defense = p.parse(defense)
	a.Speed = p.parse(speed)
	a.Currency = p.parse(currency)
	if p.err != nil {
		return types.ActorSnapshot{}, oops.Wrapf(p.err, "decode actor %s", actorID)
	}
	return a, nil
}

// Inventory returns an actor's item quantities.
func (s *Store) Inventory(ctx context.Context, actorID string) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT item_id, quantity FROM inventory WHERE actor_id = $1`, actorID)
	if err != nil {
		return nil, oops.Wrapf(err, "query inventory %s", actorID)
	}
	defer rows.Close()

	out := map[string]int64{}
	for rows.Next() {
		var id string
		var qty int64
		if err := rows.Scan(&id, &qty); err != nil {
			return nil, oops.Wrapf(err, "scan inventory %s", actorID)
		}
		out[id] = qty
	}
	return out, rows.Err()
}

func (s *Store) CreateBattle(ctx context.Context, b types.ActiveBattle) error {
	data, err := save.MarshalBattle(b)
	if err != nil {
		return oops.Wrapf(err, "encode battle %s", b.ID)
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO battles (actor_id, id, version, expires_at, data)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (actor_id) DO NOTHING`,
		b.ActorID, b.ID, b.Version, b.ExpiresAt, data,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return errs.With(errs.ErrConflict, "postgres: battle id %s already used", b.ID)
		}
		return oops.Wrapf(err, "insert battle %s", b.ID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.ErrAlreadyInBattle
	}
	return nil
}

func (s *Store) Battle(ctx context.Context, actorID string) (types.ActiveBattle, error) {
	var (
		version int64
		data    []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT version, data FROM battles WHERE actor_id = $1`, actorID,
	).Scan(&version, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return types.ActiveBattle{}, errs.ErrBattleNotFound
	}
	if err != nil {
		return types.ActiveBattle{}, oops.Wrapf(err, "query battle of %s", actorID)
	}
	return decodeBattle(version, data)
}

func (s *Store) UpdateBattle(ctx context.Context, b types.ActiveBattle) error {
	next := b
	next.Version = b.Version + 1
	data, err := save.MarshalBattle(next)
	if err != nil {
		return oops.Wrapf(err, "encode battle %s", b.ID)
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE battles SET version = version + 1, expires_at = $1, data = $2
		WHERE actor_id = $3 AND id = $4 AND version = $5`,
		b.ExpiresAt, data, b.ActorID, b.ID, b.Version,
	)
	if err != nil {
		return oops.Wrapf(err, "update battle %s", b.ID)
	}
	if n, _ := res.RowsAffected(); n == 1 {
		return nil
	}

	// Nothing matched: tell a missing battle from a stale version.
	var current int64
	err = s.db.QueryRowContext(ctx,
		`SELECT version FROM battles WHERE actor_id = $1 AND id = $2`, b.ActorID, b.ID,
	).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return errs.ErrBattleNotFound
	}
	if err != nil {
		return oops.Wrapf(err, "query battle %s", b.ID)
	}
	return errs.With(errs.ErrConflict, "postgres: battle %s at version %d, update from %d", b.ID, current, b.Version)
}

func (s *Store) DeleteBattle(ctx context.Context, actorID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM battles WHERE actor_id = $1`, actorID); err != nil {
		return oops.Wrapf(err, "delete battle of %s", actorID)
	}
	return nil
}

func (s *Store) Settle(ctx context.Context, st types.Settlement) (err error) {
	for _, g := range st.Items {
		if g.ItemID == "" || g.Quantity <= 0 {
			return errs.Validation("postgres: invalid item grant %+v", g)
		}
	}
	record, err := json.Marshal(save.EncodeRecord(st.Record))
	if err != nil {
		return oops.Wrapf(err, "encode record %s", st.Record.ID)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return oops.Wrapf(err, "begin settle %s", st.BattleID)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var (
		battleID string
		version  int64
	)
	err = tx.QueryRowContext(ctx,
		`SELECT id, version FROM battles WHERE actor_id = $1 FOR UPDATE`, st.ActorID,
	).Scan(&battleID, &version)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && battleID != st.BattleID) {
		return errs.ErrBattleNotFound
	}
	if err != nil {
		return oops.Wrapf(err, "lock battle %s", st.BattleID)
	}
	if version != st.Version {
		return errs.With(errs.ErrConflict, "postgres: battle %s at version %d, settle from %d", battleID, version, st.Version)
	}

	// A nil pool keeps the stored value.
	res, err := tx.ExecContext(ctx, `
		UPDATE actors SET
			hp = COALESCE($2::numeric, hp),
			mp = COALESCE($3::numeric, mp),
			currency = GREATEST(0, currency + $4::numeric)
		WHERE id = $1`,
		st.ActorID, nullInt(st.ActorHP), nullInt(st.ActorMP), save.Int(st.CurrencyDelta),
	)
	if err != nil {
		return oops.Wrapf(err, "update actor %s", st.ActorID)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return errs.With(errs.ErrActorNotFound, "postgres: actor %q not found", st.ActorID)
	}

	for _, g := range st.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO inventory (actor_id, item_id, quantity) VALUES ($1, $2, $3)
			ON CONFLICT (actor_id, item_id) DO UPDATE SET quantity = inventory.quantity + EXCLUDED.quantity`,
			st.ActorID, g.ItemID, g.Quantity,
		)
		if err != nil {
			return oops.Wrapf(err, "grant %s to %s", g.ItemID, st.ActorID)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO history (id, actor_id, battle_id, ended_at, data) VALUES ($1, $2, $3, $4, $5)`,
		st.Record.ID, st.ActorID, st.BattleID, st.Record.EndedAt, record,
	)
	if err != nil {
		return oops.Wrapf(err, "insert record %s", st.Record.ID)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM battles WHERE actor_id = $1`, st.ActorID); err != nil {
		return oops.Wrapf(err, "delete battle %s", st.BattleID)
	}
	if err = tx.Commit(); err != nil {
		return oops.Wrapf(err, "commit settle %s", st.BattleID)
	}
	return nil
}

func (s *Store) History(ctx context.Context, actorID string, limit int) ([]types.HistoryRecord, error) {
	if limit <= 0 {
		return []types.HistoryRecord{}, nil
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT data FROM history WHERE actor_id = $1
		ORDER BY ended_at DESC, id DESC
		LIMIT $2`, actorID, limit)
	if err != nil {
		return nil, oops.Wrapf(err, "query history %s", actorID)
	}
	defer rows.Close()

	out := []types.HistoryRecord{}
	for rows.Next() {
		var data []byte
		if err := rows.Scan(&data); err != nil {
			return nil, oops.Wrapf(err, "scan history %s", actorID)
		}
		var rec save.Record
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, oops.Wrapf(err, "decode history %s", actorID)
		}
		r, err := save.DecodeRecord(rec)
		if err != nil {
			return nil, oops.Wrapf(err, "decode history %s", actorID)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) ExpiredBattles(ctx context.Context, now time.Time) ([]types.ActiveBattle, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT version, data FROM battles WHERE expires_at < $1 ORDER BY actor_id`, now)
	if err != nil {
		return nil, oops.Wrapf(err, "query expired battles")
	}
	defer rows.Close()

	var out []types.ActiveBattle
	for rows.Next() {
		var (
			version int64
			data    []byte
		)
		if err := rows.Scan(&version, &data); err != nil {
			return nil, oops.Wrapf(err, "scan expired battle")
		}
		b, err := decodeBattle(version, data)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

// decodeBattle trusts the version column over the document.
func decodeBattle(version int64, data []byte) (types.ActiveBattle, error) {
	b, err := save.UnmarshalBattle(data)
	if err != nil {
		return types.ActiveBattle{}, oops.Wrapf(err, "decode battle")
	}
	b.Version = version
	return b, nil
}

func nullInt(v *big.Int) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: v.String(), Valid: true}
}

// numbers parses NUMERIC columns, keeping the first failure.
type numbers struct {
	err error
}

func (p *numbers) parse(s string) *big.Int {
	v, err := save.ParseInt(s)
	if err != nil {
		if p.err == nil {
			p.err = err
		}
		return new(big.Int)
	}
	return v
}
