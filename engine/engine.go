// Package engine runs persistent turn-based battles between an actor and a
// generated opponent. Every operation is a request/response step against a
// Store; nothing drives a battle in the background.
package engine

import (
	"context"
	"errors"
	"io"
	"math/big"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/nathoo/skirmish/engine/catalog"
	"github.com/nathoo/skirmish/engine/errs"
	"github.com/nathoo/skirmish/types"
)

const tracerName = "github.com/nathoo/skirmish/engine"

const (
	maxHistoryLimit = 100
	sweepWorkers    = 4
)

// Engine holds the catalog, the store and the random source.
type Engine struct {
	Catalog *catalog.Catalog

	store  Store
	dice   Dice
	log    logrus.FieldLogger
	tracer trace.Tracer
	clock  func() time.Time
	newID  func() string
	locks  *keyLock
}

// Option configures an Engine.
type Option func(*Engine)

// WithDice sets the random source. The default is an RNG seeded from the clock.
func WithDice(d Dice) Option {
	return func(e *Engine) { e.dice = d }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logrus.FieldLogger) Option {
	return func(e *Engine) { e.log = l }
}

// WithClock sets the time source.
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) { e.clock = clock }
}

// WithIDs sets the battle id generator. The default produces random UUIDs.
func WithIDs(newID func() string) Option {
	return func(e *Engine) { e.newID = newID }
}

// New creates an engine over a store and a compiled catalog.
func New(store Store, cat *catalog.Catalog, opts ...Option) *Engine {
	e := &Engine{
		Catalog: cat,
		store:   store,
		tracer:  otel.Tracer(tracerName),
		clock:   time.Now,
		newID:   uuid.NewString,
		locks:   newKeyLock(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.Catalog == nil {
		e.Catalog = catalog.New()
	}
	if e.dice == nil {
		e.dice = NewRNG(e.clock().UnixNano())
	}
	if e.log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		e.log = l
	}
	return e
}

// Dice returns the engine's random source.
func (e *Engine) Dice() Dice {
	return e.dice
}

// RestoreRNG replaces the random source with an RNG advanced to position.
// It must not be called while other operations are running.
func (e *Engine) RestoreRNG(seed, position int64) {
	e.dice = RestoreRNG(seed, position)
}

func (e *Engine) now() time.Time {
	return e.clock().UTC()
}

func (e *Engine) balance() types.Balance {
	return e.Catalog.Balance
}

// start opens a span for one engine operation.
func (e *Engine) start(ctx context.Context, op, actorID string) (context.Context, trace.Span) {
	return e.tracer.Start(ctx, "engine."+op, trace.WithAttributes(attribute.String("actor.id", actorID)))
}

// end records err on span and closes it.
func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, errs.KindOf(err).String())
	}
	span.End()
}

func (e *Engine) logFor(b types.ActiveBattle) logrus.FieldLogger {
	return e.log.WithFields(logrus.Fields{
		"component": "combat",
		"actor_id":  b.ActorID,
		"battle_id": b.ID,
		"round":     b.Round,
	})
}

func checkActor(actorID string) error {
	if actorID == "" {
		return errs.Validation("actor id is required")
	}
	return nil
}

// Status returns the actor's current battle. ok is false when the actor is
// not in battle.
func (e *Engine) Status(ctx context.Context, actorID string) (snap types.Snapshot, ok bool, err error) {
	ctx, span := e.start(ctx, "Status", actorID)
	defer func() { end(span, err) }()

	if err := checkActor(actorID); err != nil {
		return types.Snapshot{}, false, err
	}
	b, err := e.store.Battle(ctx, actorID)
	if errors.Is(err, errs.ErrBattleNotFound) {
		return types.Snapshot{}, false, nil
	}
	if err != nil {
		return types.Snapshot{}, false, errs.Internal(err)
	}
	return snapshotOf(b), true, nil
}

// InCombat reports whether the actor has an active battle.
func (e *Engine) InCombat(ctx context.Context, actorID string) (bool, error) {
	_, ok, err := e.Status(ctx, actorID)
	return ok, err
}

// History returns the actor's finished battles, most recent first. A zero
// limit uses the configured default; limits above 100 are capped.
func (e *Engine) History(ctx context.Context, actorID string, limit int) (recs []types.HistoryRecord, err error) {
	ctx, span := e.start(ctx, "History", actorID)
	defer func() { end(span, err) }()

	if err := checkActor(actorID); err != nil {
		return nil, err
	}
	switch {
	case limit < 0:
		return nil, errs.Validation("history limit must not be negative, got %d", limit)
	case limit == 0:
		limit = e.balance().HistoryLimit
		if limit <= 0 {
			limit = catalog.DefaultBalance().HistoryLimit
		}
	}
	if limit > maxHistoryLimit {
		limit = maxHistoryLimit
	}
	recs, err = e.store.History(ctx, actorID, limit)
	if err != nil {
		return nil, errs.Internal(err)
	}
	return recs, nil
}

// Sweep resolves battles past their expiry according to the stale policy
// and returns how many were resolved. With the keep policy it does nothing.
func (e *Engine) Sweep(ctx context.Context) (resolved int, err error) {
	ctx, span := e.start(ctx, "Sweep", "")
	defer func() { end(span, err) }()

	var outcome types.Outcome
	switch e.balance().StalePolicy {
	case types.StaleFlee:
		outcome = types.OutcomeFlee
	case types.StaleLose:
		outcome = types.OutcomeLose
	default:
		return 0, nil
	}

	now := e.now()
	expired, err := e.store.ExpiredBattles(ctx, now)
	if err != nil {
		return 0, errs.Internal(err)
	}

	var count atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sweepWorkers)
	for _, b := range expired {
		actorID := b.ActorID
		g.Go(func() error {
			done, err := e.expire(gctx, actorID, outcome, now)
			if done {
				count.Add(1)
			}
			return err
		})
	}
	err = g.Wait()
	return int(count.Load()), err
}

// expire settles one stale battle, rechecking it under the actor's lock.
func (e *Engine) expire(ctx context.Context, actorID string, outcome types.Outcome, now time.Time) (bool, error) {
	unlock := e.locks.Lock(actorID)
	defer unlock()

	b, err := e.store.Battle(ctx, actorID)
	if errors.Is(err, errs.ErrBattleNotFound) {
		return false, nil
	}
	if err != nil {
		return false, errs.Internal(err)
	}
	if !b.ExpiresAt.Before(now) {
		return false, nil
	}
	if _, err := e.finish(ctx, b, outcome); err != nil {
		return false, err
	}
	e.logFor(b).WithField("outcome", outcome).Info("stale battle resolved")
	return true, nil
}

// snapshotOf copies a battle into its external view with hp and mp clamped.
func snapshotOf(b types.ActiveBattle) types.Snapshot {
	m := b.Monster
	monster := types.MonsterInstance{
		TemplateID: m.TemplateID,
		Name:       m.Name,
		Tier:       m.Tier,
		MaxHP:      cp(m.MaxHP),
		HP:         clamp(m.HP, m.MaxHP),
		Attack:     cp(m.Attack),
		Defense:    cp(m.Defense),
		Speed:      cp(m.Speed),
		RewardID:   m.RewardID,
	}
	return types.Snapshot{
		BattleID:     b.ID,
		ActorID:      b.ActorID,
		Monster:      monster,
		Round:        b.Round,
		Phase:        b.Phase,
		ActorHP:      clamp(b.ActorHP, b.ActorMaxHP),
		ActorMaxHP:   cp(b.ActorMaxHP),
		ActorMP:      clamp(b.ActorMP, b.ActorMaxMP),
		ActorMaxMP:   cp(b.ActorMaxMP),
		DamageDealt:  cp(b.DamageDealt),
		DamageTaken:  cp(b.DamageTaken),
		Log:          copyLog(b.Log),
		CreatedAt:    b.CreatedAt,
		LastActionAt: b.LastActionAt,
		ExpiresAt:    b.ExpiresAt,
	}
}

func copyLog(log []types.LogEntry) []types.LogEntry {
	out := make([]types.LogEntry, len(log))
	for i, le := range log {
		out[i] = le
		out[i].Damage = cp(le.Damage)
		out[i].TargetHP = cp(le.TargetHP)
	}
	return out
}

// sub returns max(0, a-b).
func sub(a, b *big.Int) *big.Int {
	out := new(big.Int).Sub(cp(a), cp(b))
	if out.Sign() < 0 {
		out.SetInt64(0)
	}
	return out
}
