// Package memory implements engine.Store in process memory. Values are
// cloned on the way in and out, so callers never share big.Int storage with
// the store.
package memory

import (
	"context"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/nathoo/skirmish/engine/errs"
	"github.com/nathoo/skirmish/engine/save"
	"github.com/nathoo/skirmish/types"
)

// Store holds actors, battles, inventories and history in maps guarded by
// one mutex.
type Store struct {
	mu        sync.RWMutex
	actors    map[string]*types.ActorSnapshot
	battles   map[string]*types.ActiveBattle
	inventory map[string]map[string]int64
	history   map[string][]types.HistoryRecord // oldest first
}

// NewStore creates a store seeded with actors.
func NewStore(actors ...types.ActorSnapshot) *Store {
	s := &Store{
		actors:    make(map[string]*types.ActorSnapshot, len(actors)),
		battles:   map[string]*types.ActiveBattle{},
		inventory: map[string]map[string]int64{},
		history:   map[string][]types.HistoryRecord{},
	}
	for _, a := range actors {
		a := cloneActor(a)
		s.actors[a.ID] = &a
	}
	return s
}

// PutActor inserts or replaces an actor record.
func (s *Store) PutActor(a types.ActorSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := cloneActor(a)
	s.actors[a.ID] = &c
}

func (s *Store) Actor(ctx context.Context, actorID string) (types.ActorSnapshot, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.actors[actorID]
	if !ok {
		return types.ActorSnapshot{}, errs.With(errs.ErrActorNotFound, "memory: actor %q not found", actorID)
	}
	return cloneActor(*a), nil
}

// Inventory returns a copy of an actor's item quantities.
func (s *Store) Inventory(ctx context.Context, actorID string) (map[string]int64, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := map[string]int64{}
	for id, qty := range s.inventory[actorID] {
		out[id] = qty
	}
	return out, nil
}

func (s *Store) CreateBattle(ctx context.Context, b types.ActiveBattle) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.battles[b.ActorID]; ok {
		return errs.ErrAlreadyInBattle
	}
	c := cloneBattle(b)
	s.battles[b.ActorID] = &c
	return nil
}

func (s *Store) Battle(ctx context.Context, actorID string) (types.ActiveBattle, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.battles[actorID]
	if !ok {
		return types.ActiveBattle{}, errs.ErrBattleNotFound
	}
	return cloneBattle(*b), nil
}

func (s *Store) UpdateBattle(ctx context.Context, b types.ActiveBattle) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.battles[b.ActorID]
	if !ok || cur.ID != b.ID {
		return errs.ErrBattleNotFound
	}
	if cur.Version != b.Version {
		return errs.With(errs.ErrConflict, "memory: battle %s at version %d, update from %d", b.ID, cur.Version, b.Version)
	}
	c := cloneBattle(b)
	c.Version++
	s.battles[b.ActorID] = &c
	return nil
}

func (s *Store) DeleteBattle(ctx context.Context, actorID string) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.battles, actorID)
	return nil
}

func (s *Store) Settle(ctx context.Context, st types.Settlement) error {
	_ = ctx
	s.mu.Lock()
	defer s.mu.Unlock()

	// Validate everything before the first write.
	cur, ok := s.battles[st.ActorID]
	if !ok || cur.ID != st.BattleID {
		return errs.ErrBattleNotFound
	}
	if cur.Version != st.Version {
		return errs.With(errs.ErrConflict, "memory: battle %s at version %d, settle from %d", cur.ID, cur.Version, st.Version)
	}
	actor, ok := s.actors[st.ActorID]
	if !ok {
		return errs.With(errs.ErrActorNotFound, "memory: actor %q not found", st.ActorID)
	}
	for _, g := range st.Items {
		if g.ItemID == "" || g.Quantity <= 0 {
			return errs.Validation("memory: invalid item grant %+v", g)
		}
	}

	if st.ActorHP != nil {
		actor.HP = new(big.Int).Set(st.ActorHP)
	}
	if st.ActorMP != nil {
		actor.MP = new(big.Int).Set(st.ActorMP)
	}
	currency := new(big.Int)
	if actor.Currency != nil {
		currency.Set(actor.Currency)
	}
	if st.CurrencyDelta != nil {
		currency.Add(currency, st.CurrencyDelta)
	}
	if currency.Sign() < 0 {
		currency.SetInt64(0)
	}
	actor.Currency = currency

	if len(st.Items) > 0 {
		inv := s.inventory[st.ActorID]
		if inv == nil {
			inv = map[string]int64{}
			s.inventory[st.ActorID] = inv
		}
		for _, g := range st.Items {
			inv[g.ItemID] += g.Quantity
		}
	}

	s.history[st.ActorID] = append(s.history[st.ActorID], cloneRecord(st.Record))
	delete(s.battles, st.ActorID)
	return nil
}

func (s *Store) History(ctx context.Context, actorID string, limit int) ([]types.HistoryRecord, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs := s.history[actorID]
	out := make([]types.HistoryRecord, 0, min(len(recs), max(limit, 0)))
	for i := len(recs) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, cloneRecord(recs[i]))
	}
	return out, nil
}

func (s *Store) ExpiredBattles(ctx context.Context, now time.Time) ([]types.ActiveBattle, error) {
	_ = ctx
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []types.ActiveBattle
	for _, b := range s.battles {
		if b.ExpiresAt.Before(now) {
			out = append(out, cloneBattle(*b))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ActorID < out[j].ActorID })
	return out, nil
}

// Export copies the whole store into a save state.
func (s *Store) Export() *save.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := &save.State{Inventory: map[string]map[string]int64{}}
	for _, a := range s.actors {
		st.Actors = append(st.Actors, cloneActor(*a))
	}
	for _, b := range s.battles {
		st.Battles = append(st.Battles, cloneBattle(*b))
	}
	for actorID, inv := range s.inventory {
		c := make(map[string]int64, len(inv))
		for id, qty := range inv {
			c[id] = qty
		}
		st.Inventory[actorID] = c
	}
	actorIDs := make([]string, 0, len(s.history))
	for id := range s.history {
		actorIDs = append(actorIDs, id)
	}
	sort.Strings(actorIDs)
	for _, id := range actorIDs {
		for _, r := range s.history[id] {
			st.History = append(st.History, cloneRecord(r))
		}
	}
	return st
}

// Import replaces the store contents with a save state.
func (s *Store) Import(st *save.State) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.actors = map[string]*types.ActorSnapshot{}
	s.battles = map[string]*types.ActiveBattle{}
	s.inventory = map[string]map[string]int64{}
	s.history = map[string][]types.HistoryRecord{}
	for _, a := range st.Actors {
		c := cloneActor(a)
		s.actors[a.ID] = &c
	}
	for _, b := range st.Battles {
		c := cloneBattle(b)
		s.battles[b.ActorID] = &c
	}
	for actorID, inv := range st.Inventory {
		c := make(map[string]int64, len(inv))
		for id, qty := range inv {
			c[id] = qty
		}
		s.inventory[actorID] = c
	}
	for _, r := range st.History {
		s.history[r.ActorID] = append(s.history[r.ActorID], cloneRecord(r))
	}
}

func cloneInt(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}

func cloneActor(a types.ActorSnapshot) types.ActorSnapshot {
	a.HP = cloneInt(a.HP)
	a.MaxHP = cloneInt(a.MaxHP)
	a.MP = cloneInt(a.MP)
	a.MaxMP = cloneInt(a.MaxMP)
	a.Attack = cloneInt(a.Attack)
	a.Defense = cloneInt(a.Defense)
	a.Speed = cloneInt(a.Speed)
	a.Currency = cloneInt(a.Currency)
	return a
}

func cloneBattle(b types.ActiveBattle) types.ActiveBattle {
	m := &b.Monster
	m.MaxHP = cloneInt(m.MaxHP)
	m.HP = cloneInt(m.HP)
	m.Attack = cloneInt(m.Attack)
	m.Defense = cloneInt(m.Defense)
	m.Speed = cloneInt(m.Speed)
	b.ActorHP = cloneInt(b.ActorHP)
	b.ActorMaxHP = cloneInt(b.ActorMaxHP)
	b.ActorMP = cloneInt(b.ActorMP)
	b.ActorMaxMP = cloneInt(b.ActorMaxMP)
	b.ActorAttack = cloneInt(b.ActorAttack)
	b.ActorDefense = cloneInt(b.ActorDefense)
	b.DamageDealt = cloneInt(b.DamageDealt)
	b.DamageTaken = cloneInt(b.DamageTaken)
	log := make([]types.LogEntry, len(b.Log))
	for i, le := range b.Log {
		le.Damage = cloneInt(le.Damage)
		le.TargetHP = cloneInt(le.TargetHP)
		log[i] = le
	}
	b.Log = log
	return b
}

func cloneRecord(r types.HistoryRecord) types.HistoryRecord {
	r.DamageDealt = cloneInt(r.DamageDealt)
	r.DamageTaken = cloneInt(r.DamageTaken)
	r.ActorHP = cloneInt(r.ActorHP)
	r.MonsterHP = cloneInt(r.MonsterHP)
	r.CurrencyDelta = cloneInt(r.CurrencyDelta)
	if r.Items != nil {
		r.Items = append([]types.ItemGrant(nil), r.Items...)
	}
	return r
}
