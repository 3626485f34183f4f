package engine

import (
	"context"
	"errors"
	"math/big"

	"github.com/sirupsen/logrus"

	"github.com/nathoo/skirmish/engine/catalog"
	"github.com/nathoo/skirmish/engine/errs"
	"github.com/nathoo/skirmish/types"
)

// Encounter starts a battle for an actor against an opponent picked from
// the actor's location. A non-empty templateID restricts the pick to that
// template, which must be one of the location's opponents.
func (e *Engine) Encounter(ctx context.Context, actorID, templateID string) (snap types.Snapshot, err error) {
	ctx, span := e.start(ctx, "Encounter", actorID)
	defer func() { end(span, err) }()

	if err := checkActor(actorID); err != nil {
		return types.Snapshot{}, err
	}
	unlock := e.locks.Lock(actorID)
	defer unlock()

	// 1. One battle per actor. CreateBattle enforces this again atomically.
	if _, err := e.store.Battle(ctx, actorID); err == nil {
		return types.Snapshot{}, errs.ErrAlreadyInBattle
	} else if !errors.Is(err, errs.ErrBattleNotFound) {
		return types.Snapshot{}, errs.Internal(err)
	}

	// 2. Read the actor.
	actor, err := e.store.Actor(ctx, actorID)
	if err != nil {
		return types.Snapshot{}, errs.Internal(err)
	}

	// 3. Eligible opponents.
	if templateID != "" {
		if _, ok := catalog.Template(e.Catalog, templateID); !ok {
			return types.Snapshot{}, errs.With(errs.ErrTemplateNotFound, "unknown opponent %q", templateID)
		}
	}
	candidates := catalog.OpponentsAt(e.Catalog, actor.Location, templateID)
	if len(candidates) == 0 {
		return types.Snapshot{}, errs.With(errs.ErrNoOpponentsAvailable, "no opponents available at %q", actor.Location)
	}
	weights := make([]int, len(candidates))
	for i, c := range candidates {
		weights[i] = max(c.Weight, 1)
	}
	tpl := candidates[e.dice.WeightedSelect(weights)]

	// 4. Spawn and persist.
	bal := e.balance()
	now := e.now()
	b := types.ActiveBattle{
		ID:           e.newID(),
		ActorID:      actorID,
		Monster:      Spawn(tpl, catalog.TierIndex(e.Catalog, actor.Tier)),
		Round:        1,
		Phase:        types.PhaseActorTurn,
		ActorHP:      clamp(actor.HP, actor.MaxHP),
		ActorMaxHP:   cp(actor.MaxHP),
		ActorMP:      clamp(actor.MP, actor.MaxMP),
		ActorMaxMP:   cp(actor.MaxMP),
		ActorAttack:  cp(actor.Attack),
		ActorDefense: cp(actor.Defense),
		ActorLuck:    actor.Luck,
		DamageDealt:  new(big.Int),
		DamageTaken:  new(big.Int),
		CreatedAt:    now,
		LastActionAt: now,
		ExpiresAt:    now.Add(bal.BattleTTL),
	}
	if err := e.store.CreateBattle(ctx, b); err != nil {
		return types.Snapshot{}, errs.Internal(err)
	}

	e.logFor(b).WithFields(logrus.Fields{
		"monster": b.Monster.TemplateID,
		"hp":      b.Monster.HP.String(),
	}).Info("battle started")
	return snapshotOf(b), nil
}

// Act performs the actor's attack or skill.
func (e *Engine) Act(ctx context.Context, actorID string, kind types.ActionKind) (res types.TurnResult, err error) {
	ctx, span := e.start(ctx, "Act", actorID)
	defer func() { end(span, err) }()

	if err := checkActor(actorID); err != nil {
		return types.TurnResult{}, err
	}
	unlock := e.locks.Lock(actorID)
	defer unlock()

	b, err := e.battle(ctx, actorID)
	if err != nil {
		return types.TurnResult{}, err
	}
	if b.Phase != types.PhaseActorTurn {
		return types.TurnResult{}, errs.ErrNotYourTurn
	}

	bal := e.balance()
	var damage *big.Int
	switch kind {
	case types.ActionAttack:
		damage, _ = DamageCalc(b.ActorAttack, b.Monster.Defense, bal.AttackJitter, e.dice)
	case types.ActionSkill:
		if b.ActorMP.Cmp(cp(bal.SkillCost)) < 0 {
			return types.TurnResult{}, errs.With(errs.ErrInsufficientResource,
				"skill needs %s mp, have %s", cp(bal.SkillCost), b.ActorMP)
		}
		b.ActorMP = sub(b.ActorMP, bal.SkillCost)
		damage, _ = SkillDamageCalc(b.ActorAttack, b.Monster.Defense, bal.SkillMultiplier, bal.SkillJitter, e.dice)
	case types.ActionFlee:
		return types.TurnResult{}, errs.Validation("flee is its own operation")
	case types.ActionMonsterAttack:
		return types.TurnResult{}, errs.Validation("monster attacks are resolved by the monster turn")
	default:
		return types.TurnResult{}, errs.Validation("unknown action %d", kind)
	}

	b.Monster.HP = sub(b.Monster.HP, damage)
	b.DamageDealt.Add(b.DamageDealt, damage)
	entry := e.record(&b, types.SideActor, kind, damage, b.Monster.HP)

	if b.Monster.HP.Sign() == 0 {
		return e.terminal(ctx, b, entry, types.OutcomeWin)
	}
	b.Phase = types.PhaseMonsterTurn
	return e.advance(ctx, b, entry)
}

// Flee attempts to leave the battle. A failed attempt uses up the actor's
// turn without dealing or taking damage.
func (e *Engine) Flee(ctx context.Context, actorID string) (res types.FleeResult, err error) {
	ctx, span := e.start(ctx, "Flee", actorID)
	defer func() { end(span, err) }()

	if err := checkActor(actorID); err != nil {
		return types.FleeResult{}, err
	}
	unlock := e.locks.Lock(actorID)
	defer unlock()

	b, err := e.battle(ctx, actorID)
	if err != nil {
		return types.FleeResult{}, err
	}
	if b.Phase != types.PhaseActorTurn {
		return types.FleeResult{}, errs.ErrNotYourTurn
	}

	success := e.dice.Chance(e.balance().FleeChance)
	entry := e.record(&b, types.SideActor, types.ActionFlee, new(big.Int), b.Monster.HP)
	if success {
		tr, err := e.terminal(ctx, b, entry, types.OutcomeFlee)
		return types.FleeResult{Success: err == nil, TurnResult: tr}, err
	}
	b.Phase = types.PhaseMonsterTurn
	tr, err := e.advance(ctx, b, entry)
	return types.FleeResult{TurnResult: tr}, err
}

// ResolveMonsterTurn lets the opponent attack. When the battle is waiting
// on the actor it returns Waiting with the current snapshot.
func (e *Engine) ResolveMonsterTurn(ctx context.Context, actorID string) (res types.TurnResult, err error) {
	ctx, span := e.start(ctx, "ResolveMonsterTurn", actorID)
	defer func() { end(span, err) }()

	if err := checkActor(actorID); err != nil {
		return types.TurnResult{}, err
	}
	unlock := e.locks.Lock(actorID)
	defer unlock()

	b, err := e.battle(ctx, actorID)
	if err != nil {
		return types.TurnResult{}, err
	}
	if b.Phase != types.PhaseMonsterTurn {
		snap := snapshotOf(b)
		return types.TurnResult{Battle: &snap, Waiting: true}, nil
	}

	damage, _ := DamageCalc(b.Monster.Attack, b.ActorDefense, e.balance().MonsterJitter, e.dice)
	b.ActorHP = sub(b.ActorHP, damage)
	b.DamageTaken.Add(b.DamageTaken, damage)
	entry := e.record(&b, types.SideMonster, types.ActionMonsterAttack, damage, b.ActorHP)

	if b.ActorHP.Sign() == 0 {
		return e.terminal(ctx, b, entry, types.OutcomeLose)
	}
	b.Round++
	b.Phase = types.PhaseActorTurn
	return e.advance(ctx, b, entry)
}

// battle loads the actor's active battle.
func (e *Engine) battle(ctx context.Context, actorID string) (types.ActiveBattle, error) {
	b, err := e.store.Battle(ctx, actorID)
	if err != nil {
		return types.ActiveBattle{}, errs.Internal(err)
	}
	return b, nil
}

// record appends a log entry to b and refreshes its expiry.
func (e *Engine) record(b *types.ActiveBattle, side types.Side, kind types.ActionKind, damage, targetHP *big.Int) types.LogEntry {
	now := e.now()
	entry := types.LogEntry{
		Round:    b.Round,
		Side:     side,
		Action:   kind,
		Damage:   cp(damage),
		TargetHP: cp(targetHP),
		At:       now,
	}
	b.Log = append(b.Log, entry)
	b.LastActionAt = now
	b.ExpiresAt = now.Add(e.balance().BattleTTL)
	return entry
}

// advance persists a battle that continues.
func (e *Engine) advance(ctx context.Context, b types.ActiveBattle, entry types.LogEntry) (types.TurnResult, error) {
	if err := e.store.UpdateBattle(ctx, b); err != nil {
		return types.TurnResult{}, errs.Internal(err)
	}
	e.logFor(b).WithFields(logrus.Fields{
		"side":   entry.Side,
		"damage": entry.Damage.String(),
	}).Debug("turn resolved")
	snap := snapshotOf(b)
	return types.TurnResult{Entry: &entry, Battle: &snap}, nil
}

// terminal settles a battle that just ended.
func (e *Engine) terminal(ctx context.Context, b types.ActiveBattle, entry types.LogEntry, outcome types.Outcome) (types.TurnResult, error) {
	final, err := e.finish(ctx, b, outcome)
	if err != nil {
		return types.TurnResult{}, err
	}
	return types.TurnResult{Entry: &entry, Final: &final}, nil
}

// finish computes and applies the settlement of b. Nothing is applied when
// the store rejects it.
func (e *Engine) finish(ctx context.Context, b types.ActiveBattle, outcome types.Outcome) (types.Resolution, error) {
	actor, err := e.store.Actor(ctx, b.ActorID)
	if err != nil {
		return types.Resolution{}, errs.Internal(err)
	}

	s := e.settlement(b, actor, outcome)
	if err := e.store.Settle(ctx, s); err != nil {
		return types.Resolution{}, errs.Internal(err)
	}

	e.logFor(b).WithFields(logrus.Fields{
		"outcome":  outcome,
		"currency": s.CurrencyDelta.String(),
		"items":    len(s.Items),
	}).Info("battle ended")

	return types.Resolution{
		Outcome:       outcome,
		CurrencyDelta: cp(s.CurrencyDelta),
		Items:         s.Items,
		ActorHP:       cp(s.ActorHP),
		Record:        s.Record,
	}, nil
}
