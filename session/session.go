// Package session turns typed commands into engine calls for one actor and
// renders the results as text. The CLI and the TUI both drive it.
package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/nathoo/skirmish/engine"
	"github.com/nathoo/skirmish/engine/catalog"
	"github.com/nathoo/skirmish/engine/errs"
	"github.com/nathoo/skirmish/engine/parser"
	"github.com/nathoo/skirmish/engine/resolve"
	"github.com/nathoo/skirmish/engine/save"
	"github.com/nathoo/skirmish/types"
)

// Result is the text produced by one command.
type Result struct {
	Output []string
	Trace  []string
}

// Inventories is implemented by stores that can list an actor's items.
type Inventories interface {
	Inventory(ctx context.Context, actorID string) (map[string]int64, error)
}

// Snapshotter is implemented by stores whose whole contents can be saved
// to and restored from a file.
type Snapshotter interface {
	Export() *save.State
	Import(st *save.State)
}

// Session plays as one actor.
type Session struct {
	Engine  *engine.Engine
	Store   engine.Store
	ActorID string
	SaveDir string

	// AutoMonster resolves the opponent's turn right after the actor's.
	AutoMonster bool
}

// New creates a session for actorID.
func New(eng *engine.Engine, store engine.Store, actorID string) *Session {
	home, _ := os.UserHomeDir()
	return &Session{
		Engine:      eng,
		Store:       store,
		ActorID:     actorID,
		SaveDir:     filepath.Join(home, ".skirmish", "saves"),
		AutoMonster: true,
	}
}

// Step processes one player command.
func (s *Session) Step(ctx context.Context, input string) Result {
	var r Result
	cmd := parser.Parse(input)

	switch cmd.Verb {
	case "":
		r.say("What do you want to do?")

	case parser.VerbEncounter:
		templateID, err := s.opponent(ctx, cmd.Arg)
		if err != nil {
			r.fail(err)
			return r
		}
		snap, err := s.Engine.Encounter(ctx, s.ActorID, templateID)
		if err != nil {
			r.fail(err)
			return r
		}
		r.say(fmt.Sprintf("A %s appears!", monsterLabel(snap.Monster)))
		r.say(describeSnapshot(snap)...)
		r.trace("battle %s created", snap.BattleID)

	case parser.VerbAttack:
		s.act(ctx, &r, types.ActionAttack)

	case parser.VerbSkill:
		s.act(ctx, &r, types.ActionSkill)

	case parser.VerbFlee:
		res, err := s.Engine.Flee(ctx, s.ActorID)
		if err != nil {
			r.fail(err)
			return r
		}
		r.say("You look for an opening...")
		if !res.Success {
			r.say("You can't get away!")
		}
		s.turn(ctx, &r, res.TurnResult, true)

	case parser.VerbWait:
		res, err := s.Engine.ResolveMonsterTurn(ctx, s.ActorID)
		if err != nil {
			r.fail(err)
			return r
		}
		if res.Waiting {
			r.say(fmt.Sprintf("The %s is waiting for you to act.", res.Battle.Monster.Name))
			return r
		}
		s.turn(ctx, &r, res, false)

	case parser.VerbStatus:
		snap, ok, err := s.Engine.Status(ctx, s.ActorID)
		if err != nil {
			r.fail(err)
			return r
		}
		if !ok {
			r.say(s.describeActor(ctx)...)
			r.say("You are not in battle.")
			return r
		}
		r.say(describeSnapshot(snap)...)

	case parser.VerbHistory:
		limit := 0
		if cmd.Arg != "" {
			v, err := strconv.Atoi(cmd.Arg)
			if err != nil {
				r.say(fmt.Sprintf("%q is not a number.", cmd.Arg))
				return r
			}
			limit = v
		}
		recs, err := s.Engine.History(ctx, s.ActorID, limit)
		if err != nil {
			r.fail(err)
			return r
		}
		if len(recs) == 0 {
			r.say("No battles fought yet.")
			return r
		}
		for _, rec := range recs {
			r.say(describeRecord(s.Engine.Catalog, rec))
		}

	case parser.VerbInventory:
		r.say(s.describeInventory(ctx)...)

	case parser.VerbSweep:
		n, err := s.Engine.Sweep(ctx)
		if err != nil {
			r.fail(err)
			return r
		}
		r.say(fmt.Sprintf("Resolved %d stale battle(s).", n))

	default:
		r.say("I don't understand that.")
	}
	return r
}

// act performs an attack or skill and, when enabled, the reply.
func (s *Session) act(ctx context.Context, r *Result, kind types.ActionKind) {
	res, err := s.Engine.Act(ctx, s.ActorID, kind)
	if err != nil {
		r.fail(err)
		return
	}
	s.turn(ctx, r, res, true)
}

// turn renders a turn result and lets the opponent reply to an actor turn.
func (s *Session) turn(ctx context.Context, r *Result, res types.TurnResult, actorTurn bool) {
	if res.Entry != nil {
		if line := describeEntry(*res.Entry, opponentName(res)); line != "" {
			r.say(line)
		}
		r.trace("round %d %s %s damage %s target hp %s",
			res.Entry.Round, res.Entry.Side, actionName(res.Entry.Action), res.Entry.Damage, res.Entry.TargetHP)
	}
	if res.Final != nil {
		r.say(describeResolution(s.Engine.Catalog, *res.Final)...)
		r.trace("record %s settled", res.Final.Record.ID)
		return
	}
	if res.Battle == nil {
		return
	}
	if actorTurn && s.AutoMonster && res.Battle.Phase == types.PhaseMonsterTurn {
		reply, err := s.Engine.ResolveMonsterTurn(ctx, s.ActorID)
		if err != nil {
			r.fail(err)
			return
		}
		s.turn(ctx, r, reply, false)
		return
	}
	r.say(describePools(*res.Battle))
}

func opponentName(res types.TurnResult) string {
	switch {
	case res.Battle != nil:
		return "the " + res.Battle.Monster.Name
	case res.Final != nil && res.Final.Record.MonsterName != "":
		return "the " + res.Final.Record.MonsterName
	default:
		return "the opponent"
	}
}

func describeEntry(e types.LogEntry, monster string) string {
	switch e.Action {
	case types.ActionAttack:
		return fmt.Sprintf("You strike %s for %s damage.", monster, e.Damage)
	case types.ActionSkill:
		return fmt.Sprintf("Your skill hits %s for %s damage.", monster, e.Damage)
	case types.ActionFlee:
		return ""
	case types.ActionMonsterAttack:
		return fmt.Sprintf("%s hits you for %s damage.", capitalize(monster), e.Damage)
	default:
		return fmt.Sprintf("Unknown action %d.", e.Action)
	}
}

func (s *Session) describeActor(ctx context.Context) []string {
	a, err := s.Store.Actor(ctx, s.ActorID)
	if err != nil {
		return []string{describeError(err)}
	}
	return []string{
		fmt.Sprintf("%s (%s) at %s", a.ID, a.Tier, a.Location),
		fmt.Sprintf("HP %s/%s  MP %s/%s  ATK %s  DEF %s  Currency %s",
			a.HP, a.MaxHP, a.MP, a.MaxMP, a.Attack, a.Defense, a.Currency),
	}
}

func (s *Session) describeInventory(ctx context.Context) []string {
	inv, ok := s.Store.(Inventories)
	if !ok {
		return []string{"This store does not track inventories."}
	}
	items, err := inv.Inventory(ctx, s.ActorID)
	if err != nil {
		return []string{describeError(err)}
	}
	if len(items) == 0 {
		return []string{"You are carrying nothing."}
	}
	ids := make([]string, 0, len(items))
	for id := range items {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	lines := []string{"You are carrying:"}
	for _, id := range ids {
		lines = append(lines, fmt.Sprintf("  %s x%d", catalog.ItemName(s.Engine.Catalog, id), items[id]))
	}
	return lines
}

// opponent resolves a typed opponent name against the actor's location.
func (s *Session) opponent(ctx context.Context, name string) (string, error) {
	if name == "" {
		return "", nil
	}
	actor, err := s.Store.Actor(ctx, s.ActorID)
	if err != nil {
		return "", err
	}
	return resolve.Opponent(s.Engine.Catalog, actor.Location, name)
}

// SaveFile writes the store contents and the random source to path.
func (s *Session) SaveFile(path string) error {
	snap, ok := s.Store.(Snapshotter)
	if !ok {
		return errors.New("this store cannot be saved to a file")
	}
	st := snap.Export()
	st.Game = s.Engine.Catalog.Game
	if rng, ok := s.Engine.Dice().(*engine.RNG); ok {
		st.RNGSeed = rng.Seed()
		st.RNGPosition = rng.Position()
	}
	data, err := save.Save(st)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// LoadFile restores the store contents and the random source from path.
func (s *Session) LoadFile(path string) error {
	snap, ok := s.Store.(Snapshotter)
	if !ok {
		return errors.New("this store cannot be loaded from a file")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	st, err := save.Load(data)
	if err != nil {
		return err
	}
	snap.Import(st)
	if st.RNGSeed != 0 || st.RNGPosition != 0 {
		s.Engine.RestoreRNG(st.RNGSeed, st.RNGPosition)
	}
	return nil
}

// Save writes a named save into SaveDir.
func (s *Session) Save(name string) []string {
	if name == "" {
		name = "quicksave"
	}
	if err := s.SaveFile(filepath.Join(s.SaveDir, name+".json")); err != nil {
		return []string{fmt.Sprintf("Save failed: %v", err)}
	}
	return []string{fmt.Sprintf("Game saved to %s.", name)}
}

// Load restores a named save from SaveDir.
func (s *Session) Load(ctx context.Context, name string) []string {
	if name == "" {
		name = "quicksave"
	}
	if err := s.LoadFile(filepath.Join(s.SaveDir, name+".json")); err != nil {
		return []string{fmt.Sprintf("Load failed: %v", err)}
	}
	out := []string{fmt.Sprintf("Game loaded from %s.", name)}
	return append(out, s.Step(ctx, "status").Output...)
}

// State returns debug lines about the actor and the current battle.
func (s *Session) State(ctx context.Context) []string {
	lines := s.describeActor(ctx)
	snap, ok, err := s.Engine.Status(ctx, s.ActorID)
	switch {
	case err != nil:
		lines = append(lines, describeError(err))
	case ok:
		lines = append(lines,
			fmt.Sprintf("Battle: %s", snap.BattleID),
			fmt.Sprintf("Phase: %s  Round: %d  Log entries: %d", phaseName(snap.Phase), snap.Round, len(snap.Log)),
			fmt.Sprintf("Expires: %s", snap.ExpiresAt.Format("2006-01-02 15:04:05")),
		)
	default:
		lines = append(lines, "Battle: none")
	}
	if rng, ok := s.Engine.Dice().(*engine.RNG); ok {
		lines = append(lines, fmt.Sprintf("RNG: seed %d position %d", rng.Seed(), rng.Position()))
	}
	return lines
}

// Status returns the actor's current battle for status displays.
func (s *Session) Status(ctx context.Context) (types.Snapshot, bool) {
	snap, ok, err := s.Engine.Status(ctx, s.ActorID)
	if err != nil {
		return types.Snapshot{}, false
	}
	return snap, ok
}

func (r *Result) say(lines ...string) {
	r.Output = append(r.Output, lines...)
}

func (r *Result) trace(format string, args ...any) {
	r.Trace = append(r.Trace, "[trace] "+fmt.Sprintf(format, args...))
}

func (r *Result) fail(err error) {
	r.say(describeError(err))
	r.trace("%s: %v", errs.KindOf(err), err)
}
