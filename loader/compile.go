// Package loader compiles Lua catalog files into an immutable
// catalog.Catalog. The Lua VM is discarded after loading; nothing runs Lua
// during combat.
package loader

import (
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/shopspring/decimal"
	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/skirmish/engine/catalog"
	"github.com/nathoo/skirmish/engine/save"
	"github.com/nathoo/skirmish/types"
)

// maxExactInt is the largest integer a Lua number holds exactly. Bigger
// values must be written as strings.
const maxExactInt = 1 << 53

// getString returns a string field from a Lua table, or "" if missing.
func getString(tbl *lua.LTable, key string) string {
	if s, ok := tbl.RawGetString(key).(lua.LString); ok {
		return string(s)
	}
	return ""
}

// getTable returns a table field from a Lua table, or nil if missing.
func getTable(tbl *lua.LTable, key string) *lua.LTable {
	if t, ok := tbl.RawGetString(key).(*lua.LTable); ok {
		return t
	}
	return nil
}

// getBig reads an integer field written as a Lua number or a string.
// Missing fields yield def.
func getBig(tbl *lua.LTable, key string, def int64) (*big.Int, error) {
	switch v := tbl.RawGetString(key).(type) {
	case *lua.LNilType:
		return big.NewInt(def), nil
	case lua.LNumber:
		f := float64(v)
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("%s: %v is not a whole number", key, f)
		}
		if math.Abs(f) > maxExactInt {
			return nil, fmt.Errorf("%s: %v is beyond 2^53, write it as a string", key, f)
		}
		return big.NewInt(int64(f)), nil
	case lua.LString:
		n, err := save.ParseInt(string(v))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", key, err)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("%s: expected a number or a string, got %s", key, v.Type())
	}
}

// getInt64 reads a small integer field.
func getInt64(tbl *lua.LTable, key string, def int64) (int64, error) {
	n, err := getBig(tbl, key, def)
	if err != nil {
		return 0, err
	}
	if !n.IsInt64() {
		return 0, fmt.Errorf("%s: %s is out of range", key, n)
	}
	return n.Int64(), nil
}

// getDecimal reads a fractional field. Strings keep their exact value.
func getDecimal(tbl *lua.LTable, key string, def decimal.Decimal) (decimal.Decimal, error) {
	switch v := tbl.RawGetString(key).(type) {
	case *lua.LNilType:
		return def, nil
	case lua.LNumber:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return decimal.Zero, fmt.Errorf("%s: %v is not a number", key, f)
		}
		return decimal.NewFromFloat(f), nil
	case lua.LString:
		d, err := decimal.NewFromString(string(v))
		if err != nil {
			return decimal.Zero, fmt.Errorf("%s: %w", key, err)
		}
		return d, nil
	default:
		return decimal.Zero, fmt.Errorf("%s: expected a number or a string, got %s", key, v.Type())
	}
}

// getDuration reads a Go duration string ("30m") or a number of seconds.
func getDuration(tbl *lua.LTable, key string, def time.Duration) (time.Duration, error) {
	switch v := tbl.RawGetString(key).(type) {
	case *lua.LNilType:
		return def, nil
	case lua.LNumber:
		return time.Duration(float64(v) * float64(time.Second)), nil
	case lua.LString:
		d, err := time.ParseDuration(string(v))
		if err != nil {
			return 0, fmt.Errorf("%s: %w", key, err)
		}
		return d, nil
	default:
		return 0, fmt.Errorf("%s: expected a duration, got %s", key, v.Type())
	}
}

// stringList converts the array part of a Lua table to strings.
func stringList(tbl *lua.LTable) []string {
	if tbl == nil {
		return nil
	}
	var out []string
	for i := 1; i <= tbl.MaxN(); i++ {
		if s, ok := tbl.RawGetInt(i).(lua.LString); ok {
			out = append(out, string(s))
		}
	}
	return out
}

// fields reads a sequence of fields, stopping at the first failure.
type fields struct {
	tbl *lua.LTable
	err error
}

func (f *fields) big(key string, def int64) *big.Int {
	if f.err != nil {
		return new(big.Int)
	}
	v, err := getBig(f.tbl, key, def)
	f.err = err
	if err != nil {
		return new(big.Int)
	}
	return v
}

func (f *fields) int64(key string, def int64) int64 {
	if f.err != nil {
		return 0
	}
	v, err := getInt64(f.tbl, key, def)
	f.err = err
	return v
}

func (f *fields) int(key string, def int) int {
	v := f.int64(key, int64(def))
	if f.err == nil && (v > math.MaxInt32 || v < math.MinInt32) {
		f.err = fmt.Errorf("%s: %d is out of range", key, v)
	}
	return int(v)
}

func (f *fields) decimal(key string, def decimal.Decimal) decimal.Decimal {
	if f.err != nil {
		return def
	}
	v, err := getDecimal(f.tbl, key, def)
	f.err = err
	return v
}

func (f *fields) duration(key string, def time.Duration) time.Duration {
	if f.err != nil {
		return def
	}
	v, err := getDuration(f.tbl, key, def)
	f.err = err
	return v
}

// compile converts all collected Lua data into a catalog.
func compile(coll *collector) (*catalog.Catalog, error) {
	cat := catalog.New()

	if coll.game == nil {
		return nil, fmt.Errorf("no Game{} definition found")
	}
	cat.Game = compileGame(coll.game)

	if coll.tiers != nil {
		cat.Tiers = stringList(coll.tiers)
	}

	if coll.balance != nil {
		bal, err := compileBalance(coll.balance, cat.Balance)
		if err != nil {
			return nil, fmt.Errorf("compiling Balance: %w", err)
		}
		cat.Balance = bal
	}

	for _, raw := range coll.items {
		if _, dup := cat.Items[raw.id]; dup {
			return nil, fmt.Errorf("duplicate item %q in %s", raw.id, raw.file)
		}
		cat.Items[raw.id] = types.ItemDef{ID: raw.id, Name: getString(raw.table, "name")}
	}

	for _, raw := range coll.monsters {
		if _, dup := cat.Templates[raw.id]; dup {
			return nil, fmt.Errorf("duplicate monster %q in %s", raw.id, raw.file)
		}
		tpl, err := compileMonster(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling monster %s: %w", raw.id, err)
		}
		cat.Templates[raw.id] = tpl
	}

	for _, raw := range coll.drops {
		if _, dup := cat.Drops[raw.id]; dup {
			return nil, fmt.Errorf("duplicate drops %q in %s", raw.id, raw.file)
		}
		table, err := compileDrops(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling drops %s: %w", raw.id, err)
		}
		cat.Drops[raw.id] = table
	}

	for _, raw := range coll.locations {
		if _, dup := cat.Locations[raw.id]; dup {
			return nil, fmt.Errorf("duplicate location %q in %s", raw.id, raw.file)
		}
		cat.Locations[raw.id] = stringList(getTable(raw.table, "monsters"))
	}

	for _, raw := range coll.actors {
		if _, dup := cat.Actors[raw.id]; dup {
			return nil, fmt.Errorf("duplicate actor %q in %s", raw.id, raw.file)
		}
		actor, err := compileActor(raw)
		if err != nil {
			return nil, fmt.Errorf("compiling actor %s: %w", raw.id, err)
		}
		cat.Actors[raw.id] = actor
	}

	return cat, nil
}

func compileGame(tbl *lua.LTable) types.GameDef {
	return types.GameDef{
		Title:   getString(tbl, "title"),
		Author:  getString(tbl, "author"),
		Version: getString(tbl, "version"),
		Start:   getString(tbl, "start"),
		Intro:   getString(tbl, "intro"),
	}
}

func compileBalance(tbl *lua.LTable, def types.Balance) (types.Balance, error) {
	f := &fields{tbl: tbl}
	bal := types.Balance{
		SkillCost:       f.big("skill_cost", def.SkillCost.Int64()),
		SkillMultiplier: f.decimal("skill_multiplier", def.SkillMultiplier),
		FleeChance:      f.decimal("flee_chance", def.FleeChance),
		AttackJitter:    f.int64("attack_jitter", def.AttackJitter),
		SkillJitter:     f.int64("skill_jitter", def.SkillJitter),
		MonsterJitter:   f.int64("monster_jitter", def.MonsterJitter),
		LossPercent:     f.int64("loss_percent", def.LossPercent),
		RespawnFloor:    f.big("respawn_floor", def.RespawnFloor.Int64()),
		RespawnRatio:    f.decimal("respawn_ratio", def.RespawnRatio),
		BattleTTL:       f.duration("battle_ttl", def.BattleTTL),
		StalePolicy:     def.StalePolicy,
		HistoryLimit:    f.int("history_limit", def.HistoryLimit),
	}
	if p := getString(tbl, "stale_policy"); p != "" {
		bal.StalePolicy = types.StalePolicy(p)
	}
	return bal, f.err
}

func compileMonster(raw rawDef) (types.MonsterTemplate, error) {
	f := &fields{tbl: raw.table}
	tpl := types.MonsterTemplate{
		ID:       raw.id,
		Name:     getString(raw.table, "name"),
		Tier:     getString(raw.table, "tier"),
		HP:       f.big("hp", 0),
		Attack:   f.big("attack", 0),
		Defense:  f.big("defense", 0),
		Speed:    f.big("speed", 0),
		RewardID: getString(raw.table, "reward"),
		Weight:   f.int("weight", 1),
	}
	if tpl.Name == "" {
		tpl.Name = raw.id
	}
	return tpl, f.err
}

func compileDrops(raw rawDef) (types.DropTable, error) {
	f := &fields{tbl: raw.table}
	table := types.DropTable{
		ID:       raw.id,
		Currency: f.big("currency", 0),
	}
	if f.err != nil {
		return table, f.err
	}
	items := getTable(raw.table, "items")
	if items == nil {
		return table, nil
	}
	for i := 1; i <= items.MaxN(); i++ {
		entryTbl, ok := items.RawGetInt(i).(*lua.LTable)
		if !ok {
			return table, fmt.Errorf("items[%d]: expected a table", i)
		}
		ef := &fields{tbl: entryTbl}
		entry := types.DropEntry{
			ItemID: getString(entryTbl, "item"),
			Chance: ef.decimal("chance", decimal.NewFromInt(1)),
			Min:    ef.int64("min", 1),
		}
		entry.Max = ef.int64("max", entry.Min)
		if ef.err != nil {
			return table, fmt.Errorf("items[%d]: %w", i, ef.err)
		}
		table.Entries = append(table.Entries, entry)
	}
	return table, nil
}

func compileActor(raw rawDef) (types.ActorSnapshot, error) {
	f := &fields{tbl: raw.table}
	a := types.ActorSnapshot{
		ID:       raw.id,
		Location: getString(raw.table, "location"),
		Tier:     getString(raw.table, "tier"),
		MaxHP:    f.big("max_hp", 100),
		MaxMP:    f.big("max_mp", 0),
		Attack:   f.big("attack", 0),
		Defense:  f.big("defense", 0),
		Speed:    f.big("speed", 0),
		Currency: f.big("currency", 0),
		Luck:     f.int("luck", 0),
	}
	if f.err != nil {
		return a, f.err
	}
	// Pools start full unless given.
	a.HP = new(big.Int).Set(a.MaxHP)
	a.MP = new(big.Int).Set(a.MaxMP)
	if raw.table.RawGetString("hp") != lua.LNil {
		a.HP = f.big("hp", 0)
	}
	if raw.table.RawGetString("mp") != lua.LNil {
		a.MP = f.big("mp", 0)
	}
	return a, f.err
}
