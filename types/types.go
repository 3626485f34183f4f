// Package types defines the shared data structures for the skirmish combat engine.
// This package contains only type definitions and constants, no logic.
//
// Every hit point, resource, stat, damage and currency amount is a *big.Int.
// Fractional factors are decimal.Decimal. Floating point never appears here.
package types

import (
	"math/big"
	"time"

	"github.com/shopspring/decimal"
)

// ActorSnapshot is the combat engine's view of an actor's permanent record.
type ActorSnapshot struct {
	ID       string
	Location string // location id, used to pick eligible opponents
	Tier     string // progression tier name, indexed through the catalog
	HP       *big.Int
	MaxHP    *big.Int
	MP       *big.Int
	MaxMP    *big.Int
	Attack   *big.Int
	Defense  *big.Int
	Speed    *big.Int
	Currency *big.Int
	Luck     int // percent points added to drop chances multiplicatively
}

// MonsterTemplate is the static definition an opponent is spawned from.
type MonsterTemplate struct {
	ID       string
	Name     string
	Tier     string // display tag, e.g. "common", "elite"
	HP       *big.Int
	Attack   *big.Int
	Defense  *big.Int
	Speed    *big.Int
	RewardID string // drop table id
	Weight   int    // relative spawn weight within a location
}

// MonsterInstance is an opponent scaled for one encounter.
// Only HP changes after it has been spawned.
type MonsterInstance struct {
	TemplateID string
	Name       string
	Tier       string
	MaxHP      *big.Int
	HP         *big.Int
	Attack     *big.Int
	Defense    *big.Int
	Speed      *big.Int
	RewardID   string
}

// Phase is whose turn an active battle is waiting on.
type Phase int

const (
	PhaseActorTurn Phase = iota
	PhaseMonsterTurn
)

// Outcome is how a battle ended.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLose Outcome = "lose"
	OutcomeFlee Outcome = "flee"
)

// Side identifies the acting combatant of a log entry.
type Side string

const (
	SideActor   Side = "actor"
	SideMonster Side = "monster"
)

// ActionKind is the closed set of battle actions.
type ActionKind int

const (
	ActionAttack ActionKind = iota + 1
	ActionSkill
	ActionFlee
	ActionMonsterAttack
)

// LogEntry is one immutable line of a battle's audit trail.
type LogEntry struct {
	Round    int
	Side     Side
	Action   ActionKind
	Damage   *big.Int
	TargetHP *big.Int // hp of the target after the action
	At       time.Time
}

// ActiveBattle is the single in-progress encounter of an actor.
type ActiveBattle struct {
	ID           string
	ActorID      string
	Monster      MonsterInstance
	Round        int
	Phase        Phase
	ActorHP      *big.Int
	ActorMaxHP   *big.Int
	ActorMP      *big.Int
	ActorMaxMP   *big.Int
	ActorAttack  *big.Int // actor stats captured at encounter time
	ActorDefense *big.Int
	ActorLuck    int
	DamageDealt  *big.Int
	DamageTaken  *big.Int
	Log          []LogEntry
	CreatedAt    time.Time
	LastActionAt time.Time
	ExpiresAt    time.Time
	Version      int64 // bumped by every successful store update
}

// ItemGrant is a quantity of an item added to an actor's inventory.
type ItemGrant struct {
	ItemID   string
	Quantity int64
}

// HistoryRecord is the read-only summary of a finished battle.
type HistoryRecord struct {
	ID            string
	ActorID       string
	BattleID      string
	MonsterID     string
	MonsterName   string
	MonsterTier   string
	Result        Outcome
	Rounds        int
	DamageDealt   *big.Int
	DamageTaken   *big.Int
	ActorHP       *big.Int // hp the actor was left with
	MonsterHP     *big.Int
	CurrencyDelta *big.Int // signed
	Items         []ItemGrant
	StartedAt     time.Time
	EndedAt       time.Time
	Duration      time.Duration
}

// DropEntry is one independently rolled item of a drop table.
type DropEntry struct {
	ItemID string
	Chance decimal.Decimal // in [0, 1]
	Min    int64
	Max    int64 // Max <= Min means exactly Min
}

// DropTable is the reward of defeating an opponent.
type DropTable struct {
	ID       string
	Currency *big.Int
	Entries  []DropEntry
}

// ItemDef names an inventory item.
type ItemDef struct {
	ID   string
	Name string
}

// StalePolicy decides what a sweep does with battles past their expiry.
type StalePolicy string

const (
	StaleKeep StalePolicy = "keep"
	StaleFlee StalePolicy = "flee"
	StaleLose StalePolicy = "lose"
)

// Balance holds the combat tunables.
type Balance struct {
	SkillCost       *big.Int
	SkillMultiplier decimal.Decimal
	FleeChance      decimal.Decimal
	AttackJitter    int64
	SkillJitter     int64
	MonsterJitter   int64
	LossPercent     int64
	RespawnFloor    *big.Int
	RespawnRatio    decimal.Decimal
	BattleTTL       time.Duration
	StalePolicy     StalePolicy
	HistoryLimit    int
}

// GameDef holds catalog metadata.
type GameDef struct {
	Title   string
	Version string
	Author  string
	Intro   string
	Start   string // actor played by default
}

// Settlement is everything a terminal outcome writes, applied as one unit:
// the actor update, the inventory grants, the history record and the
// removal of the battle.
type Settlement struct {
	ActorID       string
	BattleID      string
	Version       int64 // expected battle version
	Outcome       Outcome
	ActorHP       *big.Int
	ActorMP       *big.Int
	CurrencyDelta *big.Int
	Items         []ItemGrant
	Record        HistoryRecord
}

// Snapshot is the externally observed state of an active battle.
// HP and MP values are clamped to [0, max].
type Snapshot struct {
	BattleID     string
	ActorID      string
	Monster      MonsterInstance
	Round        int
	Phase        Phase
	ActorHP      *big.Int
	ActorMaxHP   *big.Int
	ActorMP      *big.Int
	ActorMaxMP   *big.Int
	DamageDealt  *big.Int
	DamageTaken  *big.Int
	Log          []LogEntry
	CreatedAt    time.Time
	LastActionAt time.Time
	ExpiresAt    time.Time
}

// Resolution is the result of a battle reaching a terminal outcome.
type Resolution struct {
	Outcome       Outcome
	CurrencyDelta *big.Int
	Items         []ItemGrant
	ActorHP       *big.Int
	Record        HistoryRecord
}

// TurnResult is returned by every turn operation. Exactly one of Battle,
// Final is set, unless Waiting is true, in which case nothing happened.
type TurnResult struct {
	Entry   *LogEntry
	Battle  *Snapshot
	Final   *Resolution
	Waiting bool
}

// FleeResult reports a flee attempt.
type FleeResult struct {
	Success bool
	TurnResult
}
