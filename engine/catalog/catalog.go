// Package catalog holds the immutable opponent, drop and tier definitions
// loaded from Lua, with lookups used by the combat engine.
package catalog

import (
	"math/big"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nathoo/skirmish/types"
)

// Catalog holds the static combat definitions.
type Catalog struct {
	Game      types.GameDef
	Tiers     []string // ordered progression list, lowest first
	Templates map[string]types.MonsterTemplate
	Locations map[string][]string // location id → template ids
	Drops     map[string]types.DropTable
	Items     map[string]types.ItemDef
	Actors    map[string]types.ActorSnapshot // starting records used to seed a store
	Balance   types.Balance
}

// New creates an empty catalog with default balance.
func New() *Catalog {
	return &Catalog{
		Templates: map[string]types.MonsterTemplate{},
		Locations: map[string][]string{},
		Drops:     map[string]types.DropTable{},
		Items:     map[string]types.ItemDef{},
		Actors:    map[string]types.ActorSnapshot{},
		Balance:   DefaultBalance(),
	}
}

// DefaultBalance returns the stock combat tunables.
func DefaultBalance() types.Balance {
	return types.Balance{
		SkillCost:       big.NewInt(20),
		SkillMultiplier: decimal.RequireFromString("1.5"),
		FleeChance:      decimal.RequireFromString("0.5"),
		AttackJitter:    5,
		SkillJitter:     7,
		MonsterJitter:   3,
		LossPercent:     5,
		RespawnFloor:    big.NewInt(100),
		RespawnRatio:    decimal.RequireFromString("0.3"),
		BattleTTL:       30 * time.Minute,
		StalePolicy:     types.StaleKeep,
		HistoryLimit:    20,
	}
}

// TierIndex returns the position of a tier name in the progression list.
// Unknown tiers map to 0.
func TierIndex(c *Catalog, tier string) int {
	for i, t := range c.Tiers {
		if t == tier {
			return i
		}
	}
	return 0
}

// Template returns an opponent template by ID.
func Template(c *Catalog, id string) (types.MonsterTemplate, bool) {
	t, ok := c.Templates[id]
	return t, ok
}

// OpponentsAt returns the templates that can be met at a location, in
// definition order. When only is non-empty the result is restricted to
// that template.
func OpponentsAt(c *Catalog, location, only string) []types.MonsterTemplate {
	var result []types.MonsterTemplate
	for _, id := range c.Locations[location] {
		if only != "" && id != only {
			continue
		}
		if t, ok := c.Templates[id]; ok {
			result = append(result, t)
		}
	}
	return result
}

// DropTable returns the reward table for a reward ID.
func DropTable(c *Catalog, id string) (types.DropTable, bool) {
	d, ok := c.Drops[id]
	return d, ok
}

// ItemName returns the display name of an item, falling back to its ID.
func ItemName(c *Catalog, id string) string {
	if it, ok := c.Items[id]; ok && it.Name != "" {
		return it.Name
	}
	return id
}

// LocationIDs returns all location IDs, sorted.
func LocationIDs(c *Catalog) []string {
	ids := make([]string, 0, len(c.Locations))
	for id := range c.Locations {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// StartingActors returns the catalog's starting actors sorted by ID.
func StartingActors(c *Catalog) []types.ActorSnapshot {
	ids := make([]string, 0, len(c.Actors))
	for id := range c.Actors {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]types.ActorSnapshot, 0, len(ids))
	for _, id := range ids {
		out = append(out, c.Actors[id])
	}
	return out
}
