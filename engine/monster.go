package engine

import (
	"github.com/shopspring/decimal"

	"github.com/nathoo/skirmish/types"
)

// TierMultiplier returns the stat multiplier for a progression tier:
// 0.8 + tier*0.1. Negative tiers count as 0.
func TierMultiplier(tier int) decimal.Decimal {
	if tier < 0 {
		tier = 0
	}
	return decimal.New(8, -1).Add(decimal.New(int64(tier), -1))
}

// Spawn builds an opponent for an actor of the given tier index. Every stat
// is the template's base scaled by TierMultiplier and rounded down; HP is
// at least 1. Spawn is a pure function of its arguments.
func Spawn(tpl types.MonsterTemplate, tier int) types.MonsterInstance {
	m := TierMultiplier(tier)
	hp := atLeast(scale(tpl.HP, m), one)
	return types.MonsterInstance{
		TemplateID: tpl.ID,
		Name:       tpl.Name,
		Tier:       tpl.Tier,
		MaxHP:      hp,
		HP:         cp(hp),
		Attack:     scale(tpl.Attack, m),
		Defense:    scale(tpl.Defense, m),
		Speed:      scale(tpl.Speed, m),
		RewardID:   tpl.RewardID,
	}
}
