package engine

import (
	"math/big"

	"github.com/shopspring/decimal"

	"github.com/nathoo/skirmish/engine/catalog"
	"github.com/nathoo/skirmish/types"
)

var hundred = decimal.NewFromInt(100)

// BoostedChance applies luck to a drop chance: chance * (1 + luck/100),
// limited to [0, 1].
func BoostedChance(chance decimal.Decimal, luck int) decimal.Decimal {
	p := chance.Mul(decimal.NewFromInt(int64(100 + luck))).Div(hundred)
	if p.Sign() < 0 {
		return decimal.Zero
	}
	if p.GreaterThan(decimal.NewFromInt(1)) {
		return decimal.NewFromInt(1)
	}
	return p
}

// RollDrops rolls every entry of a drop table independently. Quantities of
// the same item are summed; grants keep the order items first dropped in.
func RollDrops(table types.DropTable, luck int, dice Dice) []types.ItemGrant {
	var grants []types.ItemGrant
	index := map[string]int{}
	for _, entry := range table.Entries {
		if !dice.Chance(BoostedChance(entry.Chance, luck)) {
			continue
		}
		qty := entry.Min
		if entry.Max > entry.Min {
			qty = dice.Between(entry.Min, entry.Max)
		}
		if qty <= 0 {
			continue
		}
		if i, ok := index[entry.ItemID]; ok {
			grants[i].Quantity += qty
			continue
		}
		index[entry.ItemID] = len(grants)
		grants = append(grants, types.ItemGrant{ItemID: entry.ItemID, Quantity: qty})
	}
	return grants
}

// LossPenalty returns the currency lost on defeat: floor(currency * pct / 100).
// Negative balances lose nothing.
func LossPenalty(currency *big.Int, pct int64) *big.Int {
	if currency == nil || currency.Sign() <= 0 || pct <= 0 {
		return new(big.Int)
	}
	return percent(currency, pct)
}

// RespawnHP returns the hp an actor is restored to after defeat:
// min(maxHP, max(floor, floor(ratio * maxHP))).
func RespawnHP(maxHP, floor *big.Int, ratio decimal.Decimal) *big.Int {
	hp := atLeast(scale(maxHP, ratio), cp(floor))
	return clamp(hp, cp(maxHP))
}

// settlement computes everything outcome writes for battle b.
func (e *Engine) settlement(b types.ActiveBattle, actor types.ActorSnapshot, outcome types.Outcome) types.Settlement {
	bal := e.balance()
	s := types.Settlement{
		ActorID:       b.ActorID,
		BattleID:      b.ID,
		Version:       b.Version,
		Outcome:       outcome,
		ActorHP:       clamp(b.ActorHP, b.ActorMaxHP),
		ActorMP:       clamp(b.ActorMP, b.ActorMaxMP),
		CurrencyDelta: new(big.Int),
	}

	switch outcome {
	case types.OutcomeWin:
		table, ok := catalog.DropTable(e.Catalog, b.Monster.RewardID)
		if !ok {
			e.logFor(b).WithField("reward", b.Monster.RewardID).Warn("no drop table for opponent")
			break
		}
		s.CurrencyDelta = cp(table.Currency)
		s.Items = RollDrops(table, b.ActorLuck, e.dice)
	case types.OutcomeLose:
		s.CurrencyDelta = new(big.Int).Neg(LossPenalty(actor.Currency, bal.LossPercent))
		s.ActorHP = RespawnHP(b.ActorMaxHP, bal.RespawnFloor, bal.RespawnRatio)
	case types.OutcomeFlee:
	}

	s.Record = newRecord(b, s, e.now())
	return s
}
