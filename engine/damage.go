package engine

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// DamageCalc computes max(1, attack - defense + U[-jitter, +jitter]).
// Returns (damage, jitterRoll).
func DamageCalc(attack, defense *big.Int, jitter int64, dice Dice) (*big.Int, int64) {
	roll := dice.Between(-jitter, jitter)
	damage := new(big.Int).Sub(cp(attack), cp(defense))
	damage.Add(damage, big.NewInt(roll))
	return atLeast(damage, one), roll
}

// SkillDamageCalc computes max(1, floor(multiplier * (attack - defense)) + U[-jitter, +jitter]).
// Returns (damage, jitterRoll).
func SkillDamageCalc(attack, defense *big.Int, multiplier decimal.Decimal, jitter int64, dice Dice) (*big.Int, int64) {
	roll := dice.Between(-jitter, jitter)
	diff := new(big.Int).Sub(cp(attack), cp(defense))
	damage := scale(diff, multiplier)
	damage.Add(damage, big.NewInt(roll))
	return atLeast(damage, one), roll
}
