package loader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/nathoo/skirmish/engine/catalog"
	"github.com/nathoo/skirmish/logger"
	"github.com/nathoo/skirmish/types"
)

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

func (e *ValidationError) errorf(format string, args ...any) {
	e.Errors = append(e.Errors, fmt.Sprintf(format, args...))
}

func (e *ValidationError) warnf(format string, args ...any) {
	e.Warnings = append(e.Warnings, fmt.Sprintf(format, args...))
}

// validate checks the compiled catalog for referential integrity and
// consistent tunables. Warnings are logged; errors fail the load.
func validate(cat *catalog.Catalog) error {
	ve := check(cat)

	for _, w := range ve.Warnings {
		logger.Log.WithField("component", "loader").Warn(w)
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

// check runs every rule and returns the findings sorted for stable output.
func check(cat *catalog.Catalog) *ValidationError {
	ve := &ValidationError{}

	if cat.Game.Title == "" {
		ve.errorf("Game.title is required")
	}
	if cat.Game.Start != "" {
		if _, ok := cat.Actors[cat.Game.Start]; !ok {
			ve.errorf("start actor %q not found in defined actors", cat.Game.Start)
		}
	}

	tiers := map[string]bool{}
	if len(cat.Tiers) == 0 {
		ve.warnf("no Tiers{} defined, every actor fights at the lowest tier")
	}
	for _, t := range cat.Tiers {
		if tiers[t] {
			ve.errorf("duplicate tier %q", t)
		}
		tiers[t] = true
	}

	checkBalance(cat.Balance, ve)

	for id, tpl := range cat.Templates {
		if tpl.HP.Sign() <= 0 {
			ve.errorf("monster %q hp must be positive, got %s", id, tpl.HP)
		}
		for name, v := range map[string]interface{ Sign() int }{
			"attack": tpl.Attack, "defense": tpl.Defense, "speed": tpl.Speed,
		} {
			if v.Sign() < 0 {
				ve.errorf("monster %q %s must not be negative", id, name)
			}
		}
		if tpl.Weight < 0 {
			ve.warnf("monster %q weight %d is negative and counts as 1", id, tpl.Weight)
		}
		if tpl.RewardID == "" {
			ve.warnf("monster %q has no reward and drops nothing", id)
		} else if _, ok := cat.Drops[tpl.RewardID]; !ok {
			ve.warnf("monster %q reward %q does not match any Drops", id, tpl.RewardID)
		}
	}

	for id, table := range cat.Drops {
		if table.Currency.Sign() < 0 {
			ve.errorf("drops %q currency must not be negative", id)
		}
		for i, e := range table.Entries {
			where := fmt.Sprintf("drops %q items[%d]", id, i+1)
			if e.ItemID == "" {
				ve.errorf("%s has no item", where)
			} else if _, ok := cat.Items[e.ItemID]; !ok {
				ve.errorf("%s references undefined item %q", where, e.ItemID)
			}
			if e.Chance.IsNegative() || e.Chance.GreaterThan(decimal.NewFromInt(1)) {
				ve.errorf("%s chance %s is outside [0, 1]", where, e.Chance)
			}
			if e.Min < 0 {
				ve.errorf("%s min must not be negative", where)
			}
			if e.Max < e.Min {
				ve.errorf("%s max %d is below min %d", where, e.Max, e.Min)
			}
		}
	}

	for id, monsters := range cat.Locations {
		if len(monsters) == 0 {
			ve.warnf("location %q has no monsters", id)
		}
		for _, m := range monsters {
			if _, ok := cat.Templates[m]; !ok {
				ve.errorf("location %q references undefined monster %q", id, m)
			}
		}
	}

	for id, a := range cat.Actors {
		if _, ok := cat.Locations[a.Location]; !ok {
			ve.errorf("actor %q location %q not found in defined locations", id, a.Location)
		}
		if len(tiers) > 0 && !tiers[a.Tier] {
			ve.errorf("actor %q tier %q is not one of the Tiers", id, a.Tier)
		}
		if a.MaxHP.Sign() <= 0 {
			ve.errorf("actor %q max_hp must be positive", id)
		}
		if a.MaxMP.Sign() < 0 {
			ve.errorf("actor %q max_mp must not be negative", id)
		}
		if a.HP.Sign() < 0 || a.HP.Cmp(a.MaxHP) > 0 {
			ve.errorf("actor %q hp %s is outside [0, %s]", id, a.HP, a.MaxHP)
		}
		if a.MP.Sign() < 0 || a.MP.Cmp(a.MaxMP) > 0 {
			ve.errorf("actor %q mp %s is outside [0, %s]", id, a.MP, a.MaxMP)
		}
		if a.Currency.Sign() < 0 {
			ve.errorf("actor %q currency must not be negative", id)
		}
	}

	for id := range cat.Items {
		if cat.Items[id].Name == "" {
			ve.warnf("item %q has no name", id)
		}
	}

	sort.Strings(ve.Errors)
	sort.Strings(ve.Warnings)
	return ve
}

func checkBalance(b types.Balance, ve *ValidationError) {
	one := decimal.NewFromInt(1)
	if b.SkillCost.Sign() < 0 {
		ve.errorf("Balance.skill_cost must not be negative")
	}
	if !b.SkillMultiplier.IsPositive() {
		ve.errorf("Balance.skill_multiplier must be positive")
	}
	if b.FleeChance.IsNegative() || b.FleeChance.GreaterThan(one) {
		ve.errorf("Balance.flee_chance %s is outside [0, 1]", b.FleeChance)
	}
	if b.AttackJitter < 0 || b.SkillJitter < 0 || b.MonsterJitter < 0 {
		ve.errorf("Balance jitters must not be negative")
	}
	if b.LossPercent < 0 || b.LossPercent > 100 {
		ve.errorf("Balance.loss_percent %d is outside [0, 100]", b.LossPercent)
	}
	if b.RespawnFloor.Sign() < 0 {
		ve.errorf("Balance.respawn_floor must not be negative")
	}
	if b.RespawnRatio.IsNegative() || b.RespawnRatio.GreaterThan(one) {
		ve.errorf("Balance.respawn_ratio %s is outside [0, 1]", b.RespawnRatio)
	}
	if b.BattleTTL <= 0 {
		ve.errorf("Balance.battle_ttl must be positive")
	}
	switch b.StalePolicy {
	case types.StaleKeep, types.StaleFlee, types.StaleLose:
	default:
		ve.errorf("Balance.stale_policy %q must be keep, flee or lose", b.StalePolicy)
	}
	if b.HistoryLimit < 0 || b.HistoryLimit > 100 {
		ve.errorf("Balance.history_limit %d is outside [0, 100]", b.HistoryLimit)
	}
}
