package session

import (
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/nathoo/skirmish/engine/catalog"
	"github.com/nathoo/skirmish/engine/errs"
	"github.com/nathoo/skirmish/engine/resolve"
	"github.com/nathoo/skirmish/types"
)

func monsterLabel(m types.MonsterInstance) string {
	if m.Tier == "" {
		return m.Name
	}
	return fmt.Sprintf("%s [%s]", m.Name, m.Tier)
}

func describeSnapshot(s types.Snapshot) []string {
	turn := "Your turn."
	if s.Phase == types.PhaseMonsterTurn {
		turn = fmt.Sprintf("The %s is about to act.", s.Monster.Name)
	}
	return []string{
		fmt.Sprintf("%s  HP %s/%s  ATK %s  DEF %s",
			monsterLabel(s.Monster), s.Monster.HP, s.Monster.MaxHP, s.Monster.Attack, s.Monster.Defense),
		describePools(s),
		fmt.Sprintf("Round %d. %s", s.Round, turn),
	}
}

func describePools(s types.Snapshot) string {
	return fmt.Sprintf("You: HP %s/%s  MP %s/%s  |  %s: HP %s/%s",
		s.ActorHP, s.ActorMaxHP, s.ActorMP, s.ActorMaxMP, s.Monster.Name, s.Monster.HP, s.Monster.MaxHP)
}

func describeResolution(c *catalog.Catalog, r types.Resolution) []string {
	var lines []string
	switch r.Outcome {
	case types.OutcomeWin:
		lines = append(lines, fmt.Sprintf("The %s is defeated!", r.Record.MonsterName))
	case types.OutcomeLose:
		lines = append(lines, "You have been defeated.")
		lines = append(lines, fmt.Sprintf("You come to with %s HP.", r.ActorHP))
	case types.OutcomeFlee:
		lines = append(lines, "You got away safely.")
	}
	switch sign(r.CurrencyDelta) {
	case 1:
		lines = append(lines, fmt.Sprintf("You gain %s currency.", r.CurrencyDelta))
	case -1:
		lines = append(lines, fmt.Sprintf("You lose %s currency.", new(big.Int).Abs(r.CurrencyDelta)))
	}
	for _, g := range r.Items {
		lines = append(lines, fmt.Sprintf("You receive %s x%d.", catalog.ItemName(c, g.ItemID), g.Quantity))
	}
	return lines
}

func describeRecord(c *catalog.Catalog, r types.HistoryRecord) string {
	var items []string
	for _, g := range r.Items {
		items = append(items, fmt.Sprintf("%s x%d", catalog.ItemName(c, g.ItemID), g.Quantity))
	}
	line := fmt.Sprintf("%s  %-4s vs %s in %d round(s), dealt %s, took %s, currency %s",
		r.EndedAt.Format("2006-01-02 15:04"), r.Result, r.MonsterName, r.Rounds,
		r.DamageDealt, r.DamageTaken, signed(r.CurrencyDelta.String()))
	if len(items) > 0 {
		line += ", items: " + strings.Join(items, ", ")
	}
	return line
}

// describeError maps an engine fault to a player-facing line.
func describeError(err error) string {
	var amb *resolve.AmbiguityError
	var nf *resolve.NotFoundError
	switch {
	case errors.As(err, &amb):
		return capitalize(amb.Error())
	case errors.As(err, &nf):
		return "You don't know of any such opponent."
	case errors.Is(err, errs.ErrAlreadyInBattle):
		return "You are already in a fight!"
	case errors.Is(err, errs.ErrNotYourTurn):
		return "It's not your turn. (wait)"
	case errors.Is(err, errs.ErrBattleNotFound):
		return "You are not in battle. (encounter)"
	case errors.Is(err, errs.ErrInsufficientResource):
		return "You don't have enough MP for that."
	case errors.Is(err, errs.ErrNoOpponentsAvailable):
		return "There is nothing to fight here."
	case errors.Is(err, errs.ErrTemplateNotFound):
		return "You don't know of any such opponent."
	case errors.Is(err, errs.ErrActorNotFound):
		return "Unknown actor."
	}
	switch errs.KindOf(err) {
	case errs.KindValidation:
		return fmt.Sprintf("You can't do that: %v", err)
	default:
		return fmt.Sprintf("Something went wrong: %v", err)
	}
}

func actionName(k types.ActionKind) string {
	switch k {
	case types.ActionAttack:
		return "attack"
	case types.ActionSkill:
		return "skill"
	case types.ActionFlee:
		return "flee"
	case types.ActionMonsterAttack:
		return "monster_attack"
	default:
		return fmt.Sprintf("action(%d)", k)
	}
}

func phaseName(p types.Phase) string {
	if p == types.PhaseMonsterTurn {
		return "monster_turn"
	}
	return "actor_turn"
}

func sign(v *big.Int) int {
	if v == nil {
		return 0
	}
	return v.Sign()
}

func signed(s string) string {
	if strings.HasPrefix(s, "-") || s == "0" {
		return s
	}
	return "+" + s
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
