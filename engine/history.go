package engine

import (
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/nathoo/skirmish/types"
)

// newRecord summarizes a finished battle. Record ids are ULIDs, so they
// sort by the time the battle ended.
func newRecord(b types.ActiveBattle, s types.Settlement, ended time.Time) types.HistoryRecord {
	var items []types.ItemGrant
	if len(s.Items) > 0 {
		items = append(items, s.Items...)
	}
	return types.HistoryRecord{
		ID:            ulid.MustNew(ulid.Timestamp(ended), ulid.DefaultEntropy()).String(),
		ActorID:       b.ActorID,
		BattleID:      b.ID,
		MonsterID:     b.Monster.TemplateID,
		MonsterName:   b.Monster.Name,
		MonsterTier:   b.Monster.Tier,
		Result:        s.Outcome,
		Rounds:        b.Round,
		DamageDealt:   cp(b.DamageDealt),
		DamageTaken:   cp(b.DamageTaken),
		ActorHP:       cp(s.ActorHP),
		MonsterHP:     clamp(b.Monster.HP, b.Monster.MaxHP),
		CurrencyDelta: cp(s.CurrencyDelta),
		Items:         items,
		StartedAt:     b.CreatedAt,
		EndedAt:       ended,
		Duration:      ended.Sub(b.CreatedAt),
	}
}
