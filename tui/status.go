package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nathoo/skirmish/types"
)

// renderStatusBar produces a full-width inverted status line. In battle it
// shows both combatants and the round, otherwise the actor's pools and
// currency.
func (m Model) renderStatusBar() string {
	snap, inBattle := m.session.Status(m.ctx)

	var left, right string
	style := styleStatusBar
	if inBattle {
		style = styleStatusBattle
		left, right = battleStatus(snap)
	} else {
		left, right = m.actorStatus()
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}

	bar := left + strings.Repeat(" ", gap) + right
	return style.Width(m.width).Render(bar)
}

func battleStatus(s types.Snapshot) (left, right string) {
	left = fmt.Sprintf(" %s %s/%s | You %s/%s MP %s/%s",
		s.Monster.Name, s.Monster.HP, s.Monster.MaxHP,
		s.ActorHP, s.ActorMaxHP, s.ActorMP, s.ActorMaxMP)
	turn := "your turn"
	if s.Phase == types.PhaseMonsterTurn {
		turn = "enemy turn"
	}
	right = fmt.Sprintf("%s | R:%d ", turn, s.Round)
	return left, right
}

func (m Model) actorStatus() (left, right string) {
	a, err := m.session.Store.Actor(m.ctx, m.session.ActorID)
	if err != nil {
		return " " + m.session.ActorID, ""
	}
	left = fmt.Sprintf(" %s @ %s | HP %s/%s MP %s/%s",
		a.ID, locationName(a.Location), a.HP, a.MaxHP, a.MP, a.MaxMP)
	right = fmt.Sprintf("%s | $%s ", a.Tier, a.Currency)
	return left, right
}

// locationName derives a human-readable name from a location ID.
// "dark_forest" -> "Dark Forest".
func locationName(id string) string {
	words := strings.Split(id, "_")
	for i, w := range words {
		if len(w) > 0 {
			words[i] = strings.ToUpper(w[:1]) + w[1:]
		}
	}
	return strings.Join(words, " ")
}
