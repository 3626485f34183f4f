// Package parser converts command strings into battle commands.
// Intentionally dumb: no NLP, just pattern matching.
package parser

import (
	"strings"
)

// Command is a parsed player command. Verb is canonical; Arg is the rest
// of the line with articles stripped.
type Command struct {
	Verb string
	Arg  string
}

// Canonical verbs.
const (
	VerbEncounter = "encounter"
	VerbAttack    = "attack"
	VerbSkill     = "skill"
	VerbFlee      = "flee"
	VerbWait      = "wait"
	VerbStatus    = "status"
	VerbHistory   = "history"
	VerbInventory = "inventory"
	VerbSweep     = "sweep"
)

var verbAliases = map[string]string{
	// Encounter
	"hunt":   VerbEncounter,
	"seek":   VerbEncounter,
	"search": VerbEncounter,
	"spawn":  VerbEncounter,
	"engage": VerbEncounter,
	"e":      VerbEncounter,

	// Attack
	"a":      VerbAttack,
	"hit":    VerbAttack,
	"fight":  VerbAttack,
	"strike": VerbAttack,
	"slash":  VerbAttack,
	"punch":  VerbAttack,
	"kick":   VerbAttack,

	// Skill
	"s":       VerbSkill,
	"cast":    VerbSkill,
	"spell":   VerbSkill,
	"special": VerbSkill,
	"tech":    VerbSkill,

	// Flee
	"f":       VerbFlee,
	"run":     VerbFlee,
	"escape":  VerbFlee,
	"retreat": VerbFlee,

	// Wait
	"z":    VerbWait,
	"pass": VerbWait,
	"poll": VerbWait,

	// Status
	"l":     VerbStatus,
	"look":  VerbStatus,
	"stat":  VerbStatus,
	"stats": VerbStatus,

	// History
	"h":       VerbHistory,
	"log":     VerbHistory,
	"record":  VerbHistory,
	"records": VerbHistory,

	// Inventory
	"i":   VerbInventory,
	"inv": VerbInventory,
	"bag": VerbInventory,
}

var articles = map[string]bool{
	"the": true, "a": true, "an": true,
}

// Parse converts a raw command string into a Command.
func Parse(input string) Command {
	input = strings.TrimSpace(input)
	if input == "" {
		return Command{}
	}

	words := strings.Fields(strings.ToLower(input))

	// Handle multi-word verb phrases before general parsing.
	words = expandMultiWordVerbs(words)

	// Apply verb aliases.
	if alias, ok := verbAliases[words[0]]; ok {
		words[0] = alias
	}

	return Command{
		Verb: words[0],
		Arg:  strings.Join(stripArticles(words[1:]), " "),
	}
}

// expandMultiWordVerbs handles "run away", "look for", "use skill" etc.
func expandMultiWordVerbs(words []string) []string {
	if len(words) < 2 {
		return words
	}

	switch words[0] {
	case "run", "get":
		if words[1] == "away" || words[1] == "out" {
			return append([]string{VerbFlee}, words[2:]...)
		}
	case "look", "search":
		if words[1] == "for" || words[1] == "around" {
			return append([]string{VerbEncounter}, words[2:]...)
		}
	case "use", "cast":
		if words[1] == "skill" || words[1] == "spell" {
			return append([]string{VerbSkill}, words[2:]...)
		}
	case "end":
		if words[1] == "turn" {
			return append([]string{VerbWait}, words[2:]...)
		}
	case "show":
		switch words[1] {
		case "history", "log":
			return append([]string{VerbHistory}, words[2:]...)
		case "status", "stats":
			return append([]string{VerbStatus}, words[2:]...)
		}
	}

	return words
}

// stripArticles removes articles ("the", "a", "an") from the word list.
func stripArticles(words []string) []string {
	result := make([]string, 0, len(words))
	for _, w := range words {
		if !articles[w] {
			result = append(result, w)
		}
	}
	return result
}
