// Package resolve maps opponent names typed by a player to template IDs.
package resolve

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/skirmish/engine/catalog"
	"github.com/nathoo/skirmish/types"
)

// AmbiguityError indicates multiple opponents matched a name.
type AmbiguityError struct {
	Name       string
	Candidates []string // display names
}

func (e *AmbiguityError) Error() string {
	return fmt.Sprintf("which %s? (%s)", e.Name, strings.Join(e.Candidates, ", "))
}

// NotFoundError indicates no opponent matched a name.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no opponent called %q", e.Name)
}

// Opponent resolves name to a template ID. Opponents met at location are
// searched first, then the whole catalog, so a known opponent that lives
// elsewhere still resolves and the engine reports it as unavailable here.
// An empty name resolves to "" (any opponent).
func Opponent(cat *catalog.Catalog, location, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", nil
	}

	// 1. Exact template ID match.
	if _, ok := catalog.Template(cat, name); ok {
		return name, nil
	}

	nameLower := strings.ToLower(name)

	// 2. Opponents at the location.
	if id, err := pick(name, matching(catalog.OpponentsAt(cat, location, ""), nameLower)); id != "" || err != nil {
		return id, err
	}

	// 3. Everything else, in ID order for stable candidate lists.
	var all []types.MonsterTemplate
	for _, id := range templateIDs(cat) {
		all = append(all, cat.Templates[id])
	}
	if id, err := pick(name, matching(all, nameLower)); id != "" || err != nil {
		return id, err
	}
	return "", &NotFoundError{Name: name}
}

func pick(name string, matches []types.MonsterTemplate) (string, error) {
	switch len(matches) {
	case 0:
		return "", nil
	case 1:
		return matches[0].ID, nil
	default:
		names := make([]string, len(matches))
		for i, m := range matches {
			names[i] = m.Name
		}
		return "", &AmbiguityError{Name: name, Candidates: names}
	}
}

func matching(tpls []types.MonsterTemplate, nameLower string) []types.MonsterTemplate {
	var out []types.MonsterTemplate
	for _, t := range tpls {
		if matchesName(t, nameLower) {
			out = append(out, t)
		}
	}
	return out
}

// matchesName checks a template against the query (case-insensitive).
// Supports exact name match, word-based partial match and ID match.
func matchesName(t types.MonsterTemplate, nameLower string) bool {
	tplName := strings.ToLower(t.Name)
	if tplName == nameLower {
		return true
	}
	// Word-based partial match: "wolf" matches "Grey Wolf".
	for _, word := range strings.Fields(tplName) {
		if word == nameLower {
			return true
		}
	}
	idLower := strings.ToLower(t.ID)
	if idLower == nameLower {
		return true
	}
	// Underscore normalization: "grey wolf" matches ID "grey_wolf".
	return strings.ReplaceAll(nameLower, " ", "_") == idLower
}

func templateIDs(cat *catalog.Catalog) []string {
	ids := make([]string, 0, len(cat.Templates))
	for id := range cat.Templates {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
