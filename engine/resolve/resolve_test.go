package resolve

import (
	"errors"
	"testing"

	"github.com/nathoo/skirmish/engine/catalog"
	"github.com/nathoo/skirmish/types"
)

func testCatalog() *catalog.Catalog {
	cat := catalog.New()
	for _, t := range []types.MonsterTemplate{
		{ID: "grey_wolf", Name: "Grey Wolf"},
		{ID: "dire_wolf", Name: "Dire Wolf"},
		{ID: "iron_boar", Name: "Iron Boar"},
		{ID: "jade_serpent", Name: "Jade Serpent"},
	} {
		cat.Templates[t.ID] = t
	}
	cat.Locations["forest"] = []string{"grey_wolf", "iron_boar"}
	cat.Locations["shrine"] = []string{"grey_wolf", "dire_wolf", "jade_serpent"}
	return cat
}

func TestOpponent(t *testing.T) {
	cat := testCatalog()
	tests := []struct {
		location string
		name     string
		want     string
	}{
		{"forest", "", ""},
		{"forest", "grey_wolf", "grey_wolf"},
		{"forest", "Grey Wolf", "grey_wolf"},
		{"forest", "wolf", "grey_wolf"},       // only one wolf here
		{"forest", "BOAR", "iron_boar"},       // case-insensitive word match
		{"forest", "iron boar", "iron_boar"},  // underscore normalization
		{"forest", "serpent", "jade_serpent"}, // known, lives elsewhere
		{"shrine", "dire wolf", "dire_wolf"},
	}
	for _, tt := range tests {
		got, err := Opponent(cat, tt.location, tt.name)
		if err != nil {
			t.Errorf("Opponent(%s, %q): %v", tt.location, tt.name, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Opponent(%s, %q) = %q, want %q", tt.location, tt.name, got, tt.want)
		}
	}
}

func TestOpponent_Ambiguous(t *testing.T) {
	_, err := Opponent(testCatalog(), "shrine", "wolf")
	var amb *AmbiguityError
	if !errors.As(err, &amb) {
		t.Fatalf("expected *AmbiguityError, got %v", err)
	}
	if len(amb.Candidates) != 2 || amb.Candidates[0] != "Grey Wolf" || amb.Candidates[1] != "Dire Wolf" {
		t.Errorf("candidates = %v", amb.Candidates)
	}
	if amb.Error() != "which wolf? (Grey Wolf, Dire Wolf)" {
		t.Errorf("Error() = %q", amb.Error())
	}
}

func TestOpponent_AmbiguousElsewhere(t *testing.T) {
	// Nowhere has no opponents, so both wolves in the catalog match.
	_, err := Opponent(testCatalog(), "nowhere", "wolf")
	var amb *AmbiguityError
	if !errors.As(err, &amb) {
		t.Fatalf("expected *AmbiguityError, got %v", err)
	}
	if amb.Candidates[0] != "Dire Wolf" {
		t.Errorf("candidates = %v, want ID order", amb.Candidates)
	}
}

func TestOpponent_NotFound(t *testing.T) {
	_, err := Opponent(testCatalog(), "forest", "dragon")
	var nf *NotFoundError
	if !errors.As(err, &nf) || nf.Name != "dragon" {
		t.Fatalf("expected *NotFoundError for dragon, got %v", err)
	}
}
