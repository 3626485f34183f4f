package loader

import (
	"math/big"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/nathoo/skirmish/engine/catalog"
	"github.com/nathoo/skirmish/types"
)

// validCatalog returns a minimal valid catalog for testing.
func validCatalog() *catalog.Catalog {
	cat := catalog.New()
	cat.Game = types.GameDef{Title: "Test", Start: "hero"}
	cat.Tiers = []string{"mortal", "adept"}
	cat.Items["gel"] = types.ItemDef{ID: "gel", Name: "Gel"}
	cat.Templates["slime"] = types.MonsterTemplate{
		ID: "slime", Name: "Slime",
		HP: big.NewInt(10), Attack: big.NewInt(2), Defense: big.NewInt(1), Speed: big.NewInt(1),
		RewardID: "slime", Weight: 1,
	}
	cat.Drops["slime"] = types.DropTable{
		ID:       "slime",
		Currency: big.NewInt(3),
		Entries: []types.DropEntry{
			{ItemID: "gel", Chance: decimal.RequireFromString("0.5"), Min: 1, Max: 2},
		},
	}
	cat.Locations["field"] = []string{"slime"}
	cat.Actors["hero"] = types.ActorSnapshot{
		ID: "hero", Location: "field", Tier: "mortal",
		HP: big.NewInt(50), MaxHP: big.NewInt(50),
		MP: big.NewInt(10), MaxMP: big.NewInt(10),
		Attack: big.NewInt(8), Defense: big.NewInt(2), Speed: big.NewInt(3),
		Currency: big.NewInt(0),
	}
	return cat
}

func TestValidate_ValidCatalog(t *testing.T) {
	if err := validate(validCatalog()); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
	if ve := check(validCatalog()); len(ve.Warnings) != 0 {
		t.Errorf("unexpected warnings: %v", ve.Warnings)
	}
}

func TestCheck_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*catalog.Catalog)
		want   string
	}{
		{"empty title", func(c *catalog.Catalog) { c.Game.Title = "" }, "Game.title is required"},
		{"missing start", func(c *catalog.Catalog) { c.Game.Start = "nobody" }, `start actor "nobody"`},
		{"duplicate tier", func(c *catalog.Catalog) { c.Tiers = append(c.Tiers, "mortal") }, `duplicate tier "mortal"`},
		{"negative attack", func(c *catalog.Catalog) {
			tpl := c.Templates["slime"]
			tpl.Attack = big.NewInt(-1)
			c.Templates["slime"] = tpl
		}, `monster "slime" attack must not be negative`},
		{"negative drop currency", func(c *catalog.Catalog) {
			d := c.Drops["slime"]
			d.Currency = big.NewInt(-5)
			c.Drops["slime"] = d
		}, `drops "slime" currency must not be negative`},
		{"chance above one", func(c *catalog.Catalog) {
			c.Drops["slime"].Entries[0].Chance = decimal.RequireFromString("1.2")
		}, "chance 1.2 is outside [0, 1]"},
		{"drop without item", func(c *catalog.Catalog) {
			c.Drops["slime"].Entries[0].ItemID = ""
		}, `drops "slime" items[1] has no item`},
		{"hp above max", func(c *catalog.Catalog) {
			a := c.Actors["hero"]
			a.HP = big.NewInt(51)
			c.Actors["hero"] = a
		}, `actor "hero" hp 51 is outside [0, 50]`},
		{"negative currency", func(c *catalog.Catalog) {
			a := c.Actors["hero"]
			a.Currency = big.NewInt(-1)
			c.Actors["hero"] = a
		}, `actor "hero" currency must not be negative`},
		{"loss percent", func(c *catalog.Catalog) { c.Balance.LossPercent = 101 }, "loss_percent 101"},
		{"ttl", func(c *catalog.Catalog) { c.Balance.BattleTTL = 0 }, "battle_ttl must be positive"},
		{"history limit", func(c *catalog.Catalog) { c.Balance.HistoryLimit = 500 }, "history_limit 500"},
		{"skill multiplier", func(c *catalog.Catalog) { c.Balance.SkillMultiplier = decimal.Zero }, "skill_multiplier must be positive"},
		{"jitter", func(c *catalog.Catalog) { c.Balance.MonsterJitter = -1 }, "jitters must not be negative"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := validCatalog()
			tt.mutate(cat)
			ve := check(cat)
			assertContains(t, ve.Errors, tt.want)
		})
	}
}

func TestCheck_Warnings(t *testing.T) {
	cat := validCatalog()
	cat.Tiers = nil
	cat.Locations["empty"] = nil
	cat.Items["dust"] = types.ItemDef{ID: "dust"}
	tpl := cat.Templates["slime"]
	tpl.RewardID = ""
	tpl.Weight = -2
	cat.Templates["slime"] = tpl

	ve := check(cat)
	if len(ve.Errors) != 0 {
		t.Fatalf("unexpected errors: %v", ve.Errors)
	}
	for _, want := range []string{
		"no Tiers{} defined",
		`location "empty" has no monsters`,
		`item "dust" has no name`,
		`monster "slime" has no reward`,
		"weight -2 is negative",
	} {
		assertContains(t, ve.Warnings, want)
	}

	// Warnings alone never fail the load.
	if err := validate(cat); err != nil {
		t.Errorf("validate = %v, want nil", err)
	}
}

func TestValidationError_Message(t *testing.T) {
	ve := &ValidationError{}
	ve.errorf("first %d", 1)
	ve.errorf("second")
	msg := ve.Error()
	if !strings.HasPrefix(msg, "validation failed with 2 error(s)") || !strings.Contains(msg, "first 1\n  second") {
		t.Errorf("Error() = %q", msg)
	}
}

// assertContains checks that at least one string in strs contains substr.
func assertContains(t *testing.T, strs []string, substr string) {
	t.Helper()
	for _, s := range strs {
		if strings.Contains(s, substr) {
			return
		}
	}
	t.Errorf("expected a message containing %q, got: %v", substr, strs)
}
