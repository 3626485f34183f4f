package cli

import (
	"bytes"
	"context"
	"math/big"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/nathoo/skirmish/engine"
	"github.com/nathoo/skirmish/engine/catalog"
	"github.com/nathoo/skirmish/session"
	"github.com/nathoo/skirmish/store/memory"
	"github.com/nathoo/skirmish/types"
)

// noJitter keeps every roll at its midpoint and fails every chance.
type noJitter struct{}

func (noJitter) Between(lo, hi int64) int64       { return (lo + hi) / 2 }
func (noJitter) Chance(p decimal.Decimal) bool    { return false }
func (noJitter) WeightedSelect(weights []int) int { return 0 }

// testCatalog returns minimal definitions for CLI testing.
func testCatalog() *catalog.Catalog {
	c := catalog.New()
	c.Game = types.GameDef{
		Title:   "Test Game",
		Author:  "Test",
		Version: "1.0",
		Start:   "hero",
		Intro:   "Welcome to the test.",
	}
	c.Tiers = []string{"novice", "veteran"}
	c.Templates["rat"] = types.MonsterTemplate{
		ID: "rat", Name: "Rat", HP: big.NewInt(40), Attack: big.NewInt(12),
		Defense: big.NewInt(4), Speed: big.NewInt(2), RewardID: "rat", Weight: 1,
	}
	c.Locations["cellar"] = []string{"rat"}
	c.Drops["rat"] = types.DropTable{ID: "rat", Currency: big.NewInt(3)}
	return c
}

func testHero() types.ActorSnapshot {
	return types.ActorSnapshot{
		ID: "hero", Location: "cellar", Tier: "veteran",
		HP: big.NewInt(50), MaxHP: big.NewInt(50), MP: big.NewInt(0), MaxMP: big.NewInt(10),
		Attack: big.NewInt(14), Defense: big.NewInt(6), Speed: big.NewInt(5), Currency: big.NewInt(0),
	}
}

func newTestSession(t *testing.T, store *memory.Store, dir string) *session.Session {
	t.Helper()
	eng := engine.New(store, testCatalog(), engine.WithDice(noJitter{}))
	s := session.New(eng, store, "hero")
	s.SaveDir = dir
	return s
}

func newTestCLI(t *testing.T, input string) (*CLI, *bytes.Buffer) {
	t.Helper()
	s := newTestSession(t, memory.NewStore(testHero()), t.TempDir())
	var out bytes.Buffer
	c := &CLI{
		Session: s,
		In:      strings.NewReader(input),
		Out:     &out,
	}
	return c, &out
}

func TestCLI_IntroAndStatus(t *testing.T) {
	c, out := newTestCLI(t, "/quit\n")
	c.Run(context.Background())

	output := out.String()
	if !strings.Contains(output, "Welcome to the test.") {
		t.Error("expected intro text in output")
	}
	if !strings.Contains(output, "hero (veteran) at cellar") {
		t.Error("expected actor status in output")
	}
}

func TestCLI_BasicBattle(t *testing.T) {
	c, out := newTestCLI(t, "encounter\nattack\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	// veteran is tier 1: the rat spawns at 0.9x, hp 36 atk 10 def 3.
	if !strings.Contains(output, "A Rat appears!") {
		t.Errorf("expected encounter line, got:\n%s", output)
	}
	if !strings.Contains(output, "You strike the Rat for 11 damage.") {
		t.Errorf("expected attack line, got:\n%s", output)
	}
	if !strings.Contains(output, "The Rat hits you for 4 damage.") {
		t.Errorf("expected monster reply, got:\n%s", output)
	}
}

func TestCLI_HelpCommand(t *testing.T) {
	c, out := newTestCLI(t, "/help\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	for _, want := range []string{"/save", "/load", "/quit", "encounter", "flee"} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %s in help output", want)
		}
	}
}

func TestCLI_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	// Fight a bit and save.
	var out bytes.Buffer
	c := &CLI{
		Session: newTestSession(t, memory.NewStore(testHero()), dir),
		In:      strings.NewReader("encounter\nattack\n/save test\n/quit\n"),
		Out:     &out,
	}
	c.Run(context.Background())

	if !strings.Contains(out.String(), "Game saved to test.") {
		t.Error("expected save confirmation")
	}

	// Start fresh and load.
	var out2 bytes.Buffer
	c2 := &CLI{
		Session: newTestSession(t, memory.NewStore(testHero()), dir),
		In:      strings.NewReader("/load test\n/quit\n"),
		Out:     &out2,
	}
	c2.Run(context.Background())

	loadOutput := out2.String()
	if !strings.Contains(loadOutput, "Game loaded from test") {
		t.Error("expected load confirmation")
	}
	// The saved battle is back: the rat took one hit.
	if !strings.Contains(loadOutput, "Rat  HP 25/36") {
		t.Errorf("expected restored battle after loading save, got:\n%s", loadOutput)
	}
}

func TestCLI_UnknownMetaCommand(t *testing.T) {
	c, out := newTestCLI(t, "/bogus\n/quit\n")
	c.Run(context.Background())

	if !strings.Contains(out.String(), "Unknown command") {
		t.Error("expected unknown command message")
	}
}

func TestCLI_TraceToggle(t *testing.T) {
	c, out := newTestCLI(t, "/trace\nencounter\n/trace\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	if !strings.Contains(output, "Trace output enabled") {
		t.Error("expected trace enabled message")
	}
	if !strings.Contains(output, "[[trace] battle ") {
		t.Errorf("expected trace line for the encounter, got:\n%s", output)
	}
	if !strings.Contains(output, "Trace output disabled") {
		t.Error("expected trace disabled message")
	}
}

func TestCLI_StateCommand(t *testing.T) {
	c, out := newTestCLI(t, "/state\n/quit\n")
	c.Run(context.Background())

	output := out.String()
	if !strings.Contains(output, "hero (veteran) at cellar") {
		t.Error("expected actor in state output")
	}
	if !strings.Contains(output, "Battle: none") {
		t.Error("expected battle line in state output")
	}
}

func TestCLI_EmptyInput(t *testing.T) {
	c, out := newTestCLI(t, "\n\n/quit\n")
	c.Run(context.Background())

	// Empty lines should be skipped (no "What do you want to do?" spam).
	if strings.Contains(out.String(), "What do you want to do?") {
		t.Error("empty lines should be silently skipped by CLI")
	}
}

func TestCLI_CommentLinesSkipped(t *testing.T) {
	c, out := newTestCLI(t, "# setup\n/quit\n")
	c.EchoInput = true
	c.Run(context.Background())

	if strings.Contains(out.String(), "# setup") {
		t.Error("comment lines should not be echoed")
	}
}

func TestCLI_LoadNonexistent(t *testing.T) {
	c, out := newTestCLI(t, "/load nonexistent\n/quit\n")
	c.Run(context.Background())

	if !strings.Contains(out.String(), "Load failed") {
		t.Error("expected load failure message")
	}
}

func TestCLI_Again_RepeatsLastCommand(t *testing.T) {
	c, out := newTestCLI(t, "encounter\nattack\nagain\n/quit\n")
	c.Run(context.Background())

	count := strings.Count(out.String(), "You strike the Rat for 11 damage.")
	if count != 2 {
		t.Errorf("expected two strikes (attack + again), got %d", count)
	}
}

func TestCLI_G_RepeatsLastCommand(t *testing.T) {
	c, out := newTestCLI(t, "status\ng\n/quit\n")
	c.Run(context.Background())

	// Intro status, explicit status, repeat.
	count := strings.Count(out.String(), "You are not in battle.")
	if count != 3 {
		t.Errorf("expected status 3 times, got %d", count)
	}
}

func TestCLI_Again_NothingToRepeat(t *testing.T) {
	c, out := newTestCLI(t, "again\n/quit\n")
	c.Run(context.Background())

	if !strings.Contains(out.String(), "Nothing to repeat") {
		t.Error("expected 'Nothing to repeat' when no prior command")
	}
}
