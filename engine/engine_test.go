package engine

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nathoo/skirmish/engine/catalog"
	"github.com/nathoo/skirmish/engine/errs"
	"github.com/nathoo/skirmish/store/memory"
	"github.com/nathoo/skirmish/types"
)

// testCatalog builds a one-location catalog. Actors of tier "master" fight
// opponents at exactly their template stats.
func testCatalog(templates ...types.MonsterTemplate) *catalog.Catalog {
	c := catalog.New()
	c.Game = types.GameDef{Title: "Test Arena", Version: "1.0"}
	c.Tiers = []string{"mortal", "adept", "master"}
	for _, tpl := range templates {
		c.Templates[tpl.ID] = tpl
		c.Locations["arena"] = append(c.Locations["arena"], tpl.ID)
	}
	c.Drops["slime"] = types.DropTable{ID: "slime", Currency: n(10)}
	c.Items["gel"] = types.ItemDef{ID: "gel", Name: "Slime Gel"}
	return c
}

func slime(hp, atk, def int64) types.MonsterTemplate {
	return types.MonsterTemplate{
		ID: "slime", Name: "Slime", Tier: "common",
		HP: n(hp), Attack: n(atk), Defense: n(def), Speed: n(1), RewardID: "slime", Weight: 1,
	}
}

func testHero() types.ActorSnapshot {
	return types.ActorSnapshot{
		ID: "hero", Location: "arena", Tier: "master",
		HP: n(100), MaxHP: n(100), MP: n(25), MaxMP: n(50),
		Attack: n(20), Defense: n(10), Speed: n(10), Currency: n(0),
	}
}

type fixture struct {
	eng   *Engine
	store *memory.Store
	dice  *fixedDice
	now   time.Time
}

func newFixture(actor types.ActorSnapshot, cat *catalog.Catalog) *fixture {
	f := &fixture{
		store: memory.NewStore(actor),
		dice:  &fixedDice{},
		now:   time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	f.eng = New(f.store, cat,
		WithDice(f.dice),
		WithClock(func() time.Time { return f.now }),
		WithIDs(func() string { return "battle-1" }),
	)
	return f
}

func TestScenarioA_BasicAttack(t *testing.T) {
	f := newFixture(testHero(), testCatalog(slime(100, 15, 5)))
	ctx := context.Background()

	snap, err := f.eng.Encounter(ctx, "hero", "")
	if err != nil {
		t.Fatalf("Encounter returned error: %v", err)
	}
	if snap.Monster.HP.Int64() != 100 || snap.Phase != types.PhaseActorTurn || snap.Round != 1 {
		t.Fatalf("snapshot = hp %s phase %d round %d", snap.Monster.HP, snap.Phase, snap.Round)
	}

	res, err := f.eng.Act(ctx, "hero", types.ActionAttack)
	if err != nil {
		t.Fatalf("Act returned error: %v", err)
	}
	if res.Entry == nil || res.Entry.Damage.Int64() != 15 {
		t.Fatalf("entry = %+v, want damage 15", res.Entry)
	}
	if res.Final != nil || res.Battle == nil {
		t.Fatalf("expected a continuing battle, got %+v", res)
	}
	if res.Battle.Monster.HP.Int64() != 85 {
		t.Errorf("monster hp = %s, want 85", res.Battle.Monster.HP)
	}
	if res.Battle.Phase != types.PhaseMonsterTurn {
		t.Errorf("phase = %d, want monster turn", res.Battle.Phase)
	}
	if res.Battle.DamageDealt.Int64() != 15 {
		t.Errorf("damage dealt = %s, want 15", res.Battle.DamageDealt)
	}
}

func TestScenarioB_Skill(t *testing.T) {
	f := newFixture(testHero(), testCatalog(slime(100, 15, 5)))
	ctx := context.Background()
	if _, err := f.eng.Encounter(ctx, "hero", ""); err != nil {
		t.Fatal(err)
	}

	res, err := f.eng.Act(ctx, "hero", types.ActionSkill)
	if err != nil {
		t.Fatalf("Act returned error: %v", err)
	}
	if res.Entry.Damage.Int64() != 22 {
		t.Errorf("skill damage = %s, want 22", res.Entry.Damage)
	}
	if res.Battle.ActorMP.Int64() != 5 {
		t.Errorf("mp after skill = %s, want 5", res.Battle.ActorMP)
	}
	if res.Entry.Action != types.ActionSkill {
		t.Errorf("entry action = %d, want skill", res.Entry.Action)
	}
}

func TestScenarioC_Win(t *testing.T) {
	f := newFixture(testHero(), testCatalog(slime(10, 15, 5)))
	ctx := context.Background()
	if _, err := f.eng.Encounter(ctx, "hero", ""); err != nil {
		t.Fatal(err)
	}

	res, err := f.eng.Act(ctx, "hero", types.ActionAttack)
	if err != nil {
		t.Fatalf("Act returned error: %v", err)
	}
	if res.Final == nil {
		t.Fatalf("expected a terminal result, got %+v", res)
	}
	if res.Battle != nil {
		t.Error("terminal result should not carry a snapshot")
	}
	if res.Final.Outcome != types.OutcomeWin {
		t.Errorf("outcome = %s, want win", res.Final.Outcome)
	}
	if res.Entry.TargetHP.Sign() != 0 {
		t.Errorf("monster hp = %s, want clamped 0", res.Entry.TargetHP)
	}
	if res.Final.CurrencyDelta.Int64() != 10 {
		t.Errorf("currency delta = %s, want 10", res.Final.CurrencyDelta)
	}

	actor, _ := f.store.Actor(ctx, "hero")
	if actor.Currency.Int64() != 10 {
		t.Errorf("currency = %s, want 10", actor.Currency)
	}
	if in, _ := f.eng.InCombat(ctx, "hero"); in {
		t.Error("battle should be removed")
	}
	recs, err := f.eng.History(ctx, "hero", 0)
	if err != nil {
		t.Fatalf("History returned error: %v", err)
	}
	if len(recs) != 1 || recs[0].Result != types.OutcomeWin || recs[0].MonsterID != "slime" {
		t.Errorf("history = %+v", recs)
	}
	if recs[0].MonsterHP.Sign() != 0 || recs[0].Rounds != 1 || recs[0].BattleID != "battle-1" {
		t.Errorf("record = %+v", recs[0])
	}
}

func TestScenarioD_FleeBand(t *testing.T) {
	actor := testHero()
	actor.HP, _ = new(big.Int).SetString("1000000000000", 10)
	actor.MaxHP = new(big.Int).Set(actor.HP)
	store := memory.NewStore(actor)
	eng := New(store, testCatalog(slime(100, 1, 0)), WithDice(NewRNG(20260101)))
	ctx := context.Background()

	successes := 0
	for i := 0; i < 1000; i++ {
		if in, _ := eng.InCombat(ctx, "hero"); !in {
			if _, err := eng.Encounter(ctx, "hero", ""); err != nil {
				t.Fatalf("Encounter #%d: %v", i, err)
			}
		}
		res, err := eng.Flee(ctx, "hero")
		if err != nil {
			t.Fatalf("Flee #%d: %v", i, err)
		}
		if res.Success {
			successes++
			continue
		}
		if _, err := eng.ResolveMonsterTurn(ctx, "hero"); err != nil {
			t.Fatalf("ResolveMonsterTurn #%d: %v", i, err)
		}
	}
	if successes < 450 || successes > 550 {
		t.Errorf("successes = %d, want within [450, 550]", successes)
	}
}

func TestScenarioE_Lose(t *testing.T) {
	actor := testHero()
	actor.HP = n(10)
	actor.MaxHP = n(500)
	actor.Currency = n(1000)
	f := newFixture(actor, testCatalog(slime(1000, 50, 5)))
	ctx := context.Background()
	if _, err := f.eng.Encounter(ctx, "hero", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := f.eng.Act(ctx, "hero", types.ActionAttack); err != nil {
		t.Fatal(err)
	}

	res, err := f.eng.ResolveMonsterTurn(ctx, "hero")
	if err != nil {
		t.Fatalf("ResolveMonsterTurn returned error: %v", err)
	}
	if res.Final == nil || res.Final.Outcome != types.OutcomeLose {
		t.Fatalf("expected lose, got %+v", res)
	}
	if res.Final.CurrencyDelta.Int64() != -50 {
		t.Errorf("currency delta = %s, want -50", res.Final.CurrencyDelta)
	}
	if res.Final.ActorHP.Int64() != 150 {
		t.Errorf("respawn hp = %s, want 150", res.Final.ActorHP)
	}

	stored, _ := f.store.Actor(ctx, "hero")
	if stored.Currency.Int64() != 950 || stored.HP.Int64() != 150 {
		t.Errorf("actor = currency %s hp %s, want 950/150", stored.Currency, stored.HP)
	}
	recs, _ := f.eng.History(ctx, "hero", 1)
	if len(recs) != 1 || recs[0].Result != types.OutcomeLose || recs[0].DamageTaken.Int64() != 40 {
		t.Errorf("history = %+v", recs)
	}
}

func TestFlee_FailureConsumesTurnOnly(t *testing.T) {
	f := newFixture(testHero(), testCatalog(slime(100, 15, 5)))
	ctx := context.Background()
	_, _ = f.eng.Encounter(ctx, "hero", "")

	f.dice.chances = []bool{false}
	res, err := f.eng.Flee(ctx, "hero")
	if err != nil {
		t.Fatalf("Flee returned error: %v", err)
	}
	if res.Success || res.Battle == nil {
		t.Fatalf("expected failed flee with snapshot, got %+v", res)
	}
	if res.Battle.Round != 1 {
		t.Errorf("round = %d, want 1", res.Battle.Round)
	}
	if res.Battle.Phase != types.PhaseMonsterTurn {
		t.Errorf("phase = %d, want monster turn", res.Battle.Phase)
	}
	if res.Battle.DamageDealt.Sign() != 0 || res.Battle.ActorHP.Int64() != 100 {
		t.Errorf("flee dealt or took damage: %+v", res.Battle)
	}
	if res.Entry.Action != types.ActionFlee {
		t.Errorf("entry action = %d, want flee", res.Entry.Action)
	}
}

func TestFlee_Success(t *testing.T) {
	actor := testHero()
	actor.HP = n(60)
	f := newFixture(actor, testCatalog(slime(100, 15, 5)))
	ctx := context.Background()
	_, _ = f.eng.Encounter(ctx, "hero", "")

	f.dice.chances = []bool{true}
	res, err := f.eng.Flee(ctx, "hero")
	if err != nil {
		t.Fatalf("Flee returned error: %v", err)
	}
	if !res.Success || res.Final == nil || res.Final.Outcome != types.OutcomeFlee {
		t.Fatalf("expected successful flee, got %+v", res)
	}
	if res.Final.CurrencyDelta.Sign() != 0 || len(res.Final.Items) != 0 {
		t.Errorf("flee should carry no reward: %+v", res.Final)
	}
	stored, _ := f.store.Actor(ctx, "hero")
	if stored.HP.Int64() != 60 || stored.Currency.Sign() != 0 {
		t.Errorf("actor = hp %s currency %s", stored.HP, stored.Currency)
	}
}

func TestRoundCounting(t *testing.T) {
	f := newFixture(testHero(), testCatalog(slime(1000, 15, 5)))
	ctx := context.Background()
	_, _ = f.eng.Encounter(ctx, "hero", "")

	for want := 1; want <= 3; want++ {
		res, err := f.eng.Act(ctx, "hero", types.ActionAttack)
		if err != nil {
			t.Fatal(err)
		}
		if res.Battle.Round != want {
			t.Errorf("round after actor turn = %d, want %d", res.Battle.Round, want)
		}
		res, err = f.eng.ResolveMonsterTurn(ctx, "hero")
		if err != nil {
			t.Fatal(err)
		}
		if res.Battle.Round != want+1 {
			t.Errorf("round after monster turn = %d, want %d", res.Battle.Round, want+1)
		}
	}
}

func TestAct_NotYourTurn(t *testing.T) {
	f := newFixture(testHero(), testCatalog(slime(100, 15, 5)))
	ctx := context.Background()
	_, _ = f.eng.Encounter(ctx, "hero", "")
	_, _ = f.eng.Act(ctx, "hero", types.ActionAttack)

	if _, err := f.eng.Act(ctx, "hero", types.ActionAttack); !errors.Is(err, errs.ErrNotYourTurn) {
		t.Errorf("second Act: expected ErrNotYourTurn, got %v", err)
	}
	if _, err := f.eng.Flee(ctx, "hero"); !errors.Is(err, errs.ErrNotYourTurn) {
		t.Errorf("Flee: expected ErrNotYourTurn, got %v", err)
	}
}

func TestResolveMonsterTurn_Waiting(t *testing.T) {
	f := newFixture(testHero(), testCatalog(slime(100, 15, 5)))
	ctx := context.Background()
	_, _ = f.eng.Encounter(ctx, "hero", "")

	res, err := f.eng.ResolveMonsterTurn(ctx, "hero")
	if err != nil {
		t.Fatalf("ResolveMonsterTurn returned error: %v", err)
	}
	if !res.Waiting || res.Entry != nil || res.Final != nil {
		t.Errorf("expected a waiting no-op, got %+v", res)
	}
	snap, _, _ := f.eng.Status(ctx, "hero")
	if len(snap.Log) != 0 || snap.Phase != types.PhaseActorTurn {
		t.Errorf("waiting call changed the battle: %+v", snap)
	}
}

func TestAct_InsufficientResource(t *testing.T) {
	actor := testHero()
	actor.MP = n(10)
	f := newFixture(actor, testCatalog(slime(100, 15, 5)))
	ctx := context.Background()
	_, _ = f.eng.Encounter(ctx, "hero", "")

	_, err := f.eng.Act(ctx, "hero", types.ActionSkill)
	if !errors.Is(err, errs.ErrInsufficientResource) {
		t.Fatalf("expected ErrInsufficientResource, got %v", err)
	}
	if errs.KindOf(err) != errs.KindResource {
		t.Errorf("kind = %s, want resource", errs.KindOf(err))
	}
	snap, _, _ := f.eng.Status(ctx, "hero")
	if snap.Phase != types.PhaseActorTurn || snap.ActorMP.Int64() != 10 || len(snap.Log) != 0 {
		t.Errorf("failed skill consumed the turn: %+v", snap)
	}
}

func TestAct_RejectsOtherKinds(t *testing.T) {
	f := newFixture(testHero(), testCatalog(slime(100, 15, 5)))
	ctx := context.Background()
	_, _ = f.eng.Encounter(ctx, "hero", "")

	for _, kind := range []types.ActionKind{types.ActionFlee, types.ActionMonsterAttack, types.ActionKind(42)} {
		if _, err := f.eng.Act(ctx, "hero", kind); errs.KindOf(err) != errs.KindValidation {
			t.Errorf("Act(%d): expected validation error, got %v", kind, err)
		}
	}
}

func TestTerminal_BattleNotFoundAfterwards(t *testing.T) {
	f := newFixture(testHero(), testCatalog(slime(10, 15, 5)))
	ctx := context.Background()
	_, _ = f.eng.Encounter(ctx, "hero", "")
	if _, err := f.eng.Act(ctx, "hero", types.ActionAttack); err != nil {
		t.Fatal(err)
	}

	if _, err := f.eng.Act(ctx, "hero", types.ActionAttack); !errors.Is(err, errs.ErrBattleNotFound) {
		t.Errorf("Act: expected ErrBattleNotFound, got %v", err)
	}
	if _, err := f.eng.Flee(ctx, "hero"); !errors.Is(err, errs.ErrBattleNotFound) {
		t.Errorf("Flee: expected ErrBattleNotFound, got %v", err)
	}
	if _, err := f.eng.ResolveMonsterTurn(ctx, "hero"); !errors.Is(err, errs.ErrBattleNotFound) {
		t.Errorf("ResolveMonsterTurn: expected ErrBattleNotFound, got %v", err)
	}
	if _, ok, err := f.eng.Status(ctx, "hero"); ok || err != nil {
		t.Errorf("Status = %v, %v; want not in battle", ok, err)
	}
}

func TestEncounter_Errors(t *testing.T) {
	ctx := context.Background()

	f := newFixture(testHero(), testCatalog(slime(100, 15, 5)))
	if _, err := f.eng.Encounter(ctx, "", ""); errs.KindOf(err) != errs.KindValidation {
		t.Errorf("empty actor: expected validation error, got %v", err)
	}
	if _, err := f.eng.Encounter(ctx, "ghost", ""); !errors.Is(err, errs.ErrActorNotFound) {
		t.Errorf("unknown actor: expected ErrActorNotFound, got %v", err)
	}
	if _, err := f.eng.Encounter(ctx, "hero", "dragon"); !errors.Is(err, errs.ErrTemplateNotFound) {
		t.Errorf("unknown template: expected ErrTemplateNotFound, got %v", err)
	}
	if _, err := f.eng.Encounter(ctx, "hero", ""); err != nil {
		t.Fatal(err)
	}
	if _, err := f.eng.Encounter(ctx, "hero", ""); !errors.Is(err, errs.ErrAlreadyInBattle) {
		t.Errorf("second encounter: expected ErrAlreadyInBattle, got %v", err)
	}

	lost := testHero()
	lost.Location = "void"
	f = newFixture(lost, testCatalog(slime(100, 15, 5)))
	if _, err := f.eng.Encounter(ctx, "hero", ""); !errors.Is(err, errs.ErrNoOpponentsAvailable) {
		t.Errorf("empty location: expected ErrNoOpponentsAvailable, got %v", err)
	}
}

func TestEncounter_TemplateNotAtLocation(t *testing.T) {
	cat := testCatalog(slime(100, 15, 5))
	cat.Templates["golem"] = types.MonsterTemplate{ID: "golem", HP: n(500)}
	f := newFixture(testHero(), cat)

	_, err := f.eng.Encounter(context.Background(), "hero", "golem")
	if !errors.Is(err, errs.ErrNoOpponentsAvailable) {
		t.Errorf("expected ErrNoOpponentsAvailable, got %v", err)
	}
}

func TestEncounter_TierScaling(t *testing.T) {
	actor := testHero()
	actor.Tier = "mortal"
	f := newFixture(actor, testCatalog(slime(100, 15, 5)))

	snap, err := f.eng.Encounter(context.Background(), "hero", "slime")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Monster.MaxHP.Int64() != 80 || snap.Monster.Attack.Int64() != 12 {
		t.Errorf("mortal-tier slime = hp %s atk %s, want 80/12", snap.Monster.MaxHP, snap.Monster.Attack)
	}
}

func TestEncounter_ClampsActorPools(t *testing.T) {
	actor := testHero()
	actor.HP = n(150)
	actor.MP = n(-3)
	f := newFixture(actor, testCatalog(slime(100, 15, 5)))

	snap, err := f.eng.Encounter(context.Background(), "hero", "")
	if err != nil {
		t.Fatal(err)
	}
	if snap.ActorHP.Int64() != 100 || snap.ActorMP.Sign() != 0 {
		t.Errorf("pools = hp %s mp %s, want 100/0", snap.ActorHP, snap.ActorMP)
	}
}

func TestEncounter_ExpiryRefreshedByActions(t *testing.T) {
	f := newFixture(testHero(), testCatalog(slime(1000, 15, 5)))
	ctx := context.Background()
	snap, _ := f.eng.Encounter(ctx, "hero", "")
	ttl := f.eng.Catalog.Balance.BattleTTL
	if !snap.ExpiresAt.Equal(f.now.Add(ttl)) {
		t.Errorf("expires = %v, want %v", snap.ExpiresAt, f.now.Add(ttl))
	}

	f.now = f.now.Add(10 * time.Minute)
	res, _ := f.eng.Act(ctx, "hero", types.ActionAttack)
	if !res.Battle.ExpiresAt.Equal(f.now.Add(ttl)) || !res.Battle.LastActionAt.Equal(f.now) {
		t.Errorf("expiry not refreshed: last %v expires %v", res.Battle.LastActionAt, res.Battle.ExpiresAt)
	}
}

func TestWin_DropsGranted(t *testing.T) {
	cat := testCatalog(slime(10, 15, 5))
	cat.Drops["slime"] = types.DropTable{
		ID: "slime", Currency: n(10),
		Entries: []types.DropEntry{{ItemID: "gel", Chance: decimal.RequireFromString("0.5"), Min: 2, Max: 2}},
	}
	f := newFixture(testHero(), cat)
	ctx := context.Background()
	_, _ = f.eng.Encounter(ctx, "hero", "")

	f.dice.chances = []bool{true}
	res, err := f.eng.Act(ctx, "hero", types.ActionAttack)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Final.Items) != 1 || res.Final.Items[0] != (types.ItemGrant{ItemID: "gel", Quantity: 2}) {
		t.Errorf("items = %+v", res.Final.Items)
	}
	if inv, _ := f.store.Inventory(ctx, "hero"); inv["gel"] != 2 {
		t.Errorf("inventory = %v", inv)
	}
	if recs, _ := f.eng.History(ctx, "hero", 1); len(recs[0].Items) != 1 {
		t.Errorf("record items = %+v", recs[0].Items)
	}
}

func TestWin_MissingDropTable(t *testing.T) {
	cat := testCatalog(slime(10, 15, 5))
	delete(cat.Drops, "slime")
	f := newFixture(testHero(), cat)
	ctx := context.Background()
	_, _ = f.eng.Encounter(ctx, "hero", "")

	res, err := f.eng.Act(ctx, "hero", types.ActionAttack)
	if err != nil {
		t.Fatal(err)
	}
	if res.Final.Outcome != types.OutcomeWin || res.Final.CurrencyDelta.Sign() != 0 {
		t.Errorf("final = %+v, want a win without reward", res.Final)
	}
}

func TestWin_WritesBackPools(t *testing.T) {
	f := newFixture(testHero(), testCatalog(slime(30, 15, 5)))
	ctx := context.Background()
	_, _ = f.eng.Encounter(ctx, "hero", "")

	_, _ = f.eng.Act(ctx, "hero", types.ActionSkill) // 22 damage, mp 25 -> 5
	_, _ = f.eng.ResolveMonsterTurn(ctx, "hero")    // 15-10 = 5 damage
	res, err := f.eng.Act(ctx, "hero", types.ActionAttack)
	if err != nil {
		t.Fatal(err)
	}
	if res.Final == nil {
		t.Fatalf("expected win, got %+v", res)
	}
	actor, _ := f.store.Actor(ctx, "hero")
	if actor.HP.Int64() != 95 || actor.MP.Int64() != 5 {
		t.Errorf("actor = hp %s mp %s, want 95/5", actor.HP, actor.MP)
	}
}

func TestHistory_Limits(t *testing.T) {
	f := newFixture(testHero(), testCatalog(slime(10, 15, 5)))
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		_, _ = f.eng.Encounter(ctx, "hero", "")
		f.now = f.now.Add(time.Minute)
		if _, err := f.eng.Act(ctx, "hero", types.ActionAttack); err != nil {
			t.Fatal(err)
		}
	}

	recs, err := f.eng.History(ctx, "hero", 2)
	if err != nil || len(recs) != 2 {
		t.Fatalf("History(2) = %d records, %v", len(recs), err)
	}
	if !recs[0].EndedAt.After(recs[1].EndedAt) {
		t.Errorf("history not most recent first: %v then %v", recs[0].EndedAt, recs[1].EndedAt)
	}
	if recs, _ := f.eng.History(ctx, "hero", 500); len(recs) != 3 {
		t.Errorf("History(500) = %d records, want 3", len(recs))
	}
	if _, err := f.eng.History(ctx, "hero", -1); errs.KindOf(err) != errs.KindValidation {
		t.Errorf("negative limit: expected validation error, got %v", err)
	}
	if _, err := f.eng.History(ctx, "", 1); errs.KindOf(err) != errs.KindValidation {
		t.Errorf("empty actor: expected validation error, got %v", err)
	}
}

func TestSweep_Policies(t *testing.T) {
	tests := []struct {
		policy   types.StalePolicy
		resolved int
		outcome  types.Outcome
	}{
		{types.StaleKeep, 0, ""},
		{types.StaleFlee, 1, types.OutcomeFlee},
		{types.StaleLose, 1, types.OutcomeLose},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			cat := testCatalog(slime(100, 15, 5))
			cat.Balance.StalePolicy = tt.policy
			f := newFixture(testHero(), cat)
			ctx := context.Background()
			_, _ = f.eng.Encounter(ctx, "hero", "")

			// Not yet expired.
			if got, err := f.eng.Sweep(ctx); err != nil || got != 0 {
				t.Fatalf("early Sweep = %d, %v", got, err)
			}

			f.now = f.now.Add(cat.Balance.BattleTTL + time.Second)
			got, err := f.eng.Sweep(ctx)
			if err != nil {
				t.Fatalf("Sweep returned error: %v", err)
			}
			if got != tt.resolved {
				t.Errorf("resolved = %d, want %d", got, tt.resolved)
			}
			in, _ := f.eng.InCombat(ctx, "hero")
			if in != (tt.resolved == 0) {
				t.Errorf("in combat = %v after sweep", in)
			}
			if tt.outcome != "" {
				recs, _ := f.eng.History(ctx, "hero", 1)
				if len(recs) != 1 || recs[0].Result != tt.outcome {
					t.Errorf("history = %+v, want %s", recs, tt.outcome)
				}
			}
		})
	}
}

func TestStatus(t *testing.T) {
	f := newFixture(testHero(), testCatalog(slime(100, 15, 5)))
	ctx := context.Background()

	if _, ok, err := f.eng.Status(ctx, "hero"); ok || err != nil {
		t.Errorf("Status before encounter = %v, %v", ok, err)
	}
	_, _ = f.eng.Encounter(ctx, "hero", "")
	snap, ok, err := f.eng.Status(ctx, "hero")
	if !ok || err != nil {
		t.Fatalf("Status = %v, %v", ok, err)
	}
	if snap.BattleID != "battle-1" || snap.ActorID != "hero" || snap.Monster.Name != "Slime" {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestSnapshotOf_Clamps(t *testing.T) {
	b := types.ActiveBattle{
		Monster:    types.MonsterInstance{MaxHP: n(50), HP: n(-5)},
		ActorHP:    n(120),
		ActorMaxHP: n(100),
		ActorMP:    n(-1),
		ActorMaxMP: n(10),
		Log:        []types.LogEntry{{Damage: n(3), TargetHP: n(4)}},
	}
	snap := snapshotOf(b)
	if snap.Monster.HP.Sign() != 0 || snap.ActorHP.Int64() != 100 || snap.ActorMP.Sign() != 0 {
		t.Errorf("snapshot not clamped: %+v", snap)
	}
	snap.Log[0].Damage.SetInt64(99)
	if b.Log[0].Damage.Int64() != 3 {
		t.Error("snapshot log aliases the battle log")
	}
}
