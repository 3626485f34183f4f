// Package save implements JSON serialization and deserialization of
// persisted combat state. Big integers are written as base-10 strings.
package save

import (
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nathoo/skirmish/types"
)

// FormatVersion identifies the layout of SaveData.
const FormatVersion = 1

// State is everything a store persists.
type State struct {
	Game        types.GameDef
	RNGSeed     int64
	RNGPosition int64
	Actors      []types.ActorSnapshot
	Inventory   map[string]map[string]int64 // actor id -> item id -> quantity
	Battles     []types.ActiveBattle
	History     []types.HistoryRecord
}

// SaveData is the JSON-serializable save format.
type SaveData struct {
	Format      int                         `json:"format"`
	Version     string                      `json:"version"`
	Game        string                      `json:"game"`
	RNGSeed     int64                       `json:"rng_seed"`
	RNGPosition int64                       `json:"rng_position"`
	Actors      []Actor                     `json:"actors"`
	Inventory   map[string]map[string]int64 `json:"inventory"`
	Battles     []Battle                    `json:"battles"`
	History     []Record                    `json:"history"`
}

// Actor is the persisted form of types.ActorSnapshot.
type Actor struct {
	ID       string `json:"id"`
	Location string `json:"location"`
	Tier     string `json:"tier"`
	HP       string `json:"hp"`
	MaxHP    string `json:"max_hp"`
	MP       string `json:"mp"`
	MaxMP    string `json:"max_mp"`
	Attack   string `json:"attack"`
	Defense  string `json:"defense"`
	Speed    string `json:"speed"`
	Currency string `json:"currency"`
	Luck     int    `json:"luck,omitempty"`
}

// Monster is the persisted form of types.MonsterInstance.
type Monster struct {
	TemplateID string `json:"template_id"`
	Name       string `json:"name"`
	Tier       string `json:"tier"`
	MaxHP      string `json:"max_hp"`
	HP         string `json:"hp"`
	Attack     string `json:"attack"`
	Defense    string `json:"defense"`
	Speed      string `json:"speed"`
	RewardID   string `json:"reward_id"`
}

// Entry is the persisted form of types.LogEntry.
type Entry struct {
	Round    int       `json:"round"`
	Side     string    `json:"side"`
	Action   int       `json:"action"`
	Damage   string    `json:"damage"`
	TargetHP string    `json:"target_hp"`
	At       time.Time `json:"at"`
}

// Battle is the persisted form of types.ActiveBattle.
type Battle struct {
	ID           string    `json:"id"`
	ActorID      string    `json:"actor_id"`
	Monster      Monster   `json:"monster"`
	Round        int       `json:"round"`
	Phase        int       `json:"phase"`
	ActorHP      string    `json:"actor_hp"`
	ActorMaxHP   string    `json:"actor_max_hp"`
	ActorMP      string    `json:"actor_mp"`
	ActorMaxMP   string    `json:"actor_max_mp"`
	ActorAttack  string    `json:"actor_attack"`
	ActorDefense string    `json:"actor_defense"`
	ActorLuck    int       `json:"actor_luck,omitempty"`
	DamageDealt  string    `json:"damage_dealt"`
	DamageTaken  string    `json:"damage_taken"`
	Log          []Entry   `json:"log"`
	CreatedAt    time.Time `json:"created_at"`
	LastActionAt time.Time `json:"last_action_at"`
	ExpiresAt    time.Time `json:"expires_at"`
	Version      int64     `json:"version"`
}

// Grant is the persisted form of types.ItemGrant.
type Grant struct {
	ItemID   string `json:"item_id"`
	Quantity int64  `json:"quantity"`
}

// Record is the persisted form of types.HistoryRecord.
type Record struct {
	ID            string    `json:"id"`
	ActorID       string    `json:"actor_id"`
	BattleID      string    `json:"battle_id"`
	MonsterID     string    `json:"monster_id"`
	MonsterName   string    `json:"monster_name"`
	MonsterTier   string    `json:"monster_tier"`
	Result        string    `json:"result"`
	Rounds        int       `json:"rounds"`
	DamageDealt   string    `json:"damage_dealt"`
	DamageTaken   string    `json:"damage_taken"`
	ActorHP       string    `json:"actor_hp"`
	MonsterHP     string    `json:"monster_hp"`
	CurrencyDelta string    `json:"currency_delta"`
	Items         []Grant   `json:"items"`
	StartedAt     time.Time `json:"started_at"`
	EndedAt       time.Time `json:"ended_at"`
	DurationMS    int64     `json:"duration_ms"`
}

// Save serializes state to JSON bytes.
func Save(st *State) ([]byte, error) {
	data := SaveData{
		Format:      FormatVersion,
		Version:     st.Game.Version,
		Game:        st.Game.Title,
		RNGSeed:     st.RNGSeed,
		RNGPosition: st.RNGPosition,
		Inventory:   st.Inventory,
	}
	for _, a := range st.Actors {
		data.Actors = append(data.Actors, EncodeActor(a))
	}
	sort.Slice(data.Actors, func(i, j int) bool { return data.Actors[i].ID < data.Actors[j].ID })
	for _, b := range st.Battles {
		data.Battles = append(data.Battles, EncodeBattle(b))
	}
	sort.Slice(data.Battles, func(i, j int) bool { return data.Battles[i].ActorID < data.Battles[j].ActorID })
	for _, r := range st.History {
		data.History = append(data.History, EncodeRecord(r))
	}
	return json.MarshalIndent(data, "", "  ")
}

// Load deserializes JSON bytes into State.
func Load(data []byte) (*State, error) {
	var sd SaveData
	if err := json.Unmarshal(data, &sd); err != nil {
		return nil, err
	}
	if sd.Format > FormatVersion {
		return nil, fmt.Errorf("save format %d is newer than supported format %d", sd.Format, FormatVersion)
	}

	st := &State{
		Game:        types.GameDef{Title: sd.Game, Version: sd.Version},
		RNGSeed:     sd.RNGSeed,
		RNGPosition: sd.RNGPosition,
		Inventory:   sd.Inventory,
		Actors:      []types.ActorSnapshot{},
		Battles:     []types.ActiveBattle{},
		History:     []types.HistoryRecord{},
	}
	// Ensure maps are never nil after load.
	if st.Inventory == nil {
		st.Inventory = map[string]map[string]int64{}
	}
	for _, a := range sd.Actors {
		actor, err := DecodeActor(a)
		if err != nil {
			return nil, err
		}
		st.Actors = append(st.Actors, actor)
	}
	for _, b := range sd.Battles {
		battle, err := DecodeBattle(b)
		if err != nil {
			return nil, err
		}
		st.Battles = append(st.Battles, battle)
	}
	for _, r := range sd.History {
		rec, err := DecodeRecord(r)
		if err != nil {
			return nil, err
		}
		st.History = append(st.History, rec)
	}
	return st, nil
}

// MarshalBattle encodes one battle as JSON.
func MarshalBattle(b types.ActiveBattle) ([]byte, error) {
	return json.Marshal(EncodeBattle(b))
}

// UnmarshalBattle decodes a battle written by MarshalBattle.
func UnmarshalBattle(data []byte) (types.ActiveBattle, error) {
	var b Battle
	if err := json.Unmarshal(data, &b); err != nil {
		return types.ActiveBattle{}, err
	}
	return DecodeBattle(b)
}

// MarshalItems encodes item grants as JSON.
func MarshalItems(items []types.ItemGrant) ([]byte, error) {
	out := make([]Grant, 0, len(items))
	for _, g := range items {
		out = append(out, Grant{ItemID: g.ItemID, Quantity: g.Quantity})
	}
	return json.Marshal(out)
}

// UnmarshalItems decodes item grants written by MarshalItems.
func UnmarshalItems(data []byte) ([]types.ItemGrant, error) {
	var grants []Grant
	if err := json.Unmarshal(data, &grants); err != nil {
		return nil, err
	}
	return decodeGrants(grants), nil
}

// EncodeActor converts an actor to its persisted form.
func EncodeActor(a types.ActorSnapshot) Actor {
	return Actor{
		ID:       a.ID,
		Location: a.Location,
		Tier:     a.Tier,
		HP:       Int(a.HP),
		MaxHP:    Int(a.MaxHP),
		MP:       Int(a.MP),
		MaxMP:    Int(a.MaxMP),
		Attack:   Int(a.Attack),
		Defense:  Int(a.Defense),
		Speed:    Int(a.Speed),
		Currency: Int(a.Currency),
		Luck:     a.Luck,
	}
}

// DecodeActor converts a persisted actor back.
func DecodeActor(a Actor) (types.ActorSnapshot, error) {
	p := parser{field: "actor " + a.ID}
	out := types.ActorSnapshot{
		ID:       a.ID,
		Location: a.Location,
		Tier:     a.Tier,
		HP:       p.num("hp", a.HP),
		MaxHP:    p.num("max_hp", a.MaxHP),
		MP:       p.num("mp", a.MP),
		MaxMP:    p.num("max_mp", a.MaxMP),
		Attack:   p.num("attack", a.Attack),
		Defense:  p.num("defense", a.Defense),
		Speed:    p.num("speed", a.Speed),
		Currency: p.num("currency", a.Currency),
		Luck:     a.Luck,
	}
	return out, p.err
}

// EncodeBattle converts a battle to its persisted form.
func EncodeBattle(b types.ActiveBattle) Battle {
	m := b.Monster
	out := Battle{
		ID:      b.ID,
		ActorID: b.ActorID,
		Monster: Monster{
			TemplateID: m.TemplateID,
			Name:       m.Name,
			Tier:       m.Tier,
			MaxHP:      Int(m.MaxHP),
			HP:         Int(m.HP),
			Attack:     Int(m.Attack),
			Defense:    Int(m.Defense),
			Speed:      Int(m.Speed),
			RewardID:   m.RewardID,
		},
		Round:        b.Round,
		Phase:        int(b.Phase),
		ActorHP:      Int(b.ActorHP),
		ActorMaxHP:   Int(b.ActorMaxHP),
		ActorMP:      Int(b.ActorMP),
		ActorMaxMP:   Int(b.ActorMaxMP),
		ActorAttack:  Int(b.ActorAttack),
		ActorDefense: Int(b.ActorDefense),
		ActorLuck:    b.ActorLuck,
		DamageDealt:  Int(b.DamageDealt),
		DamageTaken:  Int(b.DamageTaken),
		Log:          []Entry{},
		CreatedAt:    b.CreatedAt,
		LastActionAt: b.LastActionAt,
		ExpiresAt:    b.ExpiresAt,
		Version:      b.Version,
	}
	for _, le := range b.Log {
		out.Log = append(out.Log, Entry{
			Round:    le.Round,
			Side:     string(le.Side),
			Action:   int(le.Action),
			Damage:   Int(le.Damage),
			TargetHP: Int(le.TargetHP),
			At:       le.At,
		})
	}
	return out
}

// DecodeBattle converts a persisted battle back.
func DecodeBattle(b Battle) (types.ActiveBattle, error) {
	p := parser{field: "battle " + b.ID}
	m := b.Monster
	out := types.ActiveBattle{
		ID:      b.ID,
		ActorID: b.ActorID,
		Monster: types.MonsterInstance{
			TemplateID: m.TemplateID,
			Name:       m.Name,
			Tier:       m.Tier,
			MaxHP:      p.num("monster.max_hp", m.MaxHP),
			HP:         p.num("monster.hp", m.HP),
			Attack:     p.num("monster.attack", m.Attack),
			Defense:    p.num("monster.defense", m.Defense),
			Speed:      p.num("monster.speed", m.Speed),
			RewardID:   m.RewardID,
		},
		Round:        b.Round,
		Phase:        types.Phase(b.Phase),
		ActorHP:      p.num("actor_hp", b.ActorHP),
		ActorMaxHP:   p.num("actor_max_hp", b.ActorMaxHP),
		ActorMP:      p.num("actor_mp", b.ActorMP),
		ActorMaxMP:   p.num("actor_max_mp", b.ActorMaxMP),
		ActorAttack:  p.num("actor_attack", b.ActorAttack),
		ActorDefense: p.num("actor_defense", b.ActorDefense),
		ActorLuck:    b.ActorLuck,
		DamageDealt:  p.num("damage_dealt", b.DamageDealt),
		DamageTaken:  p.num("damage_taken", b.DamageTaken),
		Log:          []types.LogEntry{},
		CreatedAt:    b.CreatedAt,
		LastActionAt: b.LastActionAt,
		ExpiresAt:    b.ExpiresAt,
		Version:      b.Version,
	}
	if out.Phase != types.PhaseActorTurn && out.Phase != types.PhaseMonsterTurn {
		return types.ActiveBattle{}, fmt.Errorf("battle %s: unknown phase %d", b.ID, b.Phase)
	}
	for i, le := range b.Log {
		out.Log = append(out.Log, types.LogEntry{
			Round:    le.Round,
			Side:     types.Side(le.Side),
			Action:   types.ActionKind(le.Action),
			Damage:   p.num(fmt.Sprintf("log[%d].damage", i), le.Damage),
			TargetHP: p.num(fmt.Sprintf("log[%d].target_hp", i), le.TargetHP),
			At:       le.At,
		})
	}
	return out, p.err
}

// EncodeRecord converts a history record to its persisted form.
func EncodeRecord(r types.HistoryRecord) Record {
	out := Record{
		ID:            r.ID,
		ActorID:       r.ActorID,
		BattleID:      r.BattleID,
		MonsterID:     r.MonsterID,
		MonsterName:   r.MonsterName,
		MonsterTier:   r.MonsterTier,
		Result:        string(r.Result),
		Rounds:        r.Rounds,
		DamageDealt:   Int(r.DamageDealt),
		DamageTaken:   Int(r.DamageTaken),
		ActorHP:       Int(r.ActorHP),
		MonsterHP:     Int(r.MonsterHP),
		CurrencyDelta: Int(r.CurrencyDelta),
		Items:         []Grant{},
		StartedAt:     r.StartedAt,
		EndedAt:       r.EndedAt,
		DurationMS:    r.Duration.Milliseconds(),
	}
	for _, g := range r.Items {
		out.Items = append(out.Items, Grant{ItemID: g.ItemID, Quantity: g.Quantity})
	}
	return out
}

// DecodeRecord converts a persisted history record back.
func DecodeRecord(r Record) (types.HistoryRecord, error) {
	p := parser{field: "record " + r.ID}
	out := types.HistoryRecord{
		ID:            r.ID,
		ActorID:       r.ActorID,
		BattleID:      r.BattleID,
		MonsterID:     r.MonsterID,
		MonsterName:   r.MonsterName,
		MonsterTier:   r.MonsterTier,
		Result:        types.Outcome(r.Result),
		Rounds:        r.Rounds,
		DamageDealt:   p.num("damage_dealt", r.DamageDealt),
		DamageTaken:   p.num("damage_taken", r.DamageTaken),
		ActorHP:       p.num("actor_hp", r.ActorHP),
		MonsterHP:     p.num("monster_hp", r.MonsterHP),
		CurrencyDelta: p.num("currency_delta", r.CurrencyDelta),
		Items:         decodeGrants(r.Items),
		StartedAt:     r.StartedAt,
		EndedAt:       r.EndedAt,
		Duration:      time.Duration(r.DurationMS) * time.Millisecond,
	}
	return out, p.err
}

func decodeGrants(grants []Grant) []types.ItemGrant {
	var out []types.ItemGrant
	for _, g := range grants {
		out = append(out, types.ItemGrant{ItemID: g.ItemID, Quantity: g.Quantity})
	}
	return out
}

// Int formats v in base 10. nil formats as "0".
func Int(v *big.Int) string {
	if v == nil {
		return "0"
	}
	return v.String()
}

// ParseInt parses a base-10 integer. Decimal notation with a zero
// fraction ("12.0") and exponent notation ("1e30") are accepted as long as
// the value is integral.
func ParseInt(s string) (*big.Int, error) {
	if s == "" {
		return new(big.Int), nil
	}
	if v, ok := new(big.Int).SetString(s, 10); ok {
		return v, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	if !d.Equal(d.Truncate(0)) {
		return nil, fmt.Errorf("invalid integer %q: has a fractional part", s)
	}
	return d.BigInt(), nil
}

// parser collects the first parse failure of a decode.
type parser struct {
	field string
	err   error
}

func (p *parser) num(name, s string) *big.Int {
	v, err := ParseInt(s)
	if err != nil {
		if p.err == nil {
			p.err = fmt.Errorf("%s: %s: %w", p.field, name, err)
		}
		return new(big.Int)
	}
	return v
}
