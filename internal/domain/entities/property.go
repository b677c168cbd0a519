package entities

import (
	"slices"
	"strings"
)

// Property describes a predicate in the wot vocabulary.
type Property struct {
	Name    string
	Domains []Kind
	// Range is set for datatype properties.
	Range LiteralType
	// Target is set for object properties.
	Target Kind
}

// IRI returns the predicate identifier.
func (p Property) IRI() Identifier {
	return WOT(p.Name)
}

// IsObject reports whether the property links two entities.
func (p Property) IsObject() bool {
	return p.Target != ""
}

// AppliesTo reports whether kind is one of the property's domains.
func (p Property) AppliesTo(kind Kind) bool {
	return slices.Contains(p.Domains, kind)
}

func datatype(name string, r LiteralType, domains ...Kind) Property {
	return Property{Name: name, Domains: domains, Range: r}
}

func object(name string, target Kind, domains ...Kind) Property {
	return Property{Name: name, Domains: domains, Target: target}
}

// Properties is the full property vocabulary, in declaration order.
var Properties = []Property{
	// Tank
	datatype("tankId", LiteralInt, KindTank),
	datatype("tankName", LiteralString, KindTank),
	datatype("shortName", LiteralString, KindTank),
	datatype("tier", LiteralInt, KindTank),
	datatype("maxHP", LiteralInt, KindTank),
	datatype("weight", LiteralInt, KindTank),
	datatype("isPremium", LiteralBool, KindTank),
	datatype("isWheeled", LiteralBool, KindTank),
	datatype("isGift", LiteralBool, KindTank),
	datatype("priceCredit", LiteralInt, KindTank),
	datatype("priceGold", LiteralInt, KindTank),
	datatype("priceXP", LiteralInt, KindTank),
	datatype("hullHP", LiteralInt, KindTank),
	datatype("hullWeight", LiteralInt, KindTank),
	datatype("speedForward", LiteralInt, KindTank),
	datatype("speedBackward", LiteralInt, KindTank),

	// Modules
	datatype("gunName", LiteralString, KindGun),
	datatype("avgPenetration", LiteralInt, KindGun),
	datatype("avgDamage", LiteralInt, KindGun, KindPlayer),
	datatype("fireRate", LiteralFloat, KindGun),
	datatype("aimTime", LiteralFloat, KindGun),
	datatype("dpm", LiteralInt, KindGun),
	datatype("engineName", LiteralString, KindEngine),
	datatype("power", LiteralInt, KindEngine),
	datatype("turretName", LiteralString, KindTurret),
	datatype("suspensionName", LiteralString, KindSuspension),
	datatype("radioName", LiteralString, KindRadio),

	// Player
	datatype("displayName", LiteralString, KindPlayer),
	datatype("totalBattles", LiteralInt, KindPlayer),
	datatype("winRate", LiteralFloat, KindPlayer),
	datatype("avgXP", LiteralFloat, KindPlayer),

	// Battle
	datatype("battleTime", LiteralTimestamp, KindBattle),
	datatype("duration", LiteralInt, KindBattle),
	datatype("won", LiteralBool, KindBattle),
	datatype("spawn", LiteralInt, KindBattle),
	datatype("platoon", LiteralInt, KindBattle),

	// BattlePerformance
	datatype("damage", LiteralInt, KindPerformance),
	datatype("sniperDamage", LiteralInt, KindPerformance),
	datatype("damageReceived", LiteralInt, KindPerformance),
	datatype("damageReceivedFromInvisible", LiteralInt, KindPerformance),
	datatype("potentialDamageReceived", LiteralInt, KindPerformance),
	datatype("damageBlocked", LiteralInt, KindPerformance),
	datatype("shotsFired", LiteralInt, KindPerformance),
	datatype("directHits", LiteralInt, KindPerformance),
	datatype("penetrations", LiteralInt, KindPerformance),
	datatype("hitsReceived", LiteralInt, KindPerformance),
	datatype("penetrationsReceived", LiteralInt, KindPerformance),
	datatype("splashHitsReceived", LiteralInt, KindPerformance),
	datatype("spots", LiteralInt, KindPerformance),
	datatype("frags", LiteralInt, KindPerformance),
	datatype("trackingAssist", LiteralInt, KindPerformance),
	datatype("spottingAssist", LiteralInt, KindPerformance),
	datatype("baseDefensePoints", LiteralInt, KindPerformance),
	datatype("baseCapturePoints", LiteralInt, KindPerformance),
	datatype("lifeTime", LiteralInt, KindPerformance),
	datatype("distanceTraveled", LiteralInt, KindPerformance),
	datatype("baseXP", LiteralInt, KindPerformance),

	// Nation
	datatype("nationName", LiteralString, KindNation),
	datatype("nationCode", LiteralString, KindNation),

	// Links
	object("belongsToNation", KindNation, KindTank),
	object("hasGun", KindGun, KindTank),
	object("hasEngine", KindEngine, KindTank),
	object("hasTurret", KindTurret, KindTank),
	object("hasSuspension", KindSuspension, KindTank),
	object("hasRadio", KindRadio, KindTank),
	object("hasPerformance", KindPerformance, KindBattle),
	object("participatesIn", KindBattle, KindPlayer),
	object("plays", KindTank, KindPlayer),
	object("achieves", KindPerformance, KindPlayer),
	object("achievedBy", KindPlayer, KindPerformance),
	object("inBattle", KindBattle, KindPerformance),
	object("withTank", KindTank, KindPerformance),
	object("installedOn", KindTank, KindGun, KindEngine, KindTurret, KindSuspension, KindRadio),
}

var propertyIndex = func() map[Identifier]Property {
	m := make(map[Identifier]Property, len(Properties))
	for _, p := range Properties {
		m[p.IRI()] = p
	}
	return m
}()

// PropertyFor looks up a predicate in the vocabulary.
func PropertyFor(predicate Identifier) (Property, bool) {
	p, ok := propertyIndex[predicate]
	return p, ok
}

// ModuleLink returns the Tank→module predicate for a module kind, e.g.
// hasGun for Gun.
func ModuleLink(kind Kind) Identifier {
	return WOT("has" + string(kind))
}

// ModuleNameProperty returns the name predicate for a module kind, e.g.
// gunName for Gun.
func ModuleNameProperty(kind Kind) Identifier {
	s := string(kind)
	return WOT(strings.ToLower(s[:1]) + s[1:] + "Name")
}
