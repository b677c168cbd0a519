package entities

import (
	"strings"
	"unicode"
)

// Namespaces.
const (
	Namespace = "http://www.semanticweb.org/ontology/wot#"
	RDF       = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
	RDFS      = "http://www.w3.org/2000/01/rdf-schema#"
	OWL       = "http://www.w3.org/2002/07/owl#"
	XSD       = "http://www.w3.org/2001/XMLSchema#"

	// OntologyIRI names the ontology itself.
	OntologyIRI Identifier = "http://www.semanticweb.org/ontology/wot"
)

// WOT returns the identifier for a local name in the wot namespace.
func WOT(local string) Identifier {
	return Identifier(Namespace + local)
}

// Prefixes maps the conventional prefix of each namespace.
var Prefixes = map[string]string{
	"wot":  Namespace,
	"rdf":  RDF,
	"rdfs": RDFS,
	"owl":  OWL,
	"xsd":  XSD,
}

// Compact shortens id to prefix:local when it lives in a known namespace.
func Compact(id Identifier) string {
	for prefix, ns := range Prefixes {
		if id.InNamespace(ns) {
			return prefix + ":" + string(id)[len(ns):]
		}
	}
	return string(id)
}

// Standard vocabulary.
var (
	RDFType             = Identifier(RDF + "type")
	RDFSLabel           = Identifier(RDFS + "label")
	RDFSComment         = Identifier(RDFS + "comment")
	RDFSSubClassOf      = Identifier(RDFS + "subClassOf")
	RDFSDomain          = Identifier(RDFS + "domain")
	RDFSRange           = Identifier(RDFS + "range")
	OWLOntology         = Identifier(OWL + "Ontology")
	OWLClass            = Identifier(OWL + "Class")
	OWLObjectProperty   = Identifier(OWL + "ObjectProperty")
	OWLDatatypeProperty = Identifier(OWL + "DatatypeProperty")
)

// Predicates the ingestion pipeline links entities with.
var (
	BelongsToNation = WOT("belongsToNation")
	HasPerformance  = WOT("hasPerformance")
	AchievedBy      = WOT("achievedBy")
	InBattle        = WOT("inBattle")
	WithTank        = WOT("withTank")
	InstalledOn     = WOT("installedOn")
	TankName        = WOT("tankName")
	DisplayName     = WOT("displayName")
	NationName      = WOT("nationName")
	NationCode      = WOT("nationCode")
)

// Kind is an entity kind. Its value is the local name of the kind's class.
type Kind string

// Entity kinds.
const (
	KindTank        Kind = "Tank"
	KindPlayer      Kind = "Player"
	KindBattle      Kind = "Battle"
	KindPerformance Kind = "BattlePerformance"
	KindGun         Kind = "Gun"
	KindEngine      Kind = "Engine"
	KindTurret      Kind = "Turret"
	KindSuspension  Kind = "Suspension"
	KindRadio       Kind = "Radio"
	KindNation      Kind = "Nation"
	KindModule      Kind = "Module"
	// KindSource records a source table read into the graph.
	KindSource      Kind = "SourceTable"
)

// ModuleKinds lists the module kinds in catalogue column order.
var ModuleKinds = []Kind{KindGun, KindEngine, KindTurret, KindSuspension, KindRadio}

// Kinds lists every kind that can be minted by IdentifierFor.
var Kinds = []Kind{
	KindTank, KindPlayer, KindBattle, KindPerformance,
	KindGun, KindEngine, KindTurret, KindSuspension, KindRadio, KindNation,
	KindSource,
}

// Tag returns the identifier prefix for the kind.
func (k Kind) Tag() string {
	switch k {
	case KindPerformance:
		return "Performance"
	case KindSource:
		return "Source"
	}
	return string(k)
}

// Class returns the class identifier for the kind.
func (k Kind) Class() Identifier {
	return WOT(string(k))
}

// IsModule reports whether the kind is a tank module.
func (k Kind) IsModule() bool {
	switch k {
	case KindGun, KindEngine, KindTurret, KindSuspension, KindRadio:
		return true
	}
	return false
}

// Tank subclasses.
var (
	HeavyTank        = WOT("HeavyTank")
	MediumTank       = WOT("MediumTank")
	LightTank        = WOT("LightTank")
	TankDestroyer    = WOT("TankDestroyer")
	SelfPropelledGun = WOT("SelfPropelledGun")
)

// TankClasses lists the tank subclasses.
var TankClasses = []Identifier{HeavyTank, MediumTank, LightTank, TankDestroyer, SelfPropelledGun}

var classCodes = map[string]Identifier{
	"HT":         HeavyTank,
	"heavyTank":  HeavyTank,
	"MT":         MediumTank,
	"mediumTank": MediumTank,
	"LT":         LightTank,
	"lightTank":  LightTank,
	"TD":         TankDestroyer,
	"AT-SPG":     TankDestroyer,
	"SPG":        SelfPropelledGun,
}

// ClassForCode maps a vehicle class code to its tank subclass. Unknown codes
// map to the generic Tank class.
func ClassForCode(code string) Identifier {
	if class, ok := classCodes[strings.TrimSpace(code)]; ok {
		return class
	}
	return KindTank.Class()
}

// Nation is a nation individual seeded into every graph.
type Nation struct {
	Name string
	Code string
}

// Nations lists the known nations.
var Nations = []Nation{
	{Name: "USSR", Code: "ussr"},
	{Name: "Germany", Code: "germany"},
	{Name: "USA", Code: "usa"},
	{Name: "France", Code: "france"},
	{Name: "UK", Code: "uk"},
	{Name: "China", Code: "china"},
	{Name: "Japan", Code: "japan"},
	{Name: "Czech", Code: "czech"},
	{Name: "Sweden", Code: "sweden"},
	{Name: "Poland", Code: "poland"},
	{Name: "Italy", Code: "italy"},
}

var nationLookup = func() map[string]string {
	m := make(map[string]string, len(Nations)*2)
	for _, n := range Nations {
		m[strings.ToLower(n.Name)] = n.Name
		m[n.Code] = n.Name
	}
	return m
}()

// NationFor maps a nation name or code to the nation identifier. Matching is
// case-insensitive; unknown values pass through unchanged.
func NationFor(code string) Identifier {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	if name, ok := nationLookup[strings.ToLower(code)]; ok {
		return WOT(name)
	}
	return WOT(code)
}

// IsKnownNation reports whether the identifier is one of the seeded nations.
func IsKnownNation(id Identifier) bool {
	if !id.InNamespace(Namespace) {
		return false
	}
	name, ok := nationLookup[strings.ToLower(id.LocalName())]
	return ok && name == id.LocalName()
}

// SanitizePlayerKey replaces whitespace and hyphens with underscores.
func SanitizePlayerKey(name string) string {
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return '_'
		}
		return r
	}, name)
}

// IdentifierFor mints the stable identifier for a natural key. It returns
// the zero Identifier for an empty key.
func IdentifierFor(kind Kind, key string) Identifier {
	if key == "" {
		return ""
	}
	switch kind {
	case KindNation:
		return NationFor(key)
	case KindPlayer:
		key = SanitizePlayerKey(key)
	}
	return WOT(kind.Tag() + "_" + key)
}

var kindByTag = func() map[string]Kind {
	m := make(map[string]Kind, len(Kinds))
	for _, k := range Kinds {
		m[k.Tag()] = k
	}
	return m
}()

// KindOf recovers the kind an identifier was minted for.
func KindOf(id Identifier) (Kind, bool) {
	if !id.InNamespace(Namespace) {
		return "", false
	}
	local := id.LocalName()
	if IsKnownNation(id) {
		return KindNation, true
	}
	tag, _, ok := strings.Cut(local, "_")
	if !ok {
		return "", false
	}
	kind, ok := kindByTag[tag]
	return kind, ok
}
