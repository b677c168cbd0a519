package entities

type classDecl struct {
	name    string
	label   string
	comment string
}

var baseClasses = []classDecl{
	{"Tank", "Tank", "Main vehicle in the game"},
	{"Nation", "Nation", "Country that produced the tank"},
	{"Player", "Player", "Game player"},
	{"Battle", "Battle", "Single battle/match"},
	{"BattlePerformance", "Battle Performance", "Player performance in a specific battle"},
	{"Module", "Module", "Tank equipment module"},
}

var tankSubclasses = []classDecl{
	{name: "HeavyTank", label: "Heavy Tank"},
	{name: "MediumTank", label: "Medium Tank"},
	{name: "LightTank", label: "Light Tank"},
	{name: "TankDestroyer", label: "Tank Destroyer"},
	{name: "SelfPropelledGun", label: "Self-Propelled Gun"},
}

// OntologyTriples returns the schema every graph starts from: the class
// hierarchy, property declarations and the nation individuals.
func OntologyTriples() []Triple {
	out := make([]Triple, 0, 512)
	add := func(s, p Identifier, o Term) {
		out = append(out, T(s, p, o))
	}

	add(OntologyIRI, RDFType, IRI(OWLOntology))
	add(OntologyIRI, RDFSLabel, Lit(String("World of Tanks Ontology")))

	for _, c := range baseClasses {
		id := WOT(c.name)
		add(id, RDFType, IRI(OWLClass))
		add(id, RDFSLabel, Lit(String(c.label)))
		add(id, RDFSComment, Lit(String(c.comment)))
	}
	for _, c := range tankSubclasses {
		id := WOT(c.name)
		add(id, RDFType, IRI(OWLClass))
		add(id, RDFSSubClassOf, IRI(KindTank.Class()))
		add(id, RDFSLabel, Lit(String(c.label)))
	}
	for _, k := range ModuleKinds {
		add(k.Class(), RDFType, IRI(OWLClass))
		add(k.Class(), RDFSSubClassOf, IRI(KindModule.Class()))
		add(k.Class(), RDFSLabel, Lit(String(string(k))))
	}

	for _, p := range Properties {
		id := p.IRI()
		if p.IsObject() {
			add(id, RDFType, IRI(OWLObjectProperty))
			add(id, RDFSRange, IRI(p.Target.Class()))
		} else {
			add(id, RDFType, IRI(OWLDatatypeProperty))
			add(id, RDFSRange, IRI(Identifier(p.Range.Datatype())))
		}
		for _, d := range p.Domains {
			add(id, RDFSDomain, IRI(d.Class()))
		}
	}

	for _, n := range Nations {
		id := WOT(n.Name)
		add(id, RDFType, IRI(KindNation.Class()))
		add(id, RDFSLabel, Lit(String(n.Name)))
		add(id, NationName, Lit(String(n.Name)))
		add(id, NationCode, Lit(String(n.Code)))
	}

	return out
}
