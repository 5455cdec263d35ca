package graph

import (
	"regexp"
	"strings"
)

// Namespace binds a prefix to a base IRI.
type Namespace struct {
	Prefix string
	Base   string
}

// Term returns the IRI of local within the namespace.
func (n Namespace) Term(local string) Term {
	return IRI(n.Base + local)
}

// Local returns the part of iri after the base and whether iri is in the namespace.
func (n Namespace) Local(iri string) (string, bool) {
	if !strings.HasPrefix(iri, n.Base) {
		return "", false
	}
	return strings.TrimPrefix(iri, n.Base), true
}

var (
	RDF         = Namespace{Prefix: "rdf", Base: "http://www.w3.org/1999/02/22-rdf-syntax-ns#"}
	RDFS        = Namespace{Prefix: "rdfs", Base: "http://www.w3.org/2000/01/rdf-schema#"}
	ECRM        = Namespace{Prefix: "ecrm", Base: "http://erlangen-crm.org/200717/"}
	SC          = Namespace{Prefix: "sc", Base: "http://iiif.io/api/presentation/2#"}
	Page        = Namespace{Prefix: "page", Base: "https://figgy.princeton.edu/concerns/pages/"}
	Entity      = Namespace{Prefix: "entity", Base: "https://figgy.princeton.edu/concerns/entities/"}
	Inscription = Namespace{Prefix: "inscription", Base: "https://figgy.princeton.edu/concerns/inscriptions/"}
	EType       = Namespace{Prefix: "etype", Base: "https://figgy.princeton.edu/concerns/adam/"}
)

// DefaultNamespaces are bound on every new graph.
func DefaultNamespaces() []Namespace {
	return []Namespace{RDF, RDFS, ECRM, SC, Page, Entity, Inscription, EType}
}

// Vocabulary used for inscriptions.
var (
	TypePredicate   = RDF.Term("type")
	LabelPredicate  = RDFS.Term("label")
	InscriptionType = ECRM.Term("E34_Inscription")
	CarriedBy       = ECRM.Term("P128i_is_carried_by")
	SymbolicContent = ECRM.Term("P190_has_symbolic_content")
	HasType         = ECRM.Term("P2_has_type")
)

// localNamePattern is the conservative subset of Turtle local names we abbreviate.
var localNamePattern = regexp.MustCompile(`^[A-Za-z0-9_][A-Za-z0-9_\-]*$`)
