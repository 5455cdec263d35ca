package graph

import (
	"fmt"
	"strings"
)

// TermKind distinguishes IRIs from literals.
type TermKind int

const (
	KindIRI TermKind = iota
	KindLiteral
)

// Term is an RDF node. Terms are comparable and usable as map keys.
type Term struct {
	Kind     TermKind
	Value    string
	Lang     string
	Datatype string
}

// IRI creates an IRI term.
func IRI(value string) Term {
	return Term{Kind: KindIRI, Value: value}
}

// Literal creates a plain string literal.
func Literal(value string) Term {
	return Term{Kind: KindLiteral, Value: value}
}

// LangLiteral creates a language tagged literal.
func LangLiteral(value string, lang string) Term {
	return Term{Kind: KindLiteral, Value: value, Lang: lang}
}

func (t Term) IsIRI() bool { return t.Kind == KindIRI }

func (t Term) IsLiteral() bool { return t.Kind == KindLiteral }

// String returns the N-Triples form of the term.
func (t Term) String() string {
	if t.IsIRI() {
		return "<" + escapeIRI(t.Value) + ">"
	}
	s := `"` + escapeLiteral(t.Value) + `"`
	switch {
	case t.Lang != "":
		s += "@" + t.Lang
	case t.Datatype != "":
		s += "^^<" + escapeIRI(t.Datatype) + ">"
	}
	return s
}

// Triple is one RDF statement.
type Triple struct {
	Subject   Term
	Predicate Term
	Object    Term
}

func (t Triple) String() string {
	return fmt.Sprintf("%s %s %s .", t.Subject, t.Predicate, t.Object)
}

var literalEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
)

func escapeLiteral(s string) string {
	return literalEscaper.Replace(s)
}

// escapeIRI percent-encodes the characters N-Triples forbids inside <>.
func escapeIRI(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r <= 0x20, strings.ContainsRune("<>\"{}|^`\\", r):
			fmt.Fprintf(&b, "%%%02X", r)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
