// Package mapping loads YARRRML-style mapping documents into an ordered,
// typed collection of mappings.
//
// Only the parts of YARRRML that matter for structural inference are read:
// subject templates, predicate-object assertions and prefixes. Sources,
// functions and conditions are ignored.
package mapping

// TypeMarker is the shorthand predicate for rdf:type.
const TypeMarker = "a"

// Document is a parsed mapping document.
type Document struct {
	// Prefixes maps prefix names (without trailing colon) to namespace IRIs.
	Prefixes map[string]string

	// Mappings in document order.
	Mappings []Mapping
}

// Mapping binds a subject template to an ordered list of assertions.
type Mapping struct {
	// Name is the key of the mapping in the document.
	Name string

	// Subject is the subject template, e.g. "ex:dataset/$(id)".
	// Empty when the entry had no usable subject.
	Subject string

	// Assertions in the order they were written.
	Assertions []Assertion
}

// Assertion is one predicate/object pair of a mapping.
type Assertion struct {
	Predicate string
	Object    ObjectSpec
}

// IsTypeAssertion reports whether the assertion uses the rdf:type shorthand.
func (a Assertion) IsTypeAssertion() bool {
	return a.Predicate == TypeMarker
}

// ObjectSpec describes the object side of an assertion. It is a closed set:
// the only implementations are PlainValue and StructuredValue.
type ObjectSpec interface {
	objectSpec()
}

// PlainValue is a scalar object such as "$(title)" or "dcat:Dataset".
type PlainValue string

func (PlainValue) objectSpec() {}

// StructuredValue is an object written as a record with optional fields.
type StructuredValue struct {
	// Type is the term type, e.g. "iri" or "literal".
	Type string

	// Datatype is the literal datatype, e.g. "xsd:date".
	Datatype string

	// Value is the object value or template.
	Value string
}

func (StructuredValue) objectSpec() {}
