// Package shacl holds the SHACL and RDF terms written into generated shapes.
package shacl

// Namespace IRIs.
const (
	// Namespace is the SHACL vocabulary namespace.
	Namespace = "http://www.w3.org/ns/shacl#"

	// RDFNamespace is the RDF syntax namespace.
	RDFNamespace = "http://www.w3.org/1999/02/22-rdf-syntax-ns#"
)

// Prefixes used in Turtle output.
const (
	Prefix    = "sh"
	RDFPrefix = "rdf"
)

// Terms as prefixed names.
const (
	NodeShape   = "sh:NodeShape"
	TargetClass = "sh:targetClass"
	Property    = "sh:property"
	Path        = "sh:path"
	MinCount    = "sh:minCount"
	NodeKind    = "sh:nodeKind"
	IRI         = "sh:IRI"
	Datatype    = "sh:datatype"
)
