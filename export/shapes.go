// Package export serializes inferred shapes as SHACL in Turtle.
package export

import (
	"fmt"
	"strings"

	"github.com/c360studio/shapegen/shape"
	"github.com/c360studio/shapegen/vocabulary/shacl"
)

// ShapeIDPrefix prefixes the synthetic shape identifiers, e.g. ":Shape_1".
const ShapeIDPrefix = ":Shape_"

// Advisory is appended to every generated document.
const Advisory = "# NOTE: This is a baseline SHACL derived from mapping structure.\n" +
	"# You likely want to refine it with profile rules (controlled vocabularies, optional fields, if/then).\n"

// Turtle renders shapes as a SHACL Turtle document. Shapes are written in
// class order and properties in predicate order, so equal input always gives
// byte-identical output. Class and predicate names are written as given;
// the consumer must declare any prefixes they use.
func Turtle(shapes shape.Shapes) string {
	w := NewTurtleWriter()
	w.WritePrefixes()

	for i, class := range shapes.Classes() {
		w.WriteShape(i+1, shapes[class])
	}

	w.WriteComment(Advisory)
	return w.String()
}

// TurtleWriter writes SHACL node shapes in Turtle.
type TurtleWriter struct {
	sb strings.Builder
}

// NewTurtleWriter creates a new Turtle writer.
func NewTurtleWriter() *TurtleWriter {
	return &TurtleWriter{}
}

// WritePrefixes writes the fixed sh: and rdf: prefix declarations.
func (w *TurtleWriter) WritePrefixes() {
	w.sb.WriteString(fmt.Sprintf("@prefix %s:   <%s> .\n", shacl.Prefix, shacl.Namespace))
	w.sb.WriteString(fmt.Sprintf("@prefix %s:  <%s> .\n", shacl.RDFPrefix, shacl.RDFNamespace))
	w.sb.WriteString("\n")
}

// WriteShape writes one node shape with the given 1-based rank.
func (w *TurtleWriter) WriteShape(rank int, s *shape.Shape) {
	w.sb.WriteString(fmt.Sprintf("%s%d a %s ;\n", ShapeIDPrefix, rank, shacl.NodeShape))
	w.sb.WriteString(fmt.Sprintf("  %s %s ;\n", shacl.TargetClass, s.TargetClass))

	for _, pred := range s.Predicates() {
		w.writeProperty(s.Properties[pred])
	}

	w.sb.WriteString("  .\n\n")
}

func (w *TurtleWriter) writeProperty(pc *shape.PropertyConstraint) {
	w.sb.WriteString(fmt.Sprintf("  %s [\n", shacl.Property))
	w.sb.WriteString(fmt.Sprintf("    %s %s ;\n", shacl.Path, pc.Path))
	w.sb.WriteString(fmt.Sprintf("    %s %d ;\n", shacl.MinCount, pc.MinCount))
	if pc.IRIValued {
		w.sb.WriteString(fmt.Sprintf("    %s %s ;\n", shacl.NodeKind, shacl.IRI))
	}
	if pc.Datatype != "" {
		w.sb.WriteString(fmt.Sprintf("    %s %s ;\n", shacl.Datatype, pc.Datatype))
	}
	w.sb.WriteString("  ] ;\n")
}

// WriteComment writes comment text verbatim.
func (w *TurtleWriter) WriteComment(text string) {
	w.sb.WriteString(text)
}

// String returns the accumulated Turtle output.
func (w *TurtleWriter) String() string {
	return w.sb.String()
}
