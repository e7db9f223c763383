// Package shape infers baseline SHACL node shapes from mapping documents.
//
// Inference runs in two passes over the mappings. The first pass collects the
// classes asserted for each subject template via the rdf:type shorthand. The
// second pass attaches every other predicate of a mapping to the shapes of
// all classes its subject template was asserted as, merging constraints that
// meet on the same (class, predicate).
//
// Only structure visible in the mapping is inferred: presence (minCount 1),
// IRI node kind and literal datatype. Controlled vocabularies, optionality,
// closed shapes and conditional rules have to be added by hand.
package shape

import "slices"

// DefaultMinCount is the cardinality assumed for every mapped predicate.
const DefaultMinCount = 1

// PropertyConstraint is the inferred rule for one predicate within a shape.
type PropertyConstraint struct {
	// Path is the predicate, exactly as written in the mapping.
	Path string

	// MinCount never increases when constraints are merged.
	MinCount int

	// IRIValued is set when any contributing assertion produces an IRI.
	IRIValued bool

	// Datatype is the first datatype seen for the predicate, or "".
	Datatype string
}

// NewPropertyConstraint returns a constraint with baseline values.
func NewPropertyConstraint(path string) *PropertyConstraint {
	return &PropertyConstraint{
		Path:     path,
		MinCount: DefaultMinCount,
	}
}

// Merge folds other into c. IRIValued is OR-ed, MinCount takes the minimum
// and Datatype keeps the first non-empty value.
func (c *PropertyConstraint) Merge(other PropertyConstraint) {
	c.IRIValued = c.IRIValued || other.IRIValued
	c.MinCount = min(c.MinCount, other.MinCount)
	if c.Datatype == "" && other.Datatype != "" {
		c.Datatype = other.Datatype
	}
}

// Shape is the constraint set inferred for one target class.
type Shape struct {
	TargetClass string

	// Properties is keyed by predicate.
	Properties map[string]*PropertyConstraint
}

// NewShape creates an empty shape for a class.
func NewShape(class string) *Shape {
	return &Shape{
		TargetClass: class,
		Properties:  make(map[string]*PropertyConstraint),
	}
}

// Property returns the constraint for a predicate, creating it on first use.
func (s *Shape) Property(predicate string) *PropertyConstraint {
	pc, ok := s.Properties[predicate]
	if !ok {
		pc = NewPropertyConstraint(predicate)
		s.Properties[predicate] = pc
	}
	return pc
}

// Shapes maps class identifiers to their shapes.
type Shapes map[string]*Shape

// Classes returns the class identifiers in lexicographic order.
func (s Shapes) Classes() []string {
	classes := make([]string, 0, len(s))
	for class := range s {
		classes = append(classes, class)
	}
	slices.Sort(classes)
	return classes
}

// PropertyCount returns the total number of property constraints.
func (s Shapes) PropertyCount() int {
	n := 0
	for _, sh := range s {
		n += len(sh.Properties)
	}
	return n
}

// Predicates returns the shape's predicates in lexicographic order.
func (s *Shape) Predicates() []string {
	preds := make([]string, 0, len(s.Properties))
	for p := range s.Properties {
		preds = append(preds, p)
	}
	slices.Sort(preds)
	return preds
}
