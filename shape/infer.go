package shape

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/c360studio/shapegen/mapping"
)

// JoinPolicy decides which classes a mapping's predicates are attached to.
type JoinPolicy string

const (
	// JoinMapping attaches predicates to the classes asserted by the same
	// mapping. A mapping without its own type assertion contributes nothing.
	JoinMapping JoinPolicy = "mapping"

	// JoinSubject attaches predicates to every class asserted for the
	// subject template by any mapping, so untyped mappings that share a
	// subject with a typed one contribute, and predicates fan out to all
	// classes of a multi-typed subject.
	JoinSubject JoinPolicy = "subject"
)

// ParseJoinPolicy validates a policy name. The empty string is JoinMapping.
func ParseJoinPolicy(s string) (JoinPolicy, error) {
	switch JoinPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", JoinMapping:
		return JoinMapping, nil
	case JoinSubject:
		return JoinSubject, nil
	default:
		return "", fmt.Errorf("unknown join policy %q (want %q or %q)", s, JoinMapping, JoinSubject)
	}
}

// Skip reasons recorded for mappings that contribute no constraints.
const (
	SkipNoSubject = "no subject"
	SkipNoClass   = "no class"
)

// Skipped names a mapping that was left out of shape construction.
type Skipped struct {
	Mapping string
	Reason  string
}

// Result is the outcome of one inference run.
type Result struct {
	Shapes  Shapes
	Skipped []Skipped
}

// Inferencer derives shapes from mappings. It holds no state between runs
// and is safe for concurrent use.
type Inferencer struct {
	logger *slog.Logger
	join   JoinPolicy
}

// Option configures an Inferencer.
type Option func(*Inferencer)

// WithJoinPolicy sets the join policy. Default: JoinMapping.
func WithJoinPolicy(p JoinPolicy) Option {
	return func(i *Inferencer) {
		if p != "" {
			i.join = p
		}
	}
}

// NewInferencer creates an inferencer. A nil logger uses slog.Default().
func NewInferencer(logger *slog.Logger, opts ...Option) *Inferencer {
	if logger == nil {
		logger = slog.Default()
	}
	i := &Inferencer{logger: logger, join: JoinMapping}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

// Infer runs inference with default settings and returns only the shapes.
func Infer(mappings []mapping.Mapping) Shapes {
	return NewInferencer(nil).Infer(mappings).Shapes
}

// Infer builds one shape per class asserted anywhere in mappings.
func (i *Inferencer) Infer(mappings []mapping.Mapping) *Result {
	// Pass 1: classes per mapping and per subject template.
	own := make([][]string, len(mappings))
	bySubject := make(map[string][]string)
	for idx, m := range mappings {
		if m.Subject == "" {
			continue
		}
		own[idx] = assertedClasses(m)
		for _, class := range own[idx] {
			bySubject[m.Subject] = addClass(bySubject[m.Subject], class)
		}
	}

	// Pass 2: constraints.
	result := &Result{Shapes: make(Shapes)}
	for idx, m := range mappings {
		if m.Subject == "" {
			result.skip(m.Name, SkipNoSubject)
			continue
		}

		classes := own[idx]
		if i.join == JoinSubject {
			classes = bySubject[m.Subject]
		}
		if len(classes) == 0 {
			result.skip(m.Name, SkipNoClass)
			continue
		}

		for _, class := range classes {
			sh, ok := result.Shapes[class]
			if !ok {
				sh = NewShape(class)
				result.Shapes[class] = sh
			}
			for _, a := range m.Assertions {
				if a.IsTypeAssertion() {
					continue
				}
				sh.Property(a.Predicate).Merge(observe(a))
			}
		}
	}

	for _, s := range result.Skipped {
		i.logger.Debug("Mapping skipped",
			slog.String("mapping", s.Mapping),
			slog.String("reason", s.Reason))
	}
	i.logger.Debug("Inferred shapes",
		slog.String("join", string(i.join)),
		slog.Int("mappings", len(mappings)),
		slog.Int("shapes", len(result.Shapes)),
		slog.Int("properties", result.Shapes.PropertyCount()),
		slog.Int("skipped", len(result.Skipped)))

	return result
}

func (r *Result) skip(name, reason string) {
	r.Skipped = append(r.Skipped, Skipped{Mapping: name, Reason: reason})
}

// assertedClasses returns the distinct classes a mapping asserts with a
// plain-string type assertion, sorted. Type assertions with a structured
// object are not class declarations.
func assertedClasses(m mapping.Mapping) []string {
	var classes []string
	for _, a := range m.Assertions {
		if !a.IsTypeAssertion() {
			continue
		}
		class, ok := a.Object.(mapping.PlainValue)
		if !ok || class == "" {
			continue
		}
		classes = addClass(classes, string(class))
	}
	return classes
}

// addClass inserts class into a sorted set.
func addClass(classes []string, class string) []string {
	pos, found := slices.BinarySearch(classes, class)
	if found {
		return classes
	}
	return slices.Insert(classes, pos, class)
}

// observe derives the constraint implied by a single assertion.
func observe(a mapping.Assertion) PropertyConstraint {
	pc := PropertyConstraint{Path: a.Predicate, MinCount: DefaultMinCount}

	switch obj := a.Object.(type) {
	case mapping.StructuredValue:
		pc.IRIValued = strings.EqualFold(obj.Type, "iri") || LooksLikeIRI(obj.Value)
		pc.Datatype = obj.Datatype
	case mapping.PlainValue:
		pc.IRIValued = LooksLikeIRI(string(obj))
	}

	return pc
}
