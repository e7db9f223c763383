package shape

import "regexp"

var (
	httpIRIPattern = regexp.MustCompile(`^https?://`)

	// e.g. dcat:Dataset, ex:thing/$(id)
	prefixedNamePattern = regexp.MustCompile(`^[A-Za-z_][\w.-]*:\S+$`)
)

// LooksLikeIRI reports whether an object value reads as an IRI: either an
// http(s) IRI or a prefixed name, templated or not. Anything else with a colon
// in the right place is misclassified as an IRI too; that is accepted.
func LooksLikeIRI(s string) bool {
	return httpIRIPattern.MatchString(s) || prefixedNamePattern.MatchString(s)
}
