package mapping

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	iriSuffix  = "~iri"
	langSuffix = "~lang"
)

// Key aliases accepted by the loader.
var (
	mappingsKeys = []string{"mappings", "mapping"}
	subjectKeys  = []string{"s", "subject", "subjects"}
	poKeys       = []string{"po", "predicateobjects"}
	predKeys     = []string{"p", "predicates"}
	objKeys      = []string{"o", "objects"}
)

// LoadFromFile reads and parses a mapping document from disk.
func LoadFromFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read mapping file: %w", err)
	}

	doc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Parse parses a mapping document. The top-level mappings collection must be
// present; individual malformed entries are skipped.
func Parse(data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse mapping document: %w", err)
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, ErrNoMappings
	}

	top := deref(root.Content[0])
	if top.Kind != yaml.MappingNode {
		return nil, ErrNoMappings
	}

	mappingsNode := lookup(top, mappingsKeys...)
	if mappingsNode == nil {
		return nil, ErrNoMappings
	}

	doc := &Document{
		Prefixes: parsePrefixes(lookup(top, "prefixes")),
	}

	switch {
	case isNull(mappingsNode):
		// "mappings:" with no body is an empty collection.
	case mappingsNode.Kind == yaml.MappingNode:
		for i := 0; i+1 < len(mappingsNode.Content); i += 2 {
			name := mappingsNode.Content[i].Value
			body := deref(mappingsNode.Content[i+1])
			if body.Kind != yaml.MappingNode {
				continue
			}
			doc.Mappings = append(doc.Mappings, parseMapping(name, body))
		}
	default:
		return nil, ErrNoMappings
	}

	return doc, nil
}

// parseMapping reads one mapping body. A missing or non-string subject leaves
// Subject empty.
func parseMapping(name string, body *yaml.Node) Mapping {
	m := Mapping{Name: name}

	if subj := lookup(body, subjectKeys...); subj != nil && isString(subj) {
		m.Subject = strings.TrimSpace(subj.Value)
	}

	po := lookup(body, poKeys...)
	if po == nil || po.Kind != yaml.SequenceNode {
		return m
	}

	for _, entry := range po.Content {
		m.Assertions = append(m.Assertions, parseAssertions(deref(entry))...)
	}
	return m
}

// parseAssertions handles the [p, o], [p, o, datatype] and {p: .., o: ..}
// forms. Unknown forms yield nothing. A list of objects yields one assertion
// per object.
func parseAssertions(entry *yaml.Node) []Assertion {
	var predNode, objNode, extraNode *yaml.Node

	switch entry.Kind {
	case yaml.SequenceNode:
		switch len(entry.Content) {
		case 2:
			predNode, objNode = entry.Content[0], entry.Content[1]
		case 3:
			predNode, objNode, extraNode = entry.Content[0], entry.Content[1], entry.Content[2]
		default:
			return nil
		}
	case yaml.MappingNode:
		predNode = lookup(entry, predKeys...)
		objNode = lookup(entry, objKeys...)
		if predNode == nil || objNode == nil {
			return nil
		}
	default:
		return nil
	}

	predNode = deref(predNode)
	if predNode.Kind != yaml.ScalarNode {
		return nil
	}
	pred := strings.TrimSpace(predNode.Value)
	if pred == "" {
		return nil
	}

	datatype := ""
	if extraNode != nil {
		extraNode = deref(extraNode)
		if extraNode.Kind == yaml.ScalarNode && !strings.HasSuffix(extraNode.Value, langSuffix) {
			datatype = strings.TrimSpace(extraNode.Value)
		}
	}

	var out []Assertion
	for _, obj := range objectNodes(deref(objNode)) {
		spec, ok := parseObject(obj)
		if !ok {
			continue
		}
		if datatype != "" {
			spec = withDatatype(spec, datatype)
		}
		out = append(out, Assertion{Predicate: pred, Object: spec})
	}
	return out
}

// objectNodes flattens a list of objects; any other node is returned as is.
func objectNodes(n *yaml.Node) []*yaml.Node {
	if n.Kind != yaml.SequenceNode {
		return []*yaml.Node{n}
	}
	out := make([]*yaml.Node, 0, len(n.Content))
	for _, c := range n.Content {
		out = append(out, deref(c))
	}
	return out
}

// parseObject turns an object node into an ObjectSpec.
func parseObject(n *yaml.Node) (ObjectSpec, bool) {
	switch n.Kind {
	case yaml.ScalarNode:
		if isNull(n) {
			return PlainValue(""), true
		}
		v := strings.TrimSpace(n.Value)
		if stem, ok := strings.CutSuffix(v, iriSuffix); ok {
			return StructuredValue{Type: "iri", Value: strings.TrimSpace(stem)}, true
		}
		return PlainValue(v), true
	case yaml.MappingNode:
		return StructuredValue{
			Type:     scalarField(n, "type"),
			Datatype: scalarField(n, "datatype"),
			Value:    scalarField(n, "value"),
		}, true
	default:
		return nil, false
	}
}

func withDatatype(spec ObjectSpec, datatype string) ObjectSpec {
	switch v := spec.(type) {
	case PlainValue:
		return StructuredValue{Datatype: datatype, Value: string(v)}
	case StructuredValue:
		if v.Datatype == "" {
			v.Datatype = datatype
		}
		return v
	default:
		return spec
	}
}

func parsePrefixes(n *yaml.Node) map[string]string {
	prefixes := make(map[string]string)
	if n == nil || n.Kind != yaml.MappingNode {
		return prefixes
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		v := deref(n.Content[i+1])
		if v.Kind != yaml.ScalarNode {
			continue
		}
		prefixes[strings.TrimSuffix(n.Content[i].Value, ":")] = v.Value
	}
	return prefixes
}

// lookup returns the value of the first key present in a mapping node.
func lookup(n *yaml.Node, keys ...string) *yaml.Node {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for _, key := range keys {
		for i := 0; i+1 < len(n.Content); i += 2 {
			if n.Content[i].Value == key {
				return deref(n.Content[i+1])
			}
		}
	}
	return nil
}

// scalarField returns a trimmed string field of a record, or "" when absent
// or not a string.
func scalarField(n *yaml.Node, key string) string {
	v := lookup(n, key)
	if v == nil || !isString(v) {
		return ""
	}
	return strings.TrimSpace(v.Value)
}

func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isString(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!str"
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null"
}
