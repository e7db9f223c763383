package export_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/c360studio/shapegen/export"
	"github.com/c360studio/shapegen/mapping"
	"github.com/c360studio/shapegen/shape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const preamble = "@prefix sh:   <http://www.w3.org/ns/shacl#> .\n" +
	"@prefix rdf:  <http://www.w3.org/1999/02/22-rdf-syntax-ns#> .\n\n"

func TestTurtle_Empty(t *testing.T) {
	out := export.Turtle(shape.Shapes{})

	assert.Equal(t, preamble+export.Advisory, out)
	assert.NotContains(t, out, "sh:NodeShape")
}

func TestTurtle_Golden(t *testing.T) {
	shapes := shape.Shapes{
		"dcat:Distribution": &shape.Shape{
			TargetClass: "dcat:Distribution",
			Properties:  map[string]*shape.PropertyConstraint{},
		},
		"dcat:Dataset": &shape.Shape{
			TargetClass: "dcat:Dataset",
			Properties: map[string]*shape.PropertyConstraint{
				"dct:title":         {Path: "dct:title", MinCount: 1},
				"dct:issued":        {Path: "dct:issued", MinCount: 1, Datatype: "xsd:date"},
				"dcat:distribution": {Path: "dcat:distribution", MinCount: 1, IRIValued: true},
			},
		},
	}

	want := preamble +
		":Shape_1 a sh:NodeShape ;\n" +
		"  sh:targetClass dcat:Dataset ;\n" +
		"  sh:property [\n" +
		"    sh:path dcat:distribution ;\n" +
		"    sh:minCount 1 ;\n" +
		"    sh:nodeKind sh:IRI ;\n" +
		"  ] ;\n" +
		"  sh:property [\n" +
		"    sh:path dct:issued ;\n" +
		"    sh:minCount 1 ;\n" +
		"    sh:datatype xsd:date ;\n" +
		"  ] ;\n" +
		"  sh:property [\n" +
		"    sh:path dct:title ;\n" +
		"    sh:minCount 1 ;\n" +
		"  ] ;\n" +
		"  .\n\n" +
		":Shape_2 a sh:NodeShape ;\n" +
		"  sh:targetClass dcat:Distribution ;\n" +
		"  .\n\n" +
		export.Advisory

	assert.Equal(t, want, export.Turtle(shapes))
}

func TestTurtle_FromMappingDocument(t *testing.T) {
	doc, err := mapping.Parse([]byte(`
mappings:
  dataset:
    s: ex:dataset/$(id)
    po:
      - [a, "dcat:Dataset"]
      - ["dct:title", "$(title)"]
`))
	require.NoError(t, err)

	out := export.Turtle(shape.Infer(doc.Mappings))

	assert.Contains(t, out, ":Shape_1 a sh:NodeShape ;\n  sh:targetClass dcat:Dataset ;\n")
	assert.Contains(t, out, "    sh:path dct:title ;\n    sh:minCount 1 ;\n  ] ;\n")
	assert.NotContains(t, out, "sh:nodeKind")
	assert.NotContains(t, out, "sh:datatype")
	assert.NotContains(t, out, ":Shape_2")
}

func TestTurtle_Deterministic(t *testing.T) {
	ms := []mapping.Mapping{
		{Subject: "ex:b", Assertions: []mapping.Assertion{
			{Predicate: "a", Object: mapping.PlainValue("ex:B")},
			{Predicate: "ex:z", Object: mapping.PlainValue("ex:ref")},
			{Predicate: "ex:y", Object: mapping.StructuredValue{Value: "$(y)", Datatype: "xsd:int"}},
		}},
		{Subject: "ex:a", Assertions: []mapping.Assertion{
			{Predicate: "a", Object: mapping.PlainValue("ex:A")},
			{Predicate: "ex:x", Object: mapping.PlainValue("$(x)")},
		}},
		{Subject: "ex:c", Assertions: []mapping.Assertion{
			{Predicate: "a", Object: mapping.PlainValue("ex:C")},
		}},
	}

	first := export.Turtle(shape.Infer(ms))
	reversed := []mapping.Mapping{ms[2], ms[1], ms[0]}
	second := export.Turtle(shape.Infer(reversed))

	assert.Equal(t, first, second)
	assert.Less(t, strings.Index(first, "ex:A"), strings.Index(first, "ex:B"))
	assert.Less(t, strings.Index(first, "ex:B ;"), strings.Index(first, "ex:C"))
	assert.Less(t, strings.Index(first, "sh:path ex:y"), strings.Index(first, "sh:path ex:z"))
	assert.Contains(t, first, ":Shape_3 a sh:NodeShape ;\n  sh:targetClass ex:C ;\n  .\n")
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "shapes.ttl")

	require.NoError(t, export.WriteFile(path, "first"))
	require.NoError(t, export.WriteFile(path, "second"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}
