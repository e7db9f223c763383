package shape_test

import (
	"bytes"
	"log/slog"
	"math/rand"
	"slices"
	"testing"

	"github.com/c360studio/shapegen/mapping"
	"github.com/c360studio/shapegen/shape"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func typeOf(class string) mapping.Assertion {
	return mapping.Assertion{Predicate: mapping.TypeMarker, Object: mapping.PlainValue(class)}
}

func plain(pred, value string) mapping.Assertion {
	return mapping.Assertion{Predicate: pred, Object: mapping.PlainValue(value)}
}

func structured(pred string, v mapping.StructuredValue) mapping.Assertion {
	return mapping.Assertion{Predicate: pred, Object: v}
}

func catalog() []mapping.Mapping {
	return []mapping.Mapping{
		{
			Name:    "dataset",
			Subject: "ex:dataset/$(id)",
			Assertions: []mapping.Assertion{
				typeOf("dcat:Dataset"),
				plain("dct:title", "$(title)"),
				structured("dcat:distribution", mapping.StructuredValue{Value: "ex:dist/$(did)", Type: "iri"}),
				structured("dct:issued", mapping.StructuredValue{Value: "$(issued)", Datatype: "xsd:date"}),
			},
		},
		{
			Name:    "dataset-keywords",
			Subject: "ex:dataset/$(id)",
			Assertions: []mapping.Assertion{
				plain("dcat:keyword", "$(kw)"),
				plain("dct:publisher", "ex:org/$(org)"),
			},
		},
		{
			Name:    "distribution",
			Subject: "ex:dist/$(did)",
			Assertions: []mapping.Assertion{
				typeOf("dcat:Distribution"),
				plain("dcat:accessURL", "https://data.example.org/$(did)"),
				structured("dct:format", mapping.StructuredValue{Value: "$(fmt)", Type: "literal"}),
			},
		},
		{
			Name:    "untyped",
			Subject: "ex:orphan/$(id)",
			Assertions: []mapping.Assertion{
				plain("ex:orphanProp", "$(x)"),
			},
		},
		{
			Name: "no-subject",
			Assertions: []mapping.Assertion{
				typeOf("ex:Ghost"),
				plain("ex:ghostProp", "$(x)"),
			},
		},
	}
}

func TestInfer_ScenarioA(t *testing.T) {
	shapes := shape.Infer([]mapping.Mapping{{
		Subject: "ex:dataset/$(id)",
		Assertions: []mapping.Assertion{
			typeOf("dcat:Dataset"),
			plain("dct:title", "$(title)"),
		},
	}})

	require.Len(t, shapes, 1)
	ds := shapes["dcat:Dataset"]
	require.NotNil(t, ds)
	assert.Equal(t, "dcat:Dataset", ds.TargetClass)
	require.Len(t, ds.Properties, 1)
	assert.Equal(t, &shape.PropertyConstraint{Path: "dct:title", MinCount: 1}, ds.Properties["dct:title"])
}

func TestInfer_ScenarioB_DeclaredIRI(t *testing.T) {
	shapes := shape.Infer([]mapping.Mapping{{
		Subject: "ex:dataset/$(id)",
		Assertions: []mapping.Assertion{
			typeOf("dcat:Dataset"),
			structured("dcat:distribution", mapping.StructuredValue{Value: "ex:dist/$(did)", Type: "iri"}),
		},
	}})

	pc := shapes["dcat:Dataset"].Properties["dcat:distribution"]
	require.NotNil(t, pc)
	assert.True(t, pc.IRIValued)
	assert.Empty(t, pc.Datatype)
}

func TestInfer_ScenarioC_Datatype(t *testing.T) {
	shapes := shape.Infer([]mapping.Mapping{{
		Subject: "ex:dataset/$(id)",
		Assertions: []mapping.Assertion{
			typeOf("dcat:Dataset"),
			structured("dct:issued", mapping.StructuredValue{Value: "$(issued)", Datatype: "xsd:date"}),
		},
	}})

	pc := shapes["dcat:Dataset"].Properties["dct:issued"]
	require.NotNil(t, pc)
	assert.Equal(t, "xsd:date", pc.Datatype)
	assert.False(t, pc.IRIValued)
	assert.Equal(t, 1, pc.MinCount)
}

func sharedSubjectMappings() []mapping.Mapping {
	return []mapping.Mapping{
		{
			Name:       "a",
			Subject:    "ex:item/$(id)",
			Assertions: []mapping.Assertion{typeOf("ext:A"), plain("ext:shared", "$(v)")},
		},
		{
			Name:       "b",
			Subject:    "ex:item/$(id)",
			Assertions: []mapping.Assertion{typeOf("ext:B"), plain("ext:onlyB", "$(w)")},
		},
	}
}

func TestInfer_ScenarioD_SharedSubjectDifferentClasses(t *testing.T) {
	shapes := shape.Infer(sharedSubjectMappings())

	require.Len(t, shapes, 2)
	assert.Equal(t, []string{"ext:shared"}, shapes["ext:A"].Predicates())
	assert.Equal(t, []string{"ext:onlyB"}, shapes["ext:B"].Predicates())
}

func TestInfer_SubjectJoinFansOutAcrossMappings(t *testing.T) {
	res := shape.NewInferencer(nil, shape.WithJoinPolicy(shape.JoinSubject)).Infer(sharedSubjectMappings())

	require.Len(t, res.Shapes, 2)
	assert.Equal(t, []string{"ext:onlyB", "ext:shared"}, res.Shapes["ext:A"].Predicates())
	assert.Equal(t, []string{"ext:onlyB", "ext:shared"}, res.Shapes["ext:B"].Predicates())
}

func TestInfer_DistinctSubjectsKeepPredicatesApart(t *testing.T) {
	shapes := shape.Infer([]mapping.Mapping{
		{
			Subject:    "ex:a/$(id)",
			Assertions: []mapping.Assertion{typeOf("ext:A"), plain("ext:onlyA", "$(v)")},
		},
		{
			Subject:    "ex:b/$(id)",
			Assertions: []mapping.Assertion{typeOf("ext:B")},
		},
	})

	assert.Contains(t, shapes["ext:A"].Properties, "ext:onlyA")
	assert.NotContains(t, shapes["ext:B"].Properties, "ext:onlyA")
	assert.Empty(t, shapes["ext:B"].Properties)
}

func TestInfer_MultiTypedSubjectFansOut(t *testing.T) {
	shapes := shape.Infer([]mapping.Mapping{{
		Subject: "ex:agent/$(id)",
		Assertions: []mapping.Assertion{
			typeOf("foaf:Agent"),
			typeOf("foaf:Person"),
			typeOf("foaf:Agent"),
			plain("foaf:name", "$(name)"),
		},
	}})

	require.Len(t, shapes, 2)
	assert.Contains(t, shapes["foaf:Agent"].Properties, "foaf:name")
	assert.Contains(t, shapes["foaf:Person"].Properties, "foaf:name")
}

func TestInfer_Catalog(t *testing.T) {
	res := shape.NewInferencer(nil).Infer(catalog())

	assert.Equal(t, []string{"dcat:Dataset", "dcat:Distribution"}, res.Shapes.Classes())

	ds := res.Shapes["dcat:Dataset"]
	assert.Equal(t, []string{"dcat:distribution", "dct:issued", "dct:title"}, ds.Predicates())

	dist := res.Shapes["dcat:Distribution"]
	assert.True(t, dist.Properties["dcat:accessURL"].IRIValued)
	assert.False(t, dist.Properties["dct:format"].IRIValued)

	assert.Equal(t, []shape.Skipped{
		{Mapping: "dataset-keywords", Reason: shape.SkipNoClass},
		{Mapping: "untyped", Reason: shape.SkipNoClass},
		{Mapping: "no-subject", Reason: shape.SkipNoSubject},
	}, res.Skipped)
	assert.Equal(t, 5, res.Shapes.PropertyCount())
}

func TestInfer_CatalogSubjectJoin(t *testing.T) {
	res := shape.NewInferencer(nil, shape.WithJoinPolicy(shape.JoinSubject)).Infer(catalog())

	ds := res.Shapes["dcat:Dataset"]
	assert.Equal(t, []string{"dcat:distribution", "dcat:keyword", "dct:issued", "dct:publisher", "dct:title"}, ds.Predicates())
	assert.True(t, ds.Properties["dct:publisher"].IRIValued)
	assert.False(t, ds.Properties["dcat:keyword"].IRIValued)

	assert.Equal(t, []shape.Skipped{
		{Mapping: "untyped", Reason: shape.SkipNoClass},
		{Mapping: "no-subject", Reason: shape.SkipNoSubject},
	}, res.Skipped)
	assert.Equal(t, 7, res.Shapes.PropertyCount())
}

func TestInfer_UntypedMappingsContributeNothing(t *testing.T) {
	shapes := shape.Infer(catalog())

	for class, sh := range shapes {
		for _, pred := range []string{"ex:orphanProp", "ex:ghostProp", "dcat:keyword", "dct:publisher"} {
			assert.NotContains(t, sh.Properties, pred, class)
		}
	}
	assert.NotContains(t, shapes, "ex:Ghost")
}

func TestInfer_StructuredTypeMarkerIsNotAClass(t *testing.T) {
	shapes := shape.Infer([]mapping.Mapping{{
		Subject: "ex:x/$(id)",
		Assertions: []mapping.Assertion{
			structured(mapping.TypeMarker, mapping.StructuredValue{Value: "ex:Structured"}),
			plain("ex:p", "$(v)"),
		},
	}})

	assert.Empty(t, shapes)
}

func TestInfer_TypeMarkerNeverBecomesProperty(t *testing.T) {
	shapes := shape.Infer([]mapping.Mapping{{
		Subject: "ex:x/$(id)",
		Assertions: []mapping.Assertion{
			typeOf("ex:Thing"),
			structured(mapping.TypeMarker, mapping.StructuredValue{Value: "ex:Other", Type: "iri"}),
		},
	}})

	require.Contains(t, shapes, "ex:Thing")
	assert.Empty(t, shapes["ex:Thing"].Properties)
}

func TestInfer_IRIHeuristicOnValues(t *testing.T) {
	tests := []struct {
		name string
		obj  mapping.ObjectSpec
		want bool
	}{
		{"plain http", mapping.PlainValue("http://example.org/$(id)"), true},
		{"plain https", mapping.PlainValue("https://example.org"), true},
		{"plain prefixed", mapping.PlainValue("ex:thing/$(id)"), true},
		{"plain template", mapping.PlainValue("$(title)"), false},
		{"plain words", mapping.PlainValue("no colon here"), false},
		{"structured iri type", mapping.StructuredValue{Type: "IRI", Value: "$(x)"}, true},
		{"structured prefixed value", mapping.StructuredValue{Value: "ex:x/$(x)"}, true},
		{"structured literal value", mapping.StructuredValue{Value: "$(x)", Type: "literal"}, false},
		{"structured empty", mapping.StructuredValue{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shapes := shape.Infer([]mapping.Mapping{{
				Subject:    "ex:s",
				Assertions: []mapping.Assertion{typeOf("ex:C"), {Predicate: "ex:p", Object: tt.obj}},
			}})
			assert.Equal(t, tt.want, shapes["ex:C"].Properties["ex:p"].IRIValued)
		})
	}
}

func TestInfer_IRIValuedIsSticky(t *testing.T) {
	shapes := shape.Infer([]mapping.Mapping{
		{Subject: "ex:s", Assertions: []mapping.Assertion{typeOf("ex:C"), plain("ex:p", "ex:ref/$(id)")}},
		{Subject: "ex:s", Assertions: []mapping.Assertion{typeOf("ex:C"), plain("ex:p", "$(literal)")}},
	})

	assert.True(t, shapes["ex:C"].Properties["ex:p"].IRIValued)
}

func TestInfer_DatatypeFirstWins(t *testing.T) {
	shapes := shape.Infer([]mapping.Mapping{
		{Subject: "ex:s", Assertions: []mapping.Assertion{
			typeOf("ex:C"),
			plain("ex:p", "$(v)"),
		}},
		{Subject: "ex:s", Assertions: []mapping.Assertion{
			typeOf("ex:C"),
			structured("ex:p", mapping.StructuredValue{Value: "$(v)", Datatype: "xsd:date"}),
		}},
		{Subject: "ex:s", Assertions: []mapping.Assertion{
			typeOf("ex:C"),
			structured("ex:p", mapping.StructuredValue{Value: "$(v)", Datatype: "xsd:dateTime"}),
		}},
	})

	assert.Equal(t, "xsd:date", shapes["ex:C"].Properties["ex:p"].Datatype)
}

func TestInfer_DuplicatedMappingsAreIdempotent(t *testing.T) {
	for _, join := range []shape.JoinPolicy{shape.JoinMapping, shape.JoinSubject} {
		t.Run(string(join), func(t *testing.T) {
			inf := shape.NewInferencer(nil, shape.WithJoinPolicy(join))
			once := inf.Infer(catalog()).Shapes
			twice := inf.Infer(append(catalog(), catalog()...)).Shapes
			assert.Equal(t, once, twice)
		})
	}
}

func TestInfer_OrderIndependent(t *testing.T) {
	for _, join := range []shape.JoinPolicy{shape.JoinMapping, shape.JoinSubject} {
		t.Run(string(join), func(t *testing.T) {
			inf := shape.NewInferencer(nil, shape.WithJoinPolicy(join))
			want := inf.Infer(catalog()).Shapes

			rng := rand.New(rand.NewSource(7))
			for i := 0; i < 20; i++ {
				ms := catalog()
				rng.Shuffle(len(ms), func(a, b int) { ms[a], ms[b] = ms[b], ms[a] })
				assert.Equal(t, want, inf.Infer(ms).Shapes)
			}

			reversed := catalog()
			slices.Reverse(reversed)
			assert.Equal(t, want, inf.Infer(reversed).Shapes)
		})
	}
}

func TestParseJoinPolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    shape.JoinPolicy
		wantErr bool
	}{
		{"", shape.JoinMapping, false},
		{"mapping", shape.JoinMapping, false},
		{" Subject ", shape.JoinSubject, false},
		{"class", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := shape.ParseJoinPolicy(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInfer_Empty(t *testing.T) {
	res := shape.NewInferencer(nil).Infer(nil)
	assert.Empty(t, res.Shapes)
	assert.Empty(t, res.Skipped)
}

func TestInfer_LogsSkippedMappings(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	shape.NewInferencer(logger).Infer(catalog())

	assert.Contains(t, buf.String(), "mapping=untyped")
	assert.Contains(t, buf.String(), `reason="no class"`)
}

func TestPropertyConstraint_Merge(t *testing.T) {
	pc := shape.NewPropertyConstraint("ex:p")
	pc.Merge(shape.PropertyConstraint{Path: "ex:p", MinCount: 1})
	assert.Equal(t, shape.PropertyConstraint{Path: "ex:p", MinCount: 1}, *pc)

	pc.Merge(shape.PropertyConstraint{Path: "ex:p", MinCount: 0, IRIValued: true, Datatype: "xsd:string"})
	assert.Equal(t, 0, pc.MinCount)
	assert.True(t, pc.IRIValued)
	assert.Equal(t, "xsd:string", pc.Datatype)

	pc.Merge(shape.PropertyConstraint{Path: "ex:p", MinCount: 1, Datatype: "xsd:int"})
	assert.Equal(t, 0, pc.MinCount, "minCount never increases")
	assert.True(t, pc.IRIValued, "IRI-valued never resets")
	assert.Equal(t, "xsd:string", pc.Datatype, "first datatype wins")
}
